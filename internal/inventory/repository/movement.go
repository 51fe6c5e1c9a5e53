package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/pkg/database"
)

const movementColumns = `id, item_id, movement_type, quantity, previous_stock, new_stock,
	reason, employee_id, order_id, cost, batch_number, created_at`

// MovementRepository reads the stock movement log
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// ListByItem returns up to limit movements for the item, newest first
func (r *MovementRepository) ListByItem(ctx context.Context, itemID string, limit int) ([]*domain.StockMovement, error) {
	movements := []*domain.StockMovement{}
	if _, err := uuid.Parse(itemID); err != nil {
		return movements, nil
	}

	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE item_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &movements, query, itemID, limit); err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return movements, nil
}

// FindOrderConsumption returns the consume movement for (item, order), or nil
func (r *MovementRepository) FindOrderConsumption(ctx context.Context, itemID, orderID string) (*domain.StockMovement, error) {
	if _, err := uuid.Parse(itemID); err != nil || orderID == "" {
		return nil, nil
	}

	var m domain.StockMovement
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE item_id = $1 AND order_id = $2 AND movement_type = 'consume'
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &m, query, itemID, orderID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order consumption: %w", err)
	}
	return &m, nil
}
