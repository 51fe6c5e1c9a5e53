package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/pkg/database"
	"github.com/omiam/omiam-backend/pkg/errors"
)

const itemColumns = `id, sku, name, description, category, unit, current_stock, min_stock,
	critical_stock, reorder_quantity, cost, selling_price, expiry_date, is_active, version,
	created_at, updated_at`

// ItemRepository handles inventory item persistence in PostgreSQL
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// List returns every item ordered by name
func (r *ItemRepository) List(ctx context.Context) ([]*domain.InventoryItem, error) {
	items := []*domain.InventoryItem{}
	query := `SELECT ` + itemColumns + ` FROM inventory_items ORDER BY name, id`
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	return items, nil
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.NotFound("inventory item")
	}

	var item domain.InventoryItem
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("inventory item")
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return &item, nil
}

// Create inserts a new item
func (r *ItemRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO inventory_items (
			id, sku, name, description, category, unit, current_stock, min_stock,
			critical_stock, reorder_quantity, cost, selling_price, expiry_date, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING version, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.SKU, item.Name, item.Description, item.Category, item.Unit,
		item.CurrentStock, item.MinStock, item.CriticalStock, item.ReorderQuantity,
		item.Cost, item.SellingPrice, item.ExpiryDate, item.IsActive,
	).Scan(&item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("create inventory item: %w", err)
	}
	return nil
}

// ApplyStockChange updates the stock level under a version check and appends
// the movement in the same transaction.
func (r *ItemRepository) ApplyStockChange(ctx context.Context, change StockChange) (*domain.InventoryItem, error) {
	var updated domain.InventoryItem

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE inventory_items
			SET current_stock = $1, version = version + 1, updated_at = NOW()
			WHERE id = $2 AND version = $3
			RETURNING ` + itemColumns

		err := tx.GetContext(ctx, &updated, query, change.NewStock, change.ItemID, change.ExpectedVersion)
		if stderrors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM inventory_items WHERE id = $1)`, change.ItemID); err != nil {
				return fmt.Errorf("check inventory item: %w", err)
			}
			if !exists {
				return errors.NotFound("inventory item")
			}
			return versionConflict()
		}
		if err != nil {
			if appErr := database.MapPQError(err); appErr != nil {
				return appErr
			}
			return fmt.Errorf("update stock: %w", err)
		}

		return insertMovement(ctx, tx, change.Movement)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Ping checks the database connection
func (r *ItemRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func insertMovement(ctx context.Context, tx *sqlx.Tx, m *domain.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_movements (
			id, item_id, movement_type, quantity, previous_stock, new_stock,
			reason, employee_id, order_id, cost, batch_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		m.ID, m.ItemID, m.Type, m.Quantity, m.PreviousStock, m.NewStock,
		m.Reason, m.EmployeeID, m.OrderID, m.Cost, m.BatchNumber,
	).Scan(&m.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == OrderConsumptionIndex {
			return orderLineConsumed()
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}
