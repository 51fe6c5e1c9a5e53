package repository

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrVersionConflict marks a stock change that lost an optimistic
// concurrency race. Match it with errors.Is.
var ErrVersionConflict = stderrors.New("inventory item version conflict")

// ErrOrderLineConsumed marks a second consume movement for the same order
// and item. Match it with errors.Is.
var ErrOrderLineConsumed = stderrors.New("order line already consumed")

func versionConflict() error {
	return errors.Wrap(ErrVersionConflict, "CONCURRENT_MODIFICATION",
		"inventory item was modified concurrently, reload and retry", http.StatusConflict)
}

func orderLineConsumed() error {
	return errors.Wrap(ErrOrderLineConsumed, "ORDER_ALREADY_CONSUMED",
		"stock for this order was already consumed", http.StatusConflict)
}

// StockChange is the atomic unit written by ApplyStockChange: the new
// absolute stock level and the movement that explains it. The write only
// happens if the stored version still equals ExpectedVersion.
type StockChange struct {
	ItemID          string
	ExpectedVersion int64
	NewStock        decimal.Decimal
	Movement        *domain.StockMovement
}

// ItemStore persists inventory items
type ItemStore interface {
	List(ctx context.Context) ([]*domain.InventoryItem, error)
	// GetByID returns an errors.NotFound AppError for unknown ids
	GetByID(ctx context.Context, id string) (*domain.InventoryItem, error)
	// Create returns an errors.Conflict AppError for a duplicate SKU
	Create(ctx context.Context, item *domain.InventoryItem) error
	// ApplyStockChange writes the stock level and appends the movement in
	// one step. Returns the updated item, errors.NotFound, or an error
	// matching ErrVersionConflict or ErrOrderLineConsumed.
	ApplyStockChange(ctx context.Context, change StockChange) (*domain.InventoryItem, error)
	Ping(ctx context.Context) error
}

// MovementStore reads the movement log
type MovementStore interface {
	// ListByItem returns the most recent movements first
	ListByItem(ctx context.Context, itemID string, limit int) ([]*domain.StockMovement, error)
	// FindOrderConsumption returns the consume movement recorded for the
	// order on the item, or nil when there is none
	FindOrderConsumption(ctx context.Context, itemID, orderID string) (*domain.StockMovement, error)
}

// AcknowledgementStore persists alert acknowledgements keyed by alert id
type AcknowledgementStore interface {
	// Save inserts or replaces the acknowledgement for ack.AlertID
	Save(ctx context.Context, ack *domain.AlertAcknowledgement) error
	List(ctx context.Context) ([]domain.AlertAcknowledgement, error)
	// Delete removes the acknowledgements; unknown ids are ignored
	Delete(ctx context.Context, alertIDs ...string) error
}
