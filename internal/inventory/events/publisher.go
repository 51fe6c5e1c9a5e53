package events

import (
	"context"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/pkg/logger"
	"github.com/omiam/omiam-backend/pkg/messaging"
)

// ServiceName is the event source and dead letter queue suffix
const ServiceName = "inventory-service"

// Publisher is the subset of messaging.Publisher used here
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// InventoryEventPublisher publishes inventory-related events. A nil
// publisher is valid and publishes nothing, so callers need not check
// whether messaging is enabled.
type InventoryEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a publisher on the inventory exchange
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, ServiceName, log)
	if err != nil {
		return nil, err
	}
	return NewWithPublisher(publisher, log), nil
}

// NewWithPublisher wraps any Publisher, used by tests
func NewWithPublisher(p Publisher, log *logger.Logger) *InventoryEventPublisher {
	return &InventoryEventPublisher{
		publisher: p,
		logger:    log,
	}
}

// PublishStockAdjusted publishes a stock adjusted event. Failures are logged:
// the stock change is already committed.
func (p *InventoryEventPublisher) PublishStockAdjusted(ctx context.Context, item *domain.InventoryItem, m *domain.StockMovement) {
	if p == nil {
		return
	}

	data := messaging.StockAdjustedEvent{
		ItemID:        item.ID,
		SKU:           item.SKU,
		MovementID:    m.ID,
		MovementType:  string(m.Type),
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reason:        m.Reason,
	}
	if m.EmployeeID != nil {
		data.EmployeeID = *m.EmployeeID
	}
	if m.OrderID != nil {
		data.OrderID = *m.OrderID
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockAdjusted, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish stock adjusted event")
	}
}

// PublishAlertGenerated publishes an alert generated event
func (p *InventoryEventPublisher) PublishAlertGenerated(ctx context.Context, alert domain.InventoryAlert) {
	if p == nil {
		return
	}

	data := messaging.AlertGeneratedEvent{
		AlertID:   alert.ID,
		AlertType: string(alert.Type),
		Priority:  string(alert.Priority),
		Message:   alert.Message,
		ItemID:    alert.ItemID,
		SKU:       alert.SKU,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAlertGenerated, data); err != nil {
		p.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to publish alert generated event")
	}
}
