package consumers

import (
	"context"
	"fmt"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/internal/inventory/events"
	"github.com/omiam/omiam-backend/internal/inventory/service"
	"github.com/omiam/omiam-backend/pkg/logger"
	"github.com/omiam/omiam-backend/pkg/messaging"
)

// QueueOrderEvents is the durable queue bound to order.confirmed
const QueueOrderEvents = events.ServiceName + ".order-events"

// OrderConsumer is the part of the inventory service driven by orders
type OrderConsumer interface {
	ConsumeOrder(ctx context.Context, order messaging.OrderConfirmedEvent) ([]service.OrderLineResult, error)
}

// OrderEventConsumer draws stock down for confirmed orders
type OrderEventConsumer struct {
	consumer *messaging.Consumer
	stock    OrderConsumer
	logger   *logger.Logger
}

// NewOrderEventConsumer declares the dead letter queue and the order queue,
// and binds it to order.confirmed.
func NewOrderEventConsumer(rmq *messaging.RabbitMQ, stock OrderConsumer, log *logger.Logger) (*OrderEventConsumer, error) {
	if err := rmq.DeclareDeadLetterQueue(events.ServiceName); err != nil {
		return nil, err
	}

	consumer, err := messaging.NewConsumer(rmq, QueueOrderEvents, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeOrderEvents, messaging.EventOrderConfirmed); err != nil {
		return nil, err
	}

	c := NewOrderHandler(stock, log)
	c.consumer = consumer
	consumer.RegisterHandler(messaging.EventOrderConfirmed, c.HandleOrderConfirmed)

	return c, nil
}

// NewOrderHandler builds the handler without a broker connection
func NewOrderHandler(stock OrderConsumer, log *logger.Logger) *OrderEventConsumer {
	return &OrderEventConsumer{stock: stock, logger: log}
}

// Start starts consuming messages
func (c *OrderEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// HandleOrderConfirmed consumes every order line. Lines that cannot be served
// are logged and the message is still acked; only infrastructure errors are
// returned, which dead-letters the message. Redelivered or replayed orders
// skip lines that were already consumed.
func (c *OrderEventConsumer) HandleOrderConfirmed(ctx context.Context, event *messaging.Event) error {
	var order messaging.OrderConfirmedEvent
	if err := event.UnmarshalData(&order); err != nil {
		return fmt.Errorf("decode order confirmed event %s: %w", event.ID, err)
	}
	if order.OrderID == "" {
		return fmt.Errorf("order confirmed event %s has no order id", event.ID)
	}

	c.logger.Info().
		Str("order_id", order.OrderID).
		Int("lines", len(order.Lines)).
		Msg("received order confirmed event")

	results, err := c.stock.ConsumeOrder(ctx, order)
	if err != nil {
		return fmt.Errorf("consume stock for order %s: %w", order.OrderID, err)
	}

	for _, r := range results {
		switch r.Result.Outcome {
		case domain.OutcomeApplied:
		case domain.OutcomeAlreadyConsumed:
			c.logger.Info().
				Str("order_id", order.OrderID).
				Str("item_id", r.Line.ItemID).
				Msg("order line already consumed, skipping")
		case domain.OutcomeInsufficientStock:
			c.logger.Warn().
				Str("order_id", order.OrderID).
				Str("item_id", r.Line.ItemID).
				Str("available", r.Result.Available.String()).
				Str("requested", r.Result.Requested.String()).
				Msg("insufficient stock for order line")
		default:
			c.logger.Warn().
				Str("order_id", order.OrderID).
				Str("item_id", r.Line.ItemID).
				Str("outcome", string(r.Result.Outcome)).
				Str("message", r.Result.Message).
				Msg("order line not applied")
		}
	}

	return nil
}
