package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	// Inventory events
	EventStockAdjusted  = "inventory.stock.adjusted"
	EventAlertGenerated = "inventory.alert.generated"

	// Order events
	EventOrderConfirmed = "order.confirmed"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
	ExchangeOrderEvents     = "order.events"
	ExchangeDeadLetter      = "dlx.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data any) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Inventory Events

// StockAdjustedEvent is published after every applied stock change
type StockAdjustedEvent struct {
	ItemID        string          `json:"item_id"`
	SKU           string          `json:"sku"`
	MovementID    string          `json:"movement_id"`
	MovementType  string          `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	Reason        string          `json:"reason"`
	EmployeeID    string          `json:"employee_id,omitempty"`
	OrderID       string          `json:"order_id,omitempty"`
}

// AlertGeneratedEvent is published when a stock change makes an alert active
type AlertGeneratedEvent struct {
	AlertID   string `json:"alert_id"`
	AlertType string `json:"alert_type"`
	Priority  string `json:"priority"`
	Message   string `json:"message"`
	ItemID    string `json:"item_id"`
	SKU       string `json:"sku"`
}

// Order Events

// OrderConfirmedEvent is consumed to draw down stock for a confirmed order
type OrderConfirmedEvent struct {
	OrderID string      `json:"order_id"`
	Lines   []OrderLine `json:"lines"`
}

// OrderLine is one inventory item consumed by an order
type OrderLine struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}
