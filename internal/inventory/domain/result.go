package domain

import "github.com/shopspring/decimal"

// Outcome names how a stock-changing call ended. Business failures are
// outcomes, not errors; only infrastructure failures travel as error.
type Outcome string

const (
	OutcomeApplied           Outcome = "applied"
	OutcomeNotFound          Outcome = "not_found"
	OutcomeInsufficientStock Outcome = "insufficient_stock"
	OutcomeInvalid           Outcome = "invalid"
	OutcomeConflict          Outcome = "conflict"
	OutcomeAlreadyConsumed   Outcome = "already_consumed"
)

// StockResult is returned by UpdateStock, ConsumeStock and AddStock
type StockResult struct {
	Outcome  Outcome
	Item     *InventoryItem
	Movement *StockMovement

	// Set for OutcomeInsufficientStock
	Available decimal.Decimal
	Requested decimal.Decimal

	// Human readable cause for OutcomeInvalid
	Message string
}

// OK reports whether the change was applied
func (r StockResult) OK() bool {
	return r.Outcome == OutcomeApplied
}

// Applied builds a successful result
func Applied(item *InventoryItem, movement *StockMovement) StockResult {
	return StockResult{Outcome: OutcomeApplied, Item: item, Movement: movement}
}

// NotFound builds a result for an unknown item
func NotFound() StockResult {
	return StockResult{Outcome: OutcomeNotFound}
}

// Insufficient builds a result for a consumption larger than the stock
func Insufficient(item *InventoryItem, requested decimal.Decimal) StockResult {
	return StockResult{
		Outcome:   OutcomeInsufficientStock,
		Item:      item,
		Available: item.CurrentStock,
		Requested: requested,
	}
}

// Invalid builds a result for a rejected request shape
func Invalid(message string) StockResult {
	return StockResult{Outcome: OutcomeInvalid, Message: message}
}

// Conflict builds a result for a lost optimistic-concurrency race
func Conflict(item *InventoryItem) StockResult {
	return StockResult{Outcome: OutcomeConflict, Item: item}
}

// AlreadyConsumed builds a result for an order line that was consumed
// before. Movement is the original consumption when known.
func AlreadyConsumed(movement *StockMovement) StockResult {
	return StockResult{Outcome: OutcomeAlreadyConsumed, Movement: movement}
}
