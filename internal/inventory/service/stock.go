package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/internal/inventory/repository"
	"github.com/omiam/omiam-backend/internal/notify"
	"github.com/omiam/omiam-backend/pkg/errors"
	"github.com/omiam/omiam-backend/pkg/messaging"
	"github.com/shopspring/decimal"
)

// UpdateStockInput sets the absolute stock level, e.g. after a recount
type UpdateStockInput struct {
	ItemID     string
	Quantity   decimal.Decimal
	Reason     string
	EmployeeID string
}

// ConsumeStockInput draws stock down, typically for an order
type ConsumeStockInput struct {
	ItemID     string
	Quantity   decimal.Decimal
	OrderID    string
	EmployeeID string
	Reason     string
}

// AddStockInput records received stock
type AddStockInput struct {
	ItemID      string
	Quantity    decimal.Decimal
	Cost        *decimal.Decimal
	BatchNumber string
	EmployeeID  string
	Reason      string
}

// planFunc decides the new stock level for the loaded item. A non-nil result
// ends the operation with that outcome.
type planFunc func(item *domain.InventoryItem) (decimal.Decimal, *domain.StockMovement, *domain.StockResult)

// UpdateStock sets the stock to exactly in.Quantity. The reason is required.
func (s *InventoryService) UpdateStock(ctx context.Context, in UpdateStockInput) (domain.StockResult, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return domain.Invalid("reason is required for a stock update"), nil
	}
	if in.Quantity.IsNegative() {
		return domain.Invalid("quantity must not be negative"), nil
	}
	if err := domain.CheckQuantity(in.Quantity); err != nil {
		return domain.Invalid("quantity " + err.Error()), nil
	}

	return s.applyChange(ctx, in.ItemID, func(item *domain.InventoryItem) (decimal.Decimal, *domain.StockMovement, *domain.StockResult) {
		return in.Quantity, &domain.StockMovement{
			Type:       domain.MovementUpdate,
			Quantity:   in.Quantity.Sub(item.CurrentStock),
			Reason:     reason,
			EmployeeID: domain.StringPtr(in.EmployeeID),
		}, nil
	})
}

// ConsumeStock removes in.Quantity. Asking for more than is in stock yields
// OutcomeInsufficientStock and changes nothing. An item is consumed at most
// once per order; a repeat yields OutcomeAlreadyConsumed.
func (s *InventoryService) ConsumeStock(ctx context.Context, in ConsumeStockInput) (domain.StockResult, error) {
	if !in.Quantity.IsPositive() {
		return domain.Invalid("quantity must be greater than zero"), nil
	}
	if err := domain.CheckQuantity(in.Quantity); err != nil {
		return domain.Invalid("quantity " + err.Error()), nil
	}

	in.OrderID = strings.TrimSpace(in.OrderID)
	if in.OrderID != "" {
		prior, err := s.movements.FindOrderConsumption(ctx, in.ItemID, in.OrderID)
		if err != nil {
			return domain.StockResult{}, err
		}
		if prior != nil {
			return domain.AlreadyConsumed(prior), nil
		}
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "Stock consumed"
		if in.OrderID != "" {
			reason = fmt.Sprintf("Order %s", in.OrderID)
		}
	}

	return s.applyChange(ctx, in.ItemID, func(item *domain.InventoryItem) (decimal.Decimal, *domain.StockMovement, *domain.StockResult) {
		if in.Quantity.GreaterThan(item.CurrentStock) {
			res := domain.Insufficient(item, in.Quantity)
			return decimal.Zero, nil, &res
		}
		return item.CurrentStock.Sub(in.Quantity), &domain.StockMovement{
			Type:       domain.MovementConsume,
			Quantity:   in.Quantity.Neg(),
			Reason:     reason,
			EmployeeID: domain.StringPtr(in.EmployeeID),
			OrderID:    domain.StringPtr(in.OrderID),
		}, nil
	})
}

// AddStock adds in.Quantity, recording the optional lot cost and batch number
func (s *InventoryService) AddStock(ctx context.Context, in AddStockInput) (domain.StockResult, error) {
	if !in.Quantity.IsPositive() {
		return domain.Invalid("quantity must be greater than zero"), nil
	}
	if err := domain.CheckQuantity(in.Quantity); err != nil {
		return domain.Invalid("quantity " + err.Error()), nil
	}
	if in.Cost != nil {
		if in.Cost.IsNegative() {
			return domain.Invalid("cost must not be negative"), nil
		}
		if err := domain.CheckCost(*in.Cost); err != nil {
			return domain.Invalid("cost " + err.Error()), nil
		}
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "Stock received"
		if in.BatchNumber != "" {
			reason = fmt.Sprintf("Stock received (batch %s)", in.BatchNumber)
		}
	}

	return s.applyChange(ctx, in.ItemID, func(item *domain.InventoryItem) (decimal.Decimal, *domain.StockMovement, *domain.StockResult) {
		newStock := item.CurrentStock.Add(in.Quantity)
		if err := domain.CheckQuantity(newStock); err != nil {
			res := domain.Invalid("resulting stock " + err.Error())
			return decimal.Zero, nil, &res
		}
		return newStock, &domain.StockMovement{
			Type:        domain.MovementAdd,
			Quantity:    in.Quantity,
			Reason:      reason,
			EmployeeID:  domain.StringPtr(in.EmployeeID),
			Cost:        in.Cost,
			BatchNumber: domain.StringPtr(in.BatchNumber),
		}, nil
	})
}

// applyChange loads the item, lets plan decide, then writes the change under
// the version that was read. A lost race is reported, never retried.
func (s *InventoryService) applyChange(ctx context.Context, itemID string, plan planFunc) (domain.StockResult, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if _, ok := isAppError(err, errors.ErrNotFound); ok {
			return domain.NotFound(), nil
		}
		return domain.StockResult{}, err
	}

	newStock, movement, early := plan(item)
	if early != nil {
		return *early, nil
	}

	movement.ItemID = item.ID
	movement.PreviousStock = item.CurrentStock
	movement.NewStock = newStock

	updated, err := s.items.ApplyStockChange(ctx, repository.StockChange{
		ItemID:          item.ID,
		ExpectedVersion: item.Version,
		NewStock:        newStock,
		Movement:        movement,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			s.logger.Warn().Str("item_id", item.ID).Int64("version", item.Version).Msg("concurrent stock change rejected")
			return domain.Conflict(item), nil
		case errors.Is(err, repository.ErrOrderLineConsumed):
			return domain.AlreadyConsumed(nil), nil
		case errors.Is(err, errors.ErrNotFound):
			return domain.NotFound(), nil
		}
		if appErr, ok := isAppError(err, errors.ErrBadRequest); ok {
			return domain.Invalid(appErr.Message), nil
		}
		return domain.StockResult{}, err
	}

	s.logger.Info().
		Str("item_id", updated.ID).
		Str("movement_type", string(movement.Type)).
		Str("quantity", movement.Quantity.String()).
		Str("new_stock", updated.CurrentStock.String()).
		Msg("stock changed")

	s.invalidateStats(ctx)
	s.publisher.PublishStockAdjusted(ctx, updated, movement)
	s.announceNewAlerts(ctx, item, updated)

	return domain.Applied(updated, movement), nil
}

// announceNewAlerts releases acknowledgements for alerts that before implied
// and after no longer does, then publishes and pushes alerts that after
// implies but before did not, skipping ones already acknowledged.
func (s *InventoryService) announceNewAlerts(ctx context.Context, before, after *domain.InventoryItem) {
	now := s.now()
	seen := map[string]bool{}
	if before != nil {
		for _, a := range domain.ClassifyItem(before, now, s.cfg.ExpiryWarningWindow) {
			seen[a.ID] = true
		}
	}

	var fresh []domain.InventoryAlert
	for _, a := range domain.ClassifyItem(after, now, s.cfg.ExpiryWarningWindow) {
		if seen[a.ID] {
			delete(seen, a.ID)
			continue
		}
		fresh = append(fresh, a)
	}

	cleared := make([]string, 0, len(seen))
	for id := range seen {
		cleared = append(cleared, id)
	}
	s.releaseAcknowledgements(ctx, cleared...)

	if len(fresh) == 0 || (s.publisher == nil && s.notifier == nil) {
		return
	}

	acks, err := s.loadAcknowledgements(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not load acknowledgements for alert announcement")
	}
	fresh = domain.ApplyAcknowledgements(fresh, acks, s.cfg.AckPolicy)

	for _, a := range fresh {
		if a.Acknowledged {
			continue
		}
		s.announce(ctx, a)
	}
}

func (s *InventoryService) announce(ctx context.Context, alert domain.InventoryAlert) {
	s.publisher.PublishAlertGenerated(ctx, alert)
	if s.notifier != nil {
		s.notifier.Broadcast(notify.NewMessage(EventAlert, alert))
	}
}

// OrderLineResult is the outcome of one order line
type OrderLineResult struct {
	Line   messaging.OrderLine
	Result domain.StockResult
}

// ConsumeOrder consumes every line of a confirmed order. Lines naming the
// same item are merged first. Lines are independent: one failing line does
// not undo the others. Replaying an order only consumes the lines that were
// not consumed before. The first infrastructure error stops processing.
func (s *InventoryService) ConsumeOrder(ctx context.Context, order messaging.OrderConfirmedEvent) ([]OrderLineResult, error) {
	lines := mergeOrderLines(order.Lines)
	results := make([]OrderLineResult, 0, len(lines))
	for _, line := range lines {
		res, err := s.ConsumeStock(ctx, ConsumeStockInput{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			OrderID:  order.OrderID,
		})
		if err != nil {
			return results, err
		}
		results = append(results, OrderLineResult{Line: line, Result: res})
	}
	return results, nil
}

// mergeOrderLines sums quantities per item, keeping first-seen order
func mergeOrderLines(lines []messaging.OrderLine) []messaging.OrderLine {
	merged := make([]messaging.OrderLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ItemID]; ok {
			merged[i].Quantity = merged[i].Quantity.Add(line.Quantity)
			continue
		}
		index[line.ItemID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}
