package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-process ItemStore and MovementStore used for local
// development and tests. Every value crossing its boundary is copied.
type MemoryStore struct {
	mu        sync.RWMutex
	items     map[string]*domain.InventoryItem
	skus      map[string]string
	movements map[string][]*domain.StockMovement
	acks      map[string]domain.AlertAcknowledgement
	now       func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:     make(map[string]*domain.InventoryItem),
		skus:      make(map[string]string),
		movements: make(map[string][]*domain.StockMovement),
		acks:      make(map[string]domain.AlertAcknowledgement),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Acknowledgements returns the acknowledgement view of the store
func (s *MemoryStore) Acknowledgements() *MemoryAcknowledgements {
	return &MemoryAcknowledgements{store: s}
}

func (s *MemoryStore) List(ctx context.Context) ([]*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*domain.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, cloneItem(item))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, errors.NotFound("inventory item")
	}
	return cloneItem(item), nil
}

func (s *MemoryStore) Create(ctx context.Context, item *domain.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.skus[item.SKU]; taken {
		return errors.Conflict("an inventory item with this SKU already exists")
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if _, exists := s.items[item.ID]; exists {
		return errors.Conflict("inventory item already exists")
	}

	now := s.now()
	item.Version = 1
	item.CreatedAt = now
	item.UpdatedAt = now

	s.items[item.ID] = cloneItem(item)
	s.skus[item.SKU] = item.ID
	return nil
}

func (s *MemoryStore) ApplyStockChange(ctx context.Context, change StockChange) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[change.ItemID]
	if !ok {
		return nil, errors.NotFound("inventory item")
	}
	if item.Version != change.ExpectedVersion {
		return nil, versionConflict()
	}
	if change.NewStock.IsNegative() {
		return nil, errors.BadRequest("stock level cannot become negative")
	}
	if m := change.Movement; m.Type == domain.MovementConsume && m.OrderID != nil {
		if s.findConsumption(item.ID, *m.OrderID) != nil {
			return nil, orderLineConsumed()
		}
	}

	now := s.now()
	item.CurrentStock = change.NewStock
	item.Version++
	item.UpdatedAt = now

	m := *change.Movement
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = now
	*change.Movement = m
	s.movements[item.ID] = append(s.movements[item.ID], &m)

	return cloneItem(item), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ListByItem returns movements newest first; equal timestamps keep reverse
// insertion order.
func (s *MemoryStore) ListByItem(ctx context.Context, itemID string, limit int) ([]*domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.movements[itemID]
	out := make([]*domain.StockMovement, 0, min(limit, len(log)))
	for i := len(log) - 1; i >= 0 && len(out) < limit; i-- {
		m := *log[i]
		out = append(out, &m)
	}
	return out, nil
}

func (s *MemoryStore) FindOrderConsumption(ctx context.Context, itemID, orderID string) (*domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m := s.findConsumption(itemID, orderID); m != nil {
		c := *m
		return &c, nil
	}
	return nil, nil
}

func (s *MemoryStore) findConsumption(itemID, orderID string) *domain.StockMovement {
	for _, m := range s.movements[itemID] {
		if m.Type == domain.MovementConsume && m.OrderID != nil && *m.OrderID == orderID {
			return m
		}
	}
	return nil
}

// Seed inserts items as-is, keeping their ids and stock levels
func (s *MemoryStore) Seed(ctx context.Context, items []*domain.InventoryItem) error {
	for _, item := range items {
		if err := s.Create(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// MemoryAcknowledgements is the AcknowledgementStore side of a MemoryStore
type MemoryAcknowledgements struct {
	store *MemoryStore
}

func (a *MemoryAcknowledgements) Save(ctx context.Context, ack *domain.AlertAcknowledgement) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	a.store.acks[ack.AlertID] = *ack
	return nil
}

func (a *MemoryAcknowledgements) List(ctx context.Context) ([]domain.AlertAcknowledgement, error) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	acks := make([]domain.AlertAcknowledgement, 0, len(a.store.acks))
	for _, ack := range a.store.acks {
		acks = append(acks, ack)
	}
	return acks, nil
}

func (a *MemoryAcknowledgements) Delete(ctx context.Context, alertIDs ...string) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	for _, id := range alertIDs {
		delete(a.store.acks, id)
	}
	return nil
}

func cloneItem(item *domain.InventoryItem) *domain.InventoryItem {
	c := *item
	if item.ExpiryDate != nil {
		t := *item.ExpiryDate
		c.ExpiryDate = &t
	}
	return &c
}

// DemoItems returns a small restaurant pantry relative to now: one healthy
// item, one low, one critical, one out of stock and one close to expiry.
func DemoItems(now time.Time) []*domain.InventoryItem {
	d := decimal.RequireFromString
	soon := now.Add(36 * time.Hour)
	later := now.AddDate(0, 2, 0)

	return []*domain.InventoryItem{
		{
			ID: "0b6e1f6c-3c1a-4d0e-9a57-1f0a6b9d2e01", SKU: "DRY-FLOUR-T55", Name: "Farine T55",
			Category: "Épicerie", Unit: "kg",
			CurrentStock: d("42"), MinStock: d("10"), CriticalStock: d("4"), ReorderQuantity: d("25"),
			Cost: d("0.95"), SellingPrice: d("0"), ExpiryDate: &later, IsActive: true,
		},
		{
			ID: "0b6e1f6c-3c1a-4d0e-9a57-1f0a6b9d2e02", SKU: "DAIRY-CREAM-35", Name: "Crème liquide 35%",
			Category: "Crèmerie", Unit: "l",
			CurrentStock: d("6"), MinStock: d("8"), CriticalStock: d("3"), ReorderQuantity: d("12"),
			Cost: d("4.20"), SellingPrice: d("0"), ExpiryDate: &soon, IsActive: true,
		},
		{
			ID: "0b6e1f6c-3c1a-4d0e-9a57-1f0a6b9d2e03", SKU: "MEAT-BEEF-ENT", Name: "Entrecôte de bœuf",
			Category: "Boucherie", Unit: "kg",
			CurrentStock: d("1.5"), MinStock: d("5"), CriticalStock: d("2"), ReorderQuantity: d("8"),
			Cost: d("28.50"), SellingPrice: d("0"), IsActive: true,
		},
		{
			ID: "0b6e1f6c-3c1a-4d0e-9a57-1f0a6b9d2e04", SKU: "VEG-SHALLOT", Name: "Échalotes",
			Category: "Légumes", Unit: "kg",
			CurrentStock: d("0"), MinStock: d("2"), CriticalStock: d("1"), ReorderQuantity: d("5"),
			Cost: d("3.10"), SellingPrice: d("0"), IsActive: true,
		},
		{
			ID: "0b6e1f6c-3c1a-4d0e-9a57-1f0a6b9d2e05", SKU: "BEV-COLA-33", Name: "Cola 33cl",
			Category: "Boissons", Unit: "bottle",
			CurrentStock: d("96"), MinStock: d("24"), ReorderQuantity: d("48"),
			Cost: d("0.45"), SellingPrice: d("3.50"), IsActive: true,
		},
	}
}
