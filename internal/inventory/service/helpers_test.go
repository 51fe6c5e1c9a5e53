package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/omiam/omiam-backend/internal/inventory/cache"
	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/internal/inventory/events"
	"github.com/omiam/omiam-backend/internal/inventory/repository"
	"github.com/omiam/omiam-backend/internal/inventory/service"
	"github.com/omiam/omiam-backend/internal/notify"
	"github.com/omiam/omiam-backend/pkg/logger"
	"github.com/omiam/omiam-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type harness struct {
	svc       *service.InventoryService
	store     *repository.MemoryStore
	publisher *testutil.MockPublisher
	registry  *notify.Registry
	stream    *notify.Conn
	cache     *cache.MemoryCache
	now       time.Time
}

func newHarness(t *testing.T, policy domain.AckPolicy) *harness {
	t.Helper()
	log := logger.NewNop()

	h := &harness{
		store:     repository.NewMemoryStore(),
		publisher: testutil.NewMockPublisher(),
		registry:  notify.NewRegistry(64, log),
		cache:     cache.NewMemoryCache(),
		now:       testNow,
	}
	h.stream = h.registry.Register("manager-1")
	t.Cleanup(h.registry.Close)

	h.svc = service.NewInventoryService(
		h.store, h.store, h.store.Acknowledgements(),
		service.Config{
			ExpiryWarningWindow:  72 * time.Hour,
			AckPolicy:            policy,
			MovementHistoryLimit: 20,
			StatsTTL:             time.Minute,
		},
		log,
		service.WithPublisher(events.NewWithPublisher(h.publisher, log)),
		service.WithNotifier(h.registry),
		service.WithCache(h.cache),
		service.WithClock(func() time.Time { return h.now }),
	)
	return h
}

func (h *harness) seed(t *testing.T, sku, name, stock, minStock string) *domain.InventoryItem {
	t.Helper()
	item := &domain.InventoryItem{
		SKU:          sku,
		Name:         name,
		Category:     "Cuisine",
		Unit:         "kg",
		CurrentStock: dec(stock),
		MinStock:     dec(minStock),
		Cost:         dec("2.50"),
		IsActive:     true,
	}
	require.NoError(t, h.store.Create(context.Background(), item))
	return item
}

func (h *harness) stock(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	item, err := h.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	return item.CurrentStock
}

func (h *harness) movements(t *testing.T, id string) []*domain.StockMovement {
	t.Helper()
	list, err := h.store.ListByItem(context.Background(), id, 100)
	require.NoError(t, err)
	return list
}

// pushed drains the manager's notification stream
func (h *harness) pushed() []notify.Message {
	var out []notify.Message
	for {
		select {
		case msg := <-h.stream.Messages():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func alertsOfType(alerts []domain.InventoryAlert, itemID string, t domain.AlertType) []domain.InventoryAlert {
	var out []domain.InventoryAlert
	for _, a := range alerts {
		if a.ItemID == itemID && a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func hasStockAlert(alerts []domain.InventoryAlert, itemID string) bool {
	for _, a := range alerts {
		if a.ItemID != itemID {
			continue
		}
		switch a.Type {
		case domain.AlertLowStock, domain.AlertOutOfStock, domain.AlertCriticalStock:
			return true
		}
	}
	return false
}
