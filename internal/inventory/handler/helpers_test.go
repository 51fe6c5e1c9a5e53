package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/internal/inventory/handler"
	"github.com/omiam/omiam-backend/internal/inventory/repository"
	"github.com/omiam/omiam-backend/internal/inventory/service"
	"github.com/omiam/omiam-backend/internal/notify"
	"github.com/omiam/omiam-backend/pkg/actor"
	"github.com/omiam/omiam-backend/pkg/logger"
	"github.com/omiam/omiam-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// envelope is the failure shape shared by every endpoint
type envelope struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Details   map[string]string `json:"details"`
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
}

type harness struct {
	store    repository.ItemStore
	memory   *repository.MemoryStore
	registry *notify.Registry
	router   chi.Router
}

func newHarness(t *testing.T, wrap ...func(*repository.MemoryStore) repository.ItemStore) *harness {
	t.Helper()
	log := logger.NewNop()

	memory := repository.NewMemoryStore().WithClock(func() time.Time { return testNow })
	var items repository.ItemStore = memory
	for _, w := range wrap {
		items = w(memory)
	}

	registry := notify.NewRegistry(16, log)
	t.Cleanup(registry.Close)

	svc := service.NewInventoryService(
		items, memory, memory.Acknowledgements(),
		service.Config{ExpiryWarningWindow: 72 * time.Hour, AckPolicy: domain.AckUntilChange},
		log,
		service.WithNotifier(registry),
		service.WithClock(func() time.Time { return testNow }),
	)

	router := chi.NewRouter()
	handler.New(svc, registry, log, handler.WithHeartbeat(time.Hour), handler.WithRequestTimeout(5*time.Second)).Routes(router, nil)

	return &harness{store: items, memory: memory, registry: registry, router: router}
}

func (h *harness) seed(t *testing.T, sku, name, category, stock, minStock string) *domain.InventoryItem {
	t.Helper()
	item := &domain.InventoryItem{
		SKU:          sku,
		Name:         name,
		Category:     category,
		Unit:         "kg",
		CurrentStock: dec(stock),
		MinStock:     dec(minStock),
		Cost:         dec("2.50"),
		IsActive:     true,
	}
	require.NoError(t, h.memory.Create(context.Background(), item))
	return item
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.ExecuteRequest(h.router, req)
}

// as attaches an authenticated caller to the request
func as(req *http.Request, id, role string) *http.Request {
	return req.WithContext(actor.WithActor(req.Context(), &actor.Actor{ID: id, Name: id, Role: role}))
}

// conflictStore loses every optimistic-concurrency race
type conflictStore struct {
	*repository.MemoryStore
}

func (s conflictStore) ApplyStockChange(ctx context.Context, change repository.StockChange) (*domain.InventoryItem, error) {
	return nil, repository.ErrVersionConflict
}

// brokenStore fails like an unreachable database
type brokenStore struct {
	*repository.MemoryStore
}

var errStoreDown = fmt.Errorf("dial tcp 10.0.0.5:5432: connect: connection refused")

func (s brokenStore) List(ctx context.Context) ([]*domain.InventoryItem, error) {
	return nil, errStoreDown
}

func (s brokenStore) Ping(ctx context.Context) error {
	return errStoreDown
}
