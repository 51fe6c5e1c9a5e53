package service

import (
	"context"
	stderrors "errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/omiam/omiam-backend/internal/inventory/cache"
	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/internal/inventory/events"
	"github.com/omiam/omiam-backend/internal/inventory/repository"
	"github.com/omiam/omiam-backend/internal/notify"
	"github.com/omiam/omiam-backend/pkg/config"
	"github.com/omiam/omiam-backend/pkg/errors"
	"github.com/omiam/omiam-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const statsCacheKey = "inventory:stats"

// EventAlert is the server-push event name for newly active alerts
const EventAlert = "inventory.alert"

// Config holds the inventory rules that vary by deployment
type Config struct {
	ExpiryWarningWindow  time.Duration
	AckPolicy            domain.AckPolicy
	MovementHistoryLimit int
	StatsTTL             time.Duration
}

// ConfigFrom builds a service Config from the loaded application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ExpiryWarningWindow:  cfg.Inventory.ExpiryWarningWindow,
		AckPolicy:            domain.ParseAckPolicy(cfg.Inventory.AckPolicy),
		MovementHistoryLimit: cfg.Inventory.MovementHistoryLimit,
		StatsTTL:             cfg.Cache.StatsTTL,
	}
}

func (c Config) withDefaults() Config {
	if c.ExpiryWarningWindow <= 0 {
		c.ExpiryWarningWindow = 72 * time.Hour
	}
	if c.AckPolicy == "" {
		c.AckPolicy = domain.AckUntilChange
	}
	if c.MovementHistoryLimit <= 0 {
		c.MovementHistoryLimit = 20
	}
	return c
}

// Notifier receives alerts that just became active
type Notifier interface {
	Broadcast(msg notify.Message) int
}

// InventoryService handles inventory business logic
type InventoryService struct {
	items     repository.ItemStore
	movements repository.MovementStore
	acks      repository.AcknowledgementStore
	publisher *events.InventoryEventPublisher
	notifier  Notifier
	cache     cache.Cache
	cfg       Config
	now       func() time.Time
	sweep     expirySweep
	statsGen  atomic.Uint64

	dependencies map[string]DependencyCheck
	logger       *logger.Logger
}

// Option customises an InventoryService
type Option func(*InventoryService)

// WithPublisher publishes stock and alert events after applied changes
func WithPublisher(p *events.InventoryEventPublisher) Option {
	return func(s *InventoryService) { s.publisher = p }
}

// WithNotifier pushes newly active alerts to connected clients
func WithNotifier(n Notifier) Option {
	return func(s *InventoryService) { s.notifier = n }
}

// WithCache caches inventory stats
func WithCache(c cache.Cache) Option {
	return func(s *InventoryService) { s.cache = c }
}

// WithDependencyCheck adds a backing service to the health report
func WithDependencyCheck(name string, check DependencyCheck) Option {
	return func(s *InventoryService) {
		if s.dependencies == nil {
			s.dependencies = make(map[string]DependencyCheck)
		}
		s.dependencies[name] = check
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *InventoryService) { s.now = now }
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	items repository.ItemStore,
	movements repository.MovementStore,
	acks repository.AcknowledgementStore,
	cfg Config,
	log *logger.Logger,
	opts ...Option,
) *InventoryService {
	s := &InventoryService{
		items:     items,
		movements: movements,
		acks:      acks,
		cache:     cache.Noop{},
		cfg:       cfg.withDefaults(),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Item operations

// GetAllItems returns every item
func (s *InventoryService) GetAllItems(ctx context.Context) ([]*domain.InventoryItem, error) {
	return s.items.List(ctx)
}

// GetItemByID returns the item or an errors.NotFound AppError
func (s *InventoryService) GetItemByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return s.items.GetByID(ctx, id)
}

// CreateItemInput is the payload for CreateItem
type CreateItemInput struct {
	SKU             string
	Name            string
	Description     string
	Category        string
	Unit            string
	CurrentStock    decimal.Decimal
	MinStock        decimal.Decimal
	CriticalStock   decimal.Decimal
	ReorderQuantity decimal.Decimal
	Cost            decimal.Decimal
	SellingPrice    decimal.Decimal
	ExpiryDate      *time.Time
}

func (in CreateItemInput) validate() map[string]string {
	details := map[string]string{}
	for field, value := range map[string]string{"sku": in.SKU, "name": in.Name, "category": in.Category} {
		if strings.TrimSpace(value) == "" {
			details[field] = "this field is required"
		}
	}
	for field, value := range map[string]decimal.Decimal{
		"currentStock":    in.CurrentStock,
		"minStock":        in.MinStock,
		"criticalStock":   in.CriticalStock,
		"reorderQuantity": in.ReorderQuantity,
		"cost":            in.Cost,
		"sellingPrice":    in.SellingPrice,
	} {
		if value.IsNegative() {
			details[field] = "must not be negative"
		}
	}
	for field, check := range map[string]error{
		"currentStock":    domain.CheckQuantity(in.CurrentStock),
		"minStock":        domain.CheckQuantity(in.MinStock),
		"criticalStock":   domain.CheckQuantity(in.CriticalStock),
		"reorderQuantity": domain.CheckQuantity(in.ReorderQuantity),
		"cost":            domain.CheckCost(in.Cost),
		"sellingPrice":    domain.CheckPrice(in.SellingPrice),
	} {
		if _, taken := details[field]; !taken && check != nil {
			details[field] = check.Error()
		}
	}
	// critical_stock alerts only fire at or below the minimum
	if _, taken := details["criticalStock"]; !taken && in.CriticalStock.GreaterThan(in.MinStock) {
		details["criticalStock"] = "must not exceed minStock"
	}
	return details
}

// CreateItem validates and stores a new active item. A duplicate SKU is an
// errors.Conflict AppError.
func (s *InventoryService) CreateItem(ctx context.Context, in CreateItemInput) (*domain.InventoryItem, error) {
	if details := in.validate(); len(details) > 0 {
		return nil, errors.Validation(details)
	}

	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = "unit"
	}

	item := &domain.InventoryItem{
		ID:              uuid.New().String(),
		SKU:             strings.TrimSpace(in.SKU),
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		Category:        strings.TrimSpace(in.Category),
		Unit:            unit,
		CurrentStock:    in.CurrentStock,
		MinStock:        in.MinStock,
		CriticalStock:   in.CriticalStock,
		ReorderQuantity: in.ReorderQuantity,
		Cost:            in.Cost,
		SellingPrice:    in.SellingPrice,
		ExpiryDate:      in.ExpiryDate,
		IsActive:        true,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info().Str("item_id", item.ID).Str("sku", item.SKU).Msg("inventory item created")

	s.invalidateStats(ctx)
	s.announceNewAlerts(ctx, nil, item)
	return item, nil
}

// ItemListing is one page of ListItems
type ItemListing struct {
	Items      []*domain.InventoryItem `json:"items"`
	Pagination domain.Pagination       `json:"pagination"`
	Stats      domain.InventoryStats   `json:"stats"`
}

// ListItems filters, sorts and paginates items. Stats describe the whole
// filtered set, not just the page.
func (s *InventoryService) ListItems(ctx context.Context, q domain.ItemQuery) (*ItemListing, error) {
	q = q.Normalize()

	items, err := s.items.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := domain.FilterItems(items, q.Category, q.Search)
	domain.SortItems(filtered, q.SortBy, q.SortOrder)
	page, pagination := domain.Paginate(filtered, q.Page, q.Limit)

	return &ItemListing{
		Items:      page,
		Pagination: pagination,
		Stats:      domain.ComputeStats(filtered),
	}, nil
}

// GetStockMovements returns the item's most recent movements. A limit of
// zero or less uses the configured default.
func (s *InventoryService) GetStockMovements(ctx context.Context, itemID string, limit int) ([]*domain.StockMovement, error) {
	if limit <= 0 {
		limit = s.cfg.MovementHistoryLimit
	}
	if limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}
	return s.movements.ListByItem(ctx, itemID, limit)
}

// GetInventoryStats aggregates every item, served from cache when fresh.
// Stats computed while a change was being applied are returned but not
// cached.
func (s *InventoryService) GetInventoryStats(ctx context.Context) (domain.InventoryStats, error) {
	var stats domain.InventoryStats
	hit, err := cache.GetJSON(ctx, s.cache, statsCacheKey, &stats)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stats cache read failed")
	}
	if hit {
		return stats, nil
	}

	gen := s.statsGen.Load()
	items, err := s.items.List(ctx)
	if err != nil {
		return domain.InventoryStats{}, err
	}
	stats = domain.ComputeStats(items)

	if s.cfg.StatsTTL <= 0 || s.statsGen.Load() != gen {
		return stats, nil
	}
	if err := cache.SetJSON(ctx, s.cache, statsCacheKey, stats, s.cfg.StatsTTL); err != nil {
		s.logger.Warn().Err(err).Msg("stats cache write failed")
		return stats, nil
	}
	// A change that landed during the write has already invalidated; drop
	// what was just stored.
	if s.statsGen.Load() != gen {
		s.invalidateStats(ctx)
	}
	return stats, nil
}

func (s *InventoryService) invalidateStats(ctx context.Context) {
	s.statsGen.Add(1)
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}

func isAppError(err error, target error) (*errors.AppError, bool) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && stderrors.Is(appErr, target) {
		return appErr, true
	}
	return nil, false
}
