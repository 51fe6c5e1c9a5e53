// Package handler adapts the inventory service to HTTP.
//
// Handlers only check request shape and permissions; every business rule
// lives in the service. Business outcomes are mapped to status codes here:
// unknown item 404, insufficient stock and invalid input 400, a lost
// concurrent update or a repeated order consumption 409.
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/internal/inventory/service"
	"github.com/omiam/omiam-backend/internal/notify"
	"github.com/omiam/omiam-backend/pkg/actor"
	"github.com/omiam/omiam-backend/pkg/errors"
	"github.com/omiam/omiam-backend/pkg/httputil"
	"github.com/omiam/omiam-backend/pkg/logger"
)

// ServiceName is reported by the health endpoints
const ServiceName = "inventory-service"

const defaultHeartbeat = 25 * time.Second

// Handler serves the inventory HTTP API
type Handler struct {
	service   *service.InventoryService
	registry  *notify.Registry
	heartbeat time.Duration
	timeout   time.Duration
	logger    *logger.Logger
}

// Option customises a Handler
type Option func(*Handler)

// WithHeartbeat sets how often idle notification streams receive a keep-alive comment
func WithHeartbeat(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithRequestTimeout bounds every inventory request except notification streams
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// New creates the inventory handler
func New(svc *service.InventoryService, registry *notify.Registry, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:   svc,
		registry:  registry,
		heartbeat: defaultHeartbeat,
		logger:    log.WithComponent("http"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the API on r. Health endpoints stay public; everything else
// goes through auth when it is non-nil.
func (h *Handler) Routes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/health", h.Liveness)
	r.Get("/health/inventory", h.InventoryHealth)

	r.Group(func(r chi.Router) {
		if auth != nil {
			r.Use(auth)
		}
		if h.timeout > 0 {
			r.Use(middleware.Timeout(h.timeout))
		}

		r.Get("/inventory", h.GetInventory)
		r.Post("/inventory", h.PostInventory)
		r.Get("/inventory/items", h.ListItems)
		r.Post("/inventory/items", h.CreateItem)
		r.Get("/inventory/alerts", h.GetAlerts)
		r.Post("/inventory/alerts", h.PostAlerts)
	})

	r.Group(func(r chi.Router) {
		if auth != nil {
			r.Use(auth)
		}
		r.Get("/notifications/stream", h.Stream)
	})
}

// authorize writes a 403 and returns false when the caller lacks permission.
// Requests without an actor (authentication disabled) are allowed.
func authorize(w http.ResponseWriter, r *http.Request, permission string) bool {
	a := actor.FromContext(r.Context())
	if a == nil || a.Can(permission) {
		return true
	}
	httputil.Error(w, errors.Forbidden("missing permission "+permission))
	return false
}

// fail logs failures the client cannot see the cause of, then responds
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) || appErr.StatusCode >= http.StatusInternalServerError {
		log := h.logger.WithRequestID(httputil.GetRequestID(r.Context()))
		if userID := actor.IDFromContext(r.Context()); userID != "" {
			log = log.WithUserID(userID)
		}
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	httputil.Error(w, err)
}

// stockResultError converts a non-applied outcome into the error sent to the client
func stockResultError(res domain.StockResult) error {
	switch res.Outcome {
	case domain.OutcomeNotFound:
		return errors.NotFound("inventory item")
	case domain.OutcomeInsufficientStock:
		return errors.InsufficientStock(res.Available.String(), res.Requested.String())
	case domain.OutcomeConflict:
		return errors.New("CONCURRENT_MODIFICATION", "inventory item was modified concurrently, reload and retry", http.StatusConflict)
	case domain.OutcomeInvalid:
		return errors.BadRequest(res.Message)
	case domain.OutcomeAlreadyConsumed:
		return errors.New("ORDER_ALREADY_CONSUMED", "stock for this order was already consumed", http.StatusConflict)
	default:
		return errors.Internal("unexpected stock outcome " + string(res.Outcome))
	}
}

// employeeOrCaller falls back to the authenticated user when no employee is named
func employeeOrCaller(r *http.Request, employeeID string) string {
	if id := strings.TrimSpace(employeeID); id != "" {
		return id
	}
	return actor.IDFromContext(r.Context())
}

// queryBool accepts the usual strconv spellings; anything else is false
func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

// queryInt returns 0 for a missing or malformed value
func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}
