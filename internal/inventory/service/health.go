package service

import (
	"context"
	"time"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
)

// Health statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DependencyCheck reports the state of one backing service as a flat map
// with at least a "status" key of "up" or "down".
type DependencyCheck func(ctx context.Context) map[string]string

// Health is the operational summary served on /health/inventory
type Health struct {
	Status       string                       `json:"status"`
	Store        string                       `json:"store"`
	Dependencies map[string]map[string]string `json:"dependencies,omitempty"`
	Stats     *domain.InventoryStats `json:"stats,omitempty"`
	Alerts    *domain.AlertCounts    `json:"alerts,omitempty"`
	Latency   string                 `json:"latency"`
	CheckedAt time.Time              `json:"checkedAt"`
}

// HealthCheck pings the store and summarises stock and alerts. It never
// returns an error: failures degrade the reported status.
func (s *InventoryService) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	h := Health{Status: StatusHealthy, Store: "up", CheckedAt: s.now()}

	if err := s.items.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("inventory store ping failed")
		h.Status = StatusUnhealthy
		h.Store = "down"
		h.Latency = time.Since(start).String()
		return h
	}

	for name, check := range s.dependencies {
		if h.Dependencies == nil {
			h.Dependencies = make(map[string]map[string]string, len(s.dependencies))
		}
		status := check(ctx)
		h.Dependencies[name] = status
		if status["status"] != "up" {
			s.logger.Warn().Str("dependency", name).Str("error", status["error"]).Msg("dependency is down")
			h.Status = StatusDegraded
		}
	}

	stats, err := s.GetInventoryStats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("health check could not compute stats")
		h.Status = StatusDegraded
	} else {
		h.Stats = &stats
	}

	active, err := s.GetActiveAlerts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("health check could not compute alerts")
		h.Status = StatusDegraded
	} else {
		counts := domain.CountAlerts(active)
		h.Alerts = &counts
	}

	h.Latency = time.Since(start).String()
	return h
}
