package service

import (
	"context"
	"strings"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
)

// AlertListing is the result of ListAlerts
type AlertListing struct {
	Alerts []domain.InventoryAlert `json:"alerts"`
	Counts domain.AlertCounts      `json:"counts"`
}

// AckResult reports how AcknowledgeAlert ended: OutcomeApplied,
// OutcomeNotFound when the alert is not currently implied by item state, or
// OutcomeInvalid.
type AckResult struct {
	Outcome domain.Outcome
	Alert   *domain.InventoryAlert
	Message string
}

// OK reports whether the acknowledgement was stored
func (r AckResult) OK() bool {
	return r.Outcome == domain.OutcomeApplied
}

func (s *InventoryService) loadAcknowledgements(ctx context.Context) (map[string]domain.AlertAcknowledgement, error) {
	list, err := s.acks.List(ctx)
	if err != nil {
		return nil, err
	}
	acks := make(map[string]domain.AlertAcknowledgement, len(list))
	for _, ack := range list {
		acks[ack.AlertID] = ack
	}
	return acks, nil
}

// currentAlerts recomputes every alert from item state and flags the
// acknowledged ones. Acknowledgements are read before items so one saved
// concurrently is never mistaken for stale.
func (s *InventoryService) currentAlerts(ctx context.Context) ([]domain.InventoryAlert, error) {
	acks, err := s.loadAcknowledgements(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var alerts []domain.InventoryAlert
	for _, item := range items {
		alerts = append(alerts, domain.ClassifyItem(item, now, s.cfg.ExpiryWarningWindow)...)
	}

	implied := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		implied[a.ID] = true
	}
	var stale []string
	for id := range acks {
		if !implied[id] {
			stale = append(stale, id)
		}
	}
	s.releaseAcknowledgements(ctx, stale...)

	return domain.ApplyAcknowledgements(alerts, acks, s.cfg.AckPolicy), nil
}

// releaseAcknowledgements forgets acknowledgements whose condition has
// cleared, so a recurrence is a new incident. Permanent acknowledgements are
// kept.
func (s *InventoryService) releaseAcknowledgements(ctx context.Context, alertIDs ...string) {
	if len(alertIDs) == 0 || s.cfg.AckPolicy == domain.AckPermanent {
		return
	}
	if err := s.acks.Delete(ctx, alertIDs...); err != nil {
		s.logger.Warn().Err(err).Strs("alert_ids", alertIDs).Msg("could not release cleared acknowledgements")
	}
}

// GetActiveAlerts returns the unacknowledged alerts implied by current item
// state, most urgent first.
func (s *InventoryService) GetActiveAlerts(ctx context.Context) ([]domain.InventoryAlert, error) {
	alerts, err := s.currentAlerts(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterAlerts(alerts, domain.AlertFilter{}), nil
}

// ListAlerts filters current alerts and counts the result by priority and type
func (s *InventoryService) ListAlerts(ctx context.Context, filter domain.AlertFilter) (*AlertListing, error) {
	alerts, err := s.currentAlerts(ctx)
	if err != nil {
		return nil, err
	}
	filtered := domain.FilterAlerts(alerts, filter)
	return &AlertListing{
		Alerts: filtered,
		Counts: domain.CountAlerts(filtered),
	}, nil
}

// AcknowledgeAlert records that employeeID has seen the alert. Under the
// until_change policy the acknowledgement lapses once the underlying state
// moves on.
func (s *InventoryService) AcknowledgeAlert(ctx context.Context, alertID, employeeID string) (AckResult, error) {
	alertID = strings.TrimSpace(alertID)
	if alertID == "" {
		return AckResult{Outcome: domain.OutcomeInvalid, Message: "alertId is required"}, nil
	}
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return AckResult{Outcome: domain.OutcomeInvalid, Message: "employeeId is required"}, nil
	}

	alerts, err := s.currentAlerts(ctx)
	if err != nil {
		return AckResult{}, err
	}

	var target *domain.InventoryAlert
	for i := range alerts {
		if alerts[i].ID == alertID {
			target = &alerts[i]
			break
		}
	}
	if target == nil {
		return AckResult{Outcome: domain.OutcomeNotFound, Message: "alert not found"}, nil
	}

	now := s.now()
	ack := &domain.AlertAcknowledgement{
		AlertID:        target.ID,
		ItemID:         target.ItemID,
		AlertType:      target.Type,
		Fingerprint:    target.Fingerprint,
		AcknowledgedBy: employeeID,
		AcknowledgedAt: now,
	}
	if err := s.acks.Save(ctx, ack); err != nil {
		return AckResult{}, err
	}

	target.Acknowledged = true
	target.AcknowledgedBy = employeeID
	target.AcknowledgedAt = &now

	s.logger.Info().
		Str("alert_id", target.ID).
		Str("alert_type", string(target.Type)).
		Str("acknowledged_by", employeeID).
		Msg("alert acknowledged")

	return AckResult{Outcome: domain.OutcomeApplied, Alert: target}, nil
}
