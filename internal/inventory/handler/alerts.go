package handler

import (
	"net/http"
	"strings"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/pkg/errors"
	"github.com/omiam/omiam-backend/pkg/httputil"
	"github.com/omiam/omiam-backend/pkg/permissions"
)

type alertRequest struct {
	Action              string `json:"action" validate:"required,oneof=list acknowledge"`
	AlertID             string `json:"alertId" validate:"required_if=Action acknowledge"`
	EmployeeID          string `json:"employeeId"`
	Priority            string `json:"priority"`
	Type                string `json:"type"`
	ItemID              string `json:"itemId"`
	IncludeAcknowledged bool   `json:"includeAcknowledged"`
}

// GetAlerts lists current alerts with counts by priority and type
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, permissions.InventoryRead) {
		return
	}
	q := r.URL.Query()
	h.listAlerts(w, r, q.Get("priority"), q.Get("type"), q.Get("itemId"), queryBool(r, "includeAcknowledged"))
}

// PostAlerts dispatches list and acknowledge
func (h *Handler) PostAlerts(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	if req.Action == "list" {
		if !authorize(w, r, permissions.InventoryRead) {
			return
		}
		h.listAlerts(w, r, req.Priority, req.Type, req.ItemID, req.IncludeAcknowledged)
		return
	}

	if !authorize(w, r, permissions.InventoryAlertsManage) {
		return
	}

	res, err := h.service.AcknowledgeAlert(r.Context(), req.AlertID, employeeOrCaller(r, req.EmployeeID))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	switch res.Outcome {
	case domain.OutcomeApplied:
		httputil.OK(w, httputil.Payload{
			"message":        "Alert acknowledged",
			"alert":          res.Alert,
			"acknowledgedAt": res.Alert.AcknowledgedAt,
		})
	case domain.OutcomeNotFound:
		httputil.Error(w, errors.New("ALERT_NOT_FOUND", "alert not found or no longer active", http.StatusBadRequest))
	default:
		httputil.Error(w, errors.BadRequest(res.Message))
	}
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request, priority, alertType, itemID string, includeAcknowledged bool) {
	details := map[string]string{}
	if priority != "" && !domain.ValidPriority(priority) {
		details["priority"] = "must be one of: critical high medium low"
	}
	if alertType != "" && !domain.ValidAlertType(alertType) {
		details["type"] = "must be one of: out_of_stock critical_stock low_stock reorder_needed expiry_warning"
	}
	if len(details) > 0 {
		httputil.Error(w, errors.Validation(details))
		return
	}

	listing, err := h.service.ListAlerts(r.Context(), domain.AlertFilter{
		Priority:            domain.Priority(priority),
		Type:                domain.AlertType(alertType),
		ItemID:              itemID,
		IncludeAcknowledged: includeAcknowledged,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.OK(w, httputil.Payload{
		"alerts": listing.Alerts,
		"counts": listing.Counts,
		"total":  len(listing.Alerts),
	})
}
