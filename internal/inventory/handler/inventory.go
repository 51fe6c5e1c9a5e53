package handler

import (
	"net/http"
	"strings"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/internal/inventory/service"
	"github.com/omiam/omiam-backend/pkg/errors"
	"github.com/omiam/omiam-backend/pkg/httputil"
	"github.com/omiam/omiam-backend/pkg/permissions"
	"github.com/shopspring/decimal"
)

// Actions accepted by POST /inventory
const (
	ActionGet     = "get"
	ActionList    = "list"
	ActionUpdate  = "update"
	ActionConsume = "consume"
	ActionAdd     = "add"
)

type inventoryRequest struct {
	Action      string           `json:"action" validate:"required,oneof=get update consume add list"`
	ItemID      string           `json:"itemId" validate:"required_unless=Action list"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Reason      string           `json:"reason" validate:"max=500"`
	EmployeeID  string           `json:"employeeId"`
	OrderID     string           `json:"orderId"`
	Cost        *decimal.Decimal `json:"cost"`
	BatchNumber string           `json:"batchNumber" validate:"max=100"`
}

// GetInventory returns one item (?itemId=) or all of them, optionally with
// stats, alerts and, for a single item, its movement history.
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, permissions.InventoryRead) {
		return
	}
	ctx := r.Context()

	if itemID := strings.TrimSpace(r.URL.Query().Get("itemId")); itemID != "" {
		item, err := h.service.GetItemByID(ctx, itemID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		payload := httputil.Payload{"item": item}

		if queryBool(r, "alerts") {
			listing, err := h.service.ListAlerts(ctx, domain.AlertFilter{ItemID: item.ID})
			if err != nil {
				h.fail(w, r, err)
				return
			}
			payload["alerts"] = listing.Alerts
		}
		if queryBool(r, "movements") {
			movements, err := h.service.GetStockMovements(ctx, item.ID, queryInt(r, "limit"))
			if err != nil {
				h.fail(w, r, err)
				return
			}
			payload["movements"] = movements
		}

		httputil.OK(w, payload)
		return
	}

	items, err := h.service.GetAllItems(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	payload := httputil.Payload{"items": items, "count": len(items)}

	if queryBool(r, "stats") {
		stats, err := h.service.GetInventoryStats(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		payload["stats"] = stats
	}
	if queryBool(r, "alerts") {
		alerts, err := h.service.GetActiveAlerts(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		payload["alerts"] = alerts
	}

	httputil.OK(w, payload)
}

// PostInventory dispatches on the request action
func (h *Handler) PostInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	switch req.Action {
	case ActionGet, ActionList:
		if !authorize(w, r, permissions.InventoryRead) {
			return
		}
	default:
		if !authorize(w, r, permissions.InventoryAdjust) {
			return
		}
		if req.Quantity == nil {
			httputil.Error(w, errors.Validation(map[string]string{"quantity": "this field is required"}))
			return
		}
	}

	ctx := r.Context()
	switch req.Action {
	case ActionList:
		items, err := h.service.GetAllItems(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		httputil.OK(w, httputil.Payload{"items": items, "count": len(items)})

	case ActionGet:
		item, err := h.service.GetItemByID(ctx, req.ItemID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		httputil.OK(w, httputil.Payload{"item": item})

	case ActionUpdate:
		res, err := h.service.UpdateStock(ctx, service.UpdateStockInput{
			ItemID:     req.ItemID,
			Quantity:   *req.Quantity,
			Reason:     req.Reason,
			EmployeeID: employeeOrCaller(r, req.EmployeeID),
		})
		h.respondStock(w, r, res, err, "Stock updated")

	case ActionConsume:
		res, err := h.service.ConsumeStock(ctx, service.ConsumeStockInput{
			ItemID:     req.ItemID,
			Quantity:   *req.Quantity,
			OrderID:    req.OrderID,
			EmployeeID: employeeOrCaller(r, req.EmployeeID),
			Reason:     req.Reason,
		})
		h.respondStock(w, r, res, err, "Stock consumed")

	case ActionAdd:
		res, err := h.service.AddStock(ctx, service.AddStockInput{
			ItemID:      req.ItemID,
			Quantity:    *req.Quantity,
			Cost:        req.Cost,
			BatchNumber: req.BatchNumber,
			EmployeeID:  employeeOrCaller(r, req.EmployeeID),
			Reason:      req.Reason,
		})
		h.respondStock(w, r, res, err, "Stock added")
	}
}

func (h *Handler) respondStock(w http.ResponseWriter, r *http.Request, res domain.StockResult, err error, message string) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !res.OK() {
		httputil.Error(w, stockResultError(res))
		return
	}
	httputil.OK(w, httputil.Payload{
		"message":  message,
		"item":     res.Item,
		"movement": res.Movement,
	})
}
