package handler

import (
	"net/http"
	"time"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/internal/inventory/service"
	"github.com/omiam/omiam-backend/pkg/errors"
	"github.com/omiam/omiam-backend/pkg/httputil"
	"github.com/omiam/omiam-backend/pkg/permissions"
	"github.com/shopspring/decimal"
)

type createItemRequest struct {
	SKU             string          `json:"sku" validate:"required,max=64"`
	Name            string          `json:"name" validate:"required,max=200"`
	Description     string          `json:"description" validate:"max=2000"`
	Category        string          `json:"category" validate:"required,max=100"`
	Unit            string          `json:"unit" validate:"max=20"`
	CurrentStock    decimal.Decimal `json:"currentStock"`
	MinStock        decimal.Decimal `json:"minStock"`
	CriticalStock   decimal.Decimal `json:"criticalStock"`
	ReorderQuantity decimal.Decimal `json:"reorderQuantity"`
	Cost            decimal.Decimal `json:"cost"`
	SellingPrice    decimal.Decimal `json:"sellingPrice"`
	ExpiryDate      *time.Time      `json:"expiryDate"`
}

// ListItems serves the filtered, sorted, paginated item listing
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, permissions.InventoryRead) {
		return
	}

	q := r.URL.Query()
	sortBy := q.Get("sortBy")
	if sortBy != "" && !domain.ValidSortField(sortBy) {
		httputil.Error(w, errors.Validation(map[string]string{"sortBy": "unknown sort field"}))
		return
	}
	sortOrder := q.Get("sortOrder")
	if sortOrder != "" && sortOrder != "asc" && sortOrder != "desc" {
		httputil.Error(w, errors.Validation(map[string]string{"sortOrder": "must be one of: asc desc"}))
		return
	}

	listing, err := h.service.ListItems(r.Context(), domain.ItemQuery{
		Category:  q.Get("category"),
		Search:    q.Get("search"),
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.OK(w, httputil.Payload{
		"items":      listing.Items,
		"pagination": listing.Pagination,
		"stats":      listing.Stats,
	})
}

// CreateItem creates an item. Numeric fields must be JSON numbers or numeric
// strings; anything else fails decoding with a 400.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, permissions.InventoryWrite) {
		return
	}

	var req createItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.CreateItem(r.Context(), service.CreateItemInput{
		SKU:             req.SKU,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Unit:            req.Unit,
		CurrentStock:    req.CurrentStock,
		MinStock:        req.MinStock,
		CriticalStock:   req.CriticalStock,
		ReorderQuantity: req.ReorderQuantity,
		Cost:            req.Cost,
		SellingPrice:    req.SellingPrice,
		ExpiryDate:      req.ExpiryDate,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.Created(w, httputil.Payload{"item": item})
}
