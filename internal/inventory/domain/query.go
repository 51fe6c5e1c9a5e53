package domain

import (
	"sort"
	"strings"
)

// Listing defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortFields maps the sortBy values accepted by the listing
var SortFields = []string{"name", "sku", "category", "currentStock", "minStock", "cost", "sellingPrice", "updatedAt"}

// ItemQuery describes a filtered, sorted, paginated listing
type ItemQuery struct {
	Category  string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Normalize fills defaults and clamps out-of-range values
func (q ItemQuery) Normalize() ItemQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if !ValidSortField(q.SortBy) {
		q.SortBy = "name"
	}
	if q.SortOrder != "desc" {
		q.SortOrder = "asc"
	}
	return q
}

// ValidSortField reports whether the listing can sort by field
func ValidSortField(field string) bool {
	for _, f := range SortFields {
		if f == field {
			return true
		}
	}
	return false
}

// FilterItems keeps items in the category (case-insensitive) whose name,
// description or SKU contains the search text (case-insensitive).
func FilterItems(items []*InventoryItem, category, search string) []*InventoryItem {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]*InventoryItem, 0, len(items))
	for _, item := range items {
		if category != "" && !strings.EqualFold(item.Category, category) {
			continue
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesSearch(item *InventoryItem, lowered string) bool {
	return strings.Contains(strings.ToLower(item.Name), lowered) ||
		strings.Contains(strings.ToLower(item.Description), lowered) ||
		strings.Contains(strings.ToLower(item.SKU), lowered)
}

// SortItems sorts in place; equal keys keep their input order
func SortItems(items []*InventoryItem, sortBy, sortOrder string) {
	less := itemLess(sortBy)
	desc := sortOrder == "desc"
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func itemLess(field string) func(a, b *InventoryItem) bool {
	switch field {
	case "sku":
		return func(a, b *InventoryItem) bool { return lessFold(a.SKU, b.SKU) }
	case "category":
		return func(a, b *InventoryItem) bool { return lessFold(a.Category, b.Category) }
	case "currentStock":
		return func(a, b *InventoryItem) bool { return a.CurrentStock.LessThan(b.CurrentStock) }
	case "minStock":
		return func(a, b *InventoryItem) bool { return a.MinStock.LessThan(b.MinStock) }
	case "cost":
		return func(a, b *InventoryItem) bool { return a.Cost.LessThan(b.Cost) }
	case "sellingPrice":
		return func(a, b *InventoryItem) bool { return a.SellingPrice.LessThan(b.SellingPrice) }
	case "updatedAt":
		return func(a, b *InventoryItem) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default:
		return func(a, b *InventoryItem) bool { return lessFold(a.Name, b.Name) }
	}
}

func lessFold(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// Pagination describes the page returned by Paginate
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Paginate slices one page out of items; pages past the end are empty
func Paginate(items []*InventoryItem, page, limit int) ([]*InventoryItem, Pagination) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	total := len(items)
	totalPages := (total + limit - 1) / limit

	p := Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}

	// Checked before multiplying so a huge page number cannot overflow
	if page > totalPages {
		return []*InventoryItem{}, p
	}
	start := (page - 1) * limit
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], p
}
