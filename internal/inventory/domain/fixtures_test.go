package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newItem(id, sku, name string, stock, min string, opts ...func(*InventoryItem)) *InventoryItem {
	item := &InventoryItem{
		ID:           id,
		SKU:          sku,
		Name:         name,
		Category:     "dry",
		Unit:         "kg",
		CurrentStock: dec(stock),
		MinStock:     dec(min),
		Cost:         dec("1"),
		IsActive:     true,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	for _, opt := range opts {
		opt(item)
	}
	return item
}

func withExpiry(t time.Time) func(*InventoryItem) {
	return func(i *InventoryItem) { i.ExpiryDate = &t }
}

func withCategory(c string) func(*InventoryItem) {
	return func(i *InventoryItem) { i.Category = c }
}

func withCost(c string) func(*InventoryItem) {
	return func(i *InventoryItem) { i.Cost = dec(c) }
}

func alertTypes(alerts []InventoryAlert) []AlertType {
	out := make([]AlertType, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}
