package domain

import "github.com/shopspring/decimal"

// InventoryStats aggregates a set of items for the dashboard
type InventoryStats struct {
	TotalItems        int             `json:"totalItems"`
	TotalValue        decimal.Decimal `json:"totalValue"`
	LowStockItems     int             `json:"lowStockItems"`
	OutOfStockItems   int             `json:"outOfStockItems"`
	CategoryBreakdown map[string]int  `json:"categoryBreakdown"`
}

// ComputeStats sums stock value exactly and rounds to cents once, at the end
func ComputeStats(items []*InventoryItem) InventoryStats {
	stats := InventoryStats{
		TotalItems:        len(items),
		TotalValue:        decimal.Zero,
		CategoryBreakdown: make(map[string]int),
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.StockValue())
		stats.CategoryBreakdown[item.Category]++

		switch {
		case item.IsOutOfStock():
			stats.OutOfStockItems++
		case item.IsLowStock():
			stats.LowStockItems++
		}
	}
	stats.TotalValue = total.Round(2)

	return stats
}
