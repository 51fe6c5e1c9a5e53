// Package domain holds the inventory types and the pure rules over them:
// alert classification, acknowledgement policy, list processing and stats.
// Nothing here performs I/O.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Quantities and prices are JSON numbers for the admin UI
	decimal.MarshalJSONWithoutQuotes = true
}

// InventoryItem is a stock-tracked ingredient or supply
type InventoryItem struct {
	ID              string          `db:"id" json:"id"`
	SKU             string          `db:"sku" json:"sku"`
	Name            string          `db:"name" json:"name"`
	Description     string          `db:"description" json:"description"`
	Category        string          `db:"category" json:"category"`
	Unit            string          `db:"unit" json:"unit"`
	CurrentStock    decimal.Decimal `db:"current_stock" json:"currentStock"`
	MinStock        decimal.Decimal `db:"min_stock" json:"minStock"`
	CriticalStock   decimal.Decimal `db:"critical_stock" json:"criticalStock"`
	ReorderQuantity decimal.Decimal `db:"reorder_quantity" json:"reorderQuantity"`
	Cost            decimal.Decimal `db:"cost" json:"cost"`
	SellingPrice    decimal.Decimal `db:"selling_price" json:"sellingPrice"`
	ExpiryDate      *time.Time      `db:"expiry_date" json:"expiryDate,omitempty"`
	IsActive        bool            `db:"is_active" json:"isActive"`
	Version         int64           `db:"version" json:"version"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// IsOutOfStock reports a stock level of zero
func (i *InventoryItem) IsOutOfStock() bool {
	return i.CurrentStock.Sign() <= 0
}

// IsLowStock reports 0 < stock <= minStock
func (i *InventoryItem) IsLowStock() bool {
	return i.CurrentStock.Sign() > 0 && i.CurrentStock.LessThanOrEqual(i.MinStock)
}

// StockValue is currentStock × cost, unrounded
func (i *InventoryItem) StockValue() decimal.Decimal {
	return i.CurrentStock.Mul(i.Cost)
}

// MovementType is the direction of a stock change
type MovementType string

const (
	MovementAdd     MovementType = "add"
	MovementConsume MovementType = "consume"
	MovementUpdate  MovementType = "update"
)

// StockMovement is an append-only record of one stock change
type StockMovement struct {
	ID            string           `db:"id" json:"id"`
	ItemID        string           `db:"item_id" json:"itemId"`
	Type          MovementType     `db:"movement_type" json:"type"`
	Quantity      decimal.Decimal  `db:"quantity" json:"quantity"`
	PreviousStock decimal.Decimal  `db:"previous_stock" json:"previousStock"`
	NewStock      decimal.Decimal  `db:"new_stock" json:"newStock"`
	Reason        string           `db:"reason" json:"reason"`
	EmployeeID    *string          `db:"employee_id" json:"employeeId,omitempty"`
	OrderID       *string          `db:"order_id" json:"orderId,omitempty"`
	Cost          *decimal.Decimal `db:"cost" json:"cost,omitempty"`
	BatchNumber   *string          `db:"batch_number" json:"batchNumber,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
}

// StringPtr returns nil for an empty string, for optional movement fields
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
