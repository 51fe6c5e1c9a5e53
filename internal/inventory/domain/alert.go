package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// AlertType classifies why an item needs attention
type AlertType string

const (
	AlertLowStock      AlertType = "low_stock"
	AlertCriticalStock AlertType = "critical_stock"
	AlertOutOfStock    AlertType = "out_of_stock"
	AlertExpiryWarning AlertType = "expiry_warning"
	AlertReorderNeeded AlertType = "reorder_needed"
)

// AlertTypes lists every alert type in display order
var AlertTypes = []AlertType{AlertOutOfStock, AlertCriticalStock, AlertLowStock, AlertReorderNeeded, AlertExpiryWarning}

// Priority orders alerts for the kitchen
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority from most to least urgent
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// InventoryAlert is derived from item state on every read
type InventoryAlert struct {
	ID             string     `json:"id"`
	ItemID         string     `json:"itemId"`
	ItemName       string     `json:"itemName"`
	SKU            string     `json:"sku"`
	Type           AlertType  `json:"type"`
	Priority       Priority   `json:"priority"`
	Message        string     `json:"message"`
	CurrentStock   string     `json:"currentStock"`
	MinStock       string     `json:"minStock"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`
	Fingerprint    string     `json:"-"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// AlertAcknowledgement is the persisted side of an alert, keyed by alert id
type AlertAcknowledgement struct {
	AlertID        string    `db:"alert_id" json:"alertId"`
	ItemID         string    `db:"item_id" json:"itemId"`
	AlertType      AlertType `db:"alert_type" json:"alertType"`
	Fingerprint    string    `db:"fingerprint" json:"fingerprint"`
	AcknowledgedBy string    `db:"acknowledged_by" json:"acknowledgedBy"`
	AcknowledgedAt time.Time `db:"acknowledged_at" json:"acknowledgedAt"`
}

var alertNamespace = uuid.MustParse("6f1c3b0e-5d7a-4c1e-9a43-0b8f3e2d9c71")

// AlertID is stable for an (item, type) pair so acknowledgements survive
// recomputation.
func AlertID(itemID string, alertType AlertType) string {
	return uuid.NewSHA1(alertNamespace, []byte(itemID+":"+string(alertType))).String()
}

// ClassifyItem derives the alerts implied by the item's current state.
// Stock alerts only fire at or below minStock; expiry warnings fire for
// stocked items expiring within the window.
func ClassifyItem(item *InventoryItem, now time.Time, expiryWindow time.Duration) []InventoryAlert {
	if !item.IsActive {
		return nil
	}

	var alerts []InventoryAlert
	stock := item.CurrentStock.String()

	newAlert := func(t AlertType, p Priority, msg, fingerprint string) InventoryAlert {
		return InventoryAlert{
			ID:           AlertID(item.ID, t),
			ItemID:       item.ID,
			ItemName:     item.Name,
			SKU:          item.SKU,
			Type:         t,
			Priority:     p,
			Message:      msg,
			CurrentStock: stock,
			MinStock:     item.MinStock.String(),
			ExpiryDate:   item.ExpiryDate,
			Fingerprint:  fingerprint,
			CreatedAt:    now,
		}
	}

	switch {
	case item.IsOutOfStock():
		alerts = append(alerts, newAlert(AlertOutOfStock, PriorityCritical,
			fmt.Sprintf("%s is out of stock", item.Name), stock))
	case item.IsLowStock():
		alerts = append(alerts, newAlert(AlertLowStock, PriorityMedium,
			fmt.Sprintf("%s is low on stock (%s %s left, minimum %s)", item.Name, stock, item.Unit, item.MinStock), stock))
		if item.CriticalStock.Sign() > 0 && item.CurrentStock.LessThanOrEqual(item.CriticalStock) {
			alerts = append(alerts, newAlert(AlertCriticalStock, PriorityHigh,
				fmt.Sprintf("%s is critically low (%s %s left)", item.Name, stock, item.Unit), stock))
		}
	}

	if item.CurrentStock.LessThanOrEqual(item.MinStock) && item.ReorderQuantity.Sign() > 0 {
		alerts = append(alerts, newAlert(AlertReorderNeeded, PriorityMedium,
			fmt.Sprintf("Reorder %s %s of %s", item.ReorderQuantity, item.Unit, item.Name), stock))
	}

	if item.ExpiryDate != nil && item.CurrentStock.Sign() > 0 && !item.ExpiryDate.After(now.Add(expiryWindow)) {
		expiry := *item.ExpiryDate
		var priority Priority
		var msg string
		switch {
		case !expiry.After(now):
			priority = PriorityCritical
			msg = fmt.Sprintf("%s expired on %s", item.Name, expiry.Format("2006-01-02"))
		case !expiry.After(now.Add(24 * time.Hour)):
			priority = PriorityHigh
			msg = fmt.Sprintf("%s expires within 24 hours (%s)", item.Name, expiry.Format("2006-01-02 15:04"))
		default:
			priority = PriorityMedium
			msg = fmt.Sprintf("%s expires on %s", item.Name, expiry.Format("2006-01-02"))
		}
		// The priority is part of the fingerprint so an acknowledged warning
		// resurfaces once the item actually expires.
		alerts = append(alerts, newAlert(AlertExpiryWarning, priority, msg,
			expiry.UTC().Format(time.RFC3339)+"|"+string(priority)))
	}

	return alerts
}

// AckPolicy decides how long an acknowledgement suppresses an alert
type AckPolicy string

const (
	// AckUntilChange suppresses the alert while the acknowledged state holds
	AckUntilChange AckPolicy = "until_change"
	// AckPermanent suppresses the alert id for good
	AckPermanent AckPolicy = "permanent"
)

// ParseAckPolicy defaults unknown values to AckUntilChange
func ParseAckPolicy(s string) AckPolicy {
	if AckPolicy(s) == AckPermanent {
		return AckPermanent
	}
	return AckUntilChange
}

// Covers reports whether the acknowledgement applies to the alert as it
// stands now.
func (p AckPolicy) Covers(ack AlertAcknowledgement, alert InventoryAlert) bool {
	if ack.AlertID != alert.ID {
		return false
	}
	if p == AckPermanent {
		return true
	}
	return ack.Fingerprint == alert.Fingerprint
}

// ApplyAcknowledgements flags alerts covered by a stored acknowledgement.
// The input slice is modified in place and returned.
func ApplyAcknowledgements(alerts []InventoryAlert, acks map[string]AlertAcknowledgement, policy AckPolicy) []InventoryAlert {
	for i := range alerts {
		ack, ok := acks[alerts[i].ID]
		if !ok || !policy.Covers(ack, alerts[i]) {
			continue
		}
		at := ack.AcknowledgedAt
		alerts[i].Acknowledged = true
		alerts[i].AcknowledgedBy = ack.AcknowledgedBy
		alerts[i].AcknowledgedAt = &at
	}
	return alerts
}

// AlertFilter narrows an alert listing
type AlertFilter struct {
	Priority            Priority
	Type                AlertType
	ItemID              string
	IncludeAcknowledged bool
}

// FilterAlerts applies the filter and orders the result by priority, then
// item name.
func FilterAlerts(alerts []InventoryAlert, f AlertFilter) []InventoryAlert {
	out := make([]InventoryAlert, 0, len(alerts))
	for _, a := range alerts {
		if a.Acknowledged && !f.IncludeAcknowledged {
			continue
		}
		if f.Priority != "" && a.Priority != f.Priority {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.ItemID != "" && a.ItemID != f.ItemID {
			continue
		}
		out = append(out, a)
	}
	SortAlerts(out)
	return out
}

// SortAlerts orders alerts by priority, then item name, then type
func SortAlerts(alerts []InventoryAlert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() < b.Priority.rank()
		}
		if a.ItemName != b.ItemName {
			return lessFold(a.ItemName, b.ItemName)
		}
		return a.Type < b.Type
	})
}

// AlertCounts summarises alerts by priority and type
type AlertCounts struct {
	Total      int               `json:"total"`
	ByPriority map[Priority]int  `json:"byPriority"`
	ByType     map[AlertType]int `json:"byType"`
}

// CountAlerts tallies alerts; every known priority and type is present
func CountAlerts(alerts []InventoryAlert) AlertCounts {
	counts := AlertCounts{
		Total:      len(alerts),
		ByPriority: make(map[Priority]int, len(Priorities)),
		ByType:     make(map[AlertType]int, len(AlertTypes)),
	}
	for _, p := range Priorities {
		counts.ByPriority[p] = 0
	}
	for _, t := range AlertTypes {
		counts.ByType[t] = 0
	}
	for _, a := range alerts {
		counts.ByPriority[a.Priority]++
		counts.ByType[a.Type]++
	}
	return counts
}

// ValidPriority reports whether s names a known priority
func ValidPriority(s string) bool {
	for _, p := range Priorities {
		if string(p) == s {
			return true
		}
	}
	return false
}

// ValidAlertType reports whether s names a known alert type
func ValidAlertType(s string) bool {
	for _, t := range AlertTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}
