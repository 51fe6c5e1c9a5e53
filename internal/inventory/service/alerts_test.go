package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/internal/inventory/service"
	"github.com/omiam/omiam-backend/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Alert Tests ---

func TestGetActiveAlerts_StockClassification(t *testing.T) {
	h := newHarness(t, domain.AckUntilChange)
	empty := h.seed(t, "A", "Anchois", "0", "3")
	low := h.seed(t, "B", "Beurre", "3", "3")
	lowFraction := h.seed(t, "C", "Citron", "0.5", "4")
	fine := h.seed(t, "D", "Dattes", "3.001", "3")

	alerts, err := h.svc.GetActiveAlerts(context.Background())
	require.NoError(t, err)

	assert.Len(t, alertsOfType(alerts, empty.ID, domain.AlertOutOfStock), 1)
	assert.Empty(t, alertsOfType(alerts, empty.ID, domain.AlertLowStock))
	assert.Len(t, alertsOfType(alerts, low.ID, domain.AlertLowStock), 1)
	assert.Len(t, alertsOfType(alerts, lowFraction.ID, domain.AlertLowStock), 1)
	assert.False(t, hasStockAlert(alerts, fine.ID))

	// Most urgent first
	require.NotEmpty(t, alerts)
	assert.Equal(t, domain.PriorityCritical, alerts[0].Priority)
}

func TestGetActiveAlerts_PZ01LowStock(t *testing.T) {
	h := newHarness(t, domain.AckUntilChange)
	item := h.seed(t, "PZ01", "Pâte à pizza", "5", "10")

	alerts, err := h.svc.GetActiveAlerts(context.Background())
	require.NoError(t, err)

	low := alertsOfType(alerts, item.ID, domain.AlertLowStock)
	require.Len(t, low, 1)
	assert.Equal(t, "PZ01", low[0].SKU)
	assert.Equal(t, domain.PriorityMedium, low[0].Priority)
	assert.Equal(t, domain.AlertID(item.ID, domain.AlertLowStock), low[0].ID)
}

func TestAcknowledgeAlert_Unknown(t *testing.T) {
	h := newHarness(t, domain.AckUntilChange)
	item := h.seed(t, "PZ01", "Pâte à pizza", "50", "10")

	// Well formed but not implied by any item state
	res, err := h.svc.AcknowledgeAlert(context.Background(), domain.AlertID(item.ID, domain.AlertLowStock), "emp-1")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, domain.OutcomeNotFound, res.Outcome)

	res, err = h.svc.AcknowledgeAlert(context.Background(), "nope", "emp-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNotFound, res.Outcome)
}

func TestAcknowledgeAlert_RequiresIDs(t *testing.T) {
	h := newHarness(t, domain.AckUntilChange)

	res, err := h.svc.AcknowledgeAlert(context.Background(), "", "emp-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInvalid, res.Outcome)

	res, err = h.svc.AcknowledgeAlert(context.Background(), "some-id", " ")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInvalid, res.Outcome)
}

func TestAcknowledgeAlert_Policies(t *testing.T) {
	tests := []struct {
		name             string
		policy           domain.AckPolicy
		resurfacesOnDrop bool
	}{
		{"until change", domain.AckUntilChange, true},
		{"permanent", domain.AckPermanent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.policy)
			ctx := context.Background()
			item := h.seed(t, "PZ01", "Pâte à pizza", "5", "10")
			alertID := domain.AlertID(item.ID, domain.AlertLowStock)

			res, err := h.svc.AcknowledgeAlert(ctx, alertID, "emp-1")
			require.NoError(t, err)
			require.True(t, res.OK())
			assert.True(t, res.Alert.Acknowledged)
			assert.Equal(t, "emp-1", res.Alert.AcknowledgedBy)

			// Acknowledging does not touch stock
			assert.True(t, h.stock(t, item.ID).Equal(dec("5")))

			active, err := h.svc.GetActiveAlerts(ctx)
			require.NoError(t, err)
			assert.Empty(t, alertsOfType(active, item.ID, domain.AlertLowStock))

			listing, err := h.svc.ListAlerts(ctx, domain.AlertFilter{IncludeAcknowledged: true})
			require.NoError(t, err)
			flagged := alertsOfType(listing.Alerts, item.ID, domain.AlertLowStock)
			require.Len(t, flagged, 1)
			assert.True(t, flagged[0].Acknowledged)

			// Stock drops further
			_, err = h.svc.ConsumeStock(ctx, service.ConsumeStockInput{ItemID: item.ID, Quantity: dec("2")})
			require.NoError(t, err)

			active, err = h.svc.GetActiveAlerts(ctx)
			require.NoError(t, err)
			if tt.resurfacesOnDrop {
				assert.Len(t, alertsOfType(active, item.ID, domain.AlertLowStock), 1)
			} else {
				assert.Empty(t, alertsOfType(active, item.ID, domain.AlertLowStock))
			}
		})
	}
}

func TestAcknowledgeAlert_RecurrenceAfterRestockIsNewIncident(t *testing.T) {
	h := newHarness(t, domain.AckUntilChange)
	ctx := context.Background()
	item := h.seed(t, "PZ01", "Pâte à pizza", "5", "10")
	alertID := domain.AlertID(item.ID, domain.AlertLowStock)

	res, err := h.svc.AcknowledgeAlert(ctx, alertID, "emp-1")
	require.NoError(t, err)
	require.True(t, res.OK())
	h.pushed()

	// Restock clears the condition without anyone listing alerts
	_, err = h.svc.AddStock(ctx, service.AddStockInput{ItemID: item.ID, Quantity: dec("20")})
	require.NoError(t, err)
	acks, err := h.store.Acknowledgements().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, acks)

	// Back to the acknowledged level: announced and active again
	_, err = h.svc.ConsumeStock(ctx, service.ConsumeStockInput{ItemID: item.ID, Quantity: dec("20")})
	require.NoError(t, err)

	active, err := h.svc.GetActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, alertsOfType(active, item.ID, domain.AlertLowStock), 1)

	pushed := h.pushed()
	require.Len(t, pushed, 1)
	assert.Equal(t, service.EventAlert, pushed[0].Event)

	generated := h.publisher.Events(messaging.EventAlertGenerated)
	require.NotEmpty(t, generated)
	assert.Equal(t, "low_stock", generated[len(generated)-1].Payload.(messaging.AlertGeneratedEvent).AlertType)
}

func TestAcknowledgeAlert_PermanentSurvivesRestock(t *testing.T) {
	h := newHarness(t, domain.AckPermanent)
	ctx := context.Background()
	item := h.seed(t, "PZ01", "Pâte à pizza", "5", "10")

	res, err := h.svc.AcknowledgeAlert(ctx, domain.AlertID(item.ID, domain.AlertLowStock), "emp-1")
	require.NoError(t, err)
	require.True(t, res.OK())
	h.pushed()

	_, err = h.svc.AddStock(ctx, service.AddStockInput{ItemID: item.ID, Quantity: dec("20")})
	require.NoError(t, err)
	_, err = h.svc.ConsumeStock(ctx, service.ConsumeStockInput{ItemID: item.ID, Quantity: dec("20")})
	require.NoError(t, err)

	active, err := h.svc.GetActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alertsOfType(active, item.ID, domain.AlertLowStock))
	assert.Empty(t, h.pushed())
}

func TestListAlerts_ReleasesAcknowledgementsOfClearedAlerts(t *testing.T) {
	h := newHarness(t, domain.AckUntilChange)
	ctx := context.Background()
	item := h.seed(t, "PZ01", "Pâte à pizza", "5", "10")
	alertID := domain.AlertID(item.ID, domain.AlertLowStock)

	// A stale entry, as left behind by a process that stopped mid-change
	require.NoError(t, h.store.Acknowledgements().Save(ctx, &domain.AlertAcknowledgement{
		AlertID:     domain.AlertID(item.ID, domain.AlertOutOfStock),
		ItemID:      item.ID,
		AlertType:   domain.AlertOutOfStock,
		Fingerprint: "0",
	}))
	res, err := h.svc.AcknowledgeAlert(ctx, alertID, "emp-1")
	require.NoError(t, err)
	require.True(t, res.OK())

	_, err = h.svc.ListAlerts(ctx, domain.AlertFilter{IncludeAcknowledged: true})
	require.NoError(t, err)

	acks, err := h.store.Acknowledgements().List(ctx)
	require.NoError(t, err)
	require.Len(t, acks, 1)
	assert.Equal(t, alertID, acks[0].AlertID)
}

func TestAcknowledgeAlert_ExpiryResurfacesWhenExpired(t *testing.T) {
	h := newHarness(t, domain.AckUntilChange)
	ctx := context.Background()

	expiry := testNow.Add(48 * time.Hour)
	item := &domain.InventoryItem{
		SKU: "CREAM", Name: "Crème", CurrentStock: dec("4"), MinStock: dec("1"),
		ExpiryDate: &expiry, IsActive: true,
	}
	require.NoError(t, h.store.Create(ctx, item))
	alertID := domain.AlertID(item.ID, domain.AlertExpiryWarning)

	res, err := h.svc.AcknowledgeAlert(ctx, alertID, "emp-1")
	require.NoError(t, err)
	require.True(t, res.OK())

	h.now = testNow.Add(30 * time.Hour)
	active, err := h.svc.GetActiveAlerts(ctx)
	require.NoError(t, err)
	expiring := alertsOfType(active, item.ID, domain.AlertExpiryWarning)
	require.Len(t, expiring, 1, "moving into the last 24h changes the warning")
	assert.Equal(t, domain.PriorityHigh, expiring[0].Priority)
}

func TestListAlerts_FiltersAndCounts(t *testing.T) {
	h := newHarness(t, domain.AckUntilChange)
	ctx := context.Background()
	empty := h.seed(t, "A", "Anchois", "0", "3")
	h.seed(t, "B", "Beurre", "2", "3")
	h.seed(t, "C", "Citron", "1", "3")

	all, err := h.svc.ListAlerts(ctx, domain.AlertFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Counts.Total)
	assert.Equal(t, 1, all.Counts.ByPriority[domain.PriorityCritical])
	assert.Equal(t, 2, all.Counts.ByPriority[domain.PriorityMedium])
	assert.Equal(t, 0, all.Counts.ByPriority[domain.PriorityLow])
	assert.Equal(t, 2, all.Counts.ByType[domain.AlertLowStock])

	critical, err := h.svc.ListAlerts(ctx, domain.AlertFilter{Priority: domain.PriorityCritical})
	require.NoError(t, err)
	require.Len(t, critical.Alerts, 1)
	assert.Equal(t, empty.ID, critical.Alerts[0].ItemID)

	byItem, err := h.svc.ListAlerts(ctx, domain.AlertFilter{ItemID: empty.ID, Type: domain.AlertLowStock})
	require.NoError(t, err)
	assert.Empty(t, byItem.Alerts)
	assert.Equal(t, 0, byItem.Counts.Total)
}

func TestSweepExpiryAlerts(t *testing.T) {
	h := newHarness(t, domain.AckUntilChange)
	ctx := context.Background()

	expiry := testNow.Add(100 * time.Hour)
	item := &domain.InventoryItem{
		SKU: "MILK", Name: "Lait", CurrentStock: dec("6"), MinStock: dec("1"),
		ExpiryDate: &expiry, IsActive: true,
	}
	require.NoError(t, h.store.Create(ctx, item))

	// First sweep records state only
	n, err := h.svc.SweepExpiryAlerts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Now inside the 72h window
	h.now = testNow.Add(30 * time.Hour)
	n, err = h.svc.SweepExpiryAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, h.publisher.Events(messaging.EventAlertGenerated), 1)
	assert.Len(t, h.pushed(), 1)

	// Unchanged: nothing new
	n, err = h.svc.SweepExpiryAlerts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Priority escalates within 24h
	h.now = testNow.Add(80 * time.Hour)
	n, err = h.svc.SweepExpiryAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
