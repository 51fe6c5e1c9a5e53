package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/internal/inventory/repository"
	"github.com/omiam/omiam-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockResponse struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message"`
	Item     domain.InventoryItem   `json:"item"`
	Movement domain.StockMovement   `json:"movement"`
	Items    []domain.InventoryItem `json:"items"`
	Count    int                    `json:"count"`
}

func TestGetInventory_AllWithStatsAndAlerts(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "PZ01", "Pâte à pizza", "Boulangerie", "0", "5")
	h.seed(t, "TM01", "Tomates", "Légumes", "40", "10")

	rr := h.do(testutil.NewHTTPRequest(http.MethodGet, "/inventory?stats=true&alerts=true", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body struct {
		Success bool                    `json:"success"`
		Items   []domain.InventoryItem  `json:"items"`
		Count   int                     `json:"count"`
		Stats   domain.InventoryStats   `json:"stats"`
		Alerts  []domain.InventoryAlert `json:"alerts"`
	}
	testutil.ParseJSONBody(t, rr, &body)

	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 1, body.Stats.OutOfStockItems)
	require.Len(t, body.Alerts, 1)
	assert.Equal(t, domain.AlertOutOfStock, body.Alerts[0].Type)
	assert.Equal(t, "PZ01", body.Alerts[0].SKU)
}

func TestGetInventory_WithoutFlagsOmitsExtras(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "TM01", "Tomates", "Légumes", "40", "10")

	rr := h.do(testutil.NewHTTPRequest(http.MethodGet, "/inventory", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body map[string]any
	testutil.ParseJSONBody(t, rr, &body)
	assert.NotContains(t, body, "stats")
	assert.NotContains(t, body, "alerts")
	assert.Contains(t, body, "timestamp")
}

func TestGetInventory_SingleItemWithMovements(t *testing.T) {
	h := newHarness(t)
	item := h.seed(t, "TM01", "Tomates", "Légumes", "40", "10")

	rr := h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{
		"action": "consume", "itemId": item.ID, "quantity": 4, "orderId": "ord-7",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = h.do(testutil.NewHTTPRequest(http.MethodGet, "/inventory?itemId="+item.ID+"&movements=true&alerts=true", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body struct {
		Item      domain.InventoryItem    `json:"item"`
		Movements []domain.StockMovement  `json:"movements"`
		Alerts    []domain.InventoryAlert `json:"alerts"`
	}
	testutil.ParseJSONBody(t, rr, &body)

	assert.True(t, dec("36").Equal(body.Item.CurrentStock))
	require.Len(t, body.Movements, 1)
	assert.Equal(t, domain.MovementConsume, body.Movements[0].Type)
	assert.True(t, dec("-4").Equal(body.Movements[0].Quantity))
	require.NotNil(t, body.Movements[0].OrderID)
	assert.Equal(t, "ord-7", *body.Movements[0].OrderID)
	assert.Empty(t, body.Alerts)
}

func TestGetInventory_UnknownItem(t *testing.T) {
	h := newHarness(t)

	rr := h.do(testutil.NewHTTPRequest(http.MethodGet, "/inventory?itemId=missing", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	var body envelope
	testutil.ParseJSONBody(t, rr, &body)
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.NotEmpty(t, body.Timestamp)
}

func TestGetInventory_StoreFailureIsGeneric(t *testing.T) {
	h := newHarness(t, func(m *repository.MemoryStore) repository.ItemStore { return brokenStore{m} })

	rr := h.do(testutil.NewHTTPRequest(http.MethodGet, "/inventory", nil))
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)

	var body envelope
	testutil.ParseJSONBody(t, rr, &body)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.NotContains(t, body.Error, "10.0.0.5")
}

func TestPostInventory_Consume(t *testing.T) {
	h := newHarness(t)
	item := h.seed(t, "TM01", "Tomates", "Légumes", "10", "2")

	req := as(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{
		"action": "consume", "itemId": item.ID, "quantity": "2.5",
	}), "emp-42", "kitchen")
	rr := h.do(req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body stockResponse
	testutil.ParseJSONBody(t, rr, &body)
	assert.True(t, body.Success)
	assert.Equal(t, "Stock consumed", body.Message)
	assert.True(t, dec("7.5").Equal(body.Item.CurrentStock))
	assert.True(t, dec("10").Equal(body.Movement.PreviousStock))
	assert.True(t, dec("7.5").Equal(body.Movement.NewStock))
	require.NotNil(t, body.Movement.EmployeeID)
	assert.Equal(t, "emp-42", *body.Movement.EmployeeID)
}

func TestPostInventory_ConsumeInsufficientStock(t *testing.T) {
	h := newHarness(t)
	item := h.seed(t, "TM01", "Tomates", "Légumes", "5", "2")

	rr := h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{
		"action": "consume", "itemId": item.ID, "quantity": 8,
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	var body envelope
	testutil.ParseJSONBody(t, rr, &body)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.Equal(t, "5", body.Details["available"])
	assert.Equal(t, "8", body.Details["requested"])

	stored, err := h.memory.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, dec("5").Equal(stored.CurrentStock))
}

func TestPostInventory_Add(t *testing.T) {
	h := newHarness(t)
	item := h.seed(t, "TM01", "Tomates", "Légumes", "3", "2")

	rr := h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{
		"action": "add", "itemId": item.ID, "quantity": 12, "cost": "1.80", "batchNumber": "LOT-2026-03", "employeeId": "emp-7",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body stockResponse
	testutil.ParseJSONBody(t, rr, &body)
	assert.True(t, dec("15").Equal(body.Item.CurrentStock))
	assert.Equal(t, domain.MovementAdd, body.Movement.Type)
	assert.Equal(t, "Stock received (batch LOT-2026-03)", body.Movement.Reason)
	require.NotNil(t, body.Movement.Cost)
	assert.True(t, dec("1.80").Equal(*body.Movement.Cost))
	require.NotNil(t, body.Movement.EmployeeID)
	assert.Equal(t, "emp-7", *body.Movement.EmployeeID)
}

func TestPostInventory_Update(t *testing.T) {
	h := newHarness(t)
	item := h.seed(t, "TM01", "Tomates", "Légumes", "3", "2")

	rr := h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{
		"action": "update", "itemId": item.ID, "quantity": 20, "reason": "Weekly recount",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body stockResponse
	testutil.ParseJSONBody(t, rr, &body)
	assert.True(t, dec("20").Equal(body.Item.CurrentStock))
	assert.True(t, dec("17").Equal(body.Movement.Quantity))

	rr = h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{
		"action": "update", "itemId": item.ID, "quantity": 5,
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestPostInventory_GetAndList(t *testing.T) {
	h := newHarness(t)
	item := h.seed(t, "TM01", "Tomates", "Légumes", "3", "2")
	h.seed(t, "PZ01", "Pâte à pizza", "Boulangerie", "8", "5")

	rr := h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{"action": "get", "itemId": item.ID}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var got stockResponse
	testutil.ParseJSONBody(t, rr, &got)
	assert.Equal(t, "TM01", got.Item.SKU)

	rr = h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{"action": "LIST"}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var listed stockResponse
	testutil.ParseJSONBody(t, rr, &listed)
	assert.Equal(t, 2, listed.Count)
}

func TestPostInventory_RejectsBadShape(t *testing.T) {
	h := newHarness(t)
	item := h.seed(t, "TM01", "Tomates", "Légumes", "3", "2")

	tests := []struct {
		name  string
		body  any
		code  string
		field string
	}{
		{"missing action", map[string]any{"itemId": item.ID}, "VALIDATION_ERROR", "action"},
		{"unknown action", map[string]any{"action": "steal", "itemId": item.ID}, "VALIDATION_ERROR", "action"},
		{"missing item", map[string]any{"action": "consume", "quantity": 1}, "VALIDATION_ERROR", "itemId"},
		{"missing quantity", map[string]any{"action": "consume", "itemId": item.ID}, "VALIDATION_ERROR", "quantity"},
		{"non numeric quantity", map[string]any{"action": "add", "itemId": item.ID, "quantity": "lots"}, "BAD_REQUEST", ""},
		{"malformed json", `{"action": "get",`, "BAD_REQUEST", ""},
		{"zero quantity", map[string]any{"action": "consume", "itemId": item.ID, "quantity": 0}, "BAD_REQUEST", ""},
		{"quantity below storage precision", map[string]any{"action": "consume", "itemId": item.ID, "quantity": "0.0004"}, "BAD_REQUEST", ""},
		{"quantity beyond storage range", map[string]any{"action": "add", "itemId": item.ID, "quantity": "100000000000"}, "BAD_REQUEST", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", tt.body))
			testutil.AssertStatus(t, rr, http.StatusBadRequest)

			var body envelope
			testutil.ParseJSONBody(t, rr, &body)
			assert.Equal(t, tt.code, body.Code)
			if tt.field != "" {
				assert.Contains(t, body.Details, tt.field)
			}
		})
	}
}

func TestPostInventory_UnknownItem(t *testing.T) {
	h := newHarness(t)

	rr := h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{
		"action": "add", "itemId": "missing", "quantity": 1,
	}))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestPostInventory_ConcurrentModification(t *testing.T) {
	h := newHarness(t, func(m *repository.MemoryStore) repository.ItemStore { return conflictStore{m} })
	item := h.seed(t, "TM01", "Tomates", "Légumes", "3", "2")

	rr := h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{
		"action": "consume", "itemId": item.ID, "quantity": 1,
	}))
	testutil.AssertStatus(t, rr, http.StatusConflict)

	var body envelope
	testutil.ParseJSONBody(t, rr, &body)
	assert.Equal(t, "CONCURRENT_MODIFICATION", body.Code)
}

func TestPostInventory_ConsumeSameOrderTwice(t *testing.T) {
	h := newHarness(t)
	item := h.seed(t, "TM01", "Tomates", "Légumes", "10", "2")
	body := map[string]any{"action": "consume", "itemId": item.ID, "quantity": 2, "orderId": "ord-9"}

	rr := h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", body))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", body))
	testutil.AssertStatus(t, rr, http.StatusConflict)

	var failure envelope
	testutil.ParseJSONBody(t, rr, &failure)
	assert.Equal(t, "ORDER_ALREADY_CONSUMED", failure.Code)

	stored, err := h.memory.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, dec("8").Equal(stored.CurrentStock))
}

func TestPostInventory_Permissions(t *testing.T) {
	h := newHarness(t)
	item := h.seed(t, "TM01", "Tomates", "Légumes", "3", "2")

	consume := map[string]any{"action": "consume", "itemId": item.ID, "quantity": 1}

	rr := h.do(as(testutil.NewHTTPRequest(http.MethodPost, "/inventory", consume), "waiter-1", "staff"))
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	rr = h.do(as(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{"action": "get", "itemId": item.ID}), "waiter-1", "staff"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = h.do(as(testutil.NewHTTPRequest(http.MethodPost, "/inventory", consume), "chef-1", "kitchen"))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestPostInventory_ConsumeRecordsMovement(t *testing.T) {
	h := newHarness(t)
	item := h.seed(t, "TM01", "Tomates", "Légumes", "3", "2")

	rr := h.do(testutil.NewHTTPRequest(http.MethodPost, "/inventory", map[string]any{
		"action": "consume", "itemId": item.ID, "quantity": 3,
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body stockResponse
	testutil.ParseJSONBody(t, rr, &body)

	movements, err := h.memory.ListByItem(context.Background(), item.ID, 10)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, movements[0].ID, body.Movement.ID)
	assert.True(t, body.Item.IsOutOfStock())
}
