package database

import (
	"errors"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantNil    bool
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "duplicate sku",
			err:        &pq.Error{Code: "23505", Constraint: "inventory_items_sku_key"},
			wantStatus: http.StatusConflict,
			wantMsg:    "an inventory item with this SKU already exists",
		},
		{
			name:       "negative stock",
			err:        &pq.Error{Code: "23514", Constraint: "inventory_items_current_stock_check"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "stock level cannot become negative",
		},
		{
			name:       "missing item reference",
			err:        &pq.Error{Code: "23503", Constraint: "stock_movements_item_id_fkey"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not null",
			err:        &pq.Error{Code: "23502", Column: "name"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:    "unmapped code",
			err:     &pq.Error{Code: "40001"},
			wantNil: true,
		},
		{
			name:    "not a pq error",
			err:     errors.New("connection reset"),
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPQError(tt.err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Message)
			}
		})
	}
}
