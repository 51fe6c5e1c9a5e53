package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogue() []*InventoryItem {
	return []*InventoryItem{
		newItem("1", "PZ01", "Pizza dough", "5", "10", withCategory("dough")),
		newItem("2", "MZ01", "Mozzarella", "12", "4", withCategory("dairy"), func(i *InventoryItem) {
			i.Description = "Fior di latte for pizza"
		}),
		newItem("3", "TM01", "tomatoes", "30", "10", withCategory("produce")),
		newItem("4", "PIZZABOX", "Boxes", "200", "50", withCategory("packaging")),
		newItem("5", "BS01", "Basil", "1", "1", withCategory("produce")),
	}
}

func skus(items []*InventoryItem) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.SKU)
	}
	return out
}

func TestFilterItems_Search(t *testing.T) {
	got := FilterItems(catalogue(), "", "PiZzA")
	assert.ElementsMatch(t, []string{"PZ01", "MZ01", "PIZZABOX"}, skus(got))
}

func TestFilterItems_Category(t *testing.T) {
	got := FilterItems(catalogue(), "Produce", "")
	assert.Equal(t, []string{"TM01", "BS01"}, skus(got))

	got = FilterItems(catalogue(), "produce", "basil")
	assert.Equal(t, []string{"BS01"}, skus(got))
}

func TestSortItems(t *testing.T) {
	tests := []struct {
		name  string
		by    string
		order string
		want  []string
	}{
		{"name is case-insensitive", "name", "asc", []string{"BS01", "PIZZABOX", "MZ01", "PZ01", "TM01"}},
		{"stock descending", "currentStock", "desc", []string{"PIZZABOX", "TM01", "MZ01", "PZ01", "BS01"}},
		{"category keeps input order on ties", "category", "asc", []string{"MZ01", "PZ01", "PIZZABOX", "TM01", "BS01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := catalogue()
			SortItems(items, tt.by, tt.order)
			assert.Equal(t, tt.want, skus(items))
		})
	}
}

func TestItemQuery_Normalize(t *testing.T) {
	q := ItemQuery{SortBy: "price; drop table", SortOrder: "sideways", Limit: 1000}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPageSize, q.Limit)
	assert.Equal(t, "name", q.SortBy)
	assert.Equal(t, "asc", q.SortOrder)
}

func TestPaginate(t *testing.T) {
	items := catalogue()

	page, p := Paginate(items, 2, 2)
	assert.Equal(t, []string{"TM01", "PIZZABOX"}, skus(page))
	assert.Equal(t, Pagination{Page: 2, Limit: 2, Total: 5, TotalPages: 3, HasNext: true, HasPrev: true}, p)

	last, p := Paginate(items, 3, 2)
	require.Len(t, last, 1)
	assert.False(t, p.HasNext)

	beyond, _ := Paginate(items, 9, 2)
	assert.Empty(t, beyond)
}

func TestPaginate_HugePageIsEmpty(t *testing.T) {
	page, p := Paginate(catalogue(), 1<<62, 20)
	assert.Empty(t, page)
	assert.Equal(t, 1<<62, p.Page)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrev)

	none, p := Paginate(nil, 1, 20)
	assert.Empty(t, none)
	assert.Equal(t, 0, p.TotalPages)
}
