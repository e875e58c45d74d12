package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amorlias/storefront/catalog"
	"github.com/amorlias/storefront/internal/localstore"
)

func testProduct(t *testing.T, price string) catalog.Product {
	t.Helper()
	return catalog.Product{
		ID:           uuid.New(),
		Name:         "test product",
		SellingPrice: decimal.RequireFromString(price),
	}
}

func newTestManager(t *testing.T) (*Manager, *localstore.Store) {
	t.Helper()
	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	return NewManager(context.Background(), store), store
}

func TestAddItem(t *testing.T) {
	c := context.Background()
	product := testProduct(t, "199.50")

	tests := []struct {
		name             string
		mutate           func(m *Manager)
		expectedCount    int
		expectedSubtotal string
	}{
		{
			name: "given new product should append entry",
			mutate: func(m *Manager) {
				m.AddItem(c, product, 2)
			},
			expectedCount:    2,
			expectedSubtotal: "399",
		},
		{
			name: "given existing product should increment quantity",
			mutate: func(m *Manager) {
				m.AddItem(c, product, 1)
				m.AddItem(c, product, 3)
			},
			expectedCount:    4,
			expectedSubtotal: "798",
		},
		{
			name: "given quantity below one should count as one",
			mutate: func(m *Manager) {
				m.AddItem(c, product, 0)
				m.AddItem(c, product, -5)
			},
			expectedCount:    2,
			expectedSubtotal: "399",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t)
			tt.mutate(m)
			assert.Equal(t, tt.expectedCount, m.ItemCount())
			expected := decimal.RequireFromString(tt.expectedSubtotal)
			assert.True(t, expected.Equal(m.Subtotal()), "expected=%s got=%s", expected, m.Subtotal())
		})
	}
}

func TestRemoveItem(t *testing.T) {
	c := context.Background()
	m, _ := newTestManager(t)
	product := testProduct(t, "50")

	m.AddItem(c, product, 2)
	m.RemoveItem(c, product.ID)
	assert.Empty(t, m.Items())

	// Removing an absent product is a no-op.
	m.RemoveItem(c, uuid.New())
	assert.Empty(t, m.Items())
}

func TestUpdateQuantity(t *testing.T) {
	c := context.Background()
	product := testProduct(t, "50")

	tests := []struct {
		name          string
		quantity      int
		expectedCount int
	}{
		{name: "given positive quantity should set exactly", quantity: 7, expectedCount: 7},
		{name: "given zero quantity should remove item", quantity: 0, expectedCount: 0},
		{name: "given negative quantity should remove item", quantity: -1, expectedCount: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t)
			m.AddItem(c, product, 2)
			m.UpdateQuantity(c, product.ID, tt.quantity)
			assert.Equal(t, tt.expectedCount, m.ItemCount())
		})
	}

	t.Run("given absent product should be a no-op", func(t *testing.T) {
		m, _ := newTestManager(t)
		m.AddItem(c, product, 2)
		m.UpdateQuantity(c, uuid.New(), 9)
		assert.Equal(t, 2, m.ItemCount())
	})
}

func TestSubtotalMixedCart(t *testing.T) {
	c := context.Background()
	m, _ := newTestManager(t)

	m.AddItem(c, testProduct(t, "199.99"), 2)
	m.AddItem(c, testProduct(t, "49.50"), 3)

	expected := decimal.RequireFromString("548.48")
	assert.True(t, expected.Equal(m.Subtotal()), "expected=%s got=%s", expected, m.Subtotal())
	assert.Equal(t, 5, m.ItemCount())
}

func TestCartPersistsAcrossManagers(t *testing.T) {
	c := context.Background()
	m, store := newTestManager(t)
	product := testProduct(t, "120")

	m.AddItem(c, product, 2)

	rehydrated := NewManager(c, store)
	require.Len(t, rehydrated.Items(), 1)
	assert.Equal(t, product.ID, rehydrated.Items()[0].Product.ID)
	assert.Equal(t, 2, rehydrated.Items()[0].Quantity)

	rehydrated.Clear(c)
	assert.Empty(t, NewManager(c, store).Items())
}
