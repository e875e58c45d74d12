// Package cart owns the shopping cart list: quantity arithmetic,
// subtotal and item-count derivation, and the local-storage snapshot
// written after every mutation. The cart never talks to the network;
// stock limits are the backend's problem at order time.
package cart

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amorlias/storefront/catalog"
	"github.com/amorlias/storefront/internal/constants"
	"github.com/amorlias/storefront/internal/localstore"
	"github.com/amorlias/storefront/internal/log"
)

type Item struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Manager is not safe for concurrent use; all mutation happens on the
// command loop.
type Manager struct {
	store *localstore.Store
	items []Item
}

// NewManager rehydrates the persisted cart snapshot. A broken snapshot
// falls back to an empty cart rather than failing startup.
func NewManager(c context.Context, store *localstore.Store) *Manager {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartManager NewManager").
		Str(log.KeyStorageKey, constants.StorageKeyCart).
		Logger()

	m := &Manager{store: store}
	if _, err := store.Get(constants.StorageKeyCart, &m.items); err != nil {
		err = fmt.Errorf("failed rehydrating cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		m.items = nil
	}
	return m
}

// Items returns a copy of the cart list.
func (m *Manager) Items() []Item {
	return slices.Clone(m.items)
}

func (m *Manager) indexOf(productID uuid.UUID) int {
	return slices.IndexFunc(m.items, func(item Item) bool {
		return item.Product.ID == productID
	})
}

// AddItem increments the quantity of an existing entry or appends a new
// one. Quantities below one count as one.
func (m *Manager) AddItem(c context.Context, product catalog.Product, quantity int) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartManager AddItem").
		Str(log.KeyProductID, product.ID.String()).
		Int(log.KeyQuantity, quantity).
		Logger()

	if quantity < 1 {
		quantity = 1
	}
	if i := m.indexOf(product.ID); i >= 0 {
		m.items[i].Quantity += quantity
		logger.Info().Msgf("incremented quantity to %d", m.items[i].Quantity)
	} else {
		m.items = append(m.items, Item{Product: product, Quantity: quantity})
		logger.Info().Msg("added item to cart")
	}
	m.persist(c)
}

// RemoveItem deletes the matching entry; removing an absent product is
// a no-op.
func (m *Manager) RemoveItem(c context.Context, productID uuid.UUID) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartManager RemoveItem").
		Str(log.KeyProductID, productID.String()).
		Logger()

	i := m.indexOf(productID)
	if i < 0 {
		logger.Info().Msg("product not in cart, nothing to remove")
		return
	}
	m.items = slices.Delete(m.items, i, i+1)
	logger.Info().Msg("removed item from cart")
	m.persist(c)
}

// UpdateQuantity sets the quantity exactly. Zero or negative removes
// the item entirely.
func (m *Manager) UpdateQuantity(c context.Context, productID uuid.UUID, quantity int) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartManager UpdateQuantity").
		Str(log.KeyProductID, productID.String()).
		Int(log.KeyQuantity, quantity).
		Logger()

	if quantity <= 0 {
		m.RemoveItem(c, productID)
		return
	}
	i := m.indexOf(productID)
	if i < 0 {
		logger.Info().Msg("product not in cart, nothing to update")
		return
	}
	m.items[i].Quantity = quantity
	logger.Info().Msg("updated quantity")
	m.persist(c)
}

func (m *Manager) Clear(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartManager Clear").
		Logger()

	m.items = nil
	logger.Info().Msg("cleared cart")
	m.persist(c)
}

// Subtotal is the sum of selling_price x quantity. No tax, fee or
// rounding; callers format for display.
func (m *Manager) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range m.items {
		subtotal = subtotal.Add(
			item.Product.SellingPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		)
	}
	return subtotal
}

// ItemCount is the sum of quantities, not the distinct product count.
func (m *Manager) ItemCount() int {
	count := 0
	for _, item := range m.items {
		count += item.Quantity
	}
	return count
}

func (m *Manager) persist(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartManager persist").
		Str(log.KeyStorageKey, constants.StorageKeyCart).
		Int(log.KeyItemCount, len(m.items)).
		Logger()

	if err := m.store.Set(constants.StorageKeyCart, m.items); err != nil {
		err = fmt.Errorf("failed persisting cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
	}
}
