// Package wishlist owns wishlist items and categories. It runs in one
// of two modes keyed off the auth session: a guest list persisted in
// local storage, or the server-backed list with optimistic updates and
// reload-after-write consistency.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amorlias/storefront/auth"
	"github.com/amorlias/storefront/catalog"
	"github.com/amorlias/storefront/internal/api"
	"github.com/amorlias/storefront/internal/constants"
	inErrors "github.com/amorlias/storefront/internal/errors"
	"github.com/amorlias/storefront/internal/localstore"
	"github.com/amorlias/storefront/internal/log"
	"github.com/amorlias/storefront/internal/otel"
)

var ErrAlreadyInWishlist = errors.New("product is already in the wishlist")

type Item struct {
	// ID is the server-assigned wishlist-item id; zero for guest
	// entries until they are merged on login.
	ID         uuid.UUID       `json:"id"`
	Product    catalog.Product `json:"product"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty"`
	Notes      string          `json:"notes"`
	Priority   int             `json:"priority"`
}

type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ItemUpdate struct {
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	Priority   *int       `json:"priority,omitempty"`
}

// Manager is not safe for concurrent use; all mutation happens on the
// command loop.
type Manager struct {
	session    *auth.Session
	store      *localstore.Store
	api        *api.Client
	items      []Item
	categories []Category

	// syncedUser keys SyncOnLogin off the user identifier changing,
	// so the merge runs once per login transition.
	syncedUser string
}

func NewManager(
	c context.Context,
	store *localstore.Store,
	apiClient *api.Client,
	session *auth.Session,
) *Manager {
	m := &Manager{session: session, store: store, api: apiClient}
	if err := m.Reload(c); err != nil {
		zerolog.Ctx(c).
			Error().
			Err(err).
			Str(log.KeyTag, "WishlistManager NewManager").
			Msg(err.Error())
	}
	return m
}

func (m *Manager) storageKey() string {
	if userID := m.session.UserID(); userID != "" {
		return "wishlist_" + userID
	}
	return constants.StorageKeyWishlistGuest
}

func (m *Manager) storage() Storage {
	if m.session.IsAuthenticated() {
		return remoteStorage{api: m.api}
	}
	return localStorage{store: m.store, key: m.storageKey()}
}

func (m *Manager) guestStorage() localStorage {
	return localStorage{store: m.store, key: constants.StorageKeyWishlistGuest}
}

// Items returns the current in-memory list.
func (m *Manager) Items() []Item {
	return slices.Clone(m.items)
}

func (m *Manager) Categories() []Category {
	return slices.Clone(m.categories)
}

// IsInWishlist is a plain scan; wishlists are small.
func (m *Manager) IsInWishlist(productID uuid.UUID) bool {
	return slices.ContainsFunc(m.items, func(item Item) bool {
		return item.Product.ID == productID
	})
}

// Reload refreshes the in-memory list from the current backend. When an
// authenticated read fails, the manager degrades to the guest local
// representation instead of erroring.
func (m *Manager) Reload(c context.Context) error {
	c, span := otel.Tracer.Start(c, "WishlistManager Reload")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistManager Reload").
		Bool("authenticated", m.session.IsAuthenticated()).
		Logger()

	items, err := m.storage().List(c)
	if err != nil {
		err = fmt.Errorf("failed reloading wishlist with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		if !m.session.IsAuthenticated() {
			m.items = nil
			return err
		}
		logger.Info().Msg("falling back to local guest wishlist")
		fallback, fallbackErr := m.guestStorage().List(c)
		if fallbackErr != nil {
			m.items = nil
			return err
		}
		m.items = fallback
		return nil
	}
	m.items = items

	if m.session.IsAuthenticated() {
		if err := m.reloadCategories(c); err != nil {
			logger.Error().Err(err).Msg(err.Error())
		}
	} else {
		m.categories = nil
	}
	return nil
}

func (m *Manager) reloadCategories(c context.Context) error {
	categories := []Category{}
	if err := m.api.Get(c, "/wishlist/categories", &categories); err != nil {
		return fmt.Errorf("failed reloading wishlist categories with error=%w", err)
	}
	m.categories = categories
	return nil
}

// mutate is the reusable optimistic-update helper: snapshot, apply the
// tentative state, attempt the storage operation, restore the snapshot
// on failure, reload from storage on success.
func (m *Manager) mutate(
	c context.Context,
	apply func(items []Item) []Item,
	op func(c context.Context, st Storage) error,
) error {
	snapshot := slices.Clone(m.items)
	m.items = apply(slices.Clone(snapshot))

	st := m.storage()
	if err := op(c, st); err != nil {
		m.items = snapshot
		return err
	}

	items, err := st.List(c)
	if err != nil {
		// The mutation committed; keep the optimistic state until the
		// next successful reload.
		return nil
	}
	m.items = items
	return nil
}

// Add appends the product. Adding a product already present is an
// idempotent no-op that issues no network call.
func (m *Manager) Add(
	c context.Context,
	product catalog.Product,
	categoryID *uuid.UUID,
	notes string,
	priority int,
) error {
	c, span := otel.Tracer.Start(c, "WishlistManager Add")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistManager Add").
		Str(log.KeyProductID, product.ID.String()).
		Logger()

	if m.IsInWishlist(product.ID) {
		logger.Info().Msg("product already in wishlist")
		return ErrAlreadyInWishlist
	}

	item := Item{Product: product, CategoryID: categoryID, Notes: notes, Priority: priority}
	err := m.mutate(c,
		func(items []Item) []Item { return append(items, item) },
		func(c context.Context, st Storage) error { return st.Add(c, item) },
	)
	if err != nil {
		err = fmt.Errorf("failed adding product to wishlist with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("added product to wishlist")
	return nil
}

// Remove deletes the product's entry; absent products are a no-op.
func (m *Manager) Remove(c context.Context, productID uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "WishlistManager Remove")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistManager Remove").
		Str(log.KeyProductID, productID.String()).
		Logger()

	i := slices.IndexFunc(m.items, func(item Item) bool {
		return item.Product.ID == productID
	})
	if i < 0 {
		logger.Info().Msg("product not in wishlist, nothing to remove")
		return nil
	}
	target := m.items[i]

	err := m.mutate(c,
		func(items []Item) []Item {
			return slices.DeleteFunc(items, func(item Item) bool {
				return item.Product.ID == productID
			})
		},
		func(c context.Context, st Storage) error { return st.Remove(c, target) },
	)
	if err != nil {
		err = fmt.Errorf("failed removing product from wishlist with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("removed product from wishlist")
	return nil
}

// Toggle removes the product if present, adds it otherwise.
func (m *Manager) Toggle(c context.Context, product catalog.Product, categoryID *uuid.UUID) error {
	if m.IsInWishlist(product.ID) {
		return m.Remove(c, product.ID)
	}
	return m.Add(c, product, categoryID, "", 0)
}

// UpdateItem edits notes, priority or category of a wishlist item.
// Authenticated-only: a guest gets a fail-fast error with no network
// call.
func (m *Manager) UpdateItem(c context.Context, itemID uuid.UUID, update ItemUpdate) error {
	c, span := otel.Tracer.Start(c, "WishlistManager UpdateItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistManager UpdateItem").
		Str(log.KeyWishlistItemID, itemID.String()).
		Logger()

	if !m.session.IsAuthenticated() {
		inErrors.HandleError(inErrors.ErrNotAuthenticated, span)
		logger.Error().
			Err(inErrors.ErrNotAuthenticated).
			Msg(inErrors.ErrNotAuthenticated.Error())
		return inErrors.ErrNotAuthenticated
	}

	if err := m.storage().Update(c, itemID, update); err != nil {
		err = fmt.Errorf("failed updating wishlistItemId=%s with error=%w", itemID.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("updated wishlist item")
	return m.Reload(c)
}

// Clear removes all items, or only those in categoryID when given.
func (m *Manager) Clear(c context.Context, categoryID *uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "WishlistManager Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistManager Clear").
		Logger()
	if categoryID != nil {
		logger = logger.With().Str(log.KeyCategoryID, categoryID.String()).Logger()
	}

	err := m.mutate(c,
		func(items []Item) []Item {
			if categoryID == nil {
				return nil
			}
			return slices.DeleteFunc(items, func(item Item) bool {
				return item.CategoryID != nil && *item.CategoryID == *categoryID
			})
		},
		func(c context.Context, st Storage) error { return st.Clear(c, categoryID) },
	)
	if err != nil {
		err = fmt.Errorf("failed clearing wishlist with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("cleared wishlist")
	return nil
}

// CreateCategory, UpdateCategory and DeleteCategory are
// authenticated-only and reload after every successful write. Deleting
// a category additionally reloads the item list, since the server
// reassigns affected items' category ids.
func (m *Manager) CreateCategory(c context.Context, name string) error {
	c, span := otel.Tracer.Start(c, "WishlistManager CreateCategory")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistManager CreateCategory").
		Logger()

	if !m.session.IsAuthenticated() {
		inErrors.HandleError(inErrors.ErrNotAuthenticated, span)
		logger.Error().
			Err(inErrors.ErrNotAuthenticated).
			Msg(inErrors.ErrNotAuthenticated.Error())
		return inErrors.ErrNotAuthenticated
	}

	body := map[string]string{"name": name}
	if err := m.api.Post(c, "/wishlist/categories", body, nil); err != nil {
		err = fmt.Errorf("failed creating wishlist category with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("created wishlist category")
	return m.reloadCategories(c)
}

func (m *Manager) UpdateCategory(c context.Context, categoryID uuid.UUID, name string) error {
	c, span := otel.Tracer.Start(c, "WishlistManager UpdateCategory")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistManager UpdateCategory").
		Str(log.KeyCategoryID, categoryID.String()).
		Logger()

	if !m.session.IsAuthenticated() {
		inErrors.HandleError(inErrors.ErrNotAuthenticated, span)
		logger.Error().
			Err(inErrors.ErrNotAuthenticated).
			Msg(inErrors.ErrNotAuthenticated.Error())
		return inErrors.ErrNotAuthenticated
	}

	body := map[string]string{"name": name}
	if err := m.api.Put(c, "/wishlist/categories/"+categoryID.String(), body, nil); err != nil {
		err = fmt.Errorf(
			"failed updating wishlist categoryId=%s with error=%w",
			categoryID.String(),
			err,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("updated wishlist category")
	return m.reloadCategories(c)
}

func (m *Manager) DeleteCategory(c context.Context, categoryID uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "WishlistManager DeleteCategory")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistManager DeleteCategory").
		Str(log.KeyCategoryID, categoryID.String()).
		Logger()

	if !m.session.IsAuthenticated() {
		inErrors.HandleError(inErrors.ErrNotAuthenticated, span)
		logger.Error().
			Err(inErrors.ErrNotAuthenticated).
			Msg(inErrors.ErrNotAuthenticated.Error())
		return inErrors.ErrNotAuthenticated
	}

	if err := m.api.Delete(c, "/wishlist/categories/"+categoryID.String(), nil); err != nil {
		err = fmt.Errorf(
			"failed deleting wishlist categoryId=%s with error=%w",
			categoryID.String(),
			err,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted wishlist category")

	if err := m.reloadCategories(c); err != nil {
		logger.Error().Err(err).Msg(err.Error())
	}
	// Item-category associations changed server-side.
	return m.Reload(c)
}

// SyncOnLogin merges the guest wishlist into the account: best effort,
// per-item failures swallowed, guest key deleted unconditionally, then
// a full reload. Returns the number of items attempted. Runs once per
// login transition.
func (m *Manager) SyncOnLogin(c context.Context) (int, error) {
	c, span := otel.Tracer.Start(c, "WishlistManager SyncOnLogin")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistManager SyncOnLogin").
		Logger()

	if !m.session.IsAuthenticated() {
		inErrors.HandleError(inErrors.ErrNotAuthenticated, span)
		logger.Error().
			Err(inErrors.ErrNotAuthenticated).
			Msg(inErrors.ErrNotAuthenticated.Error())
		return 0, inErrors.ErrNotAuthenticated
	}
	userID := m.session.UserID()
	if m.syncedUser == userID {
		logger.Info().Msg("guest wishlist already merged for this login")
		return 0, nil
	}
	m.syncedUser = userID

	guestItems, err := m.guestStorage().List(c)
	if err != nil {
		err = fmt.Errorf("failed reading guest wishlist with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		guestItems = nil
	}

	remote := remoteStorage{api: m.api}
	for _, item := range guestItems {
		if err := remote.Add(c, item); err != nil {
			// Best-effort merge: duplicates and transient failures are
			// swallowed per item.
			logger.Warn().
				Err(err).
				Str(log.KeyProductID, item.Product.ID.String()).
				Msg("failed merging guest wishlist item")
		}
	}

	if err := m.store.Delete(constants.StorageKeyWishlistGuest); err != nil {
		err = fmt.Errorf("failed deleting guest wishlist with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}

	logger.Info().Int(log.KeyItemCount, len(guestItems)).Msg("merged guest wishlist")
	return len(guestItems), m.Reload(c)
}
