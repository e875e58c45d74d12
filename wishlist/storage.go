package wishlist

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/amorlias/storefront/internal/api"
	inErrors "github.com/amorlias/storefront/internal/errors"
	"github.com/amorlias/storefront/internal/localstore"
)

// Storage is the tagged variant behind the wishlist's two backends:
// a local-storage snapshot for guests and the server-side copy for
// authenticated users. The manager selects the variant from session
// state; call sites never branch on mode.
type Storage interface {
	List(c context.Context) ([]Item, error)
	Add(c context.Context, item Item) error
	Remove(c context.Context, item Item) error
	Update(c context.Context, itemID uuid.UUID, update ItemUpdate) error
	Clear(c context.Context, categoryID *uuid.UUID) error
}

// localStorage keeps the whole wishlist as one snapshot under a
// per-identity key.
type localStorage struct {
	store *localstore.Store
	key   string
}

func (s localStorage) List(c context.Context) ([]Item, error) {
	items := []Item{}
	if _, err := s.store.Get(s.key, &items); err != nil {
		return nil, fmt.Errorf("failed reading wishlist key=%s with error=%w", s.key, err)
	}
	return items, nil
}

func (s localStorage) Add(c context.Context, item Item) error {
	items, err := s.List(c)
	if err != nil {
		return err
	}
	items = append(items, item)
	return s.store.Set(s.key, items)
}

func (s localStorage) Remove(c context.Context, item Item) error {
	items, err := s.List(c)
	if err != nil {
		return err
	}
	items = slices.DeleteFunc(items, func(existing Item) bool {
		return existing.Product.ID == item.Product.ID
	})
	return s.store.Set(s.key, items)
}

// Update is authenticated-only; the manager fails fast before reaching
// here. Kept as a guard.
func (s localStorage) Update(c context.Context, itemID uuid.UUID, update ItemUpdate) error {
	return inErrors.ErrNotAuthenticated
}

func (s localStorage) Clear(c context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return s.store.Set(s.key, []Item{})
	}
	items, err := s.List(c)
	if err != nil {
		return err
	}
	items = slices.DeleteFunc(items, func(existing Item) bool {
		return existing.CategoryID != nil && *existing.CategoryID == *categoryID
	})
	return s.store.Set(s.key, items)
}

// remoteStorage talks to the backend wishlist API. The server is
// authoritative; the manager reloads after every successful mutation.
type remoteStorage struct {
	api *api.Client
}

func (s remoteStorage) List(c context.Context) ([]Item, error) {
	items := []Item{}
	if err := s.api.Get(c, "/wishlist", &items); err != nil {
		return nil, fmt.Errorf("failed listing wishlist with error=%w", err)
	}
	return items, nil
}

type addItemRequest struct {
	ProductID  uuid.UUID  `json:"product_id"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Priority   int        `json:"priority,omitempty"`
}

func (s remoteStorage) Add(c context.Context, item Item) error {
	body := addItemRequest{
		ProductID:  item.Product.ID,
		CategoryID: item.CategoryID,
		Notes:      item.Notes,
		Priority:   item.Priority,
	}
	return s.api.Post(c, "/wishlist", body, nil)
}

func (s remoteStorage) Remove(c context.Context, item Item) error {
	return s.api.Delete(c, "/wishlist/"+item.ID.String(), nil)
}

func (s remoteStorage) Update(c context.Context, itemID uuid.UUID, update ItemUpdate) error {
	return s.api.Put(c, "/wishlist/"+itemID.String(), update, nil)
}

func (s remoteStorage) Clear(c context.Context, categoryID *uuid.UUID) error {
	path := "/wishlist"
	if categoryID != nil {
		path = api.Query(path, map[string]string{"category_id": categoryID.String()})
	}
	return s.api.Delete(c, path, nil)
}
