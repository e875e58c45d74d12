// Package catalog exposes the storefront's read-mostly data: products,
// categories, banners, offers and public settings.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amorlias/storefront/internal/api"
	inErrors "github.com/amorlias/storefront/internal/errors"
	"github.com/amorlias/storefront/internal/log"
	"github.com/amorlias/storefront/internal/otel"
)

type Product struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	Slug                 string          `json:"slug"`
	Description          string          `json:"description"`
	SellingPrice         decimal.Decimal `json:"selling_price"`
	Mrp                  decimal.Decimal `json:"mrp"`
	WholesalePrice       decimal.Decimal `json:"wholesale_price"`
	WholesaleMinQuantity int             `json:"wholesale_min_quantity"`
	CategoryID           uuid.UUID       `json:"category_id"`
	Stock                int             `json:"stock"`
	Images               []string        `json:"images"`
}

type Category struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

type Banner struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	ImageURL string    `json:"image_url"`
	LinkURL  string    `json:"link_url"`
	Position int       `json:"position"`
	IsActive bool      `json:"is_active"`
}

// Offer is a coupon as the backend's offer list describes it. The
// client never owns offers, it only matches them by code.
type Offer struct {
	CouponCode    string           `json:"coupon_code"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	MinOrderValue decimal.Decimal  `json:"min_order_value"`
	EndDate       *time.Time       `json:"end_date,omitempty"`
	IsActive      bool             `json:"is_active"`
}

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

type Settings struct {
	StoreName    string `json:"store_name"`
	LogoURL      string `json:"logo_url"`
	SupportEmail string `json:"support_email"`
	SupportPhone string `json:"support_phone"`
	Announcement string `json:"announcement"`
}

var ErrOfferNotFound = fmt.Errorf("coupon code not found or inactive")

type Client struct {
	api *api.Client
}

func NewClient(apiClient *api.Client) Client {
	return Client{api: apiClient}
}

type ProductFilter struct {
	CategoryID string
	Search     string
	Page       string
	Limit      string
}

func (t Client) FindProducts(c context.Context, filter ProductFilter) ([]Product, error) {
	c, span := otel.Tracer.Start(c, "CatalogClient FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogClient FindProducts").
		Logger()

	path := api.Query("/products", map[string]string{
		"category_id": filter.CategoryID,
		"search":      filter.Search,
		"page":        filter.Page,
		"limit":       filter.Limit,
	})
	products := []Product{}
	if err := t.api.Get(c, path, &products); err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return products, nil
}

func (t Client) FindProductById(c context.Context, id uuid.UUID) (Product, error) {
	c, span := otel.Tracer.Start(c, "CatalogClient FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogClient FindProductById").
		Str(log.KeyProductID, id.String()).
		Logger()

	product := Product{}
	if err := t.api.Get(c, "/products/"+id.String(), &product); err != nil {
		err = fmt.Errorf("failed finding productId=%s with error=%w", id.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Product{}, err
	}
	return product, nil
}

func (t Client) FindCategories(c context.Context) ([]Category, error) {
	c, span := otel.Tracer.Start(c, "CatalogClient FindCategories")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogClient FindCategories").
		Logger()

	categories := []Category{}
	if err := t.api.Get(c, "/categories", &categories); err != nil {
		err = fmt.Errorf("failed finding categories with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return categories, nil
}

func (t Client) FindBanners(c context.Context) ([]Banner, error) {
	c, span := otel.Tracer.Start(c, "CatalogClient FindBanners")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogClient FindBanners").
		Logger()

	banners := []Banner{}
	if err := t.api.Get(c, "/banners", &banners); err != nil {
		err = fmt.Errorf("failed finding banners with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return banners, nil
}

func (t Client) FindOffers(c context.Context) ([]Offer, error) {
	c, span := otel.Tracer.Start(c, "CatalogClient FindOffers")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogClient FindOffers").
		Logger()

	offers := []Offer{}
	if err := t.api.Get(c, "/offers", &offers); err != nil {
		err = fmt.Errorf("failed finding offers with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return offers, nil
}

// FindActiveOfferByCode matches a coupon code against the active
// offers, the way the storefront applies coupons: fetch the full list,
// filter by is_active, match by exact code (case-insensitive).
func (t Client) FindActiveOfferByCode(c context.Context, code string) (Offer, error) {
	c, span := otel.Tracer.Start(c, "CatalogClient FindActiveOfferByCode")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogClient FindActiveOfferByCode").
		Str(log.KeyCouponCode, code).
		Logger()

	offers, err := t.FindOffers(c)
	if err != nil {
		return Offer{}, err
	}
	for _, offer := range offers {
		if !offer.IsActive {
			continue
		}
		if strings.EqualFold(offer.CouponCode, code) {
			return offer, nil
		}
	}
	logger.Info().Msgf("couponCode=%s not found among active offers", code)
	return Offer{}, ErrOfferNotFound
}

func (t Client) FindPublicSettings(c context.Context) (Settings, error) {
	c, span := otel.Tracer.Start(c, "CatalogClient FindPublicSettings")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogClient FindPublicSettings").
		Logger()

	settings := Settings{}
	if err := t.api.Get(c, "/settings/public", &settings); err != nil {
		err = fmt.Errorf("failed finding public settings with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Settings{}, err
	}
	return settings, nil
}

// BuildCategoryTree arranges the backend's flat category list into a
// tree. Categories whose parent is absent from the list become roots,
// input order is preserved.
func BuildCategoryTree(categories []Category) []*CategoryNode {
	nodes := make(map[uuid.UUID]*CategoryNode, len(categories))
	ordered := make([]*CategoryNode, 0, len(categories))
	for _, category := range categories {
		node := &CategoryNode{Category: category}
		nodes[category.ID] = node
		ordered = append(ordered, node)
	}

	roots := []*CategoryNode{}
	for _, node := range ordered {
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.ParentID]
		if !ok || parent == node {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}
