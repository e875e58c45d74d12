// Package admin is the back-office client: the order console plus
// inventory, banner and settings management. Every decision stays
// server-side; this package only shapes requests.
package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amorlias/storefront/catalog"
	"github.com/amorlias/storefront/internal/api"
	inErrors "github.com/amorlias/storefront/internal/errors"
	"github.com/amorlias/storefront/internal/log"
	"github.com/amorlias/storefront/internal/otel"
	"github.com/amorlias/storefront/order"
)

type Client struct {
	api *api.Client
}

func NewClient(apiClient *api.Client) Client {
	return Client{api: apiClient}
}

type OrderFilter struct {
	Status string
	UserID string
	From   string
	To     string
	Page   string
	Limit  string
}

func (t Client) FindOrders(c context.Context, filter OrderFilter) ([]order.Order, error) {
	c, span := otel.Tracer.Start(c, "AdminClient FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AdminClient FindOrders").
		Logger()

	path := api.Query("/orders/all", map[string]string{
		"status":  filter.Status,
		"user_id": filter.UserID,
		"from":    filter.From,
		"to":      filter.To,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
	orders := []order.Order{}
	if err := t.api.Get(c, path, &orders); err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return orders, nil
}

type UpdateOrderStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	CourierName    string `json:"courier_name,omitempty"`
}

func (t Client) UpdateOrderStatus(
	c context.Context,
	id uuid.UUID,
	param UpdateOrderStatusRequest,
) (order.Order, error) {
	c, span := otel.Tracer.Start(c, "AdminClient UpdateOrderStatus")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AdminClient UpdateOrderStatus").
		Str(log.KeyOrderID, id.String()).
		Str(log.KeyOrderStatus, param.Status).
		Logger()

	logger.Info().Msg("updating order status")
	updated := order.Order{}
	if err := t.api.Patch(c, "/orders/"+id.String()+"/status", param, &updated); err != nil {
		err = fmt.Errorf(
			"failed updating status of orderId=%s with error=%w",
			id.String(),
			err,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}
	logger.Info().Msg("updated order status")
	return updated, nil
}

type UpdateInventoryRequest struct {
	Stock        *int             `json:"stock,omitempty"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	Mrp          *decimal.Decimal `json:"mrp,omitempty"`
}

func (t Client) UpdateInventory(
	c context.Context,
	productID uuid.UUID,
	param UpdateInventoryRequest,
) (catalog.Product, error) {
	c, span := otel.Tracer.Start(c, "AdminClient UpdateInventory")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AdminClient UpdateInventory").
		Str(log.KeyProductID, productID.String()).
		Logger()

	logger.Info().Msg("updating inventory")
	updated := catalog.Product{}
	if err := t.api.Patch(c, "/products/"+productID.String(), param, &updated); err != nil {
		err = fmt.Errorf(
			"failed updating inventory of productId=%s with error=%w",
			productID.String(),
			err,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return catalog.Product{}, err
	}
	logger.Info().Msg("updated inventory")
	return updated, nil
}

func (t Client) UpsertBanner(c context.Context, banner catalog.Banner) (catalog.Banner, error) {
	c, span := otel.Tracer.Start(c, "AdminClient UpsertBanner")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AdminClient UpsertBanner").
		Logger()

	logger.Info().Msg("upserting banner")
	saved := catalog.Banner{}
	if err := t.api.Post(c, "/banners", banner, &saved); err != nil {
		err = fmt.Errorf("failed upserting banner with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return catalog.Banner{}, err
	}
	logger.Info().Msg("upserted banner")
	return saved, nil
}

func (t Client) DeleteBanner(c context.Context, id uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "AdminClient DeleteBanner")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AdminClient DeleteBanner").
		Logger()

	logger.Info().Msg("deleting banner")
	if err := t.api.Delete(c, "/banners/"+id.String(), nil); err != nil {
		err = fmt.Errorf("failed deleting bannerId=%s with error=%w", id.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted banner")
	return nil
}

func (t Client) UpdateSettings(
	c context.Context,
	settings catalog.Settings,
) (catalog.Settings, error) {
	c, span := otel.Tracer.Start(c, "AdminClient UpdateSettings")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AdminClient UpdateSettings").
		Logger()

	logger.Info().Msg("updating settings")
	updated := catalog.Settings{}
	if err := t.api.Put(c, "/settings", settings, &updated); err != nil {
		err = fmt.Errorf("failed updating settings with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return catalog.Settings{}, err
	}
	logger.Info().Msg("updated settings")
	return updated, nil
}
