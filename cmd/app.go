package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amorlias/storefront/admin"
	"github.com/amorlias/storefront/auth"
	"github.com/amorlias/storefront/cart"
	"github.com/amorlias/storefront/catalog"
	"github.com/amorlias/storefront/checkout"
	"github.com/amorlias/storefront/courier"
	"github.com/amorlias/storefront/internal/api"
	"github.com/amorlias/storefront/internal/config"
	"github.com/amorlias/storefront/internal/localstore"
	"github.com/amorlias/storefront/internal/log"
	"github.com/amorlias/storefront/order"
	"github.com/amorlias/storefront/wishlist"
)

// App wires the managers together once at startup. Views receive them
// as dependencies; there are no ambient singletons.
type App struct {
	Config   *config.Config
	Store    *localstore.Store
	Session  *auth.Session
	Cart     *cart.Manager
	Wishlist *wishlist.Manager
	Catalog  catalog.Client
	Courier  courier.Client
	Orders   order.Client
	Admin    admin.Client
	Checkout *checkout.Checkout
}

func newApp(c context.Context, cfg *config.Config) (*App, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main newApp").
		Logger()

	logger.Info().Str(log.KeyProcess, "init localstore").Msg("initializing localstore")
	store, err := localstore.New(cfg.Application.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed initializing localstore with error=%w", err)
	}
	logger.Info().Str(log.KeyProcess, "init localstore").Msg("initialized localstore")

	apiClient := api.New(cfg.API.BaseURL, time.Duration(cfg.API.Timeout)*time.Second)
	session := auth.NewSession(store, apiClient)
	apiClient.SetTokenSource(session.Token)

	logger.Info().Str(log.KeyProcess, "restore session").Msg("restoring session")
	if err := session.Restore(c); err != nil {
		// A stale token already tore itself down; carry on as guest.
		logger.Error().Err(err).Msg(err.Error())
	}
	logger.Info().
		Str(log.KeyProcess, "restore session").
		Bool("authenticated", session.IsAuthenticated()).
		Msg("restored session")

	policy, gstRate, err := pricingConfig(cfg)
	if err != nil {
		return nil, err
	}

	cartManager := cart.NewManager(c, store)
	wishlistManager := wishlist.NewManager(c, store, apiClient, session)
	catalogClient := catalog.NewClient(apiClient)
	courierClient := courier.NewClient(apiClient)
	orderClient := order.NewClient(apiClient)

	return &App{
		Config:   cfg,
		Store:    store,
		Session:  session,
		Cart:     cartManager,
		Wishlist: wishlistManager,
		Catalog:  catalogClient,
		Courier:  courierClient,
		Orders:   orderClient,
		Admin:    admin.NewClient(apiClient),
		Checkout: checkout.New(
			cartManager,
			catalogClient,
			courierClient,
			orderClient,
			session,
			policy,
			gstRate,
		),
	}, nil
}

func pricingConfig(cfg *config.Config) (checkout.DeliveryPolicy, decimal.Decimal, error) {
	freeAbove, err := decimal.NewFromString(cfg.Delivery.FreeAbove)
	if err != nil {
		return checkout.DeliveryPolicy{}, decimal.Zero,
			fmt.Errorf("failed parsing delivery.free_above with error=%w", err)
	}
	wholesaleFreeAbove, err := decimal.NewFromString(cfg.Delivery.WholesaleFreeAbove)
	if err != nil {
		return checkout.DeliveryPolicy{}, decimal.Zero,
			fmt.Errorf("failed parsing delivery.wholesale_free_above with error=%w", err)
	}
	flatFee, err := decimal.NewFromString(cfg.Delivery.FlatFee)
	if err != nil {
		return checkout.DeliveryPolicy{}, decimal.Zero,
			fmt.Errorf("failed parsing delivery.flat_fee with error=%w", err)
	}
	gstRate, err := decimal.NewFromString(cfg.Tax.GstRate)
	if err != nil {
		return checkout.DeliveryPolicy{}, decimal.Zero,
			fmt.Errorf("failed parsing tax.gst_rate with error=%w", err)
	}
	return checkout.DeliveryPolicy{
		FreeAbove:          freeAbove,
		WholesaleFreeAbove: wholesaleFreeAbove,
		FlatFee:            flatFee,
	}, gstRate, nil
}
