// Package order is the client for the backend order lifecycle API.
// Whether a cancellation or return is allowed is never decided here;
// the client defers to the eligibility endpoints and to the create
// call's own rejection.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amorlias/storefront/auth"
	"github.com/amorlias/storefront/internal/api"
	inErrors "github.com/amorlias/storefront/internal/errors"
	"github.com/amorlias/storefront/internal/log"
	"github.com/amorlias/storefront/internal/otel"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
	StatusReturned  = "returned"
)

const (
	PaymentCashOnDelivery = "cod"
	// Other payment methods are accepted client-side but the backend
	// routes them to cash-on-delivery fulfillment until a payment
	// gateway is integrated. Known limitation, not a bug.
	PaymentOnline = "online"
)

// MaxEvidenceFiles caps return-evidence uploads client-side.
const MaxEvidenceFiles = 5

var (
	ErrNotEligible          = errors.New("order is not eligible for this action")
	ErrTooManyEvidenceFiles = fmt.Errorf("at most %d evidence files are allowed", MaxEvidenceFiles)
)

type Item struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type Order struct {
	ID             uuid.UUID       `json:"id"`
	UserID         string          `json:"user_id"`
	Items          []Item          `json:"items"`
	Address        auth.Address    `json:"address"`
	PaymentMethod  string          `json:"payment_method"`
	Status         string          `json:"status"`
	TrackingNumber string          `json:"tracking_number"`
	CourierName    string          `json:"courier_name"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Gst            decimal.Decimal `json:"gst"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreateOrderItem struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"    validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Items         []CreateOrderItem `json:"items"          validate:"required,min=1,dive"`
	Address       auth.Address      `json:"address"        validate:"required"`
	PaymentMethod string            `json:"payment_method" validate:"required"`
	CouponCode    string            `json:"coupon_code,omitempty"`
}

type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
}

const (
	ReturnReasonDamaged        = "damaged"
	ReturnReasonWrongItem      = "wrong_item"
	ReturnReasonNotAsDescribed = "not_as_described"
	ReturnReasonQualityIssue   = "quality_issue"
	ReturnReasonOther          = "other"
)

const (
	RefundOriginalPayment = "original_payment"
	RefundStoreCredit     = "store_credit"
)

type ReturnRequest struct {
	Reason        string   `validate:"required,oneof=damaged wrong_item not_as_described quality_issue other"`
	Comment       string   `validate:"max=500"`
	RefundMethod  string   `validate:"required,oneof=original_payment store_credit"`
	EvidencePaths []string `validate:"max=5"`
}

type Client struct {
	api *api.Client
}

func NewClient(apiClient *api.Client) Client {
	return Client{api: apiClient}
}

func (t Client) Create(c context.Context, param CreateOrderRequest) (Order, error) {
	c, span := otel.Tracer.Start(c, "OrderClient Create")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderClient Create").
		Int(log.KeyItemCount, len(param.Items)).
		Str(log.KeyPaymentMethod, param.PaymentMethod).
		Logger()

	logger.Info().Msg("validating create order request")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, param); err != nil {
		err = fmt.Errorf("failed validating create order request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}

	logger.Info().Msg("creating order")
	created := Order{}
	if err := t.api.Post(c, "/orders", param, &created); err != nil {
		err = fmt.Errorf("failed creating order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	logger.Info().Str(log.KeyOrderID, created.ID.String()).Msg("created order")
	return created, nil
}

func (t Client) FindMyOrders(c context.Context) ([]Order, error) {
	c, span := otel.Tracer.Start(c, "OrderClient FindMyOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderClient FindMyOrders").
		Logger()

	orders := []Order{}
	if err := t.api.Get(c, "/orders/my", &orders); err != nil {
		err = fmt.Errorf("failed finding my orders with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return orders, nil
}

func (t Client) FindOrderById(c context.Context, id uuid.UUID) (Order, error) {
	c, span := otel.Tracer.Start(c, "OrderClient FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderClient FindOrderById").
		Str(log.KeyOrderID, id.String()).
		Logger()

	found := Order{}
	if err := t.api.Get(c, "/orders/"+id.String(), &found); err != nil {
		err = fmt.Errorf("failed finding orderId=%s with error=%w", id.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	return found, nil
}

// Cancel runs the eligibility pre-check and then the cancellation. The
// backend owns both decisions.
func (t Client) Cancel(c context.Context, id uuid.UUID, reason string) (Order, error) {
	c, span := otel.Tracer.Start(c, "OrderClient Cancel")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderClient Cancel").
		Str(log.KeyOrderID, id.String()).
		Logger()

	logger.Info().Msg("checking cancellation eligibility")
	eligibility := Eligibility{}
	if err := t.api.Get(c, "/orders/"+id.String()+"/cancel/eligibility", &eligibility); err != nil {
		err = fmt.Errorf("failed checking cancellation eligibility with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	if !eligibility.Eligible {
		err := fmt.Errorf("%w: %s", ErrNotEligible, eligibility.Reason)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	logger.Info().Msg("order is eligible for cancellation")

	logger.Info().Msg("cancelling order")
	body := map[string]string{"reason": reason}
	cancelled := Order{}
	if err := t.api.Post(c, "/orders/"+id.String()+"/cancel", body, &cancelled); err != nil {
		err = fmt.Errorf("failed cancelling orderId=%s with error=%w", id.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	logger.Info().Msg("cancelled order")
	return cancelled, nil
}

// CreateReturn runs the eligibility pre-check and submits the return
// with its evidence files as multipart form data.
func (t Client) CreateReturn(c context.Context, id uuid.UUID, param ReturnRequest) (Order, error) {
	c, span := otel.Tracer.Start(c, "OrderClient CreateReturn")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderClient CreateReturn").
		Str(log.KeyOrderID, id.String()).
		Logger()

	if len(param.EvidencePaths) > MaxEvidenceFiles {
		inErrors.HandleError(ErrTooManyEvidenceFiles, span)
		logger.Error().Err(ErrTooManyEvidenceFiles).Msg(ErrTooManyEvidenceFiles.Error())
		return Order{}, ErrTooManyEvidenceFiles
	}

	logger.Info().Msg("validating return request")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, param); err != nil {
		err = fmt.Errorf("failed validating return request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}

	logger.Info().Msg("checking return eligibility")
	eligibility := Eligibility{}
	if err := t.api.Get(c, "/orders/"+id.String()+"/return/eligibility", &eligibility); err != nil {
		err = fmt.Errorf("failed checking return eligibility with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	if !eligibility.Eligible {
		err := fmt.Errorf("%w: %s", ErrNotEligible, eligibility.Reason)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	logger.Info().Msg("order is eligible for return")

	logger.Info().Msg("creating return")
	fields := map[string]string{
		"reason":        param.Reason,
		"comment":       param.Comment,
		"refund_method": param.RefundMethod,
	}
	returned := Order{}
	err := t.api.PostMultipart(
		c,
		"/orders/"+id.String()+"/return",
		fields,
		"evidence",
		param.EvidencePaths,
		&returned,
	)
	if err != nil {
		err = fmt.Errorf("failed creating return for orderId=%s with error=%w", id.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Order{}, err
	}
	logger.Info().Msg("created return")
	return returned, nil
}

// Invoice fetches the generated invoice document as bytes for
// client-side download or print.
func (t Client) Invoice(c context.Context, id uuid.UUID) ([]byte, string, error) {
	c, span := otel.Tracer.Start(c, "OrderClient Invoice")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderClient Invoice").
		Str(log.KeyOrderID, id.String()).
		Logger()

	raw, contentType, err := t.api.Download(c, "/orders/"+id.String()+"/invoice")
	if err != nil {
		err = fmt.Errorf("failed fetching invoice for orderId=%s with error=%w", id.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, "", err
	}
	return raw, contentType, nil
}

func (t Client) ShippingLabel(c context.Context, id uuid.UUID) ([]byte, string, error) {
	c, span := otel.Tracer.Start(c, "OrderClient ShippingLabel")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderClient ShippingLabel").
		Str(log.KeyOrderID, id.String()).
		Logger()

	raw, contentType, err := t.api.Download(c, "/orders/"+id.String()+"/shipping-label")
	if err != nil {
		err = fmt.Errorf(
			"failed fetching shipping label for orderId=%s with error=%w",
			id.String(),
			err,
		)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, "", err
	}
	return raw, contentType, nil
}
