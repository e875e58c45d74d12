// Package checkout drives the checkout flow: the pure pricing engine,
// the pincode verification state machine, coupon application and the
// order-submission gate.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/amorlias/storefront/auth"
	"github.com/amorlias/storefront/cart"
	"github.com/amorlias/storefront/catalog"
	"github.com/amorlias/storefront/courier"
	inErrors "github.com/amorlias/storefront/internal/errors"
	"github.com/amorlias/storefront/internal/log"
	"github.com/amorlias/storefront/internal/otel"
	"github.com/amorlias/storefront/order"
)

var (
	ErrAddressIncomplete    = errors.New("address is incomplete")
	ErrPincodeUnverified    = errors.New("pincode verification has not completed yet")
	ErrPincodeUnserviceable = errors.New("delivery is not available for this pincode")
	ErrPincodeCheckFailed   = errors.New("pincode verification failed, please retry")
	ErrCodUnavailable       = errors.New("cash on delivery is not available for this pincode")
)

// VerificationState tracks the pincode lookup. Unknown ("not yet
// checked") is distinct from a resolved unserviceable result and from a
// failed lookup; the submission gate treats all three differently.
type VerificationState int

const (
	VerificationUnknown VerificationState = iota
	VerificationChecking
	VerificationResolved
	VerificationFailed
)

// Checkout is not safe for concurrent use; it models the single
// checkout form of the page it replaces.
type Checkout struct {
	cart    *cart.Manager
	catalog catalog.Client
	courier courier.Client
	orders  order.Client
	session *auth.Session
	policy  DeliveryPolicy
	gstRate decimal.Decimal

	Address       auth.Address
	PaymentMethod string

	pincode        string
	verification   VerificationState
	serviceability *courier.Serviceability

	appliedCoupon *catalog.Offer
}

func New(
	cartManager *cart.Manager,
	catalogClient catalog.Client,
	courierClient courier.Client,
	orderClient order.Client,
	session *auth.Session,
	policy DeliveryPolicy,
	gstRate decimal.Decimal,
) *Checkout {
	return &Checkout{
		cart:          cartManager,
		catalog:       catalogClient,
		courier:       courierClient,
		orders:        orderClient,
		session:       session,
		policy:        policy,
		gstRate:       gstRate,
		PaymentMethod: order.PaymentCashOnDelivery,
	}
}

// SetPincode applies a pincode edit and returns whether a lookup is now
// pending. Completing 6 digits arms exactly one lookup; shortening the
// field below 6 digits resets the result to unknown, never to
// unserviceable.
func (co *Checkout) SetPincode(c context.Context, pin string) bool {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Checkout SetPincode").
		Str(log.KeyPincode, pin).
		Logger()

	if pin == co.pincode {
		return co.verification == VerificationChecking
	}
	co.pincode = pin
	co.Address.Pincode = pin

	if !courier.IsCompletePincode(pin) {
		co.verification = VerificationUnknown
		co.serviceability = nil
		logger.Info().Msg("pincode incomplete, verification reset")
		return false
	}

	co.verification = VerificationChecking
	co.serviceability = nil
	logger.Info().Msg("pincode complete, verification pending")
	return true
}

// VerifyPincode runs the armed lookup. A transport error moves the
// machine to failed, which the gate reports distinctly from
// unserviceable.
func (co *Checkout) VerifyPincode(c context.Context) error {
	c, span := otel.Tracer.Start(c, "Checkout VerifyPincode")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Checkout VerifyPincode").
		Str(log.KeyPincode, co.pincode).
		Logger()

	if co.verification != VerificationChecking {
		logger.Info().Msg("no pincode verification pending")
		return nil
	}

	result, err := co.courier.CheckPincode(c, co.pincode)
	if err != nil {
		err = fmt.Errorf("failed verifying pincode=%s with error=%w", co.pincode, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		co.verification = VerificationFailed
		co.serviceability = nil
		return err
	}
	co.verification = VerificationResolved
	co.serviceability = &result
	logger.Info().Bool("serviceable", result.Serviceable).Msg("verified pincode")
	return nil
}

func (co *Checkout) Verification() (VerificationState, *courier.Serviceability) {
	return co.verification, co.serviceability
}

// ApplyCoupon matches the code against active offers and validates it
// against the current subtotal. On any rejection the applied coupon
// stays unset.
func (co *Checkout) ApplyCoupon(c context.Context, code string) error {
	c, span := otel.Tracer.Start(c, "Checkout ApplyCoupon")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Checkout ApplyCoupon").
		Str(log.KeyCouponCode, code).
		Logger()

	logger.Info().Msg("looking up coupon")
	offer, err := co.catalog.FindActiveOfferByCode(c, code)
	if err != nil {
		err = fmt.Errorf("failed looking up couponCode=%s with error=%w", code, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	if _, err := CouponDiscount(offer, co.cart.Subtotal(), time.Now()); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	co.appliedCoupon = &offer
	logger.Info().Msg("applied coupon")
	return nil
}

func (co *Checkout) RemoveCoupon() {
	co.appliedCoupon = nil
}

func (co *Checkout) AppliedCoupon() *catalog.Offer {
	return co.appliedCoupon
}

// Quote computes the current price breakdown. The coupon discount is
// recomputed against the live subtotal; a coupon the cart no longer
// qualifies for contributes zero.
func (co *Checkout) Quote() Quote {
	subtotal := co.cart.Subtotal()
	discount := decimal.Zero
	if co.appliedCoupon != nil {
		if d, err := CouponDiscount(*co.appliedCoupon, subtotal, time.Now()); err == nil {
			discount = d
		}
	}
	return ComputeQuote(
		subtotal,
		co.gstRate,
		co.serviceability,
		co.policy,
		co.session.IsWholesale(),
		discount,
	)
}

// validateSubmission is the order-submission gate. Every rejection here
// happens before any network call.
func (co *Checkout) validateSubmission(c context.Context) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, co.Address); err != nil {
		return fmt.Errorf("%w: %w", ErrAddressIncomplete, err)
	}

	switch co.verification {
	case VerificationUnknown, VerificationChecking:
		return ErrPincodeUnverified
	case VerificationFailed:
		return ErrPincodeCheckFailed
	case VerificationResolved:
		if !co.serviceability.Serviceable {
			return ErrPincodeUnserviceable
		}
		if co.PaymentMethod == order.PaymentCashOnDelivery && !co.serviceability.Cod {
			return ErrCodUnavailable
		}
	}
	return nil
}

// PlaceOrder gates submission, creates the order from the cart
// snapshot, and clears the cart on success.
func (co *Checkout) PlaceOrder(c context.Context) (order.Order, error) {
	c, span := otel.Tracer.Start(c, "Checkout PlaceOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Checkout PlaceOrder").
		Str(log.KeyPaymentMethod, co.PaymentMethod).
		Int(log.KeyItemCount, co.cart.ItemCount()).
		Logger()

	logger.Info().Msg("validating submission")
	if err := co.validateSubmission(c); err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}
	logger.Info().Msg("validated submission")

	items := []order.CreateOrderItem{}
	for _, item := range co.cart.Items() {
		items = append(items, order.CreateOrderItem{
			ProductID: item.Product.ID,
			Price:     item.Product.SellingPrice,
			Quantity:  item.Quantity,
		})
	}
	param := order.CreateOrderRequest{
		Items:         items,
		Address:       co.Address,
		PaymentMethod: co.PaymentMethod,
	}
	if co.appliedCoupon != nil {
		param.CouponCode = co.appliedCoupon.CouponCode
	}

	logger.Info().Msg("placing order")
	created, err := co.orders.Create(c, param)
	if err != nil {
		err = fmt.Errorf("failed placing order with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order.Order{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, created.ID.String()).Logger()
	logger.Info().Msg("placed order")

	co.cart.Clear(c)
	co.appliedCoupon = nil
	return created, nil
}
