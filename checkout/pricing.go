package checkout

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amorlias/storefront/catalog"
	"github.com/amorlias/storefront/courier"
)

var (
	ErrCouponInactive      = errors.New("coupon is not active")
	ErrCouponMinOrderValue = errors.New("order subtotal is below the coupon minimum order value")
	ErrCouponExpired       = errors.New("coupon has expired")
)

var oneHundred = decimal.NewFromInt(100)

// DeliveryPolicy is the fallback fee schedule used when no pincode
// serviceability result is available. Both observed free-delivery
// thresholds are configuration, not literals.
type DeliveryPolicy struct {
	FreeAbove          decimal.Decimal
	WholesaleFreeAbove decimal.Decimal
	FlatFee            decimal.Decimal
}

type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Gst         decimal.Decimal `json:"gst"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// GstAmount is the tax on the subtotal at the configured rate.
func GstAmount(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate)
}

// ResolveDeliveryFee uses the serviceability result's charge verbatim
// when one is present, including zero. Otherwise the flat policy
// applies: free above the threshold for the current flow, else the
// flat fee.
func ResolveDeliveryFee(
	subtotal decimal.Decimal,
	serviceability *courier.Serviceability,
	policy DeliveryPolicy,
	wholesale bool,
) decimal.Decimal {
	if serviceability != nil {
		return serviceability.DeliveryCharge
	}
	threshold := policy.FreeAbove
	if wholesale {
		threshold = policy.WholesaleFreeAbove
	}
	if subtotal.GreaterThanOrEqual(threshold) {
		return decimal.Zero
	}
	return policy.FlatFee
}

// CouponDiscount validates the offer against the subtotal and returns
// the discount amount. Each rejection carries its specific reason, in
// validation order: active, minimum order value, expiry.
func CouponDiscount(
	offer catalog.Offer,
	subtotal decimal.Decimal,
	now time.Time,
) (decimal.Decimal, error) {
	if !offer.IsActive {
		return decimal.Zero, ErrCouponInactive
	}
	if subtotal.LessThan(offer.MinOrderValue) {
		return decimal.Zero, fmt.Errorf(
			"%w: minimum order value is %s",
			ErrCouponMinOrderValue,
			offer.MinOrderValue.String(),
		)
	}
	if offer.EndDate != nil && now.After(*offer.EndDate) {
		return decimal.Zero, ErrCouponExpired
	}

	switch offer.DiscountType {
	case catalog.DiscountTypePercentage:
		discount := subtotal.Mul(offer.DiscountValue).Div(oneHundred)
		if offer.MaxDiscount != nil && discount.GreaterThan(*offer.MaxDiscount) {
			discount = *offer.MaxDiscount
		}
		return discount, nil
	case catalog.DiscountTypeFixed:
		return offer.DiscountValue, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown discount type=%s", offer.DiscountType)
	}
}

// ComputeQuote assembles the full price breakdown. The grand total
// floors at zero and is never negative.
func ComputeQuote(
	subtotal decimal.Decimal,
	gstRate decimal.Decimal,
	serviceability *courier.Serviceability,
	policy DeliveryPolicy,
	wholesale bool,
	discount decimal.Decimal,
) Quote {
	gst := GstAmount(subtotal, gstRate)
	deliveryFee := ResolveDeliveryFee(subtotal, serviceability, policy, wholesale)
	total := subtotal.Add(gst).Add(deliveryFee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Quote{
		Subtotal:    subtotal,
		Gst:         gst,
		DeliveryFee: deliveryFee,
		Discount:    discount,
		Total:       total,
	}
}
