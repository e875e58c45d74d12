package checkout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/amorlias/storefront/catalog"
	"github.com/amorlias/storefront/courier"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testPolicy() DeliveryPolicy {
	return DeliveryPolicy{
		FreeAbove:          dec("499"),
		WholesaleFreeAbove: dec("1599"),
		FlatFee:            dec("40"),
	}
}

func TestResolveDeliveryFee(t *testing.T) {
	tests := []struct {
		name           string
		subtotal       decimal.Decimal
		serviceability *courier.Serviceability
		wholesale      bool
		expected       decimal.Decimal
	}{
		{
			name:     "given retail subtotal below threshold should charge flat fee",
			subtotal: dec("498.99"),
			expected: dec("40"),
		},
		{
			name:     "given retail subtotal at threshold should be free",
			subtotal: dec("499"),
			expected: decimal.Zero,
		},
		{
			name:      "given wholesale subtotal below wholesale threshold should charge flat fee",
			subtotal:  dec("1200"),
			wholesale: true,
			expected:  dec("40"),
		},
		{
			name:      "given wholesale subtotal at wholesale threshold should be free",
			subtotal:  dec("1599"),
			wholesale: true,
			expected:  decimal.Zero,
		},
		{
			name:           "given serviceability result should use its charge verbatim",
			subtotal:       dec("2000"),
			serviceability: &courier.Serviceability{Serviceable: true, DeliveryCharge: dec("75")},
			expected:       dec("75"),
		},
		{
			name:           "given serviceability result with zero charge should stay zero",
			subtotal:       dec("100"),
			serviceability: &courier.Serviceability{Serviceable: true, DeliveryCharge: decimal.Zero},
			expected:       decimal.Zero,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := ResolveDeliveryFee(tt.subtotal, tt.serviceability, testPolicy(), tt.wholesale)
			assert.True(t, tt.expected.Equal(fee), "expected=%s got=%s", tt.expected, fee)
		})
	}
}

func TestCouponDiscount(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)
	maxDiscount := dec("100")

	tests := []struct {
		name        string
		offer       catalog.Offer
		subtotal    decimal.Decimal
		expected    decimal.Decimal
		expectedErr error
	}{
		{
			name: "given inactive coupon should return inactive error",
			offer: catalog.Offer{
				CouponCode:   "SAVE20",
				DiscountType: catalog.DiscountTypePercentage,
			},
			subtotal:    dec("1000"),
			expectedErr: ErrCouponInactive,
		},
		{
			name: "given subtotal below minimum order value should return minimum error",
			offer: catalog.Offer{
				CouponCode:    "SAVE20",
				DiscountType:  catalog.DiscountTypePercentage,
				DiscountValue: dec("20"),
				MinOrderValue: dec("500"),
				IsActive:      true,
			},
			subtotal:    dec("499"),
			expectedErr: ErrCouponMinOrderValue,
		},
		{
			name: "given expired coupon should return expired error",
			offer: catalog.Offer{
				CouponCode:    "SAVE20",
				DiscountType:  catalog.DiscountTypePercentage,
				DiscountValue: dec("20"),
				EndDate:       &expired,
				IsActive:      true,
			},
			subtotal:    dec("1000"),
			expectedErr: ErrCouponExpired,
		},
		{
			name: "given percentage coupon above cap should cap at max discount",
			offer: catalog.Offer{
				CouponCode:    "SAVE20",
				DiscountType:  catalog.DiscountTypePercentage,
				DiscountValue: dec("20"),
				MaxDiscount:   &maxDiscount,
				EndDate:       &future,
				IsActive:      true,
			},
			subtotal: dec("1000"),
			expected: dec("100"),
		},
		{
			name: "given percentage coupon below cap should discount the percentage",
			offer: catalog.Offer{
				CouponCode:    "SAVE20",
				DiscountType:  catalog.DiscountTypePercentage,
				DiscountValue: dec("20"),
				MaxDiscount:   &maxDiscount,
				IsActive:      true,
			},
			subtotal: dec("400"),
			expected: dec("80"),
		},
		{
			name: "given fixed coupon should discount its value verbatim",
			offer: catalog.Offer{
				CouponCode:    "FLAT150",
				DiscountType:  catalog.DiscountTypeFixed,
				DiscountValue: dec("150"),
				IsActive:      true,
			},
			subtotal: dec("1000"),
			expected: dec("150"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discount, err := CouponDiscount(tt.offer, tt.subtotal, now)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.True(t, tt.expected.Equal(discount), "expected=%s got=%s", tt.expected, discount)
		})
	}
}

func TestCouponDiscountValidationOrder(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Hour)

	// An offer failing every check reports inactive first, then the
	// minimum order value, then expiry.
	offer := catalog.Offer{
		CouponCode:    "SAVE20",
		DiscountType:  catalog.DiscountTypePercentage,
		DiscountValue: dec("20"),
		MinOrderValue: dec("500"),
		EndDate:       &expired,
	}
	_, err := CouponDiscount(offer, dec("100"), now)
	assert.ErrorIs(t, err, ErrCouponInactive)

	offer.IsActive = true
	_, err = CouponDiscount(offer, dec("100"), now)
	assert.ErrorIs(t, err, ErrCouponMinOrderValue)

	_, err = CouponDiscount(offer, dec("500"), now)
	assert.ErrorIs(t, err, ErrCouponExpired)
}

func TestComputeQuote(t *testing.T) {
	gstRate := dec("0.18")

	t.Run("given retail cart below free delivery should include gst and flat fee", func(t *testing.T) {
		quote := ComputeQuote(dec("400"), gstRate, nil, testPolicy(), false, decimal.Zero)
		assert.True(t, dec("400").Equal(quote.Subtotal))
		assert.True(t, dec("72").Equal(quote.Gst), "got=%s", quote.Gst)
		assert.True(t, dec("40").Equal(quote.DeliveryFee))
		assert.True(t, dec("512").Equal(quote.Total), "got=%s", quote.Total)
	})

	t.Run("given discount larger than order should floor total at zero", func(t *testing.T) {
		quote := ComputeQuote(dec("100"), gstRate, nil, testPolicy(), false, dec("500"))
		assert.True(t, quote.Total.IsZero(), "got=%s", quote.Total)
	})

	t.Run("given serviceability charge should prefer it over policy", func(t *testing.T) {
		serviceability := &courier.Serviceability{Serviceable: true, DeliveryCharge: dec("90")}
		quote := ComputeQuote(dec("5000"), gstRate, serviceability, testPolicy(), true, decimal.Zero)
		assert.True(t, dec("90").Equal(quote.DeliveryFee))
	})
}
