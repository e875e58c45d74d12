package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amorlias/storefront/auth"
	"github.com/amorlias/storefront/cart"
	"github.com/amorlias/storefront/catalog"
	"github.com/amorlias/storefront/courier"
	"github.com/amorlias/storefront/internal/api"
	"github.com/amorlias/storefront/internal/localstore"
	"github.com/amorlias/storefront/order"
)

func writeEnvelope(w http.ResponseWriter, statusCode int, data any) {
	raw, _ := json.Marshal(data)
	status := "success"
	if statusCode >= http.StatusBadRequest {
		status = "failed"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.Envelope{
		Status:     status,
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
		Data:       raw,
	})
}

const (
	pinServiceable   = "560001"
	pinNoCod         = "110011"
	pinUnserviceable = "999999"
	pinFailing       = "500500"
)

// checkoutBackend fakes the pincode, offer and order endpoints. The
// call counters make "no lookup armed" and "no create call when
// blocked" assertions possible.
type checkoutBackend struct {
	server       *httptest.Server
	offers       []catalog.Offer
	pincodeCalls int
	createCalls  int
}

func newCheckoutBackend(t *testing.T) *checkoutBackend {
	t.Helper()
	b := &checkoutBackend{}

	router := mux.NewRouter()
	router.HandleFunc("/api/couriers/pincode/{pincode}",
		func(w http.ResponseWriter, r *http.Request) {
			b.pincodeCalls++
			switch mux.Vars(r)["pincode"] {
			case pinServiceable:
				writeEnvelope(w, http.StatusOK, courier.Serviceability{
					Serviceable:    true,
					City:           "Bengaluru",
					State:          "Karnataka",
					DeliveryCharge: decimal.RequireFromString("30"),
					Cod:            true,
				})
			case pinNoCod:
				writeEnvelope(w, http.StatusOK, courier.Serviceability{
					Serviceable:    true,
					DeliveryCharge: decimal.Zero,
				})
			case pinUnserviceable:
				writeEnvelope(w, http.StatusOK, courier.Serviceability{Serviceable: false})
			default:
				writeEnvelope(w, http.StatusInternalServerError, nil)
			}
		}).Methods(http.MethodGet)

	router.HandleFunc("/api/offers", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, b.offers)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		b.createCalls++
		param := order.CreateOrderRequest{}
		if err := json.NewDecoder(r.Body).Decode(&param); err != nil {
			writeEnvelope(w, http.StatusBadRequest, nil)
			return
		}
		writeEnvelope(w, http.StatusCreated, order.Order{
			ID:            uuid.New(),
			Status:        order.StatusPending,
			PaymentMethod: param.PaymentMethod,
			CouponCode:    param.CouponCode,
		})
	}).Methods(http.MethodPost)

	b.server = httptest.NewServer(router)
	t.Cleanup(b.server.Close)
	return b
}

type checkoutFixture struct {
	backend  *checkoutBackend
	cart     *cart.Manager
	checkout *Checkout
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	backend := newCheckoutBackend(t)

	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	apiClient := api.New(backend.server.URL, 5*time.Second)
	session := auth.NewSession(store, apiClient)
	apiClient.SetTokenSource(session.Token)

	c := context.Background()
	cartManager := cart.NewManager(c, store)
	co := New(
		cartManager,
		catalog.NewClient(apiClient),
		courier.NewClient(apiClient),
		order.NewClient(apiClient),
		session,
		testPolicy(),
		dec("0.18"),
	)
	return &checkoutFixture{backend: backend, cart: cartManager, checkout: co}
}

func (f *checkoutFixture) fillCart(t *testing.T, price string, quantity int) {
	t.Helper()
	f.cart.AddItem(context.Background(), catalog.Product{
		ID:           uuid.New(),
		Name:         "test product",
		SellingPrice: dec(price),
	}, quantity)
}

func (f *checkoutFixture) fillAddress(pincode string) {
	f.checkout.Address = auth.Address{
		Name:    "Asha",
		Phone:   "9800000000",
		Line1:   "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: pincode,
	}
}

func (f *checkoutFixture) verifyPincode(t *testing.T, pincode string) {
	t.Helper()
	c := context.Background()
	require.True(t, f.checkout.SetPincode(c, pincode))
	require.NoError(t, f.checkout.VerifyPincode(c))
}

func TestPincodeStateMachine(t *testing.T) {
	c := context.Background()

	t.Run("completing 6 digits arms exactly one lookup", func(t *testing.T) {
		f := newCheckoutFixture(t)

		assert.True(t, f.checkout.SetPincode(c, pinServiceable))
		state, _ := f.checkout.Verification()
		assert.Equal(t, VerificationChecking, state)

		require.NoError(t, f.checkout.VerifyPincode(c))
		state, result := f.checkout.Verification()
		assert.Equal(t, VerificationResolved, state)
		require.NotNil(t, result)
		assert.True(t, result.Serviceable)
		assert.Equal(t, 1, f.backend.pincodeCalls)

		// Re-entering the same pincode arms nothing new.
		assert.False(t, f.checkout.SetPincode(c, pinServiceable))
		require.NoError(t, f.checkout.VerifyPincode(c))
		assert.Equal(t, 1, f.backend.pincodeCalls)
	})

	t.Run("shortening below 6 digits resets to unknown", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.verifyPincode(t, pinUnserviceable)

		assert.False(t, f.checkout.SetPincode(c, "99999"))
		state, result := f.checkout.Verification()
		assert.Equal(t, VerificationUnknown, state)
		assert.Nil(t, result)
	})

	t.Run("lookup failure moves to failed", func(t *testing.T) {
		f := newCheckoutFixture(t)

		require.True(t, f.checkout.SetPincode(c, pinFailing))
		assert.Error(t, f.checkout.VerifyPincode(c))
		state, result := f.checkout.Verification()
		assert.Equal(t, VerificationFailed, state)
		assert.Nil(t, result)
	})
}

func TestApplyCoupon(t *testing.T) {
	c := context.Background()
	maxDiscount := dec("100")

	newFixtureWithOffer := func(t *testing.T) *checkoutFixture {
		f := newCheckoutFixture(t)
		f.backend.offers = []catalog.Offer{{
			CouponCode:    "SAVE20",
			DiscountType:  catalog.DiscountTypePercentage,
			DiscountValue: dec("20"),
			MaxDiscount:   &maxDiscount,
			MinOrderValue: dec("500"),
			IsActive:      true,
		}}
		return f
	}

	t.Run("given qualifying cart should apply and discount the quote", func(t *testing.T) {
		f := newFixtureWithOffer(t)
		f.fillCart(t, "300", 2)

		require.NoError(t, f.checkout.ApplyCoupon(c, "save20"))
		require.NotNil(t, f.checkout.AppliedCoupon())

		quote := f.checkout.Quote()
		assert.True(t, dec("100").Equal(quote.Discount), "got=%s", quote.Discount)
	})

	t.Run("given subtotal below minimum should reject and leave coupon unset", func(t *testing.T) {
		f := newFixtureWithOffer(t)
		f.fillCart(t, "100", 1)

		err := f.checkout.ApplyCoupon(c, "SAVE20")
		assert.ErrorIs(t, err, ErrCouponMinOrderValue)
		assert.Nil(t, f.checkout.AppliedCoupon())
		assert.True(t, f.checkout.Quote().Discount.IsZero())
	})

	t.Run("given unknown code should reject", func(t *testing.T) {
		f := newFixtureWithOffer(t)
		f.fillCart(t, "600", 1)

		err := f.checkout.ApplyCoupon(c, "NOPE")
		assert.ErrorIs(t, err, catalog.ErrOfferNotFound)
	})

	t.Run("given cart shrinking after apply should recompute discount to zero", func(t *testing.T) {
		f := newFixtureWithOffer(t)
		f.fillCart(t, "600", 1)
		require.NoError(t, f.checkout.ApplyCoupon(c, "SAVE20"))

		f.cart.Clear(c)
		f.fillCart(t, "100", 1)
		assert.True(t, f.checkout.Quote().Discount.IsZero())
	})
}

func TestPlaceOrderGate(t *testing.T) {
	c := context.Background()

	tests := []struct {
		name        string
		setup       func(t *testing.T, f *checkoutFixture)
		expectedErr error
	}{
		{
			name: "given incomplete address should reject",
			setup: func(t *testing.T, f *checkoutFixture) {
				f.checkout.Address = auth.Address{Name: "Asha"}
			},
			expectedErr: ErrAddressIncomplete,
		},
		{
			name: "given unchecked pincode should reject as unverified",
			setup: func(t *testing.T, f *checkoutFixture) {
				f.fillAddress(pinServiceable)
			},
			expectedErr: ErrPincodeUnverified,
		},
		{
			name: "given pending verification should reject as unverified",
			setup: func(t *testing.T, f *checkoutFixture) {
				f.fillAddress(pinServiceable)
				require.True(t, f.checkout.SetPincode(c, pinServiceable))
			},
			expectedErr: ErrPincodeUnverified,
		},
		{
			name: "given failed verification should reject with its own message",
			setup: func(t *testing.T, f *checkoutFixture) {
				f.fillAddress(pinFailing)
				require.True(t, f.checkout.SetPincode(c, pinFailing))
				require.Error(t, f.checkout.VerifyPincode(c))
			},
			expectedErr: ErrPincodeCheckFailed,
		},
		{
			name: "given unserviceable pincode should reject",
			setup: func(t *testing.T, f *checkoutFixture) {
				f.fillAddress(pinUnserviceable)
				f.verifyPincode(t, pinUnserviceable)
			},
			expectedErr: ErrPincodeUnserviceable,
		},
		{
			name: "given cod order to a no-cod pincode should reject",
			setup: func(t *testing.T, f *checkoutFixture) {
				f.fillAddress(pinNoCod)
				f.verifyPincode(t, pinNoCod)
			},
			expectedErr: ErrCodUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture(t)
			f.fillCart(t, "250", 2)
			tt.setup(t, f)

			_, err := f.checkout.PlaceOrder(c)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Zero(t, f.backend.createCalls, "blocked submission must not create an order")
			assert.NotEmpty(t, f.cart.Items(), "blocked submission must not clear the cart")
		})
	}
}

func TestPlaceOrder(t *testing.T) {
	c := context.Background()

	t.Run("given valid cod submission should create and clear the cart", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.fillCart(t, "250", 2)
		f.fillAddress(pinServiceable)
		f.verifyPincode(t, pinServiceable)

		created, err := f.checkout.PlaceOrder(c)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, order.PaymentCashOnDelivery, created.PaymentMethod)
		assert.Equal(t, 1, f.backend.createCalls)
		assert.Empty(t, f.cart.Items())
		assert.Nil(t, f.checkout.AppliedCoupon())
	})

	t.Run("given online payment to a no-cod pincode should succeed", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.fillCart(t, "250", 2)
		f.fillAddress(pinNoCod)
		f.verifyPincode(t, pinNoCod)
		f.checkout.PaymentMethod = order.PaymentOnline

		created, err := f.checkout.PlaceOrder(c)
		require.NoError(t, err)
		assert.Equal(t, order.PaymentOnline, created.PaymentMethod)
	})

	t.Run("given applied coupon should forward its code", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.backend.offers = []catalog.Offer{{
			CouponCode:    "FLAT150",
			DiscountType:  catalog.DiscountTypeFixed,
			DiscountValue: dec("150"),
			IsActive:      true,
		}}
		f.fillCart(t, "600", 1)
		f.fillAddress(pinServiceable)
		f.verifyPincode(t, pinServiceable)
		require.NoError(t, f.checkout.ApplyCoupon(c, "FLAT150"))

		created, err := f.checkout.PlaceOrder(c)
		require.NoError(t, err)
		assert.Equal(t, "FLAT150", created.CouponCode)
	})
}

func TestQuoteUsesServiceabilityCharge(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t, "1000", 1)
	f.verifyPincode(t, pinServiceable)

	quote := f.checkout.Quote()
	// Above the free threshold, yet the resolved charge wins.
	assert.True(t, dec("30").Equal(quote.DeliveryFee), "got=%s", quote.DeliveryFee)
}
