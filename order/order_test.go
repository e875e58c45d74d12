package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amorlias/storefront/auth"
	"github.com/amorlias/storefront/internal/api"
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

func testAddress() auth.Address {
	return auth.Address{
		Name:    "Asha",
		Phone:   "9800000000",
		Line1:   "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
	}
}

func TestCreateValidatesBeforeRequest(t *testing.T) {
	requests := 0
	router := mux.NewRouter()
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeEnvelope(w, http.StatusOK, Order{ID: uuid.New()})
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := NewClient(api.New(server.URL, 5*time.Second))
	c := context.Background()

	tests := []struct {
		name  string
		param CreateOrderRequest
	}{
		{
			name: "given no items should reject",
			param: CreateOrderRequest{
				Address:       testAddress(),
				PaymentMethod: PaymentCashOnDelivery,
			},
		},
		{
			name: "given zero quantity item should reject",
			param: CreateOrderRequest{
				Items:         []CreateOrderItem{{ProductID: uuid.New()}},
				Address:       testAddress(),
				PaymentMethod: PaymentCashOnDelivery,
			},
		},
		{
			name: "given incomplete address should reject",
			param: CreateOrderRequest{
				Items:         []CreateOrderItem{{ProductID: uuid.New(), Quantity: 1}},
				Address:       auth.Address{Name: "Asha"},
				PaymentMethod: PaymentCashOnDelivery,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Create(c, tt.param)
			assert.Error(t, err)
			assert.Zero(t, requests, "invalid request must not reach the backend")
		})
	}
}

func TestCancel(t *testing.T) {
	orderID := uuid.New()
	eligible := true
	reason := ""
	cancelCalls := 0

	router := mux.NewRouter()
	router.HandleFunc("/api/orders/{orderId}/cancel/eligibility",
		func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, Eligibility{Eligible: eligible, Reason: reason})
		}).Methods(http.MethodGet)
	router.HandleFunc("/api/orders/{orderId}/cancel",
		func(w http.ResponseWriter, r *http.Request) {
			cancelCalls++
			writeEnvelope(w, http.StatusOK, Order{ID: orderID, Status: StatusCancelled})
		}).Methods(http.MethodPost)
	server := httptest.NewServer(router)
	defer server.Close()

	client := NewClient(api.New(server.URL, 5*time.Second))
	c := context.Background()

	t.Run("given eligible order should cancel", func(t *testing.T) {
		cancelled, err := client.Cancel(c, orderID, "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, 1, cancelCalls)
	})

	t.Run("given ineligible order should defer to the backend reason", func(t *testing.T) {
		eligible = false
		reason = "order already shipped"
		cancelCalls = 0

		_, err := client.Cancel(c, orderID, "changed my mind")
		assert.ErrorIs(t, err, ErrNotEligible)
		assert.ErrorContains(t, err, "order already shipped")
		assert.Zero(t, cancelCalls, "ineligible order must not be cancelled")
	})
}

func TestCreateReturn(t *testing.T) {
	orderID := uuid.New()
	returnCalls := 0
	var gotReason, gotRefund string
	var gotFiles int

	router := mux.NewRouter()
	router.HandleFunc("/api/orders/{orderId}/return/eligibility",
		func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, Eligibility{Eligible: true})
		}).Methods(http.MethodGet)
	router.HandleFunc("/api/orders/{orderId}/return",
		func(w http.ResponseWriter, r *http.Request) {
			returnCalls++
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				writeEnvelope(w, http.StatusBadRequest, nil)
				return
			}
			gotReason = r.FormValue("reason")
			gotRefund = r.FormValue("refund_method")
			gotFiles = len(r.MultipartForm.File["evidence"])
			writeEnvelope(w, http.StatusOK, Order{ID: orderID, Status: StatusReturned})
		}).Methods(http.MethodPost)
	server := httptest.NewServer(router)
	defer server.Close()

	client := NewClient(api.New(server.URL, 5*time.Second))
	c := context.Background()

	t.Run("given too many evidence files should fail before any request", func(t *testing.T) {
		param := ReturnRequest{
			Reason:        ReturnReasonDamaged,
			RefundMethod:  RefundOriginalPayment,
			EvidencePaths: make([]string, MaxEvidenceFiles+1),
		}
		_, err := client.CreateReturn(c, orderID, param)
		assert.ErrorIs(t, err, ErrTooManyEvidenceFiles)
		assert.Zero(t, returnCalls)
	})

	t.Run("given unknown reason should fail validation", func(t *testing.T) {
		param := ReturnRequest{Reason: "whatever", RefundMethod: RefundStoreCredit}
		_, err := client.CreateReturn(c, orderID, param)
		assert.Error(t, err)
		assert.Zero(t, returnCalls)
	})

	t.Run("given valid return should upload evidence as multipart", func(t *testing.T) {
		evidence := filepath.Join(t.TempDir(), "damage.jpg")
		require.NoError(t, os.WriteFile(evidence, []byte("not really a jpg"), 0o644))

		param := ReturnRequest{
			Reason:        ReturnReasonDamaged,
			Comment:       "arrived crushed",
			RefundMethod:  RefundOriginalPayment,
			EvidencePaths: []string{evidence},
		}
		returned, err := client.CreateReturn(c, orderID, param)
		require.NoError(t, err)
		assert.Equal(t, StatusReturned, returned.Status)
		assert.Equal(t, ReturnReasonDamaged, gotReason)
		assert.Equal(t, RefundOriginalPayment, gotRefund)
		assert.Equal(t, 1, gotFiles)
	})
}

func TestFindMyOrders(t *testing.T) {
	orders := []Order{{ID: uuid.New(), Status: StatusDelivered}}

	router := mux.NewRouter()
	router.HandleFunc("/api/orders/my", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, orders)
	}).Methods(http.MethodGet)
	server := httptest.NewServer(router)
	defer server.Close()

	client := NewClient(api.New(server.URL, 5*time.Second))
	found, err := client.FindMyOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, orders[0].ID, found[0].ID)
}
