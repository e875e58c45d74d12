package catalog

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

func TestBuildCategoryTree(t *testing.T) {
	electronics := Category{ID: uuid.New(), Name: "Electronics"}
	phones := Category{ID: uuid.New(), Name: "Phones", ParentID: &electronics.ID}
	laptops := Category{ID: uuid.New(), Name: "Laptops", ParentID: &electronics.ID}
	grocery := Category{ID: uuid.New(), Name: "Grocery"}
	missingParent := uuid.New()
	orphan := Category{ID: uuid.New(), Name: "Orphan", ParentID: &missingParent}

	tests := []struct {
		name          string
		categories    []Category
		expectedRoots []string
		expectedTree  map[string][]string
	}{
		{
			name:          "given empty list should return no roots",
			categories:    nil,
			expectedRoots: []string{},
		},
		{
			name:          "given nested categories should attach children to parents",
			categories:    []Category{electronics, phones, grocery, laptops},
			expectedRoots: []string{"Electronics", "Grocery"},
			expectedTree: map[string][]string{
				"Electronics": {"Phones", "Laptops"},
			},
		},
		{
			name:          "given category with missing parent should become a root",
			categories:    []Category{electronics, orphan},
			expectedRoots: []string{"Electronics", "Orphan"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roots := BuildCategoryTree(tt.categories)

			names := []string{}
			for _, root := range roots {
				names = append(names, root.Name)
			}
			assert.ElementsMatch(t, tt.expectedRoots, names)

			for _, root := range roots {
				expected, ok := tt.expectedTree[root.Name]
				if !ok {
					assert.Empty(t, root.Children)
					continue
				}
				children := []string{}
				for _, child := range root.Children {
					children = append(children, child.Name)
				}
				assert.Equal(t, expected, children)
			}
		})
	}
}

func TestFindActiveOfferByCode(t *testing.T) {
	end := time.Now().Add(24 * time.Hour)
	offers := []Offer{
		{
			CouponCode:    "EXPIREDRUN",
			DiscountType:  DiscountTypeFixed,
			DiscountValue: decimal.RequireFromString("50"),
			IsActive:      false,
		},
		{
			CouponCode:    "SAVE20",
			DiscountType:  DiscountTypePercentage,
			DiscountValue: decimal.RequireFromString("20"),
			EndDate:       &end,
			IsActive:      true,
		},
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/offers", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, offers)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := NewClient(api.New(server.URL, 5*time.Second))
	c := context.Background()

	tests := []struct {
		name        string
		code        string
		expected    string
		expectedErr error
	}{
		{name: "given exact code should match", code: "SAVE20", expected: "SAVE20"},
		{name: "given lowercase code should match case-insensitively", code: "save20", expected: "SAVE20"},
		{name: "given inactive offer code should not match", code: "EXPIREDRUN", expectedErr: ErrOfferNotFound},
		{name: "given unknown code should not match", code: "NOPE", expectedErr: ErrOfferNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer, err := client.FindActiveOfferByCode(c, tt.code)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, offer.CouponCode)
		})
	}
}

func TestFindProducts(t *testing.T) {
	products := []Product{
		{
			ID:           uuid.New(),
			Name:         "basmati rice 5kg",
			SellingPrice: decimal.RequireFromString("499"),
			Stock:        12,
		},
	}

	router := mux.NewRouter()
	var gotQuery map[string][]string
	router.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		writeEnvelope(w, http.StatusOK, products)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := NewClient(api.New(server.URL, 5*time.Second))

	found, err := client.FindProducts(context.Background(), ProductFilter{
		Search: "rice",
		Page:   "2",
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, products[0].ID, found[0].ID)

	// Empty filter fields are skipped, set ones are forwarded.
	assert.Equal(t, []string{"rice"}, gotQuery["search"])
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	assert.NotContains(t, gotQuery, "category_id")
}
