package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/command"
	"github.com/example/marketplace/internal/domain/auction"
	"github.com/example/marketplace/internal/domain/inventory"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/domain/user"
	"github.com/example/marketplace/internal/infrastructure/store/mocks"
	"github.com/example/marketplace/internal/query"
	"github.com/example/marketplace/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"order not found", order.ErrOrderNotFound, http.StatusNotFound},
		{"product not found wrapped", fmt.Errorf("%w: prod-1", product.ErrProductNotFound), http.StatusNotFound},
		{"not order party", command.ErrNotOrderParty, http.StatusForbidden},
		{"not product owner", product.ErrNotOwner, http.StatusForbidden},
		{"deactivated account", user.ErrUserDeactivated, http.StatusForbidden},
		{"duplicate transaction ref", command.ErrDuplicateTransaction, http.StatusConflict},
		{"merchant dispatch only", command.ErrMerchantDispatchOnly, http.StatusBadRequest},
		{"invalid payment transition", fmt.Errorf("%w: Paid", order.ErrInvalidPayment), http.StatusBadRequest},
		{"insufficient stock", fmt.Errorf("%w: prod-1", inventory.ErrInsufficientStock), http.StatusBadRequest},
		{"total mismatch", command.ErrTotalMismatch, http.StatusBadRequest},
		{"missing gateway ref", order.ErrMissingChapaRef, http.StatusBadRequest},
		{"refund without payment ref", fmt.Errorf("%w: ord-1", command.ErrMissingRefundRef), http.StatusBadRequest},
		{"unknown error", fmt.Errorf("kafka is down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestStatusForAuctionError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForAuctionError(auction.ErrBidTooLow))
	assert.Equal(t, http.StatusBadRequest, statusForAuctionError(auction.ErrAlreadyEnded))
	assert.Equal(t, http.StatusForbidden, statusForAuctionError(auction.ErrNotOwner))
	// Falls through to the shared mapper.
	assert.Equal(t, http.StatusNotFound, statusForAuctionError(auction.ErrAuctionNotFound))
}

func newQueryOnlyHandlers() (*Handlers, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	return NewHandlers(nil, query.NewHandler(readStore)), readStore
}

func TestGetProductEndpoint(t *testing.T) {
	handlers, readStore := newQueryOnlyHandlers()
	readStore.SetData(readmodel.Products, "prod-1", &readmodel.ProductReadModel{
		ID: "prod-1", Name: "Coffee Beans", Price: 100,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/products/prod-1", nil)
	rec := httptest.NewRecorder()
	handlers.GetProduct(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coffee Beans")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestGetProductEndpointNotFound(t *testing.T) {
	handlers, _ := newQueryOnlyHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/products/missing", nil)
	rec := httptest.NewRecorder()
	handlers.GetProduct(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func newTestRouter(t *testing.T) (http.Handler, *auth.JWTService) {
	t.Helper()
	readStore := mocks.NewMockReadStore()
	queryHandler := query.NewHandler(readStore)
	jwtService := auth.NewJWTService("test-secret-which-is-long-enough!!", 15*time.Minute, 7*24*time.Hour)
	handlers := NewHandlers(nil, queryHandler)
	authHandlers := NewAuthHandlers(nil, jwtService, queryHandler, readStore)
	return NewRouter(handlers, authHandlers, jwtService, ""), jwtService
}

func bearer(t *testing.T, jwtService *auth.JWTService, userID, role string) string {
	t.Helper()
	token, _, err := jwtService.GenerateAccessToken(userID, userID+"@example.com", "Test User", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterRequiresAuthForOrders(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterAdminGate(t *testing.T) {
	router, jwtService := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", bearer(t, jwtService, "user-1", user.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", bearer(t, jwtService, "admin-1", user.RoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterPublicListings(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/api/products", "/api/auctions", "/api/ads", "/api/categories"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
