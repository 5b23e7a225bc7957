package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/example/marketplace/internal/api/middleware"
	"github.com/example/marketplace/internal/command"
	"github.com/example/marketplace/internal/domain/ad"
	"github.com/example/marketplace/internal/domain/auction"
	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/domain/category"
	"github.com/example/marketplace/internal/domain/inventory"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/domain/user"
	"github.com/example/marketplace/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// statusForError maps domain errors onto the HTTP error taxonomy: 400 for
// validation and transition errors, 403 for entitlement, 404 for missing
// entities, 409 for idempotency conflicts, 500 otherwise.
func statusForError(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, auction.ErrAuctionNotFound),
		errors.Is(err, ad.ErrAdNotFound),
		errors.Is(err, category.ErrCategoryNotFound),
		errors.Is(err, cart.ErrItemNotInCart):
		return http.StatusNotFound
	case errors.Is(err, command.ErrNotOrderParty),
		errors.Is(err, command.ErrNotAuctionWinner),
		errors.Is(err, command.ErrAccountInactive),
		errors.Is(err, product.ErrNotOwner),
		errors.Is(err, auction.ErrNotOwner),
		errors.Is(err, user.ErrUserDeactivated),
		errors.Is(err, user.ErrEmailNotVerified):
		return http.StatusForbidden
	case errors.Is(err, command.ErrDuplicateTransaction):
		return http.StatusConflict
	case errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidPayment),
		errors.Is(err, order.ErrAlreadyDispatched),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrMixedOrder),
		errors.Is(err, order.ErrInvalidLine),
		errors.Is(err, order.ErrInvalidTotal),
		errors.Is(err, order.ErrInvalidDeliveryMode),
		errors.Is(err, order.ErrMissingTransactionRef),
		errors.Is(err, order.ErrMissingChapaRef),
		errors.Is(err, order.ErrMissingRefundReason),
		errors.Is(err, order.ErrNotPending),
		errors.Is(err, command.ErrInvalidStatusUpdate),
		errors.Is(err, command.ErrMerchantDispatchOnly),
		errors.Is(err, command.ErrInvalidCoordinates),
		errors.Is(err, command.ErrTotalMismatch),
		errors.Is(err, command.ErrMerchantNotPayable),
		errors.Is(err, command.ErrAuctionNotSettled),
		errors.Is(err, command.ErrNothingToUpdate),
		errors.Is(err, command.ErrMissingRefundRef),
		errors.Is(err, product.ErrProductBanned),
		errors.Is(err, product.ErrInvalidOfferPrice),
		errors.Is(err, product.ErrInvalidRating),
		errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, err error) {
	respondJSONError(w, err.Error(), statusForError(err))
}

// Product handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.MerchantID = middleware.GetUserID(r.Context())

	p, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	if categoryID := r.URL.Query().Get("category"); categoryID != "" {
		respondJSON(w, http.StatusOK, h.queryHandler.ListProductsByCategory(categoryID))
		return
	}
	if merchantID := r.URL.Query().Get("merchant"); merchantID != "" {
		respondJSON(w, http.StatusOK, h.queryHandler.ListProductsByMerchant(merchantID))
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListProducts())
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")
	p, ok := h.queryHandler.GetProduct(id)
	if !ok {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	var cmd command.UpdateProduct
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.ProductID = id
	cmd.MerchantID = middleware.GetUserID(r.Context())

	p, err := h.cmdHandler.UpdateProduct(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeleteProduct{
		ProductID:  extractPathParam(r.URL.Path, "/api/products/"),
		MerchantID: middleware.GetUserID(r.Context()),
	}
	if err := h.cmdHandler.DeleteProduct(r.Context(), cmd); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (h *Handlers) ReviewProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/products/"), "/reviews")

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.cmdHandler.ReviewProduct(r.Context(), command.ReviewProduct{
		ProductID: id,
		UserID:    middleware.GetUserID(r.Context()),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "Review added"})
}

// Admin product handlers

func (h *Handlers) BanProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/admin/products/"), "/ban")

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.cmdHandler.BanProduct(r.Context(), command.BanProduct{ProductID: id, Reason: req.Reason}); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product banned"})
}

func (h *Handlers) UnbanProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/admin/products/"), "/unban")

	if err := h.cmdHandler.UnbanProduct(r.Context(), command.UnbanProduct{ProductID: id}); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product unbanned"})
}

// Cart handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.GetCart(middleware.GetUserID(r.Context())))
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.AddToCart{
		UserID:    middleware.GetUserID(r.Context()),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}
	if err := h.cmdHandler.AddToCart(r.Context(), cmd); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/api/cart/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.SetCartQuantity{
		UserID:    middleware.GetUserID(r.Context()),
		ProductID: productID,
		Quantity:  req.Quantity,
	}
	if err := h.cmdHandler.SetCartQuantity(r.Context(), cmd); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveFromCart{
		UserID:    middleware.GetUserID(r.Context()),
		ProductID: extractPathParam(r.URL.Path, "/api/cart/items/"),
	}
	if err := h.cmdHandler.RemoveFromCart(r.Context(), cmd); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.ClearCart{UserID: middleware.GetUserID(r.Context())}
	if err := h.cmdHandler.ClearCart(r.Context(), cmd); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Order handlers

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var cmd command.Checkout
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.CustomerID = middleware.GetUserID(r.Context())

	o, err := h.cmdHandler.Checkout(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"message": "Order placed", "order": o})
}

func (h *Handlers) CheckoutAuction(w http.ResponseWriter, r *http.Request) {
	var cmd command.CheckoutAuction
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.CustomerID = middleware.GetUserID(r.Context())

	o, err := h.cmdHandler.CheckoutAuction(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"message": "Order placed", "order": o})
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if r.URL.Query().Get("as") == "seller" {
		respondJSON(w, http.StatusOK, h.queryHandler.ListOrdersByMerchant(userID))
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListOrdersByCustomer(userID))
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/orders/")
	o, ok := h.queryHandler.GetOrder(id)
	if !ok {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if o.CustomerID != userID && o.MerchantID != userID && !isAdmin(r) {
		respondJSONError(w, "Forbidden", http.StatusForbidden)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/orders/")

	var cmd command.UpdateOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.OrderID = id
	cmd.ActorID = middleware.GetUserID(r.Context())

	o, err := h.cmdHandler.UpdateOrder(r.Context(), cmd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Order updated", "order": o})
}

func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeleteOrder{
		OrderID: extractPathParam(r.URL.Path, "/api/orders/"),
		ActorID: middleware.GetUserID(r.Context()),
	}
	if err := h.cmdHandler.DeleteOrder(r.Context(), cmd); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order deleted"})
}

func (h *Handlers) RequestRefund(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/orders/"), "/refund")

	var req struct {
		Reason      string `json:"reason"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.cmdHandler.RequestRefund(r.Context(), command.RequestRefund{
		OrderID:     id,
		ActorID:     middleware.GetUserID(r.Context()),
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Refund requested", "order": o})
}

// Admin order handlers

func (h *Handlers) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListAllOrders())
}

func (h *Handlers) GetPendingRefunds(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListPendingRefunds())
}

func (h *Handlers) CompleteRefund(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/admin/orders/"), "/refund")

	o, err := h.cmdHandler.CompleteRefund(r.Context(), command.CompleteRefund{OrderID: id})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Refund completed", "order": o})
}

func (h *Handlers) PayMerchant(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/admin/orders/"), "/pay-merchant")

	o, err := h.cmdHandler.PayMerchant(r.Context(), command.PayMerchant{OrderID: id})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Merchant paid", "order": o})
}

// Notification handlers

func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListNotifications(middleware.GetUserID(r.Context())))
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/notifications/"), "/read")
	if !h.queryHandler.MarkNotificationRead(middleware.GetUserID(r.Context()), id) {
		respondJSONError(w, "Notification not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	marked := h.queryHandler.MarkAllNotificationsRead(middleware.GetUserID(r.Context()))
	respondJSON(w, http.StatusOK, map[string]int{"marked": marked})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

// isAdmin checks if the current user has admin role
func isAdmin(r *http.Request) bool {
	return middleware.GetUserRole(r.Context()) == user.RoleAdmin
}

// nowUTC is split out so handlers that filter by schedule share one clock.
func nowUTC() time.Time {
	return time.Now().UTC()
}
