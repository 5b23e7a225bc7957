package api

import (
	"net/http"
	"strings"

	"github.com/example/marketplace/internal/api/middleware"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/domain/user"
)

// NewRouter builds the full HTTP surface. Routes under /api/admin/ require
// the admin role, most others require an authenticated user; product,
// category, auction and ad listings are public.
func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, jwtService *auth.JWTService, webDir string) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.AuthMiddleware(jwtService)
	optional := middleware.OptionalAuthMiddleware(jwtService)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(user.RoleAdmin)(h))
	}
	merchantOnly := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(user.RoleMerchant, user.RoleAdmin)(h))
	}

	// Static files (web UI)
	if webDir != "" {
		fs := http.FileServer(http.Dir(webDir))
		mux.Handle("/", fs)
	}

	// Auth
	mux.HandleFunc("/api/auth/register", methodHandler(http.MethodPost, authHandlers.Register))
	mux.HandleFunc("/api/auth/login", methodHandler(http.MethodPost, authHandlers.Login))
	mux.Handle("/api/auth/logout", optional(methodHandler(http.MethodPost, authHandlers.Logout)))
	mux.HandleFunc("/api/auth/refresh", methodHandler(http.MethodPost, authHandlers.Refresh))
	mux.Handle("/api/auth/me", authed(methodHandler(http.MethodGet, authHandlers.Me)))
	mux.Handle("/api/auth/profile", authed(methodHandler(http.MethodPut, authHandlers.UpdateProfile)))
	mux.Handle("/api/auth/bank-details", merchantOnly(methodHandler(http.MethodPut, authHandlers.SetBankDetails)))
	mux.Handle("/api/auth/change-password", authed(methodHandler(http.MethodPost, authHandlers.ChangePassword)))
	mux.HandleFunc("/api/auth/verify-email", methodHandler(http.MethodPost, authHandlers.VerifyEmail))
	mux.Handle("/api/auth/become-merchant", authed(methodHandler(http.MethodPost, authHandlers.BecomeMerchant)))

	// Products
	mux.Handle("/api/products", optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProducts(w, r)
		case http.MethodPost:
			merchantOnly(handlers.CreateProduct).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/reviews") && r.Method == http.MethodPost:
			authed(http.HandlerFunc(handlers.ReviewProduct)).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			handlers.GetProduct(w, r)
		case r.Method == http.MethodPut:
			merchantOnly(handlers.UpdateProduct).ServeHTTP(w, r)
		case r.Method == http.MethodDelete:
			merchantOnly(handlers.DeleteProduct).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Categories
	mux.HandleFunc("/api/categories", methodHandler(http.MethodGet, handlers.GetCategories))
	mux.HandleFunc("/api/categories/", methodHandler(http.MethodGet, handlers.GetCategory))

	// Cart
	mux.Handle("/api/cart", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetCart(w, r)
		case http.MethodDelete:
			handlers.ClearCart(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/api/cart/items", authed(methodHandler(http.MethodPost, handlers.AddToCart)))

	mux.Handle("/api/cart/items/", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			handlers.SetCartQuantity(w, r)
		case http.MethodDelete:
			handlers.RemoveFromCart(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Checkout
	mux.Handle("/api/checkout", authed(methodHandler(http.MethodPost, handlers.Checkout)))
	mux.Handle("/api/checkout/auction", authed(methodHandler(http.MethodPost, handlers.CheckoutAuction)))

	// Orders
	mux.Handle("/api/orders", authed(methodHandler(http.MethodGet, handlers.GetOrders)))

	mux.Handle("/api/orders/", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/refund") && r.Method == http.MethodPost:
			handlers.RequestRefund(w, r)
		case r.Method == http.MethodGet:
			handlers.GetOrder(w, r)
		case r.Method == http.MethodPut:
			handlers.UpdateOrder(w, r)
		case r.Method == http.MethodDelete:
			handlers.DeleteOrder(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Auctions
	mux.Handle("/api/auctions", optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetAuctions(w, r)
		case http.MethodPost:
			merchantOnly(handlers.CreateAuction).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/api/auctions/", optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/bids") && r.Method == http.MethodGet:
			handlers.GetBids(w, r)
		case strings.HasSuffix(path, "/bids") && r.Method == http.MethodPost:
			authed(http.HandlerFunc(handlers.PlaceBid)).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			authed(http.HandlerFunc(handlers.CancelAuction)).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			handlers.GetAuction(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Advertisements
	mux.Handle("/api/ads", optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetLiveAds(w, r)
		case http.MethodPost:
			merchantOnly(handlers.CreateAd).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/api/ads/mine", merchantOnly(methodHandler(http.MethodGet, handlers.GetMyAds)))

	mux.Handle("/api/ads/", optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/confirm-payment") && r.Method == http.MethodPost:
			merchantOnly(handlers.ConfirmAdPayment).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Notifications
	mux.Handle("/api/notifications", authed(methodHandler(http.MethodGet, handlers.GetNotifications)))
	mux.Handle("/api/notifications/read-all", authed(methodHandler(http.MethodPost, handlers.MarkAllNotificationsRead)))
	mux.Handle("/api/notifications/", authed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/read") && r.Method == http.MethodPost {
			handlers.MarkNotificationRead(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})))

	// Admin
	mux.Handle("/api/admin/orders", adminOnly(handlers.GetAllOrders))
	mux.Handle("/api/admin/orders/refunds", adminOnly(handlers.GetPendingRefunds))
	mux.Handle("/api/admin/orders/", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/refund") && r.Method == http.MethodPost:
			handlers.CompleteRefund(w, r)
		case strings.HasSuffix(path, "/pay-merchant") && r.Method == http.MethodPost:
			handlers.PayMerchant(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.Handle("/api/admin/auctions", adminOnly(handlers.GetPendingAuctions))
	mux.Handle("/api/admin/auctions/", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/review") && r.Method == http.MethodPost {
			handlers.ReviewAuction(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}))
	mux.Handle("/api/admin/ads", adminOnly(handlers.GetPendingAds))
	mux.Handle("/api/admin/ads/", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/review") && r.Method == http.MethodPost {
			handlers.ReviewAd(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}))
	mux.Handle("/api/admin/products/", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/ban") && r.Method == http.MethodPost:
			handlers.BanProduct(w, r)
		case strings.HasSuffix(path, "/unban") && r.Method == http.MethodPost:
			handlers.UnbanProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.Handle("/api/admin/users", adminOnly(methodHandler(http.MethodGet, authHandlers.ListUsers)))
	mux.Handle("/api/admin/users/", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/ban") && r.Method == http.MethodPost:
			authHandlers.BanUser(w, r)
		case strings.HasSuffix(path, "/unban") && r.Method == http.MethodPost:
			authHandlers.UnbanUser(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.Handle("/api/admin/categories", adminOnly(methodHandler(http.MethodPost, handlers.CreateCategory)))
	mux.Handle("/api/admin/categories/", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			handlers.UpdateCategory(w, r)
		case http.MethodDelete:
			handlers.DeleteCategory(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	return withLogging(mux)
}

func methodHandler(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		println("[API]", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
