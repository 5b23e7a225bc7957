package query

import (
	"sort"
	"time"

	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/example/marketplace/internal/readmodel"
)

// Handler serves reads from the projected models. It never touches the
// event store.
type Handler struct {
	readStore store.ReadStoreInterface
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{readStore: readStore}
}

// Products

func (h *Handler) GetProduct(id string) (*readmodel.ProductReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Products, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.ProductReadModel), true
}

// ListProducts returns the storefront listing; banned products are hidden.
func (h *Handler) ListProducts() []*readmodel.ProductReadModel {
	items := h.readStore.GetAll(readmodel.Products)
	products := make([]*readmodel.ProductReadModel, 0, len(items))
	for _, item := range items {
		p := item.(*readmodel.ProductReadModel)
		if p.Banned {
			continue
		}
		products = append(products, p)
	}
	return products
}

func (h *Handler) ListProductsByCategory(categoryID string) []*readmodel.ProductReadModel {
	products := make([]*readmodel.ProductReadModel, 0)
	for _, p := range h.ListProducts() {
		if p.CategoryID == categoryID {
			products = append(products, p)
		}
	}
	return products
}

// ListProductsByMerchant includes banned products so merchants can see the
// state of their own catalogue.
func (h *Handler) ListProductsByMerchant(merchantID string) []*readmodel.ProductReadModel {
	products := make([]*readmodel.ProductReadModel, 0)
	for _, item := range h.readStore.GetAll(readmodel.Products) {
		p := item.(*readmodel.ProductReadModel)
		if p.MerchantID == merchantID {
			products = append(products, p)
		}
	}
	return products
}

// Inventory

func (h *Handler) GetInventory(productID string) (*readmodel.InventoryReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Inventory, productID)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.InventoryReadModel), true
}

// Cart

func (h *Handler) GetCart(userID string) *readmodel.CartReadModel {
	cartID := cart.GetCartID(userID)
	data, ok := h.readStore.Get(readmodel.Carts, cartID)
	if !ok {
		return &readmodel.CartReadModel{
			ID:     cartID,
			UserID: userID,
			Items:  []readmodel.CartItemReadModel{},
		}
	}
	return data.(*readmodel.CartReadModel)
}

// Orders

func (h *Handler) GetOrder(id string) (*readmodel.OrderReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Orders, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.OrderReadModel), true
}

func (h *Handler) listOrders(keep func(*readmodel.OrderReadModel) bool) []*readmodel.OrderReadModel {
	items := h.readStore.GetAll(readmodel.Orders)
	orders := make([]*readmodel.OrderReadModel, 0, len(items))
	for _, item := range items {
		o := item.(*readmodel.OrderReadModel)
		if keep == nil || keep(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (h *Handler) ListOrdersByCustomer(customerID string) []*readmodel.OrderReadModel {
	return h.listOrders(func(o *readmodel.OrderReadModel) bool {
		return o.CustomerID == customerID
	})
}

func (h *Handler) ListOrdersByMerchant(merchantID string) []*readmodel.OrderReadModel {
	return h.listOrders(func(o *readmodel.OrderReadModel) bool {
		return o.MerchantID == merchantID
	})
}

// ListAllOrders returns all orders (for admin use)
func (h *Handler) ListAllOrders() []*readmodel.OrderReadModel {
	return h.listOrders(nil)
}

// ListPendingRefunds returns orders waiting for an admin refund decision.
func (h *Handler) ListPendingRefunds() []*readmodel.OrderReadModel {
	return h.listOrders(func(o *readmodel.OrderReadModel) bool {
		return o.PaymentStatus == "Pending Refund"
	})
}

// Users

func (h *Handler) GetUser(id string) (*readmodel.UserReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Users, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.UserReadModel), true
}

// GetUserByEmail scans the users collection; email is the login key but
// user IDs key the collection.
func (h *Handler) GetUserByEmail(email string) (*readmodel.UserReadModel, bool) {
	for _, item := range h.readStore.GetAll(readmodel.Users) {
		u := item.(*readmodel.UserReadModel)
		if u.Email == email {
			return u, true
		}
	}
	return nil, false
}

// ListUsers returns every account; admin surface only.
func (h *Handler) ListUsers() []*readmodel.UserReadModel {
	items := h.readStore.GetAll(readmodel.Users)
	users := make([]*readmodel.UserReadModel, 0, len(items))
	for _, item := range items {
		users = append(users, item.(*readmodel.UserReadModel))
	}
	return users
}

// Categories

func (h *Handler) GetCategory(id string) (*readmodel.CategoryReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Categories, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.CategoryReadModel), true
}

func (h *Handler) ListCategories() []*readmodel.CategoryReadModel {
	items := h.readStore.GetAll(readmodel.Categories)
	categories := make([]*readmodel.CategoryReadModel, 0, len(items))
	for _, item := range items {
		categories = append(categories, item.(*readmodel.CategoryReadModel))
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories
}

// Auctions

func (h *Handler) GetAuction(id string) (*readmodel.AuctionReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Auctions, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.AuctionReadModel), true
}

// ListAuctions returns auctions, optionally filtered by status ("" for all).
func (h *Handler) ListAuctions(status string) []*readmodel.AuctionReadModel {
	items := h.readStore.GetAll(readmodel.Auctions)
	auctions := make([]*readmodel.AuctionReadModel, 0, len(items))
	for _, item := range items {
		a := item.(*readmodel.AuctionReadModel)
		if status == "" || a.Status == status {
			auctions = append(auctions, a)
		}
	}
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].EndTime.Before(auctions[j].EndTime)
	})
	return auctions
}

// ListPendingAuctions returns auctions awaiting an approval decision.
func (h *Handler) ListPendingAuctions() []*readmodel.AuctionReadModel {
	items := h.readStore.GetAll(readmodel.Auctions)
	auctions := make([]*readmodel.AuctionReadModel, 0)
	for _, item := range items {
		a := item.(*readmodel.AuctionReadModel)
		if a.Approval == "pending" {
			auctions = append(auctions, a)
		}
	}
	return auctions
}

// ListBids returns the bid history for an auction, highest first.
func (h *Handler) ListBids(auctionID string) []*readmodel.BidReadModel {
	items := h.readStore.GetAll(readmodel.Bids)
	bids := make([]*readmodel.BidReadModel, 0)
	for _, item := range items {
		b := item.(*readmodel.BidReadModel)
		if b.AuctionID == auctionID {
			bids = append(bids, b)
		}
	}
	sort.Slice(bids, func(i, j int) bool {
		return bids[i].Amount > bids[j].Amount
	})
	return bids
}

// Ads

func (h *Handler) GetAd(id string) (*readmodel.AdReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Ads, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.AdReadModel), true
}

// ListLiveAds returns approved, paid ads within their schedule, optionally
// restricted to one region.
func (h *Handler) ListLiveAds(region string, now time.Time) []*readmodel.AdReadModel {
	items := h.readStore.GetAll(readmodel.Ads)
	ads := make([]*readmodel.AdReadModel, 0)
	for _, item := range items {
		a := item.(*readmodel.AdReadModel)
		if a.Approval != "APPROVED" || a.Payment != "PAID" {
			continue
		}
		if now.Before(a.StartsAt) || !now.Before(a.EndsAt) {
			continue
		}
		if region != "" && a.Region != region {
			continue
		}
		ads = append(ads, a)
	}
	return ads
}

func (h *Handler) ListAdsByMerchant(merchantID string) []*readmodel.AdReadModel {
	items := h.readStore.GetAll(readmodel.Ads)
	ads := make([]*readmodel.AdReadModel, 0)
	for _, item := range items {
		a := item.(*readmodel.AdReadModel)
		if a.MerchantID == merchantID {
			ads = append(ads, a)
		}
	}
	return ads
}

// ListPendingAds returns ads awaiting an approval decision.
func (h *Handler) ListPendingAds() []*readmodel.AdReadModel {
	items := h.readStore.GetAll(readmodel.Ads)
	ads := make([]*readmodel.AdReadModel, 0)
	for _, item := range items {
		a := item.(*readmodel.AdReadModel)
		if a.Approval == "PENDING" {
			ads = append(ads, a)
		}
	}
	return ads
}

// Notifications

func (h *Handler) ListNotifications(userID string) []*readmodel.NotificationReadModel {
	items := h.readStore.GetAll(readmodel.Notifications)
	notifications := make([]*readmodel.NotificationReadModel, 0)
	for _, item := range items {
		n := item.(*readmodel.NotificationReadModel)
		if n.UserID == userID {
			notifications = append(notifications, n)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications
}

// MarkNotificationRead flips the read flag; returns false when the
// notification does not exist or belongs to another user.
func (h *Handler) MarkNotificationRead(userID, notificationID string) bool {
	data, ok := h.readStore.Get(readmodel.Notifications, notificationID)
	if !ok {
		return false
	}
	if data.(*readmodel.NotificationReadModel).UserID != userID {
		return false
	}
	return h.readStore.Update(readmodel.Notifications, notificationID, func(current any) any {
		n := current.(*readmodel.NotificationReadModel)
		n.Read = true
		return n
	})
}

// MarkAllNotificationsRead marks every unread notification for a user.
func (h *Handler) MarkAllNotificationsRead(userID string) int {
	marked := 0
	for _, n := range h.ListNotifications(userID) {
		if n.Read {
			continue
		}
		if h.MarkNotificationRead(userID, n.ID) {
			marked++
		}
	}
	return marked
}
