package query

import (
	"testing"
	"time"

	"github.com/example/marketplace/internal/infrastructure/store/mocks"
	"github.com/example/marketplace/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() (*Handler, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	return NewHandler(readStore), readStore
}

func TestGetProduct(t *testing.T) {
	handler, readStore := newTestHandler()

	readStore.SetData(readmodel.Products, "prod-1", &readmodel.ProductReadModel{ID: "prod-1", Name: "Woven Basket"})

	prod, ok := handler.GetProduct("prod-1")
	require.True(t, ok)
	assert.Equal(t, "Woven Basket", prod.Name)

	_, ok = handler.GetProduct("missing")
	assert.False(t, ok)
}

func TestListProductsFilters(t *testing.T) {
	handler, readStore := newTestHandler()

	readStore.SetData(readmodel.Products, "prod-1", &readmodel.ProductReadModel{ID: "prod-1", MerchantID: "merch-1", CategoryID: "cat-1"})
	readStore.SetData(readmodel.Products, "prod-2", &readmodel.ProductReadModel{ID: "prod-2", MerchantID: "merch-2", CategoryID: "cat-1"})
	readStore.SetData(readmodel.Products, "prod-3", &readmodel.ProductReadModel{ID: "prod-3", MerchantID: "merch-1", CategoryID: "cat-2"})

	assert.Len(t, handler.ListProducts(), 3)
	assert.Len(t, handler.ListProductsByCategory("cat-1"), 2)
	assert.Len(t, handler.ListProductsByMerchant("merch-1"), 2)
}

func TestGetCartEmpty(t *testing.T) {
	handler, _ := newTestHandler()

	c := handler.GetCart("user-1")
	require.NotNil(t, c)
	assert.Equal(t, "cart-user-1", c.ID)
	assert.Empty(t, c.Items)
}

func TestListOrdersByParty(t *testing.T) {
	handler, readStore := newTestHandler()

	now := time.Now()
	readStore.SetData(readmodel.Orders, "order-1", &readmodel.OrderReadModel{
		ID: "order-1", CustomerID: "user-1", MerchantID: "merch-1", CreatedAt: now.Add(-time.Hour),
	})
	readStore.SetData(readmodel.Orders, "order-2", &readmodel.OrderReadModel{
		ID: "order-2", CustomerID: "user-1", MerchantID: "merch-2", CreatedAt: now,
	})
	readStore.SetData(readmodel.Orders, "order-3", &readmodel.OrderReadModel{
		ID: "order-3", CustomerID: "user-2", MerchantID: "merch-1", CreatedAt: now.Add(-time.Minute),
	})

	byCustomer := handler.ListOrdersByCustomer("user-1")
	require.Len(t, byCustomer, 2)
	assert.Equal(t, "order-2", byCustomer[0].ID, "newest first")

	assert.Len(t, handler.ListOrdersByMerchant("merch-1"), 2)
	assert.Len(t, handler.ListAllOrders(), 3)
}

func TestListPendingRefunds(t *testing.T) {
	handler, readStore := newTestHandler()

	readStore.SetData(readmodel.Orders, "order-1", &readmodel.OrderReadModel{ID: "order-1", PaymentStatus: "Pending Refund"})
	readStore.SetData(readmodel.Orders, "order-2", &readmodel.OrderReadModel{ID: "order-2", PaymentStatus: "Paid"})

	refunds := handler.ListPendingRefunds()
	require.Len(t, refunds, 1)
	assert.Equal(t, "order-1", refunds[0].ID)
}

func TestGetUserByEmail(t *testing.T) {
	handler, readStore := newTestHandler()

	readStore.SetData(readmodel.Users, "user-1", &readmodel.UserReadModel{ID: "user-1", Email: "abebe@example.com"})
	readStore.SetData(readmodel.Users, "user-2", &readmodel.UserReadModel{ID: "user-2", Email: "sara@example.com"})

	u, ok := handler.GetUserByEmail("sara@example.com")
	require.True(t, ok)
	assert.Equal(t, "user-2", u.ID)

	_, ok = handler.GetUserByEmail("nobody@example.com")
	assert.False(t, ok)
}

func TestListAuctions(t *testing.T) {
	handler, readStore := newTestHandler()

	now := time.Now()
	readStore.SetData(readmodel.Auctions, "auc-1", &readmodel.AuctionReadModel{ID: "auc-1", Status: "active", Approval: "approved", EndTime: now.Add(2 * time.Hour)})
	readStore.SetData(readmodel.Auctions, "auc-2", &readmodel.AuctionReadModel{ID: "auc-2", Status: "active", Approval: "approved", EndTime: now.Add(time.Hour)})
	readStore.SetData(readmodel.Auctions, "auc-3", &readmodel.AuctionReadModel{ID: "auc-3", Status: "pending", Approval: "pending", EndTime: now.Add(3 * time.Hour)})

	active := handler.ListAuctions("active")
	require.Len(t, active, 2)
	assert.Equal(t, "auc-2", active[0].ID, "soonest ending first")

	assert.Len(t, handler.ListAuctions(""), 3)
	assert.Len(t, handler.ListPendingAuctions(), 1)
}

func TestListBids(t *testing.T) {
	handler, readStore := newTestHandler()

	readStore.SetData(readmodel.Bids, "auc-1:user-1", &readmodel.BidReadModel{ID: "bid-1", AuctionID: "auc-1", BidderID: "user-1", Amount: 1100})
	readStore.SetData(readmodel.Bids, "auc-1:user-2", &readmodel.BidReadModel{ID: "bid-2", AuctionID: "auc-1", BidderID: "user-2", Amount: 1300})
	readStore.SetData(readmodel.Bids, "auc-2:user-1", &readmodel.BidReadModel{ID: "bid-3", AuctionID: "auc-2", BidderID: "user-1", Amount: 400})

	bids := handler.ListBids("auc-1")
	require.Len(t, bids, 2)
	assert.Equal(t, 1300, bids[0].Amount, "highest first")
}

func TestListLiveAds(t *testing.T) {
	handler, readStore := newTestHandler()

	now := time.Now()
	live := &readmodel.AdReadModel{
		ID: "ad-1", Region: "Addis Ababa", Approval: "APPROVED", Payment: "PAID",
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
	}
	unpaid := &readmodel.AdReadModel{
		ID: "ad-2", Region: "Addis Ababa", Approval: "APPROVED", Payment: "PENDING",
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
	}
	expired := &readmodel.AdReadModel{
		ID: "ad-3", Region: "Addis Ababa", Approval: "APPROVED", Payment: "PAID",
		StartsAt: now.Add(-2 * time.Hour), EndsAt: now.Add(-time.Hour),
	}
	otherRegion := &readmodel.AdReadModel{
		ID: "ad-4", Region: "Hawassa", Approval: "APPROVED", Payment: "PAID",
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour),
	}
	readStore.SetData(readmodel.Ads, "ad-1", live)
	readStore.SetData(readmodel.Ads, "ad-2", unpaid)
	readStore.SetData(readmodel.Ads, "ad-3", expired)
	readStore.SetData(readmodel.Ads, "ad-4", otherRegion)

	ads := handler.ListLiveAds("Addis Ababa", now)
	require.Len(t, ads, 1)
	assert.Equal(t, "ad-1", ads[0].ID)

	assert.Len(t, handler.ListLiveAds("", now), 2, "no region filter shows every live ad")
}

func TestNotifications(t *testing.T) {
	handler, readStore := newTestHandler()

	now := time.Now()
	readStore.SetData(readmodel.Notifications, "n-1", &readmodel.NotificationReadModel{ID: "n-1", UserID: "user-1", CreatedAt: now.Add(-time.Hour)})
	readStore.SetData(readmodel.Notifications, "n-2", &readmodel.NotificationReadModel{ID: "n-2", UserID: "user-1", CreatedAt: now})
	readStore.SetData(readmodel.Notifications, "n-3", &readmodel.NotificationReadModel{ID: "n-3", UserID: "user-2", CreatedAt: now})

	list := handler.ListNotifications("user-1")
	require.Len(t, list, 2)
	assert.Equal(t, "n-2", list[0].ID, "newest first")

	// Users can only mark their own notifications.
	assert.False(t, handler.MarkNotificationRead("user-1", "n-3"))
	assert.True(t, handler.MarkNotificationRead("user-1", "n-1"))

	marked := handler.MarkAllNotificationsRead("user-1")
	assert.Equal(t, 1, marked, "n-1 was already read")
}
