package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/marketplace/internal/domain/auction"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/user"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/example/marketplace/internal/infrastructure/store/mocks"
	"github.com/example/marketplace/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The handlers under test are seeded with users that have no email address,
// so only the in-app notification path runs; SMTP is not exercised.
func newTestHandler() (*Handler, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	return NewHandler(nil, readStore), readStore
}

func makeEvent(aggregateType, eventType string, data any) []byte {
	jsonData, _ := json.Marshal(data)
	event := store.Event{
		ID:            "event-123",
		AggregateID:   "agg-123",
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
	}
	result, _ := json.Marshal(event)
	return result
}

func notificationsFor(readStore *mocks.MockReadStore, userID string) []*readmodel.NotificationReadModel {
	var out []*readmodel.NotificationReadModel
	for _, item := range readStore.GetAll(readmodel.Notifications) {
		n := item.(*readmodel.NotificationReadModel)
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func TestOrderPlacedNotifiesBothParties(t *testing.T) {
	handler, readStore := newTestHandler()

	event := makeEvent(order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{
		OrderID:    "order-1",
		Customer:   order.CustomerDetail{CustomerID: "user-1", Name: "Abebe Kebede"},
		Merchant:   order.MerchantDetail{MerchantID: "merch-1"},
		Lines:      []order.Line{{ProductID: "prod-1", ProductName: "Coffee Beans", Quantity: 2, Price: 100}},
		TotalPrice: 250,
		PlacedAt:   time.Now(),
	})

	err := handler.HandleEvent(context.Background(), nil, event)
	require.NoError(t, err)

	buyerNotes := notificationsFor(readStore, "user-1")
	require.Len(t, buyerNotes, 1)
	assert.Equal(t, "Order placed", buyerNotes[0].Title)
	assert.Equal(t, "order-1", buyerNotes[0].OrderID)
	assert.Equal(t, "order", buyerNotes[0].Type)
	assert.False(t, buyerNotes[0].Read)

	sellerNotes := notificationsFor(readStore, "merch-1")
	require.Len(t, sellerNotes, 1)
	assert.Equal(t, "New order received", sellerNotes[0].Title)
	assert.Contains(t, sellerNotes[0].Description, "Abebe Kebede")
}

func TestOrderDispatchedNotifiesBuyer(t *testing.T) {
	handler, readStore := newTestHandler()
	readStore.SetData(readmodel.Orders, "order-1", &readmodel.OrderReadModel{
		ID: "order-1", CustomerID: "user-1", MerchantID: "merch-1", Total: 250,
	})

	event := makeEvent(order.AggregateType, order.EventOrderDispatched, order.OrderDispatched{
		OrderID: "order-1", DispatchedAt: time.Now(),
	})

	err := handler.HandleEvent(context.Background(), nil, event)
	require.NoError(t, err)

	notes := notificationsFor(readStore, "user-1")
	require.Len(t, notes, 1)
	assert.Equal(t, "Order dispatched", notes[0].Title)
}

func TestRefundCompletedNotifiesBuyer(t *testing.T) {
	handler, readStore := newTestHandler()
	readStore.SetData(readmodel.Orders, "order-1", &readmodel.OrderReadModel{
		ID: "order-1", CustomerID: "user-1", Total: 250,
	})

	event := makeEvent(order.AggregateType, order.EventRefundCompleted, order.RefundCompleted{
		OrderID: "order-1", CompletedAt: time.Now(),
	})

	err := handler.HandleEvent(context.Background(), nil, event)
	require.NoError(t, err)

	notes := notificationsFor(readStore, "user-1")
	require.Len(t, notes, 1)
	assert.Equal(t, "Refund processed", notes[0].Title)
	assert.Contains(t, notes[0].Description, "ETB 250")
}

func TestBidPlacedNotifiesOutbidUser(t *testing.T) {
	handler, readStore := newTestHandler()
	readStore.SetData(readmodel.Auctions, "auc-1", &readmodel.AuctionReadModel{
		ID: "auc-1", MerchantID: "merch-1", Title: "Vintage Radio",
	})
	readStore.SetData(readmodel.Users, "user-1", &readmodel.UserReadModel{ID: "user-1"})

	event := makeEvent(auction.AggregateType, auction.EventBidPlaced, auction.BidPlaced{
		AuctionID:        "auc-1",
		BidID:            "bid-2",
		BidderID:         "user-2",
		Amount:           1300,
		PreviousBidderID: "user-1",
		PlacedAt:         time.Now(),
	})

	err := handler.HandleEvent(context.Background(), nil, event)
	require.NoError(t, err)

	notes := notificationsFor(readStore, "user-1")
	require.Len(t, notes, 1)
	assert.Equal(t, "You've been outbid", notes[0].Title)
	assert.Equal(t, "outbid", notes[0].Type)
	assert.Equal(t, "auc-1", notes[0].AuctionID)

	// The new-highest bidder gets nothing.
	assert.Empty(t, notificationsFor(readStore, "user-2"))
}

func TestBidPlacedFirstBidIsSilent(t *testing.T) {
	handler, readStore := newTestHandler()
	readStore.SetData(readmodel.Auctions, "auc-1", &readmodel.AuctionReadModel{ID: "auc-1", Title: "Vintage Radio"})

	event := makeEvent(auction.AggregateType, auction.EventBidPlaced, auction.BidPlaced{
		AuctionID: "auc-1", BidID: "bid-1", BidderID: "user-1", Amount: 1100, PlacedAt: time.Now(),
	})

	err := handler.HandleEvent(context.Background(), nil, event)
	require.NoError(t, err)
	assert.Empty(t, readStore.GetAll(readmodel.Notifications))
}

func TestAuctionEndedNotifiesWinnerAndSeller(t *testing.T) {
	handler, readStore := newTestHandler()
	readStore.SetData(readmodel.Auctions, "auc-1", &readmodel.AuctionReadModel{
		ID: "auc-1", MerchantID: "merch-1", Title: "Vintage Radio",
	})
	readStore.SetData(readmodel.Users, "user-1", &readmodel.UserReadModel{ID: "user-1"})

	event := makeEvent(auction.AggregateType, auction.EventAuctionEnded, auction.AuctionEnded{
		AuctionID:  "auc-1",
		WinnerID:   "user-1",
		WinningBid: 1300,
		ReserveMet: true,
		EndedAt:    time.Now(),
	})

	err := handler.HandleEvent(context.Background(), nil, event)
	require.NoError(t, err)

	winnerNotes := notificationsFor(readStore, "user-1")
	require.Len(t, winnerNotes, 1)
	assert.Equal(t, "You won the auction", winnerNotes[0].Title)
	assert.Equal(t, "won", winnerNotes[0].Type)

	sellerNotes := notificationsFor(readStore, "merch-1")
	require.Len(t, sellerNotes, 1)
	assert.Equal(t, "Auction sold", sellerNotes[0].Title)
}

func TestAuctionEndedReserveNotMet(t *testing.T) {
	handler, readStore := newTestHandler()
	readStore.SetData(readmodel.Auctions, "auc-1", &readmodel.AuctionReadModel{
		ID: "auc-1", MerchantID: "merch-1", Title: "Vintage Radio",
	})

	event := makeEvent(auction.AggregateType, auction.EventAuctionEnded, auction.AuctionEnded{
		AuctionID: "auc-1", ReserveMet: false, EndedAt: time.Now(),
	})

	err := handler.HandleEvent(context.Background(), nil, event)
	require.NoError(t, err)

	sellerNotes := notificationsFor(readStore, "merch-1")
	require.Len(t, sellerNotes, 1)
	assert.Equal(t, "Auction ended without a winner", sellerNotes[0].Title)
}

func TestUserCreatedWithoutEmailIsSilent(t *testing.T) {
	handler, readStore := newTestHandler()

	// No address on record means there is nothing to verify by mail.
	err := handler.HandleEvent(context.Background(), nil, makeEvent(user.AggregateType, user.EventUserCreated, user.UserCreated{
		UserID:      "user-1",
		Name:        "Abebe Kebede",
		VerifyToken: "token-1",
		CreatedAt:   time.Now(),
	}))
	require.NoError(t, err)
	assert.Empty(t, readStore.GetAll(readmodel.Notifications))
}

func TestUnknownEventIgnored(t *testing.T) {
	handler, readStore := newTestHandler()

	err := handler.HandleEvent(context.Background(), nil, makeEvent("Product", "ProductCreated", map[string]string{"product_id": "prod-1"}))
	require.NoError(t, err)
	assert.Empty(t, readStore.GetAll(readmodel.Notifications))
}
