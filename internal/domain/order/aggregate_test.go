package order

import (
	"context"
	"testing"

	"github.com/example/marketplace/internal/infrastructure/store/mocks"
	"github.com/example/marketplace/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlaceParams() PlaceParams {
	return PlaceParams{
		Customer: CustomerDetail{
			CustomerID: "cust-1",
			Name:       "Abebe Kebede",
			Phone:      "0911000000",
			Email:      "abebe@example.com",
			State:      "Addis Ababa",
			City:       "Bole",
		},
		Merchant: MerchantDetail{
			MerchantID:    "merch-1",
			Name:          "Habesha Crafts",
			Email:         "crafts@example.com",
			AccountName:   "Habesha Crafts",
			AccountNumber: "1000200030004000",
			BankCode:      "946",
		},
		Lines: []Line{
			{
				ProductID:     "prod-1",
				ProductName:   "Woven Basket",
				Quantity:      2,
				Price:         500,
				Delivery:      pricing.DeliveryPerPiece,
				DeliveryPrice: 100,
			},
		},
		TotalPrice:     1100,
		Location:       GeoPoint{Type: "Point", Coordinates: [2]float64{38.76, 9.01}},
		TransactionRef: "tx-order-1",
	}
}

func TestPlaceOrder(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	o, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, 1100, o.TotalPrice)
	assert.Equal(t, 1, o.Version)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventOrderPlaced, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
}

func TestPlaceOrderValidation(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	t.Run("empty order", func(t *testing.T) {
		p := testPlaceParams()
		p.Lines = nil
		_, err := service.Place(ctx, p)
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("both products and auction", func(t *testing.T) {
		p := testPlaceParams()
		p.Auction = &AuctionRef{AuctionID: "auc-1", Delivery: "FREE"}
		_, err := service.Place(ctx, p)
		assert.ErrorIs(t, err, ErrMixedOrder)
	})

	t.Run("zero total", func(t *testing.T) {
		p := testPlaceParams()
		p.TotalPrice = 0
		_, err := service.Place(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidTotal)
	})

	t.Run("missing transaction ref", func(t *testing.T) {
		p := testPlaceParams()
		p.TransactionRef = ""
		_, err := service.Place(ctx, p)
		assert.ErrorIs(t, err, ErrMissingTransactionRef)
	})

	t.Run("zero quantity line", func(t *testing.T) {
		p := testPlaceParams()
		p.Lines[0].Quantity = 0
		_, err := service.Place(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidLine)
	})

	t.Run("unknown delivery mode", func(t *testing.T) {
		p := testPlaceParams()
		p.Lines[0].Delivery = "TELEPORT"
		_, err := service.Place(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidDeliveryMode)
	})

	assert.Empty(t, eventStore.AppendCalls, "no events should be written for rejected orders")
}

func TestPlaceAuctionOrder(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	p := testPlaceParams()
	p.Lines = nil
	p.Auction = &AuctionRef{AuctionID: "auc-1", Delivery: "PAID", DeliveryPrice: 200}
	p.TotalPrice = 5200

	o, err := service.Place(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, o.Auction)
	assert.Equal(t, "auc-1", o.Auction.AuctionID)
	assert.Empty(t, o.Lines)
}

func TestOrderLifecycle(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	dispatched, err := service.Dispatch(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDispatched, dispatched.Status)

	received, err := service.Receive(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, received.Status)

	// Fulfillment is forward-only.
	_, err = service.Dispatch(ctx, placed.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestReceiveFromPending(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	// Buyer picked up the goods themselves, skipping dispatch.
	received, err := service.Receive(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, received.Status)
}

func TestUpdateShipping(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	updated, err := service.UpdateShipping(ctx, placed.ID, ShippingUpdate{
		Phone: "0922000000",
		City:  "Kirkos",
	})
	require.NoError(t, err)
	assert.Equal(t, "0922000000", updated.Customer.Phone)
	assert.Equal(t, "Kirkos", updated.Customer.City)
	assert.Equal(t, "Abebe Kebede", updated.Customer.Name, "empty fields keep current values")
}

func TestUpdateShippingAfterDispatch(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	_, err = service.Dispatch(ctx, placed.ID)
	require.NoError(t, err)

	_, err = service.UpdateShipping(ctx, placed.ID, ShippingUpdate{City: "Kirkos"})
	assert.ErrorIs(t, err, ErrAlreadyDispatched)
}

func TestPaymentFlow(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	paid, err := service.ConfirmPayment(ctx, placed.ID, "chapa-ref-1")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, "chapa-ref-1", paid.ChapaRef)

	// Double confirmation is rejected.
	_, err = service.ConfirmPayment(ctx, placed.ID, "chapa-ref-2")
	assert.ErrorIs(t, err, ErrInvalidPayment)

	settled, err := service.PayMerchant(ctx, placed.ID, "transfer-1")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaidToMerchant, settled.PaymentStatus)
	assert.Equal(t, "transfer-1", settled.Merchant.Reference)
}

func TestRefundFlow(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	_, err = service.ConfirmPayment(ctx, placed.ID, "chapa-ref-1")
	require.NoError(t, err)

	pending, err := service.RequestRefund(ctx, placed.ID, "damaged", "arrived broken")
	require.NoError(t, err)
	assert.Equal(t, PaymentPendingRefund, pending.PaymentStatus)
	assert.Equal(t, "damaged", pending.RefundReason)

	// No payout once a refund is in flight.
	_, err = service.PayMerchant(ctx, placed.ID, "transfer-1")
	assert.ErrorIs(t, err, ErrInvalidPayment)

	refunded, err := service.CompleteRefund(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentRefunded, refunded.PaymentStatus)
}

func TestRefundRequiresReason(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	_, err = service.RequestRefund(ctx, placed.ID, "", "")
	assert.ErrorIs(t, err, ErrMissingRefundReason)
}

func TestPayMerchantRequiresPaid(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	_, err = service.PayMerchant(ctx, placed.ID, "transfer-1")
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestDeleteOrder(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	deleted, err := service.Delete(ctx, placed.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	_, err = service.Get(ctx, placed.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteDispatchedOrder(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)

	_, err = service.Dispatch(ctx, placed.ID)
	require.NoError(t, err)

	_, err = service.Delete(ctx, placed.ID)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestOrderNotFound(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	_, err := service.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = service.Dispatch(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRebuildFromEvents(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	placed, err := service.Place(ctx, testPlaceParams())
	require.NoError(t, err)
	_, err = service.ConfirmPayment(ctx, placed.ID, "chapa-ref-1")
	require.NoError(t, err)
	_, err = service.Dispatch(ctx, placed.ID)
	require.NoError(t, err)

	// A fresh service sees the same state by replaying events.
	rebuilt, err := NewService(eventStore).Get(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDispatched, rebuilt.Status)
	assert.Equal(t, PaymentPaid, rebuilt.PaymentStatus)
	assert.Equal(t, "chapa-ref-1", rebuilt.ChapaRef)
	assert.Equal(t, 3, rebuilt.Version)
}
