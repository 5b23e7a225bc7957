package command

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/marketplace/internal/domain/ad"
	"github.com/example/marketplace/internal/domain/auction"
	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/domain/category"
	"github.com/example/marketplace/internal/domain/inventory"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/domain/user"
	"github.com/example/marketplace/internal/infrastructure/store/mocks"
	"github.com/example/marketplace/internal/payment"
	"github.com/example/marketplace/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStockGuard is an in-memory stand-in for the Redis guard.
type fakeStockGuard struct {
	stock    map[string]int
	claimed  map[string]bool
	failures map[string]bool // productIDs whose Reserve errors
}

func newFakeStockGuard() *fakeStockGuard {
	return &fakeStockGuard{
		stock:    make(map[string]int),
		claimed:  make(map[string]bool),
		failures: make(map[string]bool),
	}
}

func (g *fakeStockGuard) Reserve(_ context.Context, productID string, quantity int) (bool, error) {
	if g.failures[productID] {
		return false, errors.New("redis unavailable")
	}
	if g.stock[productID] < quantity {
		return false, nil
	}
	g.stock[productID] -= quantity
	return true, nil
}

func (g *fakeStockGuard) Release(_ context.Context, productID string, quantity int) error {
	g.stock[productID] += quantity
	return nil
}

func (g *fakeStockGuard) SetStock(_ context.Context, productID string, quantity int) error {
	g.stock[productID] = quantity
	return nil
}

func (g *fakeStockGuard) ClaimTransactionRef(_ context.Context, txRef string) (bool, error) {
	if g.claimed[txRef] {
		return false, nil
	}
	g.claimed[txRef] = true
	return true, nil
}

func (g *fakeStockGuard) ReleaseTransactionRef(_ context.Context, txRef string) error {
	delete(g.claimed, txRef)
	return nil
}

// fakeGateway scripts payment gateway outcomes.
type fakeGateway struct {
	verifyPaid  bool
	verifyRef   string
	refundErr   error
	transferRef string
	transferErr error
	refunded    []string
	transfers   []payment.TransferRequest
}

func (g *fakeGateway) Verify(_ context.Context, txRef string) (*payment.Verification, error) {
	return &payment.Verification{Paid: g.verifyPaid, Reference: g.verifyRef}, nil
}

func (g *fakeGateway) Refund(_ context.Context, chapaRef string, amount int) error {
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunded = append(g.refunded, chapaRef)
	return nil
}

func (g *fakeGateway) Transfer(_ context.Context, req payment.TransferRequest) (string, error) {
	if g.transferErr != nil {
		return "", g.transferErr
	}
	g.transfers = append(g.transfers, req)
	return g.transferRef, nil
}

type testEnv struct {
	handler    *Handler
	eventStore *mocks.MockEventStore
	readStore  *mocks.MockReadStore
	stockGuard *fakeStockGuard
	gateway    *fakeGateway
	clock      *fakeClock
}

// fakeClock drives the auction time window checks.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time          { return c.current }
func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestEnv() *testEnv {
	eventStore := mocks.NewMockEventStore()
	readStore := mocks.NewMockReadStore()
	stockGuard := newFakeStockGuard()
	gateway := &fakeGateway{}
	clock := &fakeClock{current: time.Now()}

	handler := NewHandler(
		product.NewService(eventStore),
		cart.NewService(eventStore),
		order.NewService(eventStore),
		inventory.NewService(eventStore),
		user.NewService(eventStore),
		auction.NewServiceWithClock(eventStore, clock.Now),
		ad.NewService(eventStore),
		category.NewService(eventStore),
		readStore,
		stockGuard,
		gateway,
	)
	return &testEnv{
		handler:    handler,
		eventStore: eventStore,
		readStore:  readStore,
		stockGuard: stockGuard,
		gateway:    gateway,
		clock:      clock,
	}
}

func (env *testEnv) seedBuyer(id string) {
	env.readStore.SetData(readmodel.Users, id, &readmodel.UserReadModel{
		ID: id, Name: "Abebe Kebede", Email: id + "@example.com",
		Phone: "0911000000", State: "Addis Ababa", City: "Addis Ababa",
		Role: user.RoleCustomer, IsActive: true, EmailVerified: true,
	})
}

func (env *testEnv) seedMerchant(id string) {
	env.readStore.SetData(readmodel.Users, id, &readmodel.UserReadModel{
		ID: id, Name: "Sara Tesfaye", Email: id + "@example.com",
		Role: user.RoleMerchant, IsActive: true,
		AccountName: "Sara Tesfaye", AccountNumber: "1000123456", BankCode: "946",
	})
}

func (env *testEnv) seedProduct(id, merchantID string, price, stock int) {
	env.readStore.SetData(readmodel.Products, id, &readmodel.ProductReadModel{
		ID: id, MerchantID: merchantID, Name: "Product " + id,
		Price: price, Stock: stock,
		DeliveryMode: "FLAT", DeliveryPrice: 50,
	})
	env.stockGuard.stock[id] = stock
}

func checkoutCmd() Checkout {
	return Checkout{
		CustomerID:     "user-1",
		MerchantID:     "merch-1",
		Lines:          []CheckoutLine{{ProductID: "prod-1", Quantity: 2}},
		TransactionRef: "tx-1",
		Coordinates:    [2]float64{38.7578, 9.0301},
	}
}

func TestCheckout(t *testing.T) {
	env := newTestEnv()
	env.seedBuyer("user-1")
	env.seedMerchant("merch-1")
	env.seedProduct("prod-1", "merch-1", 100, 5)

	o, err := env.handler.Checkout(context.Background(), checkoutCmd())
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentPending, o.PaymentStatus)
	// 2 x 100 + flat delivery 50
	assert.Equal(t, 250, o.TotalPrice)
	assert.Equal(t, "Sara Tesfaye", o.Merchant.Name)
	assert.Equal(t, 3, env.stockGuard.stock["prod-1"])

	// OrderPlaced + StockDeducted
	var types []string
	for _, call := range env.eventStore.AppendCalls {
		types = append(types, call.EventType)
	}
	assert.Contains(t, types, order.EventOrderPlaced)
	assert.Contains(t, types, inventory.EventStockDeducted)
}

func TestCheckoutUsesOfferPrice(t *testing.T) {
	env := newTestEnv()
	env.seedBuyer("user-1")
	env.seedMerchant("merch-1")
	env.seedProduct("prod-1", "merch-1", 100, 5)
	env.readStore.SetData(readmodel.Products, "prod-1", &readmodel.ProductReadModel{
		ID: "prod-1", MerchantID: "merch-1", Name: "Product prod-1",
		Price: 100, OfferPrice: 80, Stock: 5,
		DeliveryMode: "FLAT", DeliveryPrice: 50,
	})

	o, err := env.handler.Checkout(context.Background(), checkoutCmd())
	require.NoError(t, err)

	// 2 x 80 offer price + flat delivery 50
	assert.Equal(t, 210, o.TotalPrice)
	assert.Equal(t, 80, o.Lines[0].Price)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	env := newTestEnv()
	env.seedBuyer("user-1")
	env.seedMerchant("merch-1")
	env.seedProduct("prod-1", "merch-1", 100, 1)

	_, err := env.handler.Checkout(context.Background(), checkoutCmd())
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	assert.Equal(t, 1, env.stockGuard.stock["prod-1"], "stock untouched")
	assert.Empty(t, env.eventStore.AppendCalls, "no events written")
	assert.False(t, env.stockGuard.claimed["tx-1"], "transaction ref released")
}

func TestCheckoutRollsBackEarlierLines(t *testing.T) {
	env := newTestEnv()
	env.seedBuyer("user-1")
	env.seedMerchant("merch-1")
	env.seedProduct("prod-1", "merch-1", 100, 5)
	env.seedProduct("prod-2", "merch-1", 200, 0)

	cmd := checkoutCmd()
	cmd.Lines = append(cmd.Lines, CheckoutLine{ProductID: "prod-2", Quantity: 1})

	_, err := env.handler.Checkout(context.Background(), cmd)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 5, env.stockGuard.stock["prod-1"], "first line rolled back")
}

func TestCheckoutDuplicateTransactionRef(t *testing.T) {
	env := newTestEnv()
	env.seedBuyer("user-1")
	env.seedMerchant("merch-1")
	env.seedProduct("prod-1", "merch-1", 100, 5)

	_, err := env.handler.Checkout(context.Background(), checkoutCmd())
	require.NoError(t, err)

	_, err = env.handler.Checkout(context.Background(), checkoutCmd())
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
}

func TestCheckoutValidationChain(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(env *testEnv, cmd *Checkout)
		wantErr error
	}{
		{
			name:    "missing transaction ref",
			prepare: func(env *testEnv, cmd *Checkout) { cmd.TransactionRef = "" },
			wantErr: order.ErrMissingTransactionRef,
		},
		{
			name:    "invalid coordinates",
			prepare: func(env *testEnv, cmd *Checkout) { cmd.Coordinates = [2]float64{0, 0} },
			wantErr: ErrInvalidCoordinates,
		},
		{
			name:    "no lines",
			prepare: func(env *testEnv, cmd *Checkout) { cmd.Lines = nil },
			wantErr: order.ErrEmptyOrder,
		},
		{
			name:    "unknown buyer",
			prepare: func(env *testEnv, cmd *Checkout) { cmd.CustomerID = "ghost" },
			wantErr: user.ErrUserNotFound,
		},
		{
			name: "deactivated buyer",
			prepare: func(env *testEnv, cmd *Checkout) {
				env.readStore.SetData(readmodel.Users, "user-1", &readmodel.UserReadModel{ID: "user-1", IsActive: false})
			},
			wantErr: ErrAccountInactive,
		},
		{
			name: "buyer with unverified email",
			prepare: func(env *testEnv, cmd *Checkout) {
				env.readStore.SetData(readmodel.Users, "user-1", &readmodel.UserReadModel{ID: "user-1", IsActive: true})
			},
			wantErr: user.ErrEmailNotVerified,
		},
		{
			name: "banned product",
			prepare: func(env *testEnv, cmd *Checkout) {
				env.readStore.SetData(readmodel.Products, "prod-1", &readmodel.ProductReadModel{
					ID: "prod-1", MerchantID: "merch-1", Name: "Product prod-1",
					Price: 100, Stock: 5, Banned: true,
					DeliveryMode: "FLAT", DeliveryPrice: 50,
				})
			},
			wantErr: product.ErrProductBanned,
		},
		{
			name: "merchant without bank details",
			prepare: func(env *testEnv, cmd *Checkout) {
				env.readStore.SetData(readmodel.Users, "merch-1", &readmodel.UserReadModel{ID: "merch-1", Role: user.RoleMerchant, IsActive: true})
			},
			wantErr: ErrMerchantNotPayable,
		},
		{
			name:    "unknown product",
			prepare: func(env *testEnv, cmd *Checkout) { cmd.Lines[0].ProductID = "ghost" },
			wantErr: product.ErrProductNotFound,
		},
		{
			name:    "zero quantity",
			prepare: func(env *testEnv, cmd *Checkout) { cmd.Lines[0].Quantity = 0 },
			wantErr: order.ErrInvalidLine,
		},
		{
			name: "product of another merchant",
			prepare: func(env *testEnv, cmd *Checkout) {
				env.seedProduct("prod-9", "merch-other", 10, 5)
				cmd.Lines[0].ProductID = "prod-9"
			},
			wantErr: order.ErrInvalidLine,
		},
		{
			name:    "total mismatch",
			prepare: func(env *testEnv, cmd *Checkout) { cmd.ExpectedTotal = 999 },
			wantErr: ErrTotalMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.seedBuyer("user-1")
			env.seedMerchant("merch-1")
			env.seedProduct("prod-1", "merch-1", 100, 5)

			cmd := checkoutCmd()
			tt.prepare(env, &cmd)

			_, err := env.handler.Checkout(context.Background(), cmd)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, env.eventStore.AppendCalls)
		})
	}
}

func TestCheckoutPerKmDelivery(t *testing.T) {
	env := newTestEnv()
	env.seedBuyer("user-1")
	env.seedMerchant("merch-1")
	env.readStore.SetData(readmodel.Products, "prod-1", &readmodel.ProductReadModel{
		ID: "prod-1", MerchantID: "merch-1", Name: "Coffee Beans",
		Price: 100, Stock: 5,
		DeliveryMode: "PERKM", DeliveryPrice: 10, KmPerBracket: 50,
		Coordinates: [2]float64{38.4762, 7.0621}, // Hawassa
	})
	env.stockGuard.stock["prod-1"] = 5

	cmd := checkoutCmd()
	cmd.Lines[0].Quantity = 1
	o, err := env.handler.Checkout(context.Background(), cmd)
	require.NoError(t, err)

	// Hawassa to Addis Ababa is roughly 220km: ceil(220/50) = 5 brackets.
	assert.Equal(t, 100+5*10, o.TotalPrice)
}

func seedOrderReadModel(env *testEnv, id, customerID, merchantID string) {
	env.readStore.SetData(readmodel.Orders, id, &readmodel.OrderReadModel{
		ID: id, CustomerID: customerID, MerchantID: merchantID,
	})
}

// placeOrder creates a real order through the service so that follow-up
// commands can replay it from the event store.
func placeOrder(t *testing.T, env *testEnv) *order.Order {
	t.Helper()
	env.seedBuyer("user-1")
	env.seedMerchant("merch-1")
	env.seedProduct("prod-1", "merch-1", 100, 5)

	o, err := env.handler.Checkout(context.Background(), checkoutCmd())
	require.NoError(t, err)
	seedOrderReadModel(env, o.ID, "user-1", "merch-1")
	return o
}

func TestUpdateOrderBuyerEditsShipping(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	updated, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID:  o.ID,
		ActorID:  "user-1",
		Shipping: &ShippingDetail{City: "Adama", Phone: "0922000000"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Adama", updated.Customer.City)
	assert.Equal(t, "0922000000", updated.Customer.Phone)
	assert.Equal(t, "Abebe Kebede", updated.Customer.Name, "untouched fields kept")
}

func TestUpdateOrderBuyerReceives(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	updated, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID: o.ID,
		ActorID: "user-1",
		Status:  "Received",
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusReceived, updated.Status)
}

func TestUpdateOrderBuyerConfirmsPayment(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	updated, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID:       o.ID,
		ActorID:       "user-1",
		PaymentStatus: "Paid",
		ChapaRef:      "chapa-ref-1",
	})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, "chapa-ref-1", updated.ChapaRef)
}

func TestUpdateOrderBuyerCannotDispatch(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	_, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID: o.ID,
		ActorID: "user-1",
		Status:  "Dispatched",
	})
	assert.ErrorIs(t, err, ErrInvalidStatusUpdate)
}

func TestUpdateOrderSellerDispatches(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	updated, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID: o.ID,
		ActorID: "merch-1",
		Status:  "Dispatched",
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusDispatched, updated.Status)
}

func TestUpdateOrderSellerDispatchOnly(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	_, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID: o.ID,
		ActorID: "merch-1",
		Status:  "Received",
	})
	assert.ErrorIs(t, err, ErrMerchantDispatchOnly)
}

func TestUpdateOrderStranger(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	_, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID: o.ID,
		ActorID: "someone-else",
		Status:  "Received",
	})
	assert.ErrorIs(t, err, ErrNotOrderParty)
}

func TestUpdateOrderNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID: "ghost",
		ActorID: "user-1",
		Status:  "Received",
	})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)
	require.Equal(t, 3, env.stockGuard.stock["prod-1"])

	err := env.handler.DeleteOrder(context.Background(), DeleteOrder{OrderID: o.ID, ActorID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, 5, env.stockGuard.stock["prod-1"])
	assert.False(t, env.stockGuard.claimed["tx-1"], "transaction ref freed")

	var restored bool
	for _, call := range env.eventStore.AppendCalls {
		if call.EventType == inventory.EventStockRestored {
			restored = true
		}
	}
	assert.True(t, restored)
}

func TestDeleteOrderOnlyBuyer(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	err := env.handler.DeleteOrder(context.Background(), DeleteOrder{OrderID: o.ID, ActorID: "merch-1"})
	assert.ErrorIs(t, err, ErrNotOrderParty)
}

func TestRequestRefundOnlyBuyer(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	for _, actor := range []string{"merch-1", "someone-else"} {
		_, err := env.handler.RequestRefund(context.Background(), RequestRefund{
			OrderID: o.ID, ActorID: actor, Reason: "changed my mind",
		})
		assert.ErrorIs(t, err, ErrNotOrderParty, actor)
	}
}

func TestCompleteRefund(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)
	env.gateway.verifyPaid = true

	_, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID: o.ID, ActorID: "user-1", PaymentStatus: "Paid", ChapaRef: "chapa-ref-1",
	})
	require.NoError(t, err)
	_, err = env.handler.RequestRefund(context.Background(), RequestRefund{
		OrderID: o.ID, ActorID: "user-1", Reason: "damaged on arrival",
	})
	require.NoError(t, err)

	settled, err := env.handler.CompleteRefund(context.Background(), CompleteRefund{OrderID: o.ID})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentRefunded, settled.PaymentStatus)
	assert.Equal(t, []string{"chapa-ref-1"}, env.gateway.refunded)
}

func TestCompleteRefundGatewayFailure(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)
	env.gateway.refundErr = fmt.Errorf("gateway down")

	_, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID: o.ID, ActorID: "user-1", PaymentStatus: "Paid", ChapaRef: "chapa-ref-1",
	})
	require.NoError(t, err)
	_, err = env.handler.RequestRefund(context.Background(), RequestRefund{
		OrderID: o.ID, ActorID: "user-1", Reason: "damaged on arrival",
	})
	require.NoError(t, err)

	_, err = env.handler.CompleteRefund(context.Background(), CompleteRefund{OrderID: o.ID})
	require.Error(t, err)

	// Order stays in Pending Refund: no RefundCompleted event was appended.
	current, err := env.handler.orderSvc.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPendingRefund, current.PaymentStatus)
}

func TestPayMerchant(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)
	env.gateway.transferRef = "transfer-ref-1"

	_, err := env.handler.UpdateOrder(context.Background(), UpdateOrder{
		OrderID: o.ID, ActorID: "user-1", PaymentStatus: "Paid", ChapaRef: "chapa-ref-1",
	})
	require.NoError(t, err)

	paid, err := env.handler.PayMerchant(context.Background(), PayMerchant{OrderID: o.ID})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaidToMerchant, paid.PaymentStatus)

	require.Len(t, env.gateway.transfers, 1)
	assert.Equal(t, "1000123456", env.gateway.transfers[0].AccountNumber)
	assert.Equal(t, o.TotalPrice, env.gateway.transfers[0].Amount)
}

func TestPayMerchantBeforePayment(t *testing.T) {
	env := newTestEnv()
	o := placeOrder(t, env)

	_, err := env.handler.PayMerchant(context.Background(), PayMerchant{OrderID: o.ID})
	assert.ErrorIs(t, err, order.ErrInvalidPayment)
	assert.Empty(t, env.gateway.transfers, "no transfer before payment confirmation")
}

func TestCreateProductSeedsStock(t *testing.T) {
	env := newTestEnv()

	p, err := env.handler.CreateProduct(context.Background(), CreateProduct{
		MerchantID:  "merch-1",
		Name:        "Handwoven Scarf",
		Price:       300,
		Stock:       10,
		Delivery:    product.DeliveryTerms{Mode: "FLAT", BasePrice: 40},
		Coordinates: [2]float64{38.7578, 9.0301},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, env.stockGuard.stock[p.ID])

	var types []string
	for _, call := range env.eventStore.AppendCalls {
		types = append(types, call.EventType)
	}
	assert.Contains(t, types, product.EventProductCreated)
	assert.Contains(t, types, inventory.EventStockSet)
}

func TestAddToCartResolvesProduct(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("prod-1", "merch-1", 100, 5)

	err := env.handler.AddToCart(context.Background(), AddToCart{
		UserID: "user-1", ProductID: "prod-1", Quantity: 2,
	})
	require.NoError(t, err)

	c, err := env.handler.cartSvc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 100, c.Items["prod-1"].Price, "price taken from the product, not the client")
	assert.Equal(t, "merch-1", c.Items["prod-1"].MerchantID)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	env := newTestEnv()

	err := env.handler.AddToCart(context.Background(), AddToCart{
		UserID: "user-1", ProductID: "ghost", Quantity: 1,
	})
	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestPlaceBidResolvesBidder(t *testing.T) {
	env := newTestEnv()
	env.seedMerchant("merch-1")
	env.seedBuyer("user-1")

	a, err := env.handler.CreateAuction(context.Background(), CreateAuction{
		MerchantID:    "merch-1",
		Title:         "Vintage Radio",
		Condition:     "used",
		StartingPrice: 1000,
		ReservedPrice: 1000,
		BidIncrement:  100,
		Delivery:      "FREE",
		StartTime:     time.Now().Add(-time.Minute),
		EndTime:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = env.handler.ReviewAuction(context.Background(), ReviewAuction{
		AuctionID: a.ID, AdminID: "admin-1", Approve: true,
	})
	require.NoError(t, err)
	_, err = env.handler.auctionSvc.Activate(context.Background(), a.ID)
	require.NoError(t, err)

	_, bid, err := env.handler.PlaceBid(context.Background(), PlaceBid{
		AuctionID: a.ID, BidderID: "user-1", Amount: 1100,
	})
	require.NoError(t, err)
	assert.Equal(t, "Abebe Kebede", bid.BidderName)
}

func TestPlaceBidUnknownBidder(t *testing.T) {
	env := newTestEnv()

	_, _, err := env.handler.PlaceBid(context.Background(), PlaceBid{
		AuctionID: "auc-1", BidderID: "ghost", Amount: 100,
	})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

// settleAuction runs an auction through approval, a winning bid by user-1
// and close, returning the ended auction.
func settleAuction(t *testing.T, env *testEnv, delivery string, deliveryPrice int) *auction.Auction {
	t.Helper()

	a, err := env.handler.CreateAuction(context.Background(), CreateAuction{
		MerchantID:    "merch-1",
		Title:         "Vintage Radio",
		Condition:     "used",
		StartingPrice: 1000,
		ReservedPrice: 1000,
		BidIncrement:  100,
		Delivery:      delivery,
		DeliveryPrice: deliveryPrice,
		StartTime:     env.clock.Now().Add(-time.Minute),
		EndTime:       env.clock.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = env.handler.ReviewAuction(context.Background(), ReviewAuction{AuctionID: a.ID, AdminID: "admin-1", Approve: true})
	require.NoError(t, err)
	_, err = env.handler.auctionSvc.Activate(context.Background(), a.ID)
	require.NoError(t, err)
	_, _, err = env.handler.PlaceBid(context.Background(), PlaceBid{AuctionID: a.ID, BidderID: "user-1", Amount: 1200})
	require.NoError(t, err)

	env.clock.Advance(2 * time.Hour)
	ended, err := env.handler.auctionSvc.Close(context.Background(), a.ID)
	require.NoError(t, err)
	return ended
}

func TestCheckoutAuction(t *testing.T) {
	env := newTestEnv()
	env.seedMerchant("merch-1")
	env.seedBuyer("user-1")

	a := settleAuction(t, env, "PAID", 75)

	o, err := env.handler.CheckoutAuction(context.Background(), CheckoutAuction{
		CustomerID:     "user-1",
		AuctionID:      a.ID,
		TransactionRef: "tx-auction-1",
		Coordinates:    [2]float64{38.7578, 9.0301},
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, o.Auction.AuctionID)
	assert.Equal(t, 1200+75, o.TotalPrice)
}

func TestCheckoutAuctionOnlyWinner(t *testing.T) {
	env := newTestEnv()
	env.seedMerchant("merch-1")
	env.seedBuyer("user-1")
	env.seedBuyer("user-2")

	a := settleAuction(t, env, "FREE", 0)

	_, err := env.handler.CheckoutAuction(context.Background(), CheckoutAuction{
		CustomerID:     "user-2",
		AuctionID:      a.ID,
		TransactionRef: "tx-auction-2",
		Coordinates:    [2]float64{38.7578, 9.0301},
	})
	assert.ErrorIs(t, err, ErrNotAuctionWinner)
}

func TestCreateAdFromProduct(t *testing.T) {
	env := newTestEnv()
	env.readStore.SetData(readmodel.Products, "prod-1", &readmodel.ProductReadModel{
		ID: "prod-1", MerchantID: "merch-1", Name: "Coffee Beans",
		Images:      []string{"https://img.example/coffee.jpg"},
		Coordinates: [2]float64{38.7578, 9.0301},
	})

	a, err := env.handler.CreateAd(context.Background(), CreateAd{
		MerchantID:     "merch-1",
		ProductID:      "prod-1",
		Price:          500,
		TransactionRef: "tx-ad-1",
		StartsAt:       time.Now(),
		EndsAt:         time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Coffee Beans", a.ProductName)
	assert.Equal(t, "Addis Ababa", a.Region, "region resolved from product coordinates")
}

func TestCreateAdRequiresOwnership(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("prod-1", "merch-1", 100, 5)

	_, err := env.handler.CreateAd(context.Background(), CreateAd{
		MerchantID:     "merch-2",
		ProductID:      "prod-1",
		Price:          500,
		TransactionRef: "tx-ad-1",
		StartsAt:       time.Now(),
		EndsAt:         time.Now().Add(24 * time.Hour),
	})
	assert.ErrorIs(t, err, product.ErrNotOwner)
}

func TestConfirmAdPayment(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("prod-1", "merch-1", 100, 5)
	env.gateway.verifyPaid = true
	env.gateway.verifyRef = "chapa-ad-ref"

	a, err := env.handler.CreateAd(context.Background(), CreateAd{
		MerchantID:     "merch-1",
		ProductID:      "prod-1",
		Price:          500,
		TransactionRef: "tx-ad-1",
		StartsAt:       time.Now(),
		EndsAt:         time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	confirmed, err := env.handler.ConfirmAdPayment(context.Background(), ConfirmAdPayment{AdID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, ad.PaymentPaid, confirmed.Payment)
	assert.Equal(t, "chapa-ad-ref", confirmed.ChapaRef)
}
