package command

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/marketplace/internal/domain/ad"
	"github.com/example/marketplace/internal/domain/auction"
	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/domain/category"
	"github.com/example/marketplace/internal/domain/inventory"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/domain/user"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/example/marketplace/internal/payment"
	"github.com/example/marketplace/internal/pricing"
	"github.com/example/marketplace/internal/readmodel"
)

var (
	ErrNotOrderParty        = errors.New("order belongs to another buyer and seller")
	ErrInvalidStatusUpdate  = errors.New("invalid status update")
	ErrMerchantDispatchOnly = errors.New("merchants can only update status to Dispatched")
	ErrAccountInactive      = errors.New("account is deactivated")
	ErrMerchantNotPayable   = errors.New("merchant is missing payout bank details")
	ErrDuplicateTransaction = errors.New("transaction reference already used")
	ErrInvalidCoordinates   = errors.New("invalid destination coordinates")
	ErrTotalMismatch        = errors.New("order total does not match server calculation")
	ErrAuctionNotSettled    = errors.New("auction has no settled winner")
	ErrNotAuctionWinner     = errors.New("only the auction winner can place this order")
	ErrMissingRefundRef     = errors.New("order has no payment reference to refund")
	ErrNothingToUpdate      = errors.New("nothing to update")
)

// StockGuard is the atomic stock gate consulted before order placement. The
// Redis implementation backs it in production.
type StockGuard interface {
	Reserve(ctx context.Context, productID string, quantity int) (bool, error)
	Release(ctx context.Context, productID string, quantity int) error
	SetStock(ctx context.Context, productID string, quantity int) error
	ClaimTransactionRef(ctx context.Context, txRef string) (bool, error)
	ReleaseTransactionRef(ctx context.Context, txRef string) error
}

// Gateway is the slice of the payment client the command side needs.
type Gateway interface {
	Verify(ctx context.Context, txRef string) (*payment.Verification, error)
	Refund(ctx context.Context, chapaRef string, amount int) error
	Transfer(ctx context.Context, req payment.TransferRequest) (string, error)
}

type Handler struct {
	productSvc   *product.Service
	cartSvc      *cart.Service
	orderSvc     *order.Service
	inventorySvc *inventory.Service
	userSvc      *user.Service
	auctionSvc   *auction.Service
	adSvc        *ad.Service
	categorySvc  *category.Service
	readStore    store.ReadStoreInterface
	stockGuard   StockGuard
	gateway      Gateway
}

func NewHandler(
	productSvc *product.Service,
	cartSvc *cart.Service,
	orderSvc *order.Service,
	inventorySvc *inventory.Service,
	userSvc *user.Service,
	auctionSvc *auction.Service,
	adSvc *ad.Service,
	categorySvc *category.Service,
	readStore store.ReadStoreInterface,
	stockGuard StockGuard,
	gateway Gateway,
) *Handler {
	return &Handler{
		productSvc:   productSvc,
		cartSvc:      cartSvc,
		orderSvc:     orderSvc,
		inventorySvc: inventorySvc,
		userSvc:      userSvc,
		auctionSvc:   auctionSvc,
		adSvc:        adSvc,
		categorySvc:  categorySvc,
		readStore:    readStore,
		stockGuard:   stockGuard,
		gateway:      gateway,
	}
}

// Read-store lookups. The command side reads projections for cross-aggregate
// checks; the aggregates themselves stay authoritative for their own state.

func (h *Handler) lookupUser(id string) (*readmodel.UserReadModel, error) {
	data, ok := h.readStore.Get(readmodel.Users, id)
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return data.(*readmodel.UserReadModel), nil
}

func (h *Handler) lookupProduct(id string) (*readmodel.ProductReadModel, error) {
	data, ok := h.readStore.Get(readmodel.Products, id)
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return data.(*readmodel.ProductReadModel), nil
}

func (h *Handler) lookupOrder(id string) (*readmodel.OrderReadModel, error) {
	data, ok := h.readStore.Get(readmodel.Orders, id)
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return data.(*readmodel.OrderReadModel), nil
}

// Products

func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	var categoryName string
	if cmd.CategoryID != "" {
		if data, ok := h.readStore.Get(readmodel.Categories, cmd.CategoryID); ok {
			categoryName = data.(*readmodel.CategoryReadModel).Name
		}
	}

	p, err := h.productSvc.Create(ctx, product.CreateParams{
		MerchantID:   cmd.MerchantID,
		Name:         cmd.Name,
		Description:  cmd.Description,
		CategoryID:   cmd.CategoryID,
		CategoryName: categoryName,
		Brand:        cmd.Brand,
		Price:        cmd.Price,
		Images:       cmd.Images,
		WeightKg:     cmd.WeightKg,
		Delivery:     cmd.Delivery,
		Location:     product.GeoPoint{Type: "Point", Coordinates: cmd.Coordinates},
		InitialStock: cmd.Stock,
	})
	if err != nil {
		return nil, err
	}

	if err := h.inventorySvc.SetStock(ctx, p.ID, cmd.Stock); err != nil {
		return nil, err
	}
	if err := h.stockGuard.SetStock(ctx, p.ID, cmd.Stock); err != nil {
		log.Printf("[Command] Failed to seed stock guard for product %s: %v", p.ID, err)
	}
	return p, nil
}

func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) (*product.Product, error) {
	p, err := h.productSvc.Update(ctx, cmd.ProductID, cmd.MerchantID, product.UpdateParams{
		Name:        cmd.Name,
		Description: cmd.Description,
		Brand:       cmd.Brand,
		Price:       cmd.Price,
		OfferPrice:  cmd.OfferPrice,
		Images:      cmd.Images,
		WeightKg:    cmd.WeightKg,
		Delivery:    cmd.Delivery,
	})
	if err != nil {
		return nil, err
	}

	if cmd.Stock != nil {
		if err := h.inventorySvc.SetStock(ctx, cmd.ProductID, *cmd.Stock); err != nil {
			return nil, err
		}
		if err := h.stockGuard.SetStock(ctx, cmd.ProductID, *cmd.Stock); err != nil {
			log.Printf("[Command] Failed to update stock guard for product %s: %v", cmd.ProductID, err)
		}
	}
	return p, nil
}

func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	return h.productSvc.Delete(ctx, cmd.ProductID, cmd.MerchantID)
}

func (h *Handler) BanProduct(ctx context.Context, cmd BanProduct) error {
	return h.productSvc.Ban(ctx, cmd.ProductID, cmd.Reason)
}

func (h *Handler) UnbanProduct(ctx context.Context, cmd UnbanProduct) error {
	return h.productSvc.Unban(ctx, cmd.ProductID)
}

func (h *Handler) ReviewProduct(ctx context.Context, cmd ReviewProduct) error {
	reviewer, err := h.lookupUser(cmd.UserID)
	if err != nil {
		return err
	}
	return h.productSvc.AddReview(ctx, cmd.ProductID, reviewer.ID, reviewer.Name, cmd.Rating, cmd.Comment)
}

// Cart

func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) error {
	p, err := h.lookupProduct(cmd.ProductID)
	if err != nil {
		return err
	}
	if p.Banned {
		return product.ErrProductBanned
	}
	return h.cartSvc.AddItem(ctx, cmd.UserID, cart.CartItem{
		ProductID:   p.ID,
		MerchantID:  p.MerchantID,
		ProductName: p.Name,
		Quantity:    cmd.Quantity,
		Price:       p.Price,
	})
}

func (h *Handler) SetCartQuantity(ctx context.Context, cmd SetCartQuantity) error {
	return h.cartSvc.SetQuantity(ctx, cmd.UserID, cmd.ProductID, cmd.Quantity)
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) error {
	return h.cartSvc.RemoveItem(ctx, cmd.UserID, cmd.ProductID)
}

func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	return h.cartSvc.Clear(ctx, cmd.UserID)
}

// Orders

// checkoutActors validates the buyer and seller and builds the order
// snapshots from their current records.
func (h *Handler) checkoutActors(customerID, merchantID string) (order.CustomerDetail, order.MerchantDetail, error) {
	var customer order.CustomerDetail
	var merchant order.MerchantDetail

	buyer, err := h.lookupUser(customerID)
	if err != nil {
		return customer, merchant, err
	}
	if !buyer.IsActive {
		return customer, merchant, ErrAccountInactive
	}
	if !buyer.EmailVerified {
		return customer, merchant, user.ErrEmailNotVerified
	}

	seller, err := h.lookupUser(merchantID)
	if err != nil {
		return customer, merchant, err
	}
	if seller.AccountName == "" || seller.AccountNumber == "" || seller.BankCode == "" {
		return customer, merchant, ErrMerchantNotPayable
	}

	customer = order.CustomerDetail{
		CustomerID: buyer.ID,
		Name:       buyer.Name,
		Phone:      buyer.Phone,
		Email:      buyer.Email,
		State:      buyer.State,
		City:       buyer.City,
	}
	merchant = order.MerchantDetail{
		MerchantID:    seller.ID,
		Name:          seller.Name,
		Email:         seller.Email,
		Phone:         seller.Phone,
		AccountName:   seller.AccountName,
		AccountNumber: seller.AccountNumber,
		BankCode:      seller.BankCode,
	}
	return customer, merchant, nil
}

func validCoordinates(c [2]float64) bool {
	if c[0] == 0 && c[1] == 0 {
		return false
	}
	return c[0] >= -180 && c[0] <= 180 && c[1] >= -90 && c[1] <= 90
}

// Checkout runs the order validation chain and places the order. Stock is
// reserved per line through the guard; a failed line rolls back the lines
// reserved before it.
func (h *Handler) Checkout(ctx context.Context, cmd Checkout) (*order.Order, error) {
	if cmd.TransactionRef == "" {
		return nil, order.ErrMissingTransactionRef
	}
	if !validCoordinates(cmd.Coordinates) {
		return nil, ErrInvalidCoordinates
	}
	if len(cmd.Lines) == 0 {
		return nil, order.ErrEmptyOrder
	}

	customer, merchant, err := h.checkoutActors(cmd.CustomerID, cmd.MerchantID)
	if err != nil {
		return nil, err
	}

	claimed, err := h.stockGuard.ClaimTransactionRef(ctx, cmd.TransactionRef)
	if err != nil {
		return nil, fmt.Errorf("claiming transaction ref: %w", err)
	}
	if !claimed {
		return nil, ErrDuplicateTransaction
	}

	lines, total, err := h.reserveLines(ctx, cmd)
	if err != nil {
		if relErr := h.stockGuard.ReleaseTransactionRef(ctx, cmd.TransactionRef); relErr != nil {
			log.Printf("[Command] Failed to release transaction ref %s: %v", cmd.TransactionRef, relErr)
		}
		return nil, err
	}

	if cmd.ExpectedTotal != 0 && cmd.ExpectedTotal != total {
		h.rollbackLines(ctx, lines)
		if relErr := h.stockGuard.ReleaseTransactionRef(ctx, cmd.TransactionRef); relErr != nil {
			log.Printf("[Command] Failed to release transaction ref %s: %v", cmd.TransactionRef, relErr)
		}
		return nil, ErrTotalMismatch
	}

	o, err := h.orderSvc.Place(ctx, order.PlaceParams{
		Customer:       customer,
		Merchant:       merchant,
		Lines:          lines,
		TotalPrice:     total,
		Location:       order.GeoPoint{Type: "Point", Coordinates: cmd.Coordinates},
		TransactionRef: cmd.TransactionRef,
	})
	if err != nil {
		h.rollbackLines(ctx, lines)
		if relErr := h.stockGuard.ReleaseTransactionRef(ctx, cmd.TransactionRef); relErr != nil {
			log.Printf("[Command] Failed to release transaction ref %s: %v", cmd.TransactionRef, relErr)
		}
		return nil, err
	}

	// Record the deduction in the durable stock ledger.
	for _, line := range lines {
		if err := h.inventorySvc.Deduct(ctx, line.ProductID, o.ID, line.Quantity); err != nil {
			log.Printf("[Command] Failed to record stock deduction for product %s on order %s: %v", line.ProductID, o.ID, err)
		}
	}

	if cmd.ClearCart {
		if err := h.cartSvc.Clear(ctx, cmd.CustomerID); err != nil {
			log.Printf("[Command] Failed to clear cart for user %s: %v", cmd.CustomerID, err)
		}
	}
	return o, nil
}

// reserveLines validates each requested line, reserves its stock and prices
// its delivery. On error the lines reserved so far are released.
func (h *Handler) reserveLines(ctx context.Context, cmd Checkout) ([]order.Line, int, error) {
	lines := make([]order.Line, 0, len(cmd.Lines))
	total := 0
	for _, req := range cmd.Lines {
		if req.Quantity <= 0 {
			h.rollbackLines(ctx, lines)
			return nil, 0, order.ErrInvalidLine
		}
		p, err := h.lookupProduct(req.ProductID)
		if err != nil {
			h.rollbackLines(ctx, lines)
			return nil, 0, err
		}
		if p.Banned {
			h.rollbackLines(ctx, lines)
			return nil, 0, fmt.Errorf("%w: %s", product.ErrProductBanned, p.Name)
		}
		if p.MerchantID != cmd.MerchantID {
			h.rollbackLines(ctx, lines)
			return nil, 0, fmt.Errorf("%w: product %s belongs to another merchant", order.ErrInvalidLine, p.ID)
		}

		ok, err := h.stockGuard.Reserve(ctx, req.ProductID, req.Quantity)
		if err != nil {
			h.rollbackLines(ctx, lines)
			return nil, 0, fmt.Errorf("reserving stock for product %s: %w", req.ProductID, err)
		}
		if !ok {
			h.rollbackLines(ctx, lines)
			return nil, 0, fmt.Errorf("%w: product %s", inventory.ErrInsufficientStock, req.ProductID)
		}

		deliveryPrice, err := pricing.DeliveryPrice(pricing.Quote{
			Mode:          pricing.DeliveryMode(p.DeliveryMode),
			BasePrice:     p.DeliveryPrice,
			Quantity:      req.Quantity,
			WeightKg:      p.WeightKg,
			KgPerBracket:  p.KgPerBracket,
			KmPerBracket:  p.KmPerBracket,
			ProductCoords: p.Coordinates,
			BuyerCoords:   cmd.Coordinates,
		})
		if err != nil {
			h.rollbackLines(ctx, lines)
			if relErr := h.stockGuard.Release(ctx, req.ProductID, req.Quantity); relErr != nil {
				log.Printf("[Command] Failed to release stock for product %s: %v", req.ProductID, relErr)
			}
			return nil, 0, err
		}

		// A running offer price takes precedence over the list price.
		unitPrice := p.Price
		if p.OfferPrice > 0 {
			unitPrice = p.OfferPrice
		}

		lines = append(lines, order.Line{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Quantity:      req.Quantity,
			Price:         unitPrice,
			Delivery:      pricing.DeliveryMode(p.DeliveryMode),
			DeliveryPrice: deliveryPrice,
			CategoryName:  p.CategoryName,
		})
		total += unitPrice*req.Quantity + deliveryPrice
	}
	return lines, total, nil
}

func (h *Handler) rollbackLines(ctx context.Context, lines []order.Line) {
	for _, line := range lines {
		if err := h.stockGuard.Release(ctx, line.ProductID, line.Quantity); err != nil {
			log.Printf("[Command] Failed to release stock for product %s: %v", line.ProductID, err)
		}
	}
}

// CheckoutAuction places the order for a won auction.
func (h *Handler) CheckoutAuction(ctx context.Context, cmd CheckoutAuction) (*order.Order, error) {
	if cmd.TransactionRef == "" {
		return nil, order.ErrMissingTransactionRef
	}
	if !validCoordinates(cmd.Coordinates) {
		return nil, ErrInvalidCoordinates
	}

	a, err := h.auctionSvc.Get(ctx, cmd.AuctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != auction.StatusEnded || a.WinnerID == "" {
		return nil, ErrAuctionNotSettled
	}
	if a.WinnerID != cmd.CustomerID {
		return nil, ErrNotAuctionWinner
	}

	customer, merchant, err := h.checkoutActors(cmd.CustomerID, a.MerchantID)
	if err != nil {
		return nil, err
	}

	claimed, err := h.stockGuard.ClaimTransactionRef(ctx, cmd.TransactionRef)
	if err != nil {
		return nil, fmt.Errorf("claiming transaction ref: %w", err)
	}
	if !claimed {
		return nil, ErrDuplicateTransaction
	}

	deliveryPrice := 0
	if a.Delivery == "PAID" {
		deliveryPrice = a.DeliveryPrice
	}

	o, err := h.orderSvc.Place(ctx, order.PlaceParams{
		Customer: customer,
		Merchant: merchant,
		Auction: &order.AuctionRef{
			AuctionID:     a.ID,
			Delivery:      a.Delivery,
			DeliveryPrice: deliveryPrice,
		},
		TotalPrice:     a.WinningBid + deliveryPrice,
		Location:       order.GeoPoint{Type: "Point", Coordinates: cmd.Coordinates},
		TransactionRef: cmd.TransactionRef,
	})
	if err != nil {
		if relErr := h.stockGuard.ReleaseTransactionRef(ctx, cmd.TransactionRef); relErr != nil {
			log.Printf("[Command] Failed to release transaction ref %s: %v", cmd.TransactionRef, relErr)
		}
		return nil, err
	}
	return o, nil
}

// UpdateOrder applies the role-gated mutation rules: the buyer may edit
// shipping details while Pending, mark the order Received and confirm
// payment; the seller may only mark it Dispatched.
func (h *Handler) UpdateOrder(ctx context.Context, cmd UpdateOrder) (*order.Order, error) {
	rm, err := h.lookupOrder(cmd.OrderID)
	if err != nil {
		return nil, err
	}

	switch cmd.ActorID {
	case rm.CustomerID:
		return h.updateOrderAsBuyer(ctx, cmd)
	case rm.MerchantID:
		return h.updateOrderAsSeller(ctx, cmd)
	default:
		return nil, ErrNotOrderParty
	}
}

func (h *Handler) updateOrderAsBuyer(ctx context.Context, cmd UpdateOrder) (*order.Order, error) {
	var o *order.Order
	var err error
	applied := false

	if cmd.Shipping != nil {
		o, err = h.orderSvc.UpdateShipping(ctx, cmd.OrderID, order.ShippingUpdate{
			Name:  cmd.Shipping.Name,
			Phone: cmd.Shipping.Phone,
			Email: cmd.Shipping.Email,
			State: cmd.Shipping.State,
			City:  cmd.Shipping.City,
		})
		if err != nil {
			return nil, err
		}
		applied = true
	}

	if cmd.Status != "" {
		if cmd.Status != string(order.StatusReceived) {
			return nil, fmt.Errorf("%w: buyers may only set status to %s", ErrInvalidStatusUpdate, order.StatusReceived)
		}
		o, err = h.orderSvc.Receive(ctx, cmd.OrderID)
		if err != nil {
			return nil, err
		}
		applied = true
	}

	if cmd.PaymentStatus != "" {
		if cmd.PaymentStatus != string(order.PaymentPaid) {
			return nil, fmt.Errorf("%w: buyers may only set payment status to %s", ErrInvalidStatusUpdate, order.PaymentPaid)
		}
		o, err = h.orderSvc.ConfirmPayment(ctx, cmd.OrderID, cmd.ChapaRef)
		if err != nil {
			return nil, err
		}
		applied = true
	}

	if !applied {
		return nil, ErrNothingToUpdate
	}
	return o, nil
}

func (h *Handler) updateOrderAsSeller(ctx context.Context, cmd UpdateOrder) (*order.Order, error) {
	if cmd.Shipping != nil || cmd.PaymentStatus != "" || cmd.Status != string(order.StatusDispatched) {
		return nil, ErrMerchantDispatchOnly
	}
	return h.orderSvc.Dispatch(ctx, cmd.OrderID)
}

// DeleteOrder removes the buyer's own pending order and restores its stock.
func (h *Handler) DeleteOrder(ctx context.Context, cmd DeleteOrder) error {
	rm, err := h.lookupOrder(cmd.OrderID)
	if err != nil {
		return err
	}
	if rm.CustomerID != cmd.ActorID {
		return ErrNotOrderParty
	}

	o, err := h.orderSvc.Delete(ctx, cmd.OrderID)
	if err != nil {
		return err
	}

	for _, line := range o.Lines {
		if err := h.inventorySvc.Restore(ctx, line.ProductID, o.ID, line.Quantity); err != nil {
			log.Printf("[Command] Failed to restore stock for product %s on order %s: %v", line.ProductID, o.ID, err)
		}
		if err := h.stockGuard.Release(ctx, line.ProductID, line.Quantity); err != nil {
			log.Printf("[Command] Failed to release stock guard for product %s: %v", line.ProductID, err)
		}
	}
	if err := h.stockGuard.ReleaseTransactionRef(ctx, o.TransactionRef); err != nil {
		log.Printf("[Command] Failed to release transaction ref %s: %v", o.TransactionRef, err)
	}
	return nil
}

func (h *Handler) RequestRefund(ctx context.Context, cmd RequestRefund) (*order.Order, error) {
	rm, err := h.lookupOrder(cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if rm.CustomerID != cmd.ActorID {
		return nil, ErrNotOrderParty
	}
	return h.orderSvc.RequestRefund(ctx, cmd.OrderID, cmd.Reason, cmd.Description)
}

// CompleteRefund executes the refund with the gateway, then settles the
// order. Admin only; the caller enforces the role.
func (h *Handler) CompleteRefund(ctx context.Context, cmd CompleteRefund) (*order.Order, error) {
	o, err := h.orderSvc.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != order.PaymentPendingRefund {
		return nil, fmt.Errorf("%w: cannot refund while %s", order.ErrInvalidPayment, o.PaymentStatus)
	}
	ref := o.ChapaRef
	if ref == "" {
		ref = o.TransactionRef
	}
	if ref == "" {
		return nil, ErrMissingRefundRef
	}
	if err := h.gateway.Refund(ctx, ref, o.TotalPrice); err != nil {
		return nil, fmt.Errorf("refunding order %s: %w", cmd.OrderID, err)
	}
	return h.orderSvc.CompleteRefund(ctx, cmd.OrderID)
}

// PayMerchant transfers the order total to the seller's bank account and
// records the payout. Admin only; the caller enforces the role.
func (h *Handler) PayMerchant(ctx context.Context, cmd PayMerchant) (*order.Order, error) {
	o, err := h.orderSvc.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != order.PaymentPaid {
		return nil, fmt.Errorf("%w: cannot pay merchant while %s", order.ErrInvalidPayment, o.PaymentStatus)
	}
	reference, err := h.gateway.Transfer(ctx, payment.TransferRequest{
		AccountName:   o.Merchant.AccountName,
		AccountNumber: o.Merchant.AccountNumber,
		BankCode:      o.Merchant.BankCode,
		Amount:        o.TotalPrice,
		Reason:        "order " + o.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("paying merchant for order %s: %w", cmd.OrderID, err)
	}
	return h.orderSvc.PayMerchant(ctx, cmd.OrderID, reference)
}

// Auctions

func (h *Handler) CreateAuction(ctx context.Context, cmd CreateAuction) (*auction.Auction, error) {
	merchant, err := h.lookupUser(cmd.MerchantID)
	if err != nil {
		return nil, err
	}
	return h.auctionSvc.Create(ctx, auction.CreateParams{
		MerchantID:    merchant.ID,
		MerchantName:  merchant.Name,
		Title:         cmd.Title,
		Description:   cmd.Description,
		CategoryID:    cmd.CategoryID,
		Condition:     cmd.Condition,
		Images:        cmd.Images,
		StartingPrice: cmd.StartingPrice,
		ReservedPrice: cmd.ReservedPrice,
		BidIncrement:  cmd.BidIncrement,
		Delivery:      cmd.Delivery,
		DeliveryPrice: cmd.DeliveryPrice,
		StartTime:     cmd.StartTime,
		EndTime:       cmd.EndTime,
	})
}

func (h *Handler) ReviewAuction(ctx context.Context, cmd ReviewAuction) (*auction.Auction, error) {
	if cmd.Approve {
		return h.auctionSvc.Approve(ctx, cmd.AuctionID, cmd.AdminID)
	}
	return h.auctionSvc.Reject(ctx, cmd.AuctionID, cmd.AdminID, cmd.Reason)
}

func (h *Handler) CancelAuction(ctx context.Context, cmd CancelAuction) (*auction.Auction, error) {
	return h.auctionSvc.Cancel(ctx, cmd.AuctionID, cmd.MerchantID)
}

// PlaceBid validates and records a bid. The bid amount floor and the outbid
// bookkeeping live in the auction aggregate.
func (h *Handler) PlaceBid(ctx context.Context, cmd PlaceBid) (*auction.Auction, *auction.Bid, error) {
	bidder, err := h.lookupUser(cmd.BidderID)
	if err != nil {
		return nil, nil, err
	}
	if !bidder.IsActive {
		return nil, nil, ErrAccountInactive
	}
	return h.auctionSvc.PlaceBid(ctx, cmd.AuctionID, bidder.ID, bidder.Name, cmd.Amount)
}

// Advertisements

func (h *Handler) CreateAd(ctx context.Context, cmd CreateAd) (*ad.Ad, error) {
	p, err := h.lookupProduct(cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if p.MerchantID != cmd.MerchantID {
		return nil, product.ErrNotOwner
	}

	var image string
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	return h.adSvc.Create(ctx, ad.CreateParams{
		MerchantID:     cmd.MerchantID,
		ProductID:      p.ID,
		ProductName:    p.Name,
		Image:          image,
		Coordinates:    p.Coordinates,
		Price:          cmd.Price,
		TransactionRef: cmd.TransactionRef,
		StartsAt:       cmd.StartsAt,
		EndsAt:         cmd.EndsAt,
	})
}

func (h *Handler) ReviewAd(ctx context.Context, cmd ReviewAd) (*ad.Ad, error) {
	if cmd.Approve {
		return h.adSvc.Approve(ctx, cmd.AdID, cmd.AdminID)
	}
	return h.adSvc.Reject(ctx, cmd.AdID, cmd.AdminID, cmd.Reason)
}

// ConfirmAdPayment asks the gateway whether the ad's transaction went
// through and records the outcome either way.
func (h *Handler) ConfirmAdPayment(ctx context.Context, cmd ConfirmAdPayment) (*ad.Ad, error) {
	a, err := h.adSvc.Get(ctx, cmd.AdID)
	if err != nil {
		return nil, err
	}
	v, err := h.gateway.Verify(ctx, a.TransactionRef)
	if err != nil {
		return nil, fmt.Errorf("verifying ad transaction %s: %w", a.TransactionRef, err)
	}
	return h.adSvc.ResolvePayment(ctx, cmd.AdID, v.Paid, v.Reference)
}

// Categories

func (h *Handler) CreateCategory(ctx context.Context, cmd CreateCategory) (*category.Category, error) {
	return h.categorySvc.Create(ctx, cmd.Name, cmd.Slug, cmd.Description, cmd.Image)
}

func (h *Handler) UpdateCategory(ctx context.Context, cmd UpdateCategory) error {
	return h.categorySvc.Update(ctx, cmd.CategoryID, cmd.Name, cmd.Slug, cmd.Description, cmd.Image)
}

func (h *Handler) DeleteCategory(ctx context.Context, cmd DeleteCategory) error {
	return h.categorySvc.Delete(ctx, cmd.CategoryID)
}
