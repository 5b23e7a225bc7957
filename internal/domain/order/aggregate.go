package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/marketplace/internal/domain/aggregate"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Order"

// Status is the fulfillment state. Transitions are forward-only.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusDispatched Status = "Dispatched"
	StatusReceived   Status = "Received"
)

// PaymentStatus tracks the money side of an order independently of
// fulfillment.
type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "Pending"
	PaymentPaid           PaymentStatus = "Paid"
	PaymentPaidToMerchant PaymentStatus = "Paid To Merchant"
	PaymentPendingRefund  PaymentStatus = "Pending Refund"
	PaymentRefunded       PaymentStatus = "Refunded"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrEmptyOrder            = errors.New("order must contain either products or an auction")
	ErrMixedOrder            = errors.New("order cannot contain both products and an auction")
	ErrInvalidTotal          = errors.New("total price must be positive")
	ErrInvalidLine           = errors.New("line item quantity must be positive")
	ErrInvalidDeliveryMode   = errors.New("invalid delivery mode")
	ErrMissingTransactionRef = errors.New("transaction reference is required")
	ErrMissingChapaRef       = errors.New("gateway reference is required to confirm payment")
	ErrMissingRefundReason   = errors.New("refund reason is required")
	ErrInvalidStatus         = errors.New("invalid order status transition")
	ErrAlreadyDispatched     = errors.New("order already dispatched, please contact the merchant")
	ErrInvalidPayment        = errors.New("invalid payment status transition")
	ErrOrderDeleted          = errors.New("order has been deleted")
	ErrNotPending            = errors.New("only pending orders can be deleted")
)

// validStatusTransitions defines the forward-only fulfillment chain. A buyer
// may confirm receipt directly from Pending when they pick the goods up
// themselves.
var validStatusTransitions = map[Status][]Status{
	StatusPending:    {StatusDispatched, StatusReceived},
	StatusDispatched: {StatusReceived},
	StatusReceived:   {},
}

// validPaymentTransitions covers the payout path and the refund side branch.
var validPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:        {PaymentPaid, PaymentPendingRefund},
	PaymentPaid:           {PaymentPaidToMerchant, PaymentPendingRefund},
	PaymentPendingRefund:  {PaymentRefunded},
	PaymentPaidToMerchant: {},
	PaymentRefunded:       {},
}

type Order struct {
	ID                string         `json:"id"`
	Customer          CustomerDetail `json:"customer"`
	Merchant          MerchantDetail `json:"merchant"`
	Lines             []Line         `json:"lines"`
	Auction           *AuctionRef    `json:"auction,omitempty"`
	TotalPrice        int            `json:"total_price"`
	Status            Status         `json:"status"`
	PaymentStatus     PaymentStatus  `json:"payment_status"`
	Location          GeoPoint       `json:"location"`
	TransactionRef    string         `json:"transaction_ref"`
	ChapaRef          string         `json:"chapa_ref,omitempty"`
	RefundReason      string         `json:"refund_reason,omitempty"`
	RefundDescription string         `json:"refund_description,omitempty"`
	Deleted           bool           `json:"deleted,omitempty"`
	PlacedAt          time.Time      `json:"placed_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Version           int            `json:"version"`
}

// Aggregate interface implementation
func (o *Order) GetID() string    { return o.ID }
func (o *Order) GetVersion() int  { return o.Version }
func (o *Order) SetVersion(v int) { o.Version = v }

// CanTransitionTo checks if the order can move to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	for _, s := range validStatusTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// CanPaymentTransitionTo checks if the payment status can move to target
func (o *Order) CanPaymentTransitionTo(target PaymentStatus) bool {
	for _, s := range validPaymentTransitions[o.PaymentStatus] {
		if s == target {
			return true
		}
	}
	return false
}

func (o *Order) statusError(target Status) error {
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
}

func (o *Order) paymentError(target PaymentStatus) error {
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidPayment, o.PaymentStatus, target)
}

// ApplyEvent applies a single event to the order state
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.Customer = data.Customer
		o.Merchant = data.Merchant
		o.Lines = data.Lines
		o.Auction = data.Auction
		o.TotalPrice = data.TotalPrice
		o.Location = data.Location
		o.TransactionRef = data.TransactionRef
		o.Status = StatusPending
		o.PaymentStatus = PaymentPending
		o.PlacedAt = data.PlacedAt
		o.UpdatedAt = data.PlacedAt
	case EventShippingDetailsUpdated:
		var data ShippingDetailsUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Customer = data.Customer
		o.UpdatedAt = data.UpdatedAt
	case EventOrderDispatched:
		var data OrderDispatched
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusDispatched
		o.UpdatedAt = data.DispatchedAt
	case EventOrderReceived:
		var data OrderReceived
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusReceived
		o.UpdatedAt = data.ReceivedAt
	case EventPaymentConfirmed:
		var data PaymentConfirmed
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.PaymentStatus = PaymentPaid
		o.ChapaRef = data.ChapaRef
		o.UpdatedAt = data.PaidAt
	case EventRefundRequested:
		var data RefundRequested
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.PaymentStatus = PaymentPendingRefund
		o.RefundReason = data.Reason
		o.RefundDescription = data.Description
		o.UpdatedAt = data.RequestedAt
	case EventRefundCompleted:
		var data RefundCompleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.PaymentStatus = PaymentRefunded
		o.UpdatedAt = data.CompletedAt
	case EventMerchantPaid:
		var data MerchantPaid
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.PaymentStatus = PaymentPaidToMerchant
		o.Merchant.Reference = data.Reference
		o.UpdatedAt = data.PaidAt
	case EventOrderDeleted:
		var data OrderDeleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Deleted = true
		o.UpdatedAt = data.DeletedAt
	}
	o.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) load(ctx context.Context, orderID string) (*Order, error) {
	o, found, err := aggregate.Load(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil {
		return nil, err
	}
	if !found || o.Deleted {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// Get returns the current state of an order.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.load(ctx, orderID)
}

// PlaceParams carries everything needed to create an order. The snapshots
// are assumed to be validated against the live user records by the caller.
type PlaceParams struct {
	Customer       CustomerDetail
	Merchant       MerchantDetail
	Lines          []Line
	Auction        *AuctionRef
	TotalPrice     int
	Location       GeoPoint
	TransactionRef string
}

// Place creates an order in Pending/Pending. Exactly one of Lines or
// Auction must be set.
func (s *Service) Place(ctx context.Context, p PlaceParams) (*Order, error) {
	hasLines := len(p.Lines) > 0
	hasAuction := p.Auction != nil && p.Auction.AuctionID != ""
	if !hasLines && !hasAuction {
		return nil, ErrEmptyOrder
	}
	if hasLines && hasAuction {
		return nil, ErrMixedOrder
	}
	if p.TotalPrice <= 0 {
		return nil, ErrInvalidTotal
	}
	if p.TransactionRef == "" {
		return nil, ErrMissingTransactionRef
	}
	for _, line := range p.Lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidLine
		}
		if !line.Delivery.Valid() {
			return nil, ErrInvalidDeliveryMode
		}
	}
	if hasAuction && p.Auction.Delivery != "PAID" && p.Auction.Delivery != "FREE" {
		return nil, ErrInvalidDeliveryMode
	}

	orderID := uuid.New().String()
	now := time.Now()

	location := p.Location
	if location.Type == "" {
		location.Type = "Point"
	}

	event := OrderPlaced{
		OrderID:        orderID,
		Customer:       p.Customer,
		Merchant:       p.Merchant,
		Lines:          p.Lines,
		Auction:        p.Auction,
		TotalPrice:     p.TotalPrice,
		Location:       location,
		TransactionRef: p.TransactionRef,
		PlacedAt:       now,
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderPlaced, event)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:             orderID,
		Customer:       p.Customer,
		Merchant:       p.Merchant,
		Lines:          p.Lines,
		Auction:        p.Auction,
		TotalPrice:     p.TotalPrice,
		Location:       location,
		TransactionRef: p.TransactionRef,
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		PlacedAt:       now,
		UpdatedAt:      now,
	}
	if storedEvent != nil {
		o.Version = storedEvent.Version
	}

	s.maybeSnapshot(ctx, o)
	return o, nil
}

// ShippingUpdate carries buyer-editable fields; empty fields keep their
// current values.
type ShippingUpdate struct {
	Name  string
	Phone string
	Email string
	State string
	City  string
}

// UpdateShipping edits the buyer snapshot. Allowed only while the order is
// still Pending.
func (s *Service) UpdateShipping(ctx context.Context, orderID string, upd ShippingUpdate) (*Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusDispatched {
		return nil, ErrAlreadyDispatched
	}
	if o.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot edit shipping details once %s", ErrInvalidStatus, o.Status)
	}

	customer := o.Customer
	if upd.Name != "" {
		customer.Name = upd.Name
	}
	if upd.Phone != "" {
		customer.Phone = upd.Phone
	}
	if upd.Email != "" {
		customer.Email = upd.Email
	}
	if upd.State != "" {
		customer.State = upd.State
	}
	if upd.City != "" {
		customer.City = upd.City
	}

	event := ShippingDetailsUpdated{
		OrderID:   orderID,
		Customer:  customer,
		UpdatedAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventShippingDetailsUpdated, event)
	if err != nil {
		return nil, err
	}

	o.Customer = customer
	if storedEvent != nil {
		o.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, o)
	return o, nil
}

// Dispatch marks the order handed to delivery. Seller-only; the caller
// enforces the role check.
func (s *Service) Dispatch(ctx context.Context, orderID string) (*Order, error) {
	return s.transition(ctx, orderID, StatusDispatched, EventOrderDispatched, OrderDispatched{
		OrderID:      orderID,
		DispatchedAt: time.Now(),
	})
}

// Receive marks the order delivered to the buyer.
func (s *Service) Receive(ctx context.Context, orderID string) (*Order, error) {
	return s.transition(ctx, orderID, StatusReceived, EventOrderReceived, OrderReceived{
		OrderID:    orderID,
		ReceivedAt: time.Now(),
	})
}

func (s *Service) transition(ctx context.Context, orderID string, target Status, eventType string, data any) (*Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanTransitionTo(target) {
		return nil, o.statusError(target)
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, eventType, data)
	if err != nil {
		return nil, err
	}

	o.Status = target
	if storedEvent != nil {
		o.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, o)
	return o, nil
}

// ConfirmPayment records a verified gateway payment against the order.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, chapaRef string) (*Order, error) {
	if chapaRef == "" {
		return nil, ErrMissingChapaRef
	}

	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanPaymentTransitionTo(PaymentPaid) {
		return nil, o.paymentError(PaymentPaid)
	}

	event := PaymentConfirmed{
		OrderID:  orderID,
		ChapaRef: chapaRef,
		PaidAt:   time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventPaymentConfirmed, event)
	if err != nil {
		return nil, err
	}

	o.PaymentStatus = PaymentPaid
	o.ChapaRef = chapaRef
	if storedEvent != nil {
		o.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, o)
	return o, nil
}

// RequestRefund puts the payment into Pending Refund until an admin
// approves it.
func (s *Service) RequestRefund(ctx context.Context, orderID, reason, description string) (*Order, error) {
	if reason == "" {
		return nil, ErrMissingRefundReason
	}

	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanPaymentTransitionTo(PaymentPendingRefund) {
		return nil, o.paymentError(PaymentPendingRefund)
	}

	event := RefundRequested{
		OrderID:     orderID,
		Reason:      reason,
		Description: description,
		RequestedAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventRefundRequested, event)
	if err != nil {
		return nil, err
	}

	o.PaymentStatus = PaymentPendingRefund
	o.RefundReason = reason
	o.RefundDescription = description
	if storedEvent != nil {
		o.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, o)
	return o, nil
}

// CompleteRefund finishes the refund side branch after the gateway refund
// succeeded.
func (s *Service) CompleteRefund(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanPaymentTransitionTo(PaymentRefunded) {
		return nil, o.paymentError(PaymentRefunded)
	}

	event := RefundCompleted{
		OrderID:     orderID,
		CompletedAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventRefundCompleted, event)
	if err != nil {
		return nil, err
	}

	o.PaymentStatus = PaymentRefunded
	if storedEvent != nil {
		o.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, o)
	return o, nil
}

// PayMerchant records the payout of the order total to the seller.
func (s *Service) PayMerchant(ctx context.Context, orderID, reference string) (*Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanPaymentTransitionTo(PaymentPaidToMerchant) {
		return nil, o.paymentError(PaymentPaidToMerchant)
	}

	event := MerchantPaid{
		OrderID:   orderID,
		Reference: reference,
		PaidAt:    time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventMerchantPaid, event)
	if err != nil {
		return nil, err
	}

	o.PaymentStatus = PaymentPaidToMerchant
	o.Merchant.Reference = reference
	if storedEvent != nil {
		o.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, o)
	return o, nil
}

// Delete removes a still-pending order. The deleted order is returned so
// the caller can restore reserved stock.
func (s *Service) Delete(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, ErrNotPending
	}

	event := OrderDeleted{
		OrderID:   orderID,
		DeletedAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderDeleted, event)
	if err != nil {
		return nil, err
	}

	o.Deleted = true
	if storedEvent != nil {
		o.Version = storedEvent.Version
	}
	return o, nil
}

func (s *Service) maybeSnapshot(ctx context.Context, o *Order) {
	if err := aggregate.MaybeSnapshot(ctx, s.eventStore, o, AggregateType); err != nil {
		log.Printf("[Order] Failed to create snapshot for order %s: %v", o.ID, err)
	}
}
