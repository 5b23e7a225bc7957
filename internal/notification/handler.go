// Package notification turns domain events into in-app notifications and
// transactional emails. It runs as its own consumer so a slow SMTP server
// never holds up the projector.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/marketplace/internal/domain/auction"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/user"
	"github.com/example/marketplace/internal/email"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/example/marketplace/internal/readmodel"
	"github.com/google/uuid"
)

// Handler processes events for sending notifications
type Handler struct {
	emailService *email.Service
	readStore    store.ReadStoreInterface
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc *email.Service, readStore store.ReadStoreInterface) *Handler {
	return &Handler{
		emailService: emailSvc,
		readStore:    readStore,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch event.EventType {
	case user.EventUserCreated:
		return h.handleUserCreated(event)
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(event)
	case order.EventOrderDispatched:
		return h.handleOrderDispatched(event)
	case order.EventRefundCompleted:
		return h.handleRefundCompleted(event)
	case auction.EventBidPlaced:
		return h.handleBidPlaced(event)
	case auction.EventAuctionEnded:
		return h.handleAuctionEnded(event)
	}

	return nil
}

func (h *Handler) handleUserCreated(event store.Event) error {
	var e user.UserCreated
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal UserCreated event: %v", err)
		return err
	}

	if e.Email == "" || e.VerifyToken == "" {
		return nil
	}

	if err := h.emailService.SendEmailVerification(e.Email, e.Name, e.UserID, e.VerifyToken); err != nil {
		log.Printf("[Notifier] Failed to send verification email to %s: %v", e.Email, err)
		return err
	}

	log.Printf("[Notifier] Verification email sent to %s", e.Email)
	return nil
}

func (h *Handler) handleOrderPlaced(event store.Event) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderPlaced for order %s, customer %s", e.OrderID, e.Customer.CustomerID)

	h.notify(e.Customer.CustomerID, "Order placed",
		fmt.Sprintf("Your order of %d item(s) totalling ETB %d has been placed.", len(e.Lines), e.TotalPrice),
		readmodel.NotificationReadModel{Type: "order", OrderID: e.OrderID})

	h.notify(e.Merchant.MerchantID, "New order received",
		fmt.Sprintf("%s placed an order totalling ETB %d.", e.Customer.Name, e.TotalPrice),
		readmodel.NotificationReadModel{Type: "order", OrderID: e.OrderID})

	if e.Customer.Email == "" {
		return nil
	}

	emailItems := make([]email.OrderItem, len(e.Lines))
	for i, line := range e.Lines {
		emailItems[i] = email.OrderItem{
			ProductID: line.ProductID,
			Name:      line.ProductName,
			Quantity:  line.Quantity,
			Price:     line.Price,
		}
	}

	if err := h.emailService.SendOrderConfirmation(e.Customer.Email, e.OrderID, e.TotalPrice, emailItems); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", e.Customer.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", e.Customer.Email, e.OrderID)
	return nil
}

func (h *Handler) handleOrderDispatched(event store.Event) error {
	var e order.OrderDispatched
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderDispatched event: %v", err)
		return err
	}

	o, ok := h.order(e.OrderID)
	if !ok {
		log.Printf("[Notifier] Order not found: %s", e.OrderID)
		return nil
	}

	h.notify(o.CustomerID, "Order dispatched",
		fmt.Sprintf("Your order #%s is on its way.", shortID(e.OrderID)),
		readmodel.NotificationReadModel{Type: "order", OrderID: e.OrderID})
	return nil
}

func (h *Handler) handleRefundCompleted(event store.Event) error {
	var e order.RefundCompleted
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal RefundCompleted event: %v", err)
		return err
	}

	o, ok := h.order(e.OrderID)
	if !ok {
		log.Printf("[Notifier] Order not found: %s", e.OrderID)
		return nil
	}

	h.notify(o.CustomerID, "Refund processed",
		fmt.Sprintf("Your refund of ETB %d for order #%s has been processed.", o.Total, shortID(e.OrderID)),
		readmodel.NotificationReadModel{Type: "order", OrderID: e.OrderID})

	if o.CustomerEmail != "" {
		if err := h.emailService.SendRefundProcessed(o.CustomerEmail, e.OrderID, o.Total); err != nil {
			log.Printf("[Notifier] Failed to send refund email to %s: %v", o.CustomerEmail, err)
			return err
		}
	}
	return nil
}

func (h *Handler) handleBidPlaced(event store.Event) error {
	var e auction.BidPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal BidPlaced event: %v", err)
		return err
	}

	if e.PreviousBidderID == "" || e.PreviousBidderID == e.BidderID {
		return nil
	}

	a, ok := h.auction(e.AuctionID)
	if !ok {
		log.Printf("[Notifier] Auction not found: %s", e.AuctionID)
		return nil
	}

	h.notify(e.PreviousBidderID, "You've been outbid",
		fmt.Sprintf("Someone bid ETB %d on %q.", e.Amount, a.Title),
		readmodel.NotificationReadModel{Type: "outbid", AuctionID: e.AuctionID})

	outbidUser, ok := h.user(e.PreviousBidderID)
	if !ok || outbidUser.Email == "" {
		return nil
	}

	previousBid := 0
	if bidData, ok := h.readStore.Get(readmodel.Bids, e.AuctionID+":"+e.PreviousBidderID); ok {
		previousBid = bidData.(*readmodel.BidReadModel).Amount
	}

	if err := h.emailService.SendOutbidNotice(outbidUser.Email, a.Title, previousBid, e.Amount); err != nil {
		log.Printf("[Notifier] Failed to send outbid email to %s: %v", outbidUser.Email, err)
		return err
	}
	return nil
}

func (h *Handler) handleAuctionEnded(event store.Event) error {
	var e auction.AuctionEnded
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal AuctionEnded event: %v", err)
		return err
	}

	a, ok := h.auction(e.AuctionID)
	if !ok {
		log.Printf("[Notifier] Auction not found: %s", e.AuctionID)
		return nil
	}

	if e.WinnerID == "" {
		h.notify(a.MerchantID, "Auction ended without a winner",
			fmt.Sprintf("%q closed without meeting the reserve price.", a.Title),
			readmodel.NotificationReadModel{Type: "ending", AuctionID: e.AuctionID})
		return nil
	}

	h.notify(e.WinnerID, "You won the auction",
		fmt.Sprintf("Your bid of ETB %d won %q. Complete checkout to claim it.", e.WinningBid, a.Title),
		readmodel.NotificationReadModel{Type: "won", AuctionID: e.AuctionID})

	h.notify(a.MerchantID, "Auction sold",
		fmt.Sprintf("%q sold for ETB %d.", a.Title, e.WinningBid),
		readmodel.NotificationReadModel{Type: "ending", AuctionID: e.AuctionID})

	winner, ok := h.user(e.WinnerID)
	if !ok || winner.Email == "" {
		return nil
	}

	if err := h.emailService.SendAuctionWon(winner.Email, a.Title, e.WinningBid); err != nil {
		log.Printf("[Notifier] Failed to send auction-won email to %s: %v", winner.Email, err)
		return err
	}

	log.Printf("[Notifier] Auction-won email sent to %s for auction %s", winner.Email, e.AuctionID)
	return nil
}

// notify stores an in-app notification row for the user.
func (h *Handler) notify(userID, title, description string, base readmodel.NotificationReadModel) {
	if userID == "" {
		return
	}
	n := base
	n.ID = uuid.New().String()
	n.UserID = userID
	n.Title = title
	n.Description = description
	n.CreatedAt = time.Now()
	h.readStore.Set(readmodel.Notifications, n.ID, &n)
}

func (h *Handler) user(id string) (*readmodel.UserReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Users, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.UserReadModel), true
}

func (h *Handler) order(id string) (*readmodel.OrderReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Orders, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.OrderReadModel), true
}

func (h *Handler) auction(id string) (*readmodel.AuctionReadModel, bool) {
	data, ok := h.readStore.Get(readmodel.Auctions, id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.AuctionReadModel), true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
