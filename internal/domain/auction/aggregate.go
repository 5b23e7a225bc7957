package auction

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

const AggregateType = "Auction"

// Status is the auction lifecycle; approval is tracked separately because a
// pending auction can already be rejected before it ever opens.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
	StatusCancelled Status = "cancelled"
)

type Approval string

const (
	ApprovalPending  Approval = "pending"
	ApprovalApproved Approval = "approved"
	ApprovalRejected Approval = "rejected"
)

// Bid statuses as seen in the bid ledger.
const (
	BidActive = "active"
	BidOutbid = "outbid"
	BidWon    = "won"
)

var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrInvalidTitle      = errors.New("title is required")
	ErrInvalidCondition  = errors.New("condition must be new or used")
	ErrInvalidPrices     = errors.New("starting price and bid increment must be positive")
	ErrInvalidReserve    = errors.New("reserved price cannot be below starting price")
	ErrInvalidTimes      = errors.New("end time must be after start time and in the future")
	ErrInvalidDelivery   = errors.New("delivery must be PAID or FREE")
	ErrNotOwner          = errors.New("auction belongs to another merchant")
	ErrNotPendingAuction = errors.New("auction approval already decided")
	ErrNotActive         = errors.New("auction is not active")
	ErrHasBids           = errors.New("auction with bids cannot be cancelled")
	ErrNotApproved       = errors.New("auction has not been approved")
	ErrNotStarted        = errors.New("auction start time has not passed")
	ErrNotOverYet        = errors.New("auction end time has not passed")
	ErrBidTooLow         = errors.New("bid is below the minimum accepted amount")
	ErrSelfBid           = errors.New("merchant cannot bid on their own auction")
	ErrAlreadyEnded      = errors.New("auction already ended")
)

// Bid is one entry in the auction's ledger. A bidder holds at most one
// entry; re-bidding replaces it.
type Bid struct {
	ID         string    `json:"id"`
	BidderID   string    `json:"bidder_id"`
	BidderName string    `json:"bidder_name,omitempty"`
	Amount     int       `json:"amount"`
	Status     string    `json:"status"`
	PlacedAt   time.Time `json:"placed_at"`
}

type Auction struct {
	ID            string    `json:"id"`
	MerchantID    string    `json:"merchant_id"`
	MerchantName  string    `json:"merchant_name,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	CategoryID    string    `json:"category_id,omitempty"`
	Condition     string    `json:"condition"`
	Images        []string  `json:"images,omitempty"`
	StartingPrice int       `json:"starting_price"`
	ReservedPrice int       `json:"reserved_price"`
	BidIncrement  int       `json:"bid_increment"`
	Delivery      string    `json:"delivery"`
	DeliveryPrice int       `json:"delivery_price,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        Status    `json:"status"`
	Approval      Approval  `json:"approval"`
	RejectReason  string    `json:"reject_reason,omitempty"`
	Bids          []Bid     `json:"bids"`
	WinnerID      string    `json:"winner_id,omitempty"`
	WinningBid    int       `json:"winning_bid,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"version"`
}

func (a *Auction) GetID() string    { return a.ID }
func (a *Auction) GetVersion() int  { return a.Version }
func (a *Auction) SetVersion(v int) { a.Version = v }

// HighestBid returns the current leading bid, or nil when there are none.
func (a *Auction) HighestBid() *Bid {
	var highest *Bid
	for i := range a.Bids {
		if a.Bids[i].Status == BidOutbid {
			continue
		}
		if highest == nil || a.Bids[i].Amount > highest.Amount {
			highest = &a.Bids[i]
		}
	}
	return highest
}

// MinimumBid is the smallest amount the next bid must reach.
func (a *Auction) MinimumBid() int {
	if highest := a.HighestBid(); highest != nil {
		return highest.Amount + a.BidIncrement
	}
	return a.StartingPrice + a.BidIncrement
}

// ApplyEvent applies a single event to the auction state
func (a *Auction) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventAuctionCreated:
		var data AuctionCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.ID = data.AuctionID
		a.MerchantID = data.MerchantID
		a.MerchantName = data.MerchantName
		a.Title = data.Title
		a.Description = data.Description
		a.CategoryID = data.CategoryID
		a.Condition = data.Condition
		a.Images = data.Images
		a.StartingPrice = data.StartingPrice
		a.ReservedPrice = data.ReservedPrice
		a.BidIncrement = data.BidIncrement
		a.Delivery = data.Delivery
		a.DeliveryPrice = data.DeliveryPrice
		a.StartTime = data.StartTime
		a.EndTime = data.EndTime
		a.Status = StatusPending
		a.Approval = ApprovalPending
		a.CreatedAt = data.CreatedAt
		a.UpdatedAt = data.CreatedAt
	case EventAuctionApproved:
		var data AuctionApproved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Approval = ApprovalApproved
		a.UpdatedAt = data.ApprovedAt
	case EventAuctionRejected:
		var data AuctionRejected
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Approval = ApprovalRejected
		a.RejectReason = data.Reason
		a.Status = StatusCancelled
		a.UpdatedAt = data.RejectedAt
	case EventAuctionCancelled:
		var data AuctionCancelled
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Status = StatusCancelled
		a.UpdatedAt = data.CancelledAt
	case EventAuctionActivated:
		var data AuctionActivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Status = StatusActive
		a.UpdatedAt = data.ActivatedAt
	case EventBidPlaced:
		var data BidPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.applyBid(data)
	case EventAuctionEnded:
		var data AuctionEnded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Status = StatusEnded
		a.WinnerID = data.WinnerID
		a.WinningBid = data.WinningBid
		for i := range a.Bids {
			if data.ReserveMet && a.Bids[i].BidderID == data.WinnerID {
				a.Bids[i].Status = BidWon
			}
		}
		a.UpdatedAt = data.EndedAt
	}
	a.Version = event.Version
	return nil
}

func (a *Auction) applyBid(data BidPlaced) {
	// Existing bids by anyone else lose the lead; a re-bid by the same
	// bidder replaces their entry.
	replaced := false
	for i := range a.Bids {
		if a.Bids[i].BidderID == data.BidderID {
			a.Bids[i].Amount = data.Amount
			a.Bids[i].Status = BidActive
			a.Bids[i].PlacedAt = data.PlacedAt
			replaced = true
		} else {
			a.Bids[i].Status = BidOutbid
		}
	}
	if !replaced {
		a.Bids = append(a.Bids, Bid{
			ID:         data.BidID,
			BidderID:   data.BidderID,
			BidderName: data.BidderName,
			Amount:     data.Amount,
			Status:     BidActive,
			PlacedAt:   data.PlacedAt,
		})
	}
	a.UpdatedAt = data.PlacedAt
}

type Service struct {
	eventStore store.EventStoreInterface
	now        func() time.Time
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es, now: time.Now}
}

// NewServiceWithClock injects the time source used for window checks.
func NewServiceWithClock(es store.EventStoreInterface, now func() time.Time) *Service {
	return &Service{eventStore: es, now: now}
}

func (s *Service) load(ctx context.Context, auctionID string) (*Auction, error) {
	a, found, err := aggregate.Load(ctx, s.eventStore, auctionID, func() *Auction {
		return &Auction{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrAuctionNotFound
	}
	return a, nil
}

// Get returns the current auction state.
func (s *Service) Get(ctx context.Context, auctionID string) (*Auction, error) {
	return s.load(ctx, auctionID)
}

type CreateParams struct {
	MerchantID    string
	MerchantName  string
	Title         string
	Description   string
	CategoryID    string
	Condition     string
	Images        []string
	StartingPrice int
	ReservedPrice int
	BidIncrement  int
	Delivery      string
	DeliveryPrice int
	StartTime     time.Time
	EndTime       time.Time
}

// Create registers a new auction awaiting admin approval.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Auction, error) {
	if p.Title == "" {
		return nil, ErrInvalidTitle
	}
	if p.Condition != "new" && p.Condition != "used" {
		return nil, ErrInvalidCondition
	}
	if p.StartingPrice <= 0 || p.BidIncrement <= 0 {
		return nil, ErrInvalidPrices
	}
	if p.ReservedPrice < p.StartingPrice {
		return nil, ErrInvalidReserve
	}
	now := s.now()
	if !p.EndTime.After(p.StartTime) || !p.EndTime.After(now) {
		return nil, ErrInvalidTimes
	}
	if p.Delivery != "PAID" && p.Delivery != "FREE" {
		return nil, ErrInvalidDelivery
	}

	auctionID := uuid.New().String()

	event := AuctionCreated{
		AuctionID:     auctionID,
		MerchantID:    p.MerchantID,
		MerchantName:  p.MerchantName,
		Title:         p.Title,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		Condition:     p.Condition,
		Images:        p.Images,
		StartingPrice: p.StartingPrice,
		ReservedPrice: p.ReservedPrice,
		BidIncrement:  p.BidIncrement,
		Delivery:      p.Delivery,
		DeliveryPrice: p.DeliveryPrice,
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		CreatedAt:     now,
	}

	storedEvent, err := s.eventStore.Append(ctx, auctionID, AggregateType, EventAuctionCreated, event)
	if err != nil {
		return nil, err
	}

	a := &Auction{}
	if err := a.ApplyEvent(*storedEvent); err != nil {
		return nil, err
	}
	return a, nil
}

// Approve opens an auction for bidding once its start time passes.
func (s *Service) Approve(ctx context.Context, auctionID, adminID string) (*Auction, error) {
	a, err := s.load(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Approval != ApprovalPending {
		return nil, ErrNotPendingAuction
	}

	event := AuctionApproved{
		AuctionID:  auctionID,
		AdminID:    adminID,
		ApprovedAt: s.now(),
	}
	storedEvent, err := s.eventStore.Append(ctx, auctionID, AggregateType, EventAuctionApproved, event)
	if err != nil {
		return nil, err
	}
	_ = a.ApplyEvent(*storedEvent)
	s.maybeSnapshot(ctx, a)
	return a, nil
}

// Reject declines a pending auction with an optional reason.
func (s *Service) Reject(ctx context.Context, auctionID, adminID, reason string) (*Auction, error) {
	a, err := s.load(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Approval != ApprovalPending {
		return nil, ErrNotPendingAuction
	}

	event := AuctionRejected{
		AuctionID:  auctionID,
		AdminID:    adminID,
		Reason:     reason,
		RejectedAt: s.now(),
	}
	storedEvent, err := s.eventStore.Append(ctx, auctionID, AggregateType, EventAuctionRejected, event)
	if err != nil {
		return nil, err
	}
	_ = a.ApplyEvent(*storedEvent)
	s.maybeSnapshot(ctx, a)
	return a, nil
}

// Cancel lets the owning merchant withdraw an auction that has no bids yet.
func (s *Service) Cancel(ctx context.Context, auctionID, merchantID string) (*Auction, error) {
	a, err := s.load(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.MerchantID != merchantID {
		return nil, ErrNotOwner
	}
	if a.Status == StatusEnded {
		return nil, ErrAlreadyEnded
	}
	if len(a.Bids) > 0 {
		return nil, ErrHasBids
	}

	event := AuctionCancelled{
		AuctionID:   auctionID,
		CancelledAt: s.now(),
	}
	storedEvent, err := s.eventStore.Append(ctx, auctionID, AggregateType, EventAuctionCancelled, event)
	if err != nil {
		return nil, err
	}
	_ = a.ApplyEvent(*storedEvent)
	s.maybeSnapshot(ctx, a)
	return a, nil
}

// Activate opens an approved auction whose start time has passed. Called by
// the sweep worker.
func (s *Service) Activate(ctx context.Context, auctionID string) (*Auction, error) {
	a, err := s.load(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPending {
		return nil, fmt.Errorf("%w: auction is %s", ErrNotActive, a.Status)
	}
	if a.Approval != ApprovalApproved {
		return nil, ErrNotApproved
	}
	if s.now().Before(a.StartTime) {
		return nil, ErrNotStarted
	}

	event := AuctionActivated{
		AuctionID:   auctionID,
		ActivatedAt: s.now(),
	}
	storedEvent, err := s.eventStore.Append(ctx, auctionID, AggregateType, EventAuctionActivated, event)
	if err != nil {
		return nil, err
	}
	_ = a.ApplyEvent(*storedEvent)
	s.maybeSnapshot(ctx, a)
	return a, nil
}

// PlaceBid validates and records a bid. Acceptance is decided here, not by
// the client: the auction must be active and within its window, and the
// amount must reach the current highest (or starting price) plus the
// increment.
func (s *Service) PlaceBid(ctx context.Context, auctionID, bidderID, bidderName string, amount int) (*Auction, *Bid, error) {
	a, err := s.load(ctx, auctionID)
	if err != nil {
		return nil, nil, err
	}
	if a.MerchantID == bidderID {
		return nil, nil, ErrSelfBid
	}
	now := s.now()
	if a.Status != StatusActive || now.After(a.EndTime) {
		return nil, nil, ErrNotActive
	}
	min := a.MinimumBid()
	if amount < min {
		return nil, nil, fmt.Errorf("%w: minimum is %d", ErrBidTooLow, min)
	}

	var previousBidder string
	if highest := a.HighestBid(); highest != nil && highest.BidderID != bidderID {
		previousBidder = highest.BidderID
	}

	event := BidPlaced{
		AuctionID:        auctionID,
		BidID:            uuid.New().String(),
		BidderID:         bidderID,
		BidderName:       bidderName,
		Amount:           amount,
		PreviousBidderID: previousBidder,
		PlacedAt:         now,
	}
	storedEvent, err := s.eventStore.Append(ctx, auctionID, AggregateType, EventBidPlaced, event)
	if err != nil {
		return nil, nil, err
	}
	_ = a.ApplyEvent(*storedEvent)
	s.maybeSnapshot(ctx, a)

	for i := range a.Bids {
		if a.Bids[i].BidderID == bidderID {
			return a, &a.Bids[i], nil
		}
	}
	return a, nil, nil
}

// Close ends an auction whose end time has passed and settles the winner.
// The reserve must be met for the highest bidder to win.
func (s *Service) Close(ctx context.Context, auctionID string) (*Auction, error) {
	a, err := s.load(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusEnded {
		return nil, ErrAlreadyEnded
	}
	if a.Status != StatusActive {
		return nil, ErrNotActive
	}
	if s.now().Before(a.EndTime) {
		return nil, ErrNotOverYet
	}

	event := AuctionEnded{
		AuctionID: auctionID,
		EndedAt:   s.now(),
	}
	if highest := a.HighestBid(); highest != nil && highest.Amount >= a.ReservedPrice {
		event.WinnerID = highest.BidderID
		event.WinnerName = highest.BidderName
		event.WinningBid = highest.Amount
		event.ReserveMet = true
	}

	storedEvent, err := s.eventStore.Append(ctx, auctionID, AggregateType, EventAuctionEnded, event)
	if err != nil {
		return nil, err
	}
	_ = a.ApplyEvent(*storedEvent)
	s.maybeSnapshot(ctx, a)
	return a, nil
}

func (s *Service) maybeSnapshot(ctx context.Context, a *Auction) {
	if err := aggregate.MaybeSnapshot(ctx, s.eventStore, a, AggregateType); err != nil {
		log.Printf("[Auction] Failed to create snapshot for auction %s: %v", a.ID, err)
	}
}
