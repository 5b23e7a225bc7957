package auction

import "time"

const (
	EventAuctionCreated   = "AuctionCreated"
	EventAuctionApproved  = "AuctionApproved"
	EventAuctionRejected  = "AuctionRejected"
	EventAuctionCancelled = "AuctionCancelled"
	EventAuctionActivated = "AuctionActivated"
	EventBidPlaced        = "BidPlaced"
	EventAuctionEnded     = "AuctionEnded"
)

type AuctionCreated struct {
	AuctionID     string    `json:"auction_id"`
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
	CreatedAt     time.Time `json:"created_at"`
}

type AuctionApproved struct {
	AuctionID  string    `json:"auction_id"`
	AdminID    string    `json:"admin_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

type AuctionRejected struct {
	AuctionID  string    `json:"auction_id"`
	AdminID    string    `json:"admin_id"`
	Reason     string    `json:"reason,omitempty"`
	RejectedAt time.Time `json:"rejected_at"`
}

type AuctionCancelled struct {
	AuctionID   string    `json:"auction_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// AuctionActivated is emitted by the sweep once an approved auction's start
// time has passed.
type AuctionActivated struct {
	AuctionID   string    `json:"auction_id"`
	ActivatedAt time.Time `json:"activated_at"`
}

// BidPlaced records an accepted bid. PreviousBidderID is set when this bid
// outbids someone else, so the notifier can tell them.
type BidPlaced struct {
	AuctionID        string    `json:"auction_id"`
	BidID            string    `json:"bid_id"`
	BidderID         string    `json:"bidder_id"`
	BidderName       string    `json:"bidder_name,omitempty"`
	Amount           int       `json:"amount"`
	PreviousBidderID string    `json:"previous_bidder_id,omitempty"`
	PlacedAt         time.Time `json:"placed_at"`
}

// AuctionEnded closes the auction. WinnerID is empty when no bid reached
// the reserved price.
type AuctionEnded struct {
	AuctionID  string    `json:"auction_id"`
	WinnerID   string    `json:"winner_id,omitempty"`
	WinnerName string    `json:"winner_name,omitempty"`
	WinningBid int       `json:"winning_bid,omitempty"`
	ReserveMet bool      `json:"reserve_met"`
	EndedAt    time.Time `json:"ended_at"`
}
