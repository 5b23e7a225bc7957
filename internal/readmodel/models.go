package readmodel

import "time"

// Collection names used across the projector and query side.
const (
	Products      = "products"
	Inventory     = "inventory"
	Carts         = "carts"
	Orders        = "orders"
	Users         = "users"
	Categories    = "categories"
	Auctions      = "auctions"
	Bids          = "bids"
	Ads           = "ads"
	Notifications = "notifications"
	Sessions      = "sessions"
)

// Factories maps each collection to a constructor for its model, so the
// Postgres read store can decode JSONB rows into typed values.
func Factories() map[string]func() any {
	return map[string]func() any{
		Products:      func() any { return &ProductReadModel{} },
		Inventory:     func() any { return &InventoryReadModel{} },
		Carts:         func() any { return &CartReadModel{} },
		Orders:        func() any { return &OrderReadModel{} },
		Users:         func() any { return &UserReadModel{} },
		Categories:    func() any { return &CategoryReadModel{} },
		Auctions:      func() any { return &AuctionReadModel{} },
		Bids:          func() any { return &BidReadModel{} },
		Ads:           func() any { return &AdReadModel{} },
		Notifications: func() any { return &NotificationReadModel{} },
		Sessions:      func() any { return &SessionReadModel{} },
	}
}

// ProductReadModel is the storefront view of a product, stock included.
type ProductReadModel struct {
	ID            string     `json:"id"`
	MerchantID    string     `json:"merchant_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	CategoryID    string     `json:"category_id"`
	CategoryName  string     `json:"category_name"`
	Brand         string     `json:"brand,omitempty"`
	Price         int        `json:"price"`
	OfferPrice    int        `json:"offer_price,omitempty"`
	Stock         int        `json:"stock"`
	Images        []string   `json:"images,omitempty"`
	WeightKg      float64    `json:"weight_kg,omitempty"`
	DeliveryMode  string     `json:"delivery_mode"`
	DeliveryPrice int        `json:"delivery_price"`
	KgPerBracket  float64    `json:"kg_per_bracket,omitempty"`
	KmPerBracket  float64    `json:"km_per_bracket,omitempty"`
	Coordinates   [2]float64 `json:"coordinates"`
	Banned        bool       `json:"banned,omitempty"`
	BanReason     string     `json:"ban_reason,omitempty"`
	Rating        float64    `json:"rating,omitempty"`
	ReviewCount   int        `json:"review_count,omitempty"`

	Reviews []ProductReviewReadModel `json:"reviews,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductReviewReadModel is one buyer review as shown on the product page.
type ProductReviewReadModel struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InventoryReadModel mirrors the durable stock record.
type InventoryReadModel struct {
	ProductID string    `json:"product_id"`
	Stock     int       `json:"stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItemReadModel represents an item in the cart
type CartItemReadModel struct {
	ProductID  string `json:"product_id"`
	MerchantID string `json:"merchant_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Price      int    `json:"price"`
}

// CartReadModel is the read model for shopping cart
type CartReadModel struct {
	ID     string              `json:"id"`
	UserID string              `json:"user_id"`
	Items  []CartItemReadModel `json:"items"`
	Total  int                 `json:"total"`
}

// OrderLineReadModel is one product line as shown in order history.
type OrderLineReadModel struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Quantity      int    `json:"quantity"`
	Price         int    `json:"price"`
	Delivery      string `json:"delivery"`
	DeliveryPrice int    `json:"delivery_price"`
}

// OrderReadModel is the read model for orders. It carries both party IDs so
// the query side can list orders for buyers and sellers.
type OrderReadModel struct {
	ID             string               `json:"id"`
	CustomerID     string               `json:"customer_id"`
	CustomerName   string               `json:"customer_name"`
	CustomerPhone  string               `json:"customer_phone,omitempty"`
	CustomerEmail  string               `json:"customer_email,omitempty"`
	CustomerState  string               `json:"customer_state,omitempty"`
	CustomerCity   string               `json:"customer_city,omitempty"`
	MerchantID     string               `json:"merchant_id"`
	MerchantName   string               `json:"merchant_name"`
	Lines          []OrderLineReadModel `json:"lines,omitempty"`
	AuctionID      string               `json:"auction_id,omitempty"`
	Total          int                  `json:"total"`
	Status         string               `json:"status"`
	PaymentStatus  string               `json:"payment_status"`
	TransactionRef string               `json:"transaction_ref"`
	ChapaRef       string               `json:"chapa_ref,omitempty"`
	RefundReason   string               `json:"refund_reason,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// UserReadModel is the read model for users
type UserReadModel struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // Never expose in JSON
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Phone         string    `json:"phone,omitempty"`
	State         string    `json:"state,omitempty"`
	City          string    `json:"city,omitempty"`
	AccountName   string    `json:"account_name,omitempty"`
	AccountNumber string    `json:"account_number,omitempty"`
	BankCode      string    `json:"bank_code,omitempty"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CategoryReadModel is the read model for product categories
type CategoryReadModel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuctionReadModel is the listing view of an auction, bid summary included.
type AuctionReadModel struct {
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
	Status        string    `json:"status"`
	Approval      string    `json:"approval"`
	RejectReason  string    `json:"reject_reason,omitempty"`
	BidCount      int       `json:"bid_count"`
	HighestBid    int       `json:"highest_bid,omitempty"`
	HighestBidder string    `json:"highest_bidder,omitempty"`
	WinnerID      string    `json:"winner_id,omitempty"`
	WinningBid    int       `json:"winning_bid,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BidReadModel is one row of an auction's bid history.
type BidReadModel struct {
	ID         string    `json:"id"`
	AuctionID  string    `json:"auction_id"`
	BidderID   string    `json:"bidder_id"`
	BidderName string    `json:"bidder_name,omitempty"`
	Amount     int       `json:"amount"`
	Status     string    `json:"status"`
	PlacedAt   time.Time `json:"placed_at"`
}

// AdReadModel is the placement view of an advertisement.
type AdReadModel struct {
	ID             string    `json:"id"`
	MerchantID     string    `json:"merchant_id"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Image          string    `json:"image,omitempty"`
	Region         string    `json:"region"`
	Price          int       `json:"price"`
	TransactionRef string    `json:"transaction_ref"`
	Approval       string    `json:"approval"`
	RejectReason   string    `json:"reject_reason,omitempty"`
	Payment        string    `json:"payment"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NotificationReadModel is a user-facing notification built by the notifier.
type NotificationReadModel struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"` // bid|outbid|won|ending|order|system
	AuctionID   string    `json:"auction_id,omitempty"`
	OrderID     string    `json:"order_id,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionReadModel tracks a refresh-token session; the token itself is
// stored hashed.
type SessionReadModel struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
}
