package command

import (
	"time"

	"github.com/example/marketplace/internal/domain/product"
)

// Product commands

type CreateProduct struct {
	MerchantID  string                `json:"merchant_id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	CategoryID  string                `json:"category_id"`
	Brand       string                `json:"brand"`
	Price       int                   `json:"price"`
	Stock       int                   `json:"stock"`
	Images      []string              `json:"images"`
	WeightKg    float64               `json:"weight_kg"`
	Delivery    product.DeliveryTerms `json:"delivery"`
	Coordinates [2]float64            `json:"coordinates"`
}

type UpdateProduct struct {
	ProductID   string                 `json:"product_id"`
	MerchantID  string                 `json:"merchant_id"`
	Name        *string                `json:"name,omitempty"`
	Description *string                `json:"description,omitempty"`
	Brand       *string                `json:"brand,omitempty"`
	Price       *int                   `json:"price,omitempty"`
	OfferPrice  *int                   `json:"offer_price,omitempty"`
	Stock       *int                   `json:"stock,omitempty"`
	Images      []string               `json:"images,omitempty"`
	WeightKg    *float64               `json:"weight_kg,omitempty"`
	Delivery    *product.DeliveryTerms `json:"delivery,omitempty"`
}

type DeleteProduct struct {
	ProductID  string `json:"product_id"`
	MerchantID string `json:"merchant_id"`
}

type BanProduct struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason,omitempty"`
}

type UnbanProduct struct {
	ProductID string `json:"product_id"`
}

type ReviewProduct struct {
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// Cart commands

type AddToCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SetCartQuantity struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

type ClearCart struct {
	UserID string `json:"user_id"`
}

// Order commands

// CheckoutLine is one requested product line in a checkout.
type CheckoutLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Checkout creates an order for one merchant's products. ExpectedTotal is
// the total the client displayed; zero skips the cross-check.
type Checkout struct {
	CustomerID     string         `json:"customer_id"`
	MerchantID     string         `json:"merchant_id"`
	Lines          []CheckoutLine `json:"lines"`
	TransactionRef string         `json:"transaction_ref"`
	Coordinates    [2]float64     `json:"coordinates"`
	ExpectedTotal  int            `json:"expected_total"`
	ClearCart      bool           `json:"clear_cart"`
}

// CheckoutAuction creates an order for an auction the caller won.
type CheckoutAuction struct {
	CustomerID     string     `json:"customer_id"`
	AuctionID      string     `json:"auction_id"`
	TransactionRef string     `json:"transaction_ref"`
	Coordinates    [2]float64 `json:"coordinates"`
}

// ShippingDetail carries the buyer-editable order fields; empty fields keep
// their current values.
type ShippingDetail struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	State string `json:"state,omitempty"`
	City  string `json:"city,omitempty"`
}

// UpdateOrder is the role-gated order mutation. What the actor may change
// depends on whether they are the order's buyer or seller.
type UpdateOrder struct {
	OrderID       string          `json:"order_id"`
	ActorID       string          `json:"actor_id"`
	Status        string          `json:"status,omitempty"`
	PaymentStatus string          `json:"payment_status,omitempty"`
	ChapaRef      string          `json:"chapa_ref,omitempty"`
	Shipping      *ShippingDetail `json:"shipping,omitempty"`
}

type DeleteOrder struct {
	OrderID string `json:"order_id"`
	ActorID string `json:"actor_id"`
}

type RequestRefund struct {
	OrderID     string `json:"order_id"`
	ActorID     string `json:"actor_id"`
	Reason      string `json:"reason"`
	Description string `json:"description,omitempty"`
}

// CompleteRefund is the admin action that executes the refund with the
// payment gateway and settles the order.
type CompleteRefund struct {
	OrderID string `json:"order_id"`
}

// PayMerchant is the admin action that transfers the order total to the
// seller's bank account.
type PayMerchant struct {
	OrderID string `json:"order_id"`
}

// Auction commands

type CreateAuction struct {
	MerchantID    string    `json:"merchant_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CategoryID    string    `json:"category_id"`
	Condition     string    `json:"condition"`
	Images        []string  `json:"images"`
	StartingPrice int       `json:"starting_price"`
	ReservedPrice int       `json:"reserved_price"`
	BidIncrement  int       `json:"bid_increment"`
	Delivery      string    `json:"delivery"`
	DeliveryPrice int       `json:"delivery_price"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

type ReviewAuction struct {
	AuctionID string `json:"auction_id"`
	AdminID   string `json:"admin_id"`
	Approve   bool   `json:"approve"`
	Reason    string `json:"reason,omitempty"`
}

type CancelAuction struct {
	AuctionID  string `json:"auction_id"`
	MerchantID string `json:"merchant_id"`
}

type PlaceBid struct {
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Amount    int    `json:"amount"`
}

// Advertisement commands

type CreateAd struct {
	MerchantID     string    `json:"merchant_id"`
	ProductID      string    `json:"product_id"`
	Price          int       `json:"price"`
	TransactionRef string    `json:"transaction_ref"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
}

type ReviewAd struct {
	AdID    string `json:"ad_id"`
	AdminID string `json:"admin_id"`
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

// ConfirmAdPayment verifies the ad's transaction with the payment gateway
// and records the outcome.
type ConfirmAdPayment struct {
	AdID string `json:"ad_id"`
}

// Category commands

type CreateCategory struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type UpdateCategory struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type DeleteCategory struct {
	CategoryID string `json:"category_id"`
}
