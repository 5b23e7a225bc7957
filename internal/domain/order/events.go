package order

import (
	"time"

	"github.com/example/marketplace/internal/pricing"
)

const (
	EventOrderPlaced            = "OrderPlaced"
	EventShippingDetailsUpdated = "ShippingDetailsUpdated"
	EventOrderDispatched        = "OrderDispatched"
	EventOrderReceived          = "OrderReceived"
	EventPaymentConfirmed       = "PaymentConfirmed"
	EventRefundRequested        = "RefundRequested"
	EventRefundCompleted        = "RefundCompleted"
	EventMerchantPaid           = "MerchantPaid"
	EventOrderDeleted           = "OrderDeleted"
)

// CustomerDetail is the buyer snapshot captured at order time. It does not
// track the live user record.
type CustomerDetail struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	State      string `json:"state"`
	City       string `json:"city"`
}

// MerchantDetail is the seller payout snapshot captured at order time.
type MerchantDetail struct {
	MerchantID    string `json:"merchant_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Reference     string `json:"reference,omitempty"`
}

// Line is one ordered product with its delivery pricing snapshot.
type Line struct {
	ProductID     string               `json:"product_id"`
	ProductName   string               `json:"product_name"`
	Quantity      int                  `json:"quantity"`
	Price         int                  `json:"price"`
	Delivery      pricing.DeliveryMode `json:"delivery"`
	DeliveryPrice int                  `json:"delivery_price"`
	CategoryName  string               `json:"category_name,omitempty"`
}

// AuctionRef links an order to the won auction it originates from.
type AuctionRef struct {
	AuctionID     string `json:"auction_id"`
	Delivery      string `json:"delivery"` // PAID or FREE
	DeliveryPrice int    `json:"delivery_price"`
}

// GeoPoint is a GeoJSON point; coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type OrderPlaced struct {
	OrderID        string         `json:"order_id"`
	Customer       CustomerDetail `json:"customer"`
	Merchant       MerchantDetail `json:"merchant"`
	Lines          []Line         `json:"lines"`
	Auction        *AuctionRef    `json:"auction,omitempty"`
	TotalPrice     int            `json:"total_price"`
	Location       GeoPoint       `json:"location"`
	TransactionRef string         `json:"transaction_ref"`
	PlacedAt       time.Time      `json:"placed_at"`
}

// ShippingDetailsUpdated carries the full buyer snapshot after an edit.
type ShippingDetailsUpdated struct {
	OrderID   string         `json:"order_id"`
	Customer  CustomerDetail `json:"customer"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type OrderDispatched struct {
	OrderID      string    `json:"order_id"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

type OrderReceived struct {
	OrderID    string    `json:"order_id"`
	ReceivedAt time.Time `json:"received_at"`
}

type PaymentConfirmed struct {
	OrderID  string    `json:"order_id"`
	ChapaRef string    `json:"chapa_ref"`
	PaidAt   time.Time `json:"paid_at"`
}

type RefundRequested struct {
	OrderID     string    `json:"order_id"`
	Reason      string    `json:"reason"`
	Description string    `json:"description,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

type RefundCompleted struct {
	OrderID     string    `json:"order_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// MerchantPaid records the payout of the order total to the seller.
type MerchantPaid struct {
	OrderID   string    `json:"order_id"`
	Reference string    `json:"reference,omitempty"`
	PaidAt    time.Time `json:"paid_at"`
}

type OrderDeleted struct {
	OrderID   string    `json:"order_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
