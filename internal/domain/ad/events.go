package ad

import "time"

const (
	EventAdCreated       = "AdCreated"
	EventAdApproved      = "AdApproved"
	EventAdRejected      = "AdRejected"
	EventAdPaymentResult = "AdPaymentResult"
	EventAdDeleted       = "AdDeleted"
)

type AdCreated struct {
	AdID           string     `json:"ad_id"`
	MerchantID     string     `json:"merchant_id"`
	ProductID      string     `json:"product_id"`
	ProductName    string     `json:"product_name"`
	Image          string     `json:"image,omitempty"`
	Region         string     `json:"region"`
	Coordinates    [2]float64 `json:"coordinates"`
	Price          int        `json:"price"`
	TransactionRef string     `json:"transaction_ref"`
	StartsAt       time.Time  `json:"starts_at"`
	EndsAt         time.Time  `json:"ends_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

type AdApproved struct {
	AdID       string    `json:"ad_id"`
	AdminID    string    `json:"admin_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

type AdRejected struct {
	AdID       string    `json:"ad_id"`
	AdminID    string    `json:"admin_id"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejected_at"`
}

// AdPaymentResult records the gateway verification outcome for the ad fee.
type AdPaymentResult struct {
	AdID       string    `json:"ad_id"`
	Paid       bool      `json:"paid"`
	ChapaRef   string    `json:"chapa_ref,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

type AdDeleted struct {
	AdID      string    `json:"ad_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
