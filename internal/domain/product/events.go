package product

import (
	"time"

	"github.com/example/marketplace/internal/pricing"
)

const (
	EventProductCreated  = "ProductCreated"
	EventProductUpdated  = "ProductUpdated"
	EventProductDeleted  = "ProductDeleted"
	EventProductBanned   = "ProductBanned"
	EventProductUnbanned = "ProductUnbanned"
	EventProductReviewed = "ProductReviewed"
)

// GeoPoint is a GeoJSON point; coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// DeliveryTerms captures how the seller prices delivery for this product.
type DeliveryTerms struct {
	Mode         pricing.DeliveryMode `json:"mode"`
	BasePrice    int                  `json:"base_price"`
	KgPerBracket float64              `json:"kg_per_bracket,omitempty"`
	KmPerBracket float64              `json:"km_per_bracket,omitempty"`
}

type ProductCreated struct {
	ProductID    string        `json:"product_id"`
	MerchantID   string        `json:"merchant_id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	CategoryID   string        `json:"category_id"`
	CategoryName string        `json:"category_name"`
	Brand        string        `json:"brand,omitempty"`
	Price        int           `json:"price"`
	Images       []string      `json:"images,omitempty"`
	WeightKg     float64       `json:"weight_kg,omitempty"`
	Delivery     DeliveryTerms `json:"delivery"`
	Location     GeoPoint      `json:"location"`
	InitialStock int           `json:"initial_stock"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ProductUpdated carries pointer fields so a nil field means "unchanged".
type ProductUpdated struct {
	ProductID   string         `json:"product_id"`
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Brand       *string        `json:"brand,omitempty"`
	Price       *int           `json:"price,omitempty"`
	OfferPrice  *int           `json:"offer_price,omitempty"`
	Images      []string       `json:"images,omitempty"`
	WeightKg    *float64       `json:"weight_kg,omitempty"`
	Delivery    *DeliveryTerms `json:"delivery,omitempty"`
	Location    *GeoPoint      `json:"location,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type ProductDeleted struct {
	ProductID string    `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// ProductBanned is an admin action; banned products stay visible to their
// merchant but cannot be purchased.
type ProductBanned struct {
	ProductID string    `json:"product_id"`
	Reason    string    `json:"reason,omitempty"`
	BannedAt  time.Time `json:"banned_at"`
}

type ProductUnbanned struct {
	ProductID  string    `json:"product_id"`
	UnbannedAt time.Time `json:"unbanned_at"`
}

type ProductReviewed struct {
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
