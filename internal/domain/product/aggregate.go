package product

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/example/marketplace/internal/domain/aggregate"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Product"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidName         = errors.New("product name is required")
	ErrInvalidPrice        = errors.New("price must be positive")
	ErrInvalidCategory     = errors.New("category is required")
	ErrInvalidMerchant     = errors.New("merchant is required")
	ErrInvalidDeliveryMode = errors.New("invalid delivery mode")
	ErrNotOwner            = errors.New("product belongs to another merchant")
	ErrInvalidOfferPrice   = errors.New("offer price must be below the regular price")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrProductBanned       = errors.New("product is banned")
)

// Review is a buyer's rating of a product.
type Review struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID           string        `json:"id"`
	MerchantID   string        `json:"merchant_id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	CategoryID   string        `json:"category_id"`
	CategoryName string        `json:"category_name"`
	Brand        string        `json:"brand,omitempty"`
	Price        int           `json:"price"`
	OfferPrice   int           `json:"offer_price,omitempty"`
	Images       []string      `json:"images,omitempty"`
	WeightKg     float64       `json:"weight_kg,omitempty"`
	Delivery     DeliveryTerms `json:"delivery"`
	Location     GeoPoint      `json:"location"`
	Reviews      []Review      `json:"reviews,omitempty"`
	Banned       bool          `json:"banned,omitempty"`
	BanReason    string        `json:"ban_reason,omitempty"`
	Deleted      bool          `json:"deleted,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Version      int           `json:"version"`
}

func (p *Product) GetID() string    { return p.ID }
func (p *Product) GetVersion() int  { return p.Version }
func (p *Product) SetVersion(v int) { p.Version = v }

// ApplyEvent applies a single event to the product state
func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var data ProductCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.ID = data.ProductID
		p.MerchantID = data.MerchantID
		p.Name = data.Name
		p.Description = data.Description
		p.CategoryID = data.CategoryID
		p.CategoryName = data.CategoryName
		p.Brand = data.Brand
		p.Price = data.Price
		p.Images = data.Images
		p.WeightKg = data.WeightKg
		p.Delivery = data.Delivery
		p.Location = data.Location
		p.CreatedAt = data.CreatedAt
		p.UpdatedAt = data.CreatedAt
	case EventProductUpdated:
		var data ProductUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if data.Name != nil {
			p.Name = *data.Name
		}
		if data.Description != nil {
			p.Description = *data.Description
		}
		if data.Brand != nil {
			p.Brand = *data.Brand
		}
		if data.Price != nil {
			p.Price = *data.Price
		}
		if data.OfferPrice != nil {
			p.OfferPrice = *data.OfferPrice
		}
		if data.Images != nil {
			p.Images = data.Images
		}
		if data.WeightKg != nil {
			p.WeightKg = *data.WeightKg
		}
		if data.Delivery != nil {
			p.Delivery = *data.Delivery
		}
		if data.Location != nil {
			p.Location = *data.Location
		}
		p.UpdatedAt = data.UpdatedAt
	case EventProductDeleted:
		var data ProductDeleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Deleted = true
		p.UpdatedAt = data.DeletedAt
	case EventProductBanned:
		var data ProductBanned
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Banned = true
		p.BanReason = data.Reason
		p.UpdatedAt = data.BannedAt
	case EventProductUnbanned:
		var data ProductUnbanned
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Banned = false
		p.BanReason = ""
		p.UpdatedAt = data.UnbannedAt
	case EventProductReviewed:
		var data ProductReviewed
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Reviews = append(p.Reviews, Review{
			UserID:    data.UserID,
			UserName:  data.UserName,
			Rating:    data.Rating,
			Comment:   data.Comment,
			CreatedAt: data.CreatedAt,
		})
		p.UpdatedAt = data.CreatedAt
	}
	p.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) load(ctx context.Context, productID string) (*Product, error) {
	p, found, err := aggregate.Load(ctx, s.eventStore, productID, func() *Product {
		return &Product{}
	})
	if err != nil {
		return nil, err
	}
	if !found || p.Deleted {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// Get returns the current state of a product.
func (s *Service) Get(ctx context.Context, productID string) (*Product, error) {
	return s.load(ctx, productID)
}

type CreateParams struct {
	MerchantID   string
	Name         string
	Description  string
	CategoryID   string
	CategoryName string
	Brand        string
	Price        int
	Images       []string
	WeightKg     float64
	Delivery     DeliveryTerms
	Location     GeoPoint
	InitialStock int
}

// Create registers a new product for a merchant.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Product, error) {
	if p.Name == "" {
		return nil, ErrInvalidName
	}
	if p.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if p.CategoryID == "" {
		return nil, ErrInvalidCategory
	}
	if p.MerchantID == "" {
		return nil, ErrInvalidMerchant
	}
	if !p.Delivery.Mode.Valid() {
		return nil, ErrInvalidDeliveryMode
	}

	productID := uuid.New().String()
	now := time.Now()

	location := p.Location
	if location.Type == "" {
		location.Type = "Point"
	}

	event := ProductCreated{
		ProductID:    productID,
		MerchantID:   p.MerchantID,
		Name:         p.Name,
		Description:  p.Description,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Brand:        p.Brand,
		Price:        p.Price,
		Images:       p.Images,
		WeightKg:     p.WeightKg,
		Delivery:     p.Delivery,
		Location:     location,
		InitialStock: p.InitialStock,
		CreatedAt:    now,
	}

	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductCreated, event)
	if err != nil {
		return nil, err
	}

	prod := &Product{
		ID:           productID,
		MerchantID:   p.MerchantID,
		Name:         p.Name,
		Description:  p.Description,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Brand:        p.Brand,
		Price:        p.Price,
		Images:       p.Images,
		WeightKg:     p.WeightKg,
		Delivery:     p.Delivery,
		Location:     location,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if storedEvent != nil {
		prod.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, prod)
	return prod, nil
}

// UpdateParams uses pointer fields; nil means "leave unchanged".
type UpdateParams struct {
	Name        *string
	Description *string
	Brand       *string
	Price       *int
	OfferPrice  *int // 0 clears a running offer
	Images      []string
	WeightKg    *float64
	Delivery    *DeliveryTerms
	Location    *GeoPoint
}

// Update edits a product. Only the owning merchant may call this; the
// caller passes the acting merchant's ID.
func (s *Service) Update(ctx context.Context, productID, merchantID string, upd UpdateParams) (*Product, error) {
	prod, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	if prod.MerchantID != merchantID {
		return nil, ErrNotOwner
	}
	if upd.Price != nil && *upd.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if upd.Delivery != nil && !upd.Delivery.Mode.Valid() {
		return nil, ErrInvalidDeliveryMode
	}
	if upd.OfferPrice != nil {
		price := prod.Price
		if upd.Price != nil {
			price = *upd.Price
		}
		if *upd.OfferPrice < 0 || *upd.OfferPrice >= price {
			return nil, ErrInvalidOfferPrice
		}
	}

	event := ProductUpdated{
		ProductID:   productID,
		Name:        upd.Name,
		Description: upd.Description,
		Brand:       upd.Brand,
		Price:       upd.Price,
		OfferPrice:  upd.OfferPrice,
		Images:      upd.Images,
		WeightKg:    upd.WeightKg,
		Delivery:    upd.Delivery,
		Location:    upd.Location,
		UpdatedAt:   time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductUpdated, event)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		prod.Name = *upd.Name
	}
	if upd.Description != nil {
		prod.Description = *upd.Description
	}
	if upd.Brand != nil {
		prod.Brand = *upd.Brand
	}
	if upd.Price != nil {
		prod.Price = *upd.Price
	}
	if upd.OfferPrice != nil {
		prod.OfferPrice = *upd.OfferPrice
	}
	if upd.Images != nil {
		prod.Images = upd.Images
	}
	if upd.WeightKg != nil {
		prod.WeightKg = *upd.WeightKg
	}
	if upd.Delivery != nil {
		prod.Delivery = *upd.Delivery
	}
	if upd.Location != nil {
		prod.Location = *upd.Location
	}
	prod.UpdatedAt = event.UpdatedAt
	if storedEvent != nil {
		prod.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, prod)
	return prod, nil
}

// Delete tombstones a product; replays still see its history.
func (s *Service) Delete(ctx context.Context, productID, merchantID string) error {
	prod, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	if prod.MerchantID != merchantID {
		return ErrNotOwner
	}

	event := ProductDeleted{
		ProductID: productID,
		DeletedAt: time.Now(),
	}

	_, err = s.eventStore.Append(ctx, productID, AggregateType, EventProductDeleted, event)
	return err
}

// Ban blocks a product from sale. Admin only; the caller enforces the role.
func (s *Service) Ban(ctx context.Context, productID, reason string) error {
	prod, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	if prod.Banned {
		return nil
	}

	event := ProductBanned{ProductID: productID, Reason: reason, BannedAt: time.Now()}
	_, err = s.eventStore.Append(ctx, productID, AggregateType, EventProductBanned, event)
	return err
}

// Unban lifts a ban.
func (s *Service) Unban(ctx context.Context, productID string) error {
	prod, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	if !prod.Banned {
		return nil
	}

	event := ProductUnbanned{ProductID: productID, UnbannedAt: time.Now()}
	_, err = s.eventStore.Append(ctx, productID, AggregateType, EventProductUnbanned, event)
	return err
}

// AddReview appends a buyer review with a 1-5 star rating.
func (s *Service) AddReview(ctx context.Context, productID, userID, userName string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if _, err := s.load(ctx, productID); err != nil {
		return err
	}

	event := ProductReviewed{
		ProductID: productID,
		UserID:    userID,
		UserName:  userName,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductReviewed, event)
	return err
}

func (s *Service) maybeSnapshot(ctx context.Context, p *Product) {
	if err := aggregate.MaybeSnapshot(ctx, s.eventStore, p, AggregateType); err != nil {
		log.Printf("[Product] Failed to create snapshot for product %s: %v", p.ID, err)
	}
}
