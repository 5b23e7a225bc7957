package ad

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/example/marketplace/internal/domain/aggregate"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/example/marketplace/internal/pricing"
	"github.com/google/uuid"
)

const AggregateType = "Advertisement"

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

var (
	ErrAdNotFound         = errors.New("advertisement not found")
	ErrInvalidProduct     = errors.New("product reference is required")
	ErrInvalidSchedule    = errors.New("end time must be after start time and in the future")
	ErrInvalidPrice       = errors.New("price must be positive")
	ErrMissingTransaction = errors.New("transaction reference is required")
	ErrNotPendingApproval = errors.New("advertisement approval already decided")
	ErrPaymentDecided     = errors.New("advertisement payment already resolved")
	ErrNotOwner           = errors.New("advertisement belongs to another merchant")
)

// regionCoords are the placement regions an ad can be pinned to. An ad is
// assigned the region nearest to the product's coordinates.
var regionCoords = map[string][2]float64{
	"Addis Ababa": {38.7578, 9.0301},
	"Dire Dawa":   {41.8661, 9.5931},
	"Bahir Dar":   {37.3833, 11.6},
	"Mekelle":     {39.4753, 13.4967},
	"Hawassa":     {38.4762, 7.0621},
	"Jimma":       {36.8345, 7.6667},
	"Adama":       {39.2671, 8.54},
}

// ResolveRegion returns the region whose reference coordinate is nearest to
// the given [longitude, latitude] point.
func ResolveRegion(coords [2]float64) string {
	best := ""
	bestDist := -1.0
	for region, ref := range regionCoords {
		d := pricing.DistanceKm(coords, ref)
		if bestDist < 0 || d < bestDist || (d == bestDist && region < best) {
			best = region
			bestDist = d
		}
	}
	return best
}

type Ad struct {
	ID             string         `json:"id"`
	MerchantID     string         `json:"merchant_id"`
	ProductID      string         `json:"product_id"`
	ProductName    string         `json:"product_name"`
	Image          string         `json:"image,omitempty"`
	Region         string         `json:"region"`
	Coordinates    [2]float64     `json:"coordinates"`
	Price          int            `json:"price"`
	TransactionRef string         `json:"transaction_ref"`
	ChapaRef       string         `json:"chapa_ref,omitempty"`
	Approval       ApprovalStatus `json:"approval"`
	RejectReason   string         `json:"reject_reason,omitempty"`
	Payment        PaymentStatus  `json:"payment"`
	StartsAt       time.Time      `json:"starts_at"`
	EndsAt         time.Time      `json:"ends_at"`
	Deleted        bool           `json:"deleted,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Version        int            `json:"version"`
}

func (a *Ad) GetID() string    { return a.ID }
func (a *Ad) GetVersion() int  { return a.Version }
func (a *Ad) SetVersion(v int) { a.Version = v }

// Live reports whether the ad should currently be shown.
func (a *Ad) Live(now time.Time) bool {
	return !a.Deleted &&
		a.Approval == ApprovalApproved &&
		a.Payment == PaymentPaid &&
		!now.Before(a.StartsAt) && now.Before(a.EndsAt)
}

// ApplyEvent applies a single event to the ad state
func (a *Ad) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventAdCreated:
		var data AdCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.ID = data.AdID
		a.MerchantID = data.MerchantID
		a.ProductID = data.ProductID
		a.ProductName = data.ProductName
		a.Image = data.Image
		a.Region = data.Region
		a.Coordinates = data.Coordinates
		a.Price = data.Price
		a.TransactionRef = data.TransactionRef
		a.Approval = ApprovalPending
		a.Payment = PaymentPending
		a.StartsAt = data.StartsAt
		a.EndsAt = data.EndsAt
		a.CreatedAt = data.CreatedAt
		a.UpdatedAt = data.CreatedAt
	case EventAdApproved:
		var data AdApproved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Approval = ApprovalApproved
		a.UpdatedAt = data.ApprovedAt
	case EventAdRejected:
		var data AdRejected
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Approval = ApprovalRejected
		a.RejectReason = data.Reason
		a.UpdatedAt = data.RejectedAt
	case EventAdPaymentResult:
		var data AdPaymentResult
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if data.Paid {
			a.Payment = PaymentPaid
			a.ChapaRef = data.ChapaRef
		} else {
			a.Payment = PaymentFailed
		}
		a.UpdatedAt = data.ResolvedAt
	case EventAdDeleted:
		var data AdDeleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		a.Deleted = true
		a.UpdatedAt = data.DeletedAt
	}
	a.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) load(ctx context.Context, adID string) (*Ad, error) {
	a, found, err := aggregate.Load(ctx, s.eventStore, adID, func() *Ad {
		return &Ad{}
	})
	if err != nil {
		return nil, err
	}
	if !found || a.Deleted {
		return nil, ErrAdNotFound
	}
	return a, nil
}

// Get returns the current ad state.
func (s *Service) Get(ctx context.Context, adID string) (*Ad, error) {
	return s.load(ctx, adID)
}

type CreateParams struct {
	MerchantID     string
	ProductID      string
	ProductName    string
	Image          string
	Coordinates    [2]float64
	Price          int
	TransactionRef string
	StartsAt       time.Time
	EndsAt         time.Time
}

// Create registers an ad purchase pending approval and payment. The region
// is resolved from the product coordinates, not taken from the client.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Ad, error) {
	if p.ProductID == "" {
		return nil, ErrInvalidProduct
	}
	if p.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if p.TransactionRef == "" {
		return nil, ErrMissingTransaction
	}
	now := time.Now()
	if !p.EndsAt.After(p.StartsAt) || !p.EndsAt.After(now) {
		return nil, ErrInvalidSchedule
	}

	adID := uuid.New().String()

	event := AdCreated{
		AdID:           adID,
		MerchantID:     p.MerchantID,
		ProductID:      p.ProductID,
		ProductName:    p.ProductName,
		Image:          p.Image,
		Region:         ResolveRegion(p.Coordinates),
		Coordinates:    p.Coordinates,
		Price:          p.Price,
		TransactionRef: p.TransactionRef,
		StartsAt:       p.StartsAt,
		EndsAt:         p.EndsAt,
		CreatedAt:      now,
	}

	storedEvent, err := s.eventStore.Append(ctx, adID, AggregateType, EventAdCreated, event)
	if err != nil {
		return nil, err
	}

	a := &Ad{}
	if err := a.ApplyEvent(*storedEvent); err != nil {
		return nil, err
	}
	return a, nil
}

// Approve accepts a pending ad.
func (s *Service) Approve(ctx context.Context, adID, adminID string) (*Ad, error) {
	a, err := s.load(ctx, adID)
	if err != nil {
		return nil, err
	}
	if a.Approval != ApprovalPending {
		return nil, ErrNotPendingApproval
	}

	event := AdApproved{AdID: adID, AdminID: adminID, ApprovedAt: time.Now()}
	storedEvent, err := s.eventStore.Append(ctx, adID, AggregateType, EventAdApproved, event)
	if err != nil {
		return nil, err
	}
	_ = a.ApplyEvent(*storedEvent)
	s.maybeSnapshot(ctx, a)
	return a, nil
}

// Reject declines a pending ad with a reason for the merchant.
func (s *Service) Reject(ctx context.Context, adID, adminID, reason string) (*Ad, error) {
	a, err := s.load(ctx, adID)
	if err != nil {
		return nil, err
	}
	if a.Approval != ApprovalPending {
		return nil, ErrNotPendingApproval
	}

	event := AdRejected{AdID: adID, AdminID: adminID, Reason: reason, RejectedAt: time.Now()}
	storedEvent, err := s.eventStore.Append(ctx, adID, AggregateType, EventAdRejected, event)
	if err != nil {
		return nil, err
	}
	_ = a.ApplyEvent(*storedEvent)
	s.maybeSnapshot(ctx, a)
	return a, nil
}

// ResolvePayment records the verified gateway outcome for the ad fee.
func (s *Service) ResolvePayment(ctx context.Context, adID string, paid bool, chapaRef string) (*Ad, error) {
	a, err := s.load(ctx, adID)
	if err != nil {
		return nil, err
	}
	if a.Payment != PaymentPending {
		return nil, ErrPaymentDecided
	}

	event := AdPaymentResult{AdID: adID, Paid: paid, ChapaRef: chapaRef, ResolvedAt: time.Now()}
	storedEvent, err := s.eventStore.Append(ctx, adID, AggregateType, EventAdPaymentResult, event)
	if err != nil {
		return nil, err
	}
	_ = a.ApplyEvent(*storedEvent)
	s.maybeSnapshot(ctx, a)
	return a, nil
}

// Delete removes an ad; only the owning merchant may do it.
func (s *Service) Delete(ctx context.Context, adID, merchantID string) error {
	a, err := s.load(ctx, adID)
	if err != nil {
		return err
	}
	if a.MerchantID != merchantID {
		return ErrNotOwner
	}

	event := AdDeleted{AdID: adID, DeletedAt: time.Now()}
	_, err = s.eventStore.Append(ctx, adID, AggregateType, EventAdDeleted, event)
	return err
}

func (s *Service) maybeSnapshot(ctx context.Context, a *Ad) {
	if err := aggregate.MaybeSnapshot(ctx, s.eventStore, a, AggregateType); err != nil {
		log.Printf("[Ad] Failed to create snapshot for ad %s: %v", a.ID, err)
	}
}
