package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/example/marketplace/internal/domain/aggregate"
	"github.com/example/marketplace/internal/infrastructure/store"
)

const AggregateType = "Inventory"

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// Inventory is the durable stock record for a product. The aggregate ID is
// the product ID, so stock events and product events live in separate
// streams.
type Inventory struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	Version   int    `json:"version"`
}

func (i *Inventory) GetID() string    { return i.ProductID }
func (i *Inventory) GetVersion() int  { return i.Version }
func (i *Inventory) SetVersion(v int) { i.Version = v }

// ApplyEvent applies a single event to the inventory state
func (i *Inventory) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventStockSet:
		var data StockSet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ProductID = data.ProductID
		i.Stock = data.Quantity
	case EventStockDeducted:
		var data StockDeducted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.Stock -= data.Quantity
		if i.Stock < 0 {
			i.Stock = 0
		}
	case EventStockRestored:
		var data StockRestored
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.Stock += data.Quantity
	}
	i.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) load(ctx context.Context, productID string) (*Inventory, error) {
	inv, found, err := aggregate.Load(ctx, s.eventStore, productID, func() *Inventory {
		return &Inventory{ProductID: productID}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return &Inventory{ProductID: productID}, nil
	}
	return inv, nil
}

// Get returns the current stock for a product. An untracked product has
// zero stock.
func (s *Service) Get(ctx context.Context, productID string) (*Inventory, error) {
	return s.load(ctx, productID)
}

// SetStock replaces the stock level, used when a product is created or the
// seller edits the quantity.
func (s *Service) SetStock(ctx context.Context, productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.load(ctx, productID)
	if err != nil {
		return err
	}

	event := StockSet{
		ProductID: productID,
		Quantity:  quantity,
		SetAt:     time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventStockSet, event)
	if err != nil {
		return err
	}

	inv.Stock = quantity
	if storedEvent != nil {
		inv.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, inv)
	return nil
}

// Deduct removes units from stock for a placed order.
func (s *Service) Deduct(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	if inv.Stock < quantity {
		return ErrInsufficientStock
	}

	event := StockDeducted{
		ProductID:  productID,
		OrderID:    orderID,
		Quantity:   quantity,
		DeductedAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventStockDeducted, event)
	if err != nil {
		return err
	}

	inv.Stock -= quantity
	if storedEvent != nil {
		inv.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, inv)
	return nil
}

// Restore returns units to stock after an order is deleted.
func (s *Service) Restore(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.load(ctx, productID)
	if err != nil {
		return err
	}

	event := StockRestored{
		ProductID:  productID,
		OrderID:    orderID,
		Quantity:   quantity,
		RestoredAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventStockRestored, event)
	if err != nil {
		return err
	}

	inv.Stock += quantity
	if storedEvent != nil {
		inv.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, inv)
	return nil
}

func (s *Service) maybeSnapshot(ctx context.Context, inv *Inventory) {
	if err := aggregate.MaybeSnapshot(ctx, s.eventStore, inv, AggregateType); err != nil {
		log.Printf("[Inventory] Failed to create snapshot for product %s: %v", inv.ProductID, err)
	}
}
