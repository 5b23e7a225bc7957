package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/example/marketplace/internal/domain/aggregate"
	"github.com/example/marketplace/internal/infrastructure/store"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrItemNotInCart   = errors.New("item not in cart")
)

type CartItem struct {
	ProductID   string `json:"product_id"`
	MerchantID  string `json:"merchant_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int    `json:"price"`
}

type Cart struct {
	ID      string              `json:"id"`
	UserID  string              `json:"user_id"`
	Items   map[string]CartItem `json:"items"` // productID -> item
	Version int                 `json:"version"`
}

func (c *Cart) GetID() string    { return c.ID }
func (c *Cart) GetVersion() int  { return c.Version }
func (c *Cart) SetVersion(v int) { c.Version = v }

// GetCartID returns the cart ID for a user (one cart per user)
func GetCartID(userID string) string {
	return "cart-" + userID
}

// ApplyEvent applies a single event to the cart state
func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if c.Items == nil {
			c.Items = make(map[string]CartItem)
		}
		c.ID = data.CartID
		c.UserID = data.UserID
		if existing, ok := c.Items[data.ProductID]; ok {
			existing.Quantity += data.Quantity
			existing.Price = data.Price
			c.Items[data.ProductID] = existing
		} else {
			c.Items[data.ProductID] = CartItem{
				ProductID:   data.ProductID,
				MerchantID:  data.MerchantID,
				ProductName: data.ProductName,
				Quantity:    data.Quantity,
				Price:       data.Price,
			}
		}
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		delete(c.Items, data.ProductID)
	case EventQuantityChanged:
		var data CartQuantityChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if item, ok := c.Items[data.ProductID]; ok {
			item.Quantity = data.Quantity
			c.Items[data.ProductID] = item
		}
	case EventCartCleared:
		var data CartCleared
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.Items = make(map[string]CartItem)
	}
	c.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) loadCart(ctx context.Context, userID string) (*Cart, error) {
	cartID := GetCartID(userID)
	c, found, err := aggregate.Load(ctx, s.eventStore, cartID, func() *Cart {
		return &Cart{Items: make(map[string]CartItem)}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return &Cart{ID: cartID, UserID: userID, Items: make(map[string]CartItem)}, nil
	}
	return c, nil
}

// Get returns the user's cart, an empty one if they never added anything.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	return s.loadCart(ctx, userID)
}

// AddItem adds quantity of a product to the cart, merging with an existing
// line for the same product.
func (s *Service) AddItem(ctx context.Context, userID string, item CartItem) error {
	if item.ProductID == "" {
		return ErrInvalidProduct
	}
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}

	event := ItemAddedToCart{
		CartID:      cart.ID,
		UserID:      userID,
		ProductID:   item.ProductID,
		MerchantID:  item.MerchantID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		Price:       item.Price,
		AddedAt:     time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, cart.ID, AggregateType, EventItemAdded, event)
	if err != nil {
		return err
	}
	if storedEvent != nil {
		cart.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, cart)
	return nil
}

// SetQuantity replaces the quantity of an item already in the cart.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := cart.Items[productID]; !ok {
		return ErrItemNotInCart
	}

	event := CartQuantityChanged{
		CartID:    cart.ID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		ChangedAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, cart.ID, AggregateType, EventQuantityChanged, event)
	if err != nil {
		return err
	}
	if storedEvent != nil {
		cart.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, cart)
	return nil
}

// RemoveItem drops a product from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	if productID == "" {
		return ErrInvalidProduct
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := cart.Items[productID]; !ok {
		return ErrItemNotInCart
	}

	event := ItemRemovedFromCart{
		CartID:    cart.ID,
		UserID:    userID,
		ProductID: productID,
		RemovedAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, cart.ID, AggregateType, EventItemRemoved, event)
	if err != nil {
		return err
	}
	if storedEvent != nil {
		cart.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, cart)
	return nil
}

// Clear empties the cart, used after a successful checkout.
func (s *Service) Clear(ctx context.Context, userID string) error {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		return nil
	}

	event := CartCleared{
		CartID:    cart.ID,
		UserID:    userID,
		ClearedAt: time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, cart.ID, AggregateType, EventCartCleared, event)
	if err != nil {
		return err
	}
	if storedEvent != nil {
		cart.Version = storedEvent.Version
	}
	s.maybeSnapshot(ctx, cart)
	return nil
}

func (s *Service) maybeSnapshot(ctx context.Context, c *Cart) {
	if err := aggregate.MaybeSnapshot(ctx, s.eventStore, c, AggregateType); err != nil {
		log.Printf("[Cart] Failed to create snapshot for cart %s: %v", c.ID, err)
	}
}
