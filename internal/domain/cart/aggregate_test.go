package cart

import (
	"context"
	"testing"

	"github.com/example/marketplace/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basketItem(qty int) CartItem {
	return CartItem{
		ProductID:   "prod-1",
		MerchantID:  "merch-1",
		ProductName: "Woven Basket",
		Quantity:    qty,
		Price:       500,
	}
}

func TestAddItem(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddItem(ctx, "user-1", basketItem(2)))

	cart, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items["prod-1"].Quantity)
	assert.Equal(t, "cart-user-1", cart.ID)
}

func TestAddItemMerges(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddItem(ctx, "user-1", basketItem(2)))
	require.NoError(t, service.AddItem(ctx, "user-1", basketItem(3)))

	cart, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items["prod-1"].Quantity)
}

func TestAddItemValidation(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	item := basketItem(1)
	item.ProductID = ""
	assert.ErrorIs(t, service.AddItem(ctx, "user-1", item), ErrInvalidProduct)

	assert.ErrorIs(t, service.AddItem(ctx, "user-1", basketItem(0)), ErrInvalidQuantity)
}

func TestSetQuantity(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddItem(ctx, "user-1", basketItem(2)))
	require.NoError(t, service.SetQuantity(ctx, "user-1", "prod-1", 7))

	cart, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items["prod-1"].Quantity)

	assert.ErrorIs(t, service.SetQuantity(ctx, "user-1", "prod-2", 1), ErrItemNotInCart)
}

func TestRemoveItem(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddItem(ctx, "user-1", basketItem(2)))
	require.NoError(t, service.RemoveItem(ctx, "user-1", "prod-1"))

	cart, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	assert.ErrorIs(t, service.RemoveItem(ctx, "user-1", "prod-1"), ErrItemNotInCart)
}

func TestClear(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.AddItem(ctx, "user-1", basketItem(2)))
	other := basketItem(1)
	other.ProductID = "prod-2"
	require.NoError(t, service.AddItem(ctx, "user-1", other))

	require.NoError(t, service.Clear(ctx, "user-1"))

	cart, err := service.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClearEmptyCartWritesNothing(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.Clear(ctx, "user-1"))
	assert.Empty(t, eventStore.AppendCalls)
}
