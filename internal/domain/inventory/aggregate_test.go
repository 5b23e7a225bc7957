package inventory

import (
	"context"
	"testing"

	"github.com/example/marketplace/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStock(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.SetStock(ctx, "prod-1", 10))

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, inv.Stock)

	// Setting again replaces rather than adds.
	require.NoError(t, service.SetStock(ctx, "prod-1", 4))
	inv, err = service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 4, inv.Stock)
}

func TestDeduct(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.SetStock(ctx, "prod-1", 5))
	require.NoError(t, service.Deduct(ctx, "prod-1", "order-1", 3))

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 2, inv.Stock)
}

func TestDeductInsufficientStock(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.SetStock(ctx, "prod-1", 2))

	err := service.Deduct(ctx, "prod-1", "order-1", 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 2, inv.Stock, "failed deduction must not change stock")
}

func TestDeductUntrackedProduct(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	err := service.Deduct(ctx, "unknown", "order-1", 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestRestore(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	require.NoError(t, service.SetStock(ctx, "prod-1", 5))
	require.NoError(t, service.Deduct(ctx, "prod-1", "order-1", 5))
	require.NoError(t, service.Restore(ctx, "prod-1", "order-1", 5))

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Stock)
}

func TestInvalidQuantity(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	assert.ErrorIs(t, service.SetStock(ctx, "prod-1", -1), ErrInvalidQuantity)
	assert.ErrorIs(t, service.Deduct(ctx, "prod-1", "order-1", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, service.Restore(ctx, "prod-1", "order-1", 0), ErrInvalidQuantity)
	assert.Empty(t, eventStore.AppendCalls)
}
