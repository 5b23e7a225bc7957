package product

import (
	"context"
	"testing"

	"github.com/example/marketplace/internal/infrastructure/store/mocks"
	"github.com/example/marketplace/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCreateParams() CreateParams {
	return CreateParams{
		MerchantID:   "merch-1",
		Name:         "Woven Basket",
		Description:  "Hand-woven sisal basket",
		CategoryID:   "cat-1",
		CategoryName: "Handicrafts",
		Price:        500,
		WeightKg:     1.2,
		Delivery: DeliveryTerms{
			Mode:      pricing.DeliveryPerKg,
			BasePrice: 50,
		},
		Location:     GeoPoint{Type: "Point", Coordinates: [2]float64{38.76, 9.01}},
		InitialStock: 10,
	}
}

func TestCreateProduct(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	prod, err := service.Create(ctx, testCreateParams())
	require.NoError(t, err)

	assert.NotEmpty(t, prod.ID)
	assert.Equal(t, "Woven Basket", prod.Name)
	assert.Equal(t, "merch-1", prod.MerchantID)
	assert.Equal(t, pricing.DeliveryPerKg, prod.Delivery.Mode)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventProductCreated, eventStore.AppendCalls[0].EventType)
}

func TestCreateProductValidation(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*CreateParams)
		wantErr error
	}{
		{"missing name", func(p *CreateParams) { p.Name = "" }, ErrInvalidName},
		{"zero price", func(p *CreateParams) { p.Price = 0 }, ErrInvalidPrice},
		{"missing category", func(p *CreateParams) { p.CategoryID = "" }, ErrInvalidCategory},
		{"missing merchant", func(p *CreateParams) { p.MerchantID = "" }, ErrInvalidMerchant},
		{"bad delivery mode", func(p *CreateParams) { p.Delivery.Mode = "DRONE" }, ErrInvalidDeliveryMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testCreateParams()
			tt.mutate(&p)
			_, err := service.Create(ctx, p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	prod, err := service.Create(ctx, testCreateParams())
	require.NoError(t, err)

	newPrice := 650
	newName := "Large Woven Basket"
	updated, err := service.Update(ctx, prod.ID, "merch-1", UpdateParams{
		Name:  &newName,
		Price: &newPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, "Large Woven Basket", updated.Name)
	assert.Equal(t, 650, updated.Price)
	assert.Equal(t, "Hand-woven sisal basket", updated.Description, "unset fields stay")
}

func TestUpdateProductNotOwner(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	prod, err := service.Create(ctx, testCreateParams())
	require.NoError(t, err)

	newPrice := 650
	_, err = service.Update(ctx, prod.ID, "merch-2", UpdateParams{Price: &newPrice})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestDeleteProduct(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	prod, err := service.Create(ctx, testCreateParams())
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, prod.ID, "merch-1"))

	_, err = service.Get(ctx, prod.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProductNotOwner(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	prod, err := service.Create(ctx, testCreateParams())
	require.NoError(t, err)

	err = service.Delete(ctx, prod.ID, "merch-2")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestSetOfferPrice(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	prod, err := service.Create(ctx, testCreateParams())
	require.NoError(t, err)

	tooHigh := 500 // equal to the list price
	_, err = service.Update(ctx, prod.ID, "merch-1", UpdateParams{OfferPrice: &tooHigh})
	assert.ErrorIs(t, err, ErrInvalidOfferPrice)

	offer := 400
	updated, err := service.Update(ctx, prod.ID, "merch-1", UpdateParams{OfferPrice: &offer})
	require.NoError(t, err)
	assert.Equal(t, 400, updated.OfferPrice)

	cleared := 0
	updated, err = service.Update(ctx, prod.ID, "merch-1", UpdateParams{OfferPrice: &cleared})
	require.NoError(t, err)
	assert.Zero(t, updated.OfferPrice)
}

func TestBanAndUnbanProduct(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	prod, err := service.Create(ctx, testCreateParams())
	require.NoError(t, err)

	require.NoError(t, service.Ban(ctx, prod.ID, "counterfeit goods"))

	banned, err := service.Get(ctx, prod.ID)
	require.NoError(t, err)
	assert.True(t, banned.Banned)
	assert.Equal(t, "counterfeit goods", banned.BanReason)

	// Banning an already banned product appends nothing.
	before := len(eventStore.AppendCalls)
	require.NoError(t, service.Ban(ctx, prod.ID, "again"))
	assert.Len(t, eventStore.AppendCalls, before)

	require.NoError(t, service.Unban(ctx, prod.ID))
	unbanned, err := service.Get(ctx, prod.ID)
	require.NoError(t, err)
	assert.False(t, unbanned.Banned)
	assert.Empty(t, unbanned.BanReason)
}

func TestAddReview(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	prod, err := service.Create(ctx, testCreateParams())
	require.NoError(t, err)

	err = service.AddReview(ctx, prod.ID, "user-1", "Abebe", 6, "too many stars")
	assert.ErrorIs(t, err, ErrInvalidRating)

	require.NoError(t, service.AddReview(ctx, prod.ID, "user-1", "Abebe", 5, "excellent basket"))
	require.NoError(t, service.AddReview(ctx, prod.ID, "user-2", "Sara", 3, ""))

	reviewed, err := service.Get(ctx, prod.ID)
	require.NoError(t, err)
	require.Len(t, reviewed.Reviews, 2)
	assert.Equal(t, 5, reviewed.Reviews[0].Rating)
	assert.Equal(t, "Sara", reviewed.Reviews[1].UserName)
}
