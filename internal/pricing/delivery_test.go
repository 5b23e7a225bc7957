package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addis   = [2]float64{38.7578, 9.0301}
	hawassa = [2]float64{38.4762, 7.0621}
)

func TestDeliveryPrice_Free(t *testing.T) {
	price, err := DeliveryPrice(Quote{Mode: DeliveryFree, BasePrice: 100, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, price)
}

func TestDeliveryPrice_Flat(t *testing.T) {
	price, err := DeliveryPrice(Quote{Mode: DeliveryFlat, BasePrice: 100, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 100, price, "flat rate ignores quantity")
}

func TestDeliveryPrice_PerPiece(t *testing.T) {
	price, err := DeliveryPrice(Quote{Mode: DeliveryPerPiece, BasePrice: 40, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 120, price)
}

func TestDeliveryPrice_PerKg(t *testing.T) {
	tests := []struct {
		name    string
		weight  float64
		bracket float64
		want    int
	}{
		{"exact bracket", 2.0, 1.0, 100},
		{"partial bracket rounds up", 2.5, 1.0, 150},
		{"bigger bracket", 7.0, 5.0, 100},
		{"missing weight is free", 0, 1.0, 0},
		{"zero bracket defaults to 1kg", 3.0, 0, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := DeliveryPrice(Quote{
				Mode:         DeliveryPerKg,
				BasePrice:    50,
				WeightKg:     tt.weight,
				KgPerBracket: tt.bracket,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, price)
		})
	}
}

func TestDeliveryPrice_PerKm(t *testing.T) {
	// Addis Ababa to Hawassa is roughly 220km by great circle.
	price, err := DeliveryPrice(Quote{
		Mode:          DeliveryPerKm,
		BasePrice:     2,
		KmPerBracket:  50,
		ProductCoords: addis,
		BuyerCoords:   hawassa,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, price, "5 brackets of 50km at 2 each")
}

func TestDeliveryPrice_PerKmMissingCoords(t *testing.T) {
	price, err := DeliveryPrice(Quote{
		Mode:          DeliveryPerKm,
		BasePrice:     2,
		KmPerBracket:  50,
		ProductCoords: addis,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, price)
}

func TestDeliveryPrice_UnknownMode(t *testing.T) {
	_, err := DeliveryPrice(Quote{Mode: "DRONE"})
	assert.ErrorIs(t, err, ErrUnknownDeliveryMode)
}

func TestDistanceKm(t *testing.T) {
	// Same point is zero.
	assert.InDelta(t, 0, DistanceKm(addis, addis), 0.001)

	// Addis Ababa to Hawassa, great circle.
	d := DistanceKm(addis, hawassa)
	assert.InDelta(t, 220, d, 5)

	// Symmetric.
	assert.InDelta(t, d, DistanceKm(hawassa, addis), 0.001)
}

func TestDeliveryModeValid(t *testing.T) {
	for _, m := range []DeliveryMode{DeliveryFree, DeliveryFlat, DeliveryPerPiece, DeliveryPerKg, DeliveryPerKm} {
		assert.True(t, m.Valid())
	}
	assert.False(t, DeliveryMode("DRONE").Valid())
	assert.False(t, DeliveryMode("").Valid())
}
