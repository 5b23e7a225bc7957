package pricing

import (
	"errors"
	"math"
)

// DeliveryMode selects how a product's delivery cost is computed.
type DeliveryMode string

const (
	DeliveryFree     DeliveryMode = "FREE"
	DeliveryFlat     DeliveryMode = "FLAT"
	DeliveryPerPiece DeliveryMode = "PERPIECE"
	DeliveryPerKg    DeliveryMode = "PERKG"
	DeliveryPerKm    DeliveryMode = "PERKM"
)

var ErrUnknownDeliveryMode = errors.New("unknown delivery mode")

// Valid reports whether m is one of the supported delivery modes.
func (m DeliveryMode) Valid() bool {
	switch m {
	case DeliveryFree, DeliveryFlat, DeliveryPerPiece, DeliveryPerKg, DeliveryPerKm:
		return true
	}
	return false
}

// Quote holds the inputs for one product's delivery-cost calculation.
// Coordinates are [longitude, latitude] pairs.
type Quote struct {
	Mode          DeliveryMode
	BasePrice     int     // price unit for the mode (flat fee, per piece, per bracket)
	Quantity      int     // ordered units, used by PERPIECE
	WeightKg      float64 // product weight, used by PERKG
	KgPerBracket  float64 // kilograms covered per BasePrice charge
	KmPerBracket  float64 // kilometers covered per BasePrice charge
	ProductCoords [2]float64
	BuyerCoords   [2]float64
}

// DeliveryPrice computes the delivery cost for a quote. Missing weight or
// coordinates yield zero cost rather than an error, matching how the
// storefront treats incomplete listings.
func DeliveryPrice(q Quote) (int, error) {
	switch q.Mode {
	case DeliveryFree:
		return 0, nil
	case DeliveryFlat:
		return q.BasePrice, nil
	case DeliveryPerPiece:
		return q.BasePrice * q.Quantity, nil
	case DeliveryPerKg:
		if q.WeightKg <= 0 {
			return 0, nil
		}
		bracket := q.KgPerBracket
		if bracket <= 0 {
			bracket = 1
		}
		return q.BasePrice * int(math.Ceil(q.WeightKg/bracket)), nil
	case DeliveryPerKm:
		if q.BuyerCoords == [2]float64{} || q.ProductCoords == [2]float64{} {
			return 0, nil
		}
		bracket := q.KmPerBracket
		if bracket <= 0 {
			bracket = 1
		}
		distance := DistanceKm(q.ProductCoords, q.BuyerCoords)
		return q.BasePrice * int(math.Ceil(distance/bracket)), nil
	default:
		return 0, ErrUnknownDeliveryMode
	}
}

const earthRadiusKm = 6371

// DistanceKm returns the great-circle distance between two [lon, lat]
// coordinate pairs using the haversine formula.
func DistanceKm(a, b [2]float64) float64 {
	lon1, lat1 := a[0], a[1]
	lon2, lat2 := b[0], b[1]

	dLat := deg2rad(lat2 - lat1)
	dLon := deg2rad(lon2 - lon1)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
