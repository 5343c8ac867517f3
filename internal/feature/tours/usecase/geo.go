package usecase

import (
	"math"
	"strconv"
	"strings"

	"natours/internal/domain/entity"
)

// Units accepted by the geo endpoints.
const (
	UnitMiles      = "mi"
	UnitKilometers = "km"
)

// Earth radii used to turn a search radius into radians.
const (
	earthRadiusMi = 3963.2
	earthRadiusKm = 6378.1
)

const earthRadiusM = earthRadiusKm * 1000

// Multipliers from meters to the reported unit.
const (
	metersToMi = 0.000621371
	metersToKm = 0.001
)

// earthRadius returns the radius in unit, or false for an unknown unit.
func earthRadius(unit string) (float64, bool) {
	switch unit {
	case UnitMiles:
		return earthRadiusMi, true
	case UnitKilometers:
		return earthRadiusKm, true
	}
	return 0, false
}

// ParseLatLng parses "lat,lng".
func ParseLatLng(s string) (lat, lng float64, err error) {
	rawLat, rawLng, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, ErrInvalidPoint
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, ErrInvalidPoint
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(rawLng), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, ErrInvalidPoint
	}
	return lat, lng, nil
}

// angularDistance returns the great circle distance between two points in radians.
func angularDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// metersMultiplier returns the factor converting meters to unit.
func metersMultiplier(unit string) (float64, bool) {
	switch unit {
	case UnitMiles:
		return metersToMi, true
	case UnitKilometers:
		return metersToKm, true
	}
	return 0, false
}

// angleTo returns the angular distance from a point to the tour's start location.
func angleTo(lat, lng float64, t entity.Tour) float64 {
	return angularDistance(lat, lng, t.StartLocation.Lat, t.StartLocation.Lng)
}
