// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package location

import (
	"math"
)

const (
	EarthRadius = 6371000.0 // meters
)

// Accuracy radii in meters assigned to lookups that only know the named place.
const (
	AccuracyCountry = 300000
	AccuracyRegion  = 100000
	AccuracyCity    = 15000
	AccuracyZip     = 3000
	AccuracyUnknown = 1000000
	TruncPrecision  = 4
)

// Coordinate represents a geographic coordinate. Acc is the accuracy radius in meters, zero if
// unknown.
type Coordinate struct {
	Lat float64
	Lon float64
	Acc float64
}

// Valid checks if the coordinate is valid according to the EPSG logic
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180 &&
		!math.IsNaN(c.Lat) && !math.IsNaN(c.Lon)
}

// DistanceMeters returns the great-circle distance to other using the Haversine formula.
func (c Coordinate) DistanceMeters(other Coordinate) float64 {
	dLat := (c.Lat - other.Lat) * math.Pi / 180
	dLon := (c.Lon - other.Lon) * math.Pi / 180
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

// AccuracyFromPlace estimates an accuracy radius from the most specific place component an
// IP based lookup returned.
func AccuracyFromPlace(country, region, city, zip string) float64 {
	switch {
	case zip != "":
		return AccuracyZip
	case city != "":
		return AccuracyCity
	case region != "":
		return AccuracyRegion
	case country != "":
		return AccuracyCountry
	default:
		return AccuracyUnknown
	}
}

func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}
