package core

import "math"

const earthRadiusKm = 6371.0

// Location is a geo point with its human-readable place.
type Location struct {
	Lat  *float64 `json:"lat,omitempty" db:"lat" validate:"omitempty,latitude"`
	Lng  *float64 `json:"lng,omitempty" db:"lng" validate:"omitempty,longitude"`
	City string   `json:"city,omitempty" db:"city"`
	Area string   `json:"area,omitempty" db:"area"`
}

func (l Location) HasCoords() bool { return l.Lat != nil && l.Lng != nil }

// Near filters results to a radius around a point.
type Near struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// DistanceKm returns the great-circle distance between two points (haversine).
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Contains reports whether `loc` lies within the radius. Locations without coordinates never match.
func (n Near) Contains(loc Location) bool {
	if !loc.HasCoords() {
		return false
	}
	return DistanceKm(n.Lat, n.Lng, *loc.Lat, *loc.Lng) <= n.RadiusKm
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }
