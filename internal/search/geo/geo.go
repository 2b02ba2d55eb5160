// Package geo provides the distance and radius-band helpers shared by the
// deterministic resolvers (C3) and result grouping (C9).
package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// DistanceMeters returns the great-circle distance between a and b in
// meters, via orb/geo's haversine implementation.
func DistanceMeters(a, b models.LatLng) float64 {
	pa := orb.Point{a.Lng, a.Lat}
	pb := orb.Point{b.Lng, b.Lat}
	return geo.Distance(pa, pb)
}

// WithinRadius reports whether point lies within radiusMeters of center.
func WithinRadius(center, point models.LatLng, radiusMeters int) bool {
	return DistanceMeters(center, point) <= float64(radiusMeters)
}

// DefaultExactRadiusMeters and DefaultNearbyRadiusMeters are the dual-radius
// bands C9 uses when street grouping is active.
const (
	DefaultExactRadiusMeters  = 200
	DefaultNearbyRadiusMeters = 400
)

// TagGroup assigns GroupKind and DistanceMeters to a place relative to
// center, classifying it EXACT if within exactRadius, else NEARBY.
func TagGroup(center models.LatLng, p models.Place, exactRadiusMeters int) models.Place {
	d := DistanceMeters(center, p.Location)
	p.DistanceMeters = &d
	if d <= float64(exactRadiusMeters) {
		p.GroupKind = models.GroupExact
	} else {
		p.GroupKind = models.GroupNearby
	}
	return p
}
