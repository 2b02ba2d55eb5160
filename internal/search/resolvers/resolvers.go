// Package resolvers implements C3 Deterministic Resolvers: three pure,
// total functions deriving search mode, center, and radius from a
// validated Intent. None of them call the network or the LLM.
package resolvers

import "github.com/FACorreiaa/loci-search-core/internal/search/models"

// SearchMode is the outcome of resolveSearchMode.
type SearchMode string

const (
	ModeFull     SearchMode = "FULL"
	ModeAssisted SearchMode = "ASSISTED"
	ModeClarify  SearchMode = "CLARIFY"
)

// SearchModeResult pairs the resolved mode with the reason it was chosen.
type SearchModeResult struct {
	Mode   SearchMode
	Reason string
}

// ResolveSearchMode implements the search-mode priority chain:
// absent food anchor -> CLARIFY; explicit location (not nearMe) -> FULL;
// nearMe+GPS -> ASSISTED; nearMe without GPS -> CLARIFY; no location -> CLARIFY.
func ResolveSearchMode(intent models.Intent, gpsAvailable bool) SearchModeResult {
	if !intent.FoodAnchor.Present {
		return SearchModeResult{Mode: ModeClarify, Reason: "missing_food_anchor"}
	}
	if intent.LocationAnchor.Present && !intent.NearMe {
		return SearchModeResult{Mode: ModeFull, Reason: "explicit_location"}
	}
	if intent.NearMe && gpsAvailable {
		return SearchModeResult{Mode: ModeAssisted, Reason: "near_me_with_gps"}
	}
	if intent.NearMe && !gpsAvailable {
		return SearchModeResult{Mode: ModeClarify, Reason: "near_me_without_gps"}
	}
	return SearchModeResult{Mode: ModeClarify, Reason: "no_location"}
}

// CenterSource names where a resolved center came from.
type CenterSource string

const (
	CenterSourceGPS      CenterSource = "gps"
	CenterSourceGeocoded CenterSource = "geocoded"
	CenterSourceUnknown  CenterSource = "unknown"
)

// CenterResult is the outcome of resolveCenter.
type CenterResult struct {
	Center *models.LatLng
	Source CenterSource
}

// Geocoder resolves free text to a coordinate; a failure must never raise,
// only report ok=false.
type Geocoder func(text string) (models.LatLng, bool)

// ResolveCenter implements the center priority chain: nearMe+GPS -> GPS;
// explicit anchor -> geocode; else unknown. Geocode errors degrade to
// unknown rather than propagating.
func ResolveCenter(intent models.Intent, gpsCoords *models.LatLng, geocode Geocoder) CenterResult {
	if intent.NearMe && gpsCoords != nil {
		c := *gpsCoords
		return CenterResult{Center: &c, Source: CenterSourceGPS}
	}
	if intent.LocationAnchor.Present && intent.LocationAnchor.Text != "" && geocode != nil {
		if ll, ok := geocode(intent.LocationAnchor.Text); ok {
			c := ll
			return CenterResult{Center: &c, Source: CenterSourceGeocoded}
		}
	}
	return CenterResult{Center: nil, Source: CenterSourceUnknown}
}

// Anchor-type default radii.
const (
	DefaultRadiusNearMe  = 1000
	DefaultRadiusCity    = 2000
	DefaultRadiusStreet  = 200
	DefaultRadiusPOI     = 1000
	DefaultRadiusGPS     = 1000
	DefaultRadiusFallback = 1000
)

// RadiusSource names why a particular radius was chosen.
type RadiusSource string

const (
	RadiusSourceExplicit   RadiusSource = "explicit_user_distance"
	RadiusSourceNearMe     RadiusSource = "near_me_default"
	RadiusSourceAnchorType RadiusSource = "anchor_type_default"
)

// RadiusResult is the outcome of resolveRadiusMeters.
type RadiusResult struct {
	Meters int
	Source RadiusSource
}

// ResolveRadiusMeters implements the radius priority chain: explicit user
// distance beats the nearMe default, which beats the anchor-type default.
// The result is a hard filter: callers must eliminate out-of-radius
// results, never merely re-rank them.
func ResolveRadiusMeters(intent models.Intent) RadiusResult {
	if intent.ExplicitDistance.Meters != nil {
		return RadiusResult{Meters: *intent.ExplicitDistance.Meters, Source: RadiusSourceExplicit}
	}
	if intent.NearMe {
		return RadiusResult{Meters: DefaultRadiusNearMe, Source: RadiusSourceNearMe}
	}
	switch intent.LocationAnchor.Type {
	case models.AnchorCity:
		return RadiusResult{Meters: DefaultRadiusCity, Source: RadiusSourceAnchorType}
	case models.AnchorStreet:
		return RadiusResult{Meters: DefaultRadiusStreet, Source: RadiusSourceAnchorType}
	case models.AnchorPOI:
		return RadiusResult{Meters: DefaultRadiusPOI, Source: RadiusSourceAnchorType}
	case models.AnchorGPS:
		return RadiusResult{Meters: DefaultRadiusGPS, Source: RadiusSourceAnchorType}
	default:
		return RadiusResult{Meters: DefaultRadiusFallback, Source: RadiusSourceAnchorType}
	}
}
