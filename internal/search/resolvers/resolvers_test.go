package resolvers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

func TestResolveSearchMode(t *testing.T) {
	cases := []struct {
		name    string
		intent  models.Intent
		gps     bool
		want    SearchMode
		reason  string
	}{
		{
			name:   "no food anchor clarifies",
			intent: models.Intent{FoodAnchor: models.FoodAnchor{Present: false}},
			want:   ModeClarify, reason: "missing_food_anchor",
		},
		{
			name: "explicit location is full",
			intent: models.Intent{
				FoodAnchor:     models.FoodAnchor{Present: true},
				LocationAnchor: models.LocationAnchor{Present: true},
			},
			want: ModeFull, reason: "explicit_location",
		},
		{
			name: "near me with gps is assisted",
			intent: models.Intent{
				FoodAnchor: models.FoodAnchor{Present: true},
				NearMe:     true,
			},
			gps: true, want: ModeAssisted, reason: "near_me_with_gps",
		},
		{
			name: "near me without gps clarifies",
			intent: models.Intent{
				FoodAnchor: models.FoodAnchor{Present: true},
				NearMe:     true,
			},
			gps: false, want: ModeClarify, reason: "near_me_without_gps",
		},
		{
			name: "no location clarifies",
			intent: models.Intent{
				FoodAnchor: models.FoodAnchor{Present: true},
			},
			want: ModeClarify, reason: "no_location",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveSearchMode(tc.intent, tc.gps)
			assert.Equal(t, tc.want, got.Mode)
			assert.Equal(t, tc.reason, got.Reason)
		})
	}
}

func TestResolveCenter(t *testing.T) {
	gps := &models.LatLng{Lat: 1, Lng: 2}

	t.Run("near me with gps wins", func(t *testing.T) {
		intent := models.Intent{NearMe: true, LocationAnchor: models.LocationAnchor{Present: true, Text: "city"}}
		res := ResolveCenter(intent, gps, func(string) (models.LatLng, bool) { return models.LatLng{Lat: 9, Lng: 9}, true })
		assert.Equal(t, CenterSourceGPS, res.Source)
		assert.Equal(t, *gps, *res.Center)
	})

	t.Run("explicit anchor geocodes", func(t *testing.T) {
		intent := models.Intent{LocationAnchor: models.LocationAnchor{Present: true, Text: "tel aviv"}}
		res := ResolveCenter(intent, nil, func(string) (models.LatLng, bool) { return models.LatLng{Lat: 32, Lng: 34}, true })
		assert.Equal(t, CenterSourceGeocoded, res.Source)
		assert.Equal(t, models.LatLng{Lat: 32, Lng: 34}, *res.Center)
	})

	t.Run("geocode failure never raises, degrades to unknown", func(t *testing.T) {
		intent := models.Intent{LocationAnchor: models.LocationAnchor{Present: true, Text: "nowhere"}}
		res := ResolveCenter(intent, nil, func(string) (models.LatLng, bool) { return models.LatLng{}, false })
		assert.Equal(t, CenterSourceUnknown, res.Source)
		assert.Nil(t, res.Center)
	})

	t.Run("no anchor is unknown", func(t *testing.T) {
		res := ResolveCenter(models.Intent{}, nil, nil)
		assert.Equal(t, CenterSourceUnknown, res.Source)
	})
}

func TestResolveRadiusMeters(t *testing.T) {
	explicit := 300
	cases := []struct {
		name   string
		intent models.Intent
		want   int
		source RadiusSource
	}{
		{"explicit wins", models.Intent{ExplicitDistance: models.ExplicitDistance{Meters: &explicit}, NearMe: true}, 300, RadiusSourceExplicit},
		{"near me default", models.Intent{NearMe: true}, DefaultRadiusNearMe, RadiusSourceNearMe},
		{"city default", models.Intent{LocationAnchor: models.LocationAnchor{Type: models.AnchorCity}}, DefaultRadiusCity, RadiusSourceAnchorType},
		{"street default", models.Intent{LocationAnchor: models.LocationAnchor{Type: models.AnchorStreet}}, DefaultRadiusStreet, RadiusSourceAnchorType},
		{"poi default", models.Intent{LocationAnchor: models.LocationAnchor{Type: models.AnchorPOI}}, DefaultRadiusPOI, RadiusSourceAnchorType},
		{"fallback default", models.Intent{}, DefaultRadiusFallback, RadiusSourceAnchorType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveRadiusMeters(tc.intent)
			assert.Equal(t, tc.want, got.Meters)
			assert.Equal(t, tc.source, got.Source)
		})
	}
}
