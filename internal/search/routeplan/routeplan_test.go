package routeplan

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-search-core/internal/search/filters"
	"github.com/FACorreiaa/loci-search-core/internal/search/llmclient"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
	"github.com/FACorreiaa/loci-search-core/internal/search/registry"
)

type fakeClient struct {
	raw []byte
	err error
}

func (f fakeClient) Generate(context.Context, llmclient.Request) (llmclient.Response, error) {
	return llmclient.Response{RawJSON: f.raw}, f.err
}

func jsonOf(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestMapTextSearch_AppendsCityAndCuisine(t *testing.T) {
	raw := jsonOf(t, wireTextSearch{TextQuery: "pizza"})
	m := New(fakeClient{raw: raw}, nil)

	cityText := "tel aviv"
	in := models.Intent{CityText: &cityText, CuisineKey: "italian"}
	shared := filters.Resolved{ProviderLanguage: "en", RegionCode: "IL"}

	plan := m.MapTextSearch(context.Background(), in, shared, nil, "pizza in tel aviv")
	require.Equal(t, models.PlanKindTextSearch, plan.Kind)
	assert.Contains(t, plan.TextSearch.TextQuery, "tel aviv")
	assert.Contains(t, plan.TextSearch.TextQuery, "italian")
	assert.Equal(t, models.StrictnessStrict, plan.TextSearch.Strictness)
}

func TestMapTextSearch_BiasFromUserLocationAndCity(t *testing.T) {
	raw := jsonOf(t, wireTextSearch{TextQuery: "sushi"})
	m := New(fakeClient{raw: raw}, nil)

	cityText := "haifa"
	in := models.Intent{CityText: &cityText}
	loc := models.LatLng{Lat: 32.8, Lng: 34.9}
	shared := filters.Resolved{ProviderLanguage: "en", RegionCode: "IL"}

	plan := m.MapTextSearch(context.Background(), in, shared, &loc, "sushi in haifa")
	require.NotNil(t, plan.TextSearch.Bias)
	assert.Equal(t, loc, plan.TextSearch.Bias.Center)
	assert.Equal(t, TextSearchBiasRadiusMeters, plan.TextSearch.Bias.RadiusMeters)
}

func TestMapTextSearch_LLMBiasOverridesUserLocation(t *testing.T) {
	raw := jsonOf(t, wireTextSearch{
		TextQuery: "falafel",
		Bias:      &wireBias{Lat: ptrFloat(32.07), Lng: ptrFloat(34.78), RadiusMeters: ptrInt(1000)},
	})
	m := New(fakeClient{raw: raw}, nil)

	cityText := "tel aviv"
	in := models.Intent{CityText: &cityText}
	loc := models.LatLng{Lat: 0, Lng: 0}
	shared := filters.Resolved{ProviderLanguage: "en", RegionCode: "IL"}

	plan := m.MapTextSearch(context.Background(), in, shared, &loc, "falafel near the old port")
	require.NotNil(t, plan.TextSearch.Bias)
	assert.Equal(t, models.LatLng{Lat: 32.07, Lng: 34.78}, plan.TextSearch.Bias.Center)
	assert.Equal(t, 1000, plan.TextSearch.Bias.RadiusMeters)
}

func ptrFloat(f float64) *float64 { return &f }
func ptrInt(i int) *int           { return &i }

func TestMapNearby_RequiresUserLocation(t *testing.T) {
	m := New(fakeClient{err: assertErr{}}, nil)
	_, err := m.MapNearby(context.Background(), models.Intent{}, filters.Resolved{}, nil, "food near me")
	assert.ErrorIs(t, err, models.ErrNoUserLocation)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestMapNearby_PreservesUserLocation(t *testing.T) {
	m := New(fakeClient{err: assertErr{}}, nil)
	loc := models.LatLng{Lat: 1, Lng: 2}
	plan, err := m.MapNearby(context.Background(), models.Intent{}, filters.Resolved{}, &loc, "food near me")
	require.NoError(t, err)
	assert.Equal(t, loc, plan.Nearby.Center)
	assert.Equal(t, NearbyDefaultRadiusMeters, plan.Nearby.RadiusMeters)
}

func TestMapNearby_ExtractsExplicitRadius(t *testing.T) {
	m := New(fakeClient{err: assertErr{}}, nil)
	loc := models.LatLng{Lat: 1, Lng: 2}
	plan, err := m.MapNearby(context.Background(), models.Intent{}, filters.Resolved{}, &loc, "restaurants within 200 meters")
	require.NoError(t, err)
	assert.Equal(t, 200, plan.Nearby.RadiusMeters)
}

func TestMapLandmark_RegistryHitSkipsGeocode(t *testing.T) {
	reg, err := registry.LoadLandmarkRegistry()
	require.NoError(t, err)

	m := New(fakeClient{err: assertErr{}}, reg)
	landmarkText := "הכותל"
	plan := m.MapLandmark(context.Background(), models.Intent{LandmarkText: &landmarkText}, filters.Resolved{})

	require.Equal(t, models.PlanKindLandmark, plan.Kind)
	assert.Equal(t, models.AfterGeocodeNearbySearch, plan.Landmark.AfterGeocode)
	require.NotNil(t, plan.Landmark.ResolvedLatLng)
	require.NotNil(t, plan.Landmark.LandmarkID)
	assert.Equal(t, "kotel", *plan.Landmark.LandmarkID)
}

func TestMapLandmark_NoRegistryHitFallsBackToGeocodeQuery(t *testing.T) {
	m := New(fakeClient{err: assertErr{}}, nil)
	landmarkText := "some unknown place"
	plan := m.MapLandmark(context.Background(), models.Intent{LandmarkText: &landmarkText}, filters.Resolved{})

	assert.Equal(t, "some unknown place", plan.Landmark.GeocodeQuery)
	assert.Nil(t, plan.Landmark.ResolvedLatLng)
}

func TestExtractRadiusMeters(t *testing.T) {
	cases := map[string]int{
		"200 meters away":  200,
		"500m from here":   500,
		"200 מטר מכאן":      200,
		"no distance here": 0,
	}
	for text, want := range cases {
		got, ok := extractRadiusMeters(text)
		if want == 0 {
			assert.False(t, ok, text)
			continue
		}
		assert.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}
}

func TestStrengthenCuisine_NoOpWhenAlreadyPresent(t *testing.T) {
	assert.Equal(t, "italian pizza", strengthenCuisine("italian pizza", "italian"))
}
