package cacheguard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

func textPlan(query string) models.ProviderPlan {
	return models.NewTextSearchProviderPlan(models.TextSearchPlan{
		TextQuery:        query,
		ProviderLanguage: "en",
		Strictness:       models.StrictnessStrict,
	})
}

func TestKey_Deterministic(t *testing.T) {
	p1 := textPlan("pizza near dizengoff")
	p2 := textPlan("pizza near dizengoff")
	assert.Equal(t, Key(p1), Key(p2))
}

func TestKey_DiffersOnQuery(t *testing.T) {
	assert.NotEqual(t, Key(textPlan("pizza")), Key(textPlan("sushi")))
}

func TestKey_DiffersByKind(t *testing.T) {
	text := textPlan("pizza")
	nearby := models.NewNearbyProviderPlan(models.NearbyPlan{
		Center:       models.LatLng{Lat: 1, Lng: 2},
		RadiusMeters: 500,
	})
	assert.NotEqual(t, Key(text), Key(nearby))
}

func TestGuard_StoreAndLookup(t *testing.T) {
	g := New(time.Minute)
	plan := textPlan("ramen")
	_, ok := g.Lookup(context.Background(), plan)
	assert.False(t, ok, "must miss before any store")

	g.Store(plan, models.SearchResult{Results: []models.Place{{ID: "p1"}}})

	res, ok := g.Lookup(context.Background(), plan)
	require.True(t, ok)
	assert.Len(t, res.Results, 1)
}

func TestGuard_Metrics(t *testing.T) {
	g := New(time.Minute)
	plan := textPlan("falafel")
	g.Store(plan, models.SearchResult{})
	_, _ = g.Lookup(context.Background(), plan)
	_, _ = g.Lookup(context.Background(), textPlan("missing"))

	m := g.Metrics()
	assert.Equal(t, int64(1), m.Sets)
	assert.GreaterOrEqual(t, m.Hits, int64(1))
	assert.GreaterOrEqual(t, m.Misses, int64(1))
}
