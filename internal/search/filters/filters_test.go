package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

func TestResolve_DefaultsToIL(t *testing.T) {
	r := Resolve(models.Intent{AssistantLanguage: models.LangHebrew}, "")
	assert.Equal(t, "IL", r.RegionCode)
	assert.Equal(t, "iw", r.ProviderLanguage)
}

func TestResolve_RegionCandidateWins(t *testing.T) {
	region := "US"
	r := Resolve(models.Intent{RegionCandidate: &region}, "FR")
	assert.Equal(t, "US", r.RegionCode)
}

func TestResolve_DeviceRegionFallback(t *testing.T) {
	r := Resolve(models.Intent{}, "FR")
	assert.Equal(t, "FR", r.RegionCode)
}

func TestResolve_PriceLevels(t *testing.T) {
	r := Resolve(models.Intent{PriceIntent: models.PriceCheap}, "")
	assert.Equal(t, []PriceLevel{PriceLevelInexpensive}, r.PriceLevels)
}

func TestIsOpenNow_AlwaysUnknown(t *testing.T) {
	assert.Equal(t, models.TriUnknown, IsOpenNow(time.Now()))
}

func TestApply_NoPredicateKeepsEverything(t *testing.T) {
	results := []models.Place{{ID: "a", OpenNow: models.TriFalse}, {ID: "b", OpenNow: models.TriUnknown}}
	kept, stats := Apply(results, Resolved{OpenNowPredicate: false})
	assert.Len(t, kept, 2)
	assert.Equal(t, models.FilterStats{CandidateCount: 2, FinalCount: 2}, stats)
}

func TestApply_OpenNowDropsOnlyConfirmedClosed(t *testing.T) {
	results := []models.Place{
		{ID: "closed", OpenNow: models.TriFalse},
		{ID: "open", OpenNow: models.TriTrue},
		{ID: "unknown", OpenNow: models.TriUnknown},
	}
	kept, stats := Apply(results, Resolved{OpenNowPredicate: true})
	require.Len(t, kept, 2)
	assert.ElementsMatch(t, []string{"open", "unknown"}, []string{kept[0].ID, kept[1].ID})
	assert.Equal(t, 3, stats.CandidateCount)
	assert.Equal(t, 1, stats.OpenNowRemoved)
	assert.Equal(t, 0, stats.PriceRemoved)
	assert.Equal(t, 2, stats.FinalCount)
}
