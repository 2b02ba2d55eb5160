package rse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

func TestClassify_ClarifyNeeded(t *testing.T) {
	plan := Classify(Input{Route: models.RouteClarify})
	assert.Equal(t, models.Scenario("clarify_needed"), plan.Scenario)
}

func TestClassify_MissingLocation(t *testing.T) {
	in := Input{
		Route:  models.RouteTextSearch,
		Intent: models.Intent{Confidence: 0.9, LocationAnchor: models.LocationAnchor{Present: false}},
	}
	plan := Classify(in)
	assert.Equal(t, models.Scenario("missing_location"), plan.Scenario)
}

func TestClassify_ZeroNearbyExists(t *testing.T) {
	in := Input{
		Route:  models.RouteNearby,
		Intent: models.Intent{Confidence: 0.9, NearMe: true},
	}
	plan := Classify(in)
	assert.Equal(t, models.Scenario("zero_nearby_exists"), plan.Scenario)
	assert.True(t, plan.Fallback.Offered)
}

func TestClassify_ZeroDifferentCity(t *testing.T) {
	in := Input{
		Route:             models.RouteTextSearch,
		Intent:            models.Intent{Confidence: 0.9, LocationAnchor: models.LocationAnchor{Present: true}},
		NearbyCityResults: &NearbyCityResult{CityName: "Haifa", ResultCount: 5},
	}
	plan := Classify(in)
	assert.Equal(t, models.Scenario("zero_different_city"), plan.Scenario)
}

func TestClassify_RepeatUnsuccessfulEscalates(t *testing.T) {
	in := Input{
		Route:                   models.RouteTextSearch,
		Intent:                  models.Intent{Confidence: 0.9, LocationAnchor: models.LocationAnchor{Present: true}},
		PriorUnsuccessfulStreak: RepeatUnsuccessfulThreshold,
	}
	plan := Classify(in)
	assert.Equal(t, models.Scenario("repeat_unsuccessful"), plan.Scenario)
}

func TestClassify_ExactMatch(t *testing.T) {
	in := Input{
		Route:  models.RouteTextSearch,
		Intent: models.Intent{Confidence: 0.9, LocationAnchor: models.LocationAnchor{Present: true}},
		Results: []models.Place{
			{ID: "1", OpenNow: models.TriTrue},
			{ID: "2", OpenNow: models.TriTrue},
		},
	}
	plan := Classify(in)
	assert.Equal(t, models.Scenario("exact_match"), plan.Scenario)
	assert.Equal(t, 2, plan.ResultsSummary.TotalCount)
	assert.Equal(t, 2, plan.ResultsSummary.OpenNowCount)
}

func TestClassify_ManyAllClosed(t *testing.T) {
	in := Input{
		Route:  models.RouteTextSearch,
		Intent: models.Intent{Confidence: 0.9, LocationAnchor: models.LocationAnchor{Present: true}},
		Results: []models.Place{
			{ID: "1", OpenNow: models.TriFalse},
			{ID: "2", OpenNow: models.TriFalse},
		},
	}
	plan := Classify(in)
	assert.Equal(t, models.Scenario("many_all_closed"), plan.Scenario)
}

func TestClassify_LowConfidence(t *testing.T) {
	in := Input{
		Route:  models.RouteTextSearch,
		Intent: models.Intent{Confidence: 0.2, LocationAnchor: models.LocationAnchor{Present: true}},
	}
	plan := Classify(in)
	assert.Equal(t, models.Scenario("low_confidence"), plan.Scenario)
}

func TestClassify_MissingQuery(t *testing.T) {
	plan := Classify(Input{Route: models.RouteTextSearch, QueryEmpty: true})
	assert.Equal(t, models.Scenario("missing_query"), plan.Scenario)
}
