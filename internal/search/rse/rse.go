// Package rse implements C10 ResultStateEngine: a deterministic, LLM-free
// classifier that assigns exactly one of 11 scenario tags to an executed
// search outcome and produces the structured ResponsePlan fed to ChatBack.
package rse

import (
	"github.com/FACorreiaa/loci-search-core/internal/search/metrics"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// RepeatUnsuccessfulThreshold is how many consecutive unsuccessful
// outcomes for the same session escalate to repeat_unsuccessful.
const RepeatUnsuccessfulThreshold = 2

// unsuccessfulScenarios is the set that counts toward repeat escalation.
var unsuccessfulScenarios = map[models.Scenario]bool{
	models.ScenarioZeroNearbyExists:  true,
	models.ScenarioZeroDifferentCity: true,
	models.ScenarioManyAllClosed:     true,
	models.ScenarioClarifyNeeded:     true,
}

// Input is everything the classifier needs: the route actually executed,
// the flat+grouped result set, filter bookkeeping, and session-scoped
// repeat-failure state.
type Input struct {
	Intent            models.Intent
	Route             models.Route
	QueryEmpty        bool
	Results           []models.Place
	Groups            []models.ResultGroup
	FilterStats       models.FilterStats
	NearbyCityResults *NearbyCityResult
	PriorUnsuccessfulStreak int
}

// NearbyCityResult describes a different known city with results, used to
// distinguish zero_different_city from zero_nearby_exists.
type NearbyCityResult struct {
	CityName     string
	DistanceKm   float64
	ResultCount  int
}

// Classify assigns exactly one scenario and builds its ResponsePlan,
// minus the ChatBack message text (filled in by C11).
func Classify(in Input) models.ResponsePlan {
	scenario := classifyScenario(in)
	metrics.ScenarioTotal.WithLabelValues(string(scenario)).Inc()

	exact, nearby := splitGroups(in.Groups, in.Results)

	summary := models.ResultsSummary{
		ExactCount:   exact,
		NearbyCount:  nearby,
		TotalCount:   len(in.Results),
		OpenNowCount: countOpenNow(in.Results),
		// ClosingSoonCount requires real opening-hours data, never guessed;
		// stays 0 until that data source is plumbed in.
		ClosingSoonCount: 0,
	}

	plan := models.ResponsePlan{
		Scenario:       scenario,
		ResultsSummary: summary,
		FilterStats:    in.FilterStats,
		Fallback:       fallbackFor(scenario, in),
		SuggestedActions: suggestedActionsFor(scenario, in),
		Guardrails:     guardrailsFor(scenario),
	}
	return plan
}

func splitGroups(groups []models.ResultGroup, flat []models.Place) (exact, nearby int) {
	if len(groups) == 0 {
		return len(flat), 0
	}
	for _, g := range groups {
		switch g.Kind {
		case models.GroupExact:
			exact += len(g.Results)
		case models.GroupNearby:
			nearby += len(g.Results)
		}
	}
	return exact, nearby
}

func countOpenNow(results []models.Place) int {
	n := 0
	for _, p := range results {
		if p.OpenNow == models.TriTrue {
			n++
		}
	}
	return n
}

func classifyScenario(in Input) models.Scenario {
	if in.Route == models.RouteClarify {
		return models.ScenarioClarifyNeeded
	}
	if in.QueryEmpty {
		return models.ScenarioMissingQuery
	}
	if !in.Intent.LocationAnchor.Present && !in.Intent.NearMe {
		return models.ScenarioMissingLocation
	}
	if in.Intent.Confidence < 0.5 {
		return models.ScenarioLowConfidence
	}

	total := len(in.Results)

	if total == 0 {
		if in.NearbyCityResults != nil && in.NearbyCityResults.ResultCount > 0 {
			if in.PriorUnsuccessfulStreak >= RepeatUnsuccessfulThreshold {
				return models.ScenarioRepeatUnsuccessful
			}
			return models.ScenarioZeroDifferentCity
		}
		if in.PriorUnsuccessfulStreak >= RepeatUnsuccessfulThreshold {
			return models.ScenarioRepeatUnsuccessful
		}
		return models.ScenarioZeroNearbyExists
	}

	openCount := countOpenNow(in.Results)
	closedCount := total - openCount

	switch {
	case closedCount == total && total > 0:
		return models.ScenarioManyAllClosed
	case closedCount > 0 && closedCount < total && float64(closedCount)/float64(total) >= 0.5:
		return models.ScenarioFewAllClosed
	case closedCount > 0 && closedCount < total:
		return models.ScenarioFewClosingSoon
	}

	return models.ScenarioExactMatch
}

func fallbackFor(scenario models.Scenario, in Input) models.FallbackOptions {
	switch scenario {
	case models.ScenarioZeroNearbyExists, models.ScenarioZeroDifferentCity, models.ScenarioManyAllClosed:
		return models.FallbackOptions{Offered: true, RelaxField: "radiusMeters"}
	case models.ScenarioFewAllClosed, models.ScenarioFewClosingSoon:
		return models.FallbackOptions{Offered: true, RelaxField: "openNowRequested"}
	default:
		return models.FallbackOptions{Offered: false}
	}
}

func suggestedActionsFor(scenario models.Scenario, in Input) []models.Action {
	switch scenario {
	case models.ScenarioZeroNearbyExists:
		return []models.Action{
			{Priority: 1, Label: "expand_radius", Value: "expand_radius"},
		}
	case models.ScenarioZeroDifferentCity:
		label := "nearby_city"
		if in.NearbyCityResults != nil {
			label = in.NearbyCityResults.CityName
		}
		return []models.Action{
			{Priority: 1, Label: label, Value: "nearby_city"},
			{Priority: 2, Label: "expand_radius", Value: "expand_radius"},
		}
	case models.ScenarioManyAllClosed, models.ScenarioFewAllClosed:
		return []models.Action{
			{Priority: 1, Label: "drop_constraint", Value: "drop_open_now"},
		}
	case models.ScenarioClarifyNeeded:
		return []models.Action{}
	default:
		return nil
	}
}

func guardrailsFor(scenario models.Scenario) models.Guardrails {
	switch scenario {
	case models.ScenarioExactMatch:
		return models.Guardrails{MustMentionCount: true, CanMentionTiming: true, CanMentionLocation: true}
	case models.ScenarioFewClosingSoon, models.ScenarioFewAllClosed, models.ScenarioManyAllClosed:
		return models.Guardrails{MustMentionCount: true, MustSuggestAction: true, CanMentionTiming: true}
	case models.ScenarioZeroNearbyExists, models.ScenarioZeroDifferentCity, models.ScenarioRepeatUnsuccessful:
		return models.Guardrails{MustSuggestAction: true, CanMentionLocation: true}
	case models.ScenarioClarifyNeeded:
		return models.Guardrails{MustSuggestAction: true}
	default:
		return models.Guardrails{CanMentionLocation: true}
	}
}
