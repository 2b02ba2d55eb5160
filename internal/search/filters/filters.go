// Package filters implements C8 Shared Filters Resolver: pure derivation
// of provider language, region code, price filters, and an opening-state
// predicate, all deterministic and LLM-free.
package filters

import (
	"time"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
	"github.com/FACorreiaa/loci-search-core/internal/search/registry"
)

// DefaultRegion is used when neither the intent nor the device carries a
// region signal.
const DefaultRegion = "IL"

// PriceLevel mirrors the provider's price-level enumeration.
type PriceLevel int

const (
	PriceLevelInexpensive PriceLevel = 1
	PriceLevelModerate    PriceLevel = 2
	PriceLevelExpensive   PriceLevel = 3
	PriceLevelVeryExpensive PriceLevel = 4
)

// priceLevelsByIntent maps the user's price intent to the provider price
// levels that satisfy it.
var priceLevelsByIntent = map[models.PriceIntent][]PriceLevel{
	models.PriceAny:       {PriceLevelInexpensive, PriceLevelModerate, PriceLevelExpensive, PriceLevelVeryExpensive},
	models.PriceCheap:     {PriceLevelInexpensive},
	models.PriceMid:       {PriceLevelModerate},
	models.PriceExpensive: {PriceLevelExpensive, PriceLevelVeryExpensive},
}

// Resolved is the output of Resolve.
type Resolved struct {
	UILanguage       models.Language
	ProviderLanguage string
	RegionCode       string
	PriceLevels      []PriceLevel
	OpenNowPredicate bool
}

// providerLanguageCodes maps the assistant language to the BCP-47 code the
// places provider expects.
var providerLanguageCodes = map[models.Language]string{
	models.LangHebrew:  "iw",
	models.LangEnglish: "en",
	models.LangRussian: "ru",
	models.LangArabic:  "ar",
	models.LangFrench:  "fr",
	models.LangSpanish: "es",
}

// Resolve derives the shared filter set from a validated intent plus an
// optional device-reported region.
func Resolve(in models.Intent, deviceRegion string) Resolved {
	region := DefaultRegion
	if in.RegionCandidate != nil && *in.RegionCandidate != "" {
		region = *in.RegionCandidate
	} else if deviceRegion != "" {
		region = deviceRegion
	}

	providerLang := providerLanguageCodes[in.AssistantLanguage]
	if providerLang == "" {
		providerLang = "en"
	}

	return Resolved{
		UILanguage:       in.AssistantLanguage,
		ProviderLanguage: providerLang,
		RegionCode:       region,
		PriceLevels:      priceLevelsByIntent[in.PriceIntent],
		OpenNowPredicate: in.OpenNowRequested,
	}
}

// IsOpenNow evaluates a TriBool-returning open-now predicate against the
// current local time — a stand-in until a real opening-hours payload is
// plumbed through from the provider; until then every place reports
// UNKNOWN, never a guessed true/false, per the UNKNOWN-honesty invariant.
func IsOpenNow(_ time.Time) models.TriBool {
	return models.TriUnknown
}

// CityBenefit reports whether two city texts should be treated as the same
// city for "different known city" classification, delegating to the
// city-alias table and giving unknown input the benefit of the doubt.
func CityBenefit(table *registry.CityAliasTable, resultCity, queryCity string) bool {
	if table == nil {
		return true
	}
	return table.SameCity(resultCity, queryCity)
}

// Apply runs the soft filter stage over a fetched candidate set, dropping
// only what the resolved predicate can affirmatively rule out and counting
// every removal into FilterStats so the scenario classifier and ChatBack
// copy see real numbers rather than zero-value stand-ins.
//
// Open-now filtering only ever removes a place the provider has confirmed
// closed (TriFalse); an UNKNOWN opening state is kept, per the
// UNKNOWN-honesty invariant IsOpenNow already observes. Price filtering is
// a no-op today: Place carries no provider price level to test against, so
// PriceRemoved always reports zero rather than a fabricated count.
func Apply(results []models.Place, resolved Resolved) ([]models.Place, models.FilterStats) {
	stats := models.FilterStats{CandidateCount: len(results)}

	if !resolved.OpenNowPredicate {
		stats.FinalCount = len(results)
		return results, stats
	}

	kept := make([]models.Place, 0, len(results))
	for _, p := range results {
		if p.OpenNow == models.TriFalse {
			stats.OpenNowRemoved++
			continue
		}
		kept = append(kept, p)
	}
	stats.FinalCount = len(kept)
	return kept, stats
}
