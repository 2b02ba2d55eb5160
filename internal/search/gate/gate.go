// Package gate implements C4 Gate Stage: a deterministic language/food
// pre-filter that rejects or clarifies non-food queries before any LLM call,
// plus the routing engine for the deeper LLM-assisted gate variant.
package gate

import (
	"strings"
	"unicode"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// Reason is the deterministic gate's outcome reason.
type Reason string

const (
	ReasonValid         Reason = "valid"
	ReasonEmptyText     Reason = "empty_text"
	ReasonNonFoodQuery  Reason = "non_food_query"
)

// Result is the output of the deterministic gate.
type Result struct {
	Passed   bool
	Language models.Language
	Region   models.Language // fixed to "unknown"
	Reason   Reason
}

// scriptRanges maps a Unicode script to one of the six assistant languages
// whose primary script it is.
var scriptRanges = []struct {
	lang   models.Language
	inSet  func(r rune) bool
}{
	{models.LangHebrew, func(r rune) bool { return unicode.Is(unicode.Hebrew, r) }},
	{models.LangArabic, func(r rune) bool { return unicode.Is(unicode.Arabic, r) }},
	{models.LangRussian, func(r rune) bool { return unicode.Is(unicode.Cyrillic, r) }},
	{models.LangEnglish, func(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }},
}

// detectLanguage applies the majority-script heuristic: if at
// least 60% of letters in text belong to one script, that script's
// language wins; otherwise unknown. French and Spanish share the Latin
// script with English and are not distinguishable by script alone, so
// Latin-script text collapses to English at this deterministic layer —
// the Intent stage's LLM call disambiguates further when needed.
func detectLanguage(text string) models.Language {
	counts := make(map[models.Language]int)
	totalLetters := 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		totalLetters++
		for _, sr := range scriptRanges {
			if sr.inSet(r) {
				counts[sr.lang]++
				break
			}
		}
	}

	if totalLetters == 0 {
		return models.LangUnknown
	}

	var bestLang models.Language
	bestCount := 0
	for lang, count := range counts {
		if count > bestCount {
			bestLang, bestCount = lang, count
		}
	}

	if float64(bestCount)/float64(totalLetters) >= 0.6 {
		return bestLang
	}
	return models.LangUnknown
}

// foodKeywords is a per-language list of words signaling a food-domain
// query. Not exhaustive; extended as new false negatives are found.
var foodKeywords = map[models.Language][]string{
	models.LangHebrew: {
		"פיצה", "סושי", "מסעדה", "המבורגר", "אוכל", "קפה", "בורגר", "שווארמה",
		"פלאפל", "חומוס", "בשר", "דגים", "מאפיה", "קינוח", "ארוחה", "שתיה",
		"איטלקית",
	},
	models.LangEnglish: {
		"pizza", "sushi", "restaurant", "burger", "food", "cafe", "coffee",
		"lunch", "dinner", "breakfast", "bakery", "dessert", "eat", "meal",
	},
	models.LangArabic: {
		"بيتزا", "مطعم", "طعام", "برجر", "قهوة", "فلافل", "حمص", "شاورما",
	},
	models.LangRussian: {
		"пицца", "ресторан", "еда", "бургер", "кафе", "кофе", "суши",
	},
	models.LangFrench: {
		"pizza", "restaurant", "nourriture", "burger", "café", "boulangerie",
	},
	models.LangSpanish: {
		"pizza", "restaurante", "comida", "hamburguesa", "cafe", "panaderia",
	},
}

// isFoodRelated scans lowercase text for any keyword across all known
// languages — a query need not match the detected script's list alone,
// since mixed-language queries are common ("pizza ברחוב אלנבי").
func isFoodRelated(text string) bool {
	lower := strings.ToLower(text)
	for _, words := range foodKeywords {
		for _, w := range words {
			if strings.Contains(lower, strings.ToLower(w)) {
				return true
			}
		}
	}
	return false
}

// Evaluate runs the fast, deterministic gate over raw text. Empty or
// non-food queries short-circuit without any LLM call.
func Evaluate(rawText string) Result {
	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return Result{Passed: false, Language: models.LangUnknown, Region: models.LangUnknown, Reason: ReasonEmptyText}
	}

	lang := detectLanguage(trimmed)

	if !isFoodRelated(trimmed) {
		return Result{Passed: false, Language: lang, Region: models.LangUnknown, Reason: ReasonNonFoodQuery}
	}

	return Result{Passed: true, Language: lang, Region: models.LangUnknown, Reason: ReasonValid}
}

// FoodSignal is the deeper, LLM-driven gate's food-relatedness verdict.
type FoodSignal string

const (
	FoodSignalYes       FoodSignal = "YES"
	FoodSignalUncertain FoodSignal = "UNCERTAIN"
	FoodSignalNo        FoodSignal = "NO"
)

// StopType names the kind of short-circuit the deeper gate recommends.
type StopType string

const (
	StopClarify  StopType = "CLARIFY"
	StopGateFail StopType = "GATE_FAIL"
)

// Stop is the deeper gate's structured short-circuit payload.
type Stop struct {
	Type            StopType
	Reason          string
	SuggestedAction string
	Message         string
	Question        string
}

// DeepResult is the output of the LLM-assisted deeper gate, invoked only
// when the deterministic gate is ambiguous (language unknown, or a
// single-token query that is neither clearly food nor clearly not).
type DeepResult struct {
	FoodSignal FoodSignal
	Confidence float64
	Stop       *Stop
}

// Decision is the pure routing engine's verdict, mapping a DeepResult to
// one of CONTINUE, ASK_CLARIFY, STOP.
type Decision string

const (
	DecisionContinue    Decision = "CONTINUE"
	DecisionAskClarify  Decision = "ASK_CLARIFY"
	DecisionStop        Decision = "STOP"
)

// Route maps a DeepResult to a Decision. A YES signal continues; a NO
// signal with an explicit stop payload maps directly to its type; an
// UNCERTAIN signal or a stop-less NO defaults to ASK_CLARIFY rather than a
// hard stop, since the deep gate ran precisely because the fast path
// could not decide on its own.
func Route(dr DeepResult) Decision {
	switch dr.FoodSignal {
	case FoodSignalYes:
		return DecisionContinue
	case FoodSignalNo:
		if dr.Stop != nil && dr.Stop.Type == StopGateFail {
			return DecisionStop
		}
		return DecisionAskClarify
	default:
		return DecisionAskClarify
	}
}
