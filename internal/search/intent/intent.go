// Package intent implements C5 Intent Stage: an LLM-driven routing
// decision backed by a versioned, hashed JSON schema, with a single retry
// on timeout and a deterministic fallback otherwise.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
	"github.com/FACorreiaa/loci-search-core/internal/search/llmclient"
	"github.com/FACorreiaa/loci-search-core/internal/search/metrics"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// RetryBackoff is the fixed ~250ms single retry delay.
const RetryBackoff = 250 * time.Millisecond

// Timeout bounds a single Intent LLM call.
const Timeout = 3 * time.Second

var regionAllowlist = regexp.MustCompile(`^[A-Z]{2}$`)

// Stage runs the Intent LLM call and applies post-validation.
type Stage struct {
	llm    llmclient.Client
	schema llmclient.Schema
}

// New constructs a Stage, failing fast if the schema's internal
// required/additionalProperties self-check does not hold.
func New(llm llmclient.Client) (*Stage, error) {
	schema, err := buildSchema()
	if err != nil {
		return nil, fmt.Errorf("intent stage: %w", err)
	}
	return &Stage{llm: llm, schema: schema}, nil
}

// wireIntent is the raw shape the LLM is asked to produce; Resolve maps it
// into models.Intent and applies its post-validation rules.
type wireIntent struct {
	Route              string  `json:"route"`
	FoodAnchor         models.FoodAnchor `json:"foodAnchor"`
	LocationAnchor     models.LocationAnchor `json:"locationAnchor"`
	NearMe             bool    `json:"nearMe"`
	ExplicitDistance   models.ExplicitDistance `json:"explicitDistance"`
	Language           string  `json:"language"`
	LanguageConfidence float64 `json:"languageConfidence"`
	AssistantLanguage  string  `json:"assistantLanguage"`
	RegionCandidate    *string `json:"regionCandidate"`
	RegionConfidence   float64 `json:"regionConfidence"`
	RegionReason       string  `json:"regionReason"`
	CityText           *string `json:"cityText"`
	LandmarkText       *string `json:"landmarkText"`
	RadiusMeters       *int    `json:"radiusMeters"`
	OpenNowRequested   bool    `json:"openNowRequested"`
	PriceIntent        string  `json:"priceIntent"`
	DistanceIntent     *int    `json:"distanceIntent"`
	QualityIntent      string  `json:"qualityIntent"`
	Occasion           string  `json:"occasion"`
	CuisineKey         string  `json:"cuisineKey"`
	Confidence         float64 `json:"confidence"`
	Reason             string  `json:"reason"`
}

// Resolve runs the LLM call with a single retry on timeout, and falls back
// deterministically on any other error or a second timeout.
func (s *Stage) Resolve(ctx context.Context, queryText string, hasUserLocation bool) models.Intent {
	systemPrompt := "You are the Intent stage of a food-discovery search engine. " +
		"Extract route, food/location anchors, language, region, and behavioral flags as strict JSON."

	var resp llmclient.Response
	var err error

	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, Timeout)
		defer cancel()
		resp, err = s.llm.Generate(callCtx, llmclient.Request{
			SystemPrompt: systemPrompt,
			UserPrompt:   queryText,
			Schema:       s.schema,
			Temperature:  0,
			Timeout:      Timeout,
		})
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(RetryBackoff), 1)
	retryErr := backoff.Retry(attempt, policy)

	if retryErr != nil {
		logger.Log.Warn("intent stage falling back to deterministic intent", zap.Error(retryErr))
		metrics.LLMCallTotal.WithLabelValues("intent", "fallback").Inc()
		return fallback(queryText)
	}

	var wire wireIntent
	if err := json.Unmarshal(resp.RawJSON, &wire); err != nil {
		logger.Log.Warn("intent stage received unparsable response, falling back", zap.Error(err))
		metrics.LLMCallTotal.WithLabelValues("intent", "fallback").Inc()
		return fallback(queryText)
	}

	metrics.LLMCallTotal.WithLabelValues("intent", "ok").Inc()
	return postValidate(wire, hasUserLocation)
}

// postValidate applies the coercion rules.
func postValidate(w wireIntent, hasUserLocation bool) models.Intent {
	route := models.Route(w.Route)
	confidence := w.Confidence
	reason := w.Reason

	if route == models.RouteNearby && !hasUserLocation {
		route = models.RouteClarify
		reason = "missing_user_location"
		if confidence > 0.8 {
			confidence = 0.8
		}
	}

	region := w.RegionCandidate
	if region != nil && !regionAllowlist.MatchString(*region) {
		logger.Log.Info("region_sanitized", zap.String("regionCandidate", *region))
		region = nil
	}

	assistantLang := models.Language(w.AssistantLanguage)
	if !models.SupportedAssistantLanguages[assistantLang] {
		assistantLang = models.LangEnglish
	}

	in := models.Intent{
		Route:              route,
		FoodAnchor:         w.FoodAnchor,
		LocationAnchor:     w.LocationAnchor,
		NearMe:             w.NearMe,
		ExplicitDistance:   w.ExplicitDistance,
		Language:           models.Language(w.Language),
		LanguageConfidence: w.LanguageConfidence,
		AssistantLanguage:  assistantLang,
		RegionCandidate:    region,
		RegionConfidence:   w.RegionConfidence,
		RegionReason:       w.RegionReason,
		CityText:           w.CityText,
		LandmarkText:       w.LandmarkText,
		RadiusMeters:       w.RadiusMeters,
		OpenNowRequested:   w.OpenNowRequested,
		PriceIntent:        models.PriceIntent(w.PriceIntent),
		DistanceIntent:     w.DistanceIntent,
		QualityIntent:      w.QualityIntent,
		Occasion:           w.Occasion,
		CuisineKey:         w.CuisineKey,
		Confidence:         confidence,
		Reason:             reason,
	}
	in.Normalize()
	return in
}

// fallback builds the deterministic fallback intent: never treated
// as success, always TEXTSEARCH with low confidence.
func fallback(queryText string) models.Intent {
	lang := models.LangEnglish
	if containsHebrew(queryText) {
		lang = models.LangHebrew
	}
	in := models.Intent{
		Route:             models.RouteTextSearch,
		Confidence:        0.3,
		Reason:            "fallback",
		AssistantLanguage: lang,
		RegionCandidate:   nil,
		FoodAnchor:        models.FoodAnchor{Present: true, Type: "unknown"},
		LocationAnchor:    models.LocationAnchor{Present: false, Type: models.AnchorEmpty},
		PriceIntent:       models.PriceAny,
	}
	in.Normalize()
	return in
}

func containsHebrew(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hebrew, r) {
			return true
		}
	}
	return false
}
