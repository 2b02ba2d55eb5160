// Package routeplan implements C6 Route-LLM Mappers: one mapper per route,
// each translating a validated Intent into a typed ProviderPlan.
package routeplan

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
	"github.com/FACorreiaa/loci-search-core/internal/search/filters"
	"github.com/FACorreiaa/loci-search-core/internal/search/llmclient"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
	"github.com/FACorreiaa/loci-search-core/internal/search/registry"
)

// Timeout bounds every route-mapper LLM call, ~3s.
const Timeout = 3 * time.Second

// NearbyDefaultRadiusMeters is used when no distance is extracted from the
// query text.
const NearbyDefaultRadiusMeters = 500

// TextSearchBiasRadiusMeters is the fixed bias radius used when both
// userLocation and cityText are present.
const TextSearchBiasRadiusMeters = 20000

// Mapper holds the shared dependencies every route mapper uses.
type Mapper struct {
	llm       llmclient.Client
	landmarks *registry.LandmarkRegistry
}

// New constructs a Mapper.
func New(llm llmclient.Client, landmarks *registry.LandmarkRegistry) *Mapper {
	return &Mapper{llm: llm, landmarks: landmarks}
}

// strengthenCuisine appends the cuisine word to textQuery if it is not
// already present (case-insensitively), preserving the rest of the query.
func strengthenCuisine(textQuery, cuisineKey string) string {
	if cuisineKey == "" {
		return textQuery
	}
	if strings.Contains(strings.ToLower(textQuery), strings.ToLower(cuisineKey)) {
		return textQuery
	}
	return strings.TrimSpace(textQuery + " " + cuisineKey)
}

// appendCity appends cityText to textQuery when not already present.
func appendCity(textQuery string, cityText *string) string {
	if cityText == nil || *cityText == "" {
		return textQuery
	}
	if strings.Contains(strings.ToLower(textQuery), strings.ToLower(*cityText)) {
		return textQuery
	}
	return strings.TrimSpace(textQuery + " " + *cityText)
}

func strictnessFor(cuisineKey string) models.PlanStrictness {
	if cuisineKey != "" {
		return models.StrictnessStrict
	}
	return models.StrictnessRelaxIfEmpty
}

// wireBias is the LLM's raw bias output: a coordinate it extracted from the
// query text itself, distinct from the caller-supplied userLocation.
type wireBias struct {
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	RadiusMeters *int     `json:"radiusMeters"`
}

// toModel converts a wire bias to a models.Bias, or nil if incomplete.
func (w *wireBias) toModel() *models.Bias {
	if w == nil || w.Lat == nil || w.Lng == nil || w.RadiusMeters == nil || *w.RadiusMeters <= 0 {
		return nil
	}
	return &models.Bias{
		Center:       models.LatLng{Lat: *w.Lat, Lng: *w.Lng},
		RadiusMeters: *w.RadiusMeters,
	}
}

// wireTextSearch is the LLM's raw TEXTSEARCH output.
type wireTextSearch struct {
	TextQuery  string    `json:"textQuery"`
	CityText   *string   `json:"cityText"`
	CuisineKey *string   `json:"cuisineKey"`
	Bias       *wireBias `json:"bias"`
}

// MapTextSearch implements the TEXTSEARCH route mapper.
func (m *Mapper) MapTextSearch(ctx context.Context, in models.Intent, shared filters.Resolved, userLocation *models.LatLng, originalText string) models.ProviderPlan {
	schema, err := textSearchSchema()
	if err != nil {
		logger.Log.Error("routeplan: textsearch schema build failed", zap.Error(err))
		return m.fallbackTextSearch(in, shared, userLocation)
	}

	callCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	resp, err := m.llm.Generate(callCtx, llmclient.Request{
		SystemPrompt: "Produce a TEXTSEARCH provider query from the given intent.",
		UserPrompt:   originalText,
		Schema:       schema,
		Temperature:  0,
		Timeout:      Timeout,
	})
	if err != nil {
		logger.Log.Warn("routeplan: textsearch LLM call failed, using deterministic fallback", zap.Error(err))
		return m.fallbackTextSearch(in, shared, userLocation)
	}

	var wire wireTextSearch
	if err := json.Unmarshal(resp.RawJSON, &wire); err != nil {
		logger.Log.Warn("routeplan: textsearch response unparsable, using deterministic fallback", zap.Error(err))
		return m.fallbackTextSearch(in, shared, userLocation)
	}

	return m.buildTextSearchPlan(wire.TextQuery, wire.CityText, in, shared, userLocation, wire.Bias.toModel())
}

// buildTextSearchPlan applies the shared invariants regardless of whether
// textQuery/cityText came from the LLM or the deterministic fallback:
// city appending, cuisine strengthening, and bias precedence (an
// LLM-provided bias is never silently replaced by a geocoded city center).
func (m *Mapper) buildTextSearchPlan(textQuery string, cityText *string, in models.Intent, shared filters.Resolved, userLocation *models.LatLng, llmBias *models.Bias) models.ProviderPlan {
	if cityText == nil {
		cityText = in.CityText
	}
	query := appendCity(textQuery, cityText)
	query = strengthenCuisine(query, in.CuisineKey)

	var bias *models.Bias
	switch {
	case llmBias != nil:
		bias = llmBias
	case userLocation != nil && cityText != nil:
		bias = &models.Bias{Center: *userLocation, RadiusMeters: TextSearchBiasRadiusMeters}
	case userLocation != nil:
		bias = &models.Bias{Center: *userLocation, RadiusMeters: TextSearchBiasRadiusMeters}
	}
	// When only cityText is available, bias stays nil: the city appended to
	// the query text is the only location signal, and the provider executor
	// does not geocode the city to add a bias.

	return models.NewTextSearchProviderPlan(models.TextSearchPlan{
		TextQuery:        query,
		ProviderLanguage: shared.ProviderLanguage,
		RegionCode:       shared.RegionCode,
		Bias:             bias,
		CityText:         cityText,
		CuisineKey:       nonEmptyPtr(in.CuisineKey),
		Strictness:       strictnessFor(in.CuisineKey),
	})
}

func (m *Mapper) fallbackTextSearch(in models.Intent, shared filters.Resolved, userLocation *models.LatLng) models.ProviderPlan {
	query := in.FoodAnchor.Type
	if query == "" {
		query = "restaurant"
	}
	return m.buildTextSearchPlan(query, in.CityText, in, shared, userLocation, nil)
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// radiusPattern extracts an explicit distance like "200 meters", "500m",
// "200 מטר" from free text.
var radiusPattern = regexp.MustCompile(`(?i)(\d+)\s*(m|meters?|metres?|מטר)`)

func extractRadiusMeters(text string) (int, bool) {
	match := radiusPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// wireNearby is the LLM's raw NEARBY output.
type wireNearby struct {
	Keyword      string `json:"keyword"`
	RadiusMeters *int   `json:"radiusMeters"`
}

// MapNearby implements the NEARBY route mapper. userLocation is a hard
// requirement; absence is a mapping-time failure, not an LLM concern.
func (m *Mapper) MapNearby(ctx context.Context, in models.Intent, shared filters.Resolved, userLocation *models.LatLng, originalText string) (models.ProviderPlan, error) {
	if userLocation == nil {
		return models.ProviderPlan{}, models.ErrNoUserLocation
	}

	radius := NearbyDefaultRadiusMeters
	if meters, ok := extractRadiusMeters(originalText); ok {
		radius = meters
	} else if in.ExplicitDistance.Meters != nil {
		radius = *in.ExplicitDistance.Meters
	}

	keyword := in.FoodAnchor.Type

	schema, err := nearbySchema()
	if err == nil {
		callCtx, cancel := context.WithTimeout(ctx, Timeout)
		resp, genErr := m.llm.Generate(callCtx, llmclient.Request{
			SystemPrompt: "Produce NEARBY search parameters. Do not invent or modify the provided coordinates.",
			UserPrompt:   originalText,
			Schema:       schema,
			Temperature:  0,
			Timeout:      Timeout,
		})
		cancel()
		if genErr == nil {
			var wire wireNearby
			if jsonErr := json.Unmarshal(resp.RawJSON, &wire); jsonErr == nil {
				if wire.Keyword != "" {
					keyword = wire.Keyword
				}
				if wire.RadiusMeters != nil {
					radius = *wire.RadiusMeters
				}
			}
		} else {
			logger.Log.Warn("routeplan: nearby LLM call failed, using deterministic extraction", zap.Error(genErr))
		}
	}

	return models.NewNearbyProviderPlan(models.NearbyPlan{
		Center:           *userLocation,
		RadiusMeters:     radius,
		Keyword:          keyword,
		ProviderLanguage: shared.ProviderLanguage,
		RegionCode:       shared.RegionCode,
	}), nil
}

// wireLandmark is the LLM's raw LANDMARK output.
type wireLandmark struct {
	GeocodeQuery string  `json:"geocodeQuery"`
	Keyword      *string `json:"keyword"`
}

// MapLandmark implements the LANDMARK route mapper. A registry hit with a
// known coordinate skips the LLM call entirely.
func (m *Mapper) MapLandmark(ctx context.Context, in models.Intent, shared filters.Resolved) models.ProviderPlan {
	landmarkText := ""
	if in.LandmarkText != nil {
		landmarkText = *in.LandmarkText
	}

	var landmarkID *string
	var resolvedLatLng *models.LatLng
	var afterGeocode models.AfterGeocode = models.AfterGeocodeTextSearchWithBias

	if m.landmarks != nil {
		if entry, ok := m.landmarks.Lookup(landmarkText); ok {
			id := entry.ID
			landmarkID = &id
			if entry.KnownLatLng != nil {
				ll := *entry.KnownLatLng
				resolvedLatLng = &ll
				afterGeocode = models.AfterGeocodeNearbySearch
			}
		}
	}

	radius := NearbyDefaultRadiusMeters
	if in.RadiusMeters != nil {
		radius = *in.RadiusMeters
	}

	keyword := nonEmptyPtr(in.FoodAnchor.Type)

	if resolvedLatLng == nil && m.llm != nil {
		schema, err := landmarkSchema()
		if err == nil {
			callCtx, cancel := context.WithTimeout(ctx, Timeout)
			resp, genErr := m.llm.Generate(callCtx, llmclient.Request{
				SystemPrompt: "Produce a geocode query and keyword for this landmark-anchored food search.",
				UserPrompt:   landmarkText,
				Schema:       schema,
				Temperature:  0,
				Timeout:      Timeout,
			})
			cancel()
			if genErr == nil {
				var wire wireLandmark
				if jsonErr := json.Unmarshal(resp.RawJSON, &wire); jsonErr == nil && wire.GeocodeQuery != "" {
					return models.NewLandmarkProviderPlan(models.LandmarkPlan{
						GeocodeQuery: wire.GeocodeQuery,
						AfterGeocode: models.AfterGeocodeTextSearchWithBias,
						LandmarkID:   landmarkID,
						RadiusMeters: radius,
						Keyword:      firstNonNilPtr(wire.Keyword, keyword),
						CuisineKey:   nonEmptyPtr(in.CuisineKey),
					})
				}
			} else {
				logger.Log.Warn("routeplan: landmark LLM call failed, using registry/fallback text", zap.Error(genErr))
			}
		}
	}

	geocodeQuery := landmarkText
	if geocodeQuery == "" {
		geocodeQuery = fmt.Sprintf("landmark:%s", derefOr(landmarkID, "unknown"))
	}

	return models.NewLandmarkProviderPlan(models.LandmarkPlan{
		GeocodeQuery:   geocodeQuery,
		AfterGeocode:   afterGeocode,
		LandmarkID:     landmarkID,
		ResolvedLatLng: resolvedLatLng,
		RadiusMeters:   radius,
		Keyword:        keyword,
		CuisineKey:     nonEmptyPtr(in.CuisineKey),
	})
}

func firstNonNilPtr(a, b *string) *string {
	if a != nil && *a != "" {
		return a
	}
	return b
}

func derefOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
