// Package provider implements C7 Provider Executor: executes a
// ProviderPlan against an external places provider with paginated fetch,
// dedup, and deterministic result-category mapping.
package provider

import (
	"context"
	"fmt"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// MaxPages and MaxUniqueResults bound text-search pagination:
// whichever limit is hit first stops the fetch.
const (
	MaxPages         = 3
	MaxUniqueResults = 20
)

// RawPlace is the provider's own result shape, before normalization.
type RawPlace struct {
	ID               string
	DisplayName      string
	FormattedAddress string
	Location         models.LatLng
	Rating           float64
	RatingCount      int
	PrimaryType      string
	Types            []string
	OpenNowKnown     bool
	OpenNow          bool
}

// Page is one page of raw provider results plus an optional next-page token.
type Page struct {
	Results       []RawPlace
	NextPageToken string
}

// Places is the port to the external places provider.
type Places interface {
	TextSearch(ctx context.Context, plan models.TextSearchPlan, pageToken string) (Page, error)
	Nearby(ctx context.Context, plan models.NearbyPlan) (Page, error)
	Geocode(ctx context.Context, text string) (models.LatLng, bool, error)
}

// Executor runs a ProviderPlan to completion.
type Executor struct {
	places Places
}

// New constructs an Executor over a Places port.
func New(places Places) *Executor {
	return &Executor{places: places}
}

// deriveCategory implements the category precedence: primaryType first, else
// scan types[] with the same precedence, else restaurant.
func deriveCategory(primaryType string, types []string) models.Category {
	if c, ok := categoryFor(primaryType); ok {
		return c
	}
	for _, t := range types {
		if c, ok := categoryFor(t); ok {
			return c
		}
	}
	return models.CategoryRestaurant
}

func categoryFor(t string) (models.Category, bool) {
	switch t {
	case "cafe", "coffee_shop":
		return models.CategoryCafe, true
	case "bakery":
		return models.CategoryBakery, true
	case "restaurant":
		return models.CategoryRestaurant, true
	default:
		return "", false
	}
}

func normalize(raw RawPlace) models.Place {
	openNow := models.TriUnknown
	if raw.OpenNowKnown {
		if raw.OpenNow {
			openNow = models.TriTrue
		} else {
			openNow = models.TriFalse
		}
	}
	return models.Place{
		ID:               raw.ID,
		DisplayName:      raw.DisplayName,
		FormattedAddress: raw.FormattedAddress,
		Location:         raw.Location,
		Rating:           raw.Rating,
		RatingCount:      raw.RatingCount,
		Category:         deriveCategory(raw.PrimaryType, raw.Types),
		OpenNow:          openNow,
	}
}

// ExecuteTextSearch paginates up to MaxPages/MaxUniqueResults, deduplicates
// by provider place id across pages, and stops early when no next-page
// token is returned.
func (e *Executor) ExecuteTextSearch(ctx context.Context, plan models.TextSearchPlan) ([]models.Place, error) {
	seen := make(map[string]bool)
	var out []models.Place
	pageToken := ""

	for page := 0; page < MaxPages; page++ {
		result, err := e.places.TextSearch(ctx, plan, pageToken)
		if err != nil {
			return nil, fmt.Errorf("text search page %d: %w", page, err)
		}

		for _, raw := range result.Results {
			if seen[raw.ID] {
				continue
			}
			seen[raw.ID] = true
			out = append(out, normalize(raw))
			if len(out) >= MaxUniqueResults {
				return out, nil
			}
		}

		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}

	return out, nil
}

// ExecuteNearby runs a single Nearby call, which the provider already
// hard-filters by radius.
func (e *Executor) ExecuteNearby(ctx context.Context, plan models.NearbyPlan) ([]models.Place, error) {
	result, err := e.places.Nearby(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	seen := make(map[string]bool)
	var out []models.Place
	for _, raw := range result.Results {
		if seen[raw.ID] {
			continue
		}
		seen[raw.ID] = true
		out = append(out, normalize(raw))
	}
	return out, nil
}

// ExecuteLandmark resolves a LandmarkPlan's coordinate (if not already
// known) then dispatches to the appropriate afterGeocode path.
func (e *Executor) ExecuteLandmark(ctx context.Context, plan models.LandmarkPlan, providerLanguage, regionCode string) ([]models.Place, error) {
	center := plan.ResolvedLatLng
	if center == nil {
		ll, ok, err := e.places.Geocode(ctx, plan.GeocodeQuery)
		if err != nil {
			return nil, fmt.Errorf("landmark geocode: %w", err)
		}
		if !ok {
			return nil, models.ErrLocationRequired
		}
		center = &ll
	}

	switch plan.AfterGeocode {
	case models.AfterGeocodeNearbySearch:
		keyword := ""
		if plan.Keyword != nil {
			keyword = *plan.Keyword
		}
		return e.ExecuteNearby(ctx, models.NearbyPlan{
			Center:           *center,
			RadiusMeters:     plan.RadiusMeters,
			Keyword:          keyword,
			ProviderLanguage: providerLanguage,
			RegionCode:       regionCode,
		})
	default:
		textQuery := plan.GeocodeQuery
		if plan.Keyword != nil && *plan.Keyword != "" {
			textQuery = *plan.Keyword + " " + textQuery
		}
		return e.ExecuteTextSearch(ctx, models.TextSearchPlan{
			TextQuery:        textQuery,
			ProviderLanguage: providerLanguage,
			RegionCode:       regionCode,
			Bias:             &models.Bias{Center: *center, RadiusMeters: plan.RadiusMeters},
			Strictness:       models.StrictnessRelaxIfEmpty,
		})
	}
}

// Execute dispatches plan to the matching Execute* method by its tag, per
// Adding a provider method means adding a variant
// and a new case here, never inherited dispatch.
func (e *Executor) Execute(ctx context.Context, plan models.ProviderPlan, providerLanguage, regionCode string) ([]models.Place, error) {
	switch plan.Kind {
	case models.PlanKindTextSearch:
		return e.ExecuteTextSearch(ctx, *plan.TextSearch)
	case models.PlanKindNearby:
		return e.ExecuteNearby(ctx, *plan.Nearby)
	case models.PlanKindLandmark:
		return e.ExecuteLandmark(ctx, *plan.Landmark, providerLanguage, regionCode)
	default:
		return nil, fmt.Errorf("provider executor: unknown plan kind %q", plan.Kind)
	}
}
