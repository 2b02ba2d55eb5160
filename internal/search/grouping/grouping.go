// Package grouping implements C9 Result Grouping: street-query detection
// and dual-radius fan-out, tagging results with EXACT/NEARBY group kinds.
package grouping

import (
	"context"
	"fmt"
	"regexp"

	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/loci-search-core/internal/search/geo"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// ExactRadiusMeters and NearbyRadiusMeters are the dual-radius bands of
// Configurable via streetSearch.exactRadius/nearbyRadius.
const (
	ExactRadiusMeters  = 200
	NearbyRadiusMeters = 400
)

// streetPatterns matches street/avenue/road tokens across the six
// assistant languages, the second detection method (the first is
// an LLM-provided locationAnchor.type = street).
var streetPatterns = regexp.MustCompile(`(?i)\b(street|st\.?|avenue|ave\.?|road|rd\.?|rue|calle|avenida)\b|רחוב|شارع`)

// IsStreetQuery implements the two-method street-query detection: an explicit
// locationAnchor type wins; otherwise regex patterns are consulted.
func IsStreetQuery(in models.Intent, text string) bool {
	if in.LocationAnchor.Type == models.AnchorStreet {
		return true
	}
	return streetPatterns.MatchString(text)
}

// Fetcher runs one provider fetch at the given radius around center.
type Fetcher func(ctx context.Context, center models.LatLng, radiusMeters int) ([]models.Place, error)

// DualRadiusFetch issues the exact and nearby radius fetches concurrently,
// so total time equals the slower call,
// not their sum. Uses the package default bands; callers with a deployment
// override use DualRadiusFetchWithRadii.
func DualRadiusFetch(ctx context.Context, center models.LatLng, fetch Fetcher) (exact, nearby []models.Place, err error) {
	return DualRadiusFetchWithRadii(ctx, center, fetch, ExactRadiusMeters, NearbyRadiusMeters)
}

// DualRadiusFetchWithRadii is DualRadiusFetch with the exact/nearby bands
// supplied by the caller, so a deployment's streetSearch.exactRadius/
// nearbyRadius config can override the package defaults without every
// caller having to duplicate the errgroup fan-out.
func DualRadiusFetchWithRadii(ctx context.Context, center models.LatLng, fetch Fetcher, exactRadiusMeters, nearbyRadiusMeters int) (exact, nearby []models.Place, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, ferr := fetch(gctx, center, exactRadiusMeters)
		if ferr != nil {
			return fmt.Errorf("exact-radius fetch: %w", ferr)
		}
		exact = res
		return nil
	})
	g.Go(func() error {
		res, ferr := fetch(gctx, center, nearbyRadiusMeters)
		if ferr != nil {
			return fmt.Errorf("nearby-radius fetch: %w", ferr)
		}
		nearby = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return exact, nearby, nil
}

// Grouped is the output of Assemble.
type Grouped struct {
	Flat   []models.Place
	Groups []models.ResultGroup
}

// Assemble deduplicates the union of the two radius fetches by place id,
// tags each with groupKind/distanceMeters, and emits EXACT (<=200m) and
// NEARBY (200-400m) groups, omitting any that end up empty. The flat
// result array is always populated, for backward compatibility. Uses the
// package default exact band; callers with a deployment override use
// AssembleWithRadii.
func Assemble(center models.LatLng, exactCandidates, nearbyCandidates []models.Place, exactLabel, nearbyLabel string) Grouped {
	return AssembleWithRadii(center, exactCandidates, nearbyCandidates, exactLabel, nearbyLabel, ExactRadiusMeters, NearbyRadiusMeters)
}

// AssembleWithRadii is Assemble with the exact/nearby bands supplied by the
// caller, mirroring DualRadiusFetchWithRadii so a configured radius pair
// stays consistent between the fetch and the tagging pass.
func AssembleWithRadii(center models.LatLng, exactCandidates, nearbyCandidates []models.Place, exactLabel, nearbyLabel string, exactRadiusMeters, nearbyRadiusMeters int) Grouped {
	seen := make(map[string]bool)
	var exactGroup, nearbyGroup []models.Place
	var flat []models.Place

	appendUnique := func(p models.Place) {
		if seen[p.ID] {
			return
		}
		seen[p.ID] = true
		tagged := geo.TagGroup(center, p, exactRadiusMeters)
		flat = append(flat, tagged)
		if tagged.GroupKind == models.GroupExact {
			exactGroup = append(exactGroup, tagged)
		} else {
			nearbyGroup = append(nearbyGroup, tagged)
		}
	}

	for _, p := range exactCandidates {
		appendUnique(p)
	}
	for _, p := range nearbyCandidates {
		appendUnique(p)
	}

	var groups []models.ResultGroup
	if len(exactGroup) > 0 {
		groups = append(groups, models.ResultGroup{
			Kind: models.GroupExact, Label: exactLabel, RadiusMeters: exactRadiusMeters, Results: exactGroup,
		})
	}
	if len(nearbyGroup) > 0 {
		groups = append(groups, models.ResultGroup{
			Kind: models.GroupNearby, Label: nearbyLabel, RadiusMeters: nearbyRadiusMeters, Results: nearbyGroup,
		})
	}

	return Grouped{Flat: flat, Groups: groups}
}
