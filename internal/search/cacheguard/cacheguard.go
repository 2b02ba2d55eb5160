// Package cacheguard implements C2 Cache Guard: deterministic key
// derivation over a provider plan plus a UnifiedCache-backed lookup with a
// bounded timeout, so a slow cache never stalls the pipeline.
package cacheguard

import (
	"context"
	"fmt"
	"time"

	pkgcache "github.com/FACorreiaa/loci-search-core/internal/pkg/cache"
	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
	"github.com/FACorreiaa/loci-search-core/internal/search/metrics"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// DefaultTTL is how long a cached provider fetch remains valid.
const DefaultTTL = 5 * time.Minute

// DefaultLookupTimeout bounds how long a Get may block before the caller
// treats it as a miss, so the pipeline never stalls on a slow cache.
// Matches the cacheGuardTimeoutMs default of 5000ms.
const DefaultLookupTimeout = 5 * time.Second

// Guard fronts a provider fetch with a deterministic, plan-shaped cache key.
type Guard struct {
	cache         *pkgcache.UnifiedCache[models.SearchResult]
	lookupTimeout time.Duration
}

// New builds a Guard backed by a fresh UnifiedCache, using DefaultLookupTimeout.
func New(ttl time.Duration) *Guard {
	return NewWithTimeout(ttl, DefaultLookupTimeout)
}

// NewWithTimeout builds a Guard with an explicit lookup timeout, for callers
// wiring the configurable cacheGuardTimeoutMs.
func NewWithTimeout(ttl, lookupTimeout time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &Guard{
		cache:         pkgcache.NewUnifiedCache[models.SearchResult](ttl, "provider-fetch", logger.Log),
		lookupTimeout: lookupTimeout,
	}
}

// Key derives a deterministic cache key from a provider plan, matching the
// teacher's CacheKeyBuilder idiom: one component per semantically
// significant plan field, nothing incidental (timestamps, request ids).
func Key(plan models.ProviderPlan) string {
	b := pkgcache.NewCacheKeyBuilder(logger.Log).Add("kind", plan.Kind)

	switch plan.Kind {
	case models.PlanKindTextSearch:
		p := plan.TextSearch
		b.Add("textQuery", p.TextQuery).
			Add("lang", p.ProviderLanguage).
			Add("region", p.RegionCode).
			Add("strictness", p.Strictness)
		if p.Bias != nil {
			b.Add("bias", fmt.Sprintf("%.5f,%.5f,%d", p.Bias.Center.Lat, p.Bias.Center.Lng, p.Bias.RadiusMeters))
		}
		if p.CuisineKey != nil {
			b.Add("cuisine", *p.CuisineKey)
		}
	case models.PlanKindNearby:
		p := plan.Nearby
		b.Add("center", fmt.Sprintf("%.5f,%.5f", p.Center.Lat, p.Center.Lng)).
			Add("radius", p.RadiusMeters).
			Add("keyword", p.Keyword).
			Add("lang", p.ProviderLanguage).
			Add("region", p.RegionCode)
	case models.PlanKindLandmark:
		p := plan.Landmark
		b.Add("geocodeQuery", p.GeocodeQuery).
			Add("afterGeocode", p.AfterGeocode).
			Add("radius", p.RadiusMeters)
		if p.LandmarkID != nil {
			b.Add("landmarkId", *p.LandmarkID)
		}
		if p.Keyword != nil {
			b.Add("keyword", *p.Keyword)
		}
		if p.CuisineKey != nil {
			b.Add("cuisine", *p.CuisineKey)
		}
	}

	return b.BuildOrDefault()
}

// Lookup returns a cached result for plan if present, bounding the lookup
// to the configured lookup timeout so a cache stall degrades to a miss,
// never a hang.
func (g *Guard) Lookup(ctx context.Context, plan models.ProviderPlan) (models.SearchResult, bool) {
	done := make(chan struct {
		val models.SearchResult
		ok  bool
	}, 1)

	go func() {
		val, ok := g.cache.Get(Key(plan))
		done <- struct {
			val models.SearchResult
			ok  bool
		}{val, ok}
	}()

	select {
	case res := <-done:
		if res.ok {
			metrics.CacheGuardResultTotal.WithLabelValues("hit").Inc()
		} else {
			metrics.CacheGuardResultTotal.WithLabelValues("miss").Inc()
		}
		return res.val, res.ok
	case <-time.After(g.lookupTimeout):
		logger.Log.Warn("cache guard lookup timed out, treating as miss")
		metrics.CacheGuardResultTotal.WithLabelValues("timeout").Inc()
		return models.SearchResult{}, false
	case <-ctx.Done():
		metrics.CacheGuardResultTotal.WithLabelValues("cancelled").Inc()
		return models.SearchResult{}, false
	}
}

// Store writes a provider fetch result into the cache under plan's key.
func (g *Guard) Store(plan models.ProviderPlan, result models.SearchResult) {
	g.cache.Set(Key(plan), result)
}

// Metrics exposes the underlying cache's hit/miss/set counters.
func (g *Guard) Metrics() pkgcache.CacheMetrics {
	return g.cache.GetMetrics()
}
