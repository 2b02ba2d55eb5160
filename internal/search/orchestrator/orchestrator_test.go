package orchestrator

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-search-core/internal/search/jobstore"
	"github.com/FACorreiaa/loci-search-core/internal/search/llmclient"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
	"github.com/FACorreiaa/loci-search-core/internal/search/provider"
	"github.com/FACorreiaa/loci-search-core/internal/search/registry"
	"github.com/FACorreiaa/loci-search-core/internal/search/session"
)

// scriptedLLM dispatches a canned raw-JSON response by schema name, so one
// fake can stand in for Intent, the deep gate, a route mapper, and ChatBack
// within the same test without the stages stepping on each other.
type scriptedLLM struct {
	bySchema map[string][]byte
	errs     map[string]error
}

func (s *scriptedLLM) Generate(_ context.Context, req llmclient.Request) (llmclient.Response, error) {
	if err, ok := s.errs[req.Schema.Name]; ok {
		return llmclient.Response{}, err
	}
	if raw, ok := s.bySchema[req.Schema.Name]; ok {
		return llmclient.Response{RawJSON: raw}, nil
	}
	return llmclient.Response{}, llmclient.ErrNoLLMConfigured
}

func jsonOf(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// fakePlaces is a scriptable provider.Places double: Nearby responds
// differently by radius so a single fake can stand in for a dual-radius
// street-grouping fetch.
type fakePlaces struct {
	textSearch func(ctx context.Context, plan models.TextSearchPlan, pageToken string) (provider.Page, error)
	nearby     func(ctx context.Context, plan models.NearbyPlan) (provider.Page, error)
	geocode    func(ctx context.Context, text string) (models.LatLng, bool, error)
}

func (f *fakePlaces) TextSearch(ctx context.Context, plan models.TextSearchPlan, pageToken string) (provider.Page, error) {
	if f.textSearch != nil {
		return f.textSearch(ctx, plan, pageToken)
	}
	return provider.Page{}, nil
}

func (f *fakePlaces) Nearby(ctx context.Context, plan models.NearbyPlan) (provider.Page, error) {
	if f.nearby != nil {
		return f.nearby(ctx, plan)
	}
	return provider.Page{}, nil
}

func (f *fakePlaces) Geocode(ctx context.Context, text string) (models.LatLng, bool, error) {
	if f.geocode != nil {
		return f.geocode(ctx, text)
	}
	return models.LatLng{}, false, nil
}

func newTestOrchestrator(t *testing.T, llm llmclient.Client, places provider.Places) *Orchestrator {
	t.Helper()
	o, err := New(Deps{
		Jobs:     jobstore.NewMemoryStore(time.Minute, 5*time.Second),
		Sessions: session.New(),
		LLM:      llm,
		Places:   places,
	})
	require.NoError(t, err)
	return o
}

func awaitTerminal(t *testing.T, o *Orchestrator, requestID string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := o.deps.Jobs.Get(context.Background(), requestID)
		require.NoError(t, err)
		if job.Status.IsTerminal() {
			return job
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

// Scenario 1: a street query with a user location fans out into EXACT and
// NEARBY groups via the dual-radius fetch.
func TestRun_StreetQueryDualRadiusGrouping(t *testing.T) {
	llm := &scriptedLLM{bySchema: map[string][]byte{
		"intent.v1": jsonOf(t, map[string]any{
			"route":             "TEXTSEARCH",
			"foodAnchor":        map[string]any{"present": true, "type": "italian"},
			"locationAnchor":    map[string]any{"present": true, "type": "street", "text": "allenby"},
			"nearMe":            true,
			"assistantLanguage": "he",
			"confidence":        0.9,
			"priceIntent":       "any",
		}),
	}}

	places := &fakePlaces{
		nearby: func(_ context.Context, plan models.NearbyPlan) (provider.Page, error) {
			if plan.RadiusMeters <= 200 {
				return provider.Page{Results: []provider.RawPlace{
					{ID: "p1", DisplayName: "Pizza Italia", Location: models.LatLng{Lat: 32.07, Lng: 34.77}},
				}}, nil
			}
			return provider.Page{Results: []provider.RawPlace{
				{ID: "p1", DisplayName: "Pizza Italia", Location: models.LatLng{Lat: 32.07, Lng: 34.77}},
				{ID: "p2", DisplayName: "Trattoria Roma", Location: models.LatLng{Lat: 32.075, Lng: 34.776}},
			}}, nil
		},
	}

	o := newTestOrchestrator(t, llm, places)
	userLoc := models.LatLng{Lat: 32.07, Lng: 34.77}
	req := models.Request{OriginalText: "איטלקית ברחוב אלנבי", SessionID: "s1", UserLocation: &userLoc}

	job, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	final := awaitTerminal(t, o, job.RequestID)
	require.Equal(t, models.JobDoneSuccess, final.Status)
	require.NotNil(t, final.Result)
	assert.True(t, final.Result.Meta.StreetGroupingOn)
	assert.Len(t, final.Result.Groups, 2)
}

// Scenario 3: an ambiguous single Hebrew token with no location produces a
// CLARIFY with the bespoke two-choice parking/restaurant-name action pair.
func TestRun_AmbiguousSingleTokenClarifiesWithParkingChoice(t *testing.T) {
	llm := &scriptedLLM{bySchema: map[string][]byte{}} // deep gate always degrades to UNCERTAIN

	o := newTestOrchestrator(t, llm, &fakePlaces{})
	req := models.Request{OriginalText: "חניה", SessionID: "s3"}

	job, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	final := awaitTerminal(t, o, job.RequestID)
	require.Equal(t, models.JobDoneClarify, final.Status)
	require.NotNil(t, final.Result.Assist)
	require.Len(t, final.Result.Assist.SuggestedActions, 2)
	assert.Equal(t, "🅿️", final.Result.Assist.SuggestedActions[0].Emoji)
	assert.Equal(t, "כן, עם חניה", final.Result.Assist.SuggestedActions[0].Label)
	assert.Equal(t, "לא, זה שם המסעדה", final.Result.Assist.SuggestedActions[1].Label)
}

// Scenario 4: a food query with neither a user location nor a city anchor
// trips the early TEXTSEARCH location guard before any provider call.
func TestRun_EarlyLocationGuardClarifiesWithoutProviderCall(t *testing.T) {
	llm := &scriptedLLM{}
	called := false
	places := &fakePlaces{
		textSearch: func(context.Context, models.TextSearchPlan, string) (provider.Page, error) {
			called = true
			return provider.Page{}, nil
		},
	}

	o := newTestOrchestrator(t, llm, places)
	req := models.Request{OriginalText: "burger", SessionID: "s4"}

	job, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	final := awaitTerminal(t, o, job.RequestID)
	require.Equal(t, models.JobDoneClarify, final.Status)
	assert.Equal(t, "LOCATION_REQUIRED", final.Result.Assist.FailureReason)
	assert.False(t, called, "provider must never be called once the early location guard fires")
}

// Scenario 5: two submissions sharing an idempotencyKey while the first is
// still in flight collapse to the same requestId; only one pipeline
// execution ever reaches the provider.
func TestSubmit_IdempotentDuplicateDoesNotRerun(t *testing.T) {
	llm := &scriptedLLM{}
	release := make(chan struct{})
	var fetchCount int
	places := &fakePlaces{
		textSearch: func(ctx context.Context, _ models.TextSearchPlan, _ string) (provider.Page, error) {
			fetchCount++
			<-release
			return provider.Page{}, nil
		},
	}

	o := newTestOrchestrator(t, llm, places)
	loc := models.LatLng{Lat: 1, Lng: 1}
	req := models.Request{OriginalText: "burger", SessionID: "s5", IdempotencyKey: "fixed-key", UserLocation: &loc}

	first, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	second, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.RequestID, second.RequestID)

	close(release)
	awaitTerminal(t, o, first.RequestID)
	assert.Equal(t, 1, fetchCount, "duplicate submission must not trigger a second provider fetch")
}

// Scenario 6: a street query whose exact band comes back empty but whose
// nearby band is full of open places still classifies as exact_match (the
// classifier keys off the flat result total, not the exact/nearby split),
// and the guardrail-mandated count lands in the rendered ChatBack message.
func TestRun_ZeroExactSomeNearbyMentionsCount(t *testing.T) {
	llm := &scriptedLLM{bySchema: map[string][]byte{
		"intent.v1": jsonOf(t, map[string]any{
			"route":             "TEXTSEARCH",
			"foodAnchor":        map[string]any{"present": true, "type": "pizza"},
			"locationAnchor":    map[string]any{"present": true, "type": "street", "text": "allenby"},
			"nearMe":            true,
			"assistantLanguage": "en",
			"confidence":        0.9,
			"priceIntent":       "any",
		}),
	}}

	places := &fakePlaces{
		nearby: func(_ context.Context, plan models.NearbyPlan) (provider.Page, error) {
			if plan.RadiusMeters <= 200 {
				return provider.Page{}, nil
			}
			results := make([]provider.RawPlace, 5)
			for i := range results {
				results[i] = provider.RawPlace{
					ID:          string(rune('a' + i)),
					DisplayName: "Pizza Place",
					// ~330m north of center: outside the 200m EXACT band but
					// inside the 400m NEARBY band the fake's radius=400 call served it from.
					Location:     models.LatLng{Lat: 32.07 + 0.003, Lng: 34.77},
					OpenNowKnown: true,
					OpenNow:      true,
				}
			}
			return provider.Page{Results: results}, nil
		},
	}

	o := newTestOrchestrator(t, llm, places)
	userLoc := models.LatLng{Lat: 32.07, Lng: 34.77}
	req := models.Request{OriginalText: "pizza on allenby street", SessionID: "s6", UserLocation: &userLoc}

	job, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	final := awaitTerminal(t, o, job.RequestID)
	require.Equal(t, models.JobDoneSuccess, final.Status)
	assert.Len(t, final.Result.Groups, 1)
	assert.Equal(t, models.GroupNearby, final.Result.Groups[0].Kind)
	require.NotNil(t, final.Result.Assist)
	assert.Equal(t, "Found 5 places nearby.", final.Result.Assist.Message)
}

// A TEXTSEARCH query anchored on a known city that comes back empty, while a
// different known city hub has results, classifies as zero_different_city
// rather than zero_nearby_exists, and surfaces the matching city as a
// suggested action.
func TestRun_ZeroResultsInDifferentCityClassifiesAsZeroDifferentCity(t *testing.T) {
	llm := &scriptedLLM{bySchema: map[string][]byte{
		"intent.v1": jsonOf(t, map[string]any{
			"route":             "TEXTSEARCH",
			"foodAnchor":        map[string]any{"present": true, "type": "sushi"},
			"locationAnchor":    map[string]any{"present": true, "type": "city", "text": "jerusalem"},
			"cityText":          "jerusalem",
			"assistantLanguage": "en",
			"confidence":        0.9,
			"priceIntent":       "any",
		}),
	}}

	places := &fakePlaces{
		geocode: func(_ context.Context, text string) (models.LatLng, bool, error) {
			switch text {
			case "jerusalem":
				return models.LatLng{Lat: 31.78, Lng: 35.21}, true, nil
			case "tel-aviv":
				return models.LatLng{Lat: 32.07, Lng: 34.78}, true, nil
			default:
				return models.LatLng{}, false, nil
			}
		},
		textSearch: func(_ context.Context, plan models.TextSearchPlan, _ string) (provider.Page, error) {
			if strings.Contains(plan.TextQuery, "tel-aviv") {
				return provider.Page{Results: []provider.RawPlace{{ID: "p1", DisplayName: "Sushi Tel Aviv"}}}, nil
			}
			return provider.Page{}, nil
		},
	}

	cities, err := registry.LoadCityAliasTable()
	require.NoError(t, err)

	o, err := New(Deps{
		Jobs:     jobstore.NewMemoryStore(time.Minute, 5*time.Second),
		Sessions: session.New(),
		LLM:      llm,
		Places:   places,
		Cities:   cities,
	})
	require.NoError(t, err)

	req := models.Request{OriginalText: "sushi in jerusalem", SessionID: "s8"}
	job, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	final := awaitTerminal(t, o, job.RequestID)
	require.Equal(t, models.JobDoneSuccess, final.Status)
	require.NotNil(t, final.Result.Assist)
	require.Len(t, final.Result.Assist.SuggestedActions, 2)
	assert.Equal(t, "tel-aviv", final.Result.Assist.SuggestedActions[0].Label)
}

func TestCancel_UnknownRequestReturnsFalse(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedLLM{}, &fakePlaces{})
	assert.False(t, o.Cancel("req_does_not_exist"))
}

func TestStop_ForceMarksInFlightJobsStopped(t *testing.T) {
	block := make(chan struct{})
	llm := &scriptedLLM{}
	places := &fakePlaces{
		textSearch: func(ctx context.Context, _ models.TextSearchPlan, _ string) (provider.Page, error) {
			select {
			case <-block:
			case <-ctx.Done():
			}
			return provider.Page{}, ctx.Err()
		},
	}

	o := newTestOrchestrator(t, llm, places)
	loc := models.LatLng{Lat: 1, Lng: 1}
	req := models.Request{OriginalText: "burger", SessionID: "s7", UserLocation: &loc}

	job, err := o.Submit(context.Background(), req)
	require.NoError(t, err)

	o.Stop(100 * time.Millisecond)
	close(block)

	final, err := o.deps.Jobs.Get(context.Background(), job.RequestID)
	require.NoError(t, err)
	assert.True(t, final.Status.IsTerminal())
}
