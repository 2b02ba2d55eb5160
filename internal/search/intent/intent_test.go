package intent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-search-core/internal/search/llmclient"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

type fakeClient struct {
	resp llmclient.Response
	err  error
}

func (f fakeClient) Generate(context.Context, llmclient.Request) (llmclient.Response, error) {
	return f.resp, f.err
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestResolve_HappyPath(t *testing.T) {
	raw := mustJSON(t, wireIntent{
		Route:             "TEXTSEARCH",
		AssistantLanguage: "en",
		Confidence:        0.9,
		PriceIntent:       "any",
	})
	stage, err := New(fakeClient{resp: llmclient.Response{RawJSON: raw}})
	require.NoError(t, err)

	in := stage.Resolve(context.Background(), "pizza in tel aviv", false)
	assert.Equal(t, models.RouteTextSearch, in.Route)
	assert.Equal(t, models.LangEnglish, in.AssistantLanguage)
}

func TestResolve_NearbyWithoutLocationCoercesToClarify(t *testing.T) {
	raw := mustJSON(t, wireIntent{
		Route:             "NEARBY",
		AssistantLanguage: "en",
		Confidence:        0.95,
	})
	stage, err := New(fakeClient{resp: llmclient.Response{RawJSON: raw}})
	require.NoError(t, err)

	in := stage.Resolve(context.Background(), "food near me", false)
	assert.Equal(t, models.RouteClarify, in.Route)
	assert.Equal(t, "missing_user_location", in.Reason)
	assert.LessOrEqual(t, in.Confidence, 0.8)
}

func TestResolve_InvalidRegionCoercesToNil(t *testing.T) {
	bad := "usa"
	raw := mustJSON(t, wireIntent{
		Route:             "TEXTSEARCH",
		AssistantLanguage: "en",
		RegionCandidate:   &bad,
	})
	stage, err := New(fakeClient{resp: llmclient.Response{RawJSON: raw}})
	require.NoError(t, err)

	in := stage.Resolve(context.Background(), "pizza", false)
	assert.Nil(t, in.RegionCandidate)
}

func TestResolve_UnsupportedAssistantLanguageCollapsesToEnglish(t *testing.T) {
	raw := mustJSON(t, wireIntent{Route: "TEXTSEARCH", AssistantLanguage: "de"})
	stage, err := New(fakeClient{resp: llmclient.Response{RawJSON: raw}})
	require.NoError(t, err)

	in := stage.Resolve(context.Background(), "pizza", false)
	assert.Equal(t, models.LangEnglish, in.AssistantLanguage)
}

func TestResolve_FallsBackOnError(t *testing.T) {
	stage, err := New(fakeClient{err: assertError{}})
	require.NoError(t, err)

	in := stage.Resolve(context.Background(), "פיצה ליד הבית", false)
	assert.Equal(t, models.RouteTextSearch, in.Route)
	assert.Equal(t, "fallback", in.Reason)
	assert.Equal(t, 0.3, in.Confidence)
	assert.Equal(t, models.LangHebrew, in.AssistantLanguage)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }

func TestResolve_LandmarkTextClearedWhenNotLandmarkRoute(t *testing.T) {
	lt := "eiffel tower"
	raw := mustJSON(t, wireIntent{Route: "TEXTSEARCH", AssistantLanguage: "en", LandmarkText: &lt})
	stage, err := New(fakeClient{resp: llmclient.Response{RawJSON: raw}})
	require.NoError(t, err)

	in := stage.Resolve(context.Background(), "pizza", false)
	assert.Nil(t, in.LandmarkText)
}
