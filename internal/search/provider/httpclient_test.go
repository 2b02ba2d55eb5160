package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

func TestHTTPClient_TextSearchRoundTrips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/places:searchText", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req textSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pizza", req.TextQuery)

		_ = json.NewEncoder(w).Encode(Page{Results: []RawPlace{{ID: "p1", DisplayName: "Pizza Place"}}})
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL, APIKey: "test-key"})
	page, err := client.TextSearch(context.Background(), models.TextSearchPlan{TextQuery: "pizza"}, "")
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "p1", page.Results[0].ID)
}

func TestHTTPClient_GeocodeRoundTrips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/geocode", r.URL.Path)
		_ = json.NewEncoder(w).Encode(geocodeResponse{Location: models.LatLng{Lat: 1, Lng: 2}, Found: true})
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL})
	ll, found, err := client.Geocode(context.Background(), "tel aviv")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.LatLng{Lat: 1, Lng: 2}, ll)
}

func TestHTTPClient_NonSuccessStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL})
	_, err := client.Nearby(context.Background(), models.NearbyPlan{})
	assert.Error(t, err)
}
