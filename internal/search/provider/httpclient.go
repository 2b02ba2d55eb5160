package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// HTTPClientConfig configures HTTPClient. BaseURL and APIKey are operator
// supplied; the three paths default to a conventional REST shape a places
// provider adapter can front with a thin translation layer of its own.
type HTTPClientConfig struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	TextSearchPath   string
	NearbySearchPath string
	GeocodePath      string
}

// HTTPClient is a minimal, provider-agnostic JSON-over-HTTP implementation
// of Places. It exists so cmd/searchengine can run end to end against an
// operator-deployed places adapter; the vendor-specific request/response
// mapping for any one real places API is an external-collaborator concern
// left outside this repo, per the places/geocoding HTTP client non-goal —
// this client only defines the wire shape the rest of the pipeline needs.
type HTTPClient struct {
	cfg    HTTPClientConfig
	client *http.Client
}

// NewHTTPClient constructs an HTTPClient, filling in the conventional
// path defaults when the caller leaves them blank.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.TextSearchPath == "" {
		cfg.TextSearchPath = "/v1/places:searchText"
	}
	if cfg.NearbySearchPath == "" {
		cfg.NearbySearchPath = "/v1/places:searchNearby"
	}
	if cfg.GeocodePath == "" {
		cfg.GeocodePath = "/v1/geocode"
	}
	return &HTTPClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type textSearchRequest struct {
	TextQuery        string       `json:"textQuery"`
	ProviderLanguage string       `json:"providerLanguage,omitempty"`
	RegionCode       string       `json:"regionCode,omitempty"`
	Bias             *models.Bias `json:"bias,omitempty"`
	PageToken        string       `json:"pageToken,omitempty"`
}

type nearbyRequest struct {
	Center           models.LatLng `json:"center"`
	RadiusMeters     int           `json:"radiusMeters"`
	Keyword          string        `json:"keyword,omitempty"`
	ProviderLanguage string        `json:"providerLanguage,omitempty"`
	RegionCode       string        `json:"regionCode,omitempty"`
}

type geocodeRequest struct {
	Text string `json:"text"`
}

type geocodeResponse struct {
	Location models.LatLng `json:"location"`
	Found    bool          `json:"found"`
}

// TextSearch implements Places.TextSearch over the configured text-search path.
func (c *HTTPClient) TextSearch(ctx context.Context, plan models.TextSearchPlan, pageToken string) (Page, error) {
	var page Page
	body := textSearchRequest{
		TextQuery:        plan.TextQuery,
		ProviderLanguage: plan.ProviderLanguage,
		RegionCode:       plan.RegionCode,
		Bias:             plan.Bias,
		PageToken:        pageToken,
	}
	if err := c.post(ctx, c.cfg.TextSearchPath, body, &page); err != nil {
		return Page{}, fmt.Errorf("places text search: %w", err)
	}
	return page, nil
}

// Nearby implements Places.Nearby over the configured nearby-search path.
func (c *HTTPClient) Nearby(ctx context.Context, plan models.NearbyPlan) (Page, error) {
	var page Page
	body := nearbyRequest{
		Center:           plan.Center,
		RadiusMeters:     plan.RadiusMeters,
		Keyword:          plan.Keyword,
		ProviderLanguage: plan.ProviderLanguage,
		RegionCode:       plan.RegionCode,
	}
	if err := c.post(ctx, c.cfg.NearbySearchPath, body, &page); err != nil {
		return Page{}, fmt.Errorf("places nearby search: %w", err)
	}
	return page, nil
}

// Geocode implements Places.Geocode over the configured geocode path.
func (c *HTTPClient) Geocode(ctx context.Context, text string) (models.LatLng, bool, error) {
	var resp geocodeResponse
	if err := c.post(ctx, c.cfg.GeocodePath, geocodeRequest{Text: text}, &resp); err != nil {
		return models.LatLng{}, false, fmt.Errorf("places geocode: %w", err)
	}
	return resp.Location, resp.Found, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("places adapter returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
