package models

// LatLng is a WGS-84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Language is one of the six assistant-facing languages the pipeline
// understands end to end.
type Language string

const (
	LangHebrew  Language = "he"
	LangEnglish Language = "en"
	LangRussian Language = "ru"
	LangArabic  Language = "ar"
	LangFrench  Language = "fr"
	LangSpanish Language = "es"
	LangOther   Language = "other"
	LangUnknown Language = "unknown"
)

// SupportedAssistantLanguages is the closed set assistantLanguage must
// collapse to; anything else normalizes to LangEnglish.
var SupportedAssistantLanguages = map[Language]bool{
	LangHebrew: true, LangEnglish: true, LangRussian: true,
	LangArabic: true, LangFrench: true, LangSpanish: true,
}

// Request is a submitted search query.
type Request struct {
	RequestID      string   `json:"requestId,omitempty"`
	OriginalText   string   `json:"query" validate:"required"`
	UserLocation   *LatLng  `json:"userLocation,omitempty"`
	SessionID      string   `json:"sessionId,omitempty"`
	ExplicitLocale Language `json:"locale,omitempty"`
	IdempotencyKey string   `json:"idempotencyKey,omitempty"`
	ClearContext   bool     `json:"clearContext,omitempty"`
}

// PriceIntent is the user's price-band signal, as extracted by the Intent stage.
type PriceIntent string

const (
	PriceAny      PriceIntent = "any"
	PriceCheap    PriceIntent = "cheap"
	PriceMid      PriceIntent = "mid"
	PriceExpensive PriceIntent = "expensive"
)

// Route is the routing decision produced by the Intent stage (C5).
type Route string

const (
	RouteTextSearch Route = "TEXTSEARCH"
	RouteNearby     Route = "NEARBY"
	RouteLandmark   Route = "LANDMARK"
	RouteClarify    Route = "CLARIFY"
)

// LocationAnchorType distinguishes the shape of a location anchor.
type LocationAnchorType string

const (
	AnchorCity   LocationAnchorType = "city"
	AnchorStreet LocationAnchorType = "street"
	AnchorPOI    LocationAnchorType = "poi"
	AnchorGPS    LocationAnchorType = "gps"
	AnchorEmpty  LocationAnchorType = "empty"
)

// FoodAnchor is the food-anchor field of a validated Intent.
type FoodAnchor struct {
	Type    string `json:"type"`
	Present bool   `json:"present"`
}

// LocationAnchor is the location-anchor field of a validated Intent.
type LocationAnchor struct {
	Text    string             `json:"text"`
	Type    LocationAnchorType `json:"type"`
	Present bool               `json:"present"`
}

// ExplicitDistance carries a user-specified radius, in meters, plus the
// original text it was parsed from (for logging/debugging only).
type ExplicitDistance struct {
	Meters       *int    `json:"meters,omitempty"`
	OriginalText *string `json:"originalText,omitempty"`
}

// Intent is the schema-validated interpretation of a query after the Intent stage.
type Intent struct {
	Route              Route              `json:"route" validate:"required,oneof=TEXTSEARCH NEARBY LANDMARK CLARIFY"`
	FoodAnchor         FoodAnchor         `json:"foodAnchor"`
	LocationAnchor     LocationAnchor     `json:"locationAnchor"`
	NearMe             bool               `json:"nearMe"`
	ExplicitDistance   ExplicitDistance   `json:"explicitDistance"`
	Language           Language           `json:"language"`
	LanguageConfidence float64            `json:"languageConfidence" validate:"gte=0,lte=1"`
	AssistantLanguage  Language           `json:"assistantLanguage"`
	RegionCandidate    *string            `json:"regionCandidate,omitempty"`
	RegionConfidence   float64            `json:"regionConfidence" validate:"gte=0,lte=1"`
	RegionReason       string             `json:"regionReason,omitempty"`
	CityText           *string            `json:"cityText,omitempty"`
	LandmarkText       *string            `json:"landmarkText,omitempty"`
	RadiusMeters       *int               `json:"radiusMeters,omitempty" validate:"omitempty,gte=1,lte=50000"`
	OpenNowRequested   bool               `json:"openNowRequested"`
	PriceIntent        PriceIntent        `json:"priceIntent"`
	DistanceIntent     *int               `json:"distanceIntent,omitempty"`
	QualityIntent      string             `json:"qualityIntent,omitempty"`
	Occasion           string             `json:"occasion,omitempty"`
	CuisineKey         string             `json:"cuisineKey,omitempty"`

	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
	Reason     string  `json:"reason,omitempty"`
}

// Normalize enforces the following invariants:
//
//	route = LANDMARK  <=> landmarkText != nil
//	reason == "explicit_distance_from_me" => landmarkText == nil
func (in *Intent) Normalize() {
	if in.Route != RouteLandmark {
		in.LandmarkText = nil
	}
	if in.Reason == "explicit_distance_from_me" {
		in.LandmarkText = nil
	}
}
