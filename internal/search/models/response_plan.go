package models

// Scenario is one of the eleven named outcome scenarios the ResultStateEngine
// classifies a completed fetch into.
type Scenario string

const (
	ScenarioExactMatch         Scenario = "exact_match"
	ScenarioLowConfidence      Scenario = "low_confidence"
	ScenarioMissingQuery       Scenario = "missing_query"
	ScenarioMissingLocation    Scenario = "missing_location"
	ScenarioZeroNearbyExists   Scenario = "zero_nearby_exists"
	ScenarioZeroDifferentCity  Scenario = "zero_different_city"
	ScenarioFewClosingSoon     Scenario = "few_closing_soon"
	ScenarioFewAllClosed       Scenario = "few_all_closed"
	ScenarioManyAllClosed      Scenario = "many_all_closed"
	ScenarioClarifyNeeded      Scenario = "clarify_needed"
	ScenarioRepeatUnsuccessful Scenario = "repeat_unsuccessful"
)

// FilterStats records how many candidates a soft filter stage removed,
// feeding both ChatBack copy and the UNKNOWN-safe filter decisions.
type FilterStats struct {
	CandidateCount  int `json:"candidateCount"`
	OpenNowRemoved  int `json:"openNowRemoved"`
	PriceRemoved    int `json:"priceRemoved"`
	FinalCount      int `json:"finalCount"`
}

// FallbackOptions describes the relaxation path offered when a strict
// filter emptied the result set.
type FallbackOptions struct {
	Offered       bool   `json:"offered"`
	RelaxField    string `json:"relaxField,omitempty"`
	RelaxedCount  int    `json:"relaxedCount,omitempty"`
}

// ResultsSummary is the numeric shape of the outcome, independent of
// scenario classification — counts the ChatBack Generator turns into prose.
type ResultsSummary struct {
	ExactCount      int `json:"exactCount"`
	NearbyCount     int `json:"nearbyCount"`
	TotalCount      int `json:"totalCount"`
	OpenNowCount    int `json:"openNowCount"`
	ClosingSoonCount int `json:"closingSoonCount"`
}

// Guardrails records which forbidden-phrase / length constraints the
// ChatBack Generator enforced on its own output.
type Guardrails struct {
	MustMentionCount     bool     `json:"mustMentionCount"`
	MustSuggestAction    bool     `json:"mustSuggestAction"`
	CanMentionTiming     bool     `json:"canMentionTiming"`
	CanMentionLocation   bool     `json:"canMentionLocation"`
	TruncatedToMaxLength bool     `json:"truncatedToMaxLength"`
	ForbiddenPhrasesHit  []string `json:"forbiddenPhrasesHit,omitempty"`
	UsedTemplateFallback bool     `json:"usedTemplateFallback"`
}

// ResponsePlan is the final, scenario-tagged shape the Pipeline Orchestrator
// hands to setResult/ChatBack Generator.
type ResponsePlan struct {
	Scenario        Scenario        `json:"scenario"`
	ResultsSummary  ResultsSummary  `json:"resultsSummary"`
	FilterStats     FilterStats     `json:"filterStats"`
	Fallback        FallbackOptions `json:"fallback"`
	SuggestedActions []Action       `json:"suggestedActions,omitempty"`
	Guardrails      Guardrails      `json:"guardrails"`
	ChatBackMessage string          `json:"chatBackMessage"`
}
