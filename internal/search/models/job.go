package models

import "time"

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobPending      JobStatus = "PENDING"
	JobRunning      JobStatus = "RUNNING"
	JobDoneSuccess  JobStatus = "DONE_SUCCESS"
	JobDoneClarify  JobStatus = "DONE_CLARIFY"
	JobDoneStopped  JobStatus = "DONE_STOPPED"
	JobDoneFailed   JobStatus = "DONE_FAILED"
)

// IsTerminal reports whether status is one of the four terminal states.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobDoneSuccess, JobDoneClarify, JobDoneStopped, JobDoneFailed:
		return true
	default:
		return false
	}
}

// CandidatePool is an owner-bound, cached raw fetch used for soft-filter
// re-queries.
type CandidatePool struct {
	Candidates    []Place   `json:"candidates"`
	SearchContext string    `json:"searchContext"`
	FetchedAt     time.Time `json:"fetchedAt"`
	Route         Route     `json:"route"`
}

// JobError is the terminal error payload set via setError.
type JobError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	ErrorType ErrorKind `json:"errorType"`
}

// SearchResult is the terminal payload written by setResult: flat results
// plus optional groups, response metadata, and an optional clarification
// assist payload.
type SearchResult struct {
	Results []Place        `json:"results"`
	Groups  []ResultGroup  `json:"groups,omitempty"`
	Meta    ResultMeta     `json:"meta"`
	Assist  *AssistPayload `json:"assist,omitempty"`
}

// ResultMeta carries request-level bookkeeping surfaced to the caller.
type ResultMeta struct {
	Route            Route  `json:"route"`
	Source           string `json:"source,omitempty"`
	StreetGroupingOn bool   `json:"streetGroupingEnabled"`
	ServedFromCache  bool   `json:"servedFromCache"`
}

// AssistPayload is the structured clarification/recovery payload emitted
// when the outcome is not a plain result set.
type AssistPayload struct {
	Message         string   `json:"message"`
	FailureReason   string   `json:"failureReason,omitempty"`
	SuggestedActions []Action `json:"suggestedActions,omitempty"`
}

// Action is one actionable choice offered to the user in a clarification.
type Action struct {
	Priority int    `json:"priority"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Emoji    string `json:"emoji,omitempty"`
}

// Job is the ownership-tagged, TTL-bounded record of an in-flight or
// completed search.
type Job struct {
	RequestID      string
	SessionID      string
	Query          string
	Status         JobStatus
	Progress       int
	Result         *SearchResult
	Error          *JobError
	CreatedAt      time.Time
	UpdatedAt      time.Time
	OwnerUserID    *string
	OwnerSessionID *string
	IdempotencyKey *string
	CandidatePool  *CandidatePool
}

// Progress milestones, fixed constants.
const (
	ProgressJobCreated     = 10
	ProgressGate           = 25
	ProgressIntent         = 40
	ProgressProviderFetch  = 60
	ProgressPostConstraints = 75
	ProgressRanking        = 90
	ProgressTerminal       = 100
)
