package orchestrator

import (
	"errors"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// OrchestratorErrorType is the narrow three-member taxonomy the Pipeline
// Orchestrator maps every raised error into at its boundary,
// distinct from the six-member internal ErrorKind stage errors carry.
type OrchestratorErrorType string

const (
	ErrorTypeLLMTimeout   OrchestratorErrorType = "LLM_TIMEOUT"
	ErrorTypeGateError    OrchestratorErrorType = "GATE_ERROR"
	ErrorTypeSearchFailed OrchestratorErrorType = "SEARCH_FAILED"
)

// classifyFailure maps an internal error to the orchestrator-level
// errorType surfaced on the job record, per the
// "on expiration it transitions the job to DONE_FAILED{errorType=...}".
func classifyFailure(stage string, err error) (OrchestratorErrorType, *models.JobError) {
	var searchErr *models.SearchError
	if errors.As(err, &searchErr) {
		if searchErr.Kind == models.ErrorKindTimeout {
			return ErrorTypeLLMTimeout, &models.JobError{
				Code: searchErr.Code, Message: searchErr.Message, ErrorType: searchErr.Kind,
			}
		}
	}

	switch stage {
	case stageGate:
		return ErrorTypeGateError, &models.JobError{
			Code: "GATE_ERROR", Message: err.Error(), ErrorType: models.ErrorKindInternal,
		}
	case stageIntent, stageChatBack:
		return ErrorTypeLLMTimeout, &models.JobError{
			Code: "LLM_TIMEOUT", Message: err.Error(), ErrorType: models.ErrorKindTimeout,
		}
	default:
		return ErrorTypeSearchFailed, &models.JobError{
			Code: "SEARCH_FAILED", Message: err.Error(), ErrorType: models.ErrorKindUpstream,
		}
	}
}

// Stage name constants, used only to pick the right errorType bucket above.
const (
	stageGate     = "gate"
	stageIntent   = "intent"
	stageFilters  = "filters"
	stageRoute    = "route"
	stageProvider = "provider"
	stageGrouping = "grouping"
	stageChatBack = "chatback"
)
