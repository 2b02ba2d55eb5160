package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
	"github.com/FACorreiaa/loci-search-core/internal/search/jobstore"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
	"github.com/FACorreiaa/loci-search-core/internal/search/orchestrator"
)

// Handler wires the orchestrator and job store into four HTTP surfaces:
// submit, poll, cancel, health.
type Handler struct {
	orch *orchestrator.Orchestrator
	jobs jobstore.Store
}

func NewHandler(orch *orchestrator.Orchestrator, jobs jobstore.Store) *Handler {
	return &Handler{orch: orch, jobs: jobs}
}

// sessionIDMiddleware reads x-session-id, falling back to a fresh
// ephemeral session per request when absent — absence is tolerated, never
// a validation error.
func sessionIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("x-session-id")
		if sessionID == "" {
			sessionID = "sess_" + uuid.NewString()
		}
		c.Set("sessionID", sessionID)
		c.Next()
	}
}

func traceIDFor(c *gin.Context) string {
	span := trace.SpanFromContext(c.Request.Context())
	if sc := span.SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

type searchRequestBody struct {
	Query          string          `json:"query" binding:"required"`
	SessionID      string          `json:"sessionId"`
	Locale         models.Language `json:"locale"`
	UserLocation   *models.LatLng  `json:"userLocation"`
	ClearContext   bool            `json:"clearContext"`
	IdempotencyKey string          `json:"idempotencyKey"`
}

type searchAcceptedResponse struct {
	RequestID string `json:"requestId"`
	ResultURL string `json:"resultUrl"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"traceId"`
}

// SubmitSearch implements POST /search: validates the body, lets the
// orchestrator fold in idempotency, and responds 202 with the polling URL.
func (h *Handler) SubmitSearch(c *gin.Context) {
	var body searchRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Log.Warn("rejected malformed search request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{
			Code: string(models.ErrorKindValidation), Message: "invalid request body", TraceID: traceIDFor(c),
		})
		return
	}

	req := models.Request{
		OriginalText:   body.Query,
		SessionID:      sessionIDString(c, body.SessionID),
		ExplicitLocale: body.Locale,
		UserLocation:   body.UserLocation,
		ClearContext:   body.ClearContext,
		IdempotencyKey: body.IdempotencyKey,
	}

	job, err := h.orch.Submit(c.Request.Context(), req)
	if err != nil {
		logger.Log.Error("search submission failed", zap.Error(err), zap.String("traceId", traceIDFor(c)))
		c.JSON(http.StatusInternalServerError, errorResponse{
			Code: string(models.ErrorKindInternal), Message: "failed to submit search", TraceID: traceIDFor(c),
		})
		return
	}

	c.JSON(http.StatusAccepted, searchAcceptedResponse{
		RequestID: job.RequestID,
		ResultURL: "/search/" + job.RequestID + "/result",
	})
}

func sessionIDString(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v, ok := c.Get("sessionID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

type jobStatusResponse struct {
	RequestID string               `json:"requestId"`
	Status    models.JobStatus     `json:"status"`
	Progress  int                  `json:"progress,omitempty"`
	Results   []models.Place       `json:"results,omitempty"`
	Groups    []models.ResultGroup `json:"groups,omitempty"`
	Meta      *models.ResultMeta   `json:"meta,omitempty"`
	Assist    *models.AssistPayload `json:"assist,omitempty"`
}

// PollResult implements GET /search/:requestId/result: 200 for a terminal
// job (success or clarify), 202 with progress while in flight, 404 for an
// unknown or TTL-expired requestId.
func (h *Handler) PollResult(c *gin.Context) {
	requestID := c.Param("requestId")

	job, err := h.jobs.Get(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{
				Code: "JOB_NOT_FOUND", Message: "unknown or expired requestId", TraceID: traceIDFor(c),
			})
			return
		}
		logger.Log.Error("job store lookup failed", zap.Error(err), zap.String("requestId", requestID))
		c.JSON(http.StatusInternalServerError, errorResponse{
			Code: string(models.ErrorKindInternal), Message: "job store error", TraceID: traceIDFor(c),
		})
		return
	}

	if !job.Status.IsTerminal() {
		c.JSON(http.StatusAccepted, jobStatusResponse{
			RequestID: job.RequestID, Status: job.Status, Progress: job.Progress,
		})
		return
	}

	resp := jobStatusResponse{RequestID: job.RequestID, Status: job.Status}
	if job.Result != nil {
		resp.Results = job.Result.Results
		resp.Groups = job.Result.Groups
		resp.Meta = &job.Result.Meta
		resp.Assist = job.Result.Assist
	}
	c.JSON(http.StatusOK, resp)
}

// CancelSearch implements a cooperative cancel for an in-flight job,
// completing the step-10 cancellation contract with an HTTP trigger.
func (h *Handler) CancelSearch(c *gin.Context) {
	requestID := c.Param("requestId")
	if !h.orch.Cancel(requestID) {
		c.JSON(http.StatusNotFound, errorResponse{
			Code: "JOB_NOT_RUNNING", Message: "no in-flight job for this requestId", TraceID: traceIDFor(c),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

type healthResponse struct {
	Status string            `json:"status"`
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// Health implements GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	checks := map[string]string{"server": "UP"}
	status := "UP"

	if _, err := h.jobs.Get(c.Request.Context(), "healthz-probe-nonexistent"); err != nil && !errors.Is(err, models.ErrJobNotFound) {
		checks["jobStore"] = "DOWN"
		status = "DOWN"
	} else {
		checks["jobStore"] = "UP"
	}

	code := http.StatusOK
	if status == "DOWN" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, healthResponse{Status: status, Ready: status == "UP", Checks: checks})
}
