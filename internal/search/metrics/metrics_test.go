package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStageLatencySeconds_RecordsObservation(t *testing.T) {
	StageLatencySeconds.WithLabelValues("gate", "ok").Observe(0.01)
	assert.Equal(t, 1, testutil.CollectAndCount(StageLatencySeconds))
}

func TestScenarioTotal_IncrementsByLabel(t *testing.T) {
	before := testutil.ToFloat64(ScenarioTotal.WithLabelValues("exact_match"))
	ScenarioTotal.WithLabelValues("exact_match").Inc()
	after := testutil.ToFloat64(ScenarioTotal.WithLabelValues("exact_match"))
	assert.Equal(t, before+1, after)
}

func TestJobStatusTotal_IncrementsByLabel(t *testing.T) {
	before := testutil.ToFloat64(JobStatusTotal.WithLabelValues("DONE_SUCCESS"))
	JobStatusTotal.WithLabelValues("DONE_SUCCESS").Inc()
	after := testutil.ToFloat64(JobStatusTotal.WithLabelValues("DONE_SUCCESS"))
	assert.Equal(t, before+1, after)
}
