// Package metrics exposes the Prometheus counters and histograms the
// Pipeline Orchestrator and its component stages record against, matching its
// stage-latency and scenario-count observability requirements.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageLatencySeconds buckets wall-clock time spent in each named
	// pipeline stage (gate, intent, routeplan, provider, grouping, rse,
	// chatback), labeled by stage and outcome.
	StageLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "searchengine",
		Subsystem: "pipeline",
		Name:      "stage_latency_seconds",
		Help:      "Latency of an individual pipeline stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage", "outcome"})

	// ScenarioTotal counts ResultStateEngine classifications by scenario,
	// feeding the repeat_unsuccessful / fallback-rate dashboards.
	ScenarioTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchengine",
		Subsystem: "rse",
		Name:      "scenario_total",
		Help:      "Count of ResultStateEngine scenario classifications.",
	}, []string{"scenario"})

	// JobStatusTotal counts terminal job-store writes by status.
	JobStatusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchengine",
		Subsystem: "jobs",
		Name:      "status_total",
		Help:      "Count of jobs reaching each terminal (or non-terminal) status.",
	}, []string{"status"})

	// CacheGuardResultTotal counts Cache Guard lookups by hit/miss/timeout.
	CacheGuardResultTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchengine",
		Subsystem: "cacheguard",
		Name:      "lookup_result_total",
		Help:      "Count of Cache Guard lookups by result.",
	}, []string{"result"})

	// LLMCallTotal counts LLM calls per stage and outcome (ok, timeout,
	// fallback), so fallback rate is directly observable per stage.
	LLMCallTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchengine",
		Subsystem: "llm",
		Name:      "call_total",
		Help:      "Count of LLM calls by stage and outcome.",
	}, []string{"stage", "outcome"})

	// ChatBackForbiddenRetryTotal counts forbidden-phrase retries and
	// template fallbacks, per ChatBack's behavioral contract.
	ChatBackForbiddenRetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchengine",
		Subsystem: "chatback",
		Name:      "forbidden_retry_total",
		Help:      "Count of forbidden-phrase retries and template fallbacks.",
	}, []string{"outcome"})
)
