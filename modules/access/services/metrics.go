package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/govkit/records-sdk/modules/access/domain/policy"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "access",
		Subsystem: "engine",
		Name:      "decisions_total",
		Help:      "Access decisions broken down by resource type, action and result.",
	}, []string{"resource_type", "action", "result"})

	decisionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "access",
		Subsystem: "engine",
		Name:      "decision_latency_seconds",
		Help:      "Latency distribution for access decisions.",
		Buckets: []float64{
			0.0005, 0.001, 0.002, 0.005,
			0.01, 0.02, 0.05, 0.1,
			0.2, 0.5, 1, 2,
		},
	}, []string{"resource_type", "action", "result"})

	auditFlushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "access",
		Subsystem: "audit",
		Name:      "flush_total",
		Help:      "Audit batch flushes broken down by outcome.",
	}, []string{"outcome"})

	auditBufferedDecisions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "access",
		Subsystem: "audit",
		Name:      "buffered_decisions",
		Help:      "Decisions waiting in the audit buffer.",
	})

	graphUntaggedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "access",
		Subsystem: "graph",
		Name:      "filter_untagged_total",
		Help:      "Contract-domain graph entities seen without security tags; candidates for backfill.",
	})
)

func recordDecisionMetrics(resourceType policy.ResourceType, action policy.Action, allowed bool, latency time.Duration) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	labels := prometheus.Labels{
		"resource_type": string(resourceType),
		"action":        string(action),
		"result":        result,
	}
	decisionsTotal.With(labels).Inc()
	decisionLatency.With(labels).Observe(latency.Seconds())
}
