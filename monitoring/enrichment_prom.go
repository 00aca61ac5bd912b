// Copyright 2025 the ai-vulns authors.
// SPDX-License-Identifier: 	AGPL-3.0-or-later
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var EnrichmentAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aivulns_enrichment_total",
	Help: "Total number of vulnerability enrichment attempts",
})

var EnrichmentSuccess = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aivulns_enrichment_success_total",
	Help: "Total number of successful vulnerability enrichments",
})

var EnrichmentUnavailable = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aivulns_enrichment_unavailable_total",
	Help: "Total number of enrichments where the external record was unavailable",
})

var EnrichmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "aivulns_enrichment_duration_seconds",
	Help:    "Duration of single vulnerability enrichments in seconds",
	Buckets: prometheus.DefBuckets,
})

var ConstraintEvaluations = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aivulns_constraint_evaluations_total",
	Help: "Total number of constraint evaluations",
})
