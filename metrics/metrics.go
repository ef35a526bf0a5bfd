// Package metrics exposes prometheus counters for the request and backlog
// engines and the catalog providers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requestarr_requests_created_total",
		Help: "Media requests created.",
	})

	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "requestarr_request_transitions_total",
		Help: "Request status transitions applied, by target status.",
	}, []string{"status"})

	BacklogUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requestarr_backlog_updates_total",
		Help: "Backlog item mutations applied.",
	})

	Searches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "requestarr_searches_total",
		Help: "Catalog searches served.",
	})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "requestarr_provider_errors_total",
		Help: "Upstream provider failures, by provider.",
	}, []string{"provider"})
)
