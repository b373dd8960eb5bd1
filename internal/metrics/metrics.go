package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncsTotal counts finished sync attempts by outcome.
	SyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghlsync_syncs_total",
		Help: "Sync attempts by outcome (success, skipped, failed).",
	}, []string{"status"})

	// ScheduledTotal counts dispatcher schedule calls by result.
	ScheduledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghlsync_scheduled_total",
		Help: "Background sync schedule attempts (enqueued, duplicate, error).",
	}, []string{"result"})

	// APICallsTotal counts outbound CRM calls by operation and result.
	APICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghlsync_api_calls_total",
		Help: "Outbound GHL API calls by operation and result.",
	}, []string{"op", "result"})
)
