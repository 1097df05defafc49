package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatEventsTotal is the total number of chat events handled.
	ChatEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_chat_events_total",
			Help: "Total number of chat events handled",
		},
		[]string{"kind", "route"},
	)

	// ChatEventDuration is the time taken to handle a chat event.
	ChatEventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bot_chat_event_duration",
			Help: "Duration of chat event handling",
		},
		[]string{"kind", "route"},
	)

	// AccessDenied is the total number of requests refused by the access policy.
	AccessDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_access_denied_total",
			Help: "Total number of requests refused by the access policy",
		},
		[]string{"route"},
	)
)
