package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreLatency is the duration of ticket store queries.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataaccess_store_latency",
			Help: "Duration of ticket store queries",
		},
		[]string{"dal", "query"},
	)

	// StoreTotalRequests is the total number of ticket store requests.
	StoreTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_total_requests",
			Help: "Total number of ticket store requests",
		},
		[]string{"dal", "query"},
	)

	// StoreErrors is the total number of failed ticket store requests.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_errors",
			Help: "Total number of failed ticket store requests",
		},
		[]string{"dal", "query"},
	)
)
