package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpTotalRequests is the total number of http requests.
	HttpTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_http_total_requests", AppName),
			Help: "Total number of http requests",
		},
		[]string{"path", "method", "status_code"},
	)

	// HttpRequestDuration is the duration of the http request.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_http_request_duration", AppName),
			Help: "Duration of the http request",
		},
		[]string{"path", "method", "status_code"},
	)

	// BotUp is 1 while the bot is polling for updates.
	BotUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_bot_up", AppName),
			Help: "Whether the bot is polling for updates",
		},
	)

	// StoreBackendInfo reports the configured ticket store.
	StoreBackendInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_store_backend_info", AppName),
			Help: "The ticket store in use",
		},
		[]string{"backend"},
	)
)
