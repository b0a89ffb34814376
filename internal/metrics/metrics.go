package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StreamLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disruptwatch_stream_lines_total",
		Help: "Total number of log lines received from the event stream.",
	})

	StreamState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "disruptwatch_stream_state",
		Help: "1 for the current event stream state, 0 otherwise.",
	}, []string{"state"})

	DispatchDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disruptwatch_dispatch_dropped_total",
		Help: "Total number of stream lines dropped because the dispatch queue was closed.",
	})

	RefreshesTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disruptwatch_refreshes_triggered_total",
		Help: "Total number of map-state refreshes requested by MAP_UPDATE signals.",
	})

	RefreshesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disruptwatch_refreshes_applied_total",
		Help: "Total number of fetched map states passed to the renderer.",
	})

	RefreshesSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disruptwatch_refreshes_superseded_total",
		Help: "Total number of map-state fetches discarded because a newer one was requested.",
	})

	RefreshErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disruptwatch_refresh_errors_total",
		Help: "Total number of map-state fetches that failed.",
	})

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "disruptwatch_refresh_duration_ms",
		Help:    "Map-state fetch latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	RoutesTraced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disruptwatch_routes_traced_total",
		Help: "Total number of changed routes redrawn with a trace animation.",
	})

	RoutesUnchanged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disruptwatch_routes_unchanged_total",
		Help: "Total number of routes left untouched because their path did not change.",
	})

	MarkersDrawn = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disruptwatch_markers_drawn_total",
		Help: "Total number of markers drawn, labelled by role.",
	}, []string{"role"})

	PanelLines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "disruptwatch_panel_lines",
		Help: "Current number of lines held by the log panel.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "disruptwatch_queue_utilization_ratio",
		Help: "Current line dispatch queue utilization (0–1).",
	})

	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disruptwatch_api_requests_total",
		Help: "Total number of inspection API requests, labelled by method, route and status class.",
	}, []string{"method", "route", "status"})
)
