/*
Package monitoring provides Prometheus-based metrics collection for the
relay: HTTP request metrics, per-command RPC metrics with taxonomy error
codes, target lifecycle gauges, and WebSocket connection metrics.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time a command
	timer := monitoring.NewTimer(metrics, "fs.writeText")
	// ... execute ...
	timer.Stop("ok")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
