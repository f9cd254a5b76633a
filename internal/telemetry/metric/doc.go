// Package metric provides Prometheus metrics for LinkGate.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry, service recorder and HTTP handler
//   - collector.go: Scrape-time collector for link store counters
//
// Metrics include:
//
//   - Gate decisions by outcome and client category
//   - Challenge issue, check and delivery counters
//   - Live link gauges and sweep counters
//   - Request latency histograms
//
// Metrics are exposed at /metrics in Prometheus format.
//
// @req RQ-0403
// @design DS-0402
package metric
