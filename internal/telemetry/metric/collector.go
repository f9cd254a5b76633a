// Package metric provides Prometheus metrics for LinkGate.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/linkgate-go/internal/core/service"
)

// StoreCollector exports link store counters at scrape time.
type StoreCollector struct {
	stats func() service.StoreStats

	live      *prometheus.Desc
	discarded *prometheus.Desc
	expired   *prometheus.Desc
	lastSweep *prometheus.Desc
}

// NewStoreCollector creates a collector reading from stats.
func NewStoreCollector(stats func() service.StoreStats) *StoreCollector {
	return &StoreCollector{
		stats: stats,
		live: prometheus.NewDesc(namespace+"_store_links",
			"Links currently held by the store, including unswept expired ones.", nil, nil),
		discarded: prometheus.NewDesc(namespace+"_store_discarded_total",
			"Links discarded explicitly.", nil, nil),
		expired: prometheus.NewDesc(namespace+"_store_lazily_expired_total",
			"Links removed on access after expiry.", nil, nil),
		lastSweep: prometheus.NewDesc(namespace+"_store_last_sweep_timestamp_seconds",
			"Unix time of the last sweep.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.live
	ch <- c.discarded
	ch <- c.expired
	ch <- c.lastSweep
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(s.Live))
	ch <- prometheus.MustNewConstMetric(c.discarded, prometheus.CounterValue, float64(s.Discarded))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(s.Expired))
	ch <- prometheus.MustNewConstMetric(c.lastSweep, prometheus.GaugeValue, float64(s.LastSweep)/1000)
}

var (
	_ prometheus.Collector    = (*StoreCollector)(nil)
	_ service.MetricsRecorder = (*Registry)(nil)
)
