// Package dprom exports the state of a discrete observable as Prometheus metrics.
package dprom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uklotzde/discro"
)

// CollectorConfig configures a [Collector].
type CollectorConfig struct {
	// Namespace is the metrics namespace (default: "discro").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics,
	// typically identifying which observable is being exported.
	ConstLabels prometheus.Labels
}

// Collector is a [prometheus.Collector] reading from an [*discro.Observer].
// Values are read at scrape time; nothing is recorded on the write path.
type Collector[T any] struct {
	obs *discro.Observer[T]

	revision    *prometheus.Desc
	subscribers *prometheus.Desc
	closed      *prometheus.Desc
}

// NewCollector returns a collector for obs.
// Register it with a [prometheus.Registerer] to export it.
func NewCollector[T any](obs *discro.Observer[T], cfg CollectorConfig) *Collector[T] {
	if cfg.Namespace == "" {
		cfg.Namespace = "discro"
	}

	name := func(n string) string {
		return prometheus.BuildFQName(cfg.Namespace, cfg.Subsystem, n)
	}

	return &Collector[T]{
		obs: obs,

		revision: prometheus.NewDesc(
			name("revision"),
			"Current revision of the observable value.",
			nil, cfg.ConstLabels,
		),
		subscribers: prometheus.NewDesc(
			name("subscribers"),
			"Number of open subscribers.",
			nil, cfg.ConstLabels,
		),
		closed: prometheus.NewDesc(
			name("closed"),
			"Whether the publisher has been closed (1) or not (0).",
			nil, cfg.ConstLabels,
		),
	}
}

func (c *Collector[T]) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.revision
	ch <- c.subscribers
	ch <- c.closed
}

func (c *Collector[T]) Collect(ch chan<- prometheus.Metric) {
	// The revision only ever increases, so it is exported as a counter.
	ch <- prometheus.MustNewConstMetric(
		c.revision, prometheus.CounterValue, float64(c.obs.Revision()),
	)
	ch <- prometheus.MustNewConstMetric(
		c.subscribers, prometheus.GaugeValue, float64(c.obs.SubscriberCount()),
	)

	var closed float64
	if c.obs.Closed() {
		closed = 1
	}
	ch <- prometheus.MustNewConstMetric(
		c.closed, prometheus.GaugeValue, closed,
	)
}
