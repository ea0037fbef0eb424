// Package metrics holds the run level metrics and exports everything
// registered with the default registry to a node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ptfeed_run_duration_seconds",
		Help: "Wall time of the last build",
	})

	lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ptfeed_last_success_timestamp_seconds",
		Help: "Unix time the last build completed",
	})

	itemsPublished = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ptfeed_items_published",
		Help: "Items in the last published feed",
	})

	pagesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ptfeed_pages_pruned_total",
		Help: "Orphaned pages removed",
	})
)

// ObserveRun records a completed build
func ObserveRun(started, finished time.Time, items int) {
	runDuration.Set(finished.Sub(started).Seconds())
	lastSuccess.Set(float64(finished.Unix()))
	itemsPublished.Set(float64(items))
}

// ObservePruned records removed orphan pages
func ObservePruned(n int) {
	pagesPruned.Add(float64(n))
}

// Write exports the default registry to path in the text exposition format
func Write(path string) error {
	return WriteFrom(prometheus.DefaultGatherer, path)
}

// WriteFrom exports g to path, replacing any previous file
func WriteFrom(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
