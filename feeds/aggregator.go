// Package feeds turns configured sources into one ranked, deduplicated list
// of items.
package feeds

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ptfeed/models"
)

var (
	sourceItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ptfeed_source_items",
		Help: "Items contributed by each source in the last run",
	}, []string{"tag"})

	sourcesFailed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ptfeed_sources_failed",
		Help: "Sources that contributed nothing in the last run because of a fetch or parse failure",
	})

	mergedItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ptfeed_merged_items",
		Help: "Unique items after deduplication, before the cap",
	})
)

// Fetcher retrieves the raw feed document at url
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// AggregatorConfig holds configuration for the aggregator
type AggregatorConfig struct {
	MaxItems    int
	Concurrency int
	Policy      MergePolicy
	Now         func() time.Time
}

// SourceReport describes what one source contributed to a run
type SourceReport struct {
	Source  models.Source
	Entries int
	Items   int
	Err     error
}

// Result is the ranked item list of one run plus per-source reports
type Result struct {
	Items   []models.Item
	Reports []SourceReport
	// Unique items before the cap was applied
	Unique int
}

// Failed returns the reports of sources that contributed nothing due to an error
func (r *Result) Failed() []SourceReport {
	return lo.Filter(r.Reports, func(rep SourceReport, _ int) bool {
		return rep.Err != nil
	})
}

type Aggregator struct {
	fetcher     Fetcher
	normalizer  *Normalizer
	policy      MergePolicy
	maxItems    int
	concurrency int
}

func NewAggregator(fetcher Fetcher, config AggregatorConfig) *Aggregator {
	policy := config.Policy
	if policy == nil {
		policy = LastWriteWins{}
	}
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Aggregator{
		fetcher:     fetcher,
		normalizer:  NewNormalizer(config.Now),
		policy:      policy,
		maxItems:    config.MaxItems,
		concurrency: concurrency,
	}
}

// Aggregate fetches all sources and returns the merged, ranked and capped
// items. A failing source contributes nothing; it never fails the run.
func (a *Aggregator) Aggregate(ctx context.Context, sources []models.Source) *Result {
	perSource := make([][]models.Item, len(sources))
	reports := make([]SourceReport, len(sources))

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, src := range sources {
		g.Go(func() error {
			perSource[i], reports[i] = a.collect(ctx, src)
			return nil
		})
	}
	// Workers never return errors
	_ = g.Wait()

	// Merge in configured source order so the policy sees a stable sequence
	merged := Merge(lo.Flatten(perSource), a.policy)
	ranked := Rank(merged, a.maxItems)

	failed := lo.CountBy(reports, func(rep SourceReport) bool { return rep.Err != nil })
	sourcesFailed.Set(float64(failed))
	mergedItems.Set(float64(len(merged)))

	log.WithFields(log.Fields{
		"sources": len(sources),
		"failed":  failed,
		"unique":  len(merged),
		"kept":    len(ranked),
	}).Info("Aggregated sources")

	return &Result{
		Items:   ranked,
		Reports: reports,
		Unique:  len(merged),
	}
}

func (a *Aggregator) collect(ctx context.Context, src models.Source) ([]models.Item, SourceReport) {
	report := SourceReport{Source: src}
	logger := log.WithFields(log.Fields{
		"tag": src.Tag,
		"url": src.URL,
	})

	payload, err := a.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		logger.Warnf("Skipping source, fetch failed: %v", err)
		report.Err = err
		sourceItems.WithLabelValues(src.Tag).Set(0)
		return nil, report
	}

	entries, err := ParseEntries(payload)
	if err != nil {
		logger.Warnf("Skipping source, malformed payload: %v", err)
		report.Err = err
		sourceItems.WithLabelValues(src.Tag).Set(0)
		return nil, report
	}
	report.Entries = len(entries)

	items := make([]models.Item, 0, len(entries))
	for _, entry := range entries {
		if item, ok := a.normalizer.Normalize(entry, src); ok {
			items = append(items, item)
		}
	}
	report.Items = len(items)
	sourceItems.WithLabelValues(src.Tag).Set(float64(len(items)))

	logger.WithFields(log.Fields{
		"entries": len(entries),
		"items":   len(items),
	}).Info("Collected source")

	return items, report
}
