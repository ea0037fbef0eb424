// Package pipeline runs one complete build: fetch every source, rank the
// items, then write the feed documents, the landing pages and the manifest.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"ptfeed/config"
	"ptfeed/feeds"
	"ptfeed/metrics"
	"ptfeed/models"
	"ptfeed/publish"
	"ptfeed/slug"
)

// Options holds everything a build needs besides the fetcher
type Options struct {
	Config *config.TomlConfig
	// Site origin, already resolved and without a trailing slash
	Origin string
	// Overrides Config.Output.Dir when set
	OutputDir string
	// Overrides Config.MaxItems when positive
	MaxItems int
	// Remove pages whose item is no longer published
	Prune bool
	Now   func() time.Time
}

// Result summarises one build. Items carry their assigned slugs.
type Result struct {
	feeds.Result
	Pruned []string
}

type Pipeline struct {
	config   *config.TomlConfig
	origin   string
	dir      string
	maxItems int
	prune    bool
	now      func() time.Time
	fetcher  feeds.Fetcher
}

func New(opts Options, fetcher feeds.Fetcher) *Pipeline {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	dir := opts.OutputDir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	maxItems := cfg.MaxItems
	if opts.MaxItems > 0 {
		maxItems = opts.MaxItems
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	origin := strings.TrimRight(opts.Origin, "/")
	if origin == "" {
		origin = config.DefaultOrigin
	}

	return &Pipeline{
		config:   cfg,
		origin:   origin,
		dir:      dir,
		maxItems: maxItems,
		prune:    opts.Prune || cfg.Output.Prune,
		now:      now,
		fetcher:  fetcher,
	}
}

// FeedPath is where the RSS document is written
func (p *Pipeline) FeedPath() string {
	return filepath.Join(p.dir, p.config.Output.FeedFile)
}

// PagesDir is where the landing pages are written
func (p *Pipeline) PagesDir() string {
	return filepath.Join(p.dir, filepath.FromSlash(p.config.Output.PagesDir))
}

// Run performs a full rebuild. Source failures only show up in the result;
// an error means the run was interrupted or an output could not be written.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	policy, err := feeds.PolicyByName(p.config.MergePolicy)
	if err != nil {
		return nil, err
	}

	aggregator := feeds.NewAggregator(p.fetcher, feeds.AggregatorConfig{
		MaxItems:    p.maxItems,
		Concurrency: p.config.Fetch.Concurrency,
		Policy:      policy,
		Now:         p.now,
	})
	agg := aggregator.Aggregate(ctx, p.config.ModelSources())

	// An interrupted run leaves the previous outputs in place
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build interrupted: %w", err)
	}

	items := slug.NewAssigner(p.origin, p.config.Output.PagesDir).Assign(agg.Items)

	if err := p.writeFeeds(items); err != nil {
		return nil, err
	}
	if err := p.writePages(items); err != nil {
		return nil, err
	}

	result := &Result{Result: *agg}
	result.Items = items

	if p.prune {
		pruned, err := p.tidy(items)
		if err != nil {
			return nil, err
		}
		result.Pruned = pruned
	}

	metrics.ObserveRun(started, time.Now(), len(items))

	log.WithFields(log.Fields{
		"origin":  p.origin,
		"dir":     p.dir,
		"items":   len(items),
		"failed":  len(result.Failed()),
		"pruned":  len(result.Pruned),
		"elapsed": time.Since(started).Round(time.Millisecond),
	}).Info("Build complete")

	return result, nil
}

// RebuildPages regenerates the landing pages from the feed document of a
// previous build without fetching any source
func (p *Pipeline) RebuildPages() ([]models.Item, error) {
	items, err := publish.ItemsFromFeed(p.FeedPath(), p.config.Extension.Prefix, p.now)
	if err != nil {
		return nil, err
	}
	if err := p.writePages(items); err != nil {
		return nil, err
	}
	return items, nil
}

// Tidy removes pages not referenced by the feed document of a previous build
func (p *Pipeline) Tidy() ([]string, error) {
	items, err := publish.ItemsFromFeed(p.FeedPath(), p.config.Extension.Prefix, p.now)
	if err != nil {
		return nil, err
	}
	return p.tidy(items)
}

func (p *Pipeline) tidy(items []models.Item) ([]string, error) {
	keep := lo.Map(items, func(item models.Item, _ int) string { return item.Slug })
	removed, err := publish.Tidy(p.PagesDir(), keep)
	metrics.ObservePruned(len(removed))
	return removed, err
}

func (p *Pipeline) writeFeeds(items []models.Item) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	channel := p.config.Channel(p.origin)

	rss := &publish.RSSWriter{
		Channel:  channel,
		Location: p.config.Location(),
		Now:      p.now,
	}
	if err := rss.Write(p.FeedPath(), items); err != nil {
		return err
	}

	if p.config.Output.AtomFile != "" {
		atom := &publish.AtomWriter{Channel: channel, Now: p.now}
		if err := atom.Write(filepath.Join(p.dir, p.config.Output.AtomFile), items); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"feed":  p.FeedPath(),
		"items": len(items),
	}).Info("Wrote feed")

	return nil
}

func (p *Pipeline) writePages(items []models.Item) error {
	dir := p.PagesDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create pages directory: %w", err)
	}

	pages := publish.NewPageWriter(publish.PageConfig{
		Dir:             dir,
		SiteName:        p.config.Site.Title,
		Origin:          p.origin,
		Language:        p.config.Site.Language,
		DefaultImage:    p.config.Pages.DefaultImage,
		PreviewLength:   p.config.Pages.PreviewLength,
		RedirectSeconds: p.config.Pages.RedirectSeconds,
	})
	if err := pages.WriteAll(items); err != nil {
		return err
	}

	if p.config.Output.ManifestFile != "" {
		if err := publish.WriteManifest(filepath.Join(p.dir, p.config.Output.ManifestFile), items); err != nil {
			return err
		}
	}
	return nil
}
