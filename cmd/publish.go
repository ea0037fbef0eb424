/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"ptfeed/fetch"
	"ptfeed/metrics"
	"ptfeed/pipeline"
)

// publishCmd rebuilds the whole site from the upstream sources
func publishCmd() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Fetch all sources and write the feed and landing pages",
		Description: `Runs a full build:

Fetches every configured source in parallel, merges and ranks the items,
assigns each one a permanent slug and writes feed.xml, atom.xml, one page
per item under the pages directory and the map.json manifest.

Pages of items that dropped out of the feed are kept unless --prune is given.`,
		Flags: []cli.Flag{
			originFlag(),
			outputFlag(),
			&cli.IntFlag{
				Name:    "max-items",
				Usage:   "Maximum number of items in the feed, overrides max_items from the config",
				EnvVars: []string{"PTF_MAX_ITEMS"},
			},
			&cli.BoolFlag{
				Name:    "prune",
				Usage:   "Remove pages of items no longer in the feed",
				EnvVars: []string{"PTF_PRUNE"},
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "Write run metrics to this file in the Prometheus text format",
				EnvVars: []string{"PTF_METRICS_FILE"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			timeout, err := cfg.FetchTimeout()
			if err != nil {
				return err
			}
			fetcher := fetch.NewHTTPFetcher(fetch.Config{
				Timeout:   timeout,
				UserAgent: cfg.Fetch.UserAgent,
			})

			p := pipeline.New(pipeline.Options{
				Config:    cfg,
				Origin:    resolveOrigin(ctx, cfg),
				OutputDir: ctx.String("output"),
				MaxItems:  ctx.Int("max-items"),
				Prune:     ctx.Bool("prune"),
			}, fetcher)

			result, err := p.Run(ctx.Context)
			if err != nil {
				return fmt.Errorf("build failed: %w", err)
			}

			for _, rep := range result.Failed() {
				log.WithFields(log.Fields{
					"tag": rep.Source.Tag,
					"url": rep.Source.URL,
				}).Warnf("Source contributed no items: %v", rep.Err)
			}

			if path := ctx.String("metrics-file"); path != "" {
				if err := metrics.Write(path); err != nil {
					return err
				}
			}

			fmt.Printf("Wrote %d items to %s (%d sources failed, %d pages pruned)\n",
				len(result.Items), p.FeedPath(), len(result.Failed()), len(result.Pruned))
			return nil
		},
	}
}

// pagesCmd regenerates the landing pages from an existing feed document
func pagesCmd() *cli.Command {
	return &cli.Command{
		Name:  "pages",
		Usage: "Regenerate landing pages from the existing feed",
		Description: `Reads the feed document written by a previous publish and writes
the landing pages and manifest again without fetching any source.

Fails when the feed document does not exist.`,
		Flags: []cli.Flag{
			originFlag(),
			outputFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			p := pipeline.New(pipeline.Options{
				Config:    cfg,
				Origin:    resolveOrigin(ctx, cfg),
				OutputDir: ctx.String("output"),
			}, nil)

			items, err := p.RebuildPages()
			if err != nil {
				return err
			}

			fmt.Printf("Wrote %d pages to %s\n", len(items), p.PagesDir())
			return nil
		},
	}
}
