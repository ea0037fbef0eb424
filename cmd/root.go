/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"ptfeed/config"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "ptfeed",
		Usage: "Build the PinoyTechFeed RSS feed and article landing pages",
		Description: `Fetches the configured upstream feeds, merges them into one
		ranked and deduplicated list, and writes a static site: an RSS 2.0
		feed, an Atom companion and one landing page per article carrying
		Open Graph metadata for social sharing.

		Upstream failures never fail a build; the affected source simply
		contributes nothing.

		Flags can generally be set via environment variables, e.g.:

		--config => PTF_CONFIG=feeds.toml
		--origin => SITE_ORIGIN=https://example.pages.dev
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config/feeds.toml",
				Usage:   "Path to the feed configuration file. Built-in defaults are used when it does not exist",
				EnvVars: []string{"PTF_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"PTF_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format, text or json",
				EnvVars: []string{"PTF_LOG_FORMAT"},
			},
		},
		Before: func(ctx *cli.Context) error {
			return setupLogging(ctx.String("log-level"), ctx.String("log-format"))
		},
		Commands: []*cli.Command{
			publishCmd(),
			pagesCmd(),
			tidyCmd(),
			sourcesCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

// Execute runs the app until it completes or the process is interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootApp().RunContext(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}

func setupLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(lvl)
	// Standard output is reserved for command results
	log.SetOutput(os.Stderr)

	switch format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

func loadConfig(ctx *cli.Context) (*config.TomlConfig, error) {
	cfg, err := config.LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveOrigin picks the site origin from the flag, the hosting platform or the config
func resolveOrigin(ctx *cli.Context, cfg *config.TomlConfig) string {
	origin := config.ResolveOrigin(ctx.String("origin"), os.LookupEnv, cfg.Site.FallbackOrigin)
	log.WithField("origin", origin).Debug("Resolved site origin")
	return origin
}

func originFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "origin",
		Aliases: []string{"o"},
		Usage:   "Public origin of the site, e.g. https://example.pages.dev. Detected from the hosting platform when unset",
		EnvVars: []string{"SITE_ORIGIN"},
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"d"},
		Usage:   "Output directory, overrides output.dir from the config",
		EnvVars: []string{"PTF_OUTPUT"},
	}
}
