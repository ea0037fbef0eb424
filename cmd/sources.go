/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"ptfeed/config"
)

func sourcesCmd() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "List the configured sources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "category",
				Usage: "Only list sources of this category",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			sources := cfg.Sources
			if category := ctx.String("category"); category != "" {
				sources = lo.Filter(sources, func(src config.TomlSource, _ int) bool {
					return strings.EqualFold(src.Category, category)
				})
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TAG\tLABEL\tCATEGORY\tURL")
			for _, src := range sources {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", src.Tag, src.Label, src.Category, src.URL)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			counts := lo.CountValuesBy(sources, func(src config.TomlSource) string { return src.Category })
			fmt.Printf("\n%d sources in %d categories\n", len(sources), len(counts))
			return nil
		},
	}
}
