/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"ptfeed/pipeline"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Remove landing pages no longer in the feed",
		Description: `Tidy up the pages directory by removing pages that are orphaned.

		A page is orphaned when its slug is not referenced by the current
		feed document. Publish keeps orphans so shared links keep working;
		run this when they should go.`,
		Flags: []cli.Flag{
			outputFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			p := pipeline.New(pipeline.Options{
				Config:    cfg,
				OutputDir: ctx.String("output"),
			}, nil)

			removed, err := p.Tidy()
			if err != nil {
				return err
			}

			for _, name := range removed {
				fmt.Println("Removed", name)
			}
			fmt.Printf("Removed %d orphaned pages from %s\n", len(removed), p.PagesDir())
			return nil
		},
	}
}
