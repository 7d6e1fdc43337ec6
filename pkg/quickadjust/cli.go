package quickadjust

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/blocks"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/grid"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "quickadjust",
		Usage: "Rebuild a full schedule from a quick adjust export",
		Subcommands: []*cli.Command{
			{
				Name:  "rebuild",
				Usage: "reconstruct trips, durations and blocks from an export",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "path",
						Usage:    "path of the quick adjust export",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "write the reconstruction to this path as JSON",
					},
				},
				Action: rebuildAction,
			},
		},
	}
}

func rebuildAction(c *cli.Context) error {
	path := c.String("path")

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rows, err := grid.DecodeWorkbook(data, filepath.Base(path))
	if err != nil {
		return err
	}

	result, err := Rebuild(rows.Strings(), blocks.AssignBlocks)
	if err != nil {
		return err
	}

	fmt.Printf("timepoints  %d\n", len(result.TimePoints))
	if result.IsLoopRoute {
		fmt.Printf("loop route\n")
	}
	for _, dayType := range schedule.AllDayTypes() {
		trips := result.Trips[dayType]
		if len(trips) == 0 {
			continue
		}

		fmt.Printf("%-10s %d trips\n", dayType, len(trips))
	}

	for _, warning := range result.Warnings {
		log.Warn().Msg(warning)
	}

	if outPath := c.String("out"); outPath != "" {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, encoded, 0644); err != nil {
			return err
		}

		log.Info().Str("path", outPath).Msg("Wrote reconstruction")
	}

	return nil
}
