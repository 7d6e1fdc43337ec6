package serviceband

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "serviceband",
		Usage: "Group trip duration distributions into service bands",
		Subcommands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "derive service bands from a time period CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "path",
						Usage:    "path of the time period distribution CSV",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "segments",
						Usage: "optional per-segment travel time CSV for the band breakdown",
					},
					&cli.IntSliceFlag{
						Name:  "exclude",
						Usage: "period indices to drop from the analysis",
					},
				},
				Action: analyzeAction,
			},
		},
	}
}

func analyzeAction(c *cli.Context) error {
	file, err := os.Open(c.String("path"))
	if err != nil {
		return err
	}
	defer file.Close()

	periods, err := LoadTimePeriods(file)
	if err != nil {
		return err
	}

	analyzer := NewAnalyzer(periods)

	for _, index := range c.IntSlice("exclude") {
		if err := analyzer.RemoveOutlier(index); err != nil {
			return err
		}
	}

	if segmentsPath := c.String("segments"); segmentsPath != "" {
		segmentsFile, err := os.Open(segmentsPath)
		if err != nil {
			return err
		}
		defer segmentsFile.Close()

		observations, err := LoadSegmentObservations(segmentsFile)
		if err != nil {
			return err
		}

		analyzer.AttachSegments(observations)
	}

	result := analyzer.ComputeBands()

	fmt.Printf("thresholds  p25=%.1f  p50=%.1f  p75=%.1f\n\n",
		result.Thresholds.Percentile25,
		result.Thresholds.Percentile50,
		result.Thresholds.Percentile75,
	)

	for bandIndex, band := range result.Bands {
		members := result.TimeGroups[bandIndex]
		if len(members) == 0 {
			continue
		}

		fmt.Printf("%s (avg %.1f min)\n", band.Name, band.AvgDuration)
		for _, index := range members {
			period := periods[index]
			fmt.Printf("  [%d] %s  %s  p50=%.1f\n", index, period.Label, period.StartTime, period.Median())
		}
	}

	outliers := analyzer.DetectOutliers()
	if len(outliers) > 0 {
		fmt.Printf("\npossible outliers\n")
		for _, outlier := range outliers {
			fmt.Printf("  [%d] %s  %.1f min  %s\n", outlier.Index, outlier.TimePeriod, outlier.Duration, outlier.OutlierReason)
		}
	}

	breakdown := analyzer.SegmentBreakdown(result)
	for _, band := range result.Bands {
		segments := breakdown[band.Name]
		if len(segments) == 0 {
			continue
		}

		fmt.Printf("\n%s segment averages\n", band.Name)
		for _, segment := range segments {
			fmt.Printf("  %s -> %s  %.1f min over %d trips\n",
				segment.FromTimePoint, segment.ToTimePoint, segment.AvgMinutes, segment.Observations)
		}
	}

	return nil
}
