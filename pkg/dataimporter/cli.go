package dataimporter

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"resty.dev/v3"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/config"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/database"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/drafts"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/elastic_client"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/extract"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/indexer"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/transforms"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract schedule data from raw workbook exports",
		Subcommands: []*cli.Command{
			{
				Name:  "file",
				Usage: "Run the extraction pipeline over a single file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Path of the workbook or CSV to extract",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Download the workbook from a URL instead of reading a local file",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Store the result as a schedule draft",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write a markdown quality report to this path",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Dump the parsed schedule to stdout",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Treat critical validation issues as extraction failure",
					},
				},
				Action: extractFile,
			},
		},
	}
}

func extractFile(c *cli.Context) error {
	if err := config.Load(); err != nil {
		return err
	}

	path := c.String("path")
	if source := c.String("url"); source != "" {
		downloaded, err := downloadWorkbook(source)
		if err != nil {
			return err
		}
		defer os.Remove(downloaded)

		path = downloaded
	}
	if path == "" {
		return errors.New("one of --path or --url is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	engine, err := transforms.LoadEngine(config.Config.Transforms.File)
	if err != nil {
		return err
	}

	options := config.Config.ExtractorOptions()
	options.Transform = engine.Apply

	extractor := extract.NewExtractor(options)

	result := extractor.ExtractFile(data, filepath.Base(path))
	if c.Bool("strict") {
		result.EnforceStrict()
	}

	logExtractionSummary(result)

	if c.Bool("pretty") && result.Data != nil {
		pretty.Println(result.Data)
	}

	if reportPath := c.String("report"); reportPath != "" {
		report := extract.GenerateQualityReport(result)
		if err := os.WriteFile(reportPath, []byte(report), 0644); err != nil {
			return err
		}

		log.Info().Str("path", reportPath).Msg("Wrote quality report")
	}

	if c.Bool("save") {
		if !result.Success {
			return errors.New("refusing to store a failed extraction as a draft")
		}

		if err := database.Connect(); err != nil {
			return err
		}
		if err := elastic_client.Connect(false); err != nil {
			return err
		}

		draft := drafts.NewScheduleDraft(result)
		draft.Report = extract.GenerateQualityReport(result)

		if err := drafts.Save(draft); err != nil {
			return err
		}
		drafts.SaveTravelTimes(draft)
		indexer.IndexDraft(draft)
		elastic_client.WaitUntilQueueEmpty()

		log.Info().Str("identifier", draft.PrimaryIdentifier).Msg("Stored schedule draft")
	}

	if !result.Success {
		return fmt.Errorf("extraction failed: %s", result.Error)
	}

	return nil
}

func logExtractionSummary(result *extract.ExtractionResult) {
	if !result.Success {
		log.Error().
			Str("file", result.Metadata.FileName).
			Str("error", result.Error).
			Msg("Extraction failed")
		return
	}

	event := log.Info().
		Str("file", result.Metadata.FileName).
		Int("confidence", result.Data.Format.Confidence).
		Int("timepoints", len(result.Data.TimePoints)).
		Int("traveltimes", len(result.Data.TravelTimes)).
		Int("skippedrows", result.Data.Metadata.SkippedRows).
		Int64("durationms", result.Metadata.ProcessingTimeMs)

	if result.Validation != nil {
		event = event.
			Bool("valid", result.Validation.IsValid).
			Int("errors", len(result.Validation.Errors)).
			Int("warnings", len(result.Validation.Warnings))
	}

	event.Msg("Extraction finished")
}

// downloadWorkbook fetches a remote export into a temp file, keeping the URL's
// extension so format detection still works on the result.
func downloadWorkbook(source string) (string, error) {
	log.Info().Str("url", source).Msg("Downloading workbook")

	parsed, err := url.Parse(source)
	if err != nil {
		return "", err
	}

	client := resty.New()
	defer client.Close()

	response, err := client.R().Get(source)
	if err != nil {
		return "", err
	}
	if response.IsError() {
		return "", fmt.Errorf("failed to download workbook: %s", response.Status())
	}
	defer response.Body.Close()

	file, err := os.CreateTemp("", "busscheduler-*"+filepath.Ext(parsed.Path))
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, response.Body); err != nil {
		os.Remove(file.Name())
		return "", err
	}

	return file.Name(), nil
}
