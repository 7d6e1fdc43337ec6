package routes

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/drafts"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/extract"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/indexer"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/metrics"
)

// Extractor is assigned by the api command before the server starts. All
// requests share it, so they also share its circuit breaker.
var Extractor *extract.Extractor

func ExtractRouter(router fiber.Router) {
	router.Post("/", postExtract)
}

func postExtract(c *fiber.Ctx) error {
	if Extractor == nil {
		c.SendStatus(fiber.StatusServiceUnavailable)
		return c.JSON(fiber.Map{
			"error": "Extraction pipeline is not ready",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "A schedule file upload is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Could not read the uploaded file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Could not read the uploaded file",
		})
	}

	result := Extractor.ExtractFile(data, fileHeader.Filename)

	if c.FormValue("strict") == "true" {
		result.EnforceStrict()
	}

	observeExtraction(result)

	response, err := reduceExtractionResult(result)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not marshal extraction result",
		})
	}

	if c.FormValue("save") == "true" && result.Success {
		draft := drafts.NewScheduleDraft(result)
		draft.Report = extract.GenerateQualityReport(result)

		if err := drafts.Save(draft); err != nil {
			log.Error().Err(err).Msg("Failed to save draft")
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Could not save the draft",
			})
		}

		go drafts.SaveTravelTimes(draft)
		indexer.IndexDraft(draft)

		response["draftIdentifier"] = draft.PrimaryIdentifier
	}

	return c.JSON(response)
}

func reduceExtractionResult(result *extract.ExtractionResult) (map[string]interface{}, error) {
	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, result)
	if err != nil {
		return nil, err
	}

	response, ok := reduced.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected marshal shape %T", reduced)
	}

	return response, nil
}

func observeExtraction(result *extract.ExtractionResult) {
	outcome := "failure"
	switch {
	case result.Success:
		outcome = "success"
	case result.Error == extract.ErrCircuitOpen.Error():
		outcome = "rejected"
	}

	metrics.Instance.Extractions.WithLabelValues(outcome).Inc()
	metrics.Instance.ExtractionDuration.Observe(float64(result.Metadata.ProcessingTimeMs) / 1000)

	if result.Data != nil {
		metrics.Instance.ExtractionRows.Add(float64(result.Data.Metadata.ProcessedRows))
	}

	if Extractor.Breaker().Open() {
		metrics.Instance.CircuitOpen.Set(1)
	} else {
		metrics.Instance.CircuitOpen.Set(0)
	}
}
