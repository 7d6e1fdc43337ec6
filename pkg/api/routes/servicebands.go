package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/schedule"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/serviceband"
)

func ServiceBandsRouter(router fiber.Router) {
	router.Post("/", postServiceBands)
}

type manualAssignment struct {
	Index int
	Band  int
}

type serviceBandsRequest struct {
	Periods  []serviceband.TimePeriod
	Segments []serviceband.SegmentObservation

	Excluded []int
	Reviewed []int
	Manual   []manualAssignment
}

type serviceBandsAnalysis struct {
	Bands            []schedule.ServiceBand                  `groups:"basic"`
	TimeGroups       [][]int                                 `groups:"basic"`
	Thresholds       serviceband.Thresholds                  `groups:"basic"`
	Outliers         []serviceband.OutlierInfo               `groups:"basic"`
	SegmentBreakdown map[string][]serviceband.SegmentAverage `groups:"basic"`
}

// postServiceBands runs a full band analysis in one shot. The caller sends the
// period distribution along with any review decisions made so far, and gets
// back the resulting bands plus whatever the detectors still flag.
func postServiceBands(c *fiber.Ctx) error {
	var request serviceBandsRequest
	if err := c.BodyParser(&request); err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Could not parse analysis request",
		})
	}

	if len(request.Periods) == 0 {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "At least one time period is required",
		})
	}

	analyzer := serviceband.NewAnalyzer(request.Periods)

	for _, index := range request.Excluded {
		if err := analyzer.RemoveOutlier(index); err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}
	for _, index := range request.Reviewed {
		if err := analyzer.KeepOutlier(index); err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}
	for _, assignment := range request.Manual {
		if err := analyzer.SetManualAssignment(assignment.Index, assignment.Band); err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	if len(request.Segments) > 0 {
		analyzer.AttachSegments(request.Segments)
	}

	result := analyzer.ComputeBands()

	analysis := serviceBandsAnalysis{
		Bands:            result.Bands,
		TimeGroups:       result.TimeGroups,
		Thresholds:       result.Thresholds,
		Outliers:         analyzer.DetectOutliers(),
		SegmentBreakdown: analyzer.SegmentBreakdown(result),
	}

	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, analysis)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sheriff could not reduce analysis",
		})
	}

	return c.JSON(reduced)
}
