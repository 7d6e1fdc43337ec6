package routes

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/blocks"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/grid"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/quickadjust"
)

func QuickAdjustRouter(router fiber.Router) {
	router.Post("/", postQuickAdjust)
}

func postQuickAdjust(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "A quick adjust export upload is required",
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

	rows, err := grid.DecodeWorkbook(data, fileHeader.Filename)
	if err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, err := quickadjust.Rebuild(rows.Strings(), blocks.AssignBlocks)
	if err != nil {
		c.SendStatus(fiber.StatusUnprocessableEntity)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, result)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sheriff could not reduce reconstruction",
		})
	}

	return c.JSON(reduced)
}
