package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/drafts"
)

func DraftsRouter(router fiber.Router) {
	router.Get("/", listDrafts)
	router.Get("/:identifier", getDraft)
	router.Get("/:identifier/report", getDraftReport)
	router.Delete("/:identifier", deleteDraft)
}

func listDrafts(c *fiber.Ctx) error {
	limit, err := strconv.ParseInt(c.Query("limit", "25"), 10, 64)
	if err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Parameter limit should be an integer",
		})
	}

	saved, err := drafts.List(limit)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not list drafts",
		})
	}

	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, saved)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sheriff could not reduce drafts",
		})
	}

	return c.JSON(reduced)
}

func getDraft(c *fiber.Ctx) error {
	identifier := c.Params("identifier")

	groups := []string{"basic"}
	cacheKey := fmt.Sprintf("draft:%s:basic", identifier)
	if c.Query("detailed") == "true" {
		groups = []string{"basic", "detailed"}
		cacheKey = fmt.Sprintf("draft:%s:detailed", identifier)
	}

	if cached, ok := cacheGet(cacheKey); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	draft, err := drafts.GetByIdentifier(identifier)
	if errors.Is(err, drafts.ErrNotFound) {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Draft matching Draft Identifier",
		})
	}
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not load draft",
		})
	}

	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, draft)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sheriff could not reduce draft",
		})
	}

	body, err := json.Marshal(reduced)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not marshal draft",
		})
	}

	cacheSet(cacheKey, string(body))

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func getDraftReport(c *fiber.Ctx) error {
	draft, err := drafts.GetByIdentifier(c.Params("identifier"))
	if errors.Is(err, drafts.ErrNotFound) {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Draft matching Draft Identifier",
		})
	}
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not load draft",
		})
	}

	if draft.Report == "" {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "No report stored for this draft",
		})
	}

	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	return c.SendString(draft.Report)
}

func deleteDraft(c *fiber.Ctx) error {
	identifier := c.Params("identifier")

	err := drafts.Delete(identifier)
	if errors.Is(err, drafts.ErrNotFound) {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Draft matching Draft Identifier",
		})
	}
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not delete draft",
		})
	}

	if err := drafts.DeleteTravelTimes(identifier); err != nil {
		log.Error().Err(err).Str("id", identifier).Msg("Failed to delete travel time records")
	}

	cacheInvalidate(
		fmt.Sprintf("draft:%s:basic", identifier),
		fmt.Sprintf("draft:%s:detailed", identifier),
	)

	return c.JSON(fiber.Map{
		"deleted": identifier,
	})
}
