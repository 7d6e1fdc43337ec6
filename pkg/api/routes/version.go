package routes

import "github.com/gofiber/fiber/v2"

// Version is the reported API version. Bump on breaking response changes.
const Version = "v0.1"

func APIVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "busscheduler",
		"version": Version,
	})
}
