package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/api/routes"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/metrics"
)

// BuildApp assembles the fiber application. Split from SetupServer so tests
// can drive routes without binding a listener.
func BuildApp() *fiber.App {
	webApp := fiber.New(fiber.Config{
		// Workbook uploads beyond this are rejected before any parsing.
		BodyLimit: 5 * 1024 * 1024,
	})
	webApp.Use(NewLogger())
	webApp.Use(newMetricsMiddleware())

	group := webApp.Group("/core")

	group.Get("version", routes.APIVersion)

	routes.ExtractRouter(group.Group("/extract"))
	routes.DraftsRouter(group.Group("/drafts"))
	routes.QuickAdjustRouter(group.Group("/quickadjust"))
	routes.ServiceBandsRouter(group.Group("/servicebands"))

	return webApp
}

func SetupServer(listen string) error {
	return BuildApp().Listen(listen)
}

func newMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		metrics.Instance.APIRequests.
			WithLabelValues(c.Method(), strconv.Itoa(c.Response().StatusCode())).
			Inc()

		return err
	}
}
