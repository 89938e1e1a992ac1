package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/nextstop/nextstop/pkg/assembler"
	"github.com/nextstop/nextstop/pkg/feeds"
	"github.com/nextstop/nextstop/pkg/livestream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server carries the handles every route needs. Built once at startup,
// nothing global.
type Server struct {
	Registry  *feeds.Registry
	Federator *feeds.Federator
	Assembler *assembler.Assembler
	Live      *livestream.Engine
}

func (s *Server) SetupServer(listen string) error {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	webApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	group := webApp.Group("/core")

	group.Get("/version", apiVersion)

	group.Get("/schedule/:pairs", s.getSchedule)

	group.Get("/stops", s.listStops)
	group.Get("/stops/:identifier", s.getStop)
	group.Get("/stops/:identifier/routes", s.getStopRoutes)

	group.Get("/bounds", s.getBounds)

	group.Use("/live", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	group.Get("/live", websocket.New(s.handleLive))

	return webApp.Listen(listen)
}

func apiVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": "1",
	})
}
