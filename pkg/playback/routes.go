package playback

import (
	"github.com/dacweb/dac/pkg/learning"
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers playback session routes. The group must
// run progress.DeviceMiddleware.
func RegisterRoutesWithGroup(g *echo.Group, manager *Manager, learningService *learning.Service) {
	h := &handler{
		manager:         manager,
		learningService: learningService,
	}

	g.POST("", h.open)
	g.GET("/:id", h.retrieve)
	g.POST("/:id/events", h.event)
	g.POST("/:id/next", h.next)
	g.POST("/:id/previous", h.previous)
	g.DELETE("/:id", h.close)
}
