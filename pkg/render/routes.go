package render

import (
	"github.com/dacweb/dac/pkg/learning"
	"github.com/dacweb/dac/pkg/progress"
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the learning page. The group must run
// progress.DeviceMiddleware.
func RegisterRoutesWithGroup(g *echo.Group, learningService *learning.Service, registry *progress.Registry) {
	h := &handler{learningService: learningService, registry: registry}

	g.GET("", h.learn)
}
