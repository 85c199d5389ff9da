package progress

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers progress routes. The group must run
// DeviceMiddleware.
func RegisterRoutesWithGroup(g *echo.Group, registry *Registry) {
	h := &handler{registry: registry}

	g.GET("", h.list)
	g.PUT("/:chapterId", h.update)
}
