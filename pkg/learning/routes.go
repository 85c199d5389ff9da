package learning

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the module read routes on a pre-configured
// group.
func RegisterRoutesWithGroup(g *echo.Group, learningService *Service) {
	h := &handler{learningService: learningService}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
}
