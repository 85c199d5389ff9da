package contentsync

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the sync routes. The group must require
// authentication.
func RegisterRoutesWithGroup(g *echo.Group, syncService *Service) {
	h := &handler{syncService: syncService}

	g.POST("", h.upload)
	g.POST("/validate", h.validate)
	g.POST("/format", h.format)
	g.GET("/export", h.export)
}
