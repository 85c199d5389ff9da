package editor

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the editor routes. The group must require
// authentication.
func RegisterRoutesWithGroup(g *echo.Group, editorService *Service) {
	h := &handler{editorService: editorService}

	g.GET("", h.listTables)
	g.GET("/:table/form", h.newForm)
	g.GET("/:table/records", h.listRecords)
	g.POST("/:table/records", h.create)
	g.GET("/:table/records/:id", h.retrieve)
	g.PATCH("/:table/records/:id", h.update)
	g.DELETE("/:table/records/:id", h.delete)
}
