package users

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the account management routes. The group
// must require authentication.
func RegisterRoutesWithGroup(g *echo.Group, userService *Service) {
	h := &handler{userService: userService}

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.retrieve)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.deactivate)
	g.POST("/:id/reset-password", h.resetPassword)
}
