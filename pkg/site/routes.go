package site

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the public site routes. limiter may be nil
// to accept contact messages without a rate limit.
func RegisterRoutesWithGroup(g *echo.Group, siteService *Service, limiter *ContactLimiter) {
	h := &handler{siteService: siteService}

	g.GET("/events", h.events)
	g.GET("/team", h.team)
	if limiter != nil {
		g.POST("/contact", h.contact, limiter.Middleware)
	} else {
		g.POST("/contact", h.contact)
	}
}
