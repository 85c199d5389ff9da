// Package testutils provides test-only API endpoints.
// These routes are only registered when enable_test_routes is set.
package testutils

import (
	"github.com/dacweb/dac/pkg/contentsync"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers test-only routes.
// These endpoints should ONLY be registered in test environments.
func RegisterRoutes(e *echo.Echo, db *bun.DB, syncService *contentsync.Service) {
	h := &handler{db: db, syncService: syncService}

	test := e.Group("/test")
	test.POST("/users", h.createUser)
	test.DELETE("/users", h.deleteAllUsers)

	// Learning content and progress fixtures
	test.POST("/content", h.seedContent)
	test.DELETE("/progress", h.deleteAllProgress)
}
