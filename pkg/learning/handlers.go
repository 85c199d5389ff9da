package learning

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	learningService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	modules, err := h.learningService.ListModules(ctx)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, ListModulesResponse{Modules: modules}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	module, err := h.learningService.RetrieveModule(ctx, RetrieveModuleOptions{ID: &id})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, module))
}
