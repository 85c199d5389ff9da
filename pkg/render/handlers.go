package render

import (
	"bytes"
	"net/http"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/dacweb/dac/pkg/learning"
	"github.com/dacweb/dac/pkg/progress"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	learningService *learning.Service
	registry        *progress.Registry
}

func (h *handler) learn(c echo.Context) error {
	ctx := c.Request().Context()

	var buf bytes.Buffer

	modules, err := h.learningService.ListModules(ctx)
	if err != nil {
		var cerr *errcodes.Error
		if !errors.As(err, &cerr) {
			return errors.WithStack(err)
		}
		if err := ErrorPage(&buf, cerr.Message); err != nil {
			return err
		}
		return errors.WithStack(c.HTMLBlob(cerr.HTTPCode, buf.Bytes()))
	}

	tracker, release := h.registry.Acquire(ctx, progress.DeviceID(c))
	defer release()

	views := BuildModules(modules, tracker, ParseUIState(c.QueryParams()))
	if err := Page(&buf, views); err != nil {
		return err
	}

	return errors.WithStack(c.HTMLBlob(http.StatusOK, buf.Bytes()))
}
