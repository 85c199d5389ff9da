package progress

import (
	"net/http"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	registry *Registry
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	tracker, release := h.registry.Acquire(ctx, DeviceID(c))
	defer release()

	entries := tracker.Snapshot()
	statuses := make(map[string]Status, len(entries))
	for id, e := range entries {
		statuses[id] = StatusOf(e)
	}

	return errors.WithStack(c.JSON(http.StatusOK, ListResponse{
		StorageKey: StorageKey,
		Entries:    entries,
		Statuses:   statuses,
	}))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	chapterID := c.Param("chapterId")

	params := UpdatePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	tracker, release := h.registry.Acquire(ctx, DeviceID(c))
	defer release()

	entry, err := tracker.Update(ctx, chapterID, params.Position, params.Duration)
	if err != nil {
		if errors.Is(err, ErrInvalidPosition) {
			return errcodes.ValidationError("Position must be a non-negative number.")
		}
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, ChapterProgress{
		Entry:   entry,
		Status:  StatusOf(entry),
		Percent: tracker.Percent(chapterID, params.Duration),
	}))
}
