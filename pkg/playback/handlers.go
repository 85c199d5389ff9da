package playback

import (
	"net/http"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/dacweb/dac/pkg/learning"
	"github.com/dacweb/dac/pkg/progress"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	manager         *Manager
	learningService *learning.Service
}

func (h *handler) respond(c echo.Context, status int, s *Session) error {
	return errors.WithStack(c.JSON(status, SessionResponse{
		ID:       s.ID,
		Snapshot: s.Controller.Snapshot(),
		Commands: s.TakeCommands(),
	}))
}

func (h *handler) session(c echo.Context) (*Session, error) {
	s, err := h.manager.Get(c.Param("id"), progress.DeviceID(c))
	if err != nil {
		return nil, errcodes.NotFound("Playback session")
	}
	return s, nil
}

func (h *handler) open(c echo.Context) error {
	ctx := c.Request().Context()

	params := OpenPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	module, err := h.learningService.RetrieveModule(ctx, learning.RetrieveModuleOptions{
		ChapterID: &params.ChapterID,
	})
	if err != nil {
		return err
	}

	s, err := h.manager.Open(ctx, progress.DeviceID(c), module, params.ChapterID)
	if err != nil {
		if errors.Is(err, ErrChapterNotFound) {
			return errcodes.NotFound("Chapter")
		}
		return errors.WithStack(err)
	}

	return h.respond(c, http.StatusCreated, s)
}

func (h *handler) retrieve(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, s)
}

func (h *handler) event(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	params := EventPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	ev := WidgetEvent{ChapterID: params.ChapterID, Type: params.Type, Code: params.Code}
	if params.Type == "state" {
		ev.State = WidgetState(params.State)
		if params.StateCode != nil {
			var ok bool
			if ev.State, ok = WidgetStateFromCode(*params.StateCode); !ok {
				return errcodes.ValidationError("Unknown widget state code.")
			}
		}
		if ev.State == "" {
			return errcodes.ValidationError("A state event needs a state or state_code.")
		}
	}

	// Signals from a widget the session has already moved past are
	// acknowledged and ignored.
	if params.Position != nil {
		s.ReportPosition(params.ChapterID, *params.Position)
	}
	s.Controller.HandleEvent(ev)

	return h.respond(c, http.StatusOK, s)
}

func (h *handler) next(c echo.Context) error {
	return h.step(c, (*Controller).Next, "There is no next chapter in this module.")
}

func (h *handler) previous(c echo.Context) error {
	return h.step(c, (*Controller).Previous, "There is no previous chapter in this module.")
}

func (h *handler) step(c echo.Context, move func(*Controller) error, noChapterMsg string) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	if err := move(s.Controller); err != nil {
		switch {
		case errors.Is(err, ErrNoChapter):
			return errcodes.ValidationError(noChapterMsg)
		case errors.Is(err, ErrInvalidVideoID):
			// The snapshot carries the error for the viewer.
		default:
			return errors.WithStack(err)
		}
	}

	return h.respond(c, http.StatusOK, s)
}

func (h *handler) close(c echo.Context) error {
	cmds, err := h.manager.Close(c.Param("id"), progress.DeviceID(c))
	if err != nil {
		return errcodes.NotFound("Playback session")
	}
	return errors.WithStack(c.JSON(http.StatusOK, map[string]interface{}{
		"state":    StateIdle,
		"commands": cmds,
	}))
}
