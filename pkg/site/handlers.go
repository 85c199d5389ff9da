package site

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	siteService *Service
}

func (h *handler) events(c echo.Context) error {
	events, err := h.siteService.ListEvents(c.Request().Context())
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, EventsResponse{Events: events}))
}

func (h *handler) team(c echo.Context) error {
	members, err := h.siteService.ListTeam(c.Request().Context())
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, TeamResponse{Members: members}))
}

func (h *handler) contact(c echo.Context) error {
	ctx := c.Request().Context()

	params := ContactPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	msg, err := h.siteService.SubmitContact(ctx, params.Name, params.Email, params.Message)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("contact message received", logger.Data{"id": msg.ID})

	return errors.WithStack(c.JSON(http.StatusCreated, map[string]string{
		"message": "Thank you for your message! We'll get back to you soon.",
	}))
}
