package users

import (
	"net/http"
	"strconv"

	"github.com/dacweb/dac/pkg/auth"
	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	userService *Service
}

func userID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("User")
	}
	return id, nil
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Create(ctx, CreateUserOptions(params))
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("created user", logger.Data{"user_id": user.ID, "by": currentUserID(c)})
	return errors.WithStack(c.JSON(http.StatusCreated, user))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListUsersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	users, total, err := h.userService.List(ctx, ListOptions(params))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, ListUsersResponse{Users: users, Total: total}))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := userID(c)
	if err != nil {
		return err
	}

	params := UpdateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if params.IsActive != nil && !*params.IsActive && id == currentUserID(c) {
		return errcodes.ValidationError("You cannot deactivate your own account.")
	}

	user, err := h.userService.Update(ctx, id, UpdateOptions(params))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) resetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := userID(c)
	if err != nil {
		return err
	}

	params := ResetPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Resetting your own password needs the old one.
	if id == currentUserID(c) {
		if params.CurrentPassword == nil || *params.CurrentPassword == "" {
			return errcodes.ValidationError("Current password is required when resetting your own password.")
		}
		valid, err := h.userService.VerifyPassword(ctx, id, *params.CurrentPassword)
		if err != nil {
			return err
		}
		if !valid {
			return errcodes.ValidationError("Current password is incorrect.")
		}
	}

	err = h.userService.ResetPassword(ctx, id, params.NewPassword)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("reset password", logger.Data{"user_id": id, "by": currentUserID(c)})
	return errors.WithStack(c.JSON(http.StatusOK, MessageResponse{Message: "Password reset successfully"}))
}

func (h *handler) deactivate(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := userID(c)
	if err != nil {
		return err
	}

	if id == currentUserID(c) {
		return errcodes.ValidationError("You cannot deactivate your own account.")
	}

	err = h.userService.Deactivate(ctx, id)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("deactivated user", logger.Data{"user_id": id, "by": currentUserID(c)})
	return errors.WithStack(c.JSON(http.StatusOK, MessageResponse{Message: "User deactivated successfully"}))
}

func currentUserID(c echo.Context) int {
	if user := auth.GetUserFromContext(c); user != nil {
		return user.ID
	}
	return 0
}
