package testutils

import (
	"io"
	"net/http"

	"github.com/dacweb/dac/pkg/auth"
	"github.com/dacweb/dac/pkg/contentsync"
	"github.com/dacweb/dac/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db          *bun.DB
	syncService *contentsync.Service
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// createUserResponse is the response body for creating a test user.
type createUserResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// createUser creates an active admin user.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		IsActive:     true,
	}
	_, err = h.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	return c.JSON(http.StatusCreated, createUserResponse{
		ID:    user.ID,
		Email: user.Email,
	})
}

// deletedResponse reports how many rows a reset removed.
type deletedResponse struct {
	Deleted int `json:"deleted"`
}

// deleteAllUsers deletes all users from the database.
// DELETE /test/users.
func (h *handler) deleteAllUsers(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.db.NewDelete().
		Model((*models.User)(nil)).
		Where("1=1").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to delete users")
	}

	deleted, _ := result.RowsAffected()

	return c.JSON(http.StatusOK, deletedResponse{
		Deleted: int(deleted),
	})
}

// seedContent replaces all modules and chapters with the posted document.
// POST /test/content.
func (h *handler) seedContent(c echo.Context) error {
	ctx := c.Request().Context()

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, contentsync.MaxDocumentSize))
	if err != nil {
		return errors.WithStack(err)
	}
	doc, err := contentsync.Validate(raw)
	if err != nil {
		return err
	}

	res, err := h.syncService.Replace(ctx, doc)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, res)
}

// deleteAllProgress clears stored progress for every device.
// DELETE /test/progress.
func (h *handler) deleteAllProgress(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.db.NewDelete().
		Model((*models.ProgressBlob)(nil)).
		Where("1=1").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to delete progress")
	}

	deleted, _ := result.RowsAffected()

	return c.JSON(http.StatusOK, deletedResponse{
		Deleted: int(deleted),
	})
}
