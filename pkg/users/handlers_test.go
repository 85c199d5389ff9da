package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/dacweb/dac/pkg/auth"
	"github.com/dacweb/dac/pkg/binder"
	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/dacweb/dac/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsersTestContext(t *testing.T, method, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func asUser(c echo.Context, user *models.User, id int) {
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(id))
	c.Set(auth.ContextKeyUserID, user.ID)
	c.Set(auth.ContextKeyUser, user)
}

func TestHandlerResetPassword_SelfRequiresCurrentPassword(t *testing.T) {
	t.Parallel()

	h := &handler{userService: NewService(newTestDB(t))}
	ctx := context.Background()

	user, err := h.userService.Create(ctx, CreateUserOptions{Email: "self@dac.test", Password: "password123"})
	require.NoError(t, err)

	c, _ := newUsersTestContext(t, http.MethodPost, `{"new_password":"newpassword123"}`)
	asUser(c, user, user.ID)
	err = h.resetPassword(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Current password is required")

	c, _ = newUsersTestContext(t, http.MethodPost, `{"current_password":"wrong","new_password":"newpassword123"}`)
	asUser(c, user, user.ID)
	err = h.resetPassword(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect")

	c, rr := newUsersTestContext(t, http.MethodPost, `{"current_password":"password123","new_password":"newpassword123"}`)
	asUser(c, user, user.ID)
	require.NoError(t, h.resetPassword(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	valid, err := h.userService.VerifyPassword(ctx, user.ID, "newpassword123")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestHandlerResetPassword_OtherUser(t *testing.T) {
	t.Parallel()

	h := &handler{userService: NewService(newTestDB(t))}
	ctx := context.Background()

	admin, err := h.userService.Create(ctx, CreateUserOptions{Email: "admin@dac.test", Password: "password123"})
	require.NoError(t, err)
	other, err := h.userService.Create(ctx, CreateUserOptions{Email: "other@dac.test", Password: "password123"})
	require.NoError(t, err)

	c, rr := newUsersTestContext(t, http.MethodPost, `{"new_password":"newpassword123"}`)
	asUser(c, admin, other.ID)
	require.NoError(t, h.resetPassword(c))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandlerDeactivate_RejectsSelf(t *testing.T) {
	t.Parallel()

	h := &handler{userService: NewService(newTestDB(t))}
	ctx := context.Background()

	admin, err := h.userService.Create(ctx, CreateUserOptions{Email: "admin@dac.test", Password: "password123"})
	require.NoError(t, err)
	other, err := h.userService.Create(ctx, CreateUserOptions{Email: "other@dac.test", Password: "password123"})
	require.NoError(t, err)

	c, _ := newUsersTestContext(t, http.MethodDelete, "")
	asUser(c, admin, admin.ID)
	err = h.deactivate(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot deactivate your own account")

	c, rr := newUsersTestContext(t, http.MethodDelete, "")
	asUser(c, admin, other.ID)
	require.NoError(t, h.deactivate(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	deactivated, err := h.userService.Retrieve(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
}

func TestHandlerCreate_ValidatesPayload(t *testing.T) {
	t.Parallel()

	h := &handler{userService: NewService(newTestDB(t))}

	c, _ := newUsersTestContext(t, http.MethodPost, `{"email":"not-an-email","password":"short"}`)
	err := h.create(c)
	require.Error(t, err)

	c, rr := newUsersTestContext(t, http.MethodPost, `{"email":"new@dac.test","password":"password123"}`)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"email":"new@dac.test"`)
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestHandlerRetrieve_BadID(t *testing.T) {
	t.Parallel()

	h := &handler{userService: NewService(newTestDB(t))}

	c, _ := newUsersTestContext(t, http.MethodGet, "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	err := h.retrieve(c)
	require.Error(t, err)
	assert.Equal(t, "User not found.", err.Error())
}
