package errcodes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, err error, method, path, accept string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.HTTPErrorHandler = NewHandler().Handle
	e.Any("/*", func(echo.Context) error { return err })

	req := httptest.NewRequest(method, path, nil)
	if accept != "" {
		req.Header.Set(echo.HeaderAccept, accept)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandle_JSON(t *testing.T) {
	t.Parallel()

	rec := serve(t, errors.WithStack(NotFound("Chapter")), http.MethodGet, "/api/modules/x", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	resp := ErrorResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ErrorBody{Code: "not_found", Message: "Chapter not found.", StatusCode: 404}, resp.Error)
}

func TestHandle_InternalError(t *testing.T) {
	t.Parallel()

	rec := serve(t, errors.New("boom"), http.MethodGet, "/api/modules", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"internal_server_error"`)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHandle_EchoError(t *testing.T) {
	t.Parallel()

	rec := serve(t, echo.ErrMethodNotAllowed, http.MethodGet, "/api/modules", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `"method_not_allowed"`)
}

func TestHandle_TooManyRequests(t *testing.T) {
	t.Parallel()

	rec := serve(t, TooManyRequests("Slow down."), http.MethodPost, "/api/contact", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestHandle_HTMLForPages(t *testing.T) {
	t.Parallel()

	rec := serve(t, ServiceUnavailable("<Down> for now."), http.MethodGet, "/learn", "text/html,application/xhtml+xml,*/*;q=0.8")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Contains(t, rec.Body.String(), "&lt;Down&gt; for now.")

	rec = serve(t, ServiceUnavailable("Down."), http.MethodGet, "/api/modules", "text/html")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

func TestHandle_Head(t *testing.T) {
	t.Parallel()

	rec := serve(t, NotFound("Page"), http.MethodHead, "/learn", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}
