package editor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dacweb/dac/pkg/binder"
	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestServer(t *testing.T, db *bun.DB) *echo.Echo {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	RegisterRoutesWithGroup(e.Group("/admin/tables"), NewService(db, nil))
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	return rr
}

func TestHandlers_RecordLifecycle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	seedModules(t, db)
	e := newTestServer(t, db)

	rr := doJSON(e, http.MethodGet, "/admin/tables", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var tables ListTablesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tables))
	assert.Len(t, tables.Tables, 5)

	rr = doJSON(e, http.MethodPost, "/admin/tables/upcoming_events/records", `{"values":{"title":"Demo day","event_date":"2026-12-01"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created RecordResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Demo day", created.Record.Label)
	assert.Equal(t, "Demo day", created.Form.Title)

	rr = doJSON(e, http.MethodPatch, "/admin/tables/upcoming_events/records/1", `{"values":{"title":"Demo night"}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Demo night")

	rr = doJSON(e, http.MethodGet, "/admin/tables/upcoming_events/records?search=night", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list ListRecordsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rr = doJSON(e, http.MethodDelete, "/admin/tables/upcoming_events/records/1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(e, http.MethodGet, "/admin/tables/upcoming_events/records/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlers_UnregisteredTable(t *testing.T) {
	t.Parallel()
	e := newTestServer(t, newTestDB(t))

	rr := doJSON(e, http.MethodGet, "/admin/tables/users/records", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(e, http.MethodGet, "/admin/tables/progress_blobs/form", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlers_RequiresValues(t *testing.T) {
	t.Parallel()
	e := newTestServer(t, newTestDB(t))

	rr := doJSON(e, http.MethodPost, "/admin/tables/modules/records", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
