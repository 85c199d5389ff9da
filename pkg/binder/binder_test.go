package binder

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Title string `json:"title" mod:"trim" validate:"max=9"`
	Link  string `json:"link" validate:"url"`
	Omit  string `json:"-"`
}

var (
	goodJSON             = `{"title":" Intro "}`
	unknownFieldsErrJSON = `{"title":"Intro","foo":"bar"}`
	typeErrJSON          = `{"title":123}`
	validationErrJSON    = `{"title":"0123456789"}`
	badURLJSON           = `{"title":"Intro","link":"ftp://example.com"}`
)

func TestNew(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)
	assert.NotNil(t, b)

	t.Run("only allows application/json and application/x-www-form-urlencoded", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationXML)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		c := newContext(typeErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"title" should be of type string`)
	})

	t.Run("use mod tag to modify params", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "Intro", p.Title)
	})

	t.Run("use validate tag to validate params", func(tt *testing.T) {
		c := newContext(validationErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "length must be less than or equal to 9 characters")
	})

	t.Run("rejects non-http links", func(tt *testing.T) {
		c := newContext(badURLJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"link" must be an http or https URL`)
	})
}

func TestBind_Limits(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	t.Run("rejects bodies over the limit", func(tt *testing.T) {
		c := newContext(`{"title":"`+strings.Repeat("a", 64)+`"}`, echo.MIMEApplicationJSON)
		c.Set(ContextKeyMaxBodyBytes, int64(16))
		p := params{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "too large")
	})

	t.Run("rejects an empty body", func(tt *testing.T) {
		c := newContext("", echo.MIMEApplicationJSON)
		p := params{}
		err := b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "can't be empty")
	})

	t.Run("allows an empty body when asked", func(tt *testing.T) {
		c := newContext("", echo.MIMEApplicationJSON)
		c.Set(ContextKeyAllowEmptyBody, true)
		p := params{}
		assert.NoError(tt, b.Bind(&p, c))
	})

	t.Run("allows unknown fields when asked", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		c.Set(ContextKeyAllowUnknownField, true)
		p := params{}
		require.NoError(tt, b.Bind(&p, c))
		assert.Equal(tt, "Intro", p.Title)
	})
}

type listQuery struct {
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"max=50"`
	Search string `query:"search" json:"search" mod:"trim"`
}

func TestBind_Query(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	get := func(target string) echo.Context {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		return e.NewContext(req, httptest.NewRecorder())
	}

	q := listQuery{}
	require.NoError(t, b.Bind(&q, get("/?search=+intro+")))
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, "intro", q.Search)

	q = listQuery{}
	err = b.Bind(&q, get("/?limit=abc"))
	assert.Contains(t, err.Error(), `"limit" should be of type int`)

	q = listQuery{}
	err = b.Bind(&q, get("/?limit=500"))
	assert.Contains(t, err.Error(), `"limit" must be less than or equal to 50`)

	q = listQuery{}
	err = b.Bind(&q, get("/?bogus=1"))
	assert.Contains(t, err.Error(), `Unknown Parameter "bogus"`)
}

func newContext(payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.POST, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, mime)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}
