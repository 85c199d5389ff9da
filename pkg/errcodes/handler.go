package errcodes

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/errutils"
)

// RetryAfterSeconds is sent with every 429 response.
const RetryAfterSeconds = 60

type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Handle is an Echo error handler. Known errors keep their status and
// message, anything else is logged and reported as a 500. Browsers asking for
// a page get a small HTML error page, everyone else gets JSON.
func (h *Handler) Handle(err error, c echo.Context) {
	log := logger.FromEchoContext(c)
	if errutils.IsIgnorableErr(err) {
		log.Err(err).Warn("broken pipe")
		return
	}
	if c.Response().Committed {
		log.Err(err).Warn("error after response was committed")
		return
	}

	body := Body(err)
	if body.StatusCode == http.StatusInternalServerError {
		log.Err(err).Error("server error")
	}
	if body.StatusCode == http.StatusTooManyRequests {
		c.Response().Header().Set("Retry-After", fmt.Sprint(RetryAfterSeconds))
	}

	var werr error
	switch {
	case c.Request().Method == http.MethodHead:
		werr = c.NoContent(body.StatusCode)
	case wantsHTML(c.Request()):
		werr = c.HTML(body.StatusCode, errorPage(body))
	default:
		werr = c.JSON(body.StatusCode, ErrorResponse{Error: body})
	}
	if werr != nil {
		log.Err(errors.WithStack(werr)).Error("error handler write error")
	}
}

// Body converts err into the payload the handler sends.
func Body(err error) ErrorBody {
	body := ErrorBody{StatusCode: http.StatusInternalServerError}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		body.StatusCode = he.Code
		if msg, ok := he.Message.(string); ok {
			body.Message = msg
		} else {
			body.Message = http.StatusText(he.Code)
		}
		body.Code = strcase.ToSnake(body.Message)
	}

	var e *Error
	if errors.As(err, &e) {
		body.StatusCode = e.HTTPCode
		body.Code = e.Code
		body.Message = e.Message
	}

	if body.StatusCode == http.StatusInternalServerError && body.Message == "" {
		body.Code = "internal_server_error"
		body.Message = "Internal Server Error"
	}
	return body
}

// wantsHTML is true for page loads, which list text/html ahead of JSON and
// never target the JSON API.
func wantsHTML(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/admin/") {
		return false
	}
	accept := r.Header.Get(echo.HeaderAccept)
	htmlAt := strings.Index(accept, echo.MIMETextHTML)
	if htmlAt < 0 {
		return false
	}
	jsonAt := strings.Index(accept, echo.MIMEApplicationJSON)
	return jsonAt < 0 || htmlAt < jsonAt
}

func errorPage(body ErrorBody) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>%d %s</title></head>
<body><main class="error-page"><h1>%d</h1><p class="error">%s</p><a href="/learn">Back to learning</a></main></body>
</html>
`, body.StatusCode, html.EscapeString(http.StatusText(body.StatusCode)), body.StatusCode, html.EscapeString(body.Message))
}
