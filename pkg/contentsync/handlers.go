package contentsync

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// MaxDocumentSize caps uploads and editor payloads.
const MaxDocumentSize = 10 << 20

type handler struct {
	syncService *Service
}

// readDocument returns the raw document from either a multipart "file" field
// or the request body.
func readDocument(c echo.Context) ([]byte, error) {
	req := c.Request()
	var r io.Reader = req.Body
	fromFile := false

	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, errcodes.ValidationError("Select a JSON file first")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		defer f.Close()
		r = f
		fromFile = true
	}

	raw, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(raw) > MaxDocumentSize {
		return nil, errcodes.ValidationError(fmt.Sprintf("Document must be smaller than %d MB.", MaxDocumentSize>>20))
	}

	if fromFile && len(raw) > 0 {
		mt := mimetype.Detect(raw)
		if !mt.Is("application/json") && !mt.Is("text/plain") {
			return nil, errcodes.ValidationError(fmt.Sprintf("Uploaded file must be JSON, got %s.", mt.String()))
		}
	}
	return raw, nil
}

func (h *handler) upload(c echo.Context) error {
	ctx := c.Request().Context()

	raw, err := readDocument(c)
	if err != nil {
		return err
	}
	doc, err := Validate(raw)
	if err != nil {
		return err
	}

	res, err := h.syncService.Replace(ctx, doc)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, SyncResponse{
		Message: "JSON uploaded and synced successfully",
		Result:  res,
	}))
}

func (h *handler) validate(c echo.Context) error {
	raw, err := readDocument(c)
	if err != nil {
		return err
	}
	doc, err := Validate(raw)
	if err != nil {
		return err
	}

	modules, chapters := doc.Counts()
	return errors.WithStack(c.JSON(http.StatusOK, SyncResponse{
		Message: "JSON is valid!",
		Result:  Result{Modules: modules, Chapters: chapters},
	}))
}

func (h *handler) format(c echo.Context) error {
	raw, err := readDocument(c)
	if err != nil {
		return err
	}
	formatted, err := Format(raw)
	if err != nil {
		return err
	}

	return errors.WithStack(c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, formatted))
}

func (h *handler) export(c echo.Context) error {
	ctx := c.Request().Context()

	doc, err := h.syncService.Export(ctx)
	if err != nil {
		return err
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", Filename))
	return errors.WithStack(c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, data))
}
