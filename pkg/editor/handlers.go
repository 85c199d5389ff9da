package editor

import (
	"net/http"

	"github.com/dacweb/dac/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
)

type handler struct {
	editorService *Service
}

func (h *handler) listTables(c echo.Context) error {
	ctx := c.Request().Context()

	tables, err := h.editorService.ListTables(ctx)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, ListTablesResponse{Tables: tables}))
}

func (h *handler) listRecords(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListRecordsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	records, total, err := h.editorService.ListRecords(ctx, ListRecordsOptions{
		Table:  c.Param("table"),
		Search: params.Search,
		Limit:  pointerutil.Int(params.Limit),
		Offset: pointerutil.Int(params.Offset),
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, ListRecordsResponse{Records: records, Total: total}))
}

func (h *handler) newForm(c echo.Context) error {
	ctx := c.Request().Context()

	form, err := h.editorService.NewForm(ctx, c.Param("table"))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, form))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	table := c.Param("table")

	record, fields, err := h.editorService.RetrieveRecord(ctx, table, c.Param("id"))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, RecordResponse{Record: record, Form: BuildForm(table, fields, record)}))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	table := c.Param("table")

	params := RecordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	record, fields, err := h.editorService.CreateRecord(ctx, table, params.Values)
	if err != nil {
		return err
	}

	h.audit(c, "created record", table, record.ID)
	return errors.WithStack(c.JSON(http.StatusCreated, RecordResponse{Record: record, Form: BuildForm(table, fields, record)}))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	table := c.Param("table")

	params := RecordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	record, fields, err := h.editorService.UpdateRecord(ctx, table, c.Param("id"), params.Values)
	if err != nil {
		return err
	}

	h.audit(c, "updated record", table, record.ID)
	return errors.WithStack(c.JSON(http.StatusOK, RecordResponse{Record: record, Form: BuildForm(table, fields, record)}))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	table := c.Param("table")
	id := c.Param("id")

	if err := h.editorService.DeleteRecord(ctx, table, id); err != nil {
		return err
	}

	h.audit(c, "deleted record", table, id)
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) audit(c echo.Context, msg, table string, id interface{}) {
	data := logger.Data{"table": table, "record_id": id}
	if user := auth.GetUserFromContext(c); user != nil {
		data["user_id"] = user.ID
	}
	logger.FromContext(c.Request().Context()).Info(msg, data)
}
