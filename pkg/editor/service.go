package editor

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/dacweb/dac/pkg/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
	"golang.org/x/text/cases"
)

const noStructureMessage = "Cannot create record without knowing table structure."

// Columns that are managed by the database and never written from a form.
var managedColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

type column struct {
	Name    string `bun:"name"`
	Type    string `bun:"type"`
	NotNull bool   `bun:"notnull"`
	PK      int    `bun:"pk"`
}

type tableInfo struct {
	name    string
	columns map[string]column
	order   []string
}

func (t *tableInfo) has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// textID reports whether ids for the table are caller supplied rather than
// assigned by the database.
func (t *tableInfo) textID() bool {
	c, ok := t.columns["id"]
	return ok && !strings.Contains(strings.ToUpper(c.Type), "INT")
}

// Record is a row of an editable table.
type Record struct {
	ID     interface{}            `json:"id"`
	Label  string                 `json:"label"`
	Values map[string]interface{} `json:"values"`
}

type ListRecordsOptions struct {
	Table  string
	Search *string
	Limit  *int
	Offset *int
}

type Service struct {
	db      *bun.DB
	schemas Schemas
}

func NewService(db *bun.DB, schemas Schemas) *Service {
	if schemas == nil {
		schemas = DefaultSchemas()
	}
	return &Service{db: db, schemas: schemas}
}

// ListTables returns the registered tables in display order.
func (svc *Service) ListTables(ctx context.Context) ([]*models.ContentTable, error) {
	tables := []*models.ContentTable{}
	err := svc.db.NewSelect().
		Model(&tables).
		Order("ct.sort_order ASC", "ct.table_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return tables, nil
}

// RegisterTable makes an existing table editable. Registering a table twice
// updates its label.
func (svc *Service) RegisterTable(ctx context.Context, name, label string) (*models.ContentTable, error) {
	info, err := svc.inspect(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(info.columns) == 0 {
		return nil, errcodes.NotFound("Table")
	}
	if !info.has("id") {
		return nil, errcodes.ValidationError("Editable tables need an id column.")
	}
	if label == "" {
		label = FieldLabel(name)
	}

	count, err := svc.db.NewSelect().Model((*models.ContentTable)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	_, err = svc.db.NewInsert().
		Model(&models.ContentTable{
			TableName: name,
			Label:     label,
			SortOrder: count + 1,
		}).
		On("CONFLICT (table_name) DO UPDATE").
		Set("label = EXCLUDED.label").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	table := &models.ContentTable{}
	err = svc.db.NewSelect().Model(table).Where("ct.table_name = ?", name).Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return table, nil
}

// registered loads the table's structure, refusing tables that aren't in the
// registry.
func (svc *Service) registered(ctx context.Context, name string) (*tableInfo, error) {
	exists, err := svc.db.NewSelect().
		Model((*models.ContentTable)(nil)).
		Where("table_name = ?", name).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !exists {
		return nil, errcodes.NotFound("Table")
	}
	return svc.inspect(ctx, name)
}

func (svc *Service) inspect(ctx context.Context, name string) (*tableInfo, error) {
	cols := []column{}
	err := svc.db.NewRaw(`SELECT name, type, "notnull", pk FROM pragma_table_info(?)`, name).Scan(ctx, &cols)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}
	info := &tableInfo{name: name, columns: map[string]column{}}
	for _, c := range cols {
		info.columns[c.Name] = c
		info.order = append(info.order, c.Name)
	}
	return info, nil
}

// Fields resolves the form fields of a table. Declared fields come first in
// their declared order, then any other column the table has, typed by
// InferKind using sample when one is given.
func (svc *Service) Fields(ctx context.Context, table string, sample map[string]interface{}) ([]Field, error) {
	info, err := svc.registered(ctx, table)
	if err != nil {
		return nil, err
	}
	return svc.fields(info, sample), nil
}

func (svc *Service) fields(info *tableInfo, sample map[string]interface{}) []Field {
	fields := []Field{}
	seen := map[string]bool{}

	add := func(f Field) {
		if strings.HasPrefix(f.Name, "_") || seen[f.Name] {
			return
		}
		seen[f.Name] = true
		if f.Label == "" {
			f.Label = FieldLabel(f.Name)
		}
		if f.Kind == "" {
			f.Kind = InferKind(f.Name, info.columns[f.Name].Type, sample[f.Name])
		}
		if f.Name == "id" {
			f.ReadOnly = true
		}
		fields = append(fields, f)
	}

	if schema, ok := svc.schemas[info.name]; ok {
		for _, f := range schema.Fields {
			add(f)
		}
	}

	names := info.order
	if len(names) == 0 {
		for name := range sample {
			names = append(names, name)
		}
	}
	for _, name := range names {
		add(Field{Name: name})
	}

	// Columns the database manages are shown but not editable.
	for i := range fields {
		if managedColumns[fields[i].Name] && fields[i].Name != "id" {
			fields[i].ReadOnly = true
		}
	}
	return fields
}

// NewForm returns an empty form for creating a record in table.
func (svc *Service) NewForm(ctx context.Context, table string) (Form, error) {
	info, err := svc.registered(ctx, table)
	if err != nil {
		return Form{}, err
	}
	fields := svc.fields(info, nil)
	if len(fields) == 0 {
		return Form{}, errcodes.ValidationError(noStructureMessage)
	}
	if info.textID() {
		for i := range fields {
			if fields[i].Name == "id" {
				fields[i].ReadOnly = false
			}
		}
	}
	return BuildForm(table, fields, nil), nil
}

func (svc *Service) ListRecords(ctx context.Context, opts ListRecordsOptions) ([]*Record, int, error) {
	info, err := svc.registered(ctx, opts.Table)
	if err != nil {
		return nil, 0, err
	}

	q := svc.db.NewSelect().TableExpr("?", bun.Ident(info.name))
	if info.has("created_at") {
		q = q.OrderExpr("? DESC", bun.Ident("created_at"))
	}
	q = q.OrderExpr("? ASC", bun.Ident("id"))

	rows := []map[string]interface{}{}
	if err := q.Scan(ctx, &rows); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, errors.WithStack(err)
	}

	var sample map[string]interface{}
	if len(rows) > 0 {
		sample = rows[0]
	}
	fields := svc.fields(info, sample)

	records := make([]*Record, 0, len(rows))
	for i, row := range rows {
		r := newRecord(row, fields)
		if r.Label == "" {
			r.Label = fmt.Sprintf("Record %d", i+1)
		}
		records = append(records, r)
	}

	if opts.Search != nil && strings.TrimSpace(*opts.Search) != "" {
		folder := cases.Fold()
		needle := folder.String(strings.TrimSpace(*opts.Search))
		filtered := records[:0]
		for _, r := range records {
			if strings.Contains(folder.String(r.Label), needle) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	total := len(records)
	if opts.Offset != nil && *opts.Offset > 0 {
		if *opts.Offset >= len(records) {
			records = records[:0]
		} else {
			records = records[*opts.Offset:]
		}
	}
	if opts.Limit != nil && *opts.Limit >= 0 && *opts.Limit < len(records) {
		records = records[:*opts.Limit]
	}
	return records, total, nil
}

func (svc *Service) RetrieveRecord(ctx context.Context, table, id string) (*Record, []Field, error) {
	info, err := svc.registered(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	return svc.retrieve(ctx, info, id)
}

func (svc *Service) retrieve(ctx context.Context, info *tableInfo, id interface{}) (*Record, []Field, error) {
	rows := []map[string]interface{}{}
	err := svc.db.NewSelect().
		TableExpr("?", bun.Ident(info.name)).
		Where("? = ?", bun.Ident("id"), id).
		Limit(1).
		Scan(ctx, &rows)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, errors.WithStack(err)
	}
	if len(rows) == 0 {
		return nil, nil, errcodes.NotFound("Record")
	}

	fields := svc.fields(info, rows[0])
	r := newRecord(rows[0], fields)
	if r.Label == "" {
		r.Label = "Edit Record"
	}
	return r, fields, nil
}

// UpdateRecord writes the given values to a record. The id and other read-only
// fields are never written.
func (svc *Service) UpdateRecord(ctx context.Context, table, id string, values map[string]interface{}) (*Record, []Field, error) {
	info, err := svc.registered(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	current, fields, err := svc.retrieve(ctx, info, id)
	if err != nil {
		return nil, nil, err
	}

	updates, err := coerceValues(fields, values, false)
	if err != nil {
		return nil, nil, err
	}
	if len(updates) == 0 {
		return current, fields, nil
	}

	q := svc.db.NewUpdate().TableExpr("?", bun.Ident(info.name))
	for name, value := range updates {
		q = q.Set("? = ?", bun.Ident(name), value)
	}
	if info.has("updated_at") {
		if _, ok := updates["updated_at"]; !ok {
			q = q.Set("? = ?", bun.Ident("updated_at"), time.Now())
		}
	}
	_, err = q.Where("? = ?", bun.Ident("id"), id).Exec(ctx)
	if err != nil {
		return nil, nil, constraintError(err)
	}

	return svc.retrieve(ctx, info, id)
}

func (svc *Service) DeleteRecord(ctx context.Context, table, id string) error {
	info, err := svc.registered(ctx, table)
	if err != nil {
		return err
	}

	res, err := svc.db.NewDelete().
		TableExpr("?", bun.Ident(info.name)).
		Where("? = ?", bun.Ident("id"), id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Record")
	}
	return nil
}

// CreateRecord inserts a record. Empty values become NULL. Tables with text
// ids take the id from values, or get a generated one.
func (svc *Service) CreateRecord(ctx context.Context, table string, values map[string]interface{}) (*Record, []Field, error) {
	info, err := svc.registered(ctx, table)
	if err != nil {
		return nil, nil, err
	}

	fields := svc.fields(info, nil)
	if len(info.columns) == 0 || len(fields) == 0 {
		return nil, nil, errcodes.ValidationError(noStructureMessage)
	}

	row, err := coerceValues(fields, values, true)
	if err != nil {
		return nil, nil, err
	}

	var id interface{}
	if info.textID() {
		raw, _ := values["id"].(string)
		raw = strings.TrimSpace(raw)
		if raw == "" {
			raw = uuid.NewString()
		}
		row["id"] = raw
		id = raw
	}
	if len(row) == 0 {
		return nil, nil, errcodes.ValidationError("Please fill in at least one field.")
	}

	res, err := svc.db.NewInsert().
		Model(&row).
		TableExpr("?", bun.Ident(info.name)).
		Exec(ctx)
	if err != nil {
		return nil, nil, constraintError(err)
	}
	if id == nil {
		lastID, err := res.LastInsertId()
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
		id = lastID
	}

	return svc.retrieve(ctx, info, id)
}

func newRecord(row map[string]interface{}, fields []Field) *Record {
	kinds := make(map[string]FieldKind, len(fields))
	for _, f := range fields {
		kinds[f.Name] = f.Kind
	}

	values := make(map[string]interface{}, len(row))
	for name, v := range row {
		if strings.HasPrefix(name, "_") {
			continue
		}
		values[name] = displayValue(kinds[name], v)
	}

	r := &Record{ID: values["id"], Values: values}
	for _, key := range []string{"title", "name", "email", "id"} {
		if s := labelText(values[key]); s != "" {
			r.Label = s
			break
		}
	}
	return r
}

func labelText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func displayValue(kind FieldKind, v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch kind {
	case KindToggle:
		switch t := v.(type) {
		case int64:
			return t != 0
		case string:
			b, err := strconv.ParseBool(t)
			if err == nil {
				return b
			}
		}
	case KindJSON:
		if s, ok := v.(string); ok && json.Valid([]byte(s)) {
			var decoded interface{}
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return decoded
			}
		}
	}
	return v
}

// coerceValues converts submitted form values into column values. Unknown
// fields are rejected. On create, empty values are stored as NULL.
func coerceValues(fields []Field, values map[string]interface{}, creating bool) (map[string]interface{}, error) {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	out := map[string]interface{}{}
	for name, raw := range values {
		f, ok := byName[name]
		if !ok {
			if strings.HasPrefix(name, "_") {
				continue
			}
			return nil, errcodes.ValidationError(fmt.Sprintf("Unknown field %q.", name))
		}
		if f.ReadOnly || managedColumns[name] {
			continue
		}

		v, err := coerce(f, raw)
		if err != nil {
			return nil, err
		}
		if s, ok := v.(string); ok && s == "" && creating {
			v = nil
		}
		if v == nil && f.Required {
			return nil, errcodes.ValidationError(fmt.Sprintf("%q is required.", name))
		}
		out[name] = v
	}

	if creating {
		for _, f := range fields {
			if !f.Required || f.ReadOnly || managedColumns[f.Name] {
				continue
			}
			if _, ok := out[f.Name]; !ok {
				return nil, errcodes.ValidationError(fmt.Sprintf("%q is required.", f.Name))
			}
		}
	}
	return out, nil
}

func coerce(f Field, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}

	switch f.Kind {
	case KindToggle:
		switch t := raw.(type) {
		case bool:
			return t, nil
		case float64:
			return t != 0, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "on", "1", "yes":
				return true, nil
			case "", "false", "off", "0", "no":
				return false, nil
			}
		}
		return nil, errcodes.ValidationError(fmt.Sprintf("%q must be true or false.", f.Name))

	case KindNumber:
		switch t := raw.(type) {
		case float64:
			return t, nil
		case string:
			t = strings.TrimSpace(t)
			if t == "" {
				return nil, nil
			}
			n, err := strconv.ParseFloat(t, 64)
			if err == nil {
				return n, nil
			}
		}
		return nil, errcodes.ValidationError(fmt.Sprintf("%q must be a number.", f.Name))

	case KindJSON:
		switch t := raw.(type) {
		case string:
			trimmed := strings.TrimSpace(t)
			if trimmed == "" {
				return "", nil
			}
			var decoded interface{}
			if looksLikeJSON(trimmed) {
				if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
					b, _ := json.Marshal(decoded)
					return string(b), nil
				}
			}
			// Any other text is stored as a JSON string literal.
			b, err := json.Marshal(t)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			return string(b), nil
		default:
			b, err := json.Marshal(t)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			return string(b), nil
		}
	}

	switch t := raw.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return nil, errcodes.ValidationError(fmt.Sprintf("%q must be text.", f.Name))
}

func constraintError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return errcodes.Conflict("A record with that id already exists.")
	case strings.Contains(msg, "NOT NULL constraint failed"):
		col := strings.Fields(msg[strings.LastIndex(msg, ".")+1:])
		if len(col) == 0 {
			return errcodes.ValidationError("A required field is missing.")
		}
		return errcodes.ValidationError(fmt.Sprintf("%q is required.", col[0]))
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return errcodes.ValidationError("A referenced record does not exist.")
	}
	return errors.WithStack(err)
}
