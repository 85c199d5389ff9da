package editor

import (
	"strconv"
	"time"

	"github.com/segmentio/encoding/json"
)

// Form is the edit form for one record, or an empty form for a new one.
type Form struct {
	Table  string      `json:"table"`
	Title  string      `json:"title"`
	Fields []FormField `json:"fields"`
}

type FormField struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Kind      FieldKind `json:"kind"`
	InputType string    `json:"input_type"`
	Value     string    `json:"value"`
	Checked   bool      `json:"checked,omitempty"`
	Required  bool      `json:"required"`
	ReadOnly  bool      `json:"read_only"`
}

var inputTypes = map[FieldKind]string{
	KindText:     "text",
	KindTextarea: "textarea",
	KindNumber:   "number",
	KindToggle:   "checkbox",
	KindJSON:     "textarea",
	KindEmail:    "email",
	KindURL:      "url",
	KindDatetime: "datetime-local",
}

// BuildForm lays out fields with the record's current values. record is nil
// for a create form, which leaves out database managed columns unless the id
// field was made writable.
func BuildForm(table string, fields []Field, record *Record) Form {
	form := Form{Table: table, Title: "New " + FieldLabel(table)}
	values := map[string]interface{}{}
	if record != nil {
		form.Title = record.Label
		values = record.Values
	}

	for _, f := range fields {
		ff := FormField{
			Name:      f.Name,
			Label:     f.Label,
			Kind:      f.Kind,
			InputType: inputTypes[f.Kind],
			Required:  f.Required,
			ReadOnly:  f.ReadOnly,
		}
		if ff.InputType == "" {
			ff.InputType = "text"
		}
		if record == nil && managedColumns[f.Name] && (f.Name != "id" || f.ReadOnly) {
			continue
		}

		v := values[f.Name]
		if f.Kind == KindToggle {
			ff.Checked, _ = v.(bool)
		} else {
			ff.Value = formValue(f.Kind, v)
		}
		form.Fields = append(form.Fields, ff)
	}
	return form
}

func formValue(kind FieldKind, v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		if kind == KindDatetime {
			return t.Format("2006-01-02T15:04")
		}
		return t.Format(time.RFC3339)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	if kind == KindJSON {
		b, err := json.MarshalIndent(v, "", "  ")
		if err == nil {
			return string(b)
		}
	}
	b, _ := json.Marshal(v)
	return string(b)
}
