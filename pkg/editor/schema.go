package editor

import (
	"io/fs"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindNumber   FieldKind = "number"
	KindToggle   FieldKind = "toggle"
	KindJSON     FieldKind = "json"
	KindEmail    FieldKind = "email"
	KindURL      FieldKind = "url"
	KindDatetime FieldKind = "datetime"
)

type Field struct {
	Name     string    `koanf:"name" json:"name" validate:"required"`
	Kind     FieldKind `koanf:"kind" json:"kind" validate:"omitempty,oneof=text textarea number toggle json email url datetime"`
	Label    string    `koanf:"label" json:"label"`
	Required bool      `koanf:"required" json:"required"`
	ReadOnly bool      `koanf:"read_only" json:"read_only"`
}

type Schema struct {
	Fields []Field `koanf:"fields" json:"fields" validate:"dive"`
}

// Schemas maps a table name to its declared fields.
type Schemas map[string]*Schema

type schemaFile struct {
	Tables map[string]*Schema `koanf:"tables" validate:"dive"`
}

// DefaultSchemas describes the tables created by the migrations. A schema file
// replaces entries table by table.
func DefaultSchemas() Schemas {
	return Schemas{
		"modules": {Fields: []Field{
			{Name: "id", Kind: KindText, Required: true},
			{Name: "title", Kind: KindText, Required: true},
			{Name: "description", Kind: KindTextarea},
			{Name: "duration", Kind: KindText},
			{Name: "sort_order", Kind: KindNumber, Label: "Sort Order"},
		}},
		"chapters": {Fields: []Field{
			{Name: "id", Kind: KindText, Required: true},
			{Name: "module_id", Kind: KindText, Label: "Module ID", Required: true},
			{Name: "title", Kind: KindText, Required: true},
			{Name: "video_id", Kind: KindText, Label: "Video ID"},
			{Name: "duration", Kind: KindNumber},
			{Name: "description", Kind: KindTextarea},
			{Name: "links", Kind: KindJSON},
			{Name: "sort_order", Kind: KindNumber, Label: "Sort Order"},
		}},
		"team_members": {Fields: []Field{
			{Name: "name", Kind: KindText, Required: true},
			{Name: "designation", Kind: KindText},
			{Name: "image_url", Kind: KindURL, Label: "Image URL"},
			{Name: "linkedin_url", Kind: KindURL, Label: "LinkedIn URL"},
			{Name: "sort_order", Kind: KindNumber, Label: "Sort Order"},
		}},
	}
}

// LoadSchemas reads a YAML schema file on top of the defaults. An empty path or
// a missing file leaves the defaults alone.
func LoadSchemas(path string) (Schemas, error) {
	schemas := DefaultSchemas()
	if path == "" {
		return schemas, nil
	}

	k := koanf.New(".")
	err := k.Load(file.Provider(path), yaml.Parser())
	if errors.Is(err, fs.ErrNotExist) {
		return schemas, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load schema file")
	}

	parsed := schemaFile{}
	if err := k.UnmarshalWithConf("", &parsed, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := validator.New().Struct(parsed); err != nil {
		return nil, errors.Wrap(err, "invalid schema file")
	}

	for table, schema := range parsed.Tables {
		if schema == nil {
			continue
		}
		schemas[table] = schema
	}
	return schemas, nil
}

// Tables returns the table names that have a schema, sorted.
func (s Schemas) Tables() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldLabel turns a column name into a form label, e.g. event_date becomes
// "Event Date".
func FieldLabel(name string) string {
	return cases.Title(language.English).String(strcase.ToDelimited(name, ' '))
}

// InferKind picks an input kind from what is known about a column: its
// declared SQL type, a sample value and finally its name.
func InferKind(name, declaredType string, sample interface{}) FieldKind {
	declared := strings.ToUpper(declaredType)
	switch {
	case strings.Contains(declared, "BOOL"):
		return KindToggle
	case strings.Contains(declared, "JSON"):
		return KindJSON
	case strings.Contains(declared, "DATE"), strings.Contains(declared, "TIME"):
		return KindDatetime
	case strings.Contains(declared, "INT"), strings.Contains(declared, "REAL"),
		strings.Contains(declared, "FLOA"), strings.Contains(declared, "DOUB"),
		strings.Contains(declared, "NUMERIC"):
		return KindNumber
	}

	switch v := sample.(type) {
	case bool:
		return KindToggle
	case int64, float64, int:
		return KindNumber
	case map[string]interface{}, []interface{}:
		return KindJSON
	case string:
		if looksLikeJSON(v) {
			return KindJSON
		}
	}

	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "email"):
		return KindEmail
	case strings.Contains(n, "url"), strings.Contains(n, "link"):
		return KindURL
	case strings.Contains(n, "date"), strings.Contains(n, "time"):
		return KindDatetime
	case strings.Contains(n, "description"), strings.Contains(n, "content"), strings.Contains(n, "message"):
		return KindTextarea
	}
	return KindText
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return false
	}
	return json.Valid([]byte(s))
}
