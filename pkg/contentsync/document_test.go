package contentsync

import (
	"testing"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"empty", ``, "Editor is empty"},
		{"syntax", `{"modules": [}`, ""},
		{"missing modules", `{}`, "Invalid JSON: missing or invalid modules array"},
		{"modules not an array", `{"modules": {}}`, "Invalid JSON: missing or invalid modules array"},
		{"top level array", `[]`, "Invalid JSON: missing or invalid modules array"},
		{"module missing id", `{"modules": [{"title": "T", "chapters": []}]}`, "Invalid module: missing id"},
		{"module missing title", `{"modules": [{"id": "m1", "chapters": []}]}`, "Invalid module: m1 missing title"},
		{"module missing chapters", `{"modules": [{"id": "m1", "title": "T"}]}`, "Invalid module: m1 chapters must be an array"},
		{"chapter missing id", `{"modules": [{"id": "m1", "title": "T", "chapters": [{"title": "C", "videoId": ""}]}]}`, "Invalid chapter: missing id"},
		{"chapter missing title", `{"modules": [{"id": "m1", "title": "T", "chapters": [{"id": "c1", "videoId": ""}]}]}`, "Invalid chapter: c1 missing title"},
		{"chapter missing videoId", `{"modules": [{"id": "m1", "title": "T", "chapters": [{"id": "c1", "title": "C"}]}]}`, "Invalid chapter: c1 missing videoId"},
		{"links not an array", `{"modules": [{"id": "m1", "title": "T", "chapters": [{"id": "c1", "title": "C", "videoId": "", "links": "x"}]}]}`, "Invalid chapter: c1 links must be an array"},
		{"null links", `{"modules": [{"id": "m1", "title": "T", "chapters": [{"id": "c1", "title": "C", "videoId": "", "links": null}]}]}`, "Invalid chapter: c1 links must be an array"},
		{"bad duration", `{"modules": [{"id": "m1", "title": "T", "chapters": [{"id": "c1", "title": "C", "videoId": "", "duration": true}]}]}`, "Invalid chapter: c1 duration must be a number of seconds"},
		{"duplicate module", `{"modules": [{"id": "m1", "title": "T", "chapters": []}, {"id": "m1", "title": "U", "chapters": []}]}`, "Duplicate module id: m1"},
		{"duplicate chapter across modules", `{"modules": [
			{"id": "m1", "title": "T", "chapters": [{"id": "c1", "title": "C", "videoId": ""}]},
			{"id": "m2", "title": "U", "chapters": [{"id": "c1", "title": "D", "videoId": ""}]}
		]}`, "Duplicate chapter id: c1"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := Validate([]byte(tt.doc))
			assert.Nil(t, doc)
			require.Error(t, err)

			var cerr *errcodes.Error
			require.ErrorAs(t, err, &cerr)
			if tt.msg == "" {
				assert.Contains(t, cerr.Message, "Invalid JSON: ")
			} else {
				assert.Equal(t, tt.msg, cerr.Message)
			}
		})
	}
}

func TestValidate_Converts(t *testing.T) {
	t.Parallel()

	doc, err := Validate([]byte(`{"modules": [{
		"id": "m1", "title": " Basics ", "duration": 45,
		"chapters": [
			{"id": "c1", "title": "One", "videoId": "dQw4w9WgXcQ", "duration": "90"},
			{"id": "c2", "title": "Two", "videoId": null, "links": ["https://example.com"]}
		]
	}]}`))
	require.NoError(t, err)
	require.Len(t, doc.Modules, 1)

	m := doc.Modules[0]
	assert.Equal(t, "Basics", m.Title)
	assert.Equal(t, "45", m.Duration)
	require.Len(t, m.Chapters, 2)
	assert.Equal(t, 90.0, m.Chapters[0].Duration)
	assert.Equal(t, []interface{}{}, m.Chapters[0].Links)
	assert.Equal(t, "", m.Chapters[1].VideoID)
	assert.Equal(t, []interface{}{"https://example.com"}, m.Chapters[1].Links)

	modules, chapters := doc.Counts()
	assert.Equal(t, 1, modules)
	assert.Equal(t, 2, chapters)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	out, err := Format([]byte(`  {"modules":[{"id":"m1","title":"T"}]}  `))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"modules\": [\n    {\n      \"id\": \"m1\",\n      \"title\": \"T\"\n    }\n  ]\n}\n", string(out))

	_, err = Format([]byte(`{"modules":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid JSON: ")
}
