// Package contentsync moves the whole module and chapter set in and out of
// the database as one JSON document.
package contentsync

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Filename is the name exports are downloaded as.
const Filename = "learning-data.json"

type Document struct {
	Modules []*Module `json:"modules"`
}

type Module struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Duration    string     `json:"duration"`
	Chapters    []*Chapter `json:"chapters"`
}

type Chapter struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	VideoID     string        `json:"videoId"`
	Duration    float64       `json:"duration"`
	Description string        `json:"description"`
	Links       []interface{} `json:"links"`
}

// Counts returns the number of modules and chapters in the document.
func (d *Document) Counts() (modules, chapters int) {
	for _, m := range d.Modules {
		chapters += len(m.Chapters)
	}
	return len(d.Modules), chapters
}

// Marshal renders the document with two space indentation.
func (d *Document) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return append(b, '\n'), nil
}

func invalid(format string, args ...interface{}) error {
	return errcodes.ValidationError(fmt.Sprintf(format, args...))
}

func syntaxError(raw []byte) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return invalid("Invalid JSON: %s", err.Error())
	}
	return nil
}

// Format pretty prints raw JSON with two space indentation, keeping key order.
func Format(raw []byte) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, invalid("Editor is empty")
	}
	if err := syntaxError(raw); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, invalid("Invalid JSON: %s", err.Error())
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Validate checks the structure of an uploaded document and converts it. No
// error means it is safe to hand to Replace.
func Validate(raw []byte) (*Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, invalid("Editor is empty")
	}

	var root interface{}
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, invalid("Invalid JSON: %s", err.Error())
	}

	obj, _ := root.(map[string]interface{})
	list, ok := obj["modules"].([]interface{})
	if !ok {
		return nil, invalid("Invalid JSON: missing or invalid modules array")
	}

	doc := &Document{Modules: make([]*Module, 0, len(list))}
	moduleIDs := map[string]bool{}
	chapterIDs := map[string]bool{}

	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, invalid("Invalid module: entry %d is not an object", i+1)
		}
		id := stringField(m, "id")
		if id == "" {
			return nil, invalid("Invalid module: missing id")
		}
		if stringField(m, "title") == "" {
			return nil, invalid("Invalid module: %s missing title", id)
		}
		rawChapters, ok := m["chapters"].([]interface{})
		if !ok {
			return nil, invalid("Invalid module: %s chapters must be an array", id)
		}
		if moduleIDs[id] {
			return nil, invalid("Duplicate module id: %s", id)
		}
		moduleIDs[id] = true

		module := &Module{
			ID:          id,
			Title:       stringField(m, "title"),
			Description: stringField(m, "description"),
			Duration:    stringField(m, "duration"),
			Chapters:    make([]*Chapter, 0, len(rawChapters)),
		}

		for j, rawChapter := range rawChapters {
			c, ok := rawChapter.(map[string]interface{})
			if !ok {
				return nil, invalid("Invalid chapter: entry %d of %s is not an object", j+1, id)
			}
			chapter, err := validateChapter(c)
			if err != nil {
				return nil, err
			}
			if chapterIDs[chapter.ID] {
				return nil, invalid("Duplicate chapter id: %s", chapter.ID)
			}
			chapterIDs[chapter.ID] = true
			module.Chapters = append(module.Chapters, chapter)
		}

		doc.Modules = append(doc.Modules, module)
	}

	return doc, nil
}

func validateChapter(c map[string]interface{}) (*Chapter, error) {
	id := stringField(c, "id")
	if id == "" {
		return nil, invalid("Invalid chapter: missing id")
	}
	if stringField(c, "title") == "" {
		return nil, invalid("Invalid chapter: %s missing title", id)
	}
	rawVideoID, ok := c["videoId"]
	if !ok {
		return nil, invalid("Invalid chapter: %s missing videoId", id)
	}
	videoID, ok := rawVideoID.(string)
	if !ok && rawVideoID != nil {
		return nil, invalid("Invalid chapter: %s videoId must be a string", id)
	}

	links := []interface{}{}
	if rawLinks, present := c["links"]; present {
		links, ok = rawLinks.([]interface{})
		if !ok {
			return nil, invalid("Invalid chapter: %s links must be an array", id)
		}
	}

	var duration float64
	switch d := c["duration"].(type) {
	case nil:
	case float64:
		duration = d
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(d), 64)
		if err != nil {
			return nil, invalid("Invalid chapter: %s duration must be a number of seconds", id)
		}
		duration = f
	default:
		return nil, invalid("Invalid chapter: %s duration must be a number of seconds", id)
	}

	return &Chapter{
		ID:          id,
		Title:       stringField(c, "title"),
		VideoID:     videoID,
		Duration:    duration,
		Description: stringField(c, "description"),
		Links:       links,
	}, nil
}

// stringField reads a string value, formatting numbers the way they were
// written. Anything else reads as empty.
func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
