// Package fallback reads the static JSON documents the site ships with and
// serves them when the database can't.
package fallback

import (
	"os"
	"path/filepath"

	"github.com/dacweb/dac/pkg/metrics"
	"github.com/dacweb/dac/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	LearningFile = "learning-data.json"
	EventsFile   = "upcoming-events.json"
	TeamFile     = "team-data.json"
)

type LearningDocument struct {
	Modules []*models.Module `json:"modules"`
}

type EventsDocument struct {
	Events []*models.Event `json:"events"`
}

type TeamDocument struct {
	Members []*models.TeamMember `json:"members"`
}

type Loader struct {
	Dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// LoadLearning returns the modules from the fallback document, in document
// order and shaped like the database results.
func (l *Loader) LoadLearning() ([]*models.Module, error) {
	doc := LearningDocument{}
	if err := l.read(LearningFile, &doc); err != nil {
		return nil, err
	}
	return NormalizeModules(doc.Modules), nil
}

func (l *Loader) LoadEvents() ([]*models.Event, error) {
	doc := EventsDocument{}
	if err := l.read(EventsFile, &doc); err != nil {
		return nil, err
	}
	if doc.Events == nil {
		doc.Events = []*models.Event{}
	}
	return doc.Events, nil
}

func (l *Loader) LoadTeam() ([]*models.TeamMember, error) {
	doc := TeamDocument{}
	if err := l.read(TeamFile, &doc); err != nil {
		return nil, err
	}
	if doc.Members == nil {
		doc.Members = []*models.TeamMember{}
	}
	for i, m := range doc.Members {
		m.SortOrder = i + 1
	}
	return doc.Members, nil
}

func (l *Loader) read(name string, v interface{}) (err error) {
	defer func() { metrics.RecordFallbackLoad(name, err) }()

	path := filepath.Join(l.Dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to parse %s", path)
	}
	return nil
}

// NormalizeModules fills in what the database would always return: non-nil
// chapter and link slices, parent ids and positional sort orders. Nil entries
// are dropped.
func NormalizeModules(modules []*models.Module) []*models.Module {
	out := make([]*models.Module, 0, len(modules))
	for _, m := range modules {
		if m == nil {
			continue
		}
		m.SortOrder = len(out) + 1
		chapters := make([]*models.Chapter, 0, len(m.Chapters))
		for _, ch := range m.Chapters {
			if ch == nil {
				continue
			}
			ch.ModuleID = m.ID
			ch.SortOrder = len(chapters) + 1
			if ch.Links == nil {
				ch.Links = []interface{}{}
			}
			chapters = append(chapters, ch)
		}
		m.Chapters = chapters
		out = append(out, m)
	}
	return out
}
