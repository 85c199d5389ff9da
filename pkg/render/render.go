// Package render turns modules and a device's progress into the learning page.
package render

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/dacweb/dac/pkg/models"
	"github.com/dacweb/dac/pkg/progress"
)

// VisibleChapters is how many chapters of a module show before the toggle.
const VisibleChapters = 2

var unsafeIDCharsRE = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ProgressView is the read side of a progress tracker.
type ProgressView interface {
	Status(chapterID string) progress.Status
	Percent(chapterID string, duration float64) int
}

// UIState is page state that lives only as long as one request.
type UIState struct {
	// Expanded holds the ids of modules whose hidden chapters are shown.
	Expanded map[string]bool
}

// ParseUIState reads UI state from query parameters. expanded may be repeated
// or comma separated.
func ParseUIState(query url.Values) UIState {
	state := UIState{Expanded: map[string]bool{}}
	for _, v := range query["expanded"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				state.Expanded[id] = true
			}
		}
	}
	return state
}

// Query encodes the state back into query parameters, with the module toggled.
func (s UIState) Query(toggle string) string {
	ids := []string{}
	for id, on := range s.Expanded {
		if on && id != toggle {
			ids = append(ids, id)
		}
	}
	if !s.Expanded[toggle] {
		ids = append(ids, toggle)
	}
	if len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)
	return "?" + url.Values{"expanded": {strings.Join(ids, ",")}}.Encode()
}

type LinkView struct {
	Label string
	URL   string
}

type ChapterView struct {
	ID          string
	ModuleID    string
	Title       string
	Description string
	VideoID     string
	Thumbnail   string
	Duration    string
	Status      progress.Status
	Badge       string
	Percent     int
	Links       []LinkView
}

type ModuleView struct {
	ID          string
	DOMID       string
	Position    int
	Title       string
	Description string
	Duration    string
	Visible     []ChapterView
	Hidden      []ChapterView
	Expanded    bool
	ToggleLabel string
	ToggleHref  string
}

// HiddenDOMID is the id of the element holding the collapsed chapters.
func (m ModuleView) HiddenDOMID() string {
	return "hidden-ch-" + m.DOMID
}

// BuildModules is a pure function of its inputs: the same modules, progress
// and UI state always produce the same views.
func BuildModules(modules []*models.Module, view ProgressView, state UIState) []ModuleView {
	out := make([]ModuleView, 0, len(modules))
	for i, m := range modules {
		mv := ModuleView{
			ID:          m.ID,
			DOMID:       SafeModuleID(m.ID),
			Position:    i + 1,
			Title:       m.Title,
			Description: m.Description,
			Duration:    m.Duration,
			Expanded:    state.Expanded[m.ID],
		}

		for j, ch := range m.Chapters {
			cv := buildChapter(m.ID, ch, view)
			if j < VisibleChapters {
				mv.Visible = append(mv.Visible, cv)
			} else {
				mv.Hidden = append(mv.Hidden, cv)
			}
		}

		if len(mv.Hidden) > 0 {
			mv.ToggleLabel = ToggleLabel(len(mv.Hidden), mv.Expanded)
			mv.ToggleHref = state.Query(m.ID) + "#" + mv.DOMID
		}
		out = append(out, mv)
	}
	return out
}

func buildChapter(moduleID string, ch *models.Chapter, view ProgressView) ChapterView {
	cv := ChapterView{
		ID:          ch.ID,
		ModuleID:    moduleID,
		Title:       ch.Title,
		Description: ch.Description,
		VideoID:     ch.VideoID,
		Thumbnail:   ThumbnailURL(ch.VideoID),
		Duration:    FormatDuration(ch.Duration),
		Status:      progress.StatusNotStarted,
		Links:       buildLinks(ch.Links),
	}
	if view != nil {
		cv.Status = view.Status(ch.ID)
		cv.Percent = view.Percent(ch.ID, ch.Duration)
	}
	switch cv.Status {
	case progress.StatusCompleted:
		cv.Badge = "✓ Completed"
	case progress.StatusInProgress:
		cv.Badge = "⏳ In Progress"
	}
	return cv
}

// buildLinks accepts links as bare URL strings or objects with a url and an
// optional label/title. Anything else is skipped.
func buildLinks(links []interface{}) []LinkView {
	out := []LinkView{}
	for _, l := range links {
		switch v := l.(type) {
		case string:
			if v != "" {
				out = append(out, LinkView{Label: v, URL: v})
			}
		case map[string]interface{}:
			u, _ := v["url"].(string)
			if u == "" {
				continue
			}
			label, _ := v["label"].(string)
			if label == "" {
				label, _ = v["title"].(string)
			}
			if label == "" {
				label = u
			}
			out = append(out, LinkView{Label: label, URL: u})
		}
	}
	return out
}

// ToggleLabel is the disclosure button text for a module with hidden
// chapters.
func ToggleLabel(hidden int, expanded bool) string {
	if expanded {
		return "Collapse"
	}
	if hidden == 1 {
		return "View 1 more chapter"
	}
	return fmt.Sprintf("View %d more chapters", hidden)
}

// SafeModuleID turns a module id into something usable as an element id.
func SafeModuleID(id string) string {
	return "module-" + unsafeIDCharsRE.ReplaceAllString(id, "-")
}

func ThumbnailURL(videoID string) string {
	return "https://img.youtube.com/vi/" + url.PathEscape(videoID) + "/mqdefault.jpg"
}

// FormatDuration renders seconds as m:ss, or h:mm:ss for an hour or more.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return ""
	}
	total := int(math.Round(seconds))
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
