package render

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/dacweb/dac/pkg/models"
	"github.com/dacweb/dac/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func testModules() []*models.Module {
	return []*models.Module{
		{
			ID:    "intro",
			Title: "Introduction",
			Chapters: []*models.Chapter{
				{ID: "c1", Title: "One", VideoID: "dQw4w9WgXcQ", Duration: 100},
				{ID: "c2", Title: "Two", VideoID: "aaaaaaaaaaa", Duration: 200},
				{ID: "c3", Title: "Three", VideoID: "bbbbbbbbbbb", Duration: 300},
				{ID: "c4", Title: "Four", VideoID: "ccccccccccc", Duration: 400},
			},
		},
		{
			ID:    "deep dive/2",
			Title: "Deep Dive",
			Chapters: []*models.Chapter{
				{ID: "d1", Title: "Only", VideoID: "ddddddddddd", Duration: 60, Links: []interface{}{
					"https://example.com/a",
					map[string]interface{}{"url": "https://example.com/b", "title": "Slides"},
					42,
				}},
			},
		},
	}
}

func newTracker(t *testing.T) *progress.Tracker {
	t.Helper()
	ctx := context.Background()
	tracker := progress.NewTracker(ctx, progress.NewMemoryStore())
	_, err := tracker.Update(ctx, "c1", 95, 100)
	require.NoError(t, err)
	_, err = tracker.Update(ctx, "c2", 20, 200)
	require.NoError(t, err)
	return tracker
}

func TestBuildModules(t *testing.T) {
	t.Parallel()

	views := BuildModules(testModules(), newTracker(t), UIState{})
	require.Len(t, views, 2)

	intro := views[0]
	assert.Equal(t, 1, intro.Position)
	assert.Equal(t, "module-intro", intro.DOMID)
	assert.Equal(t, "hidden-ch-module-intro", intro.HiddenDOMID())
	require.Len(t, intro.Visible, 2)
	require.Len(t, intro.Hidden, 2)
	assert.Equal(t, "View 2 more chapters", intro.ToggleLabel)
	assert.Equal(t, "?expanded=intro#module-intro", intro.ToggleHref)

	assert.Equal(t, progress.StatusCompleted, intro.Visible[0].Status)
	assert.Equal(t, "✓ Completed", intro.Visible[0].Badge)
	assert.Equal(t, progress.StatusInProgress, intro.Visible[1].Status)
	assert.Equal(t, "⏳ In Progress", intro.Visible[1].Badge)
	assert.Equal(t, 10, intro.Visible[1].Percent)
	assert.Equal(t, progress.StatusNotStarted, intro.Hidden[0].Status)
	assert.Empty(t, intro.Hidden[0].Badge)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg", intro.Visible[0].Thumbnail)
	assert.Equal(t, "1:40", intro.Visible[0].Duration)

	deep := views[1]
	assert.Equal(t, "module-deep-dive-2", deep.DOMID)
	assert.Empty(t, deep.Hidden)
	assert.Empty(t, deep.ToggleLabel)
	assert.Equal(t, []LinkView{
		{Label: "https://example.com/a", URL: "https://example.com/a"},
		{Label: "Slides", URL: "https://example.com/b"},
	}, deep.Visible[0].Links)
}

func TestBuildModules_Expanded(t *testing.T) {
	t.Parallel()

	state := ParseUIState(url.Values{"expanded": {"intro"}})
	views := BuildModules(testModules(), nil, state)

	assert.True(t, views[0].Expanded)
	assert.Equal(t, "Collapse", views[0].ToggleLabel)
	assert.Equal(t, "#module-intro", views[0].ToggleHref)
}

func TestBuildModules_Idempotent(t *testing.T) {
	t.Parallel()

	tracker := newTracker(t)
	modules := testModules()
	state := ParseUIState(url.Values{"expanded": {"intro,deep dive/2"}})

	first := BuildModules(modules, tracker, state)
	second := BuildModules(modules, tracker, state)
	assert.Equal(t, first, second)

	var a, b bytes.Buffer
	require.NoError(t, Page(&a, first))
	require.NoError(t, Page(&b, second))
	assert.Equal(t, a.String(), b.String())
}

func TestToggleLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "View 1 more chapter", ToggleLabel(1, false))
	assert.Equal(t, "View 5 more chapters", ToggleLabel(5, false))
	assert.Equal(t, "Collapse", ToggleLabel(5, true))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FormatDuration(0))
	assert.Equal(t, "0:05", FormatDuration(5))
	assert.Equal(t, "10:00", FormatDuration(600))
	assert.Equal(t, "1:01:01", FormatDuration(3661))
}

func TestUIState_Query(t *testing.T) {
	t.Parallel()

	state := ParseUIState(url.Values{"expanded": {"b", "a"}})
	assert.Equal(t, "?expanded=a%2Cb%2Cc", state.Query("c"))
	assert.Equal(t, "?expanded=b", state.Query("a"))
	assert.Equal(t, "", ParseUIState(url.Values{"expanded": {"x"}}).Query("x"))
}

// findAll walks the parsed document and collects elements matching fn.
func findAll(n *html.Node, fn func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && fn(n) {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAll(c, fn)...)
	}
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, _ := attr(n, "class")
		for _, c := range strings.Fields(v) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func TestPage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Page(&buf, BuildModules(testModules(), newTracker(t), UIState{})))

	doc, err := html.Parse(&buf)
	require.NoError(t, err)

	modules := findAll(doc, hasClass("module"))
	require.Len(t, modules, 2)
	id, _ := attr(modules[1], "id")
	assert.Equal(t, "module-deep-dive-2", id)

	chapters := findAll(modules[0], hasClass("chapter"))
	assert.Len(t, chapters, 4)

	hidden := findAll(modules[0], hasClass("hidden-chapters"))
	require.Len(t, hidden, 1)
	_, isHidden := attr(hidden[0], "hidden")
	assert.True(t, isHidden)
	id, _ = attr(hidden[0], "id")
	assert.Equal(t, "hidden-ch-module-intro", id)

	toggles := findAll(doc, hasClass("chapters-toggle"))
	require.Len(t, toggles, 1)
	assert.Equal(t, "View 2 more chapters", text(toggles[0]))

	badges := findAll(doc, hasClass("progress-badge"))
	require.Len(t, badges, 2)
	assert.Equal(t, "✓ Completed", text(badges[0]))
	assert.Equal(t, "⏳ In Progress", text(badges[1]))

	links := findAll(doc, func(n *html.Node) bool {
		rel, _ := attr(n, "rel")
		return n.Data == "a" && rel == "noopener"
	})
	require.Len(t, links, 2)
	assert.Equal(t, "Slides", text(links[1]))
}

func TestPage_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Page(&buf, nil))

	doc, err := html.Parse(&buf)
	require.NoError(t, err)

	empty := findAll(doc, hasClass("empty"))
	require.Len(t, empty, 1)
	assert.Equal(t, "No modules available.", text(empty[0]))
}

func TestPage_EscapesContent(t *testing.T) {
	t.Parallel()

	modules := []*models.Module{{ID: "x", Title: `<script>alert(1)</script>`}}
	var buf bytes.Buffer
	require.NoError(t, Page(&buf, BuildModules(modules, nil, UIState{})))
	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}
