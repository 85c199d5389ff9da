package contentsync

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dacweb/dac/pkg/migrations"
	"github.com/dacweb/dac/pkg/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const sampleDocument = `{
  "modules": [
    {
      "id": "intro",
      "title": "Introduction",
      "description": "Start here",
      "duration": "45 min",
      "chapters": [
        {"id": "intro-1", "title": "Welcome", "videoId": "dQw4w9WgXcQ", "duration": 312.5, "description": "Hello", "links": [{"url": "https://example.com/slides", "label": "Slides"}]},
        {"id": "intro-2", "title": "Setup", "videoId": "aaaaaaaaaaa", "duration": 600, "description": "", "links": []}
      ]
    },
    {
      "id": "next",
      "title": "Next Steps",
      "description": "",
      "duration": "",
      "chapters": [
        {"id": "next-1", "title": "Going further", "videoId": "", "duration": 0, "description": "", "links": ["https://example.com"]}
      ]
    }
  ]
}`

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestReplace_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(newTestDB(t), 3)

	doc, err := Validate([]byte(sampleDocument))
	require.NoError(t, err)

	res, err := svc.Replace(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, Result{Modules: 2, Chapters: 3}, res)

	exported, err := svc.Export(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, exported, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("export mismatch (-uploaded +exported):\n%s", diff)
	}

	// Exported output validates to the same document again.
	data, err := exported.Marshal()
	require.NoError(t, err)
	again, err := Validate(data)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(doc, again, cmpopts.EquateEmpty()))
}

func TestReplace_AssignsSortOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db, 3)

	doc, err := Validate([]byte(sampleDocument))
	require.NoError(t, err)
	_, err = svc.Replace(ctx, doc)
	require.NoError(t, err)

	modules := []*models.Module{}
	require.NoError(t, db.NewSelect().Model(&modules).Order("m.sort_order ASC").Scan(ctx))
	require.Len(t, modules, 2)
	assert.Equal(t, "intro", modules[0].ID)
	assert.Equal(t, 1, modules[0].SortOrder)
	assert.Equal(t, 2, modules[1].SortOrder)

	chapters := []*models.Chapter{}
	require.NoError(t, db.NewSelect().Model(&chapters).Order("ch.id ASC").Scan(ctx))
	require.Len(t, chapters, 3)
	assert.Equal(t, "intro", chapters[0].ModuleID)
	assert.Equal(t, 1, chapters[0].SortOrder)
	assert.Equal(t, 2, chapters[1].SortOrder)
	assert.Equal(t, "next", chapters[2].ModuleID)
	assert.Equal(t, 1, chapters[2].SortOrder)
}

func TestReplace_ReplacesPreviousContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(newTestDB(t), 3)

	doc, err := Validate([]byte(sampleDocument))
	require.NoError(t, err)
	_, err = svc.Replace(ctx, doc)
	require.NoError(t, err)

	smaller, err := Validate([]byte(`{"modules": [{"id": "only", "title": "Only", "chapters": []}]}`))
	require.NoError(t, err)
	_, err = svc.Replace(ctx, smaller)
	require.NoError(t, err)

	exported, err := svc.Export(ctx)
	require.NoError(t, err)
	require.Len(t, exported.Modules, 1)
	assert.Equal(t, "only", exported.Modules[0].ID)
	assert.Empty(t, exported.Modules[0].Chapters)
}

func TestReplace_RollsBackOnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(newTestDB(t), 3)

	doc, err := Validate([]byte(sampleDocument))
	require.NoError(t, err)
	_, err = svc.Replace(ctx, doc)
	require.NoError(t, err)

	// Skips Validate, so the chapter insert hits the primary key.
	broken := &Document{Modules: []*Module{
		{ID: "a", Title: "A", Chapters: []*Chapter{{ID: "dup", Title: "One"}}},
		{ID: "b", Title: "B", Chapters: []*Chapter{{ID: "dup", Title: "Two"}}},
	}}
	_, err = svc.Replace(ctx, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert chapters")

	exported, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(doc, exported, cmpopts.EquateEmpty()), "previous content survives")
}

func TestExport_Empty(t *testing.T) {
	t.Parallel()
	svc := NewService(newTestDB(t), 3)

	doc, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Modules)

	data, err := doc.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"modules\": []\n}\n", string(data))
}
