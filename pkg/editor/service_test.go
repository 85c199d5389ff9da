package editor

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/dacweb/dac/pkg/learning"
	"github.com/dacweb/dac/pkg/migrations"
	"github.com/dacweb/dac/pkg/models"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func seedModules(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()

	modules := []*models.Module{
		{ID: "intro", Title: "Introduction", SortOrder: 1},
		{ID: "advanced", Title: "Advanced Topics", SortOrder: 2},
	}
	_, err := db.NewInsert().Model(&modules).Exec(ctx)
	require.NoError(t, err)

	chapters := []*models.Chapter{
		{ID: "c1", ModuleID: "intro", Title: "One", VideoID: "aaaaaaaaaaa", Duration: 60, SortOrder: 1, Links: []interface{}{"https://example.com"}},
	}
	_, err = db.NewInsert().Model(&chapters).Exec(ctx)
	require.NoError(t, err)
}

func TestListTables(t *testing.T) {
	t.Parallel()
	svc := NewService(newTestDB(t), nil)

	tables, err := svc.ListTables(context.Background())
	require.NoError(t, err)

	names := []string{}
	for _, tbl := range tables {
		names = append(names, tbl.TableName)
	}
	assert.Equal(t, []string{"modules", "chapters", "upcoming_events", "team_members", "contact_messages"}, names)
}

func TestRegisterTable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db, nil)

	_, err := db.Exec(`CREATE TABLE faqs (id INTEGER PRIMARY KEY AUTOINCREMENT, question TEXT, answer_content TEXT, published BOOLEAN)`)
	require.NoError(t, err)

	_, _, err = svc.ListRecords(ctx, ListRecordsOptions{Table: "faqs"})
	assert.Equal(t, errcodes.NotFound("Table"), err)

	table, err := svc.RegisterTable(ctx, "faqs", "")
	require.NoError(t, err)
	assert.Equal(t, "Faqs", table.Label)
	assert.Equal(t, 6, table.SortOrder)

	table, err = svc.RegisterTable(ctx, "faqs", "FAQ")
	require.NoError(t, err)
	assert.Equal(t, "FAQ", table.Label)
	assert.Equal(t, 6, table.SortOrder)

	fields, err := svc.Fields(ctx, "faqs", nil)
	require.NoError(t, err)
	kinds := map[string]FieldKind{}
	for _, f := range fields {
		kinds[f.Name] = f.Kind
	}
	assert.Equal(t, KindNumber, kinds["id"])
	assert.Equal(t, KindTextarea, kinds["answer_content"])
	assert.Equal(t, KindToggle, kinds["published"])

	_, err = svc.RegisterTable(ctx, "does_not_exist", "")
	assert.Equal(t, errcodes.NotFound("Table"), err)
}

func TestListRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	seedModules(t, db)
	svc := NewService(db, nil)

	records, total, err := svc.ListRecords(ctx, ListRecordsOptions{Table: "modules"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, records, 2)
	// Same created_at second, so id breaks the tie.
	assert.Equal(t, "advanced", records[0].ID)
	assert.Equal(t, "Advanced Topics", records[0].Label)

	records, total, err = svc.ListRecords(ctx, ListRecordsOptions{Table: "modules", Search: pointerutil.String("INTRO")})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "intro", records[0].ID)

	records, total, err = svc.ListRecords(ctx, ListRecordsOptions{Table: "modules", Limit: pointerutil.Int(1), Offset: pointerutil.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, records, 1)
	assert.Equal(t, "intro", records[0].ID)
}

func TestListRecords_LabelFallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewService(db, nil)

	_, err := db.Exec(`INSERT INTO upcoming_events (description) VALUES ('no title')`)
	require.NoError(t, err)

	records, _, err := svc.ListRecords(ctx, ListRecordsOptions{Table: "upcoming_events"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	// Falls through title, name and email to the id.
	assert.Equal(t, "1", records[0].Label)
}

func TestRetrieveRecord_DecodesJSON(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	seedModules(t, db)
	svc := NewService(db, nil)

	record, fields, err := svc.RetrieveRecord(ctx, "chapters", "c1")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"https://example.com"}, record.Values["links"])

	form := BuildForm("chapters", fields, record)
	assert.Equal(t, "One", form.Title)
	byName := map[string]FormField{}
	for _, f := range form.Fields {
		byName[f.Name] = f
	}
	assert.True(t, byName["id"].ReadOnly)
	assert.Equal(t, "textarea", byName["links"].InputType)
	assert.Equal(t, "[\n  \"https://example.com\"\n]", byName["links"].Value)
	assert.Equal(t, "number", byName["duration"].InputType)
	assert.Equal(t, "60", byName["duration"].Value)

	_, _, err = svc.RetrieveRecord(ctx, "chapters", "missing")
	assert.Equal(t, errcodes.NotFound("Record"), err)
}

func TestUpdateRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	seedModules(t, db)
	svc := NewService(db, nil)

	record, _, err := svc.UpdateRecord(ctx, "chapters", "c1", map[string]interface{}{
		"id":       "hijack",
		"title":    "One, revised",
		"duration": "75.5",
		"links":    `[{"url":"https://example.com/b","label":"B"}]`,
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", record.ID)
	assert.Equal(t, "One, revised", record.Values["title"])
	assert.Equal(t, 75.5, record.Values["duration"])
	assert.Equal(t, []interface{}{map[string]interface{}{"url": "https://example.com/b", "label": "B"}}, record.Values["links"])

	// Text that isn't valid JSON is stored as is.
	record, _, err = svc.UpdateRecord(ctx, "chapters", "c1", map[string]interface{}{"links": "[oops"})
	require.NoError(t, err)
	assert.Equal(t, "[oops", record.Values["links"])

	_, _, err = svc.UpdateRecord(ctx, "chapters", "c1", map[string]interface{}{"duration": "long"})
	assert.Equal(t, errcodes.ValidationError(`"duration" must be a number.`), err)

	_, _, err = svc.UpdateRecord(ctx, "chapters", "c1", map[string]interface{}{"nope": "x"})
	assert.Equal(t, errcodes.ValidationError(`Unknown field "nope".`), err)

	_, _, err = svc.UpdateRecord(ctx, "chapters", "missing", map[string]interface{}{"title": "x"})
	assert.Equal(t, errcodes.NotFound("Record"), err)
}

func TestUpdateRecord_PlainTextLinksKeepModulesReadable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	seedModules(t, db)
	svc := NewService(db, nil)

	record, _, err := svc.UpdateRecord(ctx, "chapters", "c1", map[string]interface{}{"links": "see slides"})
	require.NoError(t, err)
	assert.Equal(t, "see slides", record.Values["links"])

	var stored string
	err = db.NewRaw("SELECT links FROM chapters WHERE id = ?", "c1").Scan(ctx, &stored)
	require.NoError(t, err)
	assert.Equal(t, `"see slides"`, stored)

	modules, err := learning.NewService(db, nil).ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, modules, 2)
	require.Len(t, modules[0].Chapters, 1)
	assert.Equal(t, models.Links{"see slides"}, modules[0].Chapters[0].Links)
}

func TestCreateRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	seedModules(t, db)
	svc := NewService(db, nil)

	t.Run("caller supplied id", func(t *testing.T) {
		record, _, err := svc.CreateRecord(ctx, "modules", map[string]interface{}{
			"id":          "extra",
			"title":       "Extra",
			"description": "",
		})
		require.NoError(t, err)
		assert.Equal(t, "extra", record.ID)
		assert.Nil(t, record.Values["description"])

		_, _, err = svc.CreateRecord(ctx, "modules", map[string]interface{}{"id": "extra", "title": "Again"})
		assert.Equal(t, errcodes.Conflict("A record with that id already exists."), err)
	})

	t.Run("database assigned id", func(t *testing.T) {
		record, _, err := svc.CreateRecord(ctx, "upcoming_events", map[string]interface{}{
			"title":      "Meetup",
			"event_date": "2026-11-01",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), record.ID)
		assert.Equal(t, "Meetup", record.Label)
	})

	t.Run("required fields", func(t *testing.T) {
		_, _, err := svc.CreateRecord(ctx, "modules", map[string]interface{}{"id": "nameless"})
		assert.Equal(t, errcodes.ValidationError(`"title" is required.`), err)
	})

	t.Run("foreign keys", func(t *testing.T) {
		_, _, err := svc.CreateRecord(ctx, "chapters", map[string]interface{}{
			"id":        "orphan",
			"module_id": "missing",
			"title":     "Orphan",
		})
		assert.Equal(t, errcodes.ValidationError("A referenced record does not exist."), err)
	})
}

func TestDeleteRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	seedModules(t, db)
	svc := NewService(db, nil)

	require.NoError(t, svc.DeleteRecord(ctx, "modules", "intro"))

	// Chapters go with their module.
	count, err := db.NewSelect().Model((*models.Chapter)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.Equal(t, errcodes.NotFound("Record"), svc.DeleteRecord(ctx, "modules", "intro"))
	assert.Equal(t, errcodes.NotFound("Table"), svc.DeleteRecord(ctx, "users", "1"))
}

func TestNewForm(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(newTestDB(t), nil)

	form, err := svc.NewForm(ctx, "modules")
	require.NoError(t, err)
	assert.Equal(t, "New Modules", form.Title)
	require.NotEmpty(t, form.Fields)
	assert.Equal(t, "id", form.Fields[0].Name)
	assert.False(t, form.Fields[0].ReadOnly)
	for _, f := range form.Fields {
		assert.NotEqual(t, "created_at", f.Name)
	}

	form, err = svc.NewForm(ctx, "upcoming_events")
	require.NoError(t, err)
	for _, f := range form.Fields {
		assert.NotEqual(t, "id", f.Name)
	}
}
