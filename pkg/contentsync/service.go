package contentsync

import (
	"context"

	"github.com/dacweb/dac/pkg/database"
	"github.com/dacweb/dac/pkg/metrics"
	"github.com/dacweb/dac/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type Result struct {
	Modules  int `json:"modules"`
	Chapters int `json:"chapters"`
}

type Service struct {
	db         *bun.DB
	maxRetries int
}

func NewService(db *bun.DB, maxRetries int) *Service {
	return &Service{db, maxRetries}
}

// Replace swaps every module and chapter for the document's contents in one
// transaction. If anything fails the previous content stays in place.
// Progress is keyed by chapter id and isn't touched.
func (svc *Service) Replace(ctx context.Context, doc *Document) (Result, error) {
	modules, chapters := toModels(doc)

	err := database.RunInTx(ctx, svc.db, svc.maxRetries, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*models.Chapter)(nil)).Where("1 = 1").Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to delete chapters")
		}
		_, err = tx.NewDelete().Model((*models.Module)(nil)).Where("1 = 1").Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to delete modules")
		}
		if len(modules) > 0 {
			if _, err := tx.NewInsert().Model(&modules).Exec(ctx); err != nil {
				return errors.Wrap(err, "failed to insert modules")
			}
		}
		if len(chapters) > 0 {
			if _, err := tx.NewInsert().Model(&chapters).Exec(ctx); err != nil {
				return errors.Wrap(err, "failed to insert chapters")
			}
		}
		return nil
	})
	metrics.RecordContentSync(err)
	if err != nil {
		return Result{}, err
	}

	res := Result{Modules: len(modules), Chapters: len(chapters)}
	logger.FromContext(ctx).Info("replaced learning content", logger.Data{
		"modules":  res.Modules,
		"chapters": res.Chapters,
	})
	return res, nil
}

func toModels(doc *Document) ([]*models.Module, []*models.Chapter) {
	modules := make([]*models.Module, 0, len(doc.Modules))
	chapters := []*models.Chapter{}
	for i, m := range doc.Modules {
		modules = append(modules, &models.Module{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Duration:    m.Duration,
			SortOrder:   i + 1,
		})
		for j, c := range m.Chapters {
			links := c.Links
			if links == nil {
				links = []interface{}{}
			}
			chapters = append(chapters, &models.Chapter{
				ID:          c.ID,
				ModuleID:    m.ID,
				Title:       c.Title,
				VideoID:     c.VideoID,
				Duration:    c.Duration,
				Description: c.Description,
				Links:       links,
				SortOrder:   j + 1,
			})
		}
	}
	return modules, chapters
}

// Export reads the stored content back as a document, in sort order.
func (svc *Service) Export(ctx context.Context) (*Document, error) {
	modules := []*models.Module{}
	err := svc.db.
		NewSelect().
		Model(&modules).
		Relation("Chapters", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("ch.sort_order ASC", "ch.id ASC")
		}).
		Order("m.sort_order ASC", "m.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	doc := &Document{Modules: make([]*Module, 0, len(modules))}
	for _, m := range modules {
		module := &Module{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Duration:    m.Duration,
			Chapters:    make([]*Chapter, 0, len(m.Chapters)),
		}
		for _, c := range m.Chapters {
			links := c.Links
			if links == nil {
				links = []interface{}{}
			}
			module.Chapters = append(module.Chapters, &Chapter{
				ID:          c.ID,
				Title:       c.Title,
				VideoID:     c.VideoID,
				Duration:    c.Duration,
				Description: c.Description,
				Links:       links,
			})
		}
		doc.Modules = append(doc.Modules, module)
	}
	return doc, nil
}
