package learning

import (
	"context"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/dacweb/dac/pkg/fallback"
	"github.com/dacweb/dac/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"golang.org/x/sync/singleflight"
)

const loadFailedMessage = "Failed to load learning data."

type RetrieveModuleOptions struct {
	ID        *string
	ChapterID *string
}

type Service struct {
	db       *bun.DB
	fallback *fallback.Loader
	group    singleflight.Group
}

func NewService(db *bun.DB, loader *fallback.Loader) *Service {
	return &Service{db: db, fallback: loader}
}

// ListModules returns every module with its chapters, both in sort order. When
// the database can't be read the local fallback document is used instead.
// Concurrent callers share one load, so the result must be treated as read
// only.
func (svc *Service) ListModules(ctx context.Context) ([]*models.Module, error) {
	// The shared load outlives any one caller's cancellation.
	v, err, _ := svc.group.Do("modules", func() (interface{}, error) {
		return svc.loadModules(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Module), nil
}

func (svc *Service) loadModules(ctx context.Context) ([]*models.Module, error) {
	modules, err := svc.listFromDB(ctx)
	if err == nil {
		return modules, nil
	}

	log := logger.FromContext(ctx)
	log.Err(err).Warn("failed to load modules, using fallback data")

	if svc.fallback == nil {
		return nil, errcodes.ServiceUnavailable(loadFailedMessage)
	}
	modules, ferr := svc.fallback.LoadLearning()
	if ferr != nil {
		log.Err(ferr).Error("failed to load fallback learning data")
		return nil, errcodes.ServiceUnavailable(loadFailedMessage)
	}
	return modules, nil
}

func (svc *Service) listFromDB(ctx context.Context) ([]*models.Module, error) {
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
	for _, m := range modules {
		normalizeChapters(m)
	}
	return modules, nil
}

// RetrieveModule finds a single module, either by its own id or by the id of
// one of its chapters. It goes through ListModules so that playback keeps
// working off the fallback document too.
func (svc *Service) RetrieveModule(ctx context.Context, opts RetrieveModuleOptions) (*models.Module, error) {
	modules, err := svc.ListModules(ctx)
	if err != nil {
		return nil, err
	}

	for _, m := range modules {
		if opts.ID != nil && m.ID == *opts.ID {
			return m, nil
		}
		if opts.ChapterID != nil && m.ChapterIndex(*opts.ChapterID) >= 0 {
			return m, nil
		}
	}

	if opts.ChapterID != nil {
		return nil, errcodes.NotFound("Chapter")
	}
	return nil, errcodes.NotFound("Module")
}

func normalizeChapters(m *models.Module) {
	if m.Chapters == nil {
		m.Chapters = []*models.Chapter{}
	}
	for _, ch := range m.Chapters {
		if ch.Links == nil {
			ch.Links = []interface{}{}
		}
	}
}
