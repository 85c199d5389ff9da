package site

import (
	"context"
	"strings"
	"time"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/dacweb/dac/pkg/fallback"
	"github.com/dacweb/dac/pkg/htmlutil"
	"github.com/dacweb/dac/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type Service struct {
	db       *bun.DB
	fallback *fallback.Loader
	now      func() time.Time
}

func NewService(db *bun.DB, loader *fallback.Loader) *Service {
	return &Service{db, loader, time.Now}
}

// ListEvents returns upcoming events by date, falling back to the local
// document when the database can't be read.
func (svc *Service) ListEvents(ctx context.Context) ([]*models.Event, error) {
	events := []*models.Event{}
	err := svc.db.
		NewSelect().
		Model(&events).
		Order("ev.event_date ASC").
		Scan(ctx)
	if err == nil {
		return events, nil
	}

	logger.FromContext(ctx).Err(err).Warn("failed to load events, using fallback data")
	if svc.fallback != nil {
		if events, ferr := svc.fallback.LoadEvents(); ferr == nil {
			return events, nil
		}
	}
	return nil, errcodes.ServiceUnavailable("Failed to load events.")
}

// ListTeam returns the team roster in display order, with the same fallback
// behavior as ListEvents.
func (svc *Service) ListTeam(ctx context.Context) ([]*models.TeamMember, error) {
	members := []*models.TeamMember{}
	err := svc.db.
		NewSelect().
		Model(&members).
		Order("tm.sort_order ASC", "tm.id ASC").
		Scan(ctx)
	if err == nil {
		return members, nil
	}

	logger.FromContext(ctx).Err(err).Warn("failed to load team members, using fallback data")
	if svc.fallback != nil {
		if members, ferr := svc.fallback.LoadTeam(); ferr == nil {
			return members, nil
		}
	}
	return nil, errcodes.ServiceUnavailable("Failed to load team members.")
}

// SubmitContact stores a message from the contact form. Markup is stripped
// from the name and message, and all fields are required afterwards.
func (svc *Service) SubmitContact(ctx context.Context, name, email, message string) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:        htmlutil.StripTags(name),
		Email:       strings.TrimSpace(email),
		Message:     htmlutil.StripTags(message),
		SubmittedAt: svc.now().UTC(),
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, errcodes.ValidationError("Please fill in all fields.")
	}

	_, err := svc.db.
		NewInsert().
		Model(msg).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return msg, nil
}
