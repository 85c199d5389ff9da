package users

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dacweb/dac/pkg/auth"
	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/dacweb/dac/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Service manages editor accounts.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

type CreateUserOptions struct {
	Email    string
	Password string
}

func (s *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	email := strings.TrimSpace(opts.Email)
	if err := s.checkEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		IsActive:     true,
	}
	_, err = s.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return s.Retrieve(ctx, user.ID)
}

func (s *Service) Retrieve(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("User")
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

type ListOptions struct {
	Limit           int
	Offset          int
	IncludeInactive bool
}

// List returns users ordered by id along with the total matching count.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.User, int, error) {
	users := []*models.User{}

	query := s.db.NewSelect().
		Model(&users).
		Order("u.id ASC")

	if !opts.IncludeInactive {
		query = query.Where("u.is_active = ?", true)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return users, total, nil
}

type UpdateOptions struct {
	Email    *string
	IsActive *bool
}

// Update changes the given fields and returns the fresh row. Nothing is
// written when no field differs.
func (s *Service) Update(ctx context.Context, id int, opts UpdateOptions) (*models.User, error) {
	user, err := s.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if opts.Email != nil {
		email := strings.TrimSpace(*opts.Email)
		if !strings.EqualFold(email, user.Email) {
			if err := s.checkEmailFree(ctx, email, id); err != nil {
				return nil, err
			}
		}
		if email != user.Email {
			user.Email = email
			columns = append(columns, "email")
		}
	}
	if opts.IsActive != nil && *opts.IsActive != user.IsActive {
		user.IsActive = *opts.IsActive
		columns = append(columns, "is_active")
	}
	if len(columns) == 0 {
		return user, nil
	}

	_, err = s.db.NewUpdate().
		Model(user).
		Column(columns...).
		Set("updated_at = CURRENT_TIMESTAMP").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return s.Retrieve(ctx, id)
}

func (s *Service) ResetPassword(ctx context.Context, userID int, newPassword string) error {
	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	res, err := s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hashedPassword).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("User")
	}

	return nil
}

func (s *Service) VerifyPassword(ctx context.Context, userID int, password string) (bool, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Column("password_hash").
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return auth.CheckPassword(password, user.PasswordHash), nil
}

// Deactivate is a soft delete. Deactivated users fail authentication on their
// next request.
func (s *Service) Deactivate(ctx context.Context, userID int) error {
	inactive := false
	_, err := s.Update(ctx, userID, UpdateOptions{IsActive: &inactive})
	return err
}

// ActiveCount returns the number of users that can still sign in.
func (s *Service) ActiveCount(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("is_active = ?", true).
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

func (s *Service) checkEmailFree(ctx context.Context, email string, exceptID int) error {
	query := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("email = ? COLLATE NOCASE", email)
	if exceptID != 0 {
		query = query.Where("id != ?", exceptID)
	}
	exists, err := query.Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.Conflict("A user with that email already exists")
	}
	return nil
}
