package users

import (
	"context"
	"database/sql"
	"time"

	"github.com/elibbooks/elib/pkg/errcodes"
	"github.com/elibbooks/elib/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveUserOptions struct {
	ID       *int
	Username *string
}

type UpdateUserOptions struct {
	Columns []string
}

// Service handles user profile operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new users service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

func (svc *Service) Retrieve(ctx context.Context, opts RetrieveUserOptions) (*models.User, error) {
	user := &models.User{}

	q := svc.db.
		NewSelect().
		Model(user)

	if opts.ID != nil {
		q = q.Where("u.id = ?", *opts.ID)
	}
	if opts.Username != nil {
		q = q.Where("u.username = ? COLLATE NOCASE", *opts.Username)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}

	return user, nil
}

func (svc *Service) Update(ctx context.Context, user *models.User, opts UpdateUserOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	user.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("User")
		}
		return errors.WithStack(err)
	}

	return nil
}
