package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cafe-finder/internal/model"
)

var userColumns = []string{
	"id", "username", "admin", "email", "first_name", "last_name",
	"description", "image_url", "hashed_password",
}

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts u and sets its ID.  The unique index on username turns a
// duplicate into ErrUsernameTaken.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.WithDefaults()
	q, args, err := sq.Insert("users").
		Columns("username", "admin", "email", "first_name", "last_name", "description", "image_url", "hashed_password").
		Values(u.Username, u.Admin, u.Email, u.FirstName, u.LastName, u.Description, u.ImageURL, u.HashedPassword).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if mysqlErrorNumber(err) == mysqlDuplicateEntry {
			return ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, sq.Eq{"username": username})
}

func (r *UserRepo) getOne(ctx context.Context, where sq.Eq) (*model.User, error) {
	q, args, err := sq.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := r.db.GetContext(ctx, &u, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
