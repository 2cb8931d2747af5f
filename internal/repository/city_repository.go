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

var cityColumns = []string{"code", "name", "state"}

// CityRepo reads the seeded cities table.
type CityRepo struct {
	db *sqlx.DB
}

func NewCityRepo(db *sqlx.DB) *CityRepo {
	return &CityRepo{db: db}
}

// ListOrderedByName returns every city sorted by name.  The cafe form uses
// it as the vocabulary of valid city codes.
func (r *CityRepo) ListOrderedByName(ctx context.Context) ([]model.City, error) {
	q, args, err := sq.Select(cityColumns...).From("cities").OrderBy("name").ToSql()
	if err != nil {
		return nil, err
	}
	out := []model.City{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return out, nil
}

// GetByCode fetches one city.  It returns ErrCityNotFound if no row matches.
func (r *CityRepo) GetByCode(ctx context.Context, code string) (*model.City, error) {
	q, args, err := sq.Select(cityColumns...).From("cities").Where(sq.Eq{"code": code}).ToSql()
	if err != nil {
		return nil, err
	}
	var c model.City
	if err := r.db.GetContext(ctx, &c, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("get city %q: %w", code, err)
	}
	return &c, nil
}
