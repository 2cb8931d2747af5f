package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cafe-finder/internal/database"
	"github.com/iliyamo/cafe-finder/internal/model"
)

var cafeColumns = []string{"id", "name", "description", "url", "address", "city_code", "image_url"}

// CafeRepo encapsulates all database queries related to cafes.
type CafeRepo struct {
	db *sqlx.DB
}

// NewCafeRepo constructs a CafeRepo with the provided DB handle.
func NewCafeRepo(db *sqlx.DB) *CafeRepo {
	return &CafeRepo{db: db}
}

// ListOrderedByName returns all cafes sorted by name.
func (r *CafeRepo) ListOrderedByName(ctx context.Context) ([]model.Cafe, error) {
	q, args, err := sq.Select(cafeColumns...).From("cafes").OrderBy("name").ToSql()
	if err != nil {
		return nil, err
	}
	out := []model.Cafe{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("list cafes: %w", err)
	}
	return out, nil
}

// GetByID fetches a cafe by its primary key.  It returns ErrCafeNotFound
// if no row is found.
func (r *CafeRepo) GetByID(ctx context.Context, id int64) (*model.Cafe, error) {
	q, args, err := sq.Select(cafeColumns...).From("cafes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var c model.Cafe
	if err := r.db.GetContext(ctx, &c, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCafeNotFound
		}
		return nil, fmt.Errorf("get cafe %d: %w", id, err)
	}
	return &c, nil
}

// Create inserts a new cafe.  A blank image URL is replaced by the default
// picture, and on success c.ID holds the generated key.
func (r *CafeRepo) Create(ctx context.Context, c *model.Cafe) error {
	c.WithDefaults()
	q, args, err := sq.Insert("cafes").
		Columns("name", "description", "url", "address", "city_code", "image_url").
		Values(c.Name, c.Description, c.URL, c.Address, c.CityCode, c.ImageURL).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return cafeWriteError("create cafe", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// Update overwrites every editable column of the cafe identified by c.ID.
// The row is locked first so a missing cafe yields ErrCafeNotFound without
// touching the table.
func (r *CafeRepo) Update(ctx context.Context, c *model.Cafe) error {
	c.WithDefaults()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		q, args, err := sq.Select("id").From("cafes").Where(sq.Eq{"id": c.ID}).Suffix("FOR UPDATE").ToSql()
		if err != nil {
			return err
		}
		var id int64
		if err := tx.GetContext(ctx, &id, q, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCafeNotFound
			}
			return fmt.Errorf("lock cafe %d: %w", c.ID, err)
		}

		q, args, err = sq.Update("cafes").
			SetMap(map[string]interface{}{
				"name":        c.Name,
				"description": c.Description,
				"url":         c.URL,
				"address":     c.Address,
				"city_code":   c.CityCode,
				"image_url":   c.ImageURL,
			}).
			Where(sq.Eq{"id": c.ID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return cafeWriteError("update cafe", err)
		}
		return nil
	})
}

func cafeWriteError(op string, err error) error {
	if mysqlErrorNumber(err) == mysqlNoReferencedRow {
		return fmt.Errorf("%s: %w", op, ErrCityNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
