package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cafe-finder/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

var cafeRowColumns = []string{"id", "name", "description", "url", "address", "city_code", "image_url"}

func TestCafeRepoListOrderedByName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCafeRepo(db)

	mock.ExpectQuery(`SELECT (.+) FROM cafes ORDER BY name`).
		WillReturnRows(sqlmock.NewRows(cafeRowColumns).
			AddRow(2, "Arbor", "", "", "1 Elm", "berk", model.DefaultCafeImage).
			AddRow(1, "Bean", "Good coffee", "http://bean.test", "2 Oak", "sf", "http://img.test/b.jpg"))

	cafes, err := repo.ListOrderedByName(context.Background())
	require.NoError(t, err)
	require.Len(t, cafes, 2)
	assert.Equal(t, "Arbor", cafes[0].Name)
	assert.Equal(t, "sf", cafes[1].CityCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCafeRepoGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCafeRepo(db)

	t.Run("existing cafe", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM cafes WHERE id = \?`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(cafeRowColumns).
				AddRow(1, "Bean", "Good coffee", "http://bean.test", "2 Oak", "sf", "http://img.test/b.jpg"))

		cafe, err := repo.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, model.Cafe{
			ID: 1, Name: "Bean", Description: "Good coffee", URL: "http://bean.test",
			Address: "2 Oak", CityCode: "sf", ImageURL: "http://img.test/b.jpg",
		}, *cafe)
	})

	t.Run("missing cafe", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM cafes WHERE id = \?`).
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		cafe, err := repo.GetByID(context.Background(), 99)
		assert.Nil(t, cafe)
		assert.ErrorIs(t, err, ErrCafeNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCafeRepoCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCafeRepo(db)

	t.Run("defaults the image and sets the id", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO cafes`).
			WithArgs("Bean", "", "", "2 Oak", "sf", model.DefaultCafeImage).
			WillReturnResult(sqlmock.NewResult(7, 1))

		cafe := &model.Cafe{Name: "Bean", Address: "2 Oak", CityCode: "sf"}
		require.NoError(t, repo.Create(context.Background(), cafe))
		assert.Equal(t, int64(7), cafe.ID)
		assert.Equal(t, model.DefaultCafeImage, cafe.ImageURL)
	})

	t.Run("unknown city", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO cafes`).
			WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

		err := repo.Create(context.Background(), &model.Cafe{Name: "Bean", Address: "2 Oak", CityCode: "zz"})
		assert.ErrorIs(t, err, ErrCityNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCafeRepoUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCafeRepo(db)

	t.Run("overwrites every column", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM cafes WHERE id = \? FOR UPDATE`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectExec(`UPDATE cafes SET (.+) WHERE id = \?`).
			WithArgs("9 Pine", "oak", "New", model.DefaultCafeImage, "Renamed", "http://new.test", int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Update(context.Background(), &model.Cafe{
			ID: 3, Name: "Renamed", Description: "New", URL: "http://new.test",
			Address: "9 Pine", CityCode: "oak",
		})
		require.NoError(t, err)
	})

	t.Run("missing cafe rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM cafes WHERE id = \? FOR UPDATE`).
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := repo.Update(context.Background(), &model.Cafe{ID: 404, Name: "Ghost", Address: "x", CityCode: "sf"})
		assert.ErrorIs(t, err, ErrCafeNotFound)
	})

	t.Run("driver failure is wrapped", func(t *testing.T) {
		boom := errors.New("connection reset")
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM cafes WHERE id = \? FOR UPDATE`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectExec(`UPDATE cafes`).WillReturnError(boom)
		mock.ExpectRollback()

		err := repo.Update(context.Background(), &model.Cafe{ID: 3, Name: "Bean", Address: "x", CityCode: "sf"})
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrCafeNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
