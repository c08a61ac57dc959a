package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/vadimbarashkov/shortly/internal/database"
)

var errUnknown = errors.New("unknown error")

var (
	columns       = []string{"id", "short_code", "original_url", "click_count", "created_at", "last_accessed_at"}
	upsertColumns = []string{"id", "short_code", "original_url", "click_count", "created_at", "last_accessed_at", "inserted"}
)

func setupURLRepository(t testing.TB) (*URLRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewURLRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestURLRepository_CreateIfAbsent(t *testing.T) {
	t.Run("short code exists", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("https://example.com", "k3F9p").
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		url, created, err := repo.CreateIfAbsent(context.TODO(), "https://example.com", "k3F9p")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrShortCodeExists)
		assert.False(t, created)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("https://example.com", "k3F9p").
			WillReturnError(errUnknown)

		url, created, err := repo.CreateIfAbsent(context.TODO(), "https://example.com", "k3F9p")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.False(t, created)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("new record inserted", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(upsertColumns).
			AddRow(int64(1), "k3F9p", "https://example.com", int64(0), time.Time{}, nil, true)
		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("https://example.com", "k3F9p").
			WillReturnRows(rows)

		url, created, err := repo.CreateIfAbsent(context.TODO(), "https://example.com", "k3F9p")

		assert.NoError(t, err)
		assert.True(t, created)
		assert.NotNil(t, url)
		assert.Equal(t, "k3F9p", url.ShortCode)
		assert.Equal(t, "https://example.com", url.OriginalURL)
		assert.Zero(t, url.ClickCount)
		assert.Nil(t, url.LastAccessedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing record returned", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(upsertColumns).
			AddRow(int64(1), "k3F9p", "https://example.com", int64(42), time.Time{}, time.Now(), false)
		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("https://example.com", "Xy12Z").
			WillReturnRows(rows)

		url, created, err := repo.CreateIfAbsent(context.TODO(), "https://example.com", "Xy12Z")

		assert.NoError(t, err)
		assert.False(t, created)
		assert.NotNil(t, url)
		assert.Equal(t, "k3F9p", url.ShortCode, "must return the winner's code, not the losing candidate")
		assert.Equal(t, int64(42), url.ClickCount)
		assert.NotNil(t, url.LastAccessedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_GetByShortCode(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM urls`).
			WithArgs("k3F9p").
			WillReturnError(sql.ErrNoRows)

		url, err := repo.GetByShortCode(context.TODO(), "k3F9p")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM urls`).
			WithArgs("k3F9p").
			WillReturnError(errUnknown)

		url, err := repo.GetByShortCode(context.TODO(), "k3F9p")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(int64(1), "k3F9p", "https://example.com", int64(3), time.Time{}, nil)
		mock.ExpectQuery(`SELECT (.+) FROM urls`).
			WithArgs("k3F9p").
			WillReturnRows(rows)

		url, err := repo.GetByShortCode(context.TODO(), "k3F9p")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, "k3F9p", url.ShortCode)
		assert.Equal(t, "https://example.com", url.OriginalURL)
		assert.Equal(t, int64(3), url.ClickCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_RecordAccess(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`UPDATE urls`).
			WithArgs("k3F9p").
			WillReturnError(sql.ErrNoRows)

		url, err := repo.RecordAccess(context.TODO(), "k3F9p")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`UPDATE urls`).
			WithArgs("k3F9p").
			WillReturnError(errUnknown)

		url, err := repo.RecordAccess(context.TODO(), "k3F9p")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		accessedAt := time.Now()
		rows := sqlmock.NewRows(columns).
			AddRow(int64(1), "k3F9p", "https://example.com", int64(1), time.Time{}, accessedAt)
		mock.ExpectQuery(`UPDATE urls`).
			WithArgs("k3F9p").
			WillReturnRows(rows)

		url, err := repo.RecordAccess(context.TODO(), "k3F9p")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, int64(1), url.ClickCount)
		assert.NotNil(t, url.LastAccessedAt)
		assert.Equal(t, accessedAt, *url.LastAccessedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_NextCodeID(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT nextval`).
			WillReturnError(errUnknown)

		id, err := repo.NextCodeID(context.TODO())

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Zero(t, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows([]string{"nextval"}).AddRow(int64(12345))
		mock.ExpectQuery(`SELECT nextval`).
			WillReturnRows(rows)

		id, err := repo.NextCodeID(context.TODO())

		assert.NoError(t, err)
		assert.Equal(t, int64(12345), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
