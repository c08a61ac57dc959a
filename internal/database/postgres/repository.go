package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
)

type urlRecord struct {
	ID             int64        `db:"id"`
	ShortCode      string       `db:"short_code"`
	OriginalURL    string       `db:"original_url"`
	ClickCount     int64        `db:"click_count"`
	CreatedAt      time.Time    `db:"created_at"`
	LastAccessedAt sql.NullTime `db:"last_accessed_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	url := &models.URL{
		ID:          r.ID,
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		ClickCount:  r.ClickCount,
		CreatedAt:   r.CreatedAt,
	}

	if r.LastAccessedAt.Valid {
		t := r.LastAccessedAt.Time
		url.LastAccessedAt = &t
	}

	return url
}

type upsertRecord struct {
	urlRecord
	Inserted bool `db:"inserted"`
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// CreateIfAbsent inserts a new record for originalURL with the given short code,
// or returns the existing record if the URL has already been shortened. The
// upsert is a single statement so that concurrent requests for the same URL
// converge on one record without a read-then-write race. A collision on the
// short code itself is reported as database.ErrShortCodeExists so the caller
// can regenerate.
func (r *URLRepository) CreateIfAbsent(ctx context.Context, originalURL, shortCode string) (*models.URL, bool, error) {
	const op = "database.postgres.URLRepository.CreateIfAbsent"

	rec := new(upsertRecord)
	query := `INSERT INTO urls(original_url, short_code)
		VALUES ($1, $2)
		ON CONFLICT (original_url) DO UPDATE SET original_url = EXCLUDED.original_url
		RETURNING id, short_code, original_url, click_count, created_at, last_accessed_at, (xmax = 0) AS inserted`

	err := r.db.GetContext(ctx, rec, query, originalURL, shortCode)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, false, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, false, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), rec.Inserted, nil
}

// GetByShortCode retrieves a record without touching its click statistics.
func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT id, short_code, original_url, click_count, created_at, last_accessed_at
		FROM urls
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// RecordAccess atomically increments the click count and stamps the access
// time. The increment happens inside the statement, never as a load-modify-store
// at the caller, so concurrent redirects to the same code lose no updates.
func (r *URLRepository) RecordAccess(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.RecordAccess"

	rec := new(urlRecord)
	query := `UPDATE urls
		SET click_count = click_count + 1, last_accessed_at = now()
		WHERE short_code = $1
		RETURNING id, short_code, original_url, click_count, created_at, last_accessed_at`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to record access: %w", op, err)
	}

	return rec.ToURL(), nil
}

// NextCodeID returns the next value of the short code sequence used by the
// sequential generation strategy.
func (r *URLRepository) NextCodeID(ctx context.Context) (int64, error) {
	const op = "database.postgres.URLRepository.NextCodeID"

	var id int64

	err := r.db.GetContext(ctx, &id, `SELECT nextval('short_code_seq')`)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to fetch next code id: %w", op, err)
	}

	return id, nil
}
