package reviews

import (
	"context"
	"database/sql"
)

// PostgresStore implements Store with PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed review store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the reviews table
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reviews (
			id           BIGSERIAL PRIMARY KEY,
			business_id  BIGINT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
			rating       INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
			title        VARCHAR(200) NOT NULL,
			body         TEXT NOT NULL,
			display_name VARCHAR(100) NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_reviews_business ON reviews(business_id);
	`)
	return err
}

// Create persists a review
func (p *PostgresStore) Create(ctx context.Context, r *Review) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO reviews (business_id, rating, title, body, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, r.BusinessID, r.Rating, r.Title, r.Body, r.DisplayName, r.CreatedAt).Scan(&r.ID)
}

// ListByBusiness returns reviews for one business, newest first
func (p *PostgresStore) ListByBusiness(ctx context.Context, businessID int64) ([]*Review, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, business_id, rating, title, body, display_name, created_at
		FROM reviews WHERE business_id = $1
		ORDER BY created_at DESC, id DESC
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

// List returns every review, newest first
func (p *PostgresStore) List(ctx context.Context) ([]*Review, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, business_id, rating, title, body, display_name, created_at
		FROM reviews ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

// Count returns the number of reviews
func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&n)
	return n, err
}

func scanReviews(rows *sql.Rows) ([]*Review, error) {
	var out []*Review
	for rows.Next() {
		r := &Review{}
		if err := rows.Scan(&r.ID, &r.BusinessID, &r.Rating, &r.Title, &r.Body, &r.DisplayName, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
