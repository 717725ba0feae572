package favorites

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// PostgresStore implements Store with PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed favorites store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the favorites table
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS favorites (
			id          BIGSERIAL PRIMARY KEY,
			profile_id  BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			business_id BIGINT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (profile_id, business_id)
		);
	`)
	return err
}

// Create persists a favorite, mapping unique violations to ErrAlreadyFavorited
func (p *PostgresStore) Create(ctx context.Context, f *Favorite) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO favorites (profile_id, business_id, created_at)
		VALUES ($1, $2, $3) RETURNING id
	`, f.ProfileID, f.BusinessID, f.CreatedAt).Scan(&f.ID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrAlreadyFavorited
	}
	return err
}

// Delete removes a favorite
func (p *PostgresStore) Delete(ctx context.Context, profileID, businessID int64) error {
	res, err := p.db.ExecContext(ctx, `
		DELETE FROM favorites WHERE profile_id = $1 AND business_id = $2
	`, profileID, businessID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByProfile returns the profile's favorites, newest first
func (p *PostgresStore) ListByProfile(ctx context.Context, profileID int64) ([]*Favorite, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, profile_id, business_id, created_at
		FROM favorites WHERE profile_id = $1
		ORDER BY created_at DESC, id DESC
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Favorite
	for rows.Next() {
		f := &Favorite{}
		if err := rows.Scan(&f.ID, &f.ProfileID, &f.BusinessID, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountByBusiness returns favorite counts keyed by business ID
func (p *PostgresStore) CountByBusiness(ctx context.Context) (map[int64]int, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT business_id, COUNT(*) FROM favorites GROUP BY business_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var businessID int64
		var n int
		if err := rows.Scan(&businessID, &n); err != nil {
			return nil, err
		}
		counts[businessID] = n
	}
	return counts, rows.Err()
}
