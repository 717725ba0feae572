package profiles

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

// NewPostgresStore creates a PostgreSQL-backed profile store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the profiles table
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			id         BIGSERIAL PRIMARY KEY,
			nickname   VARCHAR(100) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_nickname ON profiles(LOWER(nickname));
	`)
	return err
}

// Create persists a profile, mapping unique violations to ErrNicknameTaken
func (p *PostgresStore) Create(ctx context.Context, profile *Profile) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO profiles (nickname, created_at) VALUES ($1, $2) RETURNING id
	`, profile.Nickname, profile.CreatedAt).Scan(&profile.ID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrNicknameTaken
	}
	return err
}

// Get retrieves a profile by ID
func (p *PostgresStore) Get(ctx context.Context, id int64) (*Profile, error) {
	profile := &Profile{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, nickname, created_at FROM profiles WHERE id = $1
	`, id).Scan(&profile.ID, &profile.Nickname, &profile.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetByNickname retrieves a profile by nickname, case-insensitively
func (p *PostgresStore) GetByNickname(ctx context.Context, nickname string) (*Profile, error) {
	profile := &Profile{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, nickname, created_at FROM profiles WHERE LOWER(nickname) = LOWER($1)
	`, nickname).Scan(&profile.ID, &profile.Nickname, &profile.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Count returns the number of profiles
func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n)
	return n, err
}
