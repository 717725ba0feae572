package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PostgresStore implements Store and SignalSource with PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed business store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Compile-time interface checks
var (
	_ Store        = (*PostgresStore)(nil)
	_ SignalSource = (*PostgresStore)(nil)
)

// Migrate creates the businesses table
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS businesses (
			id              BIGSERIAL PRIMARY KEY,
			name            VARCHAR(200) NOT NULL,
			category        VARCHAR(100) NOT NULL,
			neighborhood    VARCHAR(100) NOT NULL,
			address         VARCHAR(500) NOT NULL,
			phone           VARCHAR(20),
			website         VARCHAR(500),
			description     TEXT,
			tags_csv        VARCHAR(500),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses(category);
		CREATE INDEX IF NOT EXISTS idx_businesses_neighborhood ON businesses(neighborhood);
		CREATE INDEX IF NOT EXISTS idx_businesses_name ON businesses(LOWER(name));
	`)
	return err
}

// Create persists a new business, assigning an ID
func (p *PostgresStore) Create(ctx context.Context, b *Business) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO businesses (name, category, neighborhood, address, phone, website, description, tags_csv, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, b.Name, b.Category, b.Neighborhood, b.Address, nullable(b.Phone), nullable(b.Website),
		nullable(b.Description), nullable(b.TagsCSV), b.CreatedAt).Scan(&b.ID)
}

// Get retrieves a business by ID
func (p *PostgresStore) Get(ctx context.Context, id int64) (*Business, error) {
	b := &Business{}
	var phone, website, description, tagsCSV sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, category, neighborhood, address, phone, website, description, tags_csv, created_at
		FROM businesses WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Category, &b.Neighborhood, &b.Address,
		&phone, &website, &description, &tagsCSV, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Phone, b.Website, b.Description, b.TagsCSV = phone.String, website.String, description.String, tagsCSV.String
	return b, nil
}

// List returns businesses matching the options
func (p *PostgresStore) List(ctx context.Context, opts ListOptions) ([]*Business, error) {
	var conds []string
	var args []interface{}

	if opts.Category != "" {
		args = append(args, opts.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if opts.Neighborhood != "" {
		args = append(args, opts.Neighborhood)
		conds = append(conds, fmt.Sprintf("neighborhood = $%d", len(args)))
	}
	if opts.Search != "" {
		args = append(args, "%"+strings.ToLower(opts.Search)+"%")
		conds = append(conds, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)))
	}

	q := `SELECT id, name, category, neighborhood, address, phone, website, description, tags_csv, created_at FROM businesses`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	switch opts.Sort {
	case "newest":
		q += " ORDER BY created_at DESC, id DESC"
	default:
		q += " ORDER BY LOWER(name) ASC"
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Business
	for rows.Next() {
		b := &Business{}
		var phone, website, description, tagsCSV sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &b.Category, &b.Neighborhood, &b.Address,
			&phone, &website, &description, &tagsCSV, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Phone, b.Website, b.Description, b.TagsCSV = phone.String, website.String, description.String, tagsCSV.String
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update saves changes to an existing business
func (p *PostgresStore) Update(ctx context.Context, b *Business) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE businesses
		SET name = $2, category = $3, neighborhood = $4, address = $5,
		    phone = $6, website = $7, description = $8, tags_csv = $9
		WHERE id = $1
	`, b.ID, b.Name, b.Category, b.Neighborhood, b.Address,
		nullable(b.Phone), nullable(b.Website), nullable(b.Description), nullable(b.TagsCSV))
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

// Delete removes a business; reviews, favorites, and deals cascade
func (p *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = $1`, id)
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

// Count returns the number of businesses
func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses`).Scan(&n)
	return n, err
}

// Signals returns the aggregate snapshot (rating average, review count,
// active-deal flag) per business, optionally narrowed by hard filters.
func (p *PostgresStore) Signals(ctx context.Context, filter SignalFilter) ([]Signal, error) {
	var conds []string
	var args []interface{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("b.category = $%d", len(args)))
	}
	if filter.Neighborhood != "" {
		args = append(args, filter.Neighborhood)
		conds = append(conds, fmt.Sprintf("b.neighborhood = $%d", len(args)))
	}

	q := `
		SELECT b.id, b.name, b.category, b.neighborhood, b.address, b.tags_csv,
		       COALESCE(AVG(r.rating), 0) AS avg_rating,
		       COUNT(DISTINCT r.id) AS review_count,
		       COUNT(DISTINCT d.id) > 0 AS has_active_deals
		FROM businesses b
		LEFT JOIN reviews r ON r.business_id = b.id
		LEFT JOIN deals d ON d.business_id = b.id AND d.is_active = TRUE`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " GROUP BY b.id ORDER BY b.id ASC"

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Signal
	for rows.Next() {
		var s Signal
		var tagsCSV sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Neighborhood, &s.Address,
			&tagsCSV, &s.AvgRating, &s.ReviewCount, &s.HasActiveDeals); err != nil {
			return nil, err
		}
		s.TagsCSV = tagsCSV.String
		s.Tags = ParseTags(s.TagsCSV)
		out = append(out, s)
	}
	return out, rows.Err()
}

// nullable maps empty strings to SQL NULL
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
