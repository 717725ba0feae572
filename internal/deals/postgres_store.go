package deals

import (
	"context"
	"database/sql"
	"time"
)

// PostgresStore implements Store with PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed deal store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the deals table
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS deals (
			id          BIGSERIAL PRIMARY KEY,
			business_id BIGINT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
			title       VARCHAR(200) NOT NULL,
			description TEXT NOT NULL,
			coupon_code VARCHAR(100),
			expires_on  TIMESTAMPTZ,
			is_active   BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE INDEX IF NOT EXISTS idx_deals_business ON deals(business_id);
		CREATE INDEX IF NOT EXISTS idx_deals_active ON deals(is_active) WHERE is_active;
	`)
	return err
}

// Create persists a deal
func (p *PostgresStore) Create(ctx context.Context, d *Deal) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO deals (business_id, title, description, coupon_code, expires_on, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, d.BusinessID, d.Title, d.Description, nullString(d.CouponCode), d.ExpiresOn, d.IsActive).Scan(&d.ID)
}

// Get retrieves a deal by ID
func (p *PostgresStore) Get(ctx context.Context, id int64) (*Deal, error) {
	d := &Deal{}
	var coupon sql.NullString
	var expires sql.NullTime
	err := p.db.QueryRowContext(ctx, `
		SELECT id, business_id, title, description, coupon_code, expires_on, is_active
		FROM deals WHERE id = $1
	`, id).Scan(&d.ID, &d.BusinessID, &d.Title, &d.Description, &coupon, &expires, &d.IsActive)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.CouponCode = coupon.String
	if expires.Valid {
		t := expires.Time
		d.ExpiresOn = &t
	}
	return d, nil
}

// Update saves changes to an existing deal
func (p *PostgresStore) Update(ctx context.Context, d *Deal) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE deals
		SET business_id = $2, title = $3, description = $4, coupon_code = $5, expires_on = $6, is_active = $7
		WHERE id = $1
	`, d.ID, d.BusinessID, d.Title, d.Description, nullString(d.CouponCode), d.ExpiresOn, d.IsActive)
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

// Delete removes a deal
func (p *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
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

// List returns every deal ordered by ID
func (p *PostgresStore) List(ctx context.Context) ([]*Deal, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, business_id, title, description, coupon_code, expires_on, is_active
		FROM deals ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Deal
	for rows.Next() {
		d := &Deal{}
		var coupon sql.NullString
		var expires sql.NullTime
		if err := rows.Scan(&d.ID, &d.BusinessID, &d.Title, &d.Description, &coupon, &expires, &d.IsActive); err != nil {
			return nil, err
		}
		d.CouponCode = coupon.String
		if expires.Valid {
			t := expires.Time
			d.ExpiresOn = &t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListActive returns live deals joined with business data
func (p *PostgresStore) ListActive(ctx context.Context, now time.Time) ([]*ActiveDeal, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT d.id, d.business_id, d.title, d.description, d.coupon_code, d.expires_on, d.is_active,
		       b.name, b.category, b.neighborhood, b.address
		FROM deals d
		JOIN businesses b ON b.id = d.business_id
		WHERE d.is_active = TRUE AND (d.expires_on IS NULL OR d.expires_on > $1)
		ORDER BY d.expires_on DESC NULLS LAST, d.id ASC
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ActiveDeal
	for rows.Next() {
		ad := &ActiveDeal{}
		var coupon sql.NullString
		var expires sql.NullTime
		if err := rows.Scan(&ad.ID, &ad.BusinessID, &ad.Title, &ad.Description, &coupon, &expires, &ad.IsActive,
			&ad.BusinessName, &ad.Category, &ad.Neighborhood, &ad.Address); err != nil {
			return nil, err
		}
		ad.CouponCode = coupon.String
		if expires.Valid {
			t := expires.Time
			ad.ExpiresOn = &t
		}
		out = append(out, ad)
	}
	return out, rows.Err()
}

// Count returns the number of deals
func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals`).Scan(&n)
	return n, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
