package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/matchpoint/court-booking/internal/model"
)

// CourtRepo provides persistence for the courts table.
type CourtRepo struct{ db *sql.DB }

func NewCourtRepo(db *sql.DB) *CourtRepo { return &CourtRepo{db: db} }

const courtColumns = `id, owner_id, name, sport, description, price_per_hour,
	open_hour, close_hour, is_active, created_at, updated_at`

func scanCourt(row interface{ Scan(...any) error }) (model.Court, error) {
	var (
		c    model.Court
		desc sql.NullString
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Sport, &desc, &c.PricePerHour,
		&c.OpenHour, &c.CloseHour, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Court{}, err
	}
	if desc.Valid {
		c.Description = &desc.String
	}
	return c, nil
}

// Create inserts a court and reads the row back so defaults and timestamps
// are populated on the returned value.
func (r *CourtRepo) Create(ctx context.Context, c *model.Court) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO courts (owner_id, name, sport, description, price_per_hour, open_hour, close_hour)
		 VALUES (?,?,?,?,?,?,?)`,
		c.OwnerID, c.Name, c.Sport, c.Description, c.PricePerHour, c.OpenHour, c.CloseHour)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := scanCourt(r.db.QueryRowContext(ctx,
		"SELECT "+courtColumns+" FROM courts WHERE id=?", id))
	if err != nil {
		return err
	}
	*c = got
	return nil
}

// GetByID returns a court regardless of its active flag; callers that only
// accept bookable courts must check IsActive themselves.
func (r *CourtRepo) GetByID(ctx context.Context, id uint64) (model.Court, error) {
	c, err := scanCourt(r.db.QueryRowContext(ctx,
		"SELECT "+courtColumns+" FROM courts WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Court{}, ErrCourtNotFound
	}
	return c, err
}

// ListByOwner returns all courts belonging to an owner.
func (r *CourtRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Court, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+courtColumns+" FROM courts WHERE owner_id=? ORDER BY id", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Court
	for rows.Next() {
		c, err := scanCourt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner updates court fields when the court belongs to the
// given owner.  ErrCourtNotFound covers both a missing court and one owned
// by someone else.
func (r *CourtRepo) UpdateByIDAndOwner(ctx context.Context, c *model.Court) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE courts
		 SET name=?, sport=?, description=?, price_per_hour=?, open_hour=?, close_hour=?, is_active=?
		 WHERE id=? AND owner_id=?`,
		c.Name, c.Sport, c.Description, c.PricePerHour, c.OpenHour, c.CloseHour, c.IsActive,
		c.ID, c.OwnerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCourtNotFound
	}
	return nil
}

// DeactivateByIDAndOwner soft-deletes a court.  Existing bookings keep
// their history; the court simply stops being bookable or listed.
func (r *CourtRepo) DeactivateByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE courts SET is_active=0 WHERE id=? AND owner_id=?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCourtNotFound
	}
	return nil
}

// CourtSearchQuery defines filters and pagination for the public browse API.
type CourtSearchQuery struct {
	Sport    string
	Text     string
	Page     int
	PageSize int
}

// PublicCourtRow is the public projection of a court including its
// aggregated review rating.
type PublicCourtRow struct {
	ID           uint64   `json:"id"`
	Name         string   `json:"name"`
	Sport        string   `json:"sport"`
	Description  *string  `json:"description,omitempty"`
	PricePerHour float64  `json:"price_per_hour"`
	OpenHour     string   `json:"open_hour"`
	CloseHour    string   `json:"close_hour"`
	AvgRating    *float64 `json:"avg_rating,omitempty"`
	ReviewCount  int64    `json:"review_count"`
}

// Search returns active courts matching the query plus the total match
// count for pagination.  Ratings come from a grouped LEFT JOIN on reviews.
func (r *CourtRepo) Search(ctx context.Context, q CourtSearchQuery) ([]PublicCourtRow, int64, error) {
	where := []string{"c.is_active = 1"}
	args := []any{}

	if q.Sport != "" {
		where = append(where, "LOWER(c.sport) = ?")
		args = append(args, strings.ToLower(q.Sport))
	}
	if q.Text != "" {
		where = append(where, "(LOWER(c.name) LIKE ? OR LOWER(c.description) LIKE ?)")
		pat := "%" + strings.ToLower(q.Text) + "%"
		args = append(args, pat, pat)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*) FROM courts c WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT
			c.id, c.name, c.sport, c.description, c.price_per_hour,
			c.open_hour, c.close_hour,
			AVG(rv.rating) AS avg_rating,
			COUNT(rv.id)   AS review_count
		FROM courts c
		LEFT JOIN reviews rv ON rv.court_id = c.id
		WHERE ` + cond + `
		GROUP BY c.id
		ORDER BY c.id
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicCourtRow, 0, limit)
	for rows.Next() {
		var (
			d    PublicCourtRow
			desc sql.NullString
			avg  sql.NullFloat64
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Sport, &desc, &d.PricePerHour,
			&d.OpenHour, &d.CloseHour, &avg, &d.ReviewCount); err != nil {
			return nil, 0, err
		}
		if desc.Valid {
			d.Description = &desc.String
		}
		if avg.Valid {
			d.AvgRating = &avg.Float64
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
