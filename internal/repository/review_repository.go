package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/matchpoint/court-booking/internal/model"
)

// ReviewRepo provides persistence for court reviews.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `id, booking_id, court_id, user_id, rating, comment,
	owner_reply, replied_at, created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }) (model.Review, error) {
	var (
		rv        model.Review
		comment   sql.NullString
		reply     sql.NullString
		repliedAt sql.NullTime
	)
	err := row.Scan(&rv.ID, &rv.BookingID, &rv.CourtID, &rv.UserID, &rv.Rating,
		&comment, &reply, &repliedAt, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return model.Review{}, err
	}
	if comment.Valid {
		rv.Comment = &comment.String
	}
	if reply.Valid {
		rv.OwnerReply = &reply.String
	}
	if repliedAt.Valid {
		rv.RepliedAt = &repliedAt.Time
	}
	return rv, nil
}

// Create inserts a review after verifying the booking belongs to the
// reviewer and is completed.  The court id comes from the booking row, not
// the caller.  A second review for the same booking trips the unique key
// and surfaces as ErrReviewExists.
func (r *ReviewRepo) Create(ctx context.Context, userID, bookingID uint64, rating int, comment *string) (model.Review, error) {
	var (
		bookingUser sql.NullInt64
		courtID     uint64
		status      model.BookingStatus
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, court_id, status FROM bookings WHERE id = ?", bookingID).
		Scan(&bookingUser, &courtID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrBookingNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	if !bookingUser.Valid || uint64(bookingUser.Int64) != userID {
		return model.Review{}, ErrForbidden
	}
	if status != model.BookingCompleted {
		return model.Review{}, ErrNotReviewable
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (booking_id, court_id, user_id, rating, comment) VALUES (?,?,?,?,?)",
		bookingID, courtID, userID, rating, comment)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Review{}, ErrReviewExists
		}
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	return scanReview(r.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE id = ?", id))
}

// CourtReviewRow is a review joined with the reviewer's display name.
type CourtReviewRow struct {
	model.Review
	UserName string `json:"user_name"`
}

// ListByCourt returns a court's reviews, newest first.
func (r *ReviewRepo) ListByCourt(ctx context.Context, courtID uint64) ([]CourtReviewRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rv.id, rv.booking_id, rv.court_id, rv.user_id, rv.rating, rv.comment,
			rv.owner_reply, rv.replied_at, rv.created_at, rv.updated_at, u.name
		 FROM reviews rv
		 JOIN users u ON u.id = rv.user_id
		 WHERE rv.court_id = ?
		 ORDER BY rv.created_at DESC, rv.id DESC`, courtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CourtReviewRow, 0)
	for rows.Next() {
		var (
			row       CourtReviewRow
			comment   sql.NullString
			reply     sql.NullString
			repliedAt sql.NullTime
		)
		if err := rows.Scan(&row.ID, &row.BookingID, &row.CourtID, &row.UserID, &row.Rating,
			&comment, &reply, &repliedAt, &row.CreatedAt, &row.UpdatedAt, &row.UserName); err != nil {
			return nil, err
		}
		if comment.Valid {
			row.Comment = &comment.String
		}
		if reply.Valid {
			row.OwnerReply = &reply.String
		}
		if repliedAt.Valid {
			row.RepliedAt = &repliedAt.Time
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Reply stores the court owner's response on a review.  The owner check
// goes through the court the review targets.
func (r *ReviewRepo) Reply(ctx context.Context, reviewID, ownerID uint64, reply string) (model.Review, error) {
	var courtOwner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT c.owner_id FROM reviews rv JOIN courts c ON c.id = rv.court_id WHERE rv.id = ?`,
		reviewID).Scan(&courtOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrReviewNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	if courtOwner != ownerID {
		return model.Review{}, ErrForbidden
	}

	if _, err := r.db.ExecContext(ctx,
		"UPDATE reviews SET owner_reply = ?, replied_at = ? WHERE id = ?",
		reply, time.Now().UTC(), reviewID); err != nil {
		return model.Review{}, err
	}
	return scanReview(r.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE id = ?", reviewID))
}

// AverageForCourt returns the mean rating and review count for a court.
// A court with no reviews yields (0, 0, nil).
func (r *ReviewRepo) AverageForCourt(ctx context.Context, courtID uint64) (float64, int64, error) {
	var (
		avg   sql.NullFloat64
		count int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT AVG(rating), COUNT(*) FROM reviews WHERE court_id = ?", courtID).
		Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}
