package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/matchpoint/court-booking/internal/model"
)

// UserRepo provides persistence for the users table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span multiple repositories.
func (r *UserRepo) DB() *sql.DB { return r.db }

const userColumns = `id, name, email, password_hash, phone, role, approval_status,
	approved_by, approved_at, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u          model.User
		phone      sql.NullString
		approvedBy sql.NullInt64
		approvedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &phone, &u.Role,
		&u.ApprovalStatus, &approvedBy, &approvedAt, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if approvedBy.Valid {
		v := uint64(approvedBy.Int64)
		u.ApprovedBy = &v
	}
	if approvedAt.Valid {
		u.ApprovedAt = &approvedAt.Time
	}
	return u, nil
}

// isDuplicateKey sniffs MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// Create inserts a user with an already-hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string, phone *string, role model.Role) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, phone, role) VALUES (?,?,?,?,?)",
		name, email, passwordHash, phone, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateOwnerTx inserts an approved owner account inside an existing
// transaction.  Used by the registration approval flow so that user
// creation and registration update commit or roll back together.
func (r *UserRepo) CreateOwnerTx(ctx context.Context, tx *sql.Tx, name, email, passwordHash string, phone *string, adminID uint64, now time.Time) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, phone, role, approval_status, approved_by, approved_at)
		 VALUES (?,?,?,?,'owner','approved',?,?)`,
		name, email, passwordHash, phone, adminID, now)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// PromoteOwnerTx flips an existing user to role owner with approval_status
// approved inside the given transaction.
func (r *UserRepo) PromoteOwnerTx(ctx context.Context, tx *sql.Tx, userID, adminID uint64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET role='owner', approval_status='approved', approved_by=?, approved_at=? WHERE id=?`,
		adminID, now, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetApprovalStatusTx updates only approval_status; used by the rejection
// path to sync a legacy applicant's account.
func (r *UserRepo) SetApprovalStatusTx(ctx context.Context, tx *sql.Tx, userID uint64, status model.ApprovalStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET approval_status=? WHERE id=?`, status, userID)
	return err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// EmailInUse reports whether a user account already holds the email.
func (r *UserRepo) EmailInUse(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE email=? LIMIT 1", email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns users ordered by creation time, newest first.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetActive toggles an account's is_active flag.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
