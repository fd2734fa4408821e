package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/matchpoint/court-booking/internal/model"
)

// RegistrationRepo provides persistence for owner registration requests and
// runs the approval and rejection transactions that touch both the
// owner_registrations and users tables.
type RegistrationRepo struct {
	db    *sql.DB
	users *UserRepo
}

func NewRegistrationRepo(db *sql.DB, users *UserRepo) *RegistrationRepo {
	return &RegistrationRepo{db: db, users: users}
}

const registrationColumns = `id, user_id, user_name, user_email, user_password, user_phone,
	business_name, business_address, business_phone, business_email, business_description,
	experience_years, status, admin_notes, reviewed_by, reviewed_at, created_user_id,
	created_at, updated_at`

func scanRegistration(row interface{ Scan(...any) error }) (model.OwnerRegistration, error) {
	var (
		reg        model.OwnerRegistration
		userID     sql.NullInt64
		name       sql.NullString
		email      sql.NullString
		password   sql.NullString
		phone      sql.NullString
		bizAddr    sql.NullString
		bizPhone   sql.NullString
		bizEmail   sql.NullString
		bizDesc    sql.NullString
		expYears   sql.NullInt64
		notes      sql.NullString
		reviewedBy sql.NullInt64
		reviewedAt sql.NullTime
		createdUID sql.NullInt64
	)
	err := row.Scan(&reg.ID, &userID, &name, &email, &password, &phone,
		&reg.BusinessName, &bizAddr, &bizPhone, &bizEmail, &bizDesc,
		&expYears, &reg.Status, &notes, &reviewedBy, &reviewedAt, &createdUID,
		&reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return model.OwnerRegistration{}, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		reg.UserID = &v
	}
	if name.Valid {
		reg.UserName = &name.String
	}
	if email.Valid {
		reg.UserEmail = &email.String
	}
	if password.Valid {
		reg.UserPassword = &password.String
	}
	if phone.Valid {
		reg.UserPhone = &phone.String
	}
	if bizAddr.Valid {
		reg.BusinessAddress = &bizAddr.String
	}
	if bizPhone.Valid {
		reg.BusinessPhone = &bizPhone.String
	}
	if bizEmail.Valid {
		reg.BusinessEmail = &bizEmail.String
	}
	if bizDesc.Valid {
		reg.BusinessDescription = &bizDesc.String
	}
	if expYears.Valid {
		v := int(expYears.Int64)
		reg.ExperienceYears = &v
	}
	if notes.Valid {
		reg.AdminNotes = &notes.String
	}
	if reviewedBy.Valid {
		v := uint64(reviewedBy.Int64)
		reg.ReviewedBy = &v
	}
	if reviewedAt.Valid {
		reg.ReviewedAt = &reviewedAt.Time
	}
	if createdUID.Valid {
		v := uint64(createdUID.Int64)
		reg.CreatedUserID = &v
	}
	return reg, nil
}

// Create stores a new-flow registration after checking the applicant email
// against both user accounts and registrations that are pending or already
// approved.  A rejected registration does not block reapplying.
func (r *RegistrationRepo) Create(ctx context.Context, reg *model.OwnerRegistration) error {
	if reg.UserEmail == nil || *reg.UserEmail == "" {
		return ErrApplicantIncomplete
	}
	email := strings.ToLower(strings.TrimSpace(*reg.UserEmail))
	reg.UserEmail = &email

	// A legacy applicant applies against their existing account, so their
	// email is in users by definition; only a new-flow applicant must not
	// collide with an existing account.
	if reg.UserID == nil {
		taken, err := r.users.EmailInUse(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailExists
		}
	}

	var (
		one int
		err error
	)
	if reg.UserID != nil {
		err = r.db.QueryRowContext(ctx,
			`SELECT 1 FROM owner_registrations
			 WHERE (user_id = ? OR user_email = ?) AND status IN ('pending','approved') LIMIT 1`,
			*reg.UserID, email).Scan(&one)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT 1 FROM owner_registrations
			 WHERE user_email = ? AND status IN ('pending','approved') LIMIT 1`, email).Scan(&one)
	}
	if err == nil {
		return ErrRegistrationActive
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO owner_registrations
		 (user_id, user_name, user_email, user_password, user_phone,
		  business_name, business_address, business_phone, business_email,
		  business_description, experience_years)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		reg.UserID, reg.UserName, reg.UserEmail, reg.UserPassword, reg.UserPhone,
		reg.BusinessName, reg.BusinessAddress, reg.BusinessPhone, reg.BusinessEmail,
		reg.BusinessDescription, reg.ExperienceYears)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	got, err := scanRegistration(r.db.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM owner_registrations WHERE id = ?", id))
	if err != nil {
		return err
	}
	*reg = got
	return nil
}

// GetByID fetches a registration by id.
func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64) (model.OwnerRegistration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM owner_registrations WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.OwnerRegistration{}, ErrRegistrationNotFound
	}
	return reg, err
}

// GetLatestByEmail returns the most recent registration for an applicant
// email, for the public status check.
func (r *RegistrationRepo) GetLatestByEmail(ctx context.Context, email string) (model.OwnerRegistration, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		"SELECT "+registrationColumns+` FROM owner_registrations
		 WHERE user_email = ? ORDER BY created_at DESC, id DESC LIMIT 1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.OwnerRegistration{}, ErrRegistrationNotFound
	}
	return reg, err
}

// RegistrationListRow is a registration with its applicant already
// resolved, for the admin review queue.
type RegistrationListRow struct {
	model.OwnerRegistration
	Applicant model.Applicant `json:"applicant"`
}

const registrationJoinColumns = `rg.id, rg.user_id, rg.user_name, rg.user_email, rg.user_password,
	rg.user_phone, rg.business_name, rg.business_address, rg.business_phone, rg.business_email,
	rg.business_description, rg.experience_years, rg.status, rg.admin_notes, rg.reviewed_by,
	rg.reviewed_at, rg.created_user_id, rg.created_at, rg.updated_at,
	u.name, u.email, u.phone`

// ListByStatus returns registrations filtered by status (empty status means
// all), newest first, with the legacy user joined in one query so applicant
// resolution needs no per-row lookups.
func (r *RegistrationRepo) ListByStatus(ctx context.Context, status model.RegistrationStatus) ([]RegistrationListRow, error) {
	q := "SELECT " + registrationJoinColumns + ` FROM owner_registrations rg
		LEFT JOIN users u ON u.id = rg.user_id`
	args := []any{}
	if status != "" {
		q += " WHERE rg.status = ?"
		args = append(args, status)
	}
	q += " ORDER BY rg.created_at DESC, rg.id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RegistrationListRow, 0)
	for rows.Next() {
		row, err := scanRegistrationRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanRegistrationRow(rows *sql.Rows) (RegistrationListRow, error) {
	var (
		row         RegistrationListRow
		userID      sql.NullInt64
		name        sql.NullString
		email       sql.NullString
		password    sql.NullString
		phone       sql.NullString
		bizAddr     sql.NullString
		bizPhone    sql.NullString
		bizEmail    sql.NullString
		bizDesc     sql.NullString
		expYears    sql.NullInt64
		notes       sql.NullString
		reviewedBy  sql.NullInt64
		reviewedAt  sql.NullTime
		createdUID  sql.NullInt64
		legacyName  sql.NullString
		legacyEmail sql.NullString
		legacyPhone sql.NullString
	)
	err := rows.Scan(&row.ID, &userID, &name, &email, &password, &phone,
		&row.BusinessName, &bizAddr, &bizPhone, &bizEmail, &bizDesc,
		&expYears, &row.Status, &notes, &reviewedBy, &reviewedAt, &createdUID,
		&row.CreatedAt, &row.UpdatedAt, &legacyName, &legacyEmail, &legacyPhone)
	if err != nil {
		return RegistrationListRow{}, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		row.UserID = &v
	}
	if name.Valid {
		row.UserName = &name.String
	}
	if email.Valid {
		row.UserEmail = &email.String
	}
	if password.Valid {
		row.UserPassword = &password.String
	}
	if phone.Valid {
		row.UserPhone = &phone.String
	}
	if bizAddr.Valid {
		row.BusinessAddress = &bizAddr.String
	}
	if bizPhone.Valid {
		row.BusinessPhone = &bizPhone.String
	}
	if bizEmail.Valid {
		row.BusinessEmail = &bizEmail.String
	}
	if bizDesc.Valid {
		row.BusinessDescription = &bizDesc.String
	}
	if expYears.Valid {
		v := int(expYears.Int64)
		row.ExperienceYears = &v
	}
	if notes.Valid {
		row.AdminNotes = &notes.String
	}
	if reviewedBy.Valid {
		v := uint64(reviewedBy.Int64)
		row.ReviewedBy = &v
	}
	if reviewedAt.Valid {
		row.ReviewedAt = &reviewedAt.Time
	}
	if createdUID.Valid {
		v := uint64(createdUID.Int64)
		row.CreatedUserID = &v
	}

	var legacy *model.User
	if legacyName.Valid || legacyEmail.Valid {
		legacy = &model.User{Name: legacyName.String, Email: legacyEmail.String}
		if legacyPhone.Valid {
			legacy.Phone = &legacyPhone.String
		}
	}
	row.Applicant = model.ResolveApplicant(&row.OwnerRegistration, legacy)
	return row, nil
}

// lockPending loads a registration FOR UPDATE and verifies it is still
// pending.  Concurrent admin decisions on the same request serialize on the
// row lock; the loser sees a terminal status and gets ErrAlreadyDecided.
func (r *RegistrationRepo) lockPending(ctx context.Context, tx *sql.Tx, id uint64) (model.OwnerRegistration, error) {
	reg, err := scanRegistration(tx.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM owner_registrations WHERE id = ? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.OwnerRegistration{}, ErrRegistrationNotFound
	}
	if err != nil {
		return model.OwnerRegistration{}, err
	}
	if reg.Status.Terminal() {
		return model.OwnerRegistration{}, ErrAlreadyDecided
	}
	return reg, nil
}

// Approve moves a pending registration to approved and grants the owner
// role in the same transaction.  A legacy registration promotes its linked
// user; a new-flow registration creates a fresh owner account from the
// embedded identity fields and records its id in created_user_id.  Either
// both tables change or neither does.
func (r *RegistrationRepo) Approve(ctx context.Context, id, adminID uint64, notes *string) (model.OwnerRegistration, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.OwnerRegistration{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	reg, err := r.lockPending(ctx, tx, id)
	if err != nil {
		return model.OwnerRegistration{}, err
	}
	next, err := reg.Status.Approve()
	if err != nil {
		return model.OwnerRegistration{}, err
	}

	var createdUserID *uint64
	switch {
	case reg.UserID != nil:
		if err := r.users.PromoteOwnerTx(ctx, tx, *reg.UserID, adminID, now); err != nil {
			return model.OwnerRegistration{}, err
		}
	case reg.HasEmbeddedIdentity():
		uid, err := r.users.CreateOwnerTx(ctx, tx,
			*reg.UserName, *reg.UserEmail, *reg.UserPassword, reg.UserPhone, adminID, now)
		if err != nil {
			return model.OwnerRegistration{}, err
		}
		createdUserID = &uid
	default:
		return model.OwnerRegistration{}, ErrApplicantIncomplete
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE owner_registrations
		 SET status = ?, admin_notes = ?, reviewed_by = ?, reviewed_at = ?, created_user_id = ?
		 WHERE id = ?`,
		next, notes, adminID, now, createdUserID, id); err != nil {
		return model.OwnerRegistration{}, err
	}

	got, err := scanRegistration(tx.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM owner_registrations WHERE id = ?", id))
	if err != nil {
		return model.OwnerRegistration{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.OwnerRegistration{}, err
	}
	committed = true
	return got, nil
}

// Reject moves a pending registration to rejected.  A legacy registration
// also syncs the linked user's approval_status so their account reflects
// the outcome; no account is ever created on rejection.
func (r *RegistrationRepo) Reject(ctx context.Context, id, adminID uint64, notes *string) (model.OwnerRegistration, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.OwnerRegistration{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	reg, err := r.lockPending(ctx, tx, id)
	if err != nil {
		return model.OwnerRegistration{}, err
	}
	next, err := reg.Status.Reject()
	if err != nil {
		return model.OwnerRegistration{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE owner_registrations
		 SET status = ?, admin_notes = ?, reviewed_by = ?, reviewed_at = ?
		 WHERE id = ?`,
		next, notes, adminID, now, id); err != nil {
		return model.OwnerRegistration{}, err
	}

	if reg.UserID != nil {
		if err := r.users.SetApprovalStatusTx(ctx, tx, *reg.UserID, model.ApprovalRejected); err != nil {
			return model.OwnerRegistration{}, err
		}
	}

	got, err := scanRegistration(tx.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM owner_registrations WHERE id = ?", id))
	if err != nil {
		return model.OwnerRegistration{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.OwnerRegistration{}, err
	}
	committed = true
	return got, nil
}

// Delete removes a decided registration.  Pending requests must be approved
// or rejected first, never silently dropped.
func (r *RegistrationRepo) Delete(ctx context.Context, id uint64) error {
	var status model.RegistrationStatus
	err := r.db.QueryRowContext(ctx,
		"SELECT status FROM owner_registrations WHERE id = ?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRegistrationNotFound
	}
	if err != nil {
		return err
	}
	if status == model.RegistrationPending {
		return ErrStillPending
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM owner_registrations WHERE id = ?", id)
	return err
}
