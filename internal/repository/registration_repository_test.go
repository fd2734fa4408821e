package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint/court-booking/internal/model"
)

func registrationCols() []string {
	return []string{"id", "user_id", "user_name", "user_email", "user_password", "user_phone",
		"business_name", "business_address", "business_phone", "business_email",
		"business_description", "experience_years", "status", "admin_notes",
		"reviewed_by", "reviewed_at", "created_user_id", "created_at", "updated_at"}
}

func pendingLegacyRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(registrationCols()).AddRow(
		1, 5, nil, nil, nil, nil,
		"Smash Arena", nil, nil, nil, nil, 4,
		"pending", nil, nil, nil, nil, now, now)
}

func pendingNewFlowRow(now time.Time, password any) *sqlmock.Rows {
	return sqlmock.NewRows(registrationCols()).AddRow(
		2, nil, "Dana Prawira", "dana@example.com", password, "0811223344",
		"Dana Courts", nil, nil, nil, nil, nil,
		"pending", nil, nil, nil, nil, now, now)
}

func TestApproveLegacyPromotesUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM owner_registrations WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(pendingLegacyRow(now))
	mock.ExpectExec("UPDATE users SET role='owner'").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE owner_registrations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM owner_registrations WHERE id = \\?").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(registrationCols()).AddRow(
			1, 5, nil, nil, nil, nil,
			"Smash Arena", nil, nil, nil, nil, 4,
			"approved", nil, 99, now, nil, now, now))
	mock.ExpectCommit()

	got, err := repo.Approve(context.Background(), 1, 99, nil)
	require.NoError(t, err)

	assert.Equal(t, model.RegistrationApproved, got.Status)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, uint64(99), *got.ReviewedBy)
	assert.Nil(t, got.CreatedUserID, "legacy approval promotes, it does not create")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveNewFlowCreatesOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM owner_registrations WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(2)).
		WillReturnRows(pendingNewFlowRow(now, "$2a$10$hash"))
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectExec("UPDATE owner_registrations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM owner_registrations WHERE id = \\?").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(registrationCols()).AddRow(
			2, nil, "Dana Prawira", "dana@example.com", "$2a$10$hash", "0811223344",
			"Dana Courts", nil, nil, nil, nil, nil,
			"approved", nil, 99, now, 31, now, now))
	mock.ExpectCommit()

	got, err := repo.Approve(context.Background(), 2, 99, nil)
	require.NoError(t, err)

	assert.Equal(t, model.RegistrationApproved, got.Status)
	require.NotNil(t, got.CreatedUserID)
	assert.Equal(t, uint64(31), *got.CreatedUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveIncompleteApplicantRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM owner_registrations WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(2)).
		WillReturnRows(pendingNewFlowRow(now, nil))
	mock.ExpectRollback()

	_, err := repo.Approve(context.Background(), 2, 99, nil)

	assert.ErrorIs(t, err, ErrApplicantIncomplete)
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing may be written when identity is missing")
}

func TestApproveAlreadyDecided(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM owner_registrations WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(registrationCols()).AddRow(
			1, 5, nil, nil, nil, nil,
			"Smash Arena", nil, nil, nil, nil, 4,
			"rejected", nil, 99, now, nil, now, now))
	mock.ExpectRollback()

	_, err := repo.Approve(context.Background(), 1, 99, nil)

	assert.ErrorIs(t, err, ErrAlreadyDecided)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectLegacySyncsUserStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM owner_registrations WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(pendingLegacyRow(now))
	mock.ExpectExec("UPDATE owner_registrations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET approval_status").
		WithArgs(model.ApprovalRejected, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM owner_registrations WHERE id = \\?").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(registrationCols()).AddRow(
			1, 5, nil, nil, nil, nil,
			"Smash Arena", nil, nil, nil, nil, 4,
			"rejected", "not enough documents", 99, now, nil, now, now))
	mock.ExpectCommit()

	notes := "not enough documents"
	got, err := repo.Reject(context.Background(), 1, 99, &notes)
	require.NoError(t, err)

	assert.Equal(t, model.RegistrationRejected, got.Status)
	require.NotNil(t, got.AdminNotes)
	assert.Equal(t, "not enough documents", *got.AdminNotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsTakenEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	mock.ExpectQuery("SELECT 1 FROM users WHERE email").
		WithArgs("dana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	email := "Dana@Example.com"
	name := "Dana Prawira"
	err := repo.Create(context.Background(), &model.OwnerRegistration{
		UserName:     &name,
		UserEmail:    &email,
		BusinessName: "Dana Courts",
	})

	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLegacyAcceptsOwnAccountEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	// No users lookup: the applicant's email belongs to users by definition
	// when they apply against an existing account.
	mock.ExpectQuery("SELECT 1 FROM owner_registrations").
		WithArgs(uint64(5), "dana@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO owner_registrations").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("FROM owner_registrations WHERE id = \\?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(registrationCols()).AddRow(
			7, 5, nil, "dana@example.com", nil, nil,
			"Dana Courts", nil, nil, nil, nil, 4,
			"pending", nil, nil, nil, nil, now, now))

	uid := uint64(5)
	email := "dana@example.com"
	reg := model.OwnerRegistration{
		UserID:       &uid,
		UserEmail:    &email,
		BusinessName: "Dana Courts",
	}
	err := repo.Create(context.Background(), &reg)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), reg.ID)
	assert.Equal(t, model.RegistrationPending, reg.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLegacyRejectsActiveRegistration(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	mock.ExpectQuery("SELECT 1 FROM owner_registrations").
		WithArgs(uint64(5), "dana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	uid := uint64(5)
	email := "dana@example.com"
	err := repo.Create(context.Background(), &model.OwnerRegistration{
		UserID:       &uid,
		UserEmail:    &email,
		BusinessName: "Dana Courts",
	})

	assert.ErrorIs(t, err, ErrRegistrationActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsActiveRegistration(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	mock.ExpectQuery("SELECT 1 FROM users WHERE email").
		WithArgs("dana@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT 1 FROM owner_registrations").
		WithArgs("dana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	email := "dana@example.com"
	err := repo.Create(context.Background(), &model.OwnerRegistration{
		UserEmail:    &email,
		BusinessName: "Dana Courts",
	})

	assert.ErrorIs(t, err, ErrRegistrationActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStatusJoinsLegacyApplicant(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	joined := append(registrationCols(), "u_name", "u_email", "u_phone")

	// One query serves the whole list; the legacy account rides along on the
	// join instead of a lookup per row.
	mock.ExpectQuery("FROM owner_registrations rg\\s+LEFT JOIN users u ON u.id = rg.user_id").
		WithArgs(model.RegistrationPending).
		WillReturnRows(sqlmock.NewRows(joined).
			AddRow(1, 5, nil, nil, nil, nil,
				"Smash Arena", nil, nil, nil, nil, 4,
				"pending", nil, nil, nil, nil, now, now,
				"Budi Santoso", "budi@example.com", "0811000222").
			AddRow(2, nil, "Dana Prawira", "dana@example.com", "$2a$10$hash", nil,
				"Dana Courts", nil, nil, nil, nil, nil,
				"pending", nil, nil, nil, nil, now, now,
				nil, nil, nil))

	rows, err := repo.ListByStatus(context.Background(), model.RegistrationPending)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Budi Santoso", rows[0].Applicant.Name)
	assert.Equal(t, "budi@example.com", rows[0].Applicant.Email)
	assert.Equal(t, "0811000222", rows[0].Applicant.Phone)

	assert.Equal(t, "Dana Prawira", rows[1].Applicant.Name)
	assert.Equal(t, "dana@example.com", rows[1].Applicant.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePendingBlocked(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRegistrationRepo(db, NewUserRepo(db))

	mock.ExpectQuery("SELECT status FROM owner_registrations").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))

	err := repo.Delete(context.Background(), 1)

	assert.ErrorIs(t, err, ErrStillPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}
