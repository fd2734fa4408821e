package handler

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint/court-booking/internal/middleware"
	"github.com/matchpoint/court-booking/internal/model"
	"github.com/matchpoint/court-booking/internal/repository"
	"github.com/matchpoint/court-booking/internal/service"
)

func newAdminHandler(t *testing.T) (*AdminHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := repository.NewUserRepo(db)
	h := NewAdminHandler(
		repository.NewRegistrationRepo(db, users),
		users,
		repository.NewTokenRepo(db),
		service.NewEventPublisher(""),
	)
	return h, mock
}

func setActiveCtx(t *testing.T, targetID, adminID, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPut, "/v1/admin/users/"+targetID+"/active", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(targetID)
	aid, err := strconv.ParseUint(adminID, 10, 64)
	require.NoError(t, err)
	c.Set(middleware.CtxUserID, aid)
	c.Set(middleware.CtxRole, model.RoleAdmin)
	return c, rec
}

func TestSetUserActiveDeactivationRevokesTokens(t *testing.T) {
	h, mock := newAdminHandler(t)

	mock.ExpectExec("UPDATE users SET is_active").
		WithArgs(false, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	c, rec := setActiveCtx(t, "7", "99", `{"active":false}`)
	require.NoError(t, h.SetUserActive(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet(),
		"deactivation must cut every live refresh token the account holds")
}

func TestSetUserActiveReactivationKeepsTokens(t *testing.T) {
	h, mock := newAdminHandler(t)

	mock.ExpectExec("UPDATE users SET is_active").
		WithArgs(true, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := setActiveCtx(t, "7", "99", `{"active":true}`)
	require.NoError(t, h.SetUserActive(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "re-enabling an account touches nothing else")
}

func TestSetUserActiveSelfBlocked(t *testing.T) {
	h, mock := newAdminHandler(t)

	c, rec := setActiveCtx(t, "99", "99", `{"active":false}`)
	require.NoError(t, h.SetUserActive(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
