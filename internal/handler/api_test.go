package handler_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/jobtrack/jobtrack-go/internal/crypto"
	"github.com/jobtrack/jobtrack-go/internal/handler"
	"github.com/jobtrack/jobtrack-go/internal/middleware"
	"github.com/jobtrack/jobtrack-go/internal/model"
	"github.com/jobtrack/jobtrack-go/internal/repository"
	"github.com/jobtrack/jobtrack-go/internal/service"
)

const testSecret = "test-secret"

// newTestAPI wires the full router the way cmd/api does, backed by sqlmock.
func newTestAPI(t *testing.T) (http.Handler, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, testSecret, time.Hour)
	authHandler := handler.NewAuthHandler(authService)

	appRepo := repository.NewApplicationRepository(db)
	appService := service.NewApplicationService(appRepo)
	appHandler := handler.NewApplicationHandler(appService)

	r := chi.NewRouter()
	r.Post("/api/v1/auth/signup", authHandler.HandleSignup)
	r.Post("/api/v1/auth/login", authHandler.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(testSecret))
		r.Get("/api/v1/auth/me", authHandler.HandleMe)
		r.Get("/api/v1/applications", appHandler.HandleList)
		r.Post("/api/v1/applications", appHandler.HandleCreate)
		r.Put("/api/v1/applications/{id}", appHandler.HandleUpdate)
		r.Delete("/api/v1/applications/{id}", appHandler.HandleDelete)
	})

	return r, mock, db
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func userRow(t *testing.T, id int64, username, email, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
		AddRow(id, username, email, hash, now, now)
}

func appColumns() []string {
	return []string{"id", "user_id", "company", "position", "date", "status", "created_at", "updated_at"}
}

// Full lifecycle: signup, login, create, list, update, delete, list empty.
func TestAPI_FullLifecycle(t *testing.T) {
	api, mock, db := newTestAPI(t)
	defer db.Close()

	// signup
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("alice", "a@x.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/signup", "", model.SignupRequest{
		Username: "alice", Email: "a@x.com", Password: "pw1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	signup := decodeBody[model.AuthResponse](t, rec)
	require.NotEmpty(t, signup.Token)
	require.Equal(t, int64(1), signup.User.ID)

	// login
	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \?`).
		WithArgs("alice").
		WillReturnRows(userRow(t, 1, "alice", "a@x.com", "pw1"))

	rec = doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{
		Username: "alice", Password: "pw1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeBody[model.AuthResponse](t, rec)
	token := login.Token

	// create — a spoofed user_id in the body must be ignored
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(int64(1), "Acme", "Eng", "2024-01-01", "Applied").
		WillReturnResult(sqlmock.NewResult(10, 1))

	rec = doJSON(t, api, http.MethodPost, "/api/v1/applications", token, map[string]any{
		"company":  "Acme",
		"position": "Eng",
		"date":     "2024-01-01",
		"status":   "Applied",
		"user_id":  999,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeBody[model.ApplicationResponse](t, rec)
	require.Equal(t, int64(10), created.ID)
	require.Equal(t, int64(1), created.UserID)

	// list returns exactly the created record
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM applications WHERE user_id = \?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(appColumns()).
			AddRow(10, 1, "Acme", "Eng", date, "Applied", date, date))

	rec = doJSON(t, api, http.MethodGet, "/api/v1/applications", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]model.ApplicationResponse](t, rec)
	require.Len(t, list, 1)
	require.Equal(t, "Acme", list[0].Company)
	require.Equal(t, "2024-01-01", list[0].Date)
	require.Equal(t, int64(1), list[0].UserID)

	// update status to Offer
	mock.ExpectExec(`UPDATE applications SET`).
		WithArgs("Acme", "Eng", "2024-01-01", "Offer", int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec = doJSON(t, api, http.MethodPut, "/api/v1/applications/10", token, model.ApplicationRequest{
		Company: "Acme", Position: "Eng", Date: "2024-01-01", Status: "Offer",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[model.ApplicationResponse](t, rec)
	require.Equal(t, model.StatusOffer, updated.Status)

	// delete
	mock.ExpectExec(`DELETE FROM applications`).
		WithArgs(int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec = doJSON(t, api, http.MethodDelete, "/api/v1/applications/10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application deleted", decodeBody[map[string]string](t, rec)["message"])

	// list is empty again
	mock.ExpectQuery(`SELECT .+ FROM applications WHERE user_id = \?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(appColumns()))

	rec = doJSON(t, api, http.MethodGet, "/api/v1/applications", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]model.ApplicationResponse](t, rec), 0)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAPI_SignupDuplicateIsConflict(t *testing.T) {
	api, mock, db := newTestAPI(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("alice", "a@x.com", sqlmock.AnyArg()).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'uq_users_username'"))

	rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/signup", "", model.SignupRequest{
		Username: "alice", Email: "a@x.com", Password: "pw1",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotEmpty(t, decodeBody[map[string]string](t, rec)["error"])
}

func TestAPI_LoginBadCredentialsIsUnauthorized(t *testing.T) {
	api, mock, db := newTestAPI(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \?`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{
		Username: "nobody", Password: "pw1",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_ProtectedRoutesRequireToken(t *testing.T) {
	api, _, db := newTestAPI(t)
	defer db.Close()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/applications"},
		{http.MethodPost, "/api/v1/applications"},
		{http.MethodPut, "/api/v1/applications/1"},
		{http.MethodDelete, "/api/v1/applications/1"},
		{http.MethodGet, "/api/v1/auth/me"},
	} {
		rec := doJSON(t, api, tc.method, tc.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

// Updating or deleting an application that belongs to another user matches
// zero rows and comes back as 404, leaving the foreign row untouched.
func TestAPI_ForeignApplicationIsNotFound(t *testing.T) {
	api, mock, db := newTestAPI(t)
	defer db.Close()

	token, err := crypto.GenerateToken(2, testSecret, time.Hour)
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE applications SET`).
		WithArgs("Acme", "Eng", "2024-01-01", "Offer", int64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := doJSON(t, api, http.MethodPut, "/api/v1/applications/10", token, model.ApplicationRequest{
		Company: "Acme", Position: "Eng", Date: "2024-01-01", Status: "Offer",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	mock.ExpectExec(`DELETE FROM applications`).
		WithArgs(int64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec = doJSON(t, api, http.MethodDelete, "/api/v1/applications/10", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CreateRejectsUnknownStatus(t *testing.T) {
	api, _, db := newTestAPI(t)
	defer db.Close()

	token, err := crypto.GenerateToken(1, testSecret, time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/applications", token, model.ApplicationRequest{
		Company: "Acme", Position: "Eng", Date: "2024-01-01", Status: "Ghosted",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_InvalidIDIsBadRequest(t *testing.T) {
	api, _, db := newTestAPI(t)
	defer db.Close()

	token, err := crypto.GenerateToken(1, testSecret, time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, api, http.MethodDelete, "/api/v1/applications/abc", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
