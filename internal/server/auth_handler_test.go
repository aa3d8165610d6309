package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jonathan/cleanops/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerUser(t *testing.T, ts *testServer, email, password string) types.LoginResponse {
	t.Helper()
	rec := ts.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name":          "Sam Sparkle",
		"email":         email,
		"password":      password,
		"business_name": "Sparkle Cleaning",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[types.LoginResponse](t, rec)
}

func TestRegisterLoginAndMe(t *testing.T) {
	ts := newTestServer(t)

	resp := registerUser(t, ts, "  Sam@Example.com ", "correct-horse")
	require.NotNil(t, resp.User)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "sam@example.com", resp.User.Email)
	assert.Equal(t, "Sparkle Cleaning", resp.User.BusinessName)
	assert.True(t, resp.User.PasswordSet)

	rec := ts.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    " SAM@example.com\t",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[types.LoginResponse](t, rec)
	assert.Equal(t, resp.User.ID, login.User.ID)

	rec = ts.do(http.MethodGet, "/v1/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[types.User](t, rec)
	assert.Equal(t, resp.User.ID, me.ID)
	assert.Equal(t, "Sam Sparkle", me.Name)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "dup@example.com", "password-one")

	rec := ts.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name":     "Other",
		"email":    "DUP@example.com",
		"password": "password-two",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "dup@example.com")
}

func TestRegister_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"malformed json", "{", "Invalid request body"},
		{"short password", map[string]string{"name": "A", "email": "a@example.com", "password": "short"}, "validation error"},
		{"bad email", map[string]string{"name": "A", "email": "nope", "password": "long-enough"}, "validation error"},
		{"missing name", map[string]string{"email": "a@example.com", "password": "long-enough"}, "validation error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/v1/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorMessage(t, rec), tt.want)
		})
	}
}

func TestRegister_PasswordFailureRemovesUser(t *testing.T) {
	ts := newTestServer(t)
	ts.store.FailOn("UpdatePassword", errors.New("disk full"))

	rec := ts.do(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name":     "Half",
		"email":    "half@example.com",
		"password": "long-enough",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorMessage(t, rec))

	ts.store.FailOn("UpdatePassword", nil)
	registerUser(t, ts, "half@example.com", "long-enough")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "sam@example.com", "correct-horse")

	for _, body := range []map[string]string{
		{"email": "sam@example.com", "password": "wrong-horse"},
		{"email": "nobody@example.com", "password": "correct-horse"},
	} {
		rec := ts.do(http.MethodPost, "/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid email or password", errorMessage(t, rec))
	}
}

func TestUpdatePassword(t *testing.T) {
	ts := newTestServer(t)
	resp := registerUser(t, ts, "sam@example.com", "correct-horse")

	rec := ts.do(http.MethodPut, "/v1/users/me/password", resp.Token, map[string]string{
		"current_password": "wrong-horse",
		"new_password":     "battery-staple",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPut, "/v1/users/me/password", resp.Token, map[string]string{
		"current_password": "correct-horse",
		"new_password":     "battery-staple",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password updated successfully", decodeBody[map[string]string](t, rec)["message"])

	rec = ts.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "sam@example.com",
		"password": "battery-staple",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetMe_DeletedUser(t *testing.T) {
	ts := newTestServer(t)
	resp := registerUser(t, ts, "gone@example.com", "long-enough")
	require.NoError(t, ts.store.DeleteUser(t.Context(), resp.User.ID))

	rec := ts.do(http.MethodGet, "/v1/users/me", resp.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
