package server

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/config"
	"github.com/jonathan/cleanops/internal/testutil"
	"github.com/jonathan/cleanops/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T) (*UserService, *testutil.MemStore) {
	t.Helper()
	store := testutil.NewMemStore()
	return NewUserService(store, &config.PasswordConfig{BcryptCost: config.MinBcryptCost}, nil), store
}

func TestUserService_Register(t *testing.T) {
	svc, store := newTestUserService(t)
	ctx := t.Context()

	user, err := svc.Register(ctx, &types.CreateUserRequest{
		Name:         "  Robin ",
		Email:        "Robin@Example.COM",
		Password:     "long-enough",
		BusinessName: " Robin's Rinse ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Robin", user.Name)
	assert.Equal(t, "robin@example.com", user.Email)
	assert.Equal(t, "Robin's Rinse", user.BusinessName)
	assert.True(t, user.PasswordSet)

	stored, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "long-enough", stored.PasswordHash)

	_, err = svc.Register(ctx, &types.CreateUserRequest{Name: "Again", Email: "robin@example.com", Password: "long-enough"})
	var dup *ErrEmailAlreadyExists
	assert.ErrorAs(t, err, &dup)
}

func TestUserService_RegisterRollsBack(t *testing.T) {
	svc, store := newTestUserService(t)
	ctx := t.Context()
	store.FailOn("UpdatePassword", errors.New("write failed"))

	_, err := svc.Register(ctx, &types.CreateUserRequest{Name: "Robin", Email: "robin@example.com", Password: "long-enough"})
	require.Error(t, err)

	exists, err := store.CheckEmailExists(ctx, "robin@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserService_Login(t *testing.T) {
	svc, store := newTestUserService(t)
	ctx := t.Context()

	_, err := svc.Register(ctx, &types.CreateUserRequest{Name: "Robin", Email: "robin@example.com", Password: "long-enough"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, &types.LoginRequest{Email: " ROBIN@example.com", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, "robin@example.com", user.Email)

	var invalid *ErrInvalidCredentials
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "robin@example.com", Password: "nope-nope"})
	assert.ErrorAs(t, err, &invalid)

	// Accounts without a password cannot log in.
	_, err = store.CreateUser(ctx, "Seeded", "seeded@example.com", "", "")
	require.NoError(t, err)
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "seeded@example.com", Password: ""})
	assert.ErrorAs(t, err, &invalid)
}

func TestUserService_UpdatePassword(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := t.Context()

	user, err := svc.Register(ctx, &types.CreateUserRequest{Name: "Robin", Email: "robin@example.com", Password: "long-enough"})
	require.NoError(t, err)

	var mismatch *ErrPasswordMismatch
	assert.ErrorAs(t, svc.UpdatePassword(ctx, user.ID, "wrong", "new-password"), &mismatch)

	require.NoError(t, svc.UpdatePassword(ctx, user.ID, "long-enough", "new-password"))
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "robin@example.com", Password: "new-password"})
	assert.NoError(t, err)

	var notFound *ErrUserNotFound
	assert.ErrorAs(t, svc.UpdatePassword(ctx, uuid.New(), "x", "y"), &notFound)
	_, err = svc.GetUser(ctx, uuid.New())
	assert.ErrorAs(t, err, &notFound)
}
