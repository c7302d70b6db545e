package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
	"github.com/xxxsen/pinboard/internal/pkg/jwt"
	"github.com/xxxsen/pinboard/internal/service"
	"github.com/xxxsen/pinboard/internal/testutil"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, token, err := f.auth.Register(ctx, " Someone@EXAMPLE.com ", "secret-pass")
	require.NoError(t, err)
	require.Equal(t, "Someone@example.com", user.Email)
	claims, err := jwt.ParseToken(token, []byte("test-secret"))
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	_, _, err = f.auth.Register(ctx, "Someone@example.com", "another-pass")
	require.ErrorIs(t, err, appErr.ErrConflict)

	logged, _, err := f.auth.Login(ctx, "Someone@Example.COM", "secret-pass")
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)

	_, _, err = f.auth.Login(ctx, "Someone@example.com", "wrong")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	_, _, err = f.auth.Login(ctx, "nobody@example.com", "secret-pass")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
}

func TestRegisterValidates(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.auth.Register(context.Background(), "", "abc")
	v, ok := appErr.AsValidation(err)
	require.True(t, ok)
	require.Contains(t, v.Fields, "email")
	require.Contains(t, v.Fields, "password")
}

func TestVerifyUserCacheExpires(t *testing.T) {
	mem := testutil.NewMemoryDB()
	auth := service.NewAuthService(mem.Users(), []byte("test-secret"), time.Hour, 16, 50*time.Millisecond)
	ctx := context.Background()
	u, _, err := auth.Register(ctx, "cache@example.com", "secret-pass")
	require.NoError(t, err)

	require.NoError(t, auth.VerifyUser(ctx, u.ID))
	require.ErrorIs(t, auth.VerifyUser(ctx, u.ID+100), appErr.ErrUnauthorized)

	_, err = mem.Users().DeleteCascade(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, auth.VerifyUser(ctx, u.ID), "cached positive lookup")
	require.Eventually(t, func() bool {
		return errors.Is(auth.VerifyUser(ctx, u.ID), appErr.ErrUnauthorized)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "Foo@bar.com", service.NormalizeEmail("  Foo@BAR.com "))
	require.Equal(t, "nodomain", service.NormalizeEmail("nodomain"))
}
