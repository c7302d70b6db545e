package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/pinboard/internal/filestore"
	"github.com/xxxsen/pinboard/internal/model"
	"github.com/xxxsen/pinboard/internal/service"
	"github.com/xxxsen/pinboard/internal/testutil"
)

type fixture struct {
	mem   *testutil.MemoryDB
	store filestore.Store
	dir   string
	auth  *service.AuthService
	tags  *service.TagService
	pins  *service.PinService
	admin *service.AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := testutil.NewMemoryDB()
	store, dir := testutil.NewLocalStore(t)
	return &fixture{
		mem:   mem,
		store: store,
		dir:   dir,
		auth:  service.NewAuthService(mem.Users(), []byte("test-secret"), time.Hour, 16, time.Minute),
		tags:  service.NewTagService(mem.Tags()),
		pins:  service.NewPinService(mem.Pins(), mem.Tags(), store),
		admin: service.NewAdminService(mem.Users(), mem.Tags(), store),
	}
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	user, _, err := f.auth.Register(context.Background(), email, "secret-pass")
	require.NoError(t, err)
	return user
}

func (f *fixture) tag(t *testing.T, userID int64, name string) *model.Tag {
	t.Helper()
	tag, err := f.tags.Create(context.Background(), userID, name)
	require.NoError(t, err)
	return tag
}

func (f *fixture) pin(t *testing.T, userID int64, title string, tagIDs ...int64) *model.Pin {
	t.Helper()
	ids := append([]int64{}, tagIDs...)
	pin, err := f.pins.Create(context.Background(), userID, service.PinInput{Title: &title, TagIDs: &ids})
	require.NoError(t, err)
	return pin
}

func strPtr(s string) *string { return &s }

func idsPtr(ids ...int64) *[]int64 {
	out := append([]int64{}, ids...)
	return &out
}
