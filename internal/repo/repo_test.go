package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/pinboard/internal/model"
	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
	"github.com/xxxsen/pinboard/internal/testutil"
)

type repos struct {
	db    *sql.DB
	users *UserRepo
	tags  *TagRepo
	pins  *PinRepo
}

func newRepos(t *testing.T) *repos {
	t.Helper()
	db, cleanup := testutil.OpenTestDB(t)
	t.Cleanup(cleanup)
	return &repos{db: db, users: NewUserRepo(db), tags: NewTagRepo(db), pins: NewPinRepo(db)}
}

func (r *repos) user(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", Ctime: 1, Mtime: 1}
	require.NoError(t, r.users.Create(context.Background(), user))
	return user
}

func (r *repos) tag(t *testing.T, userID int64, name string) *model.Tag {
	t.Helper()
	tag := &model.Tag{UserID: userID, Name: name, Ctime: 1}
	require.NoError(t, r.tags.Create(context.Background(), tag))
	return tag
}

func (r *repos) pin(t *testing.T, userID int64, title string, tagIDs ...int64) *model.Pin {
	t.Helper()
	pin := &model.Pin{
		UserID: userID,
		Title:  title,
		Date:   time.Now().UTC().Truncate(time.Microsecond),
		Mtime:  1,
		TagIDs: append([]int64{}, tagIDs...),
	}
	require.NoError(t, r.pins.Create(context.Background(), pin))
	return pin
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestUserRepoCreateAndConflict(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	user := r.user(t, "a@example.com")
	require.Positive(t, user.ID)

	err := r.users.Create(ctx, &model.User{Email: "a@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, appErr.ErrConflict)

	got, err := r.users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	_, err = r.users.GetByID(ctx, user.ID+100)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestTagRepoListing(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := r.user(t, "tags@example.com")
	other := r.user(t, "other@example.com")
	a := r.tag(t, u.ID, "a")
	b := r.tag(t, u.ID, "b")
	c := r.tag(t, u.ID, "c")
	foreign := r.tag(t, other.ID, "z")
	r.pin(t, u.ID, "p1", a.ID, b.ID)
	r.pin(t, u.ID, "p2", a.ID)

	all, err := r.tags.ListByOwner(ctx, u.ID, false)
	require.NoError(t, err)
	require.Equal(t, []int64{c.ID, b.ID, a.ID}, tagIDs(all))

	assigned, err := r.tags.ListByOwner(ctx, u.ID, true)
	require.NoError(t, err)
	require.Equal(t, []int64{b.ID, a.ID}, tagIDs(assigned))

	owned, err := r.tags.ListByIDs(ctx, u.ID, []int64{a.ID, foreign.ID})
	require.NoError(t, err)
	require.Equal(t, []int64{a.ID}, tagIDs(owned))
}

func TestPinRepoCRUD(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := r.user(t, "pins@example.com")
	other := r.user(t, "other@example.com")
	t1 := r.tag(t, u.ID, "t1")
	t2 := r.tag(t, u.ID, "t2")
	p1 := r.pin(t, u.ID, "first", t2.ID, t1.ID)
	p2 := r.pin(t, u.ID, "second", t2.ID)
	r.pin(t, u.ID, "third")

	got, err := r.pins.FindByIDAndOwner(ctx, u.ID, p1.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{t1.ID, t2.ID}, got.TagIDs)
	require.True(t, p1.Date.Equal(got.Date))
	require.Equal(t, "", got.Image)

	_, err = r.pins.FindByIDAndOwner(ctx, other.ID, p1.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	filtered, err := r.pins.FilterByTagIDs(ctx, u.ID, []int64{t1.ID, t2.ID})
	require.NoError(t, err)
	require.Equal(t, []int64{p1.ID, p2.ID}, pinIDs(filtered))

	got.Title = "renamed"
	got.TagIDs = []int64{t1.ID}
	require.NoError(t, r.pins.Update(ctx, got, true))
	got, err = r.pins.FindByIDAndOwner(ctx, u.ID, p1.ID)
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Title)
	require.Equal(t, []int64{t1.ID}, got.TagIDs)

	got.UserID = other.ID
	require.ErrorIs(t, r.pins.Update(ctx, got, true), appErr.ErrNotFound)

	require.NoError(t, r.pins.UpdateImage(ctx, u.ID, p1.ID, "pin_1_x.png", 2))
	keys, err := r.pins.ListImageKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"pin_1_x.png"}, keys)

	_, err = r.pins.Delete(ctx, other.ID, p1.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	key, err := r.pins.Delete(ctx, u.ID, p1.ID)
	require.NoError(t, err)
	require.Equal(t, "pin_1_x.png", key)
	require.Equal(t, 1, count(t, r.db, "pin_tags"))
}

func TestCascades(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := r.user(t, "gone@example.com")
	keep := r.user(t, "keep@example.com")
	t1 := r.tag(t, u.ID, "t1")
	t2 := r.tag(t, u.ID, "t2")
	p := r.pin(t, u.ID, "p", t1.ID, t2.ID)
	require.NoError(t, r.pins.UpdateImage(ctx, u.ID, p.ID, "pin_img.png", 2))
	kt := r.tag(t, keep.ID, "k")
	r.pin(t, keep.ID, "kp", kt.ID)

	require.NoError(t, r.tags.Delete(ctx, t1.ID))
	got, err := r.pins.FindByIDAndOwner(ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{t2.ID}, got.TagIDs)
	require.ErrorIs(t, r.tags.Delete(ctx, t1.ID), appErr.ErrNotFound)

	keys, err := r.users.DeleteCascade(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"pin_img.png"}, keys)
	require.Equal(t, 1, count(t, r.db, "users"))
	require.Equal(t, 1, count(t, r.db, "pins"))
	require.Equal(t, 1, count(t, r.db, "tags"))
	require.Equal(t, 1, count(t, r.db, "pin_tags"))

	_, err = r.users.DeleteCascade(ctx, u.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func tagIDs(tags []model.Tag) []int64 {
	out := make([]int64, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.ID)
	}
	return out
}

func pinIDs(pins []model.Pin) []int64 {
	out := make([]int64, 0, len(pins))
	for _, pin := range pins {
		out = append(out, pin.ID)
	}
	return out
}

func TestPinRepoRejectsDeletedTag(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	user := r.user(t, "gone-tag@example.com")
	tag := r.tag(t, user.ID, "short-lived")
	require.NoError(t, r.tags.Delete(ctx, tag.ID))

	pin := &model.Pin{UserID: user.ID, Title: "late", Date: time.Now().UTC(), Mtime: 1, TagIDs: []int64{tag.ID}}
	err := r.pins.Create(ctx, pin)
	v, ok := appErr.AsValidation(err)
	require.True(t, ok, "%v", err)
	require.Contains(t, v.Fields, "tags")
	require.Equal(t, 0, count(t, r.db, "pins"), "create rolls back")

	kept := r.pin(t, user.ID, "kept")
	kept.TagIDs = []int64{tag.ID}
	err = r.pins.Update(ctx, kept, true)
	_, ok = appErr.AsValidation(err)
	require.True(t, ok, "%v", err)
}
