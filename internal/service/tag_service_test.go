package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
)

func TestTagCreateValidatesName(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "tags@example.com")
	ctx := context.Background()

	for _, name := range []string{"", "   ", strings.Repeat("x", 256)} {
		_, err := f.tags.Create(ctx, u.ID, name)
		require.ErrorIs(t, err, appErr.ErrInvalid)
		v, ok := appErr.AsValidation(err)
		require.True(t, ok)
		require.Contains(t, v.Fields, "name")
	}

	tag, err := f.tags.Create(ctx, u.ID, "  Go  ")
	require.NoError(t, err)
	require.NotZero(t, tag.ID)
	require.Equal(t, "Go", tag.Name)
	require.Equal(t, u.ID, tag.UserID)
}

func TestTagListIsOwnerScopedAndOrdered(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	f.tag(t, a.ID, "Apple")
	f.tag(t, a.ID, "Cherry")
	f.tag(t, a.ID, "Banana")
	f.tag(t, b.ID, "Zebra")

	tags, err := f.tags.List(context.Background(), a.ID, false)
	require.NoError(t, err)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	require.Equal(t, []string{"Cherry", "Banana", "Apple"}, names)
}

func TestTagListAssignedOnlyDeduplicates(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "assigned@example.com")
	used := f.tag(t, u.ID, "Used")
	f.tag(t, u.ID, "Unused")
	f.pin(t, u.ID, "first", used.ID)
	f.pin(t, u.ID, "second", used.ID)

	tags, err := f.tags.List(context.Background(), u.ID, true)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	require.Equal(t, used.ID, tags[0].ID)
}
