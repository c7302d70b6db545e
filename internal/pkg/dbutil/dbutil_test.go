package dbutil

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM pins WHERE user_id=? AND id IN (?,?)", []interface{}{1, 2, 3})
	require.Equal(t, "SELECT id FROM pins WHERE user_id=$1 AND id IN ($2,$3)", query)
	require.Equal(t, []interface{}{1, 2, 3}, args)
}

func TestFinalizeRewritesLimit(t *testing.T) {
	query, args := Finalize("SELECT id FROM tags WHERE user_id=? LIMIT ?,?", []interface{}{7, 20, 10})
	require.Equal(t, "SELECT id FROM tags WHERE user_id=$1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{7, 10, 20}, args)
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "", Placeholders(0))
	require.Equal(t, "?", Placeholders(1))
	require.Equal(t, "?,?,?", Placeholders(3))
}

func TestPgErrorClassification(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsForeignKeyViolation(errors.New("boom")))
}
