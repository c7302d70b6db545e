package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/pinboard/internal/pkg/dbutil"
)

type PinTagRepo struct {
	db dbutil.Executor
}

func NewPinTagRepo(db *sql.DB) *PinTagRepo {
	return &PinTagRepo{db: db}
}

func (r *PinTagRepo) withTx(tx *sql.Tx) *PinTagRepo {
	return &PinTagRepo{db: tx}
}

func (r *PinTagRepo) Add(ctx context.Context, pinID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, map[string]interface{}{
			"pin_id": pinID,
			"tag_id": tagID,
		})
	}
	sqlStr, args, err := builder.BuildInsert("pin_tags", rows)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *PinTagRepo) Replace(ctx context.Context, pinID int64, tagIDs []int64) error {
	if err := r.DeleteByPin(ctx, pinID); err != nil {
		return err
	}
	return r.Add(ctx, pinID, tagIDs)
}

func (r *PinTagRepo) DeleteByPin(ctx context.Context, pinID int64) error {
	sqlStr, args, err := builder.BuildDelete("pin_tags", map[string]interface{}{"pin_id": pinID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *PinTagRepo) DeleteByTag(ctx context.Context, tagID int64) error {
	sqlStr, args, err := builder.BuildDelete("pin_tags", map[string]interface{}{"tag_id": tagID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// DeleteByUser drops every association touching a pin or a tag owned by userID.
func (r *PinTagRepo) DeleteByUser(ctx context.Context, userID int64) error {
	sqlStr := "DELETE FROM pin_tags WHERE pin_id IN (SELECT id FROM pins WHERE user_id = ?) " +
		"OR tag_id IN (SELECT id FROM tags WHERE user_id = ?)"
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{userID, userID})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *PinTagRepo) ListTagIDsByPinIDs(ctx context.Context, pinIDs []int64) (map[int64][]int64, error) {
	if len(pinIDs) == 0 {
		return map[int64][]int64{}, nil
	}
	where := map[string]interface{}{
		"pin_id in": dbutil.Int64Args(pinIDs),
		"_orderby":  "pin_id asc, tag_id asc",
	}
	sqlStr, args, err := builder.BuildSelect("pin_tags", where, []string{"pin_id", "tag_id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	result := make(map[int64][]int64, len(pinIDs))
	for rows.Next() {
		var pinID, tagID int64
		if err := rows.Scan(&pinID, &tagID); err != nil {
			return nil, err
		}
		result[pinID] = append(result[pinID], tagID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
