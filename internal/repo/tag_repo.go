package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/pinboard/internal/model"
	"github.com/xxxsen/pinboard/internal/pkg/dbutil"
	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
)

var tagFields = []string{"id", "user_id", "name", "ctime"}

type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

func (r *TagRepo) Create(ctx context.Context, tag *model.Tag) error {
	data := map[string]interface{}{
		"user_id": tag.UserID,
		"name":    tag.Name,
		"ctime":   tag.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("tags", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr+" RETURNING id", args)
	return r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&tag.ID)
}

// ListByOwner returns the user's tags by name descending. With assignedOnly
// only tags attached to at least one pin are kept, each tag once.
func (r *TagRepo) ListByOwner(ctx context.Context, userID int64, assignedOnly bool) ([]model.Tag, error) {
	sqlStr := "SELECT id, user_id, name, ctime FROM tags WHERE user_id = ?"
	if assignedOnly {
		sqlStr += " AND id IN (SELECT tag_id FROM pin_tags)"
	}
	sqlStr += " ORDER BY name DESC, id DESC"
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{userID})
	return r.query(ctx, sqlStr, args)
}

func (r *TagRepo) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Tag, error) {
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}
	where := map[string]interface{}{
		"user_id":  userID,
		"id in":    dbutil.Int64Args(ids),
		"_orderby": "id asc",
	}
	sqlStr, args, err := builder.BuildSelect("tags", where, tagFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.query(ctx, sqlStr, args)
}

func (r *TagRepo) ListByPin(ctx context.Context, pinID int64) ([]model.Tag, error) {
	sqlStr := "SELECT t.id, t.user_id, t.name, t.ctime FROM tags t " +
		"JOIN pin_tags pt ON pt.tag_id = t.id WHERE pt.pin_id = ? ORDER BY t.id ASC"
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{pinID})
	return r.query(ctx, sqlStr, args)
}

func (r *TagRepo) GetByID(ctx context.Context, tagID int64) (*model.Tag, error) {
	sqlStr, args, err := builder.BuildSelect("tags", map[string]interface{}{"id": tagID}, tagFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	tags, err := r.query(ctx, sqlStr, args)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &tags[0], nil
}

// Delete removes the tag and its pin associations. Pins stay.
func (r *TagRepo) Delete(ctx context.Context, tagID int64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := (&PinTagRepo{db: tx}).DeleteByTag(ctx, tagID); err != nil {
			return err
		}
		sqlStr, args, err := builder.BuildDelete("tags", map[string]interface{}{"id": tagID})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		result, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return appErr.ErrNotFound
		}
		return nil
	})
}

func (r *TagRepo) query(ctx context.Context, sqlStr string, args []interface{}) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	tags := make([]model.Tag, 0)
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Ctime); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
