package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/pinboard/internal/model"
	"github.com/xxxsen/pinboard/internal/pkg/dbutil"
	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
)

var pinFields = []string{"id", "user_id", "title", "link", "image", "date", "mtime"}

type PinRepo struct {
	db      *sql.DB
	pinTags *PinTagRepo
}

func NewPinRepo(db *sql.DB) *PinRepo {
	return &PinRepo{db: db, pinTags: NewPinTagRepo(db)}
}

// Create inserts the pin and its tag associations in one transaction and
// fills pin.ID.
func (r *PinRepo) Create(ctx context.Context, pin *model.Pin) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		data := map[string]interface{}{
			"user_id": pin.UserID,
			"title":   pin.Title,
			"link":    pin.Link,
			"image":   nullString(pin.Image),
			"date":    pin.Date,
			"mtime":   pin.Mtime,
		}
		sqlStr, args, err := builder.BuildInsert("pins", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr+" RETURNING id", args)
		if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&pin.ID); err != nil {
			return err
		}
		return tagRefError(r.pinTags.withTx(tx).Add(ctx, pin.ID, pin.TagIDs))
	})
}

// Update writes title, link and mtime. When replaceTags is set the tag
// associations are replaced by pin.TagIDs within the same transaction.
func (r *PinRepo) Update(ctx context.Context, pin *model.Pin, replaceTags bool) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		where := map[string]interface{}{
			"id":      pin.ID,
			"user_id": pin.UserID,
		}
		update := map[string]interface{}{
			"title": pin.Title,
			"link":  pin.Link,
			"mtime": pin.Mtime,
		}
		sqlStr, args, err := builder.BuildUpdate("pins", where, update)
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if err := expectAffected(tx.ExecContext(ctx, sqlStr, args...)); err != nil {
			return err
		}
		if !replaceTags {
			return nil
		}
		return tagRefError(r.pinTags.withTx(tx).Replace(ctx, pin.ID, pin.TagIDs))
	})
}

func (r *PinRepo) UpdateImage(ctx context.Context, userID, pinID int64, key string, mtime int64) error {
	where := map[string]interface{}{
		"id":      pinID,
		"user_id": userID,
	}
	update := map[string]interface{}{
		"image": nullString(key),
		"mtime": mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("pins", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return expectAffected(r.db.ExecContext(ctx, sqlStr, args...))
}

func (r *PinRepo) FindByIDAndOwner(ctx context.Context, userID, pinID int64) (*model.Pin, error) {
	where := map[string]interface{}{
		"id":      pinID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("pins", where, pinFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	pins, err := r.query(ctx, sqlStr, args)
	if err != nil {
		return nil, err
	}
	if len(pins) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &pins[0], nil
}

func (r *PinRepo) ListByOwner(ctx context.Context, userID int64) ([]model.Pin, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "id asc",
	}
	sqlStr, args, err := builder.BuildSelect("pins", where, pinFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.query(ctx, sqlStr, args)
}

// FilterByTagIDs returns the user's pins carrying at least one of tagIDs.
func (r *PinRepo) FilterByTagIDs(ctx context.Context, userID int64, tagIDs []int64) ([]model.Pin, error) {
	if len(tagIDs) == 0 {
		return r.ListByOwner(ctx, userID)
	}
	sqlStr := "SELECT id, user_id, title, link, image, date, mtime FROM pins WHERE user_id = ? " +
		"AND id IN (SELECT pin_id FROM pin_tags WHERE tag_id IN (" + dbutil.Placeholders(len(tagIDs)) + ")) " +
		"ORDER BY id ASC"
	args := append([]interface{}{userID}, dbutil.Int64Args(tagIDs)...)
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.query(ctx, sqlStr, args)
}

// Delete removes the pin and its tag associations. It returns the pin's
// image key, empty when none was stored.
func (r *PinRepo) Delete(ctx context.Context, userID, pinID int64) (string, error) {
	var key string
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		keys, err := listImageKeys(ctx, tx, "SELECT image FROM pins WHERE id = ? AND user_id = ? AND image IS NOT NULL", pinID, userID)
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			key = keys[0]
		}
		sqlStr := "DELETE FROM pin_tags WHERE pin_id IN (SELECT id FROM pins WHERE id = ? AND user_id = ?)"
		sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{pinID, userID})
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		sqlStr, args, err = builder.BuildDelete("pins", map[string]interface{}{"id": pinID, "user_id": userID})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		return expectAffected(tx.ExecContext(ctx, sqlStr, args...))
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// ListImageKeys returns every image key still referenced by a pin.
func (r *PinRepo) ListImageKeys(ctx context.Context) ([]string, error) {
	return listImageKeys(ctx, r.db, "SELECT image FROM pins WHERE image IS NOT NULL")
}

func (r *PinRepo) query(ctx context.Context, sqlStr string, args []interface{}) ([]model.Pin, error) {
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	pins := make([]model.Pin, 0)
	for rows.Next() {
		var pin model.Pin
		var image sql.NullString
		if err := rows.Scan(&pin.ID, &pin.UserID, &pin.Title, &pin.Link, &image, &pin.Date, &pin.Mtime); err != nil {
			return nil, err
		}
		pin.Image = image.String
		pin.Date = pin.Date.UTC()
		pins = append(pins, pin)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachTagIDs(ctx, pins); err != nil {
		return nil, err
	}
	return pins, nil
}

func (r *PinRepo) attachTagIDs(ctx context.Context, pins []model.Pin) error {
	if len(pins) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(pins))
	for _, pin := range pins {
		ids = append(ids, pin.ID)
	}
	tagIDs, err := r.pinTags.ListTagIDsByPinIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range pins {
		pins[i].TagIDs = tagIDs[pins[i].ID]
		if pins[i].TagIDs == nil {
			pins[i].TagIDs = []int64{}
		}
	}
	return nil
}

func listImageKeys(ctx context.Context, db dbutil.Executor, sqlStr string, args ...interface{}) ([]string, error) {
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// tagRefError reports a tag removed after validation as an invalid tags field.
func tagRefError(err error) error {
	if dbutil.IsForeignKeyViolation(err) {
		return appErr.NewValidationError("tags", "Invalid pk - object does not exist.")
	}
	return err
}

func expectAffected(result sql.Result, err error) error {
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
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
