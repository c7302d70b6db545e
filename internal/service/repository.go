package service

import (
	"context"

	"github.com/xxxsen/pinboard/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, userID int64) (*model.User, error)
	DeleteCascade(ctx context.Context, userID int64) ([]string, error)
}

type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	ListByOwner(ctx context.Context, userID int64, assignedOnly bool) ([]model.Tag, error)
	ListByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Tag, error)
	ListByPin(ctx context.Context, pinID int64) ([]model.Tag, error)
	GetByID(ctx context.Context, tagID int64) (*model.Tag, error)
	Delete(ctx context.Context, tagID int64) error
}

type PinRepository interface {
	Create(ctx context.Context, pin *model.Pin) error
	Update(ctx context.Context, pin *model.Pin, replaceTags bool) error
	UpdateImage(ctx context.Context, userID, pinID int64, key string, mtime int64) error
	FindByIDAndOwner(ctx context.Context, userID, pinID int64) (*model.Pin, error)
	ListByOwner(ctx context.Context, userID int64) ([]model.Pin, error)
	FilterByTagIDs(ctx context.Context, userID int64, tagIDs []int64) ([]model.Pin, error)
	Delete(ctx context.Context, userID, pinID int64) (string, error)
	ListImageKeys(ctx context.Context) ([]string, error)
}
