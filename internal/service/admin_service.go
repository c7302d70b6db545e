package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pinboard/internal/filestore"
)

// AdminService holds the maintenance operations that have no HTTP endpoint.
type AdminService struct {
	users UserRepository
	tags  TagRepository
	store filestore.Store
}

func NewAdminService(users UserRepository, tags TagRepository, store filestore.Store) *AdminService {
	return &AdminService{users: users, tags: tags, store: store}
}

// DeleteUser removes the user, its pins, tags and their associations, then
// drops the stored images of the removed pins.
func (s *AdminService) DeleteUser(ctx context.Context, email string) (int, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return 0, err
	}
	keys, err := s.users.DeleteCascade(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	logger := logutil.GetLogger(ctx).With(zap.Int64("user_id", user.ID))
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			logger.Warn("remove stored image failed", zap.String("key", key), zap.Error(err))
		}
	}
	logger.Info("user deleted", zap.Int("images", len(keys)))
	return len(keys), nil
}

// DeleteTag removes the tag and its pin associations. Pins are kept.
func (s *AdminService) DeleteTag(ctx context.Context, tagID int64) error {
	tag, err := s.tags.GetByID(ctx, tagID)
	if err != nil {
		return err
	}
	if err := s.tags.Delete(ctx, tag.ID); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("tag deleted", zap.Int64("tag_id", tag.ID), zap.Int64("user_id", tag.UserID))
	return nil
}
