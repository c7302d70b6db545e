package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/pinboard/internal/model"
	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
	"github.com/xxxsen/pinboard/internal/pkg/timeutil"
)

const maxTagNameLength = 255

type TagService struct {
	tags TagRepository
}

func NewTagService(tags TagRepository) *TagService {
	return &TagService{tags: tags}
}

func (s *TagService) Create(ctx context.Context, userID int64, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErr.NewValidationError("name", msgBlank)
	}
	if utf8.RuneCountInString(name) > maxTagNameLength {
		return nil, appErr.NewValidationError("name", msgMaxLength(maxTagNameLength))
	}
	tag := &model.Tag{
		UserID: userID,
		Name:   name,
		Ctime:  timeutil.NowUnix(),
	}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *TagService) List(ctx context.Context, userID int64, assignedOnly bool) ([]model.Tag, error) {
	return s.tags.ListByOwner(ctx, userID, assignedOnly)
}
