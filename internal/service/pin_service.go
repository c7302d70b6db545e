package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pinboard/internal/filestore"
	"github.com/xxxsen/pinboard/internal/model"
	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
	"github.com/xxxsen/pinboard/internal/pkg/timeutil"
)

const (
	maxTitleLength = 255
	maxLinkLength  = 255
)

type PinService struct {
	pins  PinRepository
	tags  TagRepository
	store filestore.Store
}

// PinInput carries the writable pin fields of a request. Nil means the field
// was not supplied.
type PinInput struct {
	Title  *string
	Link   *string
	TagIDs *[]int64
	Date   *time.Time
}

type PinDetail struct {
	Pin  *model.Pin
	Tags []model.Tag
}

func NewPinService(pins PinRepository, tags TagRepository, store filestore.Store) *PinService {
	return &PinService{pins: pins, tags: tags, store: store}
}

func (s *PinService) List(ctx context.Context, userID int64, tagIDs []int64) ([]model.Pin, error) {
	if len(tagIDs) == 0 {
		return s.pins.ListByOwner(ctx, userID)
	}
	return s.pins.FilterByTagIDs(ctx, userID, dedupeIDs(tagIDs))
}

// Find returns the caller's pin without its tags.
func (s *PinService) Find(ctx context.Context, userID, pinID int64) (*model.Pin, error) {
	return s.pins.FindByIDAndOwner(ctx, userID, pinID)
}

func (s *PinService) Get(ctx context.Context, userID, pinID int64) (*PinDetail, error) {
	pin, err := s.pins.FindByIDAndOwner(ctx, userID, pinID)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ListByPin(ctx, pin.ID)
	if err != nil {
		return nil, err
	}
	return &PinDetail{Pin: pin, Tags: tags}, nil
}

func (s *PinService) Create(ctx context.Context, userID int64, input PinInput) (*model.Pin, error) {
	pin := &model.Pin{UserID: userID, TagIDs: []int64{}}
	v := &appErr.ValidationError{}
	if input.Title == nil {
		v.Add("title", msgRequired)
	} else {
		pin.Title = strings.TrimSpace(*input.Title)
	}
	if input.Link != nil {
		pin.Link = strings.TrimSpace(*input.Link)
	}
	if input.TagIDs != nil {
		pin.TagIDs = dedupeIDs(*input.TagIDs)
	}
	if err := s.validate(ctx, userID, pin, input.Title != nil, input.TagIDs != nil, v); err != nil {
		return nil, err
	}
	now := timeutil.Now()
	pin.Date = now
	if input.Date != nil {
		pin.Date = input.Date.UTC().Truncate(time.Microsecond)
	}
	pin.Mtime = now.Unix()
	if err := s.pins.Create(ctx, pin); err != nil {
		return nil, err
	}
	return pin, nil
}

// Update applies input to the caller's pin. A partial update only touches
// supplied fields; a full update resets omitted link and tags to empty.
// Date and image are never changed here.
func (s *PinService) Update(ctx context.Context, userID, pinID int64, input PinInput, partial bool) (*model.Pin, error) {
	pin, err := s.pins.FindByIDAndOwner(ctx, userID, pinID)
	if err != nil {
		return nil, err
	}
	v := &appErr.ValidationError{}
	if input.Title != nil {
		pin.Title = strings.TrimSpace(*input.Title)
	} else if !partial {
		v.Add("title", msgRequired)
	}
	switch {
	case input.Link != nil:
		pin.Link = strings.TrimSpace(*input.Link)
	case !partial:
		pin.Link = ""
	}
	replaceTags := !partial || input.TagIDs != nil
	switch {
	case input.TagIDs != nil:
		pin.TagIDs = dedupeIDs(*input.TagIDs)
	case !partial:
		pin.TagIDs = []int64{}
	}
	if err := s.validate(ctx, userID, pin, input.Title != nil, input.TagIDs != nil, v); err != nil {
		return nil, err
	}
	pin.Mtime = timeutil.NowUnix()
	if err := s.pins.Update(ctx, pin, replaceTags); err != nil {
		return nil, err
	}
	return pin, nil
}

func (s *PinService) Delete(ctx context.Context, userID, pinID int64) error {
	key, err := s.pins.Delete(ctx, userID, pinID)
	if err != nil {
		return err
	}
	s.removeStored(ctx, key)
	return nil
}

// UploadImage validates and stores file as the pin's image. The previous
// image, if any, is removed after the pin points at the new one.
func (s *PinService) UploadImage(ctx context.Context, userID, pinID int64, file io.ReadSeeker, size int64) (*model.Pin, error) {
	pin, err := s.pins.FindByIDAndOwner(ctx, userID, pinID)
	if err != nil {
		return nil, err
	}
	ext, err := DecodeImage(file)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("pin_%d_%s.%s", pin.ID, strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	if err := s.store.Save(ctx, key, file, size); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	if err := s.pins.UpdateImage(ctx, userID, pin.ID, key, timeutil.NowUnix()); err != nil {
		s.removeStored(ctx, key)
		return nil, err
	}
	previous := pin.Image
	pin.Image = key
	if previous != key {
		s.removeStored(ctx, previous)
	}
	logutil.GetLogger(ctx).Info("pin image stored",
		zap.Int64("user_id", userID),
		zap.Int64("pin_id", pin.ID),
		zap.String("key", key),
		zap.Int64("size", size),
	)
	return pin, nil
}

// ImageURL returns the public address of the pin's image, empty when unset.
func (s *PinService) ImageURL(pin *model.Pin, baseURL string) string {
	if pin == nil || pin.Image == "" {
		return ""
	}
	return s.store.URL(pin.Image, baseURL)
}

func (s *PinService) validate(ctx context.Context, userID int64, pin *model.Pin, checkTitle, checkTags bool, v *appErr.ValidationError) error {
	if checkTitle {
		switch {
		case pin.Title == "":
			v.Add("title", msgBlank)
		case utf8.RuneCountInString(pin.Title) > maxTitleLength:
			v.Add("title", msgMaxLength(maxTitleLength))
		}
	}
	if utf8.RuneCountInString(pin.Link) > maxLinkLength {
		v.Add("link", msgMaxLength(maxLinkLength))
	}
	if checkTags && len(pin.TagIDs) > 0 {
		owned, err := s.tags.ListByIDs(ctx, userID, pin.TagIDs)
		if err != nil {
			return err
		}
		found := make(map[int64]struct{}, len(owned))
		for _, tag := range owned {
			found[tag.ID] = struct{}{}
		}
		for _, id := range pin.TagIDs {
			if _, ok := found[id]; !ok {
				v.Add("tags", msgInvalidPK(id))
			}
		}
	}
	return v.OrNil()
}

func (s *PinService) removeStored(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		logutil.GetLogger(ctx).Warn("remove stored image failed", zap.String("key", key), zap.Error(err))
	}
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
