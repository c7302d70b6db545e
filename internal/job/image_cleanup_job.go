package job

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pinboard/internal/filestore"
)

const imageKeyPrefix = "pin_"

// ImageKeyLister reports the image keys still referenced by pins.
type ImageKeyLister interface {
	ListImageKeys(ctx context.Context) ([]string, error)
}

// ImageCleanupJob deletes stored pin images that no pin references anymore.
// Objects younger than grace are kept so an upload in flight is not raced.
type ImageCleanupJob struct {
	pins  ImageKeyLister
	store filestore.Store
	grace time.Duration
	now   func() time.Time
}

func NewImageCleanupJob(pins ImageKeyLister, store filestore.Store, grace time.Duration) *ImageCleanupJob {
	return &ImageCleanupJob{pins: pins, store: store, grace: grace, now: time.Now}
}

func (j *ImageCleanupJob) Name() string {
	return "image_cleanup"
}

func (j *ImageCleanupJob) Run(ctx context.Context) error {
	if j.pins == nil || j.store == nil {
		return nil
	}
	grace := j.grace
	if grace <= 0 {
		grace = 24 * time.Hour
	}
	objects, err := j.store.List(ctx)
	if err != nil {
		return err
	}
	keys, err := j.pins.ListImageKeys(ctx)
	if err != nil {
		return err
	}
	referenced := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		referenced[key] = struct{}{}
	}
	cutoff := j.now().Add(-grace)
	logger := logutil.GetLogger(ctx).With(zap.String("job", j.Name()))
	removed := 0
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, imageKeyPrefix) || obj.ModTime.After(cutoff) {
			continue
		}
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if err := j.store.Delete(ctx, obj.Key); err != nil {
			logger.Warn("remove orphan image failed", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		removed++
	}
	logger.Info("orphan images removed", zap.Int("removed", removed), zap.Int("scanned", len(objects)))
	return nil
}
