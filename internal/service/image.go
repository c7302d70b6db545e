package service

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
)

const maxImagePixels = 50_000_000

var imageExtensions = map[string]string{
	"gif":  "gif",
	"jpeg": "jpg",
	"png":  "png",
	"bmp":  "bmp",
	"tiff": "tiff",
	"webp": "webp",
}

// DecodeImage checks that r holds a complete raster image of a supported
// format and returns the file extension to store it under. r is rewound on
// success.
func DecodeImage(r io.ReadSeeker) (string, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return "", invalidImage()
	}
	ext, ok := imageExtensions[format]
	if !ok || cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return "", invalidImage()
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if _, _, err := image.Decode(r); err != nil {
		return "", invalidImage()
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return ext, nil
}

func invalidImage() error {
	return appErr.NewValidationError("image", msgInvalidFile)
}

func NoImageError() error {
	return appErr.NewValidationError("image", msgNoFile)
}

func ImageTooLargeError(limit string) error {
	return appErr.NewValidationError("image", fmt.Sprintf("File too large. Size should not exceed %s.", limit))
}
