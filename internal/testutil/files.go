package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/xxxsen/pinboard/internal/config"
	"github.com/xxxsen/pinboard/internal/filestore"
)

// NewLocalStore returns a local file store rooted in a per-test directory.
func NewLocalStore(t *testing.T) (filestore.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	return store, dir
}

// PNG encodes a tiny valid PNG.
func PNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
