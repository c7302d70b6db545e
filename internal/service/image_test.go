package service

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
)

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func TestDecodeImageFormats(t *testing.T) {
	var pngBuf, jpgBuf, gifBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, sampleImage()))
	require.NoError(t, jpeg.Encode(&jpgBuf, sampleImage(), nil))
	require.NoError(t, gif.Encode(&gifBuf, sampleImage(), nil))

	cases := map[string]struct {
		data []byte
		ext  string
	}{
		"png":  {pngBuf.Bytes(), "png"},
		"jpeg": {jpgBuf.Bytes(), "jpg"},
		"gif":  {gifBuf.Bytes(), "gif"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := bytes.NewReader(tc.data)
			ext, err := DecodeImage(r)
			require.NoError(t, err)
			require.Equal(t, tc.ext, ext)
			pos, err := r.Seek(0, 1)
			require.NoError(t, err)
			require.Zero(t, pos)
		})
	}
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not an image"), []byte("\x89PNG\r\n\x1a\ntruncated")} {
		_, err := DecodeImage(bytes.NewReader(data))
		require.ErrorIs(t, err, appErr.ErrInvalid)
		v, ok := appErr.AsValidation(err)
		require.True(t, ok)
		require.Contains(t, v.Fields, "image")
	}
}

func TestDecodeImageRejectsTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sampleImage()))
	data := buf.Bytes()[:buf.Len()-20]
	_, err := DecodeImage(bytes.NewReader(data))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
