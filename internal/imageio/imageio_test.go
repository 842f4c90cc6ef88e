package imageio

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
)

func TestAllowed(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"scene.png":         true,
		"scene.JPG":         true,
		"scene.jpeg":        true,
		"sentinel.tif":      true,
		"sentinel.TIFF":     true,
		"scene.gif":         false,
		"scene":             false,
		"archive.png.zip":   false,
		"":                  false,
		".png":              true,
		"dir.with.dots/a.b": false,
	}
	for name, want := range tests {
		assert.Equal(t, want, Allowed(name), name)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Validate("a.png"))

	err := Validate("")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.EqualError(t, err, "No file selected")

	err = Validate("a.bmp")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "png, jpg, jpeg, tif, tiff")
}

func sampleImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 80), B: 10, A: 255})
		}
	}
	return img
}

func TestDecodeFormats(t *testing.T) {
	t.Parallel()

	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { return png.Encode(b, sampleImage()) },
		"jpeg": func(b *bytes.Buffer) error { return jpeg.Encode(b, sampleImage(), nil) },
		"tiff": func(b *bytes.Buffer) error { return tiff.Encode(b, sampleImage(), nil) },
	}
	for name, enc := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, enc(&buf))
			img, err := Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
		})
	}
}

func TestDecodeGarbage(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader("not an image"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindProcessingFailure, apperr.KindOf(err))
}

func TestPNGDataURIRoundTrip(t *testing.T) {
	t.Parallel()

	uri, err := PNGDataURI(sampleImage())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 60, G: 80, B: 10, A: 255}, color.RGBAModel.Convert(img.At(1, 1)))
}
