// Package imageio holds the upload extension policy and the raster codecs the
// service accepts and emits.
package imageio

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
)

// AllowedExtensions lists accepted upload extensions, lower case, without dot.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "tif", "tiff"}

// Allowed reports whether filename has an accepted extension.
func Allowed(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// Validate checks a client supplied filename.
func Validate(filename string) error {
	if filename == "" {
		return apperr.Invalid("No file selected")
	}
	if !Allowed(filename) {
		return apperr.Invalidf("Invalid file type. Allowed: %s", strings.Join(AllowedExtensions, ", "))
	}
	return nil
}

// Decode reads a PNG, JPEG or TIFF image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, apperr.Processing("failed to decode image", err)
	}
	return img, nil
}

// PNGDataURI encodes img as a base64 PNG data URI.
func PNGDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", apperr.Processing("failed to encode png", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
