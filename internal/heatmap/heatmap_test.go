package heatmap

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
	"github.com/Brownie44l1/landcover-api/internal/classifier"
	"github.com/Brownie44l1/landcover-api/internal/model"
	"github.com/Brownie44l1/landcover-api/internal/preprocess"
	"github.com/Brownie44l1/landcover-api/internal/registry"
	"github.com/Brownie44l1/landcover-api/internal/testutil"
)

func TestRamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v    float64
		want color.RGBA
	}{
		{0, color.RGBA{R: 0, G: 0, B: 255, A: 255}},
		{0.25, color.RGBA{R: 0, G: 127, B: 127, A: 255}},
		{0.5, color.RGBA{R: 0, G: 255, B: 0, A: 255}},
		{0.75, color.RGBA{R: 127, G: 127, B: 0, A: 255}},
		{1, color.RGBA{R: 255, G: 0, B: 0, A: 255}},
		{-0.2, color.RGBA{R: 0, G: 0, B: 255, A: 255}},
		{1.4, color.RGBA{R: 255, G: 0, B: 0, A: 255}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Ramp(tt.v), "v=%v", tt.v)
	}
}

func TestBlendRoundsHalfUp(t *testing.T) {
	t.Parallel()

	heat := image.NewRGBA(image.Rect(0, 0, 1, 1))
	orig := image.NewRGBA(image.Rect(0, 0, 1, 1))
	heat.SetRGBA(0, 0, color.RGBA{R: 255, G: 0, B: 10, A: 255})
	orig.SetRGBA(0, 0, color.RGBA{R: 0, G: 3, B: 10, A: 255})

	got := Blend(heat, orig).RGBAAt(0, 0)
	assert.Equal(t, color.RGBA{R: 128, G: 2, B: 10, A: 255}, got)
}

func TestThumbnailDropsAlpha(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
		}
	}

	got := Thumbnail(img).RGBAAt(10, 10)
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, got)
}

func TestIntensityNormalizesToMax(t *testing.T) {
	t.Parallel()

	tensor := &preprocess.Tensor{Shape: []int64{1, 64, 64, 1}, Data: make([]float32, 64*64)}
	for i := range tensor.Data {
		tensor.Data[i] = 0.2
	}
	tensor.Data[0] = 0.4

	m := Intensity(tensor)
	require.Equal(t, image.Rect(0, 0, Size, Size), m.Bounds())
	assert.Equal(t, uint8(255), m.GrayAt(0, 0).Y)
	assert.InDelta(t, 127, int(m.GrayAt(40, 40).Y), 1)
}

func TestIntensityAllZero(t *testing.T) {
	t.Parallel()

	tensor := &preprocess.Tensor{Shape: []int64{1, 64, 64, 3}, Data: make([]float32, 64*64*3)}
	m := Intensity(tensor)
	for _, p := range m.Pix {
		require.Equal(t, uint8(0), p)
	}
	assert.Equal(t, color.RGBA{B: 255, A: 255}, Colorize(m).RGBAAt(5, 5))
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	runner := &testutil.StaticRunner{Out: testutil.OneHot(4, 0.75)}
	c := classifier.New(registry.New("models", nil), testutil.Models(map[registry.Variant]model.Runner{
		registry.RGBNIR: runner,
	}))

	res, err := Generate(c, testutil.Gradient(128, 96), registry.RGBNIR)
	require.NoError(t, err)

	assert.Equal(t, "Industrial", res.Class)
	assert.Equal(t, "RGB + NIR Model", res.ModelUsed)
	assert.Equal(t, 1, runner.Calls())
	assert.True(t, strings.HasPrefix(res.Overlay, "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(res.HeatmapOnly, "data:image/png;base64,"))
	assert.Equal(t, image.Rect(0, 0, Size, Size), res.OverlayImage.Bounds())
	assert.Equal(t, image.Rect(0, 0, Size, Size), res.HeatmapImage.Bounds())

	// Dark left edge maps to blue, bright right edge to red.
	left := res.HeatmapImage.RGBAAt(0, 32)
	right := res.HeatmapImage.RGBAAt(Size-1, 32)
	assert.Greater(t, left.B, left.R)
	assert.Greater(t, right.R, right.B)
}

func TestGenerateUnavailable(t *testing.T) {
	t.Parallel()

	c := classifier.New(registry.New("models", nil), testutil.Models(nil))
	_, err := Generate(c, testutil.Gradient(16, 16), registry.RGB)
	require.Error(t, err)
	assert.Equal(t, apperr.KindModelUnavailable, apperr.KindOf(err))
}
