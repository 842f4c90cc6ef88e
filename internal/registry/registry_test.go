package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
)

func TestParseVariant(t *testing.T) {
	t.Parallel()

	for _, v := range Variants {
		got, err := ParseVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	_, err := ParseVariant("sar")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "rgb, rgb_nir, ndvi")
}

func TestVariantMarshalText(t *testing.T) {
	t.Parallel()

	b, err := RGBNIR.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "rgb_nir", string(b))
}

func TestNewResolvesPathsAndShapes(t *testing.T) {
	t.Parallel()

	reg := New("models", map[Variant]Override{
		NDVI: {Path: "/opt/ndvi.onnx", InputName: "input_1"},
	})

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, []Variant{RGB, RGBNIR, NDVI}, []Variant{all[0].Variant, all[1].Variant, all[2].Variant})

	rgb, ok := reg.Lookup(RGB)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("models", "model_rgb_v0.onnx"), rgb.Path)
	assert.Equal(t, []int64{1, 64, 64, 3}, rgb.InputShape())
	assert.Equal(t, []int64{1, 10}, rgb.OutputShape())
	assert.Equal(t, "output", rgb.OutputName)

	nir, _ := reg.Lookup(RGBNIR)
	assert.Equal(t, 4, nir.Channels)

	ndvi, _ := reg.Lookup(NDVI)
	assert.Equal(t, "/opt/ndvi.onnx", ndvi.Path)
	assert.Equal(t, "input_1", ndvi.InputName)
	assert.Equal(t, 1, ndvi.Channels)
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	reg := New(".", nil)
	all := reg.All()
	all[0].Name = "mutated"

	d, _ := reg.Lookup(RGB)
	assert.Equal(t, "RGB Model", d.Name)
}

func TestClassesAreUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, c := range Classes {
		assert.False(t, seen[c], "duplicate class %s", c)
		seen[c] = true
	}
	assert.Len(t, Classes, 10)
}
