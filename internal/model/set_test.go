package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
	"github.com/Brownie44l1/landcover-api/internal/registry"
)

type closingRunner struct {
	closed bool
}

func (r *closingRunner) Run(input []float32) ([]float32, error) { return input, nil }
func (r *closingRunner) Close()                                 { r.closed = true }

func TestSetRunner(t *testing.T) {
	t.Parallel()

	rgb := &closingRunner{}
	cause := errors.New("model file not found: models/model_NDVI_v2.onnx")
	s := NewSet(
		map[registry.Variant]Runner{registry.RGB: rgb},
		map[registry.Variant]error{registry.NDVI: cause},
	)

	r, err := s.Runner(registry.RGB)
	require.NoError(t, err)
	assert.Same(t, rgb, r)
	assert.True(t, s.Loaded(registry.RGB))

	_, err = s.Runner(registry.NDVI)
	require.Error(t, err)
	assert.Equal(t, apperr.KindModelUnavailable, apperr.KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, s.Loaded(registry.NDVI))

	_, err = s.Runner(registry.RGBNIR)
	assert.Equal(t, apperr.KindModelUnavailable, apperr.KindOf(err))
}

func TestSetCloseClosesRunners(t *testing.T) {
	t.Parallel()

	rgb := &closingRunner{}
	s := NewSet(map[registry.Variant]Runner{registry.RGB: rgb}, nil)
	s.Close()
	assert.True(t, rgb.closed)
}

func TestLoadMissingFilesLeavesEveryVariantUnavailable(t *testing.T) {
	prev := Logf
	Logf = func(string, ...any) {}
	t.Cleanup(func() { Logf = prev })

	reg := registry.New(t.TempDir(), nil)
	s := Load(reg, LoadOptions{})
	defer s.Close()

	for _, d := range reg.All() {
		assert.False(t, s.Loaded(d.Variant), d.Variant.String())
		_, err := s.Runner(d.Variant)
		assert.Equal(t, apperr.KindModelUnavailable, apperr.KindOf(err))
	}
}
