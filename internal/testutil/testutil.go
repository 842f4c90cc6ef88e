// Package testutil provides shared test fixtures: fake model runners and
// synthetic images.
package testutil

import (
	"image"
	"image/color"
	"sync/atomic"

	"github.com/Brownie44l1/landcover-api/internal/model"
	"github.com/Brownie44l1/landcover-api/internal/registry"
)

// OneHot returns a probability vector with p on class idx and the remainder
// spread evenly across the other classes.
func OneHot(idx int, p float32) []float32 {
	n := len(registry.Classes)
	out := make([]float32, n)
	rest := (1 - p) / float32(n-1)
	for i := range out {
		out[i] = rest
	}
	out[idx] = p
	return out
}

// StaticRunner always returns Out (or Err) and counts calls.
type StaticRunner struct {
	Out   []float32
	Err   error
	calls atomic.Int64
}

func (r *StaticRunner) Run(input []float32) ([]float32, error) {
	r.calls.Add(1)
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]float32, len(r.Out))
	copy(out, r.Out)
	return out, nil
}

// Calls reports how many times Run was invoked.
func (r *StaticRunner) Calls() int { return int(r.calls.Load()) }

// BrightnessRunner predicts Dark for inputs whose mean is below 0.5 and
// Bright otherwise.
type BrightnessRunner struct {
	Dark, Bright int
}

func (r BrightnessRunner) Run(input []float32) ([]float32, error) {
	var sum float64
	for _, v := range input {
		sum += float64(v)
	}
	if len(input) > 0 && sum/float64(len(input)) >= 0.5 {
		return OneHot(r.Bright, 0.8), nil
	}
	return OneHot(r.Dark, 0.7), nil
}

// Models builds a model.Set where every variant in runners is loaded and
// every other registry variant failed with a missing file.
func Models(runners map[registry.Variant]model.Runner) *model.Set {
	errs := make(map[registry.Variant]error)
	for _, v := range registry.Variants {
		if _, ok := runners[v]; !ok {
			errs[v] = errMissing
		}
	}
	return model.NewSet(runners, errs)
}

type missingErr struct{}

func (missingErr) Error() string { return "model file not found" }

var errMissing error = missingErr{}

// Uniform returns a w×h RGBA image filled with c.
func Uniform(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Gradient returns a w×h RGBA image whose brightness rises left to right.
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / max(w-1, 1))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}
