// Package classifier turns images into ranked land-cover predictions using the
// loaded model set.
package classifier

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
	"github.com/Brownie44l1/landcover-api/internal/model"
	"github.com/Brownie44l1/landcover-api/internal/preprocess"
	"github.com/Brownie44l1/landcover-api/internal/registry"
)

// Classifier runs predictions against a registry and its loaded models.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	reg    *registry.Registry
	models *model.Set
}

// New returns a Classifier over reg and models.
func New(reg *registry.Registry, models *model.Set) *Classifier {
	return &Classifier{reg: reg, models: models}
}

// Registry returns the registry the classifier was built with.
func (c *Classifier) Registry() *registry.Registry { return c.reg }

// Descriptor returns the descriptor for v.
func (c *Classifier) Descriptor(v registry.Variant) (registry.Descriptor, error) {
	d, ok := c.reg.Lookup(v)
	if !ok {
		return registry.Descriptor{}, apperr.Invalidf("unknown model %q", v)
	}
	return d, nil
}

// Ready returns a ModelUnavailable error if v has no loaded model.
func (c *Classifier) Ready(v registry.Variant) error {
	_, err := c.models.Runner(v)
	return err
}

// Predict preprocesses img for v and classifies it.
func (c *Classifier) Predict(img image.Image, v registry.Variant) (*Prediction, error) {
	d, err := c.Descriptor(v)
	if err != nil {
		return nil, err
	}
	if err := c.Ready(v); err != nil {
		return nil, err
	}

	tensor, err := preprocess.Prepare(img, d)
	if err != nil {
		return nil, err
	}
	return c.PredictTensor(tensor, v)
}

// PredictTensor classifies an already prepared tensor.
func (c *Classifier) PredictTensor(t *preprocess.Tensor, v registry.Variant) (*Prediction, error) {
	d, err := c.Descriptor(v)
	if err != nil {
		return nil, err
	}
	runner, err := c.models.Runner(v)
	if err != nil {
		return nil, err
	}

	out, err := runner.Run(t.Data)
	if err != nil {
		return nil, apperr.Processing("inference failed", err)
	}
	if len(out) != len(registry.Classes) {
		return nil, apperr.Processingf("model %s returned %d outputs, expected %d", v, len(out), len(registry.Classes))
	}

	return rank(out, d), nil
}

// rank scales raw outputs to percentages and orders them. The top class is
// the first maximum in label order.
func rank(out []float32, d registry.Descriptor) *Prediction {
	pct := make([]float64, len(out))
	for i, p := range out {
		pct[i] = float64(p) * 100
	}
	top := floats.MaxIdx(pct)

	probs := make(Probabilities, len(pct))
	for i, p := range pct {
		probs[i] = Probability{Class: registry.Classes[i], Percent: p}
	}
	sort.SliceStable(probs, func(i, j int) bool { return probs[i].Percent > probs[j].Percent })

	return &Prediction{
		Class:         registry.Classes[top],
		ClassIndex:    top,
		Confidence:    math.Round(pct[top]*100) / 100,
		Probabilities: probs,
		Variant:       d.Variant,
		ModelUsed:     d.Name,
	}
}

// AvailableVariants lists every registry variant with its load status.
func (c *Classifier) AvailableVariants() []VariantInfo {
	all := c.reg.All()
	out := make([]VariantInfo, len(all))
	for i, d := range all {
		out[i] = VariantInfo{
			Key:         d.Variant,
			Name:        d.Name,
			Description: d.Description,
			Loaded:      c.models.Loaded(d.Variant),
		}
	}
	return out
}
