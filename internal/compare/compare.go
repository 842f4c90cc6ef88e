// Package compare runs every variant over one image and reports a plurality
// consensus.
package compare

import (
	"image"
	"math"

	"github.com/Brownie44l1/landcover-api/internal/classifier"
)

// ModelResult is one variant's outcome: either a prediction or an error.
type ModelResult struct {
	ModelName     string                   `json:"model_name"`
	Class         string                   `json:"predicted_class,omitempty"`
	Confidence    float64                  `json:"confidence,omitempty"`
	Probabilities classifier.Probabilities `json:"probabilities,omitempty"`
	Error         string                   `json:"error,omitempty"`
}

// Succeeded reports whether the variant produced a prediction.
func (r ModelResult) Succeeded() bool { return r.Error == "" }

// Result is the cross-variant comparison of one image.
type Result struct {
	Models    map[string]ModelResult `json:"models"`
	Order     []string               `json:"order"`
	Consensus *string                `json:"consensus"`
	Agreement float64                `json:"agreement"`
}

// All classifies img with every registry variant. Variants whose model is
// unavailable or whose prediction fails are recorded with their error and
// excluded from the vote.
//
// The consensus is the most frequent predicted class. On a tie the class
// that was predicted first, walking variants in registry order, wins.
func All(c *classifier.Classifier, img image.Image) *Result {
	res := &Result{Models: make(map[string]ModelResult)}

	counts := make(map[string]int)
	var firstSeen []string
	successes := 0

	for _, d := range c.Registry().All() {
		key := d.Variant.String()
		res.Order = append(res.Order, key)

		pred, err := c.Predict(img, d.Variant)
		if err != nil {
			res.Models[key] = ModelResult{ModelName: d.Name, Error: err.Error()}
			continue
		}
		res.Models[key] = ModelResult{
			ModelName:     d.Name,
			Class:         pred.Class,
			Confidence:    pred.Confidence,
			Probabilities: pred.Probabilities,
		}

		if counts[pred.Class] == 0 {
			firstSeen = append(firstSeen, pred.Class)
		}
		counts[pred.Class]++
		successes++
	}

	if successes == 0 {
		return res
	}

	best := firstSeen[0]
	for _, class := range firstSeen[1:] {
		if counts[class] > counts[best] {
			best = class
		}
	}
	res.Consensus = &best
	res.Agreement = math.Round(float64(counts[best])/float64(successes)*100*10) / 10
	return res
}
