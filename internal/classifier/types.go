package classifier

import (
	"bytes"
	"encoding/json"


	"github.com/Brownie44l1/landcover-api/internal/registry"
)

// Probability is one class's share of a prediction, in percent.
type Probability struct {
	Class   string
	Percent float64
}

// Probabilities is ordered by descending Percent and marshals to a JSON
// object that keeps that order.
type Probabilities []Probability

func (p Probabilities) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Class)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Percent)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Prediction is the outcome of one forward pass.
type Prediction struct {
	Class         string           `json:"predicted_class"`
	ClassIndex    int              `json:"-"`
	Confidence    float64          `json:"confidence"`
	Probabilities Probabilities    `json:"probabilities"`
	Variant       registry.Variant `json:"model"`
	ModelUsed     string           `json:"model_used"`
}

// VariantInfo describes a variant and whether its model is serving.
type VariantInfo struct {
	Key         registry.Variant `json:"key"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Loaded      bool             `json:"loaded"`
}
