// Package series classifies an ordered image sequence and reports where the
// predicted land cover changes.
package series

import (
	"fmt"
	"image"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
	"github.com/Brownie44l1/landcover-api/internal/classifier"
	"github.com/Brownie44l1/landcover-api/internal/imageio"
	"github.com/Brownie44l1/landcover-api/internal/registry"
)

// Frame is one input image. Decode is only called for frames that pass the
// filename checks.
type Frame struct {
	Filename string
	Decode   func() (image.Image, error)
}

// Entry is the prediction for one frame.
type Entry struct {
	Index         int                      `json:"index"`
	Date          string                   `json:"date"`
	Class         string                   `json:"predicted_class"`
	Confidence    float64                  `json:"confidence"`
	Probabilities classifier.Probabilities `json:"probabilities"`
}

// Change records two adjacent entries with different predicted classes.
type Change struct {
	FromDate       string  `json:"from_date"`
	ToDate         string  `json:"to_date"`
	FromClass      string  `json:"from_class"`
	ToClass        string  `json:"to_class"`
	FromConfidence float64 `json:"from_confidence"`
	ToConfidence   float64 `json:"to_confidence"`
}

// Timeline holds parallel per-entry sequences for charting.
type Timeline struct {
	Dates       []string  `json:"dates"`
	Classes     []string  `json:"classes"`
	Confidences []float64 `json:"confidences"`
}

// Failure is a frame that was accepted but could not be classified.
type Failure struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// Result is the outcome of a series analysis.
type Result struct {
	Entries     []Entry          `json:"results"`
	Changes     []Change         `json:"changes"`
	Timeline    Timeline         `json:"timeline"`
	Failures    []Failure        `json:"failures,omitempty"`
	TotalImages int              `json:"total_images"`
	ChangeCount int              `json:"change_count"`
	Variant     registry.Variant `json:"model"`
	ModelUsed   string           `json:"model_used"`
}

// Analyze classifies frames in input order with variant v.
//
// Frames with an empty or disallowed filename are skipped. At least two
// frames must pass that filter and at least two must classify successfully,
// otherwise apperr.ErrInsufficientInput is returned. A frame's date is
// dates[i] for its input position i when present and non-empty, else "T<i+1>".
func Analyze(c *classifier.Classifier, frames []Frame, v registry.Variant, dates []string) (*Result, error) {
	d, err := c.Descriptor(v)
	if err != nil {
		return nil, err
	}

	var accepted []int
	for i, f := range frames {
		if f.Filename != "" && imageio.Allowed(f.Filename) {
			accepted = append(accepted, i)
		}
	}
	if len(accepted) < 2 {
		return nil, apperr.ErrInsufficientInput
	}
	if err := c.Ready(v); err != nil {
		return nil, err
	}

	res := &Result{
		Changes:   []Change{},
		Variant:   v,
		ModelUsed: d.Name,
	}
	for _, i := range accepted {
		f := frames[i]
		pred, err := classify(c, f, v)
		if err != nil {
			res.Failures = append(res.Failures, Failure{Index: i, Filename: f.Filename, Error: err.Error()})
			continue
		}
		res.Entries = append(res.Entries, Entry{
			Index:         i,
			Date:          dateLabel(dates, i),
			Class:         pred.Class,
			Confidence:    pred.Confidence,
			Probabilities: pred.Probabilities,
		})
	}
	if len(res.Entries) < 2 {
		return nil, apperr.ErrInsufficientInput
	}

	for i := 1; i < len(res.Entries); i++ {
		prev, cur := res.Entries[i-1], res.Entries[i]
		if prev.Class != cur.Class {
			res.Changes = append(res.Changes, Change{
				FromDate:       prev.Date,
				ToDate:         cur.Date,
				FromClass:      prev.Class,
				ToClass:        cur.Class,
				FromConfidence: prev.Confidence,
				ToConfidence:   cur.Confidence,
			})
		}
	}

	res.Timeline = Timeline{
		Dates:       make([]string, len(res.Entries)),
		Classes:     make([]string, len(res.Entries)),
		Confidences: make([]float64, len(res.Entries)),
	}
	for i, e := range res.Entries {
		res.Timeline.Dates[i] = e.Date
		res.Timeline.Classes[i] = e.Class
		res.Timeline.Confidences[i] = e.Confidence
	}
	res.TotalImages = len(res.Entries)
	res.ChangeCount = len(res.Changes)
	return res, nil
}

func classify(c *classifier.Classifier, f Frame, v registry.Variant) (*classifier.Prediction, error) {
	if f.Decode == nil {
		return nil, apperr.Processingf("no image data for %s", f.Filename)
	}
	img, err := f.Decode()
	if err != nil {
		return nil, err
	}
	return c.Predict(img, v)
}

func dateLabel(dates []string, i int) string {
	if i < len(dates) && dates[i] != "" {
		return dates[i]
	}
	return fmt.Sprintf("T%d", i+1)
}
