// Package registry describes the model variants the service can run and the
// land-cover label set they predict over.
package registry

import (
	"path/filepath"
	"strings"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
)

// Variant identifies one of the fixed model configurations.
type Variant int

const (
	RGB Variant = iota
	RGBNIR
	NDVI
)

// Variants lists every variant in declaration order.
var Variants = []Variant{RGB, RGBNIR, NDVI}

// String returns the wire identifier of the variant.
func (v Variant) String() string {
	switch v {
	case RGB:
		return "rgb"
	case RGBNIR:
		return "rgb_nir"
	case NDVI:
		return "ndvi"
	default:
		return "unknown"
	}
}

// Channels is the number of input channels the variant's network expects.
func (v Variant) Channels() int {
	switch v {
	case RGBNIR:
		return 4
	case NDVI:
		return 1
	default:
		return 3
	}
}

// ParseVariant maps a wire identifier to its Variant.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if v.String() == s {
			return v, nil
		}
	}
	ids := make([]string, len(Variants))
	for i, v := range Variants {
		ids[i] = v.String()
	}
	return 0, apperr.Invalidf("Invalid model. Choose from: %s", strings.Join(ids, ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Classes is the EuroSAT label set. Index i names output i of every model.
var Classes = []string{
	"AnnualCrop",
	"Forest",
	"HerbaceousVegetation",
	"Highway",
	"Industrial",
	"Pasture",
	"PermanentCrop",
	"Residential",
	"River",
	"SeaLake",
}

// InputSize is the spatial edge length every variant is trained on.
const InputSize = 64

// Descriptor is the static configuration of one variant.
type Descriptor struct {
	Variant     Variant
	Name        string
	Description string
	Size        int
	Channels    int
	Path        string
	InputName   string
	OutputName  string
}

// InputShape is the NHWC tensor shape the model consumes.
func (d Descriptor) InputShape() []int64 {
	return []int64{1, int64(d.Size), int64(d.Size), int64(d.Channels)}
}

// OutputShape is the shape of the probability vector the model produces.
func (d Descriptor) OutputShape() []int64 {
	return []int64{1, int64(len(Classes))}
}

// Override replaces parts of a default descriptor. Empty fields are ignored.
type Override struct {
	Path       string
	InputName  string
	OutputName string
}

var defaults = []Descriptor{
	{
		Variant:     RGB,
		Name:        "RGB Model",
		Description: "Uses standard RGB satellite imagery",
		Path:        "model_rgb_v0.onnx",
	},
	{
		Variant:     RGBNIR,
		Name:        "RGB + NIR Model",
		Description: "Uses RGB with Near-Infrared band for enhanced vegetation detection",
		Path:        "model_RGB_NIR_v0.onnx",
	},
	{
		Variant:     NDVI,
		Name:        "NDVI Model",
		Description: "Uses Normalized Difference Vegetation Index for vegetation analysis",
		Path:        "model_NDVI_v2.onnx",
	},
}

// Registry is the immutable set of variant descriptors.
type Registry struct {
	descriptors []Descriptor
}

// New builds the registry. Relative model paths are resolved against dir.
func New(dir string, overrides map[Variant]Override) *Registry {
	out := make([]Descriptor, len(defaults))
	for i, d := range defaults {
		d.Size = InputSize
		d.Channels = d.Variant.Channels()
		d.InputName = "input"
		d.OutputName = "output"
		if o, ok := overrides[d.Variant]; ok {
			if o.Path != "" {
				d.Path = o.Path
			}
			if o.InputName != "" {
				d.InputName = o.InputName
			}
			if o.OutputName != "" {
				d.OutputName = o.OutputName
			}
		}
		if !filepath.IsAbs(d.Path) {
			d.Path = filepath.Join(dir, d.Path)
		}
		out[i] = d
	}
	return &Registry{descriptors: out}
}

// All returns the descriptors in declaration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Lookup returns the descriptor for v.
func (r *Registry) Lookup(v Variant) (Descriptor, bool) {
	for _, d := range r.descriptors {
		if d.Variant == v {
			return d, true
		}
	}
	return Descriptor{}, false
}
