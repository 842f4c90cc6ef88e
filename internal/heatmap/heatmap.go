// Package heatmap renders a visual explanation overlay for a prediction.
//
// The map is an input-intensity surrogate: it is derived from the
// preprocessed pixel values, not from model gradients, so it is not Grad-CAM
// and says nothing about which regions drove the network's decision.
package heatmap

import (
	"image"
	"image/color"
	"math"

	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/floats"

	"github.com/Brownie44l1/landcover-api/internal/classifier"
	"github.com/Brownie44l1/landcover-api/internal/imageio"
	"github.com/Brownie44l1/landcover-api/internal/preprocess"
	"github.com/Brownie44l1/landcover-api/internal/registry"
)

// Size is the edge length of the rendered heatmap and overlay.
const Size = 64

// Result holds both renderings as PNG data URIs plus the prediction made on
// the same preprocessed input.
type Result struct {
	Overlay     string           `json:"heatmap_overlay"`
	HeatmapOnly string           `json:"heatmap_only"`
	Class       string           `json:"predicted_class"`
	Variant     registry.Variant `json:"model"`
	ModelUsed   string           `json:"model_used"`

	OverlayImage *image.RGBA `json:"-"`
	HeatmapImage *image.RGBA `json:"-"`
}

// Generate classifies img with variant v and renders its intensity heatmap.
func Generate(c *classifier.Classifier, img image.Image, v registry.Variant) (*Result, error) {
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
	pred, err := c.PredictTensor(tensor, v)
	if err != nil {
		return nil, err
	}

	heat := Colorize(Intensity(tensor))
	overlay := Blend(heat, Thumbnail(img))

	overlayURI, err := imageio.PNGDataURI(overlay)
	if err != nil {
		return nil, err
	}
	heatURI, err := imageio.PNGDataURI(heat)
	if err != nil {
		return nil, err
	}

	return &Result{
		Overlay:      overlayURI,
		HeatmapOnly:  heatURI,
		Class:        pred.Class,
		Variant:      v,
		ModelUsed:    d.Name,
		OverlayImage: overlay,
		HeatmapImage: heat,
	}, nil
}

// Intensity builds the 8-bit normalized intensity map of t, resized to
// Size×Size with bilinear interpolation.
func Intensity(t *preprocess.Tensor) *image.Gray {
	vals := preprocess.Intensity(t)
	for i, v := range vals {
		if v < 0 {
			vals[i] = 0
		}
	}
	if m := floats.Max(vals); m > 0 {
		floats.Scale(1/m, vals)
	}

	w, h := t.Width(), t.Height()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range vals {
		gray.Pix[i] = uint8(255 * v)
	}

	out := image.NewGray(image.Rect(0, 0, Size, Size))
	resized := resize.Resize(Size, Size, gray, resize.Bilinear)
	rb := resized.Bounds()
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			px := resized.At(rb.Min.X+x, rb.Min.Y+y)
			out.SetGray(x, y, color.GrayModel.Convert(px).(color.Gray))
		}
	}
	return out
}

// Ramp maps an intensity in [0,1] onto a blue→green→red colour ramp.
func Ramp(v float64) color.RGBA {
	var r, g, b float64
	if v < 0.5 {
		g = 510 * v
		b = 255 - 510*v
	} else {
		r = 510 * (v - 0.5)
		g = 255 - 510*(v-0.5)
	}
	return color.RGBA{R: clamp(r), G: clamp(g), B: clamp(b), A: 255}
}

// clamp truncates x into a byte.
func clamp(x float64) uint8 {
	switch {
	case x <= 0:
		return 0
	case x >= 255:
		return 255
	default:
		return uint8(x)
	}
}

// Colorize applies Ramp to every pixel of an intensity map.
func Colorize(m *image.Gray) *image.RGBA {
	b := m.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetRGBA(x, y, Ramp(float64(m.GrayAt(x, y).Y)/255))
		}
	}
	return out
}

// Thumbnail returns img resized to Size×Size in RGB. Alpha is dropped and
// the straight colour kept.
func Thumbnail(img image.Image) *image.RGBA {
	resized := resize.Resize(Size, Size, img, resize.Bicubic)
	rb := resized.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, Size, Size))
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			n := color.NRGBAModel.Convert(resized.At(rb.Min.X+x, rb.Min.Y+y)).(color.NRGBA)
			out.SetRGBA(x, y, color.RGBA{R: n.R, G: n.G, B: n.B, A: 255})
		}
	}
	return out
}

// Blend averages heat and orig channel by channel, rounding to nearest.
func Blend(heat, orig *image.RGBA) *image.RGBA {
	b := heat.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			h := heat.RGBAAt(x, y)
			o := orig.RGBAAt(x, y)
			out.SetRGBA(x, y, color.RGBA{
				R: mix(h.R, o.R),
				G: mix(h.G, o.G),
				B: mix(h.B, o.B),
				A: 255,
			})
		}
	}
	return out
}

func mix(a, b uint8) uint8 {
	return uint8(math.Round(0.5*float64(a) + 0.5*float64(b)))
}
