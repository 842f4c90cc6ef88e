// Package preprocess converts decoded images into the NHWC tensors the
// land-cover models consume.
//
// Two channels are synthesised rather than measured. The NDVI variant gets
// the mean of the RGB channels as a luminance proxy (no red/near-infrared
// arithmetic is done), and the RGB+NIR variant gets the same mean appended as
// a placeholder near-infrared band. Neither is real multispectral sensor data.
package preprocess

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/floats"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
	"github.com/Brownie44l1/landcover-api/internal/registry"
)

// Tensor is a float32 tensor in NHWC layout with a batch dimension of 1.
type Tensor struct {
	Shape []int64
	Data  []float32
}

func (t *Tensor) Height() int   { return int(t.Shape[1]) }
func (t *Tensor) Width() int    { return int(t.Shape[2]) }
func (t *Tensor) Channels() int { return int(t.Shape[3]) }

// At returns the sample at row y, column x, channel c.
func (t *Tensor) At(y, x, c int) float32 {
	return t.Data[(y*t.Width()+x)*t.Channels()+c]
}

// raster holds interleaved samples on the 0..255 scale.
type raster struct {
	w, h, c int
	pix     []float64
}

// SourceChannels reports how many channels a decoded image carries.
// Grayscale images have one, images with a straight alpha channel have four,
// and every other colour model is read as RGB.
func SourceChannels(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.NRGBA, *image.NRGBA64:
		return 4
	default:
		return 3
	}
}

// Prepare resizes img to the descriptor's spatial size, adapts its channels to
// the variant, scales samples into [0,1] and prepends the batch dimension.
func Prepare(img image.Image, d registry.Descriptor) (*Tensor, error) {
	if img == nil {
		return nil, apperr.Processingf("preprocess: nil image")
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, apperr.Processingf("preprocess: empty image")
	}

	src := SourceChannels(img)
	resized := resize.Resize(uint(d.Size), uint(d.Size), img, resize.Lanczos3)

	r, err := adapt(sample(resized, src), d.Variant)
	if err != nil {
		return nil, err
	}
	if r.c != d.Channels {
		return nil, apperr.Processingf("preprocess: %s expects %d channels, produced %d", d.Variant, d.Channels, r.c)
	}

	if floats.Max(r.pix) > 1 {
		floats.Scale(1.0/255.0, r.pix)
	}

	data := make([]float32, len(r.pix))
	for i, v := range r.pix {
		data[i] = float32(v)
	}
	return &Tensor{
		Shape: []int64{1, int64(r.h), int64(r.w), int64(r.c)},
		Data:  data,
	}, nil
}

// sample reads img into an 8-bit depth raster with c channels.
func sample(img image.Image, c int) *raster {
	b := img.Bounds()
	r := &raster{w: b.Dx(), h: b.Dy(), c: c}
	r.pix = make([]float64, r.w*r.h*c)

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := img.At(x, y)
			switch c {
			case 1:
				g := color.GrayModel.Convert(px).(color.Gray)
				r.pix[i] = float64(g.Y)
			case 4:
				n := color.NRGBAModel.Convert(px).(color.NRGBA)
				r.pix[i] = float64(n.R)
				r.pix[i+1] = float64(n.G)
				r.pix[i+2] = float64(n.B)
				r.pix[i+3] = float64(n.A)
			default:
				cr, cg, cb, _ := px.RGBA()
				r.pix[i] = float64(cr >> 8)
				r.pix[i+1] = float64(cg >> 8)
				r.pix[i+2] = float64(cb >> 8)
			}
			i += c
		}
	}
	return r
}

// adapt applies the channel rules of the target variant. The rules are keyed
// on the source channel count; any combination not listed is an error.
func adapt(r *raster, v registry.Variant) (*raster, error) {
	switch v {
	case registry.NDVI:
		switch r.c {
		case 1:
			return r, nil
		case 3, 4:
			return meanRGB(r), nil
		}
	case registry.RGB:
		switch r.c {
		case 1:
			return replicate(r, 3), nil
		case 3:
			return r, nil
		case 4:
			return dropLast(r), nil
		}
	case registry.RGBNIR:
		switch r.c {
		case 1:
			return replicate(r, 4), nil
		case 3:
			return appendMean(r), nil
		case 4:
			return r, nil
		}
	}
	return nil, apperr.Processingf("preprocess: cannot adapt %d-channel image for %s model", r.c, v)
}

func meanRGB(r *raster) *raster {
	out := &raster{w: r.w, h: r.h, c: 1, pix: make([]float64, r.w*r.h)}
	for p := range out.pix {
		s := r.pix[p*r.c:]
		out.pix[p] = (s[0] + s[1] + s[2]) / 3
	}
	return out
}

func replicate(r *raster, n int) *raster {
	out := &raster{w: r.w, h: r.h, c: n, pix: make([]float64, r.w*r.h*n)}
	for p := 0; p < r.w*r.h; p++ {
		for k := 0; k < n; k++ {
			out.pix[p*n+k] = r.pix[p]
		}
	}
	return out
}

func dropLast(r *raster) *raster {
	out := &raster{w: r.w, h: r.h, c: r.c - 1, pix: make([]float64, r.w*r.h*(r.c-1))}
	for p := 0; p < r.w*r.h; p++ {
		copy(out.pix[p*out.c:(p+1)*out.c], r.pix[p*r.c:p*r.c+out.c])
	}
	return out
}

// appendMean adds a synthetic fourth (near-infrared placeholder) channel.
func appendMean(r *raster) *raster {
	out := &raster{w: r.w, h: r.h, c: 4, pix: make([]float64, r.w*r.h*4)}
	for p := 0; p < r.w*r.h; p++ {
		s := r.pix[p*3 : p*3+3]
		copy(out.pix[p*4:p*4+3], s)
		out.pix[p*4+3] = (s[0] + s[1] + s[2]) / 3
	}
	return out
}

// Intensity returns the per-pixel mean of the first three channels, or the
// single channel when fewer than three exist, as a row-major H×W slice.
func Intensity(t *Tensor) []float64 {
	h, w, c := t.Height(), t.Width(), t.Channels()
	out := make([]float64, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c >= 3 {
				out[y*w+x] = (float64(t.At(y, x, 0)) + float64(t.At(y, x, 1)) + float64(t.At(y, x, 2))) / 3
			} else {
				out[y*w+x] = float64(t.At(y, x, 0))
			}
		}
	}
	return out
}
