package handlers

import (
	"bytes"
	"errors"
	"image"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
	"github.com/Brownie44l1/landcover-api/internal/classifier"
	"github.com/Brownie44l1/landcover-api/internal/compare"
	"github.com/Brownie44l1/landcover-api/internal/heatmap"
	"github.com/Brownie44l1/landcover-api/internal/httputil"
	"github.com/Brownie44l1/landcover-api/internal/imageio"
	"github.com/Brownie44l1/landcover-api/internal/registry"
	"github.com/Brownie44l1/landcover-api/internal/series"
	"github.com/Brownie44l1/landcover-api/internal/upload"
)

// Options configures a Handler.
type Options struct {
	DefaultModel   registry.Variant
	MaxUploadBytes int64
}

type Handler struct {
	classifier *classifier.Classifier
	stager     *upload.Stager
	opts       Options
}

func NewHandler(c *classifier.Classifier, stager *upload.Stager, opts Options) *Handler {
	return &Handler{
		classifier: c,
		stager:     stager,
		opts:       opts,
	}
}

type predictResponse struct {
	Success bool `json:"success"`
	*classifier.Prediction
}

type compareResponse struct {
	Success bool `json:"success"`
	*compare.Result
}

type heatmapResponse struct {
	Success bool `json:"success"`
	*heatmap.Result
}

type seriesResponse struct {
	Success bool `json:"success"`
	*series.Result
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	loaded := 0
	for _, v := range h.classifier.AvailableVariants() {
		if v.Loaded {
			loaded++
		}
	}
	httputil.WriteJSONOK(w, map[string]any{"status": "healthy", "models_loaded": loaded})
}

func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]any{
		"success": true,
		"models":  h.classifier.AvailableVariants(),
	})
}

func (h *Handler) Classes(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]any{
		"success": true,
		"classes": registry.Classes,
	})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	fh, err := singleImage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.variant(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	img, release, err := h.stageAndDecode(fh)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer release()

	pred, err := h.classifier.Predict(img, v)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	log.Printf("Predicted %s (%.2f%%) with %s", pred.Class, pred.Confidence, v)
	httputil.WriteJSONOK(w, predictResponse{Success: true, Prediction: pred})
}

func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	fh, err := singleImage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	img, release, err := h.stageAndDecode(fh)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer release()

	httputil.WriteJSONOK(w, compareResponse{Success: true, Result: compare.All(h.classifier, img)})
}

func (h *Handler) Heatmap(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	fh, err := singleImage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.variant(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	img, release, err := h.stageAndDecode(fh)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer release()

	res, err := heatmap.Generate(h.classifier, img, v)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSONOK(w, heatmapResponse{Success: true, Result: res})
}

func (h *Handler) AnalyzeSeries(w http.ResponseWriter, r *http.Request) {
	res, err := h.analyzeSeries(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSONOK(w, seriesResponse{Success: true, Result: res})
}

// SeriesChart runs the same analysis as AnalyzeSeries and renders the
// timeline as an HTML chart.
func (h *Handler) SeriesChart(w http.ResponseWriter, r *http.Request) {
	res, err := h.analyzeSeries(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := series.RenderChart(&buf, res); err != nil {
		httputil.WriteError(w, apperr.Processing("failed to render chart", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) analyzeSeries(w http.ResponseWriter, r *http.Request) (*series.Result, error) {
	if err := h.parseForm(w, r); err != nil {
		return nil, err
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		return nil, apperr.Invalid("No images provided")
	}
	if len(files) < 2 {
		return nil, apperr.ErrInsufficientInput
	}
	v, err := h.variant(r)
	if err != nil {
		return nil, err
	}

	// Frames are staged lazily so rejected filenames never touch disk. The
	// batch outlives every Decode call and is released on all paths.
	var batch upload.Batch
	defer func() {
		if err := batch.Release(); err != nil {
			log.Printf("failed to release staged uploads: %v", err)
		}
	}()

	frames := make([]series.Frame, len(files))
	for i, fh := range files {
		fh := fh
		frames[i] = series.Frame{
			Filename: fh.Filename,
			Decode: func() (image.Image, error) {
				f, err := h.stager.StageHeader(fh)
				if err != nil {
					return nil, apperr.Processing("failed to stage upload", err)
				}
				batch.Add(f)
				return f.Decode()
			},
		}
	}

	res, err := series.Analyze(h.classifier, frames, v, r.MultipartForm.Value["dates"])
	if err != nil {
		return nil, err
	}
	log.Printf("Series of %d images with %s: %d changes", res.TotalImages, v, res.ChangeCount)
	return res, nil
}

// parseForm bounds the request body and parses it as multipart.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) error {
	if r.ContentLength > h.opts.MaxUploadBytes {
		return &http.MaxBytesError{Limit: h.opts.MaxUploadBytes}
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return apperr.Invalid("Failed to parse form")
	}
	return nil
}

func singleImage(r *http.Request) (*multipart.FileHeader, error) {
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		return nil, apperr.Invalid("No image file provided")
	}
	fh := files[0]
	if err := imageio.Validate(fh.Filename); err != nil {
		return nil, err
	}
	log.Printf("Received file: %s, size: %d bytes", fh.Filename, fh.Size)
	return fh, nil
}

func (h *Handler) variant(r *http.Request) (registry.Variant, error) {
	key := r.FormValue("model")
	if key == "" {
		return h.opts.DefaultModel, nil
	}
	return registry.ParseVariant(key)
}

// stageAndDecode writes the upload to disk and decodes it. The returned
// release func removes the staged file and must be deferred by the caller;
// on error the file has already been removed.
func (h *Handler) stageAndDecode(fh *multipart.FileHeader) (image.Image, func(), error) {
	f, err := h.stager.StageHeader(fh)
	if err != nil {
		return nil, nil, apperr.Processing("failed to stage upload", err)
	}
	release := func() {
		if err := f.Release(); err != nil {
			log.Printf("failed to remove %s: %v", f.Path, err)
		}
	}

	img, err := f.Decode()
	if err != nil {
		release()
		return nil, nil, err
	}
	return img, release, nil
}
