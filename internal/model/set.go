// Package model owns the inference handles for every registry variant.
package model

import (
	"fmt"
	"log"
	"os"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/landcover-api/internal/apperr"
	"github.com/Brownie44l1/landcover-api/internal/registry"
)

// Logf is the package logger. Tests may replace it.
var Logf = log.Printf

// Runner performs a forward pass over a flattened input tensor and returns
// the raw output vector.
type Runner interface {
	Run(input []float32) ([]float32, error)
}

// Set maps variants to their loaded runners. It is built once at startup and
// only read afterwards. Variants that failed to load keep their load error.
type Set struct {
	runners map[registry.Variant]Runner
	errs    map[registry.Variant]error
	ownsEnv bool
}

// NewSet builds a Set from already constructed runners and load errors.
func NewSet(runners map[registry.Variant]Runner, errs map[registry.Variant]error) *Set {
	s := &Set{
		runners: make(map[registry.Variant]Runner, len(runners)),
		errs:    make(map[registry.Variant]error, len(errs)),
	}
	for v, r := range runners {
		s.runners[v] = r
	}
	for v, err := range errs {
		s.errs[v] = err
	}
	return s
}

// LoadOptions controls ONNX Runtime initialization.
type LoadOptions struct {
	// SharedLibraryPath points at the onnxruntime shared library. Empty uses
	// the platform default search.
	SharedLibraryPath string
}

// Load initializes the ONNX environment and opens a session for every
// descriptor in reg. Failures are recorded per variant and never abort.
func Load(reg *registry.Registry, opts LoadOptions) *Set {
	s := NewSet(nil, nil)

	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		err = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		Logf("✗ %v", err)
		for _, d := range reg.All() {
			s.errs[d.Variant] = err
		}
		return s
	}
	s.ownsEnv = true

	for _, d := range reg.All() {
		if _, err := os.Stat(d.Path); err != nil {
			Logf("✗ Model not found: %s", d.Path)
			s.errs[d.Variant] = fmt.Errorf("model file not found: %s", d.Path)
			continue
		}
		session, err := NewSession(d)
		if err != nil {
			Logf("✗ Failed to load %s: %v", d.Name, err)
			s.errs[d.Variant] = err
			continue
		}
		Logf("✓ Loaded %s", d.Name)
		s.runners[d.Variant] = session
	}
	return s
}

// Runner returns the runner for v, or a ModelUnavailable error.
func (s *Set) Runner(v registry.Variant) (Runner, error) {
	if r, ok := s.runners[v]; ok {
		return r, nil
	}
	return nil, apperr.Unavailable(v.String(), s.errs[v])
}

// Loaded reports whether v has a usable runner.
func (s *Set) Loaded(v registry.Variant) bool {
	_, ok := s.runners[v]
	return ok
}

// Close releases every session and, if Load created it, the ONNX environment.
func (s *Set) Close() {
	for _, r := range s.runners {
		if c, ok := r.(interface{ Close() }); ok {
			c.Close()
		}
	}
	if s.ownsEnv {
		if err := ort.DestroyEnvironment(); err != nil {
			Logf("failed to destroy ONNX environment: %v", err)
		}
	}
}
