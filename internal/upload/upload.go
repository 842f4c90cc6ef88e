// Package upload stages request files on disk for the lifetime of a single
// request. Every staged file must be released by the caller, normally with a
// defer placed directly after a successful Stage.
package upload

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Brownie44l1/landcover-api/internal/imageio"
)

// Stager writes uploads into Dir under random names.
type Stager struct {
	Dir string
}

// NewStager creates dir if needed.
func NewStager(dir string) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Stager{Dir: dir}, nil
}

// File is a staged upload.
type File struct {
	Path     string
	Filename string
}

// Stage copies r to a new file named after a random UUID, keeping the
// extension of filename. On error nothing is left on disk.
func (s *Stager) Stage(filename string, r io.Reader) (*File, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	path := filepath.Join(s.Dir, uuid.NewString()+ext)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close staged file: %w", err)
	}
	return &File{Path: path, Filename: filename}, nil
}

// StageHeader stages a multipart file part.
func (s *Stager) StageHeader(fh *multipart.FileHeader) (*File, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	return s.Stage(fh.Filename, src)
}

// Decode reads the staged file as an image.
func (f *File) Decode() (image.Image, error) {
	in, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open staged file: %w", err)
	}
	defer in.Close()
	return imageio.Decode(in)
}

// Release deletes the staged file. Releasing twice is not an error.
func (f *File) Release() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Batch collects staged files so they can be released together.
type Batch struct {
	files []*File
}

// Add records f for release.
func (b *Batch) Add(f *File) { b.files = append(b.files, f) }

// Release deletes every file in the batch and returns the first error.
func (b *Batch) Release() error {
	var first error
	for _, f := range b.files {
		if err := f.Release(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
