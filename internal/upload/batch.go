// Package upload spools uploaded files to disk for the lifetime of a request.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// File is one spooled upload. Name is the client-supplied base name and Path
// the location on disk.
type File struct {
	Name string
	Path string
	Size int64
}

// Batch owns a private temporary directory. Close removes it together with
// every file it holds.
type Batch struct {
	dir    string
	files  []File
	closed bool
}

// NewBatch creates a batch directory under parent, or under the system temp
// directory when parent is empty.
func NewBatch(parent string) (*Batch, error) {
	dir, err := os.MkdirTemp(parent, "examradar-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Batch{dir: dir}, nil
}

// With runs fn with a fresh batch and removes the batch afterwards, whether
// or not fn succeeds.
func With(parent string, fn func(*Batch) error) (err error) {
	b, err := NewBatch(parent)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("dir", b.dir).Msg("Failed to remove upload batch")
			err = errors.Join(err, cerr)
		}
	}()
	return fn(b)
}

// Dir returns the batch directory.
func (b *Batch) Dir() string { return b.dir }

// Files returns the spooled files in the order they were added.
func (b *Batch) Files() []File { return b.files }

// Add copies r into the batch under a generated name that keeps the
// extension of name.
func (b *Batch) Add(name string, r io.Reader) (File, error) {
	if b.closed {
		return File{}, errors.New("upload batch closed")
	}
	name = cleanName(name)
	path := filepath.Join(b.dir, uuid.NewString()+strings.ToLower(filepath.Ext(name)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return File{}, fmt.Errorf("spool %s: %w", name, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return File{}, fmt.Errorf("spool %s: %w", name, err)
	}
	file := File{Name: name, Path: path, Size: n}
	b.files = append(b.files, file)
	return file, nil
}

// AddMultipart spools one part of a multipart form.
func (b *Batch) AddMultipart(fh *multipart.FileHeader) (File, error) {
	src, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()
	return b.Add(fh.Filename, src)
}

// Close removes the batch directory. It is safe to call more than once.
func (b *Batch) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.files = nil
	return os.RemoveAll(b.dir)
}

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
