// Package extract turns input files into page text for segmentation.
//
// Plain text is read directly, PDFs go through a text extractor with an OCR
// fallback for scanned documents, and images always go through OCR. Failures
// are isolated to the file that caused them.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Page is text recovered from one page of a file. Number is 0 when unknown.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Extractor recovers page text from a file on disk.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Page, error)
	// Extensions returns lowercase extensions handled, including the dot.
	Extensions() []string
}

// Result is the outcome of extracting one file.
type Result struct {
	Name  string
	Pages []Page
	Err   error
}

// Registry dispatches files to extractors by extension.
type Registry struct {
	byExt    map[string]Extractor
	fallback Extractor
}

// NewRegistry registers extractors by their extensions. Files with an
// unregistered extension go to fallback.
func NewRegistry(fallback Extractor, extractors ...Extractor) *Registry {
	r := &Registry{byExt: make(map[string]Extractor), fallback: fallback}
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			r.byExt[ext] = e
		}
	}
	return r
}

// NewDefaultRegistry wires the plain text, PDF and image extractors.
func NewDefaultRegistry(ocr OCR, pdfMinTextChars int) *Registry {
	if ocr == nil {
		ocr = DisabledOCR{}
	}
	return NewRegistry(
		NewTextExtractor(),
		NewPDFExtractor(ocr, pdfMinTextChars),
		NewImageExtractor(ocr),
	)
}

// Run extracts the file at path. name is the original file name used to pick
// the extractor; when empty the path is used.
func (r *Registry) Run(ctx context.Context, path, name string) Result {
	if name == "" {
		name = filepath.Base(path)
	}
	res := Result{Name: name}
	e := r.extractorFor(name)
	if e == nil {
		res.Err = fmt.Errorf("no extractor for %s", name)
		return res
	}
	res.Pages, res.Err = e.Extract(ctx, path)
	if res.Err != nil {
		res.Err = fmt.Errorf("extract %s: %w", name, res.Err)
	}
	return res
}

// Supports reports whether name has a dedicated extractor.
func (r *Registry) Supports(name string) bool {
	_, ok := r.byExt[ext(name)]
	return ok
}

func (r *Registry) extractorFor(name string) Extractor {
	if e, ok := r.byExt[ext(name)]; ok {
		return e
	}
	return r.fallback
}

func ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
