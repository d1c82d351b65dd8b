package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// DefaultPDFMinTextChars is the extracted-text length below which a PDF is
// treated as scanned and sent to OCR.
const DefaultPDFMinTextChars = 100

// PDFExtractor reads the text layer of a PDF and falls back to OCR when the
// text layer is missing or too thin.
type PDFExtractor struct {
	ocr          OCR
	minTextChars int
}

func NewPDFExtractor(ocr OCR, minTextChars int) *PDFExtractor {
	if minTextChars <= 0 {
		minTextChars = DefaultPDFMinTextChars
	}
	return &PDFExtractor{ocr: ocr, minTextChars: minTextChars}
}

func (*PDFExtractor) Extensions() []string { return []string{".pdf"} }

func (e *PDFExtractor) Extract(ctx context.Context, path string) ([]Page, error) {
	pages, err := readPDF(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("PDF text layer unreadable, trying OCR")
	}
	if textLen(pages) >= e.minTextChars {
		return pages, nil
	}
	ocrPages, ocrErr := e.ocr.Recognize(ctx, path)
	if ocrErr != nil {
		// A failed OCR pass yields no pages, even if a thin text layer was read.
		log.Warn().Err(ocrErr).Str("path", path).Msg("OCR fallback failed")
		return nil, nil
	}
	return ocrPages, nil
}

func readPDF(path string) (pages []Page, err error) {
	// The parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			log.Debug().Err(err).Int("page", i).Str("path", path).Msg("Skipping unreadable PDF page")
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}

func textLen(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p.Text))
	}
	return n
}
