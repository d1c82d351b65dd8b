package extract

import (
	"context"
	"os"
	"strings"
)

// TextExtractor reads a file as UTF-8 text.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

func (*TextExtractor) Extensions() []string { return []string{".txt", ".md", ".text"} }

func (*TextExtractor) Extract(_ context.Context, path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []Page{{Text: strings.ToValidUTF8(string(data), " ")}}, nil
}
