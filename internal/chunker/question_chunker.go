package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"examradar/internal/domain"
)

const (
	DefaultMinChars    = 25
	DefaultMaxSnippets = 2000
)

// QuestionChunker splits exam text into candidate question snippets using
// numbering markers and paragraph breaks.
type QuestionChunker struct {
	minChars    int
	maxSnippets int
	numbering   *regexp.Regexp
	paragraph   *regexp.Regexp
}

func NewQuestionChunker(minChars, maxSnippets int) *QuestionChunker {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	if maxSnippets <= 0 {
		maxSnippets = DefaultMaxSnippets
	}
	return &QuestionChunker{
		minChars:    minChars,
		maxSnippets: maxSnippets,
		// "Q1", "Q.2", "q 3", "Question 4" or "5. " at the start of a line.
		numbering: regexp.MustCompile(`(?im)^[ \t]*(?:q\.?[ \t]*\d+[.):]?|question[ \t]+\d+[.):]?|\d+\.[ \t]+)`),
		paragraph: regexp.MustCompile(`\n[ \t\r]*(?:\n[ \t\r]*)+`),
	}
}

// Segment returns snippet texts in document order.
func (c *QuestionChunker) Segment(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, block := range c.numbering.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		for _, part := range c.paragraph.Split(block, -1) {
			part = strings.TrimSpace(part)
			if utf8.RuneCountInString(part) < c.minChars {
				continue
			}
			out = append(out, part)
			if len(out) == c.maxSnippets {
				return out
			}
		}
	}
	return out
}

// Snippets segments text and wraps each fragment with its normalized form and origin.
func (c *QuestionChunker) Snippets(text, sourceFile string, page int) []domain.Snippet {
	parts := c.Segment(text)
	if len(parts) == 0 {
		return nil
	}
	snippets := make([]domain.Snippet, len(parts))
	for i, p := range parts {
		snippets[i] = domain.Snippet{
			Text:       p,
			Normalized: Normalize(p),
			SourceFile: sourceFile,
			Page:       page,
		}
	}
	return snippets
}

// MaxSnippets returns the per-run snippet cap.
func (c *QuestionChunker) MaxSnippets() int { return c.maxSnippets }
