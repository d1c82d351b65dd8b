package summarizer

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"examradar/internal/domain"
)

// Frequency is an offline summarizer. It weights words by how often their
// clusters recur and highlights the questions that carry the heaviest words.
type Frequency struct {
	maxQuestions int
	maxKeywords  int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewFrequency creates a frequency-based summarizer.
func NewFrequency(maxQuestions int) *Frequency {
	if maxQuestions <= 0 {
		maxQuestions = 5
	}
	return &Frequency{
		maxQuestions: maxQuestions,
		maxKeywords:  8,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

func (s *Frequency) Name() string { return "frequency" }

// Summarize lists the dominant keywords and the highest scoring questions,
// keeping the questions in rank order.
func (s *Frequency) Summarize(_ context.Context, clusters []domain.ClusterSummary) (string, error) {
	if len(clusters) == 0 {
		return "", fmt.Errorf("no clusters to summarize")
	}
	// Word weights: each occurrence counts once per member of its cluster.
	freq := map[string]float64{}
	for _, c := range clusters {
		for _, tok := range s.tokens(c.Example) {
			freq[tok] += float64(c.Count)
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(clusters))
	for i, c := range clusters {
		toks := s.tokens(c.Example)
		score := 0.0
		for _, tok := range toks {
			score += freq[tok]
		}
		// Normalize by length to avoid bias
		if l := float64(len(toks)); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score * float64(c.Count)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	n := min(s.maxQuestions, len(scores))
	selected := make([]int, n)
	for i := 0; i < n; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)

	var b strings.Builder
	if kw := s.keywords(freq); len(kw) > 0 {
		fmt.Fprintf(&b, "Recurring themes: %s.\n", strings.Join(kw, ", "))
	}
	b.WriteString("Questions most worth preparing:\n")
	for i, idx := range selected {
		c := clusters[idx]
		fmt.Fprintf(&b, "%d) %s (seen %d×)\n", i+1, oneLine(c.Example), c.Count)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Frequency) keywords(freq map[string]float64) []string {
	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > s.maxKeywords {
		words = words[:s.maxKeywords]
	}
	return words
}

func (s *Frequency) tokens(text string) []string {
	raw := s.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, ok := s.stopwords[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "which", "who", "why", "how", "explain", "describe", "define", "state", "write", "discuss", "marks", "briefly", "example", "examples",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
