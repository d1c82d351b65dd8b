// Package similarity scores how alike two snippets are.
//
// Exactly one Strategy is active per run: Lexical compares normalized token
// sets, Semantic compares embedding vectors. They are never blended.
package similarity

import (
	"math"
	"strings"

	"examradar/internal/domain"
	"examradar/internal/embedding"
)

// Strategy scores two snippets in [0,1]. Implementations are symmetric.
type Strategy interface {
	Name() string
	Similarity(a, b domain.Snippet) float64
}

// Lexical scores snippets by Jaccard overlap of their normalized tokens.
type Lexical struct{}

func (Lexical) Name() string { return "lexical" }

func (Lexical) Similarity(a, b domain.Snippet) float64 {
	return Jaccard(a.Normalized, b.Normalized)
}

// Semantic scores snippets by cosine similarity of their embeddings.
// A snippet without a vector scores 0 against everything.
type Semantic struct{}

func (Semantic) Name() string { return "semantic" }

func (Semantic) Similarity(a, b domain.Snippet) float64 {
	s := Cosine(a.Vector, b.Vector)
	if s < 0 {
		return 0
	}
	return s
}

// ForEmbedder picks the strategy for a run from the embedding capability.
func ForEmbedder(e domain.Embedder) Strategy {
	if embedding.Enabled(e) {
		return Semantic{}
	}
	return Lexical{}
}

// Jaccard returns |A∩B| / |A∪B| over whitespace-separated tokens.
// Two empty inputs score 0.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// Cosine returns dot(a,b) / (|a|·|b|). Missing, mismatched or zero vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	s := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	if s > 1 {
		return 1
	}
	return s
}

func tokenSet(s string) map[string]struct{} {
	tokens := strings.Fields(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
