// Package cluster groups snippets into recurring questions.
package cluster

import (
	"examradar/internal/domain"
	"examradar/internal/similarity"
)

// DefaultThreshold is the similarity a snippet must exceed to join a cluster.
const DefaultThreshold = 0.76

// Engine performs single-pass greedy clustering.
//
// Each snippet is compared, in arrival order, against the representative of
// every existing cluster in creation order and joins the first one whose score
// is strictly above Threshold. Members are never compared with each other, so
// the result depends on input order and costs O(n·k) comparisons.
type Engine struct {
	Threshold float64
	Strategy  similarity.Strategy
}

// NewEngine returns an engine using the given strategy and threshold.
// A nil strategy falls back to lexical similarity.
func NewEngine(strategy similarity.Strategy, threshold float64) *Engine {
	if strategy == nil {
		strategy = similarity.Lexical{}
	}
	return &Engine{Threshold: threshold, Strategy: strategy}
}

// Cluster partitions snippets; every snippet lands in exactly one cluster.
func (e *Engine) Cluster(snippets []domain.Snippet) []domain.Cluster {
	clusters := make([]domain.Cluster, 0)
	for _, s := range snippets {
		placed := false
		for i := range clusters {
			if e.Strategy.Similarity(s, clusters[i].Representative) > e.Threshold {
				clusters[i].Members = append(clusters[i].Members, s)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, domain.Cluster{
				Representative: s,
				Members:        []domain.Snippet{s},
			})
		}
	}
	return clusters
}
