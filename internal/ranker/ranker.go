// Package ranker turns clusters into frequency-ordered summaries and rankings.
package ranker

import (
	"sort"

	"examradar/internal/domain"
)

const (
	DefaultTopN     = 15
	DefaultMaxFiles = 5
)

// Ranker projects clusters into summaries and the "most probable" list.
type Ranker struct {
	topN     int
	maxFiles int
}

func New(topN, maxFiles int) *Ranker {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &Ranker{topN: topN, maxFiles: maxFiles}
}

// Summarize projects each cluster and returns the summaries sorted by count
// descending. Ties keep cluster creation order.
func (r *Ranker) Summarize(clusters []domain.Cluster) []domain.ClusterSummary {
	out := make([]domain.ClusterSummary, len(clusters))
	for i, c := range clusters {
		out[i] = domain.ClusterSummary{
			Count:   len(c.Members),
			Example: c.Representative.Text,
			Files:   sourceFiles(c.Members, r.maxFiles),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Rank assigns dense 1-based ranks to the first topN sorted summaries.
func (r *Ranker) Rank(summaries []domain.ClusterSummary) []domain.RankedEntry {
	n := min(len(summaries), r.topN)
	out := make([]domain.RankedEntry, n)
	for i := 0; i < n; i++ {
		out[i] = domain.RankedEntry{
			Rank:      i + 1,
			Example:   summaries[i].Example,
			Frequency: summaries[i].Count,
		}
	}
	return out
}

// sourceFiles returns distinct non-empty source files in first-seen order.
func sourceFiles(members []domain.Snippet, limit int) []string {
	files := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, m := range members {
		if m.SourceFile == "" {
			continue
		}
		if _, ok := seen[m.SourceFile]; ok {
			continue
		}
		seen[m.SourceFile] = struct{}{}
		files = append(files, m.SourceFile)
		if len(files) == limit {
			break
		}
	}
	return files
}
