package summarizer

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"

	"examradar/internal/domain"
)

const (
	DefaultMaxClusters     = 50
	DefaultMaxPromptTokens = 6000

	promptHeader = `You are an expert exam analyst. Given the following repeating question clusters and frequencies, output:
1) Top 10 most-probable exam questions (well-phrased).
2) A concise 4-week study plan with daily targets.
3) A short 6-point exam strategy.
Clusters:
`
)

// PromptBuilder renders the analyst prompt for the top clusters, stopping
// before the prompt exceeds its token budget.
type PromptBuilder struct {
	maxClusters int
	maxTokens   int
	codec       tokenizer.Codec
}

// NewPromptBuilder creates a builder. maxTokens <= 0 disables the budget.
func NewPromptBuilder(maxClusters, maxTokens int) *PromptBuilder {
	if maxClusters <= 0 {
		maxClusters = DefaultMaxClusters
	}
	b := &PromptBuilder{maxClusters: maxClusters, maxTokens: maxTokens}
	if maxTokens > 0 {
		codec, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			log.Warn().Err(err).Msg("Tokenizer unavailable, prompt budget disabled")
		} else {
			b.codec = codec
		}
	}
	return b
}

// Build returns the prompt; at least one cluster line is always included.
func (b *PromptBuilder) Build(clusters []domain.ClusterSummary) string {
	var sb strings.Builder
	sb.WriteString(promptHeader)
	used := b.count(promptHeader)
	for i, c := range clusters {
		if i == b.maxClusters {
			break
		}
		line := fmt.Sprintf("%d) %s -- freq %d\n", i+1, c.Example, c.Count)
		cost := b.count(line)
		if i > 0 && b.codec != nil && used+cost > b.maxTokens {
			break
		}
		sb.WriteString(line)
		used += cost
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *PromptBuilder) count(s string) int {
	if b.codec == nil {
		return 0
	}
	ids, _, err := b.codec.Encode(s)
	if err != nil {
		return len(s) / 4
	}
	return len(ids)
}
