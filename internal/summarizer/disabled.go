// Package summarizer produces prose over the ranked clusters of a run.
package summarizer

import (
	"context"

	"examradar/internal/domain"
)

// Disabled is the summarizer used when no summarization service is configured.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Summarize(context.Context, []domain.ClusterSummary) (string, error) {
	return "", domain.ErrDisabled
}
