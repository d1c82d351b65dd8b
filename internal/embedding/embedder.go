// Package embedding holds the embedding capability shared by the remote and
// local embedders, including the disabled null object.
package embedding

import (
	"context"

	"examradar/internal/domain"
)

// Disabled is the embedder used when no embedding service is configured.
// Runs with a Disabled embedder cluster lexically.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Dimension() int { return 0 }

func (Disabled) Embed(context.Context, string) ([]float64, error) {
	return nil, domain.ErrDisabled
}

// Enabled reports whether e can produce vectors.
func Enabled(e domain.Embedder) bool {
	if e == nil {
		return false
	}
	_, off := e.(Disabled)
	return !off
}
