package domain

import (
	"context"
	"errors"
)

// ErrDisabled is returned by null-object capabilities that are not configured.
var ErrDisabled = errors.New("capability disabled")

// Embedder converts normalized snippet text into a numeric vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Preparer is implemented by embedders that must see the whole corpus first.
// Prepared returns a ready embedder and leaves the receiver untouched, so a
// shared instance stays safe across concurrent runs.
type Preparer interface {
	Prepared(corpus []string) (Embedder, error)
}

// Summarizer produces prose over the ranked clusters of a run.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, clusters []ClusterSummary) (string, error)
}
