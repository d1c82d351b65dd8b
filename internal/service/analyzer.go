// Package service runs the analysis pipeline: extraction, segmentation,
// optional embedding, clustering, ranking, planning and summarization.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"examradar/internal/chunker"
	"examradar/internal/cluster"
	"examradar/internal/config"
	"examradar/internal/domain"
	"examradar/internal/embedding"
	"examradar/internal/extract"
	"examradar/internal/planner"
	"examradar/internal/ranker"
	"examradar/internal/similarity"
	"examradar/internal/summarizer"
)

// ErrNoFiles is returned by AnalyzeFiles when called without files.
var ErrNoFiles = errors.New("no files uploaded")

const (
	noteNoSummarizer = "No summarizer configured"
	noteUnavailable  = "Summary not available"
)

// SourceFile is an input file on disk. Name is the original file name shown
// in reports; Path is where the bytes are.
type SourceFile struct {
	Name string
	Path string
}

// Options carries configuration and capability handles. Nil capabilities are
// replaced by their disabled counterparts.
type Options struct {
	Config     *config.AppConfig
	Embedder   domain.Embedder
	Summarizer domain.Summarizer
	Extractors *extract.Registry
}

// Analyzer is safe for concurrent use.
type Analyzer struct {
	chunker     *chunker.QuestionChunker
	ranker      *ranker.Ranker
	planner     *planner.Planner
	threshold   float64
	embedder    domain.Embedder
	concurrency int
	summarizer  domain.Summarizer
	extractors  *extract.Registry
}

func NewAnalyzer(opts Options) *Analyzer {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	a := &Analyzer{
		chunker:     chunker.NewQuestionChunker(cfg.Segmenter.MinSnippetChars, cfg.Segmenter.MaxSnippets),
		ranker:      ranker.New(cfg.Ranker.TopN, ranker.DefaultMaxFiles),
		planner:     planner.New(cfg.Plan.Days, planner.DefaultPrefixChars),
		threshold:   cluster.DefaultThreshold,
		embedder:    opts.Embedder,
		concurrency: max(cfg.Embedder.Concurrency, 1),
		summarizer:  opts.Summarizer,
		extractors:  opts.Extractors,
	}
	if cfg.Cluster.Threshold != nil {
		a.threshold = *cfg.Cluster.Threshold
	}
	if a.embedder == nil {
		a.embedder = embedding.Disabled{}
	}
	if a.summarizer == nil {
		a.summarizer = summarizer.Disabled{}
	}
	if a.extractors == nil {
		a.extractors = extract.NewDefaultRegistry(extract.DisabledOCR{}, cfg.Extractor.PDFMinTextChars)
	}
	return a
}

// EmbedderName reports the configured embedder.
func (a *Analyzer) EmbedderName() string { return a.embedder.Name() }

// SummarizerName reports the configured summarizer.
func (a *Analyzer) SummarizerName() string { return a.summarizer.Name() }

// Extractors exposes the registry so callers can filter inputs by type.
func (a *Analyzer) Extractors() *extract.Registry { return a.extractors }

// AnalyzeText analyzes raw text. Empty text yields the no-data report.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (*domain.Report, error) {
	return a.analyze(ctx, a.chunker.Snippets(text, "", 0))
}

// AnalyzeFiles extracts and analyzes files in order. A file that cannot be
// read contributes no snippets; the rest of the batch still runs.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, files []SourceFile) (*domain.Report, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	var snippets []domain.Snippet
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := a.extractors.Run(ctx, f.Path, f.Name)
		if res.Err != nil {
			log.Warn().Err(res.Err).Str("file", res.Name).Msg("Skipping file")
			continue
		}
		before := len(snippets)
		for _, p := range res.Pages {
			snippets = append(snippets, a.chunker.Snippets(p.Text, res.Name, p.Number)...)
		}
		log.Debug().Str("file", res.Name).Int("pages", len(res.Pages)).Int("snippets", len(snippets)-before).Msg("Extracted file")
	}
	if limit := a.chunker.MaxSnippets(); len(snippets) > limit {
		snippets = snippets[:limit]
	}
	return a.analyze(ctx, snippets)
}

func (a *Analyzer) analyze(ctx context.Context, snippets []domain.Snippet) (*domain.Report, error) {
	logger := log.With().Str("run", uuid.NewString()).Logger()
	start := time.Now()
	if len(snippets) == 0 {
		logger.Info().Msg("No snippets extracted")
		return domain.EmptyReport(), nil
	}

	embedder := a.prepare(snippets, logger)
	if embedding.Enabled(embedder) {
		var err error
		if snippets, err = a.embed(ctx, embedder, snippets, logger); err != nil {
			return nil, err
		}
	}
	strategy := similarity.ForEmbedder(embedder)
	clusters := cluster.NewEngine(strategy, a.threshold).Cluster(snippets)
	summaries := a.ranker.Summarize(clusters)

	report := &domain.Report{
		SnippetsCount: len(snippets),
		Clusters:      summaries,
		MostProbable:  a.ranker.Rank(summaries),
		StudyPlan:     a.planner.Generate(summaries),
		Summary:       a.summarize(ctx, summaries, logger),
	}
	logger.Info().
		Int("snippets", len(snippets)).
		Int("clusters", len(clusters)).
		Str("similarity", strategy.Name()).
		Dur("took", time.Since(start)).
		Msg("Analysis complete")
	return report, nil
}

// prepare returns the embedder for one run. Corpus-dependent embedders are
// prepared on a fresh copy; if that fails the run clusters lexically.
func (a *Analyzer) prepare(snippets []domain.Snippet, logger zerolog.Logger) domain.Embedder {
	p, ok := a.embedder.(domain.Preparer)
	if !ok {
		return a.embedder
	}
	corpus := make([]string, len(snippets))
	for i, s := range snippets {
		corpus[i] = s.Normalized
	}
	e, err := p.Prepared(corpus)
	if err != nil {
		logger.Warn().Err(err).Str("embedder", a.embedder.Name()).Msg("Embedder preparation failed, using lexical similarity")
		return embedding.Disabled{}
	}
	return e
}

// embed attaches vectors to copies of snippets, preserving order. A snippet
// whose embedding fails keeps a nil vector.
func (a *Analyzer) embed(ctx context.Context, e domain.Embedder, snippets []domain.Snippet, logger zerolog.Logger) ([]domain.Snippet, error) {
	out := make([]domain.Snippet, len(snippets))
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, s := range snippets {
		g.Go(func() error {
			v, err := e.Embed(ctx, s.Normalized)
			if err != nil {
				logger.Debug().Err(err).Int("snippet", i).Msg("Embedding failed")
				out[i] = s
				return nil
			}
			out[i] = s.WithVector(v)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Analyzer) summarize(ctx context.Context, summaries []domain.ClusterSummary, logger zerolog.Logger) domain.Summary {
	text, err := a.summarizer.Summarize(ctx, summaries)
	switch {
	case errors.Is(err, domain.ErrDisabled):
		return domain.Summary{Note: noteNoSummarizer}
	case err != nil:
		logger.Warn().Err(err).Str("summarizer", a.summarizer.Name()).Msg("Summarization failed")
		return domain.Summary{Note: noteUnavailable}
	}
	return domain.Summary{GPT: text}
}
