package service

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"

	"examradar/internal/config"
	"examradar/internal/domain"
	"examradar/internal/embedding"
	"examradar/internal/embedding/openai"
	"examradar/internal/embedding/tfidf"
	"examradar/internal/extract"
	"examradar/internal/summarizer"
)

// OptionsFromConfig builds the capability handles described by cfg.
func OptionsFromConfig(cfg *config.AppConfig) (Options, error) {
	e, err := NewEmbedder(cfg.Embedder)
	if err != nil {
		return Options{}, err
	}
	s, err := NewSummarizer(cfg.Summarizer)
	if err != nil {
		return Options{}, err
	}
	ocr, err := NewOCR(cfg.Extractor.OCR)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Config:     cfg,
		Embedder:   e,
		Summarizer: s,
		Extractors: extract.NewDefaultRegistry(ocr, cfg.Extractor.PDFMinTextChars),
	}, nil
}

// NewEmbedder returns the embedder selected by cfg. "auto" picks OpenAI when
// its key is present and disables embedding otherwise.
func NewEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	oc := openAIOrDefault(cfg.OpenAI)
	switch cfg.Type {
	case config.TypeNone:
		return embedding.Disabled{}, nil
	case config.TypeTFIDF:
		return tfidf.NewEmbedder(), nil
	case config.TypeAuto:
		if os.Getenv(oc.APIKeyEnv) == "" {
			log.Info().Str("env", oc.APIKeyEnv).Msg("No embedding key set, using lexical similarity")
			return embedding.Disabled{}, nil
		}
		fallthrough
	case config.TypeOpenAI:
		c, err := openai.NewClient(openai.Config{
			BaseURL:    oc.BaseURL,
			APIKeyEnv:  oc.APIKeyEnv,
			Model:      oc.Model,
			Timeout:    time.Duration(oc.TimeoutSecs) * time.Second,
			MaxRetries: oc.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
}

// NewSummarizer returns the summarizer selected by cfg, with the same "auto"
// rule as NewEmbedder.
func NewSummarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	oc := openAIOrDefault(cfg.OpenAI)
	switch cfg.Type {
	case config.TypeNone:
		return summarizer.Disabled{}, nil
	case config.TypeFrequency:
		return summarizer.NewFrequency(cfg.MaxQuestions), nil
	case config.TypeAuto:
		if os.Getenv(oc.APIKeyEnv) == "" {
			return summarizer.Disabled{}, nil
		}
		fallthrough
	case config.TypeOpenAI:
		s, err := summarizer.NewOpenAI(summarizer.OpenAIConfig{
			BaseURL:         oc.BaseURL,
			APIKeyEnv:       oc.APIKeyEnv,
			Model:           oc.Model,
			MaxTokens:       oc.MaxTokens,
			Timeout:         time.Duration(oc.TimeoutSecs) * time.Second,
			MaxClusters:     cfg.MaxClusters,
			MaxPromptTokens: cfg.MaxPromptTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("summarizer: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown summarizer type %q", cfg.Type)
}

// NewOCR returns the OCR command from cfg, or DisabledOCR when no command is
// configured or the program is not installed.
func NewOCR(cfg config.OCRConfig) (extract.OCR, error) {
	if len(cfg.Command) == 0 {
		return extract.DisabledOCR{}, nil
	}
	if _, err := exec.LookPath(cfg.Command[0]); err != nil {
		log.Info().Str("command", cfg.Command[0]).Msg("OCR program not found, OCR disabled")
		return extract.DisabledOCR{}, nil
	}
	ocr, err := extract.NewCommandOCR(cfg.Command, cfg.Output, time.Duration(cfg.TimeoutSecs)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	return ocr, nil
}

func openAIOrDefault(c *config.OpenAIConfig) config.OpenAIConfig {
	if c == nil {
		return config.OpenAIConfig{APIKeyEnv: config.DefaultAPIKeyEnv}
	}
	return *c
}
