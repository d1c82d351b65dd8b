package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"examradar/internal/domain"
)

const (
	DefaultChatModel = "gpt-4o-mini"
	DefaultMaxTokens = 800
)

// OpenAIConfig configures the OpenAI-compatible chat summarizer.
type OpenAIConfig struct {
	BaseURL         string
	APIKeyEnv       string
	Model           string
	MaxTokens       int
	Timeout         time.Duration
	MaxClusters     int
	MaxPromptTokens int
}

// OpenAI asks a chat model for probable questions, a plan and a strategy.
type OpenAI struct {
	api       *goopenai.Client
	model     string
	maxTokens int
	prompts   *PromptBuilder
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	apiCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &OpenAI{
		api:       goopenai.NewClientWithConfig(apiCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		prompts:   NewPromptBuilder(cfg.MaxClusters, cfg.MaxPromptTokens),
	}, nil
}

func (s *OpenAI) Name() string { return "openai" }

func (s *OpenAI) Summarize(ctx context.Context, clusters []domain.ClusterSummary) (string, error) {
	resp, err := s.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: s.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: s.prompts.Build(clusters)},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
