package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Capability types accepted by the embedder and summarizer sections.
const (
	TypeAuto      = "auto"
	TypeNone      = "none"
	TypeOpenAI    = "openai"
	TypeTFIDF     = "tfidf"
	TypeFrequency = "frequency"
)

const (
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
	DefaultBaseURL   = "https://api.openai.com/v1"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadFiles int    `yaml:"max_upload_files"`
	MaxBodyMB      int    `yaml:"max_body_mb"`
	UploadDir      string `yaml:"upload_dir,omitempty"`
}

// SegmenterConfig configures how raw text is split into question snippets.
type SegmenterConfig struct {
	MinSnippetChars int `yaml:"min_snippet_chars"`
	MaxSnippets     int `yaml:"max_snippets"`
}

// ClusterConfig configures grouping of similar snippets. Threshold is a
// pointer so an explicit 0 survives defaulting.
type ClusterConfig struct {
	Threshold *float64 `yaml:"threshold"`
}

// RankerConfig configures the most-probable list.
type RankerConfig struct {
	TopN int `yaml:"top_n"`
}

// PlanConfig configures the revision schedule.
type PlanConfig struct {
	Days int `yaml:"days"`
}

// OpenAIConfig holds connection details for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries,omitempty"`
	MaxTokens   int    `yaml:"max_tokens,omitempty"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string        `yaml:"type"`
	Concurrency int           `yaml:"concurrency"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type            string        `yaml:"type"`
	MaxClusters     int           `yaml:"max_clusters"`
	MaxPromptTokens int           `yaml:"max_prompt_tokens"`
	MaxQuestions    int           `yaml:"max_questions"`
	OpenAI          *OpenAIConfig `yaml:"openai,omitempty"`
}

// OCRConfig describes the external OCR command. An empty command disables OCR.
type OCRConfig struct {
	Command     []string `yaml:"command"`
	Output      string   `yaml:"output"`
	TimeoutSecs int      `yaml:"timeout_secs"`
}

// ExtractorConfig configures file text extraction.
type ExtractorConfig struct {
	PDFMinTextChars int       `yaml:"pdf_min_text_chars"`
	OCR             OCRConfig `yaml:"ocr"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Segmenter  SegmenterConfig  `yaml:"segmenter"`
	Cluster    ClusterConfig    `yaml:"cluster"`
	Ranker     RankerConfig     `yaml:"ranker"`
	Plan       PlanConfig       `yaml:"plan"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Extractor  ExtractorConfig  `yaml:"extractor"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./examradar.yaml first, then ~/.config/examradar/config.yaml.
// If neither exists, it writes defaults to ~/.config/examradar/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "examradar.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects values that cannot be defaulted.
func (c *AppConfig) Validate() error {
	var errs []error
	if t := c.Cluster.Threshold; t != nil && (*t < 0 || *t > 1) {
		errs = append(errs, fmt.Errorf("cluster.threshold must be within [0,1], got %v", *t))
	}
	switch c.Embedder.Type {
	case TypeAuto, TypeNone, TypeOpenAI, TypeTFIDF:
	default:
		errs = append(errs, fmt.Errorf("unknown embedder.type %q", c.Embedder.Type))
	}
	switch c.Summarizer.Type {
	case TypeAuto, TypeNone, TypeOpenAI, TypeFrequency:
	default:
		errs = append(errs, fmt.Errorf("unknown summarizer.type %q", c.Summarizer.Type))
	}
	switch c.Extractor.OCR.Output {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown extractor.ocr.output %q", c.Extractor.OCR.Output))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "examradar", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":4000"
	}
	if cfg.Server.MaxUploadFiles == 0 {
		cfg.Server.MaxUploadFiles = 8
	}
	if cfg.Server.MaxBodyMB == 0 {
		cfg.Server.MaxBodyMB = 25
	}
	if cfg.Segmenter.MinSnippetChars == 0 {
		cfg.Segmenter.MinSnippetChars = 25
	}
	if cfg.Segmenter.MaxSnippets == 0 {
		cfg.Segmenter.MaxSnippets = 2000
	}
	if cfg.Cluster.Threshold == nil {
		t := 0.76
		cfg.Cluster.Threshold = &t
	}
	if cfg.Ranker.TopN == 0 {
		cfg.Ranker.TopN = 15
	}
	if cfg.Plan.Days == 0 {
		cfg.Plan.Days = 28
	}

	cfg.Embedder.Type = strings.ToLower(strings.TrimSpace(cfg.Embedder.Type))
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = TypeAuto
	}
	if cfg.Embedder.Concurrency <= 0 {
		cfg.Embedder.Concurrency = 1
	}
	if cfg.Embedder.OpenAI == nil {
		cfg.Embedder.OpenAI = &OpenAIConfig{}
	}
	applyOpenAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small")
	if cfg.Embedder.OpenAI.MaxRetries == 0 {
		cfg.Embedder.OpenAI.MaxRetries = 2
	}

	cfg.Summarizer.Type = strings.ToLower(strings.TrimSpace(cfg.Summarizer.Type))
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = TypeAuto
	}
	if cfg.Summarizer.MaxClusters == 0 {
		cfg.Summarizer.MaxClusters = 50
	}
	if cfg.Summarizer.MaxPromptTokens == 0 {
		cfg.Summarizer.MaxPromptTokens = 6000
	}
	if cfg.Summarizer.MaxQuestions == 0 {
		cfg.Summarizer.MaxQuestions = 5
	}
	if cfg.Summarizer.OpenAI == nil {
		cfg.Summarizer.OpenAI = &OpenAIConfig{}
	}
	applyOpenAIDefaults(cfg.Summarizer.OpenAI, "gpt-4o-mini")
	if cfg.Summarizer.OpenAI.MaxTokens == 0 {
		cfg.Summarizer.OpenAI.MaxTokens = 800
	}

	if cfg.Extractor.PDFMinTextChars == 0 {
		cfg.Extractor.PDFMinTextChars = 100
	}
	// An explicit empty list disables OCR.
	if cfg.Extractor.OCR.Command == nil {
		cfg.Extractor.OCR.Command = []string{"tesseract", "{input}", "stdout"}
		if cfg.Extractor.OCR.Output == "" {
			cfg.Extractor.OCR.Output = "text"
		}
	}
	if cfg.Extractor.OCR.Output == "" {
		cfg.Extractor.OCR.Output = "json"
	}
	if cfg.Extractor.OCR.TimeoutSecs == 0 {
		cfg.Extractor.OCR.TimeoutSecs = 120
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func applyOpenAIDefaults(c *OpenAIConfig, model string) {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 30
	}
}
