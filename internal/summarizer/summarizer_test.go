package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examradar/internal/domain"
)

const testKeyEnv = "EXAMRADAR_TEST_CHAT_KEY"

var sample = []domain.ClusterSummary{
	{Count: 4, Example: "What is the capital of France?"},
	{Count: 2, Example: "Explain photosynthesis in green plants."},
	{Count: 1, Example: "Define the capital gains tax."},
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Summarize(context.Background(), sample)

	assert.ErrorIs(t, err, domain.ErrDisabled)
	assert.Equal(t, "none", Disabled{}.Name())
}

func TestPromptBuilder_Format(t *testing.T) {
	p := NewPromptBuilder(0, 0).Build(sample)

	assert.True(t, strings.HasPrefix(p, "You are an expert exam analyst."))
	assert.Contains(t, p, "Clusters:\n1) What is the capital of France? -- freq 4\n2) Explain")
	assert.True(t, strings.HasSuffix(p, "3) Define the capital gains tax. -- freq 1"))
}

func TestPromptBuilder_CapsClusters(t *testing.T) {
	var many []domain.ClusterSummary
	for i := 0; i < 80; i++ {
		many = append(many, domain.ClusterSummary{Count: 1, Example: fmt.Sprintf("question %d", i)})
	}

	p := NewPromptBuilder(0, 0).Build(many)

	assert.Contains(t, p, "50) question 49 -- freq 1")
	assert.NotContains(t, p, "51)")
}

func TestPromptBuilder_TokenBudget(t *testing.T) {
	var many []domain.ClusterSummary
	for i := 0; i < 40; i++ {
		many = append(many, domain.ClusterSummary{Count: 1, Example: strings.Repeat("thermodynamics entropy ", 20)})
	}

	p := NewPromptBuilder(0, 200).Build(many)

	assert.Contains(t, p, "1) thermodynamics")
	assert.NotContains(t, p, "40) thermodynamics")
}

func TestFrequency_Summarize(t *testing.T) {
	out, err := NewFrequency(2).Summarize(context.Background(), sample)

	require.NoError(t, err)
	assert.Contains(t, out, "Recurring themes: capital")
	assert.Contains(t, out, "1) What is the capital of France? (seen 4×)")
	assert.NotContains(t, out, "3)")
	assert.Equal(t, "frequency", NewFrequency(0).Name())
}

func TestFrequency_Empty(t *testing.T) {
	_, err := NewFrequency(0).Summarize(context.Background(), nil)
	assert.Error(t, err)
}

func TestOpenAI_Summarize(t *testing.T) {
	var gotModel string
	var gotMax int
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel, gotMax = body.Model, body.MaxTokens
		if len(body.Messages) > 0 {
			gotPrompt = body.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Study hard.  "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()
	t.Setenv(testKeyEnv, "k")

	s, err := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKeyEnv: testKeyEnv, Timeout: 5 * time.Second})
	require.NoError(t, err)
	out, err := s.Summarize(context.Background(), sample)

	require.NoError(t, err)
	assert.Equal(t, "Study hard.", out)
	assert.Equal(t, DefaultChatModel, gotModel)
	assert.Equal(t, DefaultMaxTokens, gotMax)
	assert.Contains(t, gotPrompt, "What is the capital of France? -- freq 4")
}

func TestOpenAI_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"down","type":"server_error"}}`))
	}))
	defer srv.Close()
	t.Setenv(testKeyEnv, "k")

	s, err := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKeyEnv: testKeyEnv})
	require.NoError(t, err)
	_, err = s.Summarize(context.Background(), sample)

	assert.ErrorContains(t, err, "chat completion")
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	t.Setenv(testKeyEnv, "")

	_, err := NewOpenAI(OpenAIConfig{APIKeyEnv: testKeyEnv})

	assert.Error(t, err)
}
