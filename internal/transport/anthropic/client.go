package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

const (
	provider = "anthropic"

	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
)

// Generator produces answers via the Anthropic Messages API.
type Generator struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// GeneratorConfig holds the chat provider settings.
type GeneratorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewGenerator creates an Anthropic chat provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Generator{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  cfg.Logger,
	}
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate runs a single Messages API call for the request.
// Rate limits, 5xx responses and network failures map to
// domain.ErrProviderUnavailable so callers can retry them.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	body, err := json.Marshal(messagesRequest{
		Model:       g.model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal messages request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create messages request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	start := time.Now()

	resp, err := g.client.Do(httpReq)
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		return "", fmt.Errorf("messages request failed: %v: %w", err, domain.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		return "", classifyStatus(resp.StatusCode, resp.Body)
	}

	var result messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		return "", fmt.Errorf("decode messages response: %v: %w", err, domain.ErrGenerationFailed)
	}

	answer := ""
	for _, block := range result.Content {
		if block.Type == "text" {
			answer += block.Text
		}
	}
	if answer == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		return "", fmt.Errorf("empty messages response: %w", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(provider, g.model).Observe(duration.Seconds())

	return answer, nil
}

// classifyStatus splits non-200 responses into retryable and terminal.
func classifyStatus(status int, body io.Reader) error {
	detail := ""
	var parsed apiError
	if json.NewDecoder(body).Decode(&parsed) == nil && parsed.Error.Message != "" {
		detail = ": " + parsed.Error.Message
	}

	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return fmt.Errorf("messages API error %d%s: %w", status, detail, domain.ErrProviderUnavailable)
	}
	return fmt.Errorf("messages API error %d%s: %w", status, detail, domain.ErrGenerationFailed)
}
