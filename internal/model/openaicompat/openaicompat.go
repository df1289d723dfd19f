// Package openaicompat implements the ADK model.LLM interface on top of any
// OpenAI-compatible /chat/completions endpoint. It backs both document
// generation (OpenAI) and website analysis (Manus).
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	// DefaultBaseURL is the OpenAI API endpoint
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout for API requests; long documents take minutes
	DefaultTimeout = 300 * time.Second
)

// Config holds configuration for an OpenAI-compatible model
type Config struct {
	// APIKey is sent as a bearer token (required)
	APIKey string
	// BaseURL is the API base URL without the /chat/completions suffix
	BaseURL string
	// HTTPClient allows a custom HTTP client (optional)
	HTTPClient *http.Client
	// Timeout for requests (defaults to 300s)
	Timeout time.Duration
	// Temperature applied when the request carries none
	Temperature *float32
	// MaxTokens applied when the request carries none
	MaxTokens int32
	// RateLimiter is shared across models hitting the same provider (optional)
	RateLimiter *RateLimiter
}

// Model implements the ADK model.LLM interface
type Model struct {
	name       string
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewModel creates a new model instance
func NewModel(_ context.Context, modelName string, config *Config) (*Model, error) {
	if config == nil {
		return nil, eris.New("config is required")
	}
	if config.APIKey == "" {
		return nil, eris.New("APIKey is required")
	}
	if modelName == "" {
		return nil, eris.New("modelName is required")
	}

	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Model{
		name:       modelName,
		config:     cfg,
		httpClient: cfg.HTTPClient,
		logger:     zap.L().Named("OpenAICompat").With(zap.String("model", modelName)),
	}, nil
}

// Name returns the model name
func (m *Model) Name() string {
	return m.name
}

// GenerateContent implements model.LLM. Streaming is not supported by the
// pipeline, so a streaming request still yields one complete response.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		chatReq := m.convertRequest(req)

		resp, err := m.complete(ctx, chatReq)
		if err != nil {
			yield(nil, err)
			return
		}
		yield(m.convertResponse(resp), nil)
	}
}

func (m *Model) complete(ctx context.Context, req *chatRequest) (*chatResponse, error) {
	if m.config.RateLimiter != nil {
		release, err := m.config.RateLimiter.Acquire(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "rate limiter")
		}
		defer release()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.config.APIKey)

	start := time.Now()
	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "request failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, eris.Errorf("API error (status %d): %s", httpResp.StatusCode, string(bodyBytes))
	}

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, eris.Wrap(err, "failed to decode response")
	}
	if resp.Error != nil {
		return nil, eris.Errorf("API error: %s (code: %v)", resp.Error.Message, resp.Error.Code)
	}

	m.logger.Debug("completion finished", zap.Duration("elapsed", time.Since(start)), zap.Int("choices", len(resp.Choices)))
	return &resp, nil
}

// convertRequest flattens the ADK request into chat messages. The agent
// instruction travels in Config.SystemInstruction and becomes the system message.
func (m *Model) convertRequest(req *model.LLMRequest) *chatRequest {
	messages := make([]chatMessage, 0, len(req.Contents)+1)

	if req.Config != nil && req.Config.SystemInstruction != nil {
		if text := joinText(req.Config.SystemInstruction); text != "" {
			messages = append(messages, chatMessage{Role: "system", Content: text})
		}
	}

	for _, content := range req.Contents {
		text := joinText(content)
		if text == "" {
			continue
		}
		messages = append(messages, chatMessage{Role: convertRole(content.Role), Content: text})
	}

	chatReq := &chatRequest{
		Model:       m.name,
		Messages:    messages,
		Temperature: m.config.Temperature,
	}
	if m.config.MaxTokens > 0 {
		maxTokens := m.config.MaxTokens
		chatReq.MaxTokens = &maxTokens
	}

	if req.Config != nil {
		if req.Config.Temperature != nil {
			chatReq.Temperature = req.Config.Temperature
		}
		if req.Config.TopP != nil {
			chatReq.TopP = req.Config.TopP
		}
		if req.Config.MaxOutputTokens != 0 {
			maxTokens := req.Config.MaxOutputTokens
			chatReq.MaxTokens = &maxTokens
		}
		if req.Config.StopSequences != nil {
			chatReq.Stop = req.Config.StopSequences
		}
	}

	return chatReq
}

func (m *Model) convertResponse(resp *chatResponse) *model.LLMResponse {
	llmResp := &model.LLMResponse{
		TurnComplete: true,
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		content := &genai.Content{Role: "model"}
		if choice.Message.Content != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: choice.Message.Content})
		}
		llmResp.Content = content
		llmResp.FinishReason = convertFinishReason(choice.FinishReason)
	}

	if resp.Usage != nil {
		llmResp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		}
	}

	return llmResp
}

func joinText(content *genai.Content) string {
	var parts []string
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func convertRole(role string) string {
	switch role {
	case "model":
		return "assistant"
	case "":
		return "user"
	default:
		return role
	}
}

func convertFinishReason(reason string) genai.FinishReason {
	switch reason {
	case "stop":
		return genai.FinishReasonStop
	case "length":
		return genai.FinishReasonMaxTokens
	case "content_filter":
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonUnspecified
	}
}
