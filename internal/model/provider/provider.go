// Package provider builds the LLM backing each pipeline stage. Gemini and
// Vertex AI use the ADK gemini model; OpenAI-compatible endpoints (OpenAI,
// Manus) and Anthropic use the adapters in the sibling packages.
package provider

import (
	"context"
	"os"
	"time"

	"dream100/prospect-intel-worker/internal/model/anthropic"
	"dream100/prospect-intel-worker/internal/model/openaicompat"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// Backend represents the LLM backend to use
type Backend string

const (
	// BackendGemini uses Google AI Studio (Gemini API)
	BackendGemini Backend = "gemini"
	// BackendVertexAI uses Google Cloud Vertex AI
	BackendVertexAI Backend = "vertexai"
	// BackendOpenAI uses any OpenAI-compatible chat completions endpoint
	BackendOpenAI Backend = "openai"
	// BackendAnthropic uses the Anthropic Messages API
	BackendAnthropic Backend = "anthropic"
)

// Config holds configuration for creating an LLM model
type Config struct {
	Backend Backend
	// Model name, e.g. "gpt-4o", "manus-1.6-max", "gemini-2.5-pro"
	Model string

	APIKey  string
	BaseURL string

	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	// Vertex AI configuration
	GCPProject  string
	GCPLocation string

	// RateLimiter is applied to OpenAI-compatible backends (optional)
	RateLimiter *openaicompat.RateLimiter
}

// NewModel creates a new LLM model based on the configuration
func NewModel(ctx context.Context, cfg Config) (model.LLM, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Backend)
	}

	switch cfg.Backend {
	case BackendGemini:
		return newGeminiModel(ctx, cfg)
	case BackendVertexAI:
		return newVertexAIModel(ctx, cfg)
	case BackendOpenAI:
		return newOpenAIModel(ctx, cfg)
	case BackendAnthropic:
		return newAnthropicModel(ctx, cfg)
	default:
		return nil, eris.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

func newGeminiModel(ctx context.Context, cfg Config) (model.LLM, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, eris.New("Google API key is required for Gemini backend")
	}

	zap.L().Named("Provider").Info("creating Gemini model", zap.String("model", cfg.Model))

	return gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func newVertexAIModel(ctx context.Context, cfg Config) (model.LLM, error) {
	if cfg.GCPProject == "" {
		return nil, eris.New("GCP Project is required for Vertex AI backend")
	}
	if cfg.GCPLocation == "" {
		return nil, eris.New("GCP Location is required for Vertex AI backend")
	}

	zap.L().Named("Provider").Info("creating Gemini model on Vertex AI",
		zap.String("model", cfg.Model),
		zap.String("project", cfg.GCPProject),
		zap.String("location", cfg.GCPLocation))

	return gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		Project:  cfg.GCPProject,
		Location: cfg.GCPLocation,
		Backend:  genai.BackendVertexAI,
	})
}

func newOpenAIModel(ctx context.Context, cfg Config) (model.LLM, error) {
	if cfg.APIKey == "" {
		return nil, eris.New("API key is required for OpenAI-compatible backend")
	}

	zap.L().Named("Provider").Info("creating OpenAI-compatible model",
		zap.String("model", cfg.Model), zap.String("base_url", cfg.BaseURL))

	compatCfg := &openaicompat.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		MaxTokens:   int32(cfg.MaxTokens),
		RateLimiter: cfg.RateLimiter,
	}
	if cfg.Temperature > 0 {
		temp := float32(cfg.Temperature)
		compatCfg.Temperature = &temp
	}

	m, err := openaicompat.NewModel(ctx, cfg.Model, compatCfg)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newAnthropicModel(ctx context.Context, cfg Config) (model.LLM, error) {
	zap.L().Named("Provider").Info("creating Anthropic model", zap.String("model", cfg.Model))

	anthropicCfg := anthropic.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		MaxTokens: int64(cfg.MaxTokens),
	}
	if cfg.Temperature > 0 {
		temp := cfg.Temperature
		anthropicCfg.Temperature = &temp
	}

	m, err := anthropic.NewModel(ctx, cfg.Model, anthropicCfg)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DefaultModel returns the default model for each backend
func DefaultModel(backend Backend) string {
	switch backend {
	case BackendOpenAI:
		return "gpt-4o"
	case BackendAnthropic:
		return "claude-sonnet-4-5-20250929"
	default:
		return "gemini-2.5-pro"
	}
}
