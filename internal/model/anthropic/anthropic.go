// Package anthropic adapts the Anthropic Messages API to the ADK model.LLM interface.
package anthropic

import (
	"context"
	"iter"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// DefaultMaxTokens is used when neither the config nor the request sets a limit.
const DefaultMaxTokens = 8192

// Config holds configuration for the Anthropic model
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint (tests, proxies)
	BaseURL     string
	MaxTokens   int64
	Temperature *float64
}

// Model implements model.LLM using the official SDK
type Model struct {
	name   string
	client sdk.Client
	config Config
	logger *zap.Logger
}

// NewModel creates a new Anthropic-backed model
func NewModel(_ context.Context, modelName string, cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, eris.New("anthropic: APIKey is required")
	}
	if modelName == "" {
		return nil, eris.New("anthropic: modelName is required")
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Model{
		name:   modelName,
		client: sdk.NewClient(opts...),
		config: cfg,
		logger: zap.L().Named("Anthropic").With(zap.String("model", modelName)),
	}, nil
}

// Name returns the model name
func (m *Model) Name() string {
	return m.name
}

// GenerateContent implements model.LLM with a single non-streaming call
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		params := m.buildParams(req)

		msg, err := m.client.Messages.New(ctx, params)
		if err != nil {
			yield(nil, eris.Wrap(err, "anthropic: create message"))
			return
		}

		m.logger.Debug("message created",
			zap.Int64("input_tokens", msg.Usage.InputTokens),
			zap.Int64("output_tokens", msg.Usage.OutputTokens),
			zap.String("stop_reason", string(msg.StopReason)))

		yield(fromSDKMessage(msg), nil)
	}
}

func (m *Model) buildParams(req *model.LLMRequest) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(m.name),
		MaxTokens: m.config.MaxTokens,
	}
	if m.config.Temperature != nil {
		params.Temperature = sdk.Float(*m.config.Temperature)
	}

	for _, content := range req.Contents {
		text := joinText(content)
		if text == "" {
			continue
		}
		block := sdk.NewTextBlock(text)
		if content.Role == "model" {
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, sdk.NewUserMessage(block))
		}
	}

	if req.Config != nil {
		if req.Config.SystemInstruction != nil {
			if text := joinText(req.Config.SystemInstruction); text != "" {
				params.System = []sdk.TextBlockParam{{Text: text}}
			}
		}
		if req.Config.Temperature != nil {
			params.Temperature = sdk.Float(float64(*req.Config.Temperature))
		}
		if req.Config.MaxOutputTokens != 0 {
			params.MaxTokens = int64(req.Config.MaxOutputTokens)
		}
		if len(req.Config.StopSequences) > 0 {
			params.StopSequences = req.Config.StopSequences
		}
	}

	return params
}

func fromSDKMessage(msg *sdk.Message) *model.LLMResponse {
	content := &genai.Content{Role: "model"}
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: block.Text})
		}
	}

	return &model.LLMResponse{
		Content:      content,
		TurnComplete: true,
		FinishReason: convertStopReason(string(msg.StopReason)),
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(msg.Usage.InputTokens),
			CandidatesTokenCount: int32(msg.Usage.OutputTokens),
			TotalTokenCount:      int32(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

func convertStopReason(reason string) genai.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return genai.FinishReasonStop
	case "max_tokens":
		return genai.FinishReasonMaxTokens
	case "refusal":
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonUnspecified
	}
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
