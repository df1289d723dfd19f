package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func newTestServer(t *testing.T, status int, body string, captured *chatRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func userRequest(text string) *model.LLMRequest {
	return &model.LLMRequest{
		Contents: []*genai.Content{
			{Role: "user", Parts: []*genai.Part{{Text: text}}},
		},
	}
}

func TestNewModel_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewModel(ctx, "gpt-4o", nil)
	assert.Error(t, err)

	_, err = NewModel(ctx, "gpt-4o", &Config{})
	assert.Error(t, err)

	_, err = NewModel(ctx, "", &Config{APIKey: "k"})
	assert.Error(t, err)

	m, err := NewModel(ctx, "gpt-4o", &Config{APIKey: "k", BaseURL: "https://api.manus.im/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", m.Name())
	assert.Equal(t, "https://api.manus.im/v1", m.config.BaseURL)
}

func TestGenerateContent_Success(t *testing.T) {
	var captured chatRequest
	server := newTestServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "<h1>Brief</h1>"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`, &captured)

	temp := float32(0.7)
	m, err := NewModel(context.Background(), "gpt-4o", &Config{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		Temperature: &temp,
		MaxTokens:   16000,
	})
	require.NoError(t, err)

	req := userRequest("write it")
	req.Config = &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: "Output ONLY raw HTML"}}},
	}

	var responses []*model.LLMResponse
	for resp, err := range m.GenerateContent(context.Background(), req, false) {
		require.NoError(t, err)
		responses = append(responses, resp)
	}

	require.Len(t, responses, 1)
	resp := responses[0]
	assert.True(t, resp.TurnComplete)
	assert.Equal(t, genai.FinishReasonStop, resp.FinishReason)
	require.NotNil(t, resp.Content)
	assert.Equal(t, "<h1>Brief</h1>", resp.Content.Parts[0].Text)
	require.NotNil(t, resp.UsageMetadata)
	assert.Equal(t, int32(15), resp.UsageMetadata.TotalTokenCount)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "Output ONLY raw HTML", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	require.NotNil(t, captured.Temperature)
	assert.InDelta(t, 0.7, *captured.Temperature, 0.001)
	require.NotNil(t, captured.MaxTokens)
	assert.Equal(t, int32(16000), *captured.MaxTokens)
}

func TestGenerateContent_RequestConfigOverridesDefaults(t *testing.T) {
	var captured chatRequest
	server := newTestServer(t, http.StatusOK, `{"choices":[{"message":{"content":"ok"},"finish_reason":"length"}]}`, &captured)

	temp := float32(0.7)
	m, err := NewModel(context.Background(), "manus-1.6-max", &Config{APIKey: "test-key", BaseURL: server.URL, Temperature: &temp})
	require.NoError(t, err)

	override := float32(0.1)
	req := userRequest("analyze")
	req.Config = &genai.GenerateContentConfig{Temperature: &override, MaxOutputTokens: 200}

	for resp, err := range m.GenerateContent(context.Background(), req, true) {
		require.NoError(t, err)
		assert.Equal(t, genai.FinishReasonMaxTokens, resp.FinishReason)
	}

	require.NotNil(t, captured.Temperature)
	assert.InDelta(t, 0.1, *captured.Temperature, 0.001)
	assert.Equal(t, int32(200), *captured.MaxTokens)
}

func TestGenerateContent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"non-200 status", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, "status 401"},
		{"api error in body", http.StatusOK, `{"error":{"message":"overloaded","code":529}}`, "overloaded"},
		{"malformed body", http.StatusOK, `not json`, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, tt.body, nil)
			m, err := NewModel(context.Background(), "gpt-4o", &Config{APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			var gotErr error
			for _, err := range m.GenerateContent(context.Background(), userRequest("hi"), false) {
				gotErr = err
			}
			require.Error(t, gotErr)
			assert.Contains(t, gotErr.Error(), tt.wantErr)
		})
	}
}

func TestConvertRole(t *testing.T) {
	assert.Equal(t, "assistant", convertRole("model"))
	assert.Equal(t, "user", convertRole("user"))
	assert.Equal(t, "user", convertRole(""))
	assert.Equal(t, "system", convertRole("system"))
}
