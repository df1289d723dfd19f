package handlers

import (
	"context"
	"iter"
	"strings"
	"sync"

	"dream100/prospect-intel-worker/internal/dto"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// fakeLLM answers every request through respond and records what it was asked
type fakeLLM struct {
	name    string
	respond func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
	systems []string
}

func (f *fakeLLM) Name() string { return f.name }

func (f *fakeLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		prompt := lastUserText(req)

		f.mu.Lock()
		f.prompts = append(f.prompts, prompt)
		if req.Config != nil && req.Config.SystemInstruction != nil {
			f.systems = append(f.systems, contentText(req.Config.SystemInstruction))
		}
		f.mu.Unlock()

		text, err := f.respond(prompt)
		if err != nil {
			yield(nil, err)
			return
		}
		yield(&model.LLMResponse{
			Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
			TurnComplete: true,
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     100,
				CandidatesTokenCount: 50,
			},
		}, nil)
	}
}

func (f *fakeLLM) recordedPrompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func lastUserText(req *model.LLMRequest) string {
	for i := len(req.Contents) - 1; i >= 0; i-- {
		if req.Contents[i].Role == "user" {
			return contentText(req.Contents[i])
		}
	}
	return ""
}

func contentText(c *genai.Content) string {
	var parts []string
	for _, p := range c.Parts {
		if p != nil && p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// memoryUsageStore collects usage rows in memory
type memoryUsageStore struct {
	mu      sync.Mutex
	metrics []dto.UsageMetricInput
	err     error
}

func (s *memoryUsageStore) InsertUsageMetric(metric *dto.UsageMetricInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.metrics = append(s.metrics, *metric)
	return nil
}

func (s *memoryUsageStore) all() []dto.UsageMetricInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.UsageMetricInput(nil), s.metrics...)
}
