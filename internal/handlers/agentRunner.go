package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	// DefaultAgentTimeout bounds a single agent run
	DefaultAgentTimeout = 300 * time.Second
	agentUserID         = "system"
)

// AgentConfig describes a single-turn text agent
type AgentConfig struct {
	// Name doubles as the ADK app name
	Name        string
	Description string
	Instruction string
	Model       model.LLM
	Timeout     time.Duration
}

// AgentOutput is the collected text of one agent run
type AgentOutput struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// AgentRunner wraps an ADK llmagent with an in-memory session per call
type AgentRunner struct {
	appName        string
	modelName      string
	timeout        time.Duration
	runner         *runner.Runner
	sessionService session.Service
	logger         *zap.Logger
}

// NewAgentRunner creates the agent, session service and runner
func NewAgentRunner(cfg AgentConfig) (*AgentRunner, error) {
	if cfg.Model == nil {
		return nil, eris.New("agent model is required")
	}
	if cfg.Name == "" {
		return nil, eris.New("agent name is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultAgentTimeout
	}

	llmAgent, err := llmagent.New(llmagent.Config{
		Name:        cfg.Name,
		Model:       cfg.Model,
		Description: cfg.Description,
		Instruction: cfg.Instruction,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to create agent %s", cfg.Name)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        cfg.Name,
		Agent:          llmAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to create runner %s", cfg.Name)
	}

	return &AgentRunner{
		appName:        cfg.Name,
		modelName:      cfg.Model.Name(),
		timeout:        cfg.Timeout,
		runner:         r,
		sessionService: sessionService,
		logger:         zap.L().Named("AgentRunner").With(zap.String("agent", cfg.Name)),
	}, nil
}

// Run sends prompt as a single user turn and concatenates the text of every event
func (a *AgentRunner) Run(ctx context.Context, prompt string) (*AgentOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	createResp, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName: a.appName,
		UserID:  agentUserID,
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to create session")
	}
	sessionID := createResp.Session.ID()
	defer func() {
		_ = a.sessionService.Delete(context.Background(), &session.DeleteRequest{
			AppName:   a.appName,
			UserID:    agentUserID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}

	out := &AgentOutput{Model: a.modelName}
	var text strings.Builder
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	for event, err := range a.runner.Run(ctx, agentUserID, sessionID, userMessage, runConfig) {
		if err != nil {
			return nil, eris.Wrap(err, "agent run failed")
		}
		if event == nil {
			continue
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				if part != nil && part.Text != "" {
					text.WriteString(part.Text)
				}
			}
		}
		if event.UsageMetadata != nil {
			out.InputTokens += int(event.UsageMetadata.PromptTokenCount)
			out.OutputTokens += int(event.UsageMetadata.CandidatesTokenCount)
		}
	}

	out.Text = strings.TrimSpace(text.String())
	if out.Text == "" {
		return nil, eris.New("agent returned an empty response")
	}

	a.logger.Debug("run complete",
		zap.Int("output_len", len(out.Text)),
		zap.Int("input_tokens", out.InputTokens),
		zap.Int("output_tokens", out.OutputTokens))

	return out, nil
}
