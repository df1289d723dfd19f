package handlers

import (
	"context"
	"time"

	"dream100/prospect-intel-worker/internal/dto"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/adk/model"
)

// AnalysisInput is what the analysis stage knows about a prospect
type AnalysisInput struct {
	JobID          string
	URL            string
	CompanyName    string
	WebsiteContent string
}

// AnalysisHandler turns scraped website content into a strategic analysis
type AnalysisHandler struct {
	agent        *AgentRunner
	usageTracker *UsageTrackerHandler
	logger       *zap.Logger
}

// NewAnalysisHandler creates the analysis agent on top of llm
func NewAnalysisHandler(llm model.LLM, timeout time.Duration) (*AnalysisHandler, error) {
	runner, err := NewAgentRunner(AgentConfig{
		Name:        "prospect_analysis",
		Description: "Extracts strategic positioning data from a company's website content.",
		Instruction: analysisInstruction,
		Model:       llm,
		Timeout:     timeout,
	})
	if err != nil {
		return nil, err
	}
	return &AnalysisHandler{
		agent:  runner,
		logger: zap.L().Named("AnalysisHandler"),
	}, nil
}

// SetUsageTracker enables usage metrics for this stage
func (h *AnalysisHandler) SetUsageTracker(tracker *UsageTrackerHandler) {
	h.usageTracker = tracker
}

// Analyze runs the analysis prompt and returns the model's text
func (h *AnalysisHandler) Analyze(ctx context.Context, in AnalysisInput) (string, error) {
	if in.WebsiteContent == "" {
		return "", eris.New("no website content to analyze")
	}

	prompt := buildAnalysisPrompt(in.URL, in.CompanyName, in.WebsiteContent)
	start := time.Now()
	h.logger.Info("analyzing", zap.String("job_id", in.JobID), zap.String("url", in.URL))

	out, err := h.agent.Run(ctx, prompt)
	h.usageTracker.Track(TrackOperationInput{
		JobID:         in.JobID,
		OperationType: dto.OperationAnalysis,
		Model:         h.agent.modelName,
		InputText:     prompt,
		Output:        out,
		StartTime:     start,
		Err:           err,
	})
	if err != nil {
		return "", eris.Wrapf(err, "analysis failed for %s", in.URL)
	}

	h.logger.Info("analysis complete", zap.String("job_id", in.JobID), zap.Int("length", len(out.Text)))
	return out.Text, nil
}
