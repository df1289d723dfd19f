package handlers

import (
	"context"
	"regexp"
	"strings"
	"time"

	"dream100/prospect-intel-worker/internal/dto"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/adk/model"
)

// DocumentInput parameterizes both generated documents
type DocumentInput struct {
	JobID          string
	URL            string
	FirstName      string
	LastName       string
	WebsiteContent string
	Analysis       string
}

// DocumentHandler generates the pre-brief and the sales snapshot as HTML
type DocumentHandler struct {
	preBrief      *AgentRunner
	salesSnapshot *AgentRunner
	usageTracker  *UsageTrackerHandler
	logger        *zap.Logger
}

var codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n?(.*?)\\s*```$")

// NewDocumentHandler creates one agent per document on top of llm
func NewDocumentHandler(llm model.LLM, timeout time.Duration) (*DocumentHandler, error) {
	preBrief, err := NewAgentRunner(AgentConfig{
		Name:        "pre_brief",
		Description: "Writes a revenue intelligence pre-brief in HTML.",
		Instruction: preBriefInstruction,
		Model:       llm,
		Timeout:     timeout,
	})
	if err != nil {
		return nil, err
	}

	salesSnapshot, err := NewAgentRunner(AgentConfig{
		Name:        "sales_snapshot",
		Description: "Writes an internal sales snapshot in HTML.",
		Instruction: salesSnapshotInstruction,
		Model:       llm,
		Timeout:     timeout,
	})
	if err != nil {
		return nil, err
	}

	return &DocumentHandler{
		preBrief:      preBrief,
		salesSnapshot: salesSnapshot,
		logger:        zap.L().Named("DocumentHandler"),
	}, nil
}

// SetUsageTracker enables usage metrics for both documents
func (h *DocumentHandler) SetUsageTracker(tracker *UsageTrackerHandler) {
	h.usageTracker = tracker
}

// GeneratePreBrief writes the prospect-facing positioning brief
func (h *DocumentHandler) GeneratePreBrief(ctx context.Context, in DocumentInput) (string, error) {
	return h.generate(ctx, h.preBrief, dto.OperationPreBrief, buildPreBriefPrompt(in), in.JobID)
}

// GenerateSalesSnapshot writes the internal strategy snapshot
func (h *DocumentHandler) GenerateSalesSnapshot(ctx context.Context, in DocumentInput) (string, error) {
	return h.generate(ctx, h.salesSnapshot, dto.OperationSalesSnapshot, buildSalesSnapshotPrompt(in), in.JobID)
}

func (h *DocumentHandler) generate(ctx context.Context, agent *AgentRunner, op dto.OperationType, prompt, jobID string) (string, error) {
	start := time.Now()
	h.logger.Info("generating", zap.String("document", string(op)), zap.String("job_id", jobID))

	out, err := agent.Run(ctx, prompt)
	h.usageTracker.Track(TrackOperationInput{
		JobID:         jobID,
		OperationType: op,
		Model:         agent.modelName,
		InputText:     prompt,
		Output:        out,
		StartTime:     start,
		Err:           err,
	})
	if err != nil {
		return "", eris.Wrapf(err, "%s generation failed", op)
	}

	html := cleanHTMLResponse(out.Text)
	if html == "" {
		return "", eris.Errorf("%s generation returned no HTML", op)
	}

	h.logger.Info("generated", zap.String("document", string(op)), zap.String("job_id", jobID), zap.Int("length", len(html)))
	return html, nil
}

// cleanHTMLResponse strips a markdown code fence the model sometimes wraps HTML in
func cleanHTMLResponse(response string) string {
	response = strings.TrimSpace(response)
	if m := codeFencePattern.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return response
}
