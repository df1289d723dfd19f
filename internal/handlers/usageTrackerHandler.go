package handlers

import (
	"sync"
	"time"

	"dream100/prospect-intel-worker/internal/dto"

	"go.uber.org/zap"
)

const (
	// CharsPerToken is the approximate number of characters per token for estimation
	CharsPerToken = 4

	// DefaultInsertTimeout bounds how long a single usage insert is awaited
	DefaultInsertTimeout = 10 * time.Second
)

// UsageStore persists usage rows
type UsageStore interface {
	InsertUsageMetric(metric *dto.UsageMetricInput) error
}

// UsageTrackerHandler records token usage and estimated cost of each AI stage
type UsageTrackerHandler struct {
	store         UsageStore
	pricing       map[string]dto.TokenPricing
	insertTimeout time.Duration
	logger        *zap.Logger
	wg            sync.WaitGroup
}

// NewUsageTrackerHandler creates a new UsageTrackerHandler
func NewUsageTrackerHandler(store UsageStore) *UsageTrackerHandler {
	return &UsageTrackerHandler{
		store:         store,
		pricing:       dto.DefaultTokenPricing(),
		insertTimeout: DefaultInsertTimeout,
		logger:        zap.L().Named("UsageTracker"),
	}
}

// EstimateTokens estimates token count from text length
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}

// CalculateCost returns the estimated USD cost; unknown models cost nothing
func (h *UsageTrackerHandler) CalculateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := h.pricing[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)*pricing.InputPricePerMTok/1_000_000 +
		float64(outputTokens)*pricing.OutputPricePerMTok/1_000_000
}

// TrackOperationInput contains the data needed to track an operation
type TrackOperationInput struct {
	JobID         string
	OperationType dto.OperationType
	Model         string
	InputText     string
	// Output is nil when the stage failed
	Output    *AgentOutput
	StartTime time.Time
	Err       error
}

// Build converts an operation into a usage row, preferring reported token counts over estimates
func (h *UsageTrackerHandler) Build(input TrackOperationInput) dto.UsageMetricInput {
	inputTokens := EstimateTokens(input.InputText)
	outputTokens := 0
	if input.Output != nil {
		if input.Output.InputTokens > 0 {
			inputTokens = input.Output.InputTokens
		}
		outputTokens = input.Output.OutputTokens
		if outputTokens == 0 {
			outputTokens = EstimateTokens(input.Output.Text)
		}
	}

	metric := dto.UsageMetricInput{
		JobID:           input.JobID,
		OperationType:   input.OperationType,
		Model:           input.Model,
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
		TotalTokens:     inputTokens + outputTokens,
		EstimatedCostUS: h.CalculateCost(input.Model, inputTokens, outputTokens),
		DurationMs:      time.Since(input.StartTime).Milliseconds(),
		Success:         input.Err == nil,
	}
	if input.Err != nil {
		msg := input.Err.Error()
		metric.ErrorMessage = &msg
	}
	return metric
}

// Track records an operation in the background. Failures and slow inserts
// are logged and never block the pipeline.
func (h *UsageTrackerHandler) Track(input TrackOperationInput) {
	if h == nil || h.store == nil {
		return
	}
	metric := h.Build(input)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.insert(&metric)
	}()
}

func (h *UsageTrackerHandler) insert(metric *dto.UsageMetricInput) {
	done := make(chan error, 1)
	go func() {
		done <- h.store.InsertUsageMetric(metric)
	}()

	timer := time.NewTimer(h.insertTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			h.logger.Warn("failed to insert usage metric", zap.Error(err), zap.String("job_id", metric.JobID))
			return
		}
		h.logger.Debug("tracked",
			zap.String("operation", string(metric.OperationType)),
			zap.Int("tokens", metric.TotalTokens),
			zap.Float64("cost_usd", metric.EstimatedCostUS),
			zap.Int64("duration_ms", metric.DurationMs))
	case <-timer.C:
		h.logger.Warn("usage metric insert timed out",
			zap.String("job_id", metric.JobID),
			zap.Duration("timeout", h.insertTimeout))
	}
}

// Wait blocks until every pending insert has finished or timed out
func (h *UsageTrackerHandler) Wait() {
	if h == nil {
		return
	}
	h.wg.Wait()
}
