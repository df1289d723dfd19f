package dto

// OperationType identifies a metered pipeline stage
type OperationType string

const (
	OperationAnalysis      OperationType = "analysis"
	OperationPreBrief      OperationType = "pre_brief"
	OperationSalesSnapshot OperationType = "sales_snapshot"
)

// UsageMetricInput is one row of the usage table
type UsageMetricInput struct {
	JobID           string        `json:"job_id"`
	OperationType   OperationType `json:"operation_type"`
	Model           string        `json:"model"`
	InputTokens     int           `json:"input_tokens"`
	OutputTokens    int           `json:"output_tokens"`
	TotalTokens     int           `json:"total_tokens"`
	EstimatedCostUS float64       `json:"estimated_cost_usd"`
	DurationMs      int64         `json:"duration_ms"`
	Success         bool          `json:"success"`
	ErrorMessage    *string       `json:"error_message,omitempty"`
}

// TokenPricing contains pricing information for token estimation
type TokenPricing struct {
	Model              string
	InputPricePerMTok  float64 // Price per million input tokens
	OutputPricePerMTok float64 // Price per million output tokens
}

// DefaultTokenPricing returns pricing for the models the pipeline is configured with by default
func DefaultTokenPricing() map[string]TokenPricing {
	return map[string]TokenPricing{
		"gpt-4o": {
			Model:              "gpt-4o",
			InputPricePerMTok:  2.50,
			OutputPricePerMTok: 10.00,
		},
		"gpt-4o-mini": {
			Model:              "gpt-4o-mini",
			InputPricePerMTok:  0.15,
			OutputPricePerMTok: 0.60,
		},
		"gemini-2.5-flash": {
			Model:              "gemini-2.5-flash",
			InputPricePerMTok:  0.30,
			OutputPricePerMTok: 2.50,
		},
		"gemini-2.5-pro": {
			Model:              "gemini-2.5-pro",
			InputPricePerMTok:  1.25,
			OutputPricePerMTok: 10.00,
		},
		"claude-sonnet-4-5-20250929": {
			Model:              "claude-sonnet-4-5-20250929",
			InputPricePerMTok:  3.00,
			OutputPricePerMTok: 15.00,
		},
	}
}
