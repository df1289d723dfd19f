package dto

import (
	"encoding/json"
	"time"
)

// SubmitEnvelope is the batch form of a submission body
// @Description Batch submission: a list of prospect records
type SubmitEnvelope struct {
	// Prospect records, processed in order
	Items []json.RawMessage `json:"items" swaggertype:"array,object"`
	// Optional override for the batch report recipient
	Recipient string `json:"recipient,omitempty" example:"sales-ops@example.com"`
	// Optional processing mode ("test" or "prod"), overrides the query parameter
	Mode string `json:"mode,omitempty" example:"prod"`
}

// SubmitResponse is returned once a submission has been accepted
// @Description Accepted submission, processing continues in the background
type SubmitResponse struct {
	Success   bool   `json:"success" example:"true"`
	JobID     string `json:"job_id" example:"3f0c9b1e6d2a4c0f9b8e7d6c5b4a3f2e"`
	IsBatch   bool   `json:"is_batch" example:"true"`
	Total     int    `json:"total" example:"2"`
	Mode      string `json:"mode" example:"prod"`
	StatusURL string `json:"status_url" example:"/api/status/3f0c9b1e6d2a4c0f9b8e7d6c5b4a3f2e"`
	Message   string `json:"message" example:"Processing started"`
}

// StatusResponse wraps a job status snapshot
type StatusResponse struct {
	Success bool      `json:"success" example:"true"`
	Status  JobStatus `json:"status"`
}

// JobStatus is a point-in-time snapshot of a tracked job
// @Description Current state of a submitted job
type JobStatus struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status" example:"processing"`
	Mode      string `json:"mode" example:"prod"`
	IsBatch   bool   `json:"is_batch"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	// Members whose callback has been received
	Completed int `json:"completed"`
	// Members whose processing failed before dispatch
	Failed  int    `json:"failed"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	// Single-mode processing result
	Result       *ProspectResult `json:"result,omitempty"`
	Document1URL *string         `json:"document1_url,omitempty"`
	Document2URL *string         `json:"document2_url,omitempty"`
	// Batch-mode per-member results in submission order
	Results    []BatchResult `json:"results,omitempty"`
	ReportSent bool          `json:"report_sent,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ProspectResult is the structured outcome of processing one prospect
type ProspectResult struct {
	Success    bool   `json:"success"`
	JobID      string `json:"job_id"`
	Company    string `json:"company"`
	Prospect   string `json:"prospect"`
	Website    string `json:"website,omitempty"`
	Dispatched bool   `json:"dispatched"`
	// True when the workflow engine did not answer within the dispatch timeout
	DispatchTimedOut bool   `json:"dispatch_timed_out,omitempty"`
	Error            string `json:"error,omitempty"`
}

// BatchResult is one row of a batch, mirroring the report columns
type BatchResult struct {
	JobID        string  `json:"job_id"`
	Company      string  `json:"company"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Title        string  `json:"title"`
	Email        string  `json:"email"`
	Website      string  `json:"website"`
	Document1URL *string `json:"document1_url"`
	Document2URL *string `json:"document2_url"`
	State        string  `json:"state" example:"pending"`
	Error        string  `json:"error,omitempty"`
}

// ErrorResponse represents an error response
// @Description Error response returned when request fails
type ErrorResponse struct {
	// Error message describing what went wrong
	Error string `json:"error" example:"No data provided"`
}
