package dto

// CallbackRequest is posted by the workflow engine once both documents exist
// @Description Workflow engine callback carrying shareable document links
type CallbackRequest struct {
	// Job id that was sent with the dispatched documents
	JobID string `json:"job_id" binding:"required" example:"3f0c9b1e6d2a4c0f9b8e7d6c5b4a3f2e-0"`
	// Link to the pre-brief document
	Document1URL string `json:"document1_url" example:"https://docs.google.com/document/d/abc"`
	// Link to the sales snapshot document
	Document2URL string `json:"document2_url" example:"https://docs.google.com/document/d/def"`
}

// CallbackResponse acknowledges a callback
type CallbackResponse struct {
	Success bool   `json:"success" example:"true"`
	JobID   string `json:"job_id"`
	// accepted, duplicate or ignored
	Status  string `json:"status" example:"accepted"`
	Message string `json:"message,omitempty"`
}
