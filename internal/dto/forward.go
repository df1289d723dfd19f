package dto

import "encoding/json"

// ForwardBatchRequest forwards a list of raw records straight to the workflow engine
type ForwardBatchRequest struct {
	Items []json.RawMessage `json:"items" swaggertype:"array,object"`
	Mode  string            `json:"mode" example:"test"`
}

// ForwardResponse reports the outcome of a direct forward
type ForwardResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Mode       string `json:"mode"`
	TotalItems int    `json:"total_items,omitempty"`
	// Raw body returned by the workflow engine
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}
