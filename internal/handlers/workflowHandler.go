package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"dream100/prospect-intel-worker/internal/dto"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	DefaultDispatchTimeout = 10 * time.Second
	DefaultForwardTimeout  = 30 * time.Second
	maxEngineResponseBytes = 64 << 10
)

// WorkflowConfig holds the workflow engine webhooks
type WorkflowConfig struct {
	DocWebhook      string
	DocWebhookTest  string
	EmailWebhook    string
	ForwardWebhook  string
	ForwardTest     string
	DispatchTimeout time.Duration
	ForwardTimeout  time.Duration
	HTTPClient      *http.Client
}

// WorkflowHandler posts generated documents and records to the workflow engine
type WorkflowHandler struct {
	cfg    WorkflowConfig
	client *http.Client
	logger *zap.Logger
}

// DispatchRequest carries both documents for one prospect
type DispatchRequest struct {
	JobID         string
	CallbackURL   string
	PreBrief      string
	SalesSnapshot string
	Company       string
	Name          string
	Mode          dto.Mode
}

// DispatchResult reports how the engine acknowledged a dispatch
type DispatchResult struct {
	StatusCode int
	// TimedOut is set when the engine did not answer within the dispatch timeout.
	// The engine keeps processing in that case, so it is not an error.
	TimedOut bool
}

// LinksNotification is sent to the email webhook when a single job's callback lands
type LinksNotification struct {
	JobID        string  `json:"job_id"`
	Recipient    string  `json:"recipient,omitempty"`
	Company      string  `json:"company"`
	Name         string  `json:"name"`
	Document1URL *string `json:"document1_url"`
	Document2URL *string `json:"document2_url"`
}

// ForwardResult is the engine's answer to a forwarded record
type ForwardResult struct {
	StatusCode int
	Body       string
}

type dispatchPayload struct {
	JobID         string       `json:"job_id"`
	CallbackURL   string       `json:"callback_url"`
	PreBrief      string       `json:"pre_brief"`
	SalesSnapshot string       `json:"sales_snapshot"`
	ProspectInfo  prospectInfo `json:"prospect_info"`
}

type prospectInfo struct {
	Company string `json:"company"`
	Name    string `json:"name"`
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(cfg WorkflowConfig) (*WorkflowHandler, error) {
	if cfg.DocWebhook == "" && cfg.DocWebhookTest == "" {
		return nil, eris.New("document webhook URL is required")
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = DefaultDispatchTimeout
	}
	if cfg.ForwardTimeout <= 0 {
		cfg.ForwardTimeout = DefaultForwardTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &WorkflowHandler{
		cfg:    cfg,
		client: client,
		logger: zap.L().Named("WorkflowHandler"),
	}, nil
}

func (h *WorkflowHandler) docWebhook(mode dto.Mode) string {
	if mode == dto.ModeTest && h.cfg.DocWebhookTest != "" {
		return h.cfg.DocWebhookTest
	}
	if h.cfg.DocWebhook == "" {
		return h.cfg.DocWebhookTest
	}
	return h.cfg.DocWebhook
}

func (h *WorkflowHandler) forwardWebhook(mode dto.Mode) string {
	if mode == dto.ModeTest {
		return h.cfg.ForwardTest
	}
	return h.cfg.ForwardWebhook
}

// DispatchDocuments hands both documents to the engine with a short timeout.
// Only a non-2xx answer or a connection failure is an error.
func (h *WorkflowHandler) DispatchDocuments(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	webhook := h.docWebhook(req.Mode)
	payload := dispatchPayload{
		JobID:         req.JobID,
		CallbackURL:   req.CallbackURL,
		PreBrief:      req.PreBrief,
		SalesSnapshot: req.SalesSnapshot,
		ProspectInfo:  prospectInfo{Company: req.Company, Name: req.Name},
	}

	h.logger.Info("dispatching documents",
		zap.String("job_id", req.JobID),
		zap.String("mode", string(req.Mode)),
		zap.String("callback_url", req.CallbackURL))

	status, _, err := h.post(ctx, webhook, payload, h.cfg.DispatchTimeout)
	if err != nil {
		if isTimeout(err) {
			h.logger.Info("dispatch timed out, engine continues asynchronously", zap.String("job_id", req.JobID))
			return &DispatchResult{TimedOut: true}, nil
		}
		return nil, eris.Wrapf(err, "dispatch failed for job %s", req.JobID)
	}
	if status < 200 || status >= 300 {
		return nil, eris.Errorf("workflow engine returned status %d for job %s", status, req.JobID)
	}

	h.logger.Info("documents dispatched", zap.String("job_id", req.JobID), zap.Int("status", status))
	return &DispatchResult{StatusCode: status}, nil
}

// SendLinks posts a completed job's links to the email webhook.
// It is a no-op when no email webhook is configured.
func (h *WorkflowHandler) SendLinks(ctx context.Context, n LinksNotification) error {
	if h.cfg.EmailWebhook == "" {
		return nil
	}
	status, _, err := h.post(ctx, h.cfg.EmailWebhook, n, h.cfg.DispatchTimeout)
	if err != nil {
		return eris.Wrapf(err, "failed to send links for job %s", n.JobID)
	}
	if status < 200 || status >= 300 {
		return eris.Errorf("email webhook returned status %d for job %s", status, n.JobID)
	}
	return nil
}

// Forward posts an arbitrary payload to the forwarding webhook for mode.
// Unlike DispatchDocuments a timeout is an error here.
func (h *WorkflowHandler) Forward(ctx context.Context, mode dto.Mode, payload any) (*ForwardResult, error) {
	webhook := h.forwardWebhook(mode)
	if webhook == "" {
		return nil, eris.Errorf("no forwarding webhook configured for %s mode", mode)
	}

	status, body, err := h.post(ctx, webhook, payload, h.cfg.ForwardTimeout)
	if err != nil {
		return nil, eris.Wrap(err, "forward request failed")
	}
	result := &ForwardResult{StatusCode: status, Body: body}
	if status < 200 || status >= 300 {
		return result, eris.Errorf("workflow engine returned status %d", status)
	}

	h.logger.Info("forwarded", zap.String("mode", string(mode)), zap.Int("status", status))
	return result, nil
}

func (h *WorkflowHandler) post(ctx context.Context, url string, payload any, timeout time.Duration) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", eris.Wrap(err, "failed to encode payload")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", eris.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxEngineResponseBytes))
	if err != nil && !isTimeout(err) {
		return resp.StatusCode, "", eris.Wrap(err, "failed to read response")
	}
	return resp.StatusCode, string(respBody), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
