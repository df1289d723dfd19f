package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"dream100/prospect-intel-worker/internal/dto"
	"dream100/prospect-intel-worker/internal/handlers"
	"dream100/prospect-intel-worker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordingProcessor dispatches every prospect successfully and keeps the tasks it saw
type recordingProcessor struct {
	mu    sync.Mutex
	tasks []services.ProspectTask
}

func (p *recordingProcessor) Process(_ context.Context, task services.ProspectTask) *dto.ProspectResult {
	p.mu.Lock()
	p.tasks = append(p.tasks, task)
	p.mu.Unlock()
	return &dto.ProspectResult{
		Success:    true,
		JobID:      task.JobID,
		Company:    task.Prospect.DisplayCompany(),
		Prospect:   task.Prospect.FullName(),
		Dispatched: true,
	}
}

func (p *recordingProcessor) recorded() []services.ProspectTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]services.ProspectTask(nil), p.tasks...)
}

func newTestCoordinator(t *testing.T) (*services.Coordinator, *recordingProcessor) {
	t.Helper()
	proc := &recordingProcessor{}
	coord, err := services.NewCoordinator(services.CoordinatorConfig{
		Processor: proc,
		Recipient: "owner@example.com",
		NewID:     func() string { return "batch1" },
	})
	require.NoError(t, err)
	return coord, proc
}

type fakeForwarder struct {
	mu       sync.Mutex
	modes    []dto.Mode
	payloads [][]byte
	result   *handlers.ForwardResult
	err      error
}

func (f *fakeForwarder) Forward(_ context.Context, mode dto.Mode, payload any) (*handlers.ForwardResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.modes = append(f.modes, mode)
	f.payloads = append(f.payloads, body)
	f.mu.Unlock()
	return f.result, f.err
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
