package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dream100/prospect-intel-worker/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
	Auth   string
}

func newPostgrestServer(t *testing.T, respond func(r *http.Request) (int, string)) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   body,
			Auth:   r.Header.Get("Authorization"),
		})
		mu.Unlock()

		status, payload := respond(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestNewSupabaseHandler_Validation(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		key     string
		wantErr string
	}{
		{"missing url", "", "key", "supabase URL is required"},
		{"missing key", "https://test.supabase.co", "", "supabase key is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewSupabaseHandler(tt.url, tt.key, "", "")
			assert.Nil(t, h)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewSupabaseHandler_DefaultTables(t *testing.T) {
	h, err := NewSupabaseHandler("https://test.supabase.co", "key", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultArchiveTable, h.archiveTable)
	assert.Equal(t, DefaultUsageTable, h.usageTable)
}

func TestSupabaseHandler_ArchiveBatch(t *testing.T) {
	srv, requests := newPostgrestServer(t, func(*http.Request) (int, string) { return http.StatusCreated, "" })
	h, err := NewSupabaseHandler(srv.URL, "service-key", "batches", "")
	require.NoError(t, err)

	doc := "https://docs/1"
	err = h.ArchiveBatch(&BatchArchive{
		BatchID:   "abc123",
		Mode:      "test",
		Status:    "completed",
		Total:     1,
		Completed: 1,
		Results: []dto.BatchResult{
			{JobID: "abc123-0", Company: "Acme", Document1URL: &doc},
		},
		CreatedAt:   time.Now(),
		CompletedAt: time.Now(),
	})
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/rest/v1/batches", reqs[0].Path)
	assert.Contains(t, reqs[0].Query, "on_conflict=batch_id")
	assert.Equal(t, "Bearer service-key", reqs[0].Auth)

	var row map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &row))
	assert.Equal(t, "abc123", row["batch_id"])
	assert.Equal(t, "completed", row["status"])
}

func TestSupabaseHandler_ArchiveBatchRequiresID(t *testing.T) {
	h, err := NewSupabaseHandler("https://test.supabase.co", "key", "", "")
	require.NoError(t, err)
	assert.Error(t, h.ArchiveBatch(&BatchArchive{}))
	assert.Error(t, h.ArchiveBatch(nil))
}

func TestSupabaseHandler_ArchiveBatchError(t *testing.T) {
	srv, _ := newPostgrestServer(t, func(*http.Request) (int, string) {
		return http.StatusBadRequest, `{"code":"42P01","message":"relation does not exist"}`
	})
	h, err := NewSupabaseHandler(srv.URL, "key", "", "")
	require.NoError(t, err)

	err = h.ArchiveBatch(&BatchArchive{BatchID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation does not exist")
}

func TestSupabaseHandler_LookupBatch(t *testing.T) {
	srv, requests := newPostgrestServer(t, func(r *http.Request) (int, string) {
		if r.URL.Query().Get("batch_id") == "eq.known" {
			return http.StatusOK, `[{"batch_id":"known","status":"completed","total":2,"completed":2,"results":[]}]`
		}
		return http.StatusOK, `[]`
	})
	h, err := NewSupabaseHandler(srv.URL, "key", "", "")
	require.NoError(t, err)

	archive, err := h.LookupBatch("known")
	require.NoError(t, err)
	require.NotNil(t, archive)
	assert.Equal(t, "completed", archive.Status)
	assert.Equal(t, 2, archive.Total)

	missing, err := h.LookupBatch("unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Len(t, requests(), 2)
}

func TestSupabaseHandler_InsertUsageMetric(t *testing.T) {
	srv, requests := newPostgrestServer(t, func(*http.Request) (int, string) { return http.StatusCreated, "" })
	h, err := NewSupabaseHandler(srv.URL, "key", "", "")
	require.NoError(t, err)

	require.NoError(t, h.InsertUsageMetric(&dto.UsageMetricInput{
		JobID:         "abc-0",
		OperationType: dto.OperationAnalysis,
		Model:         "gpt-4o",
		TotalTokens:   10,
		Success:       true,
	}))

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/rest/v1/"+DefaultUsageTable, reqs[0].Path)
	assert.Contains(t, string(reqs[0].Body), `"operation_type":"analysis"`)
}
