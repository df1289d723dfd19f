package handlers

import (
	"encoding/json"
	"time"

	"dream100/prospect-intel-worker/internal/dto"

	"github.com/rotisserie/eris"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

const (
	DefaultArchiveTable = "prospect_batches"
	DefaultUsageTable   = "ai_usage_metrics"
)

// SupabaseHandler archives finished batches and records AI usage rows
type SupabaseHandler struct {
	client       *supabase.Client
	archiveTable string
	usageTable   string
	logger       *zap.Logger
}

// BatchArchive is the row written once a batch is finalized
type BatchArchive struct {
	BatchID     string            `json:"batch_id"`
	Mode        string            `json:"mode"`
	Status      string            `json:"status"`
	Recipient   string            `json:"recipient,omitempty"`
	Total       int               `json:"total"`
	Completed   int               `json:"completed"`
	Failed      int               `json:"failed"`
	ReportSent  bool              `json:"report_sent"`
	Error       string            `json:"error,omitempty"`
	Results     []dto.BatchResult `json:"results"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt time.Time         `json:"completed_at"`
}

// NewSupabaseHandler creates a new SupabaseHandler instance.
// Empty table names fall back to the defaults.
func NewSupabaseHandler(url, key, archiveTable, usageTable string) (*SupabaseHandler, error) {
	if url == "" {
		return nil, eris.New("supabase URL is required")
	}
	if key == "" {
		return nil, eris.New("supabase key is required")
	}
	if archiveTable == "" {
		archiveTable = DefaultArchiveTable
	}
	if usageTable == "" {
		usageTable = DefaultUsageTable
	}

	logger := zap.L().Named("SupabaseHandler")
	logger.Info("initializing", zap.String("url", url))

	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "failed to create supabase client")
	}

	return &SupabaseHandler{
		client:       client,
		archiveTable: archiveTable,
		usageTable:   usageTable,
		logger:       logger,
	}, nil
}

// ArchiveBatch upserts the batch row keyed by batch_id
func (h *SupabaseHandler) ArchiveBatch(archive *BatchArchive) error {
	if archive == nil || archive.BatchID == "" {
		return eris.New("batch id is required")
	}

	_, _, err := h.client.From(h.archiveTable).Upsert(archive, "batch_id", "minimal", "").Execute()
	if err != nil {
		return eris.Wrapf(err, "failed to archive batch %s", archive.BatchID)
	}

	h.logger.Info("batch archived",
		zap.String("batch_id", archive.BatchID),
		zap.String("status", archive.Status),
		zap.Int("rows", len(archive.Results)))
	return nil
}

// LookupBatch returns the archived row for batchID, or nil when none exists
func (h *SupabaseHandler) LookupBatch(batchID string) (*BatchArchive, error) {
	data, _, err := h.client.From(h.archiveTable).Select("*", "", false).Eq("batch_id", batchID).Execute()
	if err != nil {
		return nil, eris.Wrapf(err, "failed to look up batch %s", batchID)
	}

	var rows []BatchArchive
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrap(err, "failed to parse batch archive")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// InsertUsageMetric stores one AI usage row
func (h *SupabaseHandler) InsertUsageMetric(metric *dto.UsageMetricInput) error {
	_, _, err := h.client.From(h.usageTable).Insert(metric, false, "", "minimal", "").Execute()
	if err != nil {
		return eris.Wrap(err, "failed to insert usage metric")
	}
	return nil
}
