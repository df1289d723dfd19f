package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"dream100/prospect-intel-worker/internal/dto"
	"dream100/prospect-intel-worker/internal/handlers"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Callback outcomes
const (
	CallbackAccepted  = "accepted"
	CallbackDuplicate = "duplicate"
	CallbackIgnored   = "ignored"
)

// Mailer delivers batch reports
type Mailer interface {
	SendBatchReport(ctx context.Context, report handlers.BatchReport) error
}

// LinkNotifier forwards a single job's document links
type LinkNotifier interface {
	SendLinks(ctx context.Context, n handlers.LinksNotification) error
}

// Archiver persists finalized batches beyond the process lifetime
type Archiver interface {
	ArchiveBatch(archive *handlers.BatchArchive) error
	LookupBatch(batchID string) (*handlers.BatchArchive, error)
}

// CoordinatorConfig wires a Coordinator. Links and Archiver are optional.
type CoordinatorConfig struct {
	Store     *Store
	Processor ProspectProcessor
	Mailer    Mailer
	Links     LinkNotifier
	Archiver  Archiver
	// Recipient receives batch reports unless a submission overrides it
	Recipient string
	// NewID generates batch ids; they must not contain "-"
	NewID func() string
}

// Submission is a parsed request to process one or more prospects
type Submission struct {
	Prospects   []dto.Prospect
	Mode        dto.Mode
	Recipient   string
	CallbackURL string
}

// Coordinator tracks submissions, correlates workflow callbacks to batch
// members and fires the batch report exactly once per batch.
type Coordinator struct {
	store     *Store
	processor ProspectProcessor
	mailer    Mailer
	links     LinkNotifier
	archiver  Archiver
	recipient string
	newID     func() string
	wg        sync.WaitGroup
	logger    *zap.Logger
}

// batchOutcome is a settled batch copied out of the lock
type batchOutcome struct {
	results   []dto.BatchResult
	total     int
	completed int
	failed    int
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Processor == nil {
		return nil, eris.New("prospect processor is required")
	}
	if cfg.Store == nil {
		cfg.Store = NewStore()
	}
	if cfg.NewID == nil {
		cfg.NewID = newBatchID
	}
	return &Coordinator{
		store:     cfg.Store,
		processor: cfg.Processor,
		mailer:    cfg.Mailer,
		links:     cfg.Links,
		archiver:  cfg.Archiver,
		recipient: cfg.Recipient,
		newID:     cfg.NewID,
		logger:    zap.L().Named("Coordinator"),
	}, nil
}

func newBatchID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ParseSubmission accepts either a single prospect object or {"items": [...]}
func ParseSubmission(body []byte) (*Submission, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, eris.Wrap(ErrValidation, "No data provided")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, eris.Wrap(ErrValidation, "request body must be a JSON object")
	}
	if len(fields) == 0 {
		return nil, eris.Wrap(ErrValidation, "No data provided")
	}

	// Mode stays empty unless the body names one, so a caller-supplied mode can apply
	sub := &Submission{}

	if _, ok := fields["items"]; !ok {
		var p dto.Prospect
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, eris.Wrap(ErrValidation, "invalid prospect record")
		}
		sub.Prospects = []dto.Prospect{p}
		return sub, nil
	}

	var env dto.SubmitEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(ErrValidation, "items must be a list of prospect records")
	}
	if len(env.Items) == 0 {
		return nil, eris.Wrap(ErrValidation, "No items provided")
	}

	sub.Prospects = make([]dto.Prospect, 0, len(env.Items))
	for i, raw := range env.Items {
		var p dto.Prospect
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, eris.Wrapf(ErrValidation, "item %d is not a prospect record", i)
		}
		sub.Prospects = append(sub.Prospects, p)
	}

	if env.Mode != "" {
		mode, ok := dto.ParseMode(env.Mode)
		if !ok {
			return nil, eris.Wrapf(ErrValidation, "invalid mode %q", env.Mode)
		}
		sub.Mode = mode
	}
	sub.Recipient = strings.TrimSpace(env.Recipient)
	return sub, nil
}

// Submit registers the job before returning and processes it in the background
func (c *Coordinator) Submit(ctx context.Context, sub *Submission) (*Job, error) {
	if sub == nil || len(sub.Prospects) == 0 {
		return nil, eris.Wrap(ErrValidation, "No items provided")
	}
	if sub.Mode == "" {
		sub.Mode = dto.ModeProd
	}
	recipient := sub.Recipient
	if recipient == "" {
		recipient = c.recipient
	}

	job := NewJob(c.newID(), sub.Mode, recipient, sub.Prospects)
	if err := c.store.Add(job); err != nil {
		return nil, err
	}

	c.logger.Info("submission accepted",
		zap.String("job_id", job.ID),
		zap.Bool("is_batch", job.IsBatch),
		zap.Int("total", len(sub.Prospects)),
		zap.String("mode", string(sub.Mode)))

	c.wg.Add(1)
	go c.run(context.WithoutCancel(ctx), job, sub.CallbackURL)

	return job, nil
}

// run processes every prospect of job sequentially
func (c *Coordinator) run(ctx context.Context, job *Job, callbackURL string) {
	defer c.wg.Done()
	defer c.recoverInto(job)

	for i, prospect := range job.Prospects {
		taskID := job.ID
		if job.IsBatch {
			taskID = MemberID(job.ID, i)
		}
		c.markProgress(job, i, prospect)

		result := c.processor.Process(ctx, ProspectTask{
			JobID:       taskID,
			Prospect:    prospect,
			CallbackURL: callbackURL,
			Mode:        job.Mode,
		})

		if job.IsBatch {
			c.recordMember(ctx, job, i, result)
		} else {
			c.recordSingle(job, result)
		}
	}

	job.mu.Lock()
	if job.status == StatusProcessing && !job.finalized && job.IsBatch {
		job.message = fmt.Sprintf("All %d prospects processed, awaiting callbacks", len(job.Prospects))
		job.touch()
	}
	job.mu.Unlock()
}

func (c *Coordinator) markProgress(job *Job, index int, p dto.Prospect) {
	job.mu.Lock()
	defer job.mu.Unlock()
	job.processed = index
	if !job.finalized {
		job.message = fmt.Sprintf("Processing %d/%d: %s", index+1, len(job.Prospects), p.DisplayCompany())
	}
	job.touch()
}

func (c *Coordinator) recordSingle(job *Job, result *dto.ProspectResult) {
	job.mu.Lock()
	defer job.mu.Unlock()

	job.processed = 1
	job.result = result
	job.touch()
	if job.finalized {
		return
	}
	if !result.Success {
		job.status = StatusFailed
		job.err = result.Error
		job.message = "Processing failed"
		job.finalized = true
		return
	}
	job.message = "Documents dispatched, awaiting callback"
}

// recordMember stores a member's processing outcome. A failure settles the member.
func (c *Coordinator) recordMember(ctx context.Context, job *Job, index int, result *dto.ProspectResult) {
	job.mu.Lock()
	b := job.batch
	slot := &b.Results[index]
	job.processed = index + 1
	if result.Website != "" {
		slot.Website = result.Website
	}
	if slot.State == MemberPending {
		if result.Success {
			slot.State = MemberDispatched
		} else {
			slot.State = MemberFailed
			slot.Error = result.Error
			b.Failed++
		}
	}
	job.touch()
	outcome := c.claimFinalization(job)
	job.mu.Unlock()

	if outcome != nil {
		c.finalizeBatch(ctx, job, outcome)
	}
}

// claimFinalization marks a settled batch finalized and copies it out.
// It returns nil when the batch is unsettled or already claimed. The job lock must be held.
func (c *Coordinator) claimFinalization(job *Job) *batchOutcome {
	b := job.batch
	if b.finalized || !b.settled() {
		return nil
	}
	b.finalized = true
	job.finalized = true
	job.message = "Building report"
	return &batchOutcome{
		results:   append([]dto.BatchResult(nil), b.Results...),
		total:     b.Total,
		completed: b.Completed,
		failed:    b.Failed,
	}
}

// finalizeBatch emails the report and records the terminal status
func (c *Coordinator) finalizeBatch(ctx context.Context, job *Job, outcome *batchOutcome) {
	logger := c.logger.With(zap.String("batch_id", job.ID))
	status := StatusCompleted
	message := fmt.Sprintf("Batch complete: %d/%d documents received", outcome.completed, outcome.total)
	var errMsg string
	reportSent := false

	if outcome.completed == 0 {
		status = StatusFailed
		message = "All prospects failed"
		errMsg = "no prospect reached the workflow engine"
		logger.Warn("batch failed, no report sent", zap.Int("failed", outcome.failed))
	} else if err := c.sendReport(ctx, job, outcome); err != nil {
		status = StatusCompletedWithErrors
		errMsg = err.Error()
		logger.Error("report delivery failed", zap.Error(err))
	} else {
		reportSent = true
		if outcome.failed > 0 {
			status = StatusCompletedWithErrors
			errMsg = fmt.Sprintf("%d of %d prospects failed", outcome.failed, outcome.total)
		}
	}

	job.mu.Lock()
	job.status = status
	job.message = message
	job.err = errMsg
	job.reportSent = reportSent
	job.touch()
	job.mu.Unlock()

	logger.Info("batch finalized",
		zap.String("status", status),
		zap.Int("completed", outcome.completed),
		zap.Int("failed", outcome.failed),
		zap.Bool("report_sent", reportSent))

	c.archive(job, outcome)
}

func (c *Coordinator) sendReport(ctx context.Context, job *Job, outcome *batchOutcome) error {
	if c.mailer == nil {
		return eris.Wrap(ErrDelivery, "no mailer configured")
	}
	if job.Recipient == "" {
		return eris.Wrap(ErrDelivery, "no report recipient configured")
	}

	csv, err := BuildReportCSV(outcome.results)
	if err != nil {
		return eris.Wrap(ErrDelivery, err.Error())
	}

	err = c.mailer.SendBatchReport(ctx, handlers.BatchReport{
		BatchID:   job.ID,
		Recipient: job.Recipient,
		CSV:       csv,
		Rows:      len(outcome.results),
		Failed:    outcome.failed,
	})
	if err != nil {
		return eris.Wrap(ErrDelivery, err.Error())
	}
	return nil
}

func (c *Coordinator) archive(job *Job, outcome *batchOutcome) {
	if c.archiver == nil {
		return
	}
	s := job.Snapshot()
	err := c.archiver.ArchiveBatch(&handlers.BatchArchive{
		BatchID:     job.ID,
		Mode:        string(job.Mode),
		Status:      s.Status,
		Recipient:   job.Recipient,
		Total:       outcome.total,
		Completed:   outcome.completed,
		Failed:      outcome.failed,
		ReportSent:  s.ReportSent,
		Error:       s.Error,
		Results:     outcome.results,
		CreatedAt:   job.CreatedAt,
		CompletedAt: s.UpdatedAt,
	})
	if err != nil {
		c.logger.Warn("failed to archive batch", zap.String("batch_id", job.ID), zap.Error(err))
	}
}

// HandleCallback correlates a workflow callback with its job. The first callback
// for a member wins; replays are acknowledged as duplicates and change nothing.
func (c *Coordinator) HandleCallback(ctx context.Context, req dto.CallbackRequest) (string, error) {
	jobID := strings.TrimSpace(req.JobID)
	if jobID == "" {
		return "", eris.Wrap(ErrValidation, "job_id is required")
	}

	job, ok := c.store.Get(SplitJobID(jobID))
	if !ok {
		c.logger.Warn("callback for unknown job", zap.String("job_id", jobID))
		return "", eris.Wrapf(ErrUnknownJob, "unknown job id %s", jobID)
	}

	doc1, doc2 := linkPtr(req.Document1URL), linkPtr(req.Document2URL)
	if job.IsBatch {
		return c.handleBatchCallback(ctx, job, jobID, doc1, doc2), nil
	}
	return c.handleSingleCallback(ctx, job, jobID, doc1, doc2), nil
}

func (c *Coordinator) handleBatchCallback(ctx context.Context, job *Job, jobID string, doc1, doc2 *string) string {
	logger := c.logger.With(zap.String("job_id", jobID))

	job.mu.Lock()
	b := job.batch
	if b.finalized {
		job.mu.Unlock()
		logger.Info("callback after batch finalized")
		return CallbackDuplicate
	}
	idx := b.indexOf(jobID)
	if idx < 0 {
		job.mu.Unlock()
		logger.Warn("callback matches no batch member")
		return CallbackIgnored
	}
	slot := &b.Results[idx]
	switch slot.State {
	case MemberCompleted:
		job.mu.Unlock()
		logger.Info("duplicate callback")
		return CallbackDuplicate
	case MemberFailed:
		job.mu.Unlock()
		logger.Warn("callback for a failed member")
		return CallbackIgnored
	}

	slot.Document1URL = doc1
	slot.Document2URL = doc2
	slot.State = MemberCompleted
	b.Completed++
	job.message = fmt.Sprintf("%d/%d documents received", b.Completed, b.Total)
	job.touch()
	completed, total := b.Completed, b.Total
	outcome := c.claimFinalization(job)
	job.mu.Unlock()

	logger.Info("callback accepted", zap.Int("completed", completed), zap.Int("total", total))

	if outcome != nil {
		c.background(job, func() {
			c.finalizeBatch(context.WithoutCancel(ctx), job, outcome)
		})
	}
	return CallbackAccepted
}

func (c *Coordinator) handleSingleCallback(ctx context.Context, job *Job, jobID string, doc1, doc2 *string) string {
	logger := c.logger.With(zap.String("job_id", jobID))
	if jobID != job.ID {
		logger.Warn("callback id does not match single job", zap.String("expected", job.ID))
		return CallbackIgnored
	}

	job.mu.Lock()
	if job.finalized {
		job.mu.Unlock()
		logger.Info("duplicate callback")
		return CallbackDuplicate
	}
	job.document1URL = doc1
	job.document2URL = doc2
	job.finalized = true
	job.message = "Documents received"
	job.touch()
	var p dto.Prospect
	if len(job.Prospects) > 0 {
		p = job.Prospects[0]
	}
	job.mu.Unlock()

	logger.Info("callback accepted")

	c.background(job, func() {
		var errMsg string
		if c.links != nil {
			err := c.links.SendLinks(context.WithoutCancel(ctx), handlers.LinksNotification{
				JobID:        job.ID,
				Recipient:    p.Email,
				Company:      p.DisplayCompany(),
				Name:         p.FullName(),
				Document1URL: doc1,
				Document2URL: doc2,
			})
			if err != nil {
				logger.Warn("failed to send document links", zap.Error(err))
				errMsg = "link email failed: " + err.Error()
			}
		}

		job.mu.Lock()
		job.status = StatusCompleted
		job.message = "Completed"
		job.err = errMsg
		job.touch()
		job.mu.Unlock()
	})
	return CallbackAccepted
}

// Status returns the current snapshot of a job, falling back to the batch archive
func (c *Coordinator) Status(id string) (dto.JobStatus, error) {
	if job, ok := c.store.Get(id); ok {
		return job.Snapshot(), nil
	}
	if c.archiver != nil {
		archive, err := c.archiver.LookupBatch(id)
		if err != nil {
			c.logger.Warn("archive lookup failed", zap.String("job_id", id), zap.Error(err))
		} else if archive != nil {
			return archivedStatus(archive), nil
		}
	}
	return dto.JobStatus{}, eris.Wrapf(ErrNotFound, "job %s not found", id)
}

func archivedStatus(a *handlers.BatchArchive) dto.JobStatus {
	return dto.JobStatus{
		JobID:      a.BatchID,
		Status:     a.Status,
		Mode:       a.Mode,
		IsBatch:    true,
		Total:      a.Total,
		Processed:  a.Total,
		Completed:  a.Completed,
		Failed:     a.Failed,
		Message:    "Archived",
		Error:      a.Error,
		Results:    a.Results,
		ReportSent: a.ReportSent,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.CompletedAt,
	}
}

// Wait blocks until all background work has finished
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// WaitTimeout waits for background work up to timeout and reports whether it finished
func (c *Coordinator) WaitTimeout(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (c *Coordinator) background(job *Job, fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.recoverInto(job)
		fn()
	}()
}

// recoverInto records a panic from background work on the job
func (c *Coordinator) recoverInto(job *Job) {
	r := recover()
	if r == nil {
		return
	}
	c.logger.Error("background task panicked", zap.String("job_id", job.ID), zap.Any("panic", r))

	job.mu.Lock()
	defer job.mu.Unlock()
	if job.status == StatusProcessing {
		job.status = StatusFailed
		job.err = fmt.Sprintf("internal error: %v", r)
		job.message = "Processing failed"
		job.finalized = true
		job.touch()
	}
}

func linkPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
