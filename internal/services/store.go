package services

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"dream100/prospect-intel-worker/internal/dto"

	"github.com/rotisserie/eris"
)

// Job statuses
const (
	StatusProcessing          = "processing"
	StatusCompleted           = "completed"
	StatusFailed              = "failed"
	StatusCompletedWithErrors = "completed_with_errors"
)

// Batch member states
const (
	MemberPending    = "pending"
	MemberDispatched = "dispatched"
	MemberCompleted  = "completed"
	MemberFailed     = "failed"
)

// Batch tracks the members of a multi-prospect submission.
// It is guarded by the owning Job's mutex.
type Batch struct {
	ID        string
	Results   []dto.BatchResult
	Total     int
	Completed int
	Failed    int
	finalized bool
}

func newBatch(id string, prospects []dto.Prospect) *Batch {
	results := make([]dto.BatchResult, len(prospects))
	for i, p := range prospects {
		results[i] = dto.BatchResult{
			JobID:     MemberID(id, i),
			Company:   p.DisplayCompany(),
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Title:     p.Title,
			Email:     p.Email,
			Website:   p.Website,
			State:     MemberPending,
		}
	}
	return &Batch{ID: id, Results: results, Total: len(prospects)}
}

func (b *Batch) indexOf(jobID string) int {
	for i := range b.Results {
		if b.Results[i].JobID == jobID {
			return i
		}
	}
	return -1
}

func (b *Batch) settled() bool {
	return b.Completed+b.Failed >= b.Total
}

// Job is one submission, single or batch
type Job struct {
	mu sync.Mutex

	ID        string
	Mode      dto.Mode
	IsBatch   bool
	Recipient string
	Prospects []dto.Prospect
	CreatedAt time.Time

	status       string
	processed    int
	message      string
	err          string
	result       *dto.ProspectResult
	document1URL *string
	document2URL *string
	reportSent   bool
	updatedAt    time.Time
	batch        *Batch
	// finalized is set once the terminal side effects have been claimed
	finalized bool
}

// NewJob creates a job in the processing state, with a batch when there is more than one prospect
func NewJob(id string, mode dto.Mode, recipient string, prospects []dto.Prospect) *Job {
	now := time.Now().UTC()
	job := &Job{
		ID:        id,
		Mode:      mode,
		IsBatch:   len(prospects) > 1,
		Recipient: recipient,
		Prospects: prospects,
		CreatedAt: now,
		status:    StatusProcessing,
		message:   "Queued",
		updatedAt: now,
	}
	if job.IsBatch {
		job.batch = newBatch(id, prospects)
	}
	return job
}

// Status returns the current status string
func (j *Job) Status() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Snapshot copies the job into its wire representation
func (j *Job) Snapshot() dto.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := dto.JobStatus{
		JobID:        j.ID,
		Status:       j.status,
		Mode:         string(j.Mode),
		IsBatch:      j.IsBatch,
		Total:        len(j.Prospects),
		Processed:    j.processed,
		Message:      j.message,
		Error:        j.err,
		Document1URL: j.document1URL,
		Document2URL: j.document2URL,
		ReportSent:   j.reportSent,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.updatedAt,
	}
	if j.result != nil {
		r := *j.result
		s.Result = &r
	}
	if j.batch != nil {
		s.Completed = j.batch.Completed
		s.Failed = j.batch.Failed
		s.Results = append([]dto.BatchResult(nil), j.batch.Results...)
	}
	return s
}

func (j *Job) touch() {
	j.updatedAt = time.Now().UTC()
}

// Store owns every job for the lifetime of the process
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Add registers job, rejecting duplicate ids
func (s *Store) Add(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return eris.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

// Get looks up a job by its id
func (s *Store) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// MemberID composes the id of the index-th member of a batch
func MemberID(batchID string, index int) string {
	return batchID + "-" + strconv.Itoa(index)
}

// SplitJobID returns the batch id a job id belongs to.
// Ids without a separator are their own batch id.
func SplitJobID(jobID string) string {
	batchID, _, _ := strings.Cut(jobID, "-")
	return batchID
}
