package services

import (
	"context"
	"encoding/csv"
	"strings"
	"sync"
	"testing"

	"dream100/prospect-intel-worker/internal/dto"
	"dream100/prospect-intel-worker/internal/handlers"

	"github.com/stretchr/testify/require"
)

// fakeProcessor succeeds for every prospect unless fail says otherwise
type fakeProcessor struct {
	mu    sync.Mutex
	tasks []ProspectTask
	fail  func(p dto.Prospect) string
	panic bool
}

func (f *fakeProcessor) Process(_ context.Context, task ProspectTask) *dto.ProspectResult {
	f.mu.Lock()
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()

	if f.panic {
		panic("scraper exploded")
	}

	result := &dto.ProspectResult{
		JobID:    task.JobID,
		Company:  task.Prospect.DisplayCompany(),
		Prospect: task.Prospect.FullName(),
		Website:  "https://" + strings.ToLower(task.Prospect.CompanyName) + ".com",
	}
	if f.fail != nil {
		if msg := f.fail(task.Prospect); msg != "" {
			result.Error = msg
			return result
		}
	}
	result.Success = true
	result.Dispatched = true
	return result
}

func (f *fakeProcessor) recorded() []ProspectTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ProspectTask(nil), f.tasks...)
}

type fakeMailer struct {
	mu      sync.Mutex
	reports []handlers.BatchReport
	err     error
}

func (f *fakeMailer) SendBatchReport(_ context.Context, report handlers.BatchReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return f.err
}

func (f *fakeMailer) sent() []handlers.BatchReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]handlers.BatchReport(nil), f.reports...)
}

type fakeLinks struct {
	mu   sync.Mutex
	sent []handlers.LinksNotification
	err  error
}

func (f *fakeLinks) SendLinks(_ context.Context, n handlers.LinksNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

type fakeArchiver struct {
	mu       sync.Mutex
	archives []handlers.BatchArchive
	stored   map[string]*handlers.BatchArchive
}

func (f *fakeArchiver) ArchiveBatch(a *handlers.BatchArchive) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archives = append(f.archives, *a)
	return nil
}

func (f *fakeArchiver) LookupBatch(batchID string) (*handlers.BatchArchive, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[batchID], nil
}

func sequentialIDs(ids ...string) func() string {
	var mu sync.Mutex
	next := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[next%len(ids)]
		next++
		return id
	}
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return records
}

func prospects(companies ...string) []dto.Prospect {
	out := make([]dto.Prospect, len(companies))
	for i, c := range companies {
		out[i] = dto.Prospect{
			CompanyName: c,
			FirstName:   "First" + c,
			LastName:    "Last" + c,
			Title:       "Owner",
			Email:       "owner@" + strings.ToLower(c) + ".com",
		}
	}
	return out
}
