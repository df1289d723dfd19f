package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"dream100/prospect-intel-worker/internal/dto"
	"dream100/prospect-intel-worker/internal/handlers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScraper struct {
	targets []string
	err     error
}

func (s *stubScraper) Scrape(_ context.Context, target string) (*handlers.ScrapeResult, error) {
	s.targets = append(s.targets, target)
	if s.err != nil {
		return nil, s.err
	}
	return &handlers.ScrapeResult{URL: target, Provider: "stub", Content: "content of " + target}, nil
}

type stubAnalyzer struct {
	in  handlers.AnalysisInput
	err error
}

func (s *stubAnalyzer) Analyze(_ context.Context, in handlers.AnalysisInput) (string, error) {
	s.in = in
	return "analysis", s.err
}

type stubDocuments struct {
	mu          sync.Mutex
	calls       []string
	preErr      error
	snapshotErr error
}

func (s *stubDocuments) GeneratePreBrief(_ context.Context, in handlers.DocumentInput) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, "pre_brief:"+in.Analysis)
	s.mu.Unlock()
	return "<h1>brief</h1>", s.preErr
}

func (s *stubDocuments) GenerateSalesSnapshot(_ context.Context, in handlers.DocumentInput) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, "sales_snapshot:"+in.Analysis)
	s.mu.Unlock()
	return "<h1>snapshot</h1>", s.snapshotErr
}

type stubDispatcher struct {
	reqs     []handlers.DispatchRequest
	timedOut bool
	err      error
}

func (s *stubDispatcher) DispatchDocuments(_ context.Context, req handlers.DispatchRequest) (*handlers.DispatchResult, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return &handlers.DispatchResult{TimedOut: s.timedOut}, nil
}

type stubFinder struct {
	website string
	err     error
}

func (s *stubFinder) FindWebsite(context.Context, string) (string, error) {
	return s.website, s.err
}

type pipelineFixture struct {
	scraper    *stubScraper
	analyzer   *stubAnalyzer
	documents  *stubDocuments
	dispatcher *stubDispatcher
	pipeline   *Pipeline
}

func newPipelineFixture(t *testing.T, finder WebsiteFinder) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		scraper:    &stubScraper{},
		analyzer:   &stubAnalyzer{},
		documents:  &stubDocuments{},
		dispatcher: &stubDispatcher{},
	}
	p, err := NewPipeline(PipelineConfig{
		Scraper:    f.scraper,
		Analyzer:   f.analyzer,
		Documents:  f.documents,
		Dispatcher: f.dispatcher,
		Finder:     finder,
	})
	require.NoError(t, err)
	f.pipeline = p
	return f
}

func TestNewPipeline_RequiresStages(t *testing.T) {
	_, err := NewPipeline(PipelineConfig{})
	assert.Error(t, err)
}

func TestPipeline_Success(t *testing.T) {
	f := newPipelineFixture(t, nil)

	result := f.pipeline.Process(context.Background(), ProspectTask{
		JobID:       "batch-0",
		Prospect:    dto.Prospect{CompanyName: "Acme", FirstName: "Jane", LastName: "Doe", Website: "acme.com"},
		CallbackURL: "https://worker/api/callback",
		Mode:        dto.ModeTest,
	})

	require.True(t, result.Success, result.Error)
	assert.True(t, result.Dispatched)
	assert.Equal(t, "acme.com", result.Website)
	assert.Equal(t, "Jane Doe", result.Prospect)

	assert.Equal(t, []string{"acme.com"}, f.scraper.targets)
	assert.Equal(t, "content of acme.com", f.analyzer.in.WebsiteContent)
	assert.Equal(t, "Acme", f.analyzer.in.CompanyName)
	assert.ElementsMatch(t, []string{"pre_brief:analysis", "sales_snapshot:analysis"}, f.documents.calls)

	require.Len(t, f.dispatcher.reqs, 1)
	req := f.dispatcher.reqs[0]
	assert.Equal(t, "batch-0", req.JobID)
	assert.Equal(t, "https://worker/api/callback", req.CallbackURL)
	assert.Equal(t, "<h1>brief</h1>", req.PreBrief)
	assert.Equal(t, "<h1>snapshot</h1>", req.SalesSnapshot)
	assert.Equal(t, dto.ModeTest, req.Mode)
}

func TestPipeline_DispatchTimeoutIsSuccess(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.dispatcher.timedOut = true

	result := f.pipeline.Process(context.Background(), ProspectTask{JobID: "j", Prospect: dto.Prospect{Website: "acme.com"}})
	assert.True(t, result.Success)
	assert.True(t, result.DispatchTimedOut)
}

func TestPipeline_NoWebsite(t *testing.T) {
	f := newPipelineFixture(t, nil)

	result := f.pipeline.Process(context.Background(), ProspectTask{
		JobID:    "j",
		Prospect: dto.Prospect{CompanyName: "Acme", Email: "jane@gmail.com"},
	})
	assert.False(t, result.Success)
	assert.Equal(t, "No website URL could be determined", result.Error)
	assert.Empty(t, f.scraper.targets)
}

func TestPipeline_SearchFallback(t *testing.T) {
	f := newPipelineFixture(t, &stubFinder{website: "https://acme.example"})

	result := f.pipeline.Process(context.Background(), ProspectTask{JobID: "j", Prospect: dto.Prospect{CompanyName: "Acme"}})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "https://acme.example", result.Website)

	failing := newPipelineFixture(t, &stubFinder{err: errors.New("no results")})
	result = failing.pipeline.Process(context.Background(), ProspectTask{JobID: "j", Prospect: dto.Prospect{CompanyName: "Acme"}})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "No website URL could be determined")
}

func TestPipeline_StageFailures(t *testing.T) {
	t.Run("scrape", func(t *testing.T) {
		f := newPipelineFixture(t, nil)
		f.scraper.err = errors.New("actor run failed")
		result := f.pipeline.Process(context.Background(), ProspectTask{JobID: "j", Prospect: dto.Prospect{Website: "acme.com"}})
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "actor run failed")
		assert.Empty(t, f.dispatcher.reqs)
	})

	t.Run("analysis", func(t *testing.T) {
		f := newPipelineFixture(t, nil)
		f.analyzer.err = errors.New("manus unavailable")
		result := f.pipeline.Process(context.Background(), ProspectTask{JobID: "j", Prospect: dto.Prospect{Website: "acme.com"}})
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "manus unavailable")
		assert.Empty(t, f.documents.calls)
	})

	t.Run("one document still attempts the other", func(t *testing.T) {
		f := newPipelineFixture(t, nil)
		f.documents.preErr = errors.New("pre-brief refused")
		result := f.pipeline.Process(context.Background(), ProspectTask{JobID: "j", Prospect: dto.Prospect{Website: "acme.com"}})
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "pre-brief refused")
		assert.Len(t, f.documents.calls, 2)
		assert.Empty(t, f.dispatcher.reqs)
	})

	t.Run("dispatch", func(t *testing.T) {
		f := newPipelineFixture(t, nil)
		f.dispatcher.err = errors.New("status 500")
		result := f.pipeline.Process(context.Background(), ProspectTask{JobID: "j", Prospect: dto.Prospect{Website: "acme.com"}})
		assert.False(t, result.Success)
		assert.False(t, result.Dispatched)
		assert.Contains(t, result.Error, "status 500")
	})
}

func TestResolveWebsite(t *testing.T) {
	tests := []struct {
		name       string
		prospect   dto.Prospect
		wantURL    string
		wantSource string
		wantOK     bool
	}{
		{
			name:       "explicit website wins over email",
			prospect:   dto.Prospect{Website: "acme.com", Email: "jane@other.com"},
			wantURL:    "acme.com",
			wantSource: SourceWebsite,
			wantOK:     true,
		},
		{
			name:       "company email domain",
			prospect:   dto.Prospect{Email: "jane@AcmeRoofing.com"},
			wantURL:    "acmeroofing.com",
			wantSource: SourceEmail,
			wantOK:     true,
		},
		{
			name:       "public provider falls through to profile url",
			prospect:   dto.Prospect{Email: "jane@gmail.com", LinkedInURL: "https://linkedin.com/in/jane"},
			wantURL:    "https://linkedin.com/in/jane",
			wantSource: SourceLinkedIn,
			wantOK:     true,
		},
		{
			name:     "public provider and nothing else",
			prospect: dto.Prospect{Email: "jane@icloud.com"},
		},
		{
			name:     "malformed email",
			prospect: dto.Prospect{Email: "not-an-email"},
		},
		{
			name: "empty record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, source, ok := ResolveWebsite(tt.prospect)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantURL, url)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestBuildReportCSV(t *testing.T) {
	doc1 := "https://docs/1"
	data, err := BuildReportCSV([]dto.BatchResult{
		{Company: "A", FirstName: "Ann", LastName: "Lee", Title: "CEO", Email: "ann@a.com", Website: "a.com", Document1URL: &doc1},
		{Company: "B"},
	})
	require.NoError(t, err)

	rows := parseCSV(t, data)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Company", "First Name", "Last Name", "Title", "Email", "Website", "Document 1", "Document 2"}, rows[0])
	assert.Equal(t, []string{"A", "Ann", "Lee", "CEO", "ann@a.com", "a.com", "https://docs/1", "N/A"}, rows[1])
	assert.Equal(t, []string{"B", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A"}, rows[2])
}
