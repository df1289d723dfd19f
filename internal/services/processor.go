package services

import (
	"context"
	"errors"
	"time"

	"dream100/prospect-intel-worker/internal/dto"
	"dream100/prospect-intel-worker/internal/handlers"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const errNoWebsite = "No website URL could be determined"

// Scraper collects a website's content
type Scraper interface {
	Scrape(ctx context.Context, target string) (*handlers.ScrapeResult, error)
}

// Analyzer produces the strategic analysis of scraped content
type Analyzer interface {
	Analyze(ctx context.Context, in handlers.AnalysisInput) (string, error)
}

// DocumentWriter generates both HTML documents
type DocumentWriter interface {
	GeneratePreBrief(ctx context.Context, in handlers.DocumentInput) (string, error)
	GenerateSalesSnapshot(ctx context.Context, in handlers.DocumentInput) (string, error)
}

// Dispatcher hands generated documents to the workflow engine
type Dispatcher interface {
	DispatchDocuments(ctx context.Context, req handlers.DispatchRequest) (*handlers.DispatchResult, error)
}

// WebsiteFinder looks a company's website up by name
type WebsiteFinder interface {
	FindWebsite(ctx context.Context, companyName string) (string, error)
}

// ProspectTask is one prospect to drive through the pipeline
type ProspectTask struct {
	JobID       string
	Prospect    dto.Prospect
	CallbackURL string
	Mode        dto.Mode
}

// ProspectProcessor drives one prospect to the workflow engine.
// It never returns nil; failures are reported on the result.
type ProspectProcessor interface {
	Process(ctx context.Context, task ProspectTask) *dto.ProspectResult
}

// PipelineConfig wires the pipeline stages. Finder is optional.
type PipelineConfig struct {
	Scraper    Scraper
	Analyzer   Analyzer
	Documents  DocumentWriter
	Dispatcher Dispatcher
	Finder     WebsiteFinder
}

// Pipeline runs scrape, analyze, generate and dispatch for a prospect
type Pipeline struct {
	scraper    Scraper
	analyzer   Analyzer
	documents  DocumentWriter
	dispatcher Dispatcher
	finder     WebsiteFinder
	logger     *zap.Logger
}

// NewPipeline creates a new Pipeline
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Scraper == nil || cfg.Analyzer == nil || cfg.Documents == nil || cfg.Dispatcher == nil {
		return nil, eris.New("scraper, analyzer, documents and dispatcher are required")
	}
	return &Pipeline{
		scraper:    cfg.Scraper,
		analyzer:   cfg.Analyzer,
		documents:  cfg.Documents,
		dispatcher: cfg.Dispatcher,
		finder:     cfg.Finder,
		logger:     zap.L().Named("ProspectProcessor"),
	}, nil
}

// Process runs every stage in order; the first failing stage ends the prospect
func (p *Pipeline) Process(ctx context.Context, task ProspectTask) *dto.ProspectResult {
	prospect := task.Prospect
	result := &dto.ProspectResult{
		JobID:    task.JobID,
		Company:  prospect.DisplayCompany(),
		Prospect: prospect.FullName(),
	}
	logger := p.logger.With(zap.String("job_id", task.JobID), zap.String("company", result.Company))
	start := time.Now()

	fail := func(err error) *dto.ProspectResult {
		result.Error = err.Error()
		logger.Warn("prospect failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return result
	}

	// 1. Website
	website, source, err := p.resolveWebsite(ctx, prospect)
	if err != nil {
		return fail(err)
	}
	result.Website = website
	logger.Info("processing", zap.String("website", website), zap.String("source", source))

	// 2. Scrape
	scraped, err := p.scraper.Scrape(ctx, website)
	if err != nil {
		return fail(eris.Wrap(err, "website scraping failed"))
	}

	// 3. Analyze
	analysis, err := p.analyzer.Analyze(ctx, handlers.AnalysisInput{
		JobID:          task.JobID,
		URL:            website,
		CompanyName:    result.Company,
		WebsiteContent: scraped.Content,
	})
	if err != nil {
		return fail(eris.Wrap(err, "analysis failed"))
	}

	// 4. Documents, both always attempted
	docInput := handlers.DocumentInput{
		JobID:          task.JobID,
		URL:            website,
		FirstName:      prospect.FirstName,
		LastName:       prospect.LastName,
		WebsiteContent: scraped.Content,
		Analysis:       analysis,
	}
	preBrief, salesSnapshot, err := p.generateDocuments(ctx, docInput)
	if err != nil {
		return fail(eris.Wrap(err, "document generation failed"))
	}

	// 5. Dispatch
	dispatched, err := p.dispatcher.DispatchDocuments(ctx, handlers.DispatchRequest{
		JobID:         task.JobID,
		CallbackURL:   task.CallbackURL,
		PreBrief:      preBrief,
		SalesSnapshot: salesSnapshot,
		Company:       result.Company,
		Name:          result.Prospect,
		Mode:          task.Mode,
	})
	if err != nil {
		return fail(eris.Wrap(err, "document dispatch failed"))
	}

	result.Success = true
	result.Dispatched = true
	result.DispatchTimedOut = dispatched.TimedOut
	logger.Info("dispatched, awaiting callback", zap.Duration("elapsed", time.Since(start)))
	return result
}

func (p *Pipeline) resolveWebsite(ctx context.Context, prospect dto.Prospect) (string, string, error) {
	if website, source, ok := ResolveWebsite(prospect); ok {
		return website, source, nil
	}
	if p.finder != nil && prospect.CompanyName != "" {
		website, err := p.finder.FindWebsite(ctx, prospect.CompanyName)
		if err == nil {
			return website, SourceSearch, nil
		}
		p.logger.Info("website lookup failed", zap.String("company", prospect.CompanyName), zap.Error(err))
	}
	return "", "", eris.New(errNoWebsite)
}

func (p *Pipeline) generateDocuments(ctx context.Context, in handlers.DocumentInput) (string, string, error) {
	var preBrief, salesSnapshot string
	var preBriefErr, snapshotErr error

	// Plain errgroup: one failing document must not cancel the other
	var g errgroup.Group
	g.Go(func() error {
		preBrief, preBriefErr = p.documents.GeneratePreBrief(ctx, in)
		return nil
	})
	g.Go(func() error {
		salesSnapshot, snapshotErr = p.documents.GenerateSalesSnapshot(ctx, in)
		return nil
	})
	_ = g.Wait()

	if err := errors.Join(preBriefErr, snapshotErr); err != nil {
		return "", "", err
	}
	return preBrief, salesSnapshot, nil
}
