package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dream100/prospect-intel-worker/internal/api"
	"dream100/prospect-intel-worker/internal/api/middleware"
	"dream100/prospect-intel-worker/internal/config"
	"dream100/prospect-intel-worker/internal/handlers"
	"dream100/prospect-intel-worker/internal/model/openaicompat"
	"dream100/prospect-intel-worker/internal/model/provider"
	"dream100/prospect-intel-worker/internal/services"

	_ "dream100/prospect-intel-worker/docs" // Swagger docs

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// @title Prospect Intelligence Worker API
// @version 1.0
// @description Scrapes prospect websites, generates AI sales documents, hands them to the n8n workflow engine and emails a CSV report once every batch member has called back.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /api

// @schemes http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to load configuration", zap.Error(err))
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to initialize logger", zap.Error(err))
	}
	logger := zap.L()
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Supabase is optional: it backs usage metrics and the batch archive
	var supabaseHandler *handlers.SupabaseHandler
	if cfg.Supabase.URL != "" && cfg.Supabase.Key != "" {
		var err error
		supabaseHandler, err = handlers.NewSupabaseHandler(cfg.Supabase.URL, cfg.Supabase.Key,
			cfg.Supabase.ArchiveTable, cfg.Supabase.UsageTable)
		if err != nil {
			logger.Warn("continuing without Supabase", zap.Error(err))
		} else {
			logger.Info("SupabaseHandler initialized - usage metrics and batch archive enabled")
		}
	} else {
		logger.Info("SUPABASE_URL or SUPABASE_SECRET_KEY not set - usage metrics and batch archive disabled")
	}

	var usageTracker *handlers.UsageTrackerHandler
	if supabaseHandler != nil {
		usageTracker = handlers.NewUsageTrackerHandler(supabaseHandler)
	}

	scraper, err := newScraper(cfg.Scrape)
	if err != nil {
		return err
	}
	logger.Info("scraper initialized", zap.String("provider", cfg.Scrape.Provider))

	limiter := openaicompat.NewRateLimiter(cfg.RateLimit.MaxConcurrent, cfg.RateLimit.MinDelay)

	analysisLLM, err := provider.NewModel(ctx, modelConfig(cfg.Analysis, limiter))
	if err != nil {
		return eris.Wrap(err, "failed to create analysis model")
	}
	analysisHandler, err := handlers.NewAnalysisHandler(analysisLLM, cfg.Analysis.Timeout)
	if err != nil {
		return err
	}
	logger.Info("AnalysisHandler initialized",
		zap.String("backend", cfg.Analysis.Backend), zap.String("model", cfg.Analysis.Model))

	generationLLM, err := provider.NewModel(ctx, modelConfig(cfg.Generate, limiter))
	if err != nil {
		return eris.Wrap(err, "failed to create generation model")
	}
	documentHandler, err := handlers.NewDocumentHandler(generationLLM, cfg.Generate.Timeout)
	if err != nil {
		return err
	}
	logger.Info("DocumentHandler initialized",
		zap.String("backend", cfg.Generate.Backend), zap.String("model", cfg.Generate.Model))

	if usageTracker != nil {
		analysisHandler.SetUsageTracker(usageTracker)
		documentHandler.SetUsageTracker(usageTracker)
	}

	workflowHandler, err := handlers.NewWorkflowHandler(handlers.WorkflowConfig{
		DocWebhook:      cfg.Workflow.DocWebhook,
		DocWebhookTest:  cfg.Workflow.DocWebhookTest,
		EmailWebhook:    cfg.Workflow.EmailWebhook,
		ForwardWebhook:  cfg.Workflow.ForwardWebhook,
		ForwardTest:     cfg.Workflow.ForwardTest,
		DispatchTimeout: cfg.Workflow.DispatchTimeout,
		ForwardTimeout:  cfg.Workflow.ForwardTimeout,
	})
	if err != nil {
		return err
	}

	pipelineCfg := services.PipelineConfig{
		Scraper:    scraper,
		Analyzer:   analysisHandler,
		Documents:  documentHandler,
		Dispatcher: workflowHandler,
	}
	if cfg.Search.SerpAPIKey != "" {
		pipelineCfg.Finder = handlers.NewWebsiteSearchHandler(cfg.Search.SerpAPIKey)
		logger.Info("WebsiteSearchHandler initialized - website lookup by company name enabled")
	} else {
		logger.Info("SERPAPI_KEY not set - website lookup by company name disabled")
	}
	pipeline, err := services.NewPipeline(pipelineCfg)
	if err != nil {
		return err
	}

	coordinatorCfg := services.CoordinatorConfig{
		Processor: pipeline,
		Links:     workflowHandler,
		Recipient: cfg.Report.Recipient,
	}
	mailHandler, err := handlers.NewMailHandler(handlers.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Subject:  cfg.Report.Subject,
	})
	if err != nil {
		logger.Warn("batch reports will not be emailed", zap.Error(err))
	} else {
		coordinatorCfg.Mailer = mailHandler
	}
	if supabaseHandler != nil {
		coordinatorCfg.Archiver = supabaseHandler
	}
	if cfg.Report.Recipient == "" {
		logger.Warn("REPORT_RECIPIENT not set - batches must name a recipient")
	}

	coordinator, err := services.NewCoordinator(coordinatorCfg)
	if err != nil {
		return err
	}

	// Secure cookies only when the service is known to be reached over HTTPS
	sessions, err := middleware.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL,
		strings.HasPrefix(cfg.Server.PublicURL, "https://"))
	if err != nil {
		return err
	}
	if cfg.Auth.Password == "" {
		logger.Warn("DASHBOARD_PASSWORD not set - dashboard login disabled")
	}
	if cfg.Auth.CallbackSecret == "" {
		logger.Warn("CALLBACK_SECRET not set - callback endpoint is unauthenticated")
	}

	router, err := api.NewRouter(api.RouterConfig{
		Coordinator:    coordinator,
		Forwarder:      workflowHandler,
		Sessions:       sessions,
		Username:       cfg.Auth.Username,
		Password:       cfg.Auth.Password,
		CallbackSecret: cfg.Auth.CallbackSecret,
		PublicURL:      cfg.Server.PublicURL,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		logger.Info("Swagger UI available at http://localhost:" + cfg.Server.Port + "/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown incomplete", zap.Error(err))
		}
		if !coordinator.WaitTimeout(cfg.Server.ShutdownTimeout) {
			logger.Warn("background jobs still running at exit")
		}
		usageTracker.Wait()
		return nil
	})

	return g.Wait()
}

func newScraper(cfg config.ScrapeConfig) (services.Scraper, error) {
	switch cfg.Provider {
	case "firecrawl":
		h, err := handlers.NewFirecrawlHandler(cfg.FirecrawlAPIKey, cfg.FirecrawlAPIURL)
		if err != nil {
			return nil, err
		}
		h.SetTimeout(cfg.Timeout)
		h.SetMaxContentChars(cfg.MaxContentChars)
		return h, nil
	default:
		h, err := handlers.NewApifyHandler(handlers.ApifyConfig{
			Token:           cfg.ApifyToken,
			Actor:           cfg.ApifyActor,
			MaxPages:        cfg.MaxPages,
			MaxContentChars: cfg.MaxContentChars,
			Timeout:         cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}

func modelConfig(cfg config.ModelConfig, limiter *openaicompat.RateLimiter) provider.Config {
	return provider.Config{
		Backend:     provider.Backend(cfg.Backend),
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		GCPProject:  cfg.GCPProject,
		GCPLocation: cfg.GCPLocation,
		RateLimiter: limiter,
	}
}
