package config

import (
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Search    SearchConfig    `mapstructure:"search"`
	Analysis  ModelConfig     `mapstructure:"analysis"`
	Generate  ModelConfig     `mapstructure:"generation"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Report    ReportConfig    `mapstructure:"report"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port string `mapstructure:"port"`
	// PublicURL overrides the callback base derived from incoming requests
	PublicURL       string        `mapstructure:"public_url"`
	GinMode         string        `mapstructure:"gin_mode"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig holds dashboard credentials and the callback secret
type AuthConfig struct {
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	SessionSecret  string        `mapstructure:"session_secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	CallbackSecret string        `mapstructure:"callback_secret"`
}

// ScrapeConfig selects and configures the website scraper
type ScrapeConfig struct {
	// Provider is "apify" or "firecrawl"
	Provider        string        `mapstructure:"provider"`
	ApifyToken      string        `mapstructure:"apify_token"`
	ApifyActor      string        `mapstructure:"apify_actor"`
	FirecrawlAPIKey string        `mapstructure:"firecrawl_api_key"`
	FirecrawlAPIURL string        `mapstructure:"firecrawl_api_url"`
	MaxPages        int           `mapstructure:"max_pages"`
	MaxContentChars int           `mapstructure:"max_content_chars"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// SearchConfig enables the company-name website lookup
type SearchConfig struct {
	SerpAPIKey string `mapstructure:"serpapi_key"`
}

// ModelConfig configures one LLM-backed stage
type ModelConfig struct {
	// Backend is one of gemini, vertexai, openai, anthropic
	Backend     string        `mapstructure:"backend"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	GCPProject  string        `mapstructure:"gcp_project"`
	GCPLocation string        `mapstructure:"gcp_location"`
}

// WorkflowConfig holds the workflow engine webhooks
type WorkflowConfig struct {
	DocWebhook      string        `mapstructure:"doc_webhook"`
	DocWebhookTest  string        `mapstructure:"doc_webhook_test"`
	EmailWebhook    string        `mapstructure:"email_webhook"`
	ForwardWebhook  string        `mapstructure:"forward_webhook"`
	ForwardTest     string        `mapstructure:"forward_webhook_test"`
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
	ForwardTimeout  time.Duration `mapstructure:"forward_timeout"`
}

// SMTPConfig configures the report mailer
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// ReportConfig configures batch report delivery
type ReportConfig struct {
	Recipient string `mapstructure:"recipient"`
	Subject   string `mapstructure:"subject"`
}

// SupabaseConfig enables archiving and usage metrics
type SupabaseConfig struct {
	URL          string `mapstructure:"url"`
	Key          string `mapstructure:"key"`
	ArchiveTable string `mapstructure:"archive_table"`
	UsageTable   string `mapstructure:"usage_table"`
}

// RateLimitConfig bounds outbound LLM requests
type RateLimitConfig struct {
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	MinDelay      time.Duration `mapstructure:"min_delay"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envBindings maps config keys to the environment variables the deployment already uses.
// Earlier names win when several are set.
var envBindings = map[string][]string{
	"server.port":                   {"PORT"},
	"server.public_url":             {"PUBLIC_URL", "CALLBACK_BASE_URL"},
	"server.gin_mode":               {"GIN_MODE"},
	"server.cors_origins":           {"CORS_ORIGINS"},
	"auth.username":                 {"DASHBOARD_USERNAME", "LOGIN_USERNAME"},
	"auth.password":                 {"DASHBOARD_PASSWORD", "LOGIN_PASSWORD"},
	"auth.session_secret":           {"SESSION_SECRET", "SECRET_KEY"},
	"auth.callback_secret":          {"CALLBACK_SECRET", "WEBHOOK_SECRET"},
	"scrape.provider":               {"SCRAPE_PROVIDER"},
	"scrape.apify_token":            {"APIFY_API_TOKEN"},
	"scrape.firecrawl_api_key":      {"FIRECRAWL_API_KEY"},
	"scrape.firecrawl_api_url":      {"FIRECRAWL_API_URL"},
	"search.serpapi_key":            {"SERPAPI_KEY"},
	"analysis.backend":              {"ANALYSIS_BACKEND"},
	"analysis.model":                {"MANUS_MODEL", "ANALYSIS_MODEL"},
	"analysis.api_key":              {"MANUS_API_KEY", "ANALYSIS_API_KEY"},
	"analysis.base_url":             {"MANUS_API_URL", "ANALYSIS_BASE_URL"},
	"analysis.gcp_project":          {"GOOGLE_CLOUD_PROJECT"},
	"analysis.gcp_location":         {"GOOGLE_CLOUD_LOCATION"},
	"generation.backend":            {"GENERATION_BACKEND"},
	"generation.model":              {"OPENAI_MODEL", "GENERATION_MODEL"},
	"generation.api_key":            {"OPENAI_API_KEY", "GENERATION_API_KEY"},
	"generation.base_url":           {"OPENAI_BASE_URL", "GENERATION_BASE_URL"},
	"generation.gcp_project":        {"GOOGLE_CLOUD_PROJECT"},
	"generation.gcp_location":       {"GOOGLE_CLOUD_LOCATION"},
	"workflow.doc_webhook":          {"N8N_WEBHOOK_DOC_GENERATION"},
	"workflow.doc_webhook_test":     {"N8N_WEBHOOK_DOC_GENERATION_TEST"},
	"workflow.email_webhook":        {"N8N_WEBHOOK_SEND_EMAIL"},
	"workflow.forward_webhook":      {"N8N_WEBHOOK_URL", "N8N_WEBHOOK_PROD"},
	"workflow.forward_webhook_test": {"N8N_WEBHOOK_TEST_URL", "N8N_WEBHOOK_TEST"},
	"smtp.host":                     {"SMTP_HOST"},
	"smtp.port":                     {"SMTP_PORT"},
	"smtp.user":                     {"SMTP_USER"},
	"smtp.password":                 {"SMTP_PASSWORD"},
	"smtp.from":                     {"SMTP_FROM"},
	"report.recipient":              {"REPORT_RECIPIENT", "RESULTS_EMAIL"},
	"supabase.url":                  {"SUPABASE_URL"},
	"supabase.key":                  {"SUPABASE_SECRET_KEY", "SUPABASE_KEY"},
	"rate_limit.max_concurrent":     {"LLM_MAX_CONCURRENT"},
	"log.level":                     {"LOG_LEVEL"},
	"log.format":                    {"LOG_FORMAT"},
}

// Load reads configuration from an optional config.yaml and the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	return &cfg, nil
}

// bindEnv binds every config key explicitly. Deployment names from envBindings are
// consulted before the derived name (supabase.key -> SUPABASE_KEY).
func bindEnv(v *viper.Viper) error {
	keys := v.AllKeys()
	for key := range envBindings {
		keys = append(keys, key)
	}

	bound := make(map[string]bool, len(keys))
	for _, key := range keys {
		if bound[key] {
			continue
		}
		bound[key] = true

		names := append([]string{key}, envBindings[key]...)
		derived := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if !slices.Contains(names[1:], derived) {
			names = append(names, derived)
		}
		if err := v.BindEnv(names...); err != nil {
			return eris.Wrapf(err, "config: bind env %s", key)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.session_ttl", 12*time.Hour)
	v.SetDefault("scrape.provider", "apify")
	v.SetDefault("scrape.apify_actor", "apify~website-content-crawler")
	v.SetDefault("scrape.max_pages", 5)
	v.SetDefault("scrape.max_content_chars", 60000)
	v.SetDefault("scrape.timeout", 120*time.Second)
	v.SetDefault("analysis.backend", "openai")
	v.SetDefault("analysis.model", "manus-1.6-max")
	v.SetDefault("analysis.base_url", "https://api.manus.im/v1")
	v.SetDefault("analysis.temperature", 0.7)
	v.SetDefault("analysis.max_tokens", 0)
	v.SetDefault("analysis.timeout", 300*time.Second)
	v.SetDefault("generation.backend", "openai")
	v.SetDefault("generation.model", "gpt-4o")
	v.SetDefault("generation.base_url", "https://api.openai.com/v1")
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.max_tokens", 16000)
	v.SetDefault("generation.timeout", 300*time.Second)
	v.SetDefault("workflow.dispatch_timeout", 10*time.Second)
	v.SetDefault("workflow.forward_timeout", 30*time.Second)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("report.subject", "Dream 100 Batch Processing Results")
	v.SetDefault("supabase.archive_table", "prospect_batches")
	v.SetDefault("supabase.usage_table", "ai_usage_metrics")
	v.SetDefault("rate_limit.max_concurrent", 5)
	v.SetDefault("rate_limit.min_delay", 100*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// splitList flattens comma-separated entries, which is how list values arrive from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Validate reports configuration the pipeline cannot run without
func (c *Config) Validate() error {
	switch c.Scrape.Provider {
	case "apify":
		if c.Scrape.ApifyToken == "" {
			return eris.New("config: APIFY_API_TOKEN is required for the apify scraper")
		}
	case "firecrawl":
		if c.Scrape.FirecrawlAPIKey == "" {
			return eris.New("config: FIRECRAWL_API_KEY is required for the firecrawl scraper")
		}
	default:
		return eris.Errorf("config: unknown scrape provider %q", c.Scrape.Provider)
	}
	if c.Workflow.DocWebhook == "" {
		return eris.New("config: N8N_WEBHOOK_DOC_GENERATION is required")
	}
	if c.Auth.SessionSecret == "" {
		return eris.New("config: SESSION_SECRET is required")
	}
	return nil
}
