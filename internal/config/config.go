package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWSDIGEST_CONFIG"
	dotenvPathEnv     = "NEWSDIGEST_ENV_FILE"
	logLevelEnv       = "LOG_LEVEL"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	llmProviderEnv    = "LLM_PROVIDER"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	geminiModelEnv    = "GEMINI_MODEL"
	resendAPIKeyEnv   = "RESEND_API_KEY"
	fromEmailEnv      = "FROM_EMAIL"
	baseURLEnv        = "BASE_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	outputDirEnv      = "OUTPUT_DIR"
	enrichDelayEnv    = "ENRICH_DELAY_MS"
)

// LLM provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	LLM       LLMConfig       `yaml:"llm"`
	Trending  TrendingConfig  `yaml:"trending"`
	Composer  ComposerConfig  `yaml:"composer"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	OutputDir string          `yaml:"outputDir"`
	Sites     []SiteConfig    `yaml:"sites"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig selects the SQL driver and its DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when the daily digest should run.
type SchedulerConfig struct {
	RunAt    string         `yaml:"runAt"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider      string       `yaml:"provider"`
	EnrichDelayMS int          `yaml:"enrichDelayMs"`
	OpenAI        OpenAIConfig `yaml:"openai"`
	Gemini        GeminiConfig `yaml:"gemini"`
}

// EnrichDelay is the pause between consecutive enrichment calls.
func (l LLMConfig) EnrichDelay() time.Duration {
	return time.Duration(l.EnrichDelayMS) * time.Millisecond
}

// Enabled reports whether the selected provider has credentials.
func (l LLMConfig) Enabled() bool {
	switch l.Provider {
	case ProviderGemini:
		return l.Gemini.APIKey != ""
	default:
		return l.OpenAI.APIKey != ""
	}
}

// OpenAIConfig defines how to contact an OpenAI-compatible chat API.
type OpenAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// TrendingConfig tunes Hacker News correlation.
type TrendingConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	StoryLimit     int    `yaml:"storyLimit"`
	CandidateLimit int    `yaml:"candidateLimit"`
}

// ComposerConfig tunes plan assembly.
type ComposerConfig struct {
	MaxArticles int `yaml:"maxArticles"`
}

// DeliveryConfig encapsulates outbound channels.
type DeliveryConfig struct {
	BaseURL  string         `yaml:"baseUrl"`
	Resend   ResendConfig   `yaml:"resend"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// ResendConfig wires the email API.
type ResendConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"apiKey"`
	FromEmail string `yaml:"fromEmail"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SiteConfig describes a single site with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name"`
	Scanner    string            `yaml:"scanner"`
	Categories []CategoryConfig  `yaml:"categories"`
	Options    map[string]string `yaml:"options"`
}

// CategoryConfig holds a concrete endpoint to crawl (a feed URL or a listing page).
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration (if present), the .env file and applies
// environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	loadDotenv()
	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotenv fills unset variables from a .env file; a missing file is fine.
func loadDotenv() {
	path := os.Getenv(dotenvPathEnv)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load %s: %v", path, err)
	}
}

func (c *Config) applyEnvOverrides() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Logging.Level, logLevelEnv)
	setString(&c.Database.Driver, databaseDriverEnv)
	setString(&c.Database.DSN, databaseDSNEnv)
	setString(&c.LLM.Provider, llmProviderEnv)
	setString(&c.LLM.OpenAI.APIKey, openAIAPIKeyEnv)
	setString(&c.LLM.OpenAI.Model, openAIModelEnv)
	setString(&c.LLM.Gemini.APIKey, geminiAPIKeyEnv)
	setString(&c.LLM.Gemini.Model, geminiModelEnv)
	setString(&c.Delivery.Resend.APIKey, resendAPIKeyEnv)
	setString(&c.Delivery.Resend.FromEmail, fromEmailEnv)
	setString(&c.Delivery.BaseURL, baseURLEnv)
	setString(&c.Delivery.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Delivery.Telegram.ChatID, telegramChatIDEnv)
	setString(&c.OutputDir, outputDirEnv)

	if v := os.Getenv(enrichDelayEnv); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.LLM.EnrichDelayMS = ms
		} else {
			log.Printf("config: ignoring %s=%q", enrichDelayEnv, v)
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pickInt := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}

	pick(&base.Logging.Level, override.Logging.Level)

	if override.Database.DSN != "" {
		base.Database = override.Database
		if base.Database.Driver == "" {
			base.Database.Driver = defaultConfig().Database.Driver
		}
	}

	pick(&base.Scheduler.RunAt, override.Scheduler.RunAt)
	pick(&base.Scheduler.Timezone, override.Scheduler.Timezone)

	pick(&base.LLM.Provider, override.LLM.Provider)
	pickInt(&base.LLM.EnrichDelayMS, override.LLM.EnrichDelayMS)
	pick(&base.LLM.OpenAI.Endpoint, override.LLM.OpenAI.Endpoint)
	pick(&base.LLM.OpenAI.Model, override.LLM.OpenAI.Model)
	pick(&base.LLM.OpenAI.APIKey, override.LLM.OpenAI.APIKey)
	pick(&base.LLM.Gemini.Model, override.LLM.Gemini.Model)
	pick(&base.LLM.Gemini.APIKey, override.LLM.Gemini.APIKey)

	pick(&base.Trending.BaseURL, override.Trending.BaseURL)
	pickInt(&base.Trending.StoryLimit, override.Trending.StoryLimit)
	pickInt(&base.Trending.CandidateLimit, override.Trending.CandidateLimit)

	pickInt(&base.Composer.MaxArticles, override.Composer.MaxArticles)

	pick(&base.Delivery.BaseURL, override.Delivery.BaseURL)
	pick(&base.Delivery.Resend.Endpoint, override.Delivery.Resend.Endpoint)
	pick(&base.Delivery.Resend.APIKey, override.Delivery.Resend.APIKey)
	pick(&base.Delivery.Resend.FromEmail, override.Delivery.Resend.FromEmail)
	pick(&base.Delivery.Telegram.BotToken, override.Delivery.Telegram.BotToken)
	pick(&base.Delivery.Telegram.ChatID, override.Delivery.Telegram.ChatID)

	pick(&base.OutputDir, override.OutputDir)

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{Driver: "sqlite3", DSN: "data/newsdigest.db"},
		Scheduler: SchedulerConfig{RunAt: "07:00", Timezone: defaultTimezone, location: tz},
		LLM: LLMConfig{
			Provider:      ProviderOpenAI,
			EnrichDelayMS: 500,
			OpenAI: OpenAIConfig{
				Endpoint: "https://api.openai.com/v1/chat/completions",
				Model:    "gpt-4o-mini",
			},
			Gemini: GeminiConfig{Model: "gemini-2.0-flash"},
		},
		Trending: TrendingConfig{
			BaseURL:        "https://hacker-news.firebaseio.com/v0",
			StoryLimit:     30,
			CandidateLimit: 20,
		},
		Composer: ComposerConfig{MaxArticles: 15},
		Delivery: DeliveryConfig{
			BaseURL: "http://localhost:3000",
			Resend: ResendConfig{
				Endpoint:  "https://api.resend.com/",
				FromEmail: "AI News Digest <onboarding@resend.dev>",
			},
		},
		OutputDir: "output",
		Sites:     defaultSites(),
	}
}

func defaultSites() []SiteConfig {
	return []SiteConfig{
		{
			Name:    "ai-labs",
			Scanner: "feed",
			Categories: []CategoryConfig{
				{Name: "anthropic-news", URL: "https://raw.githubusercontent.com/Olshansk/rss-feeds/main/feeds/feed_anthropic_news.xml"},
				{Name: "anthropic-engineering", URL: "https://raw.githubusercontent.com/Olshansk/rss-feeds/main/feeds/feed_anthropic_engineering.xml"},
				{Name: "openai-blog", URL: "https://openai.com/blog/rss.xml"},
				{Name: "deepmind-blog", URL: "https://deepmind.google/blog/rss.xml"},
			},
		},
		{
			Name:    "dev-tools",
			Scanner: "feed",
			Categories: []CategoryConfig{
				{Name: "vercel-blog", URL: "https://vercel.com/atom"},
				{Name: "cursor-blog", URL: "https://raw.githubusercontent.com/Olshansk/rss-feeds/main/feeds/feed_cursor.xml"},
			},
		},
		{
			Name:    "voices",
			Scanner: "feed",
			Categories: []CategoryConfig{
				{Name: "simon-willison", URL: "https://simonwillison.net/atom/everything/"},
				{Name: "peter-steinberger", URL: "https://steipete.me/rss.xml"},
				{Name: "a16z", URL: "https://a16z.com/feed/"},
			},
		},
	}
}
