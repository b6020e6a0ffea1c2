package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsDigest/internal/composer"
	"NewsDigest/internal/config"
	"NewsDigest/internal/dedup"
	"NewsDigest/internal/infrastructure/hackernews"
	"NewsDigest/internal/infrastructure/llm"
	"NewsDigest/internal/infrastructure/parser"
	"NewsDigest/internal/infrastructure/resend"
	"NewsDigest/internal/infrastructure/scheduler"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/infrastructure/telegram"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/scanner"
	"NewsDigest/internal/trending"
	"NewsDigest/internal/usecase"
)

const fetchTimeout = 20 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	store  *storage.Store

	Pipeline *usecase.Pipeline
	Sender   *usecase.Sender
	Curation *usecase.Curation
}

// New opens storage and builds every adapter once.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	enricher, picker, err := buildLLM(ctx, cfg.LLM, baseLogger.With("component", "llm"))
	if err != nil {
		store.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: fetchTimeout}

	registry := scanner.NewRegistry(
		parser.NewFeedScanner(httpClient, baseLogger.With("component", "scanner.feed")),
		parser.NewArxivScanner(httpClient, baseLogger.With("component", "scanner.arxiv")),
	)
	source := parser.NewStrategySource(registry, cfg.Sites, baseLogger.With("component", "source"))

	hn := hackernews.NewClient(cfg.Trending.BaseURL, httpClient, baseLogger.With("component", "hackernews"))
	correlator := trending.NewCorrelator(hn, cfg.Trending.StoryLimit, baseLogger.With("component", "trending"))

	var notifier ports.Notifier
	if cfg.Delivery.Telegram.BotToken != "" && cfg.Delivery.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Delivery.Telegram)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:         source,
		Articles:       store,
		Issues:         store,
		Dedup:          dedup.New(store),
		Enricher:       enricher,
		Correlator:     correlator,
		Composer:       composer.New(picker, baseLogger.With("component", "composer")),
		Notifier:       notifier,
		Logger:         baseLogger.With("component", "pipeline"),
		EnrichDelay:    cfg.LLM.EnrichDelay(),
		CandidateLimit: cfg.Trending.CandidateLimit,
		MaxArticles:    cfg.Composer.MaxArticles,
	})

	sender := usecase.NewSender(usecase.SenderDeps{
		Articles:    store,
		Subscribers: store,
		Issues:      store,
		Mailer:      resend.NewMailer(cfg.Delivery.Resend),
		Logger:      baseLogger.With("component", "sender"),
		From:        cfg.Delivery.Resend.FromEmail,
		BaseURL:     cfg.Delivery.BaseURL,
	})

	curation := usecase.NewCuration(usecase.CurationDeps{
		Articles:    store,
		Subscribers: store,
		Issues:      store,
		Newsletters: parser.NewsletterParser{},
		Logger:      baseLogger.With("component", "curation"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		store:    store,
		Pipeline: pipeline,
		Sender:   sender,
		Curation: curation,
	}, nil
}

// Config returns the loaded configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Today returns the current time in the scheduler timezone.
func (a *Application) Today() time.Time {
	return time.Now().In(a.cfg.Scheduler.Location())
}

// RunDigest performs a single pipeline execution for today.
func (a *Application) RunDigest(ctx context.Context, opts usecase.DigestOptions) (usecase.DigestResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = a.cfg.OutputDir
	}
	return a.Pipeline.RunDigest(ctx, a.Today(), opts)
}

// Schedule runs the digest every day at the configured time until ctx ends.
func (a *Application) Schedule(ctx context.Context, opts usecase.DigestOptions, runNow bool) error {
	if opts.OutputDir == "" {
		opts.OutputDir = a.cfg.OutputDir
	}
	driver := scheduler.NewDailyScheduler(a.cfg.Scheduler.RunAt, a.cfg.Scheduler.Location(), runNow)
	sched := usecase.NewScheduler(driver, a.Pipeline, opts, a.logger.With("component", "scheduler"))

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "run_at", a.cfg.Scheduler.RunAt, "timezone", a.cfg.Scheduler.Timezone)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Close releases the database.
func (a *Application) Close() error {
	return a.store.Close()
}

func buildLLM(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (ports.Enricher, ports.EditorialPicker, error) {
	if !cfg.Enabled() {
		logger.Info("no model credentials, enrichment disabled", "provider", cfg.Provider)
		return nil, nil, nil
	}

	var completer llm.Completer
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.Gemini)
		if err != nil {
			return nil, nil, fmt.Errorf("build gemini client: %w", err)
		}
		completer = client
	default:
		completer = llm.NewChatGPTClient(cfg.OpenAI)
	}

	service := llm.NewService(completer, logger)
	return service, service, nil
}
