package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"BookmarkSummarizer/internal/config"
	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/infrastructure/discord"
	"BookmarkSummarizer/internal/infrastructure/llm"
	"BookmarkSummarizer/internal/infrastructure/replay"
	"BookmarkSummarizer/internal/infrastructure/scheduler"
	"BookmarkSummarizer/internal/infrastructure/storage"
	"BookmarkSummarizer/internal/infrastructure/telegram"
	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/ports"
	"BookmarkSummarizer/internal/report"
	"BookmarkSummarizer/internal/source"
	"BookmarkSummarizer/internal/summary"
	"BookmarkSummarizer/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Options adjust wiring without touching configuration.
type Options struct {
	// DryRun keeps artifacts in memory and logs the digest instead of sending it.
	DryRun bool
	// Model replaces the configured generation backend.
	Model ports.TextModel
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance. Missing generation or store
// credentials are reported here; a source without credentials yields empty runs.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	src, err := buildSource(cfg.Source, baseLogger)
	if err != nil {
		return nil, err
	}

	model := opts.Model
	if model == nil {
		model, err = buildModel(ctx, cfg.Generation)
		if err != nil {
			return nil, err
		}
	}

	var store ports.Store
	var notifier ports.Notifier
	if opts.DryRun {
		baseLogger.Info("dry run: using in-memory store and log sink")
		store = storage.NewMemoryStore()
		notifier = report.NewLogSink(baseLogger.With("component", "sink.log"))
	} else {
		store, err = buildStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		notifier, err = buildNotifier(cfg.Notifications, baseLogger)
		if err != nil {
			return nil, err
		}
	}

	reader := source.NewReader(src, cfg.Source.AllowedBotAuthors, baseLogger.With("component", "source"))
	generator := summary.NewGenerator(model, summary.Options{
		Preamble:          cfg.Generation.Preamble,
		Language:          cfg.Generation.Language,
		RequestsPerMinute: cfg.Generation.RequestsPerMinute,
		Timeout:           cfg.Generation.Timeout(),
	}, baseLogger.With("component", "generator"))
	reporter := report.NewBatchReporter(notifier, cfg.Notifications.DisplayName, baseLogger.With("component", "reporter"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Reader:    reader,
		Generator: generator,
		Store:     store,
		Reporter:  reporter,
		Logger:    baseLogger.With("component", "pipeline"),
		RootID:    cfg.Store.RootFolderID,
		MarkerKey: cfg.Store.MarkerKey,
		Location:  cfg.Store.Location(),
		Window:    cfg.Source.Window(),
		MaxItems:  cfg.Source.MaxItems,
	})
	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline}, nil
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) usecase.RunSummary {
	return a.pipeline.Run(ctx)
}

// Serve runs the pipeline on the configured cron schedule until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Store.Location(),
		a.logger.With("component", "scheduler"))
	sched := usecase.NewScheduler(driver, a.pipeline)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return sched.Stop(stopCtx)
}

func buildSource(cfg config.SourceConfig, logger *slog.Logger) (ports.MessageSource, error) {
	registry := source.NewRegistry()
	registry.Register(replay.SourceKind, replay.NewSource(cfg.Replay.Path))

	if cfg.Kind == discord.SourceKind {
		history, err := discord.NewHistory(cfg.Discord.Token, cfg.Discord.ChannelID, logger.With("component", "source.discord"))
		if err != nil {
			logger.Error("discord source unavailable, runs will fetch nothing", "error", err)
			registry.Register(discord.SourceKind, unavailableSource{err: err})
		} else {
			registry.Register(discord.SourceKind, history)
		}
	}

	return registry.Resolve(cfg.Kind)
}

// unavailableSource fails every fetch so the reader degrades to an empty batch.
type unavailableSource struct {
	err error
}

func (s unavailableSource) History(context.Context, time.Time, int) ([]domain.RawItem, error) {
	return nil, s.err
}

func buildModel(ctx context.Context, cfg config.GenerationConfig) (ports.TextModel, error) {
	switch cfg.Provider {
	case "", "gemini":
		client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai client misconfigured: api key is required")
		}
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.Endpoint,
			Model:   cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

func buildStore(ctx context.Context, cfg config.StoreConfig) (ports.Store, error) {
	switch cfg.Kind {
	case "", "drive":
		svc, err := storage.NewDriveService(ctx, storage.DriveCredentials{
			ClientID:        cfg.Drive.ClientID,
			ClientSecret:    cfg.Drive.ClientSecret,
			RefreshToken:    cfg.Drive.RefreshToken,
			CredentialsFile: cfg.Drive.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewDriveStore(svc), nil
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}

func buildNotifier(cfg config.NotificationConfig, logger *slog.Logger) (ports.Notifier, error) {
	switch cfg.Sink {
	case "", "discord":
		if cfg.Discord.WebhookURL == "" {
			logger.Warn("discord webhook url not set, digests will only be logged")
			return report.NewLogSink(logger.With("component", "sink.log")), nil
		}
		return discord.NewWebhook(cfg.Discord.WebhookURL), nil
	case "telegram":
		return telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID), nil
	case "log":
		return report.NewLogSink(logger.With("component", "sink.log")), nil
	default:
		return nil, fmt.Errorf("unknown notification sink %q", cfg.Sink)
	}
}
