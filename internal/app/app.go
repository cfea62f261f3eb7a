// Package app assembles the pipeline from configuration and runs it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsPlanner/internal/config"
	"NewsPlanner/internal/dedup"
	"NewsPlanner/internal/domain"
	"NewsPlanner/internal/infrastructure/llm"
	"NewsPlanner/internal/infrastructure/og"
	"NewsPlanner/internal/infrastructure/rss"
	"NewsPlanner/internal/infrastructure/scheduler"
	"NewsPlanner/internal/infrastructure/storage"
	"NewsPlanner/internal/infrastructure/telegram"
	"NewsPlanner/internal/logging"
	"NewsPlanner/internal/monitor"
	"NewsPlanner/internal/usecase"
)

// Application wires configuration to use cases and owns their lifecycle.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *storage.Store
	ingest  *usecase.Ingest
	publish *usecase.Publish
	monitor *monitor.Monitor
	cron    *scheduler.CronScheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Path, logging.Component(baseLogger, "storage"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	dd := dedup.New(dedup.Config{
		SimilarityThreshold: cfg.Dedup.SimilarityThreshold,
		NGramSize:           cfg.Dedup.NGramSize,
		MaxHistory:          cfg.Dedup.MaxHistory,
	}, logging.Component(baseLogger, "dedup"))
	if err := seedDeduplicator(store, dd, cfg.Dedup); err != nil {
		_ = store.Close()
		return nil, err
	}

	feeds := make([]rss.Feed, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		feeds = append(feeds, rss.Feed{Name: f.Name, URL: f.URL})
	}
	source := rss.NewFetcher(feeds, logging.Component(baseLogger, "rss"))

	generator := llm.NewGenerator(llm.Options{
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	images := og.NewResolver(cfg.Pipeline.ImageCacheDir, logging.Component(baseLogger, "og"))
	publisher := telegram.NewPublisher(cfg.Telegram.BotToken, cfg.Telegram.ChannelID)

	ingest := usecase.NewIngest(usecase.IngestDeps{
		Source:        source,
		Deduplicator:  dd,
		Generator:     generator,
		ImageResolver: images,
		Store:         store,
		Logger:        logging.Component(baseLogger, "ingest"),
	}, usecase.IngestOptions{
		LookBack:       time.Duration(cfg.Pipeline.LookBackHours) * time.Hour,
		MaxPosts:       cfg.Pipeline.MaxPostsPerRun,
		Slots:          cfg.Pipeline.Slots,
		Rubrics:        parseRubrics(cfg.Pipeline.Rubrics),
		ModerationMode: cfg.Moderation.Enabled,
	})

	publish := usecase.NewPublish(usecase.PublishDeps{
		Store:     store,
		Publisher: publisher,
		Logger:    logging.Component(baseLogger, "publish"),
	}, usecase.PublishOptions{
		AutoRejectAfter: time.Duration(cfg.Moderation.AutoRejectHours) * time.Hour,
		RetentionDays:   cfg.Pipeline.RetentionDays,
	})

	mon := monitor.New(store, publisher, monitor.Thresholds{
		BufferCritical:   cfg.Monitoring.BufferCritical,
		BufferWarning:    cfg.Monitoring.BufferWarning,
		RejectionRateMax: cfg.Monitoring.RejectionRateMax,
		DailyTarget:      cfg.Monitoring.DailyTarget,
	}, logging.Component(baseLogger, "monitor"))

	return &Application{
		cfg:     cfg,
		logger:  baseLogger,
		store:   store,
		ingest:  ingest,
		publish: publish,
		monitor: mon,
		cron:    scheduler.NewCronScheduler(cfg.Scheduler.Location(), logging.Component(baseLogger, "scheduler")),
	}, nil
}

// Run registers the cron jobs and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	jobs := []struct {
		name string
		spec string
		job  func()
	}{
		{"ingest", a.cfg.Scheduler.IngestCron, func() {
			if _, err := a.ingest.Run(ctx); err != nil {
				a.logger.Error("ingest failed", "error", err)
			}
		}},
		{"publish", a.cfg.Scheduler.PublishCron, func() {
			if err := a.publish.Tick(ctx); err != nil {
				a.logger.Error("publish tick failed", "error", err)
			}
		}},
		{"maintain", a.cfg.Scheduler.MaintainCron, func() {
			if err := a.publish.Maintain(ctx); err != nil {
				a.logger.Error("maintenance failed", "error", err)
			}
		}},
		{"monitor", a.cfg.Scheduler.MonitorCron, func() {
			if _, err := a.monitor.Alert(ctx); err != nil {
				a.logger.Error("health check failed", "error", err)
			}
		}},
		{"summary", a.cfg.Scheduler.SummaryCron, func() {
			if err := a.monitor.DailySummary(ctx); err != nil {
				a.logger.Error("daily summary failed", "error", err)
			}
		}},
	}
	for _, j := range jobs {
		if err := a.cron.Add(j.name, j.spec, j.job); err != nil {
			return err
		}
	}

	if err := a.cron.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("application started", "feeds", len(a.cfg.Feeds))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.cron.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop timed out", "error", err)
	}
	return a.store.Close()
}

// IngestOnce runs a single ingestion cycle, for the one-shot CLI mode.
func (a *Application) IngestOnce(ctx context.Context) error {
	defer a.store.Close()
	_, err := a.ingest.Run(ctx)
	return err
}

func seedDeduplicator(store *storage.Store, dd *dedup.Deduplicator, cfg config.DedupConfig) error {
	days := cfg.SeedDays
	if days <= 0 {
		days = 7
	}
	titles, err := store.RecentTitles(days, uint64(max(cfg.MaxHistory, 1)))
	if err != nil {
		return fmt.Errorf("seed deduplicator: %w", err)
	}
	for _, title := range titles {
		dd.Seed(title, "", "")
	}
	return nil
}

func parseRubrics(values []string) []domain.Rubric {
	rubrics := make([]domain.Rubric, 0, len(values))
	for _, v := range values {
		r := domain.Rubric(v)
		if r.Valid() {
			rubrics = append(rubrics, r)
		}
	}
	return rubrics
}
