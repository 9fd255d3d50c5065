package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"TopicScanner/internal/classify"
	"TopicScanner/internal/config"
	"TopicScanner/internal/domain"
	"TopicScanner/internal/infrastructure/httpapi"
	"TopicScanner/internal/infrastructure/llm"
	"TopicScanner/internal/infrastructure/scheduler"
	"TopicScanner/internal/infrastructure/sources"
	"TopicScanner/internal/infrastructure/storage"
	"TopicScanner/internal/infrastructure/telegram"
	"TopicScanner/internal/logging"
	"TopicScanner/internal/ports"
	"TopicScanner/internal/scanner"
	"TopicScanner/internal/scoring"
	"TopicScanner/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SQLRepository
	pipeline  *usecase.Pipeline
	drafts    *usecase.DraftService
	scheduler *usecase.Scheduler
}

// New opens the store, plants configured seeds and builds every service.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	loc := cfg.Scheduler.Location()
	now := func() time.Time { return time.Now().In(loc) }

	scorer := scoring.New(cfg.StrongKeywords)
	deps := sources.Deps{
		Fetcher: sources.NewFetcher(sources.FetcherConfig{
			Timeout:    cfg.Fetch.Timeout,
			MaxRetries: cfg.Fetch.MaxRetries,
			BaseDelay:  cfg.Fetch.BaseDelay,
			MaxDelay:   cfg.Fetch.MaxDelay,
			UserAgent:  cfg.Fetch.UserAgent,
		}),
		Classifier: classify.New(classify.Keywords{
			AI:     cfg.Keywords.AI,
			Crypto: cfg.Keywords.Crypto,
			Growth: cfg.Keywords.Growth,
		}),
		Scorer: scorer,
		Now:    now,
	}

	registry := scanner.NewRegistry()
	registry.Register(sources.NewHackerNewsScanner(withLogger(deps, baseLogger, "scanner.hackernews"), sources.HackerNewsOptions{
		APIBase:     cfg.Sources.HackerNews.APIBase,
		TopN:        cfg.Sources.HackerNews.TopN,
		Concurrency: cfg.Fetch.Concurrency,
	}))
	registry.Register(sources.NewCoinGeckoScanner(withLogger(deps, baseLogger, "scanner.coingecko"), sources.CoinGeckoOptions{
		URL:      cfg.Sources.CoinGecko.URL,
		MaxCoins: cfg.Sources.CoinGecko.MaxCoins,
	}))
	registry.Register(sources.NewProductHuntScanner(withLogger(deps, baseLogger, "scanner.producthunt"), sources.ProductHuntOptions{
		FeedURL: cfg.Sources.ProductHunt.FeedURL,
	}))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry:       registry,
		Sources:        sourceSettings(cfg.Sources),
		Repository:     store,
		Notifier:       newNotifier(cfg.Notifications.Telegram),
		DigestMinScore: cfg.Notifications.Telegram.MinScore,
		Logger:         baseLogger.With("component", "pipeline"),
		Now:            now,
	})

	var writer ports.DraftWriter
	if client := llm.NewClient(cfg.LLM); client.Configured() {
		writer = client
	} else {
		baseLogger.Info("llm api key not set, draft generation disabled")
	}
	drafts := usecase.NewDraftService(store, writer, baseLogger.With("component", "drafts"))

	seeds, err := seedsFromConfig(cfg.Seeds)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	added, err := usecase.PlantSeeds(ctx, store, scorer, seeds)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if added > 0 {
		baseLogger.Info("seed topics planted", "count", added)
	}

	sched := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.InitialDelay),
		pipeline,
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		pipeline:  pipeline,
		drafts:    drafts,
		scheduler: sched,
	}, nil
}

// Store exposes the topic store for the CLI.
func (a *Application) Store() ports.TopicStore {
	return a.store
}

// Pipeline exposes the scan orchestrator.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Drafts exposes the draft service.
func (a *Application) Drafts() *usecase.DraftService {
	return a.drafts
}

// Handler builds the HTTP API served by Serve.
func (a *Application) Handler() http.Handler {
	return httpapi.NewRouter(httpapi.Deps{
		Store:  a.store,
		Scans:  a.pipeline,
		Drafts: a.drafts,
		Logger: a.logger.With("component", "httpapi"),
	})
}

// Serve runs periodic scans and the HTTP API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := a.scheduler.Start(gctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return errors.Join(a.scheduler.Stop(shutdownCtx), srv.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

// Close releases the database handles.
func (a *Application) Close() error {
	return a.store.Close()
}

func withLogger(deps sources.Deps, logger *slog.Logger, component string) sources.Deps {
	deps.Logger = logger.With("component", component)
	return deps
}

func sourceSettings(cfg config.SourcesConfig) []usecase.SourceSetting {
	return []usecase.SourceSetting{
		{Source: domain.SourceHackerNews, Enabled: config.Enabled(cfg.HackerNews.Enabled)},
		{Source: domain.SourceCoinGecko, Enabled: config.Enabled(cfg.CoinGecko.Enabled)},
		{Source: domain.SourceProductHunt, Enabled: config.Enabled(cfg.ProductHunt.Enabled)},
	}
}

func newNotifier(cfg config.TelegramConfig) ports.Notifier {
	notifier := telegram.NewNotifier(cfg.APIBase, cfg.BotToken, cfg.ChatID)
	if !notifier.Configured() {
		return nil
	}
	return notifier
}

func seedsFromConfig(entries []config.SeedConfig) ([]usecase.Seed, error) {
	seeds := make([]usecase.Seed, 0, len(entries))
	for _, entry := range entries {
		contentType, err := domain.ParseContentType(entry.ContentType)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", entry.ID, err)
		}
		niches := make([]domain.Niche, 0, len(entry.Niches))
		for _, raw := range entry.Niches {
			niche, err := domain.ParseNiche(raw)
			if err != nil {
				return nil, fmt.Errorf("seed %s: %w", entry.ID, err)
			}
			niches = append(niches, niche)
		}
		seeds = append(seeds, usecase.Seed{
			Topic: domain.NormalizedTopic{
				ID:          entry.ID,
				Title:       entry.Title,
				Niches:      domain.NewNicheSet(niches...),
				ContentType: contentType,
				AgeHours:    entry.AgeHours,
				Velocity:    entry.Velocity,
				Hook:        entry.Hook,
				PostIdea:    entry.PostIdea,
				SourceURL:   entry.SourceURL,
				SourceTitle: entry.SourceTitle,
			},
			FactChecked: entry.FactChecked,
			FactNotes:   entry.FactNotes,
		})
	}
	return seeds, nil
}
