package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blockedby/jobpost/internal/api"
	"github.com/blockedby/jobpost/internal/catalog"
	"github.com/blockedby/jobpost/internal/composer"
	"github.com/blockedby/jobpost/internal/config"
	"github.com/blockedby/jobpost/internal/database"
	"github.com/blockedby/jobpost/internal/jobs"
	"github.com/blockedby/jobpost/internal/llm"
	"github.com/blockedby/jobpost/internal/logger"
	"github.com/blockedby/jobpost/internal/migrator"
	"github.com/blockedby/jobpost/internal/nats"
	"github.com/blockedby/jobpost/internal/publisher"
	"github.com/blockedby/jobpost/internal/repository"
	"github.com/blockedby/jobpost/internal/web"
	"github.com/blockedby/jobpost/migrations"
)

const (
	apiTitle       = "Job Request Composer API"
	apiDescription = "Build, price and submit marketplace job requests"
	relayConsumer  = "composer-ws-relay"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting job request composer")

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Migrate and connect to database
	if cfg.AutoMigrate {
		m, err := migrator.NewWithFS(migrations.FS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load migrations")
		}
		if err := m.Up(ctx, cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// 5. Initialize repositories
	categoriesRepo := repository.NewCategoriesRepository(db.Pool)
	suggestionsRepo := repository.NewSuggestionsRepository(db.Pool)
	jobsRepo := repository.NewJobsRepository(db.Pool)
	statsRepo := repository.NewStatsRepository(db.Pool)
	walletsRepo := repository.NewWalletsRepository(db.GORM)

	// 6. Category catalog, seeded from YAML when configured
	if cfg.CatalogFile != "" {
		seed, err := catalog.LoadYAML(cfg.CatalogFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("failed to load catalog file")
		}
		for _, c := range seed {
			if err := categoriesRepo.Upsert(ctx, c); err != nil {
				log.Fatal().Err(err).Int("category_id", c.ID).Msg("failed to seed category")
			}
		}
		log.Info().Int("categories", len(seed)).Msg("catalog seeded")
	}

	cat := catalog.New(categoriesRepo, cfg.CatalogCacheTTL, log)
	if err := cat.Warm(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load categories")
	}

	// 7. Connect to NATS
	var pub jobs.Publisher
	nc, err := nats.New(ctx, cfg.NatsURL, "jobpost-composer")
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
	} else {
		defer nc.Close()
		if err := nc.EnsureStream(ctx, nats.JobsStream, []string{nats.JobsSubjects}); err != nil {
			log.Warn().Err(err).Msg("failed to ensure jobs stream")
		}
		pub = publisher.NewNATSPublisher(nc.Conn)
	}

	jobService := jobs.NewService(jobsRepo, walletsRepo, pub, cfg.PaymentBaseURL, log)

	// 8. Price predictor
	var prompt *llm.PromptConfig
	if cfg.LLMPromptFile != "" {
		prompt, err = llm.LoadPrompt(cfg.LLMPromptFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load prediction prompt")
		}
	}
	llmClient := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		APIKey:      cfg.LLMAPIKey,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: float32(cfg.LLMTemperature),
		Timeout:     cfg.LLMTimeout(),
	})
	predictor := llm.NewPredictor(llmClient, prompt, llm.NewRateLimiter(cfg.PredictionRPS, 2), cat, log)

	// 9. WebSocket hub and draft sessions
	hub := web.NewHub()
	go hub.Run()
	defer hub.Stop()

	drafts := composer.NewManager(composer.Deps{
		Predictor:  predictor,
		Fetcher:    timeoutFetcher{next: suggestionsRepo, timeout: cfg.CollaboratorTimeout},
		Categories: cat,
		Creator:    jobService,
		Wallets:    timeoutWallets{next: walletsRepo, timeout: cfg.CollaboratorTimeout},
		Rates:      cat,
		Notifier:   hub,
		Log:        log,
		Debounce:   cfg.PredictionDebounce,
		Stagger:    cfg.SuggestionStagger,
		Countdown:  cfg.ConfirmCountdown,
	})
	go drafts.SweepIdle(ctx, cfg.DraftIdleTTL, 0)

	if nc != nil {
		stop, err := nc.Subscribe(ctx, nats.JobsStream, relayConsumer, publisher.SubjectJobCreated, web.JobCreatedRelay(hub))
		if err != nil {
			log.Warn().Err(err).Msg("failed to subscribe to job events")
		} else {
			defer stop()
		}
	}

	// 10. HTTP
	apiServer := api.NewServer(&api.Config{
		Port:        cfg.HTTPPort,
		Title:       apiTitle,
		Description: apiDescription,
		Version:     "dev",
	}, &api.Dependencies{
		Drafts:     drafts,
		Categories: cat,
		Jobs:       jobService,
		StatsRepo:  statsRepo,
		Hub:        hub,
	})

	server := web.NewServer(&web.Config{
		Port:        cfg.HTTPPort,
		CORSOrigins: cfg.CORSOrigins,
	}, hub)
	server.MountAPI(apiServer.Mux())
	apiServer.MountDocsOn(server.Router(), apiTitle, apiDescription)

	log.Info().Int("port", cfg.HTTPPort).Msg("starting web server")
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// 11. Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down services...")

	drafts.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("shutdown complete")
}
