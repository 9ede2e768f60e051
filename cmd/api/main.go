package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"bannerserver/internal/cache"
	"bannerserver/internal/catalog"
	"bannerserver/internal/compose"
	"bannerserver/internal/http/handlers"
	httpapi "bannerserver/internal/http/httpapi"
	"bannerserver/internal/infra"
	"bannerserver/internal/infra/credentials"
	"bannerserver/internal/infra/geoip"
	"bannerserver/internal/middleware"
	"bannerserver/internal/providers/background"
	"bannerserver/internal/providers/design"
	"bannerserver/internal/selector"
	"bannerserver/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx := context.Background()

	pool, err := infra.NewDBPool(ctx, cfg)
	switch {
	case errors.Is(err, infra.ErrNoDatabase):
		logger.Info().Msg("DATABASE_URL not set; using built-in templates and environment keys only")
	case err != nil:
		logger.Fatal().Err(err).Msg("failed to connect database")
	default:
		defer pool.Close()
	}

	cat, err := loadCatalog(ctx, pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load template catalog")
	}
	if pool != nil {
		loadStoredKeys(ctx, cfg, credentials.NewStore(infra.NewSQLRunner(pool, logger)), logger)
	}

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage")
	}

	var bgCache cache.Cache = cache.NewNullCache()
	if cfg.RedisURL != "" && cfg.CacheTTL > 0 {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, "bannerserver")
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; background cache disabled")
		} else {
			bgCache = rc
			defer rc.Close()
		}
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	suggester, synth, err := newDesigner(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure design provider")
	}

	var policy selector.Policy = selector.NewUniformPolicy()
	if cfg.SelectionSeed != nil {
		policy = selector.NewSeededPolicy(*cfg.SelectionSeed)
	}
	selOpts := selector.Options{Policy: policy, Logger: logger}
	if cfg.TemplateSynthesis && synth != nil {
		selOpts.Synthesizer = synth
	}
	sel := selector.New(cat, selOpts)

	fetcher := background.NewFetcher(&http.Client{Timeout: cfg.CollaboratorTimeout}, store)
	bg, err := newBackground(cfg, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure background provider")
	}
	cachedBG := background.NewCached(bg, fetcher, bgCache, cfg.CacheTTL, logger)

	svc, err := compose.NewService(compose.Options{
		Selector:         sel,
		Suggester:        suggester,
		Background:       cachedBG,
		Fetcher:          fetcher,
		Logger:           logger.With().Str("component", "compose").Logger(),
		Attempts:         cfg.CollaboratorAttempts,
		RetryDelay:       cfg.CollaboratorBackoff,
		Timeout:          cfg.CollaboratorTimeout,
		MaxImages:        cfg.MaxImages,
		FontFamily:       cfg.FontFamily,
		BackgroundFormat: cfg.BackgroundFormat,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build banner service")
	}

	app := handlers.NewApp(cfg, logger, svc, cat)
	router := httpapi.NewRouter(app, cfg, logger, lookup)
	server := infra.NewHTTPServer(cfg, router, logger)

	go func() {
		logger.Info().
			Str("design", cfg.DesignProvider).
			Str("background", cfg.BackgroundProvider).
			Int("templates", cat.Len()).
			Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// loadCatalog returns the built-in catalog, extended with enabled templates
// from Postgres when a pool is available.
func loadCatalog(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.Builtin()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return cat, nil
	}
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	extra, err := catalog.NewStore(infra.NewSQLRunner(pool, logger)).Load(loadCtx)
	if err != nil {
		logger.Warn().Err(err).Msg("stored templates unavailable; using built-in catalog")
		return cat, nil
	}
	if len(extra) == 0 {
		return cat, nil
	}
	merged, skipped := cat.WithStored(extra)
	for _, err := range skipped {
		logger.Warn().Err(err).Msg("skipping stored template")
	}
	logger.Info().Int("count", len(extra)-len(skipped)).Int("skipped", len(skipped)).Msg("loaded stored templates")
	return merged, nil
}

// loadStoredKeys fills API keys missing from the environment with keys stored
// by cmd/providerkey.
func loadStoredKeys(ctx context.Context, cfg *infra.Config, store *credentials.Store, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	fill := func(dst *string, provider string) {
		if *dst != "" {
			return
		}
		key, err := store.APIKey(ctx, provider)
		if err != nil {
			logger.Warn().Err(err).Str("provider", provider).Msg("failed to read stored api key")
			return
		}
		*dst = key
	}
	fill(&cfg.GeminiAPIKey, credentials.ProviderGemini)
	fill(&cfg.OpenAIAPIKey, credentials.ProviderOpenAI)
	fill(&cfg.RunwareAPIKey, credentials.ProviderRunware)
}

func newDesigner(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (compose.Suggester, selector.Synthesizer, error) {
	log := logger.With().Str("component", "design").Logger()
	var model design.Completer
	switch cfg.DesignProvider {
	case infra.DesignProviderGemini:
		if cfg.GeminiAPIKey == "" {
			log.Warn().Msg("GEMINI_API_KEY not set; using static design suggestions")
			return design.NewStaticSuggester(), nil, nil
		}
		g, err := design.NewGeminiCompleter(ctx, design.GeminiOptions{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
		if err != nil {
			return nil, nil, err
		}
		model = g
	case infra.DesignProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY not set; using static design suggestions")
			return design.NewStaticSuggester(), nil, nil
		}
		o, err := design.NewOpenAICompleter(design.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			OnWarning: func(reason, detail string) {
				log.Warn().Str("reason", reason).Msg(detail)
			},
		})
		if err != nil {
			return nil, nil, err
		}
		model = o
	default:
		return design.NewStaticSuggester(), nil, nil
	}
	d := design.NewDesigner(model, log)
	return d, d, nil
}

func newBackground(cfg *infra.Config, store *storage.FileStore, logger zerolog.Logger) (background.Generator, error) {
	if cfg.BackgroundProvider == infra.BackgroundProviderRunware {
		if cfg.RunwareAPIKey != "" {
			g, err := background.NewRunwareGenerator(background.RunwareOptions{
				APIKey: cfg.RunwareAPIKey,
				APIURL: cfg.RunwareAPIURL,
				Model:  cfg.RunwareModel,
			})
			if err != nil {
				return nil, err
			}
			return g, nil
		}
		logger.Warn().Msg("RUNWARE_API_KEY not set; using gradient backgrounds")
	}
	return background.NewGradientGenerator(store, cfg.BackgroundFormat), nil
}
