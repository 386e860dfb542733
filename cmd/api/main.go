package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"adcraft/internal/catalog"
	"adcraft/internal/http/handlers"
	httpapi "adcraft/internal/http/httpapi"
	"adcraft/internal/infra"
	"adcraft/internal/infra/geoip"
	"adcraft/internal/providers/bria"
	"adcraft/internal/providers/genai"
	"adcraft/internal/providers/image"
	"adcraft/internal/providers/prompt"
	"adcraft/internal/providers/video"
	"adcraft/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize result store")
	}

	cat, err := catalog.Open(cfg.CatalogDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open asset catalog")
	}
	defer cat.Close()

	countries, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
		countries = nil
	}

	briaClient, err := bria.NewClient(bria.Options{
		APIKey:            cfg.BriaAPIKey,
		BaseURL:           cfg.BriaBaseURL,
		Logger:            &logger,
		RequestsPerMinute: cfg.BriaRateLimitPerMin,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure image engine client")
	}

	genaiClient, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GoogleAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		VideoModel: cfg.VeoModel,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure genai client")
	}

	imageProvider := image.NewBriaProvider(briaClient)
	enhancer := prompt.NewGeminiEnhancer(genaiClient, prompt.NewStaticEnhancer())
	videos := video.NewVeoGenerator(genaiClient, cfg.VideoPollInterval, cfg.VideoPollMaxAttempts)

	app := handlers.NewApp(handlers.Options{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Catalog:  cat,
		Images:   imageProvider,
		Editor:   imageProvider,
		Enhancer: enhancer,
		Videos:   videos,
	})

	router := httpapi.NewRouter(app, countries)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
