// Entry point: loads config, wires storage, maps and AI clients, and serves
// the quoting API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"etoile/internal/ai"
	"etoile/internal/config"
	httptransport "etoile/internal/http"
	"etoile/internal/http/handlers"
	"etoile/internal/infra"
	"etoile/internal/maps"
	"etoile/internal/modules/orgconfig"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("database init", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	store := orgconfig.NewStore(dbPool)
	bundles := orgconfig.NewBundleCache(store, redisClient,
		time.Duration(cfg.Redis.BundleTTLSeconds)*time.Second, logger)

	quoteHandler := handlers.NewQuoteHandler(bundles, store, store)

	if cfg.Maps.APIKey != "" {
		routes, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps init", zap.Error(err))
		}
		geocoder, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps init", zap.Error(err))
		}
		quoteHandler.WithRoutes(routes).WithGeocoder(geocoder)
	} else {
		logger.Warn("MAPS_API_KEY not set, requests must carry their own estimates")
	}

	if cfg.AI.GeminiKey != "" {
		explainer, err := ai.NewGeminiExplainer(ctx, cfg.AI.GeminiKey)
		if err != nil {
			logger.Fatal("gemini init", zap.Error(err))
		}
		defer explainer.Close()
		quoteHandler.WithExplainer(explainer)
	} else {
		logger.Warn("GEMINI_API_KEY not set, explain endpoint disabled")
	}

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httptransport.NewRouter(logger, quoteHandler),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}
