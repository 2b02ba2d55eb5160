package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/genai"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/config"
	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
	"github.com/FACorreiaa/loci-search-core/internal/pkg/middleware"
	"github.com/FACorreiaa/loci-search-core/internal/pkg/tracer"
	"github.com/FACorreiaa/loci-search-core/internal/search/jobstore"
	"github.com/FACorreiaa/loci-search-core/internal/search/llmclient"
	"github.com/FACorreiaa/loci-search-core/internal/search/orchestrator"
	"github.com/FACorreiaa/loci-search-core/internal/search/provider"
	"github.com/FACorreiaa/loci-search-core/internal/search/registry"
	"github.com/FACorreiaa/loci-search-core/internal/search/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, continuing with process environment")
	}

	cfg := config.Load()

	if err := logger.Init(zapcore.InfoLevel, zap.String("port", cfg.ServerPort), zap.String("service", "searchengine")); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	logger.Log.Info("starting search engine")

	shutdownTracer := tracer.Init("searchengine")
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Log.Error("tracer shutdown failed", zap.Error(err))
		}
	}()

	llm, err := buildLLMClient(cfg)
	if err != nil {
		logger.Log.Fatal("failed to build LLM client", zap.Error(err))
	}

	places := provider.NewHTTPClient(provider.HTTPClientConfig{
		BaseURL: cfg.PlacesBaseURL,
		APIKey:  cfg.PlacesAPIKey,
	})

	jobs, err := buildJobStore(cfg)
	if err != nil {
		logger.Log.Fatal("failed to build job store", zap.Error(err))
	}
	defer jobs.Close()

	cities, err := registry.LoadCityAliasTable()
	if err != nil {
		logger.Log.Fatal("failed to load city alias table", zap.Error(err))
	}
	landmarks, err := registry.LoadLandmarkRegistry()
	if err != nil {
		logger.Log.Fatal("failed to load landmark registry", zap.Error(err))
	}

	orch, err := orchestrator.New(orchestrator.Deps{
		Config:    cfg,
		Jobs:      jobs,
		Sessions:  session.New(),
		LLM:       llm,
		Places:    places,
		Landmarks: landmarks,
		Cities:    cities,
	})
	if err != nil {
		logger.Log.Fatal("failed to construct orchestrator", zap.Error(err))
	}

	go runStaleSweep(jobs, cfg)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.ObservabilityMiddleware())
	r.Use(sessionIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityMiddleware())

	h := NewHandler(orch, jobs)
	r.POST("/search", h.SubmitSearch)
	r.GET("/search/:requestId/result", h.PollResult)
	r.DELETE("/search/:requestId", h.CancelSearch)
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{Addr: ":" + cfg.ServerPort, Handler: r}
	go func() {
		logger.Log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server exited", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("shutdown signal received")
	orch.Stop(10 * time.Second)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("server shutdown error", zap.Error(err))
	}
}

// buildLLMClient wraps a configured genai.Client in the llmclient.Client
// port; with no API key set the orchestrator still starts, but every
// LLM-backed stage runs its deterministic fallback path exclusively.
func buildLLMClient(cfg *config.SearchConfig) (llmclient.Client, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Log.Warn("GEMINI_API_KEY not set, running with LLM stages degraded to fallback-only")
		return llmclient.NoopClient{}, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return llmclient.NewGenaiClient(client, cfg.GeminiModel), nil
}

// buildJobStore picks Redis when the persistent job store is enabled and an
// address is configured (multi-instance deployments), falling back to the
// in-process MemoryStore otherwise or when the Redis ping fails.
func buildJobStore(cfg *config.SearchConfig) (jobstore.Store, error) {
	if !cfg.EnablePersistentJobStore || cfg.RedisAddr == "" {
		return jobstore.NewMemoryStore(cfg.PersistentStoreTTL, cfg.IdempotencyFreshWindow), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Log.Warn("redis ping failed, falling back to in-memory job store", zap.Error(err))
		_ = rdb.Close()
		return jobstore.NewMemoryStore(cfg.PersistentStoreTTL, cfg.IdempotencyFreshWindow), nil
	}

	redisCfg := jobstore.DefaultRedisStoreConfig()
	redisCfg.TTL = cfg.PersistentStoreTTL
	redisCfg.IdempotencyFreshWindow = cfg.IdempotencyFreshWindow
	return jobstore.NewRedisStore(rdb, redisCfg), nil
}

// runStaleSweep periodically reaps RUNNING jobs that stopped heartbeating,
// the orphan-sweep half of the orchestrator's shutdown/staleness contract.
func runStaleSweep(jobs jobstore.Store, cfg *config.SearchConfig) {
	interval := cfg.StaleRunningThreshold
	if interval <= 0 {
		interval = 90 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		n, err := jobs.SweepStale(context.Background())
		if err != nil {
			logger.Log.Warn("stale job sweep failed", zap.Error(err))
			continue
		}
		if n > 0 {
			logger.Log.Info("swept stale jobs", zap.Int("count", n))
		}
	}
}
