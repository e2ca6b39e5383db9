package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spendtext/spendtext/internal/api"
	"github.com/spendtext/spendtext/internal/api/middleware"
	"github.com/spendtext/spendtext/internal/config"
	"github.com/spendtext/spendtext/internal/entitlement"
	"github.com/spendtext/spendtext/internal/llm"
	"github.com/spendtext/spendtext/internal/logger"
	"github.com/spendtext/spendtext/internal/parser"
	"github.com/spendtext/spendtext/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()

	// Database
	db, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Model backends. Gemini is always present; an OpenAI-compatible
	// backend joins the rotation when credentials are configured.
	gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	backends := []llm.ChatClient{gemini}
	if cfg.OpenAIAPIKey != "" {
		backends = append(backends, llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel))
	}

	pool, err := llm.NewPool(llm.NewRoundRobin(), cfg.ModelTimeout, backends...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model pool")
	}
	log.Info().Int("backends", len(backends)).Msg("Model pool ready")

	// Entitlements and the parsing pipeline
	entitlements := entitlement.NewService(entitlement.StaticPlans{Plan: entitlement.PlanFree}, db)
	p := parser.New(pool, entitlements, parser.WithDefaultCurrency(cfg.DefaultCurrency))

	// HTTP stack
	router := api.NewRouter(api.Deps{
		Parser:       p,
		Store:        db,
		Entitlements: entitlements,
		JWTSecret:    []byte(cfg.JWTSecret),
		RateLimiter:  middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Log:          log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
