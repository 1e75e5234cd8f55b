package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"copilot/internal/cache"
	"copilot/internal/config"
	agenterrors "copilot/internal/errors"
	"copilot/internal/external"
	"copilot/internal/llm"
	"copilot/internal/logging"
	"copilot/internal/orchestrator"
	"copilot/internal/server"
	"copilot/internal/session"
	"copilot/internal/skills"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "copilot-server",
		Short: "ERP agent orchestration server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	logger := logging.NewComponentLogger("Main")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Info("Starting copilot server on %s:%d (model %s)", cfg.Server.Host, cfg.Server.Port, cfg.LLM.Model)

	ctx := context.Background()

	var store session.Store
	if cfg.Sessions.Dir != "" {
		fileStore, err := session.NewFileStore(cfg.Sessions.Dir)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		store = fileStore
		logger.Info("Persisting sessions under %s", cfg.Sessions.Dir)
	} else {
		store = session.NewMemoryStore()
		logger.Info("Using in-memory session store")
	}

	lru, err := cache.NewLRUStore(cfg.Cache.MaxEntries)
	if err != nil {
		return fmt.Errorf("create cache store: %w", err)
	}
	responseCache := cache.New(lru, cfg.Cache.Namespace, cfg.Cache.DefaultTTL)

	retry := agenterrors.RetryConfig{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
	}

	baseURLs := make(map[string]string, len(cfg.Services))
	for name, svc := range cfg.Services {
		baseURLs[name] = svc.BaseURL
	}
	client := external.NewClient(baseURLs, retry)

	registry := skills.NewMemoryRegistry()
	if cfg.Skills.File != "" {
		defs, err := skills.LoadFile(cfg.Skills.File)
		if err != nil {
			return fmt.Errorf("load skills: %w", err)
		}
		if err := skills.Populate(ctx, registry, defs); err != nil {
			return fmt.Errorf("register skills: %w", err)
		}
		logger.Info("Loaded %d skill definitions from %s", len(defs), cfg.Skills.File)
	}
	if err := skills.Populate(ctx, registry, skills.Defaults()); err != nil {
		return fmt.Errorf("register default skills: %w", err)
	}

	router := skills.NewRouter(registry, client, logging.NewComponentLogger("SkillRouter"))

	completion := llm.NewRetryClient(
		llm.NewOpenAIClient(llm.Config{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		}),
		retry,
		logging.NewComponentLogger("LLMRetry"),
	)

	reg := prometheus.NewRegistry()
	orch := orchestrator.New(store, responseCache, completion, router,
		orchestrator.NewMetrics(reg),
		orchestrator.Config{
			ResponseTTL: cfg.Cache.ResponseTTL,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			TopP:        cfg.LLM.TopP,
		},
		logging.NewComponentLogger("Orchestrator"))

	srv := server.New(orch, registry, reg, server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
