package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/promptforge/promptforge/internal/adapters/http"
	"github.com/promptforge/promptforge/internal/adapters/tracing"
	"github.com/spf13/cobra"
)

// serveCmd starts the HTTP API server
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the PromptForge HTTP API server.

The server provides REST endpoints for prompt versioning, dataset
management, evaluation runs, and improvement pipelines.

Required configuration:
  - PostgreSQL database (PF_POSTGRES_URL)
  - Execution model endpoint (PF_EXECUTION_URL)
  - Judge model endpoint (PF_JUDGE_URL)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// runServer initializes and starts the HTTP API server
func runServer(ctx context.Context) error {
	log.Println("Starting PromptForge API server...")
	log.Printf("  HTTP:       http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("  Execution:  %s (%s)", cfg.Execution.URL, cfg.Execution.Model)
	log.Printf("  Judge:      %s (%s)", cfg.Judge.URL, cfg.Judge.Model)
	log.Printf("  Generation: %s (%s)", cfg.Generation.URL, cfg.Generation.Model)

	shutdown, err := tracing.InitTracer("promptforge-api")
	if err != nil {
		log.Printf("Warning: Failed to initialize tracing: %v", err)
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Printf("Error shutting down tracer: %v", err)
			}
		}()
	}

	pool, err := initDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Println("Database connection established")

	application := buildApp(pool)
	server := http.NewServer(
		cfg,
		pool,
		application.managePrompts,
		application.manageDatasets,
		application.evaluatePrompt,
		application.improvePrompt,
		application.runPrompt,
		application.diffVersions,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	}
}
