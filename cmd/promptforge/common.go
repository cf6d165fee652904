package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promptforge/promptforge/internal/adapters/id"
	"github.com/promptforge/promptforge/internal/adapters/postgres"
	"github.com/promptforge/promptforge/internal/application/usecases"
	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/prompteval"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfg *config.Config

// initDB initializes a database connection pool for CLI commands
func initDB(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Database.PostgresURL == "" {
		return nil, fmt.Errorf("PostgreSQL connection required. Set PF_POSTGRES_URL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Force UTC timezone to prevent timezone-related issues with TIMESTAMP columns
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}

// app bundles the wired usecases behind one construction point shared by
// serve and the workflow commands.
type app struct {
	managePrompts  *usecases.ManagePrompts
	manageDatasets *usecases.ManageDatasets
	evaluatePrompt *usecases.EvaluatePrompt
	improvePrompt  *usecases.ImprovePrompt
	runPrompt      *usecases.RunPrompt
	diffVersions   *usecases.DiffVersions
}

func buildApp(pool *pgxpool.Pool) *app {
	idGen := id.New()

	versionRepo := postgres.NewPromptVersionRepository(pool)
	datasetRepo := postgres.NewDatasetRepository(pool)
	evaluationRepo := postgres.NewEvaluationRepository(pool, idGen)
	improvementRepo := postgres.NewImprovementRepository(pool)
	txManager := postgres.NewTransactionManager(pool)

	executionClient := llm.NewClient(
		cfg.Execution.URL,
		cfg.Execution.APIKey,
		llm.WithModel(cfg.Execution.Model),
		llm.WithMaxTokens(cfg.Execution.MaxTokens),
		llm.WithPurpose("execute"),
		llm.WithTimeout(cfg.Execution.Timeout()),
	)
	judgeClient := llm.NewClient(
		cfg.Judge.URL,
		cfg.Judge.APIKey,
		llm.WithModel(cfg.Judge.Model),
		llm.WithMaxTokens(cfg.Judge.MaxTokens),
		llm.WithPurpose("judge"),
		llm.WithTimeout(cfg.Judge.Timeout()),
	)
	generationClient := llm.NewClient(
		cfg.Generation.URL,
		cfg.Generation.APIKey,
		llm.WithModel(cfg.Generation.Model),
		llm.WithMaxTokens(cfg.Generation.MaxTokens),
		llm.WithPurpose("synthesize"),
		llm.WithTimeout(cfg.Generation.Timeout()),
	)

	executor := llm.NewExecutor(executionClient, cfg.Execution.Temperature)
	judgeBackend := llm.NewJudgeBackend(judgeClient)
	synthesizer := llm.NewSynthesizer(generationClient, cfg.Generation.Temperature)

	judgeCache := prompteval.NewJudgeCache(cfg.Evaluation.CacheTTL(), cfg.Evaluation.CacheMaxSize)
	judge := prompteval.NewJudge(judgeBackend, judgeCache)
	runner := prompteval.NewRunner(executor, judge, idGen, prompteval.RunnerConfig{
		Parallelism:    cfg.Evaluation.Parallelism,
		ExecuteTimeout: cfg.Evaluation.ExecTimeout(),
		JudgeTimeout:   cfg.Evaluation.JudgeTimeout(),
	})
	generator := prompteval.NewGenerator(synthesizer, idGen, nil)
	policy := prompteval.PromotionPolicy{
		ImprovementThreshold: cfg.Promotion.ImprovementThreshold,
		MinFormatPassRate:    cfg.Promotion.MinFormatPassRate,
		RegressionGuardrail:  cfg.Promotion.RegressionGuardrail,
		PendingBand:          cfg.Promotion.PendingBand,
		MaxCandidates:        cfg.Promotion.MaxCandidates,
	}

	return &app{
		managePrompts:  usecases.NewManagePrompts(versionRepo, txManager, idGen, nil),
		manageDatasets: usecases.NewManageDatasets(datasetRepo, idGen, nil),
		evaluatePrompt: usecases.NewEvaluatePrompt(versionRepo, datasetRepo, evaluationRepo, runner, idGen, nil),
		improvePrompt: usecases.NewImprovePrompt(
			versionRepo, datasetRepo, evaluationRepo, improvementRepo,
			txManager, runner, generator, policy, idGen, nil),
		runPrompt:    usecases.NewRunPrompt(versionRepo, executor),
		diffVersions: usecases.NewDiffVersions(versionRepo),
	}
}

// maskSecret masks a secret string for display
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "(set)"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
