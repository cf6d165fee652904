package main

import (
	"fmt"
	"os"

	"github.com/promptforge/promptforge/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptforge",
		Short: "PromptForge - prompt CI/CD engine",
		Long: `PromptForge versions prompts, evaluates them against datasets with an
LLM judge, and promotes improved candidates behind explicit guardrails.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		evaluateCmd(),
		improveCmd(),
		diffCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configCmd shows current configuration
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Current configuration:")
			fmt.Println()

			for _, section := range []struct {
				name string
				llm  config.LLMConfig
			}{
				{"Execution model", cfg.Execution},
				{"Judge model", cfg.Judge},
				{"Generation model", cfg.Generation},
			} {
				fmt.Printf("%s:\n", section.name)
				fmt.Printf("  URL:         %s\n", section.llm.URL)
				fmt.Printf("  Model:       %s\n", section.llm.Model)
				fmt.Printf("  Max Tokens:  %d\n", section.llm.MaxTokens)
				fmt.Printf("  Temperature: %.2f\n", section.llm.Temperature)
				fmt.Printf("  API Key:     %s\n", maskSecret(section.llm.APIKey))
				fmt.Println()
			}

			fmt.Println("Promotion policy:")
			fmt.Printf("  Improvement Threshold: %.3f\n", cfg.Promotion.ImprovementThreshold)
			fmt.Printf("  Min Format Pass Rate:  %.3f\n", cfg.Promotion.MinFormatPassRate)
			fmt.Printf("  Regression Guardrail:  %.3f\n", cfg.Promotion.RegressionGuardrail)
			fmt.Printf("  Pending Band:          %.3f\n", cfg.Promotion.PendingBand)
			fmt.Printf("  Max Candidates:        %d\n", cfg.Promotion.MaxCandidates)
			fmt.Println()

			fmt.Println("Database:")
			fmt.Printf("  PostgreSQL: %s\n", maskSecret(cfg.Database.PostgresURL))
			fmt.Println()

			fmt.Println("Environment variables:")
			fmt.Println("  PF_EXECUTION_URL, PF_EXECUTION_API_KEY, PF_EXECUTION_MODEL")
			fmt.Println("  PF_JUDGE_URL, PF_JUDGE_API_KEY, PF_JUDGE_MODEL")
			fmt.Println("  PF_GENERATION_URL, PF_GENERATION_API_KEY, PF_GENERATION_MODEL")
			fmt.Println("  PF_IMPROVEMENT_THRESHOLD, PF_MAX_CANDIDATES")
			fmt.Println("  PF_POSTGRES_URL, PF_SERVER_PORT, PF_CORS_ORIGINS")

			return nil
		},
	}
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PromptForge %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)
		},
	}
}
