package main

import (
	"fmt"
	"sort"

	"github.com/promptforge/promptforge/internal/ports"
	"github.com/spf13/cobra"
)

// evaluateCmd runs one evaluation from the command line
func evaluateCmd() *cobra.Command {
	var (
		promptName string
		version    string
		datasetID  string
		dimensions []string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a prompt version against a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			application := buildApp(pool)
			run, err := application.evaluatePrompt.Execute(ctx, &ports.EvaluatePromptInput{
				PromptName: promptName,
				Version:    version,
				DatasetID:  datasetID,
				Dimensions: dimensions,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Evaluation %s completed for %s@%s\n", run.ID, run.PromptName, run.PromptVersion)
			fmt.Printf("  Overall score:    %.4f\n", run.OverallScore)
			fmt.Printf("  Passed / total:   %d / %d\n", run.PassedExamples, run.TotalExamples)
			fmt.Printf("  Format pass rate: %.4f\n", run.FormatPassRate)

			dims := make([]string, 0, len(run.DimensionScores))
			for dim := range run.DimensionScores {
				dims = append(dims, dim)
			}
			sort.Strings(dims)
			for _, dim := range dims {
				fmt.Printf("  %-12s %.4f\n", dim+":", run.DimensionScores[dim])
			}

			if len(run.FailureCases) > 0 {
				fmt.Printf("\n%d failure case(s) recorded; first reason: %s\n",
					len(run.FailureCases), run.FailureCases[0].FailureReason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&promptName, "prompt", "", "prompt name (required)")
	cmd.Flags().StringVar(&version, "version", "", "prompt version (default: active)")
	cmd.Flags().StringVar(&datasetID, "dataset", "", "dataset id (required)")
	cmd.Flags().StringSliceVar(&dimensions, "dimensions", nil, "judge dimensions (default: all)")
	cmd.MarkFlagRequired("prompt")
	cmd.MarkFlagRequired("dataset")

	return cmd
}
