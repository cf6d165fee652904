package main

import (
	"fmt"

	"github.com/promptforge/promptforge/internal/ports"
	"github.com/spf13/cobra"
)

// improveCmd runs the improvement pipeline from the command line
func improveCmd() *cobra.Command {
	var (
		promptName    string
		version       string
		datasetID     string
		threshold     float64
		maxCandidates int
	)

	cmd := &cobra.Command{
		Use:   "improve",
		Short: "Generate and evaluate prompt candidates, promoting a clear winner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			application := buildApp(pool)
			run, err := application.improvePrompt.Execute(ctx, &ports.ImprovePromptInput{
				PromptName:           promptName,
				BaselineVersion:      version,
				DatasetID:            datasetID,
				ImprovementThreshold: threshold,
				MaxCandidates:        maxCandidates,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Improvement %s: %s\n", run.ID, run.PromotionDecision)
			fmt.Printf("  Baseline:  %s@%s scored %.4f\n", run.PromptName, run.BaselineVersion, run.BaselineScore)
			if run.BestCandidateScore != nil {
				fmt.Printf("  Best:      %s scored %.4f (delta %+.4f)\n",
					run.BestCandidateVersion, *run.BestCandidateScore, *run.ImprovementDelta)
			}
			fmt.Printf("  Candidates: %d generated, %d evaluated\n", run.CandidatesGenerated, run.CandidatesEvaluated)
			fmt.Printf("  Reason:    %s\n", run.PromotionReason)
			return nil
		},
	}

	cmd.Flags().StringVar(&promptName, "prompt", "", "prompt name (required)")
	cmd.Flags().StringVar(&version, "version", "", "baseline version (default: active)")
	cmd.Flags().StringVar(&datasetID, "dataset", "", "dataset id (required)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "improvement threshold override")
	cmd.Flags().IntVar(&maxCandidates, "max-candidates", 0, "max candidates override")
	cmd.MarkFlagRequired("prompt")
	cmd.MarkFlagRequired("dataset")

	return cmd
}
