package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// diffCmd shows a line diff between two versions of a prompt
func diffCmd() *cobra.Command {
	var (
		promptName string
		from       string
		to         string
		changelog  bool
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Diff two versions of a prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			application := buildApp(pool)
			if changelog {
				text, err := application.diffVersions.Changelog(ctx, promptName, from, to)
				if err != nil {
					return err
				}
				fmt.Println(text)
				return nil
			}

			diff, err := application.diffVersions.Execute(ctx, promptName, from, to)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n\n", diff.ChangesSummary, promptName)
			fmt.Print(diff.DiffText)
			return nil
		},
	}

	cmd.Flags().StringVar(&promptName, "prompt", "", "prompt name (required)")
	cmd.Flags().StringVar(&from, "from", "", "older version (required)")
	cmd.Flags().StringVar(&to, "to", "", "newer version (required)")
	cmd.Flags().BoolVar(&changelog, "changelog", false, "render a human-readable changelog instead of a raw diff")
	cmd.MarkFlagRequired("prompt")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}
