package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"noteferry/internal/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Classify the remote batch against the vault",
	Long: `Fetch the remote document batch and report, for each document, whether
it is new, already imported, updated remotely, or in conflict with a
locally modified note. Nothing is written.

Examples:
  noteferry-cli check
  noteferry-cli check --vault ~/notes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		docs, err := fetcher.FetchDocuments(ctx)
		if err != nil {
			return err
		}
		if err := index.Initialize(ctx); err != nil {
			return err
		}
		statuses, err := index.CheckDocuments(ctx, docs)
		if err != nil {
			return err
		}

		counts := make(map[domain.StatusKind]int)
		for _, doc := range docs {
			status := statuses[doc.ID]
			counts[status.Kind]++
			fmt.Printf("%-10s %-12s %q", status.Kind, doc.ID, doc.Title)
			if status.Reason != "" {
				fmt.Printf("  (%s)", status.Reason)
			}
			fmt.Println()
		}

		fmt.Printf("\n%d documents: %d new, %d exist, %d updated, %d conflict\n",
			len(docs),
			counts[domain.StatusNew],
			counts[domain.StatusExists],
			counts[domain.StatusUpdated],
			counts[domain.StatusConflict])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
