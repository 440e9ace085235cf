package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rrowland/crit/internal/store"
)

// HistoryReader defines the dependency required to run the history command.
type HistoryReader interface {
	ListReviewed(ctx context.Context, owner, repo string, limit int) ([]store.ReviewedPR, error)
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// historyCommand creates the history subcommand. Without flags it lists
// recent local runs; with --owner and --repo it lists reviewed pull
// requests for that repository.
func historyCommand(deps Dependencies) *cobra.Command {
	var owner string
	var repo string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent reviews from the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.History == nil {
				return errors.New("review history is not available; enable the store in configuration")
			}
			if limit <= 0 {
				return errors.New("--limit must be a positive integer")
			}
			if (owner == "") != (repo == "") {
				return errors.New("--owner and --repo must be set together")
			}

			out := cmd.OutOrStdout()

			if owner != "" {
				reviewed, err := deps.History.ListReviewed(cmd.Context(), owner, repo, limit)
				if err != nil {
					return fmt.Errorf("failed to list reviewed pull requests: %w", err)
				}
				if len(reviewed) == 0 {
					_, _ = fmt.Fprintf(out, "No reviewed pull requests recorded for %s/%s.\n", owner, repo)
					return nil
				}
				for _, rec := range reviewed {
					_, _ = fmt.Fprintf(out, "%s/%s#%d %s %s/%s %d finding(s) %s\n",
						rec.Owner, rec.Repo, rec.Number, shortSHA(rec.HeadSHA),
						rec.Provider, rec.Model, rec.FindingCount,
						rec.ReviewedAt.UTC().Format("2006-01-02T15:04:05Z"))
				}
				return nil
			}

			runs, err := deps.History.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "No local runs recorded.")
				return nil
			}
			for _, run := range runs {
				_, _ = fmt.Fprintf(out, "%s %s %s..%s %s/%s %d finding(s) %s\n",
					run.RunID, run.Repository, run.BaseRef, run.TargetRef,
					run.Provider, run.Model, run.FindingCount,
					run.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Repository owner; lists reviewed pull requests when set with --repo")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository name; lists reviewed pull requests when set with --owner")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show")

	return cmd
}

// shortSHA abbreviates a commit SHA for display.
func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
