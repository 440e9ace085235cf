package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rrowland/crit/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// PullRequestReviewer defines the dependency required to run the pr command.
type PullRequestReviewer interface {
	ReviewPullRequest(ctx context.Context, req review.PullRequestRequest) (review.PullRequestResult, error)
}

// LocalReviewer defines the dependency required to run the local command.
type LocalReviewer interface {
	ReviewLocal(ctx context.Context, req review.LocalRequest) (review.LocalResult, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// DefaultReviewActions holds default review action configuration from config.
type DefaultReviewActions struct {
	OnCritical string
	OnHigh     string
	OnMedium   string
	OnLow      string
	OnClean    string
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	PullRequests         PullRequestReviewer
	Local                LocalReviewer
	History              HistoryReader
	Args                 Arguments
	DefaultOutput        string
	DefaultRepo          string
	DefaultReviewActions DefaultReviewActions
	DefaultBotUsername   string // Bot username for auto-dismissing stale reviews
	Version              string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "crit",
		Short: "LLM-backed code review CLI",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Run a code review",
	}
	reviewCmd.AddCommand(prCommand(deps))
	reviewCmd.AddCommand(localCommand(deps))
	root.AddCommand(reviewCmd)
	root.AddCommand(checkSkipCommand())
	root.AddCommand(historyCommand(deps))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func prCommand(deps Dependencies) *cobra.Command {
	var owner string
	var repo string
	var number int
	var force bool
	var outputDir string
	var assumeYes bool

	// Review action override flags
	var actionCritical string
	var actionHigh string
	var actionMedium string
	var actionLow string
	var actionClean string

	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Review a pull request and post the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.PullRequests == nil {
				return errors.New("pull request reviewing is not configured; set a GitHub token")
			}
			if owner == "" || repo == "" {
				return errors.New("--owner and --repo are required")
			}
			if number <= 0 {
				return errors.New("--number must be a positive integer")
			}

			// In an interactive terminal, confirm before posting to the
			// pull request. Non-interactive runs (CI) proceed directly.
			if !assumeYes && review.IsInteractive() {
				ok, err := confirm(cmd, fmt.Sprintf("Post review to %s/%s#%d? [y/N]: ", owner, repo, number))
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			result, err := deps.PullRequests.ReviewPullRequest(cmd.Context(), review.PullRequestRequest{
				Owner:            owner,
				Repo:             repo,
				Number:           number,
				Force:            force,
				OutputDir:        outputDir,
				ActionOnCritical: resolveAction(actionCritical, deps.DefaultReviewActions.OnCritical),
				ActionOnHigh:     resolveAction(actionHigh, deps.DefaultReviewActions.OnHigh),
				ActionOnMedium:   resolveAction(actionMedium, deps.DefaultReviewActions.OnMedium),
				ActionOnLow:      resolveAction(actionLow, deps.DefaultReviewActions.OnLow),
				ActionOnClean:    resolveAction(actionClean, deps.DefaultReviewActions.OnClean),
				BotUsername:      resolveBotUsername(deps.DefaultBotUsername),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Skipped {
				_, _ = fmt.Fprintf(out, "Skipped %s/%s#%d: head commit already reviewed or review opted out.\n",
					owner, repo, number)
				return nil
			}

			_, _ = fmt.Fprintf(out, "Reviewed %s/%s#%d: %d finding(s) across %d file(s).\n",
				owner, repo, number, len(result.Review.Findings), result.Stats.TotalFiles)
			if result.Posted != nil {
				_, _ = fmt.Fprintf(out, "Posted review: %d comment(s), %d skipped.\n",
					result.Posted.CommentsPosted, result.Posted.CommentsSkipped)
				if result.Posted.HTMLURL != "" {
					_, _ = fmt.Fprintln(out, result.Posted.HTMLURL)
				}
			}
			if result.MarkdownPath != "" {
				_, _ = fmt.Fprintf(out, "Report written to %s\n", result.MarkdownPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Repository owner (user or org)")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository name")
	cmd.Flags().IntVar(&number, "number", 0, "Pull request number")
	cmd.Flags().BoolVar(&force, "force", false, "Review even if the head commit was already reviewed")
	cmd.Flags().StringVar(&outputDir, "output", "", "Also write a Markdown report to this directory")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the interactive confirmation prompt")

	cmd.Flags().StringVar(&actionCritical, "action-critical", "", "Review action for critical severity (approve, comment, request_changes)")
	cmd.Flags().StringVar(&actionHigh, "action-high", "", "Review action for high severity (approve, comment, request_changes)")
	cmd.Flags().StringVar(&actionMedium, "action-medium", "", "Review action for medium severity (approve, comment, request_changes)")
	cmd.Flags().StringVar(&actionLow, "action-low", "", "Review action for low severity (approve, comment, request_changes)")
	cmd.Flags().StringVar(&actionClean, "action-clean", "", "Review action when no findings (approve, comment, request_changes)")

	return cmd
}

func localCommand(deps Dependencies) *cobra.Command {
	var baseRef string
	var targetRef string
	var outputDir string
	var repository string
	var includeUncommitted bool
	var detectTarget bool

	cmd := &cobra.Command{
		Use:   "local [target]",
		Short: "Review a local branch against a base reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Local == nil {
				return errors.New("local reviewing is not configured")
			}
			if len(args) > 0 {
				targetRef = args[0]
			}
			ctx := cmd.Context()
			if targetRef == "" && detectTarget {
				resolved, err := deps.Local.CurrentBranch(ctx)
				if err != nil {
					return fmt.Errorf("detect target branch: %w", err)
				}
				targetRef = resolved
			}
			if targetRef == "" {
				return errors.New("target branch not specified; pass as an argument, use --target, or enable --detect-target")
			}

			result, err := deps.Local.ReviewLocal(ctx, review.LocalRequest{
				BaseRef:            baseRef,
				TargetRef:          targetRef,
				IncludeUncommitted: includeUncommitted,
				Repository:         repository,
				OutputDir:          outputDir,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Reviewed %s against %s: %d finding(s) across %d file(s).\n",
				result.TargetRef, baseRef, len(result.Review.Findings), result.Stats.TotalFiles)
			if result.MarkdownPath != "" {
				_, _ = fmt.Fprintf(out, "Report written to %s\n", result.MarkdownPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", "main", "Base reference to diff against")
	cmd.Flags().StringVar(&targetRef, "target", "", "Target branch to review (overrides positional)")
	if deps.DefaultOutput == "" {
		deps.DefaultOutput = "out"
	}
	cmd.Flags().StringVar(&outputDir, "output", deps.DefaultOutput, "Directory to write review reports")
	cmd.Flags().StringVar(&repository, "repository", deps.DefaultRepo, "Optional repository name override")
	cmd.Flags().BoolVar(&includeUncommitted, "include-uncommitted", false, "Include uncommitted changes on the target branch")
	cmd.Flags().BoolVar(&detectTarget, "detect-target", true, "Automatically detect the checked out branch when no target is provided")

	return cmd
}

// confirm prompts on the command's output and reads a yes/no answer
// from its input. Only "y" and "yes" count as confirmation.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), prompt)

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// resolveAction returns the override value if non-empty, otherwise the default.
func resolveAction(override, defaultValue string) string {
	if override != "" {
		return override
	}
	return defaultValue
}

// resolveBotUsername maps the configured bot username to what the
// poster expects. Empty falls back to the GitHub Actions bot; "none"
// disables stale review dismissal.
func resolveBotUsername(configured string) string {
	resolved := strings.TrimSpace(configured)
	if resolved == "" {
		return "github-actions[bot]"
	}
	if strings.EqualFold(resolved, "none") {
		return "none"
	}
	return resolved
}
