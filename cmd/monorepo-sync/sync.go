package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/formio/monorepo-sync/pkg/config"
	"github.com/formio/monorepo-sync/pkg/github"
	"github.com/formio/monorepo-sync/pkg/log"
	"github.com/formio/monorepo-sync/pkg/sync"
	"github.com/formio/monorepo-sync/pkg/workspace"
)

var (
	syncPRNumber int
	syncDryRun   bool
	sincePR      int
	sinceDate    string
)

var syncCmd = &cobra.Command{
	Use:   "sync [pr-number]",
	Short: "Sync one merged pull request into the monorepo",
	Long: `Sync replays the file-level diff of a source-repository pull request
into the monorepo's package subdirectory and opens a sync PR.

The PR number comes from the positional argument, --pr, or the
MONOSYNC_PR environment variable, in that order.

With --since-pr or --since, instead of syncing, list merged pull
requests past the given bound (most recently updated first).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromCurrentDir()
		if err != nil {
			return err
		}
		if err := log.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		client := github.NewClient(cfg.Token, github.WithBaseURL(cfg.APIBaseURL))

		if sincePR > 0 || sinceDate != "" {
			return runList(cmd, cfg, client)
		}

		number, err := resolvePRNumber(args)
		if err != nil {
			return err
		}

		return runSync(cmd, cfg, client, number)
	},
}

// resolvePRNumber picks the PR number from the positional argument, the
// --pr flag, or the environment, in that order.
func resolvePRNumber(args []string) (int, error) {
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid PR number %q", args[0])
		}
		return n, nil
	}
	if syncPRNumber > 0 {
		return syncPRNumber, nil
	}
	if env := os.Getenv(config.PRNumberEnv); env != "" {
		n, err := strconv.Atoi(env)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid %s value %q", config.PRNumberEnv, env)
		}
		return n, nil
	}
	return 0, fmt.Errorf("a PR number is required (argument, --pr, or %s)", config.PRNumberEnv)
}

// runSync executes the end-to-end flow for one pull request: fetch,
// stage, replay, publish. Strictly sequential; every failure before
// publish is fatal.
func runSync(cmd *cobra.Command, cfg *config.Config, client *github.Client, number int) error {
	ctx := cmd.Context()

	log.Info("syncing pull request", "source", cfg.SourceFullName(), "pr", number)

	pr, err := client.FetchPR(ctx, cfg.SourceOwner, cfg.SourceRepo, number)
	if err != nil {
		return err
	}

	changes, err := client.FetchPRFiles(ctx, cfg.SourceOwner, cfg.SourceRepo, number)
	if err != nil {
		return err
	}
	log.Info("fetched change list", "pr", number, "files", len(changes))

	staging, err := workspace.Stage(ctx, workspace.StageRequest{
		RemoteURL:  workspace.CloneURL(cfg.MonorepoOwner, cfg.MonorepoRepo, cfg.Token),
		ScratchDir: cfg.ScratchDir,
		PRNumber:   number,
	})
	if err != nil {
		return err
	}

	replayer := sync.NewReplayer(cfg.SourceRoot, staging.TargetDir(cfg.PackageLocation))
	stats, err := replayer.ApplyAll(changes)
	if err != nil {
		return err
	}
	log.Info("replayed changes", "applied", stats.Applied, "skipped", stats.Skipped, "unknown", stats.Unknown)

	publisher := &sync.Publisher{
		VCS:        staging.Git,
		PRs:        client.Repo(cfg.MonorepoOwner, cfg.MonorepoRepo),
		Branch:     staging.Branch,
		BaseBranch: cfg.MonorepoBranch,
		SourceRepo: cfg.SourceFullName(),
		DryRun:     syncDryRun,
	}

	result, err := publisher.Publish(ctx, pr)
	if err != nil {
		return err
	}

	switch {
	case result.NoChanges:
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to sync for PR #%d: no changes under %s\n", number, cfg.PackageLocation)
	case result.DryRun:
		fmt.Fprintf(cmd.OutOrStdout(), "Dry run: PR #%d would be synced on branch %s\n", number, result.Branch)
	case result.PRError != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "Pushed branch %s but failed to open the sync PR; finish or clean up manually.\n", result.Branch)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Opened sync PR #%d: %s\n", result.PRNumber, result.PRURL)
	}

	return nil
}

// runList prints merged PRs past the --since-pr / --since bound.
func runList(cmd *cobra.Command, cfg *config.Config, client *github.Client) error {
	var since github.SinceRef
	switch {
	case sincePR > 0 && sinceDate != "":
		return fmt.Errorf("--since-pr and --since are mutually exclusive")
	case sincePR > 0:
		since.Number = sincePR
	default:
		t, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid --since date %q (expected YYYY-MM-DD)", sinceDate)
		}
		since.After = t
	}

	merged, err := client.ListMergedPRsSince(cmd.Context(), cfg.SourceOwner, cfg.SourceRepo, since)
	if err != nil {
		return err
	}

	if len(merged) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No merged pull requests past the given bound.")
		return nil
	}

	for _, pr := range merged {
		fmt.Fprintf(cmd.OutOrStdout(), "#%d\t%s\t%s\t%s\n", pr.Number, pr.MergedAt.Format("2006-01-02"), pr.Title, pr.HTMLURL)
	}
	return nil
}

func init() {
	syncCmd.Flags().IntVar(&syncPRNumber, "pr", 0, "PR number to sync")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Replay and report, but skip commit, push, and PR creation")
	syncCmd.Flags().IntVar(&sincePR, "since-pr", 0, "List merged PRs numbered after this instead of syncing")
	syncCmd.Flags().StringVar(&sinceDate, "since", "", "List merged PRs merged after this date (YYYY-MM-DD) instead of syncing")
	rootCmd.AddCommand(syncCmd)
}
