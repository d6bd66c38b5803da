// Package workspace stages a disposable clone of the monorepo for one
// sync run. The clone directory is destroyed and recreated on every run
// and is never shared or reused.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/formio/monorepo-sync/pkg/git"
	"github.com/formio/monorepo-sync/pkg/log"
)

// StageRequest describes the clone to stage.
type StageRequest struct {
	// RemoteURL is the monorepo clone URL, credentials included.
	RemoteURL string

	// ScratchDir is the root under which per-run clones live.
	ScratchDir string

	// PRNumber is the PR being synced; it keys the clone directory and
	// the branch name so concurrent runs for different PRs do not
	// trample each other.
	PRNumber int

	// Now returns the current time; nil means time.Now. Tests override
	// it to get deterministic branch names.
	Now func() time.Time
}

// Staging is the staged monorepo clone on its fresh sync branch.
type Staging struct {
	// Dir is the clone's root directory.
	Dir string

	// Branch is the checked-out sync branch.
	Branch string

	// Git operates on the clone.
	Git *git.Client
}

// TargetDir resolves the replay target root for a package location.
func (s *Staging) TargetDir(packageLocation string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(packageLocation))
}

// Stage removes any previous clone for this PR, shallow-clones the
// monorepo, and checks out a uniquely named sync branch. Any failure
// is fatal to the run; no partial recovery is attempted.
func Stage(ctx context.Context, req StageRequest) (*Staging, error) {
	now := req.Now
	if now == nil {
		now = time.Now
	}

	dir := filepath.Join(req.ScratchDir, fmt.Sprintf("pr-%d", req.PRNumber))

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to remove previous clone at %s: %w", dir, err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	log.Info("staging monorepo clone", "dir", dir)
	client, err := git.Clone(ctx, git.CloneOptions{
		Source: req.RemoteURL,
		Dest:   dir,
		Depth:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone monorepo: %w", err)
	}

	// The time suffix keeps branch names unique across repeated runs
	// for the same PR.
	branch := fmt.Sprintf("sync/pr-%d-%d", req.PRNumber, now().Unix())
	if err := client.CheckoutNewBranch(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to create sync branch: %w", err)
	}
	log.Info("created sync branch", "branch", branch)

	return &Staging{Dir: dir, Branch: branch, Git: client}, nil
}

// CloneURL builds an authenticated HTTPS clone URL for a repository.
func CloneURL(owner, repo, token string) string {
	return fmt.Sprintf("https://x-access-token:%s@github.com/%s/%s.git", token, owner, repo)
}
