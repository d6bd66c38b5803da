package sync

import (
	"context"
	"fmt"

	"github.com/formio/monorepo-sync/pkg/log"
)

// VersionControl is the subset of git operations the publisher needs.
// *git.Client satisfies it; tests use a fake so publish logic runs
// without real subprocesses.
type VersionControl interface {
	HasChanges(ctx context.Context) (bool, error)
	SetAuthor(ctx context.Context, name, email string) error
	AddAll(ctx context.Context) error
	Commit(ctx context.Context, message string) (string, error)
	Push(ctx context.Context, branch string) error
}

// NewPullRequest describes the pull request opened in the monorepo.
type NewPullRequest struct {
	Title string
	Head  string
	Base  string
	Body  string
}

// CreatedPullRequest identifies the pull request the publisher opened.
type CreatedPullRequest struct {
	Number  int
	HTMLURL string
}

// PullRequestCreator opens pull requests in the target monorepo.
type PullRequestCreator interface {
	CreatePullRequest(ctx context.Context, pr NewPullRequest) (*CreatedPullRequest, error)
}

// Publisher commits and publishes a replayed change set.
type Publisher struct {
	// VCS operates on the staged monorepo clone.
	VCS VersionControl

	// PRs opens pull requests against the monorepo.
	PRs PullRequestCreator

	// Branch is the already checked-out sync branch to push.
	Branch string

	// BaseBranch is the monorepo's integration branch.
	BaseBranch string

	// SourceRepo is the "owner/name" of the source repository, used in
	// the outgoing PR's attribution line.
	SourceRepo string

	// DryRun reports what would be committed without committing.
	DryRun bool
}

// Result describes the outcome of a publish. A run that found nothing
// to commit sets NoChanges. A run whose branch was pushed but whose PR
// creation failed sets PRError: the branch and commit are deliberately
// left in place for an operator to finish by hand.
type Result struct {
	NoChanges bool
	DryRun    bool
	CommitSHA string
	Branch    string
	PRNumber  int
	PRURL     string
	PRError   error
}

// Publish inspects the staged working tree and, if the replay produced
// a diff, commits it as the original author, pushes the branch, and
// opens a sync pull request referencing the original.
func (p *Publisher) Publish(ctx context.Context, pr *PullRequestRef) (*Result, error) {
	changed, err := p.VCS.HasChanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query working tree status: %w", err)
	}

	// A PR whose diff lands entirely outside the package subdirectory
	// produces nothing to sync. That is success, not failure.
	if !changed {
		log.Info("no changes to sync", "pr", pr.Number)
		return &Result{NoChanges: true, Branch: p.Branch}, nil
	}

	if p.DryRun {
		log.Info("dry run: changes detected, skipping commit, push, and PR", "pr", pr.Number)
		return &Result{DryRun: true, Branch: p.Branch}, nil
	}

	if err := p.VCS.SetAuthor(ctx, pr.Author.CommitName(), pr.Author.CommitEmail()); err != nil {
		return nil, fmt.Errorf("failed to configure commit author: %w", err)
	}

	if err := p.VCS.AddAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to stage changes: %w", err)
	}

	sha, err := p.VCS.Commit(ctx, commitMessage(pr))
	if err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	log.Info("committed sync changes", "commit", sha, "author", pr.Author.CommitName())

	if err := p.VCS.Push(ctx, p.Branch); err != nil {
		return nil, fmt.Errorf("failed to push branch %s: %w", p.Branch, err)
	}
	log.Info("pushed branch", "branch", p.Branch)

	result := &Result{CommitSHA: sha, Branch: p.Branch}

	created, err := p.PRs.CreatePullRequest(ctx, NewPullRequest{
		Title: fmt.Sprintf("[Sync PR #%d] %s", pr.Number, pr.Title),
		Head:  p.Branch,
		Base:  p.BaseBranch,
		Body:  p.prBody(pr),
	})
	if err != nil {
		// The branch and commit are already upstream. Surface the
		// failure and leave them for an operator to finish manually.
		log.Error("failed to create sync pull request; branch was pushed and must be cleaned up or finished by hand",
			"branch", p.Branch, "error", err)
		result.PRError = err
		return result, nil
	}

	result.PRNumber = created.Number
	result.PRURL = created.HTMLURL
	log.Info("opened sync pull request", "number", created.Number, "url", created.HTMLURL)

	return result, nil
}

// commitMessage embeds the originating PR's number, title, and URL.
func commitMessage(pr *PullRequestRef) string {
	return fmt.Sprintf("Sync PR #%d: %s\n\nOriginal: %s", pr.Number, pr.Title, pr.HTMLURL)
}

// prBody composes the outgoing PR description: attribution, the
// original description verbatim when present, and the tool notice.
func (p *Publisher) prBody(pr *PullRequestRef) string {
	body := fmt.Sprintf("Synced from %s#%d by @%s.\n", p.SourceRepo, pr.Number, pr.Author.Login)

	if pr.Body != "" {
		body += "\n" + pr.Body + "\n"
	}

	body += "\n---\n_This pull request was opened automatically by monorepo-sync._\n"
	return body
}
