package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/formio/monorepo-sync/pkg/sync"
)

// FetchPR fetches a pull request's metadata from the source repository.
// A non-success API response is fatal for the enclosing run.
func (c *Client) FetchPR(ctx context.Context, owner, repo string, number int) (*sync.PullRequestRef, error) {
	pr, _, err := c.GitHubClient().PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR %s/%s#%d: %w", owner, repo, number, err)
	}

	return convertPullRequest(pr), nil
}

// convertPullRequest maps a github.PullRequest onto the sync domain type.
func convertPullRequest(pr *github.PullRequest) *sync.PullRequestRef {
	ref := &sync.PullRequestRef{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		HTMLURL: pr.GetHTMLURL(),
		Body:    pr.GetBody(),
	}

	if user := pr.GetUser(); user != nil {
		ref.Author = sync.Author{
			Login: user.GetLogin(),
			Name:  user.GetName(),
			Email: user.GetEmail(),
		}
	}

	return ref
}

// FetchPRFiles fetches the file-level change list for a pull request,
// normalizing each descriptor's status into the ChangeStatus enum.
func (c *Client) FetchPRFiles(ctx context.Context, owner, repo string, number int) ([]sync.ChangeEntry, error) {
	opts := &github.ListOptions{PerPage: 100}

	var entries []sync.ChangeEntry
	for {
		files, resp, err := c.GitHubClient().PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch PR files for %s/%s#%d: %w", owner, repo, number, err)
		}

		for _, f := range files {
			entries = append(entries, convertCommitFile(f))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return entries, nil
}

// convertCommitFile maps a github.CommitFile onto a ChangeEntry. The
// previous filename is only meaningful for renames; for every other
// status it is dropped so the ChangeEntry invariant holds.
func convertCommitFile(f *github.CommitFile) sync.ChangeEntry {
	entry := sync.ChangeEntry{
		Status: sync.ParseChangeStatus(f.GetStatus()),
		Path:   f.GetFilename(),
	}

	if entry.Status == sync.StatusRenamed {
		entry.PreviousPath = f.GetPreviousFilename()
	}

	return entry
}

// SinceRef is a lower bound for listing merged pull requests: either a
// PR number or a point in time. Exactly one field should be set.
type SinceRef struct {
	// Number excludes PRs numbered at or below it when positive.
	Number int

	// After excludes PRs merged at or before it when non-zero.
	After time.Time
}

// MergedPR is one entry from the merged-PR listing.
type MergedPR struct {
	Number   int
	Title    string
	HTMLURL  string
	MergedAt time.Time
}

// ListMergedPRsSince lists merged pull requests past the given bound,
// ordered by most recent update first. The primary sync flow handles a
// single PR per invocation; this bulk listing backs the --since modes.
func (c *Client) ListMergedPRsSince(ctx context.Context, owner, repo string, since SinceRef) ([]MergedPR, error) {
	opts := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var merged []MergedPR
	for {
		prs, resp, err := c.GitHubClient().PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list PRs for %s/%s: %w", owner, repo, err)
		}

		for _, pr := range prs {
			mergedAt := pr.GetMergedAt().Time
			if mergedAt.IsZero() {
				// Closed without merging.
				continue
			}
			if since.Number > 0 && pr.GetNumber() <= since.Number {
				continue
			}
			if !since.After.IsZero() && !mergedAt.After(since.After) {
				continue
			}
			merged = append(merged, MergedPR{
				Number:   pr.GetNumber(),
				Title:    pr.GetTitle(),
				HTMLURL:  pr.GetHTMLURL(),
				MergedAt: mergedAt,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return merged, nil
}

// RepoClient binds a Client to a single repository so callers that only
// ever talk to one repo, like the publisher, get a narrower surface.
type RepoClient struct {
	client *Client
	owner  string
	repo   string
}

// Repo returns a client bound to owner/repo.
func (c *Client) Repo(owner, repo string) *RepoClient {
	return &RepoClient{client: c, owner: owner, repo: repo}
}

// CreatePullRequest opens a pull request. It implements
// sync.PullRequestCreator.
func (r *RepoClient) CreatePullRequest(ctx context.Context, pr sync.NewPullRequest) (*sync.CreatedPullRequest, error) {
	created, _, err := r.client.GitHubClient().PullRequests.Create(ctx, r.owner, r.repo, &github.NewPullRequest{
		Title: github.String(pr.Title),
		Head:  github.String(pr.Head),
		Base:  github.String(pr.Base),
		Body:  github.String(pr.Body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request in %s/%s: %w", r.owner, r.repo, err)
	}

	return &sync.CreatedPullRequest{
		Number:  created.GetNumber(),
		HTMLURL: created.GetHTMLURL(),
	}, nil
}
