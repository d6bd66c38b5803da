package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVCS records the git operations the publisher performs.
type fakeVCS struct {
	hasChanges bool
	statusErr  error
	commitErr  error
	pushErr    error

	authorName  string
	authorEmail string
	addedAll    bool
	commitMsg   string
	pushed      string
}

func (f *fakeVCS) HasChanges(ctx context.Context) (bool, error) {
	return f.hasChanges, f.statusErr
}

func (f *fakeVCS) SetAuthor(ctx context.Context, name, email string) error {
	f.authorName, f.authorEmail = name, email
	return nil
}

func (f *fakeVCS) AddAll(ctx context.Context) error {
	f.addedAll = true
	return nil
}

func (f *fakeVCS) Commit(ctx context.Context, message string) (string, error) {
	if f.commitErr != nil {
		return "", f.commitErr
	}
	f.commitMsg = message
	return "abc123", nil
}

func (f *fakeVCS) Push(ctx context.Context, branch string) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = branch
	return nil
}

// fakeCreator captures the PR-creation call.
type fakeCreator struct {
	err     error
	created *NewPullRequest
}

func (f *fakeCreator) CreatePullRequest(ctx context.Context, pr NewPullRequest) (*CreatedPullRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &pr
	return &CreatedPullRequest{Number: 900, HTMLURL: "https://github.com/formio/monorepo/pull/900"}, nil
}

func testPR() *PullRequestRef {
	return &PullRequestRef{
		Number:  42,
		Title:   "Fix validation of nested forms",
		HTMLURL: "https://github.com/formio/formio.js/pull/42",
		Body:    "Fixes a nested form bug.",
		Author:  Author{Login: "janedoe", Name: "Jane Doe"},
	}
}

func newTestPublisher(vcs *fakeVCS, prs *fakeCreator) *Publisher {
	return &Publisher{
		VCS:        vcs,
		PRs:        prs,
		Branch:     "sync/pr-42-1700000000",
		BaseBranch: "master",
		SourceRepo: "formio/formio.js",
	}
}

func TestPublishNoChangesIsSuccessfulNoop(t *testing.T) {
	vcs := &fakeVCS{hasChanges: false}
	prs := &fakeCreator{}
	p := newTestPublisher(vcs, prs)

	result, err := p.Publish(context.Background(), testPR())
	require.NoError(t, err)

	assert.True(t, result.NoChanges)
	assert.False(t, vcs.addedAll, "no-op must not stage changes")
	assert.Empty(t, vcs.pushed, "no-op must not push")
	assert.Nil(t, prs.created, "no-op must not open a PR")
}

func TestPublishFullFlow(t *testing.T) {
	vcs := &fakeVCS{hasChanges: true}
	prs := &fakeCreator{}
	p := newTestPublisher(vcs, prs)

	result, err := p.Publish(context.Background(), testPR())
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", vcs.authorName)
	assert.Equal(t, "janedoe@users.noreply.github.com", vcs.authorEmail)
	assert.True(t, vcs.addedAll)
	assert.Contains(t, vcs.commitMsg, "Sync PR #42: Fix validation of nested forms")
	assert.Contains(t, vcs.commitMsg, "https://github.com/formio/formio.js/pull/42")
	assert.Equal(t, "sync/pr-42-1700000000", vcs.pushed)

	require.NotNil(t, prs.created)
	assert.Equal(t, "[Sync PR #42] Fix validation of nested forms", prs.created.Title)
	assert.Equal(t, "sync/pr-42-1700000000", prs.created.Head)
	assert.Equal(t, "master", prs.created.Base)
	assert.Contains(t, prs.created.Body, "Synced from formio/formio.js#42 by @janedoe.")
	assert.Contains(t, prs.created.Body, "Fixes a nested form bug.")
	assert.Contains(t, prs.created.Body, "opened automatically")

	assert.Equal(t, "abc123", result.CommitSHA)
	assert.Equal(t, 900, result.PRNumber)
	assert.NoError(t, result.PRError)
}

func TestPublishAuthorFallbacks(t *testing.T) {
	vcs := &fakeVCS{hasChanges: true}
	p := newTestPublisher(vcs, &fakeCreator{})

	pr := testPR()
	pr.Author = Author{Login: "ghost"}

	_, err := p.Publish(context.Background(), pr)
	require.NoError(t, err)

	assert.Equal(t, "ghost", vcs.authorName)
	assert.Equal(t, "ghost@users.noreply.github.com", vcs.authorEmail)
}

func TestPublishAuthorExplicitEmail(t *testing.T) {
	vcs := &fakeVCS{hasChanges: true}
	p := newTestPublisher(vcs, &fakeCreator{})

	pr := testPR()
	pr.Author.Email = "jane@example.com"

	_, err := p.Publish(context.Background(), pr)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", vcs.authorEmail)
}

func TestPublishEmptyBodyOmitted(t *testing.T) {
	vcs := &fakeVCS{hasChanges: true}
	prs := &fakeCreator{}
	p := newTestPublisher(vcs, prs)

	pr := testPR()
	pr.Body = ""

	_, err := p.Publish(context.Background(), pr)
	require.NoError(t, err)
	assert.NotContains(t, prs.created.Body, "\n\n\n")
}

func TestPublishPRCreationFailureIsPartialCompletion(t *testing.T) {
	vcs := &fakeVCS{hasChanges: true}
	prs := &fakeCreator{err: errors.New("422 validation failed")}
	p := newTestPublisher(vcs, prs)

	result, err := p.Publish(context.Background(), testPR())
	require.NoError(t, err, "PR creation failure must not propagate as a fatal error")

	assert.Equal(t, "sync/pr-42-1700000000", vcs.pushed, "branch stays pushed")
	assert.Error(t, result.PRError)
	assert.Equal(t, "abc123", result.CommitSHA)
	assert.Zero(t, result.PRNumber)
}

func TestPublishCommitFailureIsFatal(t *testing.T) {
	vcs := &fakeVCS{hasChanges: true, commitErr: errors.New("boom")}
	p := newTestPublisher(vcs, &fakeCreator{})

	_, err := p.Publish(context.Background(), testPR())
	require.Error(t, err)
	assert.Empty(t, vcs.pushed)
}

func TestPublishPushFailureIsFatal(t *testing.T) {
	vcs := &fakeVCS{hasChanges: true, pushErr: errors.New("denied")}
	prs := &fakeCreator{}
	p := newTestPublisher(vcs, prs)

	_, err := p.Publish(context.Background(), testPR())
	require.Error(t, err)
	assert.Nil(t, prs.created)
}

func TestPublishStatusErrorIsFatal(t *testing.T) {
	vcs := &fakeVCS{statusErr: errors.New("not a repo")}
	p := newTestPublisher(vcs, &fakeCreator{})

	_, err := p.Publish(context.Background(), testPR())
	require.Error(t, err)
}

func TestPublishDryRunSkipsCommit(t *testing.T) {
	vcs := &fakeVCS{hasChanges: true}
	prs := &fakeCreator{}
	p := newTestPublisher(vcs, prs)
	p.DryRun = true

	result, err := p.Publish(context.Background(), testPR())
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.False(t, vcs.addedAll)
	assert.Empty(t, vcs.pushed)
	assert.Nil(t, prs.created)
}
