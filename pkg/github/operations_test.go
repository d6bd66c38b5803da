package github

import (
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"

	"github.com/formio/monorepo-sync/pkg/sync"
)

func TestConvertPullRequestWithoutUser(t *testing.T) {
	pr := &github.PullRequest{
		Number:  github.Int(7),
		Title:   github.String("title"),
		HTMLURL: github.String("https://example.com/pr/7"),
	}

	ref := convertPullRequest(pr)
	assert.Equal(t, 7, ref.Number)
	assert.Empty(t, ref.Author.Login)
	assert.Empty(t, ref.Body)
}

func TestConvertCommitFileDropsPreviousPathForNonRenames(t *testing.T) {
	// The API can report previous_filename on statuses other than
	// renamed (e.g. copied); the ChangeEntry invariant requires it only
	// for renames.
	f := &github.CommitFile{
		Filename:         github.String("a.txt"),
		Status:           github.String("modified"),
		PreviousFilename: github.String("b.txt"),
	}

	entry := convertCommitFile(f)
	assert.Equal(t, sync.StatusModified, entry.Status)
	assert.Empty(t, entry.PreviousPath)
}

func TestConvertCommitFileRenamed(t *testing.T) {
	f := &github.CommitFile{
		Filename:         github.String("new.txt"),
		Status:           github.String("renamed"),
		PreviousFilename: github.String("old.txt"),
	}

	entry := convertCommitFile(f)
	assert.Equal(t, sync.StatusRenamed, entry.Status)
	assert.Equal(t, "old.txt", entry.PreviousPath)
}
