// Package sync contains the core of monorepo-sync: the file-level change
// model, the replay engine that applies a pull request's changes onto the
// staged monorepo, and the publisher that turns the replayed tree into a
// commit, a pushed branch, and a cross-repository pull request.
package sync

// ChangeStatus classifies a single file-level change from a pull request.
type ChangeStatus int

const (
	// StatusUnknown marks a change descriptor whose status string was not
	// recognized. The replay engine treats it as a logged no-op rather
	// than guessing at filesystem effects.
	StatusUnknown ChangeStatus = iota

	// StatusAdded marks a file created by the pull request.
	StatusAdded

	// StatusModified marks a file whose content changed.
	StatusModified

	// StatusRemoved marks a file deleted by the pull request.
	StatusRemoved

	// StatusRenamed marks a file moved from PreviousPath to Path.
	StatusRenamed
)

// String returns the lowercase status name.
func (s ChangeStatus) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusModified:
		return "modified"
	case StatusRemoved:
		return "removed"
	case StatusRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ParseChangeStatus normalizes a hosting-API status string into a
// ChangeStatus. GitHub reports "changed" for files whose type changed;
// content-wise that is a modification. Anything unrecognized maps to
// StatusUnknown.
func ParseChangeStatus(status string) ChangeStatus {
	switch status {
	case "added":
		return StatusAdded
	case "modified", "changed":
		return StatusModified
	case "removed":
		return StatusRemoved
	case "renamed":
		return StatusRenamed
	default:
		return StatusUnknown
	}
}

// ChangeEntry is one file-level change from a pull request. Path is
// relative to the source repository root. PreviousPath is set if and
// only if Status is StatusRenamed.
type ChangeEntry struct {
	Status       ChangeStatus
	Path         string
	PreviousPath string
}

// Author identifies the person who opened the originating pull request.
type Author struct {
	// Login is the hosting-platform username. Always present.
	Login string

	// Name is the display name, empty when the profile has none.
	Name string

	// Email is the public email, empty when the profile has none.
	Email string
}

// CommitName returns the identity name to use for the sync commit:
// display name when available, otherwise the login.
func (a Author) CommitName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Login
}

// CommitEmail returns the identity email to use for the sync commit:
// the public email when available, otherwise a synthesized no-reply
// address keyed by login.
func (a Author) CommitEmail() string {
	if a.Email != "" {
		return a.Email
	}
	return a.Login + "@users.noreply.github.com"
}

// PullRequestRef is the metadata of the originating pull request needed
// to replay and republish it.
type PullRequestRef struct {
	Number  int
	Title   string
	HTMLURL string
	Body    string
	Author  Author
}
