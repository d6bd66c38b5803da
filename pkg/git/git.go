// Package git wraps the system git binary behind the narrow set of
// operations the sync flow needs. Every command runs with an explicit
// -C directory so the process working directory is never mutated, and
// the API stays small enough to fake in tests.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Client runs git commands against a single repository directory.
type Client struct {
	// Dir is the working directory of the git repository.
	Dir string
}

// NewClient creates a git client for the given directory.
func NewClient(dir string) *Client {
	return &Client{Dir: dir}
}

// execCommand executes a git command in the client's directory.
func (c *Client) execCommand(ctx context.Context, args ...string) ([]byte, error) {
	cmdArgs := append([]string{"-C", c.Dir}, args...)

	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}

	return output, nil
}

// CloneOptions specifies options for cloning a repository.
type CloneOptions struct {
	// Source is the repository URL to clone from.
	Source string

	// Dest is the destination directory.
	Dest string

	// Depth specifies shallow clone depth (0 for full history).
	Depth int
}

// Clone clones a repository and returns a client bound to the clone.
func Clone(ctx context.Context, opts CloneOptions) (*Client, error) {
	args := []string{"clone", "--quiet"}
	if opts.Depth > 0 {
		args = append(args, "--depth", fmt.Sprintf("%d", opts.Depth))
	}
	args = append(args, opts.Source, opts.Dest)

	cmd := exec.CommandContext(ctx, "git", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("git clone failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	client := NewClient(opts.Dest)
	if _, err := client.execCommand(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("git clone succeeded but destination is not a git repository")
	}

	return client, nil
}

// CheckoutNewBranch creates and checks out a new branch.
func (c *Client) CheckoutNewBranch(ctx context.Context, name string) error {
	_, err := c.execCommand(ctx, "checkout", "--quiet", "-b", name)
	return err
}

// SetAuthor sets the local commit identity for the repository.
func (c *Client) SetAuthor(ctx context.Context, name, email string) error {
	if _, err := c.execCommand(ctx, "config", "user.name", name); err != nil {
		return fmt.Errorf("failed to set user.name: %w", err)
	}
	if _, err := c.execCommand(ctx, "config", "user.email", email); err != nil {
		return fmt.Errorf("failed to set user.email: %w", err)
	}
	return nil
}

// AddAll stages all changes, including deletions and untracked files.
func (c *Client) AddAll(ctx context.Context) error {
	_, err := c.execCommand(ctx, "add", "-A")
	return err
}

// Commit creates a commit with the given message and returns its SHA.
func (c *Client) Commit(ctx context.Context, message string) (string, error) {
	if _, err := c.execCommand(ctx, "commit", "--quiet", "-m", message); err != nil {
		return "", fmt.Errorf("commit failed: %w", err)
	}
	return c.HeadSHA(ctx)
}

// Push pushes the branch to origin with upstream tracking.
func (c *Client) Push(ctx context.Context, branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name is required for push")
	}
	if _, err := c.execCommand(ctx, "push", "--quiet", "-u", "origin", branch); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	return nil
}

// HeadSHA returns the current HEAD commit SHA.
func (c *Client) HeadSHA(ctx context.Context) (string, error) {
	output, err := c.execCommand(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD SHA: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the checked-out branch name.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	output, err := c.execCommand(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HasChanges reports whether the working tree differs from HEAD,
// including untracked files. The result is derived from the parsed
// porcelain status, never from matching human-readable git output.
func (c *Client) HasChanges(ctx context.Context) (bool, error) {
	statuses, err := c.Status(ctx)
	if err != nil {
		return false, err
	}
	return len(statuses) > 0, nil
}

// FileStatus is the status of a single path in the working tree.
type FileStatus struct {
	// Path is the file path, relative to the repository root.
	Path string

	// Code is the two-character status code from git status --porcelain.
	Code string
}

// Status returns the machine-readable working tree status.
func (c *Client) Status(ctx context.Context) ([]FileStatus, error) {
	output, err := c.execCommand(ctx, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to get working tree status: %w", err)
	}
	return parseStatus(string(output)), nil
}

// parseStatus parses git status --porcelain output.
func parseStatus(output string) []FileStatus {
	var statuses []FileStatus

	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < 4 {
			continue
		}

		code := line[0:2]
		path := line[3:]

		// Renames appear as "R  old -> new"; the new name is canonical.
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}

		statuses = append(statuses, FileStatus{Path: path, Code: code})
	}

	return statuses
}
