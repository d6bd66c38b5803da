package sync

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/formio/monorepo-sync/pkg/log"
)

// Replayer applies file-level changes from one repository root onto a
// translated location inside another. Every operation is defined purely
// in terms of what currently exists on disk, so applying the same change
// list twice leaves the target in the same state as applying it once.
type Replayer struct {
	// SourceRoot is the local checkout of the source repository.
	SourceRoot string

	// TargetRoot is the directory inside the staged monorepo that
	// mirrors the source repository (monorepo root + package location).
	TargetRoot string
}

// NewReplayer creates a replayer between the two roots.
func NewReplayer(sourceRoot, targetRoot string) *Replayer {
	return &Replayer{SourceRoot: sourceRoot, TargetRoot: targetRoot}
}

// Stats summarizes one replay pass.
type Stats struct {
	// Applied counts entries that mutated the target tree.
	Applied int

	// Skipped counts entries skipped because their source file was gone.
	Skipped int

	// Unknown counts entries with an unrecognized status.
	Unknown int
}

// ApplyAll applies each change in order. Later entries may re-touch
// paths written by earlier ones; last write wins and no overlap
// detection is attempted. Only filesystem errors fail the pass.
func (r *Replayer) ApplyAll(changes []ChangeEntry) (Stats, error) {
	var stats Stats
	for _, change := range changes {
		outcome, err := r.apply(change)
		if err != nil {
			return stats, fmt.Errorf("failed to apply %s %s: %w", change.Status, change.Path, err)
		}
		switch outcome {
		case outcomeApplied:
			stats.Applied++
		case outcomeSkipped:
			stats.Skipped++
		case outcomeUnknown:
			stats.Unknown++
		}
	}
	return stats, nil
}

type outcome int

const (
	outcomeApplied outcome = iota
	outcomeSkipped
	outcomeUnknown
)

// apply replays a single change onto the target root.
func (r *Replayer) apply(change ChangeEntry) (outcome, error) {
	switch change.Status {
	case StatusAdded, StatusModified:
		return r.copyFromSource(change.Path)

	case StatusRemoved:
		if err := r.deleteTarget(change.Path); err != nil {
			return outcomeApplied, err
		}
		return outcomeApplied, nil

	case StatusRenamed:
		// Delete the old location first, then copy the new one. The two
		// halves are independently idempotent: a missing source for the
		// new path still performs the deletion.
		if err := r.deleteTarget(change.PreviousPath); err != nil {
			return outcomeApplied, err
		}
		return r.copyFromSource(change.Path)

	default:
		log.Warn("skipping change with unknown status", "path", change.Path)
		return outcomeUnknown, nil
	}
}

// copyFromSource copies the source file's exact bytes to the translated
// target path, creating directories as needed. A missing source file is
// a warning, not a failure: it may have been deleted between PR time
// and sync time.
func (r *Replayer) copyFromSource(relPath string) (outcome, error) {
	sourcePath := filepath.Join(r.SourceRoot, filepath.FromSlash(relPath))

	info, err := os.Stat(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("source file missing, skipping", "path", relPath)
			return outcomeSkipped, nil
		}
		return outcomeSkipped, fmt.Errorf("failed to stat source file: %w", err)
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("failed to read source file: %w", err)
	}

	targetPath := filepath.Join(r.TargetRoot, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return outcomeSkipped, fmt.Errorf("failed to create target directory: %w", err)
	}

	if err := os.WriteFile(targetPath, data, fileMode(info)); err != nil {
		return outcomeSkipped, fmt.Errorf("failed to write target file: %w", err)
	}

	log.Debug("replayed file", "path", relPath)
	return outcomeApplied, nil
}

// deleteTarget removes the translated target path if it exists. A
// missing target is a no-op.
func (r *Replayer) deleteTarget(relPath string) error {
	if relPath == "" {
		return nil
	}

	targetPath := filepath.Join(r.TargetRoot, filepath.FromSlash(relPath))
	if err := os.Remove(targetPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete target file: %w", err)
	}

	log.Debug("deleted file", "path", relPath)
	return nil
}

// fileMode preserves the source file's permission bits so executable
// scripts stay executable after replay.
func fileMode(info fs.FileInfo) fs.FileMode {
	return info.Mode().Perm()
}
