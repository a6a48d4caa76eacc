package ports

import (
	"context"
)

// GitInfo holds git repository context information.
type GitInfo struct {
	Branch     string
	Commit     string
	CommitMsg  string
	Modified   []string
	IsClean    bool
	Repository string
}

// GitDetector defines the interface for git context detection.
// Study sessions started inside a notes repository are tagged with its
// branch and commit. This is a driven port (implemented by adapters).
type GitDetector interface {
	// Detect scans workingDir and its parents for a repository.
	Detect(ctx context.Context, workingDir string) (*GitInfo, error)

	// IsAvailable reports whether workingDir is inside a repository.
	IsAvailable(workingDir string) bool
}
