// Package git reads the revision of a study workspace (a notes or homework
// repository) so recorded sessions can point at what was being worked on.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/xvierd/studyx/internal/ports"
)

// ErrNoRepository is returned when the workspace is not inside a repository.
var ErrNoRepository = errors.New("no git repository found")

// Detector implements ports.GitDetector using go-git.
type Detector struct{}

// NewDetector creates a new git detector.
func NewDetector() *Detector {
	return &Detector{}
}

var _ ports.GitDetector = (*Detector)(nil)

// Detect opens the repository containing workspace, searching parent
// directories, and reports its HEAD and worktree state. An empty workspace
// means the current directory.
func (d *Detector) Detect(ctx context.Context, workspace string) (*ports.GitInfo, error) {
	repo, err := open(workspace)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	branch := head.Name().Short()
	if !head.Name().IsBranch() {
		branch = "HEAD detached"
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	subject, _, _ := strings.Cut(commit.Message, "\n")

	info := &ports.GitInfo{
		Branch:     branch,
		Commit:     head.Hash().String(),
		CommitMsg:  subject,
		IsClean:    true,
		Repository: remoteName(repo),
	}

	worktree, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree; HEAD is still useful.
		if errors.Is(err, git.ErrIsBareRepository) {
			return info, nil
		}
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	// New and edited notes both count as changed files.
	for file, s := range status {
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			info.Modified = append(info.Modified, file)
		}
	}
	sort.Strings(info.Modified)
	info.IsClean = len(info.Modified) == 0

	return info, nil
}

// IsAvailable reports whether workspace is inside a repository.
func (d *Detector) IsAvailable(workspace string) bool {
	_, err := open(workspace)
	return err == nil
}

func open(workspace string) (*git.Repository, error) {
	if workspace == "" {
		var err error
		workspace, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	repo, err := git.PlainOpenWithOptions(workspace, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w in %s", ErrNoRepository, workspace)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return repo, nil
}

// remoteName returns "owner/repo" for the origin remote, falling back to the
// first configured remote.
func remoteName(repo *git.Repository) string {
	remote, err := repo.Remote("origin")
	if err != nil {
		remotes, err := repo.Remotes()
		if err != nil || len(remotes) == 0 {
			return ""
		}
		remote = remotes[0]
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return repoName(urls[0])
}

// repoName extracts "owner/repo" from an SSH or HTTPS remote URL. Other
// URLs are returned unchanged.
func repoName(url string) string {
	switch {
	case strings.HasPrefix(url, "git@"):
		_, path, ok := strings.Cut(url, ":")
		if ok {
			return strings.TrimSuffix(path, ".git")
		}
	case strings.HasPrefix(url, "http"):
		parts := strings.Split(strings.TrimSuffix(url, ".git"), "/")
		if len(parts) >= 2 {
			return parts[len(parts)-2] + "/" + parts[len(parts)-1]
		}
	}
	return url
}

// ShortCommit returns the seven character abbreviation of a commit hash.
func ShortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
