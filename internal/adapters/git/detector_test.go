package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// initNotes creates a repository with one committed note.
func initNotes(t *testing.T) (string, *git.Repository, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init git repo: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "calculus.md"), []byte("# Limits\n"), 0644); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}
	if _, err := worktree.Add("calculus.md"); err != nil {
		t.Fatalf("Failed to add file: %v", err)
	}

	hash, err := worktree.Commit("Add limits notes\n\nchapter 2", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Student",
			Email: "student@example.com",
			When:  time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("Failed to create commit: %v", err)
	}

	return dir, repo, hash.String()
}

func TestDetector_Detect(t *testing.T) {
	dir, _, hash := initNotes(t)

	info, err := NewDetector().Detect(context.Background(), dir)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.Commit != hash {
		t.Errorf("Expected commit %s, got %s", hash, info.Commit)
	}
	if info.Branch != "master" && info.Branch != "main" {
		t.Errorf("Unexpected branch: %s", info.Branch)
	}
	if info.CommitMsg != "Add limits notes" {
		t.Errorf("Expected first line of commit message, got %q", info.CommitMsg)
	}
	if !info.IsClean {
		t.Error("Expected clean worktree after commit")
	}
	if len(info.Modified) != 0 {
		t.Errorf("Expected no modified files, got %v", info.Modified)
	}
}

func TestDetector_Detect_FromSubdirectory(t *testing.T) {
	dir, _, hash := initNotes(t)
	sub := filepath.Join(dir, "week1", "exercises")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	d := NewDetector()
	info, err := d.Detect(context.Background(), sub)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if info.Commit != hash {
		t.Errorf("Expected commit %s, got %s", hash, info.Commit)
	}
	if !d.IsAvailable(sub) {
		t.Error("IsAvailable() = false inside repository")
	}
}

func TestDetector_Detect_WithChangedNotes(t *testing.T) {
	dir, _, _ := initNotes(t)

	if err := os.WriteFile(filepath.Join(dir, "calculus.md"), []byte("# Limits\n\nl'Hopital\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "algebra.md"), []byte("# Groups\n"), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := NewDetector().Detect(context.Background(), dir)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.IsClean {
		t.Error("Expected dirty worktree")
	}
	want := []string{"algebra.md", "calculus.md"}
	if len(info.Modified) != len(want) {
		t.Fatalf("Modified = %v, want %v", info.Modified, want)
	}
	for i := range want {
		if info.Modified[i] != want[i] {
			t.Errorf("Modified[%d] = %q, want %q", i, info.Modified[i], want[i])
		}
	}
}

func TestDetector_Detect_RemoteName(t *testing.T) {
	dir, repo, _ := initNotes(t)

	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@github.com:student/notes.git"},
	}); err != nil {
		t.Fatalf("Failed to create remote: %v", err)
	}

	info, err := NewDetector().Detect(context.Background(), dir)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if info.Repository != "student/notes" {
		t.Errorf("Repository = %q, want student/notes", info.Repository)
	}
}

func TestDetector_Detect_NoGitRepo(t *testing.T) {
	dir := t.TempDir()
	d := NewDetector()

	_, err := d.Detect(context.Background(), dir)
	if !errors.Is(err, ErrNoRepository) {
		t.Errorf("Expected ErrNoRepository, got %v", err)
	}
	if d.IsAvailable(dir) {
		t.Error("IsAvailable() = true outside repository")
	}
}

func TestDetector_Detect_CanceledContext(t *testing.T) {
	dir, _, _ := initNotes(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewDetector().Detect(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"git@github.com:user/notes.git", "user/notes"},
		{"https://github.com/user/notes.git", "user/notes"},
		{"https://gitlab.com/uni/thesis", "uni/thesis"},
		{"git@bitbucket.org:team/homework.git", "team/homework"},
		{"/path/to/notes", "/path/to/notes"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := repoName(tt.url); got != tt.expected {
				t.Errorf("repoName(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestShortCommit(t *testing.T) {
	tests := []struct {
		commit   string
		expected string
	}{
		{"abcdef1234567890abcdef1234567890abcdef12", "abcdef1"},
		{"short", "short"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.commit, func(t *testing.T) {
			if got := ShortCommit(tt.commit); got != tt.expected {
				t.Errorf("ShortCommit(%q) = %q, want %q", tt.commit, got, tt.expected)
			}
		})
	}
}
