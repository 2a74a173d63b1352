package main

import (
	"github.com/go-git/go-git/v5"
)

// findWorktreeRoot locates the git worktree enclosing path, if any.
// Bare repositories and broken .git directories count as "not in a repo".
func findWorktreeRoot(path string) (string, bool) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true, // Walk up to the directory holding .git
	})
	if err != nil {
		return "", false
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", false
	}
	return wt.Filesystem.Root(), true
}
