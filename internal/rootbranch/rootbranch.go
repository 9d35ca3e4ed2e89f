// SPDX-License-Identifier: MIT
// Package rootbranch determines the branch checked out in the devenv
// root. That branch is the fallback branch for every synchronized repo.
package rootbranch

import (
	"errors"
	"fmt"
	"io"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/skaphos/devenv/internal/model"
)

// CurrentBranch returns the short branch name HEAD points to in the git
// repository at or above dir.
func CurrentBranch(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) || errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("cannot retrieve current branch name; no git repository was found at %q: %w", dir, model.ErrNotAGitRepository)
		}
		return "", fmt.Errorf("open git repository at %q: %w", dir, err)
	}
	defer release(repo)

	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("cannot retrieve current branch name; repository has no HEAD: %w", model.ErrDetachedHead)
		}
		return "", fmt.Errorf("read HEAD at %q: %w", dir, err)
	}
	if head.Type() != plumbing.SymbolicReference {
		return "", fmt.Errorf("cannot retrieve current branch name; HEAD at %q points to commit %s: %w", dir, head.Hash().String(), model.ErrDetachedHead)
	}
	return head.Target().Short(), nil
}

// release closes the storage backing repo so packfile handles are not leaked.
func release(repo *git.Repository) {
	if closer, ok := repo.Storer.(io.Closer); ok {
		_ = closer.Close()
	}
}
