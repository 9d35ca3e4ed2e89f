package vcs

import (
	"context"

	"github.com/skaphos/devenv/internal/gitx"
	"github.com/skaphos/devenv/internal/model"
)

// Adapter defines the VCS operations devenv relies on.
type Adapter interface {
	Name() string
	// IsCheckout reports whether dir is the top of its own checkout.
	IsCheckout(dir string) bool
	CurrentBranch(ctx context.Context, dir string) (string, error)
	WorktreeStatus(ctx context.Context, dir string) (*model.Worktree, error)
	Clone(ctx context.Context, remoteURL, targetPath, branch string) error
	Checkout(ctx context.Context, dir, branch string) error
	PullRebase(ctx context.Context, dir string) error

	// CloneAction, CheckoutAction and PullAction render the commands above
	// for progress lines and dry-run plans.
	CloneAction(remoteURL, targetPath, branch string) string
	CheckoutAction(branch string) string
	PullAction() string
}

// GitAdapter implements Adapter using the git CLI via gitx.
type GitAdapter struct {
	Runner gitx.Runner
}

func NewGitAdapter(runner gitx.Runner) *GitAdapter {
	if runner == nil {
		runner = &gitx.GitRunner{}
	}
	return &GitAdapter{Runner: runner}
}

// NewAdapter builds the default git adapter for a git binary path.
func NewAdapter(gitBin string) Adapter {
	return NewGitAdapter(&gitx.GitRunner{GitBin: gitBin})
}

func (g *GitAdapter) Name() string { return "git" }

func (g *GitAdapter) IsCheckout(dir string) bool { return gitx.HasGitDir(dir) }

func (g *GitAdapter) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return gitx.CurrentBranch(ctx, g.Runner, dir)
}

func (g *GitAdapter) WorktreeStatus(ctx context.Context, dir string) (*model.Worktree, error) {
	return gitx.WorktreeStatus(ctx, g.Runner, dir)
}

func (g *GitAdapter) Clone(ctx context.Context, remoteURL, targetPath, branch string) error {
	return gitx.Clone(ctx, g.Runner, remoteURL, targetPath, branch)
}

func (g *GitAdapter) Checkout(ctx context.Context, dir, branch string) error {
	return gitx.Checkout(ctx, g.Runner, dir, branch)
}

func (g *GitAdapter) PullRebase(ctx context.Context, dir string) error {
	return gitx.PullRebase(ctx, g.Runner, dir)
}

func (g *GitAdapter) CloneAction(remoteURL, targetPath, branch string) string {
	return gitx.FormatCommand(gitx.CloneArgs(remoteURL, targetPath, branch))
}

func (g *GitAdapter) CheckoutAction(branch string) string {
	return gitx.FormatCommand(gitx.CheckoutArgs(branch))
}

func (g *GitAdapter) PullAction() string {
	return gitx.FormatCommand(gitx.PullRebaseArgs())
}
