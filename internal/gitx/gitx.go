// Package gitx provides helpers for executing git commands and parsing
// their output. It shells out to the installed git binary.
package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/skaphos/devenv/internal/model"
)

// Runner executes git commands in a given repo directory.
// This interface allows mocking in tests.
type Runner interface {
	// Run executes a git command in the given directory and returns its
	// stdout. Failures carry the trimmed stderr text.
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// CommandError is a git command that ran and failed.
type CommandError struct {
	Args []string
	// Stderr is the trimmed stderr output.
	Stderr string
	// ExitCode is the process exit status, or -1 when git never started.
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s: %v", FormatCommand(e.Args), e.Stderr, e.Err)
	}
	return fmt.Sprintf("%s: %v", FormatCommand(e.Args), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// GitRunner is the default Runner implementation that shells out to git.
type GitRunner struct {
	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string
	// Env is appended to the inherited environment.
	Env []string
}

// Run executes a git command. Cancelling ctx kills the git process.
func (g *GitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.GitBin
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	// Never block a batch run on an interactive credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, g.Env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%s: %w", FormatCommand(args), ctxErr)
		}
		cmdErr := &CommandError{Args: args, Stderr: strings.TrimSpace(stderr.String()), ExitCode: -1, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", cmdErr
	}
	return strings.TrimRight(stdout.String(), " \t\r\n"), nil
}

// FormatCommand renders a git invocation the way an operator would type it.
func FormatCommand(args []string) string {
	return "git " + shellquote.Join(args...)
}

// CloneArgs clones url at branch into dir, initializing submodules recursively.
func CloneArgs(url, dir, branch string) []string {
	return []string{"clone", "--recurse-submodules", "--branch", branch, "--", url, dir}
}

// CheckoutArgs switches the working tree to branch.
func CheckoutArgs(branch string) []string {
	return []string{"checkout", branch}
}

// PullRebaseArgs pulls from the tracking remote, replaying local commits.
func PullRebaseArgs() []string {
	return []string{"pull", "--rebase", "--recurse-submodules"}
}

// CurrentBranchArgs prints the short symbolic name of HEAD.
func CurrentBranchArgs() []string {
	return []string{"symbolic-ref", "--quiet", "--short", "HEAD"}
}

// StatusArgs lists working tree changes in porcelain v1 format.
func StatusArgs() []string {
	return []string{"status", "--porcelain=v1"}
}

// Clone runs CloneArgs with no working directory.
func Clone(ctx context.Context, r Runner, url, dir, branch string) error {
	_, err := r.Run(ctx, "", CloneArgs(url, dir, branch)...)
	return err
}

// Checkout runs CheckoutArgs in dir.
func Checkout(ctx context.Context, r Runner, dir, branch string) error {
	_, err := r.Run(ctx, dir, CheckoutArgs(branch)...)
	return err
}

// PullRebase runs PullRebaseArgs in dir.
func PullRebase(ctx context.Context, r Runner, dir string) error {
	_, err := r.Run(ctx, dir, PullRebaseArgs()...)
	return err
}

// CurrentBranch returns the checked out branch in dir, or "" when HEAD is detached.
func CurrentBranch(ctx context.Context, r Runner, dir string) (string, error) {
	out, err := r.Run(ctx, dir, CurrentBranchArgs()...)
	if err != nil {
		// symbolic-ref --quiet exits 1 without output on a detached HEAD.
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 && cmdErr.Stderr == "" {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// WorktreeStatus returns the working tree dirty/staged/unstaged/untracked counts.
func WorktreeStatus(ctx context.Context, r Runner, dir string) (*model.Worktree, error) {
	out, err := r.Run(ctx, dir, StatusArgs()...)
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	return ParsePorcelainStatus(out), nil
}

// HasGitDir reports whether dir is itself the top of a checkout, as opposed
// to a plain directory nested inside some other checkout.
func HasGitDir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
