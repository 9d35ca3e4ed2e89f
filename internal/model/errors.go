// SPDX-License-Identifier: MIT
package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotAGitRepository marks a directory with no git metadata at or above it.
	ErrNotAGitRepository = errors.New("not a git repository")
	// ErrDetachedHead marks a checkout whose HEAD is not a branch.
	ErrDetachedHead = errors.New("HEAD is not symbolic")
	// ErrTimeout marks a git operation that exceeded its per-repo deadline.
	ErrTimeout = errors.New("timed out")

	// ErrCloneFailed, ErrCheckoutFailed and ErrPullFailed match a RepoError by phase.
	ErrCloneFailed    = errors.New("clone failed")
	ErrCheckoutFailed = errors.New("checkout failed")
	ErrPullFailed     = errors.New("pull failed")
)

// ConfigError is a fatal configuration problem detected before any repo is touched.
type ConfigError struct {
	// Path is the offending file, when there is one.
	Path string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config error: ")
	b.WriteString(e.Msg)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RepoError is a per-repo failure. It never aborts sibling repos.
type RepoError struct {
	Name  string
	Phase Phase
	Err   error
}

func (e *RepoError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Name, e.Phase, e.Err)
}

func (e *RepoError) Unwrap() error { return e.Err }

// Is matches the phase sentinels so callers can test errors.Is(err, ErrPullFailed).
func (e *RepoError) Is(target error) bool {
	switch target {
	case ErrCloneFailed:
		return e.Phase == PhaseClone
	case ErrCheckoutFailed:
		return e.Phase == PhaseCheckout
	case ErrPullFailed:
		return e.Phase == PhasePull
	}
	return false
}

// SyncError aggregates every failed repo of a run.
type SyncError struct {
	Failures []*RepoError
}

func (e *SyncError) Error() string {
	if len(e.Failures) == 1 {
		return "1 repository failed to sync: " + e.Failures[0].Error()
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%d repositories failed to sync: %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *SyncError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f)
	}
	return out
}

// Names returns the failed repo names in order.
func (e *SyncError) Names() []string {
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Name)
	}
	return out
}
