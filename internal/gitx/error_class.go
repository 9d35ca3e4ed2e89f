// SPDX-License-Identifier: MIT
package gitx

import (
	"context"
	"errors"
	"strings"

	"github.com/skaphos/devenv/internal/model"
)

// Error classes reported in SyncResult.ErrorClass.
const (
	ClassTimeout       = "timeout"
	ClassInterrupted   = "interrupted"
	ClassAuth          = "auth"
	ClassNetwork       = "network"
	ClassConflict      = "conflict"
	ClassDirty         = "dirty"
	ClassCorrupt       = "corrupt"
	ClassMissingRemote = "missing_remote"
	ClassUnknown       = "unknown"
)

type classRule struct {
	class   string
	needles []string
}

// messageRules are matched against lowercased git stderr in order; the
// first rule with a matching needle wins.
var messageRules = []classRule{
	{ClassAuth, []string{"permission denied", "authentication failed", "access denied", "publickey", "could not read username", "credential", "terminal prompts disabled"}},
	{ClassNetwork, []string{"could not resolve host", "network is unreachable", "connection timed out", "connection refused", "failed to connect", "temporary failure in name resolution", "tls handshake timeout"}},
	{ClassTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{ClassConflict, []string{"conflict", "could not apply", "rebase in progress", "cannot rebase"}},
	{ClassDirty, []string{"would be overwritten", "local changes", "unstaged changes", "uncommitted changes", "please commit or stash"}},
	{ClassCorrupt, []string{"not a git repository", "bad object", "corrupt", "object file"}},
	{ClassMissingRemote, []string{"repository not found", "does not appear to be a git repository", "couldn't find remote ref", "remote branch", "not found in upstream", "pathspec", "did not match any", "no such remote", "no tracking information"}},
}

// ClassifyError maps a sync failure to a coarse category. Typed causes are
// checked first, then the git error text.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case errors.Is(err, context.Canceled):
		return ClassInterrupted
	case errors.Is(err, model.ErrNotAGitRepository):
		return ClassCorrupt
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		for _, needle := range rule.needles {
			if strings.Contains(msg, needle) {
				return rule.class
			}
		}
	}
	return ClassUnknown
}
