// Package model defines the core data types used throughout devenv.
package model

import "time"

// RepoSpec is a declared repository before resolution. Nil fields are unset
// and fall through to the properties file or a computed default.
type RepoSpec struct {
	// Name identifies the repo. It is also the default remote slug and the
	// default directory name.
	Name string `json:"name" yaml:"name"`
	// Include is the declared inclusion default.
	Include *bool `json:"include,omitempty" yaml:"include,omitempty"`
	// URL is the declared clone URL.
	URL *string `json:"url,omitempty" yaml:"url,omitempty"`
	// Branch is the declared branch.
	Branch *string `json:"branch,omitempty" yaml:"branch,omitempty"`
	// Dir is the declared checkout directory, relative to the base dir.
	Dir *string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Repo is a fully resolved repository for a single sync run.
type Repo struct {
	Name    string `json:"name" yaml:"name"`
	Include bool   `json:"include" yaml:"include"`
	URL     string `json:"url" yaml:"url"`
	Branch  string `json:"branch" yaml:"branch"`
	Dir     string `json:"dir" yaml:"dir"`
}

// Worktree represents the working tree status of an existing checkout.
type Worktree struct {
	Dirty     bool `json:"dirty" yaml:"dirty"`
	Staged    int  `json:"staged" yaml:"staged"`
	Unstaged  int  `json:"unstaged" yaml:"unstaged"`
	Untracked int  `json:"untracked" yaml:"untracked"`
	// Conflicted counts unmerged paths, e.g. from a stopped rebase.
	Conflicted int `json:"conflicted,omitempty" yaml:"conflicted,omitempty"`
}

// Phase names the git operation a repo was in when it failed.
type Phase string

const (
	PhaseClone    Phase = "clone"
	PhaseCheckout Phase = "checkout"
	PhasePull     Phase = "pull"
)

// Outcome is the typed result category for a single repo sync.
type Outcome string

const (
	OutcomeSkipped        Outcome = "skipped"
	OutcomeCloned         Outcome = "cloned"
	OutcomeUpdated        Outcome = "updated"
	OutcomePlanned        Outcome = "planned"
	OutcomeCloneFailed    Outcome = "clone_failed"
	OutcomeCheckoutFailed Outcome = "checkout_failed"
	OutcomePullFailed     Outcome = "pull_failed"
	OutcomeAborted        Outcome = "aborted"
)

// FailedOutcome returns the failure outcome for a phase.
func FailedOutcome(phase Phase) Outcome {
	switch phase {
	case PhaseClone:
		return OutcomeCloneFailed
	case PhaseCheckout:
		return OutcomeCheckoutFailed
	case PhasePull:
		return OutcomePullFailed
	default:
		return OutcomeAborted
	}
}

// SyncResult records the outcome for a single repo.
type SyncResult struct {
	// Name is the repo name from the registry.
	Name string `json:"name" yaml:"name"`
	// Dir is the absolute target directory.
	Dir string `json:"dir" yaml:"dir"`
	// Outcome is the typed outcome category.
	Outcome Outcome `json:"outcome" yaml:"outcome"`
	// OK is false only for failed or aborted repos.
	OK bool `json:"ok" yaml:"ok"`
	// Phase is set when the repo failed during a git operation.
	Phase Phase `json:"phase,omitempty" yaml:"phase,omitempty"`
	// Error holds the failure message.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// ErrorClass is a coarse category for Error (auth, network, timeout, ...).
	ErrorClass string `json:"error_class,omitempty" yaml:"error_class,omitempty"`
	// Actions lists each git command attempted or planned, rendered shell style.
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty"`
	// Err is the underlying error. Not serialized.
	Err error `json:"-" yaml:"-"`
}

// SyncReport is the top-level output of a sync run.
type SyncReport struct {
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
	RootBranch  string       `json:"root_branch" yaml:"root_branch"`
	BaseDir     string       `json:"base_dir" yaml:"base_dir"`
	Results     []SyncResult `json:"results" yaml:"results"`
}

// Failed returns the results that did not succeed, in report order.
func (r *SyncReport) Failed() []SyncResult {
	if r == nil {
		return nil
	}
	var out []SyncResult
	for _, res := range r.Results {
		if !res.OK {
			out = append(out, res)
		}
	}
	return out
}

// Count returns how many results have the given outcome.
func (r *SyncReport) Count(outcome Outcome) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}
