// Package engine orchestrates devenv synchronization: it resolves the
// registry against the properties file and root branch, then clones or
// updates every included repo with a bounded worker pool.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/skaphos/devenv/internal/config"
	"github.com/skaphos/devenv/internal/gitx"
	"github.com/skaphos/devenv/internal/model"
	"github.com/skaphos/devenv/internal/properties"
	"github.com/skaphos/devenv/internal/registry"
	"github.com/skaphos/devenv/internal/resolve"
	"github.com/skaphos/devenv/internal/rootbranch"
	"github.com/skaphos/devenv/internal/vcs"
)

// Engine is the core orchestrator for devenv sync runs.
type Engine struct {
	cfg      *config.Config
	registry *registry.Registry
	adapter  vcs.Adapter

	progress   io.Writer
	progressMu sync.Mutex
	now        func() time.Time
	branchOf   func(dir string) (string, error)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithProgress sets where per-repo progress lines are written.
func WithProgress(w io.Writer) Option {
	return func(e *Engine) { e.progress = w }
}

// WithRootBranchDetector replaces the go-git based root branch detector.
func WithRootBranchDetector(fn func(dir string) (string, error)) Option {
	return func(e *Engine) { e.branchOf = fn }
}

// WithClock sets the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a new Engine with the given configuration.
func New(cfg *config.Config, reg *registry.Registry, adapter vcs.Adapter, opts ...Option) *Engine {
	if adapter == nil {
		adapter = vcs.NewGitAdapter(nil)
	}
	e := &Engine{
		cfg:      cfg,
		registry: reg,
		adapter:  adapter,
		progress: io.Discard,
		now:      time.Now,
		branchOf: rootbranch.CurrentBranch,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.progress == nil {
		e.progress = io.Discard
	}
	return e
}

// Config returns the engine configuration reference.
func (e *Engine) Config() *config.Config { return e.cfg }

// Registry returns the engine registry reference.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Adapter returns the engine VCS adapter.
func (e *Engine) Adapter() vcs.Adapter { return e.adapter }

// PrepareOptions configures the pre-flight of a sync run.
type PrepareOptions struct {
	// BaseDir is the directory repos are synchronized into. It must be
	// inside a git checkout whose branch becomes the root branch.
	BaseDir string
	// PropertiesPath overrides <BaseDir>/<properties_file>.
	PropertiesPath string
	// URLPrefix overrides the configured repo_url_prefix.
	URLPrefix string
	// Only restricts the run to repos whose name matches one of these globs.
	Only []string
}

// Plan is the fully resolved input of a sync run.
type Plan struct {
	BaseDir        string
	RootBranch     string
	PropertiesPath string
	URLPrefix      string
	Overrides      properties.Overrides
	Repos          []model.Repo
}

// Included returns the repos that will be cloned or updated.
func (p *Plan) Included() []model.Repo {
	if p == nil {
		return nil
	}
	var out []model.Repo
	for _, repo := range p.Repos {
		if repo.Include {
			out = append(out, repo)
		}
	}
	return out
}

// TargetDir returns the absolute checkout directory for repo.
func (p *Plan) TargetDir(repo model.Repo) string {
	return targetDir(p.BaseDir, repo)
}

// Prepare validates configuration and resolves every selected repo. All
// failures here are fatal and nothing on disk has been touched yet.
func (e *Engine) Prepare(ctx context.Context, opts PrepareOptions) (*Plan, error) {
	if e.registry == nil {
		return nil, errors.New("registry not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	urlPrefix := strings.TrimSpace(opts.URLPrefix)
	if urlPrefix == "" && e.cfg != nil {
		urlPrefix = strings.TrimSpace(e.cfg.RepoURLPrefix)
	}
	if urlPrefix == "" {
		return nil, &model.ConfigError{Msg: "cannot update repositories: URL prefix has not been set (repo_url_prefix)"}
	}

	if strings.TrimSpace(opts.BaseDir) == "" {
		return nil, &model.ConfigError{Msg: "base directory is not set"}
	}
	baseDir, err := filepath.Abs(opts.BaseDir)
	if err != nil {
		return nil, &model.ConfigError{Path: opts.BaseDir, Msg: "cannot resolve base directory", Err: err}
	}

	propsPath := opts.PropertiesPath
	if propsPath == "" {
		propsPath = config.PropertiesPath(baseDir, e.cfg)
	}
	overrides, err := properties.Load(propsPath)
	if err != nil {
		return nil, err
	}

	rootBranch, err := e.branchOf(baseDir)
	if err != nil {
		return nil, fmt.Errorf("cannot determine root branch of %s: %w", baseDir, err)
	}

	specs, err := e.registry.Select(opts.Only)
	if err != nil {
		return nil, err
	}
	return &Plan{
		BaseDir:        baseDir,
		RootBranch:     rootBranch,
		PropertiesPath: propsPath,
		URLPrefix:      urlPrefix,
		Overrides:      overrides,
		Repos:          resolve.ResolveAll(specs, overrides, rootBranch, urlPrefix),
	}, nil
}

// ExecuteOptions configures the execution half of a sync run.
type ExecuteOptions struct {
	Concurrency    int
	TimeoutSeconds int
	DryRun         bool
}

// Sync runs Prepare then Execute.
func (e *Engine) Sync(ctx context.Context, popts PrepareOptions, eopts ExecuteOptions) (*model.SyncReport, error) {
	plan, err := e.Prepare(ctx, popts)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, plan, eopts)
}

type indexedResult struct {
	index  int
	result model.SyncResult
}

// Execute syncs every repo in plan and returns results in plan order. When
// any repo failed, the report is returned together with a *model.SyncError.
func (e *Engine) Execute(ctx context.Context, plan *Plan, opts ExecuteOptions) (*model.SyncReport, error) {
	if plan == nil {
		return nil, errors.New("plan is nil")
	}
	concurrency, timeoutSeconds := e.syncRuntime(opts)

	results := make([]model.SyncResult, len(plan.Repos))
	sem := make(chan struct{}, concurrency)
	// Sized to every repo so a finished worker never blocks the spawning loop.
	out := make(chan indexedResult, max(len(plan.Repos), 1))
	spawned := 0

	for i, repo := range plan.Repos {
		if !repo.Include {
			results[i] = skippedResult(plan.BaseDir, repo)
			continue
		}
		if !acquire(ctx, sem) {
			results[i] = e.abortedResult(plan.BaseDir, repo, context.Cause(ctx))
			continue
		}
		spawned++
		go func(i int, repo model.Repo) {
			defer func() { <-sem }()

			repoCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
			defer cancel()
			res := e.syncRepo(repoCtx, repo, plan.BaseDir, opts.DryRun, timeoutCause(ctx, repoCtx, timeoutSeconds))
			out <- indexedResult{index: i, result: res}
		}(i, repo)
	}

	for range spawned {
		r := <-out
		results[r.index] = r.result
	}

	report := &model.SyncReport{
		GeneratedAt: e.now(),
		RootBranch:  plan.RootBranch,
		BaseDir:     plan.BaseDir,
		Results:     results,
	}
	if failures := repoErrors(results); len(failures) > 0 {
		return report, &model.SyncError{Failures: failures}
	}
	return report, nil
}

// SyncRepo clones or updates a single repo under baseDir.
func (e *Engine) SyncRepo(ctx context.Context, repo model.Repo, baseDir string) model.SyncResult {
	if !repo.Include {
		return skippedResult(baseDir, repo)
	}
	return e.syncRepo(ctx, repo, baseDir, false, nil)
}

func (e *Engine) syncRepo(ctx context.Context, repo model.Repo, baseDir string, dryRun bool, cause func(error) error) model.SyncResult {
	run := newRepoRun(repo, targetDir(baseDir, repo))
	run.cause = cause
	defer e.flush(run)

	if err := ctx.Err(); err != nil {
		return run.fail(e.pendingPhase(run.result.Dir), err)
	}

	if _, err := os.Stat(run.result.Dir); err != nil {
		if !os.IsNotExist(err) {
			return run.fail(model.PhaseClone, err)
		}
		action := e.adapter.CloneAction(repo.URL, run.result.Dir, repo.Branch)
		if dryRun {
			return run.plan(action)
		}
		run.log(action)
		if err := e.adapter.Clone(ctx, repo.URL, run.result.Dir, repo.Branch); err != nil {
			return run.fail(model.PhaseClone, err)
		}
		return run.succeed(model.OutcomeCloned)
	}

	if !e.adapter.IsCheckout(run.result.Dir) {
		return run.fail(model.PhaseCheckout, fmt.Errorf("%s: %w", run.result.Dir, model.ErrNotAGitRepository))
	}
	current, err := e.adapter.CurrentBranch(ctx, run.result.Dir)
	if err != nil {
		return run.fail(model.PhaseCheckout, err)
	}

	var planned []string
	if current != repo.Branch {
		action := e.adapter.CheckoutAction(repo.Branch)
		if dryRun {
			planned = append(planned, action)
		} else {
			run.log(action)
			if err := e.adapter.Checkout(ctx, run.result.Dir, repo.Branch); err != nil {
				return run.fail(model.PhaseCheckout, err)
			}
		}
	}

	action := e.adapter.PullAction()
	if dryRun {
		return run.plan(append(planned, action)...)
	}
	run.log(action)
	if err := e.adapter.PullRebase(ctx, run.result.Dir); err != nil {
		return run.fail(model.PhasePull, err)
	}
	return run.succeed(model.OutcomeUpdated)
}

// pendingPhase is the phase a repo that never started would have entered.
func (e *Engine) pendingPhase(dir string) model.Phase {
	if _, err := os.Stat(dir); err != nil {
		return model.PhaseClone
	}
	return model.PhasePull
}

func (e *Engine) abortedResult(baseDir string, repo model.Repo, cause error) model.SyncResult {
	run := newRepoRun(repo, targetDir(baseDir, repo))
	if cause == nil {
		cause = context.Canceled
	}
	return run.fail(e.pendingPhase(run.result.Dir), fmt.Errorf("not started: %w", cause))
}

func (e *Engine) flush(run *repoRun) {
	if run.lines.Len() == 0 {
		return
	}
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	_, _ = e.progress.Write(run.lines.Bytes())
}

func (e *Engine) syncRuntime(opts ExecuteOptions) (int, int) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		if e.cfg != nil && e.cfg.Defaults.Concurrency > 0 {
			concurrency = e.cfg.Defaults.Concurrency
		} else {
			concurrency = config.DefaultConcurrency()
		}
		if concurrency <= 0 {
			concurrency = 1
		}
	}
	timeoutSeconds := opts.TimeoutSeconds
	if timeoutSeconds <= 0 {
		if e.cfg != nil && e.cfg.Defaults.TimeoutSeconds > 0 {
			timeoutSeconds = e.cfg.Defaults.TimeoutSeconds
		} else {
			timeoutSeconds = config.DefaultConfig().Defaults.TimeoutSeconds
		}
	}
	return concurrency, timeoutSeconds
}

// repoRun accumulates the result and progress lines of one repo.
type repoRun struct {
	result model.SyncResult
	lines  bytes.Buffer
	// cause, when set, rewrites a failure before it is recorded.
	cause func(error) error
}

func newRepoRun(repo model.Repo, dir string) *repoRun {
	return &repoRun{result: model.SyncResult{Name: repo.Name, Dir: dir}}
}

func (r *repoRun) log(action string) {
	r.result.Actions = append(r.result.Actions, action)
	fmt.Fprintf(&r.lines, "%s: %s\n", r.result.Name, action)
}

func (r *repoRun) plan(actions ...string) model.SyncResult {
	r.result.Actions = append(r.result.Actions, actions...)
	r.result.Outcome = model.OutcomePlanned
	r.result.OK = true
	return r.result
}

func (r *repoRun) succeed(outcome model.Outcome) model.SyncResult {
	r.result.Outcome = outcome
	r.result.OK = true
	return r.result
}

func (r *repoRun) fail(phase model.Phase, err error) model.SyncResult {
	if r.cause != nil {
		err = r.cause(err)
	}
	repoErr := &model.RepoError{Name: r.result.Name, Phase: phase, Err: err}
	r.result.OK = false
	r.result.Phase = phase
	r.result.Outcome = model.FailedOutcome(phase)
	if errors.Is(err, context.Canceled) {
		r.result.Outcome = model.OutcomeAborted
	}
	r.result.Err = repoErr
	r.result.Error = repoErr.Error()
	r.result.ErrorClass = gitx.ClassifyError(err)
	fmt.Fprintf(&r.lines, "%s: %s failed: %v\n", r.result.Name, phase, err)
	return r.result
}

// timeoutCause wraps failures caused by the per-repo deadline in
// model.ErrTimeout. A cancelled parent is left alone.
func timeoutCause(parent, repoCtx context.Context, timeoutSeconds int) func(error) error {
	return func(err error) error {
		if parent.Err() != nil || !errors.Is(repoCtx.Err(), context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w after %ds: %w", model.ErrTimeout, timeoutSeconds, err)
	}
}

func acquire(ctx context.Context, sem chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case sem <- struct{}{}:
		if ctx.Err() != nil {
			<-sem
			return false
		}
		return true
	case <-ctx.Done():
		return false
	}
}

func skippedResult(baseDir string, repo model.Repo) model.SyncResult {
	return model.SyncResult{
		Name:    repo.Name,
		Dir:     targetDir(baseDir, repo),
		Outcome: model.OutcomeSkipped,
		OK:      true,
	}
}

func targetDir(baseDir string, repo model.Repo) string {
	if filepath.IsAbs(repo.Dir) {
		return filepath.Clean(repo.Dir)
	}
	return filepath.Join(baseDir, repo.Dir)
}

func repoErrors(results []model.SyncResult) []*model.RepoError {
	var out []*model.RepoError
	for _, res := range results {
		var repoErr *model.RepoError
		if !res.OK && errors.As(res.Err, &repoErr) {
			out = append(out, repoErr)
		}
	}
	return out
}
