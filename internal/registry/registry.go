// SPDX-License-Identifier: MIT
// Package registry holds the ordered set of declared repositories that a
// devenv synchronizes. A Registry is a plain value owned by the caller.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.yaml.in/yaml/v3"

	"github.com/skaphos/devenv/internal/model"
)

// ErrDuplicateName is returned when a name is registered twice.
var ErrDuplicateName = errors.New("repository already registered")

// Registry is the ordered list of declared repositories.
type Registry struct {
	Repos []model.RepoSpec `yaml:"repos"`
}

// Option sets an optional declared default on a RepoSpec.
type Option func(*model.RepoSpec)

// WithInclude sets the declared inclusion default.
func WithInclude(include bool) Option {
	return func(s *model.RepoSpec) { s.Include = &include }
}

// WithURL sets the declared clone URL.
func WithURL(url string) Option {
	return func(s *model.RepoSpec) { s.URL = &url }
}

// WithBranch sets the declared branch.
func WithBranch(branch string) Option {
	return func(s *model.RepoSpec) { s.Branch = &branch }
}

// WithDir sets the declared checkout directory.
func WithDir(dir string) Option {
	return func(s *model.RepoSpec) { s.Dir = &dir }
}

// NewSpec builds a RepoSpec from a name and options.
func NewSpec(name string, opts ...Option) model.RepoSpec {
	spec := model.RepoSpec{Name: strings.TrimSpace(name)}
	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}

// Register appends a new repository declaration. Names must be unique.
func (r *Registry) Register(name string, opts ...Option) error {
	spec := NewSpec(name, opts...)
	if err := validateName(spec.Name); err != nil {
		return err
	}
	if r.Lookup(spec.Name) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateName, spec.Name)
	}
	r.Repos = append(r.Repos, spec)
	return nil
}

// Upsert replaces the declaration with the same name in place, or appends it.
func (r *Registry) Upsert(spec model.RepoSpec) error {
	spec.Name = strings.TrimSpace(spec.Name)
	if err := validateName(spec.Name); err != nil {
		return err
	}
	for i := range r.Repos {
		if r.Repos[i].Name == spec.Name {
			r.Repos[i] = spec
			return nil
		}
	}
	r.Repos = append(r.Repos, spec)
	return nil
}

// Remove deletes the named declaration. It reports whether one was removed.
func (r *Registry) Remove(name string) bool {
	for i := range r.Repos {
		if r.Repos[i].Name == name {
			r.Repos = append(r.Repos[:i], r.Repos[i+1:]...)
			return true
		}
	}
	return false
}

// Lookup returns the named declaration, or nil.
func (r *Registry) Lookup(name string) *model.RepoSpec {
	if r == nil {
		return nil
	}
	for i := range r.Repos {
		if r.Repos[i].Name == name {
			return &r.Repos[i]
		}
	}
	return nil
}

// Specs returns a copy of the declarations in registration order.
func (r *Registry) Specs() []model.RepoSpec {
	if r == nil {
		return nil
	}
	return append([]model.RepoSpec(nil), r.Repos...)
}

// Select returns declarations whose name matches any of the glob patterns,
// in registration order. No patterns selects everything.
func (r *Registry) Select(patterns []string) ([]model.RepoSpec, error) {
	if len(patterns) == 0 {
		return r.Specs(), nil
	}
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid repository pattern %q", pattern)
		}
	}
	var out []model.RepoSpec
	for _, spec := range r.Specs() {
		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, spec.Name); ok {
				out = append(out, spec)
				break
			}
		}
	}
	return out, nil
}

// Validate checks that every declaration has a usable, unique name.
func (r *Registry) Validate() error {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Repos))
	for i, spec := range r.Repos {
		if err := validateName(spec.Name); err != nil {
			return fmt.Errorf("repos[%d]: %w", i, err)
		}
		if _, ok := seen[spec.Name]; ok {
			return fmt.Errorf("repos[%d]: %w: %q", i, ErrDuplicateName, spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return errors.New("repository name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("repository name %q must be a single path element", name)
	}
	return nil
}

// Load reads a registry file from the given path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry to the given path.
func Save(reg *Registry, path string) error {
	if reg == nil {
		return errors.New("registry is nil")
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(reg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
