// SPDX-License-Identifier: MIT
// Package resolve merges declared repository defaults with properties
// overrides and computed fallbacks into fully resolved repos.
//
// Every field resolves independently in the same order: a properties
// override wins over the declared default, and the declared default wins
// over the computed fallback. Nothing here touches the network or disk.
package resolve

import (
	"strings"

	"github.com/skaphos/devenv/internal/model"
	"github.com/skaphos/devenv/internal/properties"
)

// Resolve returns the fully resolved repo for spec.
func Resolve(spec model.RepoSpec, overrides properties.Overrides, rootBranch, urlPrefix string) model.Repo {
	return model.Repo{
		Name:    spec.Name,
		Include: resolveInclude(spec, overrides),
		URL:     resolveURL(spec, overrides, urlPrefix),
		Branch:  resolveBranch(spec, overrides, rootBranch),
		Dir:     resolveDir(spec, overrides),
	}
}

// ResolveAll resolves specs in order.
func ResolveAll(specs []model.RepoSpec, overrides properties.Overrides, rootBranch, urlPrefix string) []model.Repo {
	out := make([]model.Repo, 0, len(specs))
	for _, spec := range specs {
		out = append(out, Resolve(spec, overrides, rootBranch, urlPrefix))
	}
	return out
}

// DefaultURL is the computed clone URL for name under urlPrefix.
func DefaultURL(urlPrefix, name string) string {
	return strings.TrimSuffix(urlPrefix, "/") + "/" + name + ".git"
}

func resolveInclude(spec model.RepoSpec, overrides properties.Overrides) bool {
	if v, ok := overrides.Get(properties.IncludeKey(spec.Name)); ok {
		return isTrue(v)
	}
	if spec.Include != nil {
		return *spec.Include
	}
	return false
}

func resolveURL(spec model.RepoSpec, overrides properties.Overrides, urlPrefix string) string {
	if v, ok := overrides.Get(properties.URLKey(spec.Name)); ok {
		return v
	}
	if spec.URL != nil {
		return *spec.URL
	}
	return DefaultURL(urlPrefix, spec.Name)
}

func resolveBranch(spec model.RepoSpec, overrides properties.Overrides, rootBranch string) string {
	if v, ok := overrides.Get(properties.BranchKey(spec.Name)); ok {
		return v
	}
	if spec.Branch != nil {
		return *spec.Branch
	}
	return rootBranch
}

// resolveDir ignores blank values: an empty dir would alias the base dir.
func resolveDir(spec model.RepoSpec, overrides properties.Overrides) string {
	if v, ok := overrides.Get(properties.DirKey(spec.Name)); ok && strings.TrimSpace(v) != "" {
		return v
	}
	if spec.Dir != nil && strings.TrimSpace(*spec.Dir) != "" {
		return *spec.Dir
	}
	return spec.Name
}

func isTrue(v string) bool {
	return strings.TrimSpace(v) == "true"
}
