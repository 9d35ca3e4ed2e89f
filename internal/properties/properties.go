// SPDX-License-Identifier: MIT
// Package properties loads the devenv override file: flat key=value lines
// keyed by repository name.
package properties

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/skaphos/devenv/internal/model"
)

// DefaultFilename is the override file looked up in the devenv base dir.
const DefaultFilename = "repo.properties"

// Overrides is a flat mapping of override keys to values. A missing key is
// distinct from a key with an empty value.
type Overrides struct {
	values map[string]string
}

// FromMap builds Overrides from an existing map. The map is copied.
func FromMap(m map[string]string) Overrides {
	values := make(map[string]string, len(m))
	for k, v := range m {
		values[k] = v
	}
	return Overrides{values: values}
}

// Get returns the value for key and whether the key was present.
func (o Overrides) Get(key string) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Len returns the number of keys.
func (o Overrides) Len() int { return len(o.values) }

// Keys returns all keys, sorted.
func (o Overrides) Keys() []string {
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IncludeKey is the key overriding whether a repository is synchronized.
func IncludeKey(name string) string { return name + ".include" }

// URLKey is the key overriding the clone URL.
func URLKey(name string) string { return name + ".url" }

// BranchKey is the key overriding the branch.
func BranchKey(name string) string { return name + ".branch" }

// DirKey is the key overriding the checkout directory.
func DirKey(name string) string { return name + ".dir" }

// Load reads the override file at path. It fails with a *model.ConfigError
// when the file is missing, not a regular file, or cannot be parsed.
func Load(path string) (Overrides, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Overrides{}, &model.ConfigError{Path: path, Msg: "properties file does not exist", Err: err}
	}
	if !info.Mode().IsRegular() {
		return Overrides{}, &model.ConfigError{Path: path, Msg: "properties file is not a regular file"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, &model.ConfigError{Path: path, Msg: "cannot read properties file", Err: err}
	}
	file, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:      "=",
		IgnoreInlineComment:     true,
		PreserveSurroundedQuote: true,
		AllowBooleanKeys:        true,
	}, data)
	if err != nil {
		return Overrides{}, &model.ConfigError{Path: path, Msg: "cannot parse properties file", Err: err}
	}
	bare := bareKeys(string(data))

	values := map[string]string{}
	for _, section := range file.Sections() {
		if section.Name() != ini.DefaultSection {
			return Overrides{}, &model.ConfigError{Path: path, Msg: fmt.Sprintf("unexpected section [%s] in properties file", section.Name())}
		}
		for _, key := range section.Keys() {
			if bare[key.Name()] {
				values[key.Name()] = ""
				continue
			}
			values[key.Name()] = key.Value()
		}
	}
	return Overrides{values: values}, nil
}

// bareKeys reports the keys whose last occurrence is a line with no "=".
// ini reads those as boolean "true"; a properties file gives them an empty
// value.
func bareKeys(data string) map[string]bool {
	bare := map[string]bool{}
	for line := range strings.Lines(data) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "[") {
			continue
		}
		if name, _, ok := strings.Cut(line, "="); ok {
			bare[strings.TrimSpace(name)] = false
		} else {
			bare[line] = true
		}
	}
	return bare
}
