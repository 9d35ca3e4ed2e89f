// Package config handles loading, saving, and resolving the devenv
// workspace configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/skaphos/devenv/internal/model"
	"github.com/skaphos/devenv/internal/properties"
	"github.com/skaphos/devenv/internal/registry"
)

const (
	// LocalConfigFilename is the per-workspace devenv config file.
	LocalConfigFilename = "devenv.yaml"
	// ConfigAPIVersion is the current config schema apiVersion.
	ConfigAPIVersion = "skaphos.io/devenv/v1beta1"
	// ConfigKind is the current config schema kind.
	ConfigKind = "DevenvConfig"
	// EnvConfig names the environment variable that overrides config lookup.
	EnvConfig = "DEVENV_CONFIG"

	maxDefaultConcurrency = 8
	defaultTimeoutSeconds = 300
)

// ErrConfigNotFound is returned when no devenv.yaml exists in cwd or a parent.
var ErrConfigNotFound = errors.New("no " + LocalConfigFilename + " found")

// Defaults holds default values for sync runs.
type Defaults struct {
	Concurrency    int `yaml:"concurrency"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Config represents a devenv workspace configuration.
type Config struct {
	APIVersion     string           `yaml:"apiVersion"`
	Kind           string           `yaml:"kind"`
	RepoURLPrefix  string           `yaml:"repo_url_prefix"`
	PropertiesFile string           `yaml:"properties_file,omitempty"`
	BaseDir        string           `yaml:"base_dir,omitempty"`
	RegistryPath   string           `yaml:"registry_path,omitempty"`
	Repos          []model.RepoSpec `yaml:"repos,omitempty"`
	Defaults       Defaults         `yaml:"defaults"`
}

// DefaultConcurrency is min(8, NumCPU).
func DefaultConcurrency() int {
	return min(maxDefaultConcurrency, runtime.NumCPU())
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() Config {
	return Config{
		APIVersion:     ConfigAPIVersion,
		Kind:           ConfigKind,
		PropertiesFile: properties.DefaultFilename,
		Defaults: Defaults{
			Concurrency:    DefaultConcurrency(),
			TimeoutSeconds: defaultTimeoutSeconds,
		},
	}
}

// ConfigPath resolves the config file path from override/env. A directory
// resolves to the devenv.yaml inside it.
func ConfigPath(override string) (string, error) {
	if override != "" {
		return configFileIn(override), nil
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return configFileIn(env), nil
	}
	return "", errors.New("no config override set")
}

// InitConfigPath resolves where "devenv init" should write config.
// Order: explicit override, DEVENV_CONFIG, then devenv.yaml in cwd.
func InitConfigPath(override, cwd string) (string, error) {
	if override != "" || os.Getenv(EnvConfig) != "" {
		return ConfigPath(override)
	}

	if strings.TrimSpace(cwd) == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(cwd, LocalConfigFilename), nil
}

// ResolveConfigPath resolves config for runtime commands.
// Order: explicit override, DEVENV_CONFIG, then the nearest devenv.yaml in
// cwd or its parents.
func ResolveConfigPath(override, cwd string) (string, error) {
	if override != "" || os.Getenv(EnvConfig) != "" {
		return ConfigPath(override)
	}

	if strings.TrimSpace(cwd) == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	localPath, err := FindNearestConfigPath(cwd)
	if err != nil {
		return "", err
	}
	if localPath == "" {
		return "", fmt.Errorf("%w in %s or any parent directory (run \"devenv init\")", ErrConfigNotFound, cwd)
	}
	return localPath, nil
}

// FindNearestConfigPath searches cwd and each parent directory for devenv.yaml.
// It returns an empty string when no config file is found.
func FindNearestConfigPath(cwd string) (string, error) {
	dir := cwd
	for {
		candidate := filepath.Join(dir, LocalConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads the config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &model.ConfigError{Path: path, Msg: "cannot parse config", Err: err}
	}
	applyConfigGVK(&cfg)
	if err := validateConfigGVK(&cfg); err != nil {
		return nil, &model.ConfigError{Path: path, Msg: "invalid config", Err: err}
	}
	if cfg.RegistryPath != "" && len(cfg.Repos) > 0 {
		return nil, &model.ConfigError{Path: path, Msg: "registry_path and inline repos are mutually exclusive"}
	}
	if err := (&registry.Registry{Repos: cfg.Repos}).Validate(); err != nil {
		return nil, &model.ConfigError{Path: path, Msg: "invalid repos", Err: err}
	}
	if strings.TrimSpace(cfg.PropertiesFile) == "" {
		cfg.PropertiesFile = properties.DefaultFilename
	}
	if cfg.Defaults.Concurrency <= 0 {
		cfg.Defaults.Concurrency = DefaultConfig().Defaults.Concurrency
	}
	if cfg.Defaults.TimeoutSeconds <= 0 {
		cfg.Defaults.TimeoutSeconds = defaultTimeoutSeconds
	}
	return &cfg, nil
}

// LoadRegistry returns the repositories declared by cfg. A registry_path
// that does not exist yet yields an empty registry.
func LoadRegistry(configPath string, cfg *Config) (*registry.Registry, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if cfg.RegistryPath == "" {
		return &registry.Registry{Repos: append([]model.RepoSpec(nil), cfg.Repos...)}, nil
	}
	reg, err := registry.Load(ResolveRegistryPath(configPath, cfg.RegistryPath))
	if err != nil {
		if os.IsNotExist(err) {
			return &registry.Registry{}, nil
		}
		return nil, err
	}
	return reg, nil
}

// SaveRegistry persists reg where cfg says repositories live: the
// registry_path file, or inline in the config file itself.
func SaveRegistry(configPath string, cfg *Config, reg *registry.Registry) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.RegistryPath != "" {
		return registry.Save(reg, ResolveRegistryPath(configPath, cfg.RegistryPath))
	}
	cfg.Repos = reg.Specs()
	return Save(cfg, configPath)
}

// ResolveRegistryPath resolves registry_path against the config file location.
// Absolute paths are returned unchanged; relative paths are joined to the
// directory containing configPath.
func ResolveRegistryPath(configPath, registryPath string) string {
	return resolveAgainst(ConfigRoot(configPath), registryPath)
}

// ConfigRoot returns the directory holding the config file.
func ConfigRoot(configPath string) string {
	if strings.TrimSpace(configPath) == "" {
		return ""
	}
	return filepath.Clean(filepath.Dir(configPath))
}

// EffectiveBaseDir returns the directory repos are synchronized into:
// base_dir resolved against the config location, or the config directory.
func EffectiveBaseDir(configPath string, cfg *Config) string {
	if cfg == nil || strings.TrimSpace(cfg.BaseDir) == "" {
		return ConfigRoot(configPath)
	}
	return resolveAgainst(ConfigRoot(configPath), cfg.BaseDir)
}

// PropertiesPath returns the properties file location for baseDir.
func PropertiesPath(baseDir string, cfg *Config) string {
	name := properties.DefaultFilename
	if cfg != nil && strings.TrimSpace(cfg.PropertiesFile) != "" {
		name = cfg.PropertiesFile
	}
	return resolveAgainst(baseDir, name)
}

// Save writes the config to the given path.
func Save(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	applyConfigGVK(cfg)
	if err := validateConfigGVK(cfg); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func resolveAgainst(base, path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	if filepath.IsAbs(path) || strings.TrimSpace(base) == "" {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}

func configFileIn(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return path
	}
	return filepath.Join(path, LocalConfigFilename)
}

func applyConfigGVK(cfg *Config) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = ConfigAPIVersion
	}
	if strings.TrimSpace(cfg.Kind) == "" {
		cfg.Kind = ConfigKind
	}
}

func validateConfigGVK(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.APIVersion != ConfigAPIVersion {
		return fmt.Errorf("unsupported config apiVersion %q (expected %q)", cfg.APIVersion, ConfigAPIVersion)
	}
	if cfg.Kind != ConfigKind {
		return fmt.Errorf("unsupported config kind %q (expected %q)", cfg.Kind, ConfigKind)
	}
	return nil
}
