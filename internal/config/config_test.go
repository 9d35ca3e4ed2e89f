package config_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/devenv/internal/config"
	"github.com/skaphos/devenv/internal/model"
	"github.com/skaphos/devenv/internal/registry"
)

const minimalConfig = "apiVersion: skaphos.io/devenv/v1beta1\nkind: DevenvConfig\nrepo_url_prefix: git@example.com:org\n"

var _ = Describe("Config", func() {
	BeforeEach(func() {
		GinkgoT().Setenv(config.EnvConfig, "")
	})

	It("resolves config path from override directory", func() {
		path, err := config.ConfigPath(filepath.Join("tmp", "workspace"))
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join("tmp", "workspace", "devenv.yaml")))
	})

	It("resolves config path from override file", func() {
		path, err := config.ConfigPath(filepath.Join("tmp", "custom.yml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join("tmp", "custom.yml")))
	})

	It("resolves config path from env", func() {
		GinkgoT().Setenv(config.EnvConfig, filepath.Join("cfg", "devenv.yaml"))
		path, err := config.ResolveConfigPath("", GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join("cfg", "devenv.yaml")))
	})

	It("resolves init path to devenv.yaml in cwd by default", func() {
		dir := GinkgoT().TempDir()
		path, err := config.InitConfigPath("", dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "devenv.yaml")))
	})

	It("resolves runtime config from nearest parent", func() {
		dir := GinkgoT().TempDir()
		parentPath := filepath.Join(dir, "devenv.yaml")
		Expect(os.WriteFile(parentPath, []byte(minimalConfig), 0o644)).To(Succeed())

		nested := filepath.Join(dir, "a", "b", "c")
		Expect(os.MkdirAll(nested, 0o755)).To(Succeed())

		path, err := config.ResolveConfigPath("", nested)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(parentPath))
	})

	It("prefers nearer config over farther parent", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "devenv.yaml"), []byte(minimalConfig), 0o644)).To(Succeed())

		childDir := filepath.Join(dir, "a", "b")
		Expect(os.MkdirAll(childDir, 0o755)).To(Succeed())
		childPath := filepath.Join(childDir, "devenv.yaml")
		Expect(os.WriteFile(childPath, []byte(minimalConfig), 0o644)).To(Succeed())

		path, err := config.ResolveConfigPath("", childDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(childPath))
	})

	It("reports a missing config", func() {
		_, err := config.ResolveConfigPath("", GinkgoT().TempDir())
		Expect(errors.Is(err, config.ErrConfigNotFound)).To(BeTrue())
	})

	It("loads a minimal config with defaults", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "devenv.yaml")
		Expect(os.WriteFile(path, []byte(minimalConfig), 0o644)).To(Succeed())

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.RepoURLPrefix).To(Equal("git@example.com:org"))
		Expect(cfg.PropertiesFile).To(Equal("repo.properties"))
		Expect(cfg.Defaults.TimeoutSeconds).To(Equal(300))
		Expect(cfg.Defaults.Concurrency).To(Equal(config.DefaultConcurrency()))
		Expect(config.DefaultConcurrency()).To(BeNumerically("<=", 8))
		Expect(config.EffectiveBaseDir(path, cfg)).To(Equal(dir))
		Expect(config.PropertiesPath(dir, cfg)).To(Equal(filepath.Join(dir, "repo.properties")))
	})

	It("rejects an unknown kind", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "devenv.yaml")
		Expect(os.WriteFile(path, []byte("apiVersion: skaphos.io/devenv/v1beta1\nkind: Other\n"), 0o644)).To(Succeed())

		_, err := config.Load(path)
		var cfgErr *model.ConfigError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("unsupported config kind"))
	})

	It("rejects duplicate inline repos", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "devenv.yaml")
		body := minimalConfig + "repos:\n  - name: core\n  - name: core\n"
		Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())

		_, err := config.Load(path)
		Expect(errors.Is(err, registry.ErrDuplicateName)).To(BeTrue())
	})

	It("round-trips inline repos through SaveRegistry", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "devenv.yaml")
		cfg := config.DefaultConfig()
		cfg.RepoURLPrefix = "https://example.com/org"
		Expect(config.Save(&cfg, path)).To(Succeed())

		reg, err := config.LoadRegistry(path, &cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(reg.Register("core", registry.WithInclude(true))).To(Succeed())
		Expect(config.SaveRegistry(path, &cfg, reg)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Repos).To(HaveLen(1))
		Expect(loaded.Repos[0].Name).To(Equal("core"))
		Expect(*loaded.Repos[0].Include).To(BeTrue())
	})

	It("stores repos in registry_path when set", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "devenv.yaml")
		cfg := config.DefaultConfig()
		cfg.RepoURLPrefix = "https://example.com/org"
		cfg.RegistryPath = "repos.yaml"
		Expect(config.Save(&cfg, path)).To(Succeed())

		reg, err := config.LoadRegistry(path, &cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(reg.Specs()).To(BeEmpty())
		Expect(reg.Register("tools", registry.WithBranch("dev"))).To(Succeed())
		Expect(config.SaveRegistry(path, &cfg, reg)).To(Succeed())

		Expect(filepath.Join(dir, "repos.yaml")).To(BeAnExistingFile())
		reloaded, err := config.LoadRegistry(path, &cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.Lookup("tools")).NotTo(BeNil())
		Expect(*reloaded.Lookup("tools").Branch).To(Equal("dev"))
	})

	It("resolves base_dir relative to the config", func() {
		cfg := config.DefaultConfig()
		cfg.BaseDir = "src"
		Expect(config.EffectiveBaseDir(filepath.Join("/ws", "devenv.yaml"), &cfg)).To(Equal(filepath.Join("/ws", "src")))
		cfg.BaseDir = "/abs/src"
		Expect(config.EffectiveBaseDir(filepath.Join("/ws", "devenv.yaml"), &cfg)).To(Equal("/abs/src"))
	})
})
