package properties_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/devenv/internal/model"
	"github.com/skaphos/devenv/internal/properties"
)

func writeProps(content string) string {
	path := filepath.Join(GinkgoT().TempDir(), properties.DefaultFilename)
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	return path
}

var _ = Describe("Properties", func() {
	It("loads key=value overrides", func() {
		path := writeProps("# devenv overrides\ncore.include=true\ncore.url = git@example.com:org/core.git\ncore.branch=dev\ndocs.dir=documentation\n")
		overrides, err := properties.Load(path)
		Expect(err).NotTo(HaveOccurred())

		v, ok := overrides.Get(properties.IncludeKey("core"))
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("true"))
		v, _ = overrides.Get(properties.URLKey("core"))
		Expect(v).To(Equal("git@example.com:org/core.git"))
		v, _ = overrides.Get(properties.BranchKey("core"))
		Expect(v).To(Equal("dev"))
		v, _ = overrides.Get(properties.DirKey("docs"))
		Expect(v).To(Equal("documentation"))
		Expect(overrides.Keys()).To(Equal([]string{"core.branch", "core.include", "core.url", "docs.dir"}))
	})

	It("distinguishes a missing key from an empty value", func() {
		overrides, err := properties.Load(writeProps("core.branch=\n"))
		Expect(err).NotTo(HaveOccurred())

		v, ok := overrides.Get("core.branch")
		Expect(ok).To(BeTrue())
		Expect(v).To(BeEmpty())

		_, ok = overrides.Get("core.url")
		Expect(ok).To(BeFalse())
	})

	It("keeps hash characters inside values", func() {
		overrides, err := properties.Load(writeProps("core.url=https://example.com/core.git#frag\n"))
		Expect(err).NotTo(HaveOccurred())
		v, _ := overrides.Get("core.url")
		Expect(v).To(Equal("https://example.com/core.git#frag"))
	})

	It("keeps surrounding quotes in values", func() {
		overrides, err := properties.Load(writeProps("core.url=\"git@x:a/b.git\"\ncore.branch='dev'\n"))
		Expect(err).NotTo(HaveOccurred())
		v, _ := overrides.Get("core.url")
		Expect(v).To(Equal(`"git@x:a/b.git"`))
		v, _ = overrides.Get("core.branch")
		Expect(v).To(Equal(`'dev'`))
	})

	It("reads a key without a delimiter as present and empty", func() {
		overrides, err := properties.Load(writeProps("core.include\ndocs.include=true\n"))
		Expect(err).NotTo(HaveOccurred())
		v, ok := overrides.Get(properties.IncludeKey("core"))
		Expect(ok).To(BeTrue())
		Expect(v).To(BeEmpty())
		v, _ = overrides.Get(properties.IncludeKey("docs"))
		Expect(v).To(Equal("true"))
	})

	It("lets the last line for a key win", func() {
		overrides, err := properties.Load(writeProps("core.include\ncore.include=true\ndocs.include=true\ndocs.include\n"))
		Expect(err).NotTo(HaveOccurred())
		v, _ := overrides.Get(properties.IncludeKey("core"))
		Expect(v).To(Equal("true"))
		v, _ = overrides.Get(properties.IncludeKey("docs"))
		Expect(v).To(BeEmpty())
	})

	It("loads an empty file", func() {
		overrides, err := properties.Load(writeProps(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(overrides.Len()).To(BeZero())
	})

	It("fails with a config error when the file is missing", func() {
		_, err := properties.Load(filepath.Join(GinkgoT().TempDir(), "missing.properties"))
		var cfgErr *model.ConfigError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Msg).To(ContainSubstring("does not exist"))
	})

	It("fails with a config error when the path is a directory", func() {
		_, err := properties.Load(GinkgoT().TempDir())
		var cfgErr *model.ConfigError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Msg).To(ContainSubstring("not a regular file"))
	})

	It("rejects sections", func() {
		_, err := properties.Load(writeProps("[core]\ninclude=true\n"))
		var cfgErr *model.ConfigError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
	})

	It("never fails on lookups of unknown keys", func() {
		var overrides properties.Overrides
		_, ok := overrides.Get("anything")
		Expect(ok).To(BeFalse())
		Expect(properties.FromMap(map[string]string{"a": "b"}).Len()).To(Equal(1))
	})
})
