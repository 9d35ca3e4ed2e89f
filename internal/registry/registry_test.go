package registry_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/devenv/internal/registry"
)

var _ = Describe("Registry", func() {
	It("registers repositories in order with optional defaults", func() {
		reg := &registry.Registry{}
		Expect(reg.Register("core", registry.WithBranch("main"))).To(Succeed())
		Expect(reg.Register("docs", registry.WithInclude(true), registry.WithURL("https://example.com/docs.git"), registry.WithDir("documentation"))).To(Succeed())

		specs := reg.Specs()
		Expect(specs).To(HaveLen(2))
		Expect(specs[0].Name).To(Equal("core"))
		Expect(*specs[0].Branch).To(Equal("main"))
		Expect(specs[0].Include).To(BeNil())
		Expect(specs[0].URL).To(BeNil())
		Expect(specs[1].Name).To(Equal("docs"))
		Expect(*specs[1].Include).To(BeTrue())
		Expect(*specs[1].Dir).To(Equal("documentation"))
	})

	It("rejects duplicate and empty names", func() {
		reg := &registry.Registry{}
		Expect(reg.Register("core")).To(Succeed())
		err := reg.Register("core", registry.WithBranch("dev"))
		Expect(errors.Is(err, registry.ErrDuplicateName)).To(BeTrue())
		Expect(reg.Register("  ")).NotTo(Succeed())
		Expect(reg.Register("a/b")).NotTo(Succeed())
		Expect(reg.Specs()).To(HaveLen(1))
	})

	It("returns copies from Specs", func() {
		reg := &registry.Registry{}
		Expect(reg.Register("core")).To(Succeed())
		specs := reg.Specs()
		specs[0].Name = "changed"
		Expect(reg.Lookup("core")).NotTo(BeNil())
	})

	It("upserts in place and removes by name", func() {
		reg := &registry.Registry{}
		Expect(reg.Register("a")).To(Succeed())
		Expect(reg.Register("b")).To(Succeed())
		Expect(reg.Upsert(registry.NewSpec("a", registry.WithBranch("dev")))).To(Succeed())
		Expect(reg.Specs()[0].Name).To(Equal("a"))
		Expect(*reg.Specs()[0].Branch).To(Equal("dev"))

		Expect(reg.Remove("a")).To(BeTrue())
		Expect(reg.Remove("a")).To(BeFalse())
		Expect(reg.Specs()).To(HaveLen(1))
		Expect(reg.Lookup("a")).To(BeNil())
	})

	It("selects by glob keeping registration order", func() {
		reg := &registry.Registry{}
		for _, name := range []string{"spoofax", "core", "spoofax-pie", "docs"} {
			Expect(reg.Register(name)).To(Succeed())
		}
		selected, err := reg.Select([]string{"docs", "spoofax*"})
		Expect(err).NotTo(HaveOccurred())
		names := []string{}
		for _, s := range selected {
			names = append(names, s.Name)
		}
		Expect(names).To(Equal([]string{"spoofax", "spoofax-pie", "docs"}))

		all, err := reg.Select(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(4))

		_, err = reg.Select([]string{"[unterminated"})
		Expect(err).To(HaveOccurred())
	})

	It("saves and loads registry files", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "nested", "repos.yaml")
		reg := &registry.Registry{}
		Expect(reg.Register("core", registry.WithInclude(false), registry.WithBranch("main"))).To(Succeed())
		Expect(registry.Save(reg, path)).To(Succeed())

		loaded, err := registry.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Repos).To(HaveLen(1))
		Expect(*loaded.Repos[0].Include).To(BeFalse())
		Expect(*loaded.Repos[0].Branch).To(Equal("main"))
		Expect(loaded.Repos[0].URL).To(BeNil())
	})

	It("rejects registry files with duplicate names", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "repos.yaml")
		Expect(os.WriteFile(path, []byte("repos:\n  - name: a\n  - name: a\n"), 0o644)).To(Succeed())
		_, err := registry.Load(path)
		Expect(errors.Is(err, registry.ErrDuplicateName)).To(BeTrue())
	})

	It("refuses to save a nil registry", func() {
		Expect(registry.Save(nil, filepath.Join(GinkgoT().TempDir(), "x.yaml"))).NotTo(Succeed())
	})
})
