package gitx_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/devenv/internal/gitx"
)

var _ = Describe("GitRunner.Run", func() {
	var runner *gitx.GitRunner

	BeforeEach(func() {
		if _, err := exec.LookPath("git"); err != nil {
			Skip("git binary not available")
		}
		runner = &gitx.GitRunner{}
	})

	It("runs git version successfully", func() {
		out, err := runner.Run(context.Background(), "", "version")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("git version"))
	})

	It("errors for nonexistent directory", func() {
		_, err := runner.Run(context.Background(), "/nonexistent/path/xyz", "status")
		Expect(err).To(HaveOccurred())
	})

	It("includes stderr and the command in failures", func() {
		dir := GinkgoT().TempDir()
		_, err := runner.Run(context.Background(), dir, "checkout", "nope")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("git checkout nope"))
		Expect(err.Error()).To(ContainSubstring("not a git repository"))
	})

	It("reports exit status and stderr on failure", func() {
		dir := GinkgoT().TempDir()
		_, err := runner.Run(context.Background(), dir, "symbolic-ref", "--quiet", "--short", "HEAD")
		var cmdErr *gitx.CommandError
		Expect(errors.As(err, &cmdErr)).To(BeTrue())
		Expect(cmdErr.ExitCode).To(Equal(128))
		Expect(cmdErr.Stderr).To(ContainSubstring("not a git repository"))
	})

	It("propagates a missing git binary from CurrentBranch", func() {
		missing := &gitx.GitRunner{GitBin: filepath.Join(GinkgoT().TempDir(), "no-git")}
		_, err := gitx.CurrentBranch(context.Background(), missing, GinkgoT().TempDir())
		var cmdErr *gitx.CommandError
		Expect(errors.As(err, &cmdErr)).To(BeTrue())
		Expect(cmdErr.ExitCode).To(Equal(-1))
	})

	It("respects context cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := runner.Run(ctx, "", "version")
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("reports the current branch", func() {
		dir := GinkgoT().TempDir()
		_, err := runner.Run(context.Background(), dir, "init", "-b", "trunk")
		Expect(err).NotTo(HaveOccurred())
		branch, err := gitx.CurrentBranch(context.Background(), runner, dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(branch).To(Equal("trunk"))
		Expect(gitx.HasGitDir(dir)).To(BeTrue())

		nested := filepath.Join(dir, "sub")
		Expect(os.MkdirAll(nested, 0o755)).To(Succeed())
		Expect(gitx.HasGitDir(nested)).To(BeFalse())
	})

	It("returns an empty branch for a real detached HEAD", func() {
		dir := GinkgoT().TempDir()
		for _, args := range [][]string{
			{"init", "-b", "trunk"},
			{"-c", "user.name=devenv", "-c", "user.email=devenv@example.com", "commit", "--allow-empty", "-m", "init"},
			{"checkout", "--detach"},
		} {
			_, err := runner.Run(context.Background(), dir, args...)
			Expect(err).NotTo(HaveOccurred())
		}
		branch, err := gitx.CurrentBranch(context.Background(), runner, dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(branch).To(BeEmpty())
	})
})

var _ = Describe("FormatCommand", func() {
	It("quotes arguments that need it", func() {
		Expect(gitx.FormatCommand(gitx.CloneArgs("git@example.com:org/core.git", "/work/my dir", "main"))).
			To(Equal("git clone --recurse-submodules --branch main -- git@example.com:org/core.git '/work/my dir'"))
		Expect(gitx.FormatCommand(gitx.PullRebaseArgs())).To(Equal("git pull --rebase --recurse-submodules"))
	})
})

var _ = Describe("CurrentBranch", func() {
	It("trims the branch name", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:symbolic-ref --quiet --short HEAD": {Output: "main\n"},
		}}
		branch, err := gitx.CurrentBranch(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(branch).To(Equal("main"))
	})

	It("returns empty for a detached HEAD", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:symbolic-ref --quiet --short HEAD": {Err: &gitx.CommandError{Args: gitx.CurrentBranchArgs(), ExitCode: 1, Err: errors.New("exit status 1")}},
		}}
		branch, err := gitx.CurrentBranch(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(branch).To(BeEmpty())
	})

	DescribeTable("propagates failures that are not a detached HEAD",
		func(cause error) {
			mock := &MockRunner{Responses: map[string]MockResponse{
				"/repo:symbolic-ref --quiet --short HEAD": {Err: cause},
			}}
			branch, err := gitx.CurrentBranch(context.Background(), mock, "/repo")
			Expect(err).To(MatchError(cause))
			Expect(branch).To(BeEmpty())
		},
		Entry("exit 1 with stderr", &gitx.CommandError{Args: gitx.CurrentBranchArgs(), Stderr: "error: cannot open .git/HEAD: Permission denied", ExitCode: 1, Err: errors.New("exit status 1")}),
		Entry("other exit status", &gitx.CommandError{Args: gitx.CurrentBranchArgs(), ExitCode: 128, Err: errors.New("exit status 128")}),
		Entry("git never started", &gitx.CommandError{Args: gitx.CurrentBranchArgs(), ExitCode: -1, Err: exec.ErrNotFound}),
		Entry("untyped runner error", errors.New("runner unavailable")),
	)

	It("fails outside a repository", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:symbolic-ref --quiet --short HEAD": {Err: errors.New("fatal: not a git repository (or any of the parent directories): .git")},
		}}
		_, err := gitx.CurrentBranch(context.Background(), mock, "/repo")
		Expect(err).To(HaveOccurred())
	})
})
