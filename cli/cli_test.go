package cli_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xixu-me/tzst/cli"
	liberr "github.com/xixu-me/tzst/errors"
)

func runRoot(args ...string) error {
	root := cli.NewRootCommand()
	root.SetArgs(args)
	return root.Execute()
}

var _ = Describe("end-to-end CLI flow", func() {
	It("creates, lists, tests, and extracts an archive", func() {
		src := GinkgoT().TempDir()
		workDir := GinkgoT().TempDir()
		archive := filepath.Join(workDir, "out.tzst")

		Expect(os.WriteFile(filepath.Join(src, "hello.txt"), []byte("hello"), 0o644)).To(Succeed())

		Expect(runRoot("a", archive, filepath.Join(src, "hello.txt"))).To(Succeed())

		_, statErr := os.Stat(archive)
		Expect(statErr).To(BeNil())

		Expect(runRoot("l", archive)).To(Succeed())
		Expect(runRoot("t", archive)).To(Succeed())

		dst := GinkgoT().TempDir()
		Expect(runRoot("x", archive, "-o", dst)).To(Succeed())

		body, rErr := os.ReadFile(filepath.Join(dst, "hello.txt"))
		Expect(rErr).To(BeNil())
		Expect(string(body)).To(Equal("hello"))
	})

	It("fails with a clear error for an out-of-range compression level", func() {
		workDir := GinkgoT().TempDir()
		err := runRoot("a", filepath.Join(workDir, "out.tzst"), "-c", "99", filepath.Join(workDir, "missing.txt"))
		Expect(err).ToNot(BeNil())

		// Raised from inside RunE, not by cobra's own Args validator, so it
		// surfaces as a liberr.Error — the signal main.go uses to choose
		// exit code 1 over 2.
		_, ok := err.(liberr.Error)
		Expect(ok).To(BeTrue())
	})

	It("reports an error for a missing input file", func() {
		workDir := GinkgoT().TempDir()
		err := runRoot("a", filepath.Join(workDir, "out.tzst"), filepath.Join(workDir, "does-not-exist.txt"))
		Expect(err).ToNot(BeNil())

		_, ok := err.(liberr.Error)
		Expect(ok).To(BeTrue())
	})

	It("reports a plain cobra error (not liberr.Error) for a bad argument count", func() {
		err := runRoot("a", "only-one-arg")
		Expect(err).ToNot(BeNil())

		_, ok := err.(liberr.Error)
		Expect(ok).To(BeFalse())
	})

	It("applies --config defaults before running a subcommand", func() {
		workDir := GinkgoT().TempDir()
		src := GinkgoT().TempDir()
		cfgPath := filepath.Join(workDir, "tzst.yaml")
		Expect(os.WriteFile(cfgPath, []byte("compression_level: 1\n"), 0o644)).To(Succeed())

		Expect(os.WriteFile(filepath.Join(src, "f.txt"), []byte("x"), 0o644)).To(Succeed())
		archive := filepath.Join(workDir, "out.tzst")

		err := runRoot("--config", cfgPath, "a", archive, filepath.Join(src, "f.txt"))
		Expect(err).To(BeNil())
	})

	It("fails test against a corrupted archive", func() {
		workDir := GinkgoT().TempDir()
		bogus := filepath.Join(workDir, "bogus.tzst")
		Expect(os.WriteFile(bogus, []byte("not an archive"), 0o644)).To(Succeed())

		err := runRoot("t", bogus)
		Expect(err).ToNot(BeNil())
	})
})
