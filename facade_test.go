package tzst_test

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xixu-me/tzst"
	"github.com/xixu-me/tzst/internal/security"
)

func writeTree(dir string, files map[string]string) {
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		Expect(os.MkdirAll(filepath.Dir(p), 0o755)).To(Succeed())
		Expect(os.WriteFile(p, []byte(body), 0o644)).To(Succeed())
	}
}

func memberNames(records []tzst.MemberRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	sort.Strings(names)
	return names
}

var _ = Describe("Create, List, Test, Extract round trip", func() {
	var src, dst, archivePath string

	BeforeEach(func() {
		src = GinkgoT().TempDir()
		dst = GinkgoT().TempDir()
		archivePath = filepath.Join(GinkgoT().TempDir(), "out.tzst")

		writeTree(src, map[string]string{
			"root.txt":         "root contents",
			"nested/child.txt": "child contents",
		})
	})

	It("creates an archive containing every input path", func() {
		err := tzst.Create(archivePath, []string{
			filepath.Join(src, "root.txt"),
			filepath.Join(src, "nested"),
		}, tzst.CreateOptions{})
		Expect(err).To(BeNil())

		_, statErr := os.Stat(archivePath)
		Expect(statErr).To(BeNil())

		records, lErr := tzst.List(archivePath, true, false)
		Expect(lErr).To(BeNil())

		names := memberNames(records)
		Expect(names).To(ContainElement("root.txt"))

		found := false
		for _, n := range names {
			if filepath.Base(n) == "child.txt" {
				found = true
			}
		}
		Expect(found).To(BeTrue())
	})

	It("lists exactly the two expected members, byte-for-byte (S1)", func() {
		err := tzst.Create(archivePath, []string{
			filepath.Join(src, "root.txt"),
			filepath.Join(src, "nested"),
		}, tzst.CreateOptions{})
		Expect(err).To(BeNil())

		records, lErr := tzst.List(archivePath, false, false)
		Expect(lErr).To(BeNil())

		want := []string{"nested/child.txt", "root.txt"}
		got := memberNames(records)
		if diff := cmp.Diff(want, got); diff != "" {
			Fail("member list mismatch (-want +got):\n" + diff)
		}

		extractErr := tzst.Extract(archivePath, dst, nil, false, tzst.ExtractOptions{})
		Expect(extractErr).To(BeNil())

		rootBody, rErr := os.ReadFile(filepath.Join(dst, "root.txt"))
		Expect(rErr).To(BeNil())
		Expect(string(rootBody)).To(Equal("root contents"))

		childBody, cErr := os.ReadFile(filepath.Join(dst, "nested", "child.txt"))
		Expect(cErr).To(BeNil())
		Expect(string(childBody)).To(Equal("child contents"))
	})

	It("reports success for Test on a freshly created archive", func() {
		Expect(tzst.Create(archivePath, []string{filepath.Join(src, "root.txt")}, tzst.CreateOptions{})).To(BeNil())
		Expect(tzst.Test(archivePath, false)).To(BeTrue())
		Expect(tzst.Test(archivePath, true)).To(BeTrue())
	})

	It("extracts every member back to an empty destination", func() {
		Expect(tzst.Create(archivePath, []string{
			filepath.Join(src, "root.txt"),
			filepath.Join(src, "nested"),
		}, tzst.CreateOptions{})).To(BeNil())

		err := tzst.Extract(archivePath, dst, nil, false, tzst.ExtractOptions{})
		Expect(err).To(BeNil())

		body, rErr := os.ReadFile(filepath.Join(dst, "root.txt"))
		Expect(rErr).To(BeNil())
		Expect(string(body)).To(Equal("root contents"))
	})

	It("extracts only the named members when a member list is given", func() {
		Expect(tzst.Create(archivePath, []string{
			filepath.Join(src, "root.txt"),
			filepath.Join(src, "nested"),
		}, tzst.CreateOptions{})).To(BeNil())

		err := tzst.Extract(archivePath, dst, []string{"root.txt"}, false, tzst.ExtractOptions{})
		Expect(err).To(BeNil())

		_, rootErr := os.Stat(filepath.Join(dst, "root.txt"))
		Expect(rootErr).To(BeNil())

		_, nestedErr := os.Stat(filepath.Join(dst, "nested"))
		Expect(os.IsNotExist(nestedErr)).To(BeTrue())
	})

	It("fails when an explicitly requested member is absent", func() {
		Expect(tzst.Create(archivePath, []string{filepath.Join(src, "root.txt")}, tzst.CreateOptions{})).To(BeNil())

		err := tzst.Extract(archivePath, dst, []string{"does-not-exist.txt"}, false, tzst.ExtractOptions{})
		Expect(err).ToNot(BeNil())
	})

	It("drives OnFileAdded once per added input, in order", func() {
		var added []string
		err := tzst.Create(archivePath, []string{
			filepath.Join(src, "root.txt"),
			filepath.Join(src, "nested"),
		}, tzst.CreateOptions{
			OnFileAdded: func(name string) { added = append(added, name) },
		})
		Expect(err).To(BeNil())
		Expect(added).ToNot(BeEmpty())
	})

	It("drives OnMemberExtracted once per extracted member", func() {
		Expect(tzst.Create(archivePath, []string{
			filepath.Join(src, "root.txt"),
			filepath.Join(src, "nested"),
		}, tzst.CreateOptions{})).To(BeNil())

		var extracted []string
		err := tzst.Extract(archivePath, dst, nil, false, tzst.ExtractOptions{
			OnMemberExtracted: func(name string) { extracted = append(extracted, name) },
		})
		Expect(err).To(BeNil())
		Expect(extracted).To(HaveLen(2))
	})

	It("creates an empty archive when no inputs are given", func() {
		err := tzst.Create(archivePath, nil, tzst.CreateOptions{})
		Expect(err).To(BeNil())

		records, lErr := tzst.List(archivePath, false, false)
		Expect(lErr).To(BeNil())
		Expect(records).To(BeEmpty())
	})
})

var _ = Describe("flatten extraction", func() {
	It("writes nested members directly under destination by base name", func() {
		src := GinkgoT().TempDir()
		dst := GinkgoT().TempDir()
		archivePath := filepath.Join(GinkgoT().TempDir(), "out.tzst")

		writeTree(src, map[string]string{"a/b/leaf.txt": "leaf"})

		Expect(tzst.Create(archivePath, []string{filepath.Join(src, "a")}, tzst.CreateOptions{})).To(BeNil())

		err := tzst.Extract(archivePath, dst, nil, false, tzst.ExtractOptions{Flatten: true})
		Expect(err).To(BeNil())

		body, rErr := os.ReadFile(filepath.Join(dst, "leaf.txt"))
		Expect(rErr).To(BeNil())
		Expect(string(body)).To(Equal("leaf"))
	})
})

var _ = Describe("conflict resolution during extraction", func() {
	var src, dst, archivePath string

	BeforeEach(func() {
		src = GinkgoT().TempDir()
		dst = GinkgoT().TempDir()
		archivePath = filepath.Join(GinkgoT().TempDir(), "out.tzst")

		writeTree(src, map[string]string{"f.txt": "new content"})
		Expect(tzst.Create(archivePath, []string{filepath.Join(src, "f.txt")}, tzst.CreateOptions{})).To(BeNil())

		Expect(os.WriteFile(filepath.Join(dst, "f.txt"), []byte("old content"), 0o644)).To(Succeed())
	})

	It("replaces the existing file under the replace policy (the default)", func() {
		err := tzst.Extract(archivePath, dst, nil, false, tzst.ExtractOptions{})
		Expect(err).To(BeNil())

		body, rErr := os.ReadFile(filepath.Join(dst, "f.txt"))
		Expect(rErr).To(BeNil())
		Expect(string(body)).To(Equal("new content"))
	})

	It("leaves the existing file untouched under the skip policy", func() {
		err := tzst.Extract(archivePath, dst, nil, false, tzst.ExtractOptions{
			InitialPolicy: "skip",
		})
		Expect(err).To(BeNil())

		body, rErr := os.ReadFile(filepath.Join(dst, "f.txt"))
		Expect(rErr).To(BeNil())
		Expect(string(body)).To(Equal("old content"))
	})

	It("writes to a numbered sibling under the auto_rename policy", func() {
		err := tzst.Extract(archivePath, dst, nil, false, tzst.ExtractOptions{
			InitialPolicy: "auto_rename",
		})
		Expect(err).To(BeNil())

		body, rErr := os.ReadFile(filepath.Join(dst, "f_1.txt"))
		Expect(rErr).To(BeNil())
		Expect(string(body)).To(Equal("new content"))

		original, oErr := os.ReadFile(filepath.Join(dst, "f.txt"))
		Expect(oErr).To(BeNil())
		Expect(string(original)).To(Equal("old content"))
	})

	It("leaves a pre-existing symlink target untouched under the skip policy", func() {
		linkSrc := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(linkSrc, "target.txt"), []byte("link target"), 0o644)).To(Succeed())
		Expect(os.Symlink(filepath.Join(linkSrc, "target.txt"), filepath.Join(src, "link.txt"))).To(Succeed())

		linkArchive := filepath.Join(GinkgoT().TempDir(), "link.tzst")
		Expect(tzst.Create(linkArchive, []string{filepath.Join(src, "link.txt")}, tzst.CreateOptions{})).To(BeNil())

		Expect(os.Symlink("/nonexistent", filepath.Join(dst, "link.txt"))).To(Succeed())

		err := tzst.Extract(linkArchive, dst, nil, false, tzst.ExtractOptions{
			Filter:        security.FullyTrusted,
			InitialPolicy: "skip",
		})
		Expect(err).To(BeNil())

		resolved, lErr := os.Readlink(filepath.Join(dst, "link.txt"))
		Expect(lErr).To(BeNil())
		Expect(resolved).To(Equal("/nonexistent"))
	})
})

var _ = Describe("streaming restriction", func() {
	It("fails ExtractOne (via the Handle, not the facade) when opened for streaming reads", func() {
		src := GinkgoT().TempDir()
		archivePath := filepath.Join(GinkgoT().TempDir(), "out.tzst")
		writeTree(src, map[string]string{"f.txt": "x"})
		Expect(tzst.Create(archivePath, []string{filepath.Join(src, "f.txt")}, tzst.CreateOptions{})).To(BeNil())

		h, err := tzst.Open(archivePath, tzst.Read, tzst.Options{Streaming: true})
		Expect(err).To(BeNil())
		defer h.Close()

		extractErr := h.ExtractOne("f.txt", GinkgoT().TempDir(), tzst.ExtractOptions{})
		Expect(extractErr).ToNot(BeNil())
	})
})

var _ = Describe("Open error handling", func() {
	It("fails to open a nonexistent archive for reading", func() {
		_, err := tzst.Open(filepath.Join(GinkgoT().TempDir(), "missing.tzst"), tzst.Read, tzst.Options{})
		Expect(err).ToNot(BeNil())
	})

	It("rejects an invalid compression level", func() {
		_, err := tzst.Open(filepath.Join(GinkgoT().TempDir(), "out.tzst"), tzst.Write, tzst.Options{CompressionLevel: 99})
		Expect(err).ToNot(BeNil())
	})

	It("rejects an unrecognized mode", func() {
		_, err := tzst.Open(filepath.Join(GinkgoT().TempDir(), "out.tzst"), tzst.Mode(99), tzst.Options{})
		Expect(err).ToNot(BeNil())
	})

	It("rejects calling a write-mode-only operation in read mode", func() {
		src := GinkgoT().TempDir()
		archivePath := filepath.Join(GinkgoT().TempDir(), "out.tzst")
		writeTree(src, map[string]string{"f.txt": "x"})
		Expect(tzst.Create(archivePath, []string{filepath.Join(src, "f.txt")}, tzst.CreateOptions{})).To(BeNil())

		h, err := tzst.Open(archivePath, tzst.Read, tzst.Options{})
		Expect(err).To(BeNil())
		defer h.Close()

		addErr := h.Add(filepath.Join(src, "f.txt"), "f.txt", false)
		Expect(addErr).ToNot(BeNil())
	})
})

var _ = Describe("non-atomic writes", func() {
	It("still produces a readable archive", func() {
		src := GinkgoT().TempDir()
		archivePath := filepath.Join(GinkgoT().TempDir(), "out.tzst")
		writeTree(src, map[string]string{"f.txt": "x"})

		err := tzst.Create(archivePath, []string{filepath.Join(src, "f.txt")}, tzst.CreateOptions{NonAtomic: true})
		Expect(err).To(BeNil())
		Expect(tzst.Test(archivePath, false)).To(BeTrue())
	})
})
