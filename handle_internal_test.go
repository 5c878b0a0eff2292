package tzst

import (
	"archive/tar"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xixu-me/tzst/internal/conflict"
)

// These specs live in package tzst (not tzst_test) because materializing a
// TypeLink member requires writing a raw tar header through Handle.w, which
// Add never does on its own (tar.FileInfoHeader has no way to tell the
// archiver two on-disk paths share an inode).
var _ = Describe("hard link member extraction", func() {
	It("materializes a TypeLink member as a real hard link, not an empty file", func() {
		archivePath := filepath.Join(GinkgoT().TempDir(), "hardlink.tzst")

		h, err := Open(archivePath, Write, Options{})
		Expect(err).To(BeNil())

		Expect(h.w.WriteHeader(&tar.Header{
			Name:     "original.txt",
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len("payload")),
		})).To(BeNil())
		_, werr := h.w.Write([]byte("payload"))
		Expect(werr).To(BeNil())

		Expect(h.w.WriteHeader(&tar.Header{
			Name:     "alias.txt",
			Typeflag: tar.TypeLink,
			Linkname: "original.txt",
			Mode:     0o644,
		})).To(BeNil())

		Expect(h.Close()).To(BeNil())

		dst := GinkgoT().TempDir()
		extractErr := Extract(archivePath, dst, nil, false, ExtractOptions{})
		Expect(extractErr).To(BeNil())

		originalInfo, oerr := os.Stat(filepath.Join(dst, "original.txt"))
		Expect(oerr).To(BeNil())
		aliasInfo, aerr := os.Stat(filepath.Join(dst, "alias.txt"))
		Expect(aerr).To(BeNil())

		Expect(os.SameFile(originalInfo, aliasInfo)).To(BeTrue())

		body, rerr := os.ReadFile(filepath.Join(dst, "alias.txt"))
		Expect(rerr).To(BeNil())
		Expect(string(body)).To(Equal("payload"))
	})

	It("honors SKIP_ALL conflict resolution for a hard link whose target path already exists", func() {
		archivePath := filepath.Join(GinkgoT().TempDir(), "hardlink-conflict.tzst")

		h, err := Open(archivePath, Write, Options{})
		Expect(err).To(BeNil())
		Expect(h.w.WriteHeader(&tar.Header{
			Name:     "original.txt",
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len("fresh")),
		})).To(BeNil())
		_, werr := h.w.Write([]byte("fresh"))
		Expect(werr).To(BeNil())
		Expect(h.w.WriteHeader(&tar.Header{
			Name:     "alias.txt",
			Typeflag: tar.TypeLink,
			Linkname: "original.txt",
			Mode:     0o644,
		})).To(BeNil())
		Expect(h.Close()).To(BeNil())

		dst := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dst, "alias.txt"), []byte("preexisting"), 0o644)).To(BeNil())

		extractErr := Extract(archivePath, dst, nil, false, ExtractOptions{
			InitialPolicy: conflict.SkipAll,
		})
		Expect(extractErr).To(BeNil())

		body, rerr := os.ReadFile(filepath.Join(dst, "alias.txt"))
		Expect(rerr).To(BeNil())
		Expect(string(body)).To(Equal("preexisting"))
	})
})
