package conflict_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xixu-me/tzst/internal/conflict"
)

var _ = Describe("Valid", func() {
	It("accepts the eight recognized resolutions", func() {
		for _, r := range []conflict.Resolution{
			conflict.Replace, conflict.Skip, conflict.ReplaceAll, conflict.SkipAll,
			conflict.AutoRename, conflict.AutoRenameAll, conflict.Ask, conflict.Exit,
		} {
			Expect(conflict.Valid(r)).To(BeTrue())
		}
	})

	It("rejects an unrecognized resolution", func() {
		Expect(conflict.Valid("bogus")).To(BeFalse())
	})
})

var _ = Describe("NewState", func() {
	It("defaults an empty initial policy to Replace", func() {
		s := conflict.NewState("", nil)
		d, err := s.Resolve("/does/not/matter")
		Expect(err).To(BeNil())
		Expect(d.Outcome).To(Equal(conflict.OutcomeReplace))
	})
})

var _ = Describe("State.Resolve", func() {
	It("resolves Replace to OutcomeReplace every call", func() {
		s := conflict.NewState(conflict.Replace, nil)
		for i := 0; i < 3; i++ {
			d, err := s.Resolve("/a")
			Expect(err).To(BeNil())
			Expect(d.Outcome).To(Equal(conflict.OutcomeReplace))
		}
		Expect(s.Continue()).To(BeTrue())
	})

	It("resolves Skip to OutcomeSkip", func() {
		s := conflict.NewState(conflict.Skip, nil)
		d, err := s.Resolve("/a")
		Expect(err).To(BeNil())
		Expect(d.Outcome).To(Equal(conflict.OutcomeSkip))
	})

	It("sticks ReplaceAll across multiple paths", func() {
		s := conflict.NewState(conflict.ReplaceAll, nil)
		for _, p := range []string{"/a", "/b", "/c"} {
			d, err := s.Resolve(p)
			Expect(err).To(BeNil())
			Expect(d.Outcome).To(Equal(conflict.OutcomeReplace))
		}
	})

	It("sticks SkipAll across multiple paths", func() {
		s := conflict.NewState(conflict.SkipAll, nil)
		d1, _ := s.Resolve("/a")
		d2, _ := s.Resolve("/b")
		Expect(d1.Outcome).To(Equal(conflict.OutcomeSkip))
		Expect(d2.Outcome).To(Equal(conflict.OutcomeSkip))
	})

	It("halts the loop on Exit", func() {
		s := conflict.NewState(conflict.Exit, nil)
		d, err := s.Resolve("/a")
		Expect(err).To(BeNil())
		Expect(d.Outcome).To(Equal(conflict.OutcomeExit))
		Expect(s.Continue()).To(BeFalse())
	})

	It("consults the prompt when policy is Ask and not yet stuck", func() {
		calls := 0
		s := conflict.NewState(conflict.Ask, func(target string) conflict.Resolution {
			calls++
			return conflict.Skip
		})

		d, err := s.Resolve("/a")
		Expect(err).To(BeNil())
		Expect(d.Outcome).To(Equal(conflict.OutcomeSkip))
		Expect(calls).To(Equal(1))

		// Ask is not itself sticky: the prompt fires again next time.
		d2, err2 := s.Resolve("/b")
		Expect(err2).To(BeNil())
		Expect(d2.Outcome).To(Equal(conflict.OutcomeSkip))
		Expect(calls).To(Equal(2))
	})

	It("defaults Ask to Replace when no prompt is supplied", func() {
		s := conflict.NewState(conflict.Ask, nil)
		d, err := s.Resolve("/a")
		Expect(err).To(BeNil())
		Expect(d.Outcome).To(Equal(conflict.OutcomeReplace))
	})

	It("a prompt answering *_ALL makes subsequent calls sticky without re-prompting", func() {
		calls := 0
		s := conflict.NewState(conflict.Ask, func(target string) conflict.Resolution {
			calls++
			return conflict.SkipAll
		})

		d1, _ := s.Resolve("/a")
		d2, _ := s.Resolve("/b")
		Expect(d1.Outcome).To(Equal(conflict.OutcomeSkip))
		Expect(d2.Outcome).To(Equal(conflict.OutcomeSkip))
		Expect(calls).To(Equal(1))
	})

	It("computes a unique auto-renamed path when the candidate already exists", func() {
		dir := GinkgoT().TempDir()
		target := filepath.Join(dir, "file.txt")
		Expect(os.WriteFile(target, []byte("x"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "file_1.txt"), []byte("x"), 0o644)).To(Succeed())

		s := conflict.NewState(conflict.AutoRename, nil)
		d, err := s.Resolve(target)
		Expect(err).To(BeNil())
		Expect(d.Outcome).To(Equal(conflict.OutcomeRename))
		Expect(d.RenamedPath).To(Equal(filepath.Join(dir, "file_2.txt")))
	})

	It("rejects an unknown resolution string from a custom prompt", func() {
		s := conflict.NewState(conflict.Ask, func(target string) conflict.Resolution {
			return "nonsense"
		})
		_, err := s.Resolve("/a")
		Expect(err).ToNot(BeNil())
	})
})
