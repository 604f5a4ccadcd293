package session_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/buildfastwithai/researchchat/pkg/session"
)

var _ = Describe("FileStore", func() {
	var (
		store *session.FileStore
		dir   string
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		var err error
		store, err = session.NewFileStore(dir)
		Expect(err).NotTo(HaveOccurred())
	})

	newConversation := func() *session.Session {
		s := session.New(session.DefaultSystemPrompt)
		s.Append(session.Turn{
			Role:    session.RoleUser,
			Content: "What are black holes?",
			Meta:    &session.TurnMeta{TokenEstimate: 5, Timestamp: time.Now().UTC()},
		})
		s.Append(session.Turn{
			Role:    session.RoleAssistant,
			Content: "<think>astrophysics</think>Regions of spacetime.",
			Meta: &session.TurnMeta{
				Model:         "sonar-deep-research",
				ElapsedMS:     1234,
				TokenEstimate: 9,
				Timestamp:     time.Now().UTC(),
			},
		})
		return s
	}

	Describe("NewFileStore", func() {
		It("creates the directory when missing", func() {
			nested := filepath.Join(dir, "a", "b")
			_, err := session.NewFileStore(nested)
			Expect(err).NotTo(HaveOccurred())

			info, err := os.Stat(nested)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})
	})

	Describe("Save and Load", func() {
		It("round-trips a session exactly", func() {
			s := newConversation()

			Expect(store.Save(ctx, s)).To(Succeed())

			loaded, err := store.Load(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(s))
		})

		It("overwrites the whole file on every save", func() {
			s := newConversation()
			Expect(store.Save(ctx, s)).To(Succeed())

			s.Append(session.Turn{Role: session.RoleUser, Content: "And white holes?"})
			Expect(store.Save(ctx, s)).To(Succeed())

			loaded, err := store.Load(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Turns).To(HaveLen(3))
		})

		It("returns ErrNotFound for a missing session", func() {
			_, err := store.Load(ctx, "nonexistent")
			Expect(err).To(HaveOccurred())

			var notFoundErr session.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("treats a corrupt file as no history", func() {
			path := filepath.Join(dir, "broken.json")
			Expect(os.WriteFile(path, []byte("{not json"), 0o644)).To(Succeed())

			_, err := store.Load(ctx, "broken")
			var notFoundErr session.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("rejects ids that escape the directory", func() {
			s := session.New("")
			s.ID = "../evil"
			Expect(store.Save(ctx, s)).To(HaveOccurred())

			_, err := store.Load(ctx, "../evil")
			Expect(err).To(HaveOccurred())
		})

		It("rejects nil sessions", func() {
			Expect(store.Save(ctx, nil)).To(HaveOccurred())
		})
	})

	Describe("List", func() {
		It("returns summaries newest-updated first", func() {
			older := session.New("")
			older.Append(session.Turn{Role: session.RoleUser, Content: "first"})
			older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
			Expect(store.Save(ctx, older)).To(Succeed())

			newer := session.New("")
			newer.Append(session.Turn{Role: session.RoleUser, Content: "second"})
			Expect(store.Save(ctx, newer)).To(Succeed())

			summaries, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(2))
			Expect(summaries[0].ID).To(Equal(newer.ID))
			Expect(summaries[1].ID).To(Equal(older.ID))
		})

		It("skips corrupt files silently", func() {
			s := newConversation()
			Expect(store.Save(ctx, s)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "junk.json"), []byte("???"), 0o644)).To(Succeed())

			summaries, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(1))
		})

		It("ignores files that aren't session JSON", func() {
			Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644)).To(Succeed())

			summaries, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(BeEmpty())
		})

		It("returns empty for an empty store", func() {
			summaries, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("removes a stored session", func() {
			s := newConversation()
			Expect(store.Save(ctx, s)).To(Succeed())

			Expect(store.Delete(ctx, s.ID)).To(Succeed())

			_, err := store.Load(ctx, s.ID)
			Expect(err).To(HaveOccurred())
		})

		It("returns ErrNotFound for a missing session", func() {
			err := store.Delete(ctx, "nonexistent")
			var notFoundErr session.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})
	})
})
