package session_test

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/buildfastwithai/researchchat/pkg/session"
)

var _ = Describe("SQLiteStore", func() {
	var (
		store *session.SQLiteStore
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = session.NewSQLiteStore(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	saved := func(content string) *session.Session {
		s := session.New(session.DefaultSystemPrompt)
		s.Append(session.Turn{Role: session.RoleUser, Content: content})
		Expect(store.Save(ctx, s)).To(Succeed())
		return s
	}

	Describe("NewSQLiteStore", func() {
		It("creates a database file on disk", func() {
			path := filepath.Join(GinkgoT().TempDir(), "sessions.db")
			fileStore, err := session.NewSQLiteStore(path)
			Expect(err).NotTo(HaveOccurred())
			defer fileStore.Close()

			s := session.New("")
			s.Append(session.Turn{Role: session.RoleUser, Content: "persisted"})
			Expect(fileStore.Save(ctx, s)).To(Succeed())

			loaded, err := fileStore.Load(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Turns).To(HaveLen(1))
		})
	})

	Describe("Save and Load", func() {
		It("round-trips a session through the JSON snapshot", func() {
			s := session.New(session.DefaultSystemPrompt)
			s.Append(session.Turn{
				Role:    session.RoleUser,
				Content: "Explain quicksort",
				Meta:    &session.TurnMeta{TokenEstimate: 4, Timestamp: time.Now().UTC()},
			})
			s.Append(session.Turn{
				Role:    session.RoleAssistant,
				Content: "<think>partitioning</think>Pick a pivot.",
				Meta:    &session.TurnMeta{Model: "sonar-deep-research", ElapsedMS: 900, TokenEstimate: 10},
			})

			Expect(store.Save(ctx, s)).To(Succeed())

			loaded, err := store.Load(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(s))
		})

		It("replaces the stored snapshot on re-save", func() {
			s := saved("v1")
			s.Append(session.Turn{Role: session.RoleAssistant, Content: "v2"})
			Expect(store.Save(ctx, s)).To(Succeed())

			loaded, err := store.Load(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Turns).To(HaveLen(2))

			summaries, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0].TurnCount).To(Equal(2))
		})

		It("returns ErrNotFound for a missing session", func() {
			_, err := store.Load(ctx, "nonexistent")

			var notFoundErr session.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("rejects nil and id-less sessions", func() {
			Expect(store.Save(ctx, nil)).To(HaveOccurred())

			s := session.New("")
			s.ID = ""
			Expect(store.Save(ctx, s)).To(HaveOccurred())
		})
	})

	Describe("List", func() {
		It("orders summaries by last update, newest first", func() {
			older := session.New("")
			older.Append(session.Turn{Role: session.RoleUser, Content: "first"})
			older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
			Expect(store.Save(ctx, older)).To(Succeed())

			newer := saved("second")

			summaries, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(2))
			Expect(summaries[0].ID).To(Equal(newer.ID))
			Expect(summaries[0].Title).To(Equal("second"))
			Expect(summaries[0].TurnCount).To(Equal(1))
			Expect(summaries[1].ID).To(Equal(older.ID))
		})

		It("returns empty for an empty store", func() {
			summaries, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("removes a stored session", func() {
			s := saved("goodbye")

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
