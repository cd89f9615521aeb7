package cart

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newSession := func(id string, date time.Time) *Session {
		return &Session{
			ID:        id,
			Date:      date,
			Total:     11.98,
			ItemCount: 1,
			Items: []Item{
				{
					ID:         id + "-item",
					Name:       "Leite Integral 1L",
					UnitPrice:  5.99,
					Quantity:   2,
					TotalPrice: 11.98,
				},
			},
		}
	}

	Describe("SaveSession", func() {
		It("persists the session", func() {
			session := newSession("s1", time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))
			Expect(db.SaveSession(session)).To(Succeed())

			saved, err := db.GetSession("s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Total).To(Equal(11.98))
			Expect(saved.Items).To(HaveLen(1))
			Expect(saved.Items[0].Name).To(Equal("Leite Integral 1L"))
		})

		It("overwrites an existing session", func() {
			session := newSession("s1", time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))
			Expect(db.SaveSession(session)).To(Succeed())

			session.Total = 99.0
			Expect(db.SaveSession(session)).To(Succeed())

			saved, err := db.GetSession("s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Total).To(Equal(99.0))
		})
	})

	Describe("GetSession", func() {
		When("the session does not exist", func() {
			It("returns an error", func() {
				_, err := db.GetSession("missing")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("ListSessions", func() {
		When("the database is empty", func() {
			It("returns an empty list", func() {
				sessions, err := db.ListSessions()
				Expect(err).NotTo(HaveOccurred())
				Expect(sessions).To(BeEmpty())
			})
		})

		When("sessions exist", func() {
			BeforeEach(func() {
				base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
				Expect(db.SaveSession(newSession("older", base))).To(Succeed())
				Expect(db.SaveSession(newSession("newer", base.Add(2*time.Hour)))).To(Succeed())
			})

			It("returns them newest first", func() {
				sessions, err := db.ListSessions()
				Expect(err).NotTo(HaveOccurred())
				Expect(sessions).To(HaveLen(2))
				Expect(sessions[0].ID).To(Equal("newer"))
				Expect(sessions[1].ID).To(Equal("older"))
			})
		})
	})

	Describe("ClearSessions", func() {
		It("removes every archived session", func() {
			Expect(db.SaveSession(newSession("s1", time.Now()))).To(Succeed())
			Expect(db.ClearSessions()).To(Succeed())

			sessions, err := db.ListSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())
		})
	})

	Describe("persistence across reopen", func() {
		It("survives a close and reopen", func() {
			Expect(db.SaveSession(newSession("s1", time.Now()))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			reopened, err := NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			db = reopened

			saved, err := db.GetSession("s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.ItemCount).To(Equal(1))
		})
	})
})
