package domain

import (
	"time"

	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

var epoch = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: epoch} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func fixedID(s string) IDGenerator {
	id := idx.MustParse(s)
	return func() idx.ID { return id }
}

const (
	userULID      = "01HZX3K9Q0A1B2C3D4E5F6G7H8"
	workspaceULID = "01HZX3K9Q0A1B2C3D4E5F6G7H9"
)
