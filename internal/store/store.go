// Package store is the domain storage façade: typed operations over the
// children, chores, payouts and settings collections of a kv.Store. It owns
// id generation, timestamps and default-filling. Input validation is the
// caller's job.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorejar/internal/kv"
)

const (
	collChildren = "children"
	collChores   = "chores"
	collPayouts  = "payouts"
	collSettings = "settings"

	settingsKey = "app-settings"
)

var (
	// ErrNotFound is returned when a mutation references a missing record.
	ErrNotFound = errors.New("not found")
	// ErrNoBalance is returned when paying out a child with nothing owed.
	ErrNoBalance = errors.New("no amount to pay out")
)

type Option func(*base)

// WithClock overrides time.Now for CreatedAt and ExportedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		b.now = now
	}
}

// WithIDGenerator overrides the random UUID id generator.
func WithIDGenerator(newID func() string) Option {
	return func(b *base) {
		b.newID = newID
	}
}

type base struct {
	kv    kv.Store
	now   func() time.Time
	newID func() string
}

// Storage groups the per-collection stores over one kv.Store.
type Storage struct {
	Children *ChildStore
	Chores   *ChoreStore
	Payouts  *PayoutStore
	Settings *SettingsStore
	Transfer *TransferStore
}

func New(s kv.Store, opts ...Option) *Storage {
	b := &base{
		kv:    s,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return &Storage{
		Children: &ChildStore{b},
		Chores:   &ChoreStore{b},
		Payouts:  &PayoutStore{b},
		Settings: &SettingsStore{b},
		Transfer: &TransferStore{b},
	}
}
