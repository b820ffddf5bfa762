package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dukerupert/chorejar/internal/database"
	"github.com/dukerupert/chorejar/internal/kv"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func setupStoreTestDB(t *testing.T) *Storage {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(kv.NewSQLiteStore(db), WithClock(stepClock()))
}

// failingStore wraps a kv.Store and fails the first write matching failOn.
type failingStore struct {
	kv.Store
	failOn func(op, collection string) bool
}

func (s *failingStore) Update(ctx context.Context, fn func(kv.Tx) error) error {
	return s.Store.Update(ctx, func(tx kv.Tx) error {
		return fn(&failingTx{Tx: tx, failOn: s.failOn})
	})
}

type failingTx struct {
	kv.Tx
	failOn func(op, collection string) bool
}

func (t *failingTx) fail(op, collection string) error {
	if t.failOn(op, collection) {
		return &kv.StorageError{Op: op, Collection: collection, Err: fmt.Errorf("disk full")}
	}
	return nil
}

func (t *failingTx) Add(collection, id string, v any) error {
	if err := t.fail("add", collection); err != nil {
		return err
	}
	return t.Tx.Add(collection, id, v)
}

func (t *failingTx) Put(collection, id string, v any) error {
	if err := t.fail("put", collection); err != nil {
		return err
	}
	return t.Tx.Put(collection, id, v)
}

func (t *failingTx) Delete(collection, id string) error {
	if err := t.fail("delete", collection); err != nil {
		return err
	}
	return t.Tx.Delete(collection, id)
}
