package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"sync"
)

type memEntry struct {
	data []byte
	seq  int64
}

// MemoryStore is an in-process Store. Writers are serialized; a read-write
// transaction stages copies of the collections it touches and swaps them in
// on commit.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]memEntry
	seq    int64
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]memEntry)}
}

func (s *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storageErr("view", "", ErrClosed)
	}
	return fn(&memTx{store: s, readOnly: true})
}

func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storageErr("update", "", ErrClosed)
	}

	tx := &memTx{store: s, staged: make(map[string]map[string]memEntry), seq: s.seq}
	if err := fn(tx); err != nil {
		return err
	}

	for collection, records := range tx.staged {
		s.data[collection] = records
	}
	s.seq = tx.seq
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.data = nil
	s.mu.Unlock()
	return nil
}

type memTx struct {
	store    *MemoryStore
	staged   map[string]map[string]memEntry
	seq      int64
	readOnly bool
}

func (t *memTx) read(collection string) map[string]memEntry {
	if records, ok := t.staged[collection]; ok {
		return records
	}
	return t.store.data[collection]
}

func (t *memTx) write(op, collection string) (map[string]memEntry, error) {
	if t.readOnly {
		return nil, storageErr(op, collection, ErrReadOnly)
	}
	if records, ok := t.staged[collection]; ok {
		return records, nil
	}
	records := maps.Clone(t.store.data[collection])
	if records == nil {
		records = make(map[string]memEntry)
	}
	t.staged[collection] = records
	return records, nil
}

func (t *memTx) Get(collection, id string, v any) error {
	e, ok := t.read(collection)[id]
	if !ok {
		return ErrNotFound
	}
	return decode(collection, e.data, v)
}

func (t *memTx) Add(collection, id string, v any) error {
	if _, ok := t.read(collection)[id]; ok {
		return storageErr("add", collection, fmt.Errorf("%w: %s", ErrExists, id))
	}
	return t.Put(collection, id, v)
}

func (t *memTx) Put(collection, id string, v any) error {
	records, err := t.write("put", collection)
	if err != nil {
		return err
	}
	data, err := encode(collection, v)
	if err != nil {
		return err
	}
	if e, ok := records[id]; ok {
		records[id] = memEntry{data: data, seq: e.seq}
		return nil
	}
	t.seq++
	records[id] = memEntry{data: data, seq: t.seq}
	return nil
}

func (t *memTx) Delete(collection, id string) error {
	records, err := t.write("delete", collection)
	if err != nil {
		return err
	}
	delete(records, id)
	return nil
}

func (t *memTx) GetAll(collection string) ([]json.RawMessage, error) {
	records := t.read(collection)
	entries := make([]memEntry, 0, len(records))
	for _, e := range records {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		out[i] = json.RawMessage(append([]byte(nil), e.data...))
	}
	return out, nil
}

func (t *memTx) Clear(collection string) error {
	if t.readOnly {
		return storageErr("clear", collection, ErrReadOnly)
	}
	t.staged[collection] = make(map[string]memEntry)
	return nil
}
