// Package kv is the keyed object store: schema-less collections of JSON
// records addressed by (collection, id). Every read or write happens inside
// a transaction, and a read-write transaction may span any number of
// collections.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Tx.Get when no record exists for the id.
	ErrNotFound = errors.New("record not found")
	// ErrExists is returned by Tx.Add when a record already exists for the id.
	ErrExists = errors.New("record already exists")
	// ErrReadOnly is returned by write methods called inside View.
	ErrReadOnly = errors.New("read-only transaction")
	// ErrClosed is returned once the store has been closed.
	ErrClosed = errors.New("store closed")
)

// Store is a transactional keyed object store.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error
	// Update runs fn in a read-write transaction. Writes made by fn are
	// committed together if fn returns nil and discarded otherwise.
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Tx is the view of the store inside a transaction.
type Tx interface {
	Get(collection, id string, v any) error
	Add(collection, id string, v any) error
	Put(collection, id string, v any) error
	Delete(collection, id string) error
	// GetAll returns the raw records of a collection in insertion order.
	GetAll(collection string) ([]json.RawMessage, error)
	Clear(collection string) error
}

// StorageError reports a failure of the underlying store.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("kv: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("kv: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op, collection string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Collection: collection, Err: err}
}

// GetAllAs decodes every record of a collection into a slice of T.
func GetAllAs[T any](tx Tx, collection string) ([]T, error) {
	raws, err := tx.GetAll(collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, storageErr("decode", collection, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func encode(collection string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, storageErr("encode", collection, err)
	}
	return data, nil
}

func decode(collection string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return storageErr("decode", collection, err)
	}
	return nil
}
