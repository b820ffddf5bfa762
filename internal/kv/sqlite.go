package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLiteStore keeps every collection in the records table created by the
// database migrations. The caller owns the *sql.DB.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) View(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, false, fn)
}

func (s *SQLiteStore) run(ctx context.Context, readOnly bool, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", "", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{ctx: ctx, tx: tx, readOnly: readOnly}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit", "", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteTx struct {
	ctx      context.Context
	tx       *sql.Tx
	readOnly bool
}

func (t *sqliteTx) Get(collection, id string, v any) error {
	var data []byte
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT data FROM records WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("get", collection, err)
	}
	return decode(collection, data, v)
}

func (t *sqliteTx) exists(collection, id string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT 1 FROM records WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("exists", collection, err)
	}
	return true, nil
}

func (t *sqliteTx) Add(collection, id string, v any) error {
	if t.readOnly {
		return storageErr("add", collection, ErrReadOnly)
	}
	ok, err := t.exists(collection, id)
	if err != nil {
		return err
	}
	if ok {
		return storageErr("add", collection, fmt.Errorf("%w: %s", ErrExists, id))
	}
	return t.Put(collection, id, v)
}

func (t *sqliteTx) Put(collection, id string, v any) error {
	if t.readOnly {
		return storageErr("put", collection, ErrReadOnly)
	}
	data, err := encode(collection, v)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(t.ctx,
		`INSERT INTO records (collection, id, data, seq)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM records WHERE collection = ?))
		 ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data`,
		collection, id, data, collection,
	)
	if err != nil {
		return storageErr("put", collection, err)
	}
	return nil
}

func (t *sqliteTx) Delete(collection, id string) error {
	if t.readOnly {
		return storageErr("delete", collection, ErrReadOnly)
	}
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return storageErr("delete", collection, err)
	}
	return nil
}

func (t *sqliteTx) GetAll(collection string) ([]json.RawMessage, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT data FROM records WHERE collection = ? ORDER BY seq ASC`,
		collection,
	)
	if err != nil {
		return nil, storageErr("get all", collection, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, storageErr("scan", collection, err)
		}
		out = append(out, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get all", collection, err)
	}
	return out, nil
}

func (t *sqliteTx) Clear(collection string) error {
	if t.readOnly {
		return storageErr("clear", collection, ErrReadOnly)
	}
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM records WHERE collection = ?`, collection)
	if err != nil {
		return storageErr("clear", collection, err)
	}
	return nil
}
