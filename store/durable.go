// Package store implements the Durable Store: a content-addressed,
// embedded key-value store mirrored by an in-memory Index, rehydrated on
// startup. Keys are the UTF-8 bytes of an envelope id under the "post:"
// prefix; non-post reserved keys (such as the admin password list) are
// left untouched by rehydration.
package store

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const postPrefix = "post:"

// AdminPasswordsKey is the reserved key under which the JSON-encoded list
// of admin password strings is stored.
const AdminPasswordsKey = "__admin_passwords__"

// Durable wraps an embedded LevelDB instance as the crash-safe backing
// store for envelopes and a handful of reserved, non-post records.
type Durable struct {
	db *leveldb.DB
}

// Open creates or opens the durable store at path.
func Open(path string) (*Durable, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open durable store: %w", err)
	}
	return &Durable{db: db}, nil
}

// Close releases the underlying database handle.
func (d *Durable) Close() error {
	return d.db.Close()
}

// PostKey returns the storage key for an envelope id.
func PostKey(id string) []byte {
	return []byte(postPrefix + id)
}

// InsertPost writes the serialized envelope for id.
func (d *Durable) InsertPost(id string, value []byte) error {
	return d.db.Put(PostKey(id), value, nil)
}

// RemovePost deletes the record for id, if present.
func (d *Durable) RemovePost(id string) error {
	return d.db.Delete(PostKey(id), nil)
}

// Flush is a named no-op. Every Put uses goleveldb's default write
// options: the record is in the database journal once Put returns, but
// no fsync is issued, and Flush does not issue one either. It exists so
// call sites mirror the spec's "flush after batch" step explicitly.
func (d *Durable) Flush() error {
	return nil
}

// PutReserved writes a non-post record, e.g. the admin password list.
func (d *Durable) PutReserved(key string, value []byte) error {
	return d.db.Put([]byte(key), value, nil)
}

// GetReserved reads a non-post record. ok is false if the key is absent.
func (d *Durable) GetReserved(key string) (value []byte, ok bool, err error) {
	v, err := d.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// IterPosts calls fn with the id and raw value of every record stored
// under the post: prefix. fn is never called for reserved keys.
func (d *Durable) IterPosts(fn func(id string, value []byte)) error {
	iter := d.db.NewIterator(util.BytesPrefix([]byte(postPrefix)), nil)
	defer iter.Release()
	for iter.Next() {
		id := string(iter.Key()[len(postPrefix):])
		value := append([]byte(nil), iter.Value()...)
		fn(id, value)
	}
	return iter.Error()
}

// RemoveRawKey deletes the record for an id as passed to IterPosts's
// callback; it is the same operation as RemovePost.
func (d *Durable) RemoveRawKey(id string) error {
	return d.RemovePost(id)
}
