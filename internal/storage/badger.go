// ABOUTME: Badger-backed ObjectStore for an embedded key-value data directory.
// ABOUTME: Each object version is one key under the objects prefix.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
)

const badgerPrefix = "object:"

// BadgerStore keeps objects in a Badger database.
type BadgerStore struct {
	db *badger.DB
}

// Compile-time check that BadgerStore implements ObjectStore.
var _ ObjectStore = (*BadgerStore)(nil)

// OpenBadger opens a Badger database in dir. An empty dir runs in memory.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close closes the database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// List returns every stored version of name, oldest first.
func (b *BadgerStore) List(ctx context.Context, name string) ([]Object, error) {
	var objects []Object
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(badgerPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			r, err := UnmarshalRecord(val)
			if err != nil {
				continue // Skip invalid entries
			}
			if r.Name == name {
				objects = append(objects, r.Object)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	sortObjects(objects)
	return objects, nil
}

// Get returns the content of one object version.
func (b *BadgerStore) Get(ctx context.Context, handle string) ([]byte, error) {
	var r Record
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerPrefix + handle))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		r, err = UnmarshalRecord(val)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("get %s: %w", handle, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return r.Data, nil
}

// Put stores data as a new version of name.
func (b *BadgerStore) Put(ctx context.Context, name string, data []byte) (Object, error) {
	o := Object{
		Handle:    uuid.New().String(),
		Name:      name,
		Size:      int64(len(data)),
		CreatedAt: Timestamp(),
	}
	val, err := MarshalRecord(Record{Object: o, Data: data})
	if err != nil {
		return Object{}, fmt.Errorf("marshal object: %w", err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerPrefix+o.Handle), val)
	})
	if err != nil {
		return Object{}, fmt.Errorf("put object: %w", err)
	}
	return o, nil
}

// Delete removes one object version.
func (b *BadgerStore) Delete(ctx context.Context, handle string) error {
	key := []byte(badgerPrefix + handle)
	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", handle, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
