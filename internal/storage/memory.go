// ABOUTME: In-memory ObjectStore for tests and ephemeral runs.
// ABOUTME: Supports injected failures so callers can exercise degraded paths.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps objects in a map.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record

	// Fail, when set, is consulted before each operation ("list", "get", "put", "delete").
	Fail func(op string) error
}

// Compile-time check that MemoryStore implements ObjectStore.
var _ ObjectStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) check(op string) error {
	if m.Fail != nil {
		if err := m.Fail(op); err != nil {
			return fmt.Errorf("%s object: %w", op, err)
		}
	}
	return nil
}

// List returns every stored version of name, oldest first.
func (m *MemoryStore) List(ctx context.Context, name string) ([]Object, error) {
	if err := m.check("list"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []Object
	for _, r := range m.records {
		if r.Name == name {
			objects = append(objects, r.Object)
		}
	}
	sortObjects(objects)
	return objects, nil
}

// Get returns the content of one object version.
func (m *MemoryStore) Get(ctx context.Context, handle string) ([]byte, error) {
	if err := m.check("get"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[handle]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", handle, ErrNotFound)
	}
	return append([]byte(nil), r.Data...), nil
}

// Put stores data as a new version of name.
func (m *MemoryStore) Put(ctx context.Context, name string, data []byte) (Object, error) {
	if err := m.check("put"); err != nil {
		return Object{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	o := Object{
		Handle:    uuid.New().String(),
		Name:      name,
		Size:      int64(len(data)),
		CreatedAt: Timestamp(),
	}
	m.records[o.Handle] = Record{Object: o, Data: append([]byte(nil), data...)}
	return o, nil
}

// Delete removes one object version.
func (m *MemoryStore) Delete(ctx context.Context, handle string) error {
	if err := m.check("delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[handle]; !ok {
		return fmt.Errorf("delete %s: %w", handle, ErrNotFound)
	}
	delete(m.records, handle)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

func sortObjects(objects []Object) {
	sort.Slice(objects, func(i, j int) bool {
		if objects[i].CreatedAt.Equal(objects[j].CreatedAt) {
			return objects[i].Handle < objects[j].Handle
		}
		return objects[i].CreatedAt.Before(objects[j].CreatedAt)
	})
}
