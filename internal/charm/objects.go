// ABOUTME: ObjectStore implementation on top of Charm KV.
// ABOUTME: Object versions live under type-prefixed keys and sync to Charm Cloud.
package charm

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/harperreed/wellness/internal/storage"
)

// Compile-time check that Client implements storage.ObjectStore.
var _ storage.ObjectStore = (*Client)(nil)

// objectKey returns the KV key for an object handle.
func objectKey(handle string) string {
	return ObjectPrefix + handle
}

// List returns every stored version of name, oldest first.
func (c *Client) List(ctx context.Context, name string) ([]storage.Object, error) {
	values, err := c.listByPrefix(ObjectPrefix)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	var objects []storage.Object
	for _, v := range values {
		r, err := storage.UnmarshalRecord(v)
		if err != nil {
			continue // Skip invalid entries
		}
		if r.Name == name {
			objects = append(objects, r.Object)
		}
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].CreatedAt.Before(objects[j].CreatedAt)
	})
	return objects, nil
}

// Get returns the content of one object version.
func (c *Client) Get(ctx context.Context, handle string) ([]byte, error) {
	ok, err := c.hasKey(objectKey(handle))
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("get %s: %w", handle, storage.ErrNotFound)
	}

	val, err := c.get(objectKey(handle))
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	r, err := storage.UnmarshalRecord(val)
	if err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	return r.Data, nil
}

// Put stores data as a new version of name.
func (c *Client) Put(ctx context.Context, name string, data []byte) (storage.Object, error) {
	o := storage.Object{
		Handle:    uuid.New().String(),
		Name:      name,
		Size:      int64(len(data)),
		CreatedAt: storage.Timestamp(),
	}
	val, err := storage.MarshalRecord(storage.Record{Object: o, Data: data})
	if err != nil {
		return storage.Object{}, fmt.Errorf("marshal object: %w", err)
	}
	if err := c.set(objectKey(o.Handle), val); err != nil {
		return storage.Object{}, fmt.Errorf("put object: %w", err)
	}
	return o, nil
}

// Delete removes one object version.
func (c *Client) Delete(ctx context.Context, handle string) error {
	ok, err := c.hasKey(objectKey(handle))
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	if !ok {
		return fmt.Errorf("delete %s: %w", handle, storage.ErrNotFound)
	}
	if err := c.delete(objectKey(handle)); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
