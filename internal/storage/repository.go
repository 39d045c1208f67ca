// ABOUTME: ObjectStore interface for versioned flat-file objects.
// ABOUTME: Objects are immutable; replacing one means put-new then delete-old.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when an object handle does not exist.
var ErrNotFound = errors.New("object not found")

// Object describes one stored version of a logical name.
type Object struct {
	Handle    string    `json:"handle"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ObjectStore is the transport contract the ledger relies on.
// Several objects may share a name; each Put creates a new handle.
type ObjectStore interface {
	List(ctx context.Context, name string) ([]Object, error)
	Get(ctx context.Context, handle string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) (Object, error)
	Delete(ctx context.Context, handle string) error
	Close() error
}

// Newest returns the most recently created object. Ties break on handle.
func Newest(objects []Object) (Object, bool) {
	if len(objects) == 0 {
		return Object{}, false
	}
	best := objects[0]
	for _, o := range objects[1:] {
		if o.CreatedAt.After(best.CreatedAt) ||
			(o.CreatedAt.Equal(best.CreatedAt) && o.Handle > best.Handle) {
			best = o
		}
	}
	return best, true
}

var (
	clockMu   sync.Mutex
	lastStamp time.Time
)

// Timestamp returns a UTC creation time strictly later than any previous one
// issued by this process, so back-to-back puts always order correctly.
func Timestamp() time.Time {
	clockMu.Lock()
	defer clockMu.Unlock()
	now := time.Now().UTC()
	if !now.After(lastStamp) {
		now = lastStamp.Add(time.Nanosecond)
	}
	lastStamp = now
	return now
}

// Record is the serialized form used by key-value backends.
type Record struct {
	Object
	Data []byte `json:"data"`
}

// MarshalRecord encodes a record for a key-value backend.
func MarshalRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalRecord decodes a record written by MarshalRecord.
func UnmarshalRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}
