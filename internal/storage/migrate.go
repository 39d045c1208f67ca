// ABOUTME: Copies a ledger object between storage backends.
// ABOUTME: Only the newest version moves; older duplicates stay behind.

package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrDestinationNotEmpty is returned when the destination already holds the name.
var ErrDestinationNotEmpty = errors.New("destination already holds objects with this name")

// MigrateSummary describes what was copied.
type MigrateSummary struct {
	Name    string
	Handle  string
	Bytes   int64
	Skipped int
}

// MigrateData copies the newest object stored under name from src to dst.
// The destination must not hold that name yet; a source without it is ErrNotFound.
func MigrateData(ctx context.Context, src, dst ObjectStore, name string) (*MigrateSummary, error) {
	existing, err := dst.List(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list destination: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: %s (%d)", ErrDestinationNotEmpty, name, len(existing))
	}

	objects, err := src.List(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list source: %w", err)
	}
	newest, ok := Newest(objects)
	if !ok {
		return nil, fmt.Errorf("source %s: %w", name, ErrNotFound)
	}

	data, err := src.Get(ctx, newest.Handle)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", newest.Handle, err)
	}
	o, err := dst.Put(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("write destination: %w", err)
	}

	return &MigrateSummary{
		Name:    name,
		Handle:  o.Handle,
		Bytes:   o.Size,
		Skipped: len(objects) - 1,
	}, nil
}
