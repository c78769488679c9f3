// Package source abstracts where the raw transactions bytes come from. The
// pipeline only ever sees an io.ReadCloser, so a dataset on local disk, an
// object store, or a test fixture all look the same to the extract stage.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Source is anything the pipeline can open for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Local reads the transactions file from the local filesystem. This is the
// only built-in source: the public retail exports are single CSV files that
// users download next to the binary.
type Local struct{ path string }

// NewLocal binds a source to the given file path. The path is not checked
// until Open so configuration can be validated without touching the disk.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the transactions file for reading. A context that is already
// canceled fails fast without touching the filesystem. Errors keep their os
// sentinel wrapped, so errors.Is(err, os.ErrNotExist) works for callers that
// want to distinguish a missing dataset from a permission problem.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

var _ Source = (*Local)(nil)
