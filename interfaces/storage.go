package interfaces

import (
	"context"
	"io"
)

// PackageStorage is a directory-like backend holding uploaded packages and the
// colocated checksum override table. The "current" package is always the most
// recently modified entry matching the package extension; there is no version
// table.
type PackageStorage interface {
	// List returns every entry in the backend. Callers apply their own
	// extension filters.
	List(ctx context.Context) ([]PackageInfo, error)

	// Read returns an entry's full content. Returns ErrFileNotFound when the
	// entry does not exist.
	Read(ctx context.Context, name string) ([]byte, error)

	// Open returns a reader over an entry's content plus its size. Returns
	// ErrFileNotFound when the entry does not exist. The caller closes the
	// reader.
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)

	// Write stores an entry, replacing any previous content. Implementations
	// replace atomically where the backend allows it.
	Write(ctx context.Context, name string, data []byte) error

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this backend.
	LocationURI() string
}
