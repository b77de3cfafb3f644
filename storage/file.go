package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

// FileBackend implements package storage on the local file system. Writes are
// atomic (temp file + rename) so a concurrent reader never observes a
// half-written package or override table.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a file storage backend rooted at baseDir, creating
// the directory if needed.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// List returns every regular file in the storage directory.
func (b *FileBackend) List(ctx context.Context) ([]interfaces.PackageInfo, error) {
	entries, err := os.ReadDir(b.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}

	infos := make([]interfaces.PackageInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		infos = append(infos, interfaces.PackageInfo{
			Name:    entry.Name(),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}

	return infos, nil
}

// Read returns an entry's full content. Returns ErrFileNotFound if the entry
// doesn't exist.
func (b *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	path, err := b.entryPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, interfaces.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	b.log.Debug("Read file from storage",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return data, nil
}

// Open returns a reader over an entry plus its size.
func (b *FileBackend) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	path, err := b.entryPath(name)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, interfaces.ErrFileNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat file: %w", err)
	}

	return f, fi.Size(), nil
}

// Write stores an entry atomically: content lands in a temp file in the same
// directory and is renamed over the destination.
func (b *FileBackend) Write(ctx context.Context, name string, data []byte) error {
	path, err := b.entryPath(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.baseDir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	b.log.Debug("Stored file in storage",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return nil
}

// Name returns an identifier for logging.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

// entryPath joins name to the base directory, rejecting anything that could
// escape it.
func (b *FileBackend) entryPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid storage entry name: %q", name)
	}
	return filepath.Join(b.baseDir, name), nil
}
