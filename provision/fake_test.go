package provision

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

type memEntry struct {
	data    []byte
	modTime time.Time
}

// memStorage is an in-memory PackageStorage for tests.
type memStorage struct {
	entries map[string]memEntry
}

func newMemStorage() *memStorage {
	return &memStorage{entries: map[string]memEntry{}}
}

func (m *memStorage) put(name string, data []byte, modTime time.Time) {
	m.entries[name] = memEntry{data: data, modTime: modTime}
}

func (m *memStorage) List(ctx context.Context) ([]interfaces.PackageInfo, error) {
	infos := make([]interfaces.PackageInfo, 0, len(m.entries))
	for name, entry := range m.entries {
		infos = append(infos, interfaces.PackageInfo{
			Name:    name,
			Size:    int64(len(entry.data)),
			ModTime: entry.modTime,
		})
	}
	return infos, nil
}

func (m *memStorage) Read(ctx context.Context, name string) ([]byte, error) {
	entry, ok := m.entries[name]
	if !ok {
		return nil, interfaces.ErrFileNotFound
	}
	return entry.data, nil
}

func (m *memStorage) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	entry, ok := m.entries[name]
	if !ok {
		return nil, 0, interfaces.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(entry.data)), int64(len(entry.data)), nil
}

func (m *memStorage) Write(ctx context.Context, name string, data []byte) error {
	m.entries[name] = memEntry{data: data, modTime: time.Now()}
	return nil
}

func (m *memStorage) Name() string        { return "mem" }
func (m *memStorage) LocationURI() string { return "mem://" }
