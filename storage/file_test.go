package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/android-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileBackendWriteReadList(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	content := []byte("apk bytes")
	require.NoError(t, backend.Write(ctx, "agent_1.apk", content))
	require.NoError(t, backend.Write(ctx, "checksums.json", []byte("{}")))

	got, err := backend.Read(ctx, "agent_1.apk")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	infos, err := backend.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	names := []string{infos[0].Name, infos[1].Name}
	assert.ElementsMatch(t, []string{"agent_1.apk", "checksums.json"}, names)
	for _, info := range infos {
		assert.False(t, info.ModTime.IsZero())
	}
}

func TestFileBackendOpen(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	content := []byte("streamed content")
	require.NoError(t, backend.Write(ctx, "agent_1.apk", content))

	rc, size, err := backend.Open(ctx, "agent_1.apk")
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, int64(len(content)), size)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestFileBackendNotFound(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	_, err = backend.Read(ctx, "missing.apk")
	assert.ErrorIs(t, err, interfaces.ErrFileNotFound)

	_, _, err = backend.Open(ctx, "missing.apk")
	assert.ErrorIs(t, err, interfaces.ErrFileNotFound)
}

func TestFileBackendRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	for _, name := range []string{"", "../escape.apk", "sub/dir.apk", ".hidden"} {
		assert.Error(t, backend.Write(ctx, name, []byte("x")), "name %q", name)
		_, err := backend.Read(ctx, name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestFileBackendOverwriteIsAtomicReplace(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, testLogger())
	require.NoError(t, err)

	require.NoError(t, backend.Write(ctx, "checksums.json", []byte("first")))
	require.NoError(t, backend.Write(ctx, "checksums.json", []byte("second")))

	got, err := backend.Read(ctx, "checksums.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	// No temp leftovers after successful writes.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "checksums.json", entries[0].Name())

	// Listing must also ignore stray temp files from interrupted writes.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".checksums.json.tmp-123"), []byte("junk"), 0644))
	infos, err := backend.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
}
