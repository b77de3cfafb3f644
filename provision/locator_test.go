package provision

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocatorLatest(t *testing.T) {
	storage := newMemStorage()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	storage.put("agent_20260301_110000.apk", []byte("old"), base.Add(-time.Hour))
	storage.put("agent_20260301_120000.apk", []byte("new"), base)
	storage.put("checksums.json", []byte("{}"), base.Add(time.Hour))
	storage.put("notes.txt", []byte("x"), base.Add(time.Hour))

	locator := NewLocator(storage, "http://localhost:8080", false, testLogger())
	pkg, url, err := locator.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "agent_20260301_120000.apk", pkg.Name)
	require.Equal(t, "http://localhost:8080/api/apk/download/agent_20260301_120000.apk", url)
}

func TestLocatorLatestTieBreak(t *testing.T) {
	storage := newMemStorage()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	storage.put("agent_20260301_120000.apk", []byte("a"), ts)
	storage.put("agent_20260301_120001.apk", []byte("b"), ts)

	locator := NewLocator(storage, "http://localhost:8080", false, testLogger())
	pkg, _, err := locator.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "agent_20260301_120001.apk", pkg.Name)
}

func TestLocatorNoPackage(t *testing.T) {
	storage := newMemStorage()
	storage.put("checksums.json", []byte("{}"), time.Now())

	locator := NewLocator(storage, "http://localhost:8080", false, testLogger())
	_, _, err := locator.Latest(context.Background())
	require.ErrorIs(t, err, interfaces.ErrNoPackage)
}

func TestLocatorProductionUpgradesHTTPS(t *testing.T) {
	locator := NewLocator(newMemStorage(), "http://example.com/", true, testLogger())
	require.Equal(t, "https://example.com/api/apk/download/x.apk", locator.DownloadURL("x.apk"))

	// Explicit https passes through unchanged.
	locator = NewLocator(newMemStorage(), "https://example.com", true, testLogger())
	require.Equal(t, "https://example.com/api/apk/download/x.apk", locator.DownloadURL("x.apk"))

	// Without the production flag http is preserved.
	locator = NewLocator(newMemStorage(), "http://localhost:8080", false, testLogger())
	require.Equal(t, "http://localhost:8080/api/apk/download/x.apk", locator.DownloadURL("x.apk"))
}
