package provision

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

const (
	// sha256("test") in each encoding.
	testChecksumB64URL = "n4bQgYhMfWWaL-qgxVrQFaO_TxsrC4Is0V1sFbDwCgg"
	testChecksumHex    = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

	testComponent = "com.example.agent/.DeviceAdminReceiver"
)

func newTestBuilder(storage *memStorage) *Builder {
	log := testLogger()
	locator := NewLocator(storage, "http://localhost:8080", false, log)
	overrides := NewOverrideStore(storage, log)
	return NewBuilder(storage, locator, overrides, testComponent, log)
}

func TestBuilderComputedChecksum(t *testing.T) {
	storage := newMemStorage()
	storage.put("agent_20260301_120000.apk", []byte("test"), time.Now())

	payload, pkg, url, err := newTestBuilder(storage).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, "agent_20260301_120000.apk", pkg.Name)
	require.Equal(t, "http://localhost:8080/api/apk/download/agent_20260301_120000.apk", url)

	require.Equal(t, testComponent, payload.ComponentName)
	require.Equal(t, url, payload.DownloadLocation)
	require.Equal(t, testChecksumB64URL, payload.SignatureChecksum)
	require.True(t, payload.LeaveSystemAppsEnabled)
	require.False(t, payload.SkipEncryption)
	require.NoError(t, payload.Validate())
}

func TestBuilderOverrideWins(t *testing.T) {
	storage := newMemStorage()
	storage.put("agent.apk", []byte("different content"), time.Now())

	builder := newTestBuilder(storage)
	// Stored as hex, as an operator's build pipeline would produce it.
	require.NoError(t, builder.overrides.Set(context.Background(), "agent.apk", testChecksumHex))

	payload, _, _, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, testChecksumB64URL, payload.SignatureChecksum)
}

func TestBuilderMalformedOverrideFallsBack(t *testing.T) {
	storage := newMemStorage()
	storage.put("agent.apk", []byte("test"), time.Now())

	builder := newTestBuilder(storage)
	require.NoError(t, builder.overrides.Set(context.Background(), "agent.apk", "not a checksum!"))

	payload, _, _, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, testChecksumB64URL, payload.SignatureChecksum)
}

func TestBuilderNoPackage(t *testing.T) {
	_, _, _, err := newTestBuilder(newMemStorage()).Build(context.Background())
	require.ErrorIs(t, err, interfaces.ErrNoPackage)
}

func TestBuilderOverridePerFilename(t *testing.T) {
	storage := newMemStorage()
	storage.put("agent_old.apk", []byte("x"), time.Now().Add(-time.Hour))
	storage.put("agent_new.apk", []byte("test"), time.Now())

	builder := newTestBuilder(storage)
	// Override for a package that is no longer current must not apply.
	require.NoError(t, builder.overrides.Set(context.Background(), "agent_old.apk", testChecksumHex))

	payload, pkg, _, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, "agent_new.apk", pkg.Name)
	require.Equal(t, testChecksumB64URL, payload.SignatureChecksum)
}
