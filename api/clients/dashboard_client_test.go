package clients

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/android-provisioning-backend/api/apkhandler"
	"github.com/ruteri/android-provisioning-backend/api/devicehandler"
	"github.com/ruteri/android-provisioning-backend/provision"
	"github.com/ruteri/android-provisioning-backend/registry"
	"github.com/ruteri/android-provisioning-backend/storage"
)

func newBackend(t *testing.T) *DashboardClient {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	backend, err := storage.NewFileBackend(t.TempDir(), log)
	require.NoError(t, err)
	reg, err := registry.NewBadgerRegistry(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	locator := provision.NewLocator(backend, "http://localhost:8080", false, log)
	overrides := provision.NewOverrideStore(backend, log)
	builder := provision.NewBuilder(backend, locator, overrides, "com.example.agent/.DeviceAdminReceiver", log)

	router := chi.NewRouter()
	devicehandler.NewHandler(reg, log).RegisterRoutes(router)
	apkhandler.NewHandler(backend, locator, overrides, builder, provision.DefaultQRConfig(), "agent", log).RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &DashboardClient{ServerAddr: srv.URL, HTTPClient: srv.Client()}
}

func TestClientDeviceFlow(t *testing.T) {
	client := newBackend(t)

	devices, err := client.Devices()
	require.NoError(t, err)
	require.True(t, devices.Success)
	require.Zero(t, devices.Count)

	cmdResp, err := client.SendCommand("device-1", "lock")
	require.NoError(t, err)
	require.True(t, cmdResp.Success)
	require.Equal(t, "lock", cmdResp.Command)

	// The relay created the record.
	devices, err = client.Devices()
	require.NoError(t, err)
	require.Equal(t, 1, devices.Count)

	_, err = client.SendCommand("device-1", "reboot")
	require.ErrorContains(t, err, "lock, unlock, wallpaper")

	bulk, err := client.BulkCommand("unlock", []string{"device-1", "device-2"})
	require.NoError(t, err)
	require.Len(t, bulk.Results, 2)
	require.NotEmpty(t, bulk.OperationID)

	deleted, err := client.DeleteDevice("device-1")
	require.NoError(t, err)
	require.True(t, deleted.Success)

	stats, err := client.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalDevices)
}

func TestClientPackageFlow(t *testing.T) {
	client := newBackend(t)

	path := filepath.Join(t.TempDir(), "agent.apk")
	require.NoError(t, os.WriteFile(path, []byte("test"), 0o644))

	uploaded, err := client.Upload(path, "")
	require.NoError(t, err)
	require.True(t, uploaded.Success)

	data, err := client.Download(uploaded.Filename)
	require.NoError(t, err)
	require.Equal(t, []byte("test"), data)

	built, err := client.Provision()
	require.NoError(t, err)
	require.Equal(t, uploaded.Filename, built.Filename)
	require.Equal(t, "n4bQgYhMfWWaL-qgxVrQFaO_TxsrC4Is0V1sFbDwCgg", built.Payload.SignatureChecksum)

	verify, err := client.VerifyChecksum()
	require.NoError(t, err)
	require.Equal(t, built.Payload.SignatureChecksum, verify.Base64URL)

	_, err = client.GetChecksum(uploaded.Filename)
	require.ErrorContains(t, err, "404")
}
