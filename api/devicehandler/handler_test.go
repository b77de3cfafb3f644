package devicehandler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/android-provisioning-backend/api"
	"github.com/ruteri/android-provisioning-backend/interfaces"
	"github.com/ruteri/android-provisioning-backend/registry"
)

func newTestServer(reg interfaces.DeviceRegistry) *httptest.Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	NewHandler(reg, log).RegisterRoutes(router)
	return httptest.NewServer(router)
}

func TestHandleDevices(t *testing.T) {
	reg := new(registry.MockRegistry)
	reg.On("AllDevices", mock.Anything).Return(map[interfaces.DeviceID]interfaces.DeviceRecord{
		"device-1": {"status": "online"},
		"device-2": {"status": "offline"},
	}, nil)

	srv := newTestServer(reg)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/devices")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.DevicesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.Equal(t, 2, body.Count)
	require.Equal(t, "online", body.Devices["device-1"].Status())
}

func TestHandleStatus(t *testing.T) {
	reg := new(registry.MockRegistry)
	reg.On("DeviceStatus", mock.Anything, interfaces.DeviceID("device-1")).Return("online", nil)
	reg.On("DeviceStatus", mock.Anything, interfaces.DeviceID("ghost")).Return("", interfaces.ErrDeviceNotFound)

	srv := newTestServer(reg)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/devices/device-1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.DeviceStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.NotNil(t, body.Status)
	require.Equal(t, "online", *body.Status)

	// Unknown device: success with null status, not an error.
	resp, err = http.Get(srv.URL + "/api/devices/ghost/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body = api.DeviceStatusResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.Nil(t, body.Status)
}

func TestHandleCommand(t *testing.T) {
	reg := new(registry.MockRegistry)
	reg.On("SendCommand", mock.Anything, interfaces.DeviceID("device-1"), interfaces.Command("lock")).Return(nil)

	srv := newTestServer(reg)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/devices/device-1/command", "application/json",
		bytes.NewReader([]byte(`{"command":"lock"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.CommandResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.Equal(t, "lock", body.Command)
	require.NotEmpty(t, body.Timestamp)
	reg.AssertExpectations(t)
}

func TestHandleCommandInvalid(t *testing.T) {
	reg := new(registry.MockRegistry)
	srv := newTestServer(reg)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/devices/device-1/command", "application/json",
		bytes.NewReader([]byte(`{"command":"reboot"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Contains(t, body.Error, "lock, unlock, wallpaper")
	reg.AssertNotCalled(t, "SendCommand", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleBulkCommand(t *testing.T) {
	reg := new(registry.MockRegistry)
	reg.On("SendCommand", mock.Anything, interfaces.DeviceID("device-1"), interfaces.Command("unlock")).Return(nil)
	reg.On("SendCommand", mock.Anything, interfaces.DeviceID("device-2"), interfaces.Command("unlock")).Return(interfaces.ErrDeviceNotFound)

	srv := newTestServer(reg)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/devices/bulk-command", "application/json",
		bytes.NewReader([]byte(`{"command":"unlock","device_ids":["device-1","device-2"]}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.BulkCommandResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.NotEmpty(t, body.OperationID)
	require.Len(t, body.Results, 2)
	require.True(t, body.Results[0].Success)
	require.False(t, body.Results[1].Success)
	require.NotEmpty(t, body.Results[1].Error)
}

func TestHandleDelete(t *testing.T) {
	reg := new(registry.MockRegistry)
	reg.On("DeleteDevice", mock.Anything, interfaces.DeviceID("device-1")).Return(nil)

	srv := newTestServer(reg)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/devices/device-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reg.AssertExpectations(t)
}

func TestHandleStats(t *testing.T) {
	reg := new(registry.MockRegistry)
	reg.On("AllDevices", mock.Anything).Return(map[interfaces.DeviceID]interfaces.DeviceRecord{
		"a": {"status": "online"},
		"b": {"status": "offline"},
		"c": {},
	}, nil)

	srv := newTestServer(reg)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body api.StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.Equal(t, 3, body.TotalDevices)
	require.Equal(t, 1, body.OnlineDevices)
	require.Equal(t, 2, body.OfflineDevices)
}
