package provision

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func validPayload() DeviceOwnerPayload {
	return DeviceOwnerPayload{
		ComponentName:          testComponent,
		DownloadLocation:       "https://example.com/api/apk/download/agent.apk",
		SignatureChecksum:      testChecksumB64URL,
		LeaveSystemAppsEnabled: true,
		SkipEncryption:         false,
	}
}

func TestPayloadJSONKeys(t *testing.T) {
	data, err := validPayload().CompactJSON()
	require.NoError(t, err)

	decoded := map[string]any{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded, 5)
	require.Equal(t, testComponent, decoded["android.app.extra.PROVISIONING_DEVICE_ADMIN_COMPONENT_NAME"])
	require.Equal(t, "https://example.com/api/apk/download/agent.apk", decoded["android.app.extra.PROVISIONING_DEVICE_ADMIN_PACKAGE_DOWNLOAD_LOCATION"])
	require.Equal(t, testChecksumB64URL, decoded["android.app.extra.PROVISIONING_DEVICE_ADMIN_SIGNATURE_CHECKSUM"])
	require.Equal(t, true, decoded["android.app.extra.PROVISIONING_LEAVE_ALL_SYSTEM_APPS_ENABLED"])
	require.Equal(t, false, decoded["android.app.extra.PROVISIONING_SKIP_ENCRYPTION"])

	// Compact form, no insignificant whitespace.
	require.NotContains(t, string(data), "\n")
	require.NotContains(t, string(data), ": ")
}

func TestPayloadValidate(t *testing.T) {
	require.NoError(t, validPayload().Validate())

	p := validPayload()
	p.ComponentName = "no-receiver-part"
	require.Error(t, p.Validate())

	p = validPayload()
	p.DownloadLocation = "ftp://example.com/agent.apk"
	require.Error(t, p.Validate())

	p = validPayload()
	p.SignatureChecksum = testChecksumHex
	require.Error(t, p.Validate())
}
