package provision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ruteri/android-provisioning-backend/checksum"
)

// DeviceOwnerPayload is the exact JSON shape Android's setup wizard expects
// when a factory-reset device scans a provisioning QR code. The key set is
// fixed: four extras plus two booleans, no optional fields.
type DeviceOwnerPayload struct {
	// ComponentName is the device admin receiver installed by the package,
	// e.g. "com.example.agent/.DeviceAdminReceiver".
	ComponentName string `json:"android.app.extra.PROVISIONING_DEVICE_ADMIN_COMPONENT_NAME"`

	// DownloadLocation is the URL the device fetches the package from.
	// Production deployments must use HTTPS; devices refuse insecure URLs.
	DownloadLocation string `json:"android.app.extra.PROVISIONING_DEVICE_ADMIN_PACKAGE_DOWNLOAD_LOCATION"`

	// SignatureChecksum is the canonical 43-character base64url SHA-256
	// checksum the device verifies the download against.
	SignatureChecksum string `json:"android.app.extra.PROVISIONING_DEVICE_ADMIN_SIGNATURE_CHECKSUM"`

	// LeaveSystemAppsEnabled keeps preinstalled system apps after enrollment.
	LeaveSystemAppsEnabled bool `json:"android.app.extra.PROVISIONING_LEAVE_ALL_SYSTEM_APPS_ENABLED"`

	// SkipEncryption controls whether the device skips storage encryption
	// during setup.
	SkipEncryption bool `json:"android.app.extra.PROVISIONING_SKIP_ENCRYPTION"`
}

// Validate checks the payload before it leaves the backend. A payload that
// fails here would enroll no device; the download URL and checksum checks
// mirror what the on-device setup wizard enforces.
func (p DeviceOwnerPayload) Validate() error {
	if !strings.Contains(p.ComponentName, "/") {
		return fmt.Errorf("invalid admin component %q, expected package/receiver", p.ComponentName)
	}
	if !strings.HasPrefix(p.DownloadLocation, "http://") && !strings.HasPrefix(p.DownloadLocation, "https://") {
		return errors.New("download location must be an absolute http(s) URL")
	}
	return checksum.Validate(p.SignatureChecksum)
}

// CompactJSON renders the payload without insignificant whitespace, the form
// embedded in provisioning QR codes.
func (p DeviceOwnerPayload) CompactJSON() ([]byte, error) {
	return json.Marshal(p)
}
