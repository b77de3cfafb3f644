package api

import (
	"github.com/ruteri/android-provisioning-backend/interfaces"
	"github.com/ruteri/android-provisioning-backend/provision"
)

// ErrorResponse is the envelope returned on any failed JSON request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// DevicesResponse lists every device record in the registry.
type DevicesResponse struct {
	Success bool                                             `json:"success"`
	Devices map[interfaces.DeviceID]interfaces.DeviceRecord `json:"devices"`
	Count   int                                              `json:"count"`
}

// DeviceStatusResponse carries a single device's status. Status is null when
// the device has no record; an unknown device is not an error for the
// dashboard's polling loop.
type DeviceStatusResponse struct {
	Success  bool    `json:"success"`
	DeviceID string  `json:"device_id"`
	Status   *string `json:"status"`
}

// CommandRequest is the body of a single-device command relay.
type CommandRequest struct {
	Command string `json:"command"`
}

// CommandResponse echoes a relayed command with the relay timestamp.
type CommandResponse struct {
	Success   bool   `json:"success"`
	DeviceID  string `json:"device_id"`
	Command   string `json:"command"`
	Timestamp string `json:"timestamp"`
}

// BulkCommandRequest relays one command to a set of devices.
type BulkCommandRequest struct {
	Command   string   `json:"command"`
	DeviceIDs []string `json:"device_ids"`
}

// BulkCommandResult is the per-device outcome of a bulk relay.
type BulkCommandResult struct {
	DeviceID string `json:"device_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// BulkCommandResponse reports a bulk relay: an operation identifier for log
// correlation plus per-device results. Success is true when the relay ran;
// individual devices may still have failed.
type BulkCommandResponse struct {
	Success     bool                `json:"success"`
	OperationID string              `json:"operation_id"`
	Command     string              `json:"command"`
	Results     []BulkCommandResult `json:"results"`
}

// DeleteDeviceResponse confirms a device record removal.
type DeleteDeviceResponse struct {
	Success  bool   `json:"success"`
	DeviceID string `json:"device_id"`
}

// StatsResponse summarizes the registry by status, computed from a fresh read.
type StatsResponse struct {
	Success        bool `json:"success"`
	TotalDevices   int  `json:"total_devices"`
	OnlineDevices  int  `json:"online_devices"`
	OfflineDevices int  `json:"offline_devices"`
}

// UploadResponse reports a stored package upload.
type UploadResponse struct {
	Success     bool   `json:"success"`
	UploadID    string `json:"upload_id"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// QRCodeResponse carries a QR code as a PNG data URI together with what it
// encodes.
type QRCodeResponse struct {
	Success     bool   `json:"success"`
	QRCode      string `json:"qr_code"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
}

// ProvisionResponse carries the Device Owner provisioning payload for the
// current package.
type ProvisionResponse struct {
	Success     bool                         `json:"success"`
	Payload     provision.DeviceOwnerPayload `json:"payload"`
	Filename    string                       `json:"filename"`
	DownloadURL string                       `json:"download_url"`
}

// ProvisionQRResponse carries the provisioning payload QR-encoded as a PNG
// data URI, plus the payload itself for display next to the code.
type ProvisionQRResponse struct {
	Success bool                         `json:"success"`
	QRCode  string                       `json:"qr_code"`
	Payload provision.DeviceOwnerPayload `json:"payload"`
}

// ChecksumRequest stores a checksum override for a package filename.
type ChecksumRequest struct {
	Filename string `json:"filename"`
	Checksum string `json:"checksum"`
}

// ChecksumResponse carries a checksum override entry.
type ChecksumResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Checksum string `json:"checksum"`
}

// VerifyChecksumResponse is the operator diagnostic for the current package:
// its digest in every accepted encoding plus any stored override.
type VerifyChecksumResponse struct {
	Success   bool   `json:"success"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	Hex       string `json:"hex"`
	Base64    string `json:"base64"`
	Base64URL string `json:"base64url"`
	Override  string `json:"override,omitempty"`
}
