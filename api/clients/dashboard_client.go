package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruteri/android-provisioning-backend/api"
)

// DashboardClient talks to the provisioning backend's HTTP API.
type DashboardClient struct {
	// ServerAddr is the base URL of the backend, e.g. http://localhost:8080.
	ServerAddr string

	// HTTPClient overrides the client used for requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Devices lists every device record.
func (c *DashboardClient) Devices() (*api.DevicesResponse, error) {
	var resp api.DevicesResponse
	return &resp, c.getJSON("/api/devices", &resp)
}

// Status reads one device's status.
func (c *DashboardClient) Status(deviceID string) (*api.DeviceStatusResponse, error) {
	var resp api.DeviceStatusResponse
	return &resp, c.getJSON("/api/devices/"+url.PathEscape(deviceID)+"/status", &resp)
}

// SendCommand relays a command to one device.
func (c *DashboardClient) SendCommand(deviceID, command string) (*api.CommandResponse, error) {
	var resp api.CommandResponse
	err := c.postJSON("/api/devices/"+url.PathEscape(deviceID)+"/command",
		api.CommandRequest{Command: command}, &resp)
	return &resp, err
}

// BulkCommand relays a command to a set of devices.
func (c *DashboardClient) BulkCommand(command string, deviceIDs []string) (*api.BulkCommandResponse, error) {
	var resp api.BulkCommandResponse
	err := c.postJSON("/api/devices/bulk-command",
		api.BulkCommandRequest{Command: command, DeviceIDs: deviceIDs}, &resp)
	return &resp, err
}

// DeleteDevice removes a device's registry record.
func (c *DashboardClient) DeleteDevice(deviceID string) (*api.DeleteDeviceResponse, error) {
	req, err := http.NewRequest(http.MethodDelete, c.ServerAddr+"/api/devices/"+url.PathEscape(deviceID), nil)
	if err != nil {
		return nil, err
	}
	var resp api.DeleteDeviceResponse
	return &resp, c.do(req, &resp)
}

// Stats returns registry statistics.
func (c *DashboardClient) Stats() (*api.StatsResponse, error) {
	var resp api.StatsResponse
	return &resp, c.getJSON("/api/stats", &resp)
}

// Upload sends a package file, optionally with a checksum override.
func (c *DashboardClient) Upload(path, checksum string) (*api.UploadResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("apk", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if checksum != "" {
		if err := writer.WriteField("checksum", checksum); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.ServerAddr+"/api/apk/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp api.UploadResponse
	return &resp, c.do(req, &resp)
}

// Download fetches a package's raw bytes.
func (c *DashboardClient) Download(filename string) ([]byte, error) {
	httpResp, err := c.client().Get(c.ServerAddr + "/api/apk/download/" + url.PathEscape(filename))
	if err != nil {
		return nil, fmt.Errorf("could not request download endpoint: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("download endpoint returned error %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(httpResp.Body)
}

// QRCode returns the download-URL QR code for the current package.
func (c *DashboardClient) QRCode() (*api.QRCodeResponse, error) {
	var resp api.QRCodeResponse
	return &resp, c.getJSON("/api/apk/qrcode", &resp)
}

// Provision returns the Device Owner provisioning payload.
func (c *DashboardClient) Provision() (*api.ProvisionResponse, error) {
	var resp api.ProvisionResponse
	return &resp, c.getJSON("/api/apk/device-owner-provision", &resp)
}

// ProvisionQR returns the provisioning payload QR code.
func (c *DashboardClient) ProvisionQR() (*api.ProvisionQRResponse, error) {
	var resp api.ProvisionQRResponse
	return &resp, c.getJSON("/api/apk/device-owner-qr", &resp)
}

// SetChecksum stores a checksum override for a filename.
func (c *DashboardClient) SetChecksum(filename, checksum string) (*api.ChecksumResponse, error) {
	var resp api.ChecksumResponse
	err := c.postJSON("/api/apk/checksum",
		api.ChecksumRequest{Filename: filename, Checksum: checksum}, &resp)
	return &resp, err
}

// GetChecksum reads the stored override for a filename.
func (c *DashboardClient) GetChecksum(filename string) (*api.ChecksumResponse, error) {
	var resp api.ChecksumResponse
	return &resp, c.getJSON("/api/apk/checksum/"+url.PathEscape(filename), &resp)
}

// VerifyChecksum returns the current package's digest in every encoding.
func (c *DashboardClient) VerifyChecksum() (*api.VerifyChecksumResponse, error) {
	var resp api.VerifyChecksumResponse
	return &resp, c.getJSON("/api/apk/verify-checksum", &resp)
}

func (c *DashboardClient) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *DashboardClient) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.ServerAddr+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *DashboardClient) postJSON(path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.ServerAddr+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *DashboardClient) do(req *http.Request, out any) error {
	httpResp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", req.URL.Path, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		var envelope api.ErrorResponse
		body, _ := io.ReadAll(httpResp.Body)
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
			return fmt.Errorf("%s returned error %d: %s", req.URL.Path, httpResp.StatusCode, envelope.Error)
		}
		return fmt.Errorf("%s returned error %d: %s", req.URL.Path, httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse %s response: %w", req.URL.Path, err)
	}
	return nil
}
