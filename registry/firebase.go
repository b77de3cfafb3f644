package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

// FirebaseRegistry implements the device registry over the Firebase Realtime
// Database REST surface. Every node is addressable as
// {base}/{root}/devices/{id}[/{field}].json with an optional auth token query
// parameter.
type FirebaseRegistry struct {
	baseURL   string
	root      string
	authToken string
	client    *http.Client
	log       *slog.Logger
}

// NewFirebaseRegistry creates a registry client for the RTDB instance at
// baseURL. The root is the top-level node holding the devices subtree;
// authToken, if non-empty, is passed as the RTDB auth query parameter.
func NewFirebaseRegistry(baseURL, root, authToken string, log *slog.Logger) *FirebaseRegistry {
	return &FirebaseRegistry{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		root:      strings.Trim(root, "/"),
		authToken: authToken,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log,
	}
}

// AllDevices returns every device record. An empty devices node (RTDB
// returns literal null) yields an empty map.
func (r *FirebaseRegistry) AllDevices(ctx context.Context) (map[interfaces.DeviceID]interfaces.DeviceRecord, error) {
	var raw map[string]interfaces.DeviceRecord
	if err := r.get(ctx, r.nodeURL("devices"), &raw); err != nil {
		return nil, err
	}

	devices := make(map[interfaces.DeviceID]interfaces.DeviceRecord, len(raw))
	for id, record := range raw {
		devices[interfaces.DeviceID(id)] = record
	}
	return devices, nil
}

// DeviceStatus returns the device's status field. A null node means the
// device has never reported, surfaced as ErrDeviceNotFound.
func (r *FirebaseRegistry) DeviceStatus(ctx context.Context, id interfaces.DeviceID) (string, error) {
	var status *string
	if err := r.get(ctx, r.nodeURL("devices", id.String(), "status"), &status); err != nil {
		return "", err
	}
	if status == nil {
		return "", interfaces.ErrDeviceNotFound
	}
	return *status, nil
}

// SendCommand writes the command into the device's command field. RTDB
// creates intermediate nodes implicitly, so this also enrolls a device that
// has not reported yet.
func (r *FirebaseRegistry) SendCommand(ctx context.Context, id interfaces.DeviceID, cmd interfaces.Command) error {
	body, err := json.Marshal(cmd.String())
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.nodeURL("devices", id.String(), "command"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if err := r.do(req, nil); err != nil {
		return fmt.Errorf("sending command to device %s: %w", id, err)
	}

	r.log.Info("Command relayed to device",
		slog.String("device_id", id.String()),
		slog.String("command_type", cmd.Type()))
	return nil
}

// DeleteDevice removes the device's record.
func (r *FirebaseRegistry) DeleteDevice(ctx context.Context, id interfaces.DeviceID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.nodeURL("devices", id.String()), nil)
	if err != nil {
		return err
	}

	if err := r.do(req, nil); err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}

	r.log.Info("Device removed from registry", slog.String("device_id", id.String()))
	return nil
}

func (r *FirebaseRegistry) get(ctx context.Context, nodeURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, nodeURL, nil)
	if err != nil {
		return err
	}
	return r.do(req, out)
}

func (r *FirebaseRegistry) do(req *http.Request, out any) error {
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("realtime database request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("realtime database returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding realtime database response: %w", err)
	}
	return nil
}

// nodeURL builds the REST URL for a node path under the registry root.
func (r *FirebaseRegistry) nodeURL(parts ...string) string {
	segments := append([]string{r.root}, parts...)
	u := fmt.Sprintf("%s/%s.json", r.baseURL, strings.Join(segments, "/"))
	if r.authToken != "" {
		u += "?auth=" + url.QueryEscape(r.authToken)
	}
	return u
}
