package devicehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ruteri/android-provisioning-backend/api"
	"github.com/ruteri/android-provisioning-backend/interfaces"
	"github.com/ruteri/android-provisioning-backend/metrics"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler processes device management requests: listing, status, command
// relay and record removal, all backed by the device registry.
type Handler struct {
	registry interfaces.DeviceRegistry
	log      *slog.Logger
}

// NewHandler creates a device handler backed by the given registry.
func NewHandler(registry interfaces.DeviceRegistry, log *slog.Logger) *Handler {
	return &Handler{registry: registry, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/devices", h.HandleDevices)
	r.Get("/api/devices/{device_id}/status", h.HandleStatus)
	r.Post("/api/devices/{device_id}/command", h.HandleCommand)
	r.Post("/api/devices/bulk-command", h.HandleBulkCommand)
	r.Delete("/api/devices/{device_id}", h.HandleDelete)
	r.Get("/api/stats", h.HandleStats)
}

// HandleDevices returns every device record in the registry.
//
// URL format: GET /api/devices
func (h *Handler) HandleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.registry.AllDevices(r.Context())
	if err != nil {
		h.log.Error("Failed to list devices", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to list devices")
		return
	}

	writeJSON(w, http.StatusOK, api.DevicesResponse{
		Success: true,
		Devices: devices,
		Count:   len(devices),
	})
}

// HandleStatus returns a single device's status field. An unknown device is
// reported as status null, not as an error, so dashboard polling loops do not
// trip over devices that have not checked in yet.
//
// URL format: GET /api/devices/{device_id}/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deviceID(w, r)
	if !ok {
		return
	}

	resp := api.DeviceStatusResponse{Success: true, DeviceID: id.String()}
	status, err := h.registry.DeviceStatus(r.Context(), id)
	switch {
	case err == nil:
		resp.Status = &status
	case errors.Is(err, interfaces.ErrDeviceNotFound):
		// Status stays null.
	default:
		h.log.Error("Failed to read device status", "err", err, "device", id)
		writeError(w, http.StatusInternalServerError, "Failed to read device status")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleCommand relays a command to one device.
//
// URL format: POST /api/devices/{device_id}/command
//
// Request body: JSON, see api.CommandRequest. Valid commands are "lock",
// "unlock" and "wallpaper:<url>".
func (h *Handler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deviceID(w, r)
	if !ok {
		return
	}

	var req api.CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	cmd, err := interfaces.NewCommand(req.Command)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.registry.SendCommand(r.Context(), id, cmd); err != nil {
		h.log.Error("Failed to relay command", "err", err, "device", id, "command", cmd.Type())
		writeError(w, http.StatusInternalServerError, "Failed to relay command")
		return
	}

	metrics.CommandsRelayed.WithLabelValues(cmd.Type()).Inc()
	h.log.Info("Relayed command", "device", id, "command", cmd.Type())

	writeJSON(w, http.StatusOK, api.CommandResponse{
		Success:   true,
		DeviceID:  id.String(),
		Command:   cmd.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleBulkCommand relays one command to a set of devices, reporting the
// outcome per device. A failure on one device does not stop the relay to the
// rest.
//
// URL format: POST /api/devices/bulk-command
//
// Request body: JSON, see api.BulkCommandRequest.
func (h *Handler) HandleBulkCommand(w http.ResponseWriter, r *http.Request) {
	var req api.BulkCommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	cmd, err := interfaces.NewCommand(req.Command)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.DeviceIDs) == 0 {
		writeError(w, http.StatusBadRequest, "No device ids supplied")
		return
	}

	opID := uuid.New().String()
	log := h.log.With("operation", opID, "command", cmd.Type())

	results := make([]api.BulkCommandResult, 0, len(req.DeviceIDs))
	for _, raw := range req.DeviceIDs {
		result := api.BulkCommandResult{DeviceID: raw}

		id, err := interfaces.NewDeviceID(raw)
		if err == nil {
			err = h.registry.SendCommand(r.Context(), id, cmd)
		}
		if err != nil {
			log.Error("Bulk relay failed for device", "err", err, "device", raw)
			result.Error = err.Error()
		} else {
			metrics.CommandsRelayed.WithLabelValues(cmd.Type()).Inc()
			result.Success = true
		}
		results = append(results, result)
	}

	log.Info("Bulk relay completed", "devices", len(req.DeviceIDs))

	writeJSON(w, http.StatusOK, api.BulkCommandResponse{
		Success:     true,
		OperationID: opID,
		Command:     cmd.String(),
		Results:     results,
	})
}

// HandleDelete removes a device's registry record.
//
// URL format: DELETE /api/devices/{device_id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deviceID(w, r)
	if !ok {
		return
	}

	if err := h.registry.DeleteDevice(r.Context(), id); err != nil {
		h.log.Error("Failed to delete device", "err", err, "device", id)
		writeError(w, http.StatusInternalServerError, "Failed to delete device")
		return
	}

	h.log.Info("Deleted device record", "device", id)
	writeJSON(w, http.StatusOK, api.DeleteDeviceResponse{Success: true, DeviceID: id.String()})
}

// HandleStats summarizes the registry by status field.
//
// URL format: GET /api/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	devices, err := h.registry.AllDevices(r.Context())
	if err != nil {
		h.log.Error("Failed to list devices", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to list devices")
		return
	}

	resp := api.StatsResponse{Success: true, TotalDevices: len(devices)}
	for _, record := range devices {
		if record.Status() == "online" {
			resp.OnlineDevices++
		} else {
			resp.OfflineDevices++
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deviceID(w http.ResponseWriter, r *http.Request) (interfaces.DeviceID, bool) {
	id, err := interfaces.NewDeviceID(r.PathValue("device_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Success: false, Error: msg})
}
