package apkhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ruteri/android-provisioning-backend/api"
	"github.com/ruteri/android-provisioning-backend/checksum"
	"github.com/ruteri/android-provisioning-backend/interfaces"
	"github.com/ruteri/android-provisioning-backend/metrics"
	"github.com/ruteri/android-provisioning-backend/provision"
)

const (
	// maxUploadSize is the package upload cap (50MB).
	maxUploadSize = 50 * 1024 * 1024

	// apkContentType is the MIME type Android expects for package downloads.
	apkContentType = "application/vnd.android.package-archive"
)

// Handler serves the package endpoints: upload, download, QR codes, the
// Device Owner provisioning payload and the checksum override API.
type Handler struct {
	storage   interfaces.PackageStorage
	locator   *provision.Locator
	overrides *provision.OverrideStore
	builder   *provision.Builder
	qr        provision.QRConfig
	prefix    string
	log       *slog.Logger
}

// NewHandler creates a package handler. The prefix names generated upload
// filenames, e.g. "agent" yields agent_20260301_120000.apk.
func NewHandler(storage interfaces.PackageStorage, locator *provision.Locator, overrides *provision.OverrideStore, builder *provision.Builder, qr provision.QRConfig, prefix string, log *slog.Logger) *Handler {
	return &Handler{
		storage:   storage,
		locator:   locator,
		overrides: overrides,
		builder:   builder,
		qr:        qr,
		prefix:    prefix,
		log:       log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/apk/upload", h.HandleUpload)
	r.Get("/api/apk/download/{filename}", h.HandleDownload)
	r.Get("/api/apk/qrcode", h.HandleQRCode)
	r.Get("/api/apk/device-owner-provision", h.HandleProvision)
	r.Get("/api/apk/device-owner-qr", h.HandleProvisionQR)
	r.Post("/api/apk/checksum", h.HandleSetChecksum)
	r.Get("/api/apk/checksum/{filename}", h.HandleGetChecksum)
	r.Get("/api/apk/verify-checksum", h.HandleVerifyChecksum)
}

// HandleUpload stores an uploaded package under a generated timestamped
// filename, making it the current package. An optional checksum form field is
// validated and stored as the package's override.
//
// URL format: POST /api/apk/upload
//
// Request body: multipart form with file field "apk" and optional text field
// "checksum".
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("apk")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field 'apk'")
		return
	}
	defer file.Close()

	if header.Filename != "" && !strings.HasSuffix(strings.ToLower(header.Filename), interfaces.PackageExtension) {
		writeError(w, http.StatusBadRequest, "Uploaded file must be an "+interfaces.PackageExtension+" package")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error("Failed to read uploaded package", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	// The override is validated before the package is written so a bad
	// checksum rejects the whole upload instead of leaving a package the
	// builder would silently fall back on.
	override := strings.TrimSpace(r.FormValue("checksum"))
	if override != "" {
		if _, err := checksum.Normalize(override); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	uploadID := uuid.New().String()
	filename := fmt.Sprintf("%s_%s%s", h.prefix, time.Now().UTC().Format("20060102_150405"), interfaces.PackageExtension)
	log := h.log.With("upload", uploadID, "filename", filename)

	if err := h.storage.Write(r.Context(), filename, data); err != nil {
		log.Error("Failed to store uploaded package", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to store uploaded file")
		return
	}

	if override != "" {
		if err := h.overrides.Set(r.Context(), filename, override); err != nil {
			log.Error("Failed to store checksum override", "err", err)
			writeError(w, http.StatusInternalServerError, "Stored package but failed to store checksum override")
			return
		}
	}

	metrics.PackageUploads.Inc()
	log.Info("Stored uploaded package", "size", len(data))

	writeJSON(w, http.StatusOK, api.UploadResponse{
		Success:     true,
		UploadID:    uploadID,
		Filename:    filename,
		Size:        int64(len(data)),
		DownloadURL: h.locator.DownloadURL(filename),
	})
}

// HandleDownload streams a stored package. This is the URL embedded in
// provisioning payloads, fetched by the on-device setup wizard, so the
// response is raw bytes with download headers and errors are plain text,
// never a JSON envelope.
//
// URL format: GET /api/apk/download/{filename}
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	filename, err := interfaces.NewPackageFilename(r.PathValue("filename"))
	if err != nil {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	rc, size, err := h.storage.Open(r.Context(), filename.String())
	if errors.Is(err, interfaces.ErrFileNotFound) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to open package for download", "err", err, "filename", filename)
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", apkContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename.String()))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}

	if _, err := io.Copy(w, rc); err != nil {
		// Headers are gone; just log the broken transfer.
		h.log.Error("Package download interrupted", "err", err, "filename", filename)
		return
	}

	metrics.PackageDownloads.Inc()
}

// HandleQRCode returns a QR code of the current package's bare download URL,
// for handing the package to a browser rather than a provisioning flow.
//
// URL format: GET /api/apk/qrcode
func (h *Handler) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	pkg, downloadURL, err := h.locator.Latest(r.Context())
	if err != nil {
		h.writePackageError(w, err)
		return
	}

	dataURI, err := provision.QRDataURI(downloadURL, h.qr)
	if err != nil {
		h.log.Error("Failed to render QR code", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	writeJSON(w, http.StatusOK, api.QRCodeResponse{
		Success:     true,
		QRCode:      dataURI,
		Filename:    pkg.Name,
		DownloadURL: downloadURL,
	})
}

// HandleProvision returns the Device Owner provisioning payload for the
// current package.
//
// URL format: GET /api/apk/device-owner-provision
func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	payload, pkg, downloadURL, err := h.builder.Build(r.Context())
	if err != nil {
		h.writePackageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.ProvisionResponse{
		Success:     true,
		Payload:     payload,
		Filename:    pkg.Name,
		DownloadURL: downloadURL,
	})
}

// HandleProvisionQR returns the provisioning payload QR-encoded for the
// factory-reset enrollment flow, plus the payload itself for display.
//
// URL format: GET /api/apk/device-owner-qr
func (h *Handler) HandleProvisionQR(w http.ResponseWriter, r *http.Request) {
	payload, _, _, err := h.builder.Build(r.Context())
	if err != nil {
		h.writePackageError(w, err)
		return
	}

	content, err := payload.CompactJSON()
	if err != nil {
		h.log.Error("Failed to encode provisioning payload", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to encode provisioning payload")
		return
	}

	dataURI, err := provision.QRDataURI(string(content), h.qr)
	if err != nil {
		h.log.Error("Failed to render provisioning QR code", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	writeJSON(w, http.StatusOK, api.ProvisionQRResponse{
		Success: true,
		QRCode:  dataURI,
		Payload: payload,
	})
}

// HandleSetChecksum stores a checksum override for a package filename. The
// value must normalize to canonical form; the operator's original (trimmed)
// value is what gets stored, and it is re-normalized at payload build time.
//
// URL format: POST /api/apk/checksum
//
// Request body: JSON, see api.ChecksumRequest.
func (h *Handler) HandleSetChecksum(w http.ResponseWriter, r *http.Request) {
	var req api.ChecksumRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024*1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	filename, err := interfaces.NewPackageFilename(req.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trimmed := strings.TrimSpace(req.Checksum)
	normalized, err := checksum.Normalize(trimmed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.overrides.Set(r.Context(), filename.String(), trimmed); err != nil {
		h.log.Error("Failed to store checksum override", "err", err, "filename", filename)
		writeError(w, http.StatusInternalServerError, "Failed to store checksum override")
		return
	}

	writeJSON(w, http.StatusOK, api.ChecksumResponse{
		Success:  true,
		Filename: filename.String(),
		Checksum: normalized,
	})
}

// HandleGetChecksum returns the stored override for a filename.
//
// URL format: GET /api/apk/checksum/{filename}
func (h *Handler) HandleGetChecksum(w http.ResponseWriter, r *http.Request) {
	filename, err := interfaces.NewPackageFilename(r.PathValue("filename"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := h.overrides.Get(r.Context(), filename.String())
	if errors.Is(err, interfaces.ErrOverrideNotFound) {
		writeError(w, http.StatusNotFound, "No checksum override stored for "+filename.String())
		return
	}
	if err != nil {
		h.log.Error("Failed to read checksum override", "err", err, "filename", filename)
		writeError(w, http.StatusInternalServerError, "Failed to read checksum override")
		return
	}

	writeJSON(w, http.StatusOK, api.ChecksumResponse{
		Success:  true,
		Filename: filename.String(),
		Checksum: stored,
	})
}

// HandleVerifyChecksum is the operator diagnostic: it hashes the current
// package and reports the digest in every accepted encoding alongside any
// stored override, so a mismatch with an external tool's output is visible
// at a glance.
//
// URL format: GET /api/apk/verify-checksum
func (h *Handler) HandleVerifyChecksum(w http.ResponseWriter, r *http.Request) {
	pkg, _, err := h.locator.Latest(r.Context())
	if err != nil {
		h.writePackageError(w, err)
		return
	}

	rc, _, err := h.storage.Open(r.Context(), pkg.Name)
	if err != nil {
		h.log.Error("Failed to open package", "err", err, "filename", pkg.Name)
		writeError(w, http.StatusInternalServerError, "Failed to read package")
		return
	}
	defer rc.Close()

	digest, size, err := checksum.FileSum(rc)
	if err != nil {
		h.log.Error("Failed to hash package", "err", err, "filename", pkg.Name)
		writeError(w, http.StatusInternalServerError, "Failed to hash package")
		return
	}

	resp := api.VerifyChecksumResponse{
		Success:   true,
		Filename:  pkg.Name,
		Size:      size,
		Hex:       digest.Hex(),
		Base64:    digest.Base64(),
		Base64URL: digest.Base64URL(),
	}
	if stored, err := h.overrides.Get(r.Context(), pkg.Name); err == nil {
		resp.Override = stored
	}

	writeJSON(w, http.StatusOK, resp)
}

// writePackageError maps package resolution failures to envelope responses.
func (h *Handler) writePackageError(w http.ResponseWriter, err error) {
	var invariantErr *interfaces.InvariantError
	switch {
	case errors.Is(err, interfaces.ErrNoPackage):
		writeError(w, http.StatusNotFound, "No package uploaded")
	case errors.As(err, &invariantErr):
		h.log.Error("Checksum invariant violated", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		h.log.Error("Failed to resolve current package", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to resolve current package")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Success: false, Error: msg})
}
