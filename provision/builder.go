package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ruteri/android-provisioning-backend/checksum"
	"github.com/ruteri/android-provisioning-backend/interfaces"
	"github.com/ruteri/android-provisioning-backend/metrics"
)

// Builder assembles Device Owner provisioning payloads from current storage
// state. Every call re-derives the package and checksum from durable state;
// nothing is cached across requests.
type Builder struct {
	storage   interfaces.PackageStorage
	locator   *Locator
	overrides *OverrideStore
	component string
	log       *slog.Logger
}

// NewBuilder creates a payload builder. The component is the fixed device
// admin component identifier embedded in every payload, injected from
// configuration.
func NewBuilder(storage interfaces.PackageStorage, locator *Locator, overrides *OverrideStore, component string, log *slog.Logger) *Builder {
	return &Builder{
		storage:   storage,
		locator:   locator,
		overrides: overrides,
		component: component,
		log:       log,
	}
}

// Build produces the provisioning payload for the current package, returning
// the payload together with the package info and download URL it references.
//
// The checksum is resolved in two stages. A stored override, if present and
// normalizable, wins; a malformed override is logged and discarded, never
// surfaced to the caller, since the operator's next upload should not be
// blocked by a stale table entry. Otherwise the package file's SHA-256 is
// used. Either way the result passes a final canonical-form guard: emitting
// an invalid checksum would silently break every device scanning the QR code,
// so a guard violation is a fatal InvariantError rather than a fallback.
func (b *Builder) Build(ctx context.Context) (DeviceOwnerPayload, interfaces.PackageInfo, string, error) {
	pkg, downloadURL, err := b.locator.Latest(ctx)
	if err != nil {
		return DeviceOwnerPayload{}, interfaces.PackageInfo{}, "", err
	}

	sum, ok := b.overrideChecksum(ctx, pkg.Name)
	if !ok {
		sum, err = b.computeChecksum(ctx, pkg.Name)
		if err != nil {
			return DeviceOwnerPayload{}, interfaces.PackageInfo{}, "", err
		}
	}

	if err := checksum.Validate(sum); err != nil {
		return DeviceOwnerPayload{}, interfaces.PackageInfo{}, "", &interfaces.InvariantError{Checksum: sum}
	}

	payload := DeviceOwnerPayload{
		ComponentName:          b.component,
		DownloadLocation:       downloadURL,
		SignatureChecksum:      sum,
		LeaveSystemAppsEnabled: true,
		SkipEncryption:         false,
	}

	metrics.PayloadsBuilt.Inc()
	b.log.Info("Built provisioning payload",
		slog.String("filename", pkg.Name),
		slog.String("checksum", sum))

	return payload, pkg, downloadURL, nil
}

// overrideChecksum resolves a stored override to canonical form. Returns
// ok=false when no override exists or the stored value fails normalization.
func (b *Builder) overrideChecksum(ctx context.Context, filename string) (string, bool) {
	stored, err := b.overrides.Get(ctx, filename)
	if errors.Is(err, interfaces.ErrOverrideNotFound) {
		return "", false
	}
	if err != nil {
		// Table unreadable: fall back to computation rather than failing the
		// request over an auxiliary file.
		b.log.Warn("Could not read checksum override table", "err", err)
		return "", false
	}

	normalized, err := checksum.Normalize(stored)
	if err == nil {
		err = checksum.Validate(normalized)
	}
	if err != nil {
		metrics.OverrideFallbacks.Inc()
		b.log.Warn("Discarding malformed checksum override",
			slog.String("filename", filename),
			slog.String("stored", stored),
			"err", err)
		return "", false
	}

	return normalized, true
}

// computeChecksum hashes the package file and returns the canonical base64url
// form.
func (b *Builder) computeChecksum(ctx context.Context, filename string) (string, error) {
	rc, _, err := b.storage.Open(ctx, filename)
	if err != nil {
		return "", fmt.Errorf("opening package %s: %w", filename, err)
	}
	defer rc.Close()

	digest, size, err := checksum.FileSum(rc)
	if err != nil {
		return "", fmt.Errorf("hashing package %s: %w", filename, err)
	}

	b.log.Debug("Computed package checksum",
		slog.String("filename", filename),
		slog.Int64("size", size),
		slog.String("checksum", digest.Base64URL()))

	return digest.Base64URL(), nil
}
