package provision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

// DownloadPathPrefix is the route packages are served under; the locator
// appends the filename to it when deriving download URLs.
const DownloadPathPrefix = "/api/apk/download/"

// Locator identifies "the current package": the most recently modified entry
// in storage matching the package extension. There is no version table; the
// storage listing is re-derived on every call.
type Locator struct {
	storage interfaces.PackageStorage
	baseURL string
	log     *slog.Logger
}

// NewLocator creates a locator deriving download URLs from baseURL. When
// production is set, an http:// base is upgraded to https:// at construction
// time: the on-device provisioning flow refuses insecure download URLs.
func NewLocator(storage interfaces.PackageStorage, baseURL string, production bool, log *slog.Logger) *Locator {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if production && strings.HasPrefix(baseURL, "http://") {
		upgraded := "https://" + strings.TrimPrefix(baseURL, "http://")
		log.Warn("Upgraded base URL to HTTPS for production",
			slog.String("base_url", upgraded))
		baseURL = upgraded
	}

	return &Locator{storage: storage, baseURL: baseURL, log: log}
}

// Latest returns the current package and its download URL. Returns
// ErrNoPackage when storage holds no package; callers treat that as a
// 404-equivalent condition.
//
// Entries with equal modification times resolve to the lexically greatest
// filename. Generated filenames embed a UTC timestamp, so lexical order
// matches chronological order for same-second uploads.
func (l *Locator) Latest(ctx context.Context) (interfaces.PackageInfo, string, error) {
	entries, err := l.storage.List(ctx)
	if err != nil {
		return interfaces.PackageInfo{}, "", fmt.Errorf("listing package storage: %w", err)
	}

	var latest interfaces.PackageInfo
	found := false
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name, interfaces.PackageExtension) {
			continue
		}
		if !found ||
			entry.ModTime.After(latest.ModTime) ||
			(entry.ModTime.Equal(latest.ModTime) && entry.Name > latest.Name) {
			latest = entry
			found = true
		}
	}

	if !found {
		return interfaces.PackageInfo{}, "", interfaces.ErrNoPackage
	}

	return latest, l.DownloadURL(latest.Name), nil
}

// DownloadURL derives the public download URL for a package filename.
func (l *Locator) DownloadURL(filename string) string {
	return l.baseURL + DownloadPathPrefix + filename
}
