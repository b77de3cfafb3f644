// Package interfaces defines the core types and interfaces shared across the
// provisioning backend. It provides the contract between components without
// implementation details.
package interfaces

import (
	"errors"
	"strings"
	"time"
)

// DeviceID identifies an enrolled Android device in the realtime registry.
// The character restrictions mirror realtime-store path constraints and double
// as URL-path-injection guards.
type DeviceID string

// NewDeviceID validates and returns a device identifier.
func NewDeviceID(s string) (DeviceID, error) {
	if s == "" {
		return "", errors.New("device id must not be empty")
	}
	if strings.ContainsAny(s, ".$#[]/") {
		return "", errors.New("device id must not contain any of . $ # [ ] /")
	}
	return DeviceID(s), nil
}

// String returns the device identifier as a string.
func (id DeviceID) String() string {
	return string(id)
}

// Validate checks the identifier against registry path constraints.
func (id DeviceID) Validate() error {
	_, err := NewDeviceID(string(id))
	return err
}

// Command is a device command relayed through the registry: "lock", "unlock"
// (validated case-insensitively) or any string with a "wallpaper:" prefix.
type Command string

const (
	CommandLock   Command = "lock"
	CommandUnlock Command = "unlock"

	// WallpaperPrefix marks wallpaper commands; the remainder is the image URL.
	WallpaperPrefix = "wallpaper:"
)

// NewCommand validates the command format. The original string is preserved,
// only validation is case-insensitive.
func NewCommand(s string) (Command, error) {
	switch strings.ToLower(s) {
	case string(CommandLock), string(CommandUnlock):
		return Command(s), nil
	}
	if strings.HasPrefix(s, WallpaperPrefix) {
		return Command(s), nil
	}
	return "", errors.New("invalid command, valid commands: lock, unlock, wallpaper:url")
}

// String returns the command as relayed to the device.
func (c Command) String() string {
	return string(c)
}

// Type returns the command family, used as a metrics label.
func (c Command) Type() string {
	if strings.HasPrefix(string(c), WallpaperPrefix) {
		return "wallpaper"
	}
	return strings.ToLower(string(c))
}

// DeviceRecord is the free-form JSON object stored per device. The backend
// treats records as opaque maps plus the well-known "status" and "command"
// fields maintained by the device agent.
type DeviceRecord map[string]any

// Status returns the well-known status field, or "" when absent.
func (r DeviceRecord) Status() string {
	s, _ := r["status"].(string)
	return s
}

// PackageFilename is the name of an uploaded package, restricted to a bare
// basename with the package extension so it can be safely joined to storage
// paths and download URLs.
type PackageFilename string

// PackageExtension is the extension filter applied to storage listings.
const PackageExtension = ".apk"

// NewPackageFilename validates a package filename.
func NewPackageFilename(s string) (PackageFilename, error) {
	if s == "" {
		return "", errors.New("filename must not be empty")
	}
	if strings.ContainsAny(s, "/\\") || s == "." || s == ".." {
		return "", errors.New("filename must be a bare basename")
	}
	if !strings.HasSuffix(s, PackageExtension) {
		return "", errors.New("filename must end in " + PackageExtension)
	}
	return PackageFilename(s), nil
}

// String returns the filename as a string.
func (f PackageFilename) String() string {
	return string(f)
}

// PackageInfo describes one entry in package storage.
type PackageInfo struct {
	// Name is the entry's basename within the storage backend.
	Name string

	// Size is the entry's size in bytes.
	Size int64

	// ModTime is the entry's last modification time.
	ModTime time.Time
}
