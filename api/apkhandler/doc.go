// Package apkhandler serves the package distribution API: uploads, raw
// downloads for the on-device setup wizard, Device Owner provisioning
// payloads and QR codes, and the checksum override endpoints.
package apkhandler
