// Package provision builds Android Device Owner provisioning payloads: it
// locates the current package in storage, resolves its signature checksum
// (operator override or computed file hash), and renders the payload as
// compact JSON or a QR code for factory-reset enrollment.
package provision
