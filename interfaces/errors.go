package interfaces

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPackage is returned when no package has been uploaded yet.
	// Callers surface it as a 404-equivalent condition, not a server fault.
	ErrNoPackage = errors.New("no package uploaded")

	// ErrFileNotFound is returned when a named entry does not exist in
	// package storage.
	ErrFileNotFound = errors.New("file not found in storage")

	// ErrDeviceNotFound is returned when a device has no record in the registry.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrOverrideNotFound is returned when no checksum override is stored
	// for a filename.
	ErrOverrideNotFound = errors.New("no checksum override stored")

	// ErrEmptyChecksum is returned when a checksum input is empty after
	// trimming and artifact cleanup.
	ErrEmptyChecksum = errors.New("checksum input is empty")

	// ErrInvalidLocationURI is returned when a backend location URI is
	// malformed or uses an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid backend location URI")
)

// FormatError reports a checksum input that matches none of the accepted
// encodings: 64-char hex, standard base64 of a 32-byte digest, or 43-char
// base64url.
type FormatError struct {
	// Input is the offending string after trimming.
	Input string

	// Reason names the check that failed.
	Reason string
}

// Error includes the offending value, its length and the accepted formats so
// an operator can see what their tooling produced.
func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid checksum %q (length %d): %s; expected 64-char hex, standard base64 of a 32-byte digest, or 43-char base64url",
		e.Input, len(e.Input), e.Reason)
}

// ExtractionError reports a failed certificate-extraction strategy, carrying
// the external tool's diagnostic output.
type ExtractionError struct {
	// Tool is the strategy or binary that failed.
	Tool string

	// Output is the tool's diagnostic output, if any.
	Output string

	// Err is the underlying failure.
	Err error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// InvariantError reports a final checksum that violates the canonical-form
// invariant (exactly 43 base64url characters). It is fatal: emitting a bad
// checksum silently breaks every device scanning the resulting QR code.
type InvariantError struct {
	// Checksum is the value that failed the final guard.
	Checksum string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("checksum %q (length %d) violates the 43-char base64url invariant", e.Checksum, len(e.Checksum))
}
