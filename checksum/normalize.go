package checksum

import (
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

// CanonicalLength is the length of the canonical checksum form: an unpadded
// base64url encoding of a 32-byte digest.
const CanonicalLength = 43

// Kind classifies a checksum input by its apparent encoding. The classifier
// keeps the format-sniffing heuristic explicit and testable branch by branch;
// precedence is Hex, then Base64, then Base64URL.
type Kind int

const (
	// KindUnrecognized matches none of the known encodings.
	KindUnrecognized Kind = iota

	// KindHex is exactly 64 hex characters (case-insensitive).
	KindHex

	// KindBase64 contains at least one of '+', '/' or '=', marking it as
	// standard base64.
	KindBase64

	// KindBase64URL is 40 to 44 characters drawn only from the base64url
	// alphabet.
	KindBase64URL
)

// String returns the classification name.
func (k Kind) String() string {
	switch k {
	case KindHex:
		return "hex"
	case KindBase64:
		return "base64"
	case KindBase64URL:
		return "base64url"
	default:
		return "unrecognized"
	}
}

// Classify determines the apparent encoding of a cleaned checksum string.
func Classify(s string) Kind {
	if len(s) == 64 && isHex(s) {
		return KindHex
	}
	if strings.ContainsAny(s, "+/=") {
		return KindBase64
	}
	if len(s) >= 40 && len(s) <= 44 && isBase64URL(s) {
		return KindBase64URL
	}
	return KindUnrecognized
}

// HexToBase64URL converts a 64-character hex digest into the canonical
// base64url form. Returns a FormatError unless the input is exactly 64 hex
// characters.
func HexToBase64URL(s string) (string, error) {
	if len(s) != 64 || !isHex(s) {
		return "", &interfaces.FormatError{Input: s, Reason: "not a 64-character hex digest"}
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", &interfaces.FormatError{Input: s, Reason: "hex decoding failed"}
	}
	return Base64ToBase64URL(base64.StdEncoding.EncodeToString(raw)), nil
}

// Base64ToBase64URL converts standard base64 to unpadded base64url by pure
// character substitution. It assumes valid base64 input and never fails.
func Base64ToBase64URL(s string) string {
	s = strings.ReplaceAll(s, "+", "-")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.TrimRight(s, "=")
}

// Normalize converts a checksum pasted from varied tool output (hex digest,
// padded base64, or already-correct base64url) into the canonical 43-character
// base64url form, rejecting anything else.
//
// The input is trimmed, percent-decoded once (best-effort) and stripped of
// trailing '=' and '%' artifacts before classification. Every accepted
// outcome passes the canonical-form gate, which makes Normalize idempotent.
func Normalize(input string) (string, error) {
	s := strings.TrimSpace(input)
	if strings.Contains(s, "%") {
		// URL-copied values arrive percent-encoded. Decode failure keeps the
		// original string; PathUnescape must be used here since QueryUnescape
		// would turn base64's '+' into a space.
		if decoded, err := url.PathUnescape(s); err == nil {
			s = decoded
		}
	}
	s = strings.TrimRight(s, "=%")
	if s == "" {
		return "", interfaces.ErrEmptyChecksum
	}

	var out string
	switch Classify(s) {
	case KindHex:
		converted, err := HexToBase64URL(s)
		if err != nil {
			return "", err
		}
		out = converted

	case KindBase64:
		// Restore the padding stripped above before validating the decode.
		padded := s
		if n := len(padded) % 4; n != 0 {
			padded += strings.Repeat("=", 4-n)
		}
		if _, err := base64.StdEncoding.DecodeString(padded); err != nil {
			return "", &interfaces.FormatError{Input: s, Reason: "standard base64 decoding failed"}
		}
		out = Base64ToBase64URL(s)

	case KindBase64URL:
		out = strings.TrimRight(s, "=")

	default:
		out = strings.TrimRight(s, "=%")
	}

	if err := Validate(out); err != nil {
		return "", err
	}
	return out, nil
}

// Validate is the canonical-form gate: exactly 43 characters drawn only from
// the base64url alphabet. The payload builder applies it as a final guard
// before emitting a provisioning payload.
func Validate(s string) error {
	if len(s) != CanonicalLength {
		return &interfaces.FormatError{Input: s, Reason: "not 43 characters"}
	}
	if !isBase64URL(s) {
		return &interfaces.FormatError{Input: s, Reason: "contains characters outside the base64url alphabet"}
	}
	return nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func isBase64URL(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
