package checksum

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Digest is a SHA-256 digest of a package file or its signing certificate.
// It is the single conceptual value behind the three surface encodings
// operators encounter: 64-char hex, 44-char padded base64 and 43-char
// unpadded base64url.
type Digest [sha256.Size]byte

// Sum computes the digest of data.
func Sum(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// FileSum computes the digest of a package by streaming r, returning the
// digest and the number of bytes hashed.
func FileSum(r io.Reader) (Digest, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return Digest{}, n, fmt.Errorf("hashing package content: %w", err)
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d, n, nil
}

// FromBytes creates a digest from raw digest bytes.
func FromBytes(b []byte) (Digest, error) {
	if len(b) != sha256.Size {
		return Digest{}, fmt.Errorf("invalid digest length %d, must be %d bytes", len(b), sha256.Size)
	}

	var d Digest
	copy(d[:], b)
	return d, nil
}

// FromHex creates a digest from a 64-character hex string.
func FromHex(s string) (Digest, error) {
	if len(s) != hex.EncodedLen(sha256.Size) {
		return Digest{}, errors.New("invalid digest length: hex string must be 64 characters")
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid hex format: %w", err)
	}
	return FromBytes(b)
}

// Hex returns the 64-character lowercase hex encoding.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// Base64 returns the 44-character standard base64 encoding with padding.
func (d Digest) Base64() string {
	return base64.StdEncoding.EncodeToString(d[:])
}

// Base64URL returns the 43-character unpadded base64url encoding, the
// canonical form required by Android's provisioning protocol.
func (d Digest) Base64URL() string {
	return base64.RawURLEncoding.EncodeToString(d[:])
}

// Bytes returns the raw 32-byte digest.
func (d Digest) Bytes() []byte {
	return d[:]
}

// Equal compares two digests.
func (d Digest) Equal(other Digest) bool {
	return d == other
}
