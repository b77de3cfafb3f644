// Package checksum implements the digest pipeline behind Device Owner
// provisioning payloads.
//
// A provisioning checksum is conceptually a single 32-byte SHA-256 digest,
// but operators encounter it in three surface encodings depending on which
// tool produced it:
//
//   - 64-character hex (sha256sum output)
//   - 44-character standard base64 with padding (openssl, keytool)
//   - 43-character unpadded base64url (the form Android requires)
//
// Normalize accepts any of the three without operator guesswork and converts
// to the canonical base64url form, while rejecting garbage. The layered
// fallback order is deliberate: hex is unambiguous by length and alphabet,
// the '+', '/' and '=' characters positively identify standard base64, and
// anything left over is accepted only if it already satisfies the canonical
// invariant.
//
// Violating the 43-character/base64url invariant causes silent on-device
// enrollment failure, so Validate is exposed separately for use as a final
// guard before a payload is emitted.
//
// Digest computation covers both hashing strategies the provisioning flow may
// need: Sum and FileSum hash package content directly, and CertificateSum
// hashes the package's signing certificate obtained through an extractor.
package checksum
