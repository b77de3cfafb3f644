// Package storage provides directory-like backends for uploaded packages and
// the colocated checksum override table.
//
// Unlike a content-addressed store, package storage is name-addressed and
// mutable: uploads land under generated timestamped filenames, the override
// table is rewritten in place, and "the current package" is derived from
// modification times at read time. Two backends implement
// interfaces.PackageStorage:
//
//   - File system storage for local deployments; writes are atomic
//     (temp file + rename).
//   - S3-compatible object storage for cloud deployments, using object
//     LastModified as the modification time.
//
// # Storage URI Format
//
// Backends are selected by URI through StorageBackendFactory:
//
//   - file:///var/lib/provisioning/apk/
//   - s3://bucket-name/prefix/?region=us-west-2
//
// S3 write credentials may be embedded as s3://KEY:SECRET@bucket/prefix/.
package storage
