package checksum

import (
	"context"
	"fmt"
)

// CertificateExtractor obtains the DER bytes of a package's signing
// certificate. The apkcert package provides the implementation.
type CertificateExtractor interface {
	ExtractCertificate(ctx context.Context, apkPath string) ([]byte, error)
}

// CertificateSum computes the digest of a package's signing certificate.
//
// Android's provisioning check may validate against either the package's own
// hash or its signing-certificate hash depending on deployment; the payload
// builder uses whole-file hashing while this path backs the standalone
// certsum diagnostic.
func CertificateSum(ctx context.Context, extractor CertificateExtractor, apkPath string) (Digest, error) {
	der, err := extractor.ExtractCertificate(ctx, apkPath)
	if err != nil {
		return Digest{}, fmt.Errorf("extracting signing certificate: %w", err)
	}
	return Sum(der), nil
}
