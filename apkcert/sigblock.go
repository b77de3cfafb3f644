package apkcert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

// SignatureBlockStrategy extracts the signing certificate by pulling the
// PKCS#7 signature block out of the package's META-INF directory and
// converting it to a certificate with openssl. Fallback for hosts without the
// Android SDK.
type SignatureBlockStrategy struct {
	opensslPath string
	timeout     time.Duration
	log         *slog.Logger
}

// NewSignatureBlockStrategy creates the strategy. An empty opensslPath
// resolves "openssl" via PATH.
func NewSignatureBlockStrategy(opensslPath string, timeout time.Duration, log *slog.Logger) *SignatureBlockStrategy {
	if opensslPath == "" {
		opensslPath = "openssl"
	}
	return &SignatureBlockStrategy{opensslPath: opensslPath, timeout: timeout, log: log}
}

// Name identifies the strategy.
func (s *SignatureBlockStrategy) Name() string {
	return "signature-block"
}

// Extract opens the package as a zip archive, locates the first
// META-INF/*.RSA or *.DSA entry in archive order, writes the embedded PKCS#7
// structure to a temporary file, and runs `openssl pkcs7 -print_certs` over
// it. The temporary file is removed on every exit path.
func (s *SignatureBlockStrategy) Extract(ctx context.Context, apkPath string) ([]byte, error) {
	sigBlock, err := readSignatureBlock(apkPath)
	if err != nil {
		return nil, &interfaces.ExtractionError{Tool: "signature-block", Err: err}
	}

	tmp, err := os.CreateTemp("", "apk-sigblock-*.p7")
	if err != nil {
		return nil, &interfaces.ExtractionError{Tool: "signature-block", Err: fmt.Errorf("creating temp file: %w", err)}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(sigBlock); err != nil {
		tmp.Close()
		return nil, &interfaces.ExtractionError{Tool: "signature-block", Err: fmt.Errorf("writing temp file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return nil, &interfaces.ExtractionError{Tool: "signature-block", Err: fmt.Errorf("closing temp file: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.opensslPath,
		"pkcs7", "-inform", "DER", "-in", tmp.Name(), "-print_certs", "-outform", "PEM")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &interfaces.ExtractionError{Tool: s.opensslPath, Output: stderr.String(), Err: err}
	}

	der, err := firstCertificateDER(stdout.Bytes())
	if err != nil {
		return nil, &interfaces.ExtractionError{Tool: s.opensslPath, Output: stdout.String(), Err: err}
	}
	return der, nil
}

// readSignatureBlock returns the raw bytes of the first signature-block entry
// under the package's metadata directory.
func readSignatureBlock(apkPath string) ([]byte, error) {
	archive, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil, fmt.Errorf("opening package as zip: %w", err)
	}
	defer archive.Close()

	for _, entry := range archive.File {
		if !strings.HasPrefix(entry.Name, "META-INF/") {
			continue
		}
		if !strings.HasSuffix(entry.Name, ".RSA") && !strings.HasSuffix(entry.Name, ".DSA") {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name, err)
		}
		return data, nil
	}

	return nil, errors.New("no signature block (META-INF/*.RSA or *.DSA) in package")
}
