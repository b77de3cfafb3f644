package apkcert

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ruteri/android-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// selfSignedDER generates a throwaway certificate for parser tests.
func selfSignedDER(t *testing.T) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-signer"},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	require.NoError(t, err)
	return der
}

type fakeStrategy struct {
	name string
	der  []byte
	err  error
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Extract(ctx context.Context, apkPath string) ([]byte, error) {
	return s.der, s.err
}

func TestChainFirstStrategyWins(t *testing.T) {
	der := selfSignedDER(t)
	chain := NewChain(testLogger(),
		&fakeStrategy{name: "primary", der: der},
		&fakeStrategy{name: "fallback", err: errors.New("should not be reached")},
	)

	got, err := chain.ExtractCertificate(context.Background(), "pkg.apk")
	require.NoError(t, err)
	assert.Equal(t, der, got)
}

func TestChainFallsBack(t *testing.T) {
	der := selfSignedDER(t)
	chain := NewChain(testLogger(),
		&fakeStrategy{name: "primary", err: &interfaces.ExtractionError{Tool: "apksigner", Err: errors.New("not found")}},
		&fakeStrategy{name: "fallback", der: der},
	)

	got, err := chain.ExtractCertificate(context.Background(), "pkg.apk")
	require.NoError(t, err)
	assert.Equal(t, der, got)
}

func TestChainAggregatesAllFailures(t *testing.T) {
	chain := NewChain(testLogger(),
		&fakeStrategy{name: "primary", err: &interfaces.ExtractionError{Tool: "apksigner", Output: "sdk missing", Err: errors.New("not found")}},
		&fakeStrategy{name: "fallback", err: &interfaces.ExtractionError{Tool: "openssl", Output: "bad pkcs7", Err: errors.New("exit status 1")}},
	)

	_, err := chain.ExtractCertificate(context.Background(), "pkg.apk")
	require.Error(t, err)

	// Both diagnostics must survive aggregation so operators can diagnose
	// missing tooling.
	assert.Contains(t, err.Error(), "sdk missing")
	assert.Contains(t, err.Error(), "bad pkcs7")

	var extractionErr *interfaces.ExtractionError
	assert.ErrorAs(t, err, &extractionErr)
}

func TestFirstCertificateDER(t *testing.T) {
	der := selfSignedDER(t)
	pemBlock := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	// Tool output often carries leading text before the first block.
	output := append([]byte("Verifies\nVerified using v2 scheme: true\n"), pemBlock...)
	output = append(output, pemBlock...)

	got, err := firstCertificateDER(output)
	require.NoError(t, err)
	assert.Equal(t, der, got)
}

func TestFirstCertificateDERNoBlock(t *testing.T) {
	_, err := firstCertificateDER([]byte("no pem here"))
	assert.Error(t, err)

	// Non-certificate blocks are skipped, not accepted.
	key := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("not a cert")})
	_, err = firstCertificateDER(key)
	assert.Error(t, err)
}

func TestReadSignatureBlockMissing(t *testing.T) {
	_, err := readSignatureBlock("does-not-exist.apk")
	assert.Error(t, err)
}

func TestApksignerLocateMissesGracefully(t *testing.T) {
	s := NewApksignerStrategy([]string{"/nonexistent/dir/*/apksigner", "definitely-not-a-real-binary-name"}, DefaultToolTimeout, testLogger())

	_, err := s.locate()
	assert.Error(t, err)
}
