package checksum

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumKnownVector(t *testing.T) {
	d := Sum([]byte("test"))

	assert.Equal(t, testHexDigest, d.Hex())
	assert.Equal(t, "n4bQgYhMfWWaL+qgxVrQFaO/TxsrC4Is0V1sFbDwCgg=", d.Base64())
	assert.Equal(t, "n4bQgYhMfWWaL-qgxVrQFaO_TxsrC4Is0V1sFbDwCgg", d.Base64URL())
	assert.Len(t, d.Base64URL(), CanonicalLength)
}

func TestFileSum(t *testing.T) {
	content := bytes.Repeat([]byte("apk content "), 4096)

	d, n, err := FileSum(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)
	assert.True(t, d.Equal(Sum(content)))
}

func TestFromHexRoundTrip(t *testing.T) {
	d, err := FromHex(testHexDigest)
	require.NoError(t, err)
	assert.Equal(t, testHexDigest, d.Hex())

	_, err = FromHex(testHexDigest[:63])
	assert.Error(t, err)

	_, err = FromHex(strings.Repeat("z", 64))
	assert.Error(t, err)
}

func TestFromBytes(t *testing.T) {
	d := Sum([]byte("test"))

	got, err := FromBytes(d.Bytes())
	require.NoError(t, err)
	assert.True(t, got.Equal(d))

	_, err = FromBytes([]byte("short"))
	assert.Error(t, err)
}

type staticExtractor struct {
	der []byte
	err error
}

func (e *staticExtractor) ExtractCertificate(ctx context.Context, apkPath string) ([]byte, error) {
	return e.der, e.err
}

func TestCertificateSum(t *testing.T) {
	der := []byte("der certificate bytes")

	d, err := CertificateSum(context.Background(), &staticExtractor{der: der}, "pkg.apk")
	require.NoError(t, err)
	assert.True(t, d.Equal(Sum(der)))

	wantErr := errors.New("both strategies failed")
	_, err = CertificateSum(context.Background(), &staticExtractor{err: wantErr}, "pkg.apk")
	assert.ErrorIs(t, err, wantErr)
}
