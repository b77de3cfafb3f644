package provision

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderQRProducesPNG(t *testing.T) {
	content, err := validPayload().CompactJSON()
	require.NoError(t, err)

	data, err := RenderQR(string(content), DefaultQRConfig())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 512, img.Bounds().Dx())
}

func TestQRDataURI(t *testing.T) {
	uri, err := QRDataURI("hello", DefaultQRConfig())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
}
