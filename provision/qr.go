package provision

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRConfig controls QR rendering. Provisioning payloads are short, so low
// error correction keeps the module grid coarse and easy to scan from a
// monitor.
type QRConfig struct {
	Size  int
	Level qrcode.RecoveryLevel
}

// DefaultQRConfig returns the rendering defaults: 512x512 pixels at low
// recovery level.
func DefaultQRConfig() QRConfig {
	return QRConfig{Size: 512, Level: qrcode.Low}
}

// RenderQR encodes content into a PNG QR code.
func RenderQR(content string, cfg QRConfig) ([]byte, error) {
	png, err := qrcode.Encode(content, cfg.Level, cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("encoding QR code: %w", err)
	}
	return png, nil
}

// QRDataURI encodes content into a QR code wrapped in a data URI, ready to
// embed as an <img> source.
func QRDataURI(content string, cfg QRConfig) (string, error) {
	png, err := RenderQR(content, cfg)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
