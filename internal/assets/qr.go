package assets

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the side in pixels of encoded QR images.
const DefaultQRSize = 256

// EncodeQR renders content as a PNG QR code with a transparent background.
func EncodeQR(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encoding qr: %w", err)
	}
	q.BackgroundColor = color.Transparent
	q.ForegroundColor = color.Black
	png, err := q.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("encoding qr: %w", err)
	}
	return png, nil
}

// AudioURL is the public link to an audio asset.
func AudioURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/audios/" + id
}
