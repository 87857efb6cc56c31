package brcode

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRImage renders the payload as a PNG of the given pixel size. Medium
// error correction matches what bank-issued codes use.
func QRImage(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("render qr image: %w", err)
	}
	return png, nil
}
