// Package png renders a TLV QR payload as a PNG image ready for printing
// on the invoice.
package png

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 300

// Qr encodes content as a medium-error-correction QR code, 300px square.
func Qr(content string) ([]byte, error) {
	return QrSized(content, defaultSize)
}

// QrSized encodes content at the given pixel size.
func QrSized(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("png: empty QR content")
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
