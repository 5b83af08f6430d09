package utils

import qrcode "github.com/skip2/go-qrcode"

// QRCodePNG renders content as a PNG QR code of size×size pixels.  It is
// used to embed the booking code in confirmation e-mails so staff can scan
// it at the venue.
func QRCodePNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
