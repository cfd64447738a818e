// Package display renders the scannable daily-token artifact shown on the
// kiosk screen.
package display

import (
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"

	"pointage/internal/presence"
)

// TokenURL builds the check-in URL encoded in the QR code:
// <baseURL>?token=<token>.
func TokenURL(baseURL string, token presence.DailyToken) string {
	sep := "?"
	if u, err := url.Parse(baseURL); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return baseURL + sep + "token=" + url.QueryEscape(token.Token)
}

// WriteQR renders the token URL as a PNG QR code at path.
func WriteQR(path, baseURL string, token presence.DailyToken, size int) error {
	if size <= 0 {
		size = 512
	}
	if err := qrcode.WriteFile(TokenURL(baseURL, token), qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("display: write qr: %w", err)
	}
	return nil
}
