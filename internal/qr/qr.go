// Package qr derives the animated QR payload BankID expects from the
// qrStartToken/qrStartSecret pair and renders it as an image.
package qr

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/TemirB/bankid-sign/internal/domain"
)

const DefaultSize = 256

// Token returns "bankid.<qrStartToken>.<seconds>.<qrAuthCode>" where
// qrAuthCode is the hex HMAC-SHA256 of the decimal seconds keyed by the secret.
func Token(secret, startToken string, seconds int) string {
	t := strconv.Itoa(seconds)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(t))
	return "bankid." + startToken + "." + t + "." + hex.EncodeToString(mac.Sum(nil))
}

func ForOrder(o *domain.Order, now time.Time) string {
	return Token(o.QRStartSecret, o.QRStartToken, o.Elapsed(now))
}

func PNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(payload, qrcode.Low, size)
}

func DataURL(payload string, size int) (string, error) {
	png, err := PNG(payload, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
