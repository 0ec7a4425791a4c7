package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t the way OKX expects in OK-ACCESS-TIMESTAMP.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Sign returns base64(HMAC-SHA256(secret, timestamp+METHOD+path+body)).
// timestamp must be the exact header value and body the exact bytes sent.
func Sign(secretKey, timestamp, method, path, body string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(timestamp + strings.ToUpper(method) + path + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
