package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	HEADER_SHA256 = "X-Hub-Signature-256"
	HEADER_LEGACY = "X-Hub-Signature"

	prefix = "sha256="
)

// Sign hex-дайджест HMAC-SHA256 тела запроса
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify сравнивает подпись из заголовка (с префиксом "sha256=" или без) с ожидаемой.
// Пустой секрет или заголовок - всегда false.
func Verify(body []byte, header, secret string) bool {
	if secret == "" || header == "" {
		return false
	}

	got := strings.TrimPrefix(strings.TrimSpace(header), prefix)
	expected := Sign(body, secret)

	return hmac.Equal([]byte(strings.ToLower(got)), []byte(expected))
}
