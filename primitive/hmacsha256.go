package primitive

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/pandayo-labs/veilsdk/vaulterr"
)

func init() {
	RegisterMAC(hmacSHA256{})
}

// hmacSHA256 implements MAC for searchable encryption: the same key
// and message always produce the same tag (required for equality
// search), different keys never agree, and verification is constant
// time via hmac.Equal.
type hmacSHA256 struct{}

func (hmacSHA256) Tag() AlgTag { return AlgHMACSHA256 }

func (hmacSHA256) GenerateKey() (SearchableKey, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return SearchableKey{}, vaulterr.Base(err)
	}
	return SearchableKey{Alg: AlgHMACSHA256, Raw: raw}, nil
}

func (hmacSHA256) Sum(key SearchableKey, data []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, key.Raw)
	mac.Write(data)
	return mac.Sum(nil), nil
}

func (h hmacSHA256) Verify(key SearchableKey, data, tag []byte) (bool, error) {
	expected, err := h.Sum(key, data)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, tag), nil
}
