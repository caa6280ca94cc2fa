// Package searchable implements HMAC-based searchable encryption: a
// deterministic MAC over plaintext that lets a server index and match
// ciphertext without ever seeing it. The key is wrapped under a group
// key exactly like any other group member key.
package searchable

import (
	"encoding/base64"

	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/vaulterr"
)

// GenerateKey mints a fresh HMAC SearchableKey and wraps it under
// groupKey, returning both the usable key and its wrap ciphertext
// (base64) to register with the server.
func GenerateKey(groupKey primitive.SymmetricKey) (primitive.SearchableKey, string, error) {
	mac := primitive.DefaultMAC()
	key, err := mac.GenerateKey()
	if err != nil {
		return primitive.SearchableKey{}, "", err
	}
	wrapped, err := primitive.SealSymmetric(groupKey, nil, key.Raw)
	if err != nil {
		return primitive.SearchableKey{}, "", err
	}
	return key, base64.StdEncoding.EncodeToString(wrapped), nil
}

// DecryptKey reverses GenerateKey's wrap using the matching group key.
func DecryptKey(groupKey primitive.SymmetricKey, id, wrappedB64 string) (primitive.SearchableKey, error) {
	wrapped, err := base64.StdEncoding.DecodeString(wrappedB64)
	if err != nil {
		return primitive.SearchableKey{}, vaulterr.DecodeSymKeyFailed(err)
	}
	raw, err := primitive.OpenSymmetric(groupKey, nil, wrapped)
	if err != nil {
		return primitive.SearchableKey{}, vaulterr.KeyDecryptFailed(err)
	}
	return primitive.SearchableKey{Alg: primitive.AlgHMACSHA256, Raw: raw, ID: id}, nil
}

// Encrypt produces the deterministic search tag for data, base64-encoded.
func Encrypt(key primitive.SearchableKey, data []byte) (string, error) {
	mac, err := primitive.MACByTag(key.Alg)
	if err != nil {
		return "", err
	}
	tag, err := mac.Sum(key, data)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(tag), nil
}

// Verify checks data against a previously produced search tag in
// constant time.
func Verify(key primitive.SearchableKey, data []byte, tagB64 string) (bool, error) {
	tag, err := base64.StdEncoding.DecodeString(tagB64)
	if err != nil {
		return false, vaulterr.DecodeEncryptedDataFailed(err)
	}
	mac, err := primitive.MACByTag(key.Alg)
	if err != nil {
		return false, err
	}
	return mac.Verify(key, data, tag)
}
