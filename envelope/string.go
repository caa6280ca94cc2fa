package envelope

import (
	"encoding/base64"

	"github.com/pandayo-labs/veilsdk/vaulterr"
)

// CombineString is the string framing: the combined bytes, base64-encoded.
func CombineString(head Head, ciphertext []byte) (string, error) {
	combined, err := Combine(head, ciphertext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(combined), nil
}

// SplitString parses the string framing without touching the AEAD key.
func SplitString(s string) (Head, []byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Head{}, nil, vaulterr.DecodeEncryptedDataFailed(err)
	}
	return Split(data)
}
