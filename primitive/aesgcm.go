package primitive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/pandayo-labs/veilsdk/vaulterr"
)

func init() {
	RegisterAEAD(aesGCM256{})
}

// aesGCM256 implements AEAD with AES-256-GCM: a 96-bit random nonce
// prepended to the ciphertext, 128-bit authentication tag appended by
// cipher.AEAD.Seal.
type aesGCM256 struct{}

func (aesGCM256) Tag() AlgTag { return AlgAESGCM256 }

func (aesGCM256) NonceSize() int { return 12 }

func (a aesGCM256) newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, vaulterr.Base(aes.KeySizeError(len(key)))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, vaulterr.Base(err)
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext and returns nonce || ciphertext || tag.
func (a aesGCM256) Seal(key, nonce, aad, plaintext []byte) ([]byte, error) {
	gcm, err := a.newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) == 0 {
		nonce = make([]byte, a.NonceSize())
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return nil, vaulterr.Base(err)
		}
	}
	sealed := gcm.Seal(nil, nonce, plaintext, aad)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Open reverses Seal: ciphertext is nonce || sealed.
func (a aesGCM256) Open(key, _ /* unused, nonce is embedded */, aad, ciphertext []byte) ([]byte, error) {
	gcm, err := a.newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < a.NonceSize() {
		return nil, vaulterr.DecodeEncryptedDataFailed(nil)
	}
	nonce := ciphertext[:a.NonceSize()]
	sealed := ciphertext[a.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, vaulterr.Base(err)
	}
	return plaintext, nil
}

// GenerateSymmetricKey creates a fresh raw AES-256-GCM key.
func GenerateSymmetricKey() (SymmetricKey, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return SymmetricKey{}, vaulterr.Base(err)
	}
	return SymmetricKey{Alg: AlgAESGCM256, Raw: raw}, nil
}

// SealSymmetric is the common helper used throughout the SDK to AEAD-seal
// bytes under a SymmetricKey, dispatching on its algorithm tag.
func SealSymmetric(key SymmetricKey, aad, plaintext []byte) ([]byte, error) {
	aead, err := AEADByTag(key.Alg)
	if err != nil {
		return nil, err
	}
	return aead.Seal(key.Raw, nil, aad, plaintext)
}

// OpenSymmetric reverses SealSymmetric.
func OpenSymmetric(key SymmetricKey, aad, ciphertext []byte) ([]byte, error) {
	aead, err := AEADByTag(key.Alg)
	if err != nil {
		return nil, err
	}
	return aead.Open(key.Raw, nil, aad, ciphertext)
}
