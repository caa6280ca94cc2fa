package primitive

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/pandayo-labs/veilsdk/vaulterr"
)

func init() {
	RegisterKDF(argon2KDF{})
}

// Fixed Argon2id parameters. These MUST NOT be made configurable:
// every implementation of this protocol has to agree on them bit for
// bit, or a password derived on one device can never unlock an
// account registered on another.
const (
	argon2Time    = 3
	argon2MemoryKB = 65536
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32 // per output; two independent outputs are derived
)

// argon2KDF implements KDF with Argon2id and the fixed parameters
// above, deriving two independent 32-byte outputs (master-key
// encryption key, authentication key) by running Argon2id twice with
// distinct domain-separation suffixes baked into the salt.
type argon2KDF struct{}

func (argon2KDF) Tag() AlgTag { return AlgArgon2 }

// GenerateSalt derives a deterministic salt from the client random
// value and an optional per-user "added string" (the pepper), per the
// spec's requirement that the server never stores a salt.
func (argon2KDF) GenerateSalt(clientRandom []byte, pepper string) ([]byte, error) {
	if len(clientRandom) == 0 {
		return nil, vaulterr.DecodeRandomValueFailed(nil)
	}
	material := append(append([]byte{}, clientRandom...), []byte(pepper)...)
	derived := argon2.IDKey(material, []byte(string(AlgArgon2)), argon2Time, argon2MemoryKB, argon2Threads, argon2SaltLen)
	return derived, nil
}

// Derive runs Argon2id twice over (password, salt) with distinct
// domain suffixes to produce two independent fixed-length outputs.
func (argon2KDF) Derive(password string, salt []byte) ([]byte, []byte, error) {
	if len(salt) == 0 {
		return nil, nil, vaulterr.DecodeSaltFailed(nil)
	}
	mk := argon2.IDKey([]byte(password), append(append([]byte{}, salt...), "mk"...), argon2Time, argon2MemoryKB, argon2Threads, argon2KeyLen)
	auth := argon2.IDKey([]byte(password), append(append([]byte{}, salt...), "auth"...), argon2Time, argon2MemoryKB, argon2Threads, argon2KeyLen)
	return mk, auth, nil
}

// NewClientRandomValue samples a fresh 128-bit random value used to
// derive a user's deterministic salt.
func NewClientRandomValue() ([]byte, error) {
	buf := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, vaulterr.Base(err)
	}
	return buf, nil
}
