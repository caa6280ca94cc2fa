// Package primitive implements the algorithm-agnostic capability
// interfaces and tagged key value objects the rest of the SDK builds
// on: symmetric AEAD, hybrid asymmetric KEM, signatures, a password
// KDF, and a keyed MAC. Every value carries its algorithm tag so
// decode-time dispatch never depends on a Go type assertion alone.
package primitive

// AlgTag identifies the concrete algorithm backing a key or operation.
// It travels on the wire and drives dispatch; an unrecognized tag is
// always an AlgNotFound error, never a panic.
type AlgTag string

const (
	AlgAESGCM256    AlgTag = "AES-GCM-256"
	AlgECIESEd25519 AlgTag = "ECIES-ed25519"
	AlgEd25519      AlgTag = "Ed25519"
	AlgSecp256k1    AlgTag = "ecdsa-secp256k1"
	AlgArgon2       AlgTag = "ARGON-2"
	AlgHMACSHA256   AlgTag = "HMAC-SHA256"
)

// SymmetricKey is raw AEAD key material tagged with its algorithm.
// The ID is empty until the server assigns one.
type SymmetricKey struct {
	Alg AlgTag
	Raw []byte
	ID  string
}

// SecretKey is the private half of an encryption keypair.
type SecretKey struct {
	Alg AlgTag
	Raw []byte
	ID  string
}

// PublicKey is the public half of an encryption keypair.
type PublicKey struct {
	Alg AlgTag
	Raw []byte
	ID  string
}

// SignKey is the private half of a signing keypair.
type SignKey struct {
	Alg AlgTag
	Raw []byte
	ID  string
}

// VerifyKey is the public half of a signing keypair.
type VerifyKey struct {
	Alg AlgTag
	Raw []byte
	ID  string
}

// SearchableKey is an HMAC key used to produce deterministic,
// order-preserving-free search tags over plaintext.
type SearchableKey struct {
	Alg AlgTag
	Raw []byte
	ID  string
}

// AEAD is the capability interface every symmetric primitive
// implements: seal/open with an explicit nonce and AAD.
type AEAD interface {
	Tag() AlgTag
	NonceSize() int
	Seal(key, nonce, aad, plaintext []byte) ([]byte, error)
	Open(key, nonce, aad, ciphertext []byte) ([]byte, error)
}

// KEM is the capability interface a hybrid asymmetric primitive
// implements: wrap a symmetric key under a public key, unwrap it
// under the matching private key.
type KEM interface {
	Tag() AlgTag
	GenerateKeyPair() (SecretKey, PublicKey, error)
	Wrap(pub PublicKey, symKey []byte) ([]byte, error)
	Unwrap(sec SecretKey, wrapped []byte) ([]byte, error)
}

// Signer is the capability interface a signature primitive
// implements.
type Signer interface {
	Tag() AlgTag
	GenerateKeyPair() (SignKey, VerifyKey, error)
	Sign(key SignKey, message []byte) ([]byte, error)
	Verify(key VerifyKey, message, signature []byte) error
}

// KDF is the capability interface the password-based key derivation
// primitive implements.
type KDF interface {
	Tag() AlgTag
	GenerateSalt(clientRandom []byte, pepper string) ([]byte, error)
	Derive(password string, salt []byte) (masterKeyEncKey, authKey []byte, err error)
}

// MAC is the capability interface the searchable-encryption primitive
// implements.
type MAC interface {
	Tag() AlgTag
	GenerateKey() (SearchableKey, error)
	Sum(key SearchableKey, data []byte) ([]byte, error)
	Verify(key SearchableKey, data, mac []byte) (bool, error)
}
