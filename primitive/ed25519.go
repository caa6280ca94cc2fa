package primitive

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/pandayo-labs/veilsdk/vaulterr"
)

func init() {
	RegisterSigner(ed25519Signer{})
}

// ed25519Signer implements Signer with a 64-byte signature appended to
// the message digest by crypto/ed25519 directly (Ed25519 signs the
// message, not a hash of it).
type ed25519Signer struct{}

func (ed25519Signer) Tag() AlgTag { return AlgEd25519 }

func (ed25519Signer) GenerateKeyPair() (SignKey, VerifyKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SignKey{}, VerifyKey{}, vaulterr.Base(err)
	}
	return SignKey{Alg: AlgEd25519, Raw: priv}, VerifyKey{Alg: AlgEd25519, Raw: pub}, nil
}

func (ed25519Signer) Sign(key SignKey, message []byte) ([]byte, error) {
	if len(key.Raw) != ed25519.PrivateKeySize {
		return nil, vaulterr.DerivedKeyWrongFormat()
	}
	return ed25519.Sign(ed25519.PrivateKey(key.Raw), message), nil
}

func (ed25519Signer) Verify(key VerifyKey, message, signature []byte) error {
	if len(key.Raw) != ed25519.PublicKeySize {
		return vaulterr.DerivedKeyWrongFormat()
	}
	if !ed25519.Verify(ed25519.PublicKey(key.Raw), message, signature) {
		return vaulterr.VerifyFailed()
	}
	return nil
}
