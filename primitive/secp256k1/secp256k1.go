// Package secp256k1 is an optional Signer implementation, required by
// no core operation: new signature algorithms slot in without touching
// the capability interfaces in package primitive. It is wired into the
// primitive registry by internal/cryptoinit, not imported directly by
// user/group/content code.
package secp256k1

import (
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/vaulterr"
)

// Signer implements primitive.Signer for ECDSA over secp256k1.
type Signer struct{}

func (Signer) Tag() primitive.AlgTag { return primitive.AlgSecp256k1 }

func (Signer) GenerateKeyPair() (primitive.SignKey, primitive.VerifyKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return primitive.SignKey{}, primitive.VerifyKey{}, vaulterr.Base(err)
	}
	return primitive.SignKey{Alg: primitive.AlgSecp256k1, Raw: priv.Serialize()},
		primitive.VerifyKey{Alg: primitive.AlgSecp256k1, Raw: priv.PubKey().SerializeCompressed()},
		nil
}

func (Signer) Sign(key primitive.SignKey, message []byte) ([]byte, error) {
	priv := secp256k1.PrivKeyFromBytes(key.Raw)
	digest := sha256.Sum256(message)
	sig := ecdsa.Sign(priv, digest[:])
	return sig.Serialize(), nil
}

func (Signer) Verify(key primitive.VerifyKey, message, signature []byte) error {
	pub, err := secp256k1.ParsePubKey(key.Raw)
	if err != nil {
		return vaulterr.DecodePublicKeyFailed(err)
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return vaulterr.VerifyFailed()
	}
	digest := sha256.Sum256(message)
	if !sig.Verify(digest[:], pub) {
		return vaulterr.VerifyFailed()
	}
	return nil
}
