package primitive

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"io"

	"filippo.io/edwards25519"
	"github.com/cloudflare/circl/hpke"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/pandayo-labs/veilsdk/vaulterr"
)

func init() {
	RegisterKEM(eciesEd25519{})
}

const eciesHKDFInfo = "ECIES-ed25519"

// eciesEd25519 implements KEM as ECIES over Curve25519: the keypair is
// generated and exported in Ed25519 form (so one identity key doubles
// as both a signing and an encryption key), converted to its X25519
// Montgomery form for the actual Diffie-Hellman. An ephemeral X25519
// keypair is generated per wrap; its public half is prepended to the
// AEAD output so the recipient can redo the ECDH without any prior
// exchange.
type eciesEd25519 struct{}

func (eciesEd25519) Tag() AlgTag { return AlgECIESEd25519 }

func (eciesEd25519) GenerateKeyPair() (SecretKey, PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SecretKey{}, PublicKey{}, vaulterr.Base(err)
	}
	return SecretKey{Alg: AlgECIESEd25519, Raw: priv}, PublicKey{Alg: AlgECIESEd25519, Raw: pub}, nil
}

// Wrap AEAD-seals symKey under a key derived from an ephemeral-static
// ECDH with the recipient's converted X25519 public key. Output is
// ephemeralPub(32) || AES-256-GCM(nonce||ciphertext||tag).
func (eciesEd25519) Wrap(pub PublicKey, symKey []byte) ([]byte, error) {
	recipientX, err := edPublicToX25519(ed25519.PublicKey(pub.Raw))
	if err != nil {
		return nil, vaulterr.DecodePublicKeyFailed(err)
	}

	ephPriv := make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(rand.Reader, ephPriv); err != nil {
		return nil, vaulterr.Base(err)
	}
	ephPub, err := curve25519.X25519(ephPriv, curve25519.Basepoint)
	if err != nil {
		return nil, vaulterr.Base(err)
	}

	shared, err := curve25519.X25519(ephPriv, recipientX)
	if err != nil {
		return nil, vaulterr.Base(err)
	}

	aeadKey, err := eciesDerive(shared, ephPub, recipientX)
	if err != nil {
		return nil, err
	}

	aead, _ := AEADByTag(AlgAESGCM256)
	sealed, err := aead.Seal(aeadKey, nil, nil, symKey)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(ephPub)+len(sealed))
	out = append(out, ephPub...)
	out = append(out, sealed...)
	return out, nil
}

// Unwrap reverses Wrap using the recipient's Ed25519 secret key.
func (eciesEd25519) Unwrap(sec SecretKey, wrapped []byte) ([]byte, error) {
	if len(wrapped) < curve25519.PointSize {
		return nil, vaulterr.DecodeEncryptedDataFailed(nil)
	}
	ephPub := wrapped[:curve25519.PointSize]
	sealed := wrapped[curve25519.PointSize:]

	if len(sec.Raw) != ed25519.PrivateKeySize {
		return nil, vaulterr.DerivedKeyWrongFormat()
	}
	priv := ed25519.PrivateKey(sec.Raw)
	recipientXPriv := edPrivateToX25519(priv)
	recipientXPub, err := edPublicToX25519(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, vaulterr.DecodePublicKeyFailed(err)
	}

	shared, err := curve25519.X25519(recipientXPriv, ephPub)
	if err != nil {
		return nil, vaulterr.KeyDecryptFailed(err)
	}

	aeadKey, err := eciesDerive(shared, ephPub, recipientXPub)
	if err != nil {
		return nil, err
	}

	aead, _ := AEADByTag(AlgAESGCM256)
	plaintext, err := aead.Open(aeadKey, nil, nil, sealed)
	if err != nil {
		return nil, vaulterr.KeyDecryptFailed(err)
	}
	return plaintext, nil
}

func eciesDerive(shared, ephPub, recipientPub []byte) ([]byte, error) {
	salt := make([]byte, 0, len(ephPub)+len(recipientPub))
	salt = append(salt, ephPub...)
	salt = append(salt, recipientPub...)

	reader := hkdf.New(sha512.New, shared, salt, []byte(eciesHKDFInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, vaulterr.Base(err)
	}
	return key, nil
}

// hpkeSuite is the full HPKE instantiation matching eciesEd25519's own
// KEM/AEAD choices, offered as an alternate code path rather than as
// the default: it trades the ECDH-then-HKDF-then-AEAD construction
// above for a standard RFC 9180 one over the same converted X25519
// keys.
var hpkeSuite = hpke.NewSuite(hpke.KEM_X25519_HKDF_SHA256, hpke.KDF_HKDF_SHA256, hpke.AEAD_AES256GCM)

// SealHPKE encrypts plaintext to recipient's Ed25519-derived X25519
// public key using RFC 9180 HPKE base mode, binding info as the HPKE
// application info string. Output is encapsulatedKey || ciphertext.
func SealHPKE(recipient PublicKey, plaintext, info []byte) ([]byte, error) {
	recipientX, err := edPublicToX25519(ed25519.PublicKey(recipient.Raw))
	if err != nil {
		return nil, vaulterr.DecodePublicKeyFailed(err)
	}
	pub, err := hpke.KEM_X25519_HKDF_SHA256.Scheme().UnmarshalBinaryPublicKey(recipientX)
	if err != nil {
		return nil, vaulterr.DecodePublicKeyFailed(err)
	}

	sender, err := hpkeSuite.NewSender(pub, info)
	if err != nil {
		return nil, vaulterr.Base(err)
	}
	enc, sealer, err := sender.Setup(rand.Reader)
	if err != nil {
		return nil, vaulterr.Base(err)
	}
	ciphertext, err := sealer.Seal(plaintext, nil)
	if err != nil {
		return nil, vaulterr.Base(err)
	}

	out := make([]byte, 0, len(enc)+len(ciphertext))
	out = append(out, enc...)
	out = append(out, ciphertext...)
	return out, nil
}

// OpenHPKE reverses SealHPKE using the recipient's Ed25519 secret key.
func OpenHPKE(sec SecretKey, sealed, info []byte) ([]byte, error) {
	if len(sec.Raw) != ed25519.PrivateKeySize {
		return nil, vaulterr.DerivedKeyWrongFormat()
	}
	priv := ed25519.PrivateKey(sec.Raw)
	recipientXPriv := edPrivateToX25519(priv)

	scheme := hpke.KEM_X25519_HKDF_SHA256.Scheme()
	encSize := scheme.CiphertextSize() // encapsulated key size for this KEM
	if len(sealed) < encSize {
		return nil, vaulterr.DecodeEncryptedDataFailed(nil)
	}
	enc, ciphertext := sealed[:encSize], sealed[encSize:]

	priv25519, err := scheme.UnmarshalBinaryPrivateKey(recipientXPriv)
	if err != nil {
		return nil, vaulterr.DecodePublicKeyFailed(err)
	}

	receiver, err := hpkeSuite.NewReceiver(priv25519, info)
	if err != nil {
		return nil, vaulterr.Base(err)
	}
	opener, err := receiver.Setup(enc)
	if err != nil {
		return nil, vaulterr.KeyDecryptFailed(err)
	}
	plaintext, err := opener.Open(ciphertext, nil)
	if err != nil {
		return nil, vaulterr.KeyDecryptFailed(err)
	}
	return plaintext, nil
}

// edPublicToX25519 converts an Ed25519 public key to its Curve25519
// Montgomery u-coordinate.
func edPublicToX25519(pub ed25519.PublicKey) ([]byte, error) {
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return nil, err
	}
	return p.BytesMontgomery(), nil
}

// edPrivateToX25519 converts an Ed25519 private key's seed into a
// clamped Curve25519 scalar, per RFC 8032 / the standard Ed25519-to-X25519
// birational map.
func edPrivateToX25519(priv ed25519.PrivateKey) []byte {
	h := sha512.Sum512(priv.Seed())
	scalar := make([]byte, curve25519.ScalarSize)
	copy(scalar, h[:32])
	scalar[0] &= 248
	scalar[31] &= 127
	scalar[31] |= 64
	return scalar
}
