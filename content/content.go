// Package content implements the content encryption façade: symmetric
// and hybrid-asymmetric encryption of arbitrary bytes, with optional
// AAD and an optional detached Ed25519 signature, across the
// raw/combined/string framings defined by package envelope. Decryption
// splits off only fixed-length Ed25519 signatures; data signed with any
// other registered Signer fails to decrypt with DecodeEncryptedDataFailed.
package content

import (
	"encoding/binary"

	"github.com/pandayo-labs/veilsdk/envelope"
	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/vaulterr"
)

// EncryptSymmetricRaw seals plaintext under key, optionally mixing aad
// into the AEAD and optionally appending a detached signature produced
// by sign. It returns the head and the (possibly signed) ciphertext
// bytes separately, the "raw" framing.
func EncryptSymmetricRaw(key primitive.SymmetricKey, plaintext, aad []byte, sign *primitive.SignKey) (envelope.Head, []byte, error) {
	ciphertext, err := primitive.SealSymmetric(key, aad, plaintext)
	if err != nil {
		return envelope.Head{}, nil, err
	}
	return attachSignature(key.ID, ciphertext, sign)
}

// EncryptSymmetric is EncryptSymmetricRaw without AAD.
func EncryptSymmetric(key primitive.SymmetricKey, plaintext []byte, sign *primitive.SignKey) (envelope.Head, []byte, error) {
	return EncryptSymmetricRaw(key, plaintext, nil, sign)
}

// EncryptSymmetricCombined produces the combined-bytes framing.
func EncryptSymmetricCombined(key primitive.SymmetricKey, plaintext, aad []byte, sign *primitive.SignKey) ([]byte, error) {
	head, ciphertext, err := EncryptSymmetricRaw(key, plaintext, aad, sign)
	if err != nil {
		return nil, err
	}
	return envelope.Combine(head, ciphertext)
}

// EncryptSymmetricString produces the base64 string framing.
func EncryptSymmetricString(key primitive.SymmetricKey, plaintext, aad []byte, sign *primitive.SignKey) (string, error) {
	head, ciphertext, err := EncryptSymmetricRaw(key, plaintext, aad, sign)
	if err != nil {
		return "", err
	}
	return envelope.CombineString(head, ciphertext)
}

// DecryptSymmetricRaw verifies (if declared) and opens a raw-framed
// ciphertext. verify must be non-nil whenever head.Sign is set, or
// SigFoundNotKey is returned.
func DecryptSymmetricRaw(key primitive.SymmetricKey, head envelope.Head, ciphertext, aad []byte, verify *primitive.VerifyKey) ([]byte, error) {
	stripped, err := checkSignature(head, ciphertext, verify)
	if err != nil {
		return nil, err
	}
	return primitive.OpenSymmetric(key, aad, stripped)
}

// DecryptSymmetricCombined reverses EncryptSymmetricCombined.
func DecryptSymmetricCombined(key primitive.SymmetricKey, combined, aad []byte, verify *primitive.VerifyKey) ([]byte, error) {
	head, ciphertext, err := envelope.Split(combined)
	if err != nil {
		return nil, err
	}
	return DecryptSymmetricRaw(key, head, ciphertext, aad, verify)
}

// DecryptSymmetricString reverses EncryptSymmetricString.
func DecryptSymmetricString(key primitive.SymmetricKey, s string, aad []byte, verify *primitive.VerifyKey) ([]byte, error) {
	head, ciphertext, err := envelope.SplitString(s)
	if err != nil {
		return nil, err
	}
	return DecryptSymmetricRaw(key, head, ciphertext, aad, verify)
}

// EncryptAsymmetricRaw generates an ephemeral content SymmetricKey,
// wraps it via the KEM under pub, and seals plaintext under it. The
// ciphertext is [varint wrap-len][wrap][AEAD ciphertext].
func EncryptAsymmetricRaw(pub primitive.PublicKey, plaintext []byte, sign *primitive.SignKey) (envelope.Head, []byte, error) {
	kem, err := primitive.KEMByTag(pub.Alg)
	if err != nil {
		return envelope.Head{}, nil, err
	}

	contentKey, err := primitive.GenerateSymmetricKey()
	if err != nil {
		return envelope.Head{}, nil, err
	}

	wrap, err := kem.Wrap(pub, contentKey.Raw)
	if err != nil {
		return envelope.Head{}, nil, err
	}

	sealed, err := primitive.SealSymmetric(contentKey, nil, plaintext)
	if err != nil {
		return envelope.Head{}, nil, err
	}

	lenBuf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(lenBuf, uint64(len(wrap)))
	ciphertext := make([]byte, 0, n+len(wrap)+len(sealed))
	ciphertext = append(ciphertext, lenBuf[:n]...)
	ciphertext = append(ciphertext, wrap...)
	ciphertext = append(ciphertext, sealed...)

	return attachSignature(pub.ID, ciphertext, sign)
}

// EncryptAsymmetricCombined produces the combined-bytes framing.
func EncryptAsymmetricCombined(pub primitive.PublicKey, plaintext []byte, sign *primitive.SignKey) ([]byte, error) {
	head, ciphertext, err := EncryptAsymmetricRaw(pub, plaintext, sign)
	if err != nil {
		return nil, err
	}
	return envelope.Combine(head, ciphertext)
}

// EncryptAsymmetricString produces the base64 string framing.
func EncryptAsymmetricString(pub primitive.PublicKey, plaintext []byte, sign *primitive.SignKey) (string, error) {
	head, ciphertext, err := EncryptAsymmetricRaw(pub, plaintext, sign)
	if err != nil {
		return "", err
	}
	return envelope.CombineString(head, ciphertext)
}

// DecryptAsymmetricRaw reverses EncryptAsymmetricRaw using the
// recipient's matching SecretKey.
func DecryptAsymmetricRaw(sec primitive.SecretKey, head envelope.Head, ciphertext []byte, verify *primitive.VerifyKey) ([]byte, error) {
	stripped, err := checkSignature(head, ciphertext, verify)
	if err != nil {
		return nil, err
	}

	wrapLen, n := binary.Uvarint(stripped)
	if n <= 0 || n+int(wrapLen) > len(stripped) {
		return nil, vaulterr.DecodeEncryptedDataFailed(nil)
	}
	wrap := stripped[n : n+int(wrapLen)]
	sealed := stripped[n+int(wrapLen):]

	kem, err := primitive.KEMByTag(sec.Alg)
	if err != nil {
		return nil, err
	}
	contentKeyRaw, err := kem.Unwrap(sec, wrap)
	if err != nil {
		return nil, vaulterr.KeyDecryptFailed(err)
	}
	contentKey := primitive.SymmetricKey{Alg: primitive.AlgAESGCM256, Raw: contentKeyRaw}

	return primitive.OpenSymmetric(contentKey, nil, sealed)
}

// DecryptAsymmetricCombined reverses EncryptAsymmetricCombined.
func DecryptAsymmetricCombined(sec primitive.SecretKey, combined []byte, verify *primitive.VerifyKey) ([]byte, error) {
	head, ciphertext, err := envelope.Split(combined)
	if err != nil {
		return nil, err
	}
	return DecryptAsymmetricRaw(sec, head, ciphertext, verify)
}

// DecryptAsymmetricString reverses EncryptAsymmetricString.
func DecryptAsymmetricString(sec primitive.SecretKey, s string, verify *primitive.VerifyKey) ([]byte, error) {
	head, ciphertext, err := envelope.SplitString(s)
	if err != nil {
		return nil, err
	}
	return DecryptAsymmetricRaw(sec, head, ciphertext, verify)
}

// attachSignature appends a detached signature over ciphertext when
// sign is non-nil, recording the signing key's algorithm and id in head.
func attachSignature(keyID string, ciphertext []byte, sign *primitive.SignKey) (envelope.Head, []byte, error) {
	head := envelope.Head{ID: keyID}
	if sign == nil {
		return head, ciphertext, nil
	}

	signer, err := primitive.SignerByTag(sign.Alg)
	if err != nil {
		return envelope.Head{}, nil, err
	}
	sig, err := signer.Sign(*sign, ciphertext)
	if err != nil {
		return envelope.Head{}, nil, err
	}

	head.Sign = &envelope.SignInfo{Alg: string(sign.Alg), ID: sign.ID}
	out := make([]byte, 0, len(ciphertext)+len(sig))
	out = append(out, ciphertext...)
	out = append(out, sig...)
	return head, out, nil
}

// checkSignature strips and verifies a trailing signature declared by
// head.Sign, returning the ciphertext with the signature removed. If
// head declares a signature but verify is nil, returns SigFoundNotKey.
func checkSignature(head envelope.Head, ciphertext []byte, verify *primitive.VerifyKey) ([]byte, error) {
	if head.Sign == nil {
		return ciphertext, nil
	}
	if verify == nil {
		return nil, vaulterr.SigFoundNotKey()
	}

	signer, err := primitive.SignerByTag(primitive.AlgTag(head.Sign.Alg))
	if err != nil {
		return nil, err
	}

	sigLen := signatureLength(primitive.AlgTag(head.Sign.Alg))
	if sigLen <= 0 || len(ciphertext) < sigLen {
		return nil, vaulterr.DecodeEncryptedDataFailed(nil)
	}
	body := ciphertext[:len(ciphertext)-sigLen]
	sig := ciphertext[len(ciphertext)-sigLen:]

	if err := signer.Verify(*verify, body, sig); err != nil {
		return nil, vaulterr.VerifyFailed()
	}
	return body, nil
}

// signatureLength is needed to split a detached signature off the tail
// of a ciphertext, since signatures aren't self-delimiting. Only fixed-
// length signature algorithms are supported by the content façade.
func signatureLength(alg primitive.AlgTag) int {
	switch alg {
	case primitive.AlgEd25519:
		return 64
	default:
		return -1
	}
}
