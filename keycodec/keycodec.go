// Package keycodec implements the stable textual encodings for every
// key type: public and verify keys as PEM wrapped in a small JSON
// envelope carrying the algorithm tag and key id; secret, symmetric,
// and sign keys as base64-in-JSON, since they never need to interop
// with a non-Go PEM consumer and a bare PEM block would invite
// treating secret material as if it were a public artifact.
package keycodec

import (
	"encoding/base64"
	"encoding/json"
	"encoding/pem"

	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/vaulterr"
)

// pemEnvelope is the wire shape for public and verify keys: {pem, alg, id}.
type pemEnvelope struct {
	PEM string `json:"pem"`
	Alg string `json:"alg"`
	ID  string `json:"id"`
}

// rawEnvelope is the wire shape for secret, symmetric, and sign keys:
// {key: base64(raw), alg, id}.
type rawEnvelope struct {
	Key string `json:"key"`
	Alg string `json:"alg"`
	ID  string `json:"id"`
}

func encodePEM(blockType string, raw []byte, alg, id string) (string, error) {
	block := &pem.Block{Type: blockType, Bytes: raw}
	env := pemEnvelope{PEM: string(pem.EncodeToMemory(block)), Alg: alg, ID: id}
	b, err := json.Marshal(env)
	if err != nil {
		return "", vaulterr.JSONToStringFailed(err)
	}
	return string(b), nil
}

func decodePEM(data string) (raw []byte, alg, id string, err error) {
	var env pemEnvelope
	if jerr := json.Unmarshal([]byte(data), &env); jerr != nil {
		return nil, "", "", vaulterr.JSONParseFailed(jerr)
	}
	block, _ := pem.Decode([]byte(env.PEM))
	if block == nil {
		return nil, "", "", vaulterr.ImportingKeyFromPemFailed(nil)
	}
	return block.Bytes, env.Alg, env.ID, nil
}

func encodeRaw(raw []byte, alg, id string) (string, error) {
	env := rawEnvelope{Key: base64.StdEncoding.EncodeToString(raw), Alg: alg, ID: id}
	b, err := json.Marshal(env)
	if err != nil {
		return "", vaulterr.JSONToStringFailed(err)
	}
	return string(b), nil
}

func decodeRaw(data string) (raw []byte, alg, id string, err error) {
	var env rawEnvelope
	if jerr := json.Unmarshal([]byte(data), &env); jerr != nil {
		return nil, "", "", vaulterr.JSONParseFailed(jerr)
	}
	raw, derr := base64.StdEncoding.DecodeString(env.Key)
	if derr != nil {
		return nil, "", "", vaulterr.DecodeSymKeyFailed(derr)
	}
	return raw, env.Alg, env.ID, nil
}

// EncodePublicKey renders a PublicKey as {pem, alg, id}.
func EncodePublicKey(pk primitive.PublicKey) (string, error) {
	return encodePEM("PUBLIC KEY", pk.Raw, string(pk.Alg), pk.ID)
}

// DecodePublicKey parses a {pem, alg, id} envelope into a PublicKey.
func DecodePublicKey(data string) (primitive.PublicKey, error) {
	raw, alg, id, err := decodePEM(data)
	if err != nil {
		return primitive.PublicKey{}, vaulterr.DecodePublicKeyFailed(err)
	}
	return primitive.PublicKey{Alg: primitive.AlgTag(alg), Raw: raw, ID: id}, nil
}

// EncodeVerifyKey renders a VerifyKey as {pem, alg, id}.
func EncodeVerifyKey(vk primitive.VerifyKey) (string, error) {
	return encodePEM("PUBLIC KEY", vk.Raw, string(vk.Alg), vk.ID)
}

// DecodeVerifyKey parses a {pem, alg, id} envelope into a VerifyKey.
func DecodeVerifyKey(data string) (primitive.VerifyKey, error) {
	raw, alg, id, err := decodePEM(data)
	if err != nil {
		return primitive.VerifyKey{}, vaulterr.ImportVerifyKeyFailed(err)
	}
	return primitive.VerifyKey{Alg: primitive.AlgTag(alg), Raw: raw, ID: id}, nil
}

// EncodeSecretKey renders a SecretKey as {key: base64(raw), alg, id}.
func EncodeSecretKey(sk primitive.SecretKey) (string, error) {
	return encodeRaw(sk.Raw, string(sk.Alg), sk.ID)
}

// DecodeSecretKey parses a {key, alg, id} envelope into a SecretKey.
func DecodeSecretKey(data string) (primitive.SecretKey, error) {
	raw, alg, id, err := decodeRaw(data)
	if err != nil {
		return primitive.SecretKey{}, vaulterr.ImportingPrivateKeyFailed(err)
	}
	return primitive.SecretKey{Alg: primitive.AlgTag(alg), Raw: raw, ID: id}, nil
}

// EncodeSymmetricKey renders a SymmetricKey as {key: base64(raw), alg, id}.
func EncodeSymmetricKey(sk primitive.SymmetricKey) (string, error) {
	return encodeRaw(sk.Raw, string(sk.Alg), sk.ID)
}

// DecodeSymmetricKey parses a {key, alg, id} envelope into a SymmetricKey.
func DecodeSymmetricKey(data string) (primitive.SymmetricKey, error) {
	raw, alg, id, err := decodeRaw(data)
	if err != nil {
		return primitive.SymmetricKey{}, vaulterr.ImportSymmetricKeyFailed(err)
	}
	return primitive.SymmetricKey{Alg: primitive.AlgTag(alg), Raw: raw, ID: id}, nil
}

// EncodeSignKey renders a SignKey as {key: base64(raw), alg, id}.
func EncodeSignKey(sk primitive.SignKey) (string, error) {
	return encodeRaw(sk.Raw, string(sk.Alg), sk.ID)
}

// DecodeSignKey parses a {key, alg, id} envelope into a SignKey.
func DecodeSignKey(data string) (primitive.SignKey, error) {
	raw, alg, id, err := decodeRaw(data)
	if err != nil {
		return primitive.SignKey{}, vaulterr.ImportingSignKeyFailed(err)
	}
	return primitive.SignKey{Alg: primitive.AlgTag(alg), Raw: raw, ID: id}, nil
}
