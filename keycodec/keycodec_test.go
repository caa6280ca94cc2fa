package keycodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandayo-labs/veilsdk/primitive"
)

func TestPublicKeyRoundTrip(t *testing.T) {
	pk := primitive.PublicKey{Alg: primitive.AlgECIESEd25519, Raw: []byte("fake-public-bytes"), ID: "pub-1"}

	encoded, err := EncodePublicKey(pk)
	require.NoError(t, err)
	assert.Contains(t, encoded, "BEGIN PUBLIC KEY")

	decoded, err := DecodePublicKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, pk, decoded)
}

func TestVerifyKeyRoundTrip(t *testing.T) {
	vk := primitive.VerifyKey{Alg: primitive.AlgEd25519, Raw: []byte("fake-verify-bytes"), ID: "verify-1"}

	encoded, err := EncodeVerifyKey(vk)
	require.NoError(t, err)

	decoded, err := DecodeVerifyKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, vk, decoded)
}

func TestSecretKeyRoundTrip(t *testing.T) {
	sk := primitive.SecretKey{Alg: primitive.AlgECIESEd25519, Raw: []byte("fake-secret-bytes"), ID: "sec-1"}

	encoded, err := EncodeSecretKey(sk)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "BEGIN", "secret keys must never be PEM-wrapped")

	decoded, err := DecodeSecretKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, sk, decoded)
}

func TestSymmetricKeyRoundTrip(t *testing.T) {
	sk := primitive.SymmetricKey{Alg: primitive.AlgAESGCM256, Raw: []byte("fake-symmetric-bytes"), ID: "sym-1"}

	encoded, err := EncodeSymmetricKey(sk)
	require.NoError(t, err)

	decoded, err := DecodeSymmetricKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, sk, decoded)
}

func TestSignKeyRoundTrip(t *testing.T) {
	sk := primitive.SignKey{Alg: primitive.AlgEd25519, Raw: []byte("fake-sign-bytes"), ID: "sign-1"}

	encoded, err := EncodeSignKey(sk)
	require.NoError(t, err)

	decoded, err := DecodeSignKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, sk, decoded)
}

func TestDecodePublicKeyRejectsMalformedJSON(t *testing.T) {
	_, err := DecodePublicKey("not json at all")
	assert.Error(t, err)
}

func TestDecodePublicKeyRejectsMissingPEMBlock(t *testing.T) {
	_, err := DecodePublicKey(`{"pem":"not a pem block","alg":"Ed25519","id":"x"}`)
	assert.Error(t, err)
}

func TestDecodeSymmetricKeyRejectsInvalidBase64(t *testing.T) {
	_, err := DecodeSymmetricKey(`{"key":"not-base64!!","alg":"AES-GCM-256","id":"x"}`)
	assert.Error(t, err)
}
