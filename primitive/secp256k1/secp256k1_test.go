package secp256k1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/pandayo-labs/veilsdk/internal/cryptoinit"
	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/primitive/secp256k1"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	var s secp256k1.Signer
	signKey, verifyKey, err := s.GenerateKeyPair()
	require.NoError(t, err)
	assert.Equal(t, primitive.AlgSecp256k1, signKey.Alg)
	assert.Equal(t, primitive.AlgSecp256k1, verifyKey.Alg)

	message := []byte("rotate key bundle 42")
	sig, err := s.Sign(signKey, message)
	require.NoError(t, err)

	assert.NoError(t, s.Verify(verifyKey, message, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	var s secp256k1.Signer
	signKey, verifyKey, err := s.GenerateKeyPair()
	require.NoError(t, err)

	sig, err := s.Sign(signKey, []byte("original"))
	require.NoError(t, err)

	assert.Error(t, s.Verify(verifyKey, []byte("tampered"), sig))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	var s secp256k1.Signer
	signKey, _, err := s.GenerateKeyPair()
	require.NoError(t, err)
	_, otherVerify, err := s.GenerateKeyPair()
	require.NoError(t, err)

	sig, err := s.Sign(signKey, []byte("message"))
	require.NoError(t, err)

	assert.Error(t, s.Verify(otherVerify, []byte("message"), sig))
}

// The cryptoinit blank import above is what registers the signer, the
// same way cmd/vaultctl gets it.
func TestRegisteredThroughCryptoinit(t *testing.T) {
	signer, err := primitive.SignerByTag(primitive.AlgSecp256k1)
	require.NoError(t, err)

	signKey, verifyKey, err := signer.GenerateKeyPair()
	require.NoError(t, err)

	sig, err := signer.Sign(signKey, []byte("dispatched by tag"))
	require.NoError(t, err)
	assert.NoError(t, signer.Verify(verifyKey, []byte("dispatched by tag"), sig))
}
