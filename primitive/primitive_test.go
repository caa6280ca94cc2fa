package primitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESGCM256RoundTrip(t *testing.T) {
	key, err := GenerateSymmetricKey()
	require.NoError(t, err)

	plaintext := []byte("123*+^êéèüöß@€&$ 👍 🚀")
	ciphertext, err := SealSymmetric(key, []byte("aad"), plaintext)
	require.NoError(t, err)

	recovered, err := OpenSymmetric(key, []byte("aad"), ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestAESGCM256RejectsWrongAAD(t *testing.T) {
	key, err := GenerateSymmetricKey()
	require.NoError(t, err)

	ciphertext, err := SealSymmetric(key, []byte("right"), []byte("payload"))
	require.NoError(t, err)

	_, err = OpenSymmetric(key, []byte("wrong"), ciphertext)
	assert.Error(t, err)
}

func TestAESGCM256RejectsTamperedCiphertext(t *testing.T) {
	key, err := GenerateSymmetricKey()
	require.NoError(t, err)

	ciphertext, err := SealSymmetric(key, nil, []byte("payload"))
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xFF

	_, err = OpenSymmetric(key, nil, ciphertext)
	assert.Error(t, err)
}

func TestECIESEd25519WrapUnwrap(t *testing.T) {
	kem := DefaultKEM()
	sec, pub, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	symKey := []byte("0123456789abcdef0123456789abcdef")
	wrapped, err := kem.Wrap(pub, symKey)
	require.NoError(t, err)

	recovered, err := kem.Unwrap(sec, wrapped)
	require.NoError(t, err)
	assert.Equal(t, symKey, recovered)
}

func TestECIESEd25519UnwrapFailsForWrongKey(t *testing.T) {
	kem := DefaultKEM()
	_, pub, err := kem.GenerateKeyPair()
	require.NoError(t, err)
	otherSec, _, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	wrapped, err := kem.Wrap(pub, []byte("content-key-bytes"))
	require.NoError(t, err)

	_, err = kem.Unwrap(otherSec, wrapped)
	assert.Error(t, err)
}

func TestSealOpenHPKE(t *testing.T) {
	kem := DefaultKEM()
	sec, pub, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	plaintext := []byte("hpke alternate path payload")
	info := []byte("vault-content")
	sealed, err := SealHPKE(pub, plaintext, info)
	require.NoError(t, err)

	recovered, err := OpenHPKE(sec, sealed, info)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestOpenHPKERejectsWrongInfo(t *testing.T) {
	kem := DefaultKEM()
	sec, pub, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	sealed, err := SealHPKE(pub, []byte("payload"), []byte("context-a"))
	require.NoError(t, err)

	_, err = OpenHPKE(sec, sealed, []byte("context-b"))
	assert.Error(t, err)
}

func TestEd25519SignVerify(t *testing.T) {
	signer := DefaultSigner()
	signKey, verifyKey, err := signer.GenerateKeyPair()
	require.NoError(t, err)

	message := []byte("message to sign")
	sig, err := signer.Sign(signKey, message)
	require.NoError(t, err)
	assert.NoError(t, signer.Verify(verifyKey, message, sig))

	assert.Error(t, signer.Verify(verifyKey, []byte("tampered"), sig))
}

func TestArgon2DeriveIsDeterministic(t *testing.T) {
	kdf := DefaultKDF()

	clientRandom, err := NewClientRandomValue()
	require.NoError(t, err)
	salt, err := kdf.GenerateSalt(clientRandom, "")
	require.NoError(t, err)

	mk1, auth1, err := kdf.Derive("hunter2", salt)
	require.NoError(t, err)
	mk2, auth2, err := kdf.Derive("hunter2", salt)
	require.NoError(t, err)

	assert.Equal(t, mk1, mk2)
	assert.Equal(t, auth1, auth2)
	assert.NotEqual(t, mk1, auth1, "master-key-encryption-key and auth key halves must differ")
}

func TestArgon2DifferentSaltsDiverge(t *testing.T) {
	kdf := DefaultKDF()

	randomA, err := NewClientRandomValue()
	require.NoError(t, err)
	randomB, err := NewClientRandomValue()
	require.NoError(t, err)
	assert.NotEqual(t, randomA, randomB)

	saltA, err := kdf.GenerateSalt(randomA, "")
	require.NoError(t, err)
	saltB, err := kdf.GenerateSalt(randomB, "")
	require.NoError(t, err)

	mkA, _, err := kdf.Derive("same-password", saltA)
	require.NoError(t, err)
	mkB, _, err := kdf.Derive("same-password", saltB)
	require.NoError(t, err)
	assert.NotEqual(t, mkA, mkB)
}

func TestHMACSHA256SumVerify(t *testing.T) {
	mac := DefaultMAC()
	key, err := mac.GenerateKey()
	require.NoError(t, err)

	data := []byte("search this")
	tag, err := mac.Sum(key, data)
	require.NoError(t, err)

	ok, err := mac.Verify(key, data, tag)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mac.Verify(key, []byte("search that"), tag)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryByTagUnknown(t *testing.T) {
	_, err := AEADByTag("not-a-real-algorithm")
	assert.Error(t, err)

	_, err = KEMByTag("not-a-real-algorithm")
	assert.Error(t, err)

	_, err = SignerByTag("not-a-real-algorithm")
	assert.Error(t, err)

	_, err = KDFByTag("not-a-real-algorithm")
	assert.Error(t, err)

	_, err = MACByTag("not-a-real-algorithm")
	assert.Error(t, err)
}

func TestSecp256k1SignerIsOptIn(t *testing.T) {
	// The secp256k1 signer only enters the registry when a binary
	// imports internal/cryptoinit (cmd/vaultctl does); this test binary
	// does not, so the tag must miss here.
	_, err := SignerByTag(AlgSecp256k1)
	assert.Error(t, err)
}
