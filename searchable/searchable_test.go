package searchable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandayo-labs/veilsdk/primitive"
)

func TestGenerateAndDecryptKeyRoundTrip(t *testing.T) {
	groupKey, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)

	key, wrappedB64, err := GenerateKey(groupKey)
	require.NoError(t, err)

	decrypted, err := DecryptKey(groupKey, "search-key-1", wrappedB64)
	require.NoError(t, err)
	assert.Equal(t, key.Raw, decrypted.Raw)
	assert.Equal(t, "search-key-1", decrypted.ID)
}

func TestDecryptKeyWithWrongGroupKeyFails(t *testing.T) {
	groupKey, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)
	otherGroupKey, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)

	_, wrappedB64, err := GenerateKey(groupKey)
	require.NoError(t, err)

	_, err = DecryptKey(otherGroupKey, "id", wrappedB64)
	assert.Error(t, err)
}

func TestEncryptVerifyMatchesSameData(t *testing.T) {
	groupKey, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)
	key, _, err := GenerateKey(groupKey)
	require.NoError(t, err)

	tag, err := Encrypt(key, []byte("searchable-value"))
	require.NoError(t, err)

	ok, err := Verify(key, []byte("searchable-value"), tag)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEncryptIsDeterministic(t *testing.T) {
	groupKey, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)
	key, _, err := GenerateKey(groupKey)
	require.NoError(t, err)

	tagA, err := Encrypt(key, []byte("same-value"))
	require.NoError(t, err)
	tagB, err := Encrypt(key, []byte("same-value"))
	require.NoError(t, err)
	assert.Equal(t, tagA, tagB)
}

func TestVerifyFailsForDifferentData(t *testing.T) {
	groupKey, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)
	key, _, err := GenerateKey(groupKey)
	require.NoError(t, err)

	tag, err := Encrypt(key, []byte("original"))
	require.NoError(t, err)

	ok, err := Verify(key, []byte("different"), tag)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsInvalidBase64Tag(t *testing.T) {
	groupKey, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)
	key, _, err := GenerateKey(groupKey)
	require.NoError(t, err)

	_, err = Verify(key, []byte("data"), "not-valid-base64!!")
	assert.Error(t, err)
}
