package symkey

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/wire"
)

func TestPrepareAndDecryptSymKeyRoundTrip(t *testing.T) {
	master, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)
	master.ID = "master-1"

	prepared, err := PrepareRegisterSymKey(master)
	require.NoError(t, err)
	assert.Equal(t, master.ID, prepared.ServerInput.MasterKeyID)

	out := wire.GeneratedSymKeyHeadServerOutput{
		KeyID:              "123",
		Alg:                prepared.ServerInput.Alg,
		EncryptedKeyString: prepared.ServerInput.EncryptedKeyString,
		Time:               0,
	}

	decrypted, err := DecryptSymKey(master, out)
	require.NoError(t, err)
	assert.Equal(t, prepared.Key.Raw, decrypted.Raw)
	assert.Equal(t, "123", decrypted.ID)
}

func TestDecryptSymKeyWithWrongMasterFails(t *testing.T) {
	master, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)
	otherMaster, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)

	prepared, err := PrepareRegisterSymKey(master)
	require.NoError(t, err)

	out := wire.GeneratedSymKeyHeadServerOutput{
		KeyID:              "123",
		Alg:                prepared.ServerInput.Alg,
		EncryptedKeyString: prepared.ServerInput.EncryptedKeyString,
	}

	_, err = DecryptSymKey(otherMaster, out)
	assert.Error(t, err)
}

func TestGenerateNonRegisterSymKeyByPublicKeyRoundTrip(t *testing.T) {
	kem := primitive.DefaultKEM()
	sec, pub, err := kem.GenerateKeyPair()
	require.NoError(t, err)
	pub.ID = "recipient-pub"

	generated, err := GenerateNonRegisterSymKeyByPublicKey(pub)
	require.NoError(t, err)
	assert.Equal(t, pub.ID, generated.Head.ID)

	out := wire.GeneratedSymKeyHeadServerOutput{
		KeyID:              "456",
		Alg:                string(generated.Key.Alg),
		EncryptedKeyString: base64.StdEncoding.EncodeToString(generated.Wrapped),
	}

	decrypted, err := DecryptSymKeyByPrivateKey(sec, out)
	require.NoError(t, err)
	assert.Equal(t, generated.Key.Raw, decrypted.Raw)
}

func TestDoneFetchSymKeysOrdersAscendingByTimeThenID(t *testing.T) {
	master, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)

	first, err := PrepareRegisterSymKey(master)
	require.NoError(t, err)
	second, err := PrepareRegisterSymKey(master)
	require.NoError(t, err)

	page := wire.SymKeyFetchServerOutput{
		Keys: []wire.GeneratedSymKeyHeadServerOutput{
			{KeyID: "b", Alg: second.ServerInput.Alg, EncryptedKeyString: second.ServerInput.EncryptedKeyString, Time: 5},
			{KeyID: "a", Alg: first.ServerInput.Alg, EncryptedKeyString: first.ServerInput.EncryptedKeyString, Time: 1},
		},
	}

	keys, lastTime, lastID, err := DoneFetchSymKeys(master, page)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "a", keys[0].ID)
	assert.Equal(t, "b", keys[1].ID)
	assert.Equal(t, int64(5), lastTime)
	assert.Equal(t, "b", lastID)
}
