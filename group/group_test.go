package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/wire"
)

func TestCreateAndDecryptFromCreateRoundTrip(t *testing.T) {
	kem := primitive.DefaultKEM()
	sec, pub, err := kem.GenerateKeyPair()
	require.NoError(t, err)
	pub.ID = "creator-1"

	bundle, data, err := Create(pub, true)
	require.NoError(t, err)
	require.NotEmpty(t, data.EncryptedSignKey)
	require.NotEmpty(t, data.VerifyKey)

	recovered, err := DecryptFromCreate(sec, data)
	require.NoError(t, err)
	assert.Equal(t, bundle.Key.Raw, recovered.Key.Raw)
	assert.Equal(t, bundle.Secret.Raw, recovered.Secret.Raw)
	require.NotNil(t, recovered.Sign)
	assert.Equal(t, bundle.Sign.Raw, recovered.Sign.Raw)
}

func TestCreateWithoutSignOmitsSignFields(t *testing.T) {
	kem := primitive.DefaultKEM()
	sec, pub, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	_, data, err := Create(pub, false)
	require.NoError(t, err)
	assert.Empty(t, data.EncryptedSignKey)
	assert.Empty(t, data.VerifyKey)

	recovered, err := DecryptFromCreate(sec, data)
	require.NoError(t, err)
	assert.Nil(t, recovered.Sign)
}

func TestInviteBelowThresholdReturnsInlineBatch(t *testing.T) {
	kem := primitive.DefaultKEM()
	_, creatorPub, err := kem.GenerateKeyPair()
	require.NoError(t, err)
	bundle, _, err := Create(creatorPub, false)
	require.NoError(t, err)

	inviteeSec, inviteePub, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	batch, err := Invite([]KeyBundle{bundle}, inviteePub, nil)
	require.NoError(t, err)
	require.Len(t, batch.Bundles, 1)
	assert.Empty(t, batch.SessionID)
	assert.Zero(t, batch.Remaining)

	recovered, err := DecryptFromInvite(inviteeSec, batch.Bundles[0])
	require.NoError(t, err)
	assert.Equal(t, bundle.Key.Raw, recovered.Key.Raw)
}

type fakeSessionStarter struct {
	startedBatches [][]wire.GroupKeyServerOutput
	sessionID      string
}

func (f *fakeSessionStarter) Start(batches [][]wire.GroupKeyServerOutput) string {
	f.startedBatches = batches
	return f.sessionID
}

func TestInviteAboveThresholdSplitsIntoSession(t *testing.T) {
	kem := primitive.DefaultKEM()
	_, creatorPub, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	bundles := make([]KeyBundle, BatchThreshold+5)
	for i := range bundles {
		b, _, err := Create(creatorPub, false)
		require.NoError(t, err)
		bundles[i] = b
	}

	_, inviteePub, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	starter := &fakeSessionStarter{sessionID: "session-xyz"}
	batch, err := Invite(bundles, inviteePub, starter)
	require.NoError(t, err)
	assert.Len(t, batch.Bundles, BatchThreshold)
	assert.Equal(t, 5, batch.Remaining)
	assert.Equal(t, "session-xyz", batch.SessionID)
	require.Len(t, starter.startedBatches, 1)
	assert.Len(t, starter.startedBatches[0], 5)
}

func TestRotateAndDoneKeyRotationRoundTrip(t *testing.T) {
	kem := primitive.DefaultKEM()
	_, ownerPub, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	previous, _, err := Create(ownerPub, false)
	require.NoError(t, err)
	previous.GroupKeyID = "group-1"

	next, input, err := Rotate(previous, ownerPub)
	require.NoError(t, err)

	out := wire.KeyRotationServerOutput{
		NewGroupKeyID:                       "group-2",
		EncryptedGroupKeyByPreviousGroupKey: input.EncryptedGroupKeyByPreviousGroupKey,
		PublicGroupKey:                      input.PublicGroupKey,
		EncryptedPrivateGroupKey:            input.EncryptedPrivateGroupKey,
		PreviousGroupKeyID:                  previous.GroupKeyID,
	}

	recovered, err := DoneKeyRotation(previous, out)
	require.NoError(t, err)
	assert.Equal(t, next.Key.Raw, recovered.Key.Raw)
	assert.Equal(t, next.Secret.Raw, recovered.Secret.Raw)
	assert.Equal(t, "group-2", recovered.GroupKeyID)
}

func TestRotateUserGroupCarriesSignPairThroughDoneKeyRotation(t *testing.T) {
	kem := primitive.DefaultKEM()
	_, ownerPub, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	previous, _, err := Create(ownerPub, true)
	require.NoError(t, err)
	previous.GroupKeyID = "user-group-1"

	next, input, err := Rotate(previous, ownerPub)
	require.NoError(t, err)
	require.NotEmpty(t, input.EncryptedSignKey)
	require.NotEmpty(t, input.VerifyKey)

	out := wire.KeyRotationServerOutput{
		NewGroupKeyID:                       "user-group-2",
		EncryptedGroupKeyByPreviousGroupKey: input.EncryptedGroupKeyByPreviousGroupKey,
		PublicGroupKey:                      input.PublicGroupKey,
		EncryptedPrivateGroupKey:            input.EncryptedPrivateGroupKey,
		EncryptedSignKey:                    input.EncryptedSignKey,
		VerifyKey:                           input.VerifyKey,
		PreviousGroupKeyID:                  previous.GroupKeyID,
	}

	recovered, err := DoneKeyRotation(previous, out)
	require.NoError(t, err)
	require.NotNil(t, recovered.Sign)
	require.NotNil(t, recovered.Verify)
	assert.Equal(t, next.Sign.Raw, recovered.Sign.Raw)
	assert.Equal(t, next.Verify.Raw, recovered.Verify.Raw)
}

func TestDecryptFromCreateFailsForWrongSecretKey(t *testing.T) {
	kem := primitive.DefaultKEM()
	_, pub, err := kem.GenerateKeyPair()
	require.NoError(t, err)
	otherSec, _, err := kem.GenerateKeyPair()
	require.NoError(t, err)

	_, data, err := Create(pub, false)
	require.NoError(t, err)

	_, err = DecryptFromCreate(otherSec, data)
	assert.Error(t, err)
}
