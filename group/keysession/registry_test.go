package keysession

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandayo-labs/veilsdk/wire"
)

func sampleBundles(n int) []wire.GroupKeyServerOutput {
	out := make([]wire.GroupKeyServerOutput, n)
	for i := range out {
		out[i] = wire.GroupKeyServerOutput{GroupKeyID: "g"}
	}
	return out
}

func TestStartAndDrainNext(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	id := r.Start([][]wire.GroupKeyServerOutput{sampleBundles(3), sampleBundles(2)})
	assert.NotEmpty(t, id)

	batch, done, ok := r.Next(id, 4)
	require.True(t, ok)
	assert.False(t, done)
	assert.Len(t, batch, 4)

	batch, done, ok = r.Next(id, 4)
	require.True(t, ok)
	assert.True(t, done)
	assert.Len(t, batch, 1)

	_, _, ok = r.Next(id, 1)
	assert.False(t, ok, "session should be removed once drained")
}

func TestNextUnknownSessionFails(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	_, _, ok := r.Next("does-not-exist", 1)
	assert.False(t, ok)
}

func TestNextExpiredSessionFails(t *testing.T) {
	r := NewRegistry(time.Millisecond)
	defer r.Close()

	id := r.Start([][]wire.GroupKeyServerOutput{sampleBundles(5)})
	time.Sleep(5 * time.Millisecond)

	_, _, ok := r.Next(id, 1)
	assert.False(t, ok)
}

func TestCloseDiscardsPendingSessions(t *testing.T) {
	r := NewRegistry(time.Minute)
	id := r.Start([][]wire.GroupKeyServerOutput{sampleBundles(2)})

	r.Close()

	_, _, ok := r.Next(id, 1)
	assert.False(t, ok)
}

func TestNextReturnsItemsIntact(t *testing.T) {
	r := NewRegistry(time.Minute)
	defer r.Close()

	item := wire.GroupKeyServerOutput{
		GroupKeyID:                 "group-7",
		EncryptedGroupKeyByUserKey: "d2hhdGV2ZXI=",
		PublicGroupKey:             `{"pem":"...","alg":"ECIES-ed25519","id":"pk-7"}`,
		Time:                       42,
	}
	id := r.Start([][]wire.GroupKeyServerOutput{{item}})

	batch, done, ok := r.Next(id, 1)
	require.True(t, ok)
	assert.True(t, done)
	require.Len(t, batch, 1)
	assert.Equal(t, item, batch[0])
}
