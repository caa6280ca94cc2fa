package fakeserver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandayo-labs/veilsdk/fakeserver"
	"github.com/pandayo-labs/veilsdk/group"
	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/symkey"
	"github.com/pandayo-labs/veilsdk/user"
	"github.com/pandayo-labs/veilsdk/wire"
)

func register(t *testing.T, srv *fakeserver.Server, identifier, password string) user.RegisterResult {
	t.Helper()
	reg, err := user.Register(identifier, password)
	require.NoError(t, err)
	_, err = srv.Register(reg.Request)
	require.NoError(t, err)
	return reg
}

func TestCheckIdentifierAvailable(t *testing.T) {
	srv := fakeserver.New([]byte("secret"))

	out := srv.CheckIdentifierAvailable(wire.UserIdentifierAvailableServerInput{UserIdentifier: "admin"})
	assert.True(t, out.Available)

	register(t, srv, "admin", "12345")

	out = srv.CheckIdentifierAvailable(wire.UserIdentifierAvailableServerInput{UserIdentifier: "admin"})
	assert.False(t, out.Available)
}

func TestRegisterRejectsDuplicateIdentifier(t *testing.T) {
	srv := fakeserver.New([]byte("secret"))
	reg := register(t, srv, "admin", "12345")

	_, err := srv.Register(reg.Request)
	assert.Error(t, err)
}

func TestRefreshJwtRotatesToken(t *testing.T) {
	srv := fakeserver.New([]byte("secret"))
	register(t, srv, "admin", "12345")

	prepOut, err := srv.PrepareLogin(user.PrepareLogin("admin"))
	require.NoError(t, err)
	derived, err := user.DeriveLogin("12345", prepOut)
	require.NoError(t, err)
	doneOut, err := srv.DoneLogin(user.DoneLoginInput("admin", derived))
	require.NoError(t, err)

	jwt, refresh, err := srv.RefreshJwt(wire.JwtRefreshInput{RefreshToken: doneOut.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, jwt)
	assert.NotEmpty(t, refresh)

	// A refresh token is single-use.
	_, _, err = srv.RefreshJwt(wire.JwtRefreshInput{RefreshToken: doneOut.RefreshToken})
	assert.ErrorIs(t, err, fakeserver.ErrInvalidCredentials)
}

func TestUpdateIdentifier(t *testing.T) {
	srv := fakeserver.New([]byte("secret"))
	register(t, srv, "old-name", "12345")

	regOut, err := srv.PrepareLogin(user.PrepareLogin("old-name"))
	require.NoError(t, err)
	require.NotEmpty(t, regOut.KeyID)

	require.NoError(t, srv.UpdateIdentifier(regOut.KeyID, user.PrepareUserIdentifierUpdate("new-name")))

	_, err = srv.PrepareLogin(user.PrepareLogin("old-name"))
	assert.ErrorIs(t, err, fakeserver.ErrNotFound)
	_, err = srv.PrepareLogin(user.PrepareLogin("new-name"))
	assert.NoError(t, err)
}

func TestFetchSymKeysPaging(t *testing.T) {
	srv := fakeserver.New([]byte("secret"))

	master := wireTestMasterKey(t)
	registered := make(map[string]struct{})
	for i := 0; i < 5; i++ {
		prepared, err := symkey.PrepareRegisterSymKey(master)
		require.NoError(t, err)
		out := srv.RegisterSymKey(prepared.ServerInput)
		registered[out.KeyID] = struct{}{}
	}

	var fetched []string
	lastTime, lastID := int64(0), ""
	for {
		page := srv.FetchSymKeys(master.ID, lastTime, lastID, 2)
		if len(page.Keys) == 0 {
			break
		}
		keys, nextTime, nextID, err := symkey.DoneFetchSymKeys(master, page)
		require.NoError(t, err)
		for _, k := range keys {
			fetched = append(fetched, k.ID)
		}
		lastTime, lastID = nextTime, nextID
	}

	require.Len(t, fetched, 5)
	for _, id := range fetched {
		_, ok := registered[id]
		assert.True(t, ok)
	}
}

func TestKeyRotationFlow(t *testing.T) {
	srv := fakeserver.New([]byte("secret"))
	reg := register(t, srv, "admin", "12345")

	previous := reg.UserGroup
	previous.GroupKeyID = "initial"

	next, rotationIn, err := group.Rotate(previous, reg.Device.Public)
	require.NoError(t, err)

	newID, err := srv.KeyRotation("admin", rotationIn)
	require.NoError(t, err)
	require.NotEmpty(t, newID)

	// A member that only holds the previous key catches up through the
	// rotation fetch, without any per-user re-wrap.
	rotations, err := srv.FetchKeyRotations("admin", []string{"initial"})
	require.NoError(t, err)
	require.Len(t, rotations, 1)
	assert.Equal(t, newID, rotations[0].NewGroupKeyID)
	assert.Equal(t, "initial", rotations[0].PreviousGroupKeyID)

	advanced, err := group.DoneKeyRotation(previous, rotations[0])
	require.NoError(t, err)
	assert.Equal(t, next.Key.Raw, advanced.Key.Raw)

	// Once caught up, the fetch returns nothing.
	rotations, err = srv.FetchKeyRotations("admin", []string{"initial", newID})
	require.NoError(t, err)
	assert.Empty(t, rotations)
}

func wireTestMasterKey(t *testing.T) primitive.SymmetricKey {
	t.Helper()
	key, err := primitive.GenerateSymmetricKey()
	require.NoError(t, err)
	key.ID = "master-1"
	return key
}
