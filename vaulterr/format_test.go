package vaulterr

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFormatted(t *testing.T, s string) out {
	t.Helper()
	var o out
	require.NoError(t, json.Unmarshal([]byte(s), &o))
	return o
}

func TestFormatClientError(t *testing.T) {
	o := parseFormatted(t, Format(SigFoundNotKey()))
	assert.Equal(t, "client_18", o.Status)
	assert.Equal(t, "A signature was found but no verify key was supplied", o.ErrorMessage)
}

func TestFormatServerError(t *testing.T) {
	o := parseFormatted(t, Format(ServerErr(401, "jwt expired")))
	assert.Equal(t, "server_401", o.Status)
	assert.Equal(t, "jwt expired", o.ErrorMessage)
}

func TestFormatForeignError(t *testing.T) {
	o := parseFormatted(t, Format(errors.New("plain error")))
	assert.Equal(t, "client_0", o.Status)
	assert.Equal(t, "plain error", o.ErrorMessage)
}

func TestFormatWrappedCauseKeepsKindMessage(t *testing.T) {
	cause := errors.New("cipher: message authentication failed")
	err := KeyDecryptFailed(cause)
	assert.ErrorIs(t, err, cause)

	o := parseFormatted(t, Format(err))
	assert.Equal(t, "client_20", o.Status)
}

func TestAsMatchesKind(t *testing.T) {
	assert.True(t, As(VerifyFailed(), KindVerifyFailed))
	assert.False(t, As(VerifyFailed(), KindAlgNotFound))
	assert.False(t, As(errors.New("x"), KindVerifyFailed))
}
