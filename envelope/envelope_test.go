package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineSplitRoundTrip(t *testing.T) {
	head := Head{ID: "key-1", Sign: &SignInfo{Alg: "Ed25519", ID: "sign-1"}}
	ciphertext := []byte("some ciphertext bytes")

	combined, err := Combine(head, ciphertext)
	require.NoError(t, err)

	gotHead, gotCiphertext, err := Split(combined)
	require.NoError(t, err)
	assert.Equal(t, head, gotHead)
	assert.Equal(t, ciphertext, gotCiphertext)
}

func TestCombineStringSplitStringRoundTrip(t *testing.T) {
	head := Head{ID: "key-2"}
	ciphertext := []byte("\x00\x01\x02binary")

	s, err := CombineString(head, ciphertext)
	require.NoError(t, err)

	gotHead, gotCiphertext, err := SplitString(s)
	require.NoError(t, err)
	assert.Equal(t, head, gotHead)
	assert.Equal(t, ciphertext, gotCiphertext)
}

func TestSplitRejectsUnknownVersion(t *testing.T) {
	combined, err := Combine(Head{ID: "k"}, []byte("ct"))
	require.NoError(t, err)
	combined[0] = 0x01

	_, _, err = Split(combined)
	assert.Error(t, err)
}

func TestSplitRejectsEmptyInput(t *testing.T) {
	_, _, err := Split(nil)
	assert.Error(t, err)
}

func TestSplitStringRejectsInvalidBase64(t *testing.T) {
	_, _, err := SplitString("not-valid-base64!!!")
	assert.Error(t, err)
}

func TestSplitRejectsTruncatedHead(t *testing.T) {
	combined, err := Combine(Head{ID: "this-id-is-long-enough-to-matter"}, []byte("ct"))
	require.NoError(t, err)

	_, _, err = Split(combined[:3])
	assert.Error(t, err)
}
