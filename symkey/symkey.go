// Package symkey implements symmetric content-key distribution: minting
// a fresh content SymmetricKey, wrapping it under a master key (or a
// recipient's public key), and reversing that wrap once the server has
// assigned the wrapped key an id.
package symkey

import (
	"encoding/base64"
	"sort"

	"github.com/pandayo-labs/veilsdk/envelope"
	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/vaulterr"
	"github.com/pandayo-labs/veilsdk/wire"
)

// PreparedSymKey is the result of generating and wrapping a fresh
// content key: the server input to register it, and the raw key for
// immediate local use before the server has assigned it an id.
type PreparedSymKey struct {
	ServerInput wire.GeneratedSymKeyHeadServerInput
	Key         primitive.SymmetricKey
}

// PrepareRegisterSymKey generates a new content SymmetricKey, wraps it
// under master, and returns the server-input payload alongside the raw
// key for immediate local use.
func PrepareRegisterSymKey(master primitive.SymmetricKey) (PreparedSymKey, error) {
	key, err := primitive.GenerateSymmetricKey()
	if err != nil {
		return PreparedSymKey{}, err
	}

	wrapped, err := primitive.SealSymmetric(master, nil, key.Raw)
	if err != nil {
		return PreparedSymKey{}, err
	}

	return PreparedSymKey{
		ServerInput: wire.GeneratedSymKeyHeadServerInput{
			Alg:                string(key.Alg),
			EncryptedKeyString: base64.StdEncoding.EncodeToString(wrapped),
			MasterKeyID:        master.ID,
		},
		Key: key,
	}, nil
}

// PrepareRegisterSymKeyByPublicKey is PrepareRegisterSymKey, but wraps
// the content key via the hybrid KEM under pk instead of an AEAD
// master key.
func PrepareRegisterSymKeyByPublicKey(pk primitive.PublicKey) (PreparedSymKey, error) {
	key, err := primitive.GenerateSymmetricKey()
	if err != nil {
		return PreparedSymKey{}, err
	}

	kem, err := primitive.KEMByTag(pk.Alg)
	if err != nil {
		return PreparedSymKey{}, err
	}
	wrapped, err := kem.Wrap(pk, key.Raw)
	if err != nil {
		return PreparedSymKey{}, err
	}

	return PreparedSymKey{
		ServerInput: wire.GeneratedSymKeyHeadServerInput{
			Alg:                string(key.Alg),
			EncryptedKeyString: base64.StdEncoding.EncodeToString(wrapped),
			MasterKeyID:        pk.ID,
		},
		Key: key,
	}, nil
}

// DoneRegisterSymKey attaches the server-assigned id to a key that was
// prepared locally, so it can be tracked the same way a fetched key is.
func DoneRegisterSymKey(key primitive.SymmetricKey, out wire.GeneratedSymKeyHeadServerOutput) primitive.SymmetricKey {
	key.ID = out.KeyID
	return key
}

// DecryptSymKey reverses a master-key wrap, producing the usable
// content SymmetricKey with the server-assigned id attached.
func DecryptSymKey(master primitive.SymmetricKey, out wire.GeneratedSymKeyHeadServerOutput) (primitive.SymmetricKey, error) {
	wrapped, err := base64.StdEncoding.DecodeString(out.EncryptedKeyString)
	if err != nil {
		return primitive.SymmetricKey{}, vaulterr.DecodeSymKeyFailed(err)
	}
	raw, err := primitive.OpenSymmetric(master, nil, wrapped)
	if err != nil {
		return primitive.SymmetricKey{}, vaulterr.KeyDecryptFailed(err)
	}
	return primitive.SymmetricKey{Alg: primitive.AlgTag(out.Alg), Raw: raw, ID: out.KeyID}, nil
}

// DecryptSymKeyByPrivateKey reverses a public-key wrap using the
// matching SecretKey.
func DecryptSymKeyByPrivateKey(sec primitive.SecretKey, out wire.GeneratedSymKeyHeadServerOutput) (primitive.SymmetricKey, error) {
	wrapped, err := base64.StdEncoding.DecodeString(out.EncryptedKeyString)
	if err != nil {
		return primitive.SymmetricKey{}, vaulterr.DecodeSymKeyFailed(err)
	}
	kem, err := primitive.KEMByTag(sec.Alg)
	if err != nil {
		return primitive.SymmetricKey{}, err
	}
	raw, err := kem.Unwrap(sec, wrapped)
	if err != nil {
		return primitive.SymmetricKey{}, vaulterr.KeyDecryptFailed(err)
	}
	return primitive.SymmetricKey{Alg: primitive.AlgTag(out.Alg), Raw: raw, ID: out.KeyID}, nil
}

// DoneFetchSymKeys reverses a batch page of master-key-wrapped content
// keys and computes the cursor for the next page: ascending by Time,
// ties broken lexicographically by ID.
func DoneFetchSymKeys(master primitive.SymmetricKey, page wire.SymKeyFetchServerOutput) ([]primitive.SymmetricKey, int64, string, error) {
	sorted := make([]wire.GeneratedSymKeyHeadServerOutput, len(page.Keys))
	copy(sorted, page.Keys)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Time != sorted[j].Time {
			return sorted[i].Time < sorted[j].Time
		}
		return sorted[i].KeyID < sorted[j].KeyID
	})

	keys := make([]primitive.SymmetricKey, 0, len(sorted))
	for _, out := range sorted {
		key, err := DecryptSymKey(master, out)
		if err != nil {
			return nil, 0, "", err
		}
		keys = append(keys, key)
	}

	lastTime, lastID := page.LastTime, page.LastID
	if len(sorted) > 0 {
		lastTime = sorted[len(sorted)-1].Time
		lastID = sorted[len(sorted)-1].KeyID
	}
	return keys, lastTime, lastID, nil
}

// NonRegisteredSymKey is the output of generating a content key
// without any server round-trip: the caller holds both the raw key
// and its wrap ciphertext, to be registered later via
// PrepareRegisterSymKey-shaped input built from Wrapped.
type NonRegisteredSymKey struct {
	Key     primitive.SymmetricKey
	Wrapped []byte
	Head    envelope.Head
}

// GenerateNonRegisterSymKey mints a content key and wraps it under
// master without contacting the server.
func GenerateNonRegisterSymKey(master primitive.SymmetricKey) (NonRegisteredSymKey, error) {
	key, err := primitive.GenerateSymmetricKey()
	if err != nil {
		return NonRegisteredSymKey{}, err
	}
	wrapped, err := primitive.SealSymmetric(master, nil, key.Raw)
	if err != nil {
		return NonRegisteredSymKey{}, err
	}
	return NonRegisteredSymKey{Key: key, Wrapped: wrapped, Head: envelope.Head{ID: master.ID}}, nil
}

// GenerateNonRegisterSymKeyByPublicKey is GenerateNonRegisterSymKey,
// wrapping via the hybrid KEM under pk instead of an AEAD master key.
func GenerateNonRegisterSymKeyByPublicKey(pk primitive.PublicKey) (NonRegisteredSymKey, error) {
	key, err := primitive.GenerateSymmetricKey()
	if err != nil {
		return NonRegisteredSymKey{}, err
	}
	kem, err := primitive.KEMByTag(pk.Alg)
	if err != nil {
		return NonRegisteredSymKey{}, err
	}
	wrapped, err := kem.Wrap(pk, key.Raw)
	if err != nil {
		return NonRegisteredSymKey{}, err
	}
	return NonRegisteredSymKey{Key: key, Wrapped: wrapped, Head: envelope.Head{ID: pk.ID}}, nil
}
