// Package group implements the group key engine: creation of a group
// key bundle, decrypting a bundle a member was invited into, inviting
// new members (batched through package keysession once the bundle
// count crosses the server-signalled threshold), and key rotation.
package group

import (
	"encoding/base64"

	"github.com/pandayo-labs/veilsdk/keycodec"
	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/vaulterr"
	"github.com/pandayo-labs/veilsdk/wire"
)

// BatchThreshold is the bundle count above which Invite hands the
// remaining bundles to a key session instead of the inline batch.
const BatchThreshold = 50

// KeyBundle is a single group key generation: its symmetric content
// key, its encryption keypair, and — for user-groups — its mandatory
// signing keypair.
type KeyBundle struct {
	GroupKeyID string
	Key        primitive.SymmetricKey
	Secret     primitive.SecretKey
	Public     primitive.PublicKey
	Sign       *primitive.SignKey
	Verify     *primitive.VerifyKey
	Time       int64
}

// Create generates a fresh KeyBundle and wraps its private (and, if
// withSign, sign) key under the bundle's own symmetric key, then wraps
// that symmetric key under the creator's public key so the creator can
// recover the bundle immediately.
func Create(creatorPub primitive.PublicKey, withSign bool) (KeyBundle, wire.CreateData, error) {
	bundle, err := generateBundle(withSign)
	if err != nil {
		return KeyBundle{}, wire.CreateData{}, err
	}

	data, err := wrapForRecipient(bundle, creatorPub)
	if err != nil {
		return KeyBundle{}, wire.CreateData{}, err
	}

	return bundle, wire.CreateData{
		EncryptedGroupKeyByUserKey: data.wrappedGroupKey,
		PublicGroupKey:             data.publicGroupKey,
		EncryptedPrivateGroupKey:   data.encryptedPrivateKey,
		EncryptedSignKey:           data.encryptedSignKey,
		VerifyKey:                  data.verifyKey,
		CreatorPublicKeyID:         creatorPub.ID,
	}, nil
}

func generateBundle(withSign bool) (KeyBundle, error) {
	key, err := primitive.GenerateSymmetricKey()
	if err != nil {
		return KeyBundle{}, err
	}

	kem := primitive.DefaultKEM()
	secret, public, err := kem.GenerateKeyPair()
	if err != nil {
		return KeyBundle{}, err
	}

	bundle := KeyBundle{Key: key, Secret: secret, Public: public}

	if withSign {
		signer := primitive.DefaultSigner()
		signKey, verifyKey, err := signer.GenerateKeyPair()
		if err != nil {
			return KeyBundle{}, err
		}
		bundle.Sign = &signKey
		bundle.Verify = &verifyKey
	}

	return bundle, nil
}

// wrappedBundle is the set of textually-encoded fields shared by every
// wire shape that delivers a KeyBundle to a recipient.
type wrappedBundle struct {
	wrappedGroupKey     string
	publicGroupKey      string
	encryptedPrivateKey string
	encryptedSignKey    string
	verifyKey           string
}

func wrapForRecipient(bundle KeyBundle, recipientPub primitive.PublicKey) (wrappedBundle, error) {
	kem, err := primitive.KEMByTag(recipientPub.Alg)
	if err != nil {
		return wrappedBundle{}, err
	}
	wrappedKey, err := kem.Wrap(recipientPub, bundle.Key.Raw)
	if err != nil {
		return wrappedBundle{}, err
	}

	encPriv, err := primitive.SealSymmetric(bundle.Key, nil, bundle.Secret.Raw)
	if err != nil {
		return wrappedBundle{}, err
	}

	publicEnc, err := keycodec.EncodePublicKey(bundle.Public)
	if err != nil {
		return wrappedBundle{}, err
	}

	out := wrappedBundle{
		wrappedGroupKey:     base64.StdEncoding.EncodeToString(wrappedKey),
		publicGroupKey:      publicEnc,
		encryptedPrivateKey: base64.StdEncoding.EncodeToString(encPriv),
	}

	if bundle.Sign != nil {
		encSign, err := primitive.SealSymmetric(bundle.Key, nil, bundle.Sign.Raw)
		if err != nil {
			return wrappedBundle{}, err
		}
		verifyEnc, err := keycodec.EncodeVerifyKey(*bundle.Verify)
		if err != nil {
			return wrappedBundle{}, err
		}
		out.encryptedSignKey = base64.StdEncoding.EncodeToString(encSign)
		out.verifyKey = verifyEnc
	}

	return out, nil
}

// DecryptFromCreate recovers the KeyBundle a creator just produced,
// using the creator's own SecretKey to undo the public-key wrap.
func DecryptFromCreate(sec primitive.SecretKey, data wire.CreateData) (KeyBundle, error) {
	return decryptBundle(sec, data.EncryptedGroupKeyByUserKey, data.PublicGroupKey, data.EncryptedPrivateGroupKey, data.EncryptedSignKey, data.VerifyKey)
}

// DecryptFromUserKey recovers a KeyBundle delivered at login, wrapped
// under the device's public key the same way an invited member's
// bundle is.
func DecryptFromUserKey(sec primitive.SecretKey, data wire.UserKeyData) (KeyBundle, error) {
	bundle, err := decryptBundle(sec, data.EncryptedGroupKey, data.PublicKey, data.EncryptedPrivateKey, data.EncryptedSignKey, data.VerifyKey)
	if err != nil {
		return KeyBundle{}, err
	}
	bundle.GroupKeyID = data.GroupKeyID
	bundle.Time = data.Time
	return bundle, nil
}

// DecryptFromInvite recovers a KeyBundle delivered through the invite
// flow below.
func DecryptFromInvite(sec primitive.SecretKey, data wire.GroupKeyServerOutput) (KeyBundle, error) {
	bundle, err := decryptBundle(sec, data.EncryptedGroupKeyByUserKey, data.PublicGroupKey, data.EncryptedPrivateGroupKey, data.EncryptedSignKey, data.VerifyKey)
	if err != nil {
		return KeyBundle{}, err
	}
	bundle.GroupKeyID = data.GroupKeyID
	bundle.Time = data.Time
	return bundle, nil
}

func decryptBundle(sec primitive.SecretKey, wrappedGroupKeyB64, publicGroupKeyEnc, encryptedPrivateKeyB64, encryptedSignKeyB64, verifyKeyEnc string) (KeyBundle, error) {
	wrapped, err := base64.StdEncoding.DecodeString(wrappedGroupKeyB64)
	if err != nil {
		return KeyBundle{}, vaulterr.DecodeSymKeyFailed(err)
	}
	kem, err := primitive.KEMByTag(sec.Alg)
	if err != nil {
		return KeyBundle{}, err
	}
	groupKeyRaw, err := kem.Unwrap(sec, wrapped)
	if err != nil {
		return KeyBundle{}, vaulterr.KeyDecryptFailed(err)
	}
	groupKey := primitive.SymmetricKey{Alg: primitive.AlgAESGCM256, Raw: groupKeyRaw}

	public, err := keycodec.DecodePublicKey(publicGroupKeyEnc)
	if err != nil {
		return KeyBundle{}, err
	}

	encPriv, err := base64.StdEncoding.DecodeString(encryptedPrivateKeyB64)
	if err != nil {
		return KeyBundle{}, vaulterr.DecodeSymKeyFailed(err)
	}
	privRaw, err := primitive.OpenSymmetric(groupKey, nil, encPriv)
	if err != nil {
		return KeyBundle{}, vaulterr.KeyDecryptFailed(err)
	}

	bundle := KeyBundle{
		Key:    groupKey,
		Secret: primitive.SecretKey{Alg: public.Alg, Raw: privRaw, ID: public.ID},
		Public: public,
	}

	if encryptedSignKeyB64 != "" {
		encSign, err := base64.StdEncoding.DecodeString(encryptedSignKeyB64)
		if err != nil {
			return KeyBundle{}, vaulterr.DecodeSymKeyFailed(err)
		}
		signRaw, err := primitive.OpenSymmetric(groupKey, nil, encSign)
		if err != nil {
			return KeyBundle{}, vaulterr.KeyDecryptFailed(err)
		}
		verify, err := keycodec.DecodeVerifyKey(verifyKeyEnc)
		if err != nil {
			return KeyBundle{}, err
		}
		signKey := primitive.SignKey{Alg: verify.Alg, Raw: signRaw, ID: verify.ID}
		bundle.Sign = &signKey
		bundle.Verify = &verify
	}

	return bundle, nil
}

// InviteBatch is the first (inline) batch of rewrapped bundles
// produced by Invite, plus a session id when more batches remain.
type InviteBatch struct {
	Bundles   []wire.GroupKeyServerOutput
	SessionID string
	Remaining int
}

// keySessionStarter is satisfied by package keysession's Registry; kept
// as a narrow interface here so group never imports keysession's
// concrete type, only the capability it needs.
type keySessionStarter interface {
	Start(batches [][]wire.GroupKeyServerOutput) string
}

// Invite rewraps every bundle in bundles under invitee's public key.
// When the bundle count exceeds BatchThreshold, the first batch is
// returned inline and the rest are registered with sessions (if
// non-nil) for later upload under the returned session id.
func Invite(bundles []KeyBundle, invitee primitive.PublicKey, sessions keySessionStarter) (InviteBatch, error) {
	outputs := make([]wire.GroupKeyServerOutput, 0, len(bundles))
	for _, bundle := range bundles {
		wrapped, err := wrapForRecipient(bundle, invitee)
		if err != nil {
			return InviteBatch{}, err
		}
		outputs = append(outputs, wire.GroupKeyServerOutput{
			GroupKeyID:                 bundle.GroupKeyID,
			EncryptedGroupKeyByUserKey: wrapped.wrappedGroupKey,
			PublicGroupKey:             wrapped.publicGroupKey,
			EncryptedPrivateGroupKey:   wrapped.encryptedPrivateKey,
			EncryptedSignKey:           wrapped.encryptedSignKey,
			VerifyKey:                  wrapped.verifyKey,
			Time:                       bundle.Time,
		})
	}

	if len(outputs) <= BatchThreshold {
		return InviteBatch{Bundles: outputs}, nil
	}

	first, rest := outputs[:BatchThreshold], outputs[BatchThreshold:]
	batch := InviteBatch{Bundles: first, Remaining: len(rest)}
	if sessions != nil {
		batches := chunk(rest, BatchThreshold)
		batch.SessionID = sessions.Start(batches)
	}
	return batch, nil
}

func chunk(items []wire.GroupKeyServerOutput, size int) [][]wire.GroupKeyServerOutput {
	var out [][]wire.GroupKeyServerOutput
	for len(items) > 0 {
		n := size
		if n > len(items) {
			n = len(items)
		}
		out = append(out, items[:n])
		items = items[n:]
	}
	return out
}

// Rotate produces a new KeyBundle and wraps its symmetric key both
// under the previous bundle's key (for online members) and under
// ownerPub (for offline invitees who haven't fetched the previous key
// yet), per the dual-wrap rotation design.
func Rotate(previous KeyBundle, ownerPub primitive.PublicKey) (KeyBundle, wire.KeyRotationInput, error) {
	withSign := previous.Sign != nil
	next, err := generateBundle(withSign)
	if err != nil {
		return KeyBundle{}, wire.KeyRotationInput{}, err
	}

	wrappedByOwner, err := wrapForRecipient(next, ownerPub)
	if err != nil {
		return KeyBundle{}, wire.KeyRotationInput{}, err
	}

	wrappedByPrevious, err := primitive.SealSymmetric(previous.Key, nil, next.Key.Raw)
	if err != nil {
		return KeyBundle{}, wire.KeyRotationInput{}, err
	}

	input := wire.KeyRotationInput{
		EncryptedGroupKeyByUserKey:          wrappedByOwner.wrappedGroupKey,
		EncryptedGroupKeyByPreviousGroupKey: base64.StdEncoding.EncodeToString(wrappedByPrevious),
		PublicGroupKey:                      wrappedByOwner.publicGroupKey,
		EncryptedPrivateGroupKey:            wrappedByOwner.encryptedPrivateKey,
		EncryptedSignKey:                    wrappedByOwner.encryptedSignKey,
		VerifyKey:                           wrappedByOwner.verifyKey,
		PreviousGroupKeyID:                  previous.GroupKeyID,
	}
	return next, input, nil
}

// DoneKeyRotation recovers a rotated KeyBundle using the previous
// bundle's still-held symmetric key, the path taken by a member who
// was already online at rotation time.
func DoneKeyRotation(previous KeyBundle, out wire.KeyRotationServerOutput) (KeyBundle, error) {
	wrapped, err := base64.StdEncoding.DecodeString(out.EncryptedGroupKeyByPreviousGroupKey)
	if err != nil {
		return KeyBundle{}, vaulterr.DecodeSymKeyFailed(err)
	}
	groupKeyRaw, err := primitive.OpenSymmetric(previous.Key, nil, wrapped)
	if err != nil {
		return KeyBundle{}, vaulterr.KeyDecryptFailed(err)
	}
	groupKey := primitive.SymmetricKey{Alg: primitive.AlgAESGCM256, Raw: groupKeyRaw, ID: out.NewGroupKeyID}

	public, err := keycodec.DecodePublicKey(out.PublicGroupKey)
	if err != nil {
		return KeyBundle{}, err
	}

	encPriv, err := base64.StdEncoding.DecodeString(out.EncryptedPrivateGroupKey)
	if err != nil {
		return KeyBundle{}, vaulterr.DecodeSymKeyFailed(err)
	}
	privRaw, err := primitive.OpenSymmetric(groupKey, nil, encPriv)
	if err != nil {
		return KeyBundle{}, vaulterr.KeyDecryptFailed(err)
	}

	bundle := KeyBundle{
		GroupKeyID: out.NewGroupKeyID,
		Key:        groupKey,
		Secret:     primitive.SecretKey{Alg: public.Alg, Raw: privRaw, ID: public.ID},
		Public:     public,
		Time:       out.Time,
	}

	if out.EncryptedSignKey != "" {
		encSign, err := base64.StdEncoding.DecodeString(out.EncryptedSignKey)
		if err != nil {
			return KeyBundle{}, vaulterr.DecodeSymKeyFailed(err)
		}
		signRaw, err := primitive.OpenSymmetric(groupKey, nil, encSign)
		if err != nil {
			return KeyBundle{}, vaulterr.KeyDecryptFailed(err)
		}
		verify, err := keycodec.DecodeVerifyKey(out.VerifyKey)
		if err != nil {
			return KeyBundle{}, err
		}
		signKey := primitive.SignKey{Alg: verify.Alg, Raw: signRaw, ID: verify.ID}
		bundle.Sign = &signKey
		bundle.Verify = &verify
	}

	return bundle, nil
}
