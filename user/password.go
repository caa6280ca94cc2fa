package user

import (
	"encoding/base64"

	"github.com/pandayo-labs/veilsdk/internal/metrics"
	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/vaulterr"
	"github.com/pandayo-labs/veilsdk/wire"
)

// ChangePassword re-wraps the device's existing master key under a
// freshly derived key from newPassword, without touching the
// private/sign keys the master key itself wraps. encryptedMasterKeyB64
// is the device's currently stored EncryptedMasterKey.
func ChangePassword(oldPassword, newPassword string, prep wire.PrepareLoginServerOutput, encryptedMasterKeyB64 string) (wire.ChangePasswordData, error) {
	kdf, err := primitive.KDFByTag(primitive.AlgTag(prep.DerivedAlg))
	if err != nil {
		return wire.ChangePasswordData{}, err
	}

	oldDerived, err := DeriveLogin(oldPassword, prep)
	if err != nil {
		return wire.ChangePasswordData{}, err
	}

	wrappedMaster, err := base64.StdEncoding.DecodeString(encryptedMasterKeyB64)
	if err != nil {
		return wire.ChangePasswordData{}, vaulterr.DecodeEncryptedDataFailed(err)
	}
	aead := primitive.DefaultAEAD()
	masterRaw, err := aead.Open(oldDerived.MasterKeyEncKey, nil, nil, wrappedMaster)
	if err != nil {
		return wire.ChangePasswordData{}, vaulterr.KeyDecryptFailed(err)
	}

	newClientRandom, err := primitive.NewClientRandomValue()
	if err != nil {
		return wire.ChangePasswordData{}, err
	}
	newSalt, err := kdf.GenerateSalt(newClientRandom, "")
	if err != nil {
		return wire.ChangePasswordData{}, err
	}
	newMk, newAuth, err := kdf.Derive(newPassword, newSalt)
	if err != nil {
		return wire.ChangePasswordData{}, err
	}
	newWrapped, err := aead.Seal(newMk, nil, nil, masterRaw)
	if err != nil {
		return wire.ChangePasswordData{}, err
	}

	metrics.CryptoOperations.WithLabelValues("change_password", string(kdf.Tag())).Inc()

	return wire.ChangePasswordData{
		NewEncryptedMasterKey:      base64.StdEncoding.EncodeToString(newWrapped),
		NewClientRandomValue:       base64.StdEncoding.EncodeToString(newClientRandom),
		NewHashedAuthenticationKey: base64.StdEncoding.EncodeToString(newAuth[:16]),
		NewDerivedAlg:              string(kdf.Tag()),
		OldAuthKey:                 base64.StdEncoding.EncodeToString(oldDerived.AuthKey),
	}, nil
}

// ResetPassword re-wraps caller-supplied, already-decrypted private
// and sign keys under a brand-new master key derived from newPassword.
// It returns the new master key alongside the wire payload since
// group-key wrappings keyed by the device's public key are untouched
// by a password reset.
func ResetPassword(newPassword string, secret primitive.SecretKey, signKey primitive.SignKey) (wire.ResetPasswordData, primitive.SymmetricKey, error) {
	kdf := primitive.DefaultKDF()

	clientRandom, err := primitive.NewClientRandomValue()
	if err != nil {
		return wire.ResetPasswordData{}, primitive.SymmetricKey{}, err
	}
	salt, err := kdf.GenerateSalt(clientRandom, "")
	if err != nil {
		return wire.ResetPasswordData{}, primitive.SymmetricKey{}, err
	}
	mk, auth, err := kdf.Derive(newPassword, salt)
	if err != nil {
		return wire.ResetPasswordData{}, primitive.SymmetricKey{}, err
	}

	masterKey, err := primitive.GenerateSymmetricKey()
	if err != nil {
		return wire.ResetPasswordData{}, primitive.SymmetricKey{}, err
	}

	aead := primitive.DefaultAEAD()
	wrappedMaster, err := aead.Seal(mk, nil, nil, masterKey.Raw)
	if err != nil {
		return wire.ResetPasswordData{}, primitive.SymmetricKey{}, err
	}

	encPriv, err := primitive.SealSymmetric(masterKey, nil, secret.Raw)
	if err != nil {
		return wire.ResetPasswordData{}, primitive.SymmetricKey{}, err
	}
	encSign, err := primitive.SealSymmetric(masterKey, nil, signKey.Raw)
	if err != nil {
		return wire.ResetPasswordData{}, primitive.SymmetricKey{}, err
	}

	metrics.CryptoOperations.WithLabelValues("reset_password", string(kdf.Tag())).Inc()

	return wire.ResetPasswordData{
		EncryptedMasterKey:      base64.StdEncoding.EncodeToString(wrappedMaster),
		ClientRandomValue:       base64.StdEncoding.EncodeToString(clientRandom),
		HashedAuthenticationKey: base64.StdEncoding.EncodeToString(auth[:16]),
		DerivedAlg:              string(kdf.Tag()),
		EncryptedPrivateKey:     base64.StdEncoding.EncodeToString(encPriv),
		EncryptedSignKey:        base64.StdEncoding.EncodeToString(encSign),
	}, masterKey, nil
}
