package user

import (
	"encoding/base64"
	"time"

	"go.uber.org/zap"

	"github.com/pandayo-labs/veilsdk/group"
	"github.com/pandayo-labs/veilsdk/internal/metrics"
	"github.com/pandayo-labs/veilsdk/keycodec"
	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/vaulterr"
	"github.com/pandayo-labs/veilsdk/wire"
)

// PrepareLogin builds the first-phase login request: just the user
// identifier, so the server can look up its stored ClientRandomValue.
func PrepareLogin(userIdentifier string) wire.PrepareLoginServerInput {
	return wire.PrepareLoginServerInput{UserIdentifier: userIdentifier}
}

// LoginDerived holds the two password-derived secrets needed to finish
// login: the full auth key sent to the server, and the master-key
// encryption key kept client-side to unwrap the master key.
type LoginDerived struct {
	AuthKey         []byte
	MasterKeyEncKey []byte
}

// DeriveLogin re-derives (master_key_encryption_key, auth_key) from the
// password and the server's prepare-login response.
func DeriveLogin(password string, out wire.PrepareLoginServerOutput) (LoginDerived, error) {
	kdf, err := primitive.KDFByTag(primitive.AlgTag(out.DerivedAlg))
	if err != nil {
		return LoginDerived{}, err
	}

	clientRandom, err := base64.StdEncoding.DecodeString(out.ClientRandomValue)
	if err != nil {
		return LoginDerived{}, vaulterr.DecodeRandomValueFailed(err)
	}
	salt, err := kdf.GenerateSalt(clientRandom, "")
	if err != nil {
		return LoginDerived{}, err
	}
	mk, auth, err := kdf.Derive(password, salt)
	if err != nil {
		return LoginDerived{}, err
	}
	return LoginDerived{AuthKey: auth, MasterKeyEncKey: mk}, nil
}

// DoneLoginInput builds the second-phase login request body.
func DoneLoginInput(deviceIdentifier string, derived LoginDerived) wire.DoneLoginServerInput {
	return wire.DoneLoginServerInput{
		AuthKey:          base64.StdEncoding.EncodeToString(derived.AuthKey),
		DeviceIdentifier: deviceIdentifier,
	}
}

// LoginResult is everything a successful done-login recovers: the
// device's own key material, every user-group bundle the device
// hasn't fetched before, every searchable-encryption key, and the
// fresh token pair.
type LoginResult struct {
	Device       DeviceKeys
	UserGroups   []group.KeyBundle
	HmacKeys     []primitive.SearchableKey
	Jwt          string
	RefreshToken string
}

func validateDoneLoginOutput(out wire.DoneLoginServerOutput) error {
	d := out.DeviceKeys
	if d.EncryptedMasterKey == "" || d.EncryptedPrivateKey == "" || d.EncryptedSignKey == "" ||
		d.PublicKey == "" || d.VerifyKey == "" || out.Jwt == "" {
		return vaulterr.LoginServerOutputWrong()
	}
	return nil
}

// DoneLogin unwraps the master key with the client-held
// MasterKeyEncKey, then the device's private and sign keys with the
// master key, then every user-group bundle and searchable key the
// server delivered, completing login.
func DoneLogin(derived LoginDerived, out wire.DoneLoginServerOutput) (LoginResult, error) {
	start := time.Now()
	if err := validateDoneLoginOutput(out); err != nil {
		log.Warn("login: malformed server output")
		metrics.CryptoErrors.WithLabelValues("login").Inc()
		return LoginResult{}, err
	}

	aead := primitive.DefaultAEAD()

	wrappedMaster, err := base64.StdEncoding.DecodeString(out.DeviceKeys.EncryptedMasterKey)
	if err != nil {
		return LoginResult{}, vaulterr.DecodeEncryptedDataFailed(err)
	}
	masterRaw, err := aead.Open(derived.MasterKeyEncKey, nil, nil, wrappedMaster)
	if err != nil {
		return LoginResult{}, vaulterr.KeyDecryptFailed(err)
	}
	masterKey := primitive.SymmetricKey{Alg: primitive.AlgAESGCM256, Raw: masterRaw}

	public, err := keycodec.DecodePublicKey(out.DeviceKeys.PublicKey)
	if err != nil {
		return LoginResult{}, err
	}
	verify, err := keycodec.DecodeVerifyKey(out.DeviceKeys.VerifyKey)
	if err != nil {
		return LoginResult{}, err
	}

	encPriv, err := base64.StdEncoding.DecodeString(out.DeviceKeys.EncryptedPrivateKey)
	if err != nil {
		return LoginResult{}, vaulterr.DecodeEncryptedDataFailed(err)
	}
	privRaw, err := primitive.OpenSymmetric(masterKey, nil, encPriv)
	if err != nil {
		return LoginResult{}, vaulterr.KeyDecryptFailed(err)
	}

	encSign, err := base64.StdEncoding.DecodeString(out.DeviceKeys.EncryptedSignKey)
	if err != nil {
		return LoginResult{}, vaulterr.DecodeEncryptedDataFailed(err)
	}
	signRaw, err := primitive.OpenSymmetric(masterKey, nil, encSign)
	if err != nil {
		return LoginResult{}, vaulterr.KeyDecryptFailed(err)
	}

	device := DeviceKeys{
		MasterKey: masterKey,
		Secret:    primitive.SecretKey{Alg: public.Alg, Raw: privRaw, ID: public.ID},
		Public:    public,
		Sign:      primitive.SignKey{Alg: verify.Alg, Raw: signRaw, ID: verify.ID},
		Verify:    verify,
	}

	userGroups := make([]group.KeyBundle, 0, len(out.UserKeys))
	for _, uk := range out.UserKeys {
		bundle, err := group.DecryptFromUserKey(device.Secret, uk)
		if err != nil {
			return LoginResult{}, err
		}
		userGroups = append(userGroups, bundle)
	}

	hmacKeys := make([]primitive.SearchableKey, 0, len(out.HmacKeys))
	for _, hk := range out.HmacKeys {
		var groupKey *primitive.SymmetricKey
		for i := range userGroups {
			if userGroups[i].GroupKeyID == hk.GroupKeyID {
				groupKey = &userGroups[i].Key
				break
			}
		}
		if groupKey == nil {
			return LoginResult{}, vaulterr.LoginServerOutputWrong()
		}
		wrapped, err := base64.StdEncoding.DecodeString(hk.EncryptedKey)
		if err != nil {
			return LoginResult{}, vaulterr.DecodeEncryptedDataFailed(err)
		}
		raw, err := primitive.OpenSymmetric(*groupKey, nil, wrapped)
		if err != nil {
			return LoginResult{}, vaulterr.KeyDecryptFailed(err)
		}
		hmacKeys = append(hmacKeys, primitive.SearchableKey{Alg: primitive.AlgHMACSHA256, Raw: raw, ID: hk.ID})
	}

	metrics.CryptoOperations.WithLabelValues("login", string(masterKey.Alg)).Inc()
	metrics.CryptoOperationDuration.WithLabelValues("login", string(masterKey.Alg)).Observe(time.Since(start).Seconds())
	log.Debug("login: done", zap.Int("user_groups", len(userGroups)), zap.Int("hmac_keys", len(hmacKeys)))

	return LoginResult{
		Device:       device,
		UserGroups:   userGroups,
		HmacKeys:     hmacKeys,
		Jwt:          out.Jwt,
		RefreshToken: out.RefreshToken,
	}, nil
}

// DoneLoginReturningUserOut is DoneLogin, trimmed to what a session
// that only needs the account's group keys (not the raw device keys)
// should hold on to.
func DoneLoginReturningUserOut(derived LoginDerived, out wire.DoneLoginServerOutput) ([]group.KeyBundle, []primitive.SearchableKey, string, error) {
	result, err := DoneLogin(derived, out)
	if err != nil {
		return nil, nil, "", err
	}
	return result.UserGroups, result.HmacKeys, result.Jwt, nil
}

// DoneLoginReturningDeviceOut is DoneLogin, trimmed to the device's own
// key material plus the token pair — the shape a device-management UI
// needs without touching any group key.
func DoneLoginReturningDeviceOut(derived LoginDerived, out wire.DoneLoginServerOutput) (DeviceKeys, string, string, error) {
	result, err := DoneLogin(derived, out)
	if err != nil {
		return DeviceKeys{}, "", "", err
	}
	return result.Device, result.Jwt, result.RefreshToken, nil
}
