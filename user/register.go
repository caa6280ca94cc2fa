// Package user implements the password-based credential engine:
// register, two-phase login, password change/reset, and device
// enrollment. Every operation here is synchronous and free of shared
// state; callers own the wire round-trip to the server collaborator.
package user

import (
	"encoding/base64"
	"time"

	"go.uber.org/zap"

	"github.com/pandayo-labs/veilsdk/group"
	"github.com/pandayo-labs/veilsdk/internal/logging"
	"github.com/pandayo-labs/veilsdk/internal/metrics"
	"github.com/pandayo-labs/veilsdk/keycodec"
	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/wire"
)

var log = logging.Named("user")

// DeviceKeys is the full set of key material a register, login, reset,
// or device enrollment produces for a single device.
type DeviceKeys struct {
	ClientRandomValue []byte
	MasterKey         primitive.SymmetricKey
	Secret            primitive.SecretKey
	Public            primitive.PublicKey
	Sign              primitive.SignKey
	Verify            primitive.VerifyKey
}

// generatedDevice is the raw material behind a freshly derived device,
// used identically by Register and PrepareRegisterDevice: everything
// finishDeviceRegisterInput needs to produce the wire body, plus the
// master-key-encryption-key and full auth key halves of the Argon2id
// output that produced it.
type generatedDevice struct {
	keys DeviceKeys
	mk   []byte
	auth []byte
}

// generateDevice runs the register-style key derivation: a fresh
// master key, a fresh encryption keypair, and a fresh sign keypair,
// plus the password-derived keys needed to wrap them.
func generateDevice(password string) (generatedDevice, error) {
	kdf := primitive.DefaultKDF()

	clientRandom, err := primitive.NewClientRandomValue()
	if err != nil {
		return generatedDevice{}, err
	}
	salt, err := kdf.GenerateSalt(clientRandom, "")
	if err != nil {
		return generatedDevice{}, err
	}
	mk, auth, err := kdf.Derive(password, salt)
	if err != nil {
		return generatedDevice{}, err
	}

	masterKey, err := primitive.GenerateSymmetricKey()
	if err != nil {
		return generatedDevice{}, err
	}

	kem := primitive.DefaultKEM()
	secret, public, err := kem.GenerateKeyPair()
	if err != nil {
		return generatedDevice{}, err
	}

	signer := primitive.DefaultSigner()
	signKey, verifyKey, err := signer.GenerateKeyPair()
	if err != nil {
		return generatedDevice{}, err
	}

	return generatedDevice{
		keys: DeviceKeys{
			ClientRandomValue: clientRandom,
			MasterKey:         masterKey,
			Secret:            secret,
			Public:            public,
			Sign:              signKey,
			Verify:            verifyKey,
		},
		mk:   mk,
		auth: auth,
	}, nil
}

// finishDeviceRegisterInput wraps a generated device's private/sign
// keys under its master key and its master key under the
// password-derived key, producing the wire register body.
func finishDeviceRegisterInput(deviceIdentifier string, gen generatedDevice, derivedAlg string) (wire.UserDeviceRegisterInput, error) {
	aead := primitive.DefaultAEAD()
	wrappedMaster, err := aead.Seal(gen.mk, nil, nil, gen.keys.MasterKey.Raw)
	if err != nil {
		return wire.UserDeviceRegisterInput{}, err
	}

	encPriv, err := primitive.SealSymmetric(gen.keys.MasterKey, nil, gen.keys.Secret.Raw)
	if err != nil {
		return wire.UserDeviceRegisterInput{}, err
	}
	encSign, err := primitive.SealSymmetric(gen.keys.MasterKey, nil, gen.keys.Sign.Raw)
	if err != nil {
		return wire.UserDeviceRegisterInput{}, err
	}

	publicEnc, err := keycodec.EncodePublicKey(gen.keys.Public)
	if err != nil {
		return wire.UserDeviceRegisterInput{}, err
	}
	verifyEnc, err := keycodec.EncodeVerifyKey(gen.keys.Verify)
	if err != nil {
		return wire.UserDeviceRegisterInput{}, err
	}

	return wire.UserDeviceRegisterInput{
		DeviceIdentifier:        deviceIdentifier,
		PublicKey:               publicEnc,
		VerifyKey:               verifyEnc,
		EncryptedMasterKey:      base64.StdEncoding.EncodeToString(wrappedMaster),
		EncryptedPrivateKey:     base64.StdEncoding.EncodeToString(encPriv),
		EncryptedSignKey:        base64.StdEncoding.EncodeToString(encSign),
		DerivedAlg:              derivedAlg,
		ClientRandomValue:       base64.StdEncoding.EncodeToString(gen.keys.ClientRandomValue),
		HashedAuthenticationKey: base64.StdEncoding.EncodeToString(gen.auth[:16]),
	}, nil
}

// RegisterResult is the full output of Register: the wire request body
// and every key the device now holds in decrypted form, ready for
// local use without a further server round trip.
type RegisterResult struct {
	Request   wire.RegisterData
	Device    DeviceKeys
	UserGroup group.KeyBundle
}

// Register derives a new account's device master key from a plaintext
// password and creates the account's first user-group key bundle.
func Register(deviceIdentifier, password string) (RegisterResult, error) {
	start := time.Now()
	gen, err := generateDevice(password)
	if err != nil {
		log.Warn("register: key generation failed", zap.Error(err))
		return RegisterResult{}, err
	}

	kdf := primitive.DefaultKDF()
	device, err := finishDeviceRegisterInput(deviceIdentifier, gen, string(kdf.Tag()))
	if err != nil {
		return RegisterResult{}, err
	}

	userGroup, createData, err := group.Create(gen.keys.Public, true)
	if err != nil {
		log.Error("register: group create failed", zap.Error(err))
		metrics.CryptoErrors.WithLabelValues("register").Inc()
		return RegisterResult{}, err
	}

	metrics.CryptoOperations.WithLabelValues("register", string(kdf.Tag())).Inc()
	metrics.CryptoOperationDuration.WithLabelValues("register", string(kdf.Tag())).Observe(time.Since(start).Seconds())
	log.Debug("register: produced device and user-group bundle", zap.String("device_identifier", deviceIdentifier))

	return RegisterResult{
		Request:   wire.RegisterData{Device: device, Group: createData},
		Device:    gen.keys,
		UserGroup: userGroup,
	}, nil
}
