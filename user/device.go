package user

import (
	"github.com/pandayo-labs/veilsdk/group"
	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/vaulterr"
	"github.com/pandayo-labs/veilsdk/wire"
)

// PrepareRegisterDeviceStart builds the request that begins enrolling
// a second device against an existing, already-logged-in account.
func PrepareRegisterDeviceStart(deviceIdentifier string) wire.UserDeviceRegisterStartInput {
	return wire.UserDeviceRegisterStartInput{DeviceIdentifier: deviceIdentifier}
}

// DoneRegisterDeviceStart validates the server's acknowledgement and
// returns the short-lived token the new device must present to
// PrepareRegisterDevice's caller out of band.
func DoneRegisterDeviceStart(out wire.UserDeviceRegisterStartOutput) (string, error) {
	if out.Token == "" {
		return "", vaulterr.LoginServerOutputWrong()
	}
	return out.Token, nil
}

// DeviceEnrollment is the result of PrepareRegisterDevice: the new
// device's own register body, and a KeyRotationInput-shaped payload
// carrying the existing user-group key re-wrapped for the new device.
type DeviceEnrollment struct {
	Device   wire.UserDeviceRegisterInput
	Rotation wire.KeyRotationInput
	Keys     DeviceKeys
}

// PrepareRegisterDevice derives a fresh device master key and keypair
// for the new device exactly as Register does, then re-wraps the
// caller's already-decrypted user-group bundle under the new device's
// public key so it can read group content immediately after enrolling.
func PrepareRegisterDevice(deviceIdentifier, password string, userGroup group.KeyBundle) (DeviceEnrollment, error) {
	gen, err := generateDevice(password)
	if err != nil {
		return DeviceEnrollment{}, err
	}

	kdf := primitive.DefaultKDF()
	device, err := finishDeviceRegisterInput(deviceIdentifier, gen, string(kdf.Tag()))
	if err != nil {
		return DeviceEnrollment{}, err
	}

	batch, err := group.Invite([]group.KeyBundle{userGroup}, gen.keys.Public, nil)
	if err != nil {
		return DeviceEnrollment{}, err
	}
	if len(batch.Bundles) != 1 {
		return DeviceEnrollment{}, vaulterr.LoginServerOutputWrong()
	}
	wrapped := batch.Bundles[0]

	rotation := wire.KeyRotationInput{
		EncryptedGroupKeyByUserKey: wrapped.EncryptedGroupKeyByUserKey,
		PublicGroupKey:             wrapped.PublicGroupKey,
		EncryptedPrivateGroupKey:   wrapped.EncryptedPrivateGroupKey,
		EncryptedSignKey:           wrapped.EncryptedSignKey,
		VerifyKey:                  wrapped.VerifyKey,
		PreviousGroupKeyID:         userGroup.GroupKeyID,
	}

	return DeviceEnrollment{Device: device, Rotation: rotation, Keys: gen.keys}, nil
}
