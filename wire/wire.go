// Package wire holds the JSON request/response shapes exchanged with
// the server collaborator. Every field that carries key material is a
// string: the already textually-encoded (PEM-JSON or base64-JSON)
// output of package keycodec, or the combined-bytes string framing of
// package envelope. Nothing in this package touches key bytes itself.
package wire

// DeviceKeyData is the per-device half of a login/register response:
// the device's own master-key wrapping and its encryption/sign keypair.
type DeviceKeyData struct {
	EncryptedMasterKey string `json:"encrypted_master_key"`
	EncryptedPrivateKey string `json:"encrypted_private_key"`
	EncryptedSignKey    string `json:"encrypted_sign_key"`
	PublicKey           string `json:"public_key"`
	VerifyKey           string `json:"verify_key"`
	DerivedAlg          string `json:"derived_alg"`
	ClientRandomValue   string `json:"client_random_value"`
	HashedAuthenticationKey string `json:"hashed_authentication_key,omitempty"`
}

// UserKeyData is one user-group key bundle as returned by login: the
// group key wrapped under the device's public key, and the group
// keypair (and mandatory sign keypair) wrapped under that group key.
type UserKeyData struct {
	GroupKeyID          string `json:"group_key_id"`
	PublicKey           string `json:"public_key"`
	VerifyKey           string `json:"verify_key"`
	EncryptedPrivateKey string `json:"encrypted_private_key"`
	EncryptedSignKey    string `json:"encrypted_sign_key"`
	EncryptedGroupKey   string `json:"encrypted_group_key"`
	Time                int64  `json:"time"`
}

// HMACKeyServerOutput is a searchable-encryption key wrapped under a
// user-group key, delivered alongside login the same way user keys are.
type HMACKeyServerOutput struct {
	ID           string `json:"id"`
	EncryptedKey string `json:"encrypted_key"`
	GroupKeyID   string `json:"group_key_id"`
	Time         int64  `json:"time"`
}

// UserDeviceRegisterInput is the device half of RegisterData: a fresh
// device master key wrapping plus the device's own encryption/sign
// keypair, all produced by the credential engine's register step.
type UserDeviceRegisterInput struct {
	DeviceIdentifier        string `json:"device_identifier"`
	PublicKey               string `json:"public_key"`
	VerifyKey               string `json:"verify_key"`
	EncryptedMasterKey      string `json:"encrypted_master_key"`
	EncryptedPrivateKey     string `json:"encrypted_private_key"`
	EncryptedSignKey        string `json:"encrypted_sign_key"`
	DerivedAlg              string `json:"derived_alg"`
	ClientRandomValue       string `json:"client_random_value"`
	HashedAuthenticationKey string `json:"hashed_authentication_key"`
}

// UserDeviceRegisterOutput acknowledges device storage.
type UserDeviceRegisterOutput struct {
	DeviceID string `json:"device_id"`
	UserID   string `json:"user_id"`
}

// UserDeviceRegisterDone is the server's confirmation that a
// previously started device registration was committed.
type UserDeviceRegisterDone struct {
	DeviceID string `json:"device_id"`
	Token    string `json:"token"`
}

// CreateData is the group-creation payload embedded in RegisterData:
// the account's first user-group key bundle, wrapped under the
// device's public key since no device master key exists to wrap
// under yet.
type CreateData struct {
	EncryptedGroupKeyByUserKey string `json:"encrypted_group_key_by_user_key"`
	PublicGroupKey             string `json:"public_group_key"`
	EncryptedPrivateGroupKey   string `json:"encrypted_private_group_key"`
	EncryptedSignKey           string `json:"encrypted_sign_key"`
	VerifyKey                  string `json:"verify_key"`
	CreatorPublicKeyID         string `json:"creator_public_key_id"`
	Time                       int64  `json:"time,omitempty"`
}

// RegisterData is the full register request body.
type RegisterData struct {
	Device UserDeviceRegisterInput `json:"device"`
	Group  CreateData              `json:"group"`
}

// DoneLoginServerOutput is the server's login response: device master
// key material, every user-group key bundle wrapped for the device,
// every searchable-encryption key, and a fresh token pair.
type DoneLoginServerOutput struct {
	DeviceKeys   DeviceKeyData         `json:"device_keys"`
	UserKeys     []UserKeyData         `json:"user_keys"`
	HmacKeys     []HMACKeyServerOutput `json:"hmac_keys"`
	Jwt          string                `json:"jwt"`
	RefreshToken string                `json:"refresh_token"`
}

// PrepareLoginServerInput requests the login salt material for a user
// identifier.
type PrepareLoginServerInput struct {
	UserIdentifier string `json:"user_identifier"`
}

// PrepareLoginServerOutput carries what the client needs to re-derive
// its auth key. KeyID is set only when the server has an active
// device keypair id to report; absent for brand-new accounts.
type PrepareLoginServerOutput struct {
	ClientRandomValue string `json:"client_random_value"`
	DerivedAlg        string `json:"derived_alg"`
	KeyID             string `json:"key_id,omitempty"`
}

// DoneLoginServerInput is the second login phase's request body: the
// full derived auth key (never the truncation) plus the device that is
// logging in.
type DoneLoginServerInput struct {
	AuthKey          string `json:"auth_key"`
	DeviceIdentifier string `json:"device_identifier"`
}

// UserIdentifierAvailableServerInput checks identifier availability
// before register.
type UserIdentifierAvailableServerInput struct {
	UserIdentifier string `json:"user_identifier"`
}

type UserIdentifierAvailableServerOutput struct {
	Available bool `json:"available"`
}

// UserIdentifierUpdateInput renames the account's identifier.
type UserIdentifierUpdateInput struct {
	NewUserIdentifier string `json:"new_user_identifier"`
}

// ChangePasswordData re-wraps the master key under a new password
// without touching the private/sign keys it wraps.
type ChangePasswordData struct {
	NewEncryptedMasterKey       string `json:"new_encrypted_master_key"`
	NewClientRandomValue        string `json:"new_client_random_value"`
	NewHashedAuthenticationKey  string `json:"new_hashed_authentication_key"`
	NewDerivedAlg               string `json:"new_derived_alg"`
	OldAuthKey                  string `json:"old_auth_key"`
}

// ResetPasswordData replaces every device key derived from the
// password, re-wrapping the caller-supplied (already decrypted)
// private and sign keys under a brand-new master key.
type ResetPasswordData struct {
	EncryptedMasterKey      string `json:"encrypted_master_key"`
	ClientRandomValue       string `json:"client_random_value"`
	HashedAuthenticationKey string `json:"hashed_authentication_key"`
	DerivedAlg              string `json:"derived_alg"`
	EncryptedPrivateKey     string `json:"encrypted_private_key"`
	EncryptedSignKey        string `json:"encrypted_sign_key"`
}

// UserDeviceRegisterStartInput begins enrolling a second device
// against an existing account.
type UserDeviceRegisterStartInput struct {
	DeviceIdentifier string `json:"device_identifier"`
}

// UserDeviceRegisterStartOutput hands back a short-lived token the
// client must present to prepare_register_device.
type UserDeviceRegisterStartOutput struct {
	Token string `json:"token"`
}

// GroupKeyServerOutput is one group key bundle as delivered to an
// invited/newly fetched member: the group keypair wrapped under the
// member's public key.
type GroupKeyServerOutput struct {
	GroupKeyID                 string `json:"group_key_id"`
	EncryptedGroupKeyByUserKey string `json:"encrypted_group_key_by_user_key"`
	PublicGroupKey             string `json:"public_group_key"`
	EncryptedPrivateGroupKey   string `json:"encrypted_private_group_key"`
	EncryptedSignKey           string `json:"encrypted_sign_key,omitempty"`
	VerifyKey                  string `json:"verify_key,omitempty"`
	Time                       int64  `json:"time"`
}

// KeyRotationInput is produced both by group key rotation and by
// device enrollment's re-wrap of the user-group key for a new device:
// in both cases a symmetric key is re-wrapped under a recipient key
// without regenerating it.
type KeyRotationInput struct {
	EncryptedGroupKeyByUserKey          string `json:"encrypted_group_key_by_user_key"`
	EncryptedGroupKeyByPreviousGroupKey string `json:"encrypted_group_key_by_previous_group_key,omitempty"`
	PublicGroupKey                      string `json:"public_group_key"`
	EncryptedPrivateGroupKey            string `json:"encrypted_private_group_key"`
	EncryptedSignKey                    string `json:"encrypted_sign_key,omitempty"`
	VerifyKey                           string `json:"verify_key,omitempty"`
	PreviousGroupKeyID                  string `json:"previous_group_key_id,omitempty"`
}

// KeyRotationServerOutput reports one rotation a client has not yet
// caught up to, fetched via done_key_rotation. The sign fields are set
// only for user-group rotations, whose bundles carry a sign pair.
type KeyRotationServerOutput struct {
	NewGroupKeyID                       string `json:"new_group_key_id"`
	EncryptedGroupKeyByPreviousGroupKey string `json:"encrypted_group_key_by_previous_group_key"`
	PublicGroupKey                      string `json:"public_group_key"`
	EncryptedPrivateGroupKey            string `json:"encrypted_private_group_key"`
	EncryptedSignKey                    string `json:"encrypted_sign_key,omitempty"`
	VerifyKey                           string `json:"verify_key,omitempty"`
	PreviousGroupKeyID                  string `json:"previous_group_key_id"`
	Time                                int64  `json:"time"`
}

// JwtRefreshInput requests a new JWT using a still-valid refresh token.
type JwtRefreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenReqInput is the device-scoped refresh variant: the
// server may invalidate a refresh token for every device but the one
// presenting it.
type RefreshTokenReqInput struct {
	RefreshToken     string `json:"refresh_token"`
	DeviceIdentifier string `json:"device_identifier,omitempty"`
}

// GeneratedSymKeyHeadServerInput registers a freshly wrapped content
// key with the server.
type GeneratedSymKeyHeadServerInput struct {
	Alg                 string `json:"alg"`
	EncryptedKeyString  string `json:"encrypted_key_string"`
	MasterKeyID         string `json:"master_key_id"`
}

// GeneratedSymKeyHeadServerOutput is the server's echo, now carrying
// the assigned key id and registration time.
type GeneratedSymKeyHeadServerOutput struct {
	Alg                string `json:"alg"`
	EncryptedKeyString string `json:"encrypted_key_string"`
	MasterKeyID        string `json:"master_key_id"`
	KeyID              string `json:"key_id"`
	Time               int64  `json:"time"`
}

// SymKeyFetchServerOutput is a page of registered content keys, with
// the cursor pair needed to request the next page: the resolved
// ordering is ascending Time, ties broken lexicographically by ID.
type SymKeyFetchServerOutput struct {
	Keys     []GeneratedSymKeyHeadServerOutput `json:"keys"`
	LastTime int64                             `json:"last_time"`
	LastID   string                            `json:"last_id"`
}
