// Package fakeserver is an in-memory stand-in for the server
// collaborator. It implements just enough of
// the server contract to drive the full protocol end-to-end locally:
// user/device registration storage, constant-time HashedAuthKey
// comparison for login, key-id and key-session-id assignment, and JWT
// issuance/refresh.
//
// This package is not part of the core's public contract. It must
// never be imported by primitive, envelope, keycodec, content, symkey,
// user, or group — only by cmd/vaultctl and _test.go files.
package fakeserver

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pandayo-labs/veilsdk/internal/metrics"
	"github.com/pandayo-labs/veilsdk/wire"
)

// ErrNotFound is returned when a lookup by identifier, device id, or
// token finds nothing.
var ErrNotFound = errors.New("fakeserver: not found")

// ErrInvalidCredentials is returned when a login's auth key does not
// match the stored hash.
var ErrInvalidCredentials = errors.New("fakeserver: invalid credentials")

// deviceRecord stores one registered device. DeviceIdentifier doubles
// as the per-device login handle: this test double treats each device
// as having its own password, rather than modeling a separate
// per-account identifier layered on top.
type deviceRecord struct {
	deviceID string
	userID   string
	input    wire.UserDeviceRegisterInput
}

// groupKeyRecord is one group key bundle wrapped for one device. The
// same groupKeyID appears in several records when a key has been
// re-wrapped for additional devices; login only delivers the records
// wrapped for the device that is logging in.
type groupKeyRecord struct {
	groupKeyID string
	userID     string
	deviceID   string
	data       wire.CreateData
	time       int64
}

// rotationRecord stores one key rotation: the previous-key wrapping
// for members who still hold the old key, delivered via
// FetchKeyRotations until a client has caught up.
type rotationRecord struct {
	newGroupKeyID      string
	previousGroupKeyID string
	input              wire.KeyRotationInput
	time               int64
}

type symKeyRecord struct {
	keyID       string
	masterKeyID string
	alg         string
	encrypted   string
	time        int64
}

// Server is the full in-memory test double. Zero value is not usable;
// construct with New.
type Server struct {
	mu sync.Mutex

	jwtSecret []byte

	devicesByIdentifier map[string]*deviceRecord
	devicesByID         map[string]*deviceRecord
	groupKeysByUser     map[string][]*groupKeyRecord
	rotationsByUser     map[string][]*rotationRecord
	symKeysByMaster     map[string][]*symKeyRecord
	refreshTokens       map[string]string // token -> device id
	pendingDeviceTokens map[string]pendingDevice
}

type pendingDevice struct {
	userID           string
	deviceIdentifier string
}

// New constructs an empty server using jwtSecret to sign issued JWTs.
func New(jwtSecret []byte) *Server {
	return &Server{
		jwtSecret:           jwtSecret,
		devicesByIdentifier: make(map[string]*deviceRecord),
		devicesByID:         make(map[string]*deviceRecord),
		groupKeysByUser:     make(map[string][]*groupKeyRecord),
		rotationsByUser:     make(map[string][]*rotationRecord),
		symKeysByMaster:     make(map[string][]*symKeyRecord),
		refreshTokens:       make(map[string]string),
		pendingDeviceTokens: make(map[string]pendingDevice),
	}
}

// CheckIdentifierAvailable reports whether deviceIdentifier is free.
func (s *Server) CheckIdentifierAvailable(in wire.UserIdentifierAvailableServerInput) wire.UserIdentifierAvailableServerOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, taken := s.devicesByIdentifier[in.UserIdentifier]
	return wire.UserIdentifierAvailableServerOutput{Available: !taken}
}

// Register stores a brand-new account's first device and its initial
// user-group key bundle.
func (s *Server) Register(data wire.RegisterData) (wire.UserDeviceRegisterOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.devicesByIdentifier[data.Device.DeviceIdentifier]; taken {
		return wire.UserDeviceRegisterOutput{}, errors.New("fakeserver: identifier already registered")
	}

	userID := uuid.NewString()
	deviceID := uuid.NewString()
	dev := &deviceRecord{deviceID: deviceID, userID: userID, input: data.Device}
	s.devicesByIdentifier[data.Device.DeviceIdentifier] = dev
	s.devicesByID[deviceID] = dev

	s.groupKeysByUser[userID] = []*groupKeyRecord{{
		groupKeyID: uuid.NewString(),
		userID:     userID,
		deviceID:   deviceID,
		data:       data.Group,
		time:       time.Now().UnixMilli(),
	}}

	return wire.UserDeviceRegisterOutput{DeviceID: deviceID, UserID: userID}, nil
}

// PrepareLogin returns the salt material for a device identifier.
func (s *Server) PrepareLogin(in wire.PrepareLoginServerInput) (wire.PrepareLoginServerOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devicesByIdentifier[in.UserIdentifier]
	if !ok {
		return wire.PrepareLoginServerOutput{}, ErrNotFound
	}
	return wire.PrepareLoginServerOutput{
		ClientRandomValue: dev.input.ClientRandomValue,
		DerivedAlg:        dev.input.DerivedAlg,
		KeyID:             dev.deviceID,
	}, nil
}

// DoneLogin verifies the submitted auth key against the stored
// truncation in constant time and, on success, issues a token pair and
// every user-group bundle wrapped for the logging-in device.
func (s *Server) DoneLogin(in wire.DoneLoginServerInput) (wire.DoneLoginServerOutput, error) {
	s.mu.Lock()
	dev, ok := s.devicesByIdentifier[in.DeviceIdentifier]
	s.mu.Unlock()
	if !ok {
		metrics.Global.RecordLogin(false)
		return wire.DoneLoginServerOutput{}, ErrNotFound
	}

	authKey, err := base64.StdEncoding.DecodeString(in.AuthKey)
	if err != nil || len(authKey) < 16 {
		metrics.Global.RecordLogin(false)
		return wire.DoneLoginServerOutput{}, ErrInvalidCredentials
	}
	stored, err := base64.StdEncoding.DecodeString(dev.input.HashedAuthenticationKey)
	if err != nil {
		metrics.Global.RecordLogin(false)
		return wire.DoneLoginServerOutput{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare(authKey[:16], stored) != 1 {
		metrics.Global.RecordLogin(false)
		return wire.DoneLoginServerOutput{}, ErrInvalidCredentials
	}

	jwtStr, refresh, err := s.issueTokens(dev.deviceID)
	if err != nil {
		return wire.DoneLoginServerOutput{}, err
	}
	metrics.Global.RecordLogin(true)

	s.mu.Lock()
	records := s.groupKeysByUser[dev.userID]
	s.mu.Unlock()

	userKeys := make([]wire.UserKeyData, 0, len(records))
	for _, rec := range records {
		if rec.deviceID != dev.deviceID {
			continue
		}
		userKeys = append(userKeys, wire.UserKeyData{
			GroupKeyID:          rec.groupKeyID,
			PublicKey:           rec.data.PublicGroupKey,
			VerifyKey:           rec.data.VerifyKey,
			EncryptedPrivateKey: rec.data.EncryptedPrivateGroupKey,
			EncryptedSignKey:    rec.data.EncryptedSignKey,
			EncryptedGroupKey:   rec.data.EncryptedGroupKeyByUserKey,
			Time:                rec.time,
		})
	}

	return wire.DoneLoginServerOutput{
		DeviceKeys: wire.DeviceKeyData{
			EncryptedMasterKey:      dev.input.EncryptedMasterKey,
			EncryptedPrivateKey:     dev.input.EncryptedPrivateKey,
			EncryptedSignKey:        dev.input.EncryptedSignKey,
			PublicKey:               dev.input.PublicKey,
			VerifyKey:               dev.input.VerifyKey,
			DerivedAlg:              dev.input.DerivedAlg,
			ClientRandomValue:       dev.input.ClientRandomValue,
			HashedAuthenticationKey: dev.input.HashedAuthenticationKey,
		},
		UserKeys:     userKeys,
		HmacKeys:     nil,
		Jwt:          jwtStr,
		RefreshToken: refresh,
	}, nil
}

func (s *Server) issueTokens(deviceID string) (string, string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": deviceID,
		"iat": now.Unix(),
		"exp": now.Add(15 * time.Minute).Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", "", err
	}

	refresh := uuid.NewString()
	s.mu.Lock()
	s.refreshTokens[refresh] = deviceID
	s.mu.Unlock()

	return signed, refresh, nil
}

// RefreshJwt rotates a refresh token for a fresh token pair, per
// JwtRefreshInput.
func (s *Server) RefreshJwt(in wire.JwtRefreshInput) (jwtStr, refreshToken string, err error) {
	s.mu.Lock()
	deviceID, ok := s.refreshTokens[in.RefreshToken]
	if ok {
		delete(s.refreshTokens, in.RefreshToken)
	}
	s.mu.Unlock()
	if !ok {
		return "", "", ErrInvalidCredentials
	}
	return s.issueTokens(deviceID)
}

// RegisterDeviceStart issues a short-lived enrollment token for a
// second device against an existing account.
func (s *Server) RegisterDeviceStart(existingDeviceIdentifier string, in wire.UserDeviceRegisterStartInput) (wire.UserDeviceRegisterStartOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.devicesByIdentifier[existingDeviceIdentifier]
	if !ok {
		return wire.UserDeviceRegisterStartOutput{}, ErrNotFound
	}

	token := uuid.NewString()
	s.pendingDeviceTokens[token] = pendingDevice{userID: existing.userID, deviceIdentifier: in.DeviceIdentifier}
	return wire.UserDeviceRegisterStartOutput{Token: token}, nil
}

// RegisterDevice commits a previously started device enrollment,
// storing the new device and the user-group key re-wrapped for it.
func (s *Server) RegisterDevice(token string, device wire.UserDeviceRegisterInput, rotation wire.KeyRotationInput) (wire.UserDeviceRegisterOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pendingDeviceTokens[token]
	if !ok {
		return wire.UserDeviceRegisterOutput{}, ErrNotFound
	}
	delete(s.pendingDeviceTokens, token)

	deviceID := uuid.NewString()
	dev := &deviceRecord{deviceID: deviceID, userID: pending.userID, input: device}
	s.devicesByIdentifier[device.DeviceIdentifier] = dev
	s.devicesByID[deviceID] = dev

	s.groupKeysByUser[pending.userID] = append(s.groupKeysByUser[pending.userID], &groupKeyRecord{
		groupKeyID: rotation.PreviousGroupKeyID,
		userID:     pending.userID,
		deviceID:   deviceID,
		data: wire.CreateData{
			EncryptedGroupKeyByUserKey: rotation.EncryptedGroupKeyByUserKey,
			PublicGroupKey:             rotation.PublicGroupKey,
			EncryptedPrivateGroupKey:   rotation.EncryptedPrivateGroupKey,
			EncryptedSignKey:           rotation.EncryptedSignKey,
			VerifyKey:                  rotation.VerifyKey,
		},
		time: time.Now().UnixMilli(),
	})

	return wire.UserDeviceRegisterOutput{DeviceID: deviceID, UserID: pending.userID}, nil
}

// UpdateIdentifier renames a device's login identifier.
func (s *Server) UpdateIdentifier(deviceID string, in wire.UserIdentifierUpdateInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devicesByID[deviceID]
	if !ok {
		return ErrNotFound
	}
	if _, taken := s.devicesByIdentifier[in.NewUserIdentifier]; taken {
		return errors.New("fakeserver: identifier already registered")
	}
	delete(s.devicesByIdentifier, dev.input.DeviceIdentifier)
	dev.input.DeviceIdentifier = in.NewUserIdentifier
	s.devicesByIdentifier[in.NewUserIdentifier] = dev
	return nil
}

// RegisterSymKey stores a freshly wrapped content key and assigns it
// an id and registration time.
func (s *Server) RegisterSymKey(in wire.GeneratedSymKeyHeadServerInput) wire.GeneratedSymKeyHeadServerOutput {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &symKeyRecord{
		keyID:       uuid.NewString(),
		masterKeyID: in.MasterKeyID,
		alg:         in.Alg,
		encrypted:   in.EncryptedKeyString,
		time:        time.Now().UnixMilli(),
	}
	s.symKeysByMaster[in.MasterKeyID] = append(s.symKeysByMaster[in.MasterKeyID], rec)

	return wire.GeneratedSymKeyHeadServerOutput{
		Alg:                rec.alg,
		EncryptedKeyString: rec.encrypted,
		MasterKeyID:        rec.masterKeyID,
		KeyID:              rec.keyID,
		Time:               rec.time,
	}
}

// FetchSymKeys pages through a master key's registered content keys in
// ascending (time, id) order starting strictly after the given cursor.
func (s *Server) FetchSymKeys(masterKeyID string, lastTime int64, lastID string, limit int) wire.SymKeyFetchServerOutput {
	s.mu.Lock()
	all := append([]*symKeyRecord(nil), s.symKeysByMaster[masterKeyID]...)
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].time != all[j].time {
			return all[i].time < all[j].time
		}
		return all[i].keyID < all[j].keyID
	})

	page := make([]wire.GeneratedSymKeyHeadServerOutput, 0, limit)
	for _, rec := range all {
		if rec.time < lastTime || (rec.time == lastTime && rec.keyID <= lastID) {
			continue
		}
		page = append(page, wire.GeneratedSymKeyHeadServerOutput{
			Alg:                rec.alg,
			EncryptedKeyString: rec.encrypted,
			MasterKeyID:        rec.masterKeyID,
			KeyID:              rec.keyID,
			Time:               rec.time,
		})
		if len(page) == limit {
			break
		}
	}

	out := wire.SymKeyFetchServerOutput{Keys: page, LastTime: lastTime, LastID: lastID}
	if len(page) > 0 {
		out.LastTime = page[len(page)-1].Time
		out.LastID = page[len(page)-1].KeyID
	}
	return out
}

// KeyRotation stores a rotation produced by group.Rotate: the
// public-key wrapping becomes a regular group key record for the
// rotating device, and the previous-key wrapping is queued for every
// member still on the old key to fetch via FetchKeyRotations.
func (s *Server) KeyRotation(deviceIdentifier string, in wire.KeyRotationInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devicesByIdentifier[deviceIdentifier]
	if !ok {
		return "", ErrNotFound
	}

	newGroupKeyID := uuid.NewString()
	now := time.Now().UnixMilli()

	s.groupKeysByUser[dev.userID] = append(s.groupKeysByUser[dev.userID], &groupKeyRecord{
		groupKeyID: newGroupKeyID,
		userID:     dev.userID,
		deviceID:   dev.deviceID,
		data: wire.CreateData{
			EncryptedGroupKeyByUserKey: in.EncryptedGroupKeyByUserKey,
			PublicGroupKey:             in.PublicGroupKey,
			EncryptedPrivateGroupKey:   in.EncryptedPrivateGroupKey,
			EncryptedSignKey:           in.EncryptedSignKey,
			VerifyKey:                  in.VerifyKey,
		},
		time: now,
	})

	s.rotationsByUser[dev.userID] = append(s.rotationsByUser[dev.userID], &rotationRecord{
		newGroupKeyID:      newGroupKeyID,
		previousGroupKeyID: in.PreviousGroupKeyID,
		input:              in,
		time:               now,
	})

	return newGroupKeyID, nil
}

// FetchKeyRotations returns every rotation the caller has not caught
// up to: those whose new group key id is absent from knownGroupKeyIDs.
func (s *Server) FetchKeyRotations(deviceIdentifier string, knownGroupKeyIDs []string) ([]wire.KeyRotationServerOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devicesByIdentifier[deviceIdentifier]
	if !ok {
		return nil, ErrNotFound
	}

	known := make(map[string]struct{}, len(knownGroupKeyIDs))
	for _, id := range knownGroupKeyIDs {
		known[id] = struct{}{}
	}

	var out []wire.KeyRotationServerOutput
	for _, rec := range s.rotationsByUser[dev.userID] {
		if _, caught := known[rec.newGroupKeyID]; caught {
			continue
		}
		out = append(out, wire.KeyRotationServerOutput{
			NewGroupKeyID:                       rec.newGroupKeyID,
			EncryptedGroupKeyByPreviousGroupKey: rec.input.EncryptedGroupKeyByPreviousGroupKey,
			PublicGroupKey:                      rec.input.PublicGroupKey,
			EncryptedPrivateGroupKey:            rec.input.EncryptedPrivateGroupKey,
			EncryptedSignKey:                    rec.input.EncryptedSignKey,
			VerifyKey:                           rec.input.VerifyKey,
			PreviousGroupKeyID:                  rec.previousGroupKeyID,
			Time:                                rec.time,
		})
	}
	return out, nil
}

// ChangePassword re-authenticates with the old auth key and swaps the
// device's password-derived fields for the new ones. The private/sign
// key wrappings are untouched, since the master key itself did not
// change.
func (s *Server) ChangePassword(deviceIdentifier string, in wire.ChangePasswordData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devicesByIdentifier[deviceIdentifier]
	if !ok {
		return ErrNotFound
	}

	oldAuth, err := base64.StdEncoding.DecodeString(in.OldAuthKey)
	if err != nil || len(oldAuth) < 16 {
		return ErrInvalidCredentials
	}
	stored, err := base64.StdEncoding.DecodeString(dev.input.HashedAuthenticationKey)
	if err != nil {
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare(oldAuth[:16], stored) != 1 {
		return ErrInvalidCredentials
	}

	dev.input.EncryptedMasterKey = in.NewEncryptedMasterKey
	dev.input.ClientRandomValue = in.NewClientRandomValue
	dev.input.HashedAuthenticationKey = in.NewHashedAuthenticationKey
	dev.input.DerivedAlg = in.NewDerivedAlg
	return nil
}

// ResetPassword replaces every password-derived field of the device,
// including the private/sign key wrappings, which the client re-wrapped
// under a brand-new master key. Public/verify keys are untouched.
func (s *Server) ResetPassword(deviceIdentifier string, in wire.ResetPasswordData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devicesByIdentifier[deviceIdentifier]
	if !ok {
		return ErrNotFound
	}

	dev.input.EncryptedMasterKey = in.EncryptedMasterKey
	dev.input.ClientRandomValue = in.ClientRandomValue
	dev.input.HashedAuthenticationKey = in.HashedAuthenticationKey
	dev.input.DerivedAlg = in.DerivedAlg
	dev.input.EncryptedPrivateKey = in.EncryptedPrivateKey
	dev.input.EncryptedSignKey = in.EncryptedSignKey
	return nil
}
