package user

import "github.com/pandayo-labs/veilsdk/wire"

// PrepareRefreshJwt builds a device-scoped refresh request: the server
// may invalidate the refresh token for every other device while leaving
// the presenting one valid.
func PrepareRefreshJwt(refreshToken, deviceIdentifier string) wire.RefreshTokenReqInput {
	return wire.RefreshTokenReqInput{RefreshToken: refreshToken, DeviceIdentifier: deviceIdentifier}
}

// PrepareUserIdentifierUpdate builds the request to rename an account's
// user identifier.
func PrepareUserIdentifierUpdate(newUserIdentifier string) wire.UserIdentifierUpdateInput {
	return wire.UserIdentifierUpdateInput{NewUserIdentifier: newUserIdentifier}
}
