// Package vaulterr is the single tagged error type the rest of the SDK
// reports through. Every public operation returns one of these (wrapped
// or bare) instead of an ad-hoc error string, so the CLI and callers can
// format a stable numeric code without inspecting messages.
package vaulterr

import (
	"errors"
	"fmt"
)

// Kind identifies which of the fixed error variants occurred.
type Kind int

const (
	KindBase Kind = iota
	KindAlgNotFound
	KindJSONToStringFailed
	KindJSONParseFailed
	KindDecodeSaltFailed
	KindDecodeRandomValueFailed
	KindDecodeHashedAuthKey
	KindDecodeAuthKey
	KindDecodeEncryptedDataFailed
	KindDecodePublicKeyFailed
	KindDecodeSymKeyFailed
	KindImportingSignKeyFailed
	KindImportingPrivateKeyFailed
	KindImportSymmetricKeyFailed
	KindImportPublicKeyFailed
	KindImportVerifyKeyFailed
	KindImportingKeyFromPemFailed
	KindExportingPublicKeyFailed
	KindDerivedKeyWrongFormat
	KindSigFoundNotKey
	KindVerifyFailed
	KindKeyDecryptFailed
	KindLoginServerOutputWrong
	KindKeyRotationServerOutputWrong
	KindServerErr
)

// Error is the tagged error value returned by every exported operation.
type Error struct {
	Kind       Kind
	Cause      error
	ServerCode uint32
	ServerMsg  string
}

func (e *Error) Error() string {
	if e.Kind == KindServerErr {
		return fmt.Sprintf("server error %d: %s", e.ServerCode, e.ServerMsg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind.String(), e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func new_(kind Kind, cause error) *Error { return &Error{Kind: kind, Cause: cause} }

func Base(cause error) *Error                       { return new_(KindBase, cause) }
func AlgNotFound() *Error                           { return new_(KindAlgNotFound, nil) }
func JSONToStringFailed(cause error) *Error         { return new_(KindJSONToStringFailed, cause) }
func JSONParseFailed(cause error) *Error            { return new_(KindJSONParseFailed, cause) }
func DecodeSaltFailed(cause error) *Error           { return new_(KindDecodeSaltFailed, cause) }
func DecodeRandomValueFailed(cause error) *Error    { return new_(KindDecodeRandomValueFailed, cause) }
func DecodeHashedAuthKey(cause error) *Error        { return new_(KindDecodeHashedAuthKey, cause) }
func DecodeAuthKey(cause error) *Error              { return new_(KindDecodeAuthKey, cause) }
func DecodeEncryptedDataFailed(cause error) *Error  { return new_(KindDecodeEncryptedDataFailed, cause) }
func DecodePublicKeyFailed(cause error) *Error      { return new_(KindDecodePublicKeyFailed, cause) }
func DecodeSymKeyFailed(cause error) *Error         { return new_(KindDecodeSymKeyFailed, cause) }
func ImportingSignKeyFailed(cause error) *Error     { return new_(KindImportingSignKeyFailed, cause) }
func ImportingPrivateKeyFailed(cause error) *Error  { return new_(KindImportingPrivateKeyFailed, cause) }
func ImportSymmetricKeyFailed(cause error) *Error   { return new_(KindImportSymmetricKeyFailed, cause) }
func ImportPublicKeyFailed(cause error) *Error      { return new_(KindImportPublicKeyFailed, cause) }
func ImportVerifyKeyFailed(cause error) *Error      { return new_(KindImportVerifyKeyFailed, cause) }
func ImportingKeyFromPemFailed(cause error) *Error  { return new_(KindImportingKeyFromPemFailed, cause) }
func ExportingPublicKeyFailed(cause error) *Error   { return new_(KindExportingPublicKeyFailed, cause) }
func DerivedKeyWrongFormat() *Error                 { return new_(KindDerivedKeyWrongFormat, nil) }
func SigFoundNotKey() *Error                        { return new_(KindSigFoundNotKey, nil) }
func VerifyFailed() *Error                          { return new_(KindVerifyFailed, nil) }
func KeyDecryptFailed(cause error) *Error           { return new_(KindKeyDecryptFailed, cause) }
func LoginServerOutputWrong() *Error                { return new_(KindLoginServerOutputWrong, nil) }
func KeyRotationServerOutputWrong() *Error          { return new_(KindKeyRotationServerOutputWrong, nil) }

// ServerErr wraps a server-reported error verbatim; it is never
// constructed locally.
func ServerErr(code uint32, msg string) *Error {
	return &Error{Kind: KindServerErr, ServerCode: code, ServerMsg: msg}
}

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "Base"
	case KindAlgNotFound:
		return "AlgNotFound"
	case KindJSONToStringFailed:
		return "JsonToStringFailed"
	case KindJSONParseFailed:
		return "JsonParseFailed"
	case KindDecodeSaltFailed:
		return "DecodeSaltFailed"
	case KindDecodeRandomValueFailed:
		return "DecodeRandomValueFailed"
	case KindDecodeHashedAuthKey:
		return "DecodeHashedAuthKey"
	case KindDecodeAuthKey:
		return "DecodeAuthKey"
	case KindDecodeEncryptedDataFailed:
		return "DecodeEncryptedDataFailed"
	case KindDecodePublicKeyFailed:
		return "DecodePublicKeyFailed"
	case KindDecodeSymKeyFailed:
		return "DecodeSymKeyFailed"
	case KindImportingSignKeyFailed:
		return "ImportingSignKeyFailed"
	case KindImportingPrivateKeyFailed:
		return "ImportingPrivateKeyFailed"
	case KindImportSymmetricKeyFailed:
		return "ImportSymmetricKeyFailed"
	case KindImportPublicKeyFailed:
		return "ImportPublicKeyFailed"
	case KindImportVerifyKeyFailed:
		return "ImportVerifyKeyFailed"
	case KindImportingKeyFromPemFailed:
		return "ImportingKeyFromPemFailed"
	case KindExportingPublicKeyFailed:
		return "ExportingPublicKeyFailed"
	case KindDerivedKeyWrongFormat:
		return "DerivedKeyWrongFormat"
	case KindSigFoundNotKey:
		return "SigFoundNotKey"
	case KindVerifyFailed:
		return "VerifyFailed"
	case KindKeyDecryptFailed:
		return "KeyDecryptFailed"
	case KindLoginServerOutputWrong:
		return "LoginServerOutputWrong"
	case KindKeyRotationServerOutputWrong:
		return "KeyRotationServerOutputWrong"
	case KindServerErr:
		return "ServerErr"
	default:
		return "Unknown"
	}
}

// As reports whether err is (or wraps) a *vaulterr.Error of the given kind.
func As(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
