package vaulterr

import "encoding/json"

// out is the wire shape of a formatted error: {"status": ..., "error_message": ...}.
type out struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// codeAndMessage maps a Kind to its stable numeric code and English message.
func codeAndMessage(k Kind) (string, string) {
	switch k {
	case KindJSONToStringFailed:
		return "client_1", "Json to string failed"
	case KindJSONParseFailed:
		return "client_2", "Json parsing failed"
	case KindDecodeSaltFailed:
		return "client_3", "Can't decode the salt"
	case KindDecodeRandomValueFailed:
		return "client_4", "Can't decode the random value"
	case KindDecodeHashedAuthKey:
		return "client_5", "Can't decode the hashed authentication key"
	case KindDecodeAuthKey:
		return "client_6", "Can't decode the authentication key"
	case KindDecodeEncryptedDataFailed:
		return "client_7", "Can't decode the encrypted data, maybe the format is wrong"
	case KindDecodePublicKeyFailed:
		return "client_8", "Can't decode the public key"
	case KindDecodeSymKeyFailed:
		return "client_9", "Can't decode the symmetric key"
	case KindImportingSignKeyFailed:
		return "client_10", "Can't import the sign key, maybe the format is wrong"
	case KindImportingPrivateKeyFailed:
		return "client_11", "Can't import the private key, maybe the format is wrong"
	case KindImportSymmetricKeyFailed:
		return "client_12", "Can't import the symmetric key, maybe the format is wrong"
	case KindImportPublicKeyFailed:
		return "client_13", "Can't import the public key, maybe the format is wrong"
	case KindImportVerifyKeyFailed:
		return "client_14", "Can't import the verify key, maybe the format is wrong"
	case KindImportingKeyFromPemFailed:
		return "client_15", "Can't import the key from pem, maybe the format is wrong"
	case KindExportingPublicKeyFailed:
		return "client_16", "Can't export the public key"
	case KindDerivedKeyWrongFormat:
		return "client_17", "The derived key has the wrong format for this action"
	case KindSigFoundNotKey:
		return "client_18", "A signature was found but no verify key was supplied"
	case KindVerifyFailed:
		return "client_19", "The signature does not match the verify key"
	case KindKeyDecryptFailed:
		return "client_20", "Can't decrypt the key, maybe the keys are not matching"
	case KindLoginServerOutputWrong:
		return "client_100", "The server output for the login is not valid"
	case KindKeyRotationServerOutputWrong:
		return "client_101", "The server output for the key rotation is not valid"
	case KindAlgNotFound:
		return "client_21", "The algorithm is not supported"
	default:
		return "client_0", "Unknown error"
	}
}

// Format renders err as the stable {status, error_message} JSON the SDK's
// callers show to end users (after their own localization, which is out
// of scope here).
func Format(err error) string {
	e, ok := err.(*Error)
	if !ok {
		b, _ := json.Marshal(out{Status: "client_0", ErrorMessage: err.Error()})
		return string(b)
	}

	var o out
	if e.Kind == KindServerErr {
		o = out{Status: serverStatus(e.ServerCode), ErrorMessage: e.ServerMsg}
	} else {
		status, msg := codeAndMessage(e.Kind)
		o = out{Status: status, ErrorMessage: msg}
	}

	b, _ := json.Marshal(o)
	return string(b)
}

func serverStatus(code uint32) string {
	if code == 0 {
		return "client_0"
	}
	return "server_" + itoa(code)
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
