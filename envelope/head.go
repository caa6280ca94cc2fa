// Package envelope implements the algorithm-tagged header and framing
// every content-façade ciphertext carries: EncryptedHead identifies the
// wrapping/signing key; the framing functions combine or split that
// head from the raw AEAD ciphertext for the byte, string, and raw
// transport shapes.
package envelope

import (
	"encoding/binary"
	"encoding/json"

	"github.com/pandayo-labs/veilsdk/vaulterr"
)

// SignInfo identifies the key used to produce a detached signature
// appended to a ciphertext.
type SignInfo struct {
	Alg string `json:"alg"`
	ID  string `json:"id"`
}

// Head is the small JSON document prepended to every piece of content
// façade output, naming the key used to encrypt/wrap it and, if a
// detached signature was produced, which key signed it.
type Head struct {
	ID   string    `json:"id"`
	Sign *SignInfo `json:"sign,omitempty"`
}

// ToJSON renders the head through encoding/json; kept as an explicit
// method so callers can depend on ToJSON/HeadFromJSON without reaching
// into encoding/json themselves.
func (h Head) ToJSON() ([]byte, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return nil, vaulterr.JSONToStringFailed(err)
	}
	return b, nil
}

func HeadFromJSON(data []byte) (Head, error) {
	var h Head
	if err := json.Unmarshal(data, &h); err != nil {
		return Head{}, vaulterr.JSONParseFailed(err)
	}
	return h, nil
}

// CurrentVersion is the only framing version byte this implementation
// recognizes. Decoders fail closed on any other value.
const CurrentVersion byte = 0x00

// Combine produces the versioned wire bytes: [version][varint
// head-len][head-json][ciphertext(+sig)].
func Combine(head Head, ciphertext []byte) ([]byte, error) {
	headJSON, err := head.ToJSON()
	if err != nil {
		return nil, err
	}

	lenBuf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(lenBuf, uint64(len(headJSON)))

	out := make([]byte, 0, 1+n+len(headJSON)+len(ciphertext))
	out = append(out, CurrentVersion)
	out = append(out, lenBuf[:n]...)
	out = append(out, headJSON...)
	out = append(out, ciphertext...)
	return out, nil
}

// Split parses the framing without touching the AEAD key, returning
// the head and the remaining ciphertext (including any appended
// signature) unchanged.
func Split(data []byte) (Head, []byte, error) {
	if len(data) < 1 {
		return Head{}, nil, vaulterr.DecodeEncryptedDataFailed(nil)
	}
	if data[0] != CurrentVersion {
		return Head{}, nil, vaulterr.DecodeEncryptedDataFailed(nil)
	}

	headLen, n := binary.Uvarint(data[1:])
	if n <= 0 {
		return Head{}, nil, vaulterr.DecodeEncryptedDataFailed(nil)
	}
	start := 1 + n
	end := start + int(headLen)
	if end > len(data) || end < start {
		return Head{}, nil, vaulterr.DecodeEncryptedDataFailed(nil)
	}

	head, err := HeadFromJSON(data[start:end])
	if err != nil {
		return Head{}, nil, err
	}
	return head, data[end:], nil
}
