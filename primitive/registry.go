package primitive

import "github.com/pandayo-labs/veilsdk/vaulterr"

// registry holds the concrete implementation behind each algorithm tag.
// The five required primitives are registered by this package's own
// init (below); optional ones (e.g. the secp256k1 signer) are wired at
// process start-up through Register*.
var (
	aeads   = map[AlgTag]AEAD{}
	kems    = map[AlgTag]KEM{}
	signers = map[AlgTag]Signer{}
	kdfs    = map[AlgTag]KDF{}
	macs    = map[AlgTag]MAC{}
)

func RegisterAEAD(a AEAD)     { aeads[a.Tag()] = a }
func RegisterKEM(k KEM)       { kems[k.Tag()] = k }
func RegisterSigner(s Signer) { signers[s.Tag()] = s }
func RegisterKDF(k KDF)       { kdfs[k.Tag()] = k }
func RegisterMAC(m MAC)       { macs[m.Tag()] = m }

func AEADByTag(t AlgTag) (AEAD, error) {
	a, ok := aeads[t]
	if !ok {
		return nil, vaulterr.AlgNotFound()
	}
	return a, nil
}

func KEMByTag(t AlgTag) (KEM, error) {
	k, ok := kems[t]
	if !ok {
		return nil, vaulterr.AlgNotFound()
	}
	return k, nil
}

func SignerByTag(t AlgTag) (Signer, error) {
	s, ok := signers[t]
	if !ok {
		return nil, vaulterr.AlgNotFound()
	}
	return s, nil
}

func KDFByTag(t AlgTag) (KDF, error) {
	k, ok := kdfs[t]
	if !ok {
		return nil, vaulterr.AlgNotFound()
	}
	return k, nil
}

func MACByTag(t AlgTag) (MAC, error) {
	m, ok := macs[t]
	if !ok {
		return nil, vaulterr.AlgNotFound()
	}
	return m, nil
}

// DefaultAEAD, DefaultKEM, DefaultSigner, DefaultKDF and DefaultMAC
// return the protocol's required primitive for each capability, used
// by callers that generate fresh keys without an existing tag to
// dispatch on.
func DefaultAEAD() AEAD     { a, _ := AEADByTag(AlgAESGCM256); return a }
func DefaultKEM() KEM       { k, _ := KEMByTag(AlgECIESEd25519); return k }
func DefaultSigner() Signer { s, _ := SignerByTag(AlgEd25519); return s }
func DefaultKDF() KDF       { k, _ := KDFByTag(AlgArgon2); return k }
func DefaultMAC() MAC       { m, _ := MACByTag(AlgHMACSHA256); return m }
