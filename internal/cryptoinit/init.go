// Package cryptoinit wires optional algorithm implementations into the
// primitive package's tag registry at process start-up. It is the one
// place allowed to import both primitive and a concrete algorithm
// subpackage, which keeps primitive itself free of a dependency on any
// one concrete algorithm package beyond the five it implements inline.
package cryptoinit

import (
	"github.com/pandayo-labs/veilsdk/primitive"
	"github.com/pandayo-labs/veilsdk/primitive/secp256k1"
)

func init() {
	primitive.RegisterSigner(secp256k1.Signer{})
}
