// Package crypto provides the Keccak-256 hashing used by the commit-reveal
// purchase protocol, together with the canonical byte encodings both sides
// of the commitment comparison are hashed over.
package crypto

import (
	"math/big"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/salenode/salenode/core/types"
)

// CommitPreimageLength is the byte length of both commitment preimages:
// the stored commit value padded to 64 bytes, and the 32-byte salt
// concatenated with the 32-byte purchase value.
const CommitPreimageLength = 64

// Keccak256 calculates the Keccak-256 hash of the given data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates Keccak-256 and returns it as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}

// CommitPreimage returns the canonical 64-byte big-endian encoding of a
// stored commit value. Values wider than 512 bits are truncated to their
// low 512 bits.
func CommitPreimage(v *big.Int) [CommitPreimageLength]byte {
	var out [CommitPreimageLength]byte
	if v == nil {
		return out
	}
	b := v.Bytes()
	if len(b) > CommitPreimageLength {
		b = b[len(b)-CommitPreimageLength:]
	}
	copy(out[CommitPreimageLength-len(b):], b)
	return out
}

// RevealPreimage returns the canonical 64-byte encoding of a reveal pair:
// the 32-byte big-endian salt followed by the 32-byte big-endian value.
func RevealPreimage(salt, value *uint256.Int) [CommitPreimageLength]byte {
	var out [CommitPreimageLength]byte
	sb := salt.Bytes32()
	vb := value.Bytes32()
	copy(out[:32], sb[:])
	copy(out[32:], vb[:])
	return out
}

// CommitDigest hashes a stored commit value.
func CommitDigest(v *big.Int) types.Hash {
	p := CommitPreimage(v)
	return Keccak256Hash(p[:])
}

// RevealDigest hashes a reveal pair.
func RevealDigest(salt, value *uint256.Int) types.Hash {
	p := RevealPreimage(salt, value)
	return Keccak256Hash(p[:])
}
