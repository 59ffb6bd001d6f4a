package chordnode

import (
	"crypto/sha256"
	"encoding/binary"
)

// HashURI computes the 16-bit ring position of a URI path: the first two
// bytes (big-endian) of the SHA-256 digest of the path.
func HashURI(path string) uint16 {
	sum := sha256.Sum256([]byte(path))
	return binary.BigEndian.Uint16(sum[0:2])
}
