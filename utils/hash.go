package utils

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex returns the hex sha256 of b. Document ids are derived this way
// from extracted text so identical content re-ingests idempotently.
func Sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Sha1Hex returns the hex sha1 of b. Used for chunk ids, which only need to
// be stable, not collision-resistant.
func Sha1Hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
