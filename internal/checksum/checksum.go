// Package checksum fingerprints stored note blobs. The notes service
// exposes it as an ETag and the file backend uses it to spot its own writes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns Sum wrapped in the quotes an HTTP ETag header expects.
func ETag(data []byte) string {
	return `"` + Sum(data) + `"`
}
