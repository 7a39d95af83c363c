// internal/utils/crypto.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes returns the hex-encoded SHA-256 digest of data. The storage
// service uses it to mint content-addressed references for uploaded
// media.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
