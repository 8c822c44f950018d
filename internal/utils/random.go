package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex returns a hex string backed by n cryptographically random
// bytes, so the result carries n*8 bits of entropy.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
