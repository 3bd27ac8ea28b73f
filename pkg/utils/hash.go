package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// HashString returns the hex md5 digest of input. It keys the response
// cache, where a short stable fingerprint matters and collision
// resistance does not.
func HashString(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
