package submissiondomain

import "crypto/subtle"

// CompareFlag reports whether submitted equals secret. Only a length mismatch
// returns early; equal-length inputs are compared in constant time.
func CompareFlag(submitted, secret string) bool {
	if len(submitted) != len(secret) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(secret)) == 1
}
