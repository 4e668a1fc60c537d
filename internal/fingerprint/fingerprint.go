// Package fingerprint computes document digests and seals them.
//
// A fingerprint is the lower-case hex SHA-256 of the raw document bytes. The canonical
// signed artifact is the string "sha256:<fingerprint>"; a seal is an RSA-PSS signature
// over that string together with the PEM public key that verifies it.
package fingerprint

import (
	"crypto/subtle"
	"encoding/hex"
	"io"

	sha256 "github.com/minio/sha256-simd"
)

// Algorithm prefixes every canonical artifact.
const Algorithm = "sha256"

// Sum returns the fingerprint of b. Empty input has a defined fingerprint.
func Sum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// SumReader fingerprints a stream and reports how many bytes were read.
func SumReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Equal compares two fingerprints in constant time.
func Equal(a, b string) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Canonical returns the artifact string that seals are computed over.
func Canonical(fp string) string {
	return Algorithm + ":" + fp
}
