// Package verifycode issues six-digit verification codes and the digests
// that are persisted in their place.
package verifycode

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
)

// Length is the number of decimal digits in a code.
const Length = 6

var (
	upperBound = big.NewInt(1_000_000)

	// randReader is replaced in tests.
	randReader io.Reader = rand.Reader
)

// Generate returns a uniformly random code in [000000, 999999], zero padded.
func Generate() (string, error) {
	n, err := rand.Int(randReader, upperBound)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", Length, n.Int64()), nil
}

// Digest is the lowercase hex SHA-256 of the code's UTF-8 bytes.
func Digest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether code hashes to digest, comparing in constant time.
func Matches(digest, code string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(Digest(code))) == 1
}

// Fingerprint is a short prefix of a digest suitable for operator listings.
func Fingerprint(digest string) string {
	if digest == "" {
		return ""
	}
	if len(digest) <= 8 {
		return digest
	}
	return digest[:8] + "..."
}
