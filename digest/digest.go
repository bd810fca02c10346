// Package digest derives stable content identifiers for script bodies.
//
// The server addresses cached scripts by the SHA-1 of their source, so any
// two peers hashing the same text must derive the same identifier without
// coordinating. SHA-1 is an identity scheme here, not an integrity
// guarantee against adversarial input.
package digest

import (
	"crypto/sha1"
	"encoding/hex"
)

// HexLen is the length of an identifier produced by this package.
const HexLen = 40

// SHA1Hex returns the SHA-1 of the UTF-8 bytes of text, encoded as 40
// lowercase hexadecimal characters.
func SHA1Hex(text string) string {
	return SHA1HexBytes([]byte(text))
}

// SHA1HexBytes returns the SHA-1 of b, encoded as 40 lowercase hexadecimal
// characters.
func SHA1HexBytes(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
