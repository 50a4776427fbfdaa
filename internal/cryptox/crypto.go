// Package cryptox generates one-time passcodes and hashes secrets at rest
// with argon2id.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of salts produced by NewSalt.
const SaltSize = 16

// GeneratePasscode returns a uniformly random numeric code of the given
// number of digits, keeping leading zeros.
func GeneratePasscode(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("invalid passcode length %d", digits)
	}
	var sb strings.Builder
	sb.Grow(digits)
	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// NewSalt returns SaltSize random bytes.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// HashSecret derives a 32-byte argon2id hash of secret.
func HashSecret(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// VerifySecret reports whether candidate hashes to hash under salt.
func VerifySecret(candidate, salt, hash []byte) bool {
	return subtle.ConstantTimeCompare(HashSecret(candidate, salt), hash) == 1
}
