// Package passwd implements the salted password hashing used by both
// account stores.
//
// The legacy scheme (a single SHA-256 pass over "salt:password", hex
// encoded) is what every record written by the original portal carries,
// so it stays the default for interop with existing store files. New
// deployments can opt into argon2id; the two schemes coexist in one
// store because argon2id hashes carry a prefix the legacy hex never has.
package passwd

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// DefaultSaltBytes is the number of random bytes behind a fresh salt.
	DefaultSaltBytes = 16

	argon2Prefix = "argon2id$"
)

// Hash computes the legacy hex SHA-256 of "salt:password".
func Hash(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}

// Argon2Hash stretches password with argon2id and the given salt.
// 7 passes over 10 MB should be a good replacement for
// 1 pass over 64 MB of ram. Threads is fixed: the parameter feeds the
// hash, so it must not vary with the machine doing the verifying.
func Argon2Hash(password, salt string) string {
	key := argon2.IDKey([]byte(password), []byte(salt), 7, 10*1024, 4, 32)
	return argon2Prefix + base64.RawURLEncoding.EncodeToString(key)
}

// GenerateSalt returns n cryptographically random bytes, hex encoded.
func GenerateSalt(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on the platforms we run on; if it
		// does, minting credentials must not continue.
		panic(fmt.Sprintf("passwd: csprng unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}

// Verify reports whether password matches the stored hash, dispatching
// on the stored scheme. It tolerates arbitrary stored values and always
// compares in constant time.
func Verify(password, salt, stored string) bool {
	var candidate string
	if strings.HasPrefix(stored, argon2Prefix) {
		candidate = Argon2Hash(password, salt)
	} else {
		candidate = Hash(password, salt)
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1
}
