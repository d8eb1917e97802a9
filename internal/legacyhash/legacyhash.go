// Package legacyhash carries only the verification half of the teacher's
// legacy/auth.go bcrypt helpers. Token *issuance* (login, JWT minting) is
// explicitly out of scope (spec.md §1), but spec.md §4.11 still requires
// the refresh-token engine to honor "legacy BCrypt-hashed tokens... at
// validation time (dual-scheme read path)" — this package is that read
// path and nothing else.
package legacyhash

import "golang.org/x/crypto/bcrypt"

// VerifyBcrypt reports whether raw hashes to the stored bcrypt digest.
func VerifyBcrypt(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
