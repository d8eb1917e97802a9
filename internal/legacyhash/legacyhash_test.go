package legacyhash

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestVerifyBcryptAcceptsMatchingToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("legacy-refresh-token"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to generate fixture hash: %v", err)
	}
	if !VerifyBcrypt("legacy-refresh-token", string(hash)) {
		t.Fatal("expected VerifyBcrypt to accept the token it was hashed from")
	}
}

func TestVerifyBcryptRejectsWrongToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("legacy-refresh-token"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to generate fixture hash: %v", err)
	}
	if VerifyBcrypt("some-other-token", string(hash)) {
		t.Fatal("expected VerifyBcrypt to reject a non-matching token")
	}
}
