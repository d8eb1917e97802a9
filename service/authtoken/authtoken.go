// Package authtoken is the Refresh Token Service of spec.md §4.11.
// Token *issuance* (login, initial JWT minting) is explicitly out of
// scope (spec.md §1) — this service covers only what §4.11 asks for:
// verifying a presented refresh token under either hash scheme, rotating
// it to the current scheme on every successful use, and detecting reuse
// of an already-rotated-away token as a compromise signal.
package authtoken

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/legacyhash"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	tokenRepo "github.com/hangouts-inviter/eventgraph/repo/refreshtoken"
)

// Service is the Refresh Token Service.
type Service struct {
	repo *tokenRepo.Repository
}

func New(repo *tokenRepo.Repository) *Service {
	return &Service{repo: repo}
}

func sha256Hex(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Issue stores the very first refresh-token record for a device. The
// raw token itself is minted by the caller (out of scope here); this
// only persists its current-scheme hash.
func (s *Service) Issue(ctx context.Context, userID, deviceID, raw string) error {
	t := model.RefreshToken{
		HashSchemeVersion: model.HashSchemeSHA256,
		TokenHash:         sha256Hex(raw),
		UserID:            userID,
		DeviceID:          deviceID,
		IssuedAt:          time.Now().Unix(),
	}
	return s.repo.Issue(ctx, t)
}

// VerifyAndRotate validates raw against the device's stored record under
// whichever hash scheme it carries (spec.md §4.11: "dual-scheme read
// path"), then rotates the record to a fresh current-scheme hash. A
// presented token matching RotatedFrom instead of the live hash is
// TokenReused — the previous token has already been exchanged once, so
// this presentation indicates either a client bug or a stolen token
// (spec.md §4.11 edge case).
func (s *Service) VerifyAndRotate(ctx context.Context, deviceID, raw, nextRaw string) (*model.RefreshToken, error) {
	t, err := s.repo.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if verifyScheme(t.HashSchemeVersion, raw, t.TokenHash) {
		nextHash := sha256Hex(nextRaw)
		if err := s.repo.RotateFrom(ctx, deviceID, t.Version, t.TokenHash, model.HashSchemeSHA256, nextHash); err != nil {
			return nil, err
		}
		t.TokenHash = nextHash
		t.HashSchemeVersion = model.HashSchemeSHA256
		t.RotatedFrom = sha256Hex(raw)
		return t, nil
	}
	if t.RotatedFrom != "" && sha256Hex(raw) == t.RotatedFrom {
		return nil, domainerr.New(domainerr.TokenReused, "refresh token was already rotated")
	}
	return nil, domainerr.New(domainerr.Unauthorized, "invalid refresh token")
}

func verifyScheme(scheme int, raw, stored string) bool {
	switch scheme {
	case model.HashSchemeSHA256:
		return sha256Hex(raw) == stored
	case model.HashSchemeBcryptLegacy:
		return legacyhash.VerifyBcrypt(raw, stored)
	default:
		return false
	}
}

// Revoke deletes a device's active refresh token (logout, or as the
// compromise response to a detected reuse).
func (s *Service) Revoke(ctx context.Context, deviceID string) error {
	return s.repo.Revoke(ctx, deviceID)
}
