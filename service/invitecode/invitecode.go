// Package invitecode is the Invite Code Service of spec.md §4.12/§4.10:
// collision-retried code minting, rate-limited preview (no group
// membership disclosed to an unauthenticated caller beyond name and
// visibility), and idempotent redemption.
package invitecode

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"strings"

	"github.com/hangouts-inviter/eventgraph/internal/config"
	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/ratelimit"
	"github.com/hangouts-inviter/eventgraph/repo/group"
	codeRepo "github.com/hangouts-inviter/eventgraph/repo/invitecode"
)

const codeLength = 8

// codeEncoding's 32-character alphabet leaves out the ambiguous
// characters 0/O and 1/I the way a human-typed invite code should.
var codeEncoding = base32.NewEncoding("ABCDEFGHJKLMNPQRSTUVWXYZ23456789").WithPadding(base32.NoPadding)

// Preview is the information a code may be previewed with before
// redemption (spec.md §4.10: "preview never requires authentication, but
// never discloses the membership roster either"). Preview always leaves
// GroupID empty so the group's id is not disclosed.
type Preview struct {
	GroupID   string
	GroupName string
	IsPublic  bool
}

// Service is the Invite Code Service.
type Service struct {
	repo    *codeRepo.Repository
	groups  *group.Repository
	limiter *ratelimit.Limiter
	cfg     config.InviteCode
}

func New(repo *codeRepo.Repository, groups *group.Repository, limiter *ratelimit.Limiter, cfg config.InviteCode) *Service {
	return &Service{repo: repo, groups: groups, limiter: limiter, cfg: cfg}
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(codeEncoding.EncodeToString(buf))[:codeLength], nil
}

// Generate mints a fresh code for gid, retrying on the rare collision up
// to cfg.MaxCollisionRetries times (spec.md §4.10).
func (s *Service) Generate(ctx context.Context, gid string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxCollisionRetries; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", domainerr.Wrap(domainerr.Internal, err, "generate invite code")
		}
		err = s.repo.Create(ctx, model.InviteMapping{Code: code, GroupID: gid})
		if err == nil {
			return code, nil
		}
		if !domainerr.Is(err, domainerr.AlreadyExists) {
			return "", err
		}
		lastErr = err
	}
	return "", domainerr.Wrap(domainerr.Internal, lastErr, "exhausted invite code collision retries")
}

// Preview resolves a code to its group's public-facing name and
// visibility, rate-limited per callerKey (spec.md §4.10: token bucket,
// default 10/min burst 20).
func (s *Service) Preview(ctx context.Context, callerKey, code string) (*Preview, error) {
	if !s.limiter.Allow(callerKey) {
		return nil, domainerr.New(domainerr.RateLimited, "too many invite code lookups")
	}
	mapping, err := s.repo.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	g, err := s.groups.GetMetadata(ctx, mapping.GroupID)
	if err != nil {
		return nil, err
	}
	return &Preview{GroupName: g.GroupName, IsPublic: g.IsPublic}, nil
}

// Redeem joins uid to the code's group, idempotently: an already-member
// caller redeeming the same code again is a no-op rather than an error
// (spec.md §4.10 edge case: "redeeming twice must not fail").
func (s *Service) Redeem(ctx context.Context, code, uid string) (string, error) {
	mapping, err := s.repo.Resolve(ctx, code)
	if err != nil {
		return "", err
	}
	_, err = s.groups.GetMember(ctx, mapping.GroupID, uid)
	if err == nil {
		return mapping.GroupID, nil
	}
	if !domainerr.Is(err, domainerr.NotFound) {
		return "", err
	}
	g, err := s.groups.GetMetadata(ctx, mapping.GroupID)
	if err != nil {
		return "", err
	}
	if err := s.groups.AddMember(ctx, mapping.GroupID, uid, g.GroupName, model.RoleMember); err != nil {
		return "", err
	}
	return mapping.GroupID, nil
}

// Revoke deletes a code outright.
func (s *Service) Revoke(ctx context.Context, code string) error {
	return s.repo.Revoke(ctx, code)
}
