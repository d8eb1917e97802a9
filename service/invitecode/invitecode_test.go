package invitecode

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hangouts-inviter/eventgraph/internal/config"
	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/ratelimit"
	"github.com/hangouts-inviter/eventgraph/internal/store"
	"github.com/hangouts-inviter/eventgraph/repo/group"
	codeRepo "github.com/hangouts-inviter/eventgraph/repo/invitecode"
)

func newTestService(t *testing.T, cfg config.InviteCode) (*Service, *group.Repository) {
	t.Helper()
	s, err := store.NewSQLiteStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	groups := group.New(s)
	limiter := ratelimit.New(zerolog.Nop(), 100, 100)
	return New(codeRepo.New(s), groups, limiter, cfg), groups
}

func defaultCfg() config.InviteCode {
	return config.InviteCode{MaxCollisionRetries: 5, RateLimitPerMinute: 100, RateLimitBurst: 100}
}

func TestGenerateThenPreviewDisclosesOnlyNameAndVisibility(t *testing.T) {
	svc, groups := newTestService(t, defaultCfg())
	ctx := context.Background()
	gid := keys.NewID()
	if err := groups.CreateGroupWithCreator(ctx, model.Group{GroupID: gid, GroupName: "Book Club", IsPublic: true}, keys.NewID()); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	code, err := svc.Generate(ctx, gid)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(code) != codeLength {
		t.Fatalf("expected an %d-character code, got %q", codeLength, code)
	}

	preview, err := svc.Preview(ctx, "caller-1", code)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if preview.GroupID != "" || preview.GroupName != "Book Club" || !preview.IsPublic {
		t.Fatalf("unexpected preview: %+v", preview)
	}
}

func TestPreviewRateLimitsPerCaller(t *testing.T) {
	cfg := config.InviteCode{MaxCollisionRetries: 5, RateLimitPerMinute: 1, RateLimitBurst: 1}
	svc, groups := newTestService(t, cfg)
	ctx := context.Background()
	gid := keys.NewID()
	if err := groups.CreateGroupWithCreator(ctx, model.Group{GroupID: gid, GroupName: "Book Club"}, keys.NewID()); err != nil {
		t.Fatalf("seed group: %v", err)
	}
	code, err := svc.Generate(ctx, gid)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if _, err := svc.Preview(ctx, "caller-1", code); err != nil {
		t.Fatalf("first Preview returned error: %v", err)
	}
	_, err = svc.Preview(ctx, "caller-1", code)
	if !domainerr.Is(err, domainerr.RateLimited) {
		t.Fatalf("expected RateLimited on the second lookup within the burst window, got %v", err)
	}
}

func TestRedeemIsIdempotentForAnExistingMember(t *testing.T) {
	svc, groups := newTestService(t, defaultCfg())
	ctx := context.Background()
	gid, uid := keys.NewID(), keys.NewID()
	if err := groups.CreateGroupWithCreator(ctx, model.Group{GroupID: gid, GroupName: "Book Club"}, keys.NewID()); err != nil {
		t.Fatalf("seed group: %v", err)
	}
	code, err := svc.Generate(ctx, gid)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	joinedGID, err := svc.Redeem(ctx, code, uid)
	if err != nil {
		t.Fatalf("first Redeem returned error: %v", err)
	}
	if joinedGID != gid {
		t.Fatalf("expected Redeem to resolve to group %s, got %s", gid, joinedGID)
	}

	joinedGID, err = svc.Redeem(ctx, code, uid)
	if err != nil {
		t.Fatalf("second Redeem (already a member) returned error: %v", err)
	}
	if joinedGID != gid {
		t.Fatalf("expected idempotent Redeem to still resolve to group %s, got %s", gid, joinedGID)
	}

	member, err := groups.GetMember(ctx, gid, uid)
	if err != nil {
		t.Fatalf("GetMember returned error: %v", err)
	}
	if member.Role != model.RoleMember {
		t.Fatalf("expected redeemed member to have role MEMBER, got %s", member.Role)
	}
}

func TestRevokeDeletesTheCode(t *testing.T) {
	svc, groups := newTestService(t, defaultCfg())
	ctx := context.Background()
	gid := keys.NewID()
	if err := groups.CreateGroupWithCreator(ctx, model.Group{GroupID: gid, GroupName: "Book Club"}, keys.NewID()); err != nil {
		t.Fatalf("seed group: %v", err)
	}
	code, err := svc.Generate(ctx, gid)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if err := svc.Revoke(ctx, code); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if _, err := svc.Redeem(ctx, code, keys.NewID()); !domainerr.Is(err, domainerr.NotFound) {
		t.Fatalf("expected NotFound redeeming a revoked code, got %v", err)
	}
}
