package group

import (
	"context"
	"testing"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/observability"
	"github.com/hangouts-inviter/eventgraph/internal/store"
	"github.com/hangouts-inviter/eventgraph/repo/group"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.NewSQLiteStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(group.New(s), observability.NewAuditor(nil))
}

func TestCreateGroupMintsFounderAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	founder := keys.NewID()

	g, err := svc.CreateGroup(ctx, founder, "Book Club", true, "")
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}

	feed, err := svc.GetFeed(ctx, g.GroupID, "")
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}
	if len(feed.Members) != 1 || feed.Members[0].Role != model.RoleAdmin {
		t.Fatalf("expected one admin member, got %+v", feed.Members)
	}
}

func TestGetFeedShortCircuitsOnMatchingETag(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	founder := keys.NewID()

	g, err := svc.CreateGroup(ctx, founder, "Book Club", true, "")
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}
	feed, err := svc.GetFeed(ctx, g.GroupID, "")
	if err != nil {
		t.Fatalf("GetFeed returned error: %v", err)
	}
	etag := ETag(g.GroupID, feed.Validator)

	_, err = svc.GetFeed(ctx, g.GroupID, etag)
	if !domainerr.Is(err, domainerr.Unchanged) {
		t.Fatalf("expected Unchanged for a matching If-None-Match, got %v", err)
	}

	if err := svc.AddMember(ctx, founder, g.GroupID, keys.NewID(), model.RoleMember); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	stillFresh, err := svc.GetFeed(ctx, g.GroupID, etag)
	if err != nil {
		t.Fatalf("expected AddMember not to bump the feed validator, got %v", err)
	}
	if ETag(g.GroupID, stillFresh.Validator) != etag {
		t.Fatalf("expected the ETag to be unaffected by a plain membership add")
	}
}

func TestRemoveMemberRefusesToRemoveLastAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	founder := keys.NewID()

	g, err := svc.CreateGroup(ctx, founder, "Book Club", false, "")
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}

	err = svc.RemoveMember(ctx, founder, g.GroupID, founder)
	if !domainerr.Is(err, domainerr.Conflict) {
		t.Fatalf("expected Conflict removing the last admin, got %v", err)
	}
}

func TestRemoveMemberAllowsRemovingAdminWhenAnotherRemains(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	founder := keys.NewID()
	coAdmin := keys.NewID()

	g, err := svc.CreateGroup(ctx, founder, "Book Club", false, "")
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}
	if err := svc.AddMember(ctx, founder, g.GroupID, coAdmin, model.RoleAdmin); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if err := svc.RemoveMember(ctx, founder, g.GroupID, founder); err != nil {
		t.Fatalf("expected removal of one admin to succeed while another remains, got %v", err)
	}
}

func TestDeleteGroupRequiresAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	founder := keys.NewID()
	member := keys.NewID()

	g, err := svc.CreateGroup(ctx, founder, "Book Club", false, "")
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}
	if err := svc.AddMember(ctx, founder, g.GroupID, member, model.RoleMember); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}

	err = svc.DeleteGroup(ctx, member, g.GroupID)
	if !domainerr.Is(err, domainerr.Forbidden) {
		t.Fatalf("expected Forbidden for a non-admin delete attempt, got %v", err)
	}

	if err := svc.DeleteGroup(ctx, founder, g.GroupID); err != nil {
		t.Fatalf("expected admin delete to succeed, got %v", err)
	}
}

func TestETagFormatsGroupIDAndValidator(t *testing.T) {
	if got, want := ETag("g1", 42), `g1-42`; got != want {
		t.Fatalf(`ETag("g1", 42) = %q, want %q`, got, want)
	}
}
