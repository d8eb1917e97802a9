package refreshtoken

import (
	"context"
	"testing"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	s, err := store.NewSQLiteStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s)
}

func TestIssueRejectsASecondTokenForTheSameDevice(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	did := keys.NewID()

	if err := r.Issue(ctx, model.RefreshToken{DeviceID: did, TokenHash: "h1"}); err != nil {
		t.Fatalf("first Issue returned error: %v", err)
	}
	err := r.Issue(ctx, model.RefreshToken{DeviceID: did, TokenHash: "h2"})
	if !domainerr.Is(err, domainerr.Conflict) {
		t.Fatalf("expected Conflict re-issuing over an active token, got %v", err)
	}
}

func TestRotateFromAdvancesHashAndRecordsThePrior(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	did := keys.NewID()

	if err := r.Issue(ctx, model.RefreshToken{DeviceID: did, TokenHash: "h1"}); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if err := r.RotateFrom(ctx, did, 1, "h1", model.HashSchemeSHA256, "h2"); err != nil {
		t.Fatalf("RotateFrom returned error: %v", err)
	}

	got, err := r.Get(ctx, did)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.TokenHash != "h2" || got.RotatedFrom != "h1" {
		t.Fatalf("expected rotated hash h2 with prior h1, got %+v", got)
	}
	if got.Version != 2 {
		t.Fatalf("expected version bumped to 2, got %d", got.Version)
	}
}

func TestRotateFromGuardsOnStaleVersion(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	did := keys.NewID()

	if err := r.Issue(ctx, model.RefreshToken{DeviceID: did, TokenHash: "h1"}); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	err := r.RotateFrom(ctx, did, 99, "h1", model.HashSchemeSHA256, "h2")
	if !domainerr.Is(err, domainerr.ConcurrencyConflict) {
		t.Fatalf("expected ConcurrencyConflict for a stale version, got %v", err)
	}
}

func TestRevokeDeletesTheRecord(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	did := keys.NewID()

	if err := r.Issue(ctx, model.RefreshToken{DeviceID: did, TokenHash: "h1"}); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if err := r.Revoke(ctx, did); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if _, err := r.Get(ctx, did); !domainerr.Is(err, domainerr.NotFound) {
		t.Fatalf("expected NotFound after Revoke, got %v", err)
	}
}
