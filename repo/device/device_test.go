package device

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

func TestRegisterThenGetRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	uid := keys.NewID()

	if err := r.Register(ctx, model.Device{Token: "tok-1", UserID: uid, SubscriptionToken: "sub-1"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	d, err := r.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if d.UserID != uid || d.SubscriptionToken != "sub-1" {
		t.Fatalf("unexpected device: %+v", d)
	}
}

func TestRegisterOverwritesAnExistingToken(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	uid1, uid2 := keys.NewID(), keys.NewID()

	if err := r.Register(ctx, model.Device{Token: "tok-1", UserID: uid1}); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	if err := r.Register(ctx, model.Device{Token: "tok-1", UserID: uid2}); err != nil {
		t.Fatalf("second Register returned error: %v", err)
	}
	d, err := r.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if d.UserID != uid2 {
		t.Fatalf("expected re-registering to overwrite the owner, got %+v", d)
	}
}

func TestGetMissingDeviceReturnsNotFound(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.Get(context.Background(), "nope"); !domainerr.Is(err, domainerr.NotFound) {
		t.Fatalf("expected NotFound for an unregistered token, got %v", err)
	}
}

func TestUnregisterDeletesTheDevice(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.Register(ctx, model.Device{Token: "tok-1", UserID: keys.NewID()}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := r.Unregister(ctx, "tok-1"); err != nil {
		t.Fatalf("Unregister returned error: %v", err)
	}
	if _, err := r.Get(ctx, "tok-1"); !domainerr.Is(err, domainerr.NotFound) {
		t.Fatalf("expected NotFound after Unregister, got %v", err)
	}
}
