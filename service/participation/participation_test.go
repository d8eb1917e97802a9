package participation

import (
	"context"
	"testing"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
	partRepo "github.com/hangouts-inviter/eventgraph/repo/participation"
)

type fakeRefresher struct{ calls int }

func (f *fakeRefresher) RefreshPointerSummaries(ctx context.Context, hid string) error {
	f.calls++
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRefresher) {
	t.Helper()
	s, err := store.NewSQLiteStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	refresher := &fakeRefresher{}
	return New(partRepo.New(s), refresher), refresher
}

func TestSetBucketMintsIDAndRefreshesSummary(t *testing.T) {
	svc, refresher := newTestService(t)
	ctx := context.Background()
	hid, uid := keys.NewID(), keys.NewID()

	p, err := svc.SetBucket(ctx, hid, uid, model.ParticipationTicketNeeded, "")
	if err != nil {
		t.Fatalf("SetBucket returned error: %v", err)
	}
	if p.ParticipationID == "" {
		t.Fatal("expected SetBucket to mint a participation id")
	}
	if refresher.calls != 1 {
		t.Fatalf("expected one RefreshPointerSummaries call, got %d", refresher.calls)
	}
}

func TestPostOfferThenClaimSpotUntilExhausted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hid, host := keys.NewID(), keys.NewID()

	o, err := svc.PostOffer(ctx, hid, host, 2, "")
	if err != nil {
		t.Fatalf("PostOffer returned error: %v", err)
	}

	if err := svc.ClaimSpot(ctx, hid, o.OfferID); err != nil {
		t.Fatalf("first ClaimSpot returned error: %v", err)
	}
	if err := svc.ClaimSpot(ctx, hid, o.OfferID); err != nil {
		t.Fatalf("second ClaimSpot returned error: %v", err)
	}
	err = svc.ClaimSpot(ctx, hid, o.OfferID)
	if !domainerr.Is(err, domainerr.NoSeatsAvailable) {
		t.Fatalf("expected NoSeatsAvailable once a 2-spot offer is exhausted, got %v", err)
	}
}

func TestReleaseSpotAllowsAnotherClaim(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	hid, host := keys.NewID(), keys.NewID()

	o, err := svc.PostOffer(ctx, hid, host, 1, "")
	if err != nil {
		t.Fatalf("PostOffer returned error: %v", err)
	}
	if err := svc.ClaimSpot(ctx, hid, o.OfferID); err != nil {
		t.Fatalf("ClaimSpot returned error: %v", err)
	}
	if err := svc.ReleaseSpot(ctx, hid, o.OfferID); err != nil {
		t.Fatalf("ReleaseSpot returned error: %v", err)
	}
	if err := svc.ClaimSpot(ctx, hid, o.OfferID); err != nil {
		t.Fatalf("expected a claim after release to succeed, got %v", err)
	}
}
