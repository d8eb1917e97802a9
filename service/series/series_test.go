package series

import (
	"context"
	"testing"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/observability"
	"github.com/hangouts-inviter/eventgraph/internal/store"
	seriesRepo "github.com/hangouts-inviter/eventgraph/repo/series"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(seriesRepo.New(s), observability.NewAuditor(nil)), s
}

func TestCreateMintsIDAndWritesPointers(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	actor := keys.NewID()
	g1 := keys.NewID()

	series, err := svc.Create(ctx, actor, "Book Club Nights", []string{g1}, nil, 1000)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if series.SeriesID == "" {
		t.Fatal("expected Create to mint a series id")
	}
	item, err := s.Get(ctx, keys.GroupPK(g1), keys.SeriesPointerSK(series.SeriesID))
	if err != nil || item == nil {
		t.Fatalf("expected a group pointer to exist, err=%v item=%v", err, item)
	}
}

func TestJoinAndLeaveRoundTripMembership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor, uid := keys.NewID(), keys.NewID()

	series, err := svc.Create(ctx, actor, "Book Club Nights", nil, nil, 1000)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Join(ctx, series.SeriesID, uid); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	joined, err := svc.Get(ctx, series.SeriesID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(joined.Members) != 1 || joined.Members[0] != uid {
		t.Fatalf("expected member %s, got %v", uid, joined.Members)
	}

	if err := svc.Leave(ctx, series.SeriesID, uid); err != nil {
		t.Fatalf("Leave returned error: %v", err)
	}
	left, err := svc.Get(ctx, series.SeriesID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(left.Members) != 0 {
		t.Fatalf("expected no members after Leave, got %v", left.Members)
	}
}

func TestAdvanceOccurrenceMovesEveryGroupPointer(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	actor := keys.NewID()
	g1, g2 := keys.NewID(), keys.NewID()

	series, err := svc.Create(ctx, actor, "Book Club Nights", []string{g1, g2}, nil, 1000)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.AdvanceOccurrence(ctx, series.SeriesID, 9000); err != nil {
		t.Fatalf("AdvanceOccurrence returned error: %v", err)
	}
	for _, gid := range []string{g1, g2} {
		item, err := s.Get(ctx, keys.GroupPK(gid), keys.SeriesPointerSK(series.SeriesID))
		if err != nil || item == nil {
			t.Fatalf("expected pointer under group %s, err=%v item=%v", gid, err, item)
		}
		if item.StartTimestamp != 9000 {
			t.Fatalf("expected pointer under group %s to advance to 9000, got %d", gid, item.StartTimestamp)
		}
	}
}

func TestDeleteCascadesSeriesAndPointers(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	actor := keys.NewID()
	g1 := keys.NewID()

	series, err := svc.Create(ctx, actor, "Book Club Nights", []string{g1}, nil, 1000)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(ctx, actor, series.SeriesID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(ctx, series.SeriesID); !domainerr.Is(err, domainerr.NotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
	if item, err := s.Get(ctx, keys.GroupPK(g1), keys.SeriesPointerSK(series.SeriesID)); err != nil || item != nil {
		t.Fatalf("expected group pointer gone after delete, err=%v item=%v", err, item)
	}
}
