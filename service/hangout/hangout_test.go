package hangout

import (
	"context"
	"testing"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/observability"
	"github.com/hangouts-inviter/eventgraph/internal/store"
	"github.com/hangouts-inviter/eventgraph/internal/timeutil"
	hangoutRepo "github.com/hangouts-inviter/eventgraph/repo/hangout"
	groupRepo "github.com/hangouts-inviter/eventgraph/repo/group"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(hangoutRepo.New(s), observability.NewAuditor(nil)), s
}

func resolvedTime(t *testing.T) timeutil.Resolved {
	t.Helper()
	r, err := timeutil.Exact("2030-01-01T18:00:00Z", "2030-01-01T20:00:00Z")
	if err != nil {
		t.Fatalf("timeutil.Exact returned error: %v", err)
	}
	return r
}

func TestCreateReturnsTheCreatedCanonicalHangout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor := keys.NewID()

	h, err := svc.Create(ctx, actor, CreateInput{Title: "Trivia Night", Time: resolvedTime(t)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if h.Title != "Trivia Night" || h.Version != 1 {
		t.Fatalf("unexpected created hangout: %+v", h)
	}
}

func TestUpdateCanonicalPropagatesOnlyDenormalizedFields(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	actor := keys.NewID()
	g1 := keys.NewID()
	if err := groupRepo.New(s).CreateGroupWithCreator(ctx, model.Group{GroupID: g1, GroupName: "g"}, actor); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	h, err := svc.Create(ctx, actor, CreateInput{Title: "Trivia Night", Time: resolvedTime(t), AssociatedGroups: []string{g1}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	err = svc.UpdateCanonical(ctx, actor, h.HangoutID, map[string]any{
		"title":       "Renamed Trivia Night",
		"description": "this field is canonical-only and must not fan out",
	}, h.Version)
	if err != nil {
		t.Fatalf("UpdateCanonical returned error: %v", err)
	}

	item, err := s.Get(ctx, keys.GroupPK(g1), keys.HangoutPointerSK(h.HangoutID))
	if err != nil {
		t.Fatalf("Get group pointer returned error: %v", err)
	}
	if item == nil {
		t.Fatal("expected a group pointer to exist")
	}
	if item.Attrs["title"] != "Renamed Trivia Night" {
		t.Fatalf("expected pointer title to be updated, got %v", item.Attrs["title"])
	}
	if _, ok := item.Attrs["description"]; ok {
		t.Fatalf("expected description to stay canonical-only, but the pointer carries it: %v", item.Attrs)
	}
}

func TestUpdateCanonicalRejectsStaleVersion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor := keys.NewID()

	h, err := svc.Create(ctx, actor, CreateInput{Title: "Trivia Night", Time: resolvedTime(t)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	err = svc.UpdateCanonical(ctx, actor, h.HangoutID, map[string]any{"title": "First Update"}, h.Version)
	if err != nil {
		t.Fatalf("first UpdateCanonical returned error: %v", err)
	}
	err = svc.UpdateCanonical(ctx, actor, h.HangoutID, map[string]any{"title": "Stale Update"}, h.Version)
	if !domainerr.Is(err, domainerr.ConcurrencyConflict) {
		t.Fatalf("expected ConcurrencyConflict for a reused version, got %v", err)
	}
}

func TestRefreshPointerSummariesRecomputesFromDetail(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	actor := keys.NewID()
	g1 := keys.NewID()
	if err := groupRepo.New(s).CreateGroupWithCreator(ctx, model.Group{GroupID: g1, GroupName: "g"}, actor); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	h, err := svc.Create(ctx, actor, CreateInput{Title: "Trivia Night", Time: resolvedTime(t), AssociatedGroups: []string{g1}})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	pollAttrs, _ := model.ToAttrs(model.Poll{PollID: "p1", Title: "Snacks?"})
	if err := s.Put(ctx, store.Item{PK: keys.EventPK(h.HangoutID), SK: keys.PollSK("p1"), Attrs: pollAttrs}, nil); err != nil {
		t.Fatalf("seed poll: %v", err)
	}
	optAttrs, _ := model.ToAttrs(model.PollOption{PollID: "p1", OptionID: "o1", Text: "Chips"})
	if err := s.Put(ctx, store.Item{PK: keys.EventPK(h.HangoutID), SK: keys.PollOptionSK("p1", "o1"), Attrs: optAttrs}, nil); err != nil {
		t.Fatalf("seed option: %v", err)
	}
	voteAttrs, _ := model.ToAttrs(model.Vote{PollID: "p1", UserID: "u1", OptionID: "o1", VoteType: model.VoteYes})
	if err := s.Put(ctx, store.Item{PK: keys.EventPK(h.HangoutID), SK: keys.VoteSK("p1", "u1", "o1"), Attrs: voteAttrs}, nil); err != nil {
		t.Fatalf("seed vote: %v", err)
	}

	if err := svc.RefreshPointerSummaries(ctx, h.HangoutID); err != nil {
		t.Fatalf("RefreshPointerSummaries returned error: %v", err)
	}

	item, err := s.Get(ctx, keys.GroupPK(g1), keys.HangoutPointerSK(h.HangoutID))
	if err != nil || item == nil {
		t.Fatalf("expected a group pointer to exist, err=%v item=%v", err, item)
	}
	summaries, ok := item.Attrs["pollsSummary"].([]any)
	if !ok || len(summaries) != 1 {
		t.Fatalf("expected one poll summary on the pointer, got %v", item.Attrs["pollsSummary"])
	}
}

func TestDeleteRemovesTheCanonicalItem(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	actor := keys.NewID()

	h, err := svc.Create(ctx, actor, CreateInput{Title: "Trivia Night", Time: resolvedTime(t)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(ctx, actor, h.HangoutID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if item, err := s.Get(ctx, keys.EventPK(h.HangoutID), keys.SKMetadata); err != nil || item != nil {
		t.Fatalf("expected canonical item gone after delete, err=%v item=%v", err, item)
	}
}

func TestRemoveAssociatedGroupRejectsUnassociatedGroup(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	actor := keys.NewID()
	g1 := keys.NewID()
	if err := groupRepo.New(s).CreateGroupWithCreator(ctx, model.Group{GroupID: g1, GroupName: "g"}, actor); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	h, err := svc.Create(ctx, actor, CreateInput{Title: "Trivia Night", Time: resolvedTime(t)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	err = svc.RemoveAssociatedGroup(ctx, actor, h.HangoutID, g1)
	if !domainerr.Is(err, domainerr.NotFound) {
		t.Fatalf("expected NotFound removing a group the hangout was never associated with, got %v", err)
	}
}

func TestAddThenRemoveAssociatedGroupRoundTrips(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	actor := keys.NewID()
	g1 := keys.NewID()
	if err := groupRepo.New(s).CreateGroupWithCreator(ctx, model.Group{GroupID: g1, GroupName: "g"}, actor); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	h, err := svc.Create(ctx, actor, CreateInput{Title: "Trivia Night", Time: resolvedTime(t)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.AddAssociatedGroup(ctx, actor, h.HangoutID, g1); err != nil {
		t.Fatalf("AddAssociatedGroup returned error: %v", err)
	}
	if item, err := s.Get(ctx, keys.GroupPK(g1), keys.HangoutPointerSK(h.HangoutID)); err != nil || item == nil {
		t.Fatalf("expected pointer to exist after AddAssociatedGroup, err=%v item=%v", err, item)
	}

	if err := svc.RemoveAssociatedGroup(ctx, actor, h.HangoutID, g1); err != nil {
		t.Fatalf("RemoveAssociatedGroup returned error: %v", err)
	}
	if item, err := s.Get(ctx, keys.GroupPK(g1), keys.HangoutPointerSK(h.HangoutID)); err != nil || item != nil {
		t.Fatalf("expected pointer gone after RemoveAssociatedGroup, err=%v item=%v", err, item)
	}
}
