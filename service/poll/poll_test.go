package poll

import (
	"context"
	"testing"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
	pollRepo "github.com/hangouts-inviter/eventgraph/repo/poll"
)

type fakeRefresher struct {
	calls []string
}

func (f *fakeRefresher) RefreshPointerSummaries(ctx context.Context, hid string) error {
	f.calls = append(f.calls, hid)
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
	return New(pollRepo.New(s), refresher), refresher
}

func TestCreatePollMintsIDAndRefreshesSummary(t *testing.T) {
	svc, refresher := newTestService(t)
	ctx := context.Background()
	hid := keys.NewID()

	p, err := svc.CreatePoll(ctx, hid, "Snacks?", false)
	if err != nil {
		t.Fatalf("CreatePoll returned error: %v", err)
	}
	if p.PollID == "" {
		t.Fatal("expected CreatePoll to mint a poll id")
	}
	if len(refresher.calls) != 1 || refresher.calls[0] != hid {
		t.Fatalf("expected exactly one RefreshPointerSummaries call for %s, got %v", hid, refresher.calls)
	}
}

func TestCastVoteRefreshesSummaryAfterEachVote(t *testing.T) {
	svc, refresher := newTestService(t)
	ctx := context.Background()
	hid := keys.NewID()

	p, err := svc.CreatePoll(ctx, hid, "Snacks?", true)
	if err != nil {
		t.Fatalf("CreatePoll returned error: %v", err)
	}
	o, err := svc.AddOption(ctx, hid, p.PollID, "Chips")
	if err != nil {
		t.Fatalf("AddOption returned error: %v", err)
	}

	if err := svc.CastVote(ctx, hid, p.PollID, true, keys.NewID(), o.OptionID, model.VoteYes); err != nil {
		t.Fatalf("CastVote returned error: %v", err)
	}

	votes, err := svc.ListVotes(ctx, hid, p.PollID)
	if err != nil {
		t.Fatalf("ListVotes returned error: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("expected one vote, got %+v", votes)
	}
	if len(refresher.calls) != 3 {
		t.Fatalf("expected CreatePoll, AddOption, and CastVote to each refresh the summary once, got %d calls", len(refresher.calls))
	}
}

func TestRemoveOptionRejectsShrinkingBelowTwoOptions(t *testing.T) {
	svc, refresher := newTestService(t)
	ctx := context.Background()
	hid := keys.NewID()

	p, err := svc.CreatePoll(ctx, hid, "Snacks?", true)
	if err != nil {
		t.Fatalf("CreatePoll returned error: %v", err)
	}
	o1, err := svc.AddOption(ctx, hid, p.PollID, "Chips")
	if err != nil {
		t.Fatalf("AddOption returned error: %v", err)
	}
	if _, err := svc.AddOption(ctx, hid, p.PollID, "Soda"); err != nil {
		t.Fatalf("AddOption returned error: %v", err)
	}
	callsBefore := len(refresher.calls)

	err = svc.RemoveOption(ctx, hid, p.PollID, o1.OptionID)
	if !domainerr.Is(err, domainerr.InsufficientOptions) {
		t.Fatalf("expected InsufficientOptions removing the second-to-last option, got %v", err)
	}
	if len(refresher.calls) != callsBefore {
		t.Fatalf("expected a rejected RemoveOption not to trigger a summary refresh")
	}
}
