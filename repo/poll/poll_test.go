package poll

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

func TestCreatePollRejectsDuplicateID(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	hid, pid := keys.NewID(), keys.NewID()

	if err := r.CreatePoll(ctx, hid, model.Poll{PollID: pid, Title: "Snacks?"}); err != nil {
		t.Fatalf("first CreatePoll returned error: %v", err)
	}
	err := r.CreatePoll(ctx, hid, model.Poll{PollID: pid, Title: "Again?"})
	if !domainerr.Is(err, domainerr.AlreadyExists) {
		t.Fatalf("expected AlreadyExists for a duplicate poll id, got %v", err)
	}
}

func TestCastVoteSingleChoiceReplacesPriorSelection(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	hid, pid := keys.NewID(), keys.NewID()
	uid := keys.NewID()

	if err := r.CastVote(ctx, hid, pid, false, model.Vote{PollID: pid, UserID: uid, OptionID: "o1", VoteType: model.VotePreference}); err != nil {
		t.Fatalf("first CastVote returned error: %v", err)
	}
	if err := r.CastVote(ctx, hid, pid, false, model.Vote{PollID: pid, UserID: uid, OptionID: "o2", VoteType: model.VotePreference}); err != nil {
		t.Fatalf("second CastVote returned error: %v", err)
	}

	votes, err := r.ListVotes(ctx, hid, pid)
	if err != nil {
		t.Fatalf("ListVotes returned error: %v", err)
	}
	if len(votes) != 1 || votes[0].OptionID != "o2" {
		t.Fatalf("expected exactly one vote for o2, got %+v", votes)
	}
}

func TestCastVoteMultipleChoiceAccumulates(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	hid, pid := keys.NewID(), keys.NewID()
	uid := keys.NewID()

	if err := r.CastVote(ctx, hid, pid, true, model.Vote{PollID: pid, UserID: uid, OptionID: "o1", VoteType: model.VoteYes}); err != nil {
		t.Fatalf("first CastVote returned error: %v", err)
	}
	if err := r.CastVote(ctx, hid, pid, true, model.Vote{PollID: pid, UserID: uid, OptionID: "o2", VoteType: model.VoteYes}); err != nil {
		t.Fatalf("second CastVote returned error: %v", err)
	}

	votes, err := r.ListVotes(ctx, hid, pid)
	if err != nil {
		t.Fatalf("ListVotes returned error: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("expected 2 accumulated votes for a multiple-choice poll, got %+v", votes)
	}
}

func TestRemoveOptionRemovesItsVotesOnly(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	hid, pid := keys.NewID(), keys.NewID()
	u1, u2 := keys.NewID(), keys.NewID()

	if err := r.AddOption(ctx, hid, model.PollOption{PollID: pid, OptionID: "o1", Text: "Chips"}); err != nil {
		t.Fatalf("AddOption returned error: %v", err)
	}
	if err := r.AddOption(ctx, hid, model.PollOption{PollID: pid, OptionID: "o2", Text: "Soda"}); err != nil {
		t.Fatalf("AddOption returned error: %v", err)
	}
	if err := r.AddOption(ctx, hid, model.PollOption{PollID: pid, OptionID: "o3", Text: "Pretzels"}); err != nil {
		t.Fatalf("AddOption returned error: %v", err)
	}
	if err := r.CastVote(ctx, hid, pid, true, model.Vote{PollID: pid, UserID: u1, OptionID: "o1", VoteType: model.VoteYes}); err != nil {
		t.Fatalf("CastVote returned error: %v", err)
	}
	if err := r.CastVote(ctx, hid, pid, true, model.Vote{PollID: pid, UserID: u2, OptionID: "o2", VoteType: model.VoteYes}); err != nil {
		t.Fatalf("CastVote returned error: %v", err)
	}

	if err := r.RemoveOption(ctx, hid, pid, "o1"); err != nil {
		t.Fatalf("RemoveOption returned error: %v", err)
	}

	options, err := r.ListOptions(ctx, hid, pid)
	if err != nil {
		t.Fatalf("ListOptions returned error: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected o2 and o3 to remain, got %+v", options)
	}
	votes, err := r.ListVotes(ctx, hid, pid)
	if err != nil {
		t.Fatalf("ListVotes returned error: %v", err)
	}
	if len(votes) != 1 || votes[0].OptionID != "o2" {
		t.Fatalf("expected only the o2 vote to remain, got %+v", votes)
	}
}

func TestRemoveOptionRejectsShrinkingBelowTwoOptions(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	hid, pid := keys.NewID(), keys.NewID()

	if err := r.AddOption(ctx, hid, model.PollOption{PollID: pid, OptionID: "o1", Text: "Chips"}); err != nil {
		t.Fatalf("AddOption returned error: %v", err)
	}
	if err := r.AddOption(ctx, hid, model.PollOption{PollID: pid, OptionID: "o2", Text: "Soda"}); err != nil {
		t.Fatalf("AddOption returned error: %v", err)
	}

	err := r.RemoveOption(ctx, hid, pid, "o1")
	if !domainerr.Is(err, domainerr.InsufficientOptions) {
		t.Fatalf("expected InsufficientOptions removing the second-to-last option, got %v", err)
	}

	options, err := r.ListOptions(ctx, hid, pid)
	if err != nil {
		t.Fatalf("ListOptions returned error: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected the rejected removal to leave both options in place, got %+v", options)
	}
}

func TestDeletePollRemovesPollOptionsAndVotes(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	hid, pid := keys.NewID(), keys.NewID()
	uid := keys.NewID()

	if err := r.CreatePoll(ctx, hid, model.Poll{PollID: pid, Title: "Snacks?"}); err != nil {
		t.Fatalf("CreatePoll returned error: %v", err)
	}
	if err := r.AddOption(ctx, hid, model.PollOption{PollID: pid, OptionID: "o1", Text: "Chips"}); err != nil {
		t.Fatalf("AddOption returned error: %v", err)
	}
	if err := r.CastVote(ctx, hid, pid, true, model.Vote{PollID: pid, UserID: uid, OptionID: "o1", VoteType: model.VoteYes}); err != nil {
		t.Fatalf("CastVote returned error: %v", err)
	}

	if err := r.DeletePoll(ctx, hid, pid); err != nil {
		t.Fatalf("DeletePoll returned error: %v", err)
	}

	options, err := r.ListOptions(ctx, hid, pid)
	if err != nil {
		t.Fatalf("ListOptions returned error: %v", err)
	}
	if len(options) != 0 {
		t.Fatalf("expected no options after DeletePoll, got %+v", options)
	}
	votes, err := r.ListVotes(ctx, hid, pid)
	if err != nil {
		t.Fatalf("ListVotes returned error: %v", err)
	}
	if len(votes) != 0 {
		t.Fatalf("expected no votes after DeletePoll, got %+v", votes)
	}
}
