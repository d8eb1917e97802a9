// Package poll implements the Poll Repository of spec.md §4.6: poll and
// option creation within a hangout partition, single-choice vote
// replacement, multiple-choice vote accumulation, and cascade delete.
package poll

import (
	"context"
	"strings"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Poll Repository (spec.md §4.6).
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// CreatePoll puts a new poll under EVENT#{hid}, failing AlreadyExists if
// pollId collides.
func (r *Repository) CreatePoll(ctx context.Context, hid string, p model.Poll) error {
	attrs, err := model.ToAttrs(p)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode poll")
	}
	item := store.Item{PK: keys.EventPK(hid), SK: keys.PollSK(p.PollID), Attrs: attrs}
	if err := r.store.Put(ctx, item, store.NotExists()); err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.AlreadyExists, "poll already exists")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "create poll")
	}
	return nil
}

// AddOption puts a new option under a poll, failing AlreadyExists on
// optionId collision (spec.md §4.6).
func (r *Repository) AddOption(ctx context.Context, hid string, o model.PollOption) error {
	attrs, err := model.ToAttrs(o)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode poll option")
	}
	item := store.Item{PK: keys.EventPK(hid), SK: keys.PollOptionSK(o.PollID, o.OptionID), Attrs: attrs}
	if err := r.store.Put(ctx, item, store.NotExists()); err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.AlreadyExists, "poll option already exists")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "add poll option")
	}
	return nil
}

// minPollOptions is the fewest options a poll may be left with (spec.md
// §4.6/§8: deleting the second-to-last option fails InsufficientOptions).
const minPollOptions = 2

// RemoveOption deletes an option along with every vote cast for it
// (spec.md §4.6 edge case: "removing an option removes its votes"),
// refusing to shrink a poll below minPollOptions.
func (r *Repository) RemoveOption(ctx context.Context, hid, pollID, optionID string) error {
	options, err := r.ListOptions(ctx, hid, pollID)
	if err != nil {
		return err
	}
	if len(options) <= minPollOptions {
		return domainerr.New(domainerr.InsufficientOptions, "a poll must keep at least 2 options")
	}
	votes, err := r.ListVotes(ctx, hid, pollID)
	if err != nil {
		return err
	}
	deleteKeys := []store.Key{{PK: keys.EventPK(hid), SK: keys.PollOptionSK(pollID, optionID)}}
	for _, v := range votes {
		if v.OptionID == optionID {
			deleteKeys = append(deleteKeys, store.Key{PK: keys.EventPK(hid), SK: keys.VoteSK(pollID, v.UserID, v.OptionID)})
		}
	}
	if err := r.store.BatchWrite(ctx, nil, deleteKeys); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "remove poll option")
	}
	return nil
}

// ListOptions is a single partition range query (SK begins_with
// POLL#{pid}#OPTION#).
func (r *Repository) ListOptions(ctx context.Context, hid, pollID string) ([]model.PollOption, error) {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "POLL#" + pollID + "#OPTION#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list poll options")
	}
	out := make([]model.PollOption, 0, len(page.Items))
	for _, item := range page.Items {
		var o model.PollOption
		if err := model.FromAttrs(item.Attrs, &o); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode poll option")
		}
		out = append(out, o)
	}
	return out, nil
}

// ListVotes is a single partition range query (SK begins_with
// POLL#{pid}#VOTE#).
func (r *Repository) ListVotes(ctx context.Context, hid, pollID string) ([]model.Vote, error) {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "POLL#" + pollID + "#VOTE#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list poll votes")
	}
	out := make([]model.Vote, 0, len(page.Items))
	for _, item := range page.Items {
		var v model.Vote
		if err := model.FromAttrs(item.Attrs, &v); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode vote")
		}
		out = append(out, v)
	}
	return out, nil
}

// CastVote records a vote. When the poll is not multipleChoice, every
// prior vote the user cast in this poll for a different option is
// retracted in the same transact (spec.md §4.6: "single-choice polls
// replace the voter's prior selection atomically").
func (r *Repository) CastVote(ctx context.Context, hid string, pollID string, multipleChoice bool, v model.Vote) error {
	attrs, err := model.ToAttrs(v)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode vote")
	}
	ops := []store.Op{
		{
			Kind: store.OpPut,
			Item: store.Item{PK: keys.EventPK(hid), SK: keys.VoteSK(pollID, v.UserID, v.OptionID), Attrs: attrs},
			Label: "new-vote",
		},
	}
	if !multipleChoice {
		existing, err := r.ListVotes(ctx, hid, pollID)
		if err != nil {
			return err
		}
		for _, ev := range existing {
			if ev.UserID == v.UserID && ev.OptionID != v.OptionID {
				ops = append(ops, store.Op{
					Kind: store.OpDelete,
					PK:   keys.EventPK(hid), SK: keys.VoteSK(pollID, ev.UserID, ev.OptionID),
					Label: "retract-" + ev.OptionID,
				})
			}
		}
	}
	if err := r.store.Transact(ctx, ops); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "cast vote")
	}
	return nil
}

// RemoveVote retracts a single vote.
func (r *Repository) RemoveVote(ctx context.Context, hid, pollID, userID, optionID string) error {
	if err := r.store.Delete(ctx, keys.EventPK(hid), keys.VoteSK(pollID, userID, optionID), nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "remove vote")
	}
	return nil
}

// DeletePoll discovers and batch-deletes the poll item, every option, and
// every vote beneath it.
func (r *Repository) DeletePoll(ctx context.Context, hid, pollID string) error {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "POLL#" + pollID})
	if err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "scan poll for delete")
	}
	deleteKeys := make([]store.Key, 0, len(page.Items))
	for _, item := range page.Items {
		if !strings.HasPrefix(item.SK, "POLL#"+pollID) {
			continue
		}
		deleteKeys = append(deleteKeys, store.Key{PK: item.PK, SK: item.SK})
	}
	if err := r.store.BatchWrite(ctx, nil, deleteKeys); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "delete poll")
	}
	return nil
}
