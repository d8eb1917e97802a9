// Package hangout implements the Hangout Repository of spec.md §4.4: the
// single-partition-query detail load (the read backbone of the whole
// core), pointer fan-out create, optimistic-concurrency canonical update,
// and chunked denormalized-change propagation across every associated
// group/user partition.
package hangout

import (
	"context"
	"time"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
	groupRepo "github.com/hangouts-inviter/eventgraph/repo/group"
)

// Repository is the Hangout Repository (spec.md §4.4).
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// Detail is the bucketed result of a single loadDetail partition query
// (spec.md §4.4/§8 S6: "exactly one partition query is issued regardless
// of #polls, #options, #votes, #cars, #riders, #participations, #offers").
type Detail struct {
	Hangout       model.Hangout
	Polls         []model.Poll
	Options       []model.PollOption
	Votes         []model.Vote
	Cars          []model.Car
	Riders        []model.CarRider
	NeedsRide     []model.NeedsRide
	Attributes    []model.Attribute
	Interests     []model.Interest
	Participations []model.Participation
	Offers        []model.ReservationOffer
}

func toPointer(h model.Hangout) model.HangoutPointer {
	return model.HangoutPointer{
		HangoutID:        h.HangoutID,
		Title:            h.Title,
		Status:           "SCHEDULED",
		TimeInfo:         h.TimeInfo,
		StartTimestamp:   h.StartTimestamp,
		EndTimestamp:     h.EndTimestamp,
		Location:         h.Location,
		MainImagePath:    h.MainImagePath,
		ExternalID:       h.ExternalID,
		ExternalSource:   h.ExternalSource,
		IsGeneratedTitle: h.IsGeneratedTitle,
		SeriesID:         h.SeriesID,
	}
}

// Create transacts the canonical put plus one pointer per group and per
// invited user (spec.md §4.4).
func (r *Repository) Create(ctx context.Context, h model.Hangout) error {
	if err := keys.RequireHangoutID(h.HangoutID); err != nil {
		return err
	}
	h.Version = 1
	canonicalAttrs, err := model.ToAttrs(h)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode hangout")
	}

	ptr := toPointer(h)
	ptrAttrs, err := model.ToAttrs(ptr)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode hangout pointer")
	}

	pk := keys.EventPK(h.HangoutID)
	ops := []store.Op{
		{
			Kind:      store.OpPut,
			Item:      store.Item{PK: pk, SK: keys.SKMetadata, Version: h.Version, Attrs: canonicalAttrs},
			Condition: store.NotExists(),
			Label:     "hangout-metadata",
		},
	}
	for _, gid := range h.AssociatedGroups {
		ops = append(ops, store.Op{
			Kind: store.OpPut,
			Item: store.Item{
				PK: keys.GroupPK(gid), SK: keys.HangoutPointerSK(h.HangoutID),
				GSI1PK: keys.GroupPK(gid), StartTimestamp: h.StartTimestamp,
				Attrs: ptrAttrs,
			},
			Label: "pointer-group-" + gid,
		})
		ops = append(ops, groupRepo.BumpFeedValidatorOp(gid, time.Now()))
	}
	for _, uid := range h.InvitedUsers {
		ops = append(ops, store.Op{
			Kind: store.OpPut,
			Item: store.Item{
				PK: keys.UserPK(uid), SK: keys.HangoutPointerSK(h.HangoutID),
				GSI1PK: keys.UserPK(uid), StartTimestamp: h.StartTimestamp,
				Attrs: ptrAttrs,
			},
			Label: "pointer-user-" + uid,
		})
	}

	for _, batch := range chunkOps(ops) {
		if err := r.store.Transact(ctx, batch); err != nil {
			return domainerr.Wrap(domainerr.StoreUnavailable, err, "create hangout")
		}
	}
	return nil
}

// chunkOps splits ops, in order, into groups of at most store.MaxBatchOps.
// Callers put the canonical op at ops[0], so it lands in the first batch
// and a later batch's failure never leaves pointers without a canonical.
func chunkOps(ops []store.Op) [][]store.Op {
	var out [][]store.Op
	for len(ops) > 0 {
		n := store.MaxBatchOps
		if len(ops) <= n {
			out = append(out, ops)
			break
		}
		out = append(out, ops[:n])
		ops = ops[n:]
	}
	return out
}

// LoadDetail issues exactly one partition query and classifies every
// returned item by its sort-key shape (spec.md §4.1/§4.4).
func (r *Repository) LoadDetail(ctx context.Context, hid string) (*Detail, error) {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "load hangout detail")
	}
	var d Detail
	found := false
	for _, item := range page.Items {
		if item.SK == keys.SKMetadata {
			found = true
			if err := model.FromAttrs(item.Attrs, &d.Hangout); err != nil {
				return nil, domainerr.Wrap(domainerr.Internal, err, "decode hangout")
			}
			d.Hangout.Version = item.Version
			continue
		}
		switch keys.Classify(item.SK) {
		case keys.KindPoll:
			var v model.Poll
			if err := model.FromAttrs(item.Attrs, &v); err == nil {
				d.Polls = append(d.Polls, v)
			}
		case keys.KindPollOption:
			var v model.PollOption
			if err := model.FromAttrs(item.Attrs, &v); err == nil {
				d.Options = append(d.Options, v)
			}
		case keys.KindVote:
			var v model.Vote
			if err := model.FromAttrs(item.Attrs, &v); err == nil {
				d.Votes = append(d.Votes, v)
			}
		case keys.KindCar:
			var v model.Car
			if err := model.FromAttrs(item.Attrs, &v); err == nil {
				d.Cars = append(d.Cars, v)
			}
		case keys.KindRider:
			var v model.CarRider
			if err := model.FromAttrs(item.Attrs, &v); err == nil {
				d.Riders = append(d.Riders, v)
			}
		case keys.KindNeedsRide:
			var v model.NeedsRide
			if err := model.FromAttrs(item.Attrs, &v); err == nil {
				d.NeedsRide = append(d.NeedsRide, v)
			}
		case keys.KindAttribute:
			var v model.Attribute
			if err := model.FromAttrs(item.Attrs, &v); err == nil {
				d.Attributes = append(d.Attributes, v)
			}
		case keys.KindInterest:
			var v model.Interest
			if err := model.FromAttrs(item.Attrs, &v); err == nil {
				d.Interests = append(d.Interests, v)
			}
		case keys.KindParticipation:
			var v model.Participation
			if err := model.FromAttrs(item.Attrs, &v); err == nil {
				d.Participations = append(d.Participations, v)
			}
		case keys.KindOffer:
			var v model.ReservationOffer
			if err := model.FromAttrs(item.Attrs, &v); err == nil {
				d.Offers = append(d.Offers, v)
			}
		}
	}
	if !found {
		return nil, domainerr.New(domainerr.NotFound, "hangout not found")
	}
	return &d, nil
}

// GetCanonical loads only the hangout METADATA item.
func (r *Repository) GetCanonical(ctx context.Context, hid string) (*model.Hangout, error) {
	item, err := r.store.Get(ctx, keys.EventPK(hid), keys.SKMetadata)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "get hangout")
	}
	if item == nil {
		return nil, domainerr.New(domainerr.NotFound, "hangout not found")
	}
	var h model.Hangout
	if err := model.FromAttrs(item.Attrs, &h); err != nil {
		return nil, domainerr.Wrap(domainerr.Internal, err, "decode hangout")
	}
	h.Version = item.Version
	return &h, nil
}

// UpdateCanonical applies patch under a version guard, incrementing
// version by 1 on success (spec.md §4.4). Fails ConcurrencyConflict
// otherwise.
func (r *Repository) UpdateCanonical(ctx context.Context, hid string, patch map[string]any, expectedVersion int64) error {
	err := r.store.Update(ctx, keys.EventPK(hid), keys.SKMetadata,
		store.Update{Set: patch, IncrementVersion: true},
		store.VersionEquals(expectedVersion))
	if err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.ConcurrencyConflict, "hangout was modified concurrently")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "update hangout")
	}
	return nil
}

// PropagateDenormalizedChange fans fieldMap out to every pointer in
// associatedGroups ∪ invitedUsers, chunked into ≤25-op transact batches,
// bumping each affected group's lastHangoutModified in the same batch
// (spec.md §4.4).
func (r *Repository) PropagateDenormalizedChange(ctx context.Context, hid string, associatedGroups, invitedUsers []string, fieldMap map[string]any) error {
	var ops []store.Op
	for _, gid := range associatedGroups {
		ops = append(ops, store.Op{
			Kind: store.OpUpdate,
			PK:   keys.GroupPK(gid), SK: keys.HangoutPointerSK(hid),
			Update:    store.Update{Set: fieldMap},
			Condition: store.Exists(),
			Label:     "pointer-group-" + gid,
		})
		ops = append(ops, groupRepo.BumpFeedValidatorOp(gid, time.Now()))
	}
	for _, uid := range invitedUsers {
		ops = append(ops, store.Op{
			Kind: store.OpUpdate,
			PK:   keys.UserPK(uid), SK: keys.HangoutPointerSK(hid),
			Update:    store.Update{Set: fieldMap},
			Condition: store.Exists(),
			Label:     "pointer-user-" + uid,
		})
	}
	for _, batch := range chunkOps(ops) {
		if err := r.store.Transact(ctx, batch); err != nil {
			return domainerr.Wrap(domainerr.StoreUnavailable, err, "propagate denormalized change")
		}
	}
	return nil
}

// Delete discovers and batch-deletes every EVENT#{hid} item, then deletes
// every pointer known from the canonical's associatedGroups/invitedUsers.
// Best-effort (spec.md §4.4/§9): the deletes are unconditional, so
// re-deleting an item that is already gone is a no-op; but once the
// canonical item itself has been deleted, a re-run fails NotFound and does
// not reach any pointer left behind.
func (r *Repository) Delete(ctx context.Context, hid string) error {
	h, err := r.GetCanonical(ctx, hid)
	if err != nil {
		return err
	}
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{})
	if err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "scan hangout for delete")
	}
	deleteKeys := make([]store.Key, 0, len(page.Items))
	for _, item := range page.Items {
		deleteKeys = append(deleteKeys, store.Key{PK: item.PK, SK: item.SK})
	}
	for _, gid := range h.AssociatedGroups {
		deleteKeys = append(deleteKeys, store.Key{PK: keys.GroupPK(gid), SK: keys.HangoutPointerSK(hid)})
	}
	for _, uid := range h.InvitedUsers {
		deleteKeys = append(deleteKeys, store.Key{PK: keys.UserPK(uid), SK: keys.HangoutPointerSK(hid)})
	}
	if err := r.store.BatchWrite(ctx, nil, deleteKeys); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "delete hangout items")
	}
	return nil
}

// AddAssociatedGroup adds gid to the canonical's associatedGroups and
// creates the matching pointer, under the hangout's version guard.
func (r *Repository) AddAssociatedGroup(ctx context.Context, h model.Hangout, gid string) error {
	for _, existing := range h.AssociatedGroups {
		if existing == gid {
			return nil
		}
	}
	ptr := toPointer(h)
	ptrAttrs, err := model.ToAttrs(ptr)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode hangout pointer")
	}
	newGroups := append(append([]string{}, h.AssociatedGroups...), gid)
	ops := []store.Op{
		{
			Kind: store.OpUpdate,
			PK:   keys.EventPK(h.HangoutID), SK: keys.SKMetadata,
			Update:    store.Update{Set: map[string]any{"associatedGroups": toAnySlice(newGroups)}, IncrementVersion: true},
			Condition: store.VersionEquals(h.Version),
			Label:     "hangout-metadata",
		},
		{
			Kind: store.OpPut,
			Item: store.Item{
				PK: keys.GroupPK(gid), SK: keys.HangoutPointerSK(h.HangoutID),
				GSI1PK: keys.GroupPK(gid), StartTimestamp: h.StartTimestamp,
				Attrs: ptrAttrs,
			},
			Label: "pointer-group-" + gid,
		},
		groupRepo.BumpFeedValidatorOp(gid, time.Now()),
	}
	if err := r.store.Transact(ctx, ops); err != nil {
		if tce, ok := err.(*store.TransactionCanceledError); ok {
			if tce.ReasonForLabel("hangout-metadata", ops) != nil {
				return domainerr.New(domainerr.ConcurrencyConflict, "hangout was modified concurrently")
			}
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "add associated group")
	}
	return nil
}

// RemoveAssociatedGroup removes gid from associatedGroups and deletes the
// matching pointer.
func (r *Repository) RemoveAssociatedGroup(ctx context.Context, h model.Hangout, gid string) error {
	newGroups := make([]string, 0, len(h.AssociatedGroups))
	for _, existing := range h.AssociatedGroups {
		if existing != gid {
			newGroups = append(newGroups, existing)
		}
	}
	ops := []store.Op{
		{
			Kind: store.OpUpdate,
			PK:   keys.EventPK(h.HangoutID), SK: keys.SKMetadata,
			Update:    store.Update{Set: map[string]any{"associatedGroups": toAnySlice(newGroups)}, IncrementVersion: true},
			Condition: store.VersionEquals(h.Version),
			Label:     "hangout-metadata",
		},
		{
			Kind: store.OpDelete,
			PK:   keys.GroupPK(gid), SK: keys.HangoutPointerSK(h.HangoutID),
			Label: "pointer-group-" + gid,
		},
	}
	if err := r.store.Transact(ctx, ops); err != nil {
		if tce, ok := err.(*store.TransactionCanceledError); ok {
			if tce.ReasonForLabel("hangout-metadata", ops) != nil {
				return domainerr.New(domainerr.ConcurrencyConflict, "hangout was modified concurrently")
			}
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "remove associated group")
	}
	return nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
