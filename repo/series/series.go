// Package series implements the Series Repository of spec.md §4.5: a
// recurring-hangout grouping with its own pointer fan-out to every
// associated group, membership management, and version-guarded updates.
package series

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Series Repository (spec.md §4.5).
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

func toPointer(s model.Series, startTimestamp int64) model.SeriesPointer {
	return model.SeriesPointer{SeriesID: s.SeriesID, Title: s.Title, StartTimestamp: startTimestamp}
}

// Create transacts the canonical put plus one pointer per associated
// group (spec.md §4.5).
func (r *Repository) Create(ctx context.Context, s model.Series, firstStartTimestamp int64) error {
	if err := keys.RequireSeriesID(s.SeriesID); err != nil {
		return err
	}
	s.Version = 1
	canonicalAttrs, err := model.ToAttrs(s)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode series")
	}
	ptr := toPointer(s, firstStartTimestamp)
	ptrAttrs, err := model.ToAttrs(ptr)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode series pointer")
	}

	pk := keys.SeriesPK(s.SeriesID)
	ops := []store.Op{
		{
			Kind:      store.OpPut,
			Item:      store.Item{PK: pk, SK: keys.SKMetadata, Version: s.Version, Attrs: canonicalAttrs},
			Condition: store.NotExists(),
			Label:     "series-metadata",
		},
	}
	for _, gid := range s.Groups {
		ops = append(ops, store.Op{
			Kind: store.OpPut,
			Item: store.Item{
				PK: keys.GroupPK(gid), SK: keys.SeriesPointerSK(s.SeriesID),
				GSI1PK: keys.GroupPK(gid), StartTimestamp: firstStartTimestamp,
				Attrs: ptrAttrs,
			},
			Label: "pointer-group-" + gid,
		})
	}
	for _, batch := range chunkOps(ops) {
		if err := r.store.Transact(ctx, batch); err != nil {
			if tce, ok := err.(*store.TransactionCanceledError); ok {
				if tce.ReasonForLabel("series-metadata", ops) != nil {
					return domainerr.New(domainerr.Conflict, "series already exists")
				}
			}
			return domainerr.Wrap(domainerr.StoreUnavailable, err, "create series")
		}
	}
	return nil
}

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

// GetCanonical loads the series METADATA record.
func (r *Repository) GetCanonical(ctx context.Context, sid string) (*model.Series, error) {
	item, err := r.store.Get(ctx, keys.SeriesPK(sid), keys.SKMetadata)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "get series")
	}
	if item == nil {
		return nil, domainerr.New(domainerr.NotFound, "series not found")
	}
	var s model.Series
	if err := model.FromAttrs(item.Attrs, &s); err != nil {
		return nil, domainerr.Wrap(domainerr.Internal, err, "decode series")
	}
	s.Version = item.Version
	return &s, nil
}

// UpdateCanonical applies patch under a version guard (spec.md §4.5).
func (r *Repository) UpdateCanonical(ctx context.Context, sid string, patch map[string]any, expectedVersion int64) error {
	err := r.store.Update(ctx, keys.SeriesPK(sid), keys.SKMetadata,
		store.Update{Set: patch, IncrementVersion: true},
		store.VersionEquals(expectedVersion))
	if err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.ConcurrencyConflict, "series was modified concurrently")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "update series")
	}
	return nil
}

// AddMember appends uid to the series' member roster.
func (r *Repository) AddMember(ctx context.Context, s model.Series, uid string) error {
	for _, existing := range s.Members {
		if existing == uid {
			return nil
		}
	}
	newMembers := append(append([]string{}, s.Members...), uid)
	return r.UpdateCanonical(ctx, s.SeriesID, map[string]any{"members": toAnySlice(newMembers)}, s.Version)
}

// RemoveMember removes uid from the series' member roster.
func (r *Repository) RemoveMember(ctx context.Context, s model.Series, uid string) error {
	newMembers := make([]string, 0, len(s.Members))
	for _, existing := range s.Members {
		if existing != uid {
			newMembers = append(newMembers, existing)
		}
	}
	return r.UpdateCanonical(ctx, s.SeriesID, map[string]any{"members": toAnySlice(newMembers)}, s.Version)
}

// UpdatePointerStartTimestamp re-sorts a series pointer forward when the
// next occurrence's start timestamp changes, keeping EntityTimeIndex
// ordering accurate (spec.md §4.5/§4.14).
func (r *Repository) UpdatePointerStartTimestamp(ctx context.Context, gid, sid string, startTimestamp int64) error {
	item, err := r.store.Get(ctx, keys.GroupPK(gid), keys.SeriesPointerSK(sid))
	if err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "get series pointer")
	}
	if item == nil {
		return domainerr.New(domainerr.NotFound, "series pointer not found")
	}
	newItem := *item
	newItem.StartTimestamp = startTimestamp
	if err := r.store.Put(ctx, newItem, store.Exists()); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "update series pointer timestamp")
	}
	return nil
}

// Delete discovers and batch-deletes every SERIES#{sid} item, then every
// pointer in the groups the canonical listed.
func (r *Repository) Delete(ctx context.Context, sid string) error {
	s, err := r.GetCanonical(ctx, sid)
	if err != nil {
		return err
	}
	page, err := r.store.Query(ctx, keys.SeriesPK(sid), store.QueryOptions{})
	if err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "scan series for delete")
	}
	deleteKeys := make([]store.Key, 0, len(page.Items)+len(s.Groups))
	for _, item := range page.Items {
		deleteKeys = append(deleteKeys, store.Key{PK: item.PK, SK: item.SK})
	}
	for _, gid := range s.Groups {
		deleteKeys = append(deleteKeys, store.Key{PK: keys.GroupPK(gid), SK: keys.SeriesPointerSK(sid)})
	}
	if err := r.store.BatchWrite(ctx, nil, deleteKeys); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "delete series items")
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
