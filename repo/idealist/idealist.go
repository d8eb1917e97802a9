// Package idealist implements the Idea List Repository of spec.md §4
// group brainstorm lists: named lists of ideas with an atomic vote
// counter, scoped to a group partition.
package idealist

import (
	"strings"

	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Idea List Repository.
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// CreateList puts a new idea list under a group partition.
func (r *Repository) CreateList(ctx context.Context, gid string, l model.IdeaList) error {
	attrs, err := model.ToAttrs(l)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode idea list")
	}
	item := store.Item{PK: keys.GroupPK(gid), SK: keys.IdeaListSK(l.ListID), Attrs: attrs}
	if err := r.store.Put(ctx, item, store.NotExists()); err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.AlreadyExists, "idea list already exists")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "create idea list")
	}
	return nil
}

// ListLists is a single partition range query for every list in the
// group, filtered to exclude idea sub-items that share the LIST# prefix.
func (r *Repository) ListLists(ctx context.Context, gid string) ([]model.IdeaList, error) {
	page, err := r.store.Query(ctx, keys.GroupPK(gid), store.QueryOptions{SortPrefix: "LIST#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list idea lists")
	}
	out := make([]model.IdeaList, 0, len(page.Items))
	for _, item := range page.Items {
		if keys.Classify(item.SK) != keys.KindIdeaList {
			continue
		}
		var l model.IdeaList
		if err := model.FromAttrs(item.Attrs, &l); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode idea list")
		}
		out = append(out, l)
	}
	return out, nil
}

// AddIdea puts a new idea under a list.
func (r *Repository) AddIdea(ctx context.Context, gid string, idea model.Idea) error {
	attrs, err := model.ToAttrs(idea)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode idea")
	}
	item := store.Item{PK: keys.GroupPK(gid), SK: keys.IdeaSK(idea.ListID, idea.IdeaID), Attrs: attrs}
	if err := r.store.Put(ctx, item, store.NotExists()); err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.AlreadyExists, "idea already exists")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "add idea")
	}
	return nil
}

// ListIdeas is a single partition range query scoped to one list's
// ideas.
func (r *Repository) ListIdeas(ctx context.Context, gid, listID string) ([]model.Idea, error) {
	page, err := r.store.Query(ctx, keys.GroupPK(gid), store.QueryOptions{SortPrefix: "LIST#" + listID + "#IDEA#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list ideas")
	}
	out := make([]model.Idea, 0, len(page.Items))
	for _, item := range page.Items {
		var idea model.Idea
		if err := model.FromAttrs(item.Attrs, &idea); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode idea")
		}
		out = append(out, idea)
	}
	return out, nil
}

// Upvote atomically increments an idea's vote count.
func (r *Repository) Upvote(ctx context.Context, gid, listID, ideaID string) error {
	err := r.store.Update(ctx, keys.GroupPK(gid), keys.IdeaSK(listID, ideaID),
		store.Update{Add: map[string]float64{"voteCount": 1}}, store.Exists())
	if err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.NotFound, "idea not found")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "upvote idea")
	}
	return nil
}

// Downvote atomically decrements an idea's vote count, never below zero.
func (r *Repository) Downvote(ctx context.Context, gid, listID, ideaID string) error {
	err := r.store.Update(ctx, keys.GroupPK(gid), keys.IdeaSK(listID, ideaID),
		store.Update{Add: map[string]float64{"voteCount": -1}}, store.NumericGTE("voteCount", 1))
	if err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.Unchanged, "vote count already at zero")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "downvote idea")
	}
	return nil
}

// RemoveIdea deletes a single idea.
func (r *Repository) RemoveIdea(ctx context.Context, gid, listID, ideaID string) error {
	if err := r.store.Delete(ctx, keys.GroupPK(gid), keys.IdeaSK(listID, ideaID), nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "remove idea")
	}
	return nil
}

// DeleteList discovers and batch-deletes the list item and every idea
// beneath it.
func (r *Repository) DeleteList(ctx context.Context, gid, listID string) error {
	page, err := r.store.Query(ctx, keys.GroupPK(gid), store.QueryOptions{SortPrefix: "LIST#" + listID})
	if err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "scan idea list for delete")
	}
	deleteKeys := make([]store.Key, 0, len(page.Items))
	for _, item := range page.Items {
		if !strings.HasPrefix(item.SK, "LIST#"+listID) {
			continue
		}
		deleteKeys = append(deleteKeys, store.Key{PK: item.PK, SK: item.SK})
	}
	if err := r.store.BatchWrite(ctx, nil, deleteKeys); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "delete idea list")
	}
	return nil
}
