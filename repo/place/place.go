// Package place implements the Place Repository of spec.md §4 place
// catalog: saved locations owned by either a user or a group, sharing
// one PLACE# sort-key shape across both partition kinds.
package place

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Place Repository. Every method takes the owning
// partition key directly (keys.UserPK(uid) or keys.GroupPK(gid)) since
// the item shape is identical for either owner.
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// Put upserts a saved place under ownerPK.
func (r *Repository) Put(ctx context.Context, ownerPK string, p model.Place) error {
	attrs, err := model.ToAttrs(p)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode place")
	}
	item := store.Item{PK: ownerPK, SK: keys.PlaceSK(p.PlaceID), Attrs: attrs}
	if err := r.store.Put(ctx, item, nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "put place")
	}
	return nil
}

// Get loads a single place.
func (r *Repository) Get(ctx context.Context, ownerPK, placeID string) (*model.Place, error) {
	item, err := r.store.Get(ctx, ownerPK, keys.PlaceSK(placeID))
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "get place")
	}
	if item == nil {
		return nil, domainerr.New(domainerr.NotFound, "place not found")
	}
	var p model.Place
	if err := model.FromAttrs(item.Attrs, &p); err != nil {
		return nil, domainerr.Wrap(domainerr.Internal, err, "decode place")
	}
	return &p, nil
}

// List is a single partition range query (SK begins_with PLACE#).
func (r *Repository) List(ctx context.Context, ownerPK string) ([]model.Place, error) {
	page, err := r.store.Query(ctx, ownerPK, store.QueryOptions{SortPrefix: "PLACE#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list places")
	}
	out := make([]model.Place, 0, len(page.Items))
	for _, item := range page.Items {
		var p model.Place
		if err := model.FromAttrs(item.Attrs, &p); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode place")
		}
		out = append(out, p)
	}
	return out, nil
}

// Delete removes a saved place.
func (r *Repository) Delete(ctx context.Context, ownerPK, placeID string) error {
	if err := r.store.Delete(ctx, ownerPK, keys.PlaceSK(placeID), nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "delete place")
	}
	return nil
}
