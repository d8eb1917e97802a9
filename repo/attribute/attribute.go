// Package attribute implements the Attribute Repository of spec.md §4.9:
// freeform key/value tags on a hangout, and the separate per-user
// "interested" marker.
package attribute

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Attribute Repository (spec.md §4.9).
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// Put upserts an attribute (spec.md §4.9: attributes are freeform and
// idempotent under their attributeId).
func (r *Repository) Put(ctx context.Context, hid string, a model.Attribute) error {
	attrs, err := model.ToAttrs(a)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode attribute")
	}
	item := store.Item{PK: keys.EventPK(hid), SK: keys.AttributeSK(a.AttributeID), Attrs: attrs}
	if err := r.store.Put(ctx, item, nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "put attribute")
	}
	return nil
}

// Remove deletes an attribute.
func (r *Repository) Remove(ctx context.Context, hid, attributeID string) error {
	if err := r.store.Delete(ctx, keys.EventPK(hid), keys.AttributeSK(attributeID), nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "remove attribute")
	}
	return nil
}

// List is a single partition range query (SK begins_with ATTRIBUTE#).
func (r *Repository) List(ctx context.Context, hid string) ([]model.Attribute, error) {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "ATTRIBUTE#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list attributes")
	}
	out := make([]model.Attribute, 0, len(page.Items))
	for _, item := range page.Items {
		var a model.Attribute
		if err := model.FromAttrs(item.Attrs, &a); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode attribute")
		}
		out = append(out, a)
	}
	return out, nil
}

// MarkInterested records that a user is interested in a hangout, used
// when a hangout has no fixed invite list (spec.md §4.9).
func (r *Repository) MarkInterested(ctx context.Context, hid, uid string) error {
	item := store.Item{PK: keys.EventPK(hid), SK: keys.InterestSK(uid), Attrs: map[string]any{"userId": uid}}
	if err := r.store.Put(ctx, item, nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "mark interested")
	}
	return nil
}

// ClearInterested retracts the interest marker.
func (r *Repository) ClearInterested(ctx context.Context, hid, uid string) error {
	if err := r.store.Delete(ctx, keys.EventPK(hid), keys.InterestSK(uid), nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "clear interested")
	}
	return nil
}

// ListInterested is a single partition range query (SK begins_with
// INTEREST#).
func (r *Repository) ListInterested(ctx context.Context, hid string) ([]model.Interest, error) {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "INTEREST#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list interested")
	}
	out := make([]model.Interest, 0, len(page.Items))
	for _, item := range page.Items {
		var i model.Interest
		if err := model.FromAttrs(item.Attrs, &i); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode interest")
		}
		out = append(out, i)
	}
	return out, nil
}
