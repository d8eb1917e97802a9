// Package invitecode implements the Invite Code Repository of spec.md
// §4.10: a direct INVITE#{code}/METADATA -> group mapping, looked up in
// a single Get with no partition scan, so code redemption stays O(1)
// regardless of how many codes a group has issued.
package invitecode

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Invite Code Repository (spec.md §4.10).
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// Create mints a new code, failing AlreadyExists on collision so the
// caller can retry with a freshly generated code (spec.md §4.10: codes
// are drawn from a space small enough that collisions, while rare, must
// be handled rather than assumed away).
func (r *Repository) Create(ctx context.Context, m model.InviteMapping) error {
	attrs, err := model.ToAttrs(m)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode invite mapping")
	}
	item := store.Item{PK: keys.InvitePK(m.Code), SK: keys.SKMetadata, Attrs: attrs}
	if err := r.store.Put(ctx, item, store.NotExists()); err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.AlreadyExists, "invite code already exists")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "create invite code")
	}
	return nil
}

// Resolve is the single-Get redemption lookup.
func (r *Repository) Resolve(ctx context.Context, code string) (*model.InviteMapping, error) {
	item, err := r.store.Get(ctx, keys.InvitePK(code), keys.SKMetadata)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "resolve invite code")
	}
	if item == nil {
		return nil, domainerr.New(domainerr.NotFound, "invite code not found")
	}
	var m model.InviteMapping
	if err := model.FromAttrs(item.Attrs, &m); err != nil {
		return nil, domainerr.Wrap(domainerr.Internal, err, "decode invite mapping")
	}
	return &m, nil
}

// Revoke deletes a code, e.g. after it is consumed or explicitly
// rotated by a group admin.
func (r *Repository) Revoke(ctx context.Context, code string) error {
	if err := r.store.Delete(ctx, keys.InvitePK(code), keys.SKMetadata, nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "revoke invite code")
	}
	return nil
}
