// Package device implements the Device Repository of spec.md §4.11:
// push-notification device registration keyed by device token, one
// record per token, looked up directly with no partition scan.
package device

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Device Repository (spec.md §4.11).
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// Register upserts a device registration; re-registering the same token
// (e.g. a refreshed push subscription) simply overwrites it.
func (r *Repository) Register(ctx context.Context, d model.Device) error {
	attrs, err := model.ToAttrs(d)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode device")
	}
	item := store.Item{PK: keys.DevicePK(d.Token), SK: keys.SKMetadata, Attrs: attrs}
	if err := r.store.Put(ctx, item, nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "register device")
	}
	return nil
}

// Get loads a single device registration.
func (r *Repository) Get(ctx context.Context, token string) (*model.Device, error) {
	item, err := r.store.Get(ctx, keys.DevicePK(token), keys.SKMetadata)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "get device")
	}
	if item == nil {
		return nil, domainerr.New(domainerr.NotFound, "device not found")
	}
	var d model.Device
	if err := model.FromAttrs(item.Attrs, &d); err != nil {
		return nil, domainerr.Wrap(domainerr.Internal, err, "decode device")
	}
	return &d, nil
}

// Unregister deletes a device registration, e.g. on logout or push
// delivery reporting the token as invalid.
func (r *Repository) Unregister(ctx context.Context, token string) error {
	if err := r.store.Delete(ctx, keys.DevicePK(token), keys.SKMetadata, nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "unregister device")
	}
	return nil
}
