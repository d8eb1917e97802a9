// Package refreshtoken implements the Refresh Token Repository of
// spec.md §4.11: one active refresh-token record per device, keyed by
// device id, with version-guarded rotation. Verification against the raw
// presented token (current SHA-256 scheme or legacy bcrypt) is the
// service layer's concern; this repository only ever stores and swaps
// the record.
package refreshtoken

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Refresh Token Repository (spec.md §4.11).
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// Issue stores the first refresh-token record for a device, failing
// Conflict if one already exists (callers rotate an existing record
// instead of re-issuing over it).
func (r *Repository) Issue(ctx context.Context, t model.RefreshToken) error {
	t.Version = 1
	attrs, err := model.ToAttrs(t)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode refresh token")
	}
	item := store.Item{PK: keys.RefreshPK(t.DeviceID), SK: keys.SKMetadata, Version: t.Version, Attrs: attrs}
	if err := r.store.Put(ctx, item, store.NotExists()); err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.Conflict, "device already has an active refresh token")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "issue refresh token")
	}
	return nil
}

// Get loads the refresh-token record for a device.
func (r *Repository) Get(ctx context.Context, deviceID string) (*model.RefreshToken, error) {
	item, err := r.store.Get(ctx, keys.RefreshPK(deviceID), keys.SKMetadata)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "get refresh token")
	}
	if item == nil {
		return nil, domainerr.New(domainerr.NotFound, "refresh token not found")
	}
	var t model.RefreshToken
	if err := model.FromAttrs(item.Attrs, &t); err != nil {
		return nil, domainerr.Wrap(domainerr.Internal, err, "decode refresh token")
	}
	t.Version = item.Version
	return &t, nil
}

// RotateFrom swaps in a new token hash, recording the current hash as
// RotatedFrom so a later presentation of that superseded hash can be
// classified TokenReused rather than merely invalid (spec.md §4.11),
// under a version guard.
func (r *Repository) RotateFrom(ctx context.Context, deviceID string, expectedVersion int64, currentHash string, newHashScheme int, newHash string) error {
	err := r.store.Update(ctx, keys.RefreshPK(deviceID), keys.SKMetadata,
		store.Update{Set: map[string]any{
			"hashSchemeVersion": float64(newHashScheme),
			"tokenHash":         newHash,
			"rotatedFrom":       currentHash,
		}, IncrementVersion: true},
		store.VersionEquals(expectedVersion))
	if err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.ConcurrencyConflict, "refresh token was rotated concurrently")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "rotate refresh token")
	}
	return nil
}

// Revoke deletes a device's refresh-token record outright (logout,
// admin revocation, or reuse-detected compromise response).
func (r *Repository) Revoke(ctx context.Context, deviceID string) error {
	if err := r.store.Delete(ctx, keys.RefreshPK(deviceID), keys.SKMetadata, nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "revoke refresh token")
	}
	return nil
}
