// Package participation implements the Participation Repository of
// spec.md §4.8: per-user participation buckets (ticket needed/purchased,
// claimed spot) and host-posted reservation offers with atomic
// claimed-spot contention guards, mirroring the carpool seat pattern.
package participation

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Participation Repository (spec.md §4.8).
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// Put upserts a participation record keyed by participationId, so a user
// changing buckets (e.g. needed -> purchased) is a plain overwrite.
func (r *Repository) Put(ctx context.Context, hid string, p model.Participation) error {
	attrs, err := model.ToAttrs(p)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode participation")
	}
	item := store.Item{PK: keys.EventPK(hid), SK: keys.ParticipationSK(p.ParticipationID), Attrs: attrs}
	if err := r.store.Put(ctx, item, nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "put participation")
	}
	return nil
}

// Remove deletes a participation record.
func (r *Repository) Remove(ctx context.Context, hid, participationID string) error {
	if err := r.store.Delete(ctx, keys.EventPK(hid), keys.ParticipationSK(participationID), nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "remove participation")
	}
	return nil
}

// List is a single partition range query (SK begins_with
// PARTICIPATION#).
func (r *Repository) List(ctx context.Context, hid string) ([]model.Participation, error) {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "PARTICIPATION#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list participations")
	}
	out := make([]model.Participation, 0, len(page.Items))
	for _, item := range page.Items {
		var p model.Participation
		if err := model.FromAttrs(item.Attrs, &p); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode participation")
		}
		out = append(out, p)
	}
	return out, nil
}

// CreateOffer posts a reservation offer, seeding the remainingSpots gauge
// used by ClaimSpot's condition (spec.md §4.8).
func (r *Repository) CreateOffer(ctx context.Context, hid string, o model.ReservationOffer) error {
	attrs, err := model.ToAttrs(o)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode offer")
	}
	attrs["remainingSpots"] = float64(o.Capacity - o.ClaimedSpots)
	item := store.Item{PK: keys.EventPK(hid), SK: keys.OfferSK(o.OfferID), Attrs: attrs}
	if err := r.store.Put(ctx, item, store.NotExists()); err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.AlreadyExists, "offer already exists")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "create offer")
	}
	return nil
}

// GetOffer loads a single offer.
func (r *Repository) GetOffer(ctx context.Context, hid, offerID string) (*model.ReservationOffer, error) {
	item, err := r.store.Get(ctx, keys.EventPK(hid), keys.OfferSK(offerID))
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "get offer")
	}
	if item == nil {
		return nil, domainerr.New(domainerr.NotFound, "offer not found")
	}
	var o model.ReservationOffer
	if err := model.FromAttrs(item.Attrs, &o); err != nil {
		return nil, domainerr.Wrap(domainerr.Internal, err, "decode offer")
	}
	return &o, nil
}

// ListOffers is a single partition range query (SK begins_with OFFER#).
func (r *Repository) ListOffers(ctx context.Context, hid string) ([]model.ReservationOffer, error) {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "OFFER#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list offers")
	}
	out := make([]model.ReservationOffer, 0, len(page.Items))
	for _, item := range page.Items {
		var o model.ReservationOffer
		if err := model.FromAttrs(item.Attrs, &o); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode offer")
		}
		out = append(out, o)
	}
	return out, nil
}

// ClaimSpot atomically increments claimedSpots and decrements
// remainingSpots, guarded so two concurrent claimants can never overdraw
// capacity (spec.md §4.8, the same contention shape as carpool seats).
func (r *Repository) ClaimSpot(ctx context.Context, hid, offerID string) error {
	err := r.store.Update(ctx, keys.EventPK(hid), keys.OfferSK(offerID),
		store.Update{Add: map[string]float64{"claimedSpots": 1, "remainingSpots": -1}},
		store.NumericGTE("remainingSpots", 1))
	if err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.NoSeatsAvailable, "no spots remaining on this offer")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "claim spot")
	}
	return nil
}

// ReleaseSpot gives a claimed spot back.
func (r *Repository) ReleaseSpot(ctx context.Context, hid, offerID string) error {
	err := r.store.Update(ctx, keys.EventPK(hid), keys.OfferSK(offerID),
		store.Update{Add: map[string]float64{"claimedSpots": -1, "remainingSpots": 1}},
		store.NumericGTE("claimedSpots", 1))
	if err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.Conflict, "no claimed spot to release")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "release spot")
	}
	return nil
}

// DeleteOffer removes an offer entirely.
func (r *Repository) DeleteOffer(ctx context.Context, hid, offerID string) error {
	if err := r.store.Delete(ctx, keys.EventPK(hid), keys.OfferSK(offerID), nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "delete offer")
	}
	return nil
}
