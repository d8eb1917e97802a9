// Package carpool implements the Carpool Repository of spec.md §4.7: car
// creation, rider seat reservation with atomic seat-count contention
// guards, rider release, the "needs a ride" roster, and cascade delete.
package carpool

import (
	"strings"

	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Carpool Repository (spec.md §4.7).
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// CreateCar puts a new car, failing AlreadyExists on driverId collision.
func (r *Repository) CreateCar(ctx context.Context, hid string, c model.Car) error {
	attrs, err := model.ToAttrs(c)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode car")
	}
	item := store.Item{PK: keys.EventPK(hid), SK: keys.CarSK(c.DriverID), Attrs: attrs}
	if err := r.store.Put(ctx, item, store.NotExists()); err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.AlreadyExists, "car already exists")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "create car")
	}
	return nil
}

// GetCar loads a single car.
func (r *Repository) GetCar(ctx context.Context, hid, driverID string) (*model.Car, error) {
	item, err := r.store.Get(ctx, keys.EventPK(hid), keys.CarSK(driverID))
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "get car")
	}
	if item == nil {
		return nil, domainerr.New(domainerr.NotFound, "car not found")
	}
	var c model.Car
	if err := model.FromAttrs(item.Attrs, &c); err != nil {
		return nil, domainerr.Wrap(domainerr.Internal, err, "decode car")
	}
	return &c, nil
}

// ListCars is a single partition range query (SK begins_with CAR#,
// excluding rider sub-items).
func (r *Repository) ListCars(ctx context.Context, hid string) ([]model.Car, error) {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "CAR#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list cars")
	}
	out := make([]model.Car, 0, len(page.Items))
	for _, item := range page.Items {
		if keys.Classify(item.SK) != keys.KindCar {
			continue
		}
		var c model.Car
		if err := model.FromAttrs(item.Attrs, &c); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode car")
		}
		out = append(out, c)
	}
	return out, nil
}

// ListRiders is a single partition range query scoped to one driver's
// rider sub-partition (SK begins_with CAR#{driverId}#RIDER#).
func (r *Repository) ListRiders(ctx context.Context, hid, driverID string) ([]model.CarRider, error) {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "CAR#" + driverID + "#RIDER#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list riders")
	}
	out := make([]model.CarRider, 0, len(page.Items))
	for _, item := range page.Items {
		var c model.CarRider
		if err := model.FromAttrs(item.Attrs, &c); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode rider")
		}
		out = append(out, c)
	}
	return out, nil
}

// AddRider reserves a seat: the rider put (condition: not already riding
// with this driver) and the car's availableSeats decrement are one
// transact, guarded by a numeric-GTE condition on the car so two
// concurrent joins can never overdraw the seat count (spec.md §4.7/§8
// "seat contention" scenario).
func (r *Repository) AddRider(ctx context.Context, hid, driverID string, rider model.CarRider) error {
	attrs, err := model.ToAttrs(rider)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode rider")
	}
	seatsNeeded := float64(rider.TotalSeatsOccupied())
	ops := []store.Op{
		{
			Kind:      store.OpPut,
			Item:      store.Item{PK: keys.EventPK(hid), SK: keys.RiderSK(driverID, rider.RiderID), Attrs: attrs},
			Condition: store.NotExists(),
			Label:     "rider-exists",
		},
		{
			Kind:      store.OpUpdate,
			PK:        keys.EventPK(hid),
			SK:        keys.CarSK(driverID),
			Update:    store.Update{Add: map[string]float64{"availableSeats": -seatsNeeded}},
			Condition: store.NumericGTE("availableSeats", seatsNeeded),
			Label:     "seat-condition",
		},
	}
	if err := r.store.Transact(ctx, ops); err != nil {
		if tce, ok := err.(*store.TransactionCanceledError); ok {
			if tce.ReasonForLabel("rider-exists", ops) != nil {
				return domainerr.New(domainerr.AlreadyReserved, "already riding with this driver")
			}
			if tce.ReasonForLabel("seat-condition", ops) != nil {
				return domainerr.New(domainerr.NoSeatsAvailable, "not enough seats available")
			}
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "add rider")
	}
	return nil
}

// UpdateCarCapacity changes a car's total capacity, re-deriving
// availableSeats by the same delta so occupied seats are left
// undisturbed. The write is guarded by a NumericGTE condition on the
// live availableSeats value so a capacity cut that would force it
// negative — whether because the new capacity is simply too small or
// because a rider joined concurrently between the read and the write —
// fails CapacityConflict rather than going negative (spec.md §4.7/§8).
func (r *Repository) UpdateCarCapacity(ctx context.Context, hid, driverID string, newCapacity int) error {
	c, err := r.GetCar(ctx, hid, driverID)
	if err != nil {
		return err
	}
	delta := float64(newCapacity - c.TotalCapacity)
	err = r.store.Update(ctx, keys.EventPK(hid), keys.CarSK(driverID),
		store.Update{Set: map[string]any{"totalCapacity": float64(newCapacity)}, Add: map[string]float64{"availableSeats": delta}},
		store.NumericGTE("availableSeats", -delta))
	if err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.CapacityConflict, "capacity update would leave availableSeats negative")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "update car capacity")
	}
	return nil
}

// RemoveRider releases a rider's seat(s), incrementing the car's
// availableSeats back in the same transact.
func (r *Repository) RemoveRider(ctx context.Context, hid, driverID string, rider model.CarRider) error {
	seatsFreed := float64(rider.TotalSeatsOccupied())
	ops := []store.Op{
		{
			Kind:      store.OpDelete,
			PK:        keys.EventPK(hid),
			SK:        keys.RiderSK(driverID, rider.RiderID),
			Condition: store.Exists(),
			Label:     "rider-exists",
		},
		{
			Kind:   store.OpUpdate,
			PK:     keys.EventPK(hid),
			SK:     keys.CarSK(driverID),
			Update: store.Update{Add: map[string]float64{"availableSeats": seatsFreed}},
			Label:  "seat-release",
		},
	}
	if err := r.store.Transact(ctx, ops); err != nil {
		if tce, ok := err.(*store.TransactionCanceledError); ok {
			if tce.ReasonForLabel("rider-exists", ops) != nil {
				return domainerr.New(domainerr.NotFound, "rider not found")
			}
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "remove rider")
	}
	return nil
}

// DeleteCar cascades: every rider under this driver, then the car item
// itself.
func (r *Repository) DeleteCar(ctx context.Context, hid, driverID string) error {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "CAR#" + driverID})
	if err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "scan car for delete")
	}
	deleteKeys := make([]store.Key, 0, len(page.Items))
	for _, item := range page.Items {
		if !strings.HasPrefix(item.SK, "CAR#"+driverID) {
			continue
		}
		deleteKeys = append(deleteKeys, store.Key{PK: item.PK, SK: item.SK})
	}
	if err := r.store.BatchWrite(ctx, nil, deleteKeys); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "delete car")
	}
	return nil
}

// AddNeedsRide records that a user has no car and needs one.
func (r *Repository) AddNeedsRide(ctx context.Context, hid, userID string) error {
	item := store.Item{PK: keys.EventPK(hid), SK: keys.NeedsRideSK(userID), Attrs: map[string]any{"userId": userID}}
	if err := r.store.Put(ctx, item, nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "add needs-ride")
	}
	return nil
}

// RemoveNeedsRide clears a user's needs-a-ride flag, typically once
// they've joined a car (spec.md §4.7).
func (r *Repository) RemoveNeedsRide(ctx context.Context, hid, userID string) error {
	if err := r.store.Delete(ctx, keys.EventPK(hid), keys.NeedsRideSK(userID), nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "remove needs-ride")
	}
	return nil
}

// ListNeedsRide is a single partition range query (SK begins_with
// NEEDS_RIDE#).
func (r *Repository) ListNeedsRide(ctx context.Context, hid string) ([]model.NeedsRide, error) {
	page, err := r.store.Query(ctx, keys.EventPK(hid), store.QueryOptions{SortPrefix: "NEEDS_RIDE#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list needs-ride")
	}
	out := make([]model.NeedsRide, 0, len(page.Items))
	for _, item := range page.Items {
		var n model.NeedsRide
		if err := model.FromAttrs(item.Attrs, &n); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode needs-ride")
		}
		out = append(out, n)
	}
	return out, nil
}
