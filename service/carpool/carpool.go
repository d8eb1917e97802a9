// Package carpool is the Carpool Service of spec.md §4.12: wraps the
// Carpool Repository's seat-contention-guarded rider operations with id
// minting, the needs-a-ride roster, and the pointer-summary refresh
// every seat change must trigger.
package carpool

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	carpoolRepo "github.com/hangouts-inviter/eventgraph/repo/carpool"
)

// SummaryRefresher is the narrow hangout-service contract this package
// depends on (see service/poll for the same pattern).
type SummaryRefresher interface {
	RefreshPointerSummaries(ctx context.Context, hid string) error
}

// Service is the Carpool Service.
type Service struct {
	repo     *carpoolRepo.Repository
	hangouts SummaryRefresher
}

func New(repo *carpoolRepo.Repository, hangouts SummaryRefresher) *Service {
	return &Service{repo: repo, hangouts: hangouts}
}

// OfferCar registers a driver's car and refreshes the hangout's car
// summary.
func (s *Service) OfferCar(ctx context.Context, hid, driverID, driverName string, capacity int, notes string) (*model.Car, error) {
	c := model.Car{DriverID: driverID, DriverName: driverName, TotalCapacity: capacity, AvailableSeats: capacity, Notes: notes}
	if err := s.repo.CreateCar(ctx, hid, c); err != nil {
		return nil, err
	}
	if err := s.hangouts.RefreshPointerSummaries(ctx, hid); err != nil {
		return nil, err
	}
	return &c, nil
}

// maxPlusOneCount is the spec.md §4.7 upper bound on a rider's
// plusOneCount.
const maxPlusOneCount = 7

// JoinCar reserves seats for a rider, failing NoSeatsAvailable or
// AlreadyReserved per the repository's atomic contention guard (spec.md
// §4.7/§8 "seat contention" scenario), then refreshes the summary.
func (s *Service) JoinCar(ctx context.Context, hid, driverID, riderID, riderName string, plusOneCount int, notes string) error {
	if riderID == driverID {
		return domainerr.Invalid("riderId", "a driver cannot also be a rider on their own car")
	}
	if plusOneCount < 0 || plusOneCount > maxPlusOneCount {
		return domainerr.Invalid("plusOneCount", "must be between 0 and 7")
	}
	rider := model.CarRider{DriverID: driverID, RiderID: riderID, RiderName: riderName, PlusOneCount: plusOneCount, Notes: notes}
	if err := s.repo.AddRider(ctx, hid, driverID, rider); err != nil {
		return err
	}
	if err := s.repo.RemoveNeedsRide(ctx, hid, riderID); err != nil && !domainerr.Is(err, domainerr.NotFound) {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// LeaveCar releases a rider's seat(s) and refreshes the summary.
func (s *Service) LeaveCar(ctx context.Context, hid, driverID, riderID string) error {
	riders, err := s.repo.ListRiders(ctx, hid, driverID)
	if err != nil {
		return err
	}
	var found *model.CarRider
	for i := range riders {
		if riders[i].RiderID == riderID {
			found = &riders[i]
		}
	}
	if found == nil {
		return domainerr.New(domainerr.NotFound, "rider not found")
	}
	if err := s.repo.RemoveRider(ctx, hid, driverID, *found); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// UpdateCarCapacity changes a driver's declared capacity, failing
// CapacityConflict if the new value can't accommodate the seats
// already occupied (spec.md §4.6/§8), then refreshes the summary.
func (s *Service) UpdateCarCapacity(ctx context.Context, hid, driverID string, newCapacity int) error {
	if newCapacity < 0 {
		return domainerr.Invalid("capacity", "must not be negative")
	}
	if err := s.repo.UpdateCarCapacity(ctx, hid, driverID, newCapacity); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// CancelCar removes a car and every one of its riders, refreshing the
// summary.
func (s *Service) CancelCar(ctx context.Context, hid, driverID string) error {
	if err := s.repo.DeleteCar(ctx, hid, driverID); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// RequestRide records that userID has no car and needs one (spec.md
// §4.7).
func (s *Service) RequestRide(ctx context.Context, hid, userID string) error {
	return s.repo.AddNeedsRide(ctx, hid, userID)
}

// CancelRideRequest clears the needs-a-ride flag.
func (s *Service) CancelRideRequest(ctx context.Context, hid, userID string) error {
	return s.repo.RemoveNeedsRide(ctx, hid, userID)
}

// ListCars, ListRiders, and ListNeedsRide pass straight through.
func (s *Service) ListCars(ctx context.Context, hid string) ([]model.Car, error) {
	return s.repo.ListCars(ctx, hid)
}

func (s *Service) ListRiders(ctx context.Context, hid, driverID string) ([]model.CarRider, error) {
	return s.repo.ListRiders(ctx, hid, driverID)
}

func (s *Service) ListNeedsRide(ctx context.Context, hid string) ([]model.NeedsRide, error) {
	return s.repo.ListNeedsRide(ctx, hid)
}
