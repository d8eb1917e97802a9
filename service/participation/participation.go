// Package participation is the Participation Service of spec.md §4.12:
// id minting and pointer-summary refresh around the Participation
// Repository's ticket-bucket records and host reservation offers.
package participation

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	partRepo "github.com/hangouts-inviter/eventgraph/repo/participation"
)

// SummaryRefresher is the narrow hangout-service contract this package
// depends on.
type SummaryRefresher interface {
	RefreshPointerSummaries(ctx context.Context, hid string) error
}

// Service is the Participation Service.
type Service struct {
	repo     *partRepo.Repository
	hangouts SummaryRefresher
}

func New(repo *partRepo.Repository, hangouts SummaryRefresher) *Service {
	return &Service{repo: repo, hangouts: hangouts}
}

// SetBucket records or moves a user's participation bucket (e.g.
// TICKET_NEEDED -> TICKET_PURCHASED), refreshing the pointer's
// participation summary (spec.md §4.8/§4.12).
func (s *Service) SetBucket(ctx context.Context, hid, userID string, typ model.ParticipationType, section string) (*model.Participation, error) {
	p := model.Participation{ParticipationID: keys.NewID(), UserID: userID, Type: typ, Section: section}
	if err := s.repo.Put(ctx, hid, p); err != nil {
		return nil, err
	}
	if err := s.hangouts.RefreshPointerSummaries(ctx, hid); err != nil {
		return nil, err
	}
	return &p, nil
}

// RemoveBucket deletes a participation record and refreshes the summary.
func (s *Service) RemoveBucket(ctx context.Context, hid, participationID string) error {
	if err := s.repo.Remove(ctx, hid, participationID); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// ListParticipations passes straight through.
func (s *Service) ListParticipations(ctx context.Context, hid string) ([]model.Participation, error) {
	return s.repo.List(ctx, hid)
}

// PostOffer mints an offer id and posts a reservation offer.
func (s *Service) PostOffer(ctx context.Context, hid, hostID string, capacity int, notes string) (*model.ReservationOffer, error) {
	o := model.ReservationOffer{OfferID: keys.NewID(), HostID: hostID, Capacity: capacity}
	o.Notes = notes
	if err := s.repo.CreateOffer(ctx, hid, o); err != nil {
		return nil, err
	}
	if err := s.hangouts.RefreshPointerSummaries(ctx, hid); err != nil {
		return nil, err
	}
	return &o, nil
}

// ClaimSpot atomically claims a spot on an offer, failing
// NoSeatsAvailable under contention (spec.md §4.8, mirroring the carpool
// seat-contention shape), then refreshes the summary.
func (s *Service) ClaimSpot(ctx context.Context, hid, offerID string) error {
	if err := s.repo.ClaimSpot(ctx, hid, offerID); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// ReleaseSpot gives a claimed spot back and refreshes the summary.
func (s *Service) ReleaseSpot(ctx context.Context, hid, offerID string) error {
	if err := s.repo.ReleaseSpot(ctx, hid, offerID); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// ListOffers passes straight through.
func (s *Service) ListOffers(ctx context.Context, hid string) ([]model.ReservationOffer, error) {
	return s.repo.ListOffers(ctx, hid)
}
