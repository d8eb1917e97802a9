// Package place is the Place Service of spec.md §4.12: id minting and a
// thin orchestration layer over the Place Repository, for both
// user-owned and group-owned saved-place catalogs.
package place

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	placeRepo "github.com/hangouts-inviter/eventgraph/repo/place"
)

// Service is the Place Service.
type Service struct {
	repo *placeRepo.Repository
}

func New(repo *placeRepo.Repository) *Service {
	return &Service{repo: repo}
}

// SaveForUser mints a place id and saves it under the user's own
// catalog.
func (s *Service) SaveForUser(ctx context.Context, uid, name string, loc model.Location) (*model.Place, error) {
	p := model.Place{PlaceID: keys.NewID(), Name: name, Location: loc}
	if err := s.repo.Put(ctx, keys.UserPK(uid), p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveForGroup mints a place id and saves it under a group's shared
// catalog.
func (s *Service) SaveForGroup(ctx context.Context, gid, name string, loc model.Location) (*model.Place, error) {
	p := model.Place{PlaceID: keys.NewID(), Name: name, Location: loc}
	if err := s.repo.Put(ctx, keys.GroupPK(gid), p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListForUser returns every place a user has saved.
func (s *Service) ListForUser(ctx context.Context, uid string) ([]model.Place, error) {
	return s.repo.List(ctx, keys.UserPK(uid))
}

// ListForGroup returns every place a group has saved.
func (s *Service) ListForGroup(ctx context.Context, gid string) ([]model.Place, error) {
	return s.repo.List(ctx, keys.GroupPK(gid))
}

// RemoveFromUser deletes a user-owned saved place.
func (s *Service) RemoveFromUser(ctx context.Context, uid, placeID string) error {
	return s.repo.Delete(ctx, keys.UserPK(uid), placeID)
}

// RemoveFromGroup deletes a group-owned saved place.
func (s *Service) RemoveFromGroup(ctx context.Context, gid, placeID string) error {
	return s.repo.Delete(ctx, keys.GroupPK(gid), placeID)
}
