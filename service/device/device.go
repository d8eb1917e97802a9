// Package device is the Device Service of spec.md §4.11: a thin wrapper
// over the Device Repository's push-notification token registry.
package device

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/model"
	deviceRepo "github.com/hangouts-inviter/eventgraph/repo/device"
)

// Service is the Device Service.
type Service struct {
	repo *deviceRepo.Repository
}

func New(repo *deviceRepo.Repository) *Service {
	return &Service{repo: repo}
}

// Register upserts a device's push-notification registration.
func (s *Service) Register(ctx context.Context, uid, token, subscriptionToken string) error {
	return s.repo.Register(ctx, model.Device{Token: token, UserID: uid, SubscriptionToken: subscriptionToken})
}

// Get loads a device registration.
func (s *Service) Get(ctx context.Context, token string) (*model.Device, error) {
	return s.repo.Get(ctx, token)
}

// Unregister removes a device's registration.
func (s *Service) Unregister(ctx context.Context, token string) error {
	return s.repo.Unregister(ctx, token)
}
