// Package attribute is the Attribute Service of spec.md §4.12: id
// minting and the pointer-summary refresh trigger around the Attribute
// Repository's freeform tag and interest-marker CRUD.
package attribute

import (
	"context"
	"strings"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	attrRepo "github.com/hangouts-inviter/eventgraph/repo/attribute"
)

// reservedAttributeNames are the exact names spec.md §4.9 reserves for
// the store's own internal bookkeeping fields, matched case-insensitively.
var reservedAttributeNames = map[string]bool{
	"id": true, "type": true, "system": true, "internal": true,
	"pk": true, "sk": true,
}

// reservedAttributePrefixes are the name prefixes spec.md §4.9 reserves
// the same way, matched case-insensitively.
var reservedAttributePrefixes = []string{"gsi", "system_", "internal_"}

// validateAttributeName enforces spec.md §4.9: trimmed, 1-100 characters,
// and not one of the names or prefixes the store reserves for itself.
func validateAttributeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", domainerr.Invalid("name", "must not be empty")
	}
	if len(trimmed) > 100 {
		return "", domainerr.Invalid("name", "must be at most 100 characters")
	}
	lower := strings.ToLower(trimmed)
	if reservedAttributeNames[lower] {
		return "", domainerr.New(domainerr.ReservedName, "attribute name "+trimmed+" is reserved")
	}
	for _, prefix := range reservedAttributePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "", domainerr.New(domainerr.ReservedName, "attribute name "+trimmed+" is reserved")
		}
	}
	return trimmed, nil
}

// SummaryRefresher is the narrow hangout-service contract this package
// depends on.
type SummaryRefresher interface {
	RefreshPointerSummaries(ctx context.Context, hid string) error
}

// Service is the Attribute Service.
type Service struct {
	repo     *attrRepo.Repository
	hangouts SummaryRefresher
}

func New(repo *attrRepo.Repository, hangouts SummaryRefresher) *Service {
	return &Service{repo: repo, hangouts: hangouts}
}

// SetAttribute upserts a freeform key/value tag, refreshing the summary
// since attributes surface on a pointer's denormalized attributes map
// (spec.md §4.9/§4.12).
func (s *Service) SetAttribute(ctx context.Context, hid, name, value string) (*model.Attribute, error) {
	name, err := validateAttributeName(name)
	if err != nil {
		return nil, err
	}
	a := model.Attribute{AttributeID: keys.NewID(), Name: name, Value: value}
	if err := s.repo.Put(ctx, hid, a); err != nil {
		return nil, err
	}
	if err := s.hangouts.RefreshPointerSummaries(ctx, hid); err != nil {
		return nil, err
	}
	return &a, nil
}

// RemoveAttribute deletes a tag and refreshes the summary.
func (s *Service) RemoveAttribute(ctx context.Context, hid, attributeID string) error {
	if err := s.repo.Remove(ctx, hid, attributeID); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// ListAttributes passes straight through.
func (s *Service) ListAttributes(ctx context.Context, hid string) ([]model.Attribute, error) {
	return s.repo.List(ctx, hid)
}

// MarkInterested and ClearInterested pass straight through; interest
// markers are informational and don't feed a pointer summary field.
func (s *Service) MarkInterested(ctx context.Context, hid, uid string) error {
	return s.repo.MarkInterested(ctx, hid, uid)
}

func (s *Service) ClearInterested(ctx context.Context, hid, uid string) error {
	return s.repo.ClearInterested(ctx, hid, uid)
}

func (s *Service) ListInterested(ctx context.Context, hid string) ([]model.Interest, error) {
	return s.repo.ListInterested(ctx, hid)
}
