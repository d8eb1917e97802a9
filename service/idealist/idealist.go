// Package idealist is the Idea List Service of spec.md §4.12: id minting
// over the Idea List Repository's group-scoped brainstorm lists.
package idealist

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	listRepo "github.com/hangouts-inviter/eventgraph/repo/idealist"
)

// Service is the Idea List Service.
type Service struct {
	repo *listRepo.Repository
}

func New(repo *listRepo.Repository) *Service {
	return &Service{repo: repo}
}

// CreateList mints a list id and creates it.
func (s *Service) CreateList(ctx context.Context, gid, title string) (*model.IdeaList, error) {
	l := model.IdeaList{ListID: keys.NewID(), Title: title}
	if err := s.repo.CreateList(ctx, gid, l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLists passes straight through.
func (s *Service) ListLists(ctx context.Context, gid string) ([]model.IdeaList, error) {
	return s.repo.ListLists(ctx, gid)
}

// AddIdea mints an idea id and adds it to a list.
func (s *Service) AddIdea(ctx context.Context, gid, listID, title, description string) (*model.Idea, error) {
	idea := model.Idea{ListID: listID, IdeaID: keys.NewID(), Title: title, Description: description}
	if err := s.repo.AddIdea(ctx, gid, idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

// ListIdeas passes straight through.
func (s *Service) ListIdeas(ctx context.Context, gid, listID string) ([]model.Idea, error) {
	return s.repo.ListIdeas(ctx, gid, listID)
}

// Upvote and Downvote pass straight through to the atomic counter
// operations.
func (s *Service) Upvote(ctx context.Context, gid, listID, ideaID string) error {
	return s.repo.Upvote(ctx, gid, listID, ideaID)
}

func (s *Service) Downvote(ctx context.Context, gid, listID, ideaID string) error {
	return s.repo.Downvote(ctx, gid, listID, ideaID)
}

// RemoveIdea deletes a single idea.
func (s *Service) RemoveIdea(ctx context.Context, gid, listID, ideaID string) error {
	return s.repo.RemoveIdea(ctx, gid, listID, ideaID)
}

// DeleteList cascades a list and its ideas.
func (s *Service) DeleteList(ctx context.Context, gid, listID string) error {
	return s.repo.DeleteList(ctx, gid, listID)
}
