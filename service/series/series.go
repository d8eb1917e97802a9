// Package series is the Series Service of spec.md §4.12: id minting,
// membership management, and audited mutation around the Series
// Repository.
package series

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/observability"
	seriesRepo "github.com/hangouts-inviter/eventgraph/repo/series"
)

// Service is the Series Service.
type Service struct {
	repo    *seriesRepo.Repository
	auditor *observability.Auditor
}

func New(repo *seriesRepo.Repository, auditor *observability.Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Create mints a series id and transacts its creation with pointers into
// every associated group (spec.md §4.5).
func (s *Service) Create(ctx context.Context, actorUserID, title string, groups, members []string, firstStartTimestamp int64) (*model.Series, error) {
	series := model.Series{SeriesID: keys.NewID(), Title: title, Groups: groups, Members: members}
	if err := s.repo.Create(ctx, series, firstStartTimestamp); err != nil {
		return nil, err
	}
	created, err := s.repo.GetCanonical(ctx, series.SeriesID)
	if err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, observability.LevelInfo, "series", "create", "series created", actorUserID,
		map[string]any{"seriesId": series.SeriesID, "title": title})
	return created, nil
}

// Get loads the canonical series.
func (s *Service) Get(ctx context.Context, sid string) (*model.Series, error) {
	return s.repo.GetCanonical(ctx, sid)
}

// Join adds uid to the series' member roster.
func (s *Service) Join(ctx context.Context, sid, uid string) error {
	series, err := s.repo.GetCanonical(ctx, sid)
	if err != nil {
		return err
	}
	return s.repo.AddMember(ctx, *series, uid)
}

// Leave removes uid from the series' member roster.
func (s *Service) Leave(ctx context.Context, sid, uid string) error {
	series, err := s.repo.GetCanonical(ctx, sid)
	if err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, *series, uid)
}

// AdvanceOccurrence moves a series' next-occurrence pointer timestamp
// forward in every associated group, keeping EntityTimeIndex ordering
// accurate as recurrences roll forward (spec.md §4.5/§4.14).
func (s *Service) AdvanceOccurrence(ctx context.Context, sid string, nextStartTimestamp int64) error {
	series, err := s.repo.GetCanonical(ctx, sid)
	if err != nil {
		return err
	}
	for _, gid := range series.Groups {
		if err := s.repo.UpdatePointerStartTimestamp(ctx, gid, sid, nextStartTimestamp); err != nil {
			return err
		}
	}
	return nil
}

// Delete cascades a series and its group pointers, auditing since
// deletion is irreversible.
func (s *Service) Delete(ctx context.Context, actorUserID, sid string) error {
	if err := s.repo.Delete(ctx, sid); err != nil {
		return err
	}
	s.auditor.Record(ctx, observability.LevelWarn, "series", "delete", "series deleted", actorUserID,
		map[string]any{"seriesId": sid})
	return nil
}
