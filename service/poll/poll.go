// Package poll is the Poll Service of spec.md §4.12: wraps the Poll
// Repository with id minting and the pointer-summary refresh every vote
// must trigger so a hangout's poll digest never goes stale.
package poll

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	pollRepo "github.com/hangouts-inviter/eventgraph/repo/poll"
)

// SummaryRefresher is satisfied by service/hangout.Service; kept as an
// interface here so this package never imports the hangout service
// directly (spec.md's layer table: sub-resource services depend
// downward on the hangout service's narrow refresh contract, not the
// other way around).
type SummaryRefresher interface {
	RefreshPointerSummaries(ctx context.Context, hid string) error
}

// Service is the Poll Service.
type Service struct {
	repo     *pollRepo.Repository
	hangouts SummaryRefresher
}

func New(repo *pollRepo.Repository, hangouts SummaryRefresher) *Service {
	return &Service{repo: repo, hangouts: hangouts}
}

// CreatePoll mints a poll id and creates the poll.
func (s *Service) CreatePoll(ctx context.Context, hid, title string, multipleChoice bool) (*model.Poll, error) {
	p := model.Poll{PollID: keys.NewID(), Title: title, MultipleChoice: multipleChoice}
	if err := s.repo.CreatePoll(ctx, hid, p); err != nil {
		return nil, err
	}
	if err := s.hangouts.RefreshPointerSummaries(ctx, hid); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddOption mints an option id and adds it to a poll.
func (s *Service) AddOption(ctx context.Context, hid, pollID, text string) (*model.PollOption, error) {
	o := model.PollOption{PollID: pollID, OptionID: keys.NewID(), Text: text}
	if err := s.repo.AddOption(ctx, hid, o); err != nil {
		return nil, err
	}
	if err := s.hangouts.RefreshPointerSummaries(ctx, hid); err != nil {
		return nil, err
	}
	return &o, nil
}

// RemoveOption deletes an option and its votes, refreshing the summary.
func (s *Service) RemoveOption(ctx context.Context, hid, pollID, optionID string) error {
	if err := s.repo.RemoveOption(ctx, hid, pollID, optionID); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// CastVote records userID's vote and refreshes the pointer summary so
// the vote count is immediately visible on every feed carrying this
// hangout (spec.md §4.6/§4.12).
func (s *Service) CastVote(ctx context.Context, hid, pollID string, multipleChoice bool, userID, optionID string, voteType model.VoteType) error {
	v := model.Vote{PollID: pollID, UserID: userID, OptionID: optionID, VoteType: voteType}
	if err := s.repo.CastVote(ctx, hid, pollID, multipleChoice, v); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// RemoveVote retracts a vote and refreshes the summary.
func (s *Service) RemoveVote(ctx context.Context, hid, pollID, userID, optionID string) error {
	if err := s.repo.RemoveVote(ctx, hid, pollID, userID, optionID); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// DeletePoll cascades a poll's options and votes, refreshing the
// summary.
func (s *Service) DeletePoll(ctx context.Context, hid, pollID string) error {
	if err := s.repo.DeletePoll(ctx, hid, pollID); err != nil {
		return err
	}
	return s.hangouts.RefreshPointerSummaries(ctx, hid)
}

// ListOptions and ListVotes pass straight through, since there is no
// service-level enrichment beyond what the repository already returns.
func (s *Service) ListOptions(ctx context.Context, hid, pollID string) ([]model.PollOption, error) {
	return s.repo.ListOptions(ctx, hid, pollID)
}

func (s *Service) ListVotes(ctx context.Context, hid, pollID string) ([]model.Vote, error) {
	return s.repo.ListVotes(ctx, hid, pollID)
}
