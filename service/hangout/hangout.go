// Package hangout is the Hangout Service of spec.md §4.12: creation,
// the single-query detail read, version-guarded canonical updates with
// denormalized-field propagation, pointer-summary refresh after a
// sub-resource mutation, and cascade delete — each wrapped with the
// audit trail privileged mutations require.
package hangout

import (
	"context"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/observability"
	"github.com/hangouts-inviter/eventgraph/internal/timeutil"
	hangoutRepo "github.com/hangouts-inviter/eventgraph/repo/hangout"
)

// Service is the Hangout Service.
type Service struct {
	repo    *hangoutRepo.Repository
	auditor *observability.Auditor
}

func New(repo *hangoutRepo.Repository, auditor *observability.Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// CreateInput is the caller-supplied payload for creating a hangout
// (spec.md §6.2 fields the canonical record carries).
type CreateInput struct {
	Title            string
	Description      string
	Time             timeutil.Resolved
	Location         model.Location
	Visibility       model.Visibility
	MainImagePath    string
	AssociatedGroups []string
	InvitedUsers     []string
	CarpoolEnabled   bool
	TicketLink       string
	TicketsRequired  bool
	DiscountCode     string
	ExternalID       string
	ExternalSource   string
	IsGeneratedTitle bool
	SeriesID         string
}

// Create mints a hangout id, transacts the canonical put with one
// pointer per associated group/invited user, and audits the mutation.
func (s *Service) Create(ctx context.Context, actorUserID string, in CreateInput) (*model.Hangout, error) {
	h := model.Hangout{
		HangoutID:        keys.NewID(),
		Title:            in.Title,
		Description:      in.Description,
		TimeInfo:         model.TimeInfo(in.Time.TimeInfo),
		StartTimestamp:   in.Time.StartTimestamp,
		EndTimestamp:     in.Time.EndTimestamp,
		Location:         in.Location,
		Visibility:       in.Visibility,
		MainImagePath:    in.MainImagePath,
		AssociatedGroups: in.AssociatedGroups,
		InvitedUsers:     in.InvitedUsers,
		CarpoolEnabled:   in.CarpoolEnabled,
		TicketLink:       in.TicketLink,
		TicketsRequired:  in.TicketsRequired,
		DiscountCode:     in.DiscountCode,
		ExternalID:       in.ExternalID,
		ExternalSource:   in.ExternalSource,
		IsGeneratedTitle: in.IsGeneratedTitle,
		SeriesID:         in.SeriesID,
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return nil, err
	}
	created, err := s.repo.GetCanonical(ctx, h.HangoutID)
	if err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, observability.LevelInfo, "hangout", "create", "hangout created", actorUserID,
		map[string]any{"hangoutId": h.HangoutID, "title": in.Title})
	return created, nil
}

// GetDetail is the single-partition-query detail read (spec.md §4.4/§8
// property 9).
func (s *Service) GetDetail(ctx context.Context, hid string) (*hangoutRepo.Detail, error) {
	return s.repo.LoadDetail(ctx, hid)
}

// denormalizedFields is the subset of a patch that must be echoed onto
// every pointer (spec.md §3.2). Fields absent from this set are
// canonical-only (e.g. description, ticketLink) and never fan out.
var denormalizedFields = map[string]bool{
	"title": true, "timeInfo": true, "startTimestamp": true, "endTimestamp": true,
	"location": true, "mainImagePath": true, "status": true,
}

// UpdateCanonical applies patch under a version guard and propagates the
// denormalized subset of patch to every pointer in the same logical
// operation (spec.md §4.4/§8 property 2: "pointers never drift from the
// canonical record they mirror").
func (s *Service) UpdateCanonical(ctx context.Context, actorUserID, hid string, patch map[string]any, expectedVersion int64) error {
	h, err := s.repo.GetCanonical(ctx, hid)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateCanonical(ctx, hid, patch, expectedVersion); err != nil {
		return err
	}
	fan := make(map[string]any, len(patch))
	for k, v := range patch {
		if denormalizedFields[k] {
			fan[k] = v
		}
	}
	if len(fan) > 0 {
		if err := s.repo.PropagateDenormalizedChange(ctx, hid, h.AssociatedGroups, h.InvitedUsers, fan); err != nil {
			return err
		}
	}
	s.auditor.Record(ctx, observability.LevelInfo, "hangout", "update", "hangout updated", actorUserID,
		map[string]any{"hangoutId": hid, "fields": keysOf(patch)})
	return nil
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// RefreshPointerSummaries recomputes the denormalized digests (poll
// summary, car summary, participation summary, participant count) from
// the canonical detail and fans them out, the operation every
// sub-resource service calls after a mutation that changes a summary
// (spec.md §4.6/§4.7/§4.8: "a vote/rider/claim change must be visible on
// the owning hangout's pointer without a client re-fetching the detail
// view").
func (s *Service) RefreshPointerSummaries(ctx context.Context, hid string) error {
	h, err := s.repo.GetCanonical(ctx, hid)
	if err != nil {
		return err
	}
	detail, err := s.repo.LoadDetail(ctx, hid)
	if err != nil {
		return err
	}

	pollsSummary := make([]model.PollSummary, 0, len(detail.Polls))
	voteCounts := map[string]int{}
	for _, v := range detail.Votes {
		voteCounts[v.PollID]++
	}
	optionCounts := map[string]int{}
	for _, o := range detail.Options {
		optionCounts[o.PollID]++
	}
	for _, p := range detail.Polls {
		pollsSummary = append(pollsSummary, model.PollSummary{
			PollID: p.PollID, Title: p.Title, MultipleChoice: p.MultipleChoice,
			OptionCount: optionCounts[p.PollID], VoteCount: voteCounts[p.PollID],
		})
	}

	carsSummary := make([]model.CarSummary, 0, len(detail.Cars))
	for _, c := range detail.Cars {
		carsSummary = append(carsSummary, model.CarSummary{
			DriverID: c.DriverID, DriverName: c.DriverName,
			TotalCapacity: c.TotalCapacity, AvailableSeats: c.AvailableSeats,
		})
	}

	participantCount := len(detail.Participations)
	fan := map[string]any{
		"pollsSummary":     toAnySlice(pollsSummary),
		"carsSummary":      toAnySlice(carsSummary),
		"participantCount": float64(participantCount),
	}
	return s.repo.PropagateDenormalizedChange(ctx, hid, h.AssociatedGroups, h.InvitedUsers, fan)
}

func toAnySlice[T any](ss []T) []any {
	out := make([]any, len(ss))
	for i, v := range ss {
		out[i] = v
	}
	return out
}

// Delete cascades the hangout's own items and every pointer it is known
// to have fanned out to.
func (s *Service) Delete(ctx context.Context, actorUserID, hid string) error {
	if err := s.repo.Delete(ctx, hid); err != nil {
		return err
	}
	s.auditor.Record(ctx, observability.LevelWarn, "hangout", "delete", "hangout deleted", actorUserID,
		map[string]any{"hangoutId": hid})
	return nil
}

// AddAssociatedGroup attaches an additional group to an existing
// hangout, e.g. a cross-posted event (spec.md §4.4).
func (s *Service) AddAssociatedGroup(ctx context.Context, actorUserID, hid, gid string) error {
	h, err := s.repo.GetCanonical(ctx, hid)
	if err != nil {
		return err
	}
	if err := s.repo.AddAssociatedGroup(ctx, *h, gid); err != nil {
		return err
	}
	s.auditor.Record(ctx, observability.LevelInfo, "hangout", "add_group", "hangout cross-posted", actorUserID,
		map[string]any{"hangoutId": hid, "groupId": gid})
	return nil
}

// RemoveAssociatedGroup detaches a group from a hangout.
func (s *Service) RemoveAssociatedGroup(ctx context.Context, actorUserID, hid, gid string) error {
	h, err := s.repo.GetCanonical(ctx, hid)
	if err != nil {
		return err
	}
	found := false
	for _, existing := range h.AssociatedGroups {
		if existing == gid {
			found = true
		}
	}
	if !found {
		return domainerr.New(domainerr.NotFound, "hangout is not associated with this group")
	}
	if err := s.repo.RemoveAssociatedGroup(ctx, *h, gid); err != nil {
		return err
	}
	s.auditor.Record(ctx, observability.LevelInfo, "hangout", "remove_group", "hangout un-cross-posted", actorUserID,
		map[string]any{"hangoutId": hid, "groupId": gid})
	return nil
}
