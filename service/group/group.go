// Package group is the Group Service of spec.md §4.12: orchestrates the
// Group Repository with the membership invariants and audit trail that
// don't belong in a repository (which only ever executes exactly what
// its caller asks of it).
package group

import (
	"context"
	"fmt"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/observability"
	"github.com/hangouts-inviter/eventgraph/repo/group"
)

// Feed is the assembled group-detail read model spec.md §4.12 describes:
// membership roster, hangout pointers, and series pointers gathered from
// the three partition-scoped repository queries, plus the validator the
// caller should echo back as an ETag.
type Feed struct {
	Group     model.Group
	Members   []model.Membership
	Hangouts  []model.HangoutPointer
	Series    []model.SeriesPointer
	Validator int64
}

// Service is the Group Service.
type Service struct {
	repo    *group.Repository
	auditor *observability.Auditor
}

func New(repo *group.Repository, auditor *observability.Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// CreateGroup mints a new group id and transacts its creation with the
// founder's admin membership (spec.md §4.3/§4.12).
func (s *Service) CreateGroup(ctx context.Context, actorUserID, groupName string, isPublic bool, mainImagePath string) (*model.Group, error) {
	g := model.Group{
		GroupID:       keys.NewID(),
		GroupName:     groupName,
		IsPublic:      isPublic,
		MainImagePath: mainImagePath,
	}
	if err := s.repo.CreateGroupWithCreator(ctx, g, actorUserID); err != nil {
		return nil, err
	}
	created, err := s.repo.GetMetadata(ctx, g.GroupID)
	if err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, observability.LevelInfo, "group", "create", "group created", actorUserID,
		map[string]any{"groupId": g.GroupID, "groupName": groupName})
	return created, nil
}

// GetFeed assembles the group-detail read model with three independent
// partition queries (spec.md §4.12: "never more than one query per
// sub-resource"). The read path always begins with a cheap 1-item get
// on METADATA; when ifNoneMatch matches the current ETag, GetFeed stops
// there and fails Unchanged instead of issuing the three follow-up
// queries (spec.md §4.12/§8 scenario S4).
func (s *Service) GetFeed(ctx context.Context, gid, ifNoneMatch string) (*Feed, error) {
	g, err := s.repo.GetMetadata(ctx, gid)
	if err != nil {
		return nil, err
	}
	if ifNoneMatch != "" && ifNoneMatch == ETag(gid, g.LastHangoutModified) {
		return nil, domainerr.New(domainerr.Unchanged, "feed has not changed since "+ifNoneMatch)
	}
	members, err := s.repo.ListMembers(ctx, gid)
	if err != nil {
		return nil, err
	}
	hangouts, err := s.repo.ListHangoutPointers(ctx, gid)
	if err != nil {
		return nil, err
	}
	series, err := s.repo.ListSeriesPointers(ctx, gid)
	if err != nil {
		return nil, err
	}
	return &Feed{Group: *g, Members: members, Hangouts: hangouts, Series: series, Validator: g.LastHangoutModified}, nil
}

// ETag formats the feed validator the way every feed-serving endpoint
// should echo it (spec.md §4.12: "the returned ETag is
// \"{gid}-{lastHangoutModified}\"").
func ETag(gid string, validator int64) string {
	return fmt.Sprintf("%s-%d", gid, validator)
}

// AddMember adds uid to the group with the given role, auditing the
// mutation since membership changes are privileged (spec.md §4.12).
func (s *Service) AddMember(ctx context.Context, actorUserID, gid, uid string, role model.Role) error {
	g, err := s.repo.GetMetadata(ctx, gid)
	if err != nil {
		return err
	}
	if err := s.repo.AddMember(ctx, gid, uid, g.GroupName, role); err != nil {
		return err
	}
	s.auditor.Record(ctx, observability.LevelInfo, "group", "add_member", "member added", actorUserID,
		map[string]any{"groupId": gid, "userId": uid, "role": string(role)})
	return nil
}

// RemoveMember removes uid, refusing to remove the group's last admin
// (spec.md §3.4: "a group must always retain at least one admin").
func (s *Service) RemoveMember(ctx context.Context, actorUserID, gid, uid string) error {
	members, err := s.repo.ListMembers(ctx, gid)
	if err != nil {
		return err
	}
	adminCount := 0
	var target *model.Membership
	for i := range members {
		if members[i].Role == model.RoleAdmin {
			adminCount++
		}
		if members[i].UserID == uid {
			target = &members[i]
		}
	}
	if target == nil {
		return domainerr.New(domainerr.NotFound, "membership not found")
	}
	if target.Role == model.RoleAdmin && adminCount <= 1 {
		return domainerr.New(domainerr.Conflict, "group must retain at least one admin")
	}
	if err := s.repo.RemoveMember(ctx, gid, uid); err != nil {
		return err
	}
	s.auditor.Record(ctx, observability.LevelInfo, "group", "remove_member", "member removed", actorUserID,
		map[string]any{"groupId": gid, "userId": uid})
	return nil
}

// DeleteGroup cascades the group's own items, auditing since deletion is
// irreversible (spec.md §4.12/§9). Hangout pointers and associatedGroups
// entries referring back to this group are not removed.
func (s *Service) DeleteGroup(ctx context.Context, actorUserID, gid string) error {
	members, err := s.repo.ListMembers(ctx, gid)
	if err != nil {
		return err
	}
	isAdmin := false
	for _, m := range members {
		if m.UserID == actorUserID && m.Role == model.RoleAdmin {
			isAdmin = true
			break
		}
	}
	if !isAdmin {
		return domainerr.New(domainerr.Forbidden, "only a group admin may delete the group")
	}
	if err := s.repo.DeleteGroup(ctx, gid); err != nil {
		return err
	}
	s.auditor.Record(ctx, observability.LevelWarn, "group", "delete", "group deleted", actorUserID,
		map[string]any{"groupId": gid})
	return nil
}

// FindGroupsForUser returns every group uid belongs to.
func (s *Service) FindGroupsForUser(ctx context.Context, uid string) ([]model.Membership, error) {
	return s.repo.FindGroupsForUser(ctx, uid)
}
