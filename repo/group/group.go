// Package group implements the Group Repository of spec.md §4.3: atomic
// group creation with its first membership, membership listing via
// UserGroupIndex, hangout-pointer listing within the group partition, the
// feed ETag bump, and best-effort cascade delete.
//
// Grounded on the teacher's legacy/storage.go Group* methods for the CRUD
// shape, generalized from relational rows to the wide-key item model.
package group

import (
	"context"
	"time"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
)

// Repository is the Group Repository (spec.md §4.3).
type Repository struct {
	store store.Store
}

func New(s store.Store) *Repository { return &Repository{store: s} }

// CreateGroupWithCreator transacts the group METADATA put (condition:
// PK not exists) with the founder's membership put, atomically
// (spec.md §4.3). Fails Conflict if the group already exists.
func (r *Repository) CreateGroupWithCreator(ctx context.Context, g model.Group, creatorUserID string) error {
	if err := keys.RequireGroupID(g.GroupID); err != nil {
		return err
	}
	if err := keys.RequireUserID(creatorUserID); err != nil {
		return err
	}
	now := time.Now()
	g.Version = 1
	g.LastHangoutModified = now.UnixMilli()
	groupAttrs, err := model.ToAttrs(g)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode group")
	}

	membership := model.Membership{
		GroupID:   g.GroupID,
		UserID:    creatorUserID,
		GroupName: g.GroupName,
		Role:      model.RoleAdmin,
		JoinedAt:  now.Unix(),
	}
	memberAttrs, err := model.ToAttrs(membership)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode membership")
	}

	pk := keys.GroupPK(g.GroupID)
	ops := []store.Op{
		{
			Kind:      store.OpPut,
			Item:      store.Item{PK: pk, SK: keys.SKMetadata, Version: g.Version, Attrs: groupAttrs},
			Condition: store.NotExists(),
			Label:     "group-metadata",
		},
		{
			Kind: store.OpPut,
			Item: store.Item{
				PK: pk, SK: keys.MemberSK(creatorUserID),
				GSI1PK: keys.UserPK(creatorUserID), GSI1SK: keys.InviteGroupSK(g.GroupID),
				Attrs: memberAttrs,
			},
			Label: "founder-membership",
		},
	}
	if err := r.store.Transact(ctx, ops); err != nil {
		if tce, ok := err.(*store.TransactionCanceledError); ok {
			if reason := tce.ReasonForLabel("group-metadata", ops); reason != nil {
				return domainerr.New(domainerr.Conflict, "group already exists")
			}
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "create group")
	}
	return nil
}

// GetMetadata loads the group's canonical METADATA record.
func (r *Repository) GetMetadata(ctx context.Context, gid string) (*model.Group, error) {
	item, err := r.store.Get(ctx, keys.GroupPK(gid), keys.SKMetadata)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "get group metadata")
	}
	if item == nil {
		return nil, domainerr.New(domainerr.NotFound, "group not found")
	}
	var g model.Group
	if err := model.FromAttrs(item.Attrs, &g); err != nil {
		return nil, domainerr.Wrap(domainerr.Internal, err, "decode group")
	}
	g.Version = item.Version
	return &g, nil
}

// FindGroupsForUser is a single UserGroupIndex query; no follow-up fetch
// is permitted (spec.md §4.3's explicit anti-pattern guard).
func (r *Repository) FindGroupsForUser(ctx context.Context, uid string) ([]model.Membership, error) {
	page, err := r.store.QueryIndex(ctx, store.UserGroupIndex, keys.UserPK(uid), store.QueryOptions{})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "find groups for user")
	}
	out := make([]model.Membership, 0, len(page.Items))
	for _, item := range page.Items {
		var m model.Membership
		if err := model.FromAttrs(item.Attrs, &m); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode membership")
		}
		out = append(out, m)
	}
	return out, nil
}

// ListMembers is a single partition range query (SK begins_with USER#).
func (r *Repository) ListMembers(ctx context.Context, gid string) ([]model.Membership, error) {
	page, err := r.store.Query(ctx, keys.GroupPK(gid), store.QueryOptions{SortPrefix: "USER#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list members")
	}
	out := make([]model.Membership, 0, len(page.Items))
	for _, item := range page.Items {
		var m model.Membership
		if err := model.FromAttrs(item.Attrs, &m); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode membership")
		}
		out = append(out, m)
	}
	return out, nil
}

// ListHangoutPointers is a single partition range query (SK begins_with
// HANGOUT#) — the group-feed read backbone (spec.md §2's "read path").
func (r *Repository) ListHangoutPointers(ctx context.Context, gid string) ([]model.HangoutPointer, error) {
	page, err := r.store.Query(ctx, keys.GroupPK(gid), store.QueryOptions{SortPrefix: "HANGOUT#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list hangout pointers")
	}
	out := make([]model.HangoutPointer, 0, len(page.Items))
	for _, item := range page.Items {
		var p model.HangoutPointer
		if err := model.FromAttrs(item.Attrs, &p); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode hangout pointer")
		}
		out = append(out, p)
	}
	return out, nil
}

// ListSeriesPointers is a single partition range query (SK begins_with
// SERIES#).
func (r *Repository) ListSeriesPointers(ctx context.Context, gid string) ([]model.SeriesPointer, error) {
	page, err := r.store.Query(ctx, keys.GroupPK(gid), store.QueryOptions{SortPrefix: "SERIES#"})
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "list series pointers")
	}
	out := make([]model.SeriesPointer, 0, len(page.Items))
	for _, item := range page.Items {
		var p model.SeriesPointer
		if err := model.FromAttrs(item.Attrs, &p); err != nil {
			return nil, domainerr.Wrap(domainerr.Internal, err, "decode series pointer")
		}
		out = append(out, p)
	}
	return out, nil
}

// UpdateHangoutPointer conditionally updates the pointer's denormalized
// fields, failing if the pointer has been deleted out from under the
// caller (spec.md §5: "Writes to a pointer are serialized via condition
// attribute_exists").
func (r *Repository) UpdateHangoutPointer(ctx context.Context, gid, hid string, fieldMap map[string]any) error {
	err := r.store.Update(ctx, keys.GroupPK(gid), keys.HangoutPointerSK(hid), store.Update{Set: fieldMap}, store.Exists())
	if err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.NotFound, "hangout pointer not found")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "update hangout pointer")
	}
	return nil
}

// BumpFeedValidatorOp builds the Transact op that sets lastHangoutModified
// on the group METADATA — the ETag seed of spec.md §4.12. Every write that
// alters the group's feed must include this op in the same transact.
func BumpFeedValidatorOp(gid string, now time.Time) store.Op {
	return store.Op{
		Kind: store.OpUpdate,
		PK:   keys.GroupPK(gid), SK: keys.SKMetadata,
		Update:    store.Update{Set: map[string]any{"lastHangoutModified": float64(now.UnixMilli())}},
		Condition: store.Exists(),
		Label:     "bump-feed-" + gid,
	}
}

// BumpFeedValidator performs the bump as a standalone call, for paths that
// are not already inside a larger transact.
func (r *Repository) BumpFeedValidator(ctx context.Context, gid string) error {
	err := r.store.Update(ctx, keys.GroupPK(gid), keys.SKMetadata,
		store.Update{Set: map[string]any{"lastHangoutModified": float64(time.Now().UnixMilli())}},
		store.Exists())
	if err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.NotFound, "group not found")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "bump feed validator")
	}
	return nil
}

// AddMember adds a membership record, used by invite-code join and
// admin-driven adds alike (spec.md §3.4).
func (r *Repository) AddMember(ctx context.Context, gid, uid, groupName string, role model.Role) error {
	m := model.Membership{GroupID: gid, UserID: uid, GroupName: groupName, Role: role, JoinedAt: time.Now().Unix()}
	attrs, err := model.ToAttrs(m)
	if err != nil {
		return domainerr.Wrap(domainerr.Internal, err, "encode membership")
	}
	item := store.Item{
		PK: keys.GroupPK(gid), SK: keys.MemberSK(uid),
		GSI1PK: keys.UserPK(uid), GSI1SK: keys.InviteGroupSK(gid),
		Attrs: attrs,
	}
	if err := r.store.Put(ctx, item, nil); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "add member")
	}
	return nil
}

// GetMember returns the membership record, or NotFound.
func (r *Repository) GetMember(ctx context.Context, gid, uid string) (*model.Membership, error) {
	item, err := r.store.Get(ctx, keys.GroupPK(gid), keys.MemberSK(uid))
	if err != nil {
		return nil, domainerr.Wrap(domainerr.StoreUnavailable, err, "get member")
	}
	if item == nil {
		return nil, domainerr.New(domainerr.NotFound, "membership not found")
	}
	var m model.Membership
	if err := model.FromAttrs(item.Attrs, &m); err != nil {
		return nil, domainerr.Wrap(domainerr.Internal, err, "decode membership")
	}
	return &m, nil
}

// RemoveMember removes a membership. Callers must enforce "last owner
// cannot leave" (spec.md §3.4) before calling this.
func (r *Repository) RemoveMember(ctx context.Context, gid, uid string) error {
	if err := r.store.Delete(ctx, keys.GroupPK(gid), keys.MemberSK(uid), store.Exists()); err != nil {
		if err == store.ErrConditionFailed {
			return domainerr.New(domainerr.NotFound, "membership not found")
		}
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "remove member")
	}
	return nil
}

// DeleteGroup discovers and batch-deletes every GROUP#{gid} item, per
// spec.md §4.3. It does not touch hangouts that referenced this group:
// their pointers and associatedGroups entries are left in place, and no
// code in this module removes them.
func (r *Repository) DeleteGroup(ctx context.Context, gid string) error {
	page, err := r.store.Query(ctx, keys.GroupPK(gid), store.QueryOptions{})
	if err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "scan group for delete")
	}
	keysToDelete := make([]store.Key, 0, len(page.Items))
	for _, item := range page.Items {
		keysToDelete = append(keysToDelete, store.Key{PK: item.PK, SK: item.SK})
	}
	if err := r.store.BatchWrite(ctx, nil, keysToDelete); err != nil {
		return domainerr.Wrap(domainerr.StoreUnavailable, err, "delete group items")
	}
	return nil
}
