// Package feed is the user-wide chronological Feed Assembly of spec.md
// §4.14: bounded-parallel EntityTimeIndex queries across a user's own
// partition and every group they belong to, K-way merged by
// startTimestamp with ties broken by hangout id.
package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/hangouts-inviter/eventgraph/internal/config"
	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/keys"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/store"
	"github.com/hangouts-inviter/eventgraph/repo/group"
)

// Service is the Feed Assembly service.
type Service struct {
	store  store.Store
	groups *group.Repository
	cfg    config.Feed
}

func New(s store.Store, groups *group.Repository, cfg config.Feed) *Service {
	return &Service{store: s, groups: groups, cfg: cfg}
}

type partitionResult struct {
	pointers []model.HangoutPointer
	err      error
}

// ListForUser computes the target partitions (the user's own plus every
// group they belong to), fans out EntityTimeIndex queries across them
// with bounded parallelism, and K-way merges the results (spec.md
// §4.14). A non-positive limit falls back to cfg.DefaultPageSize; limit
// is capped at cfg.MaxPageSize.
func (s *Service) ListForUser(ctx context.Context, uid string, afterTimestamp int64, limit int) ([]model.HangoutPointer, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	memberships, err := s.groups.FindGroupsForUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	partitions := make([]string, 0, len(memberships)+1)
	partitions = append(partitions, keys.UserPK(uid))
	for _, m := range memberships {
		partitions = append(partitions, keys.GroupPK(m.GroupID))
	}

	pages, err := s.queryAll(ctx, partitions, afterTimestamp)
	if err != nil {
		return nil, err
	}
	merged := kWayMerge(pages)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// queryAll issues one EntityTimeIndex query per partition, bounded to
// cfg.MaxParallelPartitions concurrent in-flight calls (spec.md §4.14/§5:
// "parallel threads... per task, the work is I/O-bound").
func (s *Service) queryAll(ctx context.Context, partitions []string, afterTimestamp int64) ([][]model.HangoutPointer, error) {
	results := make([]partitionResult, len(partitions))
	sem := make(chan struct{}, s.cfg.MaxParallelPartitions)
	var wg sync.WaitGroup

	for i, pk := range partitions {
		wg.Add(1)
		go func(i int, pk string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.queryOne(ctx, pk, afterTimestamp)
		}(i, pk)
	}
	wg.Wait()

	pages := make([][]model.HangoutPointer, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		pages = append(pages, r.pointers)
	}
	return pages, nil
}

func (s *Service) queryOne(ctx context.Context, pk string, afterTimestamp int64) partitionResult {
	page, err := s.store.QueryIndex(ctx, store.EntityTimeIndex, pk, store.QueryOptions{MinStartTimestamp: &afterTimestamp})
	if err != nil {
		return partitionResult{err: domainerr.Wrap(domainerr.StoreUnavailable, err, "query entity-time index")}
	}
	out := make([]model.HangoutPointer, 0, len(page.Items))
	for _, item := range page.Items {
		var p model.HangoutPointer
		if err := model.FromAttrs(item.Attrs, &p); err != nil {
			return partitionResult{err: domainerr.Wrap(domainerr.Internal, err, "decode hangout pointer")}
		}
		out = append(out, p)
	}
	return partitionResult{pointers: out}
}

// kWayMerge merges already-sorted pages by startTimestamp ascending, ties
// broken by hangout id lexicographic (spec.md §5).
func kWayMerge(pages [][]model.HangoutPointer) []model.HangoutPointer {
	total := 0
	for _, p := range pages {
		total += len(p)
	}
	merged := make([]model.HangoutPointer, 0, total)
	for _, p := range pages {
		merged = append(merged, p...)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].StartTimestamp != merged[j].StartTimestamp {
			return merged[i].StartTimestamp < merged[j].StartTimestamp
		}
		return merged[i].HangoutID < merged[j].HangoutID
	})
	return dedupe(merged)
}

// dedupe collapses duplicate hangout ids that can arise when a hangout
// is both invited-to-user and associated-with-a-group the user also
// belongs to (spec.md §4.14 doesn't name this explicitly, but the same
// hangout must not appear twice in one feed page).
func dedupe(pointers []model.HangoutPointer) []model.HangoutPointer {
	seen := make(map[string]bool, len(pointers))
	out := make([]model.HangoutPointer, 0, len(pointers))
	for _, p := range pointers {
		if seen[p.HangoutID] {
			continue
		}
		seen[p.HangoutID] = true
		out = append(out, p)
	}
	return out
}
