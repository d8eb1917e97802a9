// Package timeutil implements the fuzzy-time model of spec.md §3.3: a
// hangout accepts either an exact (startTime, endTime) pair or a fuzzy
// (periodGranularity, periodStart) pair, and the core converts either into
// canonical UTC startTimestamp/endTimestamp while preserving the original
// timeInfo map verbatim for display.
package timeutil

import (
	"time"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
)

// Granularity is one of the fuzzy period buckets spec.md §3.3 defines.
type Granularity string

const (
	Morning Granularity = "morning"
	Afternoon Granularity = "afternoon"
	Evening   Granularity = "evening"
	Night     Granularity = "night"
	Day       Granularity = "day"
	Weekend   Granularity = "weekend"
)

// durations maps granularity to its fixed span.
var durations = map[Granularity]time.Duration{
	Morning:   4 * time.Hour,
	Afternoon: 4 * time.Hour,
	Evening:   4 * time.Hour,
	Night:     8 * time.Hour,
	Day:       12 * time.Hour,
	Weekend:   48 * time.Hour,
}

// Resolved is the canonical time representation stored on every hangout
// canonical/pointer item.
type Resolved struct {
	StartTimestamp int64          // unix seconds, UTC
	EndTimestamp   int64          // unix seconds, UTC
	TimeInfo       map[string]any // preserved verbatim for display
}

// Exact resolves an explicit ISO-8601-with-offset start/end pair.
func Exact(startISO, endISO string) (Resolved, error) {
	start, err := time.Parse(time.RFC3339, startISO)
	if err != nil {
		return Resolved{}, domainerr.Invalid("startTime", "must be ISO-8601 with offset")
	}
	end, err := time.Parse(time.RFC3339, endISO)
	if err != nil {
		return Resolved{}, domainerr.Invalid("endTime", "must be ISO-8601 with offset")
	}
	if !end.After(start) {
		return Resolved{}, domainerr.Invalid("endTime", "must be after startTime")
	}
	return Resolved{
		StartTimestamp: start.UTC().Unix(),
		EndTimestamp:   end.UTC().Unix(),
		TimeInfo: map[string]any{
			"startTime": startISO,
			"endTime":   endISO,
		},
	}, nil
}

// Fuzzy resolves a (periodGranularity, periodStart) pair into canonical
// timestamps using the fixed granularity→duration table of spec.md §3.3.
func Fuzzy(granularity Granularity, periodStartISO string) (Resolved, error) {
	dur, ok := durations[granularity]
	if !ok {
		return Resolved{}, domainerr.Invalid("periodGranularity", "unknown granularity "+string(granularity))
	}
	start, err := time.Parse(time.RFC3339, periodStartISO)
	if err != nil {
		return Resolved{}, domainerr.Invalid("periodStart", "must be ISO-8601 with offset")
	}
	end := start.Add(dur)
	return Resolved{
		StartTimestamp: start.UTC().Unix(),
		EndTimestamp:   end.UTC().Unix(),
		TimeInfo: map[string]any{
			"periodGranularity": string(granularity),
			"periodStart":       periodStartISO,
		},
	}, nil
}

// IsStable reports whether re-resolving timeInfo reproduces the same
// (startTimestamp, endTimestamp) — the round-trip property spec.md §8
// requires of the fuzzy-time parser.
func IsStable(r Resolved) (bool, error) {
	if gran, ok := r.TimeInfo["periodGranularity"].(string); ok {
		periodStart, _ := r.TimeInfo["periodStart"].(string)
		again, err := Fuzzy(Granularity(gran), periodStart)
		if err != nil {
			return false, err
		}
		return again.StartTimestamp == r.StartTimestamp && again.EndTimestamp == r.EndTimestamp, nil
	}
	startISO, _ := r.TimeInfo["startTime"].(string)
	endISO, _ := r.TimeInfo["endTime"].(string)
	again, err := Exact(startISO, endISO)
	if err != nil {
		return false, err
	}
	return again.StartTimestamp == r.StartTimestamp && again.EndTimestamp == r.EndTimestamp, nil
}
