// Package interval implements the pure time-interval algebra used by the
// availability engine: merging busy intervals, inverting them into free
// intervals within a window, intersecting free sets across participants, and
// enumerating candidate meeting slots on a 15-minute grid.
//
// All functions are pure and deterministic. Intervals are half-open
// [Start, End); an interval with End <= Start is considered empty and is
// dropped before any computation.
package interval

import (
	"sort"
	"time"
)

// SlotStep is the grid on which candidate slots are aligned, anchored at the
// query window start.
const SlotStep = 15 * time.Minute

// Interval is a half-open time span [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsValid reports whether the interval is non-empty.
func (iv Interval) IsValid() bool {
	return iv.End.After(iv.Start)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Contains reports whether other lies fully within iv.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// Merge sorts the given intervals by start and coalesces overlapping or
// touching ones. A busy block ending at 11:00 and another starting at 11:00
// merge into one; there is no usable gap between them. Empty or inverted
// intervals are dropped. The result is sorted and pairwise disjoint.
func Merge(intervals []Interval) []Interval {
	valid := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.IsValid() {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.Before(valid[j].Start)
	})

	merged := []Interval{valid[0]}
	for _, next := range valid[1:] {
		last := &merged[len(merged)-1]
		if !next.Start.After(last.End) {
			if next.End.After(last.End) {
				last.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// InvertToFree returns the gaps inside window not covered by busy. The busy
// list must already be merged and sorted (the output of Merge). Busy
// intervals are clipped to the window; an empty busy list yields the whole
// window.
func InvertToFree(busy []Interval, window Interval) []Interval {
	if !window.IsValid() {
		return nil
	}

	var free []Interval
	cursor := window.Start
	for _, b := range busy {
		if !b.End.After(window.Start) || !b.Start.Before(window.End) {
			continue
		}
		if b.Start.After(cursor) {
			gap := Interval{Start: cursor, End: minTime(b.Start, window.End)}
			if gap.IsValid() {
				free = append(free, gap)
			}
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}

// IntersectFree folds a pairwise intersection across the participants' free
// lists. Each input list must be sorted and disjoint (as produced by
// InvertToFree). The fold short-circuits to nil as soon as any pairwise
// intersection is empty.
func IntersectFree(lists [][]Interval) []Interval {
	if len(lists) == 0 {
		return nil
	}
	common := lists[0]
	for _, next := range lists[1:] {
		common = intersectPair(common, next)
		if len(common) == 0 {
			return nil
		}
	}
	return common
}

// intersectPair is the standard two-pointer interval sweep: at each step the
// overlap of the current pair is emitted if non-empty, then the interval
// ending first is advanced.
func intersectPair(a, b []Interval) []Interval {
	var out []Interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := maxTime(a[i].Start, b[j].Start)
		end := minTime(a[i].End, b[j].End)
		if end.After(start) {
			out = append(out, Interval{Start: start, End: end})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

// PickSlots enumerates candidate slots of the requested duration inside the
// free intervals, earliest first. Candidate starts are aligned up to the next
// 15-minute boundary on a grid anchored at windowStart, then stepped by 15
// minutes while the slot still fits inside the free interval. Slots from
// different offsets may overlap; the result is a ranked list of options, not
// a partition. Enumeration stops once limit slots have been produced.
func PickSlots(free []Interval, windowStart time.Time, duration time.Duration, limit int) []Interval {
	if duration <= 0 || limit <= 0 {
		return nil
	}

	var slots []Interval
	for _, f := range free {
		start := alignUp(f.Start, windowStart)
		for !start.Add(duration).After(f.End) {
			slots = append(slots, Interval{Start: start, End: start.Add(duration)})
			if len(slots) >= limit {
				return slots
			}
			start = start.Add(SlotStep)
		}
	}
	return slots
}

// alignUp rounds t up to the next SlotStep boundary on the grid anchored at
// origin. A t already on the grid is returned unchanged.
func alignUp(t, origin time.Time) time.Time {
	offset := t.Sub(origin)
	if offset < 0 {
		return origin
	}
	rem := offset % SlotStep
	if rem == 0 {
		return t
	}
	return t.Add(SlotStep - rem)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
