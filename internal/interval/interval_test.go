package interval

import (
	"testing"
	"time"
)

var day = time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func iv(startHour, startMin, endHour, endMin int) Interval {
	return Interval{Start: at(startHour, startMin), End: at(endHour, endMin)}
}

func equalIntervals(a, b []Interval) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].End.Equal(b[i].End) {
			return false
		}
	}
	return true
}

func TestMergeCoalescesOverlapsAndTouching(t *testing.T) {
	testCases := []struct {
		name string
		in   []Interval
		want []Interval
	}{
		{
			name: "empty input",
			in:   nil,
			want: nil,
		},
		{
			name: "disjoint stay separate",
			in:   []Interval{iv(9, 0, 10, 0), iv(11, 0, 12, 0)},
			want: []Interval{iv(9, 0, 10, 0), iv(11, 0, 12, 0)},
		},
		{
			name: "overlapping collapse",
			in:   []Interval{iv(9, 0, 10, 30), iv(10, 0, 11, 0)},
			want: []Interval{iv(9, 0, 11, 0)},
		},
		{
			name: "touching boundaries close the gap",
			in:   []Interval{iv(10, 0, 11, 0), iv(11, 0, 12, 0)},
			want: []Interval{iv(10, 0, 12, 0)},
		},
		{
			name: "unsorted input is accepted",
			in:   []Interval{iv(11, 0, 12, 0), iv(9, 0, 10, 0), iv(9, 30, 11, 0)},
			want: []Interval{iv(9, 0, 12, 0)},
		},
		{
			name: "contained interval is absorbed",
			in:   []Interval{iv(9, 0, 12, 0), iv(10, 0, 11, 0)},
			want: []Interval{iv(9, 0, 12, 0)},
		},
		{
			name: "degenerate intervals are dropped",
			in:   []Interval{iv(9, 0, 9, 0), iv(11, 0, 10, 0), iv(13, 0, 14, 0)},
			want: []Interval{iv(13, 0, 14, 0)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.in)
			if !equalIntervals(got, tc.want) {
				t.Errorf("Merge(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	in := []Interval{iv(9, 0, 10, 0), iv(9, 30, 11, 0), iv(12, 0, 13, 0), iv(13, 0, 14, 0)}

	once := Merge(in)
	twice := Merge(once)
	if !equalIntervals(once, twice) {
		t.Errorf("Merge not idempotent: first %v, second %v", once, twice)
	}
}

func TestMergeIsOrderIndependent(t *testing.T) {
	a := []Interval{iv(9, 0, 10, 0), iv(9, 30, 11, 0), iv(12, 0, 13, 0)}
	b := []Interval{iv(12, 0, 13, 0), iv(9, 30, 11, 0), iv(9, 0, 10, 0)}

	if !equalIntervals(Merge(a), Merge(b)) {
		t.Errorf("Merge order-dependent: %v vs %v", Merge(a), Merge(b))
	}
}

func TestInvertToFree(t *testing.T) {
	window := iv(9, 0, 13, 0)

	testCases := []struct {
		name string
		busy []Interval
		want []Interval
	}{
		{
			name: "no busy means whole window free",
			busy: nil,
			want: []Interval{window},
		},
		{
			name: "gaps before between and after",
			busy: []Interval{iv(10, 0, 11, 0)},
			want: []Interval{iv(9, 0, 10, 0), iv(11, 0, 13, 0)},
		},
		{
			name: "busy covering window start",
			busy: []Interval{iv(8, 0, 10, 0)},
			want: []Interval{iv(10, 0, 13, 0)},
		},
		{
			name: "busy covering window end",
			busy: []Interval{iv(12, 0, 14, 0)},
			want: []Interval{iv(9, 0, 12, 0)},
		},
		{
			name: "busy outside window is ignored",
			busy: []Interval{iv(6, 0, 7, 0), iv(14, 0, 15, 0)},
			want: []Interval{window},
		},
		{
			name: "fully booked window",
			busy: []Interval{iv(8, 0, 14, 0)},
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := InvertToFree(Merge(tc.busy), window)
			if !equalIntervals(got, tc.want) {
				t.Errorf("InvertToFree(%v) = %v, want %v", tc.busy, got, tc.want)
			}
		})
	}
}

// Free and busy intervals must partition the window exactly: merging them
// back together yields the whole window.
func TestInvertToFreePartitionsWindow(t *testing.T) {
	window := iv(9, 0, 17, 0)
	busy := Merge([]Interval{iv(9, 30, 10, 0), iv(12, 0, 13, 0), iv(16, 0, 17, 0)})

	free := InvertToFree(busy, window)
	recombined := Merge(append(append([]Interval{}, busy...), free...))
	if !equalIntervals(recombined, []Interval{window}) {
		t.Errorf("busy %v + free %v does not rebuild window, got %v", busy, free, recombined)
	}
}

func TestIntersectFree(t *testing.T) {
	testCases := []struct {
		name  string
		lists [][]Interval
		want  []Interval
	}{
		{
			name:  "no participants",
			lists: nil,
			want:  nil,
		},
		{
			name:  "single participant passes through",
			lists: [][]Interval{{iv(9, 0, 11, 0)}},
			want:  []Interval{iv(9, 0, 11, 0)},
		},
		{
			name: "partial overlap",
			lists: [][]Interval{
				{iv(9, 0, 11, 0), iv(12, 0, 14, 0)},
				{iv(10, 0, 13, 0)},
			},
			want: []Interval{iv(10, 0, 11, 0), iv(12, 0, 13, 0)},
		},
		{
			name: "touching free intervals do not intersect",
			lists: [][]Interval{
				{iv(9, 0, 10, 0)},
				{iv(10, 0, 11, 0)},
			},
			want: nil,
		},
		{
			name: "empty free set short-circuits",
			lists: [][]Interval{
				{iv(9, 0, 17, 0)},
				nil,
				{iv(9, 0, 17, 0)},
			},
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := IntersectFree(tc.lists)
			if !equalIntervals(got, tc.want) {
				t.Errorf("IntersectFree(%v) = %v, want %v", tc.lists, got, tc.want)
			}
		})
	}
}

func TestIntersectFreeIsCommutative(t *testing.T) {
	a := []Interval{iv(9, 0, 11, 0), iv(12, 0, 14, 0)}
	b := []Interval{iv(10, 0, 13, 0)}
	c := []Interval{iv(9, 30, 12, 30)}

	ab := IntersectFree([][]Interval{a, b, c})
	ba := IntersectFree([][]Interval{c, b, a})
	if !equalIntervals(ab, ba) {
		t.Errorf("IntersectFree not commutative: %v vs %v", ab, ba)
	}

	// Associativity: folding (a∩b)∩c equals a∩(b∩c).
	left := IntersectFree([][]Interval{IntersectFree([][]Interval{a, b}), c})
	right := IntersectFree([][]Interval{a, IntersectFree([][]Interval{b, c})})
	if !equalIntervals(left, right) {
		t.Errorf("IntersectFree not associative: %v vs %v", left, right)
	}
}

func TestPickSlots(t *testing.T) {
	windowStart := at(9, 0)

	t.Run("slots have requested duration alignment and containment", func(t *testing.T) {
		free := []Interval{iv(9, 10, 11, 0), iv(12, 0, 12, 40)}
		slots := PickSlots(free, windowStart, 30*time.Minute, 10)

		if len(slots) == 0 {
			t.Fatal("expected slots, got none")
		}
		for _, s := range slots {
			if s.Duration() != 30*time.Minute {
				t.Errorf("slot %v has duration %v, want 30m", s, s.Duration())
			}
			if s.Start.Sub(windowStart)%SlotStep != 0 {
				t.Errorf("slot %v not aligned to 15m grid from window start", s)
			}
			contained := false
			for _, f := range free {
				if f.Contains(s) {
					contained = true
					break
				}
			}
			if !contained {
				t.Errorf("slot %v not contained in any free interval", s)
			}
		}
		// First candidate inside 9:10-11:00 aligns up to 9:15.
		if !slots[0].Start.Equal(at(9, 15)) {
			t.Errorf("first slot starts %v, want 09:15", slots[0].Start)
		}
	})

	t.Run("limit caps total slots across intervals", func(t *testing.T) {
		free := []Interval{iv(9, 0, 12, 0), iv(13, 0, 17, 0)}
		slots := PickSlots(free, windowStart, 30*time.Minute, 5)
		if len(slots) != 5 {
			t.Fatalf("expected 5 slots, got %d", len(slots))
		}
	})

	t.Run("duration longer than any gap yields empty", func(t *testing.T) {
		free := []Interval{iv(9, 0, 9, 45), iv(10, 0, 10, 30)}
		slots := PickSlots(free, windowStart, time.Hour, 5)
		if len(slots) != 0 {
			t.Fatalf("expected no slots, got %v", slots)
		}
	})

	t.Run("overlapping candidates within one gap are allowed", func(t *testing.T) {
		free := []Interval{iv(9, 0, 10, 0)}
		slots := PickSlots(free, windowStart, 45*time.Minute, 5)
		// 9:00-9:45 and 9:15-10:00 overlap; both are valid ranked options.
		want := []Interval{iv(9, 0, 9, 45), iv(9, 15, 10, 0)}
		if !equalIntervals(slots, want) {
			t.Errorf("PickSlots = %v, want %v", slots, want)
		}
	})
}

// Two participants, window 09:00-13:00, 30 minute meeting. A is busy
// 09:00-10:00 and 11:00-12:00, B is busy 09:30-10:30. The earliest aligned
// common gap is 10:30-11:00.
func TestCommonSlotScenario(t *testing.T) {
	window := iv(9, 0, 13, 0)

	freeA := InvertToFree(Merge([]Interval{iv(9, 0, 10, 0), iv(11, 0, 12, 0)}), window)
	freeB := InvertToFree(Merge([]Interval{iv(9, 30, 10, 30)}), window)

	common := IntersectFree([][]Interval{freeA, freeB})
	slots := PickSlots(common, window.Start, 30*time.Minute, 5)

	if len(slots) == 0 {
		t.Fatal("expected at least one slot")
	}
	if !slots[0].Start.Equal(at(10, 30)) || !slots[0].End.Equal(at(11, 0)) {
		t.Errorf("first slot = %v-%v, want 10:30-11:00", slots[0].Start, slots[0].End)
	}
}
