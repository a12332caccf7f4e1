// Package interval provides the one-based genomic interval value type shared
// by the chain index and the liftover engine.
package interval

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned when an interval would have start > end.
var ErrInvalidRange = errors.New("invalid range")

// Interval is a one-based, inclusive range on a named sequence.
// Intervals are values; two intervals are equal when all fields are equal.
type Interval struct {
	Chrom string // Sequence name, compared case-sensitively
	Start int64  // 1-based, inclusive
	End   int64  // 1-based, inclusive
}

// New creates an interval, failing with ErrInvalidRange if start > end.
func New(chrom string, start, end int64) (Interval, error) {
	if start > end {
		return Interval{}, fmt.Errorf("%w: %s:%d-%d", ErrInvalidRange, chrom, start, end)
	}
	return Interval{Chrom: chrom, Start: start, End: end}, nil
}

// FromZeroBased converts a 0-based half-open range [start, end) into an interval.
func FromZeroBased(chrom string, start, end int64) (Interval, error) {
	return New(chrom, start+1, end)
}

// ZeroBased returns the 0-based half-open bounds of the interval.
func (i Interval) ZeroBased() (start, end int64) {
	return i.Start - 1, i.End
}

// Len returns the number of positions covered by the interval.
func (i Interval) Len() int64 {
	return i.End - i.Start + 1
}

// Overlaps reports whether both intervals are on the same sequence and share
// at least one position.
func (i Interval) Overlaps(o Interval) bool {
	return i.Chrom == o.Chrom && i.Start <= o.End && o.Start <= i.End
}

// Intersect returns the overlapping sub-range of two intervals.
// ok is false when they do not overlap.
func (i Interval) Intersect(o Interval) (Interval, bool) {
	if !i.Overlaps(o) {
		return Interval{}, false
	}
	return Interval{Chrom: i.Chrom, Start: max(i.Start, o.Start), End: min(i.End, o.End)}, true
}

// String formats the interval as "chrom:start-end".
func (i Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", i.Chrom, i.Start, i.End)
}

// Parse parses a region string of the form "chrom:start-end" or "chrom:pos".
// Positions are 1-based inclusive; thousands separators are accepted.
func Parse(region string) (Interval, error) {
	chrom, rng, ok := strings.Cut(strings.TrimSpace(region), ":")
	if !ok || chrom == "" || rng == "" {
		return Interval{}, fmt.Errorf("invalid region %q: expected chrom:start-end", region)
	}
	rng = strings.ReplaceAll(rng, ",", "")

	startStr, endStr, hasEnd := strings.Cut(rng, "-")
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 1 {
		return Interval{}, fmt.Errorf("invalid region %q: bad start %q", region, startStr)
	}
	end := start
	if hasEnd {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return Interval{}, fmt.Errorf("invalid region %q: bad end %q", region, endStr)
		}
	}
	return New(chrom, start, end)
}
