// Package overlap provides an index of keyed genomic intervals supporting
// range-overlap queries.
package overlap

import (
	"iter"
	"math"
	"sort"

	"github.com/inodb/vibe-liftover/internal/interval"
)

// Detector maps intervals on named sequences to values and answers
// "which values overlap this interval" in O(log n + k) per sequence, where
// k is the number of hits. Long entries, such as a chain spanning a whole
// chromosome, do not degrade queries elsewhere on the sequence.
//
// Entries may be added at any time. Adding marks the affected sequence
// dirty and the next query re-sorts it, so the efficient pattern is to add
// everything and then call Build once. A built Detector is read-only and
// safe for concurrent queries; Add and queries against a dirty sequence
// must not run concurrently with anything else.
type Detector[T any] struct {
	seqs map[string]*index[T]
	size int
}

type entry[T any] struct {
	key   interval.Interval
	value T
}

// index is an implicit interval tree for one sequence: entries sorted by
// start form a balanced binary tree where the midpoint of [lo, hi) is the
// root of that range.
type index[T any] struct {
	entries []entry[T]
	maxEnd  []int64 // maxEnd[mid] = max(End) over the subtree rooted at mid
	dirty   bool
}

// New creates an empty detector.
func New[T any]() *Detector[T] {
	return &Detector[T]{seqs: make(map[string]*index[T])}
}

// Add inserts one entry keyed by key.
func (d *Detector[T]) Add(key interval.Interval, value T) {
	idx, ok := d.seqs[key.Chrom]
	if !ok {
		idx = &index[T]{}
		d.seqs[key.Chrom] = idx
	}
	idx.entries = append(idx.entries, entry[T]{key: key, value: value})
	idx.dirty = true
	d.size++
}

// Build sorts every sequence that received entries since the last build.
func (d *Detector[T]) Build() {
	for _, idx := range d.seqs {
		if idx.dirty {
			idx.build()
		}
	}
}

func (idx *index[T]) build() {
	sort.SliceStable(idx.entries, func(i, j int) bool {
		return idx.entries[i].key.Start < idx.entries[j].key.Start
	})

	idx.maxEnd = make([]int64, len(idx.entries))
	idx.buildMax(0, len(idx.entries))
	idx.dirty = false
}

// buildMax fills maxEnd for the subtree over [lo, hi) and returns its max.
func (idx *index[T]) buildMax(lo, hi int) int64 {
	if lo >= hi {
		return math.MinInt64
	}
	mid := int(uint(lo+hi) >> 1)
	m := max(idx.entries[mid].key.End, idx.buildMax(lo, mid), idx.buildMax(mid+1, hi))
	idx.maxEnd[mid] = m
	return m
}

// walk yields every entry in [lo, hi) overlapping q, in start order.
// It returns false once yield asks to stop.
func (idx *index[T]) walk(lo, hi int, q interval.Interval, yield func(interval.Interval, T) bool) bool {
	if lo >= hi {
		return true
	}
	mid := int(uint(lo+hi) >> 1)
	if idx.maxEnd[mid] < q.Start {
		return true
	}
	if !idx.walk(lo, mid, q, yield) {
		return false
	}
	e := idx.entries[mid]
	if e.key.Start > q.End {
		return true
	}
	if e.key.End >= q.Start && !yield(e.key, e.value) {
		return false
	}
	return idx.walk(mid+1, hi, q, yield)
}

// Overlapping returns a lazy sequence of (key, value) pairs whose key
// overlaps q, in order of key start. The sequence may be iterated
// repeatedly.
func (d *Detector[T]) Overlapping(q interval.Interval) iter.Seq2[interval.Interval, T] {
	return func(yield func(interval.Interval, T) bool) {
		idx, ok := d.seqs[q.Chrom]
		if !ok || len(idx.entries) == 0 {
			return
		}
		if idx.dirty {
			idx.build()
		}
		idx.walk(0, len(idx.entries), q, yield)
	}
}

// Overlaps returns all values whose key overlaps q.
func (d *Detector[T]) Overlaps(q interval.Interval) []T {
	var result []T
	for _, v := range d.Overlapping(q) {
		result = append(result, v)
	}
	return result
}

// All returns every stored (key, value) pair grouped by sequence name in
// sorted sequence order, each group ordered by start.
func (d *Detector[T]) All() iter.Seq2[interval.Interval, T] {
	return func(yield func(interval.Interval, T) bool) {
		for _, chrom := range d.Chroms() {
			idx := d.seqs[chrom]
			if idx.dirty {
				idx.build()
			}
			for _, e := range idx.entries {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}

// Len returns the total number of entries.
func (d *Detector[T]) Len() int {
	return d.size
}

// Chroms returns a sorted list of sequence names with at least one entry.
func (d *Detector[T]) Chroms() []string {
	chroms := make([]string, 0, len(d.seqs))
	for chrom := range d.seqs {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}
