// Package liftover maps genomic intervals between assemblies through an
// index of chains.
package liftover

import (
	"cmp"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/vibe-liftover/internal/chain"
	"github.com/inodb/vibe-liftover/internal/interval"
)

// DefaultMinMatch is the default minimum fraction of a query that must fall
// inside a chain's span for the chain to be used.
const DefaultMinMatch = 0.95

// Region is one lifted piece of a query.
type Region struct {
	Query          interval.Interval // part of the query that was mapped
	Mapped         interval.Interval // the same bases in "to" coordinates
	Chain          *chain.Chain      // chain that produced the mapping
	NegativeStrand bool              // mapped onto the reverse strand
}

// Candidate describes how a chain relates to a query, for ranking and
// diagnostics.
type Candidate struct {
	Chain    *chain.Chain
	Overlap  int64   // query bases inside the chain's "from" span
	Fraction float64 // Overlap / query length
	Passes   bool    // Fraction >= the minimum match
}

// Rank returns every chain overlapping q ordered by descending overlap,
// then descending score, then ascending id. Remaining ties are broken by
// chain position so the order is reproducible.
func Rank(chains *chain.Index, q interval.Interval, minMatch float64) []Candidate {
	var candidates []Candidate
	for key, c := range chains.Overlapping(q) {
		part, ok := key.Intersect(q)
		if !ok {
			continue
		}
		frac := float64(part.Len()) / float64(q.Len())
		candidates = append(candidates, Candidate{
			Chain:    c,
			Overlap:  part.Len(),
			Fraction: frac,
			Passes:   frac >= minMatch,
		})
	}

	slices.SortFunc(candidates, func(a, b Candidate) int {
		return cmp.Or(
			cmp.Compare(b.Overlap, a.Overlap),
			cmp.Compare(b.Chain.Score, a.Chain.Score),
			cmp.Compare(a.Chain.ID, b.Chain.ID),
			cmp.Compare(a.Chain.FromStart, b.Chain.FromStart),
			cmp.Compare(a.Chain.ToName, b.Chain.ToName),
			cmp.Compare(a.Chain.ToStart, b.Chain.ToStart),
		)
	})
	return candidates
}

// Map lifts q through the single best-ranked chain that reaches minMatch.
// An empty result means no chain covers the query confidently.
func Map(chains *chain.Index, q interval.Interval, minMatch float64) []Region {
	for _, cand := range Rank(chains, q, minMatch) {
		if cand.Passes {
			return MapChain(cand.Chain, q)
		}
	}
	return nil
}

// MapAll lifts q through every chain that reaches minMatch. Regions are
// ordered by query start; regions with equal starts keep rank order.
func MapAll(chains *chain.Index, q interval.Interval, minMatch float64) []Region {
	var regions []Region
	for _, cand := range Rank(chains, q, minMatch) {
		if cand.Passes {
			regions = append(regions, MapChain(cand.Chain, q)...)
		}
	}
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Query.Start < regions[j].Query.Start
	})
	return regions
}

// piece is a 0-based, half-open mapped sub-range.
type piece struct {
	qStart, qEnd int64
	mStart, mEnd int64
}

// MapChain lifts the part of q covered by the blocks of c. Parts of q that
// fall in gaps between blocks are not mapped. Pieces adjacent in both the
// query and the target are coalesced into one region.
func MapChain(c *chain.Chain, q interval.Interval) []Region {
	if q.Chrom != c.FromName {
		return nil
	}
	qStart, qEnd := q.ZeroBased()

	// First block ending after the query start.
	i := sort.Search(len(c.Blocks), func(i int) bool {
		return c.Blocks[i].FromEnd() > qStart
	})

	var pieces []piece
	for ; i < len(c.Blocks); i++ {
		b := c.Blocks[i]
		if b.FromStart >= qEnd {
			break
		}
		s := max(qStart, b.FromStart)
		e := min(qEnd, b.FromEnd())
		if s >= e {
			continue
		}

		p := piece{qStart: s, qEnd: e}
		p.mStart = b.ToStart + (s - b.FromStart)
		p.mEnd = p.mStart + (e - s)
		if c.ToNegativeStrand {
			// Reflect about the whole "to" sequence, not the chain span.
			p.mStart, p.mEnd = c.ToSize-p.mEnd, c.ToSize-p.mStart
		}

		if n := len(pieces); n > 0 {
			prev := &pieces[n-1]
			if prev.qEnd == p.qStart {
				if !c.ToNegativeStrand && prev.mEnd == p.mStart {
					prev.qEnd, prev.mEnd = p.qEnd, p.mEnd
					continue
				}
				if c.ToNegativeStrand && p.mEnd == prev.mStart {
					prev.qEnd, prev.mStart = p.qEnd, p.mStart
					continue
				}
			}
		}
		pieces = append(pieces, p)
	}

	regions := make([]Region, 0, len(pieces))
	for _, p := range pieces {
		regions = append(regions, Region{
			Query:          interval.Interval{Chrom: q.Chrom, Start: p.qStart + 1, End: p.qEnd},
			Mapped:         interval.Interval{Chrom: c.ToName, Start: p.mStart + 1, End: p.mEnd},
			Chain:          c,
			NegativeStrand: c.ToNegativeStrand,
		})
	}
	return regions
}

// Position is a single lifted base.
type Position struct {
	Chrom          string
	Pos            int64 // 1-based
	NegativeStrand bool
}

// LiftOver lifts intervals through a loaded chain index. A LiftOver is
// safe for concurrent use once configured.
type LiftOver struct {
	chains   *chain.Index
	minMatch float64
	multiple bool
	logger   *zap.Logger
}

// New creates a LiftOver over a fully built chain index.
func New(chains *chain.Index) *LiftOver {
	return &LiftOver{
		chains:   chains,
		minMatch: DefaultMinMatch,
		logger:   zap.NewNop(),
	}
}

// SetMinMatch sets the minimum fraction of the query a chain must cover.
// Values are clamped to [0, 1].
func (l *LiftOver) SetMinMatch(f float64) {
	l.minMatch = min(max(f, 0), 1)
}

// MinMatch returns the configured minimum match fraction.
func (l *LiftOver) MinMatch() float64 {
	return l.minMatch
}

// SetMultiple configures whether every passing chain is used instead of
// only the best-ranked one.
func (l *LiftOver) SetMultiple(multiple bool) {
	l.multiple = multiple
}

// SetLogger sets the logger for debug messages.
func (l *LiftOver) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Lift maps q according to the configured policy.
func (l *LiftOver) Lift(q interval.Interval) []Region {
	var regions []Region
	if l.multiple {
		regions = MapAll(l.chains, q, l.minMatch)
	} else {
		regions = Map(l.chains, q, l.minMatch)
	}
	if len(regions) == 0 {
		l.logger.Debug("query not lifted", zap.Stringer("query", q))
	}
	return regions
}

// Candidates returns the ranked candidate chains for q.
func (l *LiftOver) Candidates(q interval.Interval) []Candidate {
	return Rank(l.chains, q, l.minMatch)
}

// LiftPoint lifts a single 1-based position through the best-ranked chain
// with a block covering it. ok is false when no chain block covers it.
func (l *LiftOver) LiftPoint(chrom string, pos int64) (Position, bool) {
	q := interval.Interval{Chrom: chrom, Start: pos, End: pos}
	for _, cand := range Rank(l.chains, q, 1) {
		if regions := MapChain(cand.Chain, q); len(regions) > 0 {
			r := regions[0]
			return Position{Chrom: r.Mapped.Chrom, Pos: r.Mapped.Start, NegativeStrand: r.NegativeStrand}, true
		}
	}
	return Position{}, false
}

// Covered returns the number of distinct query bases mapped by regions.
// Bases mapped by more than one chain are counted once.
func Covered(regions []Region) int64 {
	parts := make([]interval.Interval, len(regions))
	for i, r := range regions {
		parts[i] = r.Query
	}
	slices.SortFunc(parts, func(a, b interval.Interval) int {
		return cmp.Compare(a.Start, b.Start)
	})

	var n int64
	for i := 0; i < len(parts); {
		start, end := parts[i].Start, parts[i].End
		for i++; i < len(parts) && parts[i].Start <= end+1; i++ {
			end = max(end, parts[i].End)
		}
		n += end - start + 1
	}
	return n
}
