// Package chain reads, validates and writes UCSC chain files.
//
// A chain describes a piecewise-linear alignment between a span of a "from"
// sequence and a span of a "to" sequence as an ordered list of ungapped
// blocks. Chain and block coordinates are 0-based, half-open; the interval
// used to index a chain (Chain.Interval) is 1-based, inclusive.
//
// See http://genome.ucsc.edu/goldenPath/help/chain.html
package chain

import (
	"slices"

	"github.com/inodb/vibe-liftover/internal/interval"
)

// Block is one ungapped alignment segment: position FromStart+i maps to
// ToStart+i for i in [0, Size).
type Block struct {
	FromStart int64
	ToStart   int64
	Size      int64
}

// FromEnd returns the 0-based, half-open end of the block in "from" coordinates.
func (b Block) FromEnd() int64 {
	return b.FromStart + b.Size
}

// ToEnd returns the 0-based, half-open end of the block in "to" coordinates.
func (b Block) ToEnd() int64 {
	return b.ToStart + b.Size
}

// Chain is a single record of a chain file. Chains are built by the parser
// and must not be modified once loaded.
type Chain struct {
	ID    int64   // Unique within one file only
	Score float64 // Informational; round-tripped on write

	FromName  string
	FromSize  int64
	FromStart int64
	FromEnd   int64

	ToName           string
	ToSize           int64
	ToNegativeStrand bool // "to" side is reverse-complemented
	ToStart          int64
	ToEnd            int64

	Blocks []Block // Ascending in both coordinate spaces
}

// Interval returns the 1-based, inclusive "from" span used to index the chain.
func (c *Chain) Interval() interval.Interval {
	return interval.Interval{Chrom: c.FromName, Start: c.FromStart + 1, End: c.FromEnd}
}

// Strand returns "-" for chains onto the negative "to" strand, "+" otherwise.
func (c *Chain) Strand() string {
	if c.ToNegativeStrand {
		return "-"
	}
	return "+"
}

// AlignedBases returns the total size of all blocks.
func (c *Chain) AlignedBases() int64 {
	var n int64
	for _, b := range c.Blocks {
		n += b.Size
	}
	return n
}

// Equal reports whether two chains have identical header fields and blocks.
func (c *Chain) Equal(o *Chain) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.ID == o.ID &&
		c.Score == o.Score &&
		c.FromName == o.FromName &&
		c.FromSize == o.FromSize &&
		c.FromStart == o.FromStart &&
		c.FromEnd == o.FromEnd &&
		c.ToName == o.ToName &&
		c.ToSize == o.ToSize &&
		c.ToNegativeStrand == o.ToNegativeStrand &&
		c.ToStart == o.ToStart &&
		c.ToEnd == o.ToEnd &&
		slices.Equal(c.Blocks, o.Blocks)
}
