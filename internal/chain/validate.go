package chain

import "fmt"

// Check reports the problems that make mapping through a chain undefined:
// an empty block list or a block with non-positive size.
func (c *Chain) Check() error {
	if len(c.Blocks) == 0 {
		return fmt.Errorf("%w: chain %d has empty block list", ErrInvalidChain, c.ID)
	}
	for i, b := range c.Blocks {
		if b.Size <= 0 {
			return fmt.Errorf("%w: chain %d block %d has non-positive size %d", ErrInvalidChain, c.ID, i, b.Size)
		}
	}
	return nil
}

// Validate returns every structural inconsistency of the chain. A chain with
// no inconsistencies satisfies:
//   - positive sequence sizes, non-negative starts and non-empty spans,
//   - spans no longer than their sequences and non-empty sequence names,
//   - first and last blocks agreeing with the chain span,
//   - blocks ascending with non-negative gaps in both coordinate spaces.
func (c *Chain) Validate() []Inconsistency {
	var problems []Inconsistency
	report := func(format string, args ...any) {
		problems = append(problems, Inconsistency{ChainID: c.ID, Problem: fmt.Sprintf(format, args...)})
	}

	if c.FromSize <= 0 {
		report("from sequence size is not positive: %d", c.FromSize)
	}
	if c.ToSize <= 0 {
		report("to sequence size is not positive: %d", c.ToSize)
	}
	if c.FromStart < 0 {
		report("from start is negative: %d", c.FromStart)
	}
	if c.ToStart < 0 {
		report("to start is negative: %d", c.ToStart)
	}

	fromLen := c.FromEnd - c.FromStart
	toLen := c.ToEnd - c.ToStart
	if fromLen <= 0 {
		report("from length is not positive: %d", fromLen)
	}
	if toLen <= 0 {
		report("to length is not positive: %d", toLen)
	}
	if fromLen > c.FromSize {
		report("from chain length %d exceeds from sequence size %d", fromLen, c.FromSize)
	}
	if toLen > c.ToSize {
		report("to chain length %d exceeds to sequence size %d", toLen, c.ToSize)
	}
	if c.FromName == "" {
		report("empty from sequence name")
	}
	if c.ToName == "" {
		report("empty to sequence name")
	}

	if len(c.Blocks) == 0 {
		report("empty block list")
		return problems
	}

	first, last := c.Blocks[0], c.Blocks[len(c.Blocks)-1]
	if first.FromStart != c.FromStart {
		report("first block from start %d != chain from start %d", first.FromStart, c.FromStart)
	}
	if first.ToStart != c.ToStart {
		report("first block to start %d != chain to start %d", first.ToStart, c.ToStart)
	}
	if last.FromEnd() != c.FromEnd {
		report("last block from end %d != chain from end %d", last.FromEnd(), c.FromEnd)
	}
	if last.ToEnd() != c.ToEnd {
		report("last block to end %d != chain to end %d", last.ToEnd(), c.ToEnd)
	}

	for i := 1; i < len(c.Blocks); i++ {
		prev, cur := c.Blocks[i-1], c.Blocks[i]
		if cur.FromStart < prev.FromEnd() {
			report("block %d from start %d precedes previous block end %d", i, cur.FromStart, prev.FromEnd())
		}
		if cur.ToStart < prev.ToEnd() {
			report("block %d to start %d precedes previous block end %d", i, cur.ToStart, prev.ToEnd())
		}
	}

	return problems
}
