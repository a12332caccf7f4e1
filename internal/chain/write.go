package chain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// formatScore formats a score as a floating literal that parses back to the
// same value.
func formatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// WriteTo writes the chain in chain-file format: the header line, one
// "size\tdt\tdq" line per non-terminal block with gaps recomputed from
// consecutive blocks, the terminal block size and a blank line.
func (c *Chain) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "chain\t%s\t%s\t%d\t+\t%d\t%d\t%s\t%d\t%s\t%d\t%d\t%d\n",
		formatScore(c.Score), c.FromName, c.FromSize, c.FromStart, c.FromEnd,
		c.ToName, c.ToSize, c.Strand(), c.ToStart, c.ToEnd, c.ID)

	for i := 0; i < len(c.Blocks)-1; i++ {
		cur, next := c.Blocks[i], c.Blocks[i+1]
		fmt.Fprintf(&sb, "%d\t%d\t%d\n", cur.Size, next.FromStart-cur.FromEnd(), next.ToStart-cur.ToEnd())
	}
	if len(c.Blocks) > 0 {
		fmt.Fprintf(&sb, "%d\n", c.Blocks[len(c.Blocks)-1].Size)
	}
	sb.WriteString("\n")

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// WriteAll writes chains to w in order.
func WriteAll(w io.Writer, chains []*Chain) error {
	bw := bufio.NewWriter(w)
	for _, c := range chains {
		if _, err := c.WriteTo(bw); err != nil {
			return fmt.Errorf("write chain %d: %w", c.ID, err)
		}
	}
	return bw.Flush()
}
