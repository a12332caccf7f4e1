package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-liftover/internal/chain"
	"github.com/inodb/vibe-liftover/internal/interval"
	"github.com/inodb/vibe-liftover/internal/liftover"
)

func TestRegionWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewRegionWriter(&buf)

	q := interval.Interval{Chrom: "chr1", Start: 1, End: 100}
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteRegion(q, region("chr2", 1, 40, 961, 1000, true)))
	require.NoError(t, w.WriteUnmapped(interval.Interval{Chrom: "chrX", Start: 5, End: 6}))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "#Query\tQuery_part\tMapped\tStrand\tChain_ID\tScore", lines[0])
	assert.Equal(t, "chr1:1-100\tchr1:1-40\tchr2:961-1000\t-\t4\t1000", lines[1])
	assert.Equal(t, "chrX:5-6\t-\t-\t-\t-\t-", lines[2])
}

func TestCandidateWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCandidateWriter(&buf)

	c := &chain.Chain{
		ID: 7, Score: 12.5,
		FromName: "chr1", FromStart: 0, FromEnd: 100,
		ToName: "chrB", ToStart: 200, ToEnd: 300,
	}
	q := interval.Interval{Chrom: "chr1", Start: 51, End: 150}
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteCandidate(q, liftover.Candidate{Chain: c, Overlap: 50, Fraction: 0.5}))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#Query\tChain_ID"))
	assert.Equal(t, "chr1:51-150\t7\t12.5\tchr1:1-100\tchrB:201-300\t+\t50\t0.5000\tNO", lines[1])
}
