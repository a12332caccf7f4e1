package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-liftover/internal/bed"
	"github.com/inodb/vibe-liftover/internal/chain"
	"github.com/inodb/vibe-liftover/internal/interval"
	"github.com/inodb/vibe-liftover/internal/liftover"
)

func region(chrom string, qs, qe, ms, me int64, neg bool) liftover.Region {
	return liftover.Region{
		Query:          interval.Interval{Chrom: "chr1", Start: qs, End: qe},
		Mapped:         interval.Interval{Chrom: chrom, Start: ms, End: me},
		Chain:          &chain.Chain{ID: 4, Score: 1000},
		NegativeStrand: neg,
	}
}

func TestBEDWriter_SingleRegion(t *testing.T) {
	var buf bytes.Buffer
	w := NewBEDWriter(&buf)

	rec := &bed.Record{Chrom: "chr1", Start: 99, End: 200, Extra: []string{"geneA", "0", "+"}}
	require.NoError(t, w.Write(rec, []liftover.Region{region("chr2", 100, 200, 1100, 1200, false)}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "chr2\t1099\t1200\tgeneA\t0\t+\n", buf.String())
}

func TestBEDWriter_SplitAndStrand(t *testing.T) {
	var buf bytes.Buffer
	w := NewBEDWriter(&buf)

	rec := &bed.Record{Chrom: "chr1", Start: 0, End: 100, Extra: []string{"geneB", "5", "+", "extra"}}
	regions := []liftover.Region{
		region("chr3", 1, 40, 961, 1000, true),
		region("chr3", 61, 100, 911, 950, true),
	}
	require.NoError(t, w.Write(rec, regions))
	require.NoError(t, w.Flush())

	assert.Equal(t,
		"chr3\t960\t1000\tgeneB_1\t5\t-\textra\n"+
			"chr3\t910\t950\tgeneB_2\t5\t-\textra\n",
		buf.String())
	assert.Equal(t, "geneB", rec.Extra[0], "input record must not be modified")
}

func TestBEDWriter_ThreeColumns(t *testing.T) {
	var buf bytes.Buffer
	w := NewBEDWriter(&buf)

	rec := &bed.Record{Chrom: "chr1", Start: 0, End: 100}
	regions := []liftover.Region{
		region("chr1", 1, 40, 1, 40, false),
		region("chr1", 61, 100, 51, 90, false),
	}
	require.NoError(t, w.Write(rec, regions))
	require.NoError(t, w.Flush())

	assert.Equal(t, "chr1\t0\t40\nchr1\t50\t90\n", buf.String())
}

func TestFlipStrand(t *testing.T) {
	assert.Equal(t, "-", flipStrand("+"))
	assert.Equal(t, "+", flipStrand("-"))
	assert.Equal(t, ".", flipStrand("."))
}

func TestClassify(t *testing.T) {
	q := interval.Interval{Chrom: "chr1", Start: 1, End: 100}

	assert.Equal(t, ReasonDeleted, Classify(q, nil))
	assert.Equal(t, ReasonPartial, Classify(q, []liftover.Region{region("chr1", 1, 40, 1, 40, false)}))
	assert.Empty(t, Classify(q, []liftover.Region{region("chr1", 1, 100, 1, 100, false)}))

	// Two chains mapping the same half of the query leave the record partial.
	multi := []liftover.Region{
		region("chr2", 1, 50, 1, 50, false),
		region("chr3", 1, 50, 1, 50, false),
		region("chr2", 91, 100, 51, 60, false),
		region("chr3", 91, 100, 51, 60, false),
	}
	assert.Equal(t, ReasonPartial, Classify(q, multi))
}

func TestUnmappedWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewUnmappedWriter(&buf)

	require.NoError(t, w.Write(&bed.Record{Chrom: "chr1", Start: 5, End: 10, Extra: []string{"x"}}, ReasonDeleted))
	require.NoError(t, w.Write(&bed.Record{Chrom: "chr2", Start: 0, End: 1}, "#"+ReasonPartial))
	require.NoError(t, w.Flush())

	assert.Equal(t,
		"#Deleted in new\nchr1\t5\t10\tx\n#Partially deleted in new\nchr2\t0\t1\n",
		buf.String())
	assert.Equal(t, 2, w.Count())
}
