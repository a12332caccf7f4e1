package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-liftover/internal/interval"
	"github.com/inodb/vibe-liftover/internal/liftover"
)

// TabWriter writes lifted regions or candidate chains as a tab-delimited table.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

var regionColumns = []string{
	"#Query",
	"Query_part",
	"Mapped",
	"Strand",
	"Chain_ID",
	"Score",
}

var candidateColumns = []string{
	"#Query",
	"Chain_ID",
	"Score",
	"From",
	"To",
	"Strand",
	"Overlap",
	"Fraction",
	"Passes",
}

// NewRegionWriter creates a writer for lifted regions.
func NewRegionWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w), columns: regionColumns}
}

// NewCandidateWriter creates a writer for ranked candidate chains.
func NewCandidateWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w), columns: candidateColumns}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteRegion writes a single lifted region of q.
func (tw *TabWriter) WriteRegion(q interval.Interval, r liftover.Region) error {
	strand := "+"
	if r.NegativeStrand {
		strand = "-"
	}
	return tw.row(
		q.String(),
		r.Query.String(),
		r.Mapped.String(),
		strand,
		strconv.FormatInt(r.Chain.ID, 10),
		strconv.FormatFloat(r.Chain.Score, 'f', -1, 64),
	)
}

// WriteUnmapped writes a row for a query with no lifted region.
func (tw *TabWriter) WriteUnmapped(q interval.Interval) error {
	return tw.row(q.String(), "-", "-", "-", "-", "-")
}

// WriteCandidate writes one ranked candidate chain for q.
func (tw *TabWriter) WriteCandidate(q interval.Interval, c liftover.Candidate) error {
	passes := "NO"
	if c.Passes {
		passes = "YES"
	}
	ch := c.Chain
	return tw.row(
		q.String(),
		strconv.FormatInt(ch.ID, 10),
		strconv.FormatFloat(ch.Score, 'f', -1, 64),
		fmt.Sprintf("%s:%d-%d", ch.FromName, ch.FromStart+1, ch.FromEnd),
		fmt.Sprintf("%s:%d-%d", ch.ToName, ch.ToStart+1, ch.ToEnd),
		ch.Strand(),
		strconv.FormatInt(c.Overlap, 10),
		strconv.FormatFloat(c.Fraction, 'f', 4, 64),
		passes,
	)
}

func (tw *TabWriter) row(values ...string) error {
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
