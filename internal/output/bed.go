// Package output provides writers for lifted records and diagnostics.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-liftover/internal/bed"
	"github.com/inodb/vibe-liftover/internal/interval"
	"github.com/inodb/vibe-liftover/internal/liftover"
)

// Reasons written ahead of unmapped records, in the style of UCSC liftOver.
const (
	ReasonDeleted = "Deleted in new"
	ReasonPartial = "Partially deleted in new"
	ReasonInvalid = "Invalid interval"
)

// Classify returns the unmapped reason for a lifted query, or "" when every
// base of q was mapped.
func Classify(q interval.Interval, regions []liftover.Region) string {
	if len(regions) == 0 {
		return ReasonDeleted
	}
	if liftover.Covered(regions) < q.Len() {
		return ReasonPartial
	}
	return ""
}

// BEDWriter writes lifted BED records, one line per mapped region.
type BEDWriter struct {
	w *bufio.Writer
}

// NewBEDWriter creates a new lifted-BED writer.
func NewBEDWriter(w io.Writer) *BEDWriter {
	return &BEDWriter{w: bufio.NewWriter(w)}
}

// Write writes every region lifted from rec. When a record splits into more
// than one region the name column gets a "_N" suffix. The strand column is
// flipped for regions on the reverse strand. Other columns are copied as-is.
func (bw *BEDWriter) Write(rec *bed.Record, regions []liftover.Region) error {
	for i, r := range regions {
		start, end := r.Mapped.ZeroBased()
		extra := make([]string, len(rec.Extra))
		copy(extra, rec.Extra)

		if len(regions) > 1 && len(extra) > 0 {
			extra[0] = extra[0] + "_" + strconv.Itoa(i+1)
		}
		if r.NegativeStrand && len(extra) > 2 {
			extra[2] = flipStrand(extra[2])
		}

		out := bed.Record{Chrom: r.Mapped.Chrom, Start: start, End: end, Extra: extra}
		if _, err := bw.w.WriteString(out.String() + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (bw *BEDWriter) Flush() error {
	return bw.w.Flush()
}

func flipStrand(s string) string {
	switch s {
	case "+":
		return "-"
	case "-":
		return "+"
	}
	return s
}

// UnmappedWriter writes records that could not be fully lifted, each preceded
// by a "#reason" comment line.
type UnmappedWriter struct {
	w     *bufio.Writer
	count int
}

// NewUnmappedWriter creates a new unmapped-record writer.
func NewUnmappedWriter(w io.Writer) *UnmappedWriter {
	return &UnmappedWriter{w: bufio.NewWriter(w)}
}

// Write writes rec with its reason.
func (uw *UnmappedWriter) Write(rec *bed.Record, reason string) error {
	uw.count++
	_, err := fmt.Fprintf(uw.w, "#%s\n%s\n", strings.TrimPrefix(reason, "#"), rec.String())
	return err
}

// Count returns the number of records written.
func (uw *UnmappedWriter) Count() int {
	return uw.count
}

// Flush flushes any buffered data to the underlying writer.
func (uw *UnmappedWriter) Flush() error {
	return uw.w.Flush()
}
