// Package bed provides BED file parsing for liftover queries.
package bed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/inodb/vibe-liftover/internal/interval"
)

// Record is one BED line. Coordinates are 0-based, half-open.
type Record struct {
	Chrom string
	Start int64
	End   int64
	Extra []string // columns after end (name, score, strand, ...)
	Line  int      // 1-based line number in the source
}

// Interval returns the record as a 1-based inclusive interval.
// Zero-length records cannot be lifted and return an error.
func (r *Record) Interval() (interval.Interval, error) {
	if r.End <= r.Start {
		return interval.Interval{}, fmt.Errorf("%w: zero-length record %s:%d-%d", interval.ErrInvalidRange, r.Chrom, r.Start, r.End)
	}
	return interval.FromZeroBased(r.Chrom, r.Start, r.End)
}

// Name returns the name column, or "" if absent.
func (r *Record) Name() string {
	if len(r.Extra) > 0 {
		return r.Extra[0]
	}
	return ""
}

// Strand returns the strand column, or "" if absent.
func (r *Record) Strand() string {
	if len(r.Extra) > 2 {
		return r.Extra[2]
	}
	return ""
}

// String formats the record as a tab-separated BED line.
func (r *Record) String() string {
	fields := append([]string{
		r.Chrom,
		strconv.FormatInt(r.Start, 10),
		strconv.FormatInt(r.End, 10),
	}, r.Extra...)
	return strings.Join(fields, "\t")
}

// Parser reads records from a BED file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// NewParser creates a new BED parser for the given file.
// Supports both plain and gzipped BED files; "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bed file: %w", err)
	}

	p := &Parser{file: file}
	br := bufio.NewReader(file)

	// Check for gzip magic number (0x1f, 0x8b)
	magic, _ := br.Peek(2)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = br
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{reader: bufio.NewReader(r)}
}

// Next reads the next record.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read bed line: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if isHeader(line) {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}
		return p.parseLine(line)
	}
}

// isHeader reports whether a line carries no record.
func isHeader(line string) bool {
	return strings.TrimSpace(line) == "" ||
		strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "track") ||
		strings.HasPrefix(line, "browser")
}

// parseLine parses a single BED data line into a Record.
func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		// Fall back to any whitespace for space-delimited files.
		fields = strings.Fields(line)
	}
	if len(fields) < 3 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 3 columns, found %d", len(fields)),
		}
	}

	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || start < 0 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid start: %s", fields[1]),
		}
	}
	end, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil || end < start {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid end: %s", fields[2]),
		}
	}

	return &Record{
		Chrom: fields[0],
		Start: start,
		End:   end,
		Extra: fields[3:],
		Line:  p.lineNumber,
	}, nil
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during BED parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bed parse error at line %d: %s", e.Line, e.Message)
}
