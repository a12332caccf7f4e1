package chain

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const headerFields = 13

// Parser reads chain records one at a time from a line-oriented source.
type Parser struct {
	scanner    *bufio.Scanner
	file       *os.File
	gzipReader *gzip.Reader
	source     string
	lineNumber int
	record     int
	inRecord   bool // a header was read and its terminator has not been consumed
}

// NewParser creates a parser reading chain text from r.
// source is used in error messages only and may be empty.
func NewParser(r io.Reader, source string) *Parser {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return &Parser{scanner: scanner, source: source}
}

// Open creates a parser for a chain file on disk. Gzip-compressed files
// are detected by their magic bytes. A path of "-" reads stdin.
func Open(path string) (*Parser, error) {
	if path == "-" {
		return NewParser(os.Stdin, "stdin"), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chain file: %w", err)
	}

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read chain file: %w", err)
	}

	// Check for gzip magic number (0x1f, 0x8b)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p := NewParser(gz, path)
		p.file, p.gzipReader = file, gz
		return p, nil
	}

	p := NewParser(br, path)
	p.file = file
	return p, nil
}

// Close closes the underlying file, if the parser opened one.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// LineNumber returns the number of lines consumed so far.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Record returns the 1-based index of the most recently started record.
func (p *Parser) Record() int {
	return p.record
}

// readLine returns the next non-comment line. ok is false at end of input.
func (p *Parser) readLine() (line string, ok bool, err error) {
	for p.scanner.Scan() {
		p.lineNumber++
		line = strings.TrimRight(p.scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") {
			continue
		}
		return line, true, nil
	}
	if err := p.scanner.Err(); err != nil {
		return "", false, fmt.Errorf("read chain line %d: %w", p.lineNumber+1, err)
	}
	return "", false, nil
}

func (p *Parser) errorf(sentinel error, format string, args ...any) *ParseError {
	return &ParseError{
		Source:  p.source,
		Line:    p.lineNumber,
		Record:  p.record,
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Next reads the next chain record.
// Returns nil, nil when there are no more records.
//
// The returned chain has passed the fatal checks of Check; structural
// consistency (Validate) is left to the caller.
func (p *Parser) Next() (*Chain, error) {
	var line string
	for {
		l, ok, err := p.readLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		// Tolerate blank lines between records and at end of file.
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	p.record++
	p.inRecord = true

	c, err := p.parseHeader(line)
	if err != nil {
		return nil, err
	}

	blocks, err := p.parseBlocks(c.FromStart, c.ToStart)
	if err != nil {
		return nil, err
	}
	c.Blocks = blocks

	if err := c.Check(); err != nil {
		return nil, &ParseError{Source: p.source, Line: p.lineNumber, Record: p.record, Err: err}
	}
	return c, nil
}

// Skip discards the remainder of the current record after a failed Next,
// so that parsing can resume at the following record.
func (p *Parser) Skip() error {
	for p.inRecord {
		line, ok, err := p.readLine()
		if err != nil {
			return err
		}
		if !ok || strings.TrimSpace(line) == "" {
			p.inRecord = false
		}
	}
	return nil
}

// splitFields splits on whitespace, treating commas as whitespace.
func splitFields(line string) []string {
	return strings.Fields(strings.ReplaceAll(line, ",", " "))
}

// parseHeader parses
//
//	chain score fromName fromSize + fromStart fromEnd toName toSize strand toStart toEnd id
func (p *Parser) parseHeader(line string) (*Chain, error) {
	fields := splitFields(line)
	if len(fields) != headerFields {
		return nil, p.errorf(ErrMalformedHeader, "expected %d fields, found %d", headerFields, len(fields))
	}
	if fields[0] != "chain" {
		return nil, p.errorf(ErrMalformedHeader, "line does not start with 'chain': %q", fields[0])
	}
	if fields[4] != "+" {
		return nil, p.errorf(ErrMalformedHeader, "unsupported from strand %q", fields[4])
	}
	if fields[9] != "+" && fields[9] != "-" {
		return nil, p.errorf(ErrMalformedHeader, "invalid to strand %q", fields[9])
	}

	score, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, p.errorf(ErrMalformedHeader, "invalid score %q", fields[1])
	}

	var numErr *ParseError
	num := func(i int, what string) int64 {
		v, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil && numErr == nil {
			numErr = p.errorf(ErrMalformedHeader, "invalid %s %q", what, fields[i])
		}
		return v
	}

	c := &Chain{
		Score:            score,
		FromName:         fields[2],
		FromSize:         num(3, "from size"),
		FromStart:        num(5, "from start"),
		FromEnd:          num(6, "from end"),
		ToName:           fields[7],
		ToSize:           num(8, "to size"),
		ToNegativeStrand: fields[9] == "-",
		ToStart:          num(10, "to start"),
		ToEnd:            num(11, "to end"),
		ID:               num(12, "id"),
	}
	if numErr != nil {
		return nil, numErr
	}
	return c, nil
}

// parseBlocks folds the block lines of one record into a block list,
// advancing the from/to cursors by size+gap after each non-terminal line.
func (p *Parser) parseBlocks(fromCursor, toCursor int64) ([]Block, error) {
	var blocks []Block
	sawTerminal := false

	for {
		line, ok, err := p.readLine()
		if err != nil {
			return nil, err
		}
		if !ok || strings.TrimSpace(line) == "" {
			p.inRecord = false
			if !sawTerminal {
				return nil, p.errorf(ErrTruncatedRecord, "reached end of chain without seeing terminal block")
			}
			return blocks, nil
		}
		if sawTerminal {
			return nil, p.errorf(ErrTruncatedRecord, "content after terminal block")
		}

		fields := splitFields(line)
		switch len(fields) {
		case 1:
			sawTerminal = true
		case 3:
		default:
			return nil, p.errorf(ErrMalformedBlock, "expected 1 or 3 fields, found %d", len(fields))
		}

		size, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, p.errorf(ErrMalformedBlock, "invalid block size %q", fields[0])
		}
		if size <= 0 {
			return nil, p.errorf(ErrInvalidChain, "non-positive block size %d", size)
		}
		blocks = append(blocks, Block{FromStart: fromCursor, ToStart: toCursor, Size: size})

		if !sawTerminal {
			dt, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, p.errorf(ErrMalformedBlock, "invalid from gap %q", fields[1])
			}
			dq, err := strconv.ParseInt(fields[2], 10, 64)
			if err != nil {
				return nil, p.errorf(ErrMalformedBlock, "invalid to gap %q", fields[2])
			}
			fromCursor += size + dt
			toCursor += size + dq
		}
	}
}

// ParseChain parses exactly one chain record from text.
func ParseChain(text string) (*Chain, error) {
	p := NewParser(strings.NewReader(text), "")
	c, err := p.Next()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: no chain record found", ErrTruncatedRecord)
	}
	return c, nil
}
