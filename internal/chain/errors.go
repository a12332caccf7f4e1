package chain

import (
	"errors"
	"fmt"
)

// Record-level failures. A ParseError wraps one of these.
var (
	ErrMalformedHeader = errors.New("malformed chain header")
	ErrMalformedBlock  = errors.New("malformed block line")
	ErrTruncatedRecord = errors.New("truncated chain record")
	ErrInvalidChain    = errors.New("invalid chain")
	ErrInconsistent    = errors.New("structurally inconsistent chain")
)

// ParseError reports a fatal problem with one chain record, with the line
// and record index at which it was detected.
type ParseError struct {
	Source  string // File name, or empty for anonymous readers
	Line    int    // 1-based line number
	Record  int    // 1-based record index
	Err     error  // One of the Err* sentinels, possibly combined with details
	Message string
}

func (e *ParseError) Error() string {
	src := ""
	if e.Source != "" {
		src = " in " + e.Source
	}
	if e.Message == "" {
		return fmt.Sprintf("chain parse error%s at line %d (record %d): %v", src, e.Line, e.Record, e.Err)
	}
	return fmt.Sprintf("chain parse error%s at line %d (record %d): %v: %s", src, e.Line, e.Record, e.Err, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Inconsistency is a non-fatal structural problem with a parsed chain, such
// as a block overlapping its predecessor or a span that disagrees with the
// blocks. Mapping is still attempted against inconsistent chains unless the
// loader runs in strict mode.
type Inconsistency struct {
	ChainID int64
	Problem string
}

func (i Inconsistency) Error() string {
	return fmt.Sprintf("chain %d: %s", i.ChainID, i.Problem)
}

func (i Inconsistency) Unwrap() error {
	return ErrInconsistent
}
