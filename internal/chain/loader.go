package chain

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-liftover/internal/overlap"
)

// Index is the overlap index of chains keyed by their "from" interval.
type Index = overlap.Detector[*Chain]

// Stats summarizes one load.
type Stats struct {
	Chains       int // chains added to the index
	Inconsistent int // chains with at least one structural inconsistency
	Problems     int // total structural inconsistencies
	DuplicateIDs int // chains whose id was already seen in this load
	Skipped      int // records dropped because of fatal errors (skip-invalid only)
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Chains += o.Chains
	s.Inconsistent += o.Inconsistent
	s.Problems += o.Problems
	s.DuplicateIDs += o.DuplicateIDs
	s.Skipped += o.Skipped
}

// Loader reads chain files into an Index.
//
// By default structural inconsistencies are logged and loading continues,
// while the first fatal record error aborts the load. SetStrict upgrades
// inconsistencies to fatal errors; SetSkipInvalid drops fatal records and
// continues instead of aborting.
type Loader struct {
	logger      *zap.Logger
	strict      bool
	skipInvalid bool
}

// NewLoader creates a loader with the default permissive policy.
func NewLoader() *Loader {
	return &Loader{logger: zap.NewNop()}
}

// SetLogger sets the logger for inconsistency and summary messages.
func (l *Loader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// SetStrict configures whether structural inconsistencies are fatal.
func (l *Loader) SetStrict(strict bool) {
	l.strict = strict
}

// SetSkipInvalid configures whether records with fatal errors are skipped.
func (l *Loader) SetSkipInvalid(skip bool) {
	l.skipInvalid = skip
}

// LoadChains reads all chains from r with the default policy.
func LoadChains(r io.Reader) (*Index, error) {
	idx, _, err := NewLoader().Load(r, "")
	return idx, err
}

// Load reads all chains from r and indexes them.
func (l *Loader) Load(r io.Reader, source string) (*Index, Stats, error) {
	chains, stats, err := l.read(NewParser(r, source))
	if err != nil {
		return nil, stats, err
	}
	idx, stats := l.Index(chains, stats)
	return idx, stats, nil
}

// LoadFile reads all chains from a chain file, gzip-compressed or not.
func (l *Loader) LoadFile(path string) (*Index, Stats, error) {
	chains, stats, err := l.ReadFile(path)
	if err != nil {
		return nil, stats, err
	}
	idx, stats := l.Index(chains, stats)
	return idx, stats, nil
}

// ReadFile parses every chain in a chain file without indexing them.
func (l *Loader) ReadFile(path string) ([]*Chain, Stats, error) {
	p, err := Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer p.Close()
	return l.read(p)
}

// LoadFiles parses several chain files concurrently and indexes them into a
// single Index. Insertion happens after all files are parsed, in path order.
// Chain ids repeating across files are reported as duplicates only.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) (*Index, Stats, error) {
	perFile := make([][]*Chain, len(paths))
	perStats := make([]Stats, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chains, stats, err := l.ReadFile(path)
			if err != nil {
				return err
			}
			perFile[i], perStats[i] = chains, stats
			return nil
		})
	}

	var total Stats
	if err := g.Wait(); err != nil {
		return nil, total, err
	}

	var all []*Chain
	for i := range paths {
		all = append(all, perFile[i]...)
		total.Add(perStats[i])
	}
	idx, total := l.Index(all, total)
	return idx, total, nil
}

// NewIndex builds an Index over already-parsed chains.
func NewIndex(chains []*Chain) *Index {
	idx := overlap.New[*Chain]()
	for _, c := range chains {
		idx.Add(c.Interval(), c)
	}
	idx.Build()
	return idx
}

// Index inserts already-parsed chains into a new Index, counting duplicate
// ids and logging a load summary.
func (l *Loader) Index(chains []*Chain, stats Stats) (*Index, Stats) {
	seen := make(map[int64]bool, len(chains))
	dups := 0
	for _, c := range chains {
		if seen[c.ID] {
			dups++
			l.logger.Debug("duplicate chain id", zap.Int64("chain_id", c.ID))
		}
		seen[c.ID] = true
	}
	stats.DuplicateIDs = dups

	idx := NewIndex(chains)
	l.logger.Info("loaded chains",
		zap.Int("chains", idx.Len()),
		zap.Int("sequences", len(idx.Chroms())),
		zap.Int("inconsistent", stats.Inconsistent),
		zap.Int("duplicate_ids", stats.DuplicateIDs),
		zap.Int("skipped", stats.Skipped))
	return idx, stats
}

// read parses every record from p, applying the loader's policy.
func (l *Loader) read(p *Parser) ([]*Chain, Stats, error) {
	var (
		chains []*Chain
		stats  Stats
	)

	for {
		c, err := p.Next()
		if err != nil {
			var perr *ParseError
			if l.skipInvalid && errors.As(err, &perr) {
				l.logger.Warn("skipping invalid chain record",
					zap.String("source", perr.Source),
					zap.Int("record", perr.Record),
					zap.Int("line", perr.Line),
					zap.Error(err))
				stats.Skipped++
				if err := p.Skip(); err != nil {
					return nil, stats, err
				}
				continue
			}
			return nil, stats, err
		}
		if c == nil {
			break
		}

		keep, err := l.admit(c, p.source, p.Record(), p.LineNumber(), &stats)
		if err != nil {
			return nil, stats, err
		}
		if !keep {
			continue
		}

		chains = append(chains, c)
		stats.Chains++
	}

	return chains, stats, nil
}

// Screen applies the loader's consistency policy to chains that were not
// read through a Parser, such as those from a chain store. Records are
// numbered by position; line is reported as 0.
func (l *Loader) Screen(chains []*Chain, source string) ([]*Chain, Stats, error) {
	var (
		kept  []*Chain
		stats Stats
	)
	for i, c := range chains {
		keep, err := l.admit(c, source, i+1, 0, &stats)
		if err != nil {
			return nil, stats, err
		}
		if keep {
			kept = append(kept, c)
			stats.Chains++
		}
	}
	return kept, stats, nil
}

// admit validates one chain, logging and counting its inconsistencies.
// Under strict mode an inconsistent chain is an error, or is dropped when
// skip-invalid is also set.
func (l *Loader) admit(c *Chain, source string, record, line int, stats *Stats) (bool, error) {
	problems := c.Validate()
	if len(problems) == 0 {
		return true, nil
	}

	stats.Inconsistent++
	stats.Problems += len(problems)
	for _, pr := range problems {
		l.logger.Warn("structural inconsistency",
			zap.String("source", source),
			zap.Int64("chain_id", c.ID),
			zap.Int("record", record),
			zap.Int("line", line),
			zap.String("problem", pr.Problem))
	}
	if !l.strict {
		return true, nil
	}

	errs := make([]error, len(problems))
	for i, pr := range problems {
		errs[i] = pr
	}
	err := &ParseError{
		Source: source,
		Line:   line,
		Record: record,
		Err:    multierr.Combine(errs...),
	}
	if !l.skipInvalid {
		return false, err
	}
	l.logger.Warn("skipping inconsistent chain", zap.Int64("chain_id", c.ID), zap.Error(err))
	stats.Skipped++
	return false, nil
}

// String implements fmt.Stringer for log and CLI summaries.
func (s Stats) String() string {
	return fmt.Sprintf("%d chains, %d inconsistent (%d problems), %d duplicate ids, %d skipped",
		s.Chains, s.Inconsistent, s.Problems, s.DuplicateIDs, s.Skipped)
}
