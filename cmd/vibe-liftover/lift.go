package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-liftover/internal/bed"
	"github.com/inodb/vibe-liftover/internal/interval"
	"github.com/inodb/vibe-liftover/internal/liftover"
	"github.com/inodb/vibe-liftover/internal/output"
)

type liftFlags struct {
	output   string
	unmapped string
	region   string
	explain  bool
	noCache  bool
}

func newLiftCmd(g *globalOptions) *cobra.Command {
	var f liftFlags

	cmd := &cobra.Command{
		Use:   "lift <chain>[,<chain>...] [input.bed|-]",
		Short: "Lift BED records or a single region through chain files",
		Long: `Lift BED records (0-based, half-open) from the "from" assembly of the chain
files to their "to" assembly. Several chain files may be given separated by
commas; files ending in .duckdb or .db are read from a chain store written by
"vibe-liftover convert". The input defaults to stdin.

Records that cannot be lifted, or are lifted only partially, are written to
the --unmapped file preceded by a "#Deleted in new" or "#Partially deleted in
new" comment.`,
		Example: `  vibe-liftover lift hg19ToHg38.over.chain.gz in.bed -o out.bed --unmapped miss.bed
  vibe-liftover lift chr1.chain,chr2.chain in.bed.gz --min-match 0.9 --multiple
  vibe-liftover lift hg19ToHg38.duckdb --region chr7:140,453,136-140,453,136 --explain`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{
				"min-match":    "liftover.min_match",
				"multiple":     "liftover.multiple",
				"strict":       "chain.strict",
				"skip-invalid": "chain.skip_invalid",
				"workers":      "workers",
			}); err != nil {
				return err
			}
			return runLift(cmd, g, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "Output file for lifted records (default: stdout)")
	fl.StringVar(&f.unmapped, "unmapped", "", "File for records that could not be fully lifted")
	fl.StringVar(&f.region, "region", "", "Lift a single region (chrom:start-end, 1-based) instead of a BED file")
	fl.BoolVar(&f.explain, "explain", false, "With --region, also list the ranked candidate chains")
	fl.BoolVar(&f.noCache, "no-cache", false, "Do not read or write the parsed chain cache")
	fl.Float64("min-match", liftover.DefaultMinMatch, "Minimum fraction of a record a chain must cover")
	fl.Bool("multiple", false, "Lift through every chain reaching --min-match, not only the best")
	fl.Bool("strict", false, "Treat structural chain inconsistencies as fatal")
	fl.Bool("skip-invalid", false, "Skip invalid chain records instead of aborting")
	fl.Int("workers", 0, "Number of lift workers (0 = number of CPUs)")

	return cmd
}

func runLift(cmd *cobra.Command, g *globalOptions, f liftFlags, args []string) (err error) {
	if f.explain && f.region == "" {
		return usagef("--explain requires --region")
	}
	if f.region != "" && len(args) > 1 {
		return usagef("--region cannot be combined with an input file")
	}

	paths := splitChainArg(args[0])
	if len(paths) == 0 {
		return usagef("no chain file given")
	}

	opts := loadOptions{
		strict:      viper.GetBool("chain.strict"),
		skipInvalid: viper.GetBool("chain.skip_invalid"),
		useCache:    viper.GetBool("cache.enabled") && !f.noCache,
		cacheDir:    viper.GetString("cache.dir"),
	}
	idx, _, err := loadChainIndex(cmd.Context(), paths, opts, g.logger)
	if err != nil {
		return fmt.Errorf("loading chains: %w", err)
	}

	lo := liftover.New(idx)
	lo.SetMinMatch(viper.GetFloat64("liftover.min_match"))
	lo.SetMultiple(viper.GetBool("liftover.multiple"))
	lo.SetLogger(g.logger)

	out, closeOut, err := createOutput(cmd.OutOrStdout(), f.output)
	if err != nil {
		return err
	}
	defer closeInto(&err, closeOut)

	if f.region != "" {
		return liftRegion(out, lo, f.region, f.explain)
	}

	input := "-"
	if len(args) > 1 {
		input = args[1]
	}

	unmapped, closeUnmapped, err := createOutput(io.Discard, f.unmapped)
	if err != nil {
		return err
	}
	defer closeInto(&err, closeUnmapped)

	return liftBED(cmd.Context(), g.logger, lo, input, out, unmapped, viper.GetInt("workers"))
}

// createOutput opens path for writing, or returns def when path is empty.
// The returned close function reports errors from closing the file.
func createOutput(def io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return def, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() error {
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", path, err)
		}
		return nil
	}, nil
}

// closeInto runs fn and stores its error in *err unless *err is already set.
func closeInto(err *error, fn func() error) {
	if cerr := fn(); cerr != nil && *err == nil {
		*err = cerr
	}
}

// liftRegion lifts one region and writes it as a table.
func liftRegion(w io.Writer, lo *liftover.LiftOver, region string, explain bool) error {
	q, err := interval.Parse(region)
	if err != nil {
		return usageError{msg: err.Error()}
	}

	tw := output.NewRegionWriter(w)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	regions := lo.Lift(q)
	if len(regions) == 0 {
		if err := tw.WriteUnmapped(q); err != nil {
			return err
		}
	}
	for _, r := range regions {
		if err := tw.WriteRegion(q, r); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !explain {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	cw := output.NewCandidateWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	for _, c := range lo.Candidates(q) {
		if err := cw.WriteCandidate(q, c); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// liftRecord carries a BED record through the worker pool.
type liftRecord struct {
	rec *bed.Record
	err error // the record has no liftable interval
}

// liftStats counts lift outcomes.
type liftStats struct {
	records int
	lifted  int
	partial int
	deleted int
	invalid int
	regions int
}

// liftBED lifts every record of a BED file, writing results in input order.
func liftBED(ctx context.Context, logger *zap.Logger, lo *liftover.LiftOver, input string, out, unmapped io.Writer, workers int) error {
	parser, err := bed.NewParser(input)
	if err != nil {
		return err
	}
	defer parser.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan liftover.WorkItem, 256)
	var readErr error
	go func() {
		defer close(items)
		for seq := 0; ; seq++ {
			rec, err := parser.Next()
			if err != nil {
				readErr = err
				return
			}
			if rec == nil {
				return
			}
			q, qerr := rec.Interval()
			select {
			case items <- liftover.WorkItem{Seq: seq, Query: q, Extra: liftRecord{rec: rec, err: qerr}}:
			case <-ctx.Done():
				return
			}
		}
	}()

	bw := output.NewBEDWriter(out)
	uw := output.NewUnmappedWriter(unmapped)
	var stats liftStats

	write := func(r liftover.WorkResult) error {
		lr := r.Extra.(liftRecord)
		stats.records++
		if lr.err != nil {
			stats.invalid++
			logger.Debug("record not liftable", zap.Int("line", lr.rec.Line), zap.Error(lr.err))
			return uw.Write(lr.rec, output.ReasonInvalid)
		}

		stats.regions += len(r.Regions)
		if err := bw.Write(lr.rec, r.Regions); err != nil {
			return err
		}
		switch reason := output.Classify(r.Query, r.Regions); reason {
		case "":
			stats.lifted++
			return nil
		case output.ReasonDeleted:
			stats.deleted++
			return uw.Write(lr.rec, reason)
		default:
			stats.partial++
			return uw.Write(lr.rec, reason)
		}
	}

	results := lo.ParallelLift(items, workers)
	if err := liftover.OrderedCollect(results, func(r liftover.WorkResult) error {
		if err := write(r); err != nil {
			cancel()
			return err
		}
		return nil
	}); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if readErr != nil {
		return readErr
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	if err := uw.Flush(); err != nil {
		return err
	}

	logger.Info("lift complete",
		zap.Int("records", stats.records),
		zap.Int("lifted", stats.lifted),
		zap.Int("partial", stats.partial),
		zap.Int("deleted", stats.deleted),
		zap.Int("invalid", stats.invalid),
		zap.Int("regions", stats.regions))
	return nil
}
