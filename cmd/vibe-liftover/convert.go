package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-liftover/internal/chain"
	"github.com/inodb/vibe-liftover/internal/duckdb"
)

func newConvertCmd(g *globalOptions) *cobra.Command {
	var appendMode bool

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert between chain files and DuckDB chain stores",
		Long: `Convert a chain file (plain or gzipped) into a DuckDB chain store, or a
DuckDB chain store back into a chain file. The direction is chosen by the
input extension: .duckdb and .db inputs are exported, anything else is
imported. Exported files ending in .gz are gzip-compressed.`,
		Example: `  vibe-liftover convert hg19ToHg38.over.chain.gz hg19ToHg38.duckdb
  vibe-liftover convert chr2.chain genome.duckdb --append
  vibe-liftover convert hg19ToHg38.duckdb hg19ToHg38.over.chain.gz`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{
				"strict":       "chain.strict",
				"skip-invalid": "chain.skip_invalid",
			}); err != nil {
				return err
			}
			if isStorePath(args[0]) {
				return runExport(cmd, g, args[0], args[1])
			}
			return runImport(cmd, g, args[0], args[1], appendMode)
		},
	}

	cmd.Flags().BoolVar(&appendMode, "append", false, "Append to an existing store instead of replacing it")
	cmd.Flags().Bool("strict", false, "Treat structural chain inconsistencies as fatal")
	cmd.Flags().Bool("skip-invalid", false, "Skip invalid chain records instead of aborting")

	return cmd
}

// runImport parses a chain file into a DuckDB store.
func runImport(cmd *cobra.Command, g *globalOptions, input, outputPath string, appendMode bool) (err error) {
	// Ensure output has .duckdb extension
	if !isStorePath(outputPath) {
		outputPath = outputPath + ".duckdb"
	}

	loader := newChainLoader(loadOptions{
		strict:      viper.GetBool("chain.strict"),
		skipInvalid: viper.GetBool("chain.skip_invalid"),
	}, g.logger)
	chains, stats, err := loader.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	// Replace the existing store (and its write-ahead log) only once the
	// input has parsed.
	if !appendMode {
		for _, p := range []string{outputPath, outputPath + ".wal"} {
			if _, err := os.Stat(p); err == nil {
				if err := os.Remove(p); err != nil {
					return fmt.Errorf("removing existing store: %w", err)
				}
			}
		}
	}

	store, err := duckdb.Open(outputPath)
	if err != nil {
		return err
	}
	defer closeInto(&err, store.Close)

	if err := store.WriteChains(chains); err != nil {
		return fmt.Errorf("writing chains: %w", err)
	}
	if input != "-" {
		fp, err := duckdb.StatFile(input)
		if err != nil {
			return err
		}
		if err := store.RecordSource(fp, len(chains)); err != nil {
			return err
		}
	}

	n, err := store.ChainCount()
	if err != nil {
		return err
	}
	g.logger.Info("imported chains",
		zap.String("input", input),
		zap.String("store", outputPath),
		zap.Int("chains", len(chains)),
		zap.Int64("store_chains", n))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", input, stats)
	return nil
}

// runExport writes every chain in a DuckDB store to a chain file.
func runExport(cmd *cobra.Command, g *globalOptions, input, outputPath string) (err error) {
	chains, err := readStore(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	w, closeOut, err := createOutput(cmd.OutOrStdout(), outputPath)
	if err != nil {
		return err
	}
	defer closeInto(&err, closeOut)

	if strings.HasSuffix(outputPath, ".gz") {
		gz := gzip.NewWriter(w)
		if err := chain.WriteAll(gz, chains); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return err
		}
	} else if err := chain.WriteAll(w, chains); err != nil {
		return err
	}

	g.logger.Info("exported chains",
		zap.String("store", input),
		zap.String("output", filepath.Clean(outputPath)),
		zap.Int("chains", len(chains)))
	return nil
}
