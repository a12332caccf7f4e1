package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-liftover/internal/chain"
	"github.com/inodb/vibe-liftover/internal/duckdb"
)

// loadOptions controls how chain sources are read.
type loadOptions struct {
	strict      bool
	skipInvalid bool
	useCache    bool
	cacheDir    string
}

// isStorePath reports whether path names a DuckDB chain store.
func isStorePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".duckdb", ".db":
		return true
	}
	return false
}

// splitChainArg splits a comma-separated list of chain sources.
func splitChainArg(arg string) []string {
	var paths []string
	for _, p := range strings.Split(arg, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func newChainLoader(opts loadOptions, logger *zap.Logger) *chain.Loader {
	l := chain.NewLoader()
	l.SetLogger(logger)
	l.SetStrict(opts.strict)
	l.SetSkipInvalid(opts.skipInvalid)
	return l
}

// loadChainIndex reads every chain source into one index. Chain files are
// parsed concurrently; DuckDB stores and valid cache entries are read
// directly.
func loadChainIndex(ctx context.Context, paths []string, opts loadOptions, logger *zap.Logger) (*chain.Index, chain.Stats, error) {
	loader := newChainLoader(opts, logger)
	if !opts.useCache && !slices.ContainsFunc(paths, isStorePath) {
		return loader.LoadFiles(ctx, paths)
	}

	perFile := make([][]*chain.Chain, len(paths))
	perStats := make([]chain.Stats, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chains, stats, err := readChainSource(path, loader, opts, logger)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			perFile[i], perStats[i] = chains, stats
			return nil
		})
	}

	var total chain.Stats
	if err := g.Wait(); err != nil {
		return nil, total, err
	}

	var all []*chain.Chain
	for i := range paths {
		all = append(all, perFile[i]...)
		total.Add(perStats[i])
	}
	idx, total := loader.Index(all, total)
	return idx, total, nil
}

// readChainSource reads the chains of a single source.
//
// Chains from a store pass through the same consistency policy as parsed
// chain files. Only chain files that parsed without inconsistencies or
// skipped records are cached, so a cache hit is independent of the loader
// policy.
func readChainSource(path string, loader *chain.Loader, opts loadOptions, logger *zap.Logger) ([]*chain.Chain, chain.Stats, error) {
	if isStorePath(path) {
		chains, err := readStore(path)
		if err != nil {
			return nil, chain.Stats{}, err
		}
		return loader.Screen(chains, path)
	}

	if !opts.useCache || path == "-" {
		return loader.ReadFile(path)
	}

	fp, err := duckdb.StatFile(path)
	if err != nil {
		return nil, chain.Stats{}, err
	}
	cc := duckdb.NewChainCache(opts.cacheDir)
	if cc.Valid(fp) {
		chains, err := cc.Load(path)
		if err == nil {
			logger.Debug("loaded chains from cache", zap.String("path", path), zap.Int("chains", len(chains)))
			return chains, chain.Stats{Chains: len(chains)}, nil
		}
		logger.Warn("ignoring unreadable chain cache", zap.String("path", path), zap.Error(err))
	}

	chains, stats, err := loader.ReadFile(path)
	if err != nil {
		return nil, stats, err
	}
	if stats.Inconsistent == 0 && stats.Skipped == 0 {
		if err := cc.Write(chains, fp); err != nil {
			logger.Warn("could not write chain cache", zap.String("path", path), zap.Error(err))
		}
	}
	return chains, stats, nil
}

// readStore reads all chains from a DuckDB chain store.
func readStore(path string) ([]*chain.Chain, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	s, err := duckdb.Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.ReadChains()
}
