package chain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vibe-liftover/internal/interval"
)

// inconsistentChain has a last block that ends before the declared span.
const inconsistentChain = "chain 10 chr3 1000 + 0 100 chr3 1000 + 0 100 9\n50\n\n"

func TestLoadChains_Index(t *testing.T) {
	idx, err := LoadChains(strings.NewReader(twoChains))
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"chr1", "chr2"}, idx.Chroms())

	hits := idx.Overlaps(interval.Interval{Chrom: "chr1", Start: 10050, End: 10050})
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)

	// Chain 1 covers 1-based 10001-10100.
	assert.Empty(t, idx.Overlaps(interval.Interval{Chrom: "chr1", Start: 1, End: 10000}))
	assert.Len(t, idx.Overlaps(interval.Interval{Chrom: "chr1", Start: 1, End: 10001}), 1)
}

func TestLoader_PermissiveLogsInconsistencies(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	l := NewLoader()
	l.SetLogger(zap.New(core))

	idx, stats, err := l.Load(strings.NewReader(twoChains+"\n"+inconsistentChain), "mixed.chain")
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 3, stats.Chains)
	assert.Equal(t, 1, stats.Inconsistent)
	assert.GreaterOrEqual(t, stats.Problems, 1)

	entries := logs.FilterMessage("structural inconsistency").All()
	require.NotEmpty(t, entries)
	assert.Equal(t, int64(9), entries[0].ContextMap()["chain_id"])
}

func TestLoader_StrictRejectsInconsistencies(t *testing.T) {
	l := NewLoader()
	l.SetStrict(true)

	_, _, err := l.Load(strings.NewReader(twoChains+"\n"+inconsistentChain), "mixed.chain")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistent)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Record)
	assert.Contains(t, err.Error(), "chain 9")
}

func TestLoader_AbortOnFatalByDefault(t *testing.T) {
	input := twoChains + "\nchain 1 chr1 1000 + 0 100\n100\n\n" + inconsistentChain
	_, _, err := NewLoader().Load(strings.NewReader(input), "")
	require.ErrorIs(t, err, ErrMalformedHeader)
}

func TestLoader_SkipInvalid(t *testing.T) {
	input := twoChains + "\nchain 1 chr1 1000 + 0 100\n100\n\n" +
		"chain 5 chr4 1000 + 0 100 chr4 1000 + 0 100 5\n100\n"

	l := NewLoader()
	l.SetSkipInvalid(true)
	idx, stats, err := l.Load(strings.NewReader(input), "")
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 1, stats.Skipped)
	assert.Len(t, idx.Overlaps(interval.Interval{Chrom: "chr4", Start: 1, End: 1}), 1)
}

func TestLoader_StrictSkipInvalid(t *testing.T) {
	l := NewLoader()
	l.SetStrict(true)
	l.SetSkipInvalid(true)

	idx, stats, err := l.Load(strings.NewReader(twoChains+"\n"+inconsistentChain), "")
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 1, stats.Skipped)
}

func parseAll(t *testing.T, text string) []*Chain {
	t.Helper()
	p := NewParser(strings.NewReader(text), "")
	var chains []*Chain
	for {
		c, err := p.Next()
		require.NoError(t, err)
		if c == nil {
			return chains
		}
		chains = append(chains, c)
	}
}

func TestLoader_Screen(t *testing.T) {
	chains := parseAll(t, twoChains+"\n"+inconsistentChain)
	require.Len(t, chains, 3)

	t.Run("permissive keeps everything", func(t *testing.T) {
		kept, stats, err := NewLoader().Screen(chains, "store.duckdb")
		require.NoError(t, err)
		assert.Len(t, kept, 3)
		assert.Equal(t, 3, stats.Chains)
		assert.Equal(t, 1, stats.Inconsistent)
	})

	t.Run("strict rejects", func(t *testing.T) {
		l := NewLoader()
		l.SetStrict(true)
		_, _, err := l.Screen(chains, "store.duckdb")
		require.ErrorIs(t, err, ErrInconsistent)

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "store.duckdb", perr.Source)
		assert.Equal(t, 3, perr.Record)
	})

	t.Run("strict skip-invalid drops", func(t *testing.T) {
		l := NewLoader()
		l.SetStrict(true)
		l.SetSkipInvalid(true)
		kept, stats, err := l.Screen(chains, "store.duckdb")
		require.NoError(t, err)
		require.Len(t, kept, 2)
		assert.Equal(t, 2, stats.Chains)
		assert.Equal(t, 1, stats.Skipped)
		for _, c := range kept {
			assert.NotEqual(t, int64(9), c.ID)
		}
	})
}

func TestLoader_DuplicateIDsAreDiagnosticOnly(t *testing.T) {
	input := "chain 1 chr1 1000 + 0 100 chr1 1000 + 0 100 1\n100\n\n" +
		"chain 1 chr2 1000 + 0 100 chr2 1000 + 0 100 1\n100\n"

	core, logs := observer.New(zap.DebugLevel)
	l := NewLoader()
	l.SetLogger(zap.New(core))

	idx, stats, err := l.Load(strings.NewReader(input), "")
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 1, stats.DuplicateIDs)
	assert.Equal(t, 1, logs.FilterMessage("duplicate chain id").Len())
}

func TestLoader_LoadFiles(t *testing.T) {
	dir := t.TempDir()
	chr1 := filepath.Join(dir, "chr1.chain")
	chr2 := filepath.Join(dir, "chr2.chain")
	require.NoError(t, os.WriteFile(chr1, []byte("chain 1 chr1 1000 + 0 100 chr1 1000 + 0 100 1\n100\n"), 0644))
	require.NoError(t, os.WriteFile(chr2, []byte("chain 1 chr2 1000 + 0 100 chr2 1000 + 0 100 1\n100\n"), 0644))

	idx, stats, err := NewLoader().LoadFiles(context.Background(), []string{chr1, chr2})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, stats.Chains)
	assert.Equal(t, 1, stats.DuplicateIDs, "ids repeat across per-chromosome files")
}

func TestLoader_LoadFilesError(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.chain")
	bad := filepath.Join(dir, "bad.chain")
	require.NoError(t, os.WriteFile(good, []byte("chain 1 chr1 1000 + 0 100 chr1 1000 + 0 100 1\n100\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("chain 1 chr2\n100\n"), 0644))

	_, _, err := NewLoader().LoadFiles(context.Background(), []string{good, bad})
	require.ErrorIs(t, err, ErrMalformedHeader)
	assert.Contains(t, err.Error(), "bad.chain")
}

func TestStats_String(t *testing.T) {
	s := Stats{Chains: 3, Inconsistent: 1, Problems: 2}
	assert.Equal(t, "3 chains, 1 inconsistent (2 problems), 0 duplicate ids, 0 skipped", s.String())
}
