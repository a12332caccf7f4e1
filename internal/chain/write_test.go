package chain

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTo_Format(t *testing.T) {
	var buf bytes.Buffer
	_, err := validChain().WriteTo(&buf)
	require.NoError(t, err)

	want := "chain\t1000.0\tchr1\t1000\t+\t0\t100\tchr1\t1000\t+\t0\t90\t1\n" +
		"40\t20\t10\n" +
		"40\n" +
		"\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "3.0", formatScore(3))
	assert.Equal(t, "1200.5", formatScore(1200.5))
	assert.Equal(t, "-7.0", formatScore(-7))
}

func TestWriteTo_RoundTrip(t *testing.T) {
	c, err := ParseChain(twoChains)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = c.WriteTo(&buf)
	require.NoError(t, err)

	back, err := ParseChain(buf.String())
	require.NoError(t, err)
	assert.True(t, c.Equal(back), "parse(write(c)) == c")
}

// randomChain builds a structurally valid chain with n blocks.
func randomChain(rng *rand.Rand, id int64, n int) *Chain {
	c := &Chain{
		ID:               id,
		Score:            float64(rng.Intn(100000)) + 0.25*float64(rng.Intn(4)),
		FromName:         "chr" + string(rune('1'+rng.Intn(9))),
		ToName:           "chrUn_" + string(rune('a'+rng.Intn(26))),
		ToNegativeStrand: rng.Intn(2) == 0,
	}
	from := rng.Int63n(1000)
	to := rng.Int63n(1000)
	c.FromStart, c.ToStart = from, to
	for range n {
		size := rng.Int63n(500) + 1
		c.Blocks = append(c.Blocks, Block{FromStart: from, ToStart: to, Size: size})
		from += size + rng.Int63n(50)
		to += size + rng.Int63n(50)
	}
	last := c.Blocks[len(c.Blocks)-1]
	c.FromEnd, c.ToEnd = last.FromEnd(), last.ToEnd()
	c.FromSize = c.FromEnd + rng.Int63n(1000)
	c.ToSize = c.ToEnd + rng.Int63n(1000)
	return c
}

func TestWriteAll_RoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var chains []*Chain
	for i := range 50 {
		c := randomChain(rng, int64(i+1), rng.Intn(20)+1)
		require.Empty(t, c.Validate(), "generator produced an inconsistent chain")
		chains = append(chains, c)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAll(&buf, chains))

	p := NewParser(strings.NewReader(buf.String()), "")
	for i, want := range chains {
		got, err := p.Next()
		require.NoError(t, err)
		require.NotNil(t, got, "chain %d", i)
		assert.True(t, want.Equal(got), "chain %d differs after round trip", i)
	}
	got, err := p.Next()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChain_Equal(t *testing.T) {
	a, b := validChain(), validChain()
	assert.True(t, a.Equal(b))

	b.Blocks[1].Size = 41
	assert.False(t, a.Equal(b))

	var nilChain *Chain
	assert.False(t, a.Equal(nilChain))
	assert.True(t, nilChain.Equal(nil))
}
