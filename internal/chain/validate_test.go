package chain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChain() *Chain {
	return &Chain{
		ID: 1, Score: 1000,
		FromName: "chr1", FromSize: 1000, FromStart: 0, FromEnd: 100,
		ToName: "chr1", ToSize: 1000, ToStart: 0, ToEnd: 90,
		Blocks: []Block{
			{FromStart: 0, ToStart: 0, Size: 40},
			{FromStart: 60, ToStart: 50, Size: 40},
		},
	}
}

func TestValidate_Clean(t *testing.T) {
	c := validChain()
	assert.Empty(t, c.Validate())
	assert.NoError(t, c.Check())
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Chain)
		want   string
	}{
		{"from size", func(c *Chain) { c.FromSize = 0 }, "from sequence size is not positive"},
		{"to size", func(c *Chain) { c.ToSize = -1 }, "to sequence size is not positive"},
		{"span longer than sequence", func(c *Chain) { c.FromSize = 50 }, "exceeds from sequence size"},
		{"empty from name", func(c *Chain) { c.FromName = "" }, "empty from sequence name"},
		{"empty to name", func(c *Chain) { c.ToName = "" }, "empty to sequence name"},
		{"first block mismatch", func(c *Chain) { c.FromStart = 5 }, "first block from start"},
		{"last block mismatch", func(c *Chain) { c.ToEnd = 95 }, "last block to end"},
		{"empty span", func(c *Chain) { c.FromEnd = c.FromStart }, "from length is not positive"},
		{"overlapping from", func(c *Chain) { c.Blocks[1].FromStart = 30 }, "block 1 from start 30 precedes"},
		{"overlapping to", func(c *Chain) { c.Blocks[1].ToStart = 20 }, "block 1 to start 20 precedes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validChain()
			tt.mutate(c)

			problems := c.Validate()
			require.NotEmpty(t, problems)

			found := false
			for _, p := range problems {
				assert.Equal(t, int64(1), p.ChainID)
				assert.ErrorIs(t, p, ErrInconsistent)
				if strings.Contains(p.Problem, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "expected a problem containing %q, got %v", tt.want, problems)
		})
	}
}

func TestCheck_Fatal(t *testing.T) {
	c := validChain()
	c.Blocks = nil
	assert.ErrorIs(t, c.Check(), ErrInvalidChain)
	assert.NotEmpty(t, c.Validate())

	c = validChain()
	c.Blocks[0].Size = 0
	assert.ErrorIs(t, c.Check(), ErrInvalidChain)
}

func TestParse_OutOfOrderBlocksAreInconsistent(t *testing.T) {
	// A negative from gap makes block 1 start inside block 0.
	c, err := ParseChain("chain 1 chr1 1000 + 0 70 chr1 1000 + 0 80 3\n40\t-10\t0\n40\n")
	require.NoError(t, err)

	problems := c.Validate()
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0].Error(), "chain 3")
	assert.Contains(t, problems[0].Problem, "precedes previous block end")
}
