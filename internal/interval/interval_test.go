package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidRange(t *testing.T) {
	_, err := New("chr1", 200, 100)
	require.ErrorIs(t, err, ErrInvalidRange)

	iv, err := New("chr1", 100, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), iv.Len())
}

func TestInterval_Len(t *testing.T) {
	iv := Interval{Chrom: "chr1", Start: 1, End: 100}
	assert.Equal(t, int64(100), iv.Len())
}

func TestInterval_ZeroBased(t *testing.T) {
	iv, err := FromZeroBased("chr1", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, Interval{Chrom: "chr1", Start: 1, End: 100}, iv)

	start, end := iv.ZeroBased()
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(100), end)
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{"1", 10, 20}, Interval{"1", 10, 20}, true},
		{"touching end", Interval{"1", 10, 20}, Interval{"1", 20, 30}, true},
		{"adjacent", Interval{"1", 10, 20}, Interval{"1", 21, 30}, false},
		{"contained", Interval{"1", 10, 100}, Interval{"1", 40, 50}, true},
		{"different chrom", Interval{"1", 10, 20}, Interval{"2", 10, 20}, false},
		{"case sensitive", Interval{"chrX", 10, 20}, Interval{"chrx", 10, 20}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap is symmetric")
		})
	}
}

func TestInterval_OverlapsMatchesPredicate(t *testing.T) {
	for as := int64(1); as <= 12; as++ {
		for ae := as; ae <= 12; ae++ {
			for bs := int64(1); bs <= 12; bs++ {
				for be := bs; be <= 12; be++ {
					a := Interval{"1", as, ae}
					b := Interval{"1", bs, be}
					assert.Equal(t, a.Start <= b.End && b.Start <= a.End, a.Overlaps(b), "%v %v", a, b)
				}
			}
		}
	}
}

func TestInterval_Intersect(t *testing.T) {
	a := Interval{"chr1", 100, 200}

	got, ok := a.Intersect(Interval{"chr1", 150, 300})
	require.True(t, ok)
	assert.Equal(t, Interval{"chr1", 150, 200}, got)
	assert.Equal(t, int64(51), got.Len())

	_, ok = a.Intersect(Interval{"chr1", 201, 300})
	assert.False(t, ok)

	_, ok = a.Intersect(Interval{"chr2", 100, 200})
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Interval
		wantErr bool
	}{
		{"chr1:100-200", Interval{"chr1", 100, 200}, false},
		{"chr1:1,000-2,000", Interval{"chr1", 1000, 2000}, false},
		{"12:25245351", Interval{"12", 25245351, 25245351}, false},
		{" chrX:5-6 ", Interval{"chrX", 5, 6}, false},
		{"chr1", Interval{}, true},
		{"chr1:abc-200", Interval{}, true},
		{"chr1:0-10", Interval{}, true},
		{"chr1:200-100", Interval{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterval_String(t *testing.T) {
	assert.Equal(t, "chr1:100-200", Interval{"chr1", 100, 200}.String())
}
