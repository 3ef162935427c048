package famsample

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func testBins(t *testing.T, bounds, probs []float64, seed uint64) *Bins {
	t.Helper()
	b, e := NewBins(bounds, probs, rand.NewSource(seed))
	require.NoError(t, e)
	return b
}

func TestNewBinsValidation(t *testing.T) {
	src := rand.NewSource(1)

	if _, e := NewBins([]float64{-1, 0, 1}, []float64{1}, src); e == nil {
		t.Error("expected error for mismatched boundary/probability counts")
	}
	if _, e := NewBins([]float64{-1, 1, 0}, []float64{0.5, 0.5}, src); e == nil {
		t.Error("expected error for non-ascending boundaries")
	}
	if _, e := NewBins([]float64{-1, 0, 1}, []float64{0.5, 0.6}, src); e == nil {
		t.Error("expected error for probabilities summing to 1.1")
	}
	if _, e := NewBins([]float64{1}, nil, src); e == nil {
		t.Error("expected error for empty bin table")
	}
	if _, e := NewBins([]float64{-1, 0, 1}, []float64{0.5, 0.5}, src); e != nil {
		t.Errorf("unexpected error: %v", e)
	}
}

func TestDiscretize(t *testing.T) {
	b := testBins(t, []float64{-1, 0, 0.04, 1}, []float64{0.5, 0.3, 0.2}, 1)

	cases := []struct {
		v    float64
		want int
	}{
		{0, 0},
		{0.01, 1},
		{0.04, 1},
		{0.0400001, 2},
		{0.5, 2},
		{1, 2},
	}
	for _, c := range cases {
		got, e := b.Discretize(c.v)
		require.NoError(t, e)
		if got != c.want {
			t.Errorf("Discretize(%v) = %v, want %v", c.v, got, c.want)
		}
	}

	if _, e := b.Discretize(-0.5); e == nil {
		t.Error("expected error for value below 0")
	}
	if _, e := b.Discretize(1.5); e == nil {
		t.Error("expected error for value above 1")
	}

	short := testBins(t, []float64{0, 0.5}, []float64{1}, 1)
	_, e := short.Discretize(0.7)
	if !errors.Is(e, BinRangeError) {
		t.Errorf("expected BinRangeError, got %v", e)
	}
}

func TestRandomBinDistribution(t *testing.T) {
	b := testBins(t, []float64{-1, 0, 0.1, 1}, []float64{0.7, 0.2, 0.1}, 7)

	const draws = 20000
	counts := make([]int, b.NBins())
	for i := 0; i < draws; i++ {
		bin := b.RandomBin()
		if bin < 0 || bin >= b.NBins() {
			t.Fatalf("RandomBin returned %v", bin)
		}
		counts[bin]++
	}
	for i, want := range []float64{0.7, 0.2, 0.1} {
		got := float64(counts[i]) / draws
		if got < want-0.02 || got > want+0.02 {
			t.Errorf("bin %v frequency %v, want %v +- 0.02", i, got, want)
		}
	}
}
