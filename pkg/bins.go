package famsample

import (
	"errors"
	"fmt"
	"github.com/montanaflynn/stats"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var BinRangeError = errors.New("value outside configured bins")

// Bins discretizes PropIBD values into half-open intervals (lo, hi] and
// draws bin indices from the configured categorical distribution.
type Bins struct {
	lo    []float64
	hi    []float64
	probs []float64
	cat   distuv.Categorical
}

// NewBins builds a bin table from ascending boundaries. bounds must have one
// more entry than probs, and probs must sum to 1.
func NewBins(bounds []float64, probs []float64, src rand.Source) (*Bins, error) {
	if len(bounds) != len(probs)+1 {
		return nil, fmt.Errorf("NewBins: %v boundaries for %v probabilities", len(bounds), len(probs))
	}
	if len(probs) < 1 {
		return nil, fmt.Errorf("NewBins: no bins")
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			return nil, fmt.Errorf("NewBins: boundaries not ascending at %v: %v <= %v", i, bounds[i], bounds[i-1])
		}
	}
	sum, e := stats.Sum(probs)
	if e != nil {
		return nil, e
	}
	if sum < 1-1e-8 || sum > 1+1e-8 {
		return nil, fmt.Errorf("NewBins: probabilities sum to %v, not 1", sum)
	}

	b := &Bins{
		lo:    bounds[:len(bounds)-1],
		hi:    bounds[1:],
		probs: probs,
		cat:   distuv.NewCategorical(probs, src),
	}
	return b, nil
}

func (b *Bins) NBins() int {
	return len(b.probs)
}

// Discretize returns the index of the bin (lo, hi] containing v.
func (b *Bins) Discretize(v float64) (int, error) {
	if v < 0 || v > 1 {
		return -1, fmt.Errorf("Discretize: PropIBD %v not in [0, 1]", v)
	}
	for i := range b.lo {
		if b.lo[i] < v && v <= b.hi[i] {
			return i, nil
		}
	}
	return -1, fmt.Errorf("Discretize: %v: %w", v, BinRangeError)
}

// RandomBin draws one bin index with the configured weights.
func (b *Bins) RandomBin() int {
	return int(b.cat.Rand())
}
