package famsample

import (
	"errors"
	"fmt"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

var (
	InfeasibleError = errors.New("no admissible founder assignment found")
	SampleNotFound  = errors.New("sample id not in sample list")
)

// KingRec is one pairwise relatedness measurement from a KING .seg table.
type KingRec struct {
	ID1     string
	ID2     string
	PropIBD float64
}

// Kinship owns the full sample set, the symmetric kinship matrix, and the
// per-sample, per-bin membership index used to draw founders. Samples with
// index < OrigN are the real cohort; the rest are simulated descendants whose
// rows stay empty until AddChild fills them.
type Kinship struct {
	bins       *Bins
	samples    []string
	idx        map[string]int
	origN      int
	kin        *mat.SymDense
	binRows    [][][]int
	addedBin   [][]int
	unrelated  [][2]int
	maxPropIBD float64
	maxTries   int
	rng        *rand.Rand
}

// NewKinship builds the matrix and bin index for the original samples from
// recs. toAdd declares the descendant samples a pedigree will synthesize;
// their rows are reserved up front so indices stay stable as children are
// added. maxTries of 0 means the samplers retry forever.
func NewKinship(recs []KingRec, bins *Bins, origSamples, toAdd []string, maxPropIBD float64, maxTries int, rng *rand.Rand) (*Kinship, error) {
	samples := make([]string, 0, len(origSamples)+len(toAdd))
	samples = append(samples, origSamples...)
	samples = append(samples, toAdd...)

	idx := make(map[string]int, len(samples))
	for i, s := range samples {
		if _, ok := idx[s]; ok {
			return nil, fmt.Errorf("NewKinship: duplicate sample id %v", s)
		}
		idx[s] = i
	}

	n := len(samples)
	k := &Kinship{
		bins:       bins,
		samples:    samples,
		idx:        idx,
		origN:      len(origSamples),
		kin:        mat.NewSymDense(n, nil),
		binRows:    make([][][]int, n),
		addedBin:   make([][]int, n),
		maxPropIBD: maxPropIBD,
		maxTries:   maxTries,
		rng:        rng,
	}
	for i := range k.binRows {
		k.binRows[i] = make([][]int, bins.NBins())
		k.addedBin[i] = make([]int, len(toAdd))
		for j := range k.addedBin[i] {
			k.addedBin[i][j] = -1
		}
	}

	for _, rec := range recs {
		i1, ok := idx[rec.ID1]
		if !ok {
			return nil, fmt.Errorf("NewKinship: %v: %w", rec.ID1, SampleNotFound)
		}
		i2, ok := idx[rec.ID2]
		if !ok {
			return nil, fmt.Errorf("NewKinship: %v: %w", rec.ID2, SampleNotFound)
		}
		if i1 >= k.origN || i2 >= k.origN {
			return nil, fmt.Errorf("NewKinship: record %v %v names a simulated sample", rec.ID1, rec.ID2)
		}
		d, e := bins.Discretize(rec.PropIBD)
		if e != nil {
			return nil, fmt.Errorf("NewKinship: %v %v: %w", rec.ID1, rec.ID2, e)
		}
		k.kin.SetSym(i1, i2, rec.PropIBD)
		k.binRows[i1][d] = append(k.binRows[i1][d], i2)
		k.binRows[i2][d] = append(k.binRows[i2][d], i1)
	}

	// Pairs absent from the records are unrelated too.
	for i := 0; i < k.origN; i++ {
		for j := i + 1; j < k.origN; j++ {
			if k.kin.At(i, j) == 0 {
				k.unrelated = append(k.unrelated, [2]int{i, j})
			}
		}
	}

	return k, nil
}

func (k *Kinship) OrigN() int    { return k.origN }
func (k *Kinship) NSamples() int { return len(k.samples) }

// Kin returns the current relatedness between samples i and j.
func (k *Kinship) Kin(i, j int) float64 { return k.kin.At(i, j) }

func (k *Kinship) SampleID(i int) string {
	return k.samples[i]
}

func (k *Kinship) Index(id string) (int, bool) {
	i, ok := k.idx[id]
	return i, ok
}

func removeMember(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			s[i] = s[len(s)-1]
			return s[:len(s)-1]
		}
	}
	return s
}

// AddChild fills childID's row as the mean of its parents' rows, keeping the
// matrix and bin index symmetric, and returns the child's index. Re-adding
// the same child on a later iteration retracts its stale bin memberships
// first.
func (k *Kinship) AddChild(childID string, p1, p2 int) (int, error) {
	c, ok := k.idx[childID]
	if !ok {
		return -1, fmt.Errorf("AddChild: %v: %w", childID, SampleNotFound)
	}
	if c < k.origN {
		return -1, fmt.Errorf("AddChild: %v is an original sample, not a declared descendant", childID)
	}
	ord := c - k.origN

	n := len(k.samples)
	for j := 0; j < n; j++ {
		if d := k.addedBin[j][ord]; d >= 0 {
			k.binRows[j][d] = removeMember(k.binRows[j][d], c)
			k.addedBin[j][ord] = -1
		}
	}
	k.binRows[c] = make([][]int, k.bins.NBins())
	for i := range k.addedBin[c] {
		k.addedBin[c][i] = -1
	}

	for j := 0; j < n; j++ {
		kv := (k.kin.At(p1, j) + k.kin.At(p2, j)) / 2
		k.kin.SetSym(c, j, kv)
		if j == c {
			continue
		}
		d, e := k.bins.Discretize(kv)
		if e != nil {
			return -1, fmt.Errorf("AddChild: %v vs %v: %w", childID, k.samples[j], e)
		}
		k.binRows[c][d] = append(k.binRows[c][d], j)
		k.binRows[j][d] = append(k.binRows[j][d], c)
		k.addedBin[j][ord] = d
		if j >= k.origN {
			k.addedBin[c][j-k.origN] = d
		}
	}

	return c, nil
}

// violates reports whether m may not join a family whose placed founders are
// exclude: m already placed, or too related to any of them.
func (k *Kinship) violates(m int, exclude []int) bool {
	for _, f := range exclude {
		if m == f || k.kin.At(m, f) > k.maxPropIBD {
			return true
		}
	}
	return false
}

func (k *Kinship) origMembers(row, bin int) []int {
	var out []int
	for _, j := range k.binRows[row][bin] {
		if j < k.origN {
			out = append(out, j)
		}
	}
	return out
}

// pickCouple is one attempt at drawing an admissible founder couple. A false
// return means the draw was rejected and the caller should redraw.
func (k *Kinship) pickCouple(exclude []int) (m, n int, ok bool) {
	b := k.bins.RandomBin()

	if b == 0 {
		if len(k.unrelated) == 0 {
			return -1, -1, false
		}
		p := k.unrelated[k.rng.Intn(len(k.unrelated))]
		if k.violates(p[0], exclude) || k.violates(p[1], exclude) {
			return -1, -1, false
		}
		return p[0], p[1], true
	}

	var ms []int
	for i := 0; i < k.origN; i++ {
		if len(k.origMembers(i, b)) > 0 {
			ms = append(ms, i)
		}
	}
	if len(ms) == 0 {
		return -1, -1, false
	}
	m = ms[k.rng.Intn(len(ms))]
	if k.violates(m, exclude) {
		return -1, -1, false
	}
	ns := k.origMembers(m, b)
	n = ns[k.rng.Intn(len(ns))]
	if m == n || k.violates(n, exclude) {
		return -1, -1, false
	}
	return m, n, true
}

// RandomCouple draws a fresh couple of original samples, biased by the bin
// distribution, admissible against the already-placed founders in exclude.
func (k *Kinship) RandomCouple(exclude []int) (int, int, error) {
	for tries := 0; k.maxTries == 0 || tries < k.maxTries; tries++ {
		if m, n, ok := k.pickCouple(exclude); ok {
			return m, n, nil
		}
	}
	return -1, -1, fmt.Errorf("RandomCouple: %v tries: %w", k.maxTries, InfeasibleError)
}

// pickFounder is one attempt at drawing a spouse for the sample at anchor.
func (k *Kinship) pickFounder(anchor int, exclude []int) (int, bool) {
	b := k.bins.RandomBin()
	cands := k.binRows[anchor][b]
	if len(cands) == 0 {
		return -1, false
	}
	m := cands[k.rng.Intn(len(cands))]
	if m >= k.origN {
		return -1, false
	}
	if k.violates(m, exclude) {
		return -1, false
	}
	return m, true
}

// RandomFounder draws a single original sample to marry the already-assigned
// sample at anchor, weighted by anchor's own bin membership.
func (k *Kinship) RandomFounder(anchor int, exclude []int) (int, error) {
	for tries := 0; k.maxTries == 0 || tries < k.maxTries; tries++ {
		if m, ok := k.pickFounder(anchor, exclude); ok {
			return m, nil
		}
	}
	return -1, fmt.Errorf("RandomFounder: anchor %v: %v tries: %w", k.samples[anchor], k.maxTries, InfeasibleError)
}
