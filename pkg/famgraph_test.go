package famsample

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func trioEntries() []FamEntry {
	return []FamEntry{
		{"F1", "Fam1_g1-b1-i1", "0", "0"},
		{"F1", "Fam1_g1-b1-s1", "0", "0"},
		{"F1", "Fam1_g2-b1-i1", "Fam1_g1-b1-i1", "Fam1_g1-b1-s1"},
	}
}

func TestNewFamGraphStructure(t *testing.T) {
	g, e := NewFamGraph(trioEntries())
	require.NoError(t, e)

	require.Equal(t, 3, g.NNodes())
	require.True(t, g.Founder("Fam1_g1-b1-i1"))
	require.True(t, g.Founder("Fam1_g1-b1-s1"))
	require.False(t, g.Founder("Fam1_g2-b1-i1"))
	require.Equal(t, []string{"Fam1_g2-b1-i1"}, g.ToAdd())

	// The child's parents are each other's spouses.
	require.Equal(t, []int{1}, g.spouses[0])
	require.Equal(t, []int{0}, g.spouses[1])
}

func TestNewFamGraphErrors(t *testing.T) {
	_, e := NewFamGraph([]FamEntry{{"F1", "A", "B", "0"}})
	if e == nil {
		t.Error("expected error for a one-parent node")
	}

	_, e = NewFamGraph([]FamEntry{
		{"F1", "A", "0", "0"},
		{"F1", "B", "A", "ghost"},
	})
	if !errors.Is(e, SampleNotFound) {
		t.Errorf("expected SampleNotFound, got %v", e)
	}

	_, e = NewFamGraph([]FamEntry{
		{"F1", "A", "0", "0"},
		{"F1", "A", "0", "0"},
	})
	if e == nil {
		t.Error("expected error for duplicate node id")
	}
}

// The 2-person couple pedigree: both founders must come from the unrelated
// set, get one slot pair each, and every untouched sample must still appear
// in the haplotype table.
func TestFindFoundersCouplePedigree(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	bins, e := NewBins([]float64{-1, 0, 1}, []float64{0.5, 0.5}, rng)
	require.NoError(t, e)

	orig := []string{"A", "B", "C", "D"}
	k, e := NewKinship([]KingRec{{"A", "B", 0}}, bins, orig, nil, 0.1, 0, rng)
	require.NoError(t, e)

	g, e := NewFamGraph([]FamEntry{
		{"F1", "Fam1_g1-b1-i1", "0", "0"},
		{"F1", "Fam1_g1-b1-s1", "0", "0"},
	})
	require.NoError(t, e)

	led := NewFounderLedger(len(orig))
	p, e := g.FindFounders(k, led)
	require.NoError(t, e)

	require.Len(t, p.Founders, 2)
	f1, f2 := p.Founders[0], p.Founders[1]
	require.NotEqual(t, f1.Idx, f2.Idx)
	require.Less(t, f1.Idx, k.OrigN())
	require.Less(t, f2.Idx, k.OrigN())
	require.Equal(t, 0.0, k.Kin(f1.Idx, f2.Idx))

	// s-role founder sorts first and takes the first slot pair.
	require.False(t, f1.ID.Lineal)
	require.Equal(t, []int{0}, led.Slots(f1.Idx))
	require.Equal(t, []int{2}, led.Slots(f2.Idx))

	var buf bytes.Buffer
	require.NoError(t, led.WriteHaplotypes(&buf))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, len(orig))
	seen := map[string]bool{}
	for _, line := range lines {
		require.Len(t, strings.Fields(line), 1)
		seen[line] = true
	}
	require.Equal(t, map[string]bool{"0": true, "2": true, "4": true, "6": true}, seen)
}

// Three generations: the middle child is synthesized, its kinship row is the
// exact parent mean, and only the three true founders reach the ledger.
func TestFindFoundersThreeGenerations(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	bins, e := NewBins([]float64{-1, 0, 1}, []float64{0.5, 0.5}, rng)
	require.NoError(t, e)

	orig := []string{"s0", "s1", "s2", "s3", "s4", "s5"}
	entries := []FamEntry{
		{"F1", "Fam1_g1-b1-i1", "0", "0"},
		{"F1", "Fam1_g1-b1-s1", "0", "0"},
		{"F1", "Fam1_g2-b1-i1", "Fam1_g1-b1-i1", "Fam1_g1-b1-s1"},
		{"F1", "Fam1_g2-b1-s1", "0", "0"},
		{"F1", "Fam1_g3-b1-i1", "Fam1_g2-b1-i1", "Fam1_g2-b1-s1"},
	}
	g, e := NewFamGraph(entries)
	require.NoError(t, e)
	require.Equal(t, []string{"Fam1_g2-b1-i1", "Fam1_g3-b1-i1"}, g.ToAdd())

	k, e := NewKinship(nil, bins, orig, g.ToAdd(), 0.1, 0, rng)
	require.NoError(t, e)

	led := NewFounderLedger(len(orig))
	p, e := g.FindFounders(k, led)
	require.NoError(t, e)

	for ni, idx := range p.Idx {
		if idx < 0 {
			t.Fatalf("node %v unassigned", entries[ni].ID)
		}
	}

	// Descendants land on fresh indices past the original cohort.
	c2, c3 := p.Idx[2], p.Idx[4]
	require.GreaterOrEqual(t, c2, k.OrigN())
	require.GreaterOrEqual(t, c3, k.OrigN())
	require.NotEqual(t, c2, c3)

	// The last-synthesized child's row is exactly the mean of its parents'.
	p1, p2 := p.Idx[2], p.Idx[3]
	for j := 0; j < k.NSamples(); j++ {
		if j == c3 {
			continue
		}
		want := (k.Kin(p1, j) + k.Kin(p2, j)) / 2
		if got := k.Kin(c3, j); got != want {
			t.Fatalf("child kinship to %v: got %v, want %v", j, got, want)
		}
	}

	require.Len(t, p.Founders, 3)
	wantOrder := []string{"Fam1_g1-b1-s1", "Fam1_g1-b1-i1", "Fam1_g2-b1-s1"}
	for i, fa := range p.Founders {
		require.Equal(t, wantOrder[i], fa.Node)
		require.Less(t, fa.Idx, k.OrigN())
	}
	require.Equal(t, 6, led.Next())

	seen := map[int]bool{}
	for _, fa := range p.Founders {
		if seen[fa.Idx] {
			t.Fatal("duplicate founder assignment")
		}
		seen[fa.Idx] = true
	}
}

func TestFindFoundersSlotIDsAccumulate(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	bins, e := NewBins([]float64{-1, 0, 1}, []float64{0.5, 0.5}, rng)
	require.NoError(t, e)

	orig := []string{"A", "B", "C", "D", "E", "F"}
	k, e := NewKinship(nil, bins, orig, nil, 0.1, 0, rng)
	require.NoError(t, e)
	g, e := NewFamGraph([]FamEntry{
		{"F1", "Fam1_g1-b1-i1", "0", "0"},
		{"F1", "Fam1_g1-b1-s1", "0", "0"},
	})
	require.NoError(t, e)

	led := NewFounderLedger(len(orig))
	for iter := 0; iter < 3; iter++ {
		_, e := g.FindFounders(k, led)
		require.NoError(t, e)
	}
	require.Equal(t, 12, led.Next())

	var all []int
	for i := range orig {
		all = append(all, led.Slots(i)...)
	}
	require.Len(t, all, 6)
	seen := map[int]bool{}
	for _, s := range all {
		if s%2 != 0 {
			t.Errorf("slot id %v is odd", s)
		}
		if seen[s] {
			t.Errorf("slot id %v issued twice", s)
		}
		seen[s] = true
	}
}

func TestFindFoundersUnresolvable(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	bins, e := NewBins([]float64{-1, 0, 1}, []float64{0.5, 0.5}, rng)
	require.NoError(t, e)

	// A and B are each other's ancestors; their indices can never resolve.
	entries := []FamEntry{
		{"F1", "C", "0", "0"},
		{"F1", "A", "B", "C"},
		{"F1", "B", "A", "C"},
	}
	g, e := NewFamGraph(entries)
	require.NoError(t, e)

	k, e := NewKinship(nil, bins, []string{"x", "y", "z"}, g.ToAdd(), 0.1, 0, rng)
	require.NoError(t, e)

	_, e = g.FindFounders(k, NewFounderLedger(3))
	if !errors.Is(e, UnresolvableError) {
		t.Errorf("expected UnresolvableError, got %v", e)
	}
}
