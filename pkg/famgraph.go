package famsample

import (
	"errors"
	"fmt"
	"github.com/gammazero/deque"
	"slices"
)

var (
	UnresolvableError = errors.New("pedigree has nodes whose parents never resolve")
	DupFounderError   = errors.New("duplicate founder assignment within one pedigree")
)

// FamEntry is one row of a PLINK .fam pedigree: "0" parents mean no parent.
type FamEntry struct {
	FamilyID string
	ID       string
	Parent1  string
	Parent2  string
}

// FamGraph is one family's parent/child/spouse structure. The topology is
// immutable after construction; per-iteration sample assignments live in a
// separate state slice so iterations never leak into each other.
type FamGraph struct {
	nodes   []string
	pos     map[string]int
	parents [][2]int
	founder []bool
	spouses [][]int
}

// NewFamGraph builds the graph from one family's rows. Every node has zero
// or two parents; the parents of every non-founder are registered as spouses
// of each other, which supports multiple marriages.
func NewFamGraph(entries []FamEntry) (*FamGraph, error) {
	g := &FamGraph{pos: make(map[string]int, len(entries))}
	for _, ent := range entries {
		if _, ok := g.pos[ent.ID]; ok {
			return nil, fmt.Errorf("NewFamGraph: duplicate node id %v", ent.ID)
		}
		g.pos[ent.ID] = len(g.nodes)
		g.nodes = append(g.nodes, ent.ID)
	}

	g.parents = make([][2]int, len(g.nodes))
	g.founder = make([]bool, len(g.nodes))
	g.spouses = make([][]int, len(g.nodes))
	for i, ent := range entries {
		if (ent.Parent1 == "0") != (ent.Parent2 == "0") {
			return nil, fmt.Errorf("NewFamGraph: node %v has exactly one parent", ent.ID)
		}
		if ent.Parent1 == "0" {
			g.parents[i] = [2]int{-1, -1}
			g.founder[i] = true
			continue
		}
		p1, ok := g.pos[ent.Parent1]
		if !ok {
			return nil, fmt.Errorf("NewFamGraph: node %v: parent %v: %w", ent.ID, ent.Parent1, SampleNotFound)
		}
		p2, ok := g.pos[ent.Parent2]
		if !ok {
			return nil, fmt.Errorf("NewFamGraph: node %v: parent %v: %w", ent.ID, ent.Parent2, SampleNotFound)
		}
		g.parents[i] = [2]int{p1, p2}
		if !slices.Contains(g.spouses[p1], p2) {
			g.spouses[p1] = append(g.spouses[p1], p2)
			g.spouses[p2] = append(g.spouses[p2], p1)
		}
	}
	for i := range g.spouses {
		slices.Sort(g.spouses[i])
	}
	return g, nil
}

func (g *FamGraph) NNodes() int {
	return len(g.nodes)
}

func (g *FamGraph) Founder(id string) bool {
	return g.founder[g.pos[id]]
}

// ToAdd lists the node ids with both parents present, in input order. These
// are the descendants a Kinship must declare before traversal.
func (g *FamGraph) ToAdd() []string {
	var out []string
	for i, id := range g.nodes {
		if !g.founder[i] {
			out = append(out, id)
		}
	}
	return out
}

// addSpouses is one idempotent pass over the founders: an unassigned
// founder/founder couple gets a fresh pair from RandomCouple; an unassigned
// founder whose spouse is already assigned gets a single RandomFounder
// anchored on that spouse. New indices go into the shared exclusion
// accumulator immediately so later draws in the same pass see them.
func (g *FamGraph) addSpouses(st []int, excl *[]int, k *Kinship) error {
	for ni := range g.nodes {
		if !g.founder[ni] {
			continue
		}
		for _, sp := range g.spouses[ni] {
			if st[ni] == -1 && st[sp] == -1 && g.founder[sp] {
				m, n, e := k.RandomCouple(*excl)
				if e != nil {
					return e
				}
				st[ni], st[sp] = m, n
				*excl = append(*excl, m, n)
			}
			if st[ni] == -1 && st[sp] > -1 {
				m, e := k.RandomFounder(st[sp], *excl)
				if e != nil {
					return e
				}
				st[ni] = m
				*excl = append(*excl, m)
			}
		}
	}
	return nil
}

// FounderAssign records one founder placement for the iteration log.
type FounderAssign struct {
	ID       SimID
	Node     string
	Idx      int
	SampleID string
}

// Placement is the result of one iteration: the per-node sample indices,
// the realized couple pairs, and the founder assignments in output order.
type Placement struct {
	Idx      []int
	Couples  [][2]int
	Founders []FounderAssign
}

// FindFounders runs one allocation iteration: founders are drawn from k
// subject to the relatedness constraint, descendants get synthesized rows
// via AddChild once both parents are assigned, and the generation-sorted
// founder indices are recorded in led.
func (g *FamGraph) FindFounders(k *Kinship, led *FounderLedger) (*Placement, error) {
	st := make([]int, len(g.nodes))
	for i := range st {
		st[i] = -1
	}
	var excl []int
	if e := g.addSpouses(st, &excl, k); e != nil {
		return nil, e
	}

	var q deque.Deque[int]
	for ni := range g.nodes {
		if !g.founder[ni] {
			q.PushBack(ni)
		}
	}
	stalled := 0
	for q.Len() > 0 {
		ni := q.PopFront()
		p1, p2 := g.parents[ni][0], g.parents[ni][1]
		if st[p1] == -1 || st[p2] == -1 {
			q.PushBack(ni)
			stalled++
			if stalled > q.Len() {
				return nil, fmt.Errorf("FindFounders: %v nodes pending: %w", q.Len(), UnresolvableError)
			}
			continue
		}
		idx, e := k.AddChild(g.nodes[ni], st[p1], st[p2])
		if e != nil {
			return nil, e
		}
		st[ni] = idx
		// A newly-indexed descendant may have founder spouses of its own.
		if e := g.addSpouses(st, &excl, k); e != nil {
			return nil, e
		}
		stalled = 0
	}

	// Founders with no recorded marriage (a childless couple at the edge of
	// the pedigree) never get an index from addSpouses. Pair them up in node
	// order; a lone leftover takes the first member of a fresh couple.
	var pending []int
	for ni := range g.nodes {
		if g.founder[ni] && st[ni] == -1 {
			pending = append(pending, ni)
		}
	}
	for i := 0; i < len(pending); i += 2 {
		m, n, e := k.RandomCouple(excl)
		if e != nil {
			return nil, e
		}
		st[pending[i]] = m
		excl = append(excl, m)
		if i+1 < len(pending) {
			st[pending[i+1]] = n
			excl = append(excl, n)
		}
	}

	p := &Placement{Idx: st}

	seenPair := make(map[[2]int]bool)
	for ni := range g.nodes {
		for _, sp := range g.spouses[ni] {
			a, b := st[ni], st[sp]
			if a > b {
				a, b = b, a
			}
			if !seenPair[[2]int{a, b}] {
				seenPair[[2]int{a, b}] = true
				p.Couples = append(p.Couples, [2]int{a, b})
			}
		}
	}
	slices.SortFunc(p.Couples, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})

	seenIdx := make(map[int]bool)
	for ni, id := range g.nodes {
		if !g.founder[ni] {
			continue
		}
		sid, e := ParseSimID(id)
		if e != nil {
			return nil, fmt.Errorf("FindFounders: %w", e)
		}
		if seenIdx[st[ni]] {
			return nil, fmt.Errorf("FindFounders: node %v sample %v: %w", id, k.SampleID(st[ni]), DupFounderError)
		}
		seenIdx[st[ni]] = true
		p.Founders = append(p.Founders, FounderAssign{
			ID:       sid,
			Node:     id,
			Idx:      st[ni],
			SampleID: k.SampleID(st[ni]),
		})
	}
	slices.SortFunc(p.Founders, func(a, b FounderAssign) int {
		return CmpSimID(a.ID, b.ID)
	})

	for _, f := range p.Founders {
		led.Add(f.Idx)
	}
	return p, nil
}
