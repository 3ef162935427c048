package famsample

import (
	"fmt"
	"github.com/jgbaldwinbrown/csvh"
	"io"
	"strconv"
	"strings"
)

// FounderLedger accumulates founder-slot ids per original sample across the
// whole run. Each id is even and denotes one haploid pair of haplotype
// columns; the counter advances by 2 per placement and never resets, so ids
// are globally unique across pedigrees and iterations.
type FounderLedger struct {
	slots [][]int
	next  int
}

func NewFounderLedger(origN int) *FounderLedger {
	return &FounderLedger{slots: make([][]int, origN)}
}

// Add records one founder appearance for the original sample at idx.
func (l *FounderLedger) Add(idx int) {
	l.slots[idx] = append(l.slots[idx], l.next)
	l.next += 2
}

func (l *FounderLedger) AddFounders(idxs ...int) {
	for _, idx := range idxs {
		l.Add(idx)
	}
}

func (l *FounderLedger) Next() int {
	return l.next
}

func (l *FounderLedger) Slots(idx int) []int {
	return l.slots[idx]
}

// WriteHaplotypes writes one line per original sample listing its slot ids.
// A sample never used as a founder gets one fresh slot first, so every
// sample appears downstream at least once.
func (l *FounderLedger) WriteHaplotypes(w io.Writer) error {
	for i := range l.slots {
		if len(l.slots[i]) == 0 {
			l.Add(i)
		}
		fields := make([]string, 0, len(l.slots[i]))
		for _, s := range l.slots[i] {
			fields = append(fields, strconv.Itoa(s))
		}
		if _, e := fmt.Fprintf(w, "%v\n", strings.Join(fields, " ")); e != nil {
			return e
		}
	}
	return nil
}

func (l *FounderLedger) WriteHaplotypesPath(path string) (err error) {
	w, e := csvh.CreateMaybeGz(path)
	if e != nil {
		return e
	}
	defer func() { csvh.DeferE(&err, w.Close()) }()
	return l.WriteHaplotypes(w)
}
