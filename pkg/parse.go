package famsample

import (
	"bufio"
	"fmt"
	"github.com/jgbaldwinbrown/csvh"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// ParseKing streams the pairwise relatedness rows of a KING .seg table. The
// header row locates the ID1, ID2, and PropIBD columns; everything else is
// ignored.
func ParseKing(r io.Reader) iter.Seq2[KingRec, error] {
	return func(y func(KingRec, error) bool) {
		s := bufio.NewScanner(r)
		if !s.Scan() {
			y(KingRec{}, fmt.Errorf("ParseKing: empty input"))
			return
		}
		head := strings.Fields(s.Text())
		c1 := slices.Index(head, "ID1")
		c2 := slices.Index(head, "ID2")
		cp := slices.Index(head, "PropIBD")
		if c1 == -1 || c2 == -1 || cp == -1 {
			y(KingRec{}, fmt.Errorf("ParseKing: header %v missing ID1, ID2, or PropIBD", head))
			return
		}

		for lineno := 2; s.Scan(); lineno++ {
			fields := strings.Fields(s.Text())
			if len(fields) == 0 {
				continue
			}
			if len(fields) <= c1 || len(fields) <= c2 || len(fields) <= cp {
				if !y(KingRec{}, fmt.Errorf("ParseKing: line %v: %v fields", lineno, len(fields))) {
					return
				}
				continue
			}
			prop, e := strconv.ParseFloat(fields[cp], 64)
			if e != nil {
				if !y(KingRec{}, fmt.Errorf("ParseKing: line %v: %w", lineno, e)) {
					return
				}
				continue
			}
			if !y(KingRec{ID1: fields[c1], ID2: fields[c2], PropIBD: prop}, nil) {
				return
			}
		}
		if s.Err() != nil {
			y(KingRec{}, fmt.Errorf("ParseKing: %w", s.Err()))
		}
	}
}

func ParseKingPath(path string) iter.Seq2[KingRec, error] {
	return func(y func(KingRec, error) bool) {
		r, e := csvh.OpenMaybeGz(path)
		if e != nil {
			y(KingRec{}, e)
			return
		}
		defer r.Close()
		for rec, e := range ParseKing(r) {
			if !y(rec, e) {
				return
			}
		}
	}
}

// ParseFam streams PLINK .fam rows. Only the first four columns matter here:
// family, individual, and the two parents ("0" = no parent).
func ParseFam(r io.Reader) iter.Seq2[FamEntry, error] {
	return func(y func(FamEntry, error) bool) {
		s := bufio.NewScanner(r)
		for lineno := 1; s.Scan(); lineno++ {
			line := strings.Fields(s.Text())
			if len(line) == 0 {
				continue
			}
			if len(line) < 4 {
				if !y(FamEntry{}, fmt.Errorf("ParseFam: line %v: len(line) %v < 4", lineno, len(line))) {
					return
				}
				continue
			}
			var ent FamEntry
			_, e := csvh.Scan(line, &ent.FamilyID, &ent.ID, &ent.Parent1, &ent.Parent2)
			if e != nil {
				if !y(ent, fmt.Errorf("ParseFam: line %v: %w", lineno, e)) {
					return
				}
				continue
			}
			if !y(ent, nil) {
				return
			}
		}
		if s.Err() != nil {
			y(FamEntry{}, fmt.Errorf("ParseFam: %w", s.Err()))
		}
	}
}

func ParseFamPath(path string) iter.Seq2[FamEntry, error] {
	return func(y func(FamEntry, error) bool) {
		r, e := csvh.OpenMaybeGz(path)
		if e != nil {
			y(FamEntry{}, e)
			return
		}
		defer r.Close()
		for ent, e := range ParseFam(r) {
			if !y(ent, e) {
				return
			}
		}
	}
}

// FirstFam keeps only the rows sharing the first row's family ID, the way
// one pedigree is cut out of a multi-family .fam file.
func FirstFam(ents []FamEntry) []FamEntry {
	if len(ents) == 0 {
		return nil
	}
	var out []FamEntry
	for _, ent := range ents {
		if ent.FamilyID == ents[0].FamilyID {
			out = append(out, ent)
		}
	}
	return out
}

// ReadVCFSamples returns the sample columns of a VCF's #CHROM header line.
func ReadVCFSamples(r io.Reader) ([]string, error) {
	s := bufio.NewScanner(r)
	// #CHROM lines run long on big cohorts
	s.Buffer(make([]byte, 0, 1<<16), 1<<26)
	var header string
	for s.Scan() {
		if !strings.HasPrefix(s.Text(), "#") {
			break
		}
		header = s.Text()
	}
	if s.Err() != nil {
		return nil, fmt.Errorf("ReadVCFSamples: %w", s.Err())
	}
	fields := strings.Fields(header)
	if len(fields) < 10 {
		return nil, fmt.Errorf("ReadVCFSamples: header %q has no sample columns", header)
	}
	return fields[9:], nil
}

func ReadVCFSamplesPath(path string) ([]string, error) {
	r, e := csvh.OpenMaybeGz(path)
	if e != nil {
		return nil, e
	}
	defer r.Close()
	return ReadVCFSamples(r)
}
