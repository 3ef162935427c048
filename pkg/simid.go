package famsample

import (
	"fmt"
	"strconv"
	"strings"
)

// SimID is a ped-sim sample identifier of the form
// {Prefix}_g{Gen}-b{Branch}-{i|s}{Ind}. Lineal is true for the "i" role
// character, an in-branch descendant; "s" marks a married-in spouse.
type SimID struct {
	Prefix string
	Gen    int
	Branch int
	Lineal bool
	Ind    int
}

func ParseSimID(s string) (SimID, error) {
	var id SimID
	prefix, rest, ok := strings.Cut(s, "_")
	if !ok {
		return id, fmt.Errorf("ParseSimID: %q: missing _", s)
	}
	id.Prefix = prefix

	parts := strings.Split(rest, "-")
	if len(parts) != 3 {
		return id, fmt.Errorf("ParseSimID: %q: expected g#-b#-i#", s)
	}
	if len(parts[0]) < 2 || parts[0][0] != 'g' {
		return id, fmt.Errorf("ParseSimID: %q: bad generation token %q", s, parts[0])
	}
	if len(parts[1]) < 2 || parts[1][0] != 'b' {
		return id, fmt.Errorf("ParseSimID: %q: bad branch token %q", s, parts[1])
	}
	if len(parts[2]) < 2 {
		return id, fmt.Errorf("ParseSimID: %q: bad individual token %q", s, parts[2])
	}

	var e error
	if id.Gen, e = strconv.Atoi(parts[0][1:]); e != nil {
		return id, fmt.Errorf("ParseSimID: %q: %w", s, e)
	}
	if id.Branch, e = strconv.Atoi(parts[1][1:]); e != nil {
		return id, fmt.Errorf("ParseSimID: %q: %w", s, e)
	}
	id.Lineal = parts[2][0] == 'i'
	if id.Ind, e = strconv.Atoi(parts[2][1:]); e != nil {
		return id, fmt.Errorf("ParseSimID: %q: %w", s, e)
	}
	return id, nil
}

func (id SimID) roleChar() byte {
	if id.Lineal {
		return 'i'
	}
	return 's'
}

func (id SimID) String() string {
	return fmt.Sprintf("%v_g%v-b%v-%c%v", id.Prefix, id.Gen, id.Branch, id.roleChar(), id.Ind)
}

// WithGen returns a copy with the generation field replaced. The iteration
// log renames each founder's generation token to the iteration number.
func (id SimID) WithGen(n int) SimID {
	id.Gen = n
	return id
}

// CmpSimID orders founders for output: generation, branch, role, individual.
func CmpSimID(a, b SimID) int {
	if a.Gen != b.Gen {
		return a.Gen - b.Gen
	}
	if a.Branch != b.Branch {
		return a.Branch - b.Branch
	}
	if a.Lineal != b.Lineal {
		if a.Lineal {
			return 1
		}
		return -1
	}
	return a.Ind - b.Ind
}
