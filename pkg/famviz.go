package famsample

import (
	"flag"
	"fmt"
	"github.com/jgbaldwinbrown/iterh"
	"io"
	"log"
	"os"
)

func FounderColor() string {
	return `"#66cc66"`
}

func DescendantColor() string {
	return `"#cccccc"`
}

// ToGraphViz writes one pedigree as a dot digraph, founders filled green.
func ToGraphViz(w io.Writer, ents ...FamEntry) (n int, err error) {
	nwritten, e := fmt.Fprintf(w, "digraph fam {\n")
	n += nwritten
	if e != nil {
		return n, e
	}

	for _, ent := range ents {
		color := DescendantColor()
		if ent.Parent1 == "0" && ent.Parent2 == "0" {
			color = FounderColor()
		}
		nwritten, e := fmt.Fprintf(w, "%q [style=filled; fillcolor=%v]\n", ent.ID, color)
		n += nwritten
		if e != nil {
			return n, e
		}
		if ent.Parent1 != "0" {
			nwritten, e := fmt.Fprintf(w, "%q -> %q\n%q -> %q\n", ent.Parent1, ent.ID, ent.Parent2, ent.ID)
			n += nwritten
			if e != nil {
				return n, e
			}
		}
	}

	nwritten, e = fmt.Fprintf(w, "}\n")
	n += nwritten
	return n, e
}

type FamVizFlags struct {
	Inpath string
}

func RunFamViz() {
	var f FamVizFlags
	flag.StringVar(&f.Inpath, "f", "", "input .fam path (default stdin)")
	flag.Parse()

	var ents []FamEntry
	var e error
	if f.Inpath != "" {
		ents, e = iterh.CollectWithError(ParseFamPath(f.Inpath))
	} else {
		ents, e = iterh.CollectWithError(ParseFam(os.Stdin))
	}
	if e != nil {
		log.Fatal(e)
	}

	if _, e := ToGraphViz(os.Stdout, FirstFam(ents)...); e != nil {
		log.Fatal(e)
	}
}
