package famsample

import (
	"flag"
	"fmt"
	"github.com/jgbaldwinbrown/iterh"
	"golang.org/x/exp/rand"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

type SampleFlags struct {
	FamPaths   string
	VCFPath    string
	KingPath   string
	Bins       string
	Probs      string
	MaxPropIBD float64
	NSims      string
	Outpre     string
	Seed       int
	MaxTries   int
}

func splitFloats(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, e := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if e != nil {
			return nil, e
		}
		out = append(out, v)
	}
	return out, nil
}

func splitInts(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	out := make([]int, 0, len(fields))
	for _, field := range fields {
		v, e := strconv.Atoi(strings.TrimSpace(field))
		if e != nil {
			return nil, e
		}
		out = append(out, v)
	}
	return out, nil
}

// RunPedigree runs iters allocation iterations over one pedigree, appending
// one log line per placed founder: the node id with its generation token
// rewritten to the iteration number, then the assigned sample id.
func RunPedigree(g *FamGraph, k *Kinship, led *FounderLedger, iters int, logw io.Writer) error {
	for n := 0; n < iters; n++ {
		p, e := g.FindFounders(k, led)
		if e != nil {
			return e
		}
		for _, fa := range p.Founders {
			if _, e := fmt.Fprintf(logw, "%v %v\n", fa.ID.WithGen(n+1), fa.SampleID); e != nil {
				return e
			}
		}
	}
	return nil
}

// FullSample assigns cohort samples to the founder slots of each simulated
// pedigree, writing the iteration log and the final per-sample haplotype
// column table.
func FullSample() {
	var f SampleFlags
	flag.StringVar(&f.FamPaths, "fam", "", "comma-separated PLINK .fam paths (required)")
	flag.StringVar(&f.VCFPath, "vcf", "", "VCF supplying the cohort sample list (required)")
	flag.StringVar(&f.KingPath, "king", "", "KING .seg table from --ibdseg (required)")
	flag.StringVar(&f.Bins, "bins", "-1,0,0.04,0.08,0.12,0.25,1", "PropIBD bin boundaries, ascending")
	flag.StringVar(&f.Probs, "probs", "0.6,0.25,0.10,0.03,0.01,0.01", "per-bin sampling probabilities")
	flag.Float64Var(&f.MaxPropIBD, "max", 0.1, "maximum PropIBD allowed between founders of one family")
	flag.StringVar(&f.NSims, "n", "", "comma-separated simulation counts, one per .fam (required)")
	flag.StringVar(&f.Outpre, "o", "Samples", "output prefix")
	flag.IntVar(&f.Seed, "s", 0, "random seed")
	flag.IntVar(&f.MaxTries, "tries", 0, "sampler retry cap (0 = retry forever)")
	flag.Parse()
	if f.FamPaths == "" {
		log.Fatal("missing -fam")
	}
	if f.VCFPath == "" {
		log.Fatal("missing -vcf")
	}
	if f.KingPath == "" {
		log.Fatal("missing -king")
	}
	if f.NSims == "" {
		log.Fatal("missing -n")
	}

	rng := rand.New(rand.NewSource(uint64(f.Seed)))

	bounds, e := splitFloats(f.Bins)
	if e != nil {
		log.Fatal(e)
	}
	probs, e := splitFloats(f.Probs)
	if e != nil {
		log.Fatal(e)
	}
	bins, e := NewBins(bounds, probs, rng)
	if e != nil {
		log.Fatal(e)
	}

	famPaths := strings.Split(f.FamPaths, ",")
	nsims, e := splitInts(f.NSims)
	if e != nil {
		log.Fatal(e)
	}
	if len(nsims) != len(famPaths) {
		log.Fatal(fmt.Errorf("%v simulation counts for %v .fam files", len(nsims), len(famPaths)))
	}

	samples, e := ReadVCFSamplesPath(f.VCFPath)
	if e != nil {
		log.Fatal(e)
	}
	recs, e := iterh.CollectWithError(ParseKingPath(f.KingPath))
	if e != nil {
		log.Fatal(e)
	}

	led := NewFounderLedger(len(samples))
	logw, e := os.Create(f.Outpre + ".log")
	if e != nil {
		log.Fatal(e)
	}
	defer logw.Close()

	for i, famPath := range famPaths {
		ents, e := iterh.CollectWithError(ParseFamPath(famPath))
		if e != nil {
			log.Fatal(e)
		}
		g, e := NewFamGraph(FirstFam(ents))
		if e != nil {
			log.Fatal(e)
		}
		k, e := NewKinship(recs, bins, samples, g.ToAdd(), f.MaxPropIBD, f.MaxTries, rng)
		if e != nil {
			log.Fatal(e)
		}
		if e := RunPedigree(g, k, led, nsims[i], logw); e != nil {
			log.Fatal(e)
		}
	}

	if e := led.WriteHaplotypesPath(f.Outpre + "_haplotypes.txt"); e != nil {
		log.Fatal(e)
	}
}
