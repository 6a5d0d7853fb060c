// Package model implements spec.md §4.5/§9's genotype models: the
// generative models a caller fits to decide, per sample, which haplotype
// combination best explains the observed reads.
//
// Individual and Polyclone are grounded on
// original_source/src/core/callers/polyclone_caller.hpp (the one caller
// whose header survived the source filtering): Polyclone's two-stage
// haploid-then-subclone structure and its ModelProbabilities{clonal,
// subclonal} record are carried over directly, generalized from "the one
// caller that happens to use them" into the shared Genotype/posterior
// machinery every model in this package builds on.
//
// Population, Cancer, and Pedigree are extrapolated beyond what
// original_source retains (their own caller headers were filtered out of
// the kept 14 files) — see DESIGN.md's model entry for what's invented
// versus grounded.
package model

import (
	"sort"

	"github.com/dancooke/octopus/align"
)

// Genotype is an unordered multiset of haplotypes; its cardinality is the
// ploidy, per the glossary.
type Genotype struct {
	Haplotypes []*align.Haplotype
}

// Ploidy returns the genotype's cardinality.
func (g Genotype) Ploidy() int { return len(g.Haplotypes) }

// HaplotypeKey is the canonical map key identifying a haplotype by region
// and sequence, shared across every per-haplotype posterior map this
// package builds.
func HaplotypeKey(h *align.Haplotype) string {
	return h.RegionVal.String() + "|" + h.Sequence
}

// key gives genotypes a canonical, order-independent identity so identical
// multisets compare equal regardless of enumeration order.
func (g Genotype) key() string {
	keys := make([]string, len(g.Haplotypes))
	for i, h := range g.Haplotypes {
		keys[i] = HaplotypeKey(h)
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += k + ";"
	}
	return out
}

// Equal reports whether two genotypes contain the same haplotypes, ignoring
// order.
func (g Genotype) Equal(o Genotype) bool { return g.key() == o.key() }

// genotypesWithRepetition enumerates every unordered multiset of size
// ploidy drawn from haplotypes (combinations with repetition), the search
// space every model below scores.
func genotypesWithRepetition(haplotypes []*align.Haplotype, ploidy int) []Genotype {
	if ploidy == 0 || len(haplotypes) == 0 {
		return nil
	}
	var out []Genotype
	var rec func(start int, chosen []*align.Haplotype)
	rec = func(start int, chosen []*align.Haplotype) {
		if len(chosen) == ploidy {
			cp := make([]*align.Haplotype, ploidy)
			copy(cp, chosen)
			out = append(out, Genotype{Haplotypes: cp})
			return
		}
		for i := start; i < len(haplotypes); i++ {
			rec(i, append(chosen, haplotypes[i]))
		}
	}
	rec(0, nil)
	return out
}
