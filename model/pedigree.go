package model

import "github.com/dancooke/octopus/align"

// Trio names the three roles a pedigree model relates; extending to larger
// pedigrees is left for a future caller, per spec.md §9's "tagged variants"
// guidance (a trio is the smallest non-trivial pedigree and the one every
// other relationship graph reduces to for a single proband).
type Trio struct {
	Child, Mother, Father string
}

// PedigreeLatents extrapolates IndividualModel across a trio: each member's
// diploid genotype posteriors are fitted independently, with no Mendelian
// prior or joint weighting across members; Mendelian consistency enters only
// through DenovoProbability. original_source's pedigree
// caller header was not retained; this is extrapolated per DESIGN.md's
// model entry.
type PedigreeLatents struct {
	Trio      Trio
	Child     *IndividualLatents
	Mother    *IndividualLatents
	Father    *IndividualLatents
	// DenovoProbability is the posterior mass on child genotypes containing
	// a haplotype present in neither parent's MAP genotype.
	DenovoProbability float64
}

// GenotypePosteriors implements the shared view-interface, returning the
// child's posteriors — the proband is the pedigree model's call target.
func (l *PedigreeLatents) GenotypePosteriors() []float64 { return l.Child.Posteriors }

// GenotypeList implements the shared view-interface, returning the child's
// candidate genotypes.
func (l *PedigreeLatents) GenotypeList() []Genotype { return l.Child.Genotypes }

// HaplotypeSupport implements the shared view-interface, merging all three
// trio members' per-haplotype posteriors by strongest support.
func (l *PedigreeLatents) HaplotypeSupport() map[string]float64 {
	out := make(map[string]float64, len(l.Child.HaplotypePosteriors))
	merge := func(m map[string]float64) {
		for key, p := range m {
			if p > out[key] {
				out[key] = p
			}
		}
	}
	merge(l.Child.HaplotypePosteriors)
	merge(l.Mother.HaplotypePosteriors)
	merge(l.Father.HaplotypePosteriors)
	return out
}

// PedigreeModel fits each trio member as an independent diploid individual,
// then derives a de novo probability from Mendelian consistency.
type PedigreeModel struct {
	Trio Trio
}

// InferLatents fits all three samples and flags child genotypes carrying a
// haplotype absent from both parents' MAP genotypes.
func (m PedigreeModel) InferLatents(haplotypes []*align.Haplotype, cache ReadLikelihoods) *PedigreeLatents {
	fit := func(sample string) *IndividualLatents {
		genotypes := genotypesWithRepetition(haplotypes, 2)
		logLiks := make([]float64, len(genotypes))
		for i, g := range genotypes {
			logLiks[i] = genotypeLogLikelihood(g, sample, cache)
		}
		posteriors := normalizeLogWeights(logLiks)
		return &IndividualLatents{
			Genotypes:           genotypes,
			LogLikelihoods:      logLiks,
			Posteriors:          posteriors,
			HaplotypePosteriors: marginalHaplotypePosteriors(genotypes, posteriors),
		}
	}
	child := fit(m.Trio.Child)
	mother := fit(m.Trio.Mother)
	father := fit(m.Trio.Father)

	parental := mapGenotypeAt(mother)
	for k := range mapGenotypeAt(father) {
		parental[k] = true
	}
	denovo := 0.0
	for i, g := range child.Genotypes {
		if genotypeHasNovelHaplotype(g, parental) {
			denovo += child.Posteriors[i]
		}
	}

	return &PedigreeLatents{Trio: m.Trio, Child: child, Mother: mother, Father: father, DenovoProbability: denovo}
}
