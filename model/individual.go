package model

import "github.com/dancooke/octopus/align"

// IndividualLatents is the haploid model's InferredLatents: every candidate
// haploid genotype with its likelihood and posterior, plus the marginal
// haplotype posteriors the Latents view-interface (spec.md §9) exposes.
type IndividualLatents struct {
	Genotypes           []Genotype
	LogLikelihoods      []float64
	Posteriors          []float64
	HaplotypePosteriors map[string]float64
}

// GenotypePosteriors implements the shared view-interface: per-genotype
// posterior probability, keyed by enumeration index order (callers read
// Genotypes[i] alongside Posteriors[i]).
func (l *IndividualLatents) GenotypePosteriors() []float64 { return l.Posteriors }

// GenotypeList implements the shared view-interface, returning the
// candidate genotypes GenotypePosteriors' entries are indexed against.
func (l *IndividualLatents) GenotypeList() []Genotype { return l.Genotypes }

// HaplotypeSupport implements the shared view-interface.
func (l *IndividualLatents) HaplotypeSupport() map[string]float64 { return l.HaplotypePosteriors }

// IndividualModel is the haploid generative model: one haplotype per
// sample, posterior proportional to the read likelihood under a uniform
// prior over candidate haplotypes.
type IndividualModel struct{}

// InferLatents enumerates every haploid genotype (one haplotype) for
// sample and scores it, spec.md §4.5.
func (IndividualModel) InferLatents(haplotypes []*align.Haplotype, sample string, cache ReadLikelihoods) *IndividualLatents {
	genotypes := genotypesWithRepetition(haplotypes, 1)
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
