package model

import "github.com/dancooke/octopus/align"

// PopulationLatents extrapolates IndividualModel across a cohort: each
// sample gets its own haploid (or higher-ploidy, via Ploidy) genotype
// search, independently scored, with no cross-sample linkage beyond
// sharing the same candidate haplotype set. original_source's own
// population caller header was not retained; this generalizes
// IndividualLatents per spec.md §9's "shared operations trait" guidance
// rather than translating any specific source file.
type PopulationLatents struct {
	Samples   []string
	PerSample map[string]*IndividualLatents
}

// GenotypePosteriors implements the shared view-interface by returning the
// first sample's posteriors; callers needing per-sample detail should read
// PerSample directly.
func (l *PopulationLatents) GenotypePosteriors() []float64 {
	if len(l.Samples) == 0 {
		return nil
	}
	return l.PerSample[l.Samples[0]].Posteriors
}

// GenotypeList implements the shared view-interface, returning the first
// sample's candidate genotypes alongside GenotypePosteriors' entries.
func (l *PopulationLatents) GenotypeList() []Genotype {
	if len(l.Samples) == 0 {
		return nil
	}
	return l.PerSample[l.Samples[0]].Genotypes
}

// HaplotypeSupport implements the shared view-interface, merging every
// sample's per-haplotype posteriors by taking the strongest support any
// one sample gives a haplotype.
func (l *PopulationLatents) HaplotypeSupport() map[string]float64 {
	out := make(map[string]float64)
	for _, sample := range l.Samples {
		for key, p := range l.PerSample[sample].HaplotypePosteriors {
			if p > out[key] {
				out[key] = p
			}
		}
	}
	return out
}

// PopulationModel infers one independent genotype distribution per sample.
type PopulationModel struct {
	Ploidy int
}

// InferLatents fits every sample independently over the shared candidate
// haplotype set.
func (m PopulationModel) InferLatents(haplotypes []*align.Haplotype, samples []string, cache ReadLikelihoods) *PopulationLatents {
	ploidy := m.Ploidy
	if ploidy == 0 {
		ploidy = 1
	}
	perSample := make(map[string]*IndividualLatents, len(samples))
	for _, sample := range samples {
		genotypes := genotypesWithRepetition(haplotypes, ploidy)
		logLiks := make([]float64, len(genotypes))
		for i, g := range genotypes {
			logLiks[i] = genotypeLogLikelihood(g, sample, cache)
		}
		posteriors := normalizeLogWeights(logLiks)
		perSample[sample] = &IndividualLatents{
			Genotypes:           genotypes,
			LogLikelihoods:      logLiks,
			Posteriors:          posteriors,
			HaplotypePosteriors: marginalHaplotypePosteriors(genotypes, posteriors),
		}
	}
	return &PopulationLatents{Samples: samples, PerSample: perSample}
}
