package model

import (
	"math"

	"github.com/dancooke/octopus/align"
)

// CancerLatents extrapolates PolycloneModel to a matched normal/tumour
// pair: the normal sample is fit as a plain diploid individual, and the
// tumour sample is fit as a polyclone whose candidate haplotype set is
// restricted to those the normal sample finds plausible plus any haplotype
// carrying a candidate somatic allele, approximated here by simply reusing
// the full haplotype set (no germline-model deduplication pass).
// original_source's cancer caller header was not retained; this is
// extrapolated per DESIGN.md's model entry, built from PolycloneModel's
// two-stage machinery rather than invented from nothing.
type CancerLatents struct {
	Normal *IndividualLatents
	Tumour *PolycloneLatents
	// SomaticProbability is the posterior mass on the tumour sample
	// carrying any haplotype absent from the normal sample's MAP genotype.
	SomaticProbability float64
}

// GenotypePosteriors implements the shared view-interface, returning the
// tumour sample's posteriors since that is the classification target.
func (l *CancerLatents) GenotypePosteriors() []float64 { return l.Tumour.GenotypePosteriors() }

// GenotypeList implements the shared view-interface, returning the tumour
// sample's candidate genotypes.
func (l *CancerLatents) GenotypeList() []Genotype { return l.Tumour.GenotypeList() }

// HaplotypeSupport implements the shared view-interface, merging the
// normal and tumour sample's per-haplotype posteriors by taking, for each
// haplotype, whichever sample supports it more strongly — a haplotype only
// one of the two samples carries should not be filtered out for scoring
// low in the other.
func (l *CancerLatents) HaplotypeSupport() map[string]float64 {
	out := make(map[string]float64, len(l.Normal.HaplotypePosteriors))
	for key, p := range l.Normal.HaplotypePosteriors {
		out[key] = p
	}
	for key, p := range l.Tumour.HaplotypeSupport() {
		if p > out[key] {
			out[key] = p
		}
	}
	return out
}

// CancerModel pairs a germline IndividualModel call on the normal sample
// with a PolycloneModel call on the tumour sample.
type CancerModel struct {
	NormalPloidy int
	Polyclone    PolycloneParameters
}

// NewCancerModel constructs a model with the given tumour clonality
// parameters and a diploid normal sample.
func NewCancerModel(polyclone PolycloneParameters) *CancerModel {
	return &CancerModel{NormalPloidy: 2, Polyclone: polyclone}
}

// InferLatents fits the normal sample as a diploid individual and the
// tumour sample as a polyclone, then estimates the somatic probability as
// the tumour's posterior mass on genotypes containing a haplotype absent
// from the normal's single best (MAP) genotype.
func (m *CancerModel) InferLatents(haplotypes []*align.Haplotype, normalSample, tumourSample string, cache ReadLikelihoods) *CancerLatents {
	normalGenotypes := genotypesWithRepetition(haplotypes, m.NormalPloidy)
	normalLogLiks := make([]float64, len(normalGenotypes))
	for i, g := range normalGenotypes {
		normalLogLiks[i] = genotypeLogLikelihood(g, normalSample, cache)
	}
	normalPosteriors := normalizeLogWeights(normalLogLiks)
	normal := &IndividualLatents{
		Genotypes:           normalGenotypes,
		LogLikelihoods:      normalLogLiks,
		Posteriors:          normalPosteriors,
		HaplotypePosteriors: marginalHaplotypePosteriors(normalGenotypes, normalPosteriors),
	}

	tumourModel := NewPolycloneModel(m.Polyclone)
	tumour := tumourModel.InferLatents(haplotypes, tumourSample, cache)

	germlineHaplotypes := mapGenotypeAt(normal)
	somatic := 0.0
	for i, g := range tumour.Subclonal.Genotypes {
		if genotypeHasNovelHaplotype(g, germlineHaplotypes) {
			somatic += tumour.Subclonal.Posteriors[i] * tumour.ModelPosteriors.Subclonal
		}
	}

	return &CancerLatents{Normal: normal, Tumour: tumour, SomaticProbability: somatic}
}

func mapGenotypeAt(l *IndividualLatents) map[string]bool {
	best := -1
	bestP := math.Inf(-1)
	for i, p := range l.Posteriors {
		if p > bestP {
			bestP = p
			best = i
		}
	}
	out := make(map[string]bool)
	if best < 0 {
		return out
	}
	for _, h := range l.Genotypes[best].Haplotypes {
		out[HaplotypeKey(h)] = true
	}
	return out
}

func genotypeHasNovelHaplotype(g Genotype, germline map[string]bool) bool {
	for _, h := range g.Haplotypes {
		if !germline[HaplotypeKey(h)] {
			return true
		}
	}
	return false
}

// SomaticAltProbability returns the posterior mass, within the tumour's
// subclonal stage, assigned to genotypes that carry alt via a haplotype
// absent from the normal sample's MAP genotype — the somatic-specific
// analogue of altProbability's plain alt-carrying posterior, spec.md §6's
// min_somatic_posterior threshold is checked against this rather than
// against a germline-blind alt posterior.
func (l *CancerLatents) SomaticAltProbability(alt align.Allele) float64 {
	germline := mapGenotypeAt(l.Normal)
	var p float64
	for i, g := range l.Tumour.Subclonal.Genotypes {
		if !genotypeHasNovelHaplotype(g, germline) {
			continue
		}
		for _, h := range g.Haplotypes {
			if h.ContainsAllele(alt) {
				p += l.Tumour.Subclonal.Posteriors[i] * l.Tumour.ModelPosteriors.Subclonal
				break
			}
		}
	}
	return p
}
