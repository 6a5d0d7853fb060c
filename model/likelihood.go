package model

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dancooke/octopus/align"
)

// ReadLikelihoods is the view every model in this package needs onto a
// haplotype likelihood cache: per sample, per haplotype, one log
// probability per read (same read order across haplotypes for a sample).
type ReadLikelihoods interface {
	LogLikelihoods(sample string, h *align.Haplotype) []float64
}

// genotypeLogLikelihood is the standard mixture-over-constituent-haplotypes
// genotype likelihood: each read's probability is the average (in log
// space, logSumExp minus log ploidy) of its probability under each
// haplotype in the genotype, summed (independence) across reads.
func genotypeLogLikelihood(g Genotype, sample string, cache ReadLikelihoods) float64 {
	ploidy := g.Ploidy()
	if ploidy == 0 {
		return math.Inf(-1)
	}
	perHaplotype := make([][]float64, ploidy)
	numReads := 0
	for i, h := range g.Haplotypes {
		perHaplotype[i] = cache.LogLikelihoods(sample, h)
		if len(perHaplotype[i]) > numReads {
			numReads = len(perHaplotype[i])
		}
	}
	logPloidy := math.Log(float64(ploidy))
	total := 0.0
	mix := make([]float64, ploidy)
	for r := 0; r < numReads; r++ {
		for i := range mix {
			if r < len(perHaplotype[i]) {
				mix[i] = perHaplotype[i][r]
			} else {
				mix[i] = math.Inf(-1)
			}
		}
		total += floats.LogSumExp(mix) - logPloidy
	}
	return total
}

// normalizeLogWeights turns unnormalised log weights (e.g. log-likelihood
// plus log-prior) into a proper posterior distribution.
func normalizeLogWeights(logWeights []float64) []float64 {
	logZ := floats.LogSumExp(logWeights)
	out := make([]float64, len(logWeights))
	for i, lw := range logWeights {
		out[i] = math.Exp(lw - logZ)
	}
	return out
}

// marginalHaplotypePosteriors sums genotype posterior mass onto each
// constituent haplotype, giving the per-haplotype posterior the Latents
// view-interface exposes.
func marginalHaplotypePosteriors(genotypes []Genotype, posteriors []float64) map[string]float64 {
	out := make(map[string]float64)
	for i, g := range genotypes {
		for _, h := range g.Haplotypes {
			out[HaplotypeKey(h)] += posteriors[i]
		}
	}
	return out
}
