package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/dancooke/octopus/align"
)

// PolycloneParameters mirrors PolycloneCaller::Parameters: a clonality
// prior and a cap on the number of clones considered.
type PolycloneParameters struct {
	MaxClones      int
	MaxGenotypes   int
	ClonalityPrior func(clonality int) float64
}

// DefaultMaxGenotypes bounds the subclonal stage's combinatorial genotype
// enumeration (spec.md §4.5's max_genotypes). original_source's caller
// header does not carry a default for this cap; 5000 is this package's own
// choice, documented in DESIGN.md, picked to keep MaxClones>=4 runs on a
// deep haplotype set from enumerating genotype counts that would dominate
// a window's runtime.
const DefaultMaxGenotypes = 5000

// DefaultClonalityPrior is maths::geometric_pdf(clonality, 0.5), the
// default in polyclone_caller.hpp.
func DefaultClonalityPrior(clonality int) float64 {
	return distuv.Geometric{Prob: 0.5}.Prob(float64(clonality))
}

// DefaultPolycloneParameters returns max_clones=3 with the geometric(0.5)
// clonality prior, matching the source's struct defaults.
func DefaultPolycloneParameters() PolycloneParameters {
	return PolycloneParameters{MaxClones: 3, MaxGenotypes: DefaultMaxGenotypes, ClonalityPrior: DefaultClonalityPrior}
}

// ModelProbabilities mirrors PolycloneCaller::ModelProbabilities{clonal,
// subclonal}: the posterior mass assigned to the haploid-clonal hypothesis
// versus the polyploid-subclonal hypothesis.
type ModelProbabilities struct {
	Clonal, Subclonal float64
}

// PolycloneLatents is PolycloneCaller::Latents generalized: both the
// haploid-stage and polyploid-stage genotype enumerations, plus the
// ModelProbabilities deciding which stage's haplotype/genotype posteriors
// are authoritative.
type PolycloneLatents struct {
	Haploid             *IndividualLatents
	Subclonal           *SubcloneLatents
	ModelPosteriors     ModelProbabilities
	HaplotypePosteriors map[string]float64
}

// GenotypePosteriors implements the shared view-interface, returning
// whichever stage's distribution the model posterior favours.
func (l *PolycloneLatents) GenotypePosteriors() []float64 {
	if l.ModelPosteriors.Clonal >= l.ModelPosteriors.Subclonal {
		return l.Haploid.Posteriors
	}
	return l.Subclonal.Posteriors
}

// GenotypeList implements the shared view-interface, returning the
// candidate genotypes of whichever stage GenotypePosteriors favours.
func (l *PolycloneLatents) GenotypeList() []Genotype {
	if l.ModelPosteriors.Clonal >= l.ModelPosteriors.Subclonal {
		return l.Haploid.Genotypes
	}
	return l.Subclonal.Genotypes
}

// HaplotypeSupport implements the shared view-interface.
func (l *PolycloneLatents) HaplotypeSupport() map[string]float64 { return l.HaplotypePosteriors }

// SubcloneLatents is the polyploid stage's InferredLatents: every candidate
// genotype of size up to MaxClones, scored under the clonality prior.
type SubcloneLatents struct {
	Genotypes      []Genotype
	LogLikelihoods []float64
	Posteriors     []float64
}

// PolycloneModel implements the two-stage haploid-then-subclone search
// polyclone_caller.hpp runs: first fit a single haploid genotype per
// candidate haplotype, then fit every polyploid genotype up to MaxClones
// weighted by the clonality prior, and let the model posterior decide
// which stage explains the sample better.
type PolycloneModel struct {
	Params PolycloneParameters
}

// NewPolycloneModel constructs a model with the given parameters.
func NewPolycloneModel(params PolycloneParameters) *PolycloneModel { return &PolycloneModel{Params: params} }

// InferLatents runs both stages and combines them via the clonality prior,
// spec.md §4.5/§9.
func (m *PolycloneModel) InferLatents(haplotypes []*align.Haplotype, sample string, cache ReadLikelihoods) *PolycloneLatents {
	haploid := IndividualModel{}.InferLatents(haplotypes, sample, cache)

	maxGenotypes := m.Params.MaxGenotypes
	if maxGenotypes <= 0 {
		maxGenotypes = DefaultMaxGenotypes
	}
	var allGenotypes []Genotype
	var allLogLiks []float64
	var allLogWeights []float64
outer:
	for clonality := 2; clonality <= m.Params.MaxClones; clonality++ {
		prior := m.Params.ClonalityPrior(clonality)
		logPrior := math.Log(prior)
		for _, g := range genotypesWithRepetition(haplotypes, clonality) {
			if len(allGenotypes) >= maxGenotypes {
				break outer
			}
			ll := genotypeLogLikelihood(g, sample, cache)
			allGenotypes = append(allGenotypes, g)
			allLogLiks = append(allLogLiks, ll)
			allLogWeights = append(allLogWeights, ll+logPrior)
		}
	}
	var subPosteriors []float64
	if len(allLogWeights) > 0 {
		subPosteriors = normalizeLogWeights(allLogWeights)
	}
	subclonal := &SubcloneLatents{Genotypes: allGenotypes, LogLikelihoods: allLogLiks, Posteriors: subPosteriors}

	haploidEvidence := floats.LogSumExp(haploid.LogLikelihoods) + math.Log(m.Params.ClonalityPrior(1))
	subclonalEvidence := math.Inf(-1)
	if len(allLogWeights) > 0 {
		subclonalEvidence = floats.LogSumExp(allLogWeights)
	}
	modelPosteriors := normalizeLogWeights([]float64{haploidEvidence, subclonalEvidence})

	haplotypePosteriors := make(map[string]float64)
	for key, p := range haploid.HaplotypePosteriors {
		haplotypePosteriors[key] += modelPosteriors[0] * p
	}
	for key, p := range marginalHaplotypePosteriors(allGenotypes, subPosteriors) {
		haplotypePosteriors[key] += modelPosteriors[1] * p
	}

	return &PolycloneLatents{
		Haploid:             haploid,
		Subclonal:           subclonal,
		ModelPosteriors:     ModelProbabilities{Clonal: modelPosteriors[0], Subclonal: modelPosteriors[1]},
		HaplotypePosteriors: haplotypePosteriors,
	}
}
