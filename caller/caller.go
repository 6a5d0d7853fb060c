// Package caller implements spec.md §4.5's caller façade: a tagged variant
// over the genotype models in package model, plus the Latents
// view-interface and VariantCallerBuilder, spec.md §9's replacement for the
// source's abstract-base-plus-overrides hierarchy.
package caller

import (
	"github.com/pkg/errors"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/model"
)

// Kind tags which generative model a Caller wraps.
type Kind int

const (
	Individual Kind = iota
	Population
	Cancer
	Polyclone
	Pedigree
)

func (k Kind) String() string {
	switch k {
	case Individual:
		return "individual"
	case Population:
		return "population"
	case Cancer:
		return "cancer"
	case Polyclone:
		return "polyclone"
	case Pedigree:
		return "pedigree"
	default:
		return "unknown"
	}
}

// Latents is the shared view-interface every model's inferred latents
// implement: spec.md §9's "Latents associated type... per-variant record
// types with a shared view-interface".
type Latents interface {
	GenotypePosteriors() []float64
	// GenotypeList returns the candidate genotypes GenotypePosteriors'
	// entries are indexed against, the input package phase's Score needs to
	// compare two windows' genotype calls.
	GenotypeList() []model.Genotype
	// HaplotypeSupport returns the marginal posterior mass each candidate
	// haplotype carries, keyed by model.HaplotypeKey, for model-based
	// haplotype filtering (spec.md §6's min_haplotype_posterior).
	HaplotypeSupport() map[string]float64
}

// Parameters is the general (model-independent) parameter struct of the
// later VariantCallerBuilder shape, spec.md §9's resolved open question:
// general parameters plus a model-specific struct, not one flat struct.
type Parameters struct {
	Samples             []string
	MinVariantPosterior float64
	MinRefCallPosterior float64
	// MinSomaticPosterior is the Cancer caller's tumour-sample threshold,
	// spec.md §6, checked against model.CancerLatents.SomaticAltProbability
	// instead of the germline-blind alt posterior every other caller kind
	// compares against MinVariantPosterior.
	MinSomaticPosterior float64
}

// Caller is the tagged-variant façade over package model's generative
// models.
type Caller struct {
	kind       Kind
	params     Parameters
	individual model.IndividualModel
	population model.PopulationModel
	cancer     *model.CancerModel
	polyclone  *model.PolycloneModel
	pedigree   model.PedigreeModel
}

// InferLatents dispatches to the wrapped model and returns its Latents
// through the shared view-interface. For Cancer and Pedigree, params.Samples
// must name exactly the roles those models require (normal,tumour or
// child,mother,father) in that order.
func (c *Caller) InferLatents(haplotypes []*align.Haplotype, cache model.ReadLikelihoods) (Latents, error) {
	switch c.kind {
	case Individual:
		if len(c.params.Samples) != 1 {
			return nil, errors.New("caller: individual model requires exactly one sample")
		}
		return c.individual.InferLatents(haplotypes, c.params.Samples[0], cache), nil
	case Population:
		return c.population.InferLatents(haplotypes, c.params.Samples, cache), nil
	case Cancer:
		if len(c.params.Samples) != 2 {
			return nil, errors.New("caller: cancer model requires exactly (normal, tumour) samples")
		}
		return c.cancer.InferLatents(haplotypes, c.params.Samples[0], c.params.Samples[1], cache), nil
	case Polyclone:
		if len(c.params.Samples) != 1 {
			return nil, errors.New("caller: polyclone model requires exactly one sample")
		}
		return c.polyclone.InferLatents(haplotypes, c.params.Samples[0], cache), nil
	case Pedigree:
		if len(c.params.Samples) != 3 {
			return nil, errors.New("caller: pedigree model requires exactly (child, mother, father) samples")
		}
		return c.pedigree.InferLatents(haplotypes, cache), nil
	default:
		return nil, errors.Errorf("caller: unknown kind %d", c.kind)
	}
}

// RemoveDuplicates is a hook every variant caller overrides in the source
// (do_remove_duplicates); package haplotype's tree already guarantees
// leaf-string uniqueness, so the default here is a no-op, matching
// PolycloneCaller when deduplicate_haplotypes_with_germline_model is
// false.
func (c *Caller) RemoveDuplicates(haplotypes []*align.Haplotype) []*align.Haplotype { return haplotypes }
