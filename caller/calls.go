package caller

import (
	"math"
	"sort"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/model"
	"github.com/dancooke/octopus/region"
)

// VariantCall is one emitted variant call, spec.md §4.5's call_variants
// result type: a site plus one genotype call per sample.
type VariantCall struct {
	Region    region.GenomicRegion
	Ref       string
	Alt       string
	Posterior float64 // phred-scaled; qualifies iff >= MinVariantPosterior
	Genotypes map[string]SampleGenotype
}

// ReferenceCall is one emitted call_reference result: a site where no
// sample carries the candidate's alt allele strongly enough to call a
// variant, reported instead as homozygous reference.
type ReferenceCall struct {
	Region    region.GenomicRegion
	Posterior float64 // phred-scaled; qualifies iff >= MinRefCallPosterior
}

// SampleGenotype is one sample's called genotype at a VariantCall's site:
// one allele string per haplotype copy (ploidy-many: the Ref or the Alt
// sequence), plus that sample's own genotype quality (phred-scaled
// posterior of its MAP genotype).
type SampleGenotype struct {
	Alleles   []string
	Posterior float64
}

// probToPhred converts a linear [0,1] probability into a phred-scaled
// score, generalizing qual.go's -10*log10(p) error-probability idiom to
// posterior probabilities.
func probToPhred(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return math.Inf(1)
	}
	return -10 * math.Log10(1-p)
}

// perSampleGenotypes extracts the per-sample model.IndividualLatents
// backing latents, regardless of which generative model produced it.
// Every model in package model fits each sample (or pedigree role) via
// IndividualModel somewhere in its pipeline; this recovers that
// per-sample, per-genotype detail the shared Latents view-interface
// itself does not expose (spec.md §9's memoized-lazy-fields note
// describes exactly this kind of richer, model-specific access sitting
// behind the shared interface). The Polyclone model's subclonal stage
// enumerates genotypes of mixed ploidy rather than per-haplotype-copy
// genotypes and so cannot be sited this way; CallVariants/CallReference
// simply return no calls for a sample resolved to that stage. The
// single-sample models (Individual, Polyclone) are keyed by the caller's one
// configured sample name.
func (c *Caller) perSampleGenotypes(latents Latents) map[string]*model.IndividualLatents {
	sole := ""
	if len(c.params.Samples) > 0 {
		sole = c.params.Samples[0]
	}
	switch l := latents.(type) {
	case *model.IndividualLatents:
		return map[string]*model.IndividualLatents{sole: l}
	case *model.PopulationLatents:
		return l.PerSample
	case *model.CancerLatents:
		out := map[string]*model.IndividualLatents{"normal": l.Normal}
		if l.Tumour.ModelPosteriors.Clonal >= l.Tumour.ModelPosteriors.Subclonal {
			out["tumour"] = l.Tumour.Haploid
		}
		return out
	case *model.PedigreeLatents:
		return map[string]*model.IndividualLatents{
			l.Trio.Child:  l.Child,
			l.Trio.Mother: l.Mother,
			l.Trio.Father: l.Father,
		}
	case *model.PolycloneLatents:
		if l.ModelPosteriors.Clonal >= l.ModelPosteriors.Subclonal {
			return map[string]*model.IndividualLatents{sole: l.Haploid}
		}
		return nil
	default:
		return nil
	}
}

// mapGenotype returns ind's single highest-posterior genotype alongside
// that posterior.
func mapGenotype(ind *model.IndividualLatents) (model.Genotype, float64) {
	if len(ind.Genotypes) == 0 {
		return model.Genotype{}, 0
	}
	best := 0
	for i, p := range ind.Posteriors {
		if p > ind.Posteriors[best] {
			best = i
		}
	}
	return ind.Genotypes[best], ind.Posteriors[best]
}

// altProbability sums the posterior mass of every genotype containing a
// haplotype that carries v.Alt, the per-sample marginal probability the
// sample carries the alt allele at all (spec.md §4.5's "marginalising...
// evidence").
func altProbability(ind *model.IndividualLatents, v align.Variant) float64 {
	var p float64
	for i, g := range ind.Genotypes {
		for _, h := range g.Haplotypes {
			if h.ContainsAllele(v.Alt) {
				p += ind.Posteriors[i]
				break
			}
		}
	}
	return p
}

// genotypeAlleles renders g as one Ref/Alt string per haplotype copy,
// VCF's per-copy GT convention.
func genotypeAlleles(g model.Genotype, v align.Variant) []string {
	alleles := make([]string, g.Ploidy())
	for i, h := range g.Haplotypes {
		if h.ContainsAllele(v.Alt) {
			alleles[i] = v.Alt.Sequence
		} else {
			alleles[i] = v.Ref.Sequence
		}
	}
	return alleles
}

// CallVariants implements spec.md §4.5's call_variants: for every candidate
// variant, determine each sample's genotype call and alt-carrying
// posterior, and emit a VariantCall (with the maximum phred-scaled
// posterior over samples, spec.md §4.4's "maximum over samples" scoring
// convention) as soon as any one sample clears its threshold. Every sample
// is checked against c.params.MinVariantPosterior except the Cancer
// caller's tumour sample, which is checked against c.params.MinSomaticPosterior
// using CancerLatents.SomaticAltProbability (somatic, not germline-blind,
// alt evidence) in place of the plain marginal alt posterior.
func (c *Caller) CallVariants(candidates []align.Variant, latents Latents) []VariantCall {
	perSample := c.perSampleGenotypes(latents)
	if len(perSample) == 0 {
		return nil
	}
	cancerLatents, isCancer := latents.(*model.CancerLatents)

	var calls []VariantCall
	for _, v := range candidates {
		if v.Trivial() {
			continue
		}
		var qualifies bool
		var bestPhred float64
		genotypes := make(map[string]SampleGenotype, len(perSample))
		for sample, ind := range perSample {
			threshold := c.params.MinVariantPosterior
			p := altProbability(ind, v)
			if isCancer && sample == "tumour" {
				threshold = c.params.MinSomaticPosterior
				p = cancerLatents.SomaticAltProbability(v.Alt)
			}
			phred := probToPhred(p)
			if phred > bestPhred {
				bestPhred = phred
			}
			if phred >= threshold {
				qualifies = true
			}
			g, gp := mapGenotype(ind)
			genotypes[sample] = SampleGenotype{Alleles: genotypeAlleles(g, v), Posterior: probToPhred(gp)}
		}
		if !qualifies {
			continue
		}
		calls = append(calls, VariantCall{
			Region:    v.Region(),
			Ref:       v.Ref.Sequence,
			Alt:       v.Alt.Sequence,
			Posterior: bestPhred,
			Genotypes: genotypes,
		})
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].Region.Less(calls[j].Region) })
	return calls
}

// CallReference implements spec.md §4.5's call_reference: for every
// candidate variant, report the site as reference iff every sample's
// no-alt posterior (1 - that sample's marginal posterior of carrying the
// alt) clears c.params.MinRefCallPosterior.
func (c *Caller) CallReference(candidates []align.Variant, latents Latents) []ReferenceCall {
	perSample := c.perSampleGenotypes(latents)
	if len(perSample) == 0 {
		return nil
	}

	var calls []ReferenceCall
	for _, v := range candidates {
		if v.Trivial() {
			continue
		}
		noAlt := 1.0
		for _, ind := range perSample {
			p := 1 - altProbability(ind, v)
			if p < noAlt {
				noAlt = p
			}
		}
		phred := probToPhred(noAlt)
		if phred < c.params.MinRefCallPosterior {
			continue
		}
		calls = append(calls, ReferenceCall{Region: v.Region(), Posterior: phred})
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].Region.Less(calls[j].Region) })
	return calls
}
