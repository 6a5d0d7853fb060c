package caller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/region"
)

// biasedCache scores the haplotype at altIndex far higher than every other
// haplotype for every sample, forcing a deterministic MAP genotype.
type biasedCache struct {
	haplotypes []*align.Haplotype
	altIndex   int
}

func (c biasedCache) LogLikelihoods(_ string, h *align.Haplotype) []float64 {
	for i, cand := range c.haplotypes {
		if cand == h {
			if i == c.altIndex {
				return []float64{-0.01}
			}
			return []float64{-50}
		}
	}
	return []float64{-50}
}

func mkVariant(pos uint32, ref, alt string) align.Variant {
	r := region.New("1", pos, pos+uint32(len(ref)))
	return align.Variant{
		Ref: align.Allele{RegionVal: r, Sequence: ref},
		Alt: align.Allele{RegionVal: r, Sequence: alt},
	}
}

func TestCallVariantsEmitsSiteAboveThreshold(t *testing.T) {
	v := mkVariant(10, "A", "G")
	refHap := &align.Haplotype{RegionVal: region.New("1", 10, 11), Sequence: "A"}
	altHap := &align.Haplotype{RegionVal: region.New("1", 10, 11), Sequence: "G", Alleles: []align.Allele{v.Alt}}
	haps := []*align.Haplotype{refHap, altHap}

	c, err := NewVariantCallerBuilder(Individual).
		WithGeneralParameters(Parameters{Samples: []string{"s1"}, MinVariantPosterior: 1}).
		Build()
	require.NoError(t, err)

	latents, err := c.InferLatents(haps, biasedCache{haplotypes: haps, altIndex: 1})
	require.NoError(t, err)

	calls := c.CallVariants([]align.Variant{v}, latents)
	require.Len(t, calls, 1)
	assert.Equal(t, "A", calls[0].Ref)
	assert.Equal(t, "G", calls[0].Alt)
	require.Contains(t, calls[0].Genotypes, "s1")
	assert.Equal(t, []string{"G"}, calls[0].Genotypes["s1"].Alleles)
}

func TestCallVariantsSkipsBelowThreshold(t *testing.T) {
	v := mkVariant(10, "A", "G")
	refHap := &align.Haplotype{RegionVal: region.New("1", 10, 11), Sequence: "A"}
	altHap := &align.Haplotype{RegionVal: region.New("1", 10, 11), Sequence: "G", Alleles: []align.Allele{v.Alt}}
	haps := []*align.Haplotype{refHap, altHap}

	c, err := NewVariantCallerBuilder(Individual).
		WithGeneralParameters(Parameters{Samples: []string{"s1"}, MinVariantPosterior: 1000}).
		Build()
	require.NoError(t, err)

	latents, err := c.InferLatents(haps, biasedCache{haplotypes: haps, altIndex: 1})
	require.NoError(t, err)

	calls := c.CallVariants([]align.Variant{v}, latents)
	assert.Empty(t, calls)
}

func TestCallReferenceEmitsWhenNoSampleCarriesAlt(t *testing.T) {
	v := mkVariant(10, "A", "G")
	refHap := &align.Haplotype{RegionVal: region.New("1", 10, 11), Sequence: "A"}
	altHap := &align.Haplotype{RegionVal: region.New("1", 10, 11), Sequence: "G", Alleles: []align.Allele{v.Alt}}
	haps := []*align.Haplotype{refHap, altHap}

	c, err := NewVariantCallerBuilder(Individual).
		WithGeneralParameters(Parameters{Samples: []string{"s1"}, MinRefCallPosterior: 1}).
		Build()
	require.NoError(t, err)

	// Biased toward the reference haplotype (index 0) this time.
	latents, err := c.InferLatents(haps, biasedCache{haplotypes: haps, altIndex: 0})
	require.NoError(t, err)

	calls := c.CallReference([]align.Variant{v}, latents)
	require.Len(t, calls, 1)
	assert.Equal(t, v.Region(), calls[0].Region)
}

func TestCallVariantsIgnoresTrivialVariants(t *testing.T) {
	trivial := mkVariant(10, "A", "A")
	c, err := NewVariantCallerBuilder(Individual).
		WithGeneralParameters(Parameters{Samples: []string{"s1"}}).
		Build()
	require.NoError(t, err)

	haps := []*align.Haplotype{{RegionVal: region.New("1", 10, 11), Sequence: "A"}}
	latents, err := c.InferLatents(haps, biasedCache{haplotypes: haps, altIndex: 0})
	require.NoError(t, err)

	assert.Empty(t, c.CallVariants([]align.Variant{trivial}, latents))
	assert.Empty(t, c.CallReference([]align.Variant{trivial}, latents))
}
