package align

import (
	"github.com/dancooke/octopus/region"
)

// Allele is a concrete base sequence at a specific genomic region, spec.md §3.
type Allele struct {
	RegionVal region.GenomicRegion
	Sequence  string
}

// Region implements region.Mappable.
func (a Allele) Region() region.GenomicRegion { return a.RegionVal }

// Equal reports whether two alleles occupy the same region with the same
// sequence.
func (a Allele) Equal(o Allele) bool {
	return a.RegionVal == o.RegionVal && a.Sequence == o.Sequence
}

// Less orders alleles by region then sequence, giving candidate sets a
// deterministic sort order.
func (a Allele) Less(o Allele) bool {
	if a.RegionVal != o.RegionVal {
		return a.RegionVal.Less(o.RegionVal)
	}
	return a.Sequence < o.Sequence
}

// Variant is a (reference, alternative) allele pair over the same region,
// spec.md §3.
type Variant struct {
	Ref Allele
	Alt Allele
}

// Region returns the shared region of the ref/alt allele pair.
func (v Variant) Region() region.GenomicRegion { return v.Ref.RegionVal }

// Trivial reports whether ref == alt, i.e. this "variant" calls no change.
func (v Variant) Trivial() bool { return v.Ref.Equal(v.Alt) }

// Less orders variants the same way as alleles, by region then by ref then
// by alt sequence, so candidate sets sort deterministically.
func (v Variant) Less(o Variant) bool {
	if v.Ref.RegionVal != o.Ref.RegionVal {
		return v.Ref.RegionVal.Less(o.Ref.RegionVal)
	}
	if v.Ref.Sequence != o.Ref.Sequence {
		return v.Ref.Sequence < o.Ref.Sequence
	}
	return v.Alt.Sequence < o.Alt.Sequence
}

// Equal reports equality of both the ref and alt alleles.
func (v Variant) Equal(o Variant) bool {
	return v.Ref.Equal(o.Ref) && v.Alt.Equal(o.Alt)
}

// FlankState tells the likelihood model which portion of a haplotype is
// active (may diverge from reference under candidate alleles) versus
// flanking (shared among all haplotypes in the window, so differences there
// are read error, not model uncertainty), spec.md §3.
type FlankState struct {
	ActiveRegion                    region.GenomicRegion
	HasLHSFlankInactiveCandidates   bool
	HasRHSFlankInactiveCandidates   bool
}
