package align

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/dancooke/octopus/region"
)

// Haplotype is a contiguous reference-sized region with a concrete base
// string obtained by applying a chosen, non-conflicting set of alleles to
// the reference, spec.md §3.
//
// Invariants: no two constituent alleles overlap; len(Sequence) ==
// RegionVal.Size() + net indel balance of Alleles.
type Haplotype struct {
	RegionVal region.GenomicRegion
	Sequence  string
	Alleles   []Allele // sorted by region, non-overlapping
}

// Region implements region.Mappable.
func (h *Haplotype) Region() region.GenomicRegion { return h.RegionVal }

// Len returns the haplotype's base-string length.
func (h *Haplotype) Len() int { return len(h.Sequence) }

// Contains reports whether the haplotype's region fully contains r. The
// likelihood model requires this to hold for any read it scores; violating
// it is an InternalAssertion, not a runtime condition, per spec.md §4.3.
func (h *Haplotype) Contains(r region.GenomicRegion) bool {
	return region.Contains(h.RegionVal, r)
}

// ContainsAllele reports whether the haplotype was built with exactly this
// allele among its constituents.
func (h *Haplotype) ContainsAllele(a Allele) bool {
	for _, existing := range h.Alleles {
		if existing.Equal(a) {
			return true
		}
	}
	return false
}

// IsReference reports whether the haplotype carries no alleles, i.e. it is
// identical to the reference over its region.
func (h *Haplotype) IsReference() bool { return len(h.Alleles) == 0 }

// Build constructs a Haplotype over refRegion by applying alleles (which
// must be sorted, non-overlapping, and contained within refRegion) to the
// reference sequence returned by refSeq(contig, begin, end).
func Build(refRegion region.GenomicRegion, alleles []Allele, refSeq func(contig string, begin, end uint32) (string, error)) (*Haplotype, error) {
	sorted := make([]Allele, len(alleles))
	copy(sorted, alleles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	for i := 1; i < len(sorted); i++ {
		if region.Overlaps(sorted[i-1].RegionVal, sorted[i].RegionVal) {
			return nil, errors.Errorf("haplotype: overlapping constituent alleles at %s and %s",
				sorted[i-1].RegionVal, sorted[i].RegionVal)
		}
	}
	for _, a := range sorted {
		if !region.Contains(refRegion, a.RegionVal) {
			return nil, errors.Errorf("haplotype: allele %s not contained in region %s", a.RegionVal, refRegion)
		}
	}

	var b strings.Builder
	cursor := refRegion.Begin
	for _, a := range sorted {
		if a.RegionVal.Begin > cursor {
			gap, err := refSeq(refRegion.Contig, cursor, a.RegionVal.Begin)
			if err != nil {
				return nil, errors.Wrap(err, "haplotype: fetching flanking reference")
			}
			b.WriteString(gap)
		}
		b.WriteString(a.Sequence)
		cursor = a.RegionVal.End
	}
	if cursor < refRegion.End {
		tail, err := refSeq(refRegion.Contig, cursor, refRegion.End)
		if err != nil {
			return nil, errors.Wrap(err, "haplotype: fetching trailing reference")
		}
		b.WriteString(tail)
	}
	return &Haplotype{RegionVal: refRegion, Sequence: b.String(), Alleles: sorted}, nil
}

// Equal reports whether two haplotypes carry the same base string over the
// same region — the definition the haplotype tree uses to dedup leaves.
func (h *Haplotype) Equal(o *Haplotype) bool {
	return h.RegionVal == o.RegionVal && h.Sequence == o.Sequence
}
