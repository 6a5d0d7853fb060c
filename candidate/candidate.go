// Package candidate generates the candidate Variant set a window's reads
// imply, spec.md §2's candidate generator: walk each read's CIGAR against
// the reference it was aligned to, emit one Variant per mismatched base and
// per insertion/deletion operation, left-align indels, then sort and
// deduplicate across all
// reads in the region.
//
// Grounded on genome_walker.cpp's implicit precondition that the alleles it
// walks arrive pre-sorted and deduplicated, and on the CIGAR-consumes table
// other_examples/.../sam/cigar.go documents (CigarOpType.Consumes()).
package candidate

import (
	"sort"

	"github.com/grailbio/hts/sam"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/octerrors"
	"github.com/dancooke/octopus/region"
)

// Generate walks every read's CIGAR against refSeq (the reference bases
// spanning r) and returns the sorted, deduplicated set of Variants implied
// by mismatches, insertions, and deletions.
func Generate(reads []*align.AlignedRead, r region.GenomicRegion, refSeq func(contig string, begin, end uint32) (string, error)) ([]align.Variant, error) {
	var variants []align.Variant
	for _, read := range reads {
		vs, err := variantsInRead(read, refSeq)
		if err != nil {
			return nil, err
		}
		variants = append(variants, vs...)
	}
	return dedupSorted(variants), nil
}

// variantsInRead walks one read's CIGAR, consuming reference and query bases
// in lockstep, emitting a Variant for every mismatched base and for every
// insertion or deletion operation.
func variantsInRead(read *align.AlignedRead, refSeq func(contig string, begin, end uint32) (string, error)) ([]align.Variant, error) {
	if !align.ValidateCigar(read.Cigar, read.RegionVal.Size()) {
		return nil, octerrors.Errorf(octerrors.InternalAssertion,
			"candidate: read %s cigar does not match region width", read.RegionVal)
	}

	refPos := read.RegionVal.Begin
	queryPos := 0
	var out []align.Variant

	for _, op := range read.Cigar {
		con := op.Type().Consumes()
		n := op.Len()

		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			ref, err := refSeq(read.RegionVal.Contig, refPos, refPos+uint32(n))
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				refBase := ref[i : i+1]
				altBase := read.Sequence[queryPos+i : queryPos+i+1]
				if refBase != altBase {
					pos := refPos + uint32(i)
					out = append(out, align.Variant{
						Ref: align.Allele{RegionVal: region.New(read.RegionVal.Contig, pos, pos+1), Sequence: refBase},
						Alt: align.Allele{RegionVal: region.New(read.RegionVal.Contig, pos, pos+1), Sequence: altBase},
					})
				}
			}
		case sam.CigarInsertion:
			alt := read.Sequence[queryPos : queryPos+n]
			out = append(out, leftAlign(align.Variant{
				Ref: align.Allele{RegionVal: region.New(read.RegionVal.Contig, refPos, refPos), Sequence: ""},
				Alt: align.Allele{RegionVal: region.New(read.RegionVal.Contig, refPos, refPos), Sequence: alt},
			}, refSeq))
		case sam.CigarDeletion:
			ref, err := refSeq(read.RegionVal.Contig, refPos, refPos+uint32(n))
			if err != nil {
				return nil, err
			}
			out = append(out, leftAlign(align.Variant{
				Ref: align.Allele{RegionVal: region.New(read.RegionVal.Contig, refPos, refPos+uint32(n)), Sequence: ref},
				Alt: align.Allele{RegionVal: region.New(read.RegionVal.Contig, refPos, refPos+uint32(n)), Sequence: ""},
			}, refSeq))
		}

		refPos += uint32(n * con.Reference)
		queryPos += n * con.Query
	}
	return out, nil
}

// leftAlign shifts an indel variant as far left as possible: while the base
// immediately before the variant's region equals the base cycled off the
// end of its (non-empty) allele sequence, slide the whole variant one base
// left. This is the standard convention referenced informally throughout
// the original corpus for canonicalising indel representation.
func leftAlign(v align.Variant, refSeq func(contig string, begin, end uint32) (string, error)) align.Variant {
	indelSeq := v.Ref.Sequence
	if indelSeq == "" {
		indelSeq = v.Alt.Sequence
	}
	if indelSeq == "" {
		return v
	}

	contig := v.Ref.RegionVal.Contig
	begin := v.Ref.RegionVal.Begin
	end := v.Ref.RegionVal.End

	for begin > 0 {
		prevBase, err := refSeq(contig, begin-1, begin)
		if err != nil {
			break
		}
		if prevBase[0] != indelSeq[len(indelSeq)-1] {
			break
		}
		indelSeq = prevBase + indelSeq[:len(indelSeq)-1]
		begin--
		end--
	}

	newRegion := region.New(contig, begin, end)
	if v.Ref.Sequence != "" {
		v.Ref = align.Allele{RegionVal: newRegion, Sequence: indelSeq}
		v.Alt = align.Allele{RegionVal: newRegion, Sequence: ""}
	} else {
		v.Ref = align.Allele{RegionVal: newRegion, Sequence: ""}
		v.Alt = align.Allele{RegionVal: newRegion, Sequence: indelSeq}
	}
	return v
}

// dedupSorted sorts variants and removes exact duplicates, giving the
// window's candidate set a deterministic, unique ordering.
func dedupSorted(variants []align.Variant) []align.Variant {
	if len(variants) == 0 {
		return nil
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i].Less(variants[j]) })
	out := variants[:1]
	for _, v := range variants[1:] {
		if !v.Equal(out[len(out)-1]) {
			out = append(out, v)
		}
	}
	return out
}
