// Package align holds the window-scoped data model shared by every other
// package in this module: alleles, variants, aligned reads, haplotypes, and
// the flank-state annotation the likelihood model needs.
//
// Grounded on original_source/src/aligned_read.h (equality/ordering
// contract) and spec.md §3.
package align

import (
	"github.com/grailbio/hts/sam"

	"github.com/dancooke/octopus/region"
)

// Strand is the orientation of an aligned read, derived from the SAM FLAG's
// reverse-complement bit. Not named explicitly in spec.md §3 but present in
// the original's AlignedRead stream dump; set by readio from the FLAG, and
// not read by any other package.
type Strand int8

const (
	Forward Strand = iota
	Reverse
)

// AlignedRead is a read placed on the reference, spec.md §3.
//
// Invariant: len(Sequence) == len(Qualities), and both equal the sum of
// query-consuming CIGAR op lengths.
type AlignedRead struct {
	RegionVal      region.GenomicRegion
	Sequence       string
	Qualities      []uint8 // per-base Phred, not ASCII-offset
	Cigar          sam.Cigar
	MappingQuality uint8
	InsertSize     int32
	MateContig     string
	MateBegin      uint32
	Strand         Strand
}

// Region implements region.Mappable.
func (r *AlignedRead) Region() region.GenomicRegion { return r.RegionVal }

// Len returns the read's sequence length.
func (r *AlignedRead) Len() int { return len(r.Sequence) }

// Equal implements the original's semantic-identity equality: mapping
// quality, region, and cigar determine identity; the sequence is redundant
// given those three plus the reference.
func (r *AlignedRead) Equal(o *AlignedRead) bool {
	if r.MappingQuality != o.MappingQuality {
		return false
	}
	if r.RegionVal != o.RegionVal {
		return false
	}
	if len(r.Cigar) != len(o.Cigar) {
		return false
	}
	for i := range r.Cigar {
		if r.Cigar[i] != o.Cigar[i] {
			return false
		}
	}
	return true
}

// Less orders reads by begin position, matching the original's operator<.
func (r *AlignedRead) Less(o *AlignedRead) bool {
	return r.RegionVal.Begin < o.RegionVal.Begin
}

// ValidateCigar checks the invariant that the sum of reference-consuming
// CIGAR op lengths equals the read's region width.
func ValidateCigar(c sam.Cigar, regionWidth uint32) bool {
	var refLen int
	for _, op := range c {
		con := op.Type().Consumes()
		refLen += op.Len() * con.Reference
	}
	return refLen == int(regionWidth)
}
