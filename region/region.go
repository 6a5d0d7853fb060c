// Package region implements GenomicRegion and the mappable-interval
// algorithms that the genome walker and haplotype tree build on: overlap,
// containment, distance, and the region-combining helpers used to compute
// the next window.
package region

import "fmt"

// GenomicRegion is a half-open interval [Begin, End) on a contig.
type GenomicRegion struct {
	Contig string
	Begin  uint32
	End    uint32
}

// New returns the region {contig, begin, end}. It does not validate
// begin <= end; callers that build regions from untrusted input should call
// Valid.
func New(contig string, begin, end uint32) GenomicRegion {
	return GenomicRegion{Contig: contig, Begin: begin, End: end}
}

// Valid reports whether Begin <= End.
func (r GenomicRegion) Valid() bool { return r.Begin <= r.End }

// Size returns End - Begin.
func (r GenomicRegion) Size() uint32 { return r.End - r.Begin }

// Empty reports whether the region spans zero bases.
func (r GenomicRegion) Empty() bool { return r.Begin == r.End }

func (r GenomicRegion) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Contig, r.Begin, r.End)
}

// Less orders regions lexicographically on contig, then Begin, then End.
func (r GenomicRegion) Less(o GenomicRegion) bool {
	if r.Contig != o.Contig {
		return r.Contig < o.Contig
	}
	if r.Begin != o.Begin {
		return r.Begin < o.Begin
	}
	return r.End < o.End
}

// Equal reports structural equality.
func (r GenomicRegion) Equal(o GenomicRegion) bool { return r == o }

// Mappable is anything with a genomic region, the interface the overlap and
// distance helpers below operate on.
type Mappable interface {
	Region() GenomicRegion
}

// Overlaps reports whether a and b are on the same contig and
// a.Begin < b.End && b.Begin < a.End.
func Overlaps(a, b GenomicRegion) bool {
	return a.Contig == b.Contig && a.Begin < b.End && b.Begin < a.End
}

// OverlapsM is the Mappable-typed convenience form of Overlaps.
func OverlapsM(a, b Mappable) bool { return Overlaps(a.Region(), b.Region()) }

// Contains reports whether outer fully contains inner (same contig,
// outer.Begin <= inner.Begin && inner.End <= outer.End).
func Contains(outer, inner GenomicRegion) bool {
	return outer.Contig == inner.Contig && outer.Begin <= inner.Begin && inner.End <= outer.End
}

// InnerDistance is the gap length in bases between two disjoint regions on
// the same contig; negative if they overlap. Regions are ordered by Begin
// internally, so argument order does not matter.
func InnerDistance(a, b GenomicRegion) int64 {
	lhs, rhs := a, b
	if rhs.Begin < lhs.Begin {
		lhs, rhs = rhs, lhs
	}
	return int64(rhs.Begin) - int64(lhs.End)
}

// BeginDistance returns b.Begin - a.Begin as a signed offset.
func BeginDistance(a, b GenomicRegion) int64 {
	return int64(b.Begin) - int64(a.Begin)
}

// EndDistance returns a.End - b.End, the distance from b's end to a's end,
// used by the likelihood model to size the right-hand flank.
func EndDistance(a, b GenomicRegion) int64 {
	return int64(a.End) - int64(b.End)
}

// Intervening returns the region strictly between a and b (a.End to
// b.Begin), assuming a.End <= b.Begin. If the regions overlap or touch, the
// result is empty at a.End.
func Intervening(a, b GenomicRegion) GenomicRegion {
	begin := a.End
	end := b.Begin
	if end < begin {
		end = begin
	}
	return GenomicRegion{Contig: a.Contig, Begin: begin, End: end}
}

// Encompassing returns the smallest region containing both a and b. Both
// must be on the same contig.
func Encompassing(a, b GenomicRegion) GenomicRegion {
	begin, end := a.Begin, a.End
	if b.Begin < begin {
		begin = b.Begin
	}
	if b.End > end {
		end = b.End
	}
	return GenomicRegion{Contig: a.Contig, Begin: begin, End: end}
}

// TailRegion returns the zero-width region at r's End.
func TailRegion(r GenomicRegion) GenomicRegion {
	return GenomicRegion{Contig: r.Contig, Begin: r.End, End: r.End}
}

// Shift moves a region n bases downstream, preserving its width. Used by the
// walker to build its past-the-end sentinel.
func Shift(r GenomicRegion, n uint32) GenomicRegion {
	return GenomicRegion{Contig: r.Contig, Begin: r.Begin + n, End: r.End + n}
}
