// Package readmap implements spec.md §3's ReadMap: a per-sample,
// interval-indexed collection of aligned reads supporting the overlap and
// shared-read queries the genome walker (hapgen) needs to decide window
// boundaries.
//
// Grounded on the free functions implied by original_source's
// genome_walker.cpp (max_count_if_shared_with_first, has_shared,
// find_first_shared); queries are not cached between calls. The
// per-sample index itself uses github.com/biogo/store/interval, following
// the IntTree/IntInterface usage shown in the biogo-examples brahma tool
// (DoMatching over an Overlapper query), since grailbio/bio's own BEDUnion
// carries no per-element payload and ReadMap needs one read per interval.
package readmap

import (
	"sort"

	"github.com/biogo/store/interval"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/region"
)

// intervalRead adapts *align.AlignedRead to interval.IntInterface.
type intervalRead struct {
	read *align.AlignedRead
	id   uintptr
}

func (r *intervalRead) Overlap(b interval.IntRange) bool {
	return int(r.read.RegionVal.End) > b.Start && int(r.read.RegionVal.Begin) < b.End
}
func (r *intervalRead) ID() uintptr { return r.id }
func (r *intervalRead) Range() interval.IntRange {
	return interval.IntRange{Start: int(r.read.RegionVal.Begin), End: int(r.read.RegionVal.End)}
}

type rangeQuery struct{ start, end int }

func (q rangeQuery) Overlap(b interval.IntRange) bool {
	return q.end > b.Start && q.start < b.End
}

// sampleIndex is one sample's reads: a sorted slice for ordered iteration
// plus an interval tree for overlap queries.
type sampleIndex struct {
	reads []*align.AlignedRead // sorted by Begin
	tree  *interval.IntTree
}

// ReadMap is spec.md §3's ReadMap, keyed by sample ID.
type ReadMap struct {
	samples map[string]*sampleIndex
	names   []string
}

// New builds a ReadMap from a per-sample list of aligned reads. The reads
// need not be pre-sorted.
func New(reads map[string][]*align.AlignedRead) *ReadMap {
	rm := &ReadMap{samples: make(map[string]*sampleIndex, len(reads))}
	for sample, rs := range reads {
		sorted := make([]*align.AlignedRead, len(rs))
		copy(sorted, rs)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

		tree := &interval.IntTree{}
		for i, r := range sorted {
			_ = tree.Insert(&intervalRead{read: r, id: uintptr(i)}, true)
		}
		tree.AdjustRanges()
		rm.samples[sample] = &sampleIndex{reads: sorted, tree: tree}
		rm.names = append(rm.names, sample)
	}
	sort.Strings(rm.names)
	return rm
}

// SampleNames returns the sample IDs in the map, sorted.
func (rm *ReadMap) SampleNames() []string { return rm.names }

// OverlapRange returns, for one sample, the reads overlapping r, in
// ascending begin-position order.
func (rm *ReadMap) OverlapRange(sample string, r region.GenomicRegion) []*align.AlignedRead {
	idx, ok := rm.samples[sample]
	if !ok {
		return nil
	}
	var hits []*align.AlignedRead
	idx.tree.DoMatching(func(hit interval.IntInterface) (done bool) {
		hits = append(hits, hit.(*intervalRead).read)
		return false
	}, rangeQuery{start: int(r.Begin), end: int(r.End)})
	sort.Slice(hits, func(i, j int) bool { return hits[i].Less(hits[j]) })
	return hits
}

// sharesReadInSample reports whether some read in sample overlaps both a
// and b.
func (rm *ReadMap) sharesReadInSample(sample string, a, b region.GenomicRegion) bool {
	idx, ok := rm.samples[sample]
	if !ok {
		return false
	}
	shared := false
	idx.tree.DoMatching(func(hit interval.IntInterface) (done bool) {
		if region.Overlaps(hit.(*intervalRead).read.RegionVal, b) {
			shared = true
			return true
		}
		return false
	}, rangeQuery{start: int(a.Begin), end: int(a.End)})
	return shared
}

// HasShared reports whether, in any sample, some read overlaps both a and
// b — the ∃-read test behind the walker's "is linked" notion.
func (rm *ReadMap) HasShared(a, b region.GenomicRegion) bool {
	for _, name := range rm.names {
		if rm.sharesReadInSample(name, a, b) {
			return true
		}
	}
	return false
}

// Ranged is anything with a region, used by the generic range-of-items
// helpers below (alleles, in the walker's case).
type Ranged interface {
	Region() region.GenomicRegion
}

// MaxCountIfSharedWithFirst returns, maximised over samples, the number of
// items in items[1:] that share a read (in that sample) with items[0].
// items[0] itself always counts. Mirrors
// genome_walker.cpp's max_count_if_shared_with_first.
func MaxCountIfSharedWithFirst[T Ranged](rm *ReadMap, items []T) int {
	if len(items) == 0 {
		return 0
	}
	first := items[0].Region()
	best := 0
	for _, name := range rm.names {
		count := 1 // items[0] shares with itself
		for _, it := range items[1:] {
			if rm.sharesReadInSample(name, first, it.Region()) {
				count++
			}
		}
		if count > best {
			best = count
		}
	}
	return best
}

// FindFirstShared returns the index within items of the leftmost item that
// shares a read (in any sample) with pivot, or len(items) if none does.
// Mirrors the find_first_shared helper genome_walker.cpp relies on for its
// indicator-selection policies.
func FindFirstShared[T Ranged](rm *ReadMap, items []T, pivot region.GenomicRegion) int {
	for i, it := range items {
		if rm.HasShared(it.Region(), pivot) {
			return i
		}
	}
	return len(items)
}
