// Package hapgen implements the genome walker, spec.md §4.1: given the
// previous window's region, the read map, and the sorted allele set for a
// contig, decide the region of the next window.
//
// Grounded line-for-line on
// original_source/src/core/tools/hapgen/genome_walker.cpp.
package hapgen

import (
	"sort"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/readmap"
	"github.com/dancooke/octopus/region"
)

// IndicatorPolicy controls how many previously-called alleles are carried
// into the new window as phasing indicators.
type IndicatorPolicy int

const (
	IncludeNone IndicatorPolicy = iota
	IncludeIfSharedWithNovelRegion
	IncludeIfLinkableToNovelRegion
	IncludeAll
)

// ExtensionPolicy controls when the walker stops appending the next
// candidate novel allele.
type ExtensionPolicy int

const (
	WithinReadLengthOfFirstIncluded ExtensionPolicy = iota
	SharedWithFrontier
	NoLimit
)

// Config is the walker's enumerated configuration, spec.md §4.1.
type Config struct {
	MaxIncluded      uint
	IndicatorPolicy  IndicatorPolicy
	ExtensionPolicy  ExtensionPolicy
}

// Walker is the genome walker. It is total: every input produces a region.
type Walker struct {
	cfg Config
}

// New constructs a Walker with the given configuration.
func New(cfg Config) *Walker { return &Walker{cfg: cfg} }

// InitialRegion returns the region.GenomicRegion fed to the first Walk call
// for a fresh contig, per spec.md §4.1.
func InitialRegion(contig string) region.GenomicRegion { return region.New(contig, 0, 0) }

// Walk returns the next window's region. alleles must be sorted ascending
// by region (region.GenomicRegion.Less).
func (w *Walker) Walk(previousRegion region.GenomicRegion, reads *readmap.ReadMap, alleles []align.Allele) region.GenomicRegion {
	// includedIdx is the boundary between P (alleles overlapping
	// previousRegion) and N (alleles strictly after it).
	includedIdx := sort.Search(len(alleles), func(i int) bool {
		return alleles[i].RegionVal.Begin >= previousRegion.End
	})
	if includedIdx == len(alleles) {
		return region.Shift(region.TailRegion(previousRegion), 2)
	}
	if w.cfg.MaxIncluded == 0 {
		return region.Intervening(previousRegion, alleles[includedIdx].Region())
	}

	firstPrevIdx := includedIdx
	for firstPrevIdx > 0 && region.Overlaps(alleles[firstPrevIdx-1].RegionVal, previousRegion) {
		firstPrevIdx--
	}

	numIndicators := w.selectIndicators(reads, alleles, firstPrevIdx, includedIdx)
	firstIncludedIdx := includedIdx - numIndicators

	numRemaining := len(alleles) - includedIdx
	numIncluded := int(w.cfg.MaxIncluded)
	var numExcluded int
	if w.cfg.ExtensionPolicy == WithinReadLengthOfFirstIncluded {
		maxWithinReadLen := readmap.MaxCountIfSharedWithFirst(reads, alleleRange(alleles, firstIncludedIdx, len(alleles)))
		numIncluded = minInt(numIncluded, minInt(numRemaining, maxWithinReadLen+1))
		numExcluded = maxWithinReadLen - numIncluded
		if numExcluded < 0 {
			// Clamped to zero, so the density threshold passed to
			// isOptimalToExtend below is just the number of inclusions
			// still remaining; the density-increase check stays active.
			numExcluded = 0
		}
	} else {
		numIncluded = minInt(numIncluded, numRemaining)
	}

	included := includedIdx // index of the last accepted novel allele
	firstExcluded := includedIdx + numIncluded
	remaining := numIncluded
	for {
		remaining--
		if remaining <= 0 {
			break
		}
		proposed := included + 1
		if !w.isOptimalToExtend(reads, alleles, firstIncludedIdx, proposed, firstExcluded, remaining+numExcluded) {
			break
		}
		if w.cfg.ExtensionPolicy == SharedWithFrontier &&
			!reads.HasShared(alleles[included].Region(), alleles[proposed].Region()) {
			break
		}
		included = proposed
	}

	rightmost := alleles[firstIncludedIdx].RegionVal
	for i := firstIncludedIdx; i <= included; i++ {
		if alleles[i].RegionVal.End > rightmost.End {
			rightmost = alleles[i].RegionVal
		}
	}
	j := included + 1
	for j < len(alleles) && region.Overlaps(alleles[j].RegionVal, rightmost) {
		if alleles[j].RegionVal.End > rightmost.End {
			rightmost = alleles[j].RegionVal
		}
		j++
	}
	return region.Encompassing(alleles[firstIncludedIdx].RegionVal, rightmost)
}

func (w *Walker) selectIndicators(reads *readmap.ReadMap, alleles []align.Allele, firstPrevIdx, includedIdx int) int {
	if firstPrevIdx >= includedIdx {
		return 0
	}
	switch w.cfg.IndicatorPolicy {
	case IncludeNone:
		return 0
	case IncludeIfSharedWithNovelRegion:
		pivot := alleles[includedIdx].Region()
		it := findFirstShared(reads, alleles, firstPrevIdx, includedIdx, pivot)
		return includedIdx - it
	case IncludeIfLinkableToNovelRegion:
		it := includedIdx
		for {
			pivot := alleles[it].Region()
			it2 := findFirstShared(reads, alleles, firstPrevIdx, it, pivot)
			if it2 == it {
				break
			}
			it = it2
		}
		return includedIdx - it
	case IncludeAll:
		return includedIdx - firstPrevIdx
	default:
		return 0
	}
}

// isOptimalToExtend mirrors genome_walker.cpp's is_optimal_to_extend.
func (w *Walker) isOptimalToExtend(reads *readmap.ReadMap, alleles []align.Allele, firstIncludedIdx, proposed, firstExcluded, maxDensityIncrease int) bool {
	if proposed >= len(alleles) {
		return false
	}
	if firstExcluded >= len(alleles) {
		return true
	}
	if !increasesDensity(reads, alleles, proposed, maxDensityIncrease) {
		return true
	}
	return isClose(alleles, proposed, firstExcluded)
}

func increasesDensity(reads *readmap.ReadMap, alleles []align.Allele, proposed, maxDensityIncrease int) bool {
	count := readmap.MaxCountIfSharedWithFirst(reads, alleleRange(alleles, proposed, len(alleles)))
	return count >= maxDensityIncrease
}

func isClose(alleles []align.Allele, proposed, firstExcluded int) bool {
	a := region.InnerDistance(alleles[proposed-1].RegionVal, alleles[proposed].RegionVal)
	b := region.InnerDistance(alleles[proposed].RegionVal, alleles[firstExcluded].RegionVal)
	return a <= b
}

// findFirstShared returns the leftmost index in [lo, hi) sharing a read
// with pivot, or hi if none does.
func findFirstShared(reads *readmap.ReadMap, alleles []align.Allele, lo, hi int, pivot region.GenomicRegion) int {
	for i := lo; i < hi; i++ {
		if reads.HasShared(alleles[i].Region(), pivot) {
			return i
		}
	}
	return hi
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// alleleRanged adapts align.Allele to readmap.Ranged.
type alleleRanged struct{ a align.Allele }

func (r alleleRanged) Region() region.GenomicRegion { return r.a.RegionVal }

func alleleRange(alleles []align.Allele, lo, hi int) []alleleRanged {
	out := make([]alleleRanged, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, alleleRanged{alleles[i]})
	}
	return out
}
