// Package filter implements spec.md §4.4's haplotype filter:
// filter_by_maximum_likelihood, ported from haplotype_filter.cpp.
//
// filter_by_likelihood_sum is deliberately not implemented — spec.md §9
// records it as a stub in the source whose intended tie-break semantics
// must be specified downstream before implementation, and explicitly says
// not to guess.
package filter

import (
	"math"
	"sort"

	"github.com/dancooke/octopus/align"
)

// LikelihoodCache is the view onto a HaplotypeLikelihoodCache the filter
// needs: every read's log-likelihood against one haplotype, for one sample.
type LikelihoodCache interface {
	LogLikelihoods(sample string, h *align.Haplotype) []float64
}

// almostZero matches maths.hpp's tolerance for "this read could not
// possibly score any haplotype better", the early-exit condition in
// max_read_likelihood.
func almostZero(logLikelihood float64) bool {
	return math.Abs(logLikelihood) < 1e-10
}

// MaxReadLikelihood is the best single-read log-likelihood haplotype
// achieves across every sample, mirroring max_read_likelihood.
func MaxReadLikelihood(h *align.Haplotype, samples []string, cache LikelihoodCache) float64 {
	result := math.Inf(-1)
	for _, sample := range samples {
		for _, l := range cache.LogLikelihoods(sample, h) {
			if l > result {
				result = l
			}
			if almostZero(l) {
				break
			}
		}
	}
	return result
}

func haplotypeKey(h *align.Haplotype) string {
	return h.RegionVal.String() + "|" + h.Sequence
}

func sortHaplotypes(hs []*align.Haplotype) {
	sort.Slice(hs, func(i, j int) bool { return haplotypeKey(hs[i]) < haplotypeKey(hs[j]) })
}

// FilterByMaximumLikelihood partitions haplotypes into the n with the
// highest per-haplotype best-read likelihood (kept) and the rest (removed),
// mirroring filter_by_maximum_likelihood's nth-element-then-sort-both-halves
// structure.
//
// If the same haplotype value (by region+sequence) straddles the partition
// boundary — present in both halves because the input already contained a
// literal duplicate — every copy of it is evicted from kept: we cannot tell
// which copy is the genuine n-th, so the duplicate is dropped rather than
// the unique haplotypes around it.
func FilterByMaximumLikelihood(haplotypes []*align.Haplotype, samples []string, cache LikelihoodCache, n int) (kept, removed []*align.Haplotype) {
	if len(haplotypes) <= n {
		sorted := append([]*align.Haplotype{}, haplotypes...)
		sortHaplotypes(sorted)
		return sorted, nil
	}

	maxLik := make(map[*align.Haplotype]float64, len(haplotypes))
	for _, h := range haplotypes {
		maxLik[h] = MaxReadLikelihood(h, samples, cache)
	}

	sorted := append([]*align.Haplotype{}, haplotypes...)
	sort.Slice(sorted, func(i, j int) bool { return maxLik[sorted[i]] > maxLik[sorted[j]] })

	keptPart := append([]*align.Haplotype{}, sorted[:n]...)
	removedPart := append([]*align.Haplotype{}, sorted[n:]...)
	sortHaplotypes(keptPart)
	sortHaplotypes(removedPart)

	duplicate := make(map[string]bool)
	i, j := 0, 0
	for i < len(keptPart) && j < len(removedPart) {
		a, b := keptPart[i], removedPart[j]
		ka, kb := haplotypeKey(a), haplotypeKey(b)
		switch {
		case ka == kb:
			duplicate[ka] = true
			i++
			j++
		case ka < kb:
			i++
		default:
			j++
		}
	}

	for _, h := range keptPart {
		if !duplicate[haplotypeKey(h)] {
			kept = append(kept, h)
		}
	}
	return kept, removedPart
}
