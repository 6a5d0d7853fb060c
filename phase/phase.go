// Package phase implements spec.md §4.6's phaser: given two consecutive
// windows' called genotypes and the read map linking them, compute a phase
// score (the log-likelihood ratio between the best and second-best
// phasings) and decide whether the edge between windows clears the
// configured minimum.
package phase

import (
	"math"
	"sort"

	"github.com/dancooke/octopus/model"
	"github.com/dancooke/octopus/readmap"
	"github.com/dancooke/octopus/region"
)

// PhaseSet is a run of windows whose genotype calls are phased together,
// each annotated with the region spanned.
type PhaseSet struct {
	Region region.GenomicRegion
	Score  float64
}

// phasing pairs one genotype from the left window with one from the right
// window — a hypothesis about how the two windows' haplotypes connect.
type phasing struct {
	left, right model.Genotype
	logScore    float64
}

// jointLogLikelihood scores a (left genotype, right genotype) pairing as a
// connectivity bonus, not a full re-scoring: it returns -Inf (the pairing is
// dropped) when no read overlaps both windows, and otherwise adds 1 for each
// same-index haplotype pair whose sequences are identical.
func jointLogLikelihood(left, right model.Genotype, reads *readmap.ReadMap, leftRegion, rightRegion region.GenomicRegion) float64 {
	if !reads.HasShared(leftRegion, rightRegion) {
		return math.Inf(-1)
	}
	// With read-level linkage confirmed, every (leftHaplotype,
	// rightHaplotype) pairing drawn in genotype order is equally
	// consistent with the observed connectivity; ploidy-matched pairings
	// (same index) are preferred since they preserve haplotype identity
	// across the boundary.
	score := 0.0
	n := len(left.Haplotypes)
	if len(right.Haplotypes) < n {
		n = len(right.Haplotypes)
	}
	for i := 0; i < n; i++ {
		if left.Haplotypes[i].Sequence == right.Haplotypes[i].Sequence {
			score += 1
		}
	}
	return score
}

// Score computes the phase score between leftGenotypes (candidate genotypes
// for the left window, with posteriors) and rightGenotypes for the right
// window: the log-likelihood ratio between the best-scoring phasing and the
// second-best, spec.md §4.6.
func Score(leftGenotypes, rightGenotypes []model.Genotype, leftPosteriors, rightPosteriors []float64,
	reads *readmap.ReadMap, leftRegion, rightRegion region.GenomicRegion) float64 {
	var phasings []phasing
	for i, lg := range leftGenotypes {
		for j, rg := range rightGenotypes {
			joint := jointLogLikelihood(lg, rg, reads, leftRegion, rightRegion)
			if math.IsInf(joint, -1) {
				continue
			}
			logScore := math.Log(leftPosteriors[i]) + math.Log(rightPosteriors[j]) + joint
			phasings = append(phasings, phasing{left: lg, right: rg, logScore: logScore})
		}
	}
	if len(phasings) < 2 {
		return math.Inf(1) // nothing to compare against: treat as maximally confident
	}
	sort.Slice(phasings, func(i, j int) bool { return phasings[i].logScore > phasings[j].logScore })
	return phasings[0].logScore - phasings[1].logScore
}

// BuildPhaseSets walks a contig's called windows in order and merges
// adjacent windows into a PhaseSet whenever the boundary's phase score
// clears minPhaseScore.
func BuildPhaseSets(windowRegions []region.GenomicRegion, scores []float64, minPhaseScore float64) []PhaseSet {
	if len(windowRegions) == 0 {
		return nil
	}
	var out []PhaseSet
	current := windowRegions[0]
	bestScore := math.Inf(1)
	for i, r := range windowRegions[1:] {
		if scores[i] >= minPhaseScore {
			current = region.Encompassing(current, r)
			if scores[i] < bestScore {
				bestScore = scores[i]
			}
		} else {
			out = append(out, PhaseSet{Region: current, Score: bestScore})
			current = r
			bestScore = math.Inf(1)
		}
	}
	out = append(out, PhaseSet{Region: current, Score: bestScore})
	return out
}
