// Package pairhmm implements the pair-HMM kernel's contract from spec.md
// §4.3/§9: given haplotype bases, read bases and qualities, a per-haplotype
// base gap-open penalty vector, a candidate offset, and model parameters, it
// returns the log probability of the read given the haplotype under a
// three-state (match/insert/delete) hidden Markov model.
//
// Only the scalar, banded realisation is in scope — spec.md §1 explicitly
// excludes a SIMD kernel. The band width is fixed at 15 bases, matching the
// alignment slack the likelihood model uses to decide whether an offset is
// even worth trying.
package pairhmm

import "math"

// bandWidth is the number of extra haplotype bases, beyond the read's own
// length, the kernel is allowed to consume — the same slack the likelihood
// model checks with its in-range test.
const bandWidth = 15

// Model holds the pair-HMM's parameters, spec.md §9. The gap constants
// (2, 3) are fields rather than hardcoded constants; the 15-base slack is
// not: it is the package constant bandWidth and cannot be set through Model.
type Model struct {
	// GapOpen and GapExtend are phred-scaled penalties for opening and
	// extending an indel, used as the model's baseline when a haplotype
	// position carries no sequence-context-specific penalty of its own.
	GapOpen   int
	GapExtend int
	// LHSFlankSize and RHSFlankSize mark haplotype prefix/suffix windows
	// where mismatches are not chargeable: they represent bases shared by
	// every hypothesis under consideration, not a haplotype-specific
	// choice.
	LHSFlankSize int
	RHSFlankSize int
}

// DefaultModel returns the model constants spec.md §9 records as fixed in
// the source: gap-open 2, gap-extend 3, no flank masking.
func DefaultModel() Model { return Model{GapOpen: 2, GapExtend: 3} }

const minLogProbability = -math.MaxFloat64 / 2

func phredToLogProb(q int) float64 {
	if q <= 0 {
		q = 1
	}
	return -float64(q) * math.Ln10 / 10
}

// log1mexp computes log(1 - exp(x)) for x <= 0, stably.
func log1mexp(x float64) float64 {
	if x > -math.Ln2 {
		return math.Log(-math.Expm1(x))
	}
	return math.Log1p(-math.Exp(x))
}

func logAdd(a, b float64) float64 {
	if a == minLogProbability {
		return b
	}
	if b == minLogProbability {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// AlignAroundOffset scores read against the haplotype window starting at
// offset, returning the pair-HMM's log probability. gapOpenPenalties is
// indexed by haplotype position (same coordinate space as haplotype); its
// length must equal len(haplotype).
func AlignAroundOffset(haplotype []byte, read []byte, quals []byte, gapOpenPenalties []int, offset int, model Model) float64 {
	n := len(read)
	end := offset + n + bandWidth
	if end > len(haplotype) {
		end = len(haplotype)
	}
	hap := haplotype[offset:end]
	m := len(hap)

	gapExtendLog := phredToLogProb(model.GapExtend)

	// Three-state log-space forward recurrence: M (match/mismatch), I
	// (insertion: extra read base), D (deletion: extra haplotype base).
	// Rows are read positions 0..n, columns are haplotype-window positions
	// 0..m.
	matchLog := make([][]float64, n+1)
	insLog := make([][]float64, n+1)
	delLog := make([][]float64, n+1)
	for i := range matchLog {
		matchLog[i] = make([]float64, m+1)
		insLog[i] = make([]float64, m+1)
		delLog[i] = make([]float64, m+1)
		for j := range matchLog[i] {
			matchLog[i][j] = minLogProbability
			insLog[i][j] = minLogProbability
			delLog[i][j] = minLogProbability
		}
	}
	matchLog[0][0] = 0

	// gapOpenPenalties is indexed in the full haplotype's coordinate space,
	// not the local window's, so a local column j-1 maps to offset+(j-1).
	gapOpenLogAt := func(localHapPos int) float64 {
		penalty := model.GapOpen
		absolute := offset + localHapPos
		if absolute >= 0 && absolute < len(gapOpenPenalties) {
			penalty = gapOpenPenalties[absolute]
		}
		return phredToLogProb(penalty)
	}

	inFlank := func(hapPos int) bool {
		absolute := offset + hapPos
		if model.LHSFlankSize > 0 && absolute < model.LHSFlankSize {
			return true
		}
		if model.RHSFlankSize > 0 && absolute >= len(haplotype)-model.RHSFlankSize {
			return true
		}
		return false
	}

	for i := 0; i <= n; i++ {
		for j := 0; j <= m; j++ {
			if i == 0 && j == 0 {
				continue
			}
			var best float64 = minLogProbability
			if i > 0 && j > 0 {
				emitLog := 0.0
				if !inFlank(j - 1) {
					if read[i-1] == hap[j-1] {
						emitLog = log1mexp(phredToLogProb(int(quals[i-1])))
					} else {
						emitLog = phredToLogProb(int(quals[i-1]))
					}
				}
				prev := logAdd(logAdd(matchLog[i-1][j-1], insLog[i-1][j-1]), delLog[i-1][j-1])
				best = prev + emitLog
			}
			matchLog[i][j] = best

			var insBest float64 = minLogProbability
			if i > 0 {
				openLog := gapOpenLogAt(j - 1)
				fromMatch := matchLog[i-1][j] + openLog
				fromIns := insLog[i-1][j] + gapExtendLog
				insBest = logAdd(fromMatch, fromIns)
			}
			insLog[i][j] = insBest

			var delBest float64 = minLogProbability
			if j > 0 {
				openLog := gapOpenLogAt(j - 1)
				fromMatch := matchLog[i][j-1] + openLog
				fromDel := delLog[i][j-1] + gapExtendLog
				delBest = logAdd(fromMatch, fromDel)
			}
			delLog[i][j] = delBest
		}
	}

	best := minLogProbability
	for j := 0; j <= m; j++ {
		best = logAdd(best, logAdd(logAdd(matchLog[n][j], insLog[n][j]), delLog[n][j]))
	}
	if best > 0 {
		best = 0
	}
	return best
}
