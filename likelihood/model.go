// Package likelihood implements spec.md §4.3's HaplotypeLikelihoodModel:
// given a haplotype and its flank state, score an aligned read by trying a
// handful of candidate mapping positions through the pair-HMM kernel and
// keeping the best.
//
// Grounded line-for-line on haplotype_liklihood_model.cpp's free function
// log_probability and its num_out_of_range_bases/is_in_range helpers.
package likelihood

import (
	"math"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/octerrors"
	"github.com/dancooke/octopus/pairhmm"
	"github.com/dancooke/octopus/region"
)

// alignmentSlack is the number of extra haplotype bases a candidate mapping
// position is allowed to need beyond the read's own length, spec.md §4.3
// point 3.
const alignmentSlack = 15

func numOutOfRangeBases(mappingPosition int, readLen, haplotypeLen int) int {
	alignmentSize := readLen + mappingPosition + alignmentSlack
	if alignmentSize > haplotypeLen {
		return alignmentSize - haplotypeLen
	}
	return 0
}

func isInRange(mappingPosition int, readLen, haplotypeLen int) bool {
	return numOutOfRangeBases(mappingPosition, readLen, haplotypeLen) == 0
}

// Model is spec.md §4.3's HaplotypeLikelihoodModel, constructed once per
// haplotype and queried per read.
type Model struct {
	haplotype        *align.Haplotype
	gapOpenPenalties []int
	hmmModel         pairhmm.Model
}

// New constructs a Model for haplotype under flankState, deriving the
// pair-HMM's flank sizes from the active-region offsets when the
// corresponding "has flank inactive candidates" flag is set, spec.md §4.3.
func New(haplotype *align.Haplotype, flankState align.FlankState, indelModel IndelErrorModel) *Model {
	hmmModel := pairhmm.DefaultModel()
	if flankState.HasLHSFlankInactiveCandidates {
		d := region.BeginDistance(haplotype.RegionVal, flankState.ActiveRegion)
		if d > 0 {
			hmmModel.LHSFlankSize = int(d)
		}
	}
	if flankState.HasRHSFlankInactiveCandidates {
		d := region.EndDistance(haplotype.RegionVal, flankState.ActiveRegion)
		if d > 0 {
			hmmModel.RHSFlankSize = int(d)
		}
	}
	return &Model{
		haplotype:        haplotype,
		gapOpenPenalties: indelModel.GapOpenPenalties(haplotype.Sequence),
		hmmModel:         hmmModel,
	}
}

// LogProbability scores read against the model's haplotype, trying each of
// mappingPositions plus the read's own naive offset within the haplotype,
// and returning the maximum log probability obtained. The haplotype must
// contain the read's region; violating this is an InternalAssertion.
func (m *Model) LogProbability(read *align.AlignedRead, mappingPositions []int) (float64, error) {
	if !m.haplotype.Contains(read.RegionVal) {
		return 0, octerrors.Errorf(octerrors.InternalAssertion,
			"likelihood: haplotype %s does not contain read region %s", m.haplotype.RegionVal, read.RegionVal)
	}

	originalMappingPosition := int(region.BeginDistance(m.haplotype.RegionVal, read.RegionVal))
	readBases := []byte(read.Sequence)
	hapBases := []byte(m.haplotype.Sequence)
	readLen, hapLen := len(readBases), len(hapBases)

	maxLogProbability := math.Inf(-1)
	isOriginalPositionMapped := false
	hasInRangeMappingPosition := false

	for _, pos := range mappingPositions {
		if isInRange(pos, readLen, hapLen) {
			hasInRangeMappingPosition = true
			cur := pairhmm.AlignAroundOffset(hapBases, readBases, read.Qualities, m.gapOpenPenalties, pos, m.hmmModel)
			if cur > maxLogProbability {
				maxLogProbability = cur
			}
		}
		if pos == originalMappingPosition {
			isOriginalPositionMapped = true
		}
	}

	if !isOriginalPositionMapped && isInRange(originalMappingPosition, readLen, hapLen) {
		hasInRangeMappingPosition = true
		cur := pairhmm.AlignAroundOffset(hapBases, readBases, read.Qualities, m.gapOpenPenalties, originalMappingPosition, m.hmmModel)
		if cur > maxLogProbability {
			maxLogProbability = cur
		}
	}

	if !hasInRangeMappingPosition {
		// Shift left just enough to fit, but never past the haplotype start.
		minShift := numOutOfRangeBases(originalMappingPosition, readLen, hapLen)
		finalMappingPosition := originalMappingPosition - minShift
		if finalMappingPosition < 0 {
			finalMappingPosition = 0
		}
		maxLogProbability = pairhmm.AlignAroundOffset(hapBases, readBases, read.Qualities, m.gapOpenPenalties, finalMappingPosition, m.hmmModel)
	}

	return maxLogProbability, nil
}
