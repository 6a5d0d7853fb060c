package pairhmm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// spec.md §8 scenario 5: exact match over the whole read yields a log
// probability within 0.01 of zero.
func TestAlignAroundOffsetExactMatchIsNearZero(t *testing.T) {
	hap := []byte("ACGTACGT")
	read := []byte("ACGT")
	quals := []byte{30, 30, 30, 30}
	gapOpen := make([]int, len(hap))
	for i := range gapOpen {
		gapOpen[i] = DefaultModel().GapOpen
	}
	got := AlignAroundOffset(hap, read, quals, gapOpen, 0, DefaultModel())
	assert.InDelta(t, 0, got, 0.01)
}

func TestAlignAroundOffsetNeverPositive(t *testing.T) {
	hap := []byte("ACGTACGTACGT")
	read := []byte("ACGGACGT")
	quals := []byte{20, 20, 20, 20, 20, 20, 20, 20}
	gapOpen := make([]int, len(hap))
	for i := range gapOpen {
		gapOpen[i] = DefaultModel().GapOpen
	}
	got := AlignAroundOffset(hap, read, quals, gapOpen, 0, DefaultModel())
	assert.True(t, got <= 0 && !math.IsNaN(got))
}

func TestAlignAroundOffsetMismatchIsWorseThanMatch(t *testing.T) {
	hap := []byte("ACGTACGTACGT")
	gapOpen := make([]int, len(hap))
	for i := range gapOpen {
		gapOpen[i] = DefaultModel().GapOpen
	}
	quals := []byte{30, 30, 30, 30}
	matchRead := []byte("ACGT")
	mismatchRead := []byte("TCGT")
	matchScore := AlignAroundOffset(hap, matchRead, quals, gapOpen, 0, DefaultModel())
	mismatchScore := AlignAroundOffset(hap, mismatchRead, quals, gapOpen, 0, DefaultModel())
	assert.True(t, mismatchScore < matchScore)
}

// Flank masking: differences in the first LHSFlankSize bases never affect
// the score, matching spec.md §8's flank-masking invariant.
func TestAlignAroundOffsetFlankMaskingIgnoresLeadingDifference(t *testing.T) {
	model := DefaultModel()
	model.LHSFlankSize = 2
	gapOpen := make([]int, 12)
	for i := range gapOpen {
		gapOpen[i] = model.GapOpen
	}
	quals := []byte{30, 30, 30, 30}

	a := AlignAroundOffset([]byte("AAGTACGTACGT"), []byte("AAGT"), quals, gapOpen, 0, model)
	b := AlignAroundOffset([]byte("TTGTACGTACGT"), []byte("AAGT"), quals, gapOpen, 0, model)
	assert.InDelta(t, a, b, 1e-9)
}
