package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/region"
)

type fakeCache struct {
	scores map[*align.Haplotype]float64
}

func (c fakeCache) LogLikelihoods(_ string, h *align.Haplotype) []float64 {
	return []float64{c.scores[h]}
}

func mkHaplotype(seq string) *align.Haplotype {
	return &align.Haplotype{RegionVal: region.New("1", 0, uint32(len(seq))), Sequence: seq}
}

// spec.md §8 scenario 6.
func TestFilterByMaximumLikelihoodKeepsTopN(t *testing.T) {
	haps := []*align.Haplotype{
		mkHaplotype("A"), mkHaplotype("C"), mkHaplotype("G"), mkHaplotype("T"), mkHaplotype("AC"),
	}
	cache := fakeCache{scores: map[*align.Haplotype]float64{
		haps[0]: -1, haps[1]: -2, haps[2]: -3, haps[3]: -4, haps[4]: -5,
	}}
	kept, removed := FilterByMaximumLikelihood(haps, []string{"s1"}, cache, 3)

	keptScores := map[float64]bool{}
	for _, h := range kept {
		keptScores[cache.scores[h]] = true
	}
	removedScores := map[float64]bool{}
	for _, h := range removed {
		removedScores[cache.scores[h]] = true
	}
	assert.Len(t, kept, 3)
	assert.Len(t, removed, 2)
	assert.True(t, keptScores[-1] && keptScores[-2] && keptScores[-3])
	assert.True(t, removedScores[-4] && removedScores[-5])
}

func TestFilterByMaximumLikelihoodNoOpWhenUnderLimit(t *testing.T) {
	haps := []*align.Haplotype{mkHaplotype("A"), mkHaplotype("C")}
	cache := fakeCache{scores: map[*align.Haplotype]float64{haps[0]: -1, haps[1]: -2}}
	kept, removed := FilterByMaximumLikelihood(haps, []string{"s1"}, cache, 5)
	assert.Len(t, kept, 2)
	assert.Empty(t, removed)
}

func TestFilterByMaximumLikelihoodEvictsStraddlingDuplicate(t *testing.T) {
	dup1 := mkHaplotype("AAAA")
	dup2 := mkHaplotype("AAAA") // same region+sequence, distinct pointer
	unique := mkHaplotype("CCCC")
	haps := []*align.Haplotype{dup1, dup2, unique}
	cache := fakeCache{scores: map[*align.Haplotype]float64{dup1: -1, unique: -2, dup2: -3}}
	kept, removed := FilterByMaximumLikelihood(haps, []string{"s1"}, cache, 2)
	for _, h := range kept {
		assert.NotEqual(t, "AAAA", h.Sequence)
	}
	assert.Equal(t, "CCCC", kept[0].Sequence)
	_ = removed
}
