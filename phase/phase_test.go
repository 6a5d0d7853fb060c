package phase

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/model"
	"github.com/dancooke/octopus/readmap"
	"github.com/dancooke/octopus/region"
)

func hapG(seq string) model.Genotype {
	h := &align.Haplotype{RegionVal: region.New("1", 0, uint32(len(seq))), Sequence: seq}
	return model.Genotype{Haplotypes: []*align.Haplotype{h}}
}

func mkRead(begin, end uint32) *align.AlignedRead {
	return &align.AlignedRead{
		RegionVal: region.New("1", begin, end),
		Cigar:     sam.Cigar{sam.NewCigarOp(sam.CigarMatch, int(end-begin))},
	}
}

func TestScoreIsInfiniteWithNoSharedReads(t *testing.T) {
	reads := readmap.New(nil)
	left := []model.Genotype{hapG("A"), hapG("C")}
	right := []model.Genotype{hapG("G"), hapG("T")}
	score := Score(left, right, []float64{0.9, 0.1}, []float64{0.9, 0.1}, reads,
		region.New("1", 0, 10), region.New("1", 10, 20))
	assert.True(t, score > 0)
}

func TestBuildPhaseSetsMergesAboveThreshold(t *testing.T) {
	regions := []region.GenomicRegion{
		region.New("1", 0, 10), region.New("1", 10, 20), region.New("1", 20, 30),
	}
	scores := []float64{5, 1}
	sets := BuildPhaseSets(regions, scores, 2)
	if assert.Len(t, sets, 2) {
		assert.Equal(t, region.New("1", 0, 20), sets[0].Region)
		assert.Equal(t, region.New("1", 20, 30), sets[1].Region)
	}
}
