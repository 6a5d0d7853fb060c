package readmap

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"

	"github.com/dancooke/octopus/align"
	"github.com/dancooke/octopus/region"
)

func mkRead(begin, end uint32) *align.AlignedRead {
	return &align.AlignedRead{
		RegionVal: region.New("1", begin, end),
		Cigar:     sam.Cigar{sam.NewCigarOp(sam.CigarMatch, int(end-begin))},
	}
}

func TestOverlapRangeOrdered(t *testing.T) {
	rm := New(map[string][]*align.AlignedRead{
		"s1": {mkRead(100, 150), mkRead(10, 60), mkRead(80, 120)},
	})
	hits := rm.OverlapRange("s1", region.New("1", 0, 200))
	if assert.Len(t, hits, 3) {
		assert.Equal(t, uint32(10), hits[0].RegionVal.Begin)
		assert.Equal(t, uint32(80), hits[1].RegionVal.Begin)
		assert.Equal(t, uint32(100), hits[2].RegionVal.Begin)
	}
}

func TestHasShared(t *testing.T) {
	// One read spans both allele positions 100 and 110; that's "sharing".
	rm := New(map[string][]*align.AlignedRead{
		"s1": {mkRead(95, 120)},
	})
	assert.True(t, rm.HasShared(region.New("1", 100, 101), region.New("1", 110, 111)))
	assert.False(t, rm.HasShared(region.New("1", 200, 201), region.New("1", 210, 211)))
}

type rangedRegion region.GenomicRegion

func (r rangedRegion) Region() region.GenomicRegion { return region.GenomicRegion(r) }

func TestMaxCountIfSharedWithFirst(t *testing.T) {
	rm := New(map[string][]*align.AlignedRead{
		"s1": {mkRead(95, 250)}, // spans 100, 150, 200
		"s2": {mkRead(95, 160)}, // spans 100, 150 only
	})
	items := []rangedRegion{
		rangedRegion(region.New("1", 100, 101)),
		rangedRegion(region.New("1", 150, 151)),
		rangedRegion(region.New("1", 200, 201)),
	}
	got := MaxCountIfSharedWithFirst(rm, items)
	assert.Equal(t, 3, got, "sample s1 shares all three positions on one read")
}

func TestFindFirstShared(t *testing.T) {
	rm := New(map[string][]*align.AlignedRead{
		"s1": {mkRead(140, 260)},
	})
	items := []rangedRegion{
		rangedRegion(region.New("1", 100, 101)),
		rangedRegion(region.New("1", 150, 151)),
		rangedRegion(region.New("1", 250, 251)),
	}
	pivot := region.New("1", 255, 256)
	idx := FindFirstShared(rm, items, pivot)
	assert.Equal(t, 1, idx, "item[1] at 150 is the leftmost sharing a read with the pivot at 255")
}
