package align

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dancooke/octopus/region"
)

func refFromMap(m map[string]string) func(string, uint32, uint32) (string, error) {
	return func(contig string, begin, end uint32) (string, error) {
		return m[contig][begin:end], nil
	}
}

func TestAlignedReadEqualityIgnoresSequence(t *testing.T) {
	cigar := sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 4)}
	a := &AlignedRead{RegionVal: region.New("1", 0, 4), Sequence: "ACGT", Cigar: cigar, MappingQuality: 30}
	b := &AlignedRead{RegionVal: region.New("1", 0, 4), Sequence: "TTTT", Cigar: cigar, MappingQuality: 30}
	assert.True(t, a.Equal(b))

	c := &AlignedRead{RegionVal: region.New("1", 0, 4), Sequence: "ACGT", Cigar: cigar, MappingQuality: 20}
	assert.False(t, a.Equal(c))
}

func TestValidateCigar(t *testing.T) {
	c := sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 3), sam.NewCigarOp(sam.CigarDeletion, 2), sam.NewCigarOp(sam.CigarMatch, 1)}
	assert.True(t, ValidateCigar(c, 6))
	assert.False(t, ValidateCigar(c, 4))
}

func TestHaplotypeBuildSNV(t *testing.T) {
	ref := refFromMap(map[string]string{"1": "ACGTACGT"})
	snv := Allele{RegionVal: region.New("1", 2, 3), Sequence: "T"}
	h, err := Build(region.New("1", 0, 8), []Allele{snv}, ref)
	require.NoError(t, err)
	assert.Equal(t, "ACTTACGT", h.Sequence)
	assert.Equal(t, 8, h.Len())
}

func TestHaplotypeBuildInsertion(t *testing.T) {
	ref := refFromMap(map[string]string{"1": "ACGTACGT"})
	ins := Allele{RegionVal: region.New("1", 4, 4), Sequence: "NNN"}
	h, err := Build(region.New("1", 0, 8), []Allele{ins}, ref)
	require.NoError(t, err)
	assert.Equal(t, "ACGTNNNACGT", h.Sequence)
	assert.Equal(t, 11, h.Len(), "insertion lengthens the haplotype beyond the reference region width")
}

func TestHaplotypeBuildRejectsOverlap(t *testing.T) {
	ref := refFromMap(map[string]string{"1": "ACGTACGT"})
	a := Allele{RegionVal: region.New("1", 2, 4), Sequence: "TT"}
	b := Allele{RegionVal: region.New("1", 3, 5), Sequence: "GG"}
	_, err := Build(region.New("1", 0, 8), []Allele{a, b}, ref)
	assert.Error(t, err)
}

func TestHaplotypeIsReference(t *testing.T) {
	ref := refFromMap(map[string]string{"1": "ACGTACGT"})
	h, err := Build(region.New("1", 0, 8), nil, ref)
	require.NoError(t, err)
	assert.True(t, h.IsReference())
	assert.Equal(t, "ACGTACGT", h.Sequence)
}
