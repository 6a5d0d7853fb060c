package readio

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dancooke/octopus/align"
)

func newTestRecord(t *testing.T, ref *sam.Reference, pos int, cigar sam.Cigar, seq, qual string) *sam.Record {
	r := sam.GetFromFreePool()
	r.Name = "read1"
	r.Ref = ref
	r.Pos = pos
	r.MapQ = 40
	r.Cigar = cigar
	r.Seq = sam.NewSeq([]byte(seq))
	r.Qual = []byte(qual)
	return r
}

func testHeader(t *testing.T) (*sam.Header, *sam.Reference) {
	ref, err := sam.NewReference("1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{ref})
	require.NoError(t, err)
	return header, ref
}

func TestFromRecordMapsFields(t *testing.T) {
	_, ref := testHeader(t)
	cigar := sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 4)}
	rec := newTestRecord(t, ref, 10, cigar, "ACGT", "IIII")

	read := fromRecord(rec)
	assert.Equal(t, "1", read.RegionVal.Contig)
	assert.Equal(t, uint32(10), read.RegionVal.Begin)
	assert.Equal(t, uint32(14), read.RegionVal.End)
	assert.Equal(t, "ACGT", read.Sequence)
	assert.Equal(t, uint8(40), read.MappingQuality)
	assert.Equal(t, align.Forward, read.Strand)
}

func TestFromRecordDetectsReverseStrand(t *testing.T) {
	_, ref := testHeader(t)
	cigar := sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 4)}
	rec := newTestRecord(t, ref, 10, cigar, "ACGT", "IIII")
	rec.Flags |= sam.Reverse

	read := fromRecord(rec)
	assert.Equal(t, align.Reverse, read.Strand)
}

func TestFindReferenceLooksUpByName(t *testing.T) {
	_, ref := testHeader(t)
	found, ok := findReference([]*sam.Reference{ref}, "1")
	assert.True(t, ok)
	assert.Same(t, ref, found)

	_, ok = findReference([]*sam.Reference{ref}, "2")
	assert.False(t, ok)
}

func TestSampleOfFallsBackWhenNoReadGroup(t *testing.T) {
	_, ref := testHeader(t)
	s := &Source{sampleOfReadGroup: map[string]string{"rg1": "sampleA"}}
	cigar := sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 4)}
	rec := newTestRecord(t, ref, 10, cigar, "ACGT", "IIII")

	assert.Equal(t, "", s.sampleOf(rec))

	aux, err := sam.NewAux(rgTag, "rg1")
	require.NoError(t, err)
	rec.AuxFields = append(rec.AuxFields, aux)
	assert.Equal(t, "sampleA", s.sampleOf(rec))
}
